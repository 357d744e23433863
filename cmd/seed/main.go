// 開発用のデモデータ投入ツール。
// 起動中のtaskhubサーバーの公開APIを呼び出して、ユーザー・プロジェクト・
// タスク・コメント・参加リクエストの一連のデータを作成する。
//
// 使い方:
//
//	go run ./cmd/seed -url http://localhost:8080
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/nao1215/taskhub/pkg/httpclient"
)

// seedUser はデモユーザーの定義。
type seedUser struct {
	username string
	email    string
	password string
}

var seedUsers = []seedUser{
	{username: "alice", email: "alice@example.com", password: "password123"},
	{username: "bob", email: "bob@example.com", password: "password123"},
	{username: "carol", email: "carol@example.com", password: "password123"},
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "taskhubサーバーのベースURL")
	flag.Parse()

	client := httpclient.New(*baseURL)
	ctx := context.Background()

	if err := run(ctx, client); err != nil {
		log.Fatalf("デモデータの投入に失敗: %v", err)
	}
	log.Print("デモデータの投入が完了しました")
}

// authResponse は登録・ログインAPIのレスポンス。
type authResponse struct {
	Token string `json:"token"`
	User  struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
}

func run(ctx context.Context, client *httpclient.Client) error {
	// ユーザー登録。既に存在する場合はログインに切り替える。
	tokens := make(map[string]string)
	ids := make(map[string]string)
	for _, u := range seedUsers {
		var auth authResponse
		err := client.PostJSON(ctx, "/api/v1/auth/register", map[string]any{
			"username": u.username,
			"email":    u.email,
			"password": u.password,
		}, &auth)
		if err != nil {
			if err := client.PostJSON(ctx, "/api/v1/auth/login", map[string]any{
				"username": u.username,
				"password": u.password,
			}, &auth); err != nil {
				return fmt.Errorf("ユーザー%sのログインに失敗: %w", u.username, err)
			}
		}
		tokens[u.username] = auth.Token
		ids[u.username] = auth.User.ID
		log.Printf("ユーザーを準備しました: %s", u.username)
	}

	aliceCtx := httpclient.WithToken(ctx, tokens["alice"])
	bobCtx := httpclient.WithToken(ctx, tokens["bob"])
	carolCtx := httpclient.WithToken(ctx, tokens["carol"])

	// aliceがプロジェクトを作成し、bobを直接コラボレーターに追加する
	var project struct {
		ID string `json:"id"`
	}
	if err := client.PostJSON(aliceCtx, "/api/v1/projects", map[string]any{
		"name":        "v1.0リリース",
		"description": "初回リリースに向けたタスク管理",
	}, &project); err != nil {
		return fmt.Errorf("プロジェクトの作成に失敗: %w", err)
	}
	log.Printf("プロジェクトを作成しました: %s", project.ID)

	if err := client.PostJSON(aliceCtx, "/api/v1/projects/"+project.ID+"/collaborators", map[string]any{
		"user_id": ids["bob"],
	}, nil); err != nil {
		return fmt.Errorf("コラボレーターの追加に失敗: %w", err)
	}
	log.Print("bobをコラボレーターに追加しました")

	// carolは参加リクエストを送信し、承認待ちのままにする
	if err := client.PostJSON(carolCtx, "/api/v1/projects/"+project.ID+"/collaboration-requests", nil, nil); err != nil {
		return fmt.Errorf("参加リクエストの送信に失敗: %w", err)
	}
	log.Print("carolが参加リクエストを送信しました")

	// タスクとコメントを作成する
	tasks := []map[string]any{
		{
			"project_id":       project.ID,
			"title":            "リリースノート作成",
			"description":      "変更点をまとめてリリースノートを書く",
			"priority":         "high",
			"assigned_user_id": ids["bob"],
		},
		{
			"project_id": project.ID,
			"title":      "CI設定の見直し",
			"priority":   "medium",
		},
		{
			"project_id":       project.ID,
			"title":            "ドキュメント更新",
			"priority":         "low",
			"assigned_user_id": ids["alice"],
		},
	}

	var firstTaskID string
	for _, task := range tasks {
		var created struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		}
		if err := client.PostJSON(aliceCtx, "/api/v1/tasks", task, &created); err != nil {
			return fmt.Errorf("タスクの作成に失敗: %w", err)
		}
		if firstTaskID == "" {
			firstTaskID = created.ID
		}
		log.Printf("タスクを作成しました: %s", created.Title)
	}

	if err := client.PostJSON(bobCtx, "/api/v1/tasks/"+firstTaskID+"/comments", map[string]any{
		"body": "ドラフトを作成しました。レビューをお願いします。",
	}, nil); err != nil {
		return fmt.Errorf("コメントの作成に失敗: %w", err)
	}
	log.Print("コメントを作成しました")

	// 1件目のタスクを進行中にする
	if err := client.PutJSON(bobCtx, "/api/v1/tasks/"+firstTaskID+"/status", map[string]any{
		"status": "in_progress",
	}, nil); err != nil {
		return fmt.Errorf("タスクステータスの更新に失敗: %w", err)
	}
	log.Print("タスクを進行中に更新しました")

	return nil
}
