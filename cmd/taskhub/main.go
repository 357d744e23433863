// taskhubサーバーのエントリポイント。
// プロジェクト・タスク管理と通知のリアルタイム配信を提供するHTTPサーバーを起動する。
package main

import (
	"log"

	"github.com/nao1215/taskhub/internal/config"
	"github.com/nao1215/taskhub/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("サーバーの初期化に失敗: %v", err)
	}
	defer srv.Close()

	log.Printf("taskhubサーバーを起動します: %s", cfg.Addr())
	if err := srv.Run(); err != nil {
		log.Fatalf("サーバーの起動に失敗: %v", err)
	}
}
