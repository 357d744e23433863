package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/gin-gonic/gin"

	notificationdb "github.com/nao1215/taskhub/internal/notification/db"
	"github.com/nao1215/taskhub/pkg/event"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testServer は通知APIのテスト一式。
type testServer struct {
	router  *gin.Engine
	queries *notificationdb.Queries
	store   *fakeMembershipStore
	pusher  *fakePusher
}

// setupTestServer はテスト用の通知APIサーバーをインメモリSQLiteで構築する。
// オーナーowner-1のプロジェクトproject-1を1件持つ所属ストアを使用する。
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	queries := setupQueries(t)
	store := newFakeMembershipStore("project-1", "owner-1")
	pusher := newFakePusher()
	dispatcher := NewDispatcher(queries, pusher)
	workflow := NewWorkflow(queries, store, dispatcher, pusher)
	s := NewServer(queries, workflow)

	router := gin.New()
	// JWTミドルウェアの代わりにテスト用のユーザーID設定ミドルウェアを使用する
	api := router.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID != "" {
			c.Set("user_id", userID)
		}
		c.Next()
	})
	s.Routes(api)

	return &testServer{
		router:  router,
		queries: queries,
		store:   store,
		pusher:  pusher,
	}
}

// createTestNotification はテスト用に通知をDBに直接挿入するヘルパー関数。
func createTestNotification(t *testing.T, ts *testServer, id, userID, message string, typ event.NotificationType) {
	t.Helper()
	err := ts.queries.CreateNotification(
		context.Background(),
		notificationdb.CreateNotificationParams{
			ID:      id,
			UserID:  userID,
			Message: message,
			Type:    string(typ),
		},
	)
	if err != nil {
		t.Fatalf("テスト用通知の作成に失敗: %v", err)
	}
}

// doRequest はテスト用のHTTPリクエストを実行し、レスポンスを返すヘルパー関数。
func doRequest(router *gin.Engine, method, path, userID string, body any) *httptest.ResponseRecorder {
	var reqBody *bytes.Reader
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewReader(jsonBytes)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// parseJSON はレスポンスボディをmapにデコードするヘルパー関数。
func parseJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var result map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("JSONのデコードに失敗: %v, body=%s", err, w.Body.String())
	}
	return result
}

// parseJSONArray はレスポンスボディをスライスにデコードするヘルパー関数。
func parseJSONArray(t *testing.T, w *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var result []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("JSON配列のデコードに失敗: %v, body=%s", err, w.Body.String())
	}
	return result
}

// requestCollaboration はテスト用に参加リクエストを送信し通知IDを返すヘルパー関数。
func requestCollaboration(t *testing.T, ts *testServer, projectID, requesterID string) string {
	t.Helper()
	dispatcher := NewDispatcher(ts.queries, ts.pusher)
	w := NewWorkflow(ts.queries, ts.store, dispatcher, ts.pusher)
	stored, err := w.RequestCollaboration(context.Background(), projectID, requesterID)
	if err != nil {
		t.Fatalf("テスト用参加リクエストの送信に失敗: %v", err)
	}
	return stored.ID
}

// TestHandleListNotifications は通知一覧取得ハンドラのテスト。
func TestHandleListNotifications(t *testing.T) {
	t.Parallel()

	t.Run("通知が存在しない場合は空配列を返す", func(t *testing.T) {
		t.Parallel()
		ts := setupTestServer(t)

		w := doRequest(ts.router, http.MethodGet, "/api/v1/notifications", "user-1", nil)

		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusOK)
		}

		result := parseJSONArray(t, w)
		if len(result) != 0 {
			t.Errorf("配列の長さ: got %d, want 0", len(result))
		}
	})

	t.Run("自分宛の通知だけが返される", func(t *testing.T) {
		t.Parallel()
		ts := setupTestServer(t)

		createTestNotification(t, ts, "notif-1", "user-1", "メッセージ1", event.TypeOther)
		createTestNotification(t, ts, "notif-2", "user-1", "メッセージ2", event.TypeTaskAssigned)
		// 別ユーザーの通知は含まれないことを確認するため
		createTestNotification(t, ts, "notif-3", "user-2", "他ユーザーのメッセージ", event.TypeOther)

		w := doRequest(ts.router, http.MethodGet, "/api/v1/notifications", "user-1", nil)

		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusOK)
		}

		result := parseJSONArray(t, w)
		if len(result) != 2 {
			t.Errorf("配列の長さ: got %d, want 2", len(result))
		}
	})

	t.Run("通知のフィールドが正しく返される", func(t *testing.T) {
		t.Parallel()
		ts := setupTestServer(t)

		createTestNotification(t, ts, "notif-1", "user-1", "テストメッセージ", event.TypeTaskAssigned)

		w := doRequest(ts.router, http.MethodGet, "/api/v1/notifications", "user-1", nil)

		result := parseJSONArray(t, w)
		if len(result) != 1 {
			t.Fatalf("配列の長さ: got %d, want 1", len(result))
		}

		notif := result[0]
		if notif["id"] != "notif-1" {
			t.Errorf("id: got %v, want notif-1", notif["id"])
		}
		if notif["user_id"] != "user-1" {
			t.Errorf("user_id: got %v, want user-1", notif["user_id"])
		}
		if notif["message"] != "テストメッセージ" {
			t.Errorf("message: got %v, want テストメッセージ", notif["message"])
		}
		if notif["type"] != string(event.TypeTaskAssigned) {
			t.Errorf("type: got %v, want %s", notif["type"], event.TypeTaskAssigned)
		}
		if notif["is_read"] != false {
			t.Errorf("is_read: got %v, want false", notif["is_read"])
		}
	})

	t.Run("ユーザーIDが未設定の場合はUnauthorized", func(t *testing.T) {
		t.Parallel()
		ts := setupTestServer(t)

		w := doRequest(ts.router, http.MethodGet, "/api/v1/notifications", "", nil)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})
}

// TestHandleListUnreadNotifications は未読通知一覧取得ハンドラのテスト。
func TestHandleListUnreadNotifications(t *testing.T) {
	t.Parallel()

	t.Run("未読の通知だけが返される", func(t *testing.T) {
		t.Parallel()
		ts := setupTestServer(t)

		createTestNotification(t, ts, "notif-1", "user-1", "未読", event.TypeOther)
		createTestNotification(t, ts, "notif-2", "user-1", "既読予定", event.TypeOther)
		if err := ts.queries.MarkAsRead(context.Background(), "notif-2"); err != nil {
			t.Fatalf("既読処理に失敗: %v", err)
		}

		w := doRequest(ts.router, http.MethodGet, "/api/v1/notifications/unread", "user-1", nil)

		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusOK)
		}

		result := parseJSONArray(t, w)
		if len(result) != 1 {
			t.Fatalf("配列の長さ: got %d, want 1", len(result))
		}
		if result[0]["id"] != "notif-1" {
			t.Errorf("id: got %v, want notif-1", result[0]["id"])
		}
	})
}

// TestHandleMarkAsRead は通知既読化ハンドラのテスト。
func TestHandleMarkAsRead(t *testing.T) {
	t.Parallel()

	t.Run("自分宛の通知を既読にできる", func(t *testing.T) {
		t.Parallel()
		ts := setupTestServer(t)

		createTestNotification(t, ts, "notif-1", "user-1", "メッセージ", event.TypeOther)

		w := doRequest(ts.router, http.MethodPut, "/api/v1/notifications/notif-1/read", "user-1", nil)

		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusOK)
		}

		n, err := ts.queries.GetNotificationByID(context.Background(), "notif-1")
		if err != nil {
			t.Fatalf("通知の取得に失敗: %v", err)
		}
		if n.IsRead != 1 {
			t.Errorf("is_read: got %d, want 1", n.IsRead)
		}
	})

	t.Run("他人の通知は既読にできない", func(t *testing.T) {
		t.Parallel()
		ts := setupTestServer(t)

		createTestNotification(t, ts, "notif-1", "user-1", "メッセージ", event.TypeOther)

		w := doRequest(ts.router, http.MethodPut, "/api/v1/notifications/notif-1/read", "user-2", nil)

		if w.Code != http.StatusForbidden {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusForbidden)
		}
	})

	t.Run("存在しない通知はNotFound", func(t *testing.T) {
		t.Parallel()
		ts := setupTestServer(t)

		w := doRequest(ts.router, http.MethodPut, "/api/v1/notifications/no-such-id/read", "user-1", nil)

		if w.Code != http.StatusNotFound {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

// TestHandleMarkAllAsRead は全通知既読化ハンドラのテスト。
func TestHandleMarkAllAsRead(t *testing.T) {
	t.Parallel()

	ts := setupTestServer(t)

	createTestNotification(t, ts, "notif-1", "user-1", "メッセージ1", event.TypeOther)
	createTestNotification(t, ts, "notif-2", "user-1", "メッセージ2", event.TypeOther)

	w := doRequest(ts.router, http.MethodPut, "/api/v1/notifications/read-all", "user-1", nil)

	if w.Code != http.StatusOK {
		t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusOK)
	}

	unread, err := ts.queries.ListUnreadNotifications(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("未読通知一覧の取得に失敗: %v", err)
	}
	if len(unread) != 0 {
		t.Errorf("未読件数: got %d, want 0", len(unread))
	}
}

// TestHandleAccept は参加リクエスト承認ハンドラのテスト。
func TestHandleAccept(t *testing.T) {
	t.Parallel()

	t.Run("オーナーが承認するとコラボレーターに昇格する", func(t *testing.T) {
		t.Parallel()
		ts := setupTestServer(t)

		notifID := requestCollaboration(t, ts, "project-1", "user-2")

		w := doRequest(ts.router, http.MethodPost, "/api/v1/notifications/"+notifID+"/accept", "owner-1", nil)

		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード: got %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
		}

		m := ts.store.snapshot("project-1")
		if !slices.Contains(m.CollaboratorIDs, "user-2") {
			t.Errorf("コラボレーター集合: got %v, want user-2を含む", m.CollaboratorIDs)
		}
		if slices.Contains(m.PendingIDs, "user-2") {
			t.Errorf("保留集合: got %v, want user-2を含まない", m.PendingIDs)
		}
	})

	t.Run("宛先以外のユーザーは承認できない", func(t *testing.T) {
		t.Parallel()
		ts := setupTestServer(t)

		notifID := requestCollaboration(t, ts, "project-1", "user-2")

		// リクエスト元自身にも承認の権限はない
		w := doRequest(ts.router, http.MethodPost, "/api/v1/notifications/"+notifID+"/accept", "user-2", nil)

		if w.Code != http.StatusForbidden {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusForbidden)
		}
	})

	t.Run("参加リクエスト以外の通知の承認はBadRequest", func(t *testing.T) {
		t.Parallel()
		ts := setupTestServer(t)

		createTestNotification(t, ts, "notif-1", "owner-1", "汎用通知", event.TypeOther)

		w := doRequest(ts.router, http.MethodPost, "/api/v1/notifications/notif-1/accept", "owner-1", nil)

		if w.Code != http.StatusBadRequest {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("存在しない通知の承認はNotFound", func(t *testing.T) {
		t.Parallel()
		ts := setupTestServer(t)

		w := doRequest(ts.router, http.MethodPost, "/api/v1/notifications/no-such-id/accept", "owner-1", nil)

		if w.Code != http.StatusNotFound {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

// TestHandleReject は参加リクエスト却下ハンドラのテスト。
func TestHandleReject(t *testing.T) {
	t.Parallel()

	t.Run("オーナーが却下すると保留が解除される", func(t *testing.T) {
		t.Parallel()
		ts := setupTestServer(t)

		notifID := requestCollaboration(t, ts, "project-1", "user-2")

		w := doRequest(ts.router, http.MethodPost, "/api/v1/notifications/"+notifID+"/reject", "owner-1", nil)

		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード: got %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
		}

		m := ts.store.snapshot("project-1")
		if slices.Contains(m.PendingIDs, "user-2") {
			t.Errorf("保留集合: got %v, want user-2を含まない", m.PendingIDs)
		}
		if slices.Contains(m.CollaboratorIDs, "user-2") {
			t.Errorf("コラボレーター集合: got %v, want user-2を含まない", m.CollaboratorIDs)
		}
	})

	t.Run("宛先以外のユーザーは却下できない", func(t *testing.T) {
		t.Parallel()
		ts := setupTestServer(t)

		notifID := requestCollaboration(t, ts, "project-1", "user-2")

		w := doRequest(ts.router, http.MethodPost, "/api/v1/notifications/"+notifID+"/reject", "user-3", nil)

		if w.Code != http.StatusForbidden {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusForbidden)
		}
	})
}

// TestHandleDeleteNotification は通知削除ハンドラのテスト。
func TestHandleDeleteNotification(t *testing.T) {
	t.Parallel()

	t.Run("自分宛の通知を削除できる", func(t *testing.T) {
		t.Parallel()
		ts := setupTestServer(t)

		createTestNotification(t, ts, "notif-1", "user-1", "メッセージ", event.TypeOther)

		w := doRequest(ts.router, http.MethodDelete, "/api/v1/notifications/notif-1", "user-1", nil)

		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusOK)
		}

		notifications, err := ts.queries.ListNotificationsByUserID(context.Background(), "user-1")
		if err != nil {
			t.Fatalf("通知一覧の取得に失敗: %v", err)
		}
		if len(notifications) != 0 {
			t.Errorf("通知件数: got %d, want 0", len(notifications))
		}
	})

	t.Run("他人の通知は削除できない", func(t *testing.T) {
		t.Parallel()
		ts := setupTestServer(t)

		createTestNotification(t, ts, "notif-1", "user-1", "メッセージ", event.TypeOther)

		w := doRequest(ts.router, http.MethodDelete, "/api/v1/notifications/notif-1", "user-2", nil)

		if w.Code != http.StatusForbidden {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusForbidden)
		}
	})
}

// TestHandleDeleteAllNotifications は全通知削除ハンドラのテスト。
func TestHandleDeleteAllNotifications(t *testing.T) {
	t.Parallel()

	ts := setupTestServer(t)

	createTestNotification(t, ts, "notif-1", "user-1", "メッセージ1", event.TypeOther)
	createTestNotification(t, ts, "notif-2", "user-1", "メッセージ2", event.TypeOther)
	createTestNotification(t, ts, "notif-3", "user-2", "他ユーザー", event.TypeOther)

	w := doRequest(ts.router, http.MethodDelete, "/api/v1/notifications", "user-1", nil)

	if w.Code != http.StatusOK {
		t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusOK)
	}

	mine, err := ts.queries.ListNotificationsByUserID(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("通知一覧の取得に失敗: %v", err)
	}
	if len(mine) != 0 {
		t.Errorf("user-1の通知件数: got %d, want 0", len(mine))
	}

	// 他ユーザーの通知は残る
	others, err := ts.queries.ListNotificationsByUserID(context.Background(), "user-2")
	if err != nil {
		t.Fatalf("通知一覧の取得に失敗: %v", err)
	}
	if len(others) != 1 {
		t.Errorf("user-2の通知件数: got %d, want 1", len(others))
	}
}
