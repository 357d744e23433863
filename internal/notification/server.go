package notification

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	notificationdb "github.com/nao1215/taskhub/internal/notification/db"
	"github.com/nao1215/taskhub/pkg/middleware"
)

// Server は通知APIのHTTPハンドラ群。
type Server struct {
	// queries は通知テーブルへのクエリ実行オブジェクト。
	queries *notificationdb.Queries
	// workflow は参加リクエストの承認・却下を処理するワークフロー。
	workflow *Workflow
}

// NewServer は新しい通知APIサーバーを生成する。
func NewServer(queries *notificationdb.Queries, workflow *Workflow) *Server {
	return &Server{
		queries:  queries,
		workflow: workflow,
	}
}

// Routes は通知APIのルーティングを認証済みグループに登録する。
func (s *Server) Routes(api *gin.RouterGroup) {
	notifications := api.Group("/notifications")
	{
		// 通知一覧取得
		notifications.GET("", s.handleList())
		// 未読通知一覧取得
		notifications.GET("/unread", s.handleListUnread())
		// 通知を既読にする
		notifications.PUT("/:id/read", s.handleMarkAsRead())
		// 全通知を既読にする
		notifications.PUT("/read-all", s.handleMarkAllAsRead())
		// 参加リクエストを承認する
		notifications.POST("/:id/accept", s.handleAccept())
		// 参加リクエストを却下する
		notifications.POST("/:id/reject", s.handleReject())
		// 通知を削除する
		notifications.DELETE("/:id", s.handleDelete())
		// 全通知を削除する
		notifications.DELETE("", s.handleDeleteAll())
	}
}

// notificationResponse は通知のJSONレスポンス構造。
type notificationResponse struct {
	// ID は通知の一意識別子。
	ID string `json:"id"`
	// UserID は通知先のユーザーID。
	UserID string `json:"user_id"`
	// Message は通知メッセージ。
	Message string `json:"message"`
	// Type は通知の種類。
	Type string `json:"type"`
	// ProjectID は関連するプロジェクトのID（存在する場合）。
	ProjectID string `json:"project_id,omitempty"`
	// SenderUserID は通知を発生させたユーザーのID（存在する場合）。
	SenderUserID string `json:"sender_user_id,omitempty"`
	// IsRead は通知の既読状態。
	IsRead bool `json:"is_read"`
	// CreatedAt は通知の作成日時（RFC3339形式）。
	CreatedAt string `json:"created_at"`
}

// toNotificationResponse はDB行をJSONレスポンスに変換する。
func toNotificationResponse(n notificationdb.Notification) notificationResponse {
	return notificationResponse{
		ID:           n.ID,
		UserID:       n.UserID,
		Message:      n.Message,
		Type:         n.Type,
		ProjectID:    n.ProjectID.String,
		SenderUserID: n.SenderUserID.String,
		IsRead:       n.IsRead != 0,
		CreatedAt:    n.CreatedAt.Format(time.RFC3339),
	}
}

// toNotificationResponses はDB行のスライスをJSONレスポンスのスライスに変換する。
func toNotificationResponses(notifications []notificationdb.Notification) []notificationResponse {
	responses := make([]notificationResponse, 0, len(notifications))
	for _, n := range notifications {
		responses = append(responses, toNotificationResponse(n))
	}
	return responses
}

// handleList は認証済みユーザーの通知一覧を返すハンドラ。
func (s *Server) handleList() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		notifications, err := s.queries.ListNotificationsByUserID(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "通知一覧の取得に失敗しました"})
			log.Printf("通知一覧取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, toNotificationResponses(notifications))
	}
}

// handleListUnread は認証済みユーザーの未読通知一覧を返すハンドラ。
func (s *Server) handleListUnread() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		notifications, err := s.queries.ListUnreadNotifications(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "未読通知一覧の取得に失敗しました"})
			log.Printf("未読通知一覧取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, toNotificationResponses(notifications))
	}
}

// ownedNotification は通知の存在と所有者を確認して返す。
// 失敗時はレスポンス書き込み済みでfalseを返す。
func (s *Server) ownedNotification(c *gin.Context, userID string) (notificationdb.Notification, bool) {
	notificationID := c.Param("id")
	if notificationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "通知IDが必要です"})
		return notificationdb.Notification{}, false
	}

	n, err := s.queries.GetNotificationByID(c.Request.Context(), notificationID)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "通知が見つかりません"})
		return notificationdb.Notification{}, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "通知の取得に失敗しました"})
		log.Printf("通知取得エラー: %v", err)
		return notificationdb.Notification{}, false
	}

	if n.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "この通知を操作する権限がありません"})
		return notificationdb.Notification{}, false
	}
	return n, true
}

// handleMarkAsRead は指定された通知を既読にするハンドラ。
func (s *Server) handleMarkAsRead() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		n, ok := s.ownedNotification(c, userID)
		if !ok {
			return
		}

		if err := s.queries.MarkAsRead(c.Request.Context(), n.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "通知の既読処理に失敗しました"})
			log.Printf("通知既読処理エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "通知を既読にしました"})
	}
}

// handleMarkAllAsRead は認証済みユーザーの全通知を既読にするハンドラ。
func (s *Server) handleMarkAllAsRead() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		if err := s.queries.MarkAllAsRead(c.Request.Context(), userID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "全通知の既読処理に失敗しました"})
			log.Printf("全通知既読処理エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "全通知を既読にしました"})
	}
}

// handleAccept は参加リクエスト通知を承認するハンドラ。
// 通知の宛先ユーザー（プロジェクトのオーナー）だけが承認できる。
func (s *Server) handleAccept() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		n, ok := s.ownedNotification(c, userID)
		if !ok {
			return
		}

		if err := s.workflow.AcceptCollaborationRequest(c.Request.Context(), n.ID); err != nil {
			s.writeWorkflowError(c, err, "参加リクエスト承認エラー")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "参加リクエストを承認しました"})
	}
}

// handleReject は参加リクエスト通知を却下するハンドラ。
// 通知の宛先ユーザー（プロジェクトのオーナー）だけが却下できる。
func (s *Server) handleReject() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		n, ok := s.ownedNotification(c, userID)
		if !ok {
			return
		}

		if err := s.workflow.RejectCollaborationRequest(c.Request.Context(), n.ID); err != nil {
			s.writeWorkflowError(c, err, "参加リクエスト却下エラー")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "参加リクエストを却下しました"})
	}
}

// writeWorkflowError はワークフローのエラーをHTTPステータスに対応付ける。
func (s *Server) writeWorkflowError(c *gin.Context, err error, logPrefix string) {
	switch {
	case errors.Is(err, ErrNotificationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": ErrNotificationNotFound.Error()})
	case errors.Is(err, ErrInvalidNotificationType):
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrInvalidNotificationType.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "参加リクエストの処理に失敗しました"})
		log.Printf("%s: %v", logPrefix, err)
	}
}

// handleDelete は指定された通知を削除するハンドラ。
func (s *Server) handleDelete() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		n, ok := s.ownedNotification(c, userID)
		if !ok {
			return
		}

		if err := s.queries.DeleteNotification(c.Request.Context(), n.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "通知の削除に失敗しました"})
			log.Printf("通知削除エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "通知を削除しました"})
	}
}

// handleDeleteAll は認証済みユーザーの全通知を削除するハンドラ。
func (s *Server) handleDeleteAll() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		if err := s.queries.DeleteNotificationsByUserID(c.Request.Context(), userID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "全通知の削除に失敗しました"})
			log.Printf("全通知削除エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "全通知を削除しました"})
	}
}
