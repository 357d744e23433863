package comment

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	commentdb "github.com/nao1215/taskhub/internal/comment/db"
	"github.com/nao1215/taskhub/internal/notification"
	"github.com/nao1215/taskhub/pkg/event"
	"github.com/nao1215/taskhub/pkg/middleware"
)

// Server はコメントAPIのHTTPハンドラ群。
type Server struct {
	// queries はコメントテーブルへのクエリ実行オブジェクト。
	queries *commentdb.Queries
	// members はプロジェクト所属の参照先。アクセス権チェックに使う。
	members notification.MembershipStore
	// dispatcher は通知の永続化と配信のオーケストレータ。
	dispatcher *notification.Dispatcher
}

// NewServer は新しいコメントAPIサーバーを生成する。
func NewServer(queries *commentdb.Queries, members notification.MembershipStore, dispatcher *notification.Dispatcher) *Server {
	return &Server{
		queries:    queries,
		members:    members,
		dispatcher: dispatcher,
	}
}

// Routes はコメントAPIのルーティングを認証済みグループに登録する。
func (s *Server) Routes(api *gin.RouterGroup) {
	// タスク配下のコメント操作
	api.POST("/tasks/:id/comments", s.handleCreate())
	api.GET("/tasks/:id/comments", s.handleListByTask())

	comments := api.Group("/comments")
	{
		// コメント更新（投稿者のみ）
		comments.PUT("/:id", s.handleUpdate())
		// コメント削除（投稿者のみ）
		comments.DELETE("/:id", s.handleDelete())
	}
}

// createCommentRequest はコメント作成リクエストのJSON構造。
type createCommentRequest struct {
	// Body はコメント本文。
	Body string `json:"body" binding:"required"`
}

// updateCommentRequest はコメント更新リクエストのJSON構造。
type updateCommentRequest struct {
	// Body はコメント本文。
	Body string `json:"body" binding:"required"`
}

// commentResponse はコメントのJSONレスポンス構造。
type commentResponse struct {
	// ID はコメントの一意識別子。
	ID string `json:"id"`
	// TaskID はコメント対象のタスクID。
	TaskID string `json:"task_id"`
	// UserID はコメント投稿者のユーザーID。
	UserID string `json:"user_id"`
	// Body はコメント本文。
	Body string `json:"body"`
	// CreatedAt は作成日時（RFC3339形式）。
	CreatedAt string `json:"created_at"`
}

// toCommentResponse はDB行をJSONレスポンスに変換する。
func toCommentResponse(c commentdb.Comment) commentResponse {
	return commentResponse{
		ID:        c.ID,
		TaskID:    c.TaskID,
		UserID:    c.UserID,
		Body:      c.Body,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}

// accessibleTask はタスクの存在確認と所属プロジェクトへのアクセス権チェックを行う。
// 失敗時はレスポンス書き込み済みでfalseを返す。
func (s *Server) accessibleTask(c *gin.Context, taskID, userID string) (commentdb.TaskStakeholders, bool) {
	stakeholders, err := s.queries.GetTaskStakeholders(c.Request.Context(), taskID)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "タスクが見つかりません"})
		return commentdb.TaskStakeholders{}, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "タスクの取得に失敗しました"})
		log.Printf("タスク関係者取得エラー: %v", err)
		return commentdb.TaskStakeholders{}, false
	}

	m, err := s.members.Membership(c.Request.Context(), stakeholders.ProjectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "タスクの取得に失敗しました"})
		log.Printf("プロジェクト所属取得エラー: %v", err)
		return commentdb.TaskStakeholders{}, false
	}
	if m.OwnerID != userID && !slices.Contains(m.CollaboratorIDs, userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "このタスクへのアクセス権がありません"})
		return commentdb.TaskStakeholders{}, false
	}
	return stakeholders, true
}

// handleCreate はコメント作成を処理するハンドラを返す。
// タスクの作成者と担当者（コメント投稿者自身を除く）へCommentAdded通知を発行する。
func (s *Server) handleCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		taskID := c.Param("id")
		stakeholders, ok := s.accessibleTask(c, taskID, userID)
		if !ok {
			return
		}

		var req createCommentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		commentID := uuid.New().String()
		if err := s.queries.CreateComment(c.Request.Context(), commentdb.CreateCommentParams{
			ID:     commentID,
			TaskID: taskID,
			UserID: userID,
			Body:   req.Body,
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "コメントの作成に失敗しました"})
			log.Printf("コメント作成エラー: %v", err)
			return
		}

		s.notifyStakeholders(c, stakeholders, userID)

		created, err := s.queries.GetCommentByID(c.Request.Context(), commentID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "作成したコメントの取得に失敗しました"})
			log.Printf("コメント取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusCreated, toCommentResponse(created))
	}
}

// notifyStakeholders はタスクの作成者と担当者へCommentAdded通知をベストエフォートで発行する。
// コメント投稿者自身には通知しない。作成者と担当者が同一の場合は1通にまとめる。
func (s *Server) notifyStakeholders(c *gin.Context, stakeholders commentdb.TaskStakeholders, authorID string) {
	recipients := []string{stakeholders.CreatedByUserID}
	if stakeholders.AssignedUserID.Valid && stakeholders.AssignedUserID.String != stakeholders.CreatedByUserID {
		recipients = append(recipients, stakeholders.AssignedUserID.String)
	}

	for _, recipient := range recipients {
		if recipient == authorID {
			continue
		}
		if _, err := s.dispatcher.Dispatch(c.Request.Context(), notification.Notification{
			UserID:       recipient,
			Message:      fmt.Sprintf("タスク「%s」にコメントが追加されました。", stakeholders.Title),
			Type:         event.TypeCommentAdded,
			ProjectID:    stakeholders.ProjectID,
			SenderUserID: authorID,
		}); err != nil {
			log.Printf("コメント通知の発行に失敗: %v", err)
		}
	}
}

// handleListByTask はタスクのコメント一覧取得を処理するハンドラを返す。
func (s *Server) handleListByTask() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		taskID := c.Param("id")
		if _, ok := s.accessibleTask(c, taskID, userID); !ok {
			return
		}

		comments, err := s.queries.ListCommentsByTaskID(c.Request.Context(), taskID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "コメント一覧の取得に失敗しました"})
			log.Printf("コメント一覧取得エラー: %v", err)
			return
		}

		responses := make([]commentResponse, 0, len(comments))
		for _, comment := range comments {
			responses = append(responses, toCommentResponse(comment))
		}
		c.JSON(http.StatusOK, responses)
	}
}

// ownedComment はコメントの存在と投稿者を確認して返す。
// 失敗時はレスポンス書き込み済みでfalseを返す。
func (s *Server) ownedComment(c *gin.Context, userID string) (commentdb.Comment, bool) {
	commentID := c.Param("id")
	comment, err := s.queries.GetCommentByID(c.Request.Context(), commentID)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "コメントが見つかりません"})
		return commentdb.Comment{}, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "コメントの取得に失敗しました"})
		log.Printf("コメント取得エラー: %v", err)
		return commentdb.Comment{}, false
	}

	if comment.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "このコメントを操作する権限がありません"})
		return commentdb.Comment{}, false
	}
	return comment, true
}

// handleUpdate はコメント更新を処理するハンドラを返す。投稿者のみ実行できる。
func (s *Server) handleUpdate() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		comment, ok := s.ownedComment(c, userID)
		if !ok {
			return
		}

		var req updateCommentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		if err := s.queries.UpdateComment(c.Request.Context(), commentdb.UpdateCommentParams{
			Body: req.Body,
			ID:   comment.ID,
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "コメントの更新に失敗しました"})
			log.Printf("コメント更新エラー: %v", err)
			return
		}

		updated, err := s.queries.GetCommentByID(c.Request.Context(), comment.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "更新後のコメントの取得に失敗しました"})
			log.Printf("コメント取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, toCommentResponse(updated))
	}
}

// handleDelete はコメント削除を処理するハンドラを返す。投稿者のみ実行できる。
func (s *Server) handleDelete() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		comment, ok := s.ownedComment(c, userID)
		if !ok {
			return
		}

		if err := s.queries.DeleteComment(c.Request.Context(), comment.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "コメントの削除に失敗しました"})
			log.Printf("コメント削除エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "コメントを削除しました"})
	}
}
