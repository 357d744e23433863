package task

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

	"github.com/nao1215/taskhub/internal/notification"
	taskdb "github.com/nao1215/taskhub/internal/task/db"
	"github.com/nao1215/taskhub/pkg/event"
	"github.com/nao1215/taskhub/pkg/middleware"
)

// Server はタスクAPIのHTTPハンドラ群。
type Server struct {
	// queries はタスクテーブルへのクエリ実行オブジェクト。
	queries *taskdb.Queries
	// members はプロジェクト所属の参照先。アクセス権チェックに使う。
	members notification.MembershipStore
	// dispatcher は通知の永続化と配信のオーケストレータ。
	dispatcher *notification.Dispatcher
}

// NewServer は新しいタスクAPIサーバーを生成する。
func NewServer(queries *taskdb.Queries, members notification.MembershipStore, dispatcher *notification.Dispatcher) *Server {
	return &Server{
		queries:    queries,
		members:    members,
		dispatcher: dispatcher,
	}
}

// Routes はタスクAPIのルーティングを認証済みグループに登録する。
func (s *Server) Routes(api *gin.RouterGroup) {
	tasks := api.Group("/tasks")
	{
		// タスク作成
		tasks.POST("", s.handleCreate())
		// プロジェクトのタスク一覧取得（ステータス・担当者で絞り込み可能）
		tasks.GET("", s.handleList())
		// 自分が担当するタスク一覧取得
		tasks.GET("/assigned", s.handleListAssigned())
		// 担当タスクのステータス別件数
		tasks.GET("/stats/status", s.handleStatusStats())
		// 担当タスクの完了数の期間別集計
		tasks.GET("/stats/completion", s.handleCompletionStats())
		// タスク詳細取得
		tasks.GET("/:id", s.handleGetByID())
		// タスク更新
		tasks.PUT("/:id", s.handleUpdate())
		// タスク削除
		tasks.DELETE("/:id", s.handleDelete())
		// ステータス更新
		tasks.PUT("/:id/status", s.handleUpdateStatus())
		// 優先度更新
		tasks.PUT("/:id/priority", s.handleUpdatePriority())
		// 担当者割り当て
		tasks.PUT("/:id/assign", s.handleAssign())
	}
}

// createTaskRequest はタスク作成リクエストのJSON構造。
type createTaskRequest struct {
	// ProjectID は所属するプロジェクトのID。
	ProjectID string `json:"project_id" binding:"required"`
	// Title はタスクのタイトル。
	Title string `json:"title" binding:"required"`
	// Description はタスクの説明。
	Description string `json:"description"`
	// DueDate は期限日時（RFC3339形式）。
	DueDate string `json:"due_date"`
	// Priority は優先度。未指定の場合はmedium。
	Priority string `json:"priority"`
	// AssignedUserID は担当者のユーザーID。
	AssignedUserID string `json:"assigned_user_id"`
}

// updateTaskRequest はタスク更新リクエストのJSON構造。
type updateTaskRequest struct {
	// Title はタスクのタイトル。
	Title string `json:"title" binding:"required"`
	// Description はタスクの説明。
	Description string `json:"description"`
	// DueDate は期限日時（RFC3339形式）。空文字列で期限を解除する。
	DueDate string `json:"due_date"`
	// Priority は優先度。
	Priority string `json:"priority" binding:"required"`
}

// updateStatusRequest はステータス更新リクエストのJSON構造。
type updateStatusRequest struct {
	// Status は新しいステータス。
	Status string `json:"status" binding:"required"`
}

// updatePriorityRequest は優先度更新リクエストのJSON構造。
type updatePriorityRequest struct {
	// Priority は新しい優先度。
	Priority string `json:"priority" binding:"required"`
}

// assignTaskRequest は担当者割り当てリクエストのJSON構造。
type assignTaskRequest struct {
	// UserID は新しい担当者のユーザーID。空文字列で割り当てを解除する。
	UserID string `json:"user_id"`
}

// taskResponse はタスクのJSONレスポンス構造。
type taskResponse struct {
	// ID はタスクの一意識別子。
	ID string `json:"id"`
	// ProjectID は所属するプロジェクトのID。
	ProjectID string `json:"project_id"`
	// Title はタスクのタイトル。
	Title string `json:"title"`
	// Description はタスクの説明。
	Description string `json:"description"`
	// DueDate は期限日時（RFC3339形式、未設定の場合は空）。
	DueDate string `json:"due_date,omitempty"`
	// Status はステータス。
	Status string `json:"status"`
	// Priority は優先度。
	Priority string `json:"priority"`
	// AssignedUserID は担当者のユーザーID（未割り当ての場合は空）。
	AssignedUserID string `json:"assigned_user_id,omitempty"`
	// CreatedByUserID は作成者のユーザーID。
	CreatedByUserID string `json:"created_by_user_id"`
	// CompletedAt は完了日時（RFC3339形式、未完了の場合は空）。
	CompletedAt string `json:"completed_at,omitempty"`
	// CreatedAt は作成日時（RFC3339形式）。
	CreatedAt string `json:"created_at"`
	// UpdatedAt は更新日時（RFC3339形式）。
	UpdatedAt string `json:"updated_at"`
}

// toTaskResponse はDB行をJSONレスポンスに変換する。
func toTaskResponse(t taskdb.Task) taskResponse {
	resp := taskResponse{
		ID:              t.ID,
		ProjectID:       t.ProjectID,
		Title:           t.Title,
		Description:     t.Description,
		Status:          t.Status,
		Priority:        t.Priority,
		AssignedUserID:  t.AssignedUserID.String,
		CreatedByUserID: t.CreatedByUserID,
		CreatedAt:       t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       t.UpdatedAt.Format(time.RFC3339),
	}
	if t.DueDate.Valid {
		resp.DueDate = t.DueDate.Time.Format(time.RFC3339)
	}
	if t.CompletedAt.Valid {
		resp.CompletedAt = t.CompletedAt.Time.Format(time.RFC3339)
	}
	return resp
}

// toTaskResponses はDB行のスライスをJSONレスポンスのスライスに変換する。
func toTaskResponses(tasks []taskdb.Task) []taskResponse {
	responses := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		responses = append(responses, toTaskResponse(t))
	}
	return responses
}

// parseDueDate は期限日時の文字列をNULL許容の日時に変換する。
func parseDueDate(s string) (sql.NullTime, error) {
	if s == "" {
		return sql.NullTime{}, nil
	}
	due, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return sql.NullTime{}, fmt.Errorf("期限日時はRFC3339形式で指定してください: %w", err)
	}
	return sql.NullTime{Time: due, Valid: true}, nil
}

// canAccessProject はユーザーがプロジェクトのオーナーまたはコラボレーターかを返す。
func (s *Server) canAccessProject(c *gin.Context, projectID, userID string) (bool, error) {
	m, err := s.members.Membership(c.Request.Context(), projectID)
	if err != nil {
		return false, err
	}
	return m.OwnerID == userID || slices.Contains(m.CollaboratorIDs, userID), nil
}

// accessibleTask はタスクの存在確認と所属プロジェクトへのアクセス権チェックを行う。
// 失敗時はレスポンス書き込み済みでfalseを返す。
func (s *Server) accessibleTask(c *gin.Context, userID string) (taskdb.Task, bool) {
	taskID := c.Param("id")
	t, err := s.queries.GetTaskByID(c.Request.Context(), taskID)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "タスクが見つかりません"})
		return taskdb.Task{}, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "タスクの取得に失敗しました"})
		log.Printf("タスク取得エラー: %v", err)
		return taskdb.Task{}, false
	}

	ok, err := s.canAccessProject(c, t.ProjectID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "タスクの取得に失敗しました"})
		log.Printf("プロジェクト所属取得エラー: %v", err)
		return taskdb.Task{}, false
	}
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "このタスクへのアクセス権がありません"})
		return taskdb.Task{}, false
	}
	return t, true
}

// handleCreate はタスク作成を処理するハンドラを返す。
// 所属プロジェクトのオーナーまたはコラボレーターのみ作成できる。
func (s *Server) handleCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		var req createTaskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		ok, err := s.canAccessProject(c, req.ProjectID, userID)
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "プロジェクトが見つかりません"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "タスクの作成に失敗しました"})
			log.Printf("プロジェクト所属取得エラー: %v", err)
			return
		}
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "このプロジェクトへのアクセス権がありません"})
			return
		}

		priority := PriorityMedium
		if req.Priority != "" {
			priority, err = ParsePriority(req.Priority)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}

		dueDate, err := parseDueDate(req.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		taskID := uuid.New().String()
		if err := s.queries.CreateTask(c.Request.Context(), taskdb.CreateTaskParams{
			ID:              taskID,
			ProjectID:       req.ProjectID,
			Title:           req.Title,
			Description:     req.Description,
			DueDate:         dueDate,
			Priority:        string(priority),
			AssignedUserID:  sql.NullString{String: req.AssignedUserID, Valid: req.AssignedUserID != ""},
			CreatedByUserID: userID,
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "タスクの作成に失敗しました"})
			log.Printf("タスク作成エラー: %v", err)
			return
		}

		// 作成時点で自分以外の担当者が指定されていれば割り当て通知を発行する
		if req.AssignedUserID != "" && req.AssignedUserID != userID {
			s.notifyAssignment(c, req.AssignedUserID, req.Title, req.ProjectID, userID)
		}

		created, err := s.queries.GetTaskByID(c.Request.Context(), taskID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "作成したタスクの取得に失敗しました"})
			log.Printf("タスク取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusCreated, toTaskResponse(created))
	}
}

// handleList はプロジェクトのタスク一覧取得を処理するハンドラを返す。
// project_idクエリパラメータは必須。statusとassigned_user_idで絞り込める。
func (s *Server) handleList() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		projectID := c.Query("project_id")
		if projectID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "project_idクエリパラメータが必要です"})
			return
		}

		status := c.Query("status")
		if status != "" {
			if _, err := ParseStatus(status); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}

		ok, err := s.canAccessProject(c, projectID, userID)
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "プロジェクトが見つかりません"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "タスク一覧の取得に失敗しました"})
			log.Printf("プロジェクト所属取得エラー: %v", err)
			return
		}
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "このプロジェクトへのアクセス権がありません"})
			return
		}

		tasks, err := s.queries.ListTasks(c.Request.Context(), taskdb.ListTasksParams{
			ProjectID:      projectID,
			Status:         status,
			AssignedUserID: c.Query("assigned_user_id"),
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "タスク一覧の取得に失敗しました"})
			log.Printf("タスク一覧取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, toTaskResponses(tasks))
	}
}

// handleListAssigned は自分が担当するタスク一覧取得を処理するハンドラを返す。
func (s *Server) handleListAssigned() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		tasks, err := s.queries.ListTasksByAssignee(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "担当タスク一覧の取得に失敗しました"})
			log.Printf("担当タスク一覧取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, toTaskResponses(tasks))
	}
}

// handleGetByID はタスク詳細取得を処理するハンドラを返す。
func (s *Server) handleGetByID() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		t, ok := s.accessibleTask(c, userID)
		if !ok {
			return
		}

		c.JSON(http.StatusOK, toTaskResponse(t))
	}
}

// handleUpdate はタスク更新を処理するハンドラを返す。
func (s *Server) handleUpdate() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		t, ok := s.accessibleTask(c, userID)
		if !ok {
			return
		}

		var req updateTaskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		priority, err := ParsePriority(req.Priority)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		dueDate, err := parseDueDate(req.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := s.queries.UpdateTask(c.Request.Context(), taskdb.UpdateTaskParams{
			Title:       req.Title,
			Description: req.Description,
			DueDate:     dueDate,
			Priority:    string(priority),
			ID:          t.ID,
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "タスクの更新に失敗しました"})
			log.Printf("タスク更新エラー: %v", err)
			return
		}

		updated, err := s.queries.GetTaskByID(c.Request.Context(), t.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "更新後のタスクの取得に失敗しました"})
			log.Printf("タスク取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, toTaskResponse(updated))
	}
}

// handleDelete はタスク削除を処理するハンドラを返す。
// タスクに紐づくコメントも明示的に削除する。
func (s *Server) handleDelete() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		t, ok := s.accessibleTask(c, userID)
		if !ok {
			return
		}

		if err := s.queries.DeleteCommentsByTaskID(c.Request.Context(), t.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "タスクの削除に失敗しました"})
			log.Printf("タスクコメント削除エラー: %v", err)
			return
		}
		if err := s.queries.DeleteTask(c.Request.Context(), t.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "タスクの削除に失敗しました"})
			log.Printf("タスク削除エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "タスクを削除しました"})
	}
}

// handleUpdateStatus はステータス更新を処理するハンドラを返す。
func (s *Server) handleUpdateStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		t, ok := s.accessibleTask(c, userID)
		if !ok {
			return
		}

		var req updateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		status, err := ParseStatus(req.Status)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := s.queries.UpdateTaskStatus(c.Request.Context(), taskdb.UpdateTaskStatusParams{
			Status: string(status),
			ID:     t.ID,
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ステータスの更新に失敗しました"})
			log.Printf("ステータス更新エラー: %v", err)
			return
		}

		updated, err := s.queries.GetTaskByID(c.Request.Context(), t.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "更新後のタスクの取得に失敗しました"})
			log.Printf("タスク取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, toTaskResponse(updated))
	}
}

// handleUpdatePriority は優先度更新を処理するハンドラを返す。
func (s *Server) handleUpdatePriority() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		t, ok := s.accessibleTask(c, userID)
		if !ok {
			return
		}

		var req updatePriorityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		priority, err := ParsePriority(req.Priority)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := s.queries.UpdateTaskPriority(c.Request.Context(), taskdb.UpdateTaskPriorityParams{
			Priority: string(priority),
			ID:       t.ID,
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "優先度の更新に失敗しました"})
			log.Printf("優先度更新エラー: %v", err)
			return
		}

		updated, err := s.queries.GetTaskByID(c.Request.Context(), t.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "更新後のタスクの取得に失敗しました"})
			log.Printf("タスク取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, toTaskResponse(updated))
	}
}

// handleAssign は担当者割り当てを処理するハンドラを返す。
// 新しい担当者はプロジェクトのオーナーまたはコラボレーターでなければならない。
// 自分以外への割り当てでTaskAssigned通知を発行する。
func (s *Server) handleAssign() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		t, ok := s.accessibleTask(c, userID)
		if !ok {
			return
		}

		var req assignTaskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		if req.UserID != "" {
			assigneeOK, err := s.canAccessProject(c, t.ProjectID, req.UserID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "担当者の割り当てに失敗しました"})
				log.Printf("プロジェクト所属取得エラー: %v", err)
				return
			}
			if !assigneeOK {
				c.JSON(http.StatusBadRequest, gin.H{"error": "担当者はプロジェクトのメンバーでなければなりません"})
				return
			}
		}

		if err := s.queries.AssignTask(c.Request.Context(), taskdb.AssignTaskParams{
			AssignedUserID: sql.NullString{String: req.UserID, Valid: req.UserID != ""},
			ID:             t.ID,
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "担当者の割り当てに失敗しました"})
			log.Printf("担当者割り当てエラー: %v", err)
			return
		}

		if req.UserID != "" && req.UserID != userID {
			s.notifyAssignment(c, req.UserID, t.Title, t.ProjectID, userID)
		}

		updated, err := s.queries.GetTaskByID(c.Request.Context(), t.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "更新後のタスクの取得に失敗しました"})
			log.Printf("タスク取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, toTaskResponse(updated))
	}
}

// notifyAssignment は担当者へのTaskAssigned通知をベストエフォートで発行する。
func (s *Server) notifyAssignment(c *gin.Context, assigneeID, title, projectID, senderID string) {
	if _, err := s.dispatcher.Dispatch(c.Request.Context(), notification.Notification{
		UserID:       assigneeID,
		Message:      fmt.Sprintf("タスク「%s」が割り当てられました。", title),
		Type:         event.TypeTaskAssigned,
		ProjectID:    projectID,
		SenderUserID: senderID,
	}); err != nil {
		log.Printf("タスク割り当て通知の発行に失敗: %v", err)
	}
}

// handleStatusStats は担当タスクのステータス別件数を返すハンドラ。
func (s *Server) handleStatusStats() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		counts, err := s.queries.CountTasksByStatus(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "統計の取得に失敗しました"})
			log.Printf("ステータス統計取得エラー: %v", err)
			return
		}

		// 件数0のステータスも必ず含める
		result := map[string]int64{
			string(StatusTodo):       0,
			string(StatusInProgress): 0,
			string(StatusDone):       0,
		}
		for _, count := range counts {
			result[count.Status] = count.Count
		}

		c.JSON(http.StatusOK, result)
	}
}

// handleCompletionStats は担当タスクの完了数の期間別集計を返すハンドラ。
func (s *Server) handleCompletionStats() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		stats, err := s.queries.GetCompletionStats(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "統計の取得に失敗しました"})
			log.Printf("完了統計取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"today":         stats.Today,
			"last_7_days":   stats.Last7Days,
			"last_30_days":  stats.Last30Days,
			"last_365_days": stats.Last365Days,
		})
	}
}
