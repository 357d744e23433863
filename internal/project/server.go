package project

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nao1215/taskhub/internal/notification"
	projectdb "github.com/nao1215/taskhub/internal/project/db"
	"github.com/nao1215/taskhub/pkg/event"
	"github.com/nao1215/taskhub/pkg/middleware"
)

// Server はプロジェクトAPIのHTTPハンドラ群。
type Server struct {
	// queries はプロジェクトテーブルへのクエリ実行オブジェクト。
	queries *projectdb.Queries
	// members はプロジェクト所属のストア。
	members *MembershipStore
	// dispatcher は通知の永続化と配信のオーケストレータ。
	dispatcher *notification.Dispatcher
	// workflow は参加リクエストのワークフロー。
	workflow *notification.Workflow
}

// NewServer は新しいプロジェクトAPIサーバーを生成する。
func NewServer(queries *projectdb.Queries, members *MembershipStore, dispatcher *notification.Dispatcher, workflow *notification.Workflow) *Server {
	return &Server{
		queries:    queries,
		members:    members,
		dispatcher: dispatcher,
		workflow:   workflow,
	}
}

// Routes はプロジェクトAPIのルーティングを認証済みグループに登録する。
func (s *Server) Routes(api *gin.RouterGroup) {
	projects := api.Group("/projects")
	{
		// プロジェクト作成
		projects.POST("", s.handleCreate())
		// アクセス可能なプロジェクト一覧取得
		projects.GET("", s.handleList())
		// プロジェクト検索
		projects.GET("/search", s.handleSearch())
		// プロジェクト詳細取得
		projects.GET("/:id", s.handleGetByID())
		// プロジェクト更新
		projects.PUT("/:id", s.handleUpdate())
		// プロジェクト削除
		projects.DELETE("/:id", s.handleDelete())
		// メンバー一覧取得
		projects.GET("/:id/members", s.handleListMembers())
		// コラボレーターを直接追加（オーナーのみ）
		projects.POST("/:id/collaborators", s.handleAddCollaborator())
		// コラボレーターを除外（オーナーのみ）
		projects.DELETE("/:id/collaborators/:user_id", s.handleRemoveCollaborator())
		// 参加リクエスト送信
		projects.POST("/:id/collaboration-requests", s.handleRequestCollaboration())
	}
}

// createProjectRequest はプロジェクト作成リクエストのJSON構造。
type createProjectRequest struct {
	// Name はプロジェクト名。
	Name string `json:"name" binding:"required"`
	// Description はプロジェクトの説明。
	Description string `json:"description"`
}

// updateProjectRequest はプロジェクト更新リクエストのJSON構造。
type updateProjectRequest struct {
	// Name はプロジェクト名。
	Name string `json:"name" binding:"required"`
	// Description はプロジェクトの説明。
	Description string `json:"description"`
}

// addCollaboratorRequest はコラボレーター追加リクエストのJSON構造。
type addCollaboratorRequest struct {
	// UserID は追加するユーザーのID。
	UserID string `json:"user_id" binding:"required"`
}

// projectResponse はプロジェクトのJSONレスポンス構造。
type projectResponse struct {
	// ID はプロジェクトの一意識別子。
	ID string `json:"id"`
	// OwnerID はプロジェクトのオーナーのユーザーID。
	OwnerID string `json:"owner_id"`
	// Name はプロジェクト名。
	Name string `json:"name"`
	// Description はプロジェクトの説明。
	Description string `json:"description"`
	// CollaboratorIDs はコラボレーターのユーザーID一覧。
	CollaboratorIDs []string `json:"collaborator_ids"`
	// PendingCollaboratorIDs は参加リクエスト保留中のユーザーID一覧。
	PendingCollaboratorIDs []string `json:"pending_collaborator_ids"`
	// CreatedAt は作成日時（RFC3339形式）。
	CreatedAt string `json:"created_at"`
	// UpdatedAt は更新日時（RFC3339形式）。
	UpdatedAt string `json:"updated_at"`
}

// toProjectResponse はDB行と所属状態をJSONレスポンスに変換する。
func toProjectResponse(p projectdb.Project, m notification.Membership) projectResponse {
	collaborators := m.CollaboratorIDs
	if collaborators == nil {
		collaborators = []string{}
	}
	pending := m.PendingIDs
	if pending == nil {
		pending = []string{}
	}
	return projectResponse{
		ID:                     p.ID,
		OwnerID:                p.OwnerID,
		Name:                   p.Name,
		Description:            p.Description,
		CollaboratorIDs:        collaborators,
		PendingCollaboratorIDs: pending,
		CreatedAt:              p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:              p.UpdatedAt.Format(time.RFC3339),
	}
}

// projectWithMembers はプロジェクトと所属状態をまとめてレスポンスに変換する。
func (s *Server) projectWithMembers(c *gin.Context, p projectdb.Project) (projectResponse, error) {
	m, err := s.members.Membership(c.Request.Context(), p.ID)
	if err != nil {
		return projectResponse{}, err
	}
	return toProjectResponse(p, m), nil
}

// accessibleProject はプロジェクトの存在確認とアクセス権チェックを行う。
// requireOwnerがtrueの場合はオーナーのみ、falseの場合はコラボレーターも許可する。
// 失敗時はレスポンス書き込み済みでfalseを返す。
func (s *Server) accessibleProject(c *gin.Context, userID string, requireOwner bool) (projectdb.Project, bool) {
	projectID := c.Param("id")
	p, err := s.queries.GetProjectByID(c.Request.Context(), projectID)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "プロジェクトが見つかりません"})
		return projectdb.Project{}, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "プロジェクトの取得に失敗しました"})
		log.Printf("プロジェクト取得エラー: %v", err)
		return projectdb.Project{}, false
	}

	if p.OwnerID == userID {
		return p, true
	}
	if requireOwner {
		c.JSON(http.StatusForbidden, gin.H{"error": "この操作はプロジェクトのオーナーのみ実行できます"})
		return projectdb.Project{}, false
	}

	m, err := s.members.Membership(c.Request.Context(), p.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "プロジェクトの取得に失敗しました"})
		log.Printf("プロジェクト所属取得エラー: %v", err)
		return projectdb.Project{}, false
	}
	for _, id := range m.CollaboratorIDs {
		if id == userID {
			return p, true
		}
	}

	c.JSON(http.StatusForbidden, gin.H{"error": "このプロジェクトへのアクセス権がありません"})
	return projectdb.Project{}, false
}

// handleCreate はプロジェクト作成を処理するハンドラを返す。
func (s *Server) handleCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		var req createProjectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		projectID := uuid.New().String()
		if err := s.queries.CreateProject(c.Request.Context(), projectdb.CreateProjectParams{
			ID:          projectID,
			OwnerID:     userID,
			Name:        req.Name,
			Description: req.Description,
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "プロジェクトの作成に失敗しました"})
			log.Printf("プロジェクト作成エラー: %v", err)
			return
		}

		created, err := s.queries.GetProjectByID(c.Request.Context(), projectID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "作成したプロジェクトの取得に失敗しました"})
			log.Printf("プロジェクト取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusCreated, toProjectResponse(created, notification.Membership{OwnerID: userID}))
	}
}

// handleList はアクセス可能なプロジェクト一覧取得を処理するハンドラを返す。
// オーナーであるプロジェクトとコラボレーターとして所属するプロジェクトを返す。
func (s *Server) handleList() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		projects, err := s.queries.ListAccessibleProjects(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "プロジェクト一覧の取得に失敗しました"})
			log.Printf("プロジェクト一覧取得エラー: %v", err)
			return
		}

		s.writeProjectList(c, projects)
	}
}

// handleSearch はプロジェクト検索を処理するハンドラを返す。
// keywordクエリパラメータで名前と説明を部分一致検索する。
func (s *Server) handleSearch() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		keyword := c.Query("keyword")
		projects, err := s.queries.SearchProjects(c.Request.Context(), projectdb.SearchProjectsParams{
			UserID:  userID,
			Keyword: keyword,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "プロジェクト検索に失敗しました"})
			log.Printf("プロジェクト検索エラー: %v", err)
			return
		}

		s.writeProjectList(c, projects)
	}
}

// writeProjectList は所属状態を付与したプロジェクト一覧レスポンスを書き込む。
func (s *Server) writeProjectList(c *gin.Context, projects []projectdb.Project) {
	responses := make([]projectResponse, 0, len(projects))
	for _, p := range projects {
		resp, err := s.projectWithMembers(c, p)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "プロジェクト一覧の取得に失敗しました"})
			log.Printf("プロジェクト所属取得エラー: %v", err)
			return
		}
		responses = append(responses, resp)
	}
	c.JSON(http.StatusOK, responses)
}

// handleGetByID はプロジェクト詳細取得を処理するハンドラを返す。
// オーナーまたはコラボレーターのみアクセスできる。
func (s *Server) handleGetByID() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		p, ok := s.accessibleProject(c, userID, false)
		if !ok {
			return
		}

		resp, err := s.projectWithMembers(c, p)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "プロジェクトの取得に失敗しました"})
			log.Printf("プロジェクト所属取得エラー: %v", err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// handleUpdate はプロジェクト更新を処理するハンドラを返す。
// オーナーのみ実行できる。
func (s *Server) handleUpdate() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		p, ok := s.accessibleProject(c, userID, true)
		if !ok {
			return
		}

		var req updateProjectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		if err := s.queries.UpdateProject(c.Request.Context(), projectdb.UpdateProjectParams{
			Name:        req.Name,
			Description: req.Description,
			ID:          p.ID,
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "プロジェクトの更新に失敗しました"})
			log.Printf("プロジェクト更新エラー: %v", err)
			return
		}

		updated, err := s.queries.GetProjectByID(c.Request.Context(), p.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "更新後のプロジェクトの取得に失敗しました"})
			log.Printf("プロジェクト取得エラー: %v", err)
			return
		}

		resp, err := s.projectWithMembers(c, updated)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "更新後のプロジェクトの取得に失敗しました"})
			log.Printf("プロジェクト所属取得エラー: %v", err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// handleDelete はプロジェクト削除を処理するハンドラを返す。
// オーナーのみ実行できる。メンバー行も明示的に削除する。
func (s *Server) handleDelete() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		p, ok := s.accessibleProject(c, userID, true)
		if !ok {
			return
		}

		if err := s.queries.DeleteProjectMembers(c.Request.Context(), p.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "プロジェクトの削除に失敗しました"})
			log.Printf("プロジェクトメンバー削除エラー: %v", err)
			return
		}
		if err := s.queries.DeleteProject(c.Request.Context(), p.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "プロジェクトの削除に失敗しました"})
			log.Printf("プロジェクト削除エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "プロジェクトを削除しました"})
	}
}

// memberResponse はプロジェクトメンバーのJSONレスポンス構造。
type memberResponse struct {
	// UserID はメンバーのユーザーID。
	UserID string `json:"user_id"`
	// Pending は保留状態。
	Pending bool `json:"pending"`
	// CreatedAt は追加日時（RFC3339形式）。
	CreatedAt string `json:"created_at"`
}

// handleListMembers はメンバー一覧取得を処理するハンドラを返す。
func (s *Server) handleListMembers() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		p, ok := s.accessibleProject(c, userID, false)
		if !ok {
			return
		}

		members, err := s.queries.ListProjectMembers(c.Request.Context(), p.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "メンバー一覧の取得に失敗しました"})
			log.Printf("メンバー一覧取得エラー: %v", err)
			return
		}

		responses := make([]memberResponse, 0, len(members))
		for _, m := range members {
			responses = append(responses, memberResponse{
				UserID:    m.UserID,
				Pending:   m.Pending != 0,
				CreatedAt: m.CreatedAt.Format(time.RFC3339),
			})
		}
		c.JSON(http.StatusOK, responses)
	}
}

// handleAddCollaborator はコラボレーターの直接追加を処理するハンドラを返す。
// オーナーのみ実行できる。追加されたユーザーへCollaboratorAdded通知を発行する。
func (s *Server) handleAddCollaborator() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		p, ok := s.accessibleProject(c, userID, true)
		if !ok {
			return
		}

		var req addCollaboratorRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}
		if req.UserID == p.OwnerID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "オーナーをコラボレーターに追加することはできません"})
			return
		}

		if err := s.members.AddCollaborator(c.Request.Context(), p.ID, req.UserID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "コラボレーターの追加に失敗しました"})
			log.Printf("コラボレーター追加エラー: %v", err)
			return
		}

		// 追加されたユーザーへの通知はベストエフォート
		if _, err := s.dispatcher.Dispatch(c.Request.Context(), notification.Notification{
			UserID:       req.UserID,
			Message:      fmt.Sprintf("プロジェクト「%s」のコラボレーターに追加されました。", p.Name),
			Type:         event.TypeCollaboratorAdded,
			ProjectID:    p.ID,
			SenderUserID: userID,
		}); err != nil {
			log.Printf("コラボレーター追加通知の発行に失敗: %v", err)
		}

		c.JSON(http.StatusOK, gin.H{"message": "コラボレーターを追加しました"})
	}
}

// handleRemoveCollaborator はコラボレーターの除外を処理するハンドラを返す。
// オーナーのみ実行できる。
func (s *Server) handleRemoveCollaborator() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		p, ok := s.accessibleProject(c, userID, true)
		if !ok {
			return
		}

		targetID := c.Param("user_id")
		if err := s.queries.RemoveCollaborator(c.Request.Context(), projectdb.RemoveCollaboratorParams{
			ProjectID: p.ID,
			UserID:    targetID,
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "コラボレーターの除外に失敗しました"})
			log.Printf("コラボレーター除外エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "コラボレーターを除外しました"})
	}
}

// handleRequestCollaboration は参加リクエスト送信を処理するハンドラを返す。
// 認証済みユーザーがリクエスト元となり、オーナーへ通知が届く。
func (s *Server) handleRequestCollaboration() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		projectID := c.Param("id")
		if _, err := s.workflow.RequestCollaboration(c.Request.Context(), projectID, userID); err != nil {
			s.writeRequestError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"message": "参加リクエストを送信しました"})
	}
}

// writeRequestError は参加リクエストのエラーをHTTPステータスに対応付ける。
func (s *Server) writeRequestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		c.JSON(http.StatusNotFound, gin.H{"error": "プロジェクトが見つかりません"})
	case errors.Is(err, notification.ErrRequestFromOwner):
		c.JSON(http.StatusBadRequest, gin.H{"error": notification.ErrRequestFromOwner.Error()})
	case errors.Is(err, notification.ErrAlreadyCollaborator):
		c.JSON(http.StatusConflict, gin.H{"error": notification.ErrAlreadyCollaborator.Error()})
	case errors.Is(err, notification.ErrAlreadyPending):
		c.JSON(http.StatusConflict, gin.H{"error": notification.ErrAlreadyPending.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "参加リクエストの送信に失敗しました"})
		log.Printf("参加リクエスト送信エラー: %v", err)
	}
}
