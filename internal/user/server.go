package user

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	userdb "github.com/nao1215/taskhub/internal/user/db"
	"github.com/nao1215/taskhub/pkg/middleware"
)

// passwordMinLength はパスワードの最小文字数。
const passwordMinLength = 8

// Server はユーザーAPIのHTTPハンドラ群。
type Server struct {
	// queries はユーザーテーブルへのクエリ実行オブジェクト。
	queries *userdb.Queries
	// jwtSecret はJWT署名用シークレット。
	jwtSecret string
}

// NewServer は新しいユーザーAPIサーバーを生成する。
func NewServer(queries *userdb.Queries, jwtSecret string) *Server {
	return &Server{
		queries:   queries,
		jwtSecret: jwtSecret,
	}
}

// AuthRoutes は認証不要のエンドポイントを登録する。
// 登録とログインはJWTを持たない状態で呼び出すため、認証済みグループの外に置く。
func (s *Server) AuthRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		// ユーザー登録
		auth.POST("/register", s.handleRegister())
		// ログイン（JWT発行）
		auth.POST("/login", s.handleLogin())
	}
}

// Routes はユーザーAPIのルーティングを認証済みグループに登録する。
func (s *Server) Routes(api *gin.RouterGroup) {
	// 自分のプロフィール取得
	api.GET("/me", s.handleGetMe())
	// 自分のプロフィール更新
	api.PUT("/me", s.handleUpdateMe())
	// プロジェクトを共有するユーザー一覧取得
	api.GET("/me/collaborators", s.handleListCollaborators())

	users := api.Group("/users")
	{
		// ユーザー一覧取得
		users.GET("", s.handleList())
		// ユーザー詳細取得
		users.GET("/:id", s.handleGetByID())
	}
}

// userResponse はユーザーのレスポンス表現。パスワードハッシュは含めない。
type userResponse struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	Bio             string `json:"bio"`
	ProfileImageURL string `json:"profile_image_url"`
	IsAdmin         bool   `json:"is_admin"`
	CreatedAt       string `json:"created_at"`
}

func toUserResponse(u userdb.User) userResponse {
	return userResponse{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		Bio:             u.Bio,
		ProfileImageURL: u.ProfileImageURL,
		IsAdmin:         u.IsAdmin != 0,
		CreatedAt:       u.CreatedAt.Format(time.RFC3339),
	}
}

func (s *Server) handleRegister() gin.HandlerFunc {
	type request struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	return func(c *gin.Context) {
		var req request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ユーザー名、メールアドレス、パスワードは必須です"})
			return
		}
		if len(req.Password) < passwordMinLength {
			c.JSON(http.StatusBadRequest, gin.H{"error": "パスワードは8文字以上にしてください"})
			return
		}

		if _, err := s.queries.GetUserByUsername(c.Request.Context(), req.Username); err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "このユーザー名は既に使用されています"})
			return
		} else if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("ユーザー取得エラー: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザー登録に失敗しました"})
			return
		}
		if _, err := s.queries.GetUserByEmail(c.Request.Context(), req.Email); err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "このメールアドレスは既に使用されています"})
			return
		} else if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("ユーザー取得エラー: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザー登録に失敗しました"})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("パスワードハッシュ化エラー: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザー登録に失敗しました"})
			return
		}

		id := uuid.NewString()
		if err := s.queries.CreateUser(c.Request.Context(), userdb.CreateUserParams{
			ID:           id,
			Username:     req.Username,
			Email:        req.Email,
			PasswordHash: string(hash),
		}); err != nil {
			log.Printf("ユーザー作成エラー: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザー登録に失敗しました"})
			return
		}

		user, err := s.queries.GetUserByID(c.Request.Context(), id)
		if err != nil {
			log.Printf("ユーザー取得エラー: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザー登録に失敗しました"})
			return
		}

		token, err := middleware.GenerateJWT(s.jwtSecret, user.ID, user.Username)
		if err != nil {
			log.Printf("JWT発行エラー: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "トークンの発行に失敗しました"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"token": token,
			"user":  toUserResponse(user),
		})
	}
}

func (s *Server) handleLogin() gin.HandlerFunc {
	type request struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	return func(c *gin.Context) {
		var req request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ユーザー名とパスワードは必須です"})
			return
		}

		user, err := s.queries.GetUserByUsername(c.Request.Context(), req.Username)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザー名またはパスワードが正しくありません"})
				return
			}
			log.Printf("ユーザー取得エラー: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ログインに失敗しました"})
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザー名またはパスワードが正しくありません"})
			return
		}

		token, err := middleware.GenerateJWT(s.jwtSecret, user.ID, user.Username)
		if err != nil {
			log.Printf("JWT発行エラー: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "トークンの発行に失敗しました"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token": token,
			"user":  toUserResponse(user),
		})
	}
}

func (s *Server) handleGetMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "認証が必要です"})
			return
		}

		user, err := s.queries.GetUserByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				c.JSON(http.StatusNotFound, gin.H{"error": "ユーザーが見つかりません"})
				return
			}
			log.Printf("ユーザー取得エラー: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザーの取得に失敗しました"})
			return
		}

		c.JSON(http.StatusOK, toUserResponse(user))
	}
}

func (s *Server) handleUpdateMe() gin.HandlerFunc {
	type request struct {
		Bio             string `json:"bio"`
		ProfileImageURL string `json:"profile_image_url"`
	}
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "認証が必要です"})
			return
		}

		var req request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストの形式が正しくありません"})
			return
		}

		if err := s.queries.UpdateProfile(c.Request.Context(), userdb.UpdateProfileParams{
			Bio:             req.Bio,
			ProfileImageURL: req.ProfileImageURL,
			ID:              userID,
		}); err != nil {
			log.Printf("プロフィール更新エラー: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "プロフィールの更新に失敗しました"})
			return
		}

		user, err := s.queries.GetUserByID(c.Request.Context(), userID)
		if err != nil {
			log.Printf("ユーザー取得エラー: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザーの取得に失敗しました"})
			return
		}

		c.JSON(http.StatusOK, toUserResponse(user))
	}
}

func (s *Server) handleList() gin.HandlerFunc {
	return func(c *gin.Context) {
		if middleware.GetUserID(c) == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "認証が必要です"})
			return
		}

		users, err := s.queries.ListUsers(c.Request.Context())
		if err != nil {
			log.Printf("ユーザー一覧取得エラー: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザー一覧の取得に失敗しました"})
			return
		}

		c.JSON(http.StatusOK, toUserResponses(users))
	}
}

func (s *Server) handleGetByID() gin.HandlerFunc {
	return func(c *gin.Context) {
		if middleware.GetUserID(c) == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "認証が必要です"})
			return
		}

		id := c.Param("id")
		user, err := s.queries.GetUserByID(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				c.JSON(http.StatusNotFound, gin.H{"error": "ユーザーが見つかりません"})
				return
			}
			log.Printf("ユーザー取得エラー: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザーの取得に失敗しました"})
			return
		}

		c.JSON(http.StatusOK, toUserResponse(user))
	}
}

func (s *Server) handleListCollaborators() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "認証が必要です"})
			return
		}

		users, err := s.queries.ListCollaboratorUsers(c.Request.Context(), userID)
		if err != nil {
			log.Printf("コラボレーター一覧取得エラー: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "コラボレーター一覧の取得に失敗しました"})
			return
		}

		c.JSON(http.StatusOK, toUserResponses(users))
	}
}

// toUserResponses はユーザーのスライスをレスポンス表現に変換する。空でも空配列を返す。
func toUserResponses(users []userdb.User) []userResponse {
	responses := make([]userResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, toUserResponse(u))
	}
	return responses
}
