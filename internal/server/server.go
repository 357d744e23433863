package server

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	_ "modernc.org/sqlite"

	"github.com/nao1215/taskhub/internal/comment"
	commentdb "github.com/nao1215/taskhub/internal/comment/db"
	"github.com/nao1215/taskhub/internal/config"
	"github.com/nao1215/taskhub/internal/notification"
	notificationdb "github.com/nao1215/taskhub/internal/notification/db"
	"github.com/nao1215/taskhub/internal/project"
	projectdb "github.com/nao1215/taskhub/internal/project/db"
	"github.com/nao1215/taskhub/internal/realtime"
	"github.com/nao1215/taskhub/internal/task"
	taskdb "github.com/nao1215/taskhub/internal/task/db"
	"github.com/nao1215/taskhub/internal/user"
	userdb "github.com/nao1215/taskhub/internal/user/db"
	"github.com/nao1215/taskhub/pkg/middleware"
)

// Server はアプリケーション全体のHTTPサーバー。
type Server struct {
	// router はHTTPルーター。
	router *gin.Engine
	// db は全モジュールが共有するSQLiteデータベース。
	db *sql.DB
	// hub はWebSocket接続のレジストリ。
	hub *realtime.Hub
	// cfg はアプリケーション設定。
	cfg config.Config
}

// New は設定からサーバーを組み立てる。
// データベースを開いて全モジュールのスキーマを適用し、
// 通知ディスパッチャとワークフローを各モジュールに配線する。
func New(cfg config.Config) (*Server, error) {
	sqlDB, err := openDatabase(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	if err := initSchemas(sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}

	hub := realtime.NewHub()
	notifQueries := notificationdb.New(sqlDB)
	dispatcher := notification.NewDispatcher(notifQueries, hub)
	members := project.NewMembershipStore(projectdb.New(sqlDB))
	workflow := notification.NewWorkflow(notifQueries, members, dispatcher, hub)

	userServer := user.NewServer(userdb.New(sqlDB), cfg.JWTSecret)
	projectServer := project.NewServer(projectdb.New(sqlDB), members, dispatcher, workflow)
	taskServer := task.NewServer(taskdb.New(sqlDB), members, dispatcher)
	commentServer := comment.NewServer(commentdb.New(sqlDB), members, dispatcher)
	notificationServer := notification.NewServer(notifQueries, workflow)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS([]string{cfg.FrontendURL}))

	// ヘルスチェック（認証不要）
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 登録とログイン（認証不要）
	public := router.Group("/api/v1")
	userServer.AuthRoutes(public)

	// 認証必須のAPIエンドポイント
	api := router.Group("/api/v1")
	api.Use(middleware.JWTAuth(cfg.JWTSecret))
	{
		userServer.Routes(api)
		projectServer.Routes(api)
		taskServer.Routes(api)
		commentServer.Routes(api)
		notificationServer.Routes(api)
	}

	// WebSocketエンドポイント。ブラウザからは ws://host/ws?token=<JWT> で接続する。
	router.GET("/ws", gin.WrapH(realtime.Handler(hub, realtime.JWTIdentityResolver(cfg.JWTSecret))))

	return &Server{
		router: router,
		db:     sqlDB,
		hub:    hub,
		cfg:    cfg,
	}, nil
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(s.cfg.Addr())
}

// Close はデータベース接続を閉じる。
func (s *Server) Close() error {
	return s.db.Close()
}

// openDatabase はSQLiteデータベースを開く。
func openDatabase(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベースのオープンに失敗: %w", err)
	}
	// インメモリDBは接続ごとに別のデータベースになるため1接続に制限する
	if path == ":memory:" {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("データベースへの接続に失敗: %w", err)
	}
	return sqlDB, nil
}

// initSchemas は全モジュールのスキーマを適用する。
func initSchemas(sqlDB *sql.DB) error {
	inits := []func(*sql.DB) error{
		user.InitSchema,
		project.InitSchema,
		task.InitSchema,
		comment.InitSchema,
		notification.InitSchema,
	}
	for _, init := range inits {
		if err := init(sqlDB); err != nil {
			return err
		}
	}
	return nil
}
