// Package config は環境変数からのアプリケーション設定読み込みを提供する。
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config はアプリケーション全体の設定。
type Config struct {
	// Port はHTTPサーバーの待ち受けポート。
	Port string `env:"PORT" envDefault:"8080"`
	// DatabasePath はSQLiteデータベースファイルのパス。
	DatabasePath string `env:"DATABASE_PATH" envDefault:"taskhub.db"`
	// JWTSecret はJWT署名用の秘密鍵。本番環境では必ず上書きすること。
	JWTSecret string `env:"JWT_SECRET" envDefault:"dev-secret-key"`
	// FrontendURL はCORSで許可するフロントエンドのオリジン。
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
}

// Load は環境変数から設定を読み込む。未設定の項目には既定値を使用する。
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("環境変数の解析に失敗: %w", err)
	}
	return cfg, nil
}

// Addr はHTTPサーバーの待ち受けアドレスを返す。
func (c Config) Addr() string {
	return ":" + c.Port
}
