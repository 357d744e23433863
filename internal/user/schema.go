package user

import (
	"database/sql"
	"fmt"
)

// スキーマ定義。
const schema = `
CREATE TABLE IF NOT EXISTS users (
    -- ユーザーの一意識別子
    id TEXT PRIMARY KEY,
    -- ユーザー名（一意）
    username TEXT NOT NULL UNIQUE,
    -- メールアドレス（一意）
    email TEXT NOT NULL UNIQUE,
    -- bcryptでハッシュ化されたパスワード
    password_hash TEXT NOT NULL,
    -- 自己紹介
    bio TEXT NOT NULL DEFAULT '',
    -- プロフィール画像のURL
    profile_image_url TEXT NOT NULL DEFAULT '',
    -- 管理者フラグ
    is_admin INTEGER NOT NULL DEFAULT 0,
    -- 作成日時
    created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

// InitSchema はSQLiteデータベースにスキーマを適用する。
func InitSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("スキーマの適用に失敗: %w", err)
	}
	return nil
}
