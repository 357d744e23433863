package comment

import (
	"database/sql"
	"fmt"
)

// スキーマ定義。
const schema = `
CREATE TABLE IF NOT EXISTS comments (
    -- コメントの一意識別子
    id TEXT PRIMARY KEY,
    -- コメント対象のタスクID
    task_id TEXT NOT NULL,
    -- コメント投稿者のユーザーID
    user_id TEXT NOT NULL,
    -- コメント本文
    body TEXT NOT NULL,
    -- 作成日時
    created_at DATETIME NOT NULL DEFAULT (datetime('now')),
    FOREIGN KEY (task_id) REFERENCES tasks(id) ON DELETE CASCADE
);

-- タスクIDでの検索を高速化するインデックス。
CREATE INDEX IF NOT EXISTS idx_comments_task_id
    ON comments(task_id);
`

// InitSchema はSQLiteデータベースにスキーマを適用する。
func InitSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("スキーマの適用に失敗: %w", err)
	}
	return nil
}
