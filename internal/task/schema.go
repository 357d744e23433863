package task

import (
	"database/sql"
	"fmt"
)

// スキーマ定義。
const schema = `
CREATE TABLE IF NOT EXISTS tasks (
    -- タスクの一意識別子
    id TEXT PRIMARY KEY,
    -- 所属するプロジェクトのID
    project_id TEXT NOT NULL,
    -- タスクのタイトル
    title TEXT NOT NULL,
    -- タスクの説明
    description TEXT NOT NULL DEFAULT '',
    -- 期限日時
    due_date DATETIME,
    -- ステータス（todo, in_progress, done）
    status TEXT NOT NULL DEFAULT 'todo',
    -- 優先度（low, medium, high）
    priority TEXT NOT NULL DEFAULT 'medium',
    -- 担当者のユーザーID
    assigned_user_id TEXT,
    -- 作成者のユーザーID
    created_by_user_id TEXT NOT NULL,
    -- 完了日時（statusがdoneになったときに設定される）
    completed_at DATETIME,
    -- 作成日時
    created_at DATETIME NOT NULL DEFAULT (datetime('now')),
    -- 更新日時
    updated_at DATETIME NOT NULL DEFAULT (datetime('now')),
    FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
);

-- プロジェクトIDでの検索を高速化するインデックス。
CREATE INDEX IF NOT EXISTS idx_tasks_project_id
    ON tasks(project_id);

-- 担当者からの逆引きと統計クエリを高速化するインデックス。
CREATE INDEX IF NOT EXISTS idx_tasks_assigned_user_id
    ON tasks(assigned_user_id);
`

// InitSchema はSQLiteデータベースにスキーマを適用する。
func InitSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("スキーマの適用に失敗: %w", err)
	}
	return nil
}
