package project

import (
	"database/sql"
	"fmt"
)

// スキーマ定義。
// project_membersはコラボレーターと保留中の参加リクエストを1つのテーブルで管理する。
// 主キー(project_id, user_id)により、同一ユーザーが同時にコラボレーターと
// 保留中の両方になることはない。
const schema = `
CREATE TABLE IF NOT EXISTS projects (
    -- プロジェクトの一意識別子
    id TEXT PRIMARY KEY,
    -- プロジェクトのオーナーのユーザーID
    owner_id TEXT NOT NULL,
    -- プロジェクト名
    name TEXT NOT NULL,
    -- プロジェクトの説明
    description TEXT NOT NULL DEFAULT '',
    -- 作成日時
    created_at DATETIME NOT NULL DEFAULT (datetime('now')),
    -- 更新日時
    updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS project_members (
    -- プロジェクトID
    project_id TEXT NOT NULL,
    -- メンバーのユーザーID
    user_id TEXT NOT NULL,
    -- 保留状態（1=参加リクエスト保留中, 0=コラボレーター）
    pending INTEGER NOT NULL DEFAULT 1,
    -- 追加日時
    created_at DATETIME NOT NULL DEFAULT (datetime('now')),
    PRIMARY KEY (project_id, user_id),
    FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
);

-- オーナーIDでの検索を高速化するインデックス。
CREATE INDEX IF NOT EXISTS idx_projects_owner_id
    ON projects(owner_id);

-- ユーザーIDからの所属プロジェクト逆引きを高速化するインデックス。
CREATE INDEX IF NOT EXISTS idx_project_members_user_id
    ON project_members(user_id);
`

// InitSchema はSQLiteデータベースにスキーマを適用する。
func InitSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("スキーマの適用に失敗: %w", err)
	}
	return nil
}
