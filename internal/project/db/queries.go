package db

import (
	"context"
)

const projectColumns = `id, owner_id, name, description, created_at, updated_at`

// scanProject は1行をプロジェクト構造体に読み込む。
func scanProject(row interface{ Scan(dest ...any) error }) (Project, error) {
	var p Project
	err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.Name,
		&p.Description,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

// CreateProjectParams はプロジェクト作成クエリのパラメータ。
type CreateProjectParams struct {
	// ID はプロジェクトの一意識別子（UUID）。
	ID string
	// OwnerID はプロジェクトのオーナーのユーザーID。
	OwnerID string
	// Name はプロジェクト名。
	Name string
	// Description はプロジェクトの説明。
	Description string
}

// CreateProject はプロジェクトを1件挿入する。
func (q *Queries) CreateProject(ctx context.Context, arg CreateProjectParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO projects (id, owner_id, name, description)
		VALUES (?, ?, ?, ?)`,
		arg.ID, arg.OwnerID, arg.Name, arg.Description,
	)
	return err
}

// GetProjectByID は指定IDのプロジェクトを取得する。
func (q *Queries) GetProjectByID(ctx context.Context, id string) (Project, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	return scanProject(row)
}

// ListAccessibleProjects はユーザーがアクセスできるプロジェクトを新しい順に取得する。
// オーナーであるプロジェクトと、コラボレーターとして所属するプロジェクトの両方を含む。
// 保留中のプロジェクトは含まない。
func (q *Queries) ListAccessibleProjects(ctx context.Context, userID string) ([]Project, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+projectColumns+` FROM projects p
		WHERE p.owner_id = ?
		   OR EXISTS (
			SELECT 1 FROM project_members m
			WHERE m.project_id = p.id AND m.user_id = ? AND m.pending = 0)
		ORDER BY p.created_at DESC, p.id`, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// SearchProjectsParams はプロジェクト検索クエリのパラメータ。
type SearchProjectsParams struct {
	// UserID は検索を行うユーザーのID。
	UserID string
	// Keyword はプロジェクト名と説明に対する部分一致キーワード。
	Keyword string
}

// SearchProjects はユーザーがアクセスできるプロジェクトをキーワードで絞り込む。
func (q *Queries) SearchProjects(ctx context.Context, arg SearchProjectsParams) ([]Project, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+projectColumns+` FROM projects p
		WHERE (p.owner_id = ?
		   OR EXISTS (
			SELECT 1 FROM project_members m
			WHERE m.project_id = p.id AND m.user_id = ? AND m.pending = 0))
		  AND (p.name LIKE '%' || ? || '%' OR p.description LIKE '%' || ? || '%')
		ORDER BY p.created_at DESC, p.id`,
		arg.UserID, arg.UserID, arg.Keyword, arg.Keyword)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// UpdateProjectParams はプロジェクト更新クエリのパラメータ。
type UpdateProjectParams struct {
	// Name はプロジェクト名。
	Name string
	// Description はプロジェクトの説明。
	Description string
	// ID は更新対象のプロジェクトID。
	ID string
}

// UpdateProject はプロジェクトの名前と説明を更新する。
func (q *Queries) UpdateProject(ctx context.Context, arg UpdateProjectParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE projects SET name = ?, description = ?, updated_at = datetime('now')
		WHERE id = ?`,
		arg.Name, arg.Description, arg.ID,
	)
	return err
}

// DeleteProject は指定IDのプロジェクトを削除する。
func (q *Queries) DeleteProject(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	return err
}

// DeleteProjectMembers はプロジェクトの全メンバー行を削除する。
// プロジェクト削除時の明示的な後始末として呼ぶ。
func (q *Queries) DeleteProjectMembers(ctx context.Context, projectID string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM project_members WHERE project_id = ?`, projectID)
	return err
}

// ListProjectMembers はプロジェクトの全メンバー行を取得する。
// コラボレーターと保留中の両方を含む。
func (q *Queries) ListProjectMembers(ctx context.Context, projectID string) ([]ProjectMember, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT project_id, user_id, pending, created_at FROM project_members
		WHERE project_id = ? ORDER BY created_at, user_id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []ProjectMember
	for rows.Next() {
		var m ProjectMember
		if err := rows.Scan(&m.ProjectID, &m.UserID, &m.Pending, &m.CreatedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// AddPendingMemberParams は保留メンバー追加クエリのパラメータ。
type AddPendingMemberParams struct {
	// ProjectID はプロジェクトID。
	ProjectID string
	// UserID は保留にするユーザーのID。
	UserID string
}

// AddPendingMember はユーザーを保留状態で条件付き追加する。
// 既にメンバー行が存在する場合（保留中またはコラボレーター）は何もせずfalseを返す。
// 主キー制約による単一の条件付きINSERTであり、並行する重複リクエストの競合を閉じる。
func (q *Queries) AddPendingMember(ctx context.Context, arg AddPendingMemberParams) (bool, error) {
	result, err := q.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO project_members (project_id, user_id, pending)
		VALUES (?, ?, 1)`,
		arg.ProjectID, arg.UserID,
	)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// AddCollaboratorParams はコラボレーター追加クエリのパラメータ。
type AddCollaboratorParams struct {
	// ProjectID はプロジェクトID。
	ProjectID string
	// UserID はコラボレーターにするユーザーのID。
	UserID string
}

// AddCollaborator はユーザーをコラボレーターとして追加する。
// 保留中の行が存在する場合は同じ文の中でコラボレーターへ昇格させる。
// 単一のUPSERTであり、保留解除と追加が途中状態なしで行われる。
func (q *Queries) AddCollaborator(ctx context.Context, arg AddCollaboratorParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO project_members (project_id, user_id, pending)
		VALUES (?, ?, 0)
		ON CONFLICT (project_id, user_id) DO UPDATE SET pending = 0`,
		arg.ProjectID, arg.UserID,
	)
	return err
}

// RemovePendingMemberParams は保留メンバー削除クエリのパラメータ。
type RemovePendingMemberParams struct {
	// ProjectID はプロジェクトID。
	ProjectID string
	// UserID は保留を解除するユーザーのID。
	UserID string
}

// RemovePendingMember はユーザーの保留行を削除する。
// コラボレーター行（pending=0）には触れない。保留行がなければ何もしない。
func (q *Queries) RemovePendingMember(ctx context.Context, arg RemovePendingMemberParams) error {
	_, err := q.db.ExecContext(ctx, `
		DELETE FROM project_members WHERE project_id = ? AND user_id = ? AND pending = 1`,
		arg.ProjectID, arg.UserID,
	)
	return err
}

// RemoveCollaboratorParams はコラボレーター削除クエリのパラメータ。
type RemoveCollaboratorParams struct {
	// ProjectID はプロジェクトID。
	ProjectID string
	// UserID は除外するユーザーのID。
	UserID string
}

// RemoveCollaborator はユーザーのコラボレーター行を削除する。
func (q *Queries) RemoveCollaborator(ctx context.Context, arg RemoveCollaboratorParams) error {
	_, err := q.db.ExecContext(ctx, `
		DELETE FROM project_members WHERE project_id = ? AND user_id = ? AND pending = 0`,
		arg.ProjectID, arg.UserID,
	)
	return err
}
