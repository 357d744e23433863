package db

import (
	"context"
	"database/sql"
)

const taskColumns = `id, project_id, title, description, due_date, status, priority,
	assigned_user_id, created_by_user_id, completed_at, created_at, updated_at`

// scanTask は1行をタスク構造体に読み込む。
func scanTask(row interface{ Scan(dest ...any) error }) (Task, error) {
	var t Task
	err := row.Scan(
		&t.ID,
		&t.ProjectID,
		&t.Title,
		&t.Description,
		&t.DueDate,
		&t.Status,
		&t.Priority,
		&t.AssignedUserID,
		&t.CreatedByUserID,
		&t.CompletedAt,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	return t, err
}

// scanTasks は複数行をタスク構造体のスライスに読み込む。
func scanTasks(rows *sql.Rows) ([]Task, error) {
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// CreateTaskParams はタスク作成クエリのパラメータ。
type CreateTaskParams struct {
	// ID はタスクの一意識別子（UUID）。
	ID string
	// ProjectID は所属するプロジェクトのID。
	ProjectID string
	// Title はタスクのタイトル。
	Title string
	// Description はタスクの説明。
	Description string
	// DueDate は期限日時。
	DueDate sql.NullTime
	// Priority は優先度。
	Priority string
	// AssignedUserID は担当者のユーザーID。
	AssignedUserID sql.NullString
	// CreatedByUserID は作成者のユーザーID。
	CreatedByUserID string
}

// CreateTask はタスクを1件挿入する。ステータスはtodoで開始する。
func (q *Queries) CreateTask(ctx context.Context, arg CreateTaskParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO tasks (id, project_id, title, description, due_date, priority, assigned_user_id, created_by_user_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.ID, arg.ProjectID, arg.Title, arg.Description, arg.DueDate, arg.Priority, arg.AssignedUserID, arg.CreatedByUserID,
	)
	return err
}

// GetTaskByID は指定IDのタスクを取得する。
func (q *Queries) GetTaskByID(ctx context.Context, id string) (Task, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	return scanTask(row)
}

// ListTasksParams はタスク一覧取得クエリのパラメータ。
// StatusとAssignedUserIDは空文字列の場合は絞り込まない。
type ListTasksParams struct {
	// ProjectID は対象プロジェクトのID。
	ProjectID string
	// Status はステータスでの絞り込み。
	Status string
	// AssignedUserID は担当者での絞り込み。
	AssignedUserID string
}

// ListTasks はプロジェクトのタスクを新しい順に取得する。
func (q *Queries) ListTasks(ctx context.Context, arg ListTasksParams) ([]Task, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE project_id = ?
		  AND (? = '' OR status = ?)
		  AND (? = '' OR assigned_user_id = ?)
		ORDER BY created_at DESC, id`,
		arg.ProjectID, arg.Status, arg.Status, arg.AssignedUserID, arg.AssignedUserID)
	if err != nil {
		return nil, err
	}
	return scanTasks(rows)
}

// ListTasksByAssignee は担当者のタスクをプロジェクト横断で新しい順に取得する。
func (q *Queries) ListTasksByAssignee(ctx context.Context, userID string) ([]Task, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE assigned_user_id = ? ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, err
	}
	return scanTasks(rows)
}

// UpdateTaskParams はタスク更新クエリのパラメータ。
type UpdateTaskParams struct {
	// Title はタスクのタイトル。
	Title string
	// Description はタスクの説明。
	Description string
	// DueDate は期限日時。
	DueDate sql.NullTime
	// Priority は優先度。
	Priority string
	// ID は更新対象のタスクID。
	ID string
}

// UpdateTask はタスクのタイトル・説明・期限・優先度を更新する。
func (q *Queries) UpdateTask(ctx context.Context, arg UpdateTaskParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE tasks SET title = ?, description = ?, due_date = ?, priority = ?, updated_at = datetime('now')
		WHERE id = ?`,
		arg.Title, arg.Description, arg.DueDate, arg.Priority, arg.ID,
	)
	return err
}

// UpdateTaskStatusParams はステータス更新クエリのパラメータ。
type UpdateTaskStatusParams struct {
	// Status は新しいステータス。
	Status string
	// ID は更新対象のタスクID。
	ID string
}

// UpdateTaskStatus はタスクのステータスを更新する。
// doneへの遷移で完了日時を記録し、done以外への遷移で完了日時をクリアする。
func (q *Queries) UpdateTaskStatus(ctx context.Context, arg UpdateTaskStatusParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE tasks SET status = ?,
			completed_at = CASE WHEN ? = 'done' THEN datetime('now') ELSE NULL END,
			updated_at = datetime('now')
		WHERE id = ?`,
		arg.Status, arg.Status, arg.ID,
	)
	return err
}

// UpdateTaskPriorityParams は優先度更新クエリのパラメータ。
type UpdateTaskPriorityParams struct {
	// Priority は新しい優先度。
	Priority string
	// ID は更新対象のタスクID。
	ID string
}

// UpdateTaskPriority はタスクの優先度を更新する。
func (q *Queries) UpdateTaskPriority(ctx context.Context, arg UpdateTaskPriorityParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE tasks SET priority = ?, updated_at = datetime('now') WHERE id = ?`,
		arg.Priority, arg.ID,
	)
	return err
}

// AssignTaskParams は担当者割り当てクエリのパラメータ。
type AssignTaskParams struct {
	// AssignedUserID は新しい担当者のユーザーID。NULLで割り当て解除。
	AssignedUserID sql.NullString
	// ID は対象のタスクID。
	ID string
}

// AssignTask はタスクの担当者を更新する。
func (q *Queries) AssignTask(ctx context.Context, arg AssignTaskParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE tasks SET assigned_user_id = ?, updated_at = datetime('now') WHERE id = ?`,
		arg.AssignedUserID, arg.ID,
	)
	return err
}

// DeleteTask は指定IDのタスクを削除する。
func (q *Queries) DeleteTask(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	return err
}

// DeleteTasksByProjectID はプロジェクトの全タスクを削除する。
// プロジェクト削除時の明示的な後始末として呼ぶ。
func (q *Queries) DeleteTasksByProjectID(ctx context.Context, projectID string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM tasks WHERE project_id = ?`, projectID)
	return err
}

// DeleteCommentsByTaskID はタスクの全コメントを削除する。
// タスク削除時の参照整合のための明示的な一括削除。
func (q *Queries) DeleteCommentsByTaskID(ctx context.Context, taskID string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM comments WHERE task_id = ?`, taskID)
	return err
}

// CountTasksByStatus は担当タスクのステータス別件数を取得する。
func (q *Queries) CountTasksByStatus(ctx context.Context, userID string) ([]StatusCount, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM tasks
		WHERE assigned_user_id = ? GROUP BY status ORDER BY status`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []StatusCount
	for rows.Next() {
		var c StatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// GetCompletionStats は担当タスクの完了数を期間別に集計する。
func (q *Queries) GetCompletionStats(ctx context.Context, userID string) (CompletionStats, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT
			COUNT(CASE WHEN completed_at >= datetime('now', 'start of day') THEN 1 END),
			COUNT(CASE WHEN completed_at >= datetime('now', '-7 days') THEN 1 END),
			COUNT(CASE WHEN completed_at >= datetime('now', '-30 days') THEN 1 END),
			COUNT(CASE WHEN completed_at >= datetime('now', '-365 days') THEN 1 END)
		FROM tasks
		WHERE assigned_user_id = ? AND status = 'done' AND completed_at IS NOT NULL`, userID)

	var stats CompletionStats
	err := row.Scan(&stats.Today, &stats.Last7Days, &stats.Last30Days, &stats.Last365Days)
	return stats, err
}
