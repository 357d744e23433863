package db

import "context"

const commentColumns = `id, task_id, user_id, body, created_at`

// scanComment は1行をコメント構造体に読み込む。
func scanComment(row interface{ Scan(dest ...any) error }) (Comment, error) {
	var c Comment
	err := row.Scan(
		&c.ID,
		&c.TaskID,
		&c.UserID,
		&c.Body,
		&c.CreatedAt,
	)
	return c, err
}

// CreateCommentParams はコメント作成クエリのパラメータ。
type CreateCommentParams struct {
	// ID はコメントの一意識別子（UUID）。
	ID string
	// TaskID はコメント対象のタスクID。
	TaskID string
	// UserID はコメント投稿者のユーザーID。
	UserID string
	// Body はコメント本文。
	Body string
}

// CreateComment はコメントを1件挿入する。
func (q *Queries) CreateComment(ctx context.Context, arg CreateCommentParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO comments (id, task_id, user_id, body)
		VALUES (?, ?, ?, ?)`,
		arg.ID, arg.TaskID, arg.UserID, arg.Body,
	)
	return err
}

// GetCommentByID は指定IDのコメントを取得する。
func (q *Queries) GetCommentByID(ctx context.Context, id string) (Comment, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+commentColumns+` FROM comments WHERE id = ?`, id)
	return scanComment(row)
}

// ListCommentsByTaskID はタスクのコメントを古い順に取得する。
func (q *Queries) ListCommentsByTaskID(ctx context.Context, taskID string) ([]Comment, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+commentColumns+` FROM comments
		WHERE task_id = ? ORDER BY created_at, id`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// UpdateCommentParams はコメント更新クエリのパラメータ。
type UpdateCommentParams struct {
	// Body はコメント本文。
	Body string
	// ID は更新対象のコメントID。
	ID string
}

// UpdateComment はコメント本文を更新する。
func (q *Queries) UpdateComment(ctx context.Context, arg UpdateCommentParams) error {
	_, err := q.db.ExecContext(ctx, `UPDATE comments SET body = ? WHERE id = ?`, arg.Body, arg.ID)
	return err
}

// DeleteComment は指定IDのコメントを削除する。
func (q *Queries) DeleteComment(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	return err
}

// GetTaskStakeholders はコメント対象タスクの関係者（作成者と担当者）を取得する。
// 通知の宛先決定に使用する。タスクが存在しない場合はsql.ErrNoRowsを返す。
func (q *Queries) GetTaskStakeholders(ctx context.Context, taskID string) (TaskStakeholders, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT project_id, title, created_by_user_id, assigned_user_id
		FROM tasks WHERE id = ?`, taskID)

	var s TaskStakeholders
	err := row.Scan(&s.ProjectID, &s.Title, &s.CreatedByUserID, &s.AssignedUserID)
	return s, err
}
