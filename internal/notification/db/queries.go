package db

import (
	"context"
	"database/sql"
)

const notificationColumns = `id, user_id, message, type, project_id, sender_user_id, is_read, created_at`

// scanNotification は1行を通知構造体に読み込む。
func scanNotification(row interface{ Scan(dest ...any) error }) (Notification, error) {
	var n Notification
	err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.Message,
		&n.Type,
		&n.ProjectID,
		&n.SenderUserID,
		&n.IsRead,
		&n.CreatedAt,
	)
	return n, err
}

// CreateNotificationParams は通知作成クエリのパラメータ。
type CreateNotificationParams struct {
	// ID は通知の一意識別子（UUID）。
	ID string
	// UserID は通知先のユーザーID。
	UserID string
	// Message は通知メッセージ。
	Message string
	// Type は通知の種類。
	Type string
	// ProjectID は関連するプロジェクトのID。
	ProjectID sql.NullString
	// SenderUserID は通知を発生させたユーザーのID。
	SenderUserID sql.NullString
}

// CreateNotification は通知を1件挿入する。
func (q *Queries) CreateNotification(ctx context.Context, arg CreateNotificationParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, message, type, project_id, sender_user_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		arg.ID, arg.UserID, arg.Message, arg.Type, arg.ProjectID, arg.SenderUserID,
	)
	return err
}

// GetNotificationByID は指定IDの通知を取得する。
func (q *Queries) GetNotificationByID(ctx context.Context, id string) (Notification, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id)
	return scanNotification(row)
}

// ListNotificationsByUserID はユーザーの全通知を新しい順に取得する。
func (q *Queries) ListNotificationsByUserID(ctx context.Context, userID string) ([]Notification, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE user_id = ? ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// ListUnreadNotifications はユーザーの未読通知を新しい順に取得する。
func (q *Queries) ListUnreadNotifications(ctx context.Context, userID string) ([]Notification, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE user_id = ? AND is_read = 0 ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkAsRead は指定IDの通知を既読にする。
func (q *Queries) MarkAsRead(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
	return err
}

// MarkAllAsRead はユーザーの全通知を既読にする。
func (q *Queries) MarkAllAsRead(ctx context.Context, userID string) error {
	_, err := q.db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE user_id = ?`, userID)
	return err
}

// DeleteNotification は指定IDの通知を削除する。
func (q *Queries) DeleteNotification(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = ?`, id)
	return err
}

// DeleteNotificationsByUserID はユーザーの全通知を削除する。
// 参照整合のための明示的な一括削除であり、自動的なカスケードはしない。
func (q *Queries) DeleteNotificationsByUserID(ctx context.Context, userID string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM notifications WHERE user_id = ?`, userID)
	return err
}
