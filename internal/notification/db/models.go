package db

import (
	"database/sql"
	"time"
)

// Notification は通知テーブルの1行を表す。
type Notification struct {
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
	// IsRead は通知の既読状態（0=未読, 1=既読）。
	IsRead int64
	// CreatedAt は通知の作成日時。
	CreatedAt time.Time
}
