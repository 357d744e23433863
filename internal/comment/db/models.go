package db

import (
	"database/sql"
	"time"
)

// Comment はコメントテーブルの1行を表す。
type Comment struct {
	// ID はコメントの一意識別子（UUID）。
	ID string
	// TaskID はコメント対象のタスクID。
	TaskID string
	// UserID はコメント投稿者のユーザーID。
	UserID string
	// Body はコメント本文。
	Body string
	// CreatedAt は作成日時。
	CreatedAt time.Time
}

// TaskStakeholders はコメント通知の宛先となるタスク関係者を表す。
type TaskStakeholders struct {
	// ProjectID はタスクが所属するプロジェクトのID。
	ProjectID string
	// Title はタスクのタイトル。
	Title string
	// CreatedByUserID はタスク作成者のユーザーID。
	CreatedByUserID string
	// AssignedUserID はタスク担当者のユーザーID。
	AssignedUserID sql.NullString
}
