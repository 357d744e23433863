package db

import (
	"database/sql"
	"time"
)

// Task はタスクテーブルの1行を表す。
type Task struct {
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
	// Status はステータス（todo, in_progress, done）。
	Status string
	// Priority は優先度（low, medium, high）。
	Priority string
	// AssignedUserID は担当者のユーザーID。
	AssignedUserID sql.NullString
	// CreatedByUserID は作成者のユーザーID。
	CreatedByUserID string
	// CompletedAt は完了日時。
	CompletedAt sql.NullTime
	// CreatedAt は作成日時。
	CreatedAt time.Time
	// UpdatedAt は更新日時。
	UpdatedAt time.Time
}

// StatusCount はステータス別のタスク件数を表す。
type StatusCount struct {
	// Status はステータス。
	Status string
	// Count は件数。
	Count int64
}

// CompletionStats は担当タスクの完了数の期間別集計を表す。
type CompletionStats struct {
	// Today は今日完了した件数。
	Today int64
	// Last7Days は直近7日間に完了した件数。
	Last7Days int64
	// Last30Days は直近30日間に完了した件数。
	Last30Days int64
	// Last365Days は直近365日間に完了した件数。
	Last365Days int64
}
