package db

import "time"

// Project はプロジェクトテーブルの1行を表す。
type Project struct {
	// ID はプロジェクトの一意識別子（UUID）。
	ID string
	// OwnerID はプロジェクトのオーナーのユーザーID。
	OwnerID string
	// Name はプロジェクト名。
	Name string
	// Description はプロジェクトの説明。
	Description string
	// CreatedAt は作成日時。
	CreatedAt time.Time
	// UpdatedAt は更新日時。
	UpdatedAt time.Time
}

// ProjectMember はプロジェクトメンバーテーブルの1行を表す。
type ProjectMember struct {
	// ProjectID はプロジェクトID。
	ProjectID string
	// UserID はメンバーのユーザーID。
	UserID string
	// Pending は保留状態（1=参加リクエスト保留中, 0=コラボレーター）。
	Pending int64
	// CreatedAt は追加日時。
	CreatedAt time.Time
}
