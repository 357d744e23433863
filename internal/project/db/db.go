// Package db はプロジェクトテーブルへのクエリ実行層を提供する。
package db

import (
	"context"
	"database/sql"
)

// DBTX はデータベース接続またはトランザクションを抽象化する。
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New はクエリ実行オブジェクトを生成する。
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Queries はプロジェクトテーブルへのクエリをまとめる。
type Queries struct {
	db DBTX
}
