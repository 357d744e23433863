// Package middleware はGin用の共通ミドルウェアを提供する。
// JWT認証、パニック回復、CORS設定をまとめる。
package middleware
