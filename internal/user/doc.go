// Package user はユーザー管理と認証機能を提供する。
// ユーザー登録（bcryptによるパスワードハッシュ化）、ログイン（JWT発行）、
// プロフィールの参照・更新、ユーザー検索、コラボレーター一覧
// （プロジェクトを共有するユーザーの横断検索）を担当する。
package user
