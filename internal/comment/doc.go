// Package comment はタスクへのコメント機能を提供する。
// コメントのCRUDと、コメント追加時のタスク関係者（作成者と担当者、
// コメント投稿者自身を除く）へのCommentAdded通知の発行を担当する。
package comment
