// Package task はタスクの管理機能を提供する。
// タスクのCRUD、ステータス・優先度の更新、担当者の割り当て（TaskAssigned通知の発行）、
// 担当タスクの統計（ステータス別件数と完了数の期間別集計）を担当する。
package task
