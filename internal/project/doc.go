// Package project はプロジェクトの管理機能を提供する。
// プロジェクトのCRUDと検索、コラボレーターの管理、参加リクエストの受付を担当する。
// プロジェクトの所属状態（オーナー、コラボレーター、保留中）はproject_membersテーブルで
// 管理され、参加リクエストワークフローからの原子的な更新に対応する。
package project
