// Package notification は通知の永続化・配信と参加リクエストワークフローを提供する。
//
// Dispatcherが通知レコードを保存してからリアルタイム接続へファンアウトする。
// 永続化は必ず配信より先に完了し、接続がないユーザーへの通知も保存だけは行われる。
// Workflowは参加リクエストの状態遷移（保留 → 承認/却下）と、それに伴う
// プロジェクト所属の変更・返信通知の発行を管理する。
package notification
