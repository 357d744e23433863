package notification

import "errors"

// 通知サービスとワークフローのエラー分類。
// 参加リクエストの前提条件違反は理由ごとに別のエラーとして公開する。
// UIが理由別のメッセージを表示するため、区別できる必要がある。
var (
	// ErrInvalidNotification は宛先ユーザーIDのない通知を表す。
	ErrInvalidNotification = errors.New("通知の宛先ユーザーIDが指定されていません")
	// ErrPersistence は通知ストアまたはプロジェクト所属の書き込み失敗を表す。
	// 呼び出し元に必ず伝播する。永続レコードの有無を呼び出し元が知る必要がある。
	ErrPersistence = errors.New("ストアへの書き込みに失敗しました")
	// ErrNotificationNotFound は指定IDの通知が存在しないことを表す。
	ErrNotificationNotFound = errors.New("通知が見つかりません")
	// ErrInvalidNotificationType は参加リクエスト以外の通知に対する承認・却下を表す。
	ErrInvalidNotificationType = errors.New("参加リクエスト以外の通知は承認・却下できません")
	// ErrRequestFromOwner はオーナー自身からの参加リクエストを表す。
	ErrRequestFromOwner = errors.New("プロジェクトのオーナーは参加リクエストを送信できません")
	// ErrAlreadyCollaborator は既存コラボレーターからの参加リクエストを表す。
	ErrAlreadyCollaborator = errors.New("既にプロジェクトのコラボレーターです")
	// ErrAlreadyPending は送信済みの参加リクエストの再送を表す。
	ErrAlreadyPending = errors.New("参加リクエストは既に送信済みです")
)
