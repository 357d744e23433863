// Package event は通知種別の列挙とリアルタイム配信フレームの定義を提供する。
// 通知サービスとリアルタイム配信層の間で共有される型をまとめる。
package event

import (
	"encoding/json"
	"fmt"
)

// NotificationType は通知の種類を表す。閉じた列挙であり、
// ここに定義された値以外は永続化を許可しない。
type NotificationType string

const (
	// TypeCollaborationRequest はプロジェクトへの参加リクエストを表す。
	TypeCollaborationRequest NotificationType = "CollaborationRequest"
	// TypeCollaborationAccepted は参加リクエストが承認されたことを表す。
	TypeCollaborationAccepted NotificationType = "CollaborationAccepted"
	// TypeCollaborationRejected は参加リクエストが却下されたことを表す。
	TypeCollaborationRejected NotificationType = "CollaborationRejected"
	// TypeCollaboratorAdded はオーナーが直接コラボレーターを追加したことを表す。
	TypeCollaboratorAdded NotificationType = "CollaboratorAdded"
	// TypeTaskAssigned はタスクが割り当てられたことを表す。
	TypeTaskAssigned NotificationType = "TaskAssigned"
	// TypeCommentAdded はタスクにコメントが追加されたことを表す。
	TypeCommentAdded NotificationType = "CommentAdded"
	// TypeOther は上記以外の汎用通知を表す。
	TypeOther NotificationType = "Other"
)

// ParseNotificationType は文字列を通知種別に変換する。
// 列挙にない値はエラーを返す。
func ParseNotificationType(s string) (NotificationType, error) {
	switch t := NotificationType(s); t {
	case TypeCollaborationRequest, TypeCollaborationAccepted, TypeCollaborationRejected,
		TypeCollaboratorAdded, TypeTaskAssigned, TypeCommentAdded, TypeOther:
		return t, nil
	}
	return "", fmt.Errorf("未知の通知種別: %q", s)
}

// IsCollaboration は参加リクエストワークフローに属する通知種別かどうかを返す。
// これらの種別の通知はプロジェクトIDと送信者IDの両方を必ず持つ。
func (t NotificationType) IsCollaboration() bool {
	switch t {
	case TypeCollaborationRequest, TypeCollaborationAccepted, TypeCollaborationRejected:
		return true
	}
	return false
}

// FrameName はリアルタイム配信フレームのイベント名を表す。
type FrameName string

const (
	// FrameReceiveNotification は永続化済み通知のプッシュ配信を表す。
	FrameReceiveNotification FrameName = "ReceiveNotification"
	// FrameCollaborationRequestAccepted は参加リクエスト承認のシグナルを表す。
	// ペイロードはプロジェクトIDのみ。接続中のクライアントが再取得なしで
	// プロジェクト画面を更新するために使用する。
	FrameCollaborationRequestAccepted FrameName = "CollaborationRequestAccepted"
	// FrameCollaborationRequestRejected は参加リクエスト却下のシグナルを表す。
	FrameCollaborationRequestRejected FrameName = "CollaborationRequestRejected"
)

// Frame はリアルタイム接続に書き込まれる1件の配信単位。
// 名前付きイベントとJSONペイロードの組で構成される。
type Frame struct {
	// Name はフレームのイベント名。
	Name FrameName `json:"name"`
	// Payload はイベント固有のデータ（JSON形式）。
	Payload json.RawMessage `json:"payload"`
}

// NotificationPayload はFrameReceiveNotificationのペイロード。
// 永続化済みの通知レコードをそのままクライアントへ渡す。
type NotificationPayload struct {
	// ID は通知の一意識別子。
	ID string `json:"id"`
	// UserID は通知先のユーザーID。
	UserID string `json:"user_id"`
	// Message は通知メッセージ。
	Message string `json:"message"`
	// Type は通知の種類。
	Type NotificationType `json:"type"`
	// ProjectID は関連するプロジェクトのID（存在する場合）。
	ProjectID string `json:"project_id,omitempty"`
	// SenderUserID は通知を発生させたユーザーのID（存在する場合）。
	SenderUserID string `json:"sender_user_id,omitempty"`
	// IsRead は通知の既読状態。
	IsRead bool `json:"is_read"`
	// CreatedAt は通知の作成日時（RFC3339形式）。
	CreatedAt string `json:"created_at"`
}

// ProjectPayload は参加リクエスト承認/却下シグナルのペイロード。
type ProjectPayload struct {
	// ProjectID は対象プロジェクトのID。
	ProjectID string `json:"project_id"`
}
