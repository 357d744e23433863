package notification

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	notificationdb "github.com/nao1215/taskhub/internal/notification/db"
	"github.com/nao1215/taskhub/pkg/event"
)

// Pusher はユーザーの全接続へのフレーム配信を抽象化する。
// 本番では*realtime.Hubが実装する。戻り値は配信を試行した接続数。
type Pusher interface {
	Push(userID string, frame event.Frame) int
}

// Notification は永続化前の通知ペイロード。
// Dispatcherへの入力として各サービスのハンドラが組み立てる。
type Notification struct {
	// UserID は通知先のユーザーID。必須。
	UserID string
	// Message は通知メッセージ。
	Message string
	// Type は通知の種類。未指定の場合はTypeOtherとして保存される。
	Type event.NotificationType
	// ProjectID は関連するプロジェクトのID。参加リクエスト系は必須。
	ProjectID string
	// SenderUserID は通知を発生させたユーザーのID。参加リクエスト系は必須。
	SenderUserID string
}

// Dispatcher は通知の永続化とリアルタイム配信のオーケストレータ。
// 永続化が完了した通知だけを配信する。再接続したクライアントが
// 通知一覧を再取得したとき、プッシュされた通知が必ず含まれるようにするため。
type Dispatcher struct {
	// queries は通知テーブルへのクエリ実行オブジェクト。
	queries *notificationdb.Queries
	// pusher はリアルタイム配信先。
	pusher Pusher
}

// NewDispatcher は新しい通知ディスパッチャを生成する。
func NewDispatcher(queries *notificationdb.Queries, pusher Pusher) *Dispatcher {
	return &Dispatcher{
		queries: queries,
		pusher:  pusher,
	}
}

// Dispatch は通知を永続化し、宛先ユーザーの全接続へ配信する。
// 永続化の失敗はErrPersistenceとして伝播し、配信は一切行わない。
// 配信の失敗はログに記録するだけで、Dispatch自体は成功として扱う。
// 接続が0本でも永続化されていれば成功となる。
func (d *Dispatcher) Dispatch(ctx context.Context, n Notification) (notificationdb.Notification, error) {
	if n.UserID == "" {
		return notificationdb.Notification{}, ErrInvalidNotification
	}

	typ := n.Type
	if typ == "" {
		typ = event.TypeOther
	}

	id := uuid.New().String()
	if err := d.queries.CreateNotification(ctx, notificationdb.CreateNotificationParams{
		ID:           id,
		UserID:       n.UserID,
		Message:      n.Message,
		Type:         string(typ),
		ProjectID:    nullString(n.ProjectID),
		SenderUserID: nullString(n.SenderUserID),
	}); err != nil {
		return notificationdb.Notification{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	stored, err := d.queries.GetNotificationByID(ctx, id)
	if err != nil {
		return notificationdb.Notification{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	// 永続化済みの通知のみ配信する
	d.fanOut(stored)

	return stored, nil
}

// fanOut は永続化済み通知を宛先ユーザーの全接続へ配信する。
// 失敗はログに記録するだけで呼び出し元には返さない。
func (d *Dispatcher) fanOut(stored notificationdb.Notification) {
	frame, err := event.NewFrame(event.FrameReceiveNotification, toPayload(stored))
	if err != nil {
		log.Printf("[Notification] 配信フレームの生成に失敗: id=%s, error=%v", stored.ID, err)
		return
	}
	attempts := d.pusher.Push(stored.UserID, frame)
	if attempts > 0 {
		log.Printf("[Notification] 通知を配信: id=%s, user_id=%s, connections=%d", stored.ID, stored.UserID, attempts)
	}
}

// toPayload はDB行をリアルタイム配信用ペイロードに変換する。
func toPayload(n notificationdb.Notification) event.NotificationPayload {
	return event.NotificationPayload{
		ID:           n.ID,
		UserID:       n.UserID,
		Message:      n.Message,
		Type:         event.NotificationType(n.Type),
		ProjectID:    n.ProjectID.String,
		SenderUserID: n.SenderUserID.String,
		IsRead:       n.IsRead != 0,
		CreatedAt:    n.CreatedAt.Format(time.RFC3339),
	}
}

// nullString は空文字列をNULLに変換する。
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
