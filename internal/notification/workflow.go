package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"slices"

	notificationdb "github.com/nao1215/taskhub/internal/notification/db"
	"github.com/nao1215/taskhub/pkg/event"
)

// Membership は1プロジェクトの所属状態のスナップショット。
type Membership struct {
	// OwnerID はプロジェクトのオーナーのユーザーID。
	OwnerID string
	// CollaboratorIDs はコラボレーターのユーザーID集合。
	CollaboratorIDs []string
	// PendingIDs は参加リクエスト保留中のユーザーID集合。
	PendingIDs []string
}

// MembershipStore はプロジェクト所属の参照と原子的な変更の契約。
// internal/projectのMembershipStoreが実装する。変更操作はいずれも
// 単一のドキュメント更新として実装され、同一プロジェクトへの並行呼び出しに安全であること。
type MembershipStore interface {
	// Membership はプロジェクトの所属状態のスナップショットを返す。
	// プロジェクトが存在しない場合はsql.ErrNoRowsを返す。
	Membership(ctx context.Context, projectID string) (Membership, error)
	// AddCollaborator はユーザーをコラボレーター集合に追加する。冪等。
	// 保留中だった場合は保留状態が同時に解除される。
	AddCollaborator(ctx context.Context, projectID, userID string) error
	// AddPendingCollaborator はユーザーを保留集合に条件付きで追加する。
	// 既に保留中またはコラボレーターの場合は追加せずfalseを返す。
	AddPendingCollaborator(ctx context.Context, projectID, userID string) (bool, error)
	// RemovePendingCollaborator はユーザーを保留集合から取り除く。冪等。
	RemovePendingCollaborator(ctx context.Context, projectID, userID string) error
}

// Workflow は参加リクエストの状態機械を管理する。
// （プロジェクト, リクエスト元）ごとに リクエストなし → 保留 → 承認/却下 と遷移し、
// 却下されたリクエストは再送信で保留に戻れる。
type Workflow struct {
	// queries は通知テーブルへのクエリ実行オブジェクト。
	queries *notificationdb.Queries
	// members はプロジェクト所属の参照・変更先。
	members MembershipStore
	// dispatcher は通知の永続化と配信のオーケストレータ。
	dispatcher *Dispatcher
	// pusher はワークフロー固有のリアルタイムシグナルの配信先。
	pusher Pusher
}

// NewWorkflow は新しい参加リクエストワークフローを生成する。
func NewWorkflow(queries *notificationdb.Queries, members MembershipStore, dispatcher *Dispatcher, pusher Pusher) *Workflow {
	return &Workflow{
		queries:    queries,
		members:    members,
		dispatcher: dispatcher,
		pusher:     pusher,
	}
}

// RequestCollaboration はプロジェクトへの参加リクエストを送信する。
// 前提条件は順に検査され、最初の違反が優先される:
// オーナー自身 → 既にコラボレーター → 既に保留中。
// 保留集合への追加はストアレベルの条件付き更新で行い、
// 並行する2つのリクエストによる二重送信の競合を閉じる。
// 成功時はオーナーへCollaborationRequest通知を発行する。
func (w *Workflow) RequestCollaboration(ctx context.Context, projectID, requesterID string) (notificationdb.Notification, error) {
	m, err := w.members.Membership(ctx, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notificationdb.Notification{}, fmt.Errorf("プロジェクトが見つかりません: %w", err)
		}
		return notificationdb.Notification{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if requesterID == m.OwnerID {
		return notificationdb.Notification{}, ErrRequestFromOwner
	}
	if slices.Contains(m.CollaboratorIDs, requesterID) {
		return notificationdb.Notification{}, ErrAlreadyCollaborator
	}
	if slices.Contains(m.PendingIDs, requesterID) {
		return notificationdb.Notification{}, ErrAlreadyPending
	}

	added, err := w.members.AddPendingCollaborator(ctx, projectID, requesterID)
	if err != nil {
		return notificationdb.Notification{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !added {
		// 事前検査の後に並行リクエストが先行した場合
		return notificationdb.Notification{}, ErrAlreadyPending
	}

	return w.dispatcher.Dispatch(ctx, Notification{
		UserID:       m.OwnerID,
		Message:      "プロジェクトへの参加リクエストが届きました。",
		Type:         event.TypeCollaborationRequest,
		ProjectID:    projectID,
		SenderUserID: requesterID,
	})
}

// AcceptCollaborationRequest は参加リクエストを承認する。
// 順に (1) リクエスト元をコラボレーター集合へ追加（保留状態の解除を含む
// 単一の原子的更新）、(2) 保留集合の後始末、(3) 元通知の既読化、
// (4) リクエスト元へのCollaborationAccepted通知の発行を行う。
// さらに接続中のリクエスト元へプロジェクトIDを載せたシグナルを配信し、
// クライアントが再取得なしで画面を更新できるようにする。
func (w *Workflow) AcceptCollaborationRequest(ctx context.Context, notificationID string) error {
	n, err := w.lookupRequest(ctx, notificationID)
	if err != nil {
		return err
	}
	projectID := n.ProjectID.String
	senderID := n.SenderUserID.String

	if err := w.members.AddCollaborator(ctx, projectID, senderID); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	// AddCollaboratorが保留状態も解除するため通常は何もしないが、
	// 契約上の後始末として呼び、失敗はログに留める
	if err := w.members.RemovePendingCollaborator(ctx, projectID, senderID); err != nil {
		log.Printf("[Workflow] 保留状態の後始末に失敗: project_id=%s, user_id=%s, error=%v", projectID, senderID, err)
	}

	if err := w.queries.MarkAsRead(ctx, n.ID); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	// 役割を反転した返信通知: 宛先=リクエスト元、送信者=承認したオーナー
	if _, err := w.dispatcher.Dispatch(ctx, Notification{
		UserID:       senderID,
		Message:      "参加リクエストが承認されました。",
		Type:         event.TypeCollaborationAccepted,
		ProjectID:    projectID,
		SenderUserID: n.UserID,
	}); err != nil {
		return err
	}

	w.signal(event.FrameCollaborationRequestAccepted, senderID, projectID)
	return nil
}

// RejectCollaborationRequest は参加リクエストを却下する。
// リクエスト元を保留集合から取り除くだけで、コラボレーター集合には触れない。
// 元通知を既読化し、リクエスト元へCollaborationRejected通知を発行する。
// 却下されたリクエストは再送信できる。
func (w *Workflow) RejectCollaborationRequest(ctx context.Context, notificationID string) error {
	n, err := w.lookupRequest(ctx, notificationID)
	if err != nil {
		return err
	}
	projectID := n.ProjectID.String
	senderID := n.SenderUserID.String

	if err := w.members.RemovePendingCollaborator(ctx, projectID, senderID); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if err := w.queries.MarkAsRead(ctx, n.ID); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if _, err := w.dispatcher.Dispatch(ctx, Notification{
		UserID:       senderID,
		Message:      "参加リクエストが却下されました。",
		Type:         event.TypeCollaborationRejected,
		ProjectID:    projectID,
		SenderUserID: n.UserID,
	}); err != nil {
		return err
	}

	w.signal(event.FrameCollaborationRequestRejected, senderID, projectID)
	return nil
}

// lookupRequest は承認・却下対象の参加リクエスト通知を取得して検証する。
func (w *Workflow) lookupRequest(ctx context.Context, notificationID string) (notificationdb.Notification, error) {
	n, err := w.queries.GetNotificationByID(ctx, notificationID)
	if errors.Is(err, sql.ErrNoRows) {
		return notificationdb.Notification{}, ErrNotificationNotFound
	}
	if err != nil {
		return notificationdb.Notification{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if event.NotificationType(n.Type) != event.TypeCollaborationRequest {
		return notificationdb.Notification{}, ErrInvalidNotificationType
	}
	// 参加リクエスト通知はプロジェクトIDと送信者IDを必ず持つ
	if !n.ProjectID.Valid || n.ProjectID.String == "" || !n.SenderUserID.Valid || n.SenderUserID.String == "" {
		return notificationdb.Notification{}, fmt.Errorf("%w: プロジェクトIDまたは送信者IDがありません", ErrInvalidNotificationType)
	}
	return n, nil
}

// signal はワークフロー固有のリアルタイムシグナルをベストエフォートで配信する。
func (w *Workflow) signal(name event.FrameName, userID, projectID string) {
	frame, err := event.NewFrame(name, event.ProjectPayload{ProjectID: projectID})
	if err != nil {
		log.Printf("[Workflow] シグナルフレームの生成に失敗: frame=%s, error=%v", name, err)
		return
	}
	w.pusher.Push(userID, frame)
}
