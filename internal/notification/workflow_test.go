package notification

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"sync"
	"testing"

	notificationdb "github.com/nao1215/taskhub/internal/notification/db"
	"github.com/nao1215/taskhub/pkg/event"
)

// fakeMembershipStore はテスト用のプロジェクト所属ストア。
// インメモリで所属状態を管理し、エラーの注入と条件付き追加の強制失敗ができる。
type fakeMembershipStore struct {
	mu sync.Mutex
	// memberships はプロジェクトIDごとの所属状態。
	memberships map[string]*Membership
	// addCollaboratorErr が設定されている場合、AddCollaboratorは常に失敗する。
	addCollaboratorErr error
	// removePendingErr が設定されている場合、RemovePendingCollaboratorは常に失敗する。
	removePendingErr error
	// forcePendingConflict がtrueの場合、AddPendingCollaboratorは追加せずfalseを返す。
	// 事前検査の後に並行リクエストが先行したケースを再現する。
	forcePendingConflict bool
}

// newFakeMembershipStore は指定オーナーのプロジェクトを1件持つストアを生成する。
func newFakeMembershipStore(projectID, ownerID string) *fakeMembershipStore {
	return &fakeMembershipStore{
		memberships: map[string]*Membership{
			projectID: {OwnerID: ownerID},
		},
	}
}

// Membership はプロジェクトの所属状態のスナップショットを返す。
func (s *fakeMembershipStore) Membership(_ context.Context, projectID string) (Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.memberships[projectID]
	if !ok {
		return Membership{}, sql.ErrNoRows
	}
	return Membership{
		OwnerID:         m.OwnerID,
		CollaboratorIDs: append([]string(nil), m.CollaboratorIDs...),
		PendingIDs:      append([]string(nil), m.PendingIDs...),
	}, nil
}

// AddCollaborator はユーザーをコラボレーター集合へ移動する。
func (s *fakeMembershipStore) AddCollaborator(_ context.Context, projectID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addCollaboratorErr != nil {
		return s.addCollaboratorErr
	}
	m := s.memberships[projectID]
	m.PendingIDs = slices.DeleteFunc(m.PendingIDs, func(id string) bool { return id == userID })
	if !slices.Contains(m.CollaboratorIDs, userID) {
		m.CollaboratorIDs = append(m.CollaboratorIDs, userID)
	}
	return nil
}

// AddPendingCollaborator はユーザーを保留集合に条件付きで追加する。
func (s *fakeMembershipStore) AddPendingCollaborator(_ context.Context, projectID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.forcePendingConflict {
		return false, nil
	}
	m := s.memberships[projectID]
	if slices.Contains(m.PendingIDs, userID) || slices.Contains(m.CollaboratorIDs, userID) {
		return false, nil
	}
	m.PendingIDs = append(m.PendingIDs, userID)
	return true, nil
}

// RemovePendingCollaborator はユーザーを保留集合から取り除く。
func (s *fakeMembershipStore) RemovePendingCollaborator(_ context.Context, projectID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removePendingErr != nil {
		return s.removePendingErr
	}
	m := s.memberships[projectID]
	m.PendingIDs = slices.DeleteFunc(m.PendingIDs, func(id string) bool { return id == userID })
	return nil
}

// snapshot は検証用に現在の所属状態を返す。
func (s *fakeMembershipStore) snapshot(projectID string) Membership {
	m, _ := s.Membership(context.Background(), projectID)
	return m
}

// setupWorkflow はテスト用のワークフロー一式を構築する。
func setupWorkflow(t *testing.T, store *fakeMembershipStore) (*Workflow, *notificationdb.Queries, *fakePusher) {
	t.Helper()
	queries := setupQueries(t)
	pusher := newFakePusher()
	dispatcher := NewDispatcher(queries, pusher)
	return NewWorkflow(queries, store, dispatcher, pusher), queries, pusher
}

// TestWorkflowRequestCollaboration は参加リクエスト送信のテスト。
func TestWorkflowRequestCollaboration(t *testing.T) {
	t.Parallel()

	t.Run("リクエスト元が保留になりオーナーへ通知が届く", func(t *testing.T) {
		t.Parallel()
		store := newFakeMembershipStore("project-1", "owner-1")
		w, queries, pusher := setupWorkflow(t, store)

		stored, err := w.RequestCollaboration(context.Background(), "project-1", "user-2")
		if err != nil {
			t.Fatalf("RequestCollaborationに失敗: %v", err)
		}

		if stored.UserID != "owner-1" {
			t.Errorf("通知の宛先: got %s, want owner-1", stored.UserID)
		}
		if stored.Type != string(event.TypeCollaborationRequest) {
			t.Errorf("通知の種別: got %s, want %s", stored.Type, event.TypeCollaborationRequest)
		}
		if stored.SenderUserID.String != "user-2" {
			t.Errorf("通知の送信者: got %s, want user-2", stored.SenderUserID.String)
		}
		if stored.ProjectID.String != "project-1" {
			t.Errorf("通知のプロジェクト: got %s, want project-1", stored.ProjectID.String)
		}

		m := store.snapshot("project-1")
		if !slices.Contains(m.PendingIDs, "user-2") {
			t.Errorf("保留集合: got %v, want user-2を含む", m.PendingIDs)
		}
		if slices.Contains(m.CollaboratorIDs, "user-2") {
			t.Errorf("コラボレーター集合: got %v, want user-2を含まない", m.CollaboratorIDs)
		}

		// オーナーへプッシュ配信される
		frames := pusher.framesFor("owner-1")
		if len(frames) != 1 {
			t.Fatalf("オーナーへの配信フレーム数: got %d, want 1", len(frames))
		}
		if frames[0].Name != event.FrameReceiveNotification {
			t.Errorf("フレーム名: got %s, want %s", frames[0].Name, event.FrameReceiveNotification)
		}

		// 永続化の確認
		notifications, err := queries.ListNotificationsByUserID(context.Background(), "owner-1")
		if err != nil {
			t.Fatalf("通知一覧の取得に失敗: %v", err)
		}
		if len(notifications) != 1 {
			t.Errorf("オーナーの通知件数: got %d, want 1", len(notifications))
		}
	})

	t.Run("オーナー自身からのリクエストは拒否される", func(t *testing.T) {
		t.Parallel()
		store := newFakeMembershipStore("project-1", "owner-1")
		w, queries, _ := setupWorkflow(t, store)

		_, err := w.RequestCollaboration(context.Background(), "project-1", "owner-1")
		if !errors.Is(err, ErrRequestFromOwner) {
			t.Fatalf("エラー: got %v, want ErrRequestFromOwner", err)
		}

		notifications, err := queries.ListNotificationsByUserID(context.Background(), "owner-1")
		if err != nil {
			t.Fatalf("通知一覧の取得に失敗: %v", err)
		}
		if len(notifications) != 0 {
			t.Errorf("通知件数: got %d, want 0", len(notifications))
		}
	})

	t.Run("既にコラボレーターの場合は拒否される", func(t *testing.T) {
		t.Parallel()
		store := newFakeMembershipStore("project-1", "owner-1")
		store.memberships["project-1"].CollaboratorIDs = []string{"user-2"}
		w, _, _ := setupWorkflow(t, store)

		_, err := w.RequestCollaboration(context.Background(), "project-1", "user-2")
		if !errors.Is(err, ErrAlreadyCollaborator) {
			t.Fatalf("エラー: got %v, want ErrAlreadyCollaborator", err)
		}
	})

	t.Run("既に保留中の場合は拒否される", func(t *testing.T) {
		t.Parallel()
		store := newFakeMembershipStore("project-1", "owner-1")
		w, queries, _ := setupWorkflow(t, store)

		if _, err := w.RequestCollaboration(context.Background(), "project-1", "user-2"); err != nil {
			t.Fatalf("1回目のRequestCollaborationに失敗: %v", err)
		}
		_, err := w.RequestCollaboration(context.Background(), "project-1", "user-2")
		if !errors.Is(err, ErrAlreadyPending) {
			t.Fatalf("エラー: got %v, want ErrAlreadyPending", err)
		}

		// 重複通知は作成されない
		notifications, err := queries.ListNotificationsByUserID(context.Background(), "owner-1")
		if err != nil {
			t.Fatalf("通知一覧の取得に失敗: %v", err)
		}
		if len(notifications) != 1 {
			t.Errorf("オーナーの通知件数: got %d, want 1", len(notifications))
		}
	})

	t.Run("事前検査の後に並行リクエストが先行した場合も保留エラーになる", func(t *testing.T) {
		t.Parallel()
		store := newFakeMembershipStore("project-1", "owner-1")
		store.forcePendingConflict = true
		w, queries, _ := setupWorkflow(t, store)

		_, err := w.RequestCollaboration(context.Background(), "project-1", "user-2")
		if !errors.Is(err, ErrAlreadyPending) {
			t.Fatalf("エラー: got %v, want ErrAlreadyPending", err)
		}

		notifications, err := queries.ListNotificationsByUserID(context.Background(), "owner-1")
		if err != nil {
			t.Fatalf("通知一覧の取得に失敗: %v", err)
		}
		if len(notifications) != 0 {
			t.Errorf("通知件数: got %d, want 0", len(notifications))
		}
	})

	t.Run("存在しないプロジェクトへのリクエストはエラー", func(t *testing.T) {
		t.Parallel()
		store := newFakeMembershipStore("project-1", "owner-1")
		w, _, _ := setupWorkflow(t, store)

		_, err := w.RequestCollaboration(context.Background(), "no-such-project", "user-2")
		if !errors.Is(err, sql.ErrNoRows) {
			t.Fatalf("エラー: got %v, want sql.ErrNoRows", err)
		}
	})
}

// TestWorkflowAcceptCollaborationRequest は参加リクエスト承認のテスト。
func TestWorkflowAcceptCollaborationRequest(t *testing.T) {
	t.Parallel()

	t.Run("承認でコラボレーターに昇格し双方の通知が整合する", func(t *testing.T) {
		t.Parallel()
		store := newFakeMembershipStore("project-1", "owner-1")
		w, queries, pusher := setupWorkflow(t, store)

		stored, err := w.RequestCollaboration(context.Background(), "project-1", "user-2")
		if err != nil {
			t.Fatalf("RequestCollaborationに失敗: %v", err)
		}

		if err := w.AcceptCollaborationRequest(context.Background(), stored.ID); err != nil {
			t.Fatalf("AcceptCollaborationRequestに失敗: %v", err)
		}

		// 所属状態: 保留から抜けコラボレーターになる
		m := store.snapshot("project-1")
		if !slices.Contains(m.CollaboratorIDs, "user-2") {
			t.Errorf("コラボレーター集合: got %v, want user-2を含む", m.CollaboratorIDs)
		}
		if slices.Contains(m.PendingIDs, "user-2") {
			t.Errorf("保留集合: got %v, want user-2を含まない", m.PendingIDs)
		}

		// 元の参加リクエスト通知は既読になる
		original, err := queries.GetNotificationByID(context.Background(), stored.ID)
		if err != nil {
			t.Fatalf("元通知の取得に失敗: %v", err)
		}
		if original.IsRead != 1 {
			t.Errorf("元通知のis_read: got %d, want 1", original.IsRead)
		}

		// リクエスト元へ役割を反転した承認通知が届く
		notifications, err := queries.ListNotificationsByUserID(context.Background(), "user-2")
		if err != nil {
			t.Fatalf("通知一覧の取得に失敗: %v", err)
		}
		if len(notifications) != 1 {
			t.Fatalf("リクエスト元の通知件数: got %d, want 1", len(notifications))
		}
		reply := notifications[0]
		if reply.Type != string(event.TypeCollaborationAccepted) {
			t.Errorf("返信通知の種別: got %s, want %s", reply.Type, event.TypeCollaborationAccepted)
		}
		if reply.SenderUserID.String != "owner-1" {
			t.Errorf("返信通知の送信者: got %s, want owner-1", reply.SenderUserID.String)
		}
		if reply.ProjectID.String != "project-1" {
			t.Errorf("返信通知のプロジェクト: got %s, want project-1", reply.ProjectID.String)
		}

		// リクエスト元へ承認通知のフレームと承認シグナルの両方が配信される
		frames := pusher.framesFor("user-2")
		if len(frames) != 2 {
			t.Fatalf("リクエスト元への配信フレーム数: got %d, want 2", len(frames))
		}
		if frames[0].Name != event.FrameReceiveNotification {
			t.Errorf("1件目のフレーム名: got %s, want %s", frames[0].Name, event.FrameReceiveNotification)
		}
		if frames[1].Name != event.FrameCollaborationRequestAccepted {
			t.Errorf("2件目のフレーム名: got %s, want %s", frames[1].Name, event.FrameCollaborationRequestAccepted)
		}
		payload, err := event.DecodePayload[event.ProjectPayload](frames[1])
		if err != nil {
			t.Fatalf("シグナルペイロードのデコードに失敗: %v", err)
		}
		if payload.ProjectID != "project-1" {
			t.Errorf("シグナルのproject_id: got %s, want project-1", payload.ProjectID)
		}
	})

	t.Run("存在しない通知の承認はエラー", func(t *testing.T) {
		t.Parallel()
		store := newFakeMembershipStore("project-1", "owner-1")
		w, _, _ := setupWorkflow(t, store)

		err := w.AcceptCollaborationRequest(context.Background(), "no-such-id")
		if !errors.Is(err, ErrNotificationNotFound) {
			t.Fatalf("エラー: got %v, want ErrNotificationNotFound", err)
		}
	})

	t.Run("参加リクエスト以外の通知の承認はエラー", func(t *testing.T) {
		t.Parallel()
		store := newFakeMembershipStore("project-1", "owner-1")
		w, queries, _ := setupWorkflow(t, store)

		dispatcher := NewDispatcher(queries, newFakePusher())
		stored, err := dispatcher.Dispatch(context.Background(), Notification{
			UserID:  "owner-1",
			Message: "汎用通知",
			Type:    event.TypeOther,
		})
		if err != nil {
			t.Fatalf("テスト用通知の作成に失敗: %v", err)
		}

		if err := w.AcceptCollaborationRequest(context.Background(), stored.ID); !errors.Is(err, ErrInvalidNotificationType) {
			t.Fatalf("エラー: got %v, want ErrInvalidNotificationType", err)
		}
	})

	t.Run("所属更新の失敗は永続化エラーとして伝播し元通知は未読のまま", func(t *testing.T) {
		t.Parallel()
		store := newFakeMembershipStore("project-1", "owner-1")
		w, queries, _ := setupWorkflow(t, store)

		stored, err := w.RequestCollaboration(context.Background(), "project-1", "user-2")
		if err != nil {
			t.Fatalf("RequestCollaborationに失敗: %v", err)
		}

		store.addCollaboratorErr = errors.New("書き込み失敗")
		if err := w.AcceptCollaborationRequest(context.Background(), stored.ID); !errors.Is(err, ErrPersistence) {
			t.Fatalf("エラー: got %v, want ErrPersistence", err)
		}

		original, err := queries.GetNotificationByID(context.Background(), stored.ID)
		if err != nil {
			t.Fatalf("元通知の取得に失敗: %v", err)
		}
		if original.IsRead != 0 {
			t.Errorf("元通知のis_read: got %d, want 0", original.IsRead)
		}
	})
}

// TestWorkflowRejectCollaborationRequest は参加リクエスト却下のテスト。
func TestWorkflowRejectCollaborationRequest(t *testing.T) {
	t.Parallel()

	t.Run("却下で保留が解除されコラボレーターにはならない", func(t *testing.T) {
		t.Parallel()
		store := newFakeMembershipStore("project-1", "owner-1")
		w, queries, pusher := setupWorkflow(t, store)

		stored, err := w.RequestCollaboration(context.Background(), "project-1", "user-2")
		if err != nil {
			t.Fatalf("RequestCollaborationに失敗: %v", err)
		}

		if err := w.RejectCollaborationRequest(context.Background(), stored.ID); err != nil {
			t.Fatalf("RejectCollaborationRequestに失敗: %v", err)
		}

		m := store.snapshot("project-1")
		if slices.Contains(m.PendingIDs, "user-2") {
			t.Errorf("保留集合: got %v, want user-2を含まない", m.PendingIDs)
		}
		if slices.Contains(m.CollaboratorIDs, "user-2") {
			t.Errorf("コラボレーター集合: got %v, want user-2を含まない", m.CollaboratorIDs)
		}

		// 元通知は既読になる
		original, err := queries.GetNotificationByID(context.Background(), stored.ID)
		if err != nil {
			t.Fatalf("元通知の取得に失敗: %v", err)
		}
		if original.IsRead != 1 {
			t.Errorf("元通知のis_read: got %d, want 1", original.IsRead)
		}

		// リクエスト元へ却下通知と却下シグナルが配信される
		notifications, err := queries.ListNotificationsByUserID(context.Background(), "user-2")
		if err != nil {
			t.Fatalf("通知一覧の取得に失敗: %v", err)
		}
		if len(notifications) != 1 {
			t.Fatalf("リクエスト元の通知件数: got %d, want 1", len(notifications))
		}
		if notifications[0].Type != string(event.TypeCollaborationRejected) {
			t.Errorf("返信通知の種別: got %s, want %s", notifications[0].Type, event.TypeCollaborationRejected)
		}

		frames := pusher.framesFor("user-2")
		if len(frames) != 2 {
			t.Fatalf("リクエスト元への配信フレーム数: got %d, want 2", len(frames))
		}
		if frames[1].Name != event.FrameCollaborationRequestRejected {
			t.Errorf("2件目のフレーム名: got %s, want %s", frames[1].Name, event.FrameCollaborationRequestRejected)
		}
	})

	t.Run("却下されたリクエストは再送信できる", func(t *testing.T) {
		t.Parallel()
		store := newFakeMembershipStore("project-1", "owner-1")
		w, _, _ := setupWorkflow(t, store)

		stored, err := w.RequestCollaboration(context.Background(), "project-1", "user-2")
		if err != nil {
			t.Fatalf("RequestCollaborationに失敗: %v", err)
		}
		if err := w.RejectCollaborationRequest(context.Background(), stored.ID); err != nil {
			t.Fatalf("RejectCollaborationRequestに失敗: %v", err)
		}

		// 却下後の再送信は新しい保留として受理される
		if _, err := w.RequestCollaboration(context.Background(), "project-1", "user-2"); err != nil {
			t.Fatalf("再送信に失敗: %v", err)
		}

		m := store.snapshot("project-1")
		if !slices.Contains(m.PendingIDs, "user-2") {
			t.Errorf("保留集合: got %v, want user-2を含む", m.PendingIDs)
		}
	})

	t.Run("保留解除の失敗は永続化エラーとして伝播する", func(t *testing.T) {
		t.Parallel()
		store := newFakeMembershipStore("project-1", "owner-1")
		w, _, _ := setupWorkflow(t, store)

		stored, err := w.RequestCollaboration(context.Background(), "project-1", "user-2")
		if err != nil {
			t.Fatalf("RequestCollaborationに失敗: %v", err)
		}

		store.removePendingErr = errors.New("書き込み失敗")
		if err := w.RejectCollaborationRequest(context.Background(), stored.ID); !errors.Is(err, ErrPersistence) {
			t.Fatalf("エラー: got %v, want ErrPersistence", err)
		}
	})
}
