package event

import "testing"

// TestNewFrame はフレーム生成とペイロードのシリアライズを検証する。
func TestNewFrame(t *testing.T) {
	t.Parallel()

	t.Run("プロジェクトIDペイロードを持つフレームを生成できる", func(t *testing.T) {
		t.Parallel()

		frame, err := NewFrame(FrameCollaborationRequestAccepted, ProjectPayload{ProjectID: "project-1"})
		if err != nil {
			t.Fatalf("フレーム生成に失敗: %v", err)
		}
		if frame.Name != FrameCollaborationRequestAccepted {
			t.Errorf("Name: got %q, want %q", frame.Name, FrameCollaborationRequestAccepted)
		}

		payload, err := DecodePayload[ProjectPayload](frame)
		if err != nil {
			t.Fatalf("ペイロードのデコードに失敗: %v", err)
		}
		if payload.ProjectID != "project-1" {
			t.Errorf("ProjectID: got %q, want %q", payload.ProjectID, "project-1")
		}
	})

	t.Run("通知ペイロードを往復できる", func(t *testing.T) {
		t.Parallel()

		original := NotificationPayload{
			ID:           "notif-1",
			UserID:       "user-1",
			Message:      "あなたのタスクにコメントが追加されました。",
			Type:         TypeCommentAdded,
			ProjectID:    "project-1",
			SenderUserID: "user-2",
			CreatedAt:    "2026-01-02T03:04:05Z",
		}
		frame, err := NewFrame(FrameReceiveNotification, original)
		if err != nil {
			t.Fatalf("フレーム生成に失敗: %v", err)
		}

		got, err := DecodePayload[NotificationPayload](frame)
		if err != nil {
			t.Fatalf("ペイロードのデコードに失敗: %v", err)
		}
		if *got != original {
			t.Errorf("往復結果が一致しない: got %+v, want %+v", *got, original)
		}
	})

	t.Run("シリアライズできないペイロードはエラーを返す", func(t *testing.T) {
		t.Parallel()

		if _, err := NewFrame(FrameReceiveNotification, make(chan int)); err == nil {
			t.Error("エラーを期待したが成功した")
		}
	})
}
