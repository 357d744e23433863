package project

import (
	"context"

	"github.com/nao1215/taskhub/internal/notification"
	projectdb "github.com/nao1215/taskhub/internal/project/db"
)

// MembershipStore はプロジェクト所属の参照と原子的な変更を提供する。
// 参加リクエストワークフローのnotification.MembershipStoreを実装する。
type MembershipStore struct {
	// queries はプロジェクトテーブルへのクエリ実行オブジェクト。
	queries *projectdb.Queries
}

// NewMembershipStore は新しい所属ストアを生成する。
func NewMembershipStore(queries *projectdb.Queries) *MembershipStore {
	return &MembershipStore{queries: queries}
}

// Membership はプロジェクトの所属状態のスナップショットを返す。
// プロジェクトが存在しない場合はsql.ErrNoRowsを返す。
func (s *MembershipStore) Membership(ctx context.Context, projectID string) (notification.Membership, error) {
	p, err := s.queries.GetProjectByID(ctx, projectID)
	if err != nil {
		return notification.Membership{}, err
	}

	members, err := s.queries.ListProjectMembers(ctx, projectID)
	if err != nil {
		return notification.Membership{}, err
	}

	m := notification.Membership{OwnerID: p.OwnerID}
	for _, member := range members {
		if member.Pending != 0 {
			m.PendingIDs = append(m.PendingIDs, member.UserID)
		} else {
			m.CollaboratorIDs = append(m.CollaboratorIDs, member.UserID)
		}
	}
	return m, nil
}

// AddCollaborator はユーザーをコラボレーター集合に追加する。
// 保留中の場合は単一のUPSERTでコラボレーターへ昇格する。冪等。
func (s *MembershipStore) AddCollaborator(ctx context.Context, projectID, userID string) error {
	return s.queries.AddCollaborator(ctx, projectdb.AddCollaboratorParams{
		ProjectID: projectID,
		UserID:    userID,
	})
}

// AddPendingCollaborator はユーザーを保留集合に条件付きで追加する。
// 既にメンバー行が存在する場合はfalseを返す。
func (s *MembershipStore) AddPendingCollaborator(ctx context.Context, projectID, userID string) (bool, error) {
	return s.queries.AddPendingMember(ctx, projectdb.AddPendingMemberParams{
		ProjectID: projectID,
		UserID:    userID,
	})
}

// RemovePendingCollaborator はユーザーを保留集合から取り除く。冪等。
func (s *MembershipStore) RemovePendingCollaborator(ctx context.Context, projectID, userID string) error {
	return s.queries.RemovePendingMember(ctx, projectdb.RemovePendingMemberParams{
		ProjectID: projectID,
		UserID:    userID,
	})
}
