package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewarden/server/internal/gatewarden/store"
	"github.com/gatewarden/server/internal/gatewarden/types"
)

func TestDeleteGuest_CascadesCredentials(t *testing.T) {
	creds := NewCredentialStore()
	subjects := NewSubjectStore(creds)
	ctx := context.Background()

	subjects.AddSubject(store.SubjectRecord{
		Kind: types.SubjectGuest, ID: "guest-001", OrgID: "org-a",
		OwnerMemberID: "member-001", DisplayName: "Bob Visitor", Active: true,
	})

	now := time.Now().UTC()
	require.NoError(t, creds.Insert(ctx, "org-a", types.Credential{
		ID: "cred-1", OrgID: "org-a",
		SubjectKind: types.SubjectGuest, SubjectID: "guest-001",
		SecretHash: "hash-1", ValidFrom: now, ValidUntil: now.Add(time.Hour),
		IsActive: true, CreatedAt: now,
	}))

	require.NoError(t, subjects.DeleteGuest(ctx, "org-a", "guest-001"))

	_, err := subjects.GetSubject(ctx, "org-a", types.SubjectGuest, "guest-001")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = creds.GetByID(ctx, "org-a", "cred-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteGuest_MemberNotDeletable(t *testing.T) {
	subjects := NewSubjectStore(NewCredentialStore())
	subjects.AddSubject(store.SubjectRecord{
		Kind: types.SubjectMember, ID: "member-001", OrgID: "org-a",
		DisplayName: "Alice Resident", Active: true,
	})

	err := subjects.DeleteGuest(context.Background(), "org-a", "member-001")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListSubjects_StableOrder(t *testing.T) {
	subjects := NewSubjectStore(NewCredentialStore())
	for _, id := range []string{"member-002", "guest-001", "member-001"} {
		kind := types.SubjectMember
		if id == "guest-001" {
			kind = types.SubjectGuest
		}
		subjects.AddSubject(store.SubjectRecord{Kind: kind, ID: id, OrgID: "org-a", Active: true})
	}

	list, err := subjects.ListSubjects(context.Background(), "org-a")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "guest-001", list[0].ID)
	assert.Equal(t, "member-001", list[1].ID)
	assert.Equal(t, "member-002", list[2].ID)
}
