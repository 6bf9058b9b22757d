package store

import (
	"context"
	"time"

	"github.com/gatewarden/server/internal/gatewarden/types"
)

// SubjectRecord is a member or guest as the validator sees it: enough to
// check activity and build a display summary, nothing more.
type SubjectRecord struct {
	Kind          types.SubjectKind
	ID            string
	OrgID         string
	OwnerMemberID string // guests only
	DisplayName   string
	Unit          string // members only
	Phone         string
	Active        bool
	CreatedAt     time.Time
}

type GuardRecord struct {
	ID          string
	OrgID       string
	DisplayName string
	Active      bool
}

type SubjectStore interface {
	GetSubject(ctx context.Context, orgID string, kind types.SubjectKind, subjectID string) (SubjectRecord, error)

	// ListSubjects enumerates all members and guests of an organization in
	// stable id order. Used for manual-code resolution.
	ListSubjects(ctx context.Context, orgID string) ([]SubjectRecord, error)

	GetGuard(ctx context.Context, orgID, guardID string) (GuardRecord, error)
}

// GuestStore covers the guest lifecycle. DeleteGuest removes the guest's
// credentials in the same transaction; existing access log entries that
// reference the guest are retained.
type GuestStore interface {
	CreateGuest(ctx context.Context, orgID string, g types.Guest) error
	DeleteGuest(ctx context.Context, orgID, guestID string) error
}
