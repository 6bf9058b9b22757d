package store

import (
	"context"
	"time"
)

// AccessLogRecord captures one validation attempt for the audit log.
// Credential and subject fields are empty when resolution failed; the
// attempt is recorded regardless.
type AccessLogRecord struct {
	EntryID      string
	OrgID        string
	CredentialID string
	SubjectKind  string
	SubjectID    string
	GuardID      string
	GuardName    string
	Method       string
	Verdict      string
	NotedAt      time.Time
}

// AccessLogStore is append-only. Implementations never update or delete
// existing entries.
type AccessLogStore interface {
	Append(ctx context.Context, rec AccessLogRecord) error

	// ListByOrg returns up to limit entries, newest first. Ordering is for
	// display only.
	ListByOrg(ctx context.Context, orgID string, limit int) ([]AccessLogRecord, error)
}
