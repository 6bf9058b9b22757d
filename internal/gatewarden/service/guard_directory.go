package service

import (
	"context"
	"strings"

	"github.com/gatewarden/server/internal/gatewarden/store"
)

// GuardDirectory resolves guard display names for audit enrichment.
type GuardDirectory struct {
	subjects store.SubjectStore
}

func NewGuardDirectory(subjects store.SubjectStore) *GuardDirectory {
	return &GuardDirectory{subjects: subjects}
}

// DisplayName returns the guard's display name, or "" when the guard
// cannot be resolved. Enrichment is best-effort; callers must not fail on
// an empty result.
func (d *GuardDirectory) DisplayName(ctx context.Context, orgID, guardID string) string {
	guardID = strings.TrimSpace(guardID)
	if guardID == "" {
		return ""
	}
	rec, err := d.subjects.GetGuard(ctx, orgID, guardID)
	if err != nil {
		return ""
	}
	return rec.DisplayName
}
