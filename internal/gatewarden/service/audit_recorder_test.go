package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewarden/server/internal/gatewarden/service"
	"github.com/gatewarden/server/internal/gatewarden/store"
	"github.com/gatewarden/server/internal/gatewarden/store/memory"
)

func TestRecord_FillsEntryIDAndTimestamp(t *testing.T) {
	logs := memory.NewAccessLogStore()
	r := service.NewAuditRecorder(logs, zerolog.Nop())

	r.Record(context.Background(), store.AccessLogRecord{
		OrgID:   "org-a",
		GuardID: "guard-001",
		Method:  "qr_scan",
		Verdict: "granted",
	})

	entries := logs.Entries()
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].EntryID)
	assert.False(t, entries[0].NotedAt.IsZero())
}

func TestRecord_PartiallyResolvedEntryAccepted(t *testing.T) {
	logs := memory.NewAccessLogStore()
	r := service.NewAuditRecorder(logs, zerolog.Nop())

	// No credential or subject reference at all — still a full record.
	r.Record(context.Background(), store.AccessLogRecord{
		OrgID:   "org-a",
		GuardID: "guard-001",
		Method:  "manual_code",
		Verdict: "not_found",
	})

	require.Len(t, logs.Entries(), 1)
}

// flakyAccessLogStore fails a fixed number of appends before succeeding.
type flakyAccessLogStore struct {
	*memory.AccessLogStore
	failures int
}

func (s *flakyAccessLogStore) Append(ctx context.Context, rec store.AccessLogRecord) error {
	if s.failures > 0 {
		s.failures--
		return errors.New("database is locked")
	}
	return s.AccessLogStore.Append(ctx, rec)
}

func TestRecord_RetriesTransientFailures(t *testing.T) {
	logs := &flakyAccessLogStore{AccessLogStore: memory.NewAccessLogStore(), failures: 2}
	r := service.NewAuditRecorder(logs, zerolog.Nop())

	r.Record(context.Background(), store.AccessLogRecord{
		OrgID:   "org-a",
		GuardID: "guard-001",
		Method:  "qr_scan",
		Verdict: "granted",
	})

	assert.Len(t, logs.Entries(), 1)
}

func TestRecord_GivesUpOnCancelledContext(t *testing.T) {
	logs := &flakyAccessLogStore{AccessLogStore: memory.NewAccessLogStore(), failures: 1 << 30}
	r := service.NewAuditRecorder(logs, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	r.Record(ctx, store.AccessLogRecord{
		OrgID:   "org-a",
		GuardID: "guard-001",
		Method:  "qr_scan",
		Verdict: "granted",
	})

	// Must return promptly rather than burning the full retry window.
	assert.Less(t, time.Since(start), time.Second)
	assert.Empty(t, logs.Entries())
}
