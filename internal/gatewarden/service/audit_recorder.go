package service

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gatewarden/server/internal/gatewarden/store"
)

// auditRetryWindow bounds how long a single audit append may be retried.
// Validation latency is guard-visible, so the recorder gives up quickly
// and logs the loss instead of stalling the gate.
const auditRetryWindow = 2 * time.Second

// AuditRecorder appends one immutable access log entry per validation
// attempt. Append failures are retried briefly and then logged; they never
// alter or delay the verdict already decided.
type AuditRecorder struct {
	logs   store.AccessLogStore
	logger zerolog.Logger
}

func NewAuditRecorder(logs store.AccessLogStore, logger zerolog.Logger) *AuditRecorder {
	return &AuditRecorder{logs: logs, logger: logger}
}

// Record appends rec, filling in the entry id and timestamp when missing.
// It tolerates partially resolved entries: a NotFound attempt has no
// credential or subject reference, and that is still a complete record.
func (r *AuditRecorder) Record(ctx context.Context, rec store.AccessLogRecord) {
	if rec.EntryID == "" {
		rec.EntryID = uuid.NewString()
	}
	if rec.NotedAt.IsZero() {
		rec.NotedAt = time.Now().UTC()
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, r.logs.Append(ctx, rec)
	},
		backoff.WithBackOff(bo),
		backoff.WithMaxElapsedTime(auditRetryWindow),
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("org_id", rec.OrgID).
			Str("guard_id", rec.GuardID).
			Str("verdict", rec.Verdict).
			Msg("audit append failed, entry lost")
	}
}
