package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/gatewarden/server/internal/db"
	"github.com/gatewarden/server/internal/gatewarden/store"
)

// AccessLogStore persists validation attempts as an append-only audit log.
type AccessLogStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewAccessLogStore(db *sql.DB, writer *dbpkg.Worker) *AccessLogStore {
	return &AccessLogStore{db: db, writer: writer}
}

func (s *AccessLogStore) Append(ctx context.Context, rec store.AccessLogRecord) error {
	if rec.NotedAt.IsZero() {
		rec.NotedAt = time.Now().UTC()
	}

	var credID, subjectKind, subjectID, guardName any
	if rec.CredentialID != "" {
		credID = rec.CredentialID
	}
	if rec.SubjectKind != "" {
		subjectKind = rec.SubjectKind
	}
	if rec.SubjectID != "" {
		subjectID = rec.SubjectID
	}
	if rec.GuardName != "" {
		guardName = rec.GuardName
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO access_logs(
  entry_id, org_id, credential_id, subject_kind, subject_id,
  guard_id, guard_name, method, verdict, noted_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`,
			rec.EntryID, rec.OrgID, credID, subjectKind, subjectID,
			rec.GuardID, guardName, rec.Method, rec.Verdict,
			rec.NotedAt.UTC().UnixMilli(),
		); err != nil {
			return fmt.Errorf("Append insert: %w", err)
		}
		return nil
	})
}

func (s *AccessLogStore) ListByOrg(ctx context.Context, orgID string, limit int) ([]store.AccessLogRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT entry_id, org_id, credential_id, subject_kind, subject_id,
       guard_id, guard_name, method, verdict, noted_at_ms
FROM access_logs
WHERE org_id = ?
ORDER BY noted_at_ms DESC
LIMIT ?;
`, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("ListByOrg query: %w", err)
	}
	defer rows.Close()

	var out []store.AccessLogRecord
	for rows.Next() {
		var (
			rec         store.AccessLogRecord
			credID      sql.NullString
			subjectKind sql.NullString
			subjectID   sql.NullString
			guardName   sql.NullString
			notedMs     int64
		)
		if err := rows.Scan(&rec.EntryID, &rec.OrgID, &credID, &subjectKind, &subjectID,
			&rec.GuardID, &guardName, &rec.Method, &rec.Verdict, &notedMs); err != nil {
			return nil, fmt.Errorf("ListByOrg scan: %w", err)
		}
		rec.CredentialID = credID.String
		rec.SubjectKind = subjectKind.String
		rec.SubjectID = subjectID.String
		rec.GuardName = guardName.String
		rec.NotedAt = time.UnixMilli(notedMs).UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByOrg rows: %w", err)
	}
	return out, nil
}
