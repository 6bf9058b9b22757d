package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	dbpkg "github.com/gatewarden/server/internal/db"
	"github.com/gatewarden/server/internal/gatewarden/store"
	"github.com/gatewarden/server/internal/gatewarden/types"
)

type CredentialStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewCredentialStore(db *sql.DB, writer *dbpkg.Worker) *CredentialStore {
	return &CredentialStore{db: db, writer: writer}
}

const credentialColumns = `
credential_id, org_id, subject_kind, subject_id, secret_hash,
purpose, valid_from_ms, valid_until_ms, is_active, created_at_ms`

func (s *CredentialStore) Insert(ctx context.Context, orgID string, c types.Credential) error {
	var purpose any
	if p := strings.TrimSpace(c.Purpose); p != "" {
		purpose = p
	}

	active := 0
	if c.IsActive {
		active = 1
	}

	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
INSERT INTO credentials(
  credential_id, org_id, subject_kind, subject_id, secret_hash,
  purpose, valid_from_ms, valid_until_ms, is_active, created_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`,
			c.ID, orgID, string(c.SubjectKind), c.SubjectID, c.SecretHash,
			purpose, c.ValidFrom.UTC().UnixMilli(), c.ValidUntil.UTC().UnixMilli(),
			active, c.CreatedAt.UTC().UnixMilli(),
		)
		return err
	})
	if err != nil {
		// The org-scoped unique index on secret_hash is the collision
		// detector; the issuer retries with a fresh hash.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrDuplicateHash
		}
		return fmt.Errorf("Insert credential: %w", err)
	}
	return nil
}

func (s *CredentialStore) GetByID(ctx context.Context, orgID, credentialID string) (types.Credential, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT `+credentialColumns+`
FROM credentials
WHERE org_id = ? AND credential_id = ?;
`, orgID, credentialID)
	return scanCredential(row)
}

func (s *CredentialStore) GetBySecretHash(ctx context.Context, orgID, secretHash string) (types.Credential, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT `+credentialColumns+`
FROM credentials
WHERE org_id = ? AND secret_hash = ?;
`, orgID, secretHash)
	return scanCredential(row)
}

func (s *CredentialStore) ListBySubject(ctx context.Context, orgID string, kind types.SubjectKind, subjectID string) ([]types.Credential, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT `+credentialColumns+`
FROM credentials
WHERE org_id = ? AND subject_kind = ? AND subject_id = ?
ORDER BY created_at_ms DESC;
`, orgID, string(kind), subjectID)
	if err != nil {
		return nil, fmt.Errorf("ListBySubject query: %w", err)
	}
	defer rows.Close()

	var out []types.Credential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListBySubject rows: %w", err)
	}
	return out, nil
}

func (s *CredentialStore) SetActive(ctx context.Context, orgID, credentialID string, active bool) error {
	v := 0
	if active {
		v = 1
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE credentials SET is_active = ?
WHERE org_id = ? AND credential_id = ?;
`, v, orgID, credentialID)
		if err != nil {
			return fmt.Errorf("SetActive update: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("SetActive rows affected: %w", err)
		}
		if n == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredential(row rowScanner) (types.Credential, error) {
	var (
		c           types.Credential
		kind        string
		purpose     sql.NullString
		validFromMs int64
		validToMs   int64
		active      int
		createdMs   int64
	)

	err := row.Scan(
		&c.ID, &c.OrgID, &kind, &c.SubjectID, &c.SecretHash,
		&purpose, &validFromMs, &validToMs, &active, &createdMs,
	)
	if err == sql.ErrNoRows {
		return types.Credential{}, store.ErrNotFound
	}
	if err != nil {
		return types.Credential{}, fmt.Errorf("scan credential: %w", err)
	}

	c.SubjectKind = types.SubjectKind(kind)
	c.Purpose = purpose.String
	c.ValidFrom = time.UnixMilli(validFromMs).UTC()
	c.ValidUntil = time.UnixMilli(validToMs).UTC()
	c.IsActive = active == 1
	c.CreatedAt = time.UnixMilli(createdMs).UTC()
	return c, nil
}
