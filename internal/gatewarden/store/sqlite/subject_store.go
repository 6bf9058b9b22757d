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

// SubjectStore reads members, guards and guests, and owns the guest
// lifecycle. It implements store.SubjectStore and store.GuestStore.
type SubjectStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewSubjectStore(db *sql.DB, writer *dbpkg.Worker) *SubjectStore {
	return &SubjectStore{db: db, writer: writer}
}

func (s *SubjectStore) GetSubject(ctx context.Context, orgID string, kind types.SubjectKind, subjectID string) (store.SubjectRecord, error) {
	switch kind {
	case types.SubjectMember:
		return s.getMember(ctx, orgID, subjectID)
	case types.SubjectGuest:
		return s.getGuest(ctx, orgID, subjectID)
	default:
		return store.SubjectRecord{}, store.ErrNotFound
	}
}

func (s *SubjectStore) getMember(ctx context.Context, orgID, memberID string) (store.SubjectRecord, error) {
	var (
		rec       store.SubjectRecord
		unit      sql.NullString
		phone     sql.NullString
		active    int
		createdMs int64
	)

	err := s.db.QueryRowContext(ctx, `
SELECT principal_id, display_name, unit, phone, is_active, created_at_ms
FROM principals
WHERE org_id = ? AND principal_id = ? AND role = 'member';
`, orgID, memberID).Scan(&rec.ID, &rec.DisplayName, &unit, &phone, &active, &createdMs)
	if err == sql.ErrNoRows {
		return store.SubjectRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.SubjectRecord{}, fmt.Errorf("getMember query: %w", err)
	}

	rec.Kind = types.SubjectMember
	rec.OrgID = orgID
	rec.Unit = unit.String
	rec.Phone = phone.String
	rec.Active = active == 1
	rec.CreatedAt = time.UnixMilli(createdMs).UTC()
	return rec, nil
}

func (s *SubjectStore) getGuest(ctx context.Context, orgID, guestID string) (store.SubjectRecord, error) {
	var (
		rec       store.SubjectRecord
		phone     sql.NullString
		active    int
		createdMs int64
	)

	err := s.db.QueryRowContext(ctx, `
SELECT guest_id, owner_member_id, display_name, phone, is_active, created_at_ms
FROM guests
WHERE org_id = ? AND guest_id = ?;
`, orgID, guestID).Scan(&rec.ID, &rec.OwnerMemberID, &rec.DisplayName, &phone, &active, &createdMs)
	if err == sql.ErrNoRows {
		return store.SubjectRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.SubjectRecord{}, fmt.Errorf("getGuest query: %w", err)
	}

	rec.Kind = types.SubjectGuest
	rec.OrgID = orgID
	rec.Phone = phone.String
	rec.Active = active == 1
	rec.CreatedAt = time.UnixMilli(createdMs).UTC()
	return rec, nil
}

func (s *SubjectStore) ListSubjects(ctx context.Context, orgID string) ([]store.SubjectRecord, error) {
	// Members and guests in one pass, stable id order so manual-code
	// collisions resolve deterministically.
	rows, err := s.db.QueryContext(ctx, `
SELECT 'member' AS kind, principal_id AS id, '' AS owner_member_id,
       display_name, COALESCE(unit, ''), COALESCE(phone, ''), is_active, created_at_ms
FROM principals
WHERE org_id = ? AND role = 'member'
UNION ALL
SELECT 'guest', guest_id, owner_member_id,
       display_name, '', COALESCE(phone, ''), is_active, created_at_ms
FROM guests
WHERE org_id = ?
ORDER BY id;
`, orgID, orgID)
	if err != nil {
		return nil, fmt.Errorf("ListSubjects query: %w", err)
	}
	defer rows.Close()

	var out []store.SubjectRecord
	for rows.Next() {
		var (
			rec       store.SubjectRecord
			kind      string
			active    int
			createdMs int64
		)
		if err := rows.Scan(&kind, &rec.ID, &rec.OwnerMemberID,
			&rec.DisplayName, &rec.Unit, &rec.Phone, &active, &createdMs); err != nil {
			return nil, fmt.Errorf("ListSubjects scan: %w", err)
		}
		rec.Kind = types.SubjectKind(kind)
		rec.OrgID = orgID
		rec.Active = active == 1
		rec.CreatedAt = time.UnixMilli(createdMs).UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListSubjects rows: %w", err)
	}
	return out, nil
}

func (s *SubjectStore) GetGuard(ctx context.Context, orgID, guardID string) (store.GuardRecord, error) {
	var (
		rec    store.GuardRecord
		active int
	)

	err := s.db.QueryRowContext(ctx, `
SELECT principal_id, display_name, is_active
FROM principals
WHERE org_id = ? AND principal_id = ? AND role = 'guard';
`, orgID, guardID).Scan(&rec.ID, &rec.DisplayName, &active)
	if err == sql.ErrNoRows {
		return store.GuardRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.GuardRecord{}, fmt.Errorf("GetGuard query: %w", err)
	}

	rec.OrgID = orgID
	rec.Active = active == 1
	return rec, nil
}

func (s *SubjectStore) CreateGuest(ctx context.Context, orgID string, g types.Guest) error {
	var phone, email any
	if p := strings.TrimSpace(g.Phone); p != "" {
		phone = p
	}
	if e := strings.TrimSpace(g.Email); e != "" {
		email = e
	}

	active := 0
	if g.IsActive {
		active = 1
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO guests(
  guest_id, org_id, owner_member_id, display_name, phone, email, is_active, created_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?);
`, g.ID, orgID, g.OwnerMemberID, g.DisplayName, phone, email, active,
			g.CreatedAt.UTC().UnixMilli()); err != nil {
			return fmt.Errorf("CreateGuest insert: %w", err)
		}
		return nil
	})
}

// DeleteGuest removes the guest and its credentials in one transaction.
// Access log entries referencing the guest are left untouched.
func (s *SubjectStore) DeleteGuest(ctx context.Context, orgID, guestID string) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
DELETE FROM credentials
WHERE org_id = ? AND subject_kind = 'guest' AND subject_id = ?;
`, orgID, guestID); err != nil {
			return fmt.Errorf("DeleteGuest credentials: %w", err)
		}

		res, err := tx.ExecContext(ctx, `
DELETE FROM guests WHERE org_id = ? AND guest_id = ?;
`, orgID, guestID)
		if err != nil {
			return fmt.Errorf("DeleteGuest guest: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("DeleteGuest rows affected: %w", err)
		}
		if n == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}
