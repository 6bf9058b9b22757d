package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SeedDev inserts a starter organization with one member, one guard and one
// guest so a fresh dev database can issue and validate credentials
// immediately. Safe to run repeatedly.
func SeedDev(ctx context.Context, db *sql.DB) error {
	now := time.Now().UTC().UnixMilli()

	if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO organizations(org_id, name, created_at_ms)
VALUES ('org_dev', 'Dev Community', ?);`, now); err != nil {
		return fmt.Errorf("seed organization: %w", err)
	}

	seedPrincipal := func(id, role, name, unit string) error {
		_, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO principals(
  principal_id, org_id, role, display_name, unit, is_active, created_at_ms
) VALUES (?, 'org_dev', ?, ?, ?, 1, ?);`, id, role, name, nullable(unit), now)
		if err != nil {
			return fmt.Errorf("seed principal %s: %w", id, err)
		}
		return nil
	}

	if err := seedPrincipal("member-001", "member", "Alice Resident", "Unit 12"); err != nil {
		return err
	}
	if err := seedPrincipal("guard-001", "guard", "Gate Guard", ""); err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO guests(
  guest_id, org_id, owner_member_id, display_name, phone, is_active, created_at_ms
) VALUES ('guest-001', 'org_dev', 'member-001', 'Bob Visitor', '555-0100', 1, ?);`, now); err != nil {
		return fmt.Errorf("seed guest: %w", err)
	}

	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
