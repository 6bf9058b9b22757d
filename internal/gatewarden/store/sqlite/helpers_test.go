package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	dbpkg "github.com/gatewarden/server/internal/db"
)

// openTestDB opens a private in-memory database with the schema applied and
// a writer goroutine running. Both are torn down with the test.
func openTestDB(t *testing.T) (*sql.DB, *dbpkg.Worker) {
	t.Helper()

	conn, err := sql.Open("sqlite", "file::memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)

	require.NoError(t, dbpkg.Migrate(context.Background(), conn))

	writer := dbpkg.NewWorker(conn)
	t.Cleanup(func() {
		writer.Close()
		_ = conn.Close()
	})
	return conn, writer
}

func seedOrg(t *testing.T, conn *sql.DB, orgID string) {
	t.Helper()
	_, err := conn.Exec(
		`INSERT INTO organizations(org_id, name, created_at_ms) VALUES (?, ?, ?);`,
		orgID, "Test Community", time.Now().UnixMilli(),
	)
	require.NoError(t, err)
}

func seedPrincipal(t *testing.T, conn *sql.DB, orgID, id, role, name, unit string, active bool) {
	t.Helper()

	var unitVal any
	if unit != "" {
		unitVal = unit
	}
	activeVal := 0
	if active {
		activeVal = 1
	}

	_, err := conn.Exec(`
INSERT INTO principals(principal_id, org_id, role, display_name, unit, is_active, created_at_ms)
VALUES (?, ?, ?, ?, ?, ?, ?);
`, id, orgID, role, name, unitVal, activeVal, time.Now().UnixMilli())
	require.NoError(t, err)
}

func seedGuestRow(t *testing.T, conn *sql.DB, orgID, id, ownerID, name string, active bool) {
	t.Helper()

	activeVal := 0
	if active {
		activeVal = 1
	}

	_, err := conn.Exec(`
INSERT INTO guests(guest_id, org_id, owner_member_id, display_name, is_active, created_at_ms)
VALUES (?, ?, ?, ?, ?, ?);
`, id, orgID, ownerID, name, activeVal, time.Now().UnixMilli())
	require.NoError(t, err)
}
