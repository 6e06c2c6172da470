package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateIdempotent(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := Open(dbPath, nil)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(db, nil))

	var applied int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied))
	assert.Greater(t, applied, 0, "at least one migration should be recorded")

	// Second run is a no-op: no duplicate records, no errors
	require.NoError(t, Migrate(db, nil))

	var appliedAgain int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&appliedAgain))
	assert.Equal(t, applied, appliedAgain)
}

func TestMigrateEnforcesPromptDedupConstraint(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := OpenWithMigrations(dbPath, nil)
	require.NoError(t, err)
	defer db.Close()

	insert := `INSERT INTO prompts (
		prompt_id, organization_id, project_id, user_id, channel_id,
		thread_key, prompt_ts, prompt_text, created_at
	) VALUES (?, 'O1', 'P1', 'U1', 'C1', '100', ?, 'hi', CURRENT_TIMESTAMP)`

	_, err = db.Exec(insert, "p-1", "100.000001")
	require.NoError(t, err)

	// Same (channel_id, prompt_ts) must be rejected by the schema itself
	_, err = db.Exec(insert, "p-2", "100.000001")
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err), "expected unique violation, got: %v", err)

	// Different timestamp in the same channel is fine
	_, err = db.Exec(insert, "p-3", "100.000002")
	require.NoError(t, err)
}
