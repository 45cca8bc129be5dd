package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewDBAppliesAllMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "mathly.db")

	db, err := NewDB(path, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	version, err := SchemaVersion(path)
	require.NoError(t, err)
	assert.EqualValues(t, 3, version)

	_, err = db.SQL.Exec(`INSERT INTO solutions (id, equation_id, steps, final_answer, created_at, original_problem, type)
		VALUES ('s1', 'x=1', '[]', 'x=1', 1, 'x=1', 'WORD_PROBLEM')`)
	require.NoError(t, err)
}

func TestUpgradeFromVersionOneAddsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mathly.db")

	require.NoError(t, RunMigrations(path, 1, zap.NewNop()))
	version, err := SchemaVersion(path)
	require.NoError(t, err)
	require.EqualValues(t, 1, version)

	// A version 1 database only knows the initial solution columns.
	{
		db, err := NewDBWithoutMigrations(path)
		require.NoError(t, err)
		_, err = db.Exec(`INSERT INTO solutions (id, equation_id, steps, final_answer, created_at)
			VALUES ('legacy', '2x=4', '1:Divide by 2:2x/2=4/2:x=2', 'x=2', 10)`)
		require.NoError(t, err)
		require.NoError(t, db.Close())
	}

	db, err := NewDB(path, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	var originalProblem, typ string
	err = db.SQL.QueryRow(`SELECT original_problem, type FROM solutions WHERE id = 'legacy'`).Scan(&originalProblem, &typ)
	require.NoError(t, err)
	assert.Equal(t, "", originalProblem)
	assert.Equal(t, "EQUATION", typ)
}
