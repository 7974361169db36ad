package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openRawDB(t *testing.T) *sql.DB {
	t.Helper()
	sqlDB, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return sqlDB
}

func versionOf(t *testing.T, sqlDB *sql.DB) int {
	t.Helper()
	var v int
	require.NoError(t, sqlDB.QueryRow(`SELECT version FROM schema_version`).Scan(&v))
	return v
}

func hasObject(t *testing.T, sqlDB *sql.DB, kind, name string) bool {
	t.Helper()
	var n int
	require.NoError(t, sqlDB.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = ? AND name = ?`, kind, name).Scan(&n))
	return n == 1
}

// withMigrations swaps All for the duration of the test.
func withMigrations(t *testing.T, migrations []string) {
	t.Helper()
	orig := All
	All = migrations
	t.Cleanup(func() { All = orig })
}

func TestMigrate_HistorySchema(t *testing.T) {
	sqlDB := openRawDB(t)
	require.NoError(t, Migrate(sqlDB))

	assert.Equal(t, len(All), versionOf(t, sqlDB))
	for _, table := range []string{"schema_version", "runs", "features", "scenarios", "steps"} {
		assert.True(t, hasObject(t, sqlDB, "table", table), table)
	}
	assert.True(t, hasObject(t, sqlDB, "index", "idx_features_run"))
}

func TestMigrate_StepsRequireScenario(t *testing.T) {
	sqlDB, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer sqlDB.Close()

	_, err = sqlDB.Exec(`INSERT INTO steps (scenario_id, keyword, text, line_number, status) VALUES (42, 'Given', 'a user', 3, 'passed')`)
	assert.Error(t, err, "foreign keys are enforced")
}

func TestMigrate_Versions(t *testing.T) {
	tests := []struct {
		name       string
		migrations []string
		runs       int
		wantErr    bool
		wantVer    int
		wantTables []string
	}{
		{
			name:    "no migrations",
			runs:    1,
			wantVer: 0,
		},
		{
			name:       "applies all pending",
			migrations: []string{`CREATE TABLE alpha (id INTEGER PRIMARY KEY)`, `CREATE TABLE beta (id INTEGER PRIMARY KEY)`},
			runs:       1,
			wantVer:    2,
			wantTables: []string{"alpha", "beta"},
		},
		{
			name:       "second run is a no-op",
			migrations: []string{`CREATE TABLE gamma (id INTEGER PRIMARY KEY)`},
			runs:       2,
			wantVer:    1,
			wantTables: []string{"gamma"},
		},
		{
			name:       "failure keeps earlier migrations",
			migrations: []string{`CREATE TABLE delta (id INTEGER PRIMARY KEY)`, `NOT SQL AT ALL`},
			runs:       1,
			wantErr:    true,
			wantVer:    1,
			wantTables: []string{"delta"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withMigrations(t, tt.migrations)
			sqlDB := openRawDB(t)

			var err error
			for i := 0; i < tt.runs; i++ {
				err = Migrate(sqlDB)
			}
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "migration 2 failed")
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, tt.wantVer, versionOf(t, sqlDB))
			for _, table := range tt.wantTables {
				assert.True(t, hasObject(t, sqlDB, "table", table), table)
			}
		})
	}
}
