package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chriserin/ftrun/internal/parser"
	"github.com/chriserin/ftrun/internal/runner"
)

func runFeature(t *testing.T, content string, backend runner.Backend) *runner.Result {
	t.Helper()
	f, err := parser.Parse("fts/login.feature", []byte(content))
	require.NoError(t, err)
	return runner.New(backend, runner.NewRegistry(), runner.Options{}).Run(context.Background(), []*parser.Feature{f})
}

func TestOpen_EnablesWALAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ftrun.db")
	sqlDB, err := Open(path)
	require.NoError(t, err)
	defer sqlDB.Close()

	var mode string
	require.NoError(t, sqlDB.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var version int
	require.NoError(t, sqlDB.QueryRow(`SELECT version FROM schema_version`).Scan(&version))
	assert.Equal(t, len(All), version)
}

func TestSaveRun_RecordsUnits(t *testing.T) {
	sqlDB, err := Open(filepath.Join(t.TempDir(), "ftrun.db"))
	require.NoError(t, err)
	defer sqlDB.Close()

	backend := runner.BackendFunc(func(ctx context.Context, text string, arg runner.Argument) error {
		if text == "a wrong password" {
			return runner.Failf("login succeeded")
		}
		return nil
	})
	res := runFeature(t, `Feature: Login
  Background:
    Given a user
  Scenario: Good password
    When a good password
  Scenario: Bad password
    When a wrong password
    Then an error
`, backend)

	started := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	runID, err := SaveRun(sqlDB, res, started, true)
	require.NoError(t, err)
	assert.Positive(t, runID)

	var featureStatus, path string
	require.NoError(t, sqlDB.QueryRow(`SELECT status, file_path FROM features WHERE run_id = ?`, runID).Scan(&featureStatus, &path))
	assert.Equal(t, "failed", featureStatus)
	assert.Equal(t, "fts/login.feature", path)

	var steps, background, skipped int
	require.NoError(t, sqlDB.QueryRow(`SELECT COUNT(*), SUM(background), SUM(status = 'skipped') FROM steps`).Scan(&steps, &background, &skipped))
	assert.Equal(t, 5, steps)
	assert.Equal(t, 2, background)
	assert.Equal(t, 1, skipped)

	var reason string
	require.NoError(t, sqlDB.QueryRow(`SELECT reason FROM scenarios WHERE name = 'Bad password'`).Scan(&reason))
	assert.Equal(t, "login succeeded", reason)

	runs, err := RecentRuns(sqlDB, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].ID)
	assert.Equal(t, "2026-10-14T09:30:00Z", runs[0].StartedAt)
	assert.Equal(t, "failed", runs[0].Status)
	assert.True(t, runs[0].FailFast)
	assert.Equal(t, 2, runs[0].Scenarios)
	assert.Equal(t, 1, runs[0].Failed)
}

func TestRecentRuns_NewestFirstWithLimit(t *testing.T) {
	sqlDB, err := Open(filepath.Join(t.TempDir(), "ftrun.db"))
	require.NoError(t, err)
	defer sqlDB.Close()

	res := runFeature(t, "Feature: F\n  Scenario: S\n    Given a\n", runner.BackendFunc(func(context.Context, string, runner.Argument) error { return nil }))
	for i := 0; i < 3; i++ {
		_, err := SaveRun(sqlDB, res, time.Now(), false)
		require.NoError(t, err)
	}

	runs, err := RecentRuns(sqlDB, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, int64(3), runs[0].ID)
	assert.Equal(t, int64(2), runs[1].ID)
	assert.Equal(t, "passed", runs[0].Status)
}
