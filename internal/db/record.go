package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/chriserin/ftrun/internal/runner"
)

// RunSummary is one row of run history.
type RunSummary struct {
	ID        int64
	StartedAt string
	Status    string
	FailFast  bool
	Duration  time.Duration
	Scenarios int
	Failed    int // failed or errored scenarios
}

// SaveRun records res and all of its units in one transaction and returns
// the new run id.
func SaveRun(sqlDB *sql.DB, res *runner.Result, startedAt time.Time, failFast bool) (int64, error) {
	tx, err := sqlDB.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning run insert: %w", err)
	}
	defer tx.Rollback()

	status := res.Status.String()
	if !res.Passed() && res.Status != runner.StatusError {
		status = runner.StatusFailed.String()
	}

	r, err := tx.Exec(`INSERT INTO runs (started_at, status, fail_fast, duration_ms) VALUES (?, ?, ?, ?)`,
		startedAt.UTC().Format(time.RFC3339), status, failFast, res.Duration.Milliseconds())
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := r.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	for _, fr := range res.Features {
		r, err := tx.Exec(`INSERT INTO features (run_id, file_path, name, status, reason) VALUES (?, ?, ?, ?, ?)`,
			runID, fr.Feature.Path, fr.Feature.Name, fr.Status.String(), fr.Reason)
		if err != nil {
			return 0, fmt.Errorf("inserting feature %s: %w", fr.Feature.Path, err)
		}
		featureID, err := r.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("reading feature id: %w", err)
		}

		for _, sr := range fr.Scenarios {
			if err := saveScenario(tx, featureID, sr); err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

func saveScenario(tx *sql.Tx, featureID int64, sr *runner.ScenarioResult) error {
	r, err := tx.Exec(`INSERT INTO scenarios (feature_id, name, line_number, example_index, status, reason, duration_ms) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		featureID, sr.Scenario.Name, sr.Scenario.Line, sr.Index, sr.Status.String(), sr.Reason, sr.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("inserting scenario %q: %w", sr.Scenario.Name, err)
	}
	scenarioID, err := r.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading scenario id: %w", err)
	}

	for _, st := range sr.Steps {
		_, err := tx.Exec(`INSERT INTO steps (scenario_id, keyword, text, line_number, background, status, reason) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			scenarioID, st.Step.Keyword, st.Step.Text, st.Step.Line, st.Background, st.Status.String(), st.Reason)
		if err != nil {
			return fmt.Errorf("inserting step %q: %w", st.Step.Text, err)
		}
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func RecentRuns(sqlDB *sql.DB, limit int) ([]RunSummary, error) {
	rows, err := sqlDB.Query(`
		SELECT r.id, r.started_at, r.status, r.fail_fast, r.duration_ms,
			(SELECT COUNT(*) FROM scenarios s JOIN features f ON s.feature_id = f.id WHERE f.run_id = r.id),
			(SELECT COUNT(*) FROM scenarios s JOIN features f ON s.feature_id = f.id
				WHERE f.run_id = r.id AND s.status IN ('failed', 'error'))
		FROM runs r
		ORDER BY r.id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var s RunSummary
		var ms int64
		if err := rows.Scan(&s.ID, &s.StartedAt, &s.Status, &s.FailFast, &ms, &s.Scenarios, &s.Failed); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		s.Duration = time.Duration(ms) * time.Millisecond
		runs = append(runs, s)
	}
	return runs, rows.Err()
}
