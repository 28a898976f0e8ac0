package store

import (
	"fmt"
	"math"
	"time"
)

// SaveEstimates stores the output table of a run, replacing any estimates
// saved for it before.
func (db *DB) SaveEstimates(runID string, estimates []Estimate) error {
	if _, err := db.GetRun(runID); err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM estimates WHERE run_id = ?", runID); err != nil {
		return fmt.Errorf("deleting existing estimates: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO estimates (run_id, seq, timestamp, met)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, e := range estimates {
		_, err := stmt.Exec(runID, i, e.Timestamp.Format(time.RFC3339), e.MET)
		if err != nil {
			return fmt.Errorf("inserting estimate %s: %w", e.Timestamp.Format(time.RFC3339), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// GetEstimates retrieves the output table of a run in time order.
func (db *DB) GetEstimates(runID string) ([]Estimate, error) {
	if _, err := db.GetRun(runID); err != nil {
		return nil, err
	}

	rows, err := db.Query(`
		SELECT timestamp, met
		FROM estimates
		WHERE run_id = ?
		ORDER BY seq
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var estimates []Estimate
	for rows.Next() {
		var e Estimate
		var ts string
		if err := rows.Scan(&ts, &e.MET); err != nil {
			return nil, err
		}
		e.Timestamp, err = time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing timestamp %q: %w", ts, err)
		}
		estimates = append(estimates, e)
	}

	return estimates, rows.Err()
}

// Float returns a pointer to v, or nil when v is NaN.
func Float(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
