package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateRun records a new run and returns it with a fresh ID.
func (db *DB) CreateRun(source, policy, label string) (*Run, error) {
	r := &Run{
		ID:        uuid.NewString(),
		Source:    source,
		Policy:    policy,
		Label:     label,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}

	_, err := db.Exec(`
		INSERT INTO runs (id, source, policy, label, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, r.ID, r.Source, r.Policy, r.Label, r.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("inserting run: %w", err)
	}
	return r, nil
}

// GetRun retrieves a run by ID
func (db *DB) GetRun(id string) (*Run, error) {
	row := db.QueryRow(`
		SELECT r.id, r.source, r.policy, r.label, r.created_at,
			(SELECT COUNT(*) FROM estimates e WHERE e.run_id = r.id)
		FROM runs r
		WHERE r.id = ?
	`, id)

	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	return r, err
}

// ListRuns returns all runs, newest first.
func (db *DB) ListRuns() ([]Run, error) {
	rows, err := db.Query(`
		SELECT r.id, r.source, r.policy, r.label, r.created_at,
			(SELECT COUNT(*) FROM estimates e WHERE e.run_id = r.id)
		FROM runs r
		ORDER BY r.created_at DESC, r.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run and its estimates.
func (db *DB) DeleteRun(id string) error {
	res, err := db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRunNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var r Run
	var createdAt string
	if err := s.Scan(&r.ID, &r.Source, &r.Policy, &r.Label, &createdAt, &r.Count); err != nil {
		return nil, err
	}

	var err error
	r.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
	}
	return &r, nil
}
