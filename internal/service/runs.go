package service

import (
	"fmt"

	"metcompare/internal/analysis"
	"metcompare/internal/store"
)

// RunService persists results and compares stored runs.
type RunService struct {
	db *store.DB
}

// NewRunService creates a run service on db.
func NewRunService(db *store.DB) *RunService {
	return &RunService{db: db}
}

// Save records res as a new run.
func (s *RunService) Save(res *Result, label string) (*store.Run, error) {
	run, err := s.db.CreateRun(res.Source, res.Policy, label)
	if err != nil {
		return nil, fmt.Errorf("creating run: %w", err)
	}
	if err := s.db.SaveEstimates(run.ID, res.Estimates); err != nil {
		return nil, fmt.Errorf("saving estimates: %w", err)
	}
	run.Count = len(res.Estimates)
	return run, nil
}

// Compare measures the agreement of a wrist run against a reference run.
func (s *RunService) Compare(wristID, referenceID string) (analysis.Agreement, error) {
	wrist, err := s.db.GetEstimates(wristID)
	if err != nil {
		return analysis.Agreement{}, fmt.Errorf("loading run %s: %w", wristID, err)
	}
	reference, err := s.db.GetEstimates(referenceID)
	if err != nil {
		return analysis.Agreement{}, fmt.Errorf("loading run %s: %w", referenceID, err)
	}
	return analysis.CompareEstimates(wrist, reference), nil
}

// List returns all stored runs, newest first.
func (s *RunService) List() ([]store.Run, error) {
	return s.db.ListRuns()
}

// Estimates returns the stored output table of a run.
func (s *RunService) Estimates(runID string) ([]store.Estimate, error) {
	return s.db.GetEstimates(runID)
}

// Delete removes a run.
func (s *RunService) Delete(runID string) error {
	return s.db.DeleteRun(runID)
}
