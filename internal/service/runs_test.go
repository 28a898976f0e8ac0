package service

import (
	"errors"
	"math"
	"testing"
	"time"

	"metcompare/internal/store"
)

func floatPtr(v float64) *float64 {
	return &v
}

func openTestDB(t *testing.T) *store.DB {
	t.Helper()

	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func TestRunServiceSaveAndCompare(t *testing.T) {
	svc := NewRunService(openTestDB(t))
	start := time.Date(2021, 6, 1, 9, 31, 0, 0, time.UTC)

	wrist := &Result{
		Source: store.SourceWrist,
		Policy: "clamp",
		Estimates: []store.Estimate{
			{Timestamp: start, MET: floatPtr(1.5)},
			{Timestamp: start.Add(time.Minute), MET: floatPtr(2.5)},
			{Timestamp: start.Add(2 * time.Minute), MET: nil},
		},
	}
	reference := &Result{
		Source: store.SourceActigraph,
		Estimates: []store.Estimate{
			{Timestamp: start, MET: floatPtr(1.0)},
			{Timestamp: start.Add(time.Minute), MET: floatPtr(3.0)},
			{Timestamp: start.Add(2 * time.Minute), MET: floatPtr(1.0)},
		},
	}

	wristRun, err := svc.Save(wrist, "subject 7 wrist")
	if err != nil {
		t.Fatalf("Save(wrist) error = %v", err)
	}
	refRun, err := svc.Save(reference, "subject 7 hip")
	if err != nil {
		t.Fatalf("Save(reference) error = %v", err)
	}
	if wristRun.Count != 3 || wristRun.Policy != "clamp" {
		t.Errorf("wrist run = %+v, want 3 estimates with clamp policy", wristRun)
	}

	agreement, err := svc.Compare(wristRun.ID, refRun.ID)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if agreement.Pairs != 2 {
		t.Errorf("Pairs = %d, want 2", agreement.Pairs)
	}
	if math.Abs(agreement.Bias-0) > 1e-12 || math.Abs(agreement.MAE-0.5) > 1e-12 {
		t.Errorf("Bias = %v, MAE = %v, want 0 and 0.5", agreement.Bias, agreement.MAE)
	}

	runs, err := svc.List()
	if err != nil || len(runs) != 2 {
		t.Fatalf("List() = %d runs, %v; want 2", len(runs), err)
	}

	if err := svc.Delete(refRun.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.Compare(wristRun.ID, refRun.ID); !errors.Is(err, store.ErrRunNotFound) {
		t.Errorf("Compare() after delete error = %v, want ErrRunNotFound", err)
	}
}
