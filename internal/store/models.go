package store

import "time"

// Sources of a run
const (
	SourceWrist     = "wrist"
	SourceActigraph = "actigraph"
)

// Estimate is one row of an output table: the MET value for the minute
// starting at Timestamp.
type Estimate struct {
	Timestamp time.Time `db:"timestamp"`
	MET       *float64  `db:"met"` // nullable, nil when the minute had no estimate
}

// Run describes one processed upload.
type Run struct {
	ID        string    `db:"id"`
	Source    string    `db:"source"` // wrist or actigraph
	Policy    string    `db:"policy"` // estimation policy, empty for actigraph
	Label     string    `db:"label"`  // free-form user label
	CreatedAt time.Time `db:"created_at"`
	Count     int       // number of estimates
}
