package service

import (
	"time"

	"metcompare/internal/estimation"
	"metcompare/internal/store"
)

// Result is the output table of one processing call.
type Result struct {
	Source    string // store.SourceWrist or store.SourceActigraph
	Policy    string // estimation policy, empty for actigraph
	Estimates []store.Estimate
	Outcomes  []estimation.Outcome // per-window intermediates, wrist only
	Summary   Summary
}

// Summary counts what happened across the windows of a result.
type Summary struct {
	Windows int
	Empty   int // windows without an estimate
	Labels  map[estimation.Label]int
	Start   time.Time
	End     time.Time
}

func summarize(estimates []store.Estimate, outcomes []estimation.Outcome) Summary {
	s := Summary{Windows: len(estimates)}
	for _, e := range estimates {
		if e.MET == nil {
			s.Empty++
		}
	}
	if len(estimates) > 0 {
		s.Start = estimates[0].Timestamp
		s.End = estimates[len(estimates)-1].Timestamp
	}
	if len(outcomes) > 0 {
		s.Labels = make(map[estimation.Label]int, 3)
		for _, o := range outcomes {
			s.Labels[o.Label]++
		}
	}
	return s
}
