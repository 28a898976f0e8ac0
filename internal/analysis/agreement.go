package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"metcompare/internal/store"
)

// Agreement summarizes how closely a wrist estimate tracks a reference
// estimate over the minutes both cover.
type Agreement struct {
	Pairs       int
	Bias        float64 // mean of wrist - reference
	MAE         float64
	RMSE        float64
	Correlation float64 // Pearson; NaN with fewer than two pairs
}

// CompareEstimates pairs estimates with the same timestamp where both METs are
// present. When a table repeats a timestamp the first row wins.
func CompareEstimates(wrist, reference []store.Estimate) Agreement {
	ref := make(map[int64]float64, len(reference))
	for _, e := range reference {
		if e.MET == nil {
			continue
		}
		key := e.Timestamp.UnixMilli()
		if _, ok := ref[key]; !ok {
			ref[key] = *e.MET
		}
	}

	var xs, ys []float64
	seen := make(map[int64]bool, len(wrist))
	for _, e := range wrist {
		key := e.Timestamp.UnixMilli()
		if e.MET == nil || seen[key] {
			continue
		}
		r, ok := ref[key]
		if !ok {
			continue
		}
		seen[key] = true
		xs = append(xs, *e.MET)
		ys = append(ys, r)
	}

	a := Agreement{
		Pairs:       len(xs),
		Bias:        math.NaN(),
		MAE:         math.NaN(),
		RMSE:        math.NaN(),
		Correlation: math.NaN(),
	}
	if a.Pairs == 0 {
		return a
	}

	var sumDiff, sumAbs, sumSq float64
	for i := range xs {
		d := xs[i] - ys[i]
		sumDiff += d
		sumAbs += math.Abs(d)
		sumSq += d * d
	}
	n := float64(a.Pairs)
	a.Bias = sumDiff / n
	a.MAE = sumAbs / n
	a.RMSE = math.Sqrt(sumSq / n)
	if a.Pairs > 1 {
		a.Correlation = stat.Correlation(xs, ys, nil)
	}
	return a
}
