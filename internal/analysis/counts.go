// Package analysis turns a filtered record set into chart-ready summaries.
// Every function is pure and tolerates empty input.
package analysis

import (
	"math"
	"math/big"
	"sort"

	"github.com/KaramelBytes/candidash/internal/dataset"
)

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// CategoryCounts groups by the exact field value, most frequent first.
// Ties keep first-seen order.
func CategoryCounts(records []dataset.Record, field string) []CategoryCount {
	idx := make(map[string]int)
	var out []CategoryCount
	for _, r := range records {
		v := r.Text(field)
		i, ok := idx[v]
		if !ok {
			i = len(out)
			idx[v] = i
			out = append(out, CategoryCount{Category: v})
		}
		out[i].Count++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// roundHalfUp rounds to the nearest integer with halves going up, the way
// browser dashboards round (-2.5 becomes -2).
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

// round1 keeps one decimal the way a browser's toFixed(1) does: the exact
// binary value decides, and a true half rounds away from zero. 3/20 is
// stored just below 0.15, so it becomes 0.1.
func round1(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	f := new(big.Float).SetPrec(512).SetFloat64(math.Abs(x))
	f.Mul(f, big.NewFloat(10))
	f.Add(f, big.NewFloat(0.5))
	n, _ := f.Int(nil)
	v, _ := new(big.Float).SetInt(n).Float64()
	if v == 0 {
		return 0
	}
	return math.Copysign(v/10, x)
}
