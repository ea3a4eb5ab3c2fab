package analysis

import (
	"sort"

	"github.com/KaramelBytes/candidash/internal/dataset"
)

// DefaultTopN caps the salary-by-category chart.
const DefaultTopN = 10

// CategoryStats summarizes a numeric column within one category. Avg, Min and
// Max are rounded to whole units; Range is Max-Min.
type CategoryStats struct {
	Category string  `json:"category"`
	Avg      float64 `json:"avg"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Range    float64 `json:"range"`
	Count    int     `json:"count"`
}

// SalaryStatsByCategory groups by categoryField and summarizes valueField,
// highest average first, truncated to topN entries (topN <= 0 keeps all).
func SalaryStatsByCategory(records []dataset.Record, categoryField, valueField string, topN int) []CategoryStats {
	type acc struct {
		cat           string
		sum, min, max float64
		cnt           int
	}
	idx := make(map[string]int)
	var accs []*acc
	for _, r := range records {
		cat := r.Text(categoryField)
		v := r.Number(valueField)
		i, ok := idx[cat]
		if !ok {
			i = len(accs)
			idx[cat] = i
			accs = append(accs, &acc{cat: cat, min: v, max: v})
		}
		a := accs[i]
		a.sum += v
		a.cnt++
		if v < a.min {
			a.min = v
		}
		if v > a.max {
			a.max = v
		}
	}
	out := make([]CategoryStats, 0, len(accs))
	for _, a := range accs {
		lo, hi := roundHalfUp(a.min), roundHalfUp(a.max)
		out = append(out, CategoryStats{
			Category: a.cat,
			Avg:      roundHalfUp(a.sum / float64(a.cnt)),
			Min:      lo,
			Max:      hi,
			Range:    hi - lo,
			Count:    a.cnt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Avg > out[j].Avg })
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

type CurvePoint struct {
	Certificates float64 `json:"certificates"`
	AvgSalary    float64 `json:"avgSalary"`
}

// CertificateSalaryCurve averages expected salary per certificate count,
// ascending by count.
func CertificateSalaryCurve(records []dataset.Record) []CurvePoint {
	sum := make(map[float64]float64)
	cnt := make(map[float64]int)
	for _, r := range records {
		c := r.Number(dataset.NumberOfCertificates)
		sum[c] += r.Number(dataset.ExpectedSalary)
		cnt[c]++
	}
	out := make([]CurvePoint, 0, len(cnt))
	for c, n := range cnt {
		out = append(out, CurvePoint{Certificates: c, AvgSalary: roundHalfUp(sum[c] / float64(n))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Certificates < out[j].Certificates })
	return out
}

// KPIs are the headline numbers above the charts.
type KPIs struct {
	Total         int     `json:"total"`
	AvgSalary     float64 `json:"avgSalary"`
	AvgExperience float64 `json:"avgExperience"`
	Employed      int     `json:"employed"`
}

// ComputeKPIs returns zeros for an empty set.
func ComputeKPIs(records []dataset.Record) KPIs {
	k := KPIs{Total: len(records)}
	if k.Total == 0 {
		return k
	}
	var sal, exp float64
	for _, r := range records {
		sal += r.Number(dataset.ExpectedSalary)
		exp += r.Number(dataset.YearsOfExperience)
		if r.Text(dataset.EmploymentStatus) == dataset.EmployedStatus {
			k.Employed++
		}
	}
	n := float64(k.Total)
	k.AvgSalary = roundHalfUp(sal / n)
	k.AvgExperience = round1(exp / n)
	return k
}

// ScatterPoint is one bubble on the experience/salary chart.
type ScatterPoint struct {
	ID             string  `json:"id"`
	Specialization string  `json:"specialization"`
	Experience     float64 `json:"experience"`
	Salary         float64 `json:"salary"`
	City           string  `json:"city"`
	Status         string  `json:"status"`
	Education      string  `json:"education"`
	Gender         string  `json:"gender"`
	Age            float64 `json:"age"`
	Certificates   float64 `json:"certificates"`
	Radius         float64 `json:"radius"`
}

// Bubble radius grows with certificates: 6 plus 3.5 per certificate.
const (
	baseRadius    = 6
	radiusPerCert = 3.5
)

func ScatterPoints(records []dataset.Record) []ScatterPoint {
	out := make([]ScatterPoint, 0, len(records))
	for _, r := range records {
		certs := r.Number(dataset.NumberOfCertificates)
		out = append(out, ScatterPoint{
			ID:             r.Text(dataset.CandidateID),
			Specialization: r.Text(dataset.Specialization),
			Experience:     r.Number(dataset.YearsOfExperience),
			Salary:         r.Number(dataset.ExpectedSalary),
			City:           r.Text(dataset.City),
			Status:         r.Text(dataset.EmploymentStatus),
			Education:      r.Text(dataset.EducationLevel),
			Gender:         r.Text(dataset.Gender),
			Age:            r.Number(dataset.Age),
			Certificates:   certs,
			Radius:         baseRadius + certs*radiusPerCert,
		})
	}
	return out
}
