package analysis

import "github.com/KaramelBytes/candidash/internal/dataset"

// ExperienceGroups are the heatmap columns in display order.
var ExperienceGroups = []string{"0-2 years", "3-5 years", "6-10 years", "10+ years"}

// ExperienceGroup buckets years of experience with inclusive upper thresholds 2, 5 and 10.
func ExperienceGroup(years float64) string {
	switch {
	case years <= 2:
		return ExperienceGroups[0]
	case years <= 5:
		return ExperienceGroups[1]
	case years <= 10:
		return ExperienceGroups[2]
	default:
		return ExperienceGroups[3]
	}
}

type HeatCell struct {
	Specialization  string  `json:"specialization"`
	ExperienceGroup string  `json:"experienceGroup"`
	AvgCert         float64 `json:"avgCert"`
}

type heatKey struct {
	spec, group string
}

// Heatmap is the certificate grid with the row and column order it was built in.
type Heatmap struct {
	Cells           []HeatCell
	Specializations []string
	Groups          []string
}

// HeatmapGrid averages certField per (specialization, experience group) cell,
// rounded to one decimal. Cells without records are omitted.
func HeatmapGrid(records []dataset.Record, bucket func(float64) string, specField, certField, expField string) []HeatCell {
	return BuildHeatmap(records, bucket, specField, certField, expField).Cells
}

// BuildHeatmap computes the grid cells. Rows follow the first appearance of
// each specialization; columns follow ExperienceGroups, then any other label
// bucket returns.
func BuildHeatmap(records []dataset.Record, bucket func(float64) string, specField, certField, expField string) Heatmap {
	if bucket == nil {
		bucket = ExperienceGroup
	}
	sum := make(map[heatKey]float64)
	cnt := make(map[heatKey]int)
	var specs []string
	seenSpec := make(map[string]struct{})
	groups := append([]string(nil), ExperienceGroups...)
	seenGroup := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		seenGroup[g] = struct{}{}
	}
	for _, r := range records {
		spec := r.Text(specField)
		if _, ok := seenSpec[spec]; !ok {
			seenSpec[spec] = struct{}{}
			specs = append(specs, spec)
		}
		g := bucket(r.Number(expField))
		if _, ok := seenGroup[g]; !ok {
			seenGroup[g] = struct{}{}
			groups = append(groups, g)
		}
		k := heatKey{spec, g}
		sum[k] += r.Number(certField)
		cnt[k]++
	}
	h := Heatmap{Specializations: specs, Groups: groups}
	for _, s := range specs {
		for _, g := range groups {
			k := heatKey{s, g}
			n := cnt[k]
			if n == 0 {
				continue
			}
			h.Cells = append(h.Cells, HeatCell{Specialization: s, ExperienceGroup: g, AvgCert: round1(sum[k] / float64(n))})
		}
	}
	return h
}
