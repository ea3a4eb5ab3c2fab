package analysis

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/candidash/internal/dataset"
)

// Options controls which summaries Summarize produces and how.
type Options struct {
	// TopN caps the salary-by-specialization chart; <= 0 keeps every category.
	TopN int
	// Gazetteer resolves cities for the region map. Nil disables the map.
	Gazetteer *Gazetteer
	// Bucket assigns experience groups for the heatmap. Nil uses ExperienceGroup.
	Bucket func(float64) string
}

// DefaultOptions returns the stock dashboard configuration.
func DefaultOptions() Options {
	return Options{
		TopN:      DefaultTopN,
		Gazetteer: EgyptGovernorates(),
		Bucket:    ExperienceGroup,
	}
}

// Summary bundles every chart view model for one recomputation.
type Summary struct {
	KPIs          KPIs            `json:"kpis"`
	Scatter       []ScatterPoint  `json:"scatter"`
	Regions       []RegionCount   `json:"regions"`
	Salary        []CategoryStats `json:"salary"`
	CertCurve     []CurvePoint    `json:"certCurve"`
	Gender        []CategoryCount `json:"gender"`
	Education     []CategoryCount `json:"education"`
	Status        []CategoryCount `json:"status"`
	Heatmap       []HeatCell      `json:"heatmap"`
	HeatmapSpecs  []string        `json:"heatmapSpecs"`
	HeatmapGroups []string        `json:"heatmapGroups"`
}

// Summarize runs every aggregation over the filtered records.
func Summarize(records []dataset.Record, opt Options) *Summary {
	heat := BuildHeatmap(records, opt.Bucket, dataset.Specialization, dataset.NumberOfCertificates, dataset.YearsOfExperience)
	s := &Summary{
		KPIs:          ComputeKPIs(records),
		Scatter:       ScatterPoints(records),
		Salary:        SalaryStatsByCategory(records, dataset.Specialization, dataset.ExpectedSalary, opt.TopN),
		CertCurve:     CertificateSalaryCurve(records),
		Gender:        CategoryCounts(records, dataset.Gender),
		Education:     CategoryCounts(records, dataset.EducationLevel),
		Status:        CategoryCounts(records, dataset.EmploymentStatus),
		Heatmap:       heat.Cells,
		HeatmapSpecs:  heat.Specializations,
		HeatmapGroups: heat.Groups,
	}
	if opt.Gazetteer != nil {
		s.Regions = GeoSeries(records, dataset.City, opt.Gazetteer)
	}
	return s
}

// Markdown renders a compact text report of the summary.
func (s *Summary) Markdown(source string) string {
	var b strings.Builder
	b.WriteString("[DASHBOARD SUMMARY]\n")
	if source != "" {
		b.WriteString(fmt.Sprintf("Source: %s\n", source))
	}
	k := s.KPIs
	b.WriteString(fmt.Sprintf("Candidates: %d\n", k.Total))
	b.WriteString(fmt.Sprintf("Average expected salary: %.0f EGP\n", k.AvgSalary))
	b.WriteString(fmt.Sprintf("Average experience: %.1f Yrs\n", k.AvgExperience))
	b.WriteString(fmt.Sprintf("Employed: %d\n", k.Employed))

	if len(s.Salary) > 0 {
		b.WriteString("\n[SALARY BY SPECIALIZATION]\n")
		for _, c := range s.Salary {
			b.WriteString(fmt.Sprintf("- %s (n=%d): avg %.0f (min %.0f, max %.0f, range %.0f)\n",
				safeVal(c.Category), c.Count, c.Avg, c.Min, c.Max, c.Range))
		}
	}

	writeCounts := func(title string, counts []CategoryCount) {
		if len(counts) == 0 {
			return
		}
		b.WriteString(fmt.Sprintf("- %s: ", title))
		for i, kv := range counts {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Category), kv.Count))
		}
		b.WriteString("\n")
	}
	if len(s.Gender)+len(s.Education)+len(s.Status) > 0 {
		b.WriteString("\n[DISTRIBUTIONS]\n")
		writeCounts("gender", s.Gender)
		writeCounts("education", s.Education)
		writeCounts("status", s.Status)
	}

	if len(s.CertCurve) > 0 {
		b.WriteString("\n[CERTIFICATES VS SALARY]\n")
		for _, p := range s.CertCurve {
			b.WriteString(fmt.Sprintf("- %g certificates: avg %.0f\n", p.Certificates, p.AvgSalary))
		}
	}

	var regions []RegionCount
	for _, r := range s.Regions {
		if r.Value > 0 {
			regions = append(regions, r)
		}
	}
	if len(regions) > 0 {
		b.WriteString("\n[REGIONS]\n")
		for _, r := range regions {
			b.WriteString(fmt.Sprintf("- %s: %d\n", r.ID, r.Value))
		}
	}

	if len(s.Heatmap) > 0 {
		b.WriteString("\n[CERTIFICATES HEATMAP]\n")
		for _, c := range s.Heatmap {
			b.WriteString(fmt.Sprintf("- %s / %s: %.1f\n", safeVal(c.Specialization), c.ExperienceGroup, c.AvgCert))
		}
	}
	return b.String()
}

func safeVal(s string) string {
	if s == "" {
		return "(blank)"
	}
	return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/")
}
