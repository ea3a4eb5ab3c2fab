package dashboard

import "github.com/KaramelBytes/candidash/internal/analysis"

// ChartID names one dashboard panel.
type ChartID string

const (
	ChartKPIs     ChartID = "kpis"
	ChartSpec     ChartID = "chartSpec"
	ChartCity     ChartID = "chartCity"
	ChartSalary   ChartID = "chartSalary"
	ChartCertLine ChartID = "chartCertLine"
	ChartGender   ChartID = "chartGender"
	ChartEdu      ChartID = "chartEdu"
	ChartStatus   ChartID = "chartStatus"
	ChartHeatmap  ChartID = "chartHeatmap"
)

// Charts lists every panel in layout order.
var Charts = []ChartID{
	ChartKPIs, ChartSpec, ChartCity, ChartSalary, ChartCertLine,
	ChartGender, ChartEdu, ChartStatus, ChartHeatmap,
}

// HeatmapView carries the cells plus both axes so empty rows still render.
type HeatmapView struct {
	Cells           []analysis.HeatCell `json:"cells"`
	Specializations []string            `json:"specializations"`
	Groups          []string            `json:"groups"`
}

// View returns the view model a chart draws from a summary.
func View(id ChartID, s *analysis.Summary) any {
	switch id {
	case ChartKPIs:
		return s.KPIs
	case ChartSpec:
		return s.Scatter
	case ChartCity:
		return s.Regions
	case ChartSalary:
		return s.Salary
	case ChartCertLine:
		return s.CertCurve
	case ChartGender:
		return s.Gender
	case ChartEdu:
		return s.Education
	case ChartStatus:
		return s.Status
	case ChartHeatmap:
		return HeatmapView{Cells: s.Heatmap, Specializations: s.HeatmapSpecs, Groups: s.HeatmapGroups}
	default:
		return nil
	}
}
