package render

import (
	"bytes"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"sync"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"go.uber.org/zap"

	"github.com/KaramelBytes/candidash/internal/analysis"
	"github.com/KaramelBytes/candidash/internal/dashboard"
	"github.com/KaramelBytes/candidash/internal/utils"
)

// Format is an image encoding supported by the chart renderer.
type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
)

// ParseFormat accepts "png" or "svg" (case-insensitive).
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case PNG, SVG:
		return f, nil
	case "":
		return PNG, nil
	default:
		return "", fmt.Errorf("unsupported image format %q (want png or svg)", s)
	}
}

func (f Format) provider() chart.RendererProvider {
	if f == SVG {
		return chart.SVG
	}
	return chart.PNG
}

// Images writes one chart image per panel into a directory. A chart whose
// data is empty has its stale image removed.
type Images struct {
	dir           string
	format        Format
	width, height int
	logger        *zap.Logger

	mu      sync.Mutex
	written map[dashboard.ChartID]string
}

func NewImages(dir string, format Format, logger *zap.Logger) (*Images, error) {
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Images{
		dir:     dir,
		format:  format,
		width:   1024,
		height:  512,
		logger:  logger.Named("render"),
		written: make(map[dashboard.ChartID]string),
	}, nil
}

func (im *Images) Open(id dashboard.ChartID) (dashboard.Surface, error) {
	return &imageSurface{parent: im, id: id}, nil
}

// Files lists the images currently on disk, by chart.
func (im *Images) Files() map[dashboard.ChartID]string {
	im.mu.Lock()
	defer im.mu.Unlock()
	out := make(map[dashboard.ChartID]string, len(im.written))
	for k, v := range im.written {
		out[k] = v
	}
	return out
}

func (im *Images) path(id dashboard.ChartID) string {
	return filepath.Join(im.dir, string(id)+"."+string(im.format))
}

type imageSurface struct {
	parent   *Images
	id       dashboard.ChartID
	disposed bool
}

func (s *imageSurface) Draw(view any) error {
	if s.disposed {
		return ErrDisposed
	}
	im := s.parent
	var buf bytes.Buffer
	ok, err := RenderChart(&buf, s.id, view, im.format, im.width, im.height)
	if err != nil {
		return fmt.Errorf("render %s: %w", s.id, err)
	}
	p := im.path(s.id)
	im.mu.Lock()
	defer im.mu.Unlock()
	if !ok {
		delete(im.written, s.id)
		return utils.RemoveIfExists(p)
	}
	if err := utils.SafeWriteFile(p, buf.Bytes()); err != nil {
		return err
	}
	im.written[s.id] = p
	im.logger.Debug("chart written", zap.String("chart", string(s.id)), zap.String("path", p))
	return nil
}

func (s *imageSurface) Dispose() error {
	s.disposed = true
	return nil
}

// RenderChart draws view for chart id. It reports false when the view has
// nothing drawable (no rows, all-zero pie) or is not an image panel.
func RenderChart(buf *bytes.Buffer, id dashboard.ChartID, view any, format Format, width, height int) (bool, error) {
	p := format.provider()
	switch v := view.(type) {
	case []analysis.ScatterPoint:
		if len(v) == 0 {
			return false, nil
		}
		return true, scatterChart(v, width, height).Render(p, buf)
	case []analysis.RegionCount:
		bars := make([]chart.Value, 0, len(v))
		for _, rc := range v {
			if rc.Value > 0 {
				bars = append(bars, chart.Value{Label: rc.ID, Value: float64(rc.Value)})
			}
		}
		bc, ok := barChart("Candidates by governorate", bars, width, height)
		if !ok {
			return false, nil
		}
		return true, bc.Render(p, buf)
	case []analysis.CategoryStats:
		bars := make([]chart.Value, len(v))
		for i, c := range v {
			bars[i] = chart.Value{Label: label(c.Category), Value: c.Avg}
		}
		bc, ok := barChart("Average expected salary by specialization", bars, width, height)
		if !ok {
			return false, nil
		}
		return true, bc.Render(p, buf)
	case []analysis.CurvePoint:
		if len(v) == 0 {
			return false, nil
		}
		return true, curveChart(v, width, height).Render(p, buf)
	case []analysis.CategoryCount:
		pc, ok := pieChart(pieTitle(id), v, width, height)
		if !ok {
			return false, nil
		}
		return true, pc.Render(p, buf)
	case dashboard.HeatmapView:
		bars := make([]chart.Value, len(v.Cells))
		for i, c := range v.Cells {
			bars[i] = chart.Value{Label: label(c.Specialization) + " " + c.ExperienceGroup, Value: c.AvgCert}
		}
		bc, ok := barChart("Average certificates by specialization and experience", bars, width, height)
		if !ok {
			return false, nil
		}
		return true, bc.Render(p, buf)
	default:
		return false, nil
	}
}

func pieTitle(id dashboard.ChartID) string {
	switch id {
	case dashboard.ChartGender:
		return "Gender"
	case dashboard.ChartEdu:
		return "Education level"
	case dashboard.ChartStatus:
		return "Employment status"
	default:
		return string(id)
	}
}

func label(s string) string {
	if s == "" {
		return "(blank)"
	}
	return s
}

func barChart(title string, bars []chart.Value, width, height int) (*chart.BarChart, bool) {
	hi := 0.0
	for _, b := range bars {
		hi = math.Max(hi, b.Value)
	}
	if len(bars) == 0 || hi <= 0 {
		return nil, false
	}
	return &chart.BarChart{
		Title:    title,
		Width:    width,
		Height:   height,
		BarWidth: barWidth(len(bars), width),
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		YAxis: chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: hi * 1.1}},
		Bars:  bars,
	}, true
}

func barWidth(n, width int) int {
	w := (width - 100) / (n * 2)
	if w < 8 {
		return 8
	}
	if w > 60 {
		return 60
	}
	return w
}

func pieChart(title string, counts []analysis.CategoryCount, width, height int) (*chart.PieChart, bool) {
	values := make([]chart.Value, 0, len(counts))
	for _, c := range counts {
		if c.Count > 0 {
			values = append(values, chart.Value{Label: fmt.Sprintf("%s (%d)", label(c.Category), c.Count), Value: float64(c.Count)})
		}
	}
	if len(values) == 0 {
		return nil, false
	}
	return &chart.PieChart{Title: title, Width: height, Height: height, Values: values}, true
}

// Specialization colors used by the scatter chart; others are slate.
var specColors = map[string]string{
	"Software Engineer":    "3b82f6",
	"Data Scientist":       "8b5cf6",
	"Product Manager":      "10b981",
	"Sales Representative": "f59e0b",
	"HR Specialist":        "ec4899",
	"Accountant":           "06b6d4",
	"Marketing Manager":    "f97316",
	"Civil Engineer":       "6366f1",
	"Graphic Designer":     "14b8a6",
}

const otherColor = "64748b"

func scatterChart(points []analysis.ScatterPoint, width, height int) *chart.Chart {
	groups := make(map[string]*chart.ContinuousSeries)
	var order []string
	xs := make([]float64, 0, len(points))
	ys := make([]float64, 0, len(points))
	for _, p := range points {
		name := label(p.Specialization)
		s, ok := groups[name]
		if !ok {
			hex, known := specColors[p.Specialization]
			if !known {
				hex = otherColor
			}
			s = &chart.ContinuousSeries{
				Name: name,
				Style: chart.Style{
					StrokeWidth: 0,
					DotWidth:    5,
					DotColor:    drawing.ColorFromHex(hex),
				},
			}
			groups[name] = s
			order = append(order, name)
		}
		s.XValues = append(s.XValues, p.Experience)
		s.YValues = append(s.YValues, p.Salary)
		xs = append(xs, p.Experience)
		ys = append(ys, p.Salary)
	}
	series := make([]chart.Series, 0, len(order))
	for _, name := range order {
		series = append(series, *groups[name])
	}
	ch := &chart.Chart{
		Title:  "Experience vs expected salary",
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis:  chart.XAxis{Name: "Years of Experience", Range: paddedRange(xs, true)},
		YAxis:  chart.YAxis{Name: "Expected Salary (EGP)", Range: paddedRange(ys, true)},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(ch)}
	return ch
}

func curveChart(points []analysis.CurvePoint, width, height int) *chart.Chart {
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.Certificates
		ys[i] = p.AvgSalary
	}
	return &chart.Chart{
		Title:  "Average salary by certificates",
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: chart.XAxis{Name: "Certificates", Range: paddedRange(xs, true)},
		YAxis: chart.YAxis{Name: "Avg Salary (EGP)", Range: paddedRange(ys, true)},
		Series: []chart.Series{chart.ContinuousSeries{
			Name:    "Avg salary",
			XValues: xs,
			YValues: ys,
			Style:   chart.Style{StrokeWidth: 2, StrokeColor: drawing.ColorFromHex("3b82f6"), DotWidth: 4, DotColor: drawing.ColorFromHex("3b82f6")},
		}},
	}
}

// paddedRange never returns a zero-width range, which the renderer rejects.
func paddedRange(vals []float64, fromZero bool) *chart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if fromZero && lo > 0 {
		lo = 0
	}
	if hi <= lo {
		hi = lo + 1
	}
	return &chart.ContinuousRange{Min: lo, Max: hi + (hi-lo)*0.05}
}
