package render_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/candidash/internal/analysis"
	"github.com/KaramelBytes/candidash/internal/dashboard"
	"github.com/KaramelBytes/candidash/internal/render"
)

func TestMemory_DrawAndDispose(t *testing.T) {
	m := render.NewMemory()
	s, err := m.Open(dashboard.ChartGender)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Live())

	view := []analysis.CategoryCount{{Category: "Male", Count: 2}}
	require.NoError(t, s.Draw(view))
	f, ok := m.Frame(dashboard.ChartGender)
	require.True(t, ok)
	assert.Equal(t, view, f.View)
	assert.Equal(t, uint64(1), f.Seq)

	require.NoError(t, s.Dispose())
	assert.Equal(t, 0, m.Live())
	_, ok = m.Frame(dashboard.ChartGender)
	assert.False(t, ok)
	assert.ErrorIs(t, s.Draw(view), render.ErrDisposed)
}

func TestMemory_FramesInLayoutOrder(t *testing.T) {
	m := render.NewMemory()
	for _, id := range []dashboard.ChartID{dashboard.ChartHeatmap, dashboard.ChartKPIs, dashboard.ChartSalary} {
		s, err := m.Open(id)
		require.NoError(t, err)
		require.NoError(t, s.Draw(string(id)))
	}
	frames := m.Frames()
	require.Len(t, frames, 3)
	assert.Equal(t, dashboard.ChartKPIs, frames[0].Chart)
	assert.Equal(t, dashboard.ChartSalary, frames[1].Chart)
	assert.Equal(t, dashboard.ChartHeatmap, frames[2].Chart)
}

type failing struct{}

func (failing) Open(dashboard.ChartID) (dashboard.Surface, error) { return nil, errors.New("boom") }

func TestMulti(t *testing.T) {
	a, b := render.NewMemory(), render.NewMemory()
	s, err := render.Multi{a, failing{}, b}.Open(dashboard.ChartKPIs)
	require.NoError(t, err)
	require.NoError(t, s.Draw(analysis.KPIs{Total: 3}))
	for _, m := range []*render.Memory{a, b} {
		f, ok := m.Frame(dashboard.ChartKPIs)
		require.True(t, ok)
		assert.Equal(t, analysis.KPIs{Total: 3}, f.View)
	}
	require.NoError(t, s.Dispose())
	assert.Zero(t, a.Live())

	_, err = render.Multi{failing{}}.Open(dashboard.ChartKPIs)
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := render.ParseFormat("SVG")
	require.NoError(t, err)
	assert.Equal(t, render.SVG, f)
	f, err = render.ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, render.PNG, f)
	_, err = render.ParseFormat("gif")
	assert.Error(t, err)
}

func TestRenderChart_SkipsEmptyViews(t *testing.T) {
	var buf bytes.Buffer
	cases := []struct {
		id   dashboard.ChartID
		view any
	}{
		{dashboard.ChartSpec, []analysis.ScatterPoint{}},
		{dashboard.ChartSalary, []analysis.CategoryStats(nil)},
		{dashboard.ChartGender, []analysis.CategoryCount{}},
		{dashboard.ChartCity, []analysis.RegionCount{{ID: "EG-C", Value: 0}}},
		{dashboard.ChartKPIs, analysis.KPIs{Total: 1}},
	}
	for _, c := range cases {
		ok, err := render.RenderChart(&buf, c.id, c.view, render.PNG, 400, 300)
		require.NoError(t, err)
		assert.False(t, ok, "chart %s should be skipped", c.id)
	}
	assert.Zero(t, buf.Len())
}

func TestImages_WritesAndRemoves(t *testing.T) {
	dir := t.TempDir()
	im, err := render.NewImages(dir, render.PNG, nil)
	require.NoError(t, err)
	s, err := im.Open(dashboard.ChartSalary)
	require.NoError(t, err)

	require.NoError(t, s.Draw([]analysis.CategoryStats{
		{Category: "Web", Avg: 12000, Min: 9000, Max: 15000, Range: 6000, Count: 3},
		{Category: "Data", Avg: 20000, Min: 20000, Max: 20000, Count: 1},
	}))
	p := filepath.Join(dir, "chartSalary.png")
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("\x89PNG")), "expected a png file")
	assert.Equal(t, p, im.Files()[dashboard.ChartSalary])

	require.NoError(t, s.Draw([]analysis.CategoryStats{}))
	_, err = os.Stat(p)
	assert.True(t, os.IsNotExist(err))
	assert.Empty(t, im.Files())
}
