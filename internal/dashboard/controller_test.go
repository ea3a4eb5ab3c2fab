package dashboard_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/candidash/internal/analysis"
	"github.com/KaramelBytes/candidash/internal/dashboard"
	"github.com/KaramelBytes/candidash/internal/parser"
	"github.com/KaramelBytes/candidash/internal/render"
	"github.com/KaramelBytes/candidash/internal/source"
)

const sample = `Candidate_ID,Specialization,City,Gender,Education_Level,Employment_Status,Expected_Salary,Years_of_Experience,Age,Number_of_Certificates
C1,Web,Cairo,Male,Bachelor,Employed,10000,2,25,1
C2,Web,Giza,Female,Master,Unemployed,20000,5,30,3
C3,Data,Cairo,Female,Bachelor,Employed,30000,8,35,2
`

type notes struct {
	mu      sync.Mutex
	reasons []string
}

func (n *notes) Notify(reason string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reasons = append(n.reasons, reason)
}

func (n *notes) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.reasons...)
}

type brokenSource struct{}

func (brokenSource) Fetch(context.Context) (string, error) { return "", errors.New("connection refused") }
func (brokenSource) Describe() string                      { return "broken" }

func newController(t *testing.T) (*dashboard.Controller, *render.Memory, *notes) {
	t.Helper()
	mem := render.NewMemory()
	n := &notes{}
	return dashboard.NewController(mem, n, dashboard.DefaultConfig(), nil), mem, n
}

func kpis(t *testing.T, mem *render.Memory) analysis.KPIs {
	t.Helper()
	f, ok := mem.Frame(dashboard.ChartKPIs)
	require.True(t, ok, "kpi frame missing")
	k, ok := f.View.(analysis.KPIs)
	require.True(t, ok)
	return k
}

func TestLoadText_RendersResetView(t *testing.T) {
	c, mem, n := newController(t)
	res, err := c.LoadText(context.Background(), sample, "sample")
	require.NoError(t, err)

	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, 3, res.Matched)
	assert.Equal(t, "sample", res.Source)
	assert.NotEmpty(t, res.TableID)
	assert.Equal(t, "All", res.ExperienceLabel)
	assert.Equal(t, "All", res.SalaryLabel)
	assert.Equal(t, len(dashboard.Charts), mem.Live())
	assert.Equal(t, 3, kpis(t, mem).Total)
	assert.Equal(t, 2, kpis(t, mem).Employed)
	assert.InDelta(t, 20000, kpis(t, mem).AvgSalary, 1e-9)
	assert.Empty(t, n.all())
	assert.Same(t, res, c.Last())
}

func TestLoadText_FailureEmptiesTable(t *testing.T) {
	c, mem, n := newController(t)
	_, err := c.LoadText(context.Background(), sample, "sample")
	require.NoError(t, err)

	_, err = c.LoadText(context.Background(), "  \n\n", "bad")
	require.Error(t, err)
	assert.ErrorIs(t, err, parser.ErrEmptyInput)
	assert.Equal(t, []string{"CSV appears to be empty"}, n.all())
	assert.True(t, c.Table().IsEmpty())
	assert.Equal(t, 0, c.Last().Rows)
	assert.Equal(t, 0, kpis(t, mem).Total)

	_, err = c.LoadText(context.Background(), "A,B\n", "header only")
	assert.ErrorIs(t, err, parser.ErrNoValidRows)
	assert.Equal(t, "No valid data rows found in CSV", n.all()[1])
}

func TestLoad_Sources(t *testing.T) {
	c, _, n := newController(t)
	res, err := c.Load(context.Background(), source.Text{Body: sample})
	require.NoError(t, err)
	assert.Equal(t, "Pasted CSV Data", res.Source)

	_, err = c.Load(context.Background(), brokenSource{})
	require.Error(t, err)
	assert.ErrorIs(t, err, source.ErrUnavailable)
	require.Len(t, n.all(), 1)
	assert.Equal(t, "Failed to load data source. Reason: connection refused", n.all()[0])
	assert.True(t, c.Table().IsEmpty())
}

func TestUpdate_FiltersAndIsIdempotent(t *testing.T) {
	c, mem, _ := newController(t)
	_, err := c.LoadText(context.Background(), sample, "sample")
	require.NoError(t, err)

	spec := c.Options().DefaultSpec()
	spec.City = "Cairo"
	res, err := c.Update(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, 2, res.Matched)
	assert.Equal(t, 2, kpis(t, mem).Total)

	again, err := c.Update(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, res.Summary, again.Summary)

	spec.MaxSalary = 15000
	res, err = c.Update(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Matched)
	assert.Equal(t, "<= 15,000", res.SalaryLabel)

	res, err = c.Reset(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Matched)
}

func TestRedraw_ReopensSurfaces(t *testing.T) {
	c, mem, _ := newController(t)
	_, err := c.LoadText(context.Background(), sample, "sample")
	require.NoError(t, err)
	before, _ := mem.Frame(dashboard.ChartKPIs)

	_, err = c.Redraw(context.Background(), c.Options().DefaultSpec())
	require.NoError(t, err)
	after, ok := mem.Frame(dashboard.ChartKPIs)
	require.True(t, ok)
	assert.Greater(t, after.Seq, before.Seq)
	assert.Equal(t, len(dashboard.Charts), mem.Live())

	require.NoError(t, c.Dispose())
	assert.Zero(t, mem.Live())
	assert.Empty(t, mem.Frames())
}

func TestClear(t *testing.T) {
	c, mem, _ := newController(t)
	_, err := c.LoadText(context.Background(), sample, "sample")
	require.NoError(t, err)
	res, err := c.Clear(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Rows)
	assert.Empty(t, res.TableID)
	assert.Zero(t, kpis(t, mem).Total)
}

func TestCanceledContext(t *testing.T) {
	c, _, _ := newController(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Update(ctx, c.Options().DefaultSpec())
	assert.ErrorIs(t, err, context.Canceled)
	_, err = c.LoadText(ctx, sample, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

type slowSource struct{}

func (slowSource) Fetch(ctx context.Context) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}
func (slowSource) Describe() string { return "slow" }

func TestLoad_AbandonedKeepsTable(t *testing.T) {
	c, mem, n := newController(t)
	_, err := c.LoadText(context.Background(), sample, "sample")
	require.NoError(t, err)
	id := c.Table().ID()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Load(ctx, source.Text{Body: "A,B\n1,2\n", Label: "pasted"})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, source.ErrUnavailable))

	tctx, tcancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer tcancel()
	_, err = c.Load(tctx, slowSource{})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	assert.Equal(t, 3, c.Table().Len())
	assert.Equal(t, id, c.Table().ID())
	assert.Equal(t, 3, kpis(t, mem).Total)
	assert.Empty(t, n.all())
}

func TestOnCycle(t *testing.T) {
	var rows, matched []int
	cfg := dashboard.DefaultConfig()
	cfg.OnCycle = func(_ time.Duration, r, m int) {
		rows = append(rows, r)
		matched = append(matched, m)
	}
	c := dashboard.NewController(nil, nil, cfg, nil)
	_, err := c.LoadText(context.Background(), sample, "sample")
	require.NoError(t, err)
	spec := c.Options().DefaultSpec()
	spec.Specialization = "Data"
	_, err = c.Update(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3}, rows)
	assert.Equal(t, []int{3, 1}, matched)
}

func TestConcurrentUpdates(t *testing.T) {
	c, mem, _ := newController(t)
	_, err := c.LoadText(context.Background(), sample, "sample")
	require.NoError(t, err)
	spec := c.Options().DefaultSpec()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, _ = c.Update(context.Background(), spec)
			} else {
				_, _ = c.Redraw(context.Background(), spec)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, len(dashboard.Charts), mem.Live())
	assert.Equal(t, 3, kpis(t, mem).Total)
}

func TestReason(t *testing.T) {
	assert.Equal(t, "Please provide either a Google Sheet URL or paste CSV data.", dashboard.Reason(source.ErrNoSource))
	assert.Equal(t, "CSV appears to be empty", dashboard.Reason(&parser.ParseError{Kind: parser.ErrEmptyInput}))
	assert.Equal(t, "Failed to load data source. Reason: a. Proxy Reason: b",
		dashboard.Reason(&source.UnavailableError{Direct: errors.New("a"), Proxy: errors.New("b")}))
}
