// Package dashboard orchestrates the load, filter, aggregate and render cycle.
package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/candidash/internal/analysis"
	"github.com/KaramelBytes/candidash/internal/dataset"
	"github.com/KaramelBytes/candidash/internal/filter"
	"github.com/KaramelBytes/candidash/internal/parser"
	"github.com/KaramelBytes/candidash/internal/source"
)

// Config tunes the controller.
type Config struct {
	Limits   filter.Limits
	Analysis analysis.Options
	// OnCycle, when set, observes every completed recomputation.
	OnCycle func(took time.Duration, rows, matched int)
}

// DefaultConfig uses the stock slider sentinels and chart options.
func DefaultConfig() Config {
	return Config{Limits: filter.DefaultLimits(), Analysis: analysis.DefaultOptions()}
}

// Result is what one recomputation produced.
type Result struct {
	TableID         string            `json:"table_id,omitempty"`
	Source          string            `json:"source"`
	Rows            int               `json:"rows"`
	Matched         int               `json:"matched"`
	Spec            filter.Spec       `json:"spec"`
	ExperienceLabel string            `json:"experience_label"`
	SalaryLabel     string            `json:"salary_label"`
	Summary         *analysis.Summary `json:"summary"`
}

// Controller holds the canonical table and drives recomputation. Methods are
// safe for concurrent use; cycles run one at a time.
type Controller struct {
	mu       sync.Mutex
	state    State
	renderer Renderer
	notifier Notifier
	cfg      Config
	last     *Result
	logger   *zap.Logger
}

func NewController(r Renderer, n Notifier, cfg Config, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if n == nil {
		n = NotifierFunc(func(string) {})
	}
	return &Controller{
		state:    newState(),
		renderer: r,
		notifier: n,
		cfg:      cfg,
		logger:   logger.Named("dashboard"),
	}
}

// LoadText parses text and, on success, replaces the table and renders the
// reset view. On failure the table is emptied, the reason is sent to the
// notifier and the empty state is rendered.
func (c *Controller) LoadText(ctx context.Context, text, label string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := parser.Parse(text)
	if err != nil {
		return nil, c.fail(err)
	}
	return c.install(t.WithSource(label))
}

// Load fetches from src and then behaves like LoadText. The fetch runs
// without holding the controller lock. A fetch abandoned because ctx was
// canceled or timed out returns ctx's error and keeps the current table.
func (c *Controller) Load(ctx context.Context, src source.Source) (*Result, error) {
	text, err := src.Fetch(ctx)
	if err != nil {
		if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			c.logger.Info("load abandoned", zap.String("source", src.Describe()), zap.Error(err))
			return nil, err
		}
		var uerr *source.UnavailableError
		if !errors.As(err, &uerr) {
			err = &source.UnavailableError{Source: src.Describe(), Direct: err}
		}
		return nil, c.fail(err)
	}
	return c.LoadText(ctx, text, src.Describe())
}

func (c *Controller) install(t *dataset.Table) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.state.dispose(); err != nil {
		c.logger.Warn("dispose charts", zap.Error(err))
	}
	c.state.load(t)
	c.openCharts()
	c.logger.Info("table loaded",
		zap.String("source", t.Source()),
		zap.String("table_id", t.ID().String()),
		zap.Int("rows", t.Len()))
	return c.cycle(c.options().DefaultSpec()), nil
}

func (c *Controller) fail(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.clear()
	reason := Reason(err)
	c.logger.Warn("load failed", zap.String("reason", reason), zap.Error(err))
	c.notifier.Notify(reason)
	c.openCharts()
	c.cycle(c.options().DefaultSpec())
	return err
}

// Update filters the current table with spec and renders every chart.
func (c *Controller) Update(ctx context.Context, spec filter.Spec) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openCharts()
	return c.cycle(spec), nil
}

// Reset renders the default spec for the current table.
func (c *Controller) Reset(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openCharts()
	return c.cycle(c.options().DefaultSpec()), nil
}

// Redraw disposes every chart, reopens them and renders spec. Used when the
// presentation changes, such as a theme switch.
func (c *Controller) Redraw(ctx context.Context, spec filter.Spec) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.state.dispose(); err != nil {
		c.logger.Warn("dispose charts", zap.Error(err))
	}
	c.openCharts()
	return c.cycle(spec), nil
}

// Clear drops the table and renders the empty state.
func (c *Controller) Clear(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.clear()
	c.openCharts()
	return c.cycle(c.options().DefaultSpec()), nil
}

// Dispose releases every chart surface.
func (c *Controller) Dispose() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.dispose()
}

// Options lists the filter choices for the current table.
func (c *Controller) Options() filter.Options {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.options()
}

// Table returns the current table; it is never nil.
func (c *Controller) Table() *dataset.Table {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.table
}

// Last returns the most recent result, or nil before the first cycle.
func (c *Controller) Last() *Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

func (c *Controller) options() filter.Options {
	return filter.OptionsFor(c.state.table, c.cfg.Limits)
}

func (c *Controller) openCharts() {
	if c.renderer == nil {
		return
	}
	if err := c.state.open(c.renderer); err != nil {
		c.logger.Warn("open charts", zap.Error(err))
	}
}

// cycle runs filter, aggregate and draw. The caller holds c.mu.
func (c *Controller) cycle(spec filter.Spec) *Result {
	start := time.Now()
	t := c.state.table
	matched := filter.Apply(t.Records(), spec)
	summary := analysis.Summarize(matched, c.cfg.Analysis)

	res := &Result{
		Source:          t.Source(),
		Rows:            t.Len(),
		Matched:         len(matched),
		Spec:            spec,
		ExperienceLabel: spec.ExperienceLabel(),
		SalaryLabel:     spec.SalaryLabel(),
		Summary:         summary,
	}
	if !t.IsEmpty() {
		res.TableID = t.ID().String()
	}
	for _, id := range Charts {
		surface, ok := c.state.charts[id]
		if !ok {
			continue
		}
		if err := surface.Draw(View(id, summary)); err != nil {
			c.logger.Warn("draw chart", zap.String("chart", string(id)), zap.Error(err))
		}
	}
	c.last = res
	took := time.Since(start)
	if c.cfg.OnCycle != nil {
		c.cfg.OnCycle(took, res.Rows, res.Matched)
	}
	c.logger.Debug("cycle", zap.Int("rows", res.Rows), zap.Int("matched", res.Matched), zap.Duration("took", took))
	return res
}

// Reason turns a load error into the message shown to users.
func Reason(err error) string {
	var perr *parser.ParseError
	if errors.As(err, &perr) {
		return perr.Reason()
	}
	var uerr *source.UnavailableError
	if errors.As(err, &uerr) {
		return uerr.Reason()
	}
	if errors.Is(err, source.ErrNoSource) {
		return "Please provide either a Google Sheet URL or paste CSV data."
	}
	return err.Error()
}
