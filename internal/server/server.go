// Package server exposes the dashboard over HTTP: JSON endpoints for loading
// data and applying filters, a websocket feed of chart frames, and
// Prometheus metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	chirender "github.com/go-chi/render"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"github.com/KaramelBytes/candidash/internal/dashboard"
	"github.com/KaramelBytes/candidash/internal/filter"
	"github.com/KaramelBytes/candidash/internal/parser"
	"github.com/KaramelBytes/candidash/internal/render"
	"github.com/KaramelBytes/candidash/internal/source"
)

// Options configures data loading and request limits.
type Options struct {
	HTTP         source.HTTPOptions
	SheetsAPIKey string
	SheetsRange  string
	// SheetsClientOptions replace the API key when set.
	SheetsClientOptions []option.ClientOption
	LoadRate            float64
	LoadBurst           int
}

// Server wires one controller to the HTTP API, the websocket hub and the
// in-memory frame store.
type Server struct {
	ctrl    *dashboard.Controller
	frames  *render.Memory
	hub     *Hub
	metrics *Metrics
	limiter *rate.Limiter
	opts    Options
	logger  *zap.Logger
	router  chi.Router
}

// New builds the controller with the frame store and the hub as renderers,
// plus any extra renderers such as an image sink.
func New(cfg dashboard.Config, opts Options, logger *zap.Logger, extra ...dashboard.Renderer) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.LoadRate <= 0 {
		opts.LoadRate = 1
	}
	if opts.LoadBurst <= 0 {
		opts.LoadBurst = 3
	}
	if opts.SheetsRange == "" {
		opts.SheetsRange = source.DefaultSheetsRange
	}
	if opts.HTTP.Logger == nil {
		opts.HTTP.Logger = logger
	}

	s := &Server{
		frames:  render.NewMemory(),
		hub:     NewHub(logger),
		metrics: NewMetrics(),
		limiter: rate.NewLimiter(rate.Limit(opts.LoadRate), opts.LoadBurst),
		opts:    opts,
		logger:  logger.Named("server"),
	}
	s.hub.onCount = s.metrics.setClients

	next := cfg.OnCycle
	cfg.OnCycle = func(took time.Duration, rows, matched int) {
		s.metrics.ObserveCycle(took, rows, matched)
		if next != nil {
			next(took, rows, matched)
		}
	}
	renderers := append(render.Multi{s.frames, s.hub}, extra...)
	s.ctrl = dashboard.NewController(renderers, s.hub, cfg, logger)
	s.router = s.routes()
	return s
}

func (s *Server) Controller() *dashboard.Controller { return s.ctrl }
func (s *Server) Hub() *Hub                         { return s.hub }
func (s *Server) Handler() http.Handler             { return s.router }

// ListenAndServe runs the hub and the HTTP server until ctx is done, then
// shuts both down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.hub.Run(ctx)
		return nil
	})
	g.Go(func() error {
		s.logger.Info("listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return s.ctrl.Dispose()
	})
	return g.Wait()
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	// outside the group: Recoverer wraps the ResponseWriter, which breaks hijacking
	r.HandleFunc("/ws", s.hub.ServeWS)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Recoverer)
		r.Use(chirender.SetContentType(chirender.ContentTypeJSON))

		r.Get("/healthz", s.handleHealth)
		r.Route("/api", func(r chi.Router) {
			r.Get("/dataset", s.handleDataset)
			r.With(s.rateLimit).Post("/dataset", s.handleLoad)
			r.Delete("/dataset", s.handleClear)
			r.Get("/filters", s.handleFilters)
			r.Get("/dashboard", s.handleDashboardQuery)
			r.Post("/dashboard", s.handleDashboardJSON)
			r.Post("/dashboard/reset", s.handleReset)
			r.Post("/dashboard/redraw", s.handleRedraw)
			r.Get("/charts", s.handleCharts)
			r.Get("/charts/{id}", s.handleChart)
			r.Get("/export.csv", s.handleExport)
		})
	})
	return r
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			s.logger.Warn("rate limit exceeded", zap.String("path", r.URL.Path), zap.String("remote_addr", r.RemoteAddr))
			w.Header().Set("Retry-After", "1")
			writeError(w, r, errRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	chirender.JSON(w, r, map[string]any{
		"status":  "ok",
		"rows":    s.ctrl.Table().Len(),
		"clients": s.hub.ClientCount(),
	})
}

type datasetResponse struct {
	TableID  string    `json:"table_id,omitempty"`
	Source   string    `json:"source"`
	Rows     int       `json:"rows"`
	Fields   []string  `json:"fields"`
	LoadedAt time.Time `json:"loaded_at,omitempty"`
}

func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	t := s.ctrl.Table()
	resp := datasetResponse{Source: t.Source(), Rows: t.Len(), Fields: t.Schema().Fields()}
	if !t.IsEmpty() {
		resp.TableID = t.ID().String()
		resp.LoadedAt = t.LoadedAt()
	}
	chirender.JSON(w, r, resp)
}

type loadRequest struct {
	CSV     string `json:"csv"`
	URL     string `json:"url"`
	SheetID string `json:"sheet_id"`
	Range   string `json:"range"`
	Label   string `json:"label"`
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if err := chirender.DecodeJSON(r.Body, &req); err != nil {
		writeError(w, r, errInvalidRequest(err))
		return
	}
	src, apiErr := s.selectSource(r.Context(), req)
	if apiErr != nil {
		writeError(w, r, apiErr)
		return
	}
	res, err := s.ctrl.Load(r.Context(), src)
	s.metrics.observeLoad(err)
	if err != nil {
		writeError(w, r, errLoadFailed(dashboard.Reason(err)))
		return
	}
	chirender.Status(r, http.StatusCreated)
	chirender.JSON(w, r, res)
}

func (s *Server) selectSource(ctx context.Context, req loadRequest) (source.Source, *APIError) {
	if strings.TrimSpace(req.CSV) == "" && strings.TrimSpace(req.SheetID) != "" {
		rng := req.Range
		if rng == "" {
			rng = s.opts.SheetsRange
		}
		src, err := source.NewSheets(ctx, strings.TrimSpace(req.SheetID), rng, s.opts.SheetsAPIKey, s.opts.SheetsClientOptions...)
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "SHEETS_UNAVAILABLE", err.Error(), nil)
		}
		return src, nil
	}
	src, err := source.Select(req.CSV, req.URL, s.opts.HTTP)
	if err != nil {
		return nil, errMissingSource
	}
	if t, ok := src.(source.Text); ok && req.Label != "" {
		t.Label = req.Label
		src = t
	}
	return src, nil
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	res, err := s.ctrl.Clear(r.Context())
	if err != nil {
		writeError(w, r, errInternal)
		return
	}
	chirender.JSON(w, r, res)
}

type filtersResponse struct {
	Options filter.Options `json:"options"`
	Default filter.Spec    `json:"default"`
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	o := s.ctrl.Options()
	chirender.JSON(w, r, filtersResponse{Options: o, Default: o.DefaultSpec()})
}

func (s *Server) handleDashboardQuery(w http.ResponseWriter, r *http.Request) {
	o := s.ctrl.Options()
	spec, err := SpecFromQuery(r.URL.Query(), o.DefaultSpec())
	if err != nil {
		writeError(w, r, errInvalidRequest(err))
		return
	}
	s.update(w, r, o, spec)
}

func (s *Server) handleDashboardJSON(w http.ResponseWriter, r *http.Request) {
	o := s.ctrl.Options()
	spec := o.DefaultSpec()
	if err := chirender.DecodeJSON(r.Body, &spec); err != nil {
		writeError(w, r, errInvalidRequest(err))
		return
	}
	s.update(w, r, o, spec)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request, o filter.Options, spec filter.Spec) {
	if err := o.Validate(spec); err != nil {
		var verr *filter.ValidationError
		if errors.As(err, &verr) {
			writeError(w, r, errValidation(verr.Problems))
			return
		}
		writeError(w, r, errInvalidRequest(err))
		return
	}
	res, err := s.ctrl.Update(r.Context(), spec)
	if err != nil {
		writeError(w, r, errInternal)
		return
	}
	chirender.JSON(w, r, res)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	res, err := s.ctrl.Reset(r.Context())
	if err != nil {
		writeError(w, r, errInternal)
		return
	}
	chirender.JSON(w, r, res)
}

// handleRedraw re-creates every chart, for example after a theme switch,
// keeping the last applied filter.
func (s *Server) handleRedraw(w http.ResponseWriter, r *http.Request) {
	spec := s.ctrl.Options().DefaultSpec()
	if last := s.ctrl.Last(); last != nil {
		spec = last.Spec
	}
	res, err := s.ctrl.Redraw(r.Context(), spec)
	if err != nil {
		writeError(w, r, errInternal)
		return
	}
	chirender.JSON(w, r, res)
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	chirender.JSON(w, r, s.frames.Frames())
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	id := dashboard.ChartID(chi.URLParam(r, "id"))
	f, ok := s.frames.Frame(id)
	if !ok {
		writeError(w, r, errNotFound("chart "+string(id)))
		return
	}
	chirender.JSON(w, r, f)
}

// handleExport writes the rows matching the last applied filter as CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	t := s.ctrl.Table()
	spec := s.ctrl.Options().DefaultSpec()
	if last := s.ctrl.Last(); last != nil {
		spec = last.Spec
	}
	rows := filter.Apply(t.Records(), spec)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="candidates.csv"`)
	_, _ = w.Write([]byte(parser.Encode(t.Schema(), rows)))
}

// SpecFromQuery overlays query parameters on base. Multi-selects
// (gender, education, status) may repeat or be comma separated; an empty
// value selects nothing.
func SpecFromQuery(q url.Values, base filter.Spec) (filter.Spec, error) {
	spec := base.Clone()
	if v := q.Get("specialization"); v != "" {
		spec.Specialization = v
	}
	if v := q.Get("city"); v != "" {
		spec.City = v
	}
	for key, dst := range map[string]*filter.Set{
		"gender":    &spec.Genders,
		"education": &spec.Education,
		"status":    &spec.Statuses,
	} {
		vals, ok := q[key]
		if !ok {
			continue
		}
		set := filter.NewSet()
		for _, v := range vals {
			for _, part := range strings.Split(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					set[part] = struct{}{}
				}
			}
		}
		*dst = set
	}
	for key, dst := range map[string]*float64{
		"max_experience": &spec.MaxExperience,
		"max_salary":     &spec.MaxSalary,
	} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return spec, fmt.Errorf("parse %s: %w", key, err)
		}
		*dst = f
	}
	return spec, nil
}
