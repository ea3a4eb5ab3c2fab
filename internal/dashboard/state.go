package dashboard

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/candidash/internal/dataset"
)

// Renderer opens drawing surfaces, one per chart.
type Renderer interface {
	Open(id ChartID) (Surface, error)
}

// Surface is one live chart. Dispose releases it; a disposed surface is not drawn again.
type Surface interface {
	Draw(view any) error
	Dispose() error
}

// Notifier receives user-facing failure reasons.
type Notifier interface {
	Notify(reason string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(reason string)

func (f NotifierFunc) Notify(reason string) { f(reason) }

// State is the single owned dashboard state: the loaded table and the
// open chart surfaces.
type State struct {
	table  *dataset.Table
	charts map[ChartID]Surface
}

func newState() State {
	return State{table: dataset.Empty(), charts: make(map[ChartID]Surface)}
}

// load installs a new table in one assignment.
func (s *State) load(t *dataset.Table) { s.table = t }

func (s *State) clear() { s.table = dataset.Empty() }

// dispose releases every surface and forgets them.
func (s *State) dispose() error {
	var errs []error
	for id, c := range s.charts {
		if err := c.Dispose(); err != nil {
			errs = append(errs, fmt.Errorf("dispose %s: %w", id, err))
		}
	}
	s.charts = make(map[ChartID]Surface)
	return errors.Join(errs...)
}

// open creates surfaces for charts that have none.
func (s *State) open(r Renderer) error {
	var errs []error
	for _, id := range Charts {
		if _, ok := s.charts[id]; ok {
			continue
		}
		c, err := r.Open(id)
		if err != nil {
			errs = append(errs, fmt.Errorf("open %s: %w", id, err))
			continue
		}
		s.charts[id] = c
	}
	return errors.Join(errs...)
}
