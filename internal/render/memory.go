// Package render provides dashboard rendering sinks: an in-memory frame
// store, chart images, and a fan-out to several sinks.
package render

import (
	"errors"
	"sync"
	"time"

	"github.com/KaramelBytes/candidash/internal/dashboard"
)

// ErrDisposed is returned when drawing on a released surface.
var ErrDisposed = errors.New("surface disposed")

// Frame is the latest view drawn on one chart.
type Frame struct {
	Chart   dashboard.ChartID `json:"chart"`
	Seq     uint64            `json:"seq"`
	DrawnAt time.Time         `json:"drawn_at"`
	View    any               `json:"view"`
}

// Memory keeps the latest frame per chart for readers such as the HTTP API.
type Memory struct {
	mu     sync.RWMutex
	seq    uint64
	frames map[dashboard.ChartID]Frame
	live   map[*memorySurface]struct{}
}

func NewMemory() *Memory {
	return &Memory{
		frames: make(map[dashboard.ChartID]Frame),
		live:   make(map[*memorySurface]struct{}),
	}
}

func (m *Memory) Open(id dashboard.ChartID) (dashboard.Surface, error) {
	s := &memorySurface{parent: m, id: id}
	m.mu.Lock()
	m.live[s] = struct{}{}
	m.mu.Unlock()
	return s, nil
}

// Frame returns the latest frame for a chart.
func (m *Memory) Frame(id dashboard.ChartID) (Frame, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.frames[id]
	return f, ok
}

// Frames returns every current frame in layout order.
func (m *Memory) Frames() []Frame {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Frame, 0, len(m.frames))
	for _, id := range dashboard.Charts {
		if f, ok := m.frames[id]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Live reports how many surfaces are open.
func (m *Memory) Live() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.live)
}

type memorySurface struct {
	parent   *Memory
	id       dashboard.ChartID
	disposed bool
}

func (s *memorySurface) Draw(view any) error {
	m := s.parent
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.disposed {
		return ErrDisposed
	}
	m.seq++
	m.frames[s.id] = Frame{Chart: s.id, Seq: m.seq, DrawnAt: time.Now(), View: view}
	return nil
}

func (s *memorySurface) Dispose() error {
	m := s.parent
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.disposed {
		return nil
	}
	s.disposed = true
	delete(m.live, s)
	delete(m.frames, s.id)
	return nil
}
