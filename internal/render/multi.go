package render

import (
	"errors"

	"github.com/KaramelBytes/candidash/internal/dashboard"
)

// Multi fans every surface out to several renderers.
type Multi []dashboard.Renderer

func (m Multi) Open(id dashboard.ChartID) (dashboard.Surface, error) {
	var (
		surfaces multiSurface
		errs     []error
	)
	for _, r := range m {
		s, err := r.Open(id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		surfaces = append(surfaces, s)
	}
	if len(surfaces) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return surfaces, nil
}

type multiSurface []dashboard.Surface

func (ms multiSurface) Draw(view any) error {
	var errs []error
	for _, s := range ms {
		if err := s.Draw(view); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (ms multiSurface) Dispose() error {
	var errs []error
	for _, s := range ms {
		if err := s.Dispose(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
