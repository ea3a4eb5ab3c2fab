// Package source fetches raw CSV text for the dashboard from pasted text,
// local files, published spreadsheet URLs and the Google Sheets API.
package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/candidash/internal/parser"
)

// Source yields raw CSV text or fails.
type Source interface {
	Fetch(ctx context.Context) (string, error)
	Describe() string
}

// ErrNoSource is returned by Select when neither text nor a URL was given.
var ErrNoSource = errors.New("no csv text or url provided")

// Text is CSV pasted by the user.
type Text struct {
	Body  string
	Label string
}

func (t Text) Fetch(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return t.Body, nil
}

func (t Text) Describe() string {
	if t.Label != "" {
		return t.Label
	}
	return "Pasted CSV Data"
}

// File reads a csv, txt or xlsx file from disk.
type File struct {
	Path string
}

func (f File) Fetch(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "", &UnavailableError{Source: f.Describe(), Direct: err}
	}
	text, err := parser.ToCSV(f.Path, data)
	if err != nil {
		return "", &UnavailableError{Source: f.Describe(), Direct: err}
	}
	return text, nil
}

func (f File) Describe() string { return "File " + filepath.Base(f.Path) }

// Select picks the source the way the load dialog does: pasted text wins
// over a URL, and one of the two is required.
func Select(pasted, url string, opts HTTPOptions) (Source, error) {
	pasted = strings.TrimSpace(pasted)
	url = strings.TrimSpace(url)
	switch {
	case pasted != "":
		return Text{Body: pasted}, nil
	case url != "":
		return NewHTTP(url, opts), nil
	default:
		return nil, ErrNoSource
	}
}

// UnavailableError reports a failed fetch. For URLs both the direct and the
// proxy attempt are recorded.
type UnavailableError struct {
	Source string
	Direct error
	Proxy  error
}

// ErrUnavailable matches any *UnavailableError via errors.Is.
var ErrUnavailable = errors.New("data source unavailable")

func (e *UnavailableError) Error() string {
	if e == nil {
		return "unavailable"
	}
	if e.Proxy != nil {
		return fmt.Sprintf("load %s: %v; proxy: %v", e.Source, e.Direct, e.Proxy)
	}
	return fmt.Sprintf("load %s: %v", e.Source, e.Direct)
}

func (e *UnavailableError) Is(target error) bool { return target == ErrUnavailable }

func (e *UnavailableError) Unwrap() []error {
	var out []error
	if e.Direct != nil {
		out = append(out, e.Direct)
	}
	if e.Proxy != nil {
		out = append(out, e.Proxy)
	}
	return out
}

// Reason is the user-facing message for a failed load.
func (e *UnavailableError) Reason() string {
	if e.Proxy != nil {
		return fmt.Sprintf("Failed to load data source. Reason: %v. Proxy Reason: %v", e.Direct, e.Proxy)
	}
	return fmt.Sprintf("Failed to load data source. Reason: %v", e.Direct)
}
