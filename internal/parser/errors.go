package parser

import "errors"

// Sentinel kinds matched with errors.Is against a *ParseError.
var (
	ErrEmptyInput  = errors.New("empty input")
	ErrNoValidRows = errors.New("no valid rows")
)

// ErrUnsupported indicates a file format has no registered converter.
var ErrUnsupported = errors.New("unsupported document format")

// ParseError reports why CSV text could not produce a table.
type ParseError struct {
	Kind  error
	Lines int
}

func (e *ParseError) Error() string {
	if e == nil {
		return "parse error"
	}
	return "parse csv: " + e.Kind.Error()
}

func (e *ParseError) Unwrap() error { return e.Kind }

// Reason is the human-readable message shown to users.
func (e *ParseError) Reason() string {
	switch e.Kind {
	case ErrEmptyInput:
		return "CSV appears to be empty"
	case ErrNoValidRows:
		return "No valid data rows found in CSV"
	default:
		return e.Error()
	}
}
