package source

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/KaramelBytes/candidash/internal/parser"
)

// DefaultSheetsRange reads the first sheet's used columns.
const DefaultSheetsRange = "A:Z"

// Sheets reads a spreadsheet range through the Sheets v4 API.
type Sheets struct {
	id  string
	rng string
	svc *sheets.Service
}

// NewSheets builds a client authenticated with an API key. Extra client
// options (endpoint, HTTP client) override the defaults.
func NewSheets(ctx context.Context, spreadsheetID, rng, apiKey string, opts ...option.ClientOption) (*Sheets, error) {
	if spreadsheetID == "" {
		return nil, errors.New("spreadsheet id is required")
	}
	if apiKey == "" && len(opts) == 0 {
		return nil, errors.New("sheets api key is required")
	}
	if rng == "" {
		rng = DefaultSheetsRange
	}
	if apiKey != "" {
		opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}
	return &Sheets{id: spreadsheetID, rng: rng, svc: svc}, nil
}

func (s *Sheets) Describe() string { return fmt.Sprintf("Google Sheet %s (%s)", s.id, s.rng) }

func (s *Sheets) Fetch(ctx context.Context) (string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.id, s.rng).Context(ctx).Do()
	if err != nil {
		return "", &UnavailableError{Source: s.Describe(), Direct: err}
	}
	return ValuesToCSV(resp.Values), nil
}

// ValuesToCSV renders a Sheets value grid as CSV text.
func ValuesToCSV(values [][]interface{}) string {
	rows := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			switch x := v.(type) {
			case nil:
			case float64:
				cells[j] = strconv.FormatFloat(x, 'f', -1, 64)
			default:
				cells[j] = fmt.Sprint(x)
			}
		}
		rows[i] = cells
	}
	return parser.EncodeRows(rows)
}
