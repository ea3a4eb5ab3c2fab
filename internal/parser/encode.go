package parser

import (
	"strings"

	"github.com/KaramelBytes/candidash/internal/dataset"
)

// Encode serializes records back to CSV text that Parse reads into equal records.
func Encode(schema *dataset.Schema, records []dataset.Record) string {
	fields := schema.Fields()
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, fields)
	for _, r := range records {
		row := make([]string, len(fields))
		for i, f := range fields {
			row[i] = r.Text(f)
		}
		rows = append(rows, row)
	}
	return EncodeRows(rows)
}

// EncodeRows writes rows of raw cells, one line each, with "\n" endings.
func EncodeRows(rows [][]string) string {
	var b strings.Builder
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(quoteCell(cell))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// quoteCell quotes cells the splitter or the quote stripping would alter.
func quoteCell(s string) string {
	if s == "" {
		return s
	}
	needs := strings.ContainsAny(s, ",\"'\r\n") || strings.TrimSpace(s) != s
	if !needs {
		return s
	}
	// Wrap in an extra pair of single quotes when the content itself starts or
	// ends with a quote, so stripping one quote on read restores it.
	inner := s
	if s[0] == '"' || s[0] == '\'' || s[len(s)-1] == '"' || s[len(s)-1] == '\'' || strings.TrimSpace(s) != s {
		inner = "'" + s + "'"
	}
	return `"` + strings.ReplaceAll(inner, `"`, `""`) + `"`
}
