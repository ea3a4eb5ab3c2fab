package parser

import (
	"regexp"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/KaramelBytes/candidash/internal/dataset"
)

var (
	lineBreak  = regexp.MustCompile(`\r?\n`)
	// ASCII whitespace plus vertical tab, Unicode separators (NBSP, thin
	// spaces, line/paragraph separators) and a stray zero-width no-break space.
	whitespace = regexp.MustCompile(`[\s\x0B\p{Z}\x{FEFF}]+`)
)

// Parse turns CSV text into a table. It fails with a *ParseError of kind
// ErrEmptyInput when no non-blank line exists and ErrNoValidRows when the
// header is followed by no usable data row. Rows with fewer than two fields
// are skipped; short rows are padded with empty strings.
func Parse(text string) (*dataset.Table, error) {
	text = stripBOM(text)

	var lines []string
	for _, l := range lineBreak.Split(text, -1) {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return nil, &ParseError{Kind: ErrEmptyInput}
	}

	headers := SplitLine(lines[0])
	for i, h := range headers {
		headers[i] = NormalizeHeader(h)
	}
	schema := dataset.NewSchema(headers...)

	records := make([]dataset.Record, 0, len(lines)-1)
	for _, line := range lines[1:] {
		values := SplitLine(line)
		if len(values) < 2 {
			continue
		}
		b := schema.NewBuilder()
		for i, h := range headers {
			raw := ""
			if i < len(values) {
				raw = values[i]
			}
			b.Set(h, Coerce(h, unquote(raw)))
		}
		records = append(records, b.Record())
	}
	if len(records) == 0 {
		return nil, &ParseError{Kind: ErrNoValidRows, Lines: len(lines)}
	}
	return dataset.NewTable(schema, records), nil
}

// SplitLine splits one CSV line. A double quote toggles quoted mode, a doubled
// quote inside quotes is a literal quote, a comma outside quotes ends a field.
// Every field is trimmed.
func SplitLine(line string) []string {
	var (
		values   []string
		cur      strings.Builder
		inQuotes bool
	)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				cur.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case c == ',' && !inQuotes:
			values = append(values, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	return append(values, strings.TrimSpace(cur.String()))
}

// NormalizeHeader strips one surrounding quote and joins whitespace runs with '_'.
func NormalizeHeader(h string) string {
	return whitespace.ReplaceAllString(unquote(h), "_")
}

// unquote removes at most one leading and one trailing quote character (" or ').
func unquote(s string) string {
	if s != "" && (s[0] == '"' || s[0] == '\'') {
		s = s[1:]
	}
	if s != "" && (s[len(s)-1] == '"' || s[len(s)-1] == '\'') {
		s = s[:len(s)-1]
	}
	return s
}

// stripBOM drops a UTF-8 byte-order mark; a UTF-16 mark also decodes the text.
func stripBOM(text string) string {
	if text == "" {
		return text
	}
	out, _, err := transform.String(unicode.BOMOverride(transform.Nop), text)
	if err != nil {
		return strings.TrimPrefix(text, "\ufeff")
	}
	return out
}
