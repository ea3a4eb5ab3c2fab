package parser

import (
	"strings"

	"github.com/KaramelBytes/candidash/internal/dataset"
)

// Coerce converts an unquoted cell for the named column. Numeric columns
// never fail: anything unparseable becomes 0.
func Coerce(field, raw string) dataset.Value {
	if dataset.IsNumeric(field) {
		return dataset.Number(CoerceNumber(raw))
	}
	return dataset.Text(raw)
}

// CoerceNumber strips thousands separators, units and any other character
// that is not a digit, '.', or '-', then reads the leading decimal number.
// "1,234.5 EGP" becomes 1234.5; "" becomes 0.
func CoerceNumber(raw string) float64 {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	f := dataset.LeadingFloat(b.String())
	if f == 0 {
		return 0
	}
	return f
}
