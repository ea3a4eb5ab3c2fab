package dataset

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Table is a loaded, ordered set of records. Tables are never mutated after
// construction; a reload produces a new Table.
type Table struct {
	id       uuid.UUID
	source   string
	loadedAt time.Time
	schema   *Schema
	records  []Record
}

// NewTable wraps parsed records. The table takes ownership of the slice.
func NewTable(schema *Schema, records []Record) *Table {
	return &Table{
		id:       uuid.New(),
		loadedAt: time.Now(),
		schema:   schema,
		records:  records,
	}
}

// Empty returns the "no data loaded" table.
func Empty() *Table { return &Table{schema: NewSchema()} }

// WithSource returns a copy labelled with where the data came from.
func (t *Table) WithSource(source string) *Table {
	cp := *t
	cp.source = source
	return &cp
}

// ID is the load id; the empty table has the nil UUID.
func (t *Table) ID() uuid.UUID { return t.id }

func (t *Table) Source() string { return t.source }

func (t *Table) LoadedAt() time.Time { return t.loadedAt }

func (t *Table) Schema() *Schema { return t.schema }

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

func (t *Table) IsEmpty() bool { return t.Len() == 0 }

// Records returns the rows in load order. Callers must treat the slice as read-only.
func (t *Table) Records() []Record {
	if t == nil {
		return nil
	}
	return t.records
}

// Distinct returns the sorted, non-empty distinct text values of a field.
func (t *Table) Distinct(field string) []string {
	return Distinct(t.Records(), field)
}

// Max returns the largest numeric value of a field (0 for an empty set).
func (t *Table) Max(field string) float64 {
	var m float64
	for i, r := range t.Records() {
		v := r.Number(field)
		if i == 0 || v > m {
			m = v
		}
	}
	return m
}

// Distinct returns the sorted, non-empty distinct text values of a field.
func Distinct(records []Record, field string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range records {
		v := r.Text(field)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
