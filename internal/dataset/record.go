package dataset

import (
	"bytes"
	"encoding/json"
)

// Schema is the header-derived field list shared by every record of a table.
// Duplicate header names collapse into one field at their first position.
type Schema struct {
	fields []string
	index  map[string]int
}

// NewSchema builds a schema from header names in order.
func NewSchema(names ...string) *Schema {
	s := &Schema{index: make(map[string]int, len(names))}
	for _, n := range names {
		if _, ok := s.index[n]; ok {
			continue
		}
		s.index[n] = len(s.fields)
		s.fields = append(s.fields, n)
	}
	return s
}

// Fields returns the field names in header order.
func (s *Schema) Fields() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.fields))
	copy(out, s.fields)
	return out
}

func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.fields)
}

// Index returns the position of a field.
func (s *Schema) Index(name string) (int, bool) {
	if s == nil {
		return 0, false
	}
	i, ok := s.index[name]
	return i, ok
}

func (s *Schema) Has(name string) bool {
	_, ok := s.Index(name)
	return ok
}

// Record is one parsed data row. It is immutable once built.
type Record struct {
	schema *Schema
	values []Value
}

// Builder assembles a record; later Set calls for the same field win.
type Builder struct {
	schema *Schema
	values []Value
}

// NewBuilder starts a record for the schema with every field empty.
func (s *Schema) NewBuilder() *Builder {
	return &Builder{schema: s, values: make([]Value, s.Len())}
}

// Set assigns a field; unknown names are ignored.
func (b *Builder) Set(name string, v Value) *Builder {
	if i, ok := b.schema.Index(name); ok {
		b.values[i] = v
	}
	return b
}

// Record freezes the builder. The builder must not be reused afterwards.
func (b *Builder) Record() Record {
	r := Record{schema: b.schema, values: b.values}
	b.values = nil
	return r
}

// Schema returns the record's field layout.
func (r Record) Schema() *Schema { return r.schema }

// Get returns the value of a field and whether the field exists.
func (r Record) Get(name string) (Value, bool) {
	i, ok := r.schema.Index(name)
	if !ok {
		return Value{}, false
	}
	return r.values[i], true
}

// Text returns the field rendered as a string ("" when absent).
func (r Record) Text(name string) string {
	v, _ := r.Get(name)
	return v.String()
}

// Number returns the field as a number (0 when absent or not numeric).
func (r Record) Number(name string) float64 {
	v, _ := r.Get(name)
	return v.Float()
}

// Equal compares field names and values.
func (r Record) Equal(o Record) bool {
	if r.schema == nil {
		return o.schema.Len() == 0
	}
	if r.schema.Len() != o.schema.Len() {
		return false
	}
	for i, name := range r.schema.fields {
		ov, ok := o.Get(name)
		if !ok || !r.values[i].Equal(ov) {
			return false
		}
	}
	return true
}

// MarshalJSON writes the record as an object with keys in header order.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.schema == nil {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.schema.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := r.values[i].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
