// Package filter narrows a candidate table to the rows matching the current
// dashboard selections.
package filter

import (
	"encoding/json"
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// All is the single-select sentinel meaning "no constraint".
const All = "All"

// Slider sentinels: a bound at or above these is shown as unlimited.
const (
	DefaultMaxExperience = 25
	DefaultMaxSalary     = 100000
)

// Set is an accepted-value set for a multi-select dimension. An empty (or nil)
// set accepts nothing.
type Set map[string]struct{}

// NewSet builds a set from values.
func NewSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Values returns the members sorted.
func (s Set) Values() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func (s Set) MarshalJSON() ([]byte, error) { return json.Marshal(s.Values()) }

func (s *Set) UnmarshalJSON(b []byte) error {
	var vals []string
	if err := json.Unmarshal(b, &vals); err != nil {
		return err
	}
	*s = NewSet(vals...)
	return nil
}

// Spec is one snapshot of the filter selections. It is rebuilt for every
// recomputation rather than mutated.
type Spec struct {
	Specialization string  `json:"specialization" validate:"required"`
	City           string  `json:"city" validate:"required"`
	Genders        Set     `json:"genders"`
	Education      Set     `json:"education"`
	Statuses       Set     `json:"statuses"`
	MaxExperience  float64 `json:"max_experience" validate:"gte=0"`
	MaxSalary      float64 `json:"max_salary" validate:"gte=0"`
}

// Clone returns a deep copy so callers can derive a spec without aliasing sets.
func (s Spec) Clone() Spec {
	cp := s
	cp.Genders = NewSet(s.Genders.Values()...)
	cp.Education = NewSet(s.Education.Values()...)
	cp.Statuses = NewSet(s.Statuses.Values()...)
	return cp
}

// ExperienceLabel renders the experience bound the way the slider shows it.
func (s Spec) ExperienceLabel() string {
	return BoundLabel(s.MaxExperience, DefaultMaxExperience, "Yrs")
}

// SalaryLabel renders the salary bound the way the slider shows it.
func (s Spec) SalaryLabel() string {
	return BoundLabel(s.MaxSalary, DefaultMaxSalary, "")
}

var printer = message.NewPrinter(language.English)

// BoundLabel returns "All" when bound is at or above the sentinel, otherwise
// "<= N unit" with N grouped by thousands.
func BoundLabel(bound, sentinel float64, unit string) string {
	if bound >= sentinel {
		return All
	}
	label := printer.Sprintf("<= %d", int64(bound))
	if unit != "" {
		label += " " + unit
	}
	return label
}
