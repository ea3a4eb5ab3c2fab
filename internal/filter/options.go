package filter

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/KaramelBytes/candidash/internal/dataset"
)

// Limits are the configured slider sentinels.
type Limits struct {
	MaxExperience float64
	MaxSalary     float64
}

// DefaultLimits returns the stock slider maxima.
func DefaultLimits() Limits {
	return Limits{MaxExperience: DefaultMaxExperience, MaxSalary: DefaultMaxSalary}
}

// Options describes the selectable values for the current table.
type Options struct {
	Specializations []string `json:"specializations"`
	Cities          []string `json:"cities"`
	Genders         []string `json:"genders"`
	Education       []string `json:"education"`
	Statuses        []string `json:"statuses"`
	MaxExperience   float64  `json:"max_experience"`
	MaxSalary       float64  `json:"max_salary"`

	// multi-select fields where some record has an empty value
	blanks Set
}

// OptionsFor lists the sorted, non-empty distinct values per filter dimension.
// Slider maxima are the configured sentinel or the largest observed value,
// whichever is higher.
func OptionsFor(t *dataset.Table, limits Limits) Options {
	if limits.MaxExperience <= 0 {
		limits.MaxExperience = DefaultMaxExperience
	}
	if limits.MaxSalary <= 0 {
		limits.MaxSalary = DefaultMaxSalary
	}
	blanks := NewSet()
	for _, f := range []string{dataset.Gender, dataset.EducationLevel, dataset.EmploymentStatus} {
		for _, r := range t.Records() {
			if r.Text(f) == "" {
				blanks[f] = struct{}{}
				break
			}
		}
	}
	return Options{
		Specializations: t.Distinct(dataset.Specialization),
		Cities:          t.Distinct(dataset.City),
		Genders:         t.Distinct(dataset.Gender),
		Education:       t.Distinct(dataset.EducationLevel),
		Statuses:        t.Distinct(dataset.EmploymentStatus),
		MaxExperience:   math.Max(limits.MaxExperience, t.Max(dataset.YearsOfExperience)),
		MaxSalary:       math.Max(limits.MaxSalary, t.Max(dataset.ExpectedSalary)),
		blanks:          blanks,
	}
}

// DefaultSpec is the "reset filters" snapshot: every single-select at All,
// every checkbox checked, both sliders at their maximum. Rows with a blank
// multi-select value are accepted too, so the reset view shows every row.
func (o Options) DefaultSpec() Spec {
	return Spec{
		Specialization: All,
		City:           All,
		Genders:        o.checked(dataset.Gender, o.Genders),
		Education:      o.checked(dataset.EducationLevel, o.Education),
		Statuses:       o.checked(dataset.EmploymentStatus, o.Statuses),
		MaxExperience:  o.MaxExperience,
		MaxSalary:      o.MaxSalary,
	}
}

func (o Options) checked(field string, values []string) Set {
	s := NewSet(values...)
	if o.blanks.Has(field) {
		s[""] = struct{}{}
	}
	return s
}

var validate = validator.New()

// ValidationError lists every problem found in a spec.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid filter: " + strings.Join(e.Problems, "; ")
}

// Validate checks bounds and that every selection is a known value.
func (o Options) Validate(spec Spec) error {
	var problems []string
	if err := validate.Struct(spec); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				problems = append(problems, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
		} else {
			return fmt.Errorf("validate filter: %w", err)
		}
	}
	if spec.Specialization != "" && spec.Specialization != All && !contains(o.Specializations, spec.Specialization) {
		problems = append(problems, fmt.Sprintf("unknown specialization %q", spec.Specialization))
	}
	if spec.City != "" && spec.City != All && !contains(o.Cities, spec.City) {
		problems = append(problems, fmt.Sprintf("unknown city %q", spec.City))
	}
	problems = o.appendUnknown(problems, dataset.Gender, spec.Genders, o.Genders)
	problems = o.appendUnknown(problems, dataset.EducationLevel, spec.Education, o.Education)
	problems = o.appendUnknown(problems, dataset.EmploymentStatus, spec.Statuses, o.Statuses)
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func (o Options) appendUnknown(problems []string, field string, set Set, known []string) []string {
	for _, v := range set.Values() {
		if v == "" && o.blanks.Has(field) {
			continue
		}
		if !contains(known, v) {
			problems = append(problems, fmt.Sprintf("unknown %s %q", field, v))
		}
	}
	return problems
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
