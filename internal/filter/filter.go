package filter

import "github.com/KaramelBytes/candidash/internal/dataset"

// Apply returns the records passing every clause of spec, in their original
// order. It never fails; the result may be empty.
func Apply(records []dataset.Record, spec Spec) []dataset.Record {
	out := make([]dataset.Record, 0, len(records))
	for _, r := range records {
		if Matches(r, spec) {
			out = append(out, r)
		}
	}
	return out
}

// Matches reports whether a single record passes all clauses.
func Matches(r dataset.Record, spec Spec) bool {
	if spec.Specialization != All && r.Text(dataset.Specialization) != spec.Specialization {
		return false
	}
	if spec.City != All && r.Text(dataset.City) != spec.City {
		return false
	}
	if !spec.Genders.Has(r.Text(dataset.Gender)) ||
		!spec.Education.Has(r.Text(dataset.EducationLevel)) ||
		!spec.Statuses.Has(r.Text(dataset.EmploymentStatus)) {
		return false
	}
	// bounds are literal and inclusive
	return r.Number(dataset.YearsOfExperience) <= spec.MaxExperience &&
		r.Number(dataset.ExpectedSalary) <= spec.MaxSalary
}
