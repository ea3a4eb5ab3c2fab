package dataset

// Well-known candidate columns, as they appear after header normalization.
const (
	CandidateID          = "Candidate_ID"
	Specialization       = "Specialization"
	City                 = "City"
	Gender               = "Gender"
	EducationLevel       = "Education_Level"
	EmploymentStatus     = "Employment_Status"
	ExpectedSalary       = "Expected_Salary"
	YearsOfExperience    = "Years_of_Experience"
	Age                  = "Age"
	NumberOfCertificates = "Number_of_Certificates"
)

// EmployedStatus is the Employment_Status value counted by the employed KPI.
const EmployedStatus = "Employed"

var numericFields = map[string]struct{}{
	ExpectedSalary:       {},
	YearsOfExperience:    {},
	Age:                  {},
	NumberOfCertificates: {},
}

// IsNumeric reports whether the named column is coerced to a number on parse.
// The set is closed; every other column stays text.
func IsNumeric(field string) bool {
	_, ok := numericFields[field]
	return ok
}

// NumericFields lists the coerced columns in a stable order.
func NumericFields() []string {
	return []string{ExpectedSalary, YearsOfExperience, Age, NumberOfCertificates}
}
