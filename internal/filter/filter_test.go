package filter_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/candidash/internal/dataset"
	"github.com/KaramelBytes/candidash/internal/filter"
	"github.com/KaramelBytes/candidash/internal/parser"
)

const candidates = `Candidate_ID,Specialization,City,Gender,Education_Level,Employment_Status,Years_of_Experience,Expected_Salary
C1,Software Engineer,Cairo,Male,Bachelor,Employed,3,15000
C2,Data Scientist,Giza,Female,Master,Unemployed,7,22000
C3,Software Engineer,Alexandria,Female,Bachelor,Employed,12,40000
C4,Accountant,Cairo,Male,PhD,Freelancer,30,120000
C5,Accountant,Cairo,,Bachelor,Employed,1,8000
`

func load(t *testing.T) *dataset.Table {
	t.Helper()
	tbl, err := parser.Parse(candidates)
	require.NoError(t, err)
	return tbl
}

func ids(records []dataset.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Text(dataset.CandidateID)
	}
	return out
}

func TestApply_DefaultSpecKeepsEverything(t *testing.T) {
	tbl := load(t)
	opts := filter.OptionsFor(tbl, filter.DefaultLimits())
	got := filter.Apply(tbl.Records(), opts.DefaultSpec())
	assert.Equal(t, []string{"C1", "C2", "C3", "C4", "C5"}, ids(got))
}

func TestDefaultSpec_AcceptsBlankValues(t *testing.T) {
	tbl := load(t)
	opts := filter.OptionsFor(tbl, filter.DefaultLimits())
	assert.Equal(t, []string{"Female", "Male"}, opts.Genders)

	spec := opts.DefaultSpec()
	assert.True(t, spec.Genders.Has(""))
	assert.False(t, spec.Education.Has(""))
	require.NoError(t, opts.Validate(spec))

	spec.Education = filter.NewSet("Bachelor", "")
	var verr *filter.ValidationError
	require.ErrorAs(t, opts.Validate(spec), &verr)
	assert.Len(t, verr.Problems, 1)

	spec = opts.DefaultSpec()
	spec.Genders = filter.NewSet("Female", "Male")
	assert.NotContains(t, ids(filter.Apply(tbl.Records(), spec)), "C5")
}

func TestApply_EmptyAcceptedSetRejectsAll(t *testing.T) {
	tbl := load(t)
	opts := filter.OptionsFor(tbl, filter.DefaultLimits())
	for _, mutate := range []func(*filter.Spec){
		func(s *filter.Spec) { s.Genders = filter.NewSet() },
		func(s *filter.Spec) { s.Education = nil },
		func(s *filter.Spec) { s.Statuses = filter.Set{} },
	} {
		spec := opts.DefaultSpec()
		mutate(&spec)
		assert.Empty(t, filter.Apply(tbl.Records(), spec))
	}
}

func TestApply_Clauses(t *testing.T) {
	tbl := load(t)
	opts := filter.OptionsFor(tbl, filter.DefaultLimits())

	spec := opts.DefaultSpec()
	spec.Specialization = "Software Engineer"
	assert.Equal(t, []string{"C1", "C3"}, ids(filter.Apply(tbl.Records(), spec)))

	spec = opts.DefaultSpec()
	spec.City = "cairo"
	assert.Empty(t, filter.Apply(tbl.Records(), spec), "single-select match is case-sensitive")

	spec = opts.DefaultSpec()
	spec.Genders = filter.NewSet("Female")
	assert.Equal(t, []string{"C2", "C3"}, ids(filter.Apply(tbl.Records(), spec)))

	spec = opts.DefaultSpec()
	spec.MaxExperience = 7
	spec.MaxSalary = 22000
	assert.Equal(t, []string{"C1", "C2", "C5"}, ids(filter.Apply(tbl.Records(), spec)), "bounds are inclusive")
}

func TestApply_SentinelBoundIsLiteral(t *testing.T) {
	tbl := load(t)
	opts := filter.OptionsFor(tbl, filter.DefaultLimits())
	spec := opts.DefaultSpec()
	spec.MaxExperience = filter.DefaultMaxExperience
	spec.MaxSalary = filter.DefaultMaxSalary
	assert.Equal(t, []string{"C1", "C2", "C3", "C5"}, ids(filter.Apply(tbl.Records(), spec)))
}

func TestOptionsFor(t *testing.T) {
	tbl := load(t)
	opts := filter.OptionsFor(tbl, filter.DefaultLimits())
	assert.Equal(t, []string{"Accountant", "Data Scientist", "Software Engineer"}, opts.Specializations)
	assert.Equal(t, []string{"Alexandria", "Cairo", "Giza"}, opts.Cities)
	assert.Equal(t, []string{"Female", "Male"}, opts.Genders)
	assert.Equal(t, float64(30), opts.MaxExperience)
	assert.Equal(t, float64(120000), opts.MaxSalary)

	empty := filter.OptionsFor(dataset.Empty(), filter.Limits{})
	assert.Equal(t, float64(filter.DefaultMaxExperience), empty.MaxExperience)
	assert.Equal(t, float64(filter.DefaultMaxSalary), empty.MaxSalary)
	assert.Empty(t, empty.Cities)
}

func TestValidate(t *testing.T) {
	tbl := load(t)
	opts := filter.OptionsFor(tbl, filter.DefaultLimits())
	require.NoError(t, opts.Validate(opts.DefaultSpec()))

	spec := opts.DefaultSpec()
	spec.City = "Atlantis"
	spec.Statuses = filter.NewSet("Employed", "Retired")
	spec.MaxSalary = -1
	err := opts.Validate(spec)
	var verr *filter.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Problems, 3)
}

func TestBoundLabel(t *testing.T) {
	assert.Equal(t, "All", filter.BoundLabel(25, filter.DefaultMaxExperience, "Yrs"))
	assert.Equal(t, "All", filter.BoundLabel(30, filter.DefaultMaxExperience, "Yrs"))
	assert.Equal(t, "<= 5 Yrs", filter.BoundLabel(5, filter.DefaultMaxExperience, "Yrs"))
	assert.Equal(t, "<= 50,000", filter.BoundLabel(50000, filter.DefaultMaxSalary, ""))
}

func TestSpecJSON(t *testing.T) {
	in := `{"specialization":"All","city":"Cairo","genders":["Male"],"education":[],"statuses":["Employed","Freelancer"],"max_experience":10,"max_salary":50000}`
	var spec filter.Spec
	require.NoError(t, json.Unmarshal([]byte(in), &spec))
	assert.True(t, spec.Genders.Has("Male"))
	assert.Empty(t, spec.Education)
	assert.Equal(t, []string{"Employed", "Freelancer"}, spec.Statuses.Values())

	out, err := json.Marshal(spec)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}
