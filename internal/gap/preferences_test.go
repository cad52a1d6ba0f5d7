package gap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findGap(gaps []GapDetail, prefix string) (GapDetail, bool) {
	for _, g := range gaps {
		if strings.HasPrefix(g.Gap, prefix) {
			return g, true
		}
	}
	return GapDetail{}, false
}

func TestPreferenceGapsNeverEmpty(t *testing.T) {
	t.Parallel()

	gaps := PreferenceGaps(Preferences{}, JobDescription{ID: "j1", Title: "Engineer"})
	require.Len(t, gaps, 1)
	assert.Equal(t, SeverityLow, gaps[0].Severity)
	assert.Contains(t, gaps[0].Gap, "confirm in screening")
}

func TestSalaryCheck(t *testing.T) {
	t.Parallel()

	t.Run("floor below minimum", func(t *testing.T) {
		t.Parallel()
		gaps := PreferenceGaps(
			Preferences{MinimumSalary: "$160,000"},
			JobDescription{ID: "j1", SalaryRange: "$120,000 - $140,000"},
		)
		gap, ok := findGap(gaps, "Posted salary starts below")
		require.True(t, ok)
		assert.Equal(t, SeverityHigh, gap.Severity)
	})

	t.Run("range straddles minimum", func(t *testing.T) {
		t.Parallel()
		gaps := PreferenceGaps(
			Preferences{MinimumSalary: "150k"},
			JobDescription{ID: "j1", SalaryRange: "$140k-$180k"},
		)
		gap, ok := findGap(gaps, "Posted salary starts below")
		require.True(t, ok)
		assert.Equal(t, SeverityMedium, gap.Severity)
	})

	t.Run("hourly preference is skipped", func(t *testing.T) {
		t.Parallel()
		gaps := PreferenceGaps(
			Preferences{MinimumSalary: "$25/hour"},
			JobDescription{ID: "j1", SalaryRange: "$120,000"},
		)
		_, ok := findGap(gaps, "Posted salary")
		assert.False(t, ok)
		_, ok = findGap(gaps, "Salary not checked")
		assert.False(t, ok)
	})

	t.Run("hourly job is skipped", func(t *testing.T) {
		t.Parallel()
		gaps := PreferenceGaps(
			Preferences{MinimumSalary: "$160,000"},
			JobDescription{ID: "j1", SalaryRange: "$60/hr"},
		)
		_, ok := findGap(gaps, "Posted salary")
		assert.False(t, ok)
	})

	t.Run("unparseable job salary", func(t *testing.T) {
		t.Parallel()
		gaps := PreferenceGaps(
			Preferences{MinimumSalary: "$150k"},
			JobDescription{ID: "j1", Content: "Competitive pay and great benefits"},
		)
		gap, ok := findGap(gaps, "Salary not checked yet")
		require.True(t, ok)
		assert.Equal(t, SeverityLow, gap.Severity)
	})

	t.Run("salary line in content", func(t *testing.T) {
		t.Parallel()
		gaps := PreferenceGaps(
			Preferences{MinimumSalary: "$100k"},
			JobDescription{ID: "j1", Content: "Build APIs.\nSalary: $120k–$150k plus equity"},
		)
		_, ok := findGap(gaps, "Posted salary")
		assert.False(t, ok)
		_, ok = findGap(gaps, "Salary not checked")
		assert.False(t, ok)
	})
}

func TestSalaryFloor(t *testing.T) {
	t.Parallel()

	floor, ok := SalaryFloor("$120,000 - $140,000")
	require.True(t, ok)
	assert.Equal(t, 120000.0, floor)

	floor, ok = SalaryFloor("USD 95k to 110k")
	require.True(t, ok)
	assert.Equal(t, 95000.0, floor)

	_, ok = SalaryFloor("six figures")
	assert.False(t, ok)

	_, ok = SalaryFloor("$45 per hour")
	assert.False(t, ok)

	floor, ok = SalaryFloor("$120-150k")
	require.True(t, ok)
	assert.Equal(t, 120000.0, floor)

	floor, ok = SalaryFloor("120 to 150k")
	require.True(t, ok)
	assert.Equal(t, 120000.0, floor)

	gaps := PreferenceGaps(Preferences{MinimumSalary: "$140k"}, JobDescription{ID: "j1", SalaryRange: "$120-150k"})
	gap, ok := findGap(gaps, "Posted salary starts below")
	require.True(t, ok)
	assert.Equal(t, SeverityMedium, gap.Severity)
}

func TestCompanySizeCheck(t *testing.T) {
	t.Parallel()

	gaps := PreferenceGaps(Preferences{CompanySize: []string{"Small (1-200)"}}, JobDescription{ID: "j1", Company: "Google"})
	gap, ok := findGap(gaps, "Company size looks large")
	require.True(t, ok)
	assert.Equal(t, SeverityMedium, gap.Severity)

	gaps = PreferenceGaps(Preferences{CompanySize: []string{"Startup"}}, JobDescription{ID: "j2", Content: "Join our 5,000+ employees worldwide"})
	_, ok = findGap(gaps, "Company size looks large")
	assert.True(t, ok)

	gaps = PreferenceGaps(Preferences{CompanySize: []string{"Small"}}, JobDescription{ID: "j3", Company: "Acme"})
	_, ok = findGap(gaps, "Company size")
	assert.False(t, ok, "unknown job size must not be flagged")

	gaps = PreferenceGaps(Preferences{CompanySize: []string{"Any size"}}, JobDescription{ID: "j4", Company: "Amazon"})
	_, ok = findGap(gaps, "Company size")
	assert.False(t, ok)
}

func TestPreferredSizes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, map[string]bool{sizeLarge: true}, preferredSizes([]string{"Large company"}))
	assert.Equal(t, map[string]bool{sizeLarge: true}, preferredSizes([]string{"1000+"}))
	assert.Equal(t, map[string]bool{sizeMid: true}, preferredSizes([]string{"201-1000"}))
	assert.Equal(t, map[string]bool{sizeSmall: true, sizeAny: true}, preferredSizes([]string{"51-200", "No preference"}))
}

func TestWorkModeCheck(t *testing.T) {
	t.Parallel()

	gaps := PreferenceGaps(Preferences{WorkType: []string{"Remote"}}, JobDescription{ID: "j1", WorkMode: "On-site"})
	gap, ok := findGap(gaps, "Job appears to be onsite")
	require.True(t, ok)
	assert.Equal(t, SeverityHigh, gap.Severity)

	gaps = PreferenceGaps(Preferences{WorkType: []string{"Remote"}}, JobDescription{ID: "j2", Content: "Hybrid, 3 days in office"})
	gap, ok = findGap(gaps, "Job appears to be hybrid")
	require.True(t, ok)
	assert.Equal(t, SeverityMedium, gap.Severity)

	gaps = PreferenceGaps(Preferences{WorkType: []string{"In-person"}}, JobDescription{ID: "j3", Content: "Fully remote team"})
	_, ok = findGap(gaps, "Job appears to be remote")
	assert.True(t, ok)

	gaps = PreferenceGaps(Preferences{WorkType: []string{"Remote", "Hybrid"}}, JobDescription{ID: "j4", Content: "Hybrid role"})
	_, ok = findGap(gaps, "Job appears")
	assert.False(t, ok)

	unflagged := []struct {
		name     string
		workType []string
		job      JobDescription
	}{
		{name: "remote or hybrid against remote", workType: []string{"Remote or Hybrid"}, job: JobDescription{ID: "j5", WorkMode: "Remote"}},
		{name: "hybrid/remote against onsite", workType: []string{"Hybrid/Remote"}, job: JobDescription{ID: "j6", WorkMode: "On-site"}},
		{name: "hybrid only against remote", workType: []string{"Hybrid"}, job: JobDescription{ID: "j7", WorkMode: "Remote"}},
		{name: "hybrid only against onsite", workType: []string{"Hybrid"}, job: JobDescription{ID: "j8", WorkMode: "Onsite"}},
		{name: "in-person against hybrid", workType: []string{"In-person"}, job: JobDescription{ID: "j9", WorkMode: "Hybrid"}},
	}
	for _, tt := range unflagged {
		t.Run(tt.name, func(t *testing.T) {
			gaps := PreferenceGaps(Preferences{WorkType: tt.workType}, tt.job)
			_, ok := findGap(gaps, "Job appears")
			assert.False(t, ok)
		})
	}
}

func TestPreferredModes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, map[string]bool{modeRemote: true, modeHybrid: true}, preferredModes([]string{"Remote or Hybrid"}))
	assert.Equal(t, map[string]bool{modeRemote: true, modeHybrid: true}, preferredModes([]string{"Hybrid/Remote"}))
	assert.Equal(t, map[string]bool{modeOnsite: true}, preferredModes([]string{"In office"}))
	assert.Empty(t, preferredModes([]string{"Flexible"}))
}

func TestInferWorkModeExplicitFieldWins(t *testing.T) {
	t.Parallel()

	job := JobDescription{WorkMode: "Remote", Content: "Our office is in-person on Fridays"}
	assert.Equal(t, modeRemote, InferWorkMode(job))
	assert.Equal(t, modeUnknown, InferWorkMode(JobDescription{Content: "Write Go services"}))
}

func TestEmploymentTypeCheck(t *testing.T) {
	t.Parallel()

	gaps := PreferenceGaps(Preferences{RoleType: []string{"Full-time"}}, JobDescription{ID: "j1", Content: "This is a 6-month contract role"})
	gap, ok := findGap(gaps, "Job looks like a contract role")
	require.True(t, ok)
	assert.Equal(t, SeverityHigh, gap.Severity)

	assert.Equal(t, employmentIntern, InferEmploymentType(JobDescription{Content: "Summer internship, full-time hours"}))
	assert.Equal(t, employmentFullTime, InferEmploymentType(JobDescription{EmploymentType: "Full time", Content: "contract to hire"}))
	assert.Equal(t, employmentUnknown, InferEmploymentType(JobDescription{Content: "Manage internal vendor contracts"}))
}

func TestRoleCategoryCheck(t *testing.T) {
	t.Parallel()

	p := Preferences{RoleCategories: []string{"Engineering"}}

	gaps := PreferenceGaps(p, JobDescription{ID: "j1", Title: "Senior Software Engineer"})
	_, ok := findGap(gaps, "Role category")
	assert.False(t, ok)

	gaps = PreferenceGaps(p, JobDescription{ID: "j2", Title: "Account Executive"})
	gap, ok := findGap(gaps, "Role category fit is not obvious")
	require.True(t, ok)
	assert.Equal(t, SeverityLow, gap.Severity)

	gaps = PreferenceGaps(Preferences{RoleCategories: []string{"Product"}}, JobDescription{ID: "j3", Title: "Production Engineer"})
	_, ok = findGap(gaps, "Role category fit is not obvious")
	assert.True(t, ok)
}

func TestCategoryMatchesTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		category string
		title    string
		want     bool
	}{
		{"Engineering", "Senior Software Engineer", true},
		{"Design", "Product Designer", true},
		{"Data", "Data Analyst", true},
		{"Product", "Production Engineer", false},
		{"Product", "Senior Product Manager", true},
		{"Marketing", "Account Executive", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CategoryMatchesTitle([]string{tt.category}, tt.title), "%s vs %s", tt.category, tt.title)
	}
}

func TestLocationCheck(t *testing.T) {
	t.Parallel()

	gaps := PreferenceGaps(Preferences{State: "CA"}, JobDescription{ID: "j1", Location: "Austin, TX", WorkMode: "Onsite"})
	gap, ok := findGap(gaps, "Job is onsite in TX")
	require.True(t, ok)
	assert.Equal(t, SeverityMedium, gap.Severity)

	gaps = PreferenceGaps(Preferences{State: "California"}, JobDescription{ID: "j2", Location: "Austin, TX", WorkMode: "Remote"})
	_, ok = findGap(gaps, "Job is")
	assert.False(t, ok, "remote jobs are not tied to a state")

	gaps = PreferenceGaps(Preferences{LocationPreferences: []string{"Seattle"}}, JobDescription{ID: "j3", Location: "Denver, CO", WorkMode: "Hybrid"})
	gap, ok = findGap(gaps, "Location not confirmed")
	require.True(t, ok)
	assert.Equal(t, SeverityLow, gap.Severity)

	gaps = PreferenceGaps(Preferences{LocationPreferences: []string{"Washington"}}, JobDescription{ID: "j4", Location: "Seattle, WA", WorkMode: "Hybrid"})
	_, ok = findGap(gaps, "Location")
	assert.False(t, ok)
}

func TestIndustryCheck(t *testing.T) {
	t.Parallel()

	p := Preferences{Industries: []string{"Healthcare"}}

	gaps := PreferenceGaps(p, JobDescription{ID: "j1", Industries: []string{"Fintech"}})
	gap, ok := findGap(gaps, "Industry is outside")
	require.True(t, ok)
	assert.Equal(t, SeverityMedium, gap.Severity)

	gaps = PreferenceGaps(p, JobDescription{ID: "j2"})
	gap, ok = findGap(gaps, "Industry preference not confirmed")
	require.True(t, ok)
	assert.Equal(t, SeverityLow, gap.Severity)

	gaps = PreferenceGaps(p, JobDescription{ID: "j3", Industries: []string{"Healthcare technology"}})
	_, ok = findGap(gaps, "Industry")
	assert.False(t, ok)
}

func TestValuesCheck(t *testing.T) {
	t.Parallel()

	gaps := PreferenceGaps(
		Preferences{Values: []string{"Work-life balance"}},
		JobDescription{ID: "j1", Content: "Participate in on-call rotation and occasional weekends"},
	)
	gap, ok := findGap(gaps, "Possible values conflict: work-life balance")
	require.True(t, ok)
	assert.Contains(t, gap.Evidence, "Job mentions: on-call, weekends")

	gaps = PreferenceGaps(
		Preferences{Values: []string{"Stability"}},
		JobDescription{ID: "j2", Content: "Build 0→1 products in an ambiguous space"},
	)
	gap, ok = findGap(gaps, "Possible values conflict: structure")
	require.True(t, ok)
	assert.Contains(t, gap.Evidence, "Job mentions: 0→1, ambiguous")

	gaps = PreferenceGaps(
		Preferences{Values: []string{"Work-life balance"}},
		JobDescription{ID: "j3", Content: "Predictable hours"},
	)
	_, ok = findGap(gaps, "Possible values conflict")
	assert.False(t, ok)
}
