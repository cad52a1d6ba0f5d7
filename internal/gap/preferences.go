package gap

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/spigell/jobfit/internal/textnorm"
)

const (
	modeRemote  = "remote"
	modeHybrid  = "hybrid"
	modeOnsite  = "onsite"
	modeUnknown = "unknown"

	employmentIntern   = "internship"
	employmentContract = "contract"
	employmentPartTime = "part-time"
	employmentFullTime = "full-time"
	employmentUnknown  = "unknown"

	sizeSmall = "small"
	sizeMid   = "mid"
	sizeLarge = "large"
	sizeAny   = "any"
)

// jobView caches the normalized text of one job for the preference checks.
type jobView struct {
	job      JobDescription
	text     textnorm.Corpus
	content  string
	mode     string
	location string
}

func newJobView(job JobDescription) jobView {
	return jobView{
		job:      job,
		text:     textnorm.NewCorpus(JobText(job)),
		content:  JobText(job),
		mode:     InferWorkMode(job),
		location: locationOf(job),
	}
}

type preferenceCheck struct {
	name  string
	check func(p Preferences, jv jobView) []GapDetail
}

var preferenceChecks = []preferenceCheck{
	{name: "company size", check: checkCompanySize},
	{name: "work mode", check: checkWorkMode},
	{name: "employment type", check: checkEmploymentType},
	{name: "salary", check: checkSalary},
	{name: "role category", check: checkRoleCategory},
	{name: "location", check: checkLocation},
	{name: "industry", check: checkIndustry},
	{name: "values", check: checkValues},
}

// PreferenceGaps compares the preferences with one job. The result is never empty.
func PreferenceGaps(p Preferences, job JobDescription) []GapDetail {
	jv := newJobView(job)

	var gaps []GapDetail
	for _, c := range preferenceChecks {
		gaps = append(gaps, c.check(p, jv)...)
	}

	if len(gaps) == 0 {
		gaps = append(gaps, confirmInScreening())
	}
	return gaps
}

func confirmInScreening() GapDetail {
	names := make([]string, 0, len(preferenceChecks))
	for _, c := range preferenceChecks {
		names = append(names, c.name)
	}

	return GapDetail{
		Gap:        "No clear preference conflicts found; confirm in screening",
		Severity:   SeverityLow,
		Evidence:   []string{"Checked: " + strings.Join(names, ", ")},
		HowToClose: "Use the first call to confirm schedule, location and compensation before investing in the application.",
	}
}

// Company size

var (
	bigCompanies = []string{
		"google", "alphabet", "amazon", "microsoft", "meta", "facebook", "apple", "netflix",
		"ibm", "oracle", "salesforce", "intel", "nvidia", "adobe", "cisco", "uber", "linkedin",
		"walmart", "jpmorgan", "deloitte", "accenture", "tesla", "paypal", "visa", "mastercard",
	}
	employeeCount = regexp.MustCompile(`(\d[\d,]*)\s*\+?\s*employees`)
	numberPattern = regexp.MustCompile(`\d[\d,]*`)
)

func sizeBucket(n int) string {
	switch {
	case n <= 200:
		return sizeSmall
	case n <= 1000:
		return sizeMid
	default:
		return sizeLarge
	}
}

func parseCount(s string) (int, bool) {
	n, err := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	return n, err == nil
}

func preferredSizes(selected []string) map[string]bool {
	buckets := make(map[string]bool)
	for _, s := range selected {
		lower := strings.ToLower(s)
		switch {
		case textnorm.NewCorpus(lower).HasAny("any", "no preference"):
			buckets[sizeAny] = true
		case strings.Contains(lower, "small"), strings.Contains(lower, "startup"):
			buckets[sizeSmall] = true
		case strings.Contains(lower, "mid"), strings.Contains(lower, "medium"):
			buckets[sizeMid] = true
		case strings.Contains(lower, "large"), strings.Contains(lower, "enterprise"):
			buckets[sizeLarge] = true
		default:
			first := numberPattern.FindString(lower)
			n, ok := parseCount(first)
			if !ok {
				continue
			}
			if strings.Contains(lower, "+") {
				n++
			}
			buckets[sizeBucket(n)] = true
		}
	}
	return buckets
}

func jobSize(jv jobView) (string, string) {
	if textnorm.NewCorpus(jv.job.Company).HasAny(bigCompanies...) {
		return sizeLarge, jv.job.Company + " is a large company"
	}

	m := employeeCount.FindStringSubmatch(strings.ToLower(jv.content))
	if m == nil {
		return "", ""
	}
	n, ok := parseCount(m[1])
	if !ok {
		return "", ""
	}
	return sizeBucket(n), "Job text mentions " + m[0]
}

func checkCompanySize(p Preferences, jv jobView) []GapDetail {
	want := preferredSizes(p.CompanySize)
	if len(want) == 0 || want[sizeAny] {
		return nil
	}

	bucket, evidence := jobSize(jv)
	if bucket == "" || want[bucket] {
		return nil
	}

	return []GapDetail{{
		Gap:        fmt.Sprintf("Company size looks %s, outside your preferred size", bucket),
		Severity:   SeverityMedium,
		Evidence:   []string{evidence, "You selected: " + strings.Join(p.CompanySize, ", ")},
		HowToClose: "Ask about the size of the team you would join; a small team inside a large company can still fit.",
	}}
}

// Work mode

var workModeKeywords = []struct {
	mode     string
	keywords []string
}{
	{modeHybrid, []string{"hybrid"}},
	{modeRemote, []string{"remote", "wfh", "work from home", "fully distributed"}},
	{modeOnsite, []string{"on-site", "onsite", "on site", "in-person", "in person", "in office", "in-office"}},
}

func workModeIn(text string) string {
	corpus := textnorm.NewCorpus(text)
	for _, k := range workModeKeywords {
		if corpus.HasAny(k.keywords...) {
			return k.mode
		}
	}
	return modeUnknown
}

// InferWorkMode uses the explicit work_mode field first, then job text keywords.
func InferWorkMode(job JobDescription) string {
	if mode := workModeIn(job.WorkMode); mode != modeUnknown {
		return mode
	}
	return workModeIn(JobText(job))
}

// preferredModes collects every mode each selection mentions, so "Remote or Hybrid"
// keeps both.
func preferredModes(selected []string) map[string]bool {
	modes := make(map[string]bool)
	for _, s := range selected {
		corpus := textnorm.NewCorpus(s)
		for _, k := range workModeKeywords {
			if corpus.HasAny(k.keywords...) {
				modes[k.mode] = true
			}
		}
		if corpus.HasAny("office", "person") {
			modes[modeOnsite] = true
		}
	}
	return modes
}

// checkWorkMode flags only single-mode preferences: remote-only against an onsite or
// hybrid job, and in-person-only against a remote job.
func checkWorkMode(p Preferences, jv jobView) []GapDetail {
	want := preferredModes(p.WorkType)
	if len(want) != 1 || jv.mode == modeUnknown {
		return nil
	}

	var severity Severity
	var howToClose string
	switch {
	case want[modeRemote] && (jv.mode == modeOnsite || jv.mode == modeHybrid):
		severity = SeverityMedium
		if jv.mode == modeOnsite {
			severity = SeverityHigh
		}
		howToClose = "Confirm the in-office expectation with the recruiter and whether exceptions are made for strong candidates."
	case want[modeOnsite] && jv.mode == modeRemote:
		severity = SeverityMedium
		howToClose = "Ask whether there is an office you can use and how often the team meets in person."
	default:
		return nil
	}

	return []GapDetail{{
		Gap:        fmt.Sprintf("Job appears to be %s, but you prefer %s", jv.mode, strings.Join(sortedKeys(want), "/")),
		Severity:   severity,
		Evidence:   []string{"Job work mode: " + jv.mode, "You selected: " + strings.Join(p.WorkType, ", ")},
		HowToClose: howToClose,
	}}
}

// Employment type

var employmentKeywords = []struct {
	kind     string
	keywords []string
}{
	{employmentIntern, []string{"intern", "internship", "co-op"}},
	{employmentContract, []string{"contract", "contractor", "freelance", "1099", "temporary"}},
	{employmentPartTime, []string{"part-time", "part time"}},
	{employmentFullTime, []string{"full-time", "full time", "fte", "permanent"}},
}

func employmentIn(text string) string {
	corpus := textnorm.NewCorpus(text)
	for _, k := range employmentKeywords {
		if corpus.HasAny(k.keywords...) {
			return k.kind
		}
	}
	return employmentUnknown
}

// InferEmploymentType uses the explicit employment_type field first, then job text
// keywords with priority intern > contract > part-time > full-time.
func InferEmploymentType(job JobDescription) string {
	if kind := employmentIn(job.EmploymentType); kind != employmentUnknown {
		return kind
	}
	return employmentIn(JobText(job))
}

func checkEmploymentType(p Preferences, jv jobView) []GapDetail {
	want := make(map[string]bool)
	for _, s := range p.RoleType {
		if kind := employmentIn(s); kind != employmentUnknown {
			want[kind] = true
		}
	}
	if len(want) == 0 {
		return nil
	}

	kind := InferEmploymentType(jv.job)
	if kind == employmentUnknown || want[kind] {
		return nil
	}

	return []GapDetail{{
		Gap:        fmt.Sprintf("Job looks like a %s role, which is outside your selected role types", kind),
		Severity:   SeverityHigh,
		Evidence:   []string{"Inferred employment type: " + kind, "You selected: " + strings.Join(p.RoleType, ", ")},
		HowToClose: "Ask whether the role can be offered on your preferred terms before applying.",
	}}
}

// Salary

var (
	dollarAmount = regexp.MustCompile(`\$\s*(\d[\d,]*(?:\.\d+)?)\s*(k\b)?`)
	kAmount      = regexp.MustCompile(`\b(\d{2,3}(?:\.\d+)?)\s*k\b`)
	// kRange matches "120-150k" where the trailing k covers both bounds.
	kRange       = regexp.MustCompile(`\b(\d{2,3}(?:\.\d+)?)\s*(?:-|–|to)\s*\$?\s*\d{2,3}(?:\.\d+)?\s*k\b`)
	hourlyRate   = regexp.MustCompile(`/\s*(hr|hour)\b|per\s+hour|hourly|an\s+hour`)
	salaryWords  = []string{"salary", "compensation", "base pay", "pay range", "ote", "per year"}
)

// salaryAmounts returns every annual-looking amount in s. Values under 1000 are dropped
// since they are not annual salaries.
func salaryAmounts(s string) []float64 {
	lower := strings.ToLower(s)
	var out []float64

	add := func(num string, thousands bool) {
		if thousands && num == "401" {
			return
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(num, ",", ""), 64)
		if err != nil {
			return
		}
		if thousands {
			v *= 1000
		}
		if v >= 1000 {
			out = append(out, v)
		}
	}

	for _, m := range dollarAmount.FindAllStringSubmatch(lower, -1) {
		add(m[1], m[2] != "")
	}
	for _, m := range kAmount.FindAllStringSubmatch(lower, -1) {
		add(m[1], true)
	}
	for _, m := range kRange.FindAllStringSubmatch(lower, -1) {
		add(m[1], true)
	}
	return out
}

func isHourly(s string) bool {
	return hourlyRate.MatchString(strings.ToLower(s))
}

// SalaryFloor parses the lowest annual amount in s. Hourly text is never parsed.
func SalaryFloor(s string) (float64, bool) {
	if isHourly(s) {
		return 0, false
	}
	amounts := salaryAmounts(s)
	if len(amounts) == 0 {
		return 0, false
	}
	floor := amounts[0]
	for _, v := range amounts[1:] {
		if v < floor {
			floor = v
		}
	}
	return floor, true
}

func salaryCeiling(s string) float64 {
	var ceiling float64
	for _, v := range salaryAmounts(s) {
		if v > ceiling {
			ceiling = v
		}
	}
	return ceiling
}

func jobSalaryText(job JobDescription) string {
	if s := strings.TrimSpace(job.SalaryRange); s != "" {
		return s
	}

	var lines []string
	for _, line := range strings.Split(job.Content, "\n") {
		if textnorm.NewCorpus(line).HasAny(salaryWords...) {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, " ")
}

func checkSalary(p Preferences, jv jobView) []GapDetail {
	if strings.TrimSpace(p.MinimumSalary) == "" || isHourly(p.MinimumSalary) {
		return nil
	}
	want, ok := SalaryFloor(p.MinimumSalary)
	if !ok {
		return nil
	}

	text := jobSalaryText(jv.job)
	if isHourly(text) {
		return nil
	}

	floor, ok := SalaryFloor(text)
	if !ok {
		return []GapDetail{{
			Gap:        "Salary not checked yet: the posting has no parseable range",
			Severity:   SeverityLow,
			Evidence:   []string{"Your minimum: " + p.MinimumSalary},
			HowToClose: "Ask the recruiter for the base salary range before the first interview.",
		}}
	}
	if floor >= want {
		return nil
	}

	severity := SeverityMedium
	if salaryCeiling(text) < want {
		severity = SeverityHigh
	}

	return []GapDetail{{
		Gap:        "Posted salary starts below your minimum",
		Severity:   severity,
		Evidence:   []string{"Job salary: " + strings.TrimSpace(text), "Your minimum: " + p.MinimumSalary},
		HowToClose: "Confirm whether the band can stretch for your level, or negotiate on equity, bonus or title.",
	}}
}

// Role category

var categoryStopwords = map[string]bool{
	"and": true, "or": true, "the": true, "of": true, "for": true, "in": true, "to": true, "with": true, "a": true,
}

func categoryTokens(categories []string) []string {
	var tokens []string
	for _, c := range categories {
		for _, tok := range textnorm.Tokenize(c) {
			if !categoryStopwords[tok] {
				tokens = append(tokens, tok)
			}
		}
	}
	return tokens
}

var categorySuffixes = []string{"ing", "ment", "ers", "er", "s"}

// stem strips common English suffixes until none applies, keeping at least four letters.
// "engineering", "engineers" and "engineer" all become "engine"; "production" and
// "product" stay distinct.
func stem(tok string) string {
	for {
		stripped := false
		for _, suffix := range categorySuffixes {
			if strings.HasSuffix(tok, suffix) && len(tok)-len(suffix) >= 4 {
				tok = strings.TrimSuffix(tok, suffix)
				stripped = true
				break
			}
		}
		if !stripped {
			return tok
		}
	}
}

func tokensRelated(a, b string) bool {
	return a == b || stem(a) == stem(b)
}

// CategoryMatchesTitle reports whether any role-category token appears in the title.
func CategoryMatchesTitle(categories []string, title string) bool {
	titleTokens := textnorm.Tokenize(title)
	for _, c := range categoryTokens(categories) {
		for _, t := range titleTokens {
			if tokensRelated(c, t) {
				return true
			}
		}
	}
	return false
}

func checkRoleCategory(p Preferences, jv jobView) []GapDetail {
	if len(categoryTokens(p.RoleCategories)) == 0 || CategoryMatchesTitle(p.RoleCategories, jv.job.Title) {
		return nil
	}

	return []GapDetail{{
		Gap:        "Role category fit is not obvious from the title",
		Severity:   SeverityLow,
		Evidence:   []string{"Job title: " + jv.job.Title, "Your categories: " + strings.Join(p.RoleCategories, ", ")},
		HowToClose: "Read the responsibilities closely; titles vary by company, so map the day-to-day work to your target role.",
	}}
}

// Location

var anywhere = []string{"remote", "anywhere", "any"}

func checkLocation(p Preferences, jv jobView) []GapDetail {
	want := stateCode(p.State)
	jobState := ""
	if jv.location != "" {
		jobState = stateIn(jv.location)
	}

	if want != "" && jobState != "" && jobState != want && (jv.mode == modeOnsite || jv.mode == modeHybrid) {
		return []GapDetail{{
			Gap:        fmt.Sprintf("Job is %s in %s, outside your state", jv.mode, jobState),
			Severity:   SeverityMedium,
			Evidence:   []string{"Job location: " + jv.location, "Your state: " + p.State},
			HowToClose: "Ask whether relocation support or a remote exception is available.",
		}}
	}

	places := nonEmpty(p.LocationPreferences)
	if len(places) == 0 || jv.mode == modeRemote {
		return nil
	}

	where := textnorm.NewCorpus(jv.location + "\n" + jv.job.Content)
	for _, place := range places {
		if textnorm.NewCorpus(place).HasAny(anywhere...) && jv.mode != modeOnsite {
			return nil
		}
		if where.Has(place) {
			return nil
		}
		if code := stateIn(place); code != "" && code == jobState {
			return nil
		}
	}

	location := jv.location
	if location == "" {
		location = "not stated"
	}
	return []GapDetail{{
		Gap:        "Location not confirmed against your preferred places",
		Severity:   SeverityLow,
		Evidence:   []string{"Job location: " + location, "Your places: " + strings.Join(places, ", ")},
		HowToClose: "Confirm the office location and how many days on site are expected.",
	}}
}

// Industry

func checkIndustry(p Preferences, jv jobView) []GapDetail {
	want := nonEmpty(p.Industries)
	if len(want) == 0 {
		return nil
	}

	listed := nonEmpty(jv.job.Industries)
	if len(listed) == 0 {
		return []GapDetail{{
			Gap:        "Industry preference not confirmed",
			Severity:   SeverityLow,
			Evidence:   []string{"Job lists no industries", "Your industries: " + strings.Join(want, ", ")},
			HowToClose: "Check the company's market and customers before applying.",
		}}
	}

	for _, w := range want {
		wc := textnorm.NewCorpus(w)
		for _, l := range listed {
			if wc.Contains(l) || textnorm.NewCorpus(l).Contains(w) {
				return nil
			}
		}
	}

	return []GapDetail{{
		Gap:        "Industry is outside your selection",
		Severity:   SeverityMedium,
		Evidence:   []string{"Job industries: " + strings.Join(listed, ", "), "Your industries: " + strings.Join(want, ", ")},
		HowToClose: "Decide whether the role itself outweighs the industry; if so, explain your interest in the domain in your outreach.",
	}}
}

// Values

type valueRule struct {
	value  string
	prefer []string
	risks  []string
}

var valueRules = []valueRule{
	{
		value:  "work-life balance",
		prefer: []string{"work-life balance", "work life balance", "balance", "wlb", "flexibility"},
		risks:  []string{"on-call", "on call", "weekends", "24/7", "long hours"},
	},
	{
		value:  "structure and stability",
		prefer: []string{"structure", "clarity", "stability", "stable"},
		risks:  []string{"0→1", "0-1", "0 to 1", "zero to one", "ambiguous", "ambiguity", "early-stage", "early stage", "scrappy"},
	},
}

func checkValues(p Preferences, jv jobView) []GapDetail {
	values := textnorm.NewCorpus(strings.Join(p.Values, "\n"))
	if values.Empty() {
		return nil
	}

	var gaps []GapDetail
	for _, rule := range valueRules {
		if !values.HasAny(rule.prefer...) {
			continue
		}
		hits := jv.text.Matches(rule.risks)
		if len(hits) == 0 {
			continue
		}
		gaps = append(gaps, GapDetail{
			Gap:        "Possible values conflict: " + rule.value,
			Severity:   SeverityMedium,
			Evidence:   []string{"You value: " + strings.Join(p.Values, ", "), "Job mentions: " + strings.Join(hits, ", ")},
			HowToClose: "Ask how often this actually happens and how the team protects focus time.",
		})
	}
	return gaps
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
