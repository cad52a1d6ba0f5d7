package gap

import (
	"regexp"
	"strings"

	"github.com/spigell/jobfit/internal/textnorm"
)

var usStates = map[string]string{
	"AL": "alabama", "AK": "alaska", "AZ": "arizona", "AR": "arkansas", "CA": "california",
	"CO": "colorado", "CT": "connecticut", "DE": "delaware", "DC": "district of columbia",
	"FL": "florida", "GA": "georgia", "HI": "hawaii", "ID": "idaho", "IL": "illinois",
	"IN": "indiana", "IA": "iowa", "KS": "kansas", "KY": "kentucky", "LA": "louisiana",
	"ME": "maine", "MD": "maryland", "MA": "massachusetts", "MI": "michigan", "MN": "minnesota",
	"MS": "mississippi", "MO": "missouri", "MT": "montana", "NE": "nebraska", "NV": "nevada",
	"NH": "new hampshire", "NJ": "new jersey", "NM": "new mexico", "NY": "new york",
	"NC": "north carolina", "ND": "north dakota", "OH": "ohio", "OK": "oklahoma", "OR": "oregon",
	"PA": "pennsylvania", "RI": "rhode island", "SC": "south carolina", "SD": "south dakota",
	"TN": "tennessee", "TX": "texas", "UT": "utah", "VT": "vermont", "VA": "virginia",
	"WA": "washington", "WV": "west virginia", "WI": "wisconsin", "WY": "wyoming",
}

// cityState matches "Austin, TX" style locations.
var cityState = regexp.MustCompile(`([A-Z][A-Za-z.'-]+(?:\s[A-Z][A-Za-z.'-]+)*),\s*([A-Z]{2})\b`)

// stateCode resolves a state given as a code or full name.
func stateCode(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return ""
	}

	if upper := strings.ToUpper(trimmed); len(upper) == 2 {
		if _, ok := usStates[upper]; ok {
			return upper
		}
	}

	name := textnorm.NormalizeText(trimmed)
	for code, full := range usStates {
		if name == full {
			return code
		}
	}
	return ""
}

// stateIn finds the first US state referenced by text, preferring "City, ST" forms.
// Full names are matched longest first so "west virginia" is not read as "virginia".
func stateIn(text string) string {
	for _, m := range cityState.FindAllStringSubmatch(text, -1) {
		if _, ok := usStates[m[2]]; ok {
			return m[2]
		}
	}

	if code := stateCode(text); code != "" {
		return code
	}

	corpus := textnorm.NewCorpus(text)
	best, bestLen := "", 0
	for code, full := range usStates {
		if len(full) > bestLen && corpus.Has(full) {
			best, bestLen = code, len(full)
		}
	}
	return best
}

// locationOf returns the job's explicit location, or the first "City, ST" mention in its content.
func locationOf(job JobDescription) string {
	if loc := strings.TrimSpace(job.Location); loc != "" {
		return loc
	}

	for _, m := range cityState.FindAllStringSubmatch(job.Content, -1) {
		if _, ok := usStates[m[2]]; ok {
			return m[0]
		}
	}
	return ""
}
