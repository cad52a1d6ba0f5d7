package gap

import (
	"strings"

	"github.com/spigell/jobfit/internal/textnorm"
)

const maxEvidenceItems = 30

// ResumeText flattens the resume into one normalized searchable string: skills,
// accomplishments, positions (title, company, description), then key metrics.
func ResumeText(r ResumeExtract) string {
	parts := make([]string, 0, len(r.Skills)+len(r.Accomplishments)+3*maxEvidenceItems)
	parts = append(parts, r.Skills...)
	parts = append(parts, r.Accomplishments...)

	for i, p := range r.Positions {
		if i == maxEvidenceItems {
			break
		}
		parts = append(parts, p.Title, p.Company, p.Description)
	}

	for i, m := range r.KeyMetrics {
		if i == maxEvidenceItems {
			break
		}
		parts = append(parts, m.Metric, string(m.Value), m.Context)
	}

	return textnorm.NormalizeText(joinNonEmpty(parts, " "))
}

// JobText is every free-text field of a job that can carry environment signals.
func JobText(job JobDescription) string {
	parts := []string{job.Title, job.Content}
	parts = append(parts, job.PainPoints...)
	parts = append(parts, job.Responsibilities...)
	parts = append(parts, job.SuccessMetrics...)
	return joinNonEmpty(parts, "\n")
}

func hasResumeSignal(r ResumeExtract) bool {
	return len(nonEmpty(r.Skills)) > 0 ||
		len(r.Positions) > 0 ||
		len(r.KeyMetrics) > 0 ||
		len(nonEmpty(r.Accomplishments)) > 0
}

func hasJobSignal(job JobDescription) bool {
	return len(nonEmpty(job.PainPoints)) > 0 ||
		len(nonEmpty(job.Responsibilities)) > 0 ||
		len(nonEmpty(job.RequiredSkills)) > 0 ||
		len(nonEmpty(job.SuccessMetrics)) > 0
}

func joinNonEmpty(parts []string, sep string) string {
	return strings.Join(nonEmpty(parts), sep)
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
