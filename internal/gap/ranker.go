package gap

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobfit/internal/logger"
	"github.com/spigell/jobfit/internal/textnorm"
)

const (
	baseScore        = 50
	matchWeight      = 40
	missingWeight    = 15
	categoryBonus    = 6
	maxResumeGaps    = 10
	manyMissingSkill = 6
)

// Ranker scores jobs deterministically from skill overlap, resume evidence and
// role-category hints.
type Ranker struct {
	logger *zap.Logger
}

// NewRanker creates a deterministic ranker.
func NewRanker(log *zap.Logger) *Ranker {
	return &Ranker{logger: logger.OrNop(log)}
}

// analysisContext is the per-request state shared by every job.
type analysisContext struct {
	req    Request
	known  map[string]bool
	resume textnorm.Corpus
}

func newAnalysisContext(req Request) analysisContext {
	known := make(map[string]bool)
	for _, s := range req.ResumeExtract.Skills {
		if n := textnorm.NormalizeSkill(s); n != "" {
			known[n] = true
		}
	}
	for _, s := range req.Preferences.Skills {
		if n := textnorm.NormalizeSkill(s); n != "" {
			known[n] = true
		}
	}

	return analysisContext{
		req:    req,
		known:  known,
		resume: textnorm.NewCorpus(ResumeText(req.ResumeExtract)),
	}
}

// Rank scores every job in the request and returns them sorted by score, highest first.
func (r *Ranker) Rank(req Request) []GapAnalysisItem {
	ac := newAnalysisContext(req)

	items := make([]GapAnalysisItem, 0, len(req.JobDescriptions))
	for _, job := range req.JobDescriptions {
		items = append(items, r.score(ac, job))
	}

	SortByScore(items)
	return items
}

func (r *Ranker) score(ac analysisContext, job JobDescription) GapAnalysisItem {
	matched, missing := ac.splitSkills(job.RequiredSkills)
	required := len(matched) + len(missing)

	score := float64(baseScore)
	if required > 0 {
		score += matchWeight*float64(len(matched))/float64(required) -
			missingWeight*float64(len(missing))/float64(required)
	}

	total := int(math.Round(score))
	categoryHit := CategoryMatchesTitle(ac.req.Preferences.RoleCategories, job.Title)
	if categoryHit {
		total += categoryBonus
	}
	total = clampScore(total)

	notes := []string{fmt.Sprintf("Deterministic score: %d of %d required skills supported by your resume.", len(matched), required)}
	if required == 0 {
		notes = []string{"No required skills listed; score reflects the baseline only."}
	}
	if categoryHit {
		notes = append(notes, "Title matches one of your role categories.")
	}

	item := GapAnalysisItem{
		JobID:           job.ID,
		Title:           job.Title,
		Company:         job.Company,
		Score:           total,
		Recommendation:  Recommend(total),
		MatchedSkills:   matched,
		MissingSkills:   missing,
		ResumeGaps:      resumeGaps(missing),
		PersonalityGaps: PersonalityGaps(ac.req.PersonalityProfile, ac.req.TemperamentProfile, job),
		PreferenceGaps:  PreferenceGaps(ac.req.Preferences, job),
		Notes:           notes,
	}

	r.logger.Debug("job scored", append(logger.JobFields(job.ID, job.Title),
		zap.Int("score", item.Score),
		zap.Int("matched", len(matched)),
		zap.Int("missing", len(missing)),
	)...)

	return item
}

// splitSkills partitions required skills into matched and missing, dropping blanks
// and duplicates by normalized spelling.
func (ac analysisContext) splitSkills(required []string) ([]string, []string) {
	matched := []string{}
	missing := []string{}
	seen := make(map[string]bool, len(required))

	for _, skill := range required {
		skill = strings.TrimSpace(skill)
		norm := textnorm.NormalizeSkill(skill)
		if norm == "" || seen[norm] {
			continue
		}
		seen[norm] = true

		if ac.known[norm] || skillSupported(skill, ac.resume) {
			matched = append(matched, skill)
			continue
		}
		missing = append(missing, skill)
	}
	return matched, missing
}

func resumeGaps(missing []string) []GapDetail {
	severity := SeverityMedium
	if len(missing) >= manyMissingSkill {
		severity = SeverityHigh
	}

	gaps := make([]GapDetail, 0, len(missing))
	for i, skill := range missing {
		if i == maxResumeGaps {
			break
		}
		gaps = append(gaps, GapDetail{
			Gap:      "No resume evidence for required skill: " + skill,
			Severity: severity,
			Evidence: []string{
				"Listed in the job's required skills",
				"Not found in your skills, accomplishments, positions or metrics",
			},
			HowToClose: fmt.Sprintf("Add a concrete example of %s to your resume, or prepare to explain adjacent experience.", skill),
		})
	}
	return gaps
}

// SortByScore orders items by score, highest first. Ties keep their input order.
func SortByScore(items []GapAnalysisItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
}

// Summarize counts recommendations and names the top job. items must be sorted.
func Summarize(items []GapAnalysisItem) map[string]any {
	counts := map[Recommendation]int{}
	for _, item := range items {
		counts[item.Recommendation]++
	}

	overall := map[string]any{
		string(RecommendPursue): counts[RecommendPursue],
		string(RecommendMaybe):  counts[RecommendMaybe],
		string(RecommendSkip):   counts[RecommendSkip],
	}
	if len(items) > 0 {
		overall["top_job_id"] = items[0].JobID
	}
	return overall
}
