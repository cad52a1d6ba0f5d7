// Package gap ranks job descriptions against a resume and user preferences and
// explains the gaps between them.
package gap

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/jobfit/internal/ai"
)

// Severity grades a single gap.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Recommendation is the pursue/maybe/skip verdict for a job.
type Recommendation string

const (
	RecommendPursue Recommendation = "pursue"
	RecommendMaybe  Recommendation = "maybe"
	RecommendSkip   Recommendation = "skip"
)

// Preferences are the job-search preferences stated by the user.
type Preferences struct {
	Values              []string `json:"values,omitempty"`
	RoleCategories      []string `json:"role_categories,omitempty"`
	LocationPreferences []string `json:"location_preferences,omitempty"`
	WorkType            []string `json:"work_type,omitempty"`
	RoleType            []string `json:"role_type,omitempty"`
	CompanySize         []string `json:"company_size,omitempty"`
	Industries          []string `json:"industries,omitempty"`
	Skills              []string `json:"skills,omitempty"`
	MinimumSalary       string   `json:"minimum_salary,omitempty"`
	State               string   `json:"state,omitempty"`
}

// Position is one entry of the resume work history.
type Position struct {
	Company     string `json:"company,omitempty"`
	Title       string `json:"title,omitempty"`
	Dates       string `json:"dates,omitempty"`
	Description string `json:"description,omitempty"`
}

// KeyMetric is a quantified achievement from the resume.
type KeyMetric struct {
	Metric  string    `json:"metric,omitempty"`
	Value   LooseText `json:"value,omitempty"`
	Context string    `json:"context,omitempty"`
}

// ResumeExtract is the structured resume used as evidence.
type ResumeExtract struct {
	Positions       []Position  `json:"positions,omitempty"`
	KeyMetrics      []KeyMetric `json:"key_metrics,omitempty"`
	Skills          []string    `json:"skills,omitempty"`
	Accomplishments []string    `json:"accomplishments,omitempty"`
}

// JobDescription is one posting to analyze. ID is the stable key.
type JobDescription struct {
	ID               string   `json:"id" validate:"required"`
	Title            string   `json:"title,omitempty"`
	Company          string   `json:"company,omitempty"`
	Content          string   `json:"content,omitempty"`
	PainPoints       []string `json:"pain_points,omitempty"`
	Responsibilities []string `json:"responsibilities,omitempty"`
	RequiredSkills   []string `json:"required_skills,omitempty"`
	SuccessMetrics   []string `json:"success_metrics,omitempty"`
	Location         string   `json:"location,omitempty"`
	WorkMode         string   `json:"work_mode,omitempty"`
	EmploymentType   string   `json:"employment_type,omitempty"`
	SalaryRange      string   `json:"salary_range,omitempty"`
	Industries       []string `json:"industries,omitempty"`
}

// Profile holds signed work-style scores keyed by axis name (action, communication,
// energy, info, decisions, structure). Negative and positive values are opposing poles.
type Profile struct {
	Scores map[string]int `json:"scores"`
}

// UnmarshalJSON accepts scores encoded as numbers or numeric strings.
func (p *Profile) UnmarshalJSON(data []byte) error {
	var raw struct {
		Scores map[string]any `json:"scores"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	scores := make(map[string]int, len(raw.Scores))
	if err := mapstructure.WeakDecode(raw.Scores, &scores); err != nil {
		return fmt.Errorf("decode profile scores: %w", err)
	}

	p.Scores = scores
	return nil
}

// LooseText is a string that also accepts JSON numbers and booleans.
type LooseText string

// UnmarshalJSON stores any scalar JSON value as text.
func (t *LooseText) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*t = LooseText(ai.CoerceString(v))
	return nil
}

// GapDetail is one explained gap between the user and a job.
type GapDetail struct {
	Gap        string   `json:"gap"`
	Severity   Severity `json:"severity"`
	Evidence   []string `json:"evidence"`
	HowToClose string   `json:"how_to_close"`
}

// GapAnalysisItem is the ranked result for one job.
type GapAnalysisItem struct {
	JobID           string         `json:"job_id"`
	Title           string         `json:"title"`
	Company         string         `json:"company"`
	Score           int            `json:"score"`
	Recommendation  Recommendation `json:"recommendation"`
	MatchedSkills   []string       `json:"matched_skills"`
	MissingSkills   []string       `json:"missing_skills"`
	ResumeGaps      []GapDetail    `json:"resume_gaps"`
	PersonalityGaps []GapDetail    `json:"personality_gaps"`
	PreferenceGaps  []GapDetail    `json:"preference_gaps"`
	Notes           []string       `json:"notes"`
}

// Request is the input of one analysis call.
type Request struct {
	Preferences        Preferences      `json:"preferences"`
	ResumeExtract      ResumeExtract    `json:"resume_extract"`
	PersonalityProfile *Profile         `json:"personality_profile,omitempty"`
	TemperamentProfile *Profile         `json:"temperament_profile,omitempty"`
	JobDescriptions    []JobDescription `json:"job_descriptions" validate:"required,min=1,unique=ID,dive"`
}

// HasProfile reports whether a personality or temperament profile was supplied.
func (r Request) HasProfile() bool {
	return r.PersonalityProfile != nil || r.TemperamentProfile != nil
}

// Helper describes how the ranking was produced.
type Helper struct {
	UsedLLM bool     `json:"used_llm"`
	Model   string   `json:"model"`
	Notes   []string `json:"notes"`
}

// Response is the output of one analysis call. It is always well formed.
type Response struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Ranked  []GapAnalysisItem `json:"ranked"`
	Overall map[string]any    `json:"overall,omitempty"`
	Helper  Helper            `json:"helper"`
}

// Recommend maps a score onto a recommendation.
func Recommend(score int) Recommendation {
	switch {
	case score >= 75:
		return RecommendPursue
	case score <= 45:
		return RecommendSkip
	default:
		return RecommendMaybe
	}
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
