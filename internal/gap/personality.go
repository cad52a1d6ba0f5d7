package gap

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spigell/jobfit/internal/textnorm"
)

const (
	signalAlignment = "needs_alignment"
	signalAutonomy  = "needs_autonomy"
	signalProcess   = "high_process"
	signalFastPaced = "fast_paced"
	signalStrategy  = "needs_strategy"
	signalDetail    = "needs_detail"
	signalPeople    = "needs_people"

	maxPersonalityGaps = 4

	emptyContentEvidence = "Job content is empty/missing."
)

var jobSignalRules = []struct {
	signal   string
	keywords []string
}{
	{signalAlignment, []string{"stakeholder", "stakeholders", "cross-functional", "cross functional", "alignment", "consensus", "collaborate with", "partner with", "partner closely"}},
	{signalAutonomy, []string{"autonomous", "autonomy", "independently", "self-directed", "self-starter", "self starter", "ownership", "end-to-end", "end to end"}},
	{signalProcess, []string{"process", "processes", "compliance", "regulated", "documentation", "sop", "governance", "audit", "procedures"}},
	{signalFastPaced, []string{"fast-paced", "fast paced", "startup", "move fast", "rapidly", "ambiguity", "ambiguous", "scrappy", "high-growth"}},
	{signalStrategy, []string{"strategy", "strategic", "vision", "roadmap", "long-term", "long term"}},
	{signalDetail, []string{"detail-oriented", "detail oriented", "attention to detail", "meticulous", "precision", "accuracy", "accurate"}},
	{signalPeople, []string{"mentor", "mentoring", "coaching", "people management", "manage a team", "empathy", "customer-facing", "customer facing", "relationships"}},
}

// JobSignals detects work-environment signals in the job text. Each detected signal
// maps to the keywords that triggered it.
func JobSignals(job JobDescription) map[string][]string {
	corpus := textnorm.NewCorpus(JobText(job))
	signals := make(map[string][]string)
	for _, rule := range jobSignalRules {
		if hits := corpus.Matches(rule.keywords); len(hits) > 0 {
			signals[rule.signal] = hits
		}
	}
	return signals
}

// traitRule pairs one pole of a trait axis with the job signal that conflicts with it.
// pole is -1 for negative scores and +1 for positive scores.
type traitRule struct {
	axis       string
	pole       int
	label      string
	signal     string
	gap        string
	howToClose string
}

var traitRules = []traitRule{
	{
		axis: "action", pole: -1, label: "autonomy", signal: signalAlignment,
		gap:        "You prefer acting autonomously; this role needs heavy stakeholder alignment",
		howToClose: "Prepare an example of driving a decision through several stakeholders, and ask how decisions get made on the team.",
	},
	{
		axis: "action", pole: 1, label: "alignment", signal: signalAutonomy,
		gap:        "You prefer aligning with others first; this role expects independent ownership",
		howToClose: "Show a case where you owned an outcome end to end, and ask how much support new hires get early on.",
	},
	{
		axis: "communication", pole: -1, label: "concrete", signal: signalStrategy,
		gap:        "You communicate concretely; this role is framed around strategy and vision",
		howToClose: "Practice linking your concrete results to the bigger business goal they served.",
	},
	{
		axis: "communication", pole: 1, label: "abstract", signal: signalDetail,
		gap:        "You communicate in abstractions; this role stresses precision and detail",
		howToClose: "Bring one example with exact numbers and the checks you used to keep the work accurate.",
	},
	{
		axis: "energy", pole: -1, label: "focus", signal: signalAlignment,
		gap:        "You recharge with focused solo work; this role is meeting and stakeholder heavy",
		howToClose: "Ask what share of the week is meetings and whether focus time is protected.",
	},
	{
		axis: "info", pole: -1, label: "concrete", signal: signalStrategy,
		gap:        "You take in information concretely; this role asks for big-picture strategic thinking",
		howToClose: "Prepare a story where you turned detailed findings into a direction for others.",
	},
	{
		axis: "info", pole: 1, label: "big-picture", signal: signalDetail,
		gap:        "You think big-picture; this role demands close attention to detail",
		howToClose: "Describe the habits or tools you use to catch mistakes in detailed work.",
	},
	{
		axis: "decisions", pole: -1, label: "logic", signal: signalPeople,
		gap:        "You decide mainly on logic; this role centers on people and relationships",
		howToClose: "Have an example ready of weighing people impact in a hard call.",
	},
	{
		axis: "structure", pole: -1, label: "adaptive", signal: signalProcess,
		gap:        "You prefer adapting as you go; this role is process and compliance heavy",
		howToClose: "Ask which processes are fixed and where the team has room to improvise.",
	},
	{
		axis: "structure", pole: 1, label: "planned", signal: signalFastPaced,
		gap:        "You prefer planned work; this role is fast-paced and shifting",
		howToClose: "Ask how priorities are set and how often they change mid-sprint.",
	},
}

type namedProfile struct {
	name    string
	profile *Profile
}

// PersonalityGaps cross-references trait scores with job environment signals. With
// no profile the result is empty unless the job content itself is missing.
func PersonalityGaps(personality, temperament *Profile, job JobDescription) []GapDetail {
	profiles := make([]namedProfile, 0, 2)
	if temperament != nil {
		profiles = append(profiles, namedProfile{name: "Temperament", profile: temperament})
	}
	if personality != nil {
		profiles = append(profiles, namedProfile{name: "Personality", profile: personality})
	}

	contentEmpty := strings.TrimSpace(job.Content) == ""
	if len(profiles) == 0 && !contentEmpty {
		return []GapDetail{}
	}

	signals := JobSignals(job)

	var gaps []GapDetail
	for _, np := range profiles {
		gaps = append(gaps, traitConflicts(np, signals)...)
	}

	if len(gaps) == 0 {
		if contentEmpty {
			gaps = append(gaps, GapDetail{
				Gap:        "Can't score work-style fit: the job description text is missing",
				Severity:   SeverityLow,
				Evidence:   []string{emptyContentEvidence},
				HowToClose: "Paste the full job description and run the analysis again.",
			})
		} else {
			gaps = append(gaps, noConflicts(profiles, signals))
		}
	}

	return capGaps(bySeverity(dedupeGaps(gaps)), maxPersonalityGaps)
}

func traitConflicts(np namedProfile, signals map[string][]string) []GapDetail {
	var gaps []GapDetail
	for _, rule := range traitRules {
		score, ok := np.profile.Scores[rule.axis]
		if !ok || score == 0 || sign(score) != rule.pole {
			continue
		}
		hits, ok := signals[rule.signal]
		if !ok {
			continue
		}

		severity := SeverityMedium
		if abs(score) >= 3 {
			severity = SeverityHigh
		}

		gaps = append(gaps, GapDetail{
			Gap:      rule.gap,
			Severity: severity,
			Evidence: []string{
				fmt.Sprintf("%s %s = %d (%s)", np.name, rule.axis, score, rule.label),
				fmt.Sprintf("Job signal %s: %s", rule.signal, strings.Join(hits, ", ")),
			},
			HowToClose: rule.howToClose,
		})
	}
	return gaps
}

func noConflicts(profiles []namedProfile, signals map[string][]string) GapDetail {
	detected := "none obvious"
	if len(signals) > 0 {
		names := make([]string, 0, len(signals))
		for name := range signals {
			names = append(names, name)
		}
		sort.Strings(names)
		detected = strings.Join(names, ", ")
	}

	evidence := []string{"Job signals detected: " + detected}
	for _, np := range profiles {
		evidence = append(evidence, fmt.Sprintf("%s scores: %s", np.name, formatScores(np.profile.Scores)))
	}

	return GapDetail{
		Gap:        "No strong work-style conflicts; validate in screening",
		Severity:   SeverityLow,
		Evidence:   evidence,
		HowToClose: "Ask the hiring manager to describe a typical week to confirm the day-to-day matches how you work best.",
	}
}

func formatScores(scores map[string]int) string {
	if len(scores) == 0 {
		return "none"
	}
	axes := make([]string, 0, len(scores))
	for axis := range scores {
		axes = append(axes, axis)
	}
	sort.Strings(axes)

	parts := make([]string, 0, len(axes))
	for _, axis := range axes {
		parts = append(parts, fmt.Sprintf("%s=%d", axis, scores[axis]))
	}
	return strings.Join(parts, ", ")
}

func dedupeGaps(gaps []GapDetail) []GapDetail {
	seen := make(map[string]bool, len(gaps))
	out := make([]GapDetail, 0, len(gaps))
	for _, g := range gaps {
		key := strings.ToLower(strings.TrimSpace(g.Gap))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, g)
	}
	return out
}

// bySeverity orders gaps high to low, keeping input order within a severity.
func bySeverity(gaps []GapDetail) []GapDetail {
	sort.SliceStable(gaps, func(i, j int) bool {
		return severityRank(gaps[i].Severity) > severityRank(gaps[j].Severity)
	})
	return gaps
}

func severityRank(s Severity) int {
	switch s {
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

func capGaps(gaps []GapDetail, limit int) []GapDetail {
	if len(gaps) > limit {
		return gaps[:limit]
	}
	return gaps
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
