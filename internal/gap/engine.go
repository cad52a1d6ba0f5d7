package gap

import (
	"context"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/spigell/jobfit/internal/logger"
	"github.com/spigell/jobfit/internal/utils"
)

// OutcomeKind tags how an analysis stage ended.
type OutcomeKind int

const (
	// OutcomeOK means the ranking is complete and trustworthy.
	OutcomeOK OutcomeKind = iota
	// OutcomeDegraded means a fallback ranking was used; Err holds the reason.
	OutcomeDegraded
	// OutcomeFailed means no ranking could be produced; Err holds the reason.
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "ok"
	case OutcomeDegraded:
		return "degraded"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome is the result of the ranking stages before the safety wrapper shapes it.
type Outcome struct {
	Kind    OutcomeKind
	Ranked  []GapAnalysisItem
	Overall map[string]any
	UsedLLM bool
	Model   string
	Notes   []string
	Err     error
}

// Engine runs the full analysis and always returns a well-formed response.
type Engine struct {
	ranker    *Ranker
	augmenter *Augmenter
	notes     []string
	logger    *zap.Logger

	rank func(Request) []GapAnalysisItem
}

// NewEngine builds the engine. augmenter may be nil for deterministic-only mode;
// notes are attached to every response (for example an LLM setup failure).
func NewEngine(log *zap.Logger, augmenter *Augmenter, notes ...string) *Engine {
	log = logger.OrNop(log)
	ranker := NewRanker(log)

	return &Engine{
		ranker:    ranker,
		augmenter: augmenter,
		notes:     notes,
		logger:    log,
		rank:      ranker.Rank,
	}
}

// Analyze ranks every job in the request. Errors and panics inside the ranking
// stages are converted into neutral placeholder items; Analyze itself never fails.
func (e *Engine) Analyze(ctx context.Context, req Request) Response {
	outcome := e.run(ctx, req)

	switch outcome.Kind {
	case OutcomeFailed:
		e.logger.Warn("analysis failed, returning neutral placeholders", zap.Error(outcome.Err))
	case OutcomeDegraded:
		e.logger.Warn("analysis degraded", zap.Error(outcome.Err))
	}

	resp := e.respond(req, outcome)
	e.logger.Info("analysis finished",
		zap.Stringer("outcome", outcome.Kind),
		zap.Int("jobs", len(resp.Ranked)),
		zap.Bool("used_llm", resp.Helper.UsedLLM),
	)
	return resp
}

func (e *Engine) run(ctx context.Context, req Request) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Debug("recovered ranking panic", zap.ByteString("stack", debug.Stack()))
			out = Outcome{Kind: OutcomeFailed, Err: fmt.Errorf("panic during scoring: %v", r)}
		}
	}()

	if len(req.JobDescriptions) == 0 {
		return Outcome{Kind: OutcomeOK, Ranked: []GapAnalysisItem{}, Overall: Summarize(nil)}
	}

	baseline := e.rank(req)
	if e.augmenter == nil {
		return Outcome{Kind: OutcomeOK, Ranked: baseline, Overall: Summarize(baseline)}
	}
	return e.augmenter.Augment(ctx, req, baseline)
}

func (e *Engine) respond(req Request, outcome Outcome) Response {
	notes := append(append([]string{}, e.notes...), outcome.Notes...)

	ranked := outcome.Ranked
	message := "Ranked %d job(s)."
	if outcome.Kind == OutcomeFailed {
		reason := truncatedReason(outcome.Err)
		ranked = fallbackItems(req, reason)
		notes = append(notes, "Scoring failed: "+reason)
		message = "Scoring failed; returned %d neutral placeholder(s). Please retry."
	}

	ranked = ensureInvariants(req, ranked)

	overall := outcome.Overall
	if overall == nil || outcome.Kind == OutcomeFailed {
		overall = Summarize(ranked)
	}

	return Response{
		Success: true,
		Message: fmt.Sprintf(message, len(ranked)),
		Ranked:  ranked,
		Overall: overall,
		Helper: Helper{
			UsedLLM: outcome.UsedLLM,
			Model:   outcome.Model,
			Notes:   notes,
		},
	}
}

func truncatedReason(err error) string {
	if err == nil {
		return "unknown error"
	}
	return utils.TruncateForLog(utils.SingleLine(err.Error()), noteMaxLength)
}

// fallbackItems builds one neutral item per input job.
func fallbackItems(req Request, reason string) []GapAnalysisItem {
	items := make([]GapAnalysisItem, 0, len(req.JobDescriptions))
	for _, job := range req.JobDescriptions {
		items = append(items, fallbackItem(job, req.HasProfile(), reason))
	}
	return items
}

func fallbackItem(job JobDescription, hasProfile bool, reason string) GapAnalysisItem {
	detail := func() GapDetail {
		return GapDetail{
			Gap:        "Scoring failed for this job",
			Severity:   SeverityLow,
			Evidence:   []string{"Analysis error: " + reason},
			HowToClose: "Run the analysis again; if it keeps failing, shorten or clean up the job description text.",
		}
	}

	item := GapAnalysisItem{
		JobID:           job.ID,
		Title:           job.Title,
		Company:         job.Company,
		Score:           baseScore,
		Recommendation:  RecommendMaybe,
		MatchedSkills:   []string{},
		MissingSkills:   []string{},
		ResumeGaps:      []GapDetail{detail()},
		PersonalityGaps: []GapDetail{},
		PreferenceGaps:  []GapDetail{detail()},
		Notes:           []string{"Scoring failed: " + reason},
	}
	if hasProfile {
		item.PersonalityGaps = []GapDetail{detail()}
	}
	return item
}

// ensureInvariants makes the output safe to hand to the caller: one item per input
// job, bounded scores with consistent recommendations, a non-empty preference_gaps
// everywhere, non-empty personality_gaps when a profile was supplied, no nil slices,
// and descending score order.
func ensureInvariants(req Request, items []GapAnalysisItem) []GapAnalysisItem {
	byID := make(map[string]GapAnalysisItem, len(items))
	for _, item := range items {
		if _, dup := byID[item.JobID]; !dup {
			byID[item.JobID] = item
		}
	}

	out := make([]GapAnalysisItem, 0, len(req.JobDescriptions))
	for _, job := range req.JobDescriptions {
		item, ok := byID[job.ID]
		if !ok {
			item = fallbackItem(job, req.HasProfile(), "job was missing from the ranking")
		}
		delete(byID, job.ID)

		item.Score = clampScore(item.Score)
		item.Recommendation = Recommend(item.Score)
		item.MatchedSkills = orEmpty(item.MatchedSkills)
		item.MissingSkills = orEmpty(item.MissingSkills)
		item.Notes = orEmpty(item.Notes)
		if item.ResumeGaps == nil {
			item.ResumeGaps = []GapDetail{}
		}
		if len(item.PreferenceGaps) == 0 {
			item.PreferenceGaps = []GapDetail{confirmInScreening()}
		}
		if item.PersonalityGaps == nil {
			item.PersonalityGaps = []GapDetail{}
		}
		if len(item.PersonalityGaps) == 0 && req.HasProfile() {
			item.PersonalityGaps = []GapDetail{{
				Gap:        "Work-style fit not assessed; validate in screening",
				Severity:   SeverityLow,
				Evidence:   []string{"A profile was supplied but no work-style findings were produced"},
				HowToClose: "Ask the hiring manager to describe a typical week on the team.",
			}}
		}
		for i := range item.ResumeGaps {
			item.ResumeGaps[i].Evidence = orEmpty(item.ResumeGaps[i].Evidence)
		}
		for i := range item.PreferenceGaps {
			item.PreferenceGaps[i].Evidence = orEmpty(item.PreferenceGaps[i].Evidence)
		}
		for i := range item.PersonalityGaps {
			item.PersonalityGaps[i].Evidence = orEmpty(item.PersonalityGaps[i].Evidence)
		}

		out = append(out, item)
	}

	SortByScore(out)
	return out
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
