package gap

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/spigell/jobfit/internal/ai"
	"github.com/spigell/jobfit/internal/logger"
	"github.com/spigell/jobfit/internal/utils"
)

//go:embed item_schema.json
var itemSchemaJSON string

var itemSchema = mustSchema(itemSchemaJSON)

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compile item schema: %v", err))
	}
	return schema
}

var (
	errNoSignal       = errors.New("not enough job or resume detail for the model")
	errPromptTooLarge = errors.New("prompt exceeds the size budget")
	errNoItems        = errors.New("model returned no usable rankings")

	// contentLimits are tried in order until the prompt fits; -1 keeps content whole.
	contentLimits = []int{-1, 6000, 3000, 1500, 600, 0}

	listKeys = []string{"ranked", "items", "results", "jobs"}
)

const (
	defaultTimeout        = 45 * time.Second
	defaultMaxPromptChars = 60000
	defaultMaxTokens      = 4096
	noteMaxLength         = 200
)

// AugmenterConfig bounds the model call.
type AugmenterConfig struct {
	UseRealLLM     bool
	Timeout        time.Duration
	MaxPromptChars int
	MaxTokens      int
	Temperature    float32
}

// Augmenter refines the deterministic ranking with a language model. The baseline
// ranking is both the prompt seed and the fallback.
type Augmenter struct {
	completer ai.Completer
	cfg       AugmenterConfig
	logger    *zap.Logger
}

// NewAugmenter wires a completer into the augmentation layer.
func NewAugmenter(completer ai.Completer, cfg AugmenterConfig, log *zap.Logger) *Augmenter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxPromptChars <= 0 {
		cfg.MaxPromptChars = defaultMaxPromptChars
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	model := ""
	if completer != nil {
		model = completer.Model()
	}

	return &Augmenter{
		completer: completer,
		cfg:       cfg,
		logger:    logger.WithCommonFields(log, "", model),
	}
}

// Model returns the model name of the underlying completer.
func (a *Augmenter) Model() string {
	if a == nil || a.completer == nil {
		return ""
	}
	return a.completer.Model()
}

// Augment asks the model to rank the jobs. Any failure returns the baseline as a
// degraded outcome; the call is never retried.
func (a *Augmenter) Augment(ctx context.Context, req Request, baseline []GapAnalysisItem) Outcome {
	if a == nil || a.completer == nil {
		return deterministic(baseline, "LLM not configured; deterministic ranking used.")
	}
	if !hasSignal(req) {
		return deterministic(baseline, "LLM skipped: "+errNoSignal.Error()+"; deterministic ranking used.")
	}
	if !a.cfg.UseRealLLM {
		return deterministic(baseline, "LLM disabled by configuration; deterministic ranking used.")
	}

	chat, err := a.buildPrompt(req, baseline)
	if err != nil {
		return a.degraded(baseline, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	started := time.Now()
	raw, err := a.completer.Complete(callCtx, chat)
	if err != nil {
		return a.degraded(baseline, fmt.Errorf("llm call failed: %w", err))
	}
	a.logger.Debug("llm response received",
		zap.Duration("elapsed", time.Since(started)),
		zap.Int("response_length", len(raw)),
	)

	parsed, err := a.parse(raw, req, baseline)
	if err != nil {
		return a.degraded(baseline, err)
	}

	out := Outcome{
		Kind:    OutcomeOK,
		Ranked:  parsed.ranked,
		Overall: parsed.overall,
		UsedLLM: true,
		Model:   a.Model(),
	}
	if parsed.dropped > 0 {
		out.Notes = append(out.Notes, fmt.Sprintf("Dropped %d malformed or unknown item(s) from the model output.", parsed.dropped))
	}
	if parsed.backfilled > 0 {
		out.Notes = append(out.Notes, fmt.Sprintf("%d job(s) missing from the model output were scored deterministically.", parsed.backfilled))
	}
	return out
}

func hasSignal(req Request) bool {
	if !hasResumeSignal(req.ResumeExtract) {
		return false
	}
	for _, job := range req.JobDescriptions {
		if hasJobSignal(job) {
			return true
		}
	}
	return false
}

func deterministic(baseline []GapAnalysisItem, note string) Outcome {
	return Outcome{
		Kind:    OutcomeOK,
		Ranked:  baseline,
		Overall: Summarize(baseline),
		Notes:   []string{note},
	}
}

func (a *Augmenter) degraded(baseline []GapAnalysisItem, err error) Outcome {
	a.logger.Warn("llm augmentation fell back to deterministic ranking", zap.Error(err))
	return Outcome{
		Kind:    OutcomeDegraded,
		Ranked:  baseline,
		Overall: Summarize(baseline),
		Notes:   []string{"LLM unavailable (" + utils.TruncateForLog(utils.SingleLine(err.Error()), noteMaxLength) + "); deterministic ranking used."},
		Err:     err,
	}
}

// Prompt

const contractText = `You are a career coach ranking job descriptions for one candidate.
Return only JSON of the form {"ranked": [item, ...], "overall": {...}} with no prose.
Every item must satisfy this JSON schema:
%s
Rules:
- Include every job_id from job_descriptions exactly once; do not invent jobs.
- score is an integer from 0 to 100. recommendation is "pursue" when score >= 75, "skip" when score <= 45, otherwise "maybe".
- preference_gaps must be non-empty for every item. When nothing conflicts, add one low severity gap asking to confirm in screening.
- severity is one of low, medium, high. evidence quotes or cites the inputs.
- baseline holds a deterministic ranking; start from it and change scores only when the inputs justify it.`

const personalityRule = `
- A personality or temperament profile is present, so personality_gaps must be non-empty for every item.`

type baselineSeed struct {
	JobID          string         `json:"job_id"`
	Score          int            `json:"score"`
	Recommendation Recommendation `json:"recommendation"`
	MatchedSkills  []string       `json:"matched_skills"`
	MissingSkills  []string       `json:"missing_skills"`
}

type promptPayload struct {
	Preferences        Preferences      `json:"preferences"`
	ResumeExtract      ResumeExtract    `json:"resume_extract"`
	PersonalityProfile *Profile         `json:"personality_profile,omitempty"`
	TemperamentProfile *Profile         `json:"temperament_profile,omitempty"`
	JobDescriptions    []JobDescription `json:"job_descriptions"`
	Baseline           []baselineSeed   `json:"baseline"`
}

func (a *Augmenter) buildPrompt(req Request, baseline []GapAnalysisItem) (ai.ChatRequest, error) {
	system := fmt.Sprintf(contractText, itemSchemaJSON)
	if req.HasProfile() {
		system += personalityRule
	}

	seeds := make([]baselineSeed, 0, len(baseline))
	for _, item := range baseline {
		seeds = append(seeds, baselineSeed{
			JobID:          item.JobID,
			Score:          item.Score,
			Recommendation: item.Recommendation,
			MatchedSkills:  item.MatchedSkills,
			MissingSkills:  item.MissingSkills,
		})
	}

	for _, limit := range contentLimits {
		payload := promptPayload{
			Preferences:        req.Preferences,
			ResumeExtract:      req.ResumeExtract,
			PersonalityProfile: req.PersonalityProfile,
			TemperamentProfile: req.TemperamentProfile,
			JobDescriptions:    truncateContent(req.JobDescriptions, limit),
			Baseline:           seeds,
		}
		body, err := json.Marshal(payload)
		if err != nil {
			return ai.ChatRequest{}, fmt.Errorf("marshal prompt payload: %w", err)
		}

		chat := ai.ChatRequest{
			Messages: []ai.Message{
				{Role: ai.RoleSystem, Content: system},
				{Role: ai.RoleUser, Content: string(body)},
			},
			Temperature: a.cfg.Temperature,
			MaxTokens:   a.cfg.MaxTokens,
			JSON:        true,
		}
		if chat.PromptLength() <= a.cfg.MaxPromptChars {
			if limit >= 0 {
				a.logger.Debug("job content truncated to fit prompt budget", zap.Int("content_limit", limit))
			}
			return chat, nil
		}
	}

	return ai.ChatRequest{}, errPromptTooLarge
}

func truncateContent(jobs []JobDescription, limit int) []JobDescription {
	if limit < 0 {
		return jobs
	}
	out := make([]JobDescription, len(jobs))
	for i, job := range jobs {
		job.Content = utils.TruncateForLog(job.Content, limit)
		out[i] = job
	}
	return out
}

// Parsing

const backfillNote = "Scored deterministically: missing from the model output."

type parsedRanking struct {
	ranked     []GapAnalysisItem
	overall    map[string]any
	dropped    int
	backfilled int
}

// parse reads model output, keeps schema-valid items for known jobs, normalizes them and
// backfills every input job the model skipped from the baseline.
func (a *Augmenter) parse(raw string, req Request, baseline []GapAnalysisItem) (parsedRanking, error) {
	js, err := ai.ExtractJSON(raw)
	if err != nil {
		return parsedRanking{}, fmt.Errorf("parse model output: %w", err)
	}

	root := gjson.Parse(js)
	list := root
	if !root.IsArray() {
		list = gjson.Result{}
		for _, key := range listKeys {
			if v := root.Get(key); v.IsArray() {
				list = v
				break
			}
		}
	}

	byID := make(map[string]GapAnalysisItem, len(baseline))
	for _, item := range baseline {
		byID[item.JobID] = item
	}
	jobs := make(map[string]JobDescription, len(req.JobDescriptions))
	for _, job := range req.JobDescriptions {
		jobs[job.ID] = job
	}

	out := parsedRanking{ranked: make([]GapAnalysisItem, 0, len(baseline))}
	seen := make(map[string]bool, len(baseline))

	for _, entry := range list.Array() {
		id := strings.TrimSpace(entry.Get("job_id").String())
		base, known := byID[id]
		if !known || seen[id] || !validItem(entry.Raw) {
			out.dropped++
			continue
		}
		seen[id] = true
		out.ranked = append(out.ranked, normalizeItem(entry, jobs[id], base, req.HasProfile()))
	}

	if len(out.ranked) == 0 {
		return out, errNoItems
	}

	for _, item := range baseline {
		if seen[item.JobID] {
			continue
		}
		item.Notes = append(append([]string{}, item.Notes...), backfillNote)
		out.ranked = append(out.ranked, item)
		out.backfilled++
		a.logger.Info("job backfilled from deterministic ranking", logger.JobFields(item.JobID, item.Title)...)
	}

	SortByScore(out.ranked)

	out.overall = Summarize(out.ranked)
	if o := root.Get("overall"); !root.IsArray() && o.IsObject() {
		if m, ok := o.Value().(map[string]any); ok && len(m) > 0 {
			out.overall = m
		}
	}

	return out, nil
}

func validItem(raw string) bool {
	result, err := itemSchema.Validate(gojsonschema.NewStringLoader(raw))
	return err == nil && result.Valid()
}

func normalizeItem(entry gjson.Result, job JobDescription, base GapAnalysisItem, hasProfile bool) GapAnalysisItem {
	score := base.Score
	if f := ai.CoerceFloat(entry.Get("score").Value()); !math.IsNaN(f) {
		score = clampScore(int(math.Round(f)))
	}

	item := GapAnalysisItem{
		JobID:           job.ID,
		Title:           job.Title,
		Company:         job.Company,
		Score:           score,
		Recommendation:  Recommend(score),
		MatchedSkills:   stringList(entry.Get("matched_skills")),
		MissingSkills:   stringList(entry.Get("missing_skills")),
		ResumeGaps:      gapList(entry.Get("resume_gaps")),
		PersonalityGaps: gapList(entry.Get("personality_gaps")),
		PreferenceGaps:  gapList(entry.Get("preference_gaps")),
		Notes:           stringList(entry.Get("notes")),
	}

	if len(item.PreferenceGaps) == 0 {
		item.PreferenceGaps = base.PreferenceGaps
	}
	if len(item.PersonalityGaps) == 0 && (hasProfile || len(base.PersonalityGaps) > 0) {
		item.PersonalityGaps = base.PersonalityGaps
	}
	return item
}

func stringList(v gjson.Result) []string {
	out := []string{}
	if !v.Exists() {
		return out
	}
	if !v.IsArray() {
		if s := strings.TrimSpace(v.String()); s != "" {
			out = append(out, s)
		}
		return out
	}
	for _, e := range v.Array() {
		if s := strings.TrimSpace(e.String()); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func gapList(v gjson.Result) []GapDetail {
	gaps := []GapDetail{}
	for _, e := range v.Array() {
		text := strings.TrimSpace(e.Get("gap").String())
		if text == "" {
			continue
		}
		gaps = append(gaps, GapDetail{
			Gap:        text,
			Severity:   normalizeSeverity(e.Get("severity").String()),
			Evidence:   stringList(e.Get("evidence")),
			HowToClose: strings.TrimSpace(e.Get("how_to_close").String()),
		})
	}
	return gaps
}

func normalizeSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "critical", "severe", "major":
		return SeverityHigh
	case "low", "minor", "info":
		return SeverityLow
	default:
		return SeverityMedium
	}
}
