package gap

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/jobfit/internal/ai"
)

type fakeCompleter struct {
	response string
	err      error
	block    bool
	calls    int
	last     ai.ChatRequest
}

func (f *fakeCompleter) Complete(ctx context.Context, req ai.ChatRequest) (string, error) {
	f.calls++
	f.last = req
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.response, f.err
}

func (f *fakeCompleter) Model() string { return "fake-model" }

func augmentRequest() Request {
	return Request{
		ResumeExtract: ResumeExtract{
			Skills:    []string{"Go", "Kubernetes"},
			Positions: []Position{{Title: "Platform Engineer", Company: "Acme"}},
		},
		JobDescriptions: []JobDescription{
			{ID: "j1", Title: "Backend Engineer", RequiredSkills: []string{"Go"}},
			{ID: "j2", Title: "Systems Engineer", RequiredSkills: []string{"Rust"}},
			{ID: "j3", Title: "Platform Engineer", RequiredSkills: []string{"Kubernetes"}},
		},
	}
}

func runAugment(t *testing.T, completer *fakeCompleter, cfg AugmenterConfig, req Request) Outcome {
	t.Helper()
	baseline := NewRanker(nil).Rank(req)
	return NewAugmenter(completer, cfg, zap.NewNop()).Augment(context.Background(), req, baseline)
}

func jobIDs(items []GapAnalysisItem) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.JobID)
	}
	return ids
}

func TestAugmentMergesAndBackfills(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{response: "Here you go:\n```json\n" + `{
		"ranked": [
			{"job_id": "j2", "score": "88", "recommendation": "skip", "preference_gaps": []},
			{"job_id": "ghost", "score": 99},
			{"job_id": "j1", "score": 140, "preference_gaps": [{"gap": "Long commute", "severity": "CRITICAL", "evidence": "Onsite in Austin"}]}
		],
		"overall": {"summary": "Focus on j1"}
	}` + "\n```"}

	out := runAugment(t, completer, AugmenterConfig{UseRealLLM: true}, augmentRequest())

	assert.Equal(t, OutcomeOK, out.Kind)
	assert.True(t, out.UsedLLM)
	assert.Equal(t, "fake-model", out.Model)
	assert.Equal(t, 1, completer.calls)
	assert.Equal(t, []string{"j1", "j3", "j2"}, jobIDs(out.Ranked))
	assert.Equal(t, map[string]any{"summary": "Focus on j1"}, out.Overall)

	j1, j3, j2 := out.Ranked[0], out.Ranked[1], out.Ranked[2]

	assert.Equal(t, 100, j1.Score)
	assert.Equal(t, RecommendPursue, j1.Recommendation)
	assert.Equal(t, "Backend Engineer", j1.Title)
	require.Len(t, j1.PreferenceGaps, 1)
	assert.Equal(t, SeverityHigh, j1.PreferenceGaps[0].Severity)
	assert.Equal(t, []string{"Onsite in Austin"}, j1.PreferenceGaps[0].Evidence)

	assert.Equal(t, 88, j2.Score)
	assert.Equal(t, RecommendPursue, j2.Recommendation)
	assert.NotEmpty(t, j2.PreferenceGaps, "empty preference gaps are filled from the baseline")

	assert.Equal(t, 90, j3.Score)
	assert.Contains(t, j3.Notes, backfillNote)

	assert.Len(t, out.Notes, 2)
	assert.Contains(t, out.Notes[0], "Dropped 1")
	assert.Contains(t, out.Notes[1], "1 job(s) missing")
}

func TestAugmentPromptContract(t *testing.T) {
	t.Parallel()

	req := augmentRequest()
	req.PersonalityProfile = &Profile{Scores: map[string]int{"action": 1}}
	completer := &fakeCompleter{response: `[{"job_id": "j1", "score": 70}]`}

	out := runAugment(t, completer, AugmenterConfig{UseRealLLM: true, Temperature: 0.3, MaxTokens: 1024}, req)
	require.Equal(t, OutcomeOK, out.Kind)

	require.Len(t, completer.last.Messages, 2)
	assert.Equal(t, ai.RoleSystem, completer.last.Messages[0].Role)
	assert.Contains(t, completer.last.Messages[0].Content, `"required": ["job_id", "score"]`)
	assert.Contains(t, completer.last.Messages[0].Content, "personality_gaps must be non-empty")
	assert.Contains(t, completer.last.Messages[1].Content, `"baseline":[`)
	assert.True(t, completer.last.JSON)
	assert.Equal(t, 1024, completer.last.MaxTokens)
	assert.InDelta(t, 0.3, completer.last.Temperature, 1e-6)

	for _, item := range out.Ranked {
		assert.NotEmpty(t, item.PersonalityGaps, item.JobID)
	}
}

func TestAugmentFallsBack(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		completer *fakeCompleter
		cfg       AugmenterConfig
		wantNote  string
	}{
		{
			name:      "call error",
			completer: &fakeCompleter{err: errors.New("quota exceeded")},
			cfg:       AugmenterConfig{UseRealLLM: true},
			wantNote:  "quota exceeded",
		},
		{
			name:      "timeout",
			completer: &fakeCompleter{block: true},
			cfg:       AugmenterConfig{UseRealLLM: true, Timeout: 20 * time.Millisecond},
			wantNote:  "deadline exceeded",
		},
		{
			name:      "not json",
			completer: &fakeCompleter{response: "Sorry, I cannot rank these jobs."},
			cfg:       AugmenterConfig{UseRealLLM: true},
			wantNote:  "no json value",
		},
		{
			name:      "schema violation",
			completer: &fakeCompleter{response: `{"ranked": [{"job_id": "j1", "score": {"value": 80}}]}`},
			cfg:       AugmenterConfig{UseRealLLM: true},
			wantNote:  "no usable rankings",
		},
		{
			name:      "empty list",
			completer: &fakeCompleter{response: `{"ranked": []}`},
			cfg:       AugmenterConfig{UseRealLLM: true},
			wantNote:  "no usable rankings",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := augmentRequest()
			baseline := NewRanker(nil).Rank(req)
			out := NewAugmenter(tt.completer, tt.cfg, nil).Augment(context.Background(), req, baseline)

			assert.Equal(t, OutcomeDegraded, out.Kind)
			assert.Error(t, out.Err)
			assert.False(t, out.UsedLLM)
			assert.Equal(t, baseline, out.Ranked)
			assert.Equal(t, 1, tt.completer.calls, "the model is never retried")
			require.Len(t, out.Notes, 1)
			assert.Contains(t, out.Notes[0], tt.wantNote)
		})
	}
}

func TestAugmentSkipsModel(t *testing.T) {
	t.Parallel()

	thin := augmentRequest()
	for i := range thin.JobDescriptions {
		thin.JobDescriptions[i].RequiredSkills = nil
	}

	tests := []struct {
		name     string
		req      Request
		cfg      AugmenterConfig
		wantKind OutcomeKind
		wantNote string
	}{
		{name: "stub mode", req: augmentRequest(), cfg: AugmenterConfig{}, wantKind: OutcomeOK, wantNote: "disabled"},
		{name: "thin signal", req: thin, cfg: AugmenterConfig{UseRealLLM: true}, wantKind: OutcomeOK, wantNote: "not enough job or resume detail"},
		{name: "prompt too large", req: augmentRequest(), cfg: AugmenterConfig{UseRealLLM: true, MaxPromptChars: 100}, wantKind: OutcomeDegraded, wantNote: "size budget"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			completer := &fakeCompleter{response: `{"ranked": []}`}
			out := runAugment(t, completer, tt.cfg, tt.req)

			assert.Equal(t, tt.wantKind, out.Kind)
			assert.Zero(t, completer.calls)
			assert.Len(t, out.Ranked, len(tt.req.JobDescriptions))
			require.Len(t, out.Notes, 1)
			assert.Contains(t, out.Notes[0], tt.wantNote)
		})
	}
}

func TestAugmentTruncatesContentToBudget(t *testing.T) {
	t.Parallel()

	req := augmentRequest()
	req.JobDescriptions[0].Content = strings.Repeat("x", 20000)
	completer := &fakeCompleter{response: `{"ranked": [{"job_id": "j1", "score": 80}]}`}

	out := runAugment(t, completer, AugmenterConfig{UseRealLLM: true, MaxPromptChars: 15000}, req)
	require.Equal(t, OutcomeOK, out.Kind)

	user := completer.last.Messages[1].Content
	assert.Contains(t, user, strings.Repeat("x", 6000))
	assert.NotContains(t, user, strings.Repeat("x", 6001))
	assert.LessOrEqual(t, completer.last.PromptLength(), 15000)
}

func TestNormalizeSeverity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, SeverityHigh, normalizeSeverity(" Critical "))
	assert.Equal(t, SeverityLow, normalizeSeverity("minor"))
	assert.Equal(t, SeverityMedium, normalizeSeverity("moderate"))
	assert.Equal(t, SeverityMedium, normalizeSeverity(""))
}
