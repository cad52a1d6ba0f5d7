package gap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersonalityGapsEmptyContent(t *testing.T) {
	t.Parallel()

	gaps := PersonalityGaps(nil, nil, JobDescription{ID: "j1", Title: "Engineer"})
	require.Len(t, gaps, 1)
	assert.Equal(t, []string{"Job content is empty/missing."}, gaps[0].Evidence)
}

func TestPersonalityGapsWithoutProfile(t *testing.T) {
	t.Parallel()

	gaps := PersonalityGaps(nil, nil, JobDescription{ID: "j1", Content: "Partner with stakeholders"})
	assert.NotNil(t, gaps)
	assert.Empty(t, gaps)
}

func TestPersonalityGapsConflict(t *testing.T) {
	t.Parallel()

	temperament := &Profile{Scores: map[string]int{"action": -3}}
	job := JobDescription{ID: "j1", Content: "Partner with stakeholders across cross-functional teams"}

	gaps := PersonalityGaps(nil, temperament, job)
	require.Len(t, gaps, 1)
	assert.Equal(t, SeverityHigh, gaps[0].Severity)
	assert.Contains(t, gaps[0].Gap, "stakeholder alignment")
	assert.Equal(t, "Temperament action = -3 (autonomy)", gaps[0].Evidence[0])
	assert.Equal(t, "Job signal needs_alignment: stakeholders, cross-functional, partner with", gaps[0].Evidence[1])
}

func TestPersonalityGapsOppositePoleDoesNotConflict(t *testing.T) {
	t.Parallel()

	personality := &Profile{Scores: map[string]int{"action": 2}}
	job := JobDescription{ID: "j1", Content: "Partner with stakeholders"}

	gaps := PersonalityGaps(personality, nil, job)
	require.Len(t, gaps, 1)
	assert.Equal(t, "No strong work-style conflicts; validate in screening", gaps[0].Gap)
	assert.Equal(t, []string{
		"Job signals detected: needs_alignment",
		"Personality scores: action=2",
	}, gaps[0].Evidence)
}

func TestPersonalityGapsNoSignals(t *testing.T) {
	t.Parallel()

	personality := &Profile{Scores: map[string]int{"structure": 2, "info": 0}}
	gaps := PersonalityGaps(personality, nil, JobDescription{ID: "j1", Content: "Write clean code"})

	require.Len(t, gaps, 1)
	assert.Equal(t, []string{
		"Job signals detected: none obvious",
		"Personality scores: info=0, structure=2",
	}, gaps[0].Evidence)
}

func TestPersonalityGapsDedupeAndCap(t *testing.T) {
	t.Parallel()

	temperament := &Profile{Scores: map[string]int{
		"action":        -3,
		"energy":        -2,
		"communication": -1,
		"info":          -1,
		"structure":     -1,
	}}
	personality := &Profile{Scores: map[string]int{"action": -1}}
	job := JobDescription{ID: "j1", Content: "Drive strategy with stakeholders under a strict compliance process"}

	gaps := PersonalityGaps(personality, temperament, job)
	require.Len(t, gaps, maxPersonalityGaps)
	assert.Equal(t, SeverityHigh, gaps[0].Severity)

	seen := map[string]int{}
	for _, g := range gaps {
		seen[g.Gap]++
	}
	for gap, n := range seen {
		assert.Equal(t, 1, n, gap)
	}
}

func TestJobSignals(t *testing.T) {
	t.Parallel()

	signals := JobSignals(JobDescription{
		Title:            "Founding Engineer",
		Content:          "Fast-paced startup.",
		Responsibilities: []string{"Mentor junior engineers", "Own the roadmap"},
	})

	assert.Contains(t, signals, signalFastPaced)
	assert.Contains(t, signals, signalPeople)
	assert.Contains(t, signals, signalStrategy)
	assert.NotContains(t, signals, signalProcess)
}
