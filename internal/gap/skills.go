package gap

import "github.com/spigell/jobfit/internal/textnorm"

// SkillFamily groups spellings that count as evidence for one another. A required
// skill that mentions any trigger is supported when the resume mentions any needle.
type SkillFamily struct {
	Name     string
	Triggers []string
	Needles  []string
}

// skillFamilies are checked in order; the first family whose trigger matches wins.
// Cloud platforms are separate families and never support each other.
var skillFamilies = []SkillFamily{
	{
		Name:     "ai_ml",
		Triggers: []string{"ai", "ml", "machine learning", "generative", "llm", "agentic", "retrieval augmented generation", "nlp"},
		Needles: []string{
			"ai", "ml", "nlp", "llm", "llms", "gpt", "rag", "embeddings", "machine learning",
			"generative", "retrieval augmented", "transformer", "transformers", "openai",
			"langchain", "vector", "agentic", "genai",
		},
	},
	{Name: "aws", Triggers: []string{"aws", "amazon web services"}, Needles: []string{"aws", "amazon web services"}},
	{Name: "gcp", Triggers: []string{"gcp", "google cloud"}, Needles: []string{"gcp", "google cloud"}},
	{Name: "azure", Triggers: []string{"azure"}, Needles: []string{"azure"}},
	{Name: "agile", Triggers: []string{"agile"}, Needles: []string{"agile", "scrum", "kanban"}},
	{Name: "testing", Triggers: []string{"testing"}, Needles: []string{"testing", "test", "unit test", "integration"}},
}

// SkillFamilyOf returns the family a skill belongs to, if any.
func SkillFamilyOf(skill string) (SkillFamily, bool) {
	normalized := textnorm.NewCorpus(textnorm.NormalizeSkill(skill))
	if normalized.Empty() {
		return SkillFamily{}, false
	}

	for _, family := range skillFamilies {
		if normalized.HasAny(family.Triggers...) {
			return family, true
		}
	}
	return SkillFamily{}, false
}

// SkillSupportedByResume reports whether the flattened resume text backs the skill,
// using family expansion before falling back to a substring test.
func SkillSupportedByResume(skill, resumeText string) bool {
	return skillSupported(skill, textnorm.NewCorpus(resumeText))
}

func skillSupported(skill string, resume textnorm.Corpus) bool {
	if resume.Empty() {
		return false
	}

	if family, ok := SkillFamilyOf(skill); ok {
		return resume.HasAny(family.Needles...)
	}

	return resume.Contains(textnorm.NormalizeSkill(skill)) || resume.Contains(skill)
}
