// Package textnorm tokenizes free text and normalizes skill spellings so that
// resume evidence and job requirements can be compared deterministically.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// phraseSynonyms are applied to the lowercased skill before punctuation is unified.
var phraseSynonyms = []struct{ from, to string }{
	{"ai/ml", "ai ml"},
	{"ml/ai", "ai ml"},
	{"ci/cd", "ci cd"},
	{"node.js", "nodejs"},
	{"react.js", "react"},
	{"gen ai", "generative ai"},
	{"large language models", "llm"},
	{"large language model", "llm"},
}

// tokenSynonyms map a single normalized token to its canonical spelling.
var tokenSynonyms = map[string]string{
	"genai":  "generative ai",
	"llms":   "llm",
	"rag":    "retrieval augmented generation",
	"k8s":    "kubernetes",
	"golang": "go",
	"js":     "javascript",
	"ts":     "typescript",
	"gcloud": "gcp",
	"py":     "python",
}

var dashes = strings.NewReplacer(
	"‐", "-",
	"‑", "-",
	"‒", "-",
	"–", "-",
	"—", "-",
	"―", "-",
	"−", "-",
)

// Tokenize lowercases s, splits on non-alphanumerics and drops empty tokens.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// NormalizeText folds compatibility forms and diacritics, lowercases, unifies
// dashes to '-', turns slashes into spaces and collapses whitespace.
func NormalizeText(s string) string {
	if s == "" {
		return ""
	}

	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	folded = strings.ToLower(folded)
	folded = dashes.Replace(folded)
	folded = strings.ReplaceAll(folded, "/", " ")

	return strings.Join(strings.Fields(folded), " ")
}

// NormalizeSkill returns the canonical spelling of a skill name.
func NormalizeSkill(s string) string {
	lower := strings.ToLower(strings.TrimSpace(s))
	if lower == "" {
		return ""
	}

	lower = dashes.Replace(lower)
	for _, syn := range phraseSynonyms {
		lower = strings.ReplaceAll(lower, syn.from, syn.to)
	}

	words := strings.Fields(NormalizeText(lower))
	for i, w := range words {
		if canonical, ok := tokenSynonyms[w]; ok {
			words[i] = canonical
		}
	}

	return strings.Join(words, " ")
}
