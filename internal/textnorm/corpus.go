package textnorm

import "strings"

// Corpus is normalized text plus its token set. Single-word terms are matched
// against tokens; terms with spaces or punctuation are matched as substrings.
type Corpus struct {
	text   string
	tokens map[string]struct{}
}

// NewCorpus normalizes s and indexes its tokens.
func NewCorpus(s string) Corpus {
	text := NormalizeText(s)
	tokens := make(map[string]struct{})
	for _, tok := range Tokenize(text) {
		tokens[tok] = struct{}{}
	}
	return Corpus{text: text, tokens: tokens}
}

// Empty reports whether the corpus holds no text.
func (c Corpus) Empty() bool { return c.text == "" }

// Has reports whether term occurs in the corpus.
func (c Corpus) Has(term string) bool {
	term = NormalizeText(term)
	if term == "" || c.text == "" {
		return false
	}

	if isWord(term) {
		_, ok := c.tokens[term]
		return ok
	}

	return strings.Contains(c.text, term)
}

// HasAny reports whether any of terms occurs in the corpus.
func (c Corpus) HasAny(terms ...string) bool {
	for _, term := range terms {
		if c.Has(term) {
			return true
		}
	}
	return false
}

// Matches returns the terms that occur in the corpus, in input order.
func (c Corpus) Matches(terms []string) []string {
	var found []string
	for _, term := range terms {
		if c.Has(term) {
			found = append(found, term)
		}
	}
	return found
}

// Contains is a plain substring test against the normalized text.
func (c Corpus) Contains(s string) bool {
	s = NormalizeText(s)
	return s != "" && strings.Contains(c.text, s)
}

func isWord(s string) bool {
	tokens := Tokenize(s)
	return len(tokens) == 1 && tokens[0] == s
}
