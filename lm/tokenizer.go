package lm

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// UnknownToken is the ID reserved for out-of-vocabulary tokens.
const UnknownToken = 0

// Tokenizer maps text to token IDs over a frequency-built vocabulary.
type Tokenizer struct {
	// Vocab maps token string to ID; ID 0 is reserved for unknowns
	Vocab map[string]int
}

// NewTokenizer creates a tokenizer with an empty vocabulary. Fit it on a
// corpus before encoding.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{Vocab: make(map[string]int)}
}

// VocabSize returns the number of IDs including the unknown slot.
func (t *Tokenizer) VocabSize() int {
	return len(t.Vocab) + 1
}

// Fit builds the vocabulary from a corpus, keeping the maxVocab most
// frequent tokens. Frequency ties break lexicographically so the same
// corpus always yields the same vocabulary.
func (t *Tokenizer) Fit(texts []string, maxVocab int) {
	counts := make(map[string]int)
	for _, text := range texts {
		for _, token := range Tokenize(text) {
			counts[token]++
		}
	}

	tokens := make([]string, 0, len(counts))
	for token := range counts {
		tokens = append(tokens, token)
	}
	sort.Slice(tokens, func(i, j int) bool {
		if counts[tokens[i]] != counts[tokens[j]] {
			return counts[tokens[i]] > counts[tokens[j]]
		}
		return tokens[i] < tokens[j]
	})

	if maxVocab > 0 && len(tokens) > maxVocab {
		tokens = tokens[:maxVocab]
	}

	t.Vocab = make(map[string]int, len(tokens))
	for i, token := range tokens {
		t.Vocab[token] = i + 1
	}
}

// Encode maps a text to token IDs. Unknown tokens map to UnknownToken.
func (t *Tokenizer) Encode(text string) []int {
	tokens := Tokenize(text)
	ids := make([]int, len(tokens))
	for i, token := range tokens {
		ids[i] = t.Vocab[token]
	}
	return ids
}

// Tokenize normalizes and splits a text into tokens. Normalization is NFKC
// so ligatures and width variants from OCR engines compare equal; tokens
// are lowercased and split on anything that is not a letter or digit.
func Tokenize(text string) []string {
	normalized := strings.ToLower(norm.NFKC.String(text))
	return strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
