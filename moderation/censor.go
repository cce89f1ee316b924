// Package moderation masks forbidden words in message content before
// broadcast. Matching is case-insensitive and ignores separator
// characters, so split or punctuated variants are still caught.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"

	"hubchat/errors"
)

type Censor struct {
	machine *goahocorasick.Machine
	mask    rune
}

// NewCensor builds the Aho-Corasick automaton over the normalized word
// list. An empty list is rejected rather than silently matching nothing.
func NewCensor(words []string, mask rune) (*Censor, error) {
	if len(words) == 0 {
		return nil, errors.ErrEmptyWordList
	}

	patterns := make([][]rune, 0, len(words))
	for _, w := range words {
		p := normalize([]rune(w))
		if len(p) > 0 {
			patterns = append(patterns, p)
		}
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Censor{machine: m, mask: mask}, nil
}

// Censor replaces every matched span with the mask rune. Offsets found
// in the normalized text are mapped back to the original runes so that
// surrounding characters stay intact.
func (c *Censor) Censor(content string) string {
	original := []rune(content)
	normalized, origIdx := normalizeWithIndex(original)
	if len(normalized) == 0 {
		return content
	}

	hits := c.machine.MultiPatternSearch(normalized, false)
	if len(hits) == 0 {
		return content
	}

	for _, hit := range hits {
		start := hit.Pos
		end := start + len(hit.Word)
		if start < 0 || end > len(origIdx) {
			continue
		}
		for i := origIdx[start]; i <= origIdx[end-1]; i++ {
			original[i] = c.mask
		}
	}
	return string(original)
}

func normalize(in []rune) []rune {
	out, _ := normalizeWithIndex(in)
	return out
}

// normalizeWithIndex lowercases and drops separators, keeping for each
// kept rune its index in the input.
func normalizeWithIndex(in []rune) ([]rune, []int) {
	out := make([]rune, 0, len(in))
	idx := make([]int, 0, len(in))
	for i, r := range in {
		if unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		out = append(out, unicode.ToLower(r))
		idx = append(idx, i)
	}
	return out, idx
}
