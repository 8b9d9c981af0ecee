// Package identity normalizes raw person names into canonical keys.
package identity

import "strings"

// DefaultNoise is every ASCII digit and punctuation character except '.'.
const DefaultNoise = "0123456789!\"#$%&'()*+,-/:;<=>?@[\\]^_`{|}~"

// Normalizer turns raw identity text into a lowercase key of letters and single dots.
type Normalizer struct {
	noise map[rune]struct{}
}

// NewNormalizer builds a normalizer that strips the runes in noise. A '.' in noise is ignored.
func NewNormalizer(noise string) Normalizer {
	set := make(map[rune]struct{}, len(noise))
	for _, r := range noise {
		if r == '.' {
			continue
		}
		set[r] = struct{}{}
	}
	return Normalizer{noise: set}
}

// Default returns a normalizer over DefaultNoise.
func Default() Normalizer {
	return NewNormalizer(DefaultNoise)
}

// Normalize lowercases raw, drops noise runes and collapses runs of dots.
// It returns false when nothing usable is left.
func (n Normalizer) Normalize(raw string) (string, bool) {
	var b strings.Builder
	b.Grow(len(raw))
	lastDot := false
	for _, r := range strings.ToLower(raw) {
		if _, ok := n.noise[r]; ok {
			continue
		}
		if r == '.' {
			if lastDot {
				continue
			}
			lastDot = true
		} else {
			lastDot = false
		}
		b.WriteRune(r)
	}
	out := b.String()
	if out == "" {
		return "", false
	}
	return out, true
}
