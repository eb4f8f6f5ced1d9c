package secrets

import (
	"math"
	"strings"
	"unicode"
)

// Entropy heuristic defaults.
const (
	DefaultMinLength   = 32
	DefaultMinCharsets = 3
	DefaultMinEntropy  = 4.0
)

// EntropyOptions tunes the high-entropy token heuristic.
type EntropyOptions struct {
	// MinLength is the shortest token considered.
	MinLength int
	// MinCharsets is how many of {lower, upper, digit, symbol} a token must mix.
	MinCharsets int
	// MinEntropy is the Shannon entropy floor in bits per character.
	MinEntropy float64
	// Disabled turns the heuristic off.
	Disabled bool
}

func (o EntropyOptions) withDefaults() EntropyOptions {
	if o.MinLength <= 0 {
		o.MinLength = DefaultMinLength
	}
	if o.MinCharsets <= 0 {
		o.MinCharsets = DefaultMinCharsets
	}
	if o.MinEntropy <= 0 {
		o.MinEntropy = DefaultMinEntropy
	}
	return o
}

// highEntropyToken returns the first token of text that passes every threshold.
func (o EntropyOptions) highEntropyToken(text string) (string, bool) {
	if o.Disabled {
		return "", false
	}
	for _, tok := range tokenize(text) {
		if len(tok) < o.MinLength {
			continue
		}
		if charsets(tok) < o.MinCharsets {
			continue
		}
		if ShannonEntropy(tok) < o.MinEntropy {
			continue
		}
		return tok, true
	}
	return "", false
}

// tokenize splits on anything that cannot appear in base64/base64url/hex tokens.
func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		switch {
		case r < 128 && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			return false
		case r == '+' || r == '/' || r == '=' || r == '_' || r == '-':
			return false
		}
		return true
	})
}

func charsets(tok string) int {
	var lower, upper, digit, symbol bool
	for _, r := range tok {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	n := 0
	for _, b := range []bool{lower, upper, digit, symbol} {
		if b {
			n++
		}
	}
	return n
}

// ShannonEntropy returns the entropy of s in bits per character.
func ShannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}
	counts := make(map[rune]int)
	total := 0
	for _, r := range s {
		counts[r]++
		total++
	}
	var h float64
	for _, c := range counts {
		p := float64(c) / float64(total)
		h -= p * math.Log2(p)
	}
	return h
}
