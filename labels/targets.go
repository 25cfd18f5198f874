package labels

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatTargets serializes scores the way numpy prints a float vector,
// e.g. "[0. 1. 0. 0. 0. 1.]".
func FormatTargets(scores [6]float64) string {
	parts := make([]string, len(scores))
	for i, v := range scores {
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.ContainsAny(s, ".eEnN") {
			s += "."
		}
		parts[i] = s
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// ParseTargets reads a vector written by FormatTargets or numpy: the enclosing
// brackets are trimmed and the remainder split on whitespace.
func ParseTargets(s string) ([6]float64, error) {
	var scores [6]float64

	body := strings.TrimSpace(s)
	if !strings.HasPrefix(body, "[") || !strings.HasSuffix(body, "]") {
		return scores, fmt.Errorf("%w: %q is not bracketed", ErrBadTargets, s)
	}
	body = body[1 : len(body)-1]

	tokens := strings.Fields(body)
	if len(tokens) != len(scores) {
		return scores, fmt.Errorf("%w: %q has %d values, want %d", ErrBadTargets, s, len(tokens), len(scores))
	}
	for i, tok := range tokens {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return scores, fmt.Errorf("%w: %q: %v", ErrBadTargets, s, err)
		}
		scores[i] = v
	}
	return scores, nil
}

// formatScore prints a score like pandas writes a float column: "1.0", "0.5".
func formatScore(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
