package hooks

import (
	"math"
	"regexp"
	"strings"
)

var (
	reNum      = regexp.MustCompile(`\b\d+(?:[\.,]\d+)?\b`)
	reTrigger  = regexp.MustCompile(`(?i)\b(secreto|error|errores|nunca|siempre|nadie|deja de|nadie te dice|verdad|secret|mistake|never|always|nobody|stop)\b`)
	reYou      = regexp.MustCompile(`(?i)\b(tu|te|usted|you|your)\b`)
	reHowTo    = regexp.MustCompile(`(?i)\b(cómo|how to|paso \d+|step \d+)\b`)
	reQuestion = regexp.MustCompile(`[¿?]`)
)

// EstimateRetention is a deterministic 0..100 estimate used when the model
// omits a retention score.
func EstimateRetention(text string) float64 {
	t := strings.TrimSpace(text)
	if t == "" {
		return 0
	}
	lower := strings.ToLower(t)

	s := 40.0
	s += float64(len(reTrigger.FindAllStringIndex(lower, -1))) * 8
	s += float64(len(reNum.FindAllStringIndex(t, -1))) * 4
	if reYou.MatchString(lower) {
		s += 6
	}
	if reHowTo.MatchString(lower) {
		s += 5
	}
	if reQuestion.MatchString(t) {
		s += 7
	}
	s += float64(strings.Count(t, "!")) * 2

	// hooks are read in a couple of seconds; long ones lose viewers
	if n := len(strings.Fields(t)); n > 20 {
		s -= float64(n-20) * 1.5
	}
	return clamp(s, 0, 100)
}

// clamp maps NaN to the lower bound.
func clamp(x, a, b float64) float64 {
	if math.IsNaN(x) || x < a {
		return a
	}
	if x > b {
		return b
	}
	return x
}
