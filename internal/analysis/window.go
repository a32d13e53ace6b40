// Package analysis implements the three independent early-warning heuristics:
// temporal mood regression, lexical biomarkers and behavioral frequency
// change. Analyzers are stateless apart from their rule tables and never
// fail; malformed input degrades to neutral defaults.
package analysis

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"early-warning/internal/domain"
)

// recentConversations keeps conversations whose resolved time is on or after
// now minus days. Conversations without a usable timestamp resolve to now.
func recentConversations(convs []domain.Conversation, now time.Time, days int) []domain.Conversation {
	cutoff := now.AddDate(0, 0, -days)
	out := make([]domain.Conversation, 0, len(convs))
	for _, c := range convs {
		if !c.When(now).Before(cutoff) {
			out = append(out, c)
		}
	}
	return out
}

func userMessageLengths(convs []domain.Conversation) []float64 {
	var lengths []float64
	for _, c := range convs {
		for _, m := range c.Messages {
			if m.IsUser() {
				lengths = append(lengths, float64(utf8.RuneCountInString(m.Text)))
			}
		}
	}
	return lengths
}

// meanVariance returns the mean and population variance; both are 0 for an
// empty input.
func meanVariance(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var sq float64
	for _, x := range xs {
		sq += (x - mean) * (x - mean)
	}
	return mean, sq / float64(len(xs))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// RecentUserText joins the user messages of the last n conversations of an
// oldest-first sequence with single spaces.
func RecentUserText(convs []domain.Conversation, n int) string {
	if n <= 0 || len(convs) == 0 {
		return ""
	}
	start := len(convs) - n
	if start < 0 {
		start = 0
	}
	var parts []string
	for _, c := range convs[start:] {
		for _, m := range c.UserMessages() {
			parts = append(parts, m.Text)
		}
	}
	return strings.Join(parts, " ")
}
