package analysis

import (
	"math"
	"time"

	"early-warning/internal/domain"
	"early-warning/internal/rules"
)

// MoodTrend is an ordinary-least-squares fit of mood score against the
// conversation's position in the window. Scores is empty when the window holds
// too few conversations to fit.
type MoodTrend struct {
	Slope      float64   `json:"slope"`
	Confidence float64   `json:"confidence"`
	Scores     []float64 `json:"scores"`
}

type ResponsePatterns struct {
	AverageLength float64 `json:"averageLength"`
	MessageCount  int     `json:"messageCount"`
	Variation     float64 `json:"variation"`
}

type TimingPatterns struct {
	LateNightRatio     float64 `json:"lateNightRatio"`
	TotalConversations int     `json:"totalConversations"`
}

type TemporalAnalysis struct {
	MoodTrend        MoodTrend        `json:"moodTrend"`
	ResponsePatterns ResponsePatterns `json:"responsePatterns"`
	TimingPatterns   TimingPatterns   `json:"timingPatterns"`
	EarlyWarnings    []domain.Warning `json:"earlyWarnings"`
}

type TemporalAnalyzer struct {
	rules rules.Temporal
}

func NewTemporalAnalyzer(r rules.Temporal) *TemporalAnalyzer {
	return &TemporalAnalyzer{rules: r}
}

// Analyze evaluates the configured window and applies the warning rules in
// order: declining mood, then sleep disruption.
func (a *TemporalAnalyzer) Analyze(convs []domain.Conversation, now time.Time) TemporalAnalysis {
	days := a.rules.WindowDays
	out := TemporalAnalysis{
		MoodTrend:        a.MoodTrend(convs, now, days),
		ResponsePatterns: a.ResponsePatterns(convs, now, days),
		TimingPatterns:   a.TimingPatterns(convs, now, days),
		EarlyWarnings:    []domain.Warning{},
	}

	if out.MoodTrend.Slope < a.rules.DecliningMood.Threshold {
		out.EarlyWarnings = append(out.EarlyWarnings, warning(domain.WarningDecliningMood, domain.LevelModerate, a.rules.DecliningMood))
	}
	if out.TimingPatterns.LateNightRatio > a.rules.SleepDisruption.Threshold {
		out.EarlyWarnings = append(out.EarlyWarnings, warning(domain.WarningSleepDisruption, domain.LevelLow, a.rules.SleepDisruption))
	}
	return out
}

// MoodScore averages per-message scores over the user's messages. A
// conversation without user messages is neutral.
func (a *TemporalAnalyzer) MoodScore(c domain.Conversation) float64 {
	var total float64
	var count int
	for _, m := range c.Messages {
		if !m.IsUser() {
			continue
		}
		total += a.messageScore(m)
		count++
	}
	if count == 0 {
		return a.rules.NeutralMood
	}
	return total / float64(count)
}

func (a *TemporalAnalyzer) messageScore(m domain.Message) float64 {
	var positive, negative float64
	for _, label := range a.rules.PositiveEmotions {
		positive += m.EmotionProbabilities[label]
	}
	for _, label := range a.rules.NegativeEmotions {
		negative += m.EmotionProbabilities[label]
	}
	return clamp01(a.rules.NeutralMood + a.rules.EmotionWeight*positive - a.rules.EmotionWeight*negative)
}

// MoodTrend regresses against sequence index, not elapsed time, so uneven
// gaps between conversations are not weighted.
func (a *TemporalAnalyzer) MoodTrend(convs []domain.Conversation, now time.Time, days int) MoodTrend {
	recent := recentConversations(convs, now, days)
	if len(recent) < a.rules.MinConversations || len(recent) < 2 {
		return MoodTrend{Scores: []float64{}}
	}

	scores := make([]float64, len(recent))
	for i, c := range recent {
		scores[i] = a.MoodScore(c)
	}

	n := float64(len(scores))
	var sumX, sumY, sumXY, sumX2 float64
	for i, y := range scores {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}
	slope := (n*sumXY - sumX*sumY) / (n*sumX2 - sumX*sumX)

	return MoodTrend{
		Slope:      slope,
		Confidence: math.Min(1, n/a.rules.ConfidenceSaturation),
		Scores:     scores,
	}
}

func (a *TemporalAnalyzer) ResponsePatterns(convs []domain.Conversation, now time.Time, days int) ResponsePatterns {
	lengths := userMessageLengths(recentConversations(convs, now, days))
	mean, variance := meanVariance(lengths)
	variation := 0.0
	if len(lengths) > 1 {
		variation = math.Sqrt(variance)
	}
	return ResponsePatterns{
		AverageLength: mean,
		MessageCount:  len(lengths),
		Variation:     variation,
	}
}

// TimingPatterns reports the share of conversations started late at night,
// using the hour in each timestamp's own offset.
func (a *TemporalAnalyzer) TimingPatterns(convs []domain.Conversation, now time.Time, days int) TimingPatterns {
	recent := recentConversations(convs, now, days)
	if len(recent) == 0 {
		return TimingPatterns{}
	}
	late := 0
	for _, c := range recent {
		if a.isLateNight(c.When(now).Hour()) {
			late++
		}
	}
	return TimingPatterns{
		LateNightRatio:     float64(late) / float64(len(recent)),
		TotalConversations: len(recent),
	}
}

func (a *TemporalAnalyzer) isLateNight(hour int) bool {
	start, end := a.rules.LateNightStartHour, a.rules.LateNightEndHour
	if start <= end {
		return hour >= start && hour <= end
	}
	return hour >= start || hour <= end
}

func warning(kind domain.WarningType, severity domain.Level, r rules.WarningRule) domain.Warning {
	suggestions := make([]string, len(r.Suggestions))
	copy(suggestions, r.Suggestions)
	return domain.Warning{
		Type:        kind,
		Severity:    severity,
		Message:     r.Message,
		Suggestions: suggestions,
	}
}
