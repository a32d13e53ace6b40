package risk

import (
	"early-warning/internal/domain"
)

// recommendations picks personality-specific mood suggestions on a steep
// decline, adds lexical and frequency nudges, and falls back to generic advice
// when nothing triggered.
func (a *Aggregator) recommendations(r Report, profile domain.UserProfile) []string {
	cfg := a.rules.Recommendations
	out := []string{}

	if r.Temporal.MoodTrend.Slope < a.rules.Risk.SteepDeclineSlope {
		out = append(out, a.moodTemplate(profile)...)
	}
	if r.Linguistic.Markers.Absolutist.Ratio > a.rules.Linguistic.AbsolutistRatio {
		out = append(out, cfg.FlexibleThinking)
	}
	if r.Behavioral.Patterns.MessagingFrequency.Pattern == domain.FrequencyIncreased {
		out = append(out, cfg.AdditionalSupport)
	}
	if len(out) == 0 {
		out = append(out, cfg.Fallback...)
	}
	if len(out) > cfg.Limit {
		out = out[:cfg.Limit]
	}
	return out
}

func (a *Aggregator) moodTemplate(profile domain.UserProfile) []string {
	templates := a.rules.Recommendations.MoodByPersonality
	if recs, ok := templates[string(profile.ResolvedPersonality())]; ok {
		return recs
	}
	return templates[a.rules.Recommendations.DefaultPersonality]
}

// interventions is the same list for everyone.
func (a *Aggregator) interventions() []string {
	return append([]string{}, a.rules.Recommendations.Interventions...)
}
