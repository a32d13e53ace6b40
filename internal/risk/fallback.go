package risk

import "early-warning/internal/domain"

// FallbackPrediction is the static prediction a caller shows when the engine
// could not run at all.
func FallbackPrediction() domain.RiskPrediction {
	return domain.RiskPrediction{
		OverallRisk: domain.OverallRisk{
			Score: 0.2,
			Level: domain.LevelLow,
			Breakdown: domain.RiskBreakdown{
				Temporal:   0.2,
				Behavioral: 0.2,
				Linguistic: 0.2,
			},
		},
		Confidence:    0.5,
		Timeframe:     "7-14 days",
		EarlyWarnings: []domain.Warning{},
		Recommendations: []string{
			"Continue your current wellness routine",
			"Practice regular self-check-ins",
			"Maintain social connections",
			"Consider starting a mindfulness practice",
		},
		Interventions: []string{"Daily mood tracking", "Regular sleep schedule"},
	}
}
