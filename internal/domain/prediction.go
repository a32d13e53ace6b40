package domain

import "time"

// Level is shared by warning severities and overall risk levels.
type Level string

const (
	LevelLow      Level = "LOW"
	LevelModerate Level = "MODERATE"
	LevelHigh     Level = "HIGH"
)

// WarningType labels a rule-triggered early warning.
type WarningType string

const (
	WarningDecliningMood   WarningType = "DECLINING_MOOD"
	WarningSleepDisruption WarningType = "SLEEP_DISRUPTION"
)

// Warning is a structured alert describing a detected negative trend.
type Warning struct {
	Type        WarningType `json:"type"`
	Severity    Level       `json:"severity"`
	Message     string      `json:"message"`
	Suggestions []string    `json:"suggestions"`
}

// RiskBreakdown holds the per-heuristic risk components, each in [0,1].
type RiskBreakdown struct {
	Temporal   float64 `json:"temporal"`
	Behavioral float64 `json:"behavioral"`
	Linguistic float64 `json:"linguistic"`
}

// OverallRisk is the weighted combination of the breakdown.
type OverallRisk struct {
	Score     float64       `json:"score"`
	Level     Level         `json:"level"`
	Breakdown RiskBreakdown `json:"breakdown"`
}

// RiskPrediction is returned by the engine and owned by the caller.
// An empty EarlyWarnings slice means no signal was detected.
type RiskPrediction struct {
	OverallRisk     OverallRisk `json:"overallRisk"`
	Confidence      float64     `json:"confidence"`
	Timeframe       string      `json:"timeframe"`
	EarlyWarnings   []Warning   `json:"earlyWarnings"`
	Recommendations []string    `json:"recommendations"`
	Interventions   []string    `json:"interventions"`
	RulesVersion    string      `json:"rulesVersion,omitempty"`
}

// FrequencyPattern classifies recent messaging frequency against a baseline.
type FrequencyPattern string

const (
	FrequencyIncreased FrequencyPattern = "INCREASED"
	FrequencyDecreased FrequencyPattern = "DECREASED"
	FrequencyStable    FrequencyPattern = "STABLE"
)

// BehavioralSnapshot is the persisted subset of behavioral metrics.
type BehavioralSnapshot struct {
	RecentConversations     int              `json:"recentConversations"`
	BaselineConversations   int              `json:"baselineConversations"`
	FrequencyChange         float64          `json:"frequencyChange"`
	FrequencyPattern        FrequencyPattern `json:"frequencyPattern"`
	AverageLength           float64          `json:"averageLength"`
	LengthVariance          float64          `json:"lengthVariance"`
	ConversationsPerDay     float64          `json:"conversationsPerDay"`
	MessagesPerConversation float64          `json:"messagesPerConversation"`
}

// LinguisticSnapshot is the persisted subset of lexical biomarkers.
type LinguisticSnapshot struct {
	AbsolutistRatio    float64 `json:"absolutistRatio"`
	SelfReferenceRatio float64 `json:"selfReferenceRatio"`
	FutureTenseRatio   float64 `json:"futureTenseRatio"`
	DistortionCount    int     `json:"distortionCount"`
	RiskScore          float64 `json:"riskScore"`
}

// TrendSnapshot is one prediction run's derived metrics, kept for 30 days.
type TrendSnapshot struct {
	Timestamp           time.Time          `json:"timestamp"`
	MoodTrendSlope      float64            `json:"moodTrendSlope"`
	MoodTrendConfidence float64            `json:"moodTrendConfidence"`
	BehavioralPatterns  BehavioralSnapshot `json:"behavioralPatterns"`
	LinguisticMarkers   LinguisticSnapshot `json:"linguisticMarkers"`
}

// PatternRecord is the single persisted longitudinal record.
type PatternRecord struct {
	TemporalTrends            []TrendSnapshot    `json:"temporalTrends"`
	LinguisticMarkers         map[string]float64 `json:"linguisticMarkers"`
	BehavioralPatterns        map[string]float64 `json:"behavioralPatterns"`
	InterventionEffectiveness map[string]float64 `json:"interventionEffectiveness"`
}

// EmptyPatternRecord returns the default record with non-nil collections.
func EmptyPatternRecord() PatternRecord {
	return PatternRecord{
		TemporalTrends:            []TrendSnapshot{},
		LinguisticMarkers:         map[string]float64{},
		BehavioralPatterns:        map[string]float64{},
		InterventionEffectiveness: map[string]float64{},
	}
}
