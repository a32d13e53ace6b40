// Package rules holds the versioned heuristic rule table: keyword sets,
// numeric thresholds, aggregation weights and recommendation templates.
// Analyzers and the aggregator read every tunable from a Table so the rules
// can be adjusted and tested without touching the arithmetic.
package rules

import (
	"errors"
	"fmt"
	"math"
)

// Version identifies the built-in rule table.
const Version = "2024.1"

type Table struct {
	Version         string          `yaml:"version"`
	Temporal        Temporal        `yaml:"temporal"`
	Linguistic      Linguistic      `yaml:"linguistic"`
	Behavioral      Behavioral      `yaml:"behavioral"`
	Risk            Risk            `yaml:"risk"`
	Recommendations Recommendations `yaml:"recommendations"`
}

type Temporal struct {
	WindowDays           int         `yaml:"window_days"`
	MinConversations     int         `yaml:"min_conversations"`
	ConfidenceSaturation float64     `yaml:"confidence_saturation"`
	NeutralMood          float64     `yaml:"neutral_mood"`
	EmotionWeight        float64     `yaml:"emotion_weight"`
	PositiveEmotions     []string    `yaml:"positive_emotions"`
	NegativeEmotions     []string    `yaml:"negative_emotions"`
	LateNightStartHour   int         `yaml:"late_night_start_hour"`
	LateNightEndHour     int         `yaml:"late_night_end_hour"`
	DecliningMood        WarningRule `yaml:"declining_mood"`
	SleepDisruption      WarningRule `yaml:"sleep_disruption"`
}

// WarningRule fires when its metric crosses Threshold.
type WarningRule struct {
	Threshold   float64  `yaml:"threshold"`
	Message     string   `yaml:"message"`
	Suggestions []string `yaml:"suggestions"`
}

type Linguistic struct {
	RecentConversations int                 `yaml:"recent_conversations"`
	AbsolutistWords     []string            `yaml:"absolutist_words"`
	AbsolutistRatio     float64             `yaml:"absolutist_ratio"`
	SelfReferenceWords  []string            `yaml:"self_reference_words"`
	SelfReferenceRatio  float64             `yaml:"self_reference_ratio"`
	FutureMarkers       []string            `yaml:"future_markers"`
	FutureTenseRatio    float64             `yaml:"future_tense_ratio"`
	Distortions         []DistortionPattern `yaml:"distortions"`
	DistortionCount     int                 `yaml:"distortion_count"`
	Weights             LinguisticWeights   `yaml:"weights"`
	Insights            LinguisticInsights  `yaml:"insights"`
}

// DistortionPattern is a cognitive-distortion category matched on whole words
// or phrases, case-insensitively.
type DistortionPattern struct {
	Name  string   `yaml:"name"`
	Terms []string `yaml:"terms"`
}

type LinguisticWeights struct {
	Absolutist    float64 `yaml:"absolutist"`
	SelfReference float64 `yaml:"self_reference"`
	FutureTense   float64 `yaml:"future_tense"`
	Distortions   float64 `yaml:"distortions"`
}

type LinguisticInsights struct {
	Absolutist    string `yaml:"absolutist"`
	SelfReference string `yaml:"self_reference"`
	FutureTense   string `yaml:"future_tense"`
	Distortions   string `yaml:"distortions"`
}

type Behavioral struct {
	RecentDays       int     `yaml:"recent_days"`
	BaselineDays     int     `yaml:"baseline_days"`
	IncreaseFactor   float64 `yaml:"increase_factor"`
	DecreaseFactor   float64 `yaml:"decrease_factor"`
	LowEngagement    float64 `yaml:"low_engagement"`
	DecreasedChange  string  `yaml:"decreased_change"`
	IncreasedChange  string  `yaml:"increased_change"`
	LowEngagementTip string  `yaml:"low_engagement_tip"`
}

type Risk struct {
	TemporalWeight   float64 `yaml:"temporal_weight"`
	BehavioralWeight float64 `yaml:"behavioral_weight"`
	LinguisticWeight float64 `yaml:"linguistic_weight"`

	SteepDeclineSlope float64 `yaml:"steep_decline_slope"`
	SteepDeclineRisk  float64 `yaml:"steep_decline_risk"`
	DeclineRisk       float64 `yaml:"decline_risk"`
	StableMoodRisk    float64 `yaml:"stable_mood_risk"`

	DecreasedFrequencyRisk float64 `yaml:"decreased_frequency_risk"`
	IncreasedFrequencyRisk float64 `yaml:"increased_frequency_risk"`
	StableFrequencyRisk    float64 `yaml:"stable_frequency_risk"`

	HighLevel     float64 `yaml:"high_level"`
	ModerateLevel float64 `yaml:"moderate_level"`

	ConfidenceSaturation float64 `yaml:"confidence_saturation"`
	Timeframe            string  `yaml:"timeframe"`
}

type Recommendations struct {
	Limit              int                 `yaml:"limit"`
	MoodByPersonality  map[string][]string `yaml:"mood_by_personality"`
	FlexibleThinking   string              `yaml:"flexible_thinking"`
	AdditionalSupport  string              `yaml:"additional_support"`
	Fallback           []string            `yaml:"fallback"`
	Interventions      []string            `yaml:"interventions"`
	DefaultPersonality string              `yaml:"default_personality"`
}

// Default returns a fresh copy of the built-in table.
func Default() Table {
	return Table{
		Version: Version,
		Temporal: Temporal{
			WindowDays:           7,
			MinConversations:     3,
			ConfidenceSaturation: 7,
			NeutralMood:          0.5,
			EmotionWeight:        0.3,
			PositiveEmotions:     []string{"joy", "optimism", "gratitude", "love"},
			NegativeEmotions:     []string{"sadness", "fear", "anger", "anxiety"},
			LateNightStartHour:   22,
			LateNightEndHour:     5,
			DecliningMood: WarningRule{
				Threshold: -0.3,
				Message:   "Your emotional tone has been gradually shifting over the past week.",
				Suggestions: []string{
					"Consider scheduling time for activities you enjoy",
					"Practice mindfulness meditation",
				},
			},
			SleepDisruption: WarningRule{
				Threshold: 0.5,
				Message:   "I notice you've been having conversations later at night recently.",
				Suggestions: []string{
					"Try a sleep routine meditation",
					"Consider reducing screen time before bed",
				},
			},
		},
		Linguistic: Linguistic{
			RecentConversations: 3,
			AbsolutistWords: []string{
				"always", "never", "completely", "totally", "entirely", "absolutely",
				"nothing", "everything", "all", "none", "every", "constant",
			},
			AbsolutistRatio:    0.1,
			SelfReferenceWords: []string{"i", "me", "my", "myself", "mine"},
			SelfReferenceRatio: 0.15,
			FutureMarkers: []string{
				"will", "going", "plan", "hope", "expect", "tomorrow",
				"next", "future", "later", "soon", "eventually",
			},
			FutureTenseRatio: 0.05,
			Distortions: []DistortionPattern{
				{Name: "allOrNothing", Terms: []string{"always", "never", "completely", "totally"}},
				{Name: "overgeneralization", Terms: []string{"everyone", "nobody", "everything", "nothing"}},
				{Name: "catastrophizing", Terms: []string{"terrible", "awful", "horrible", "disaster", "catastrophe"}},
				{Name: "shouldStatements", Terms: []string{"should", "must", "have to", "ought to"}},
			},
			DistortionCount: 3,
			Weights: LinguisticWeights{
				Absolutist:    0.3,
				SelfReference: 0.2,
				FutureTense:   0.2,
				Distortions:   0.3,
			},
			Insights: LinguisticInsights{
				Absolutist:    `Consider using more flexible language - try "sometimes" instead of "always/never"`,
				SelfReference: "You might benefit from focusing on external activities or relationships",
				FutureTense:   "Try naming one small thing you are looking forward to this week",
				Distortions:   "Notice when a thought sounds like a rule or a catastrophe, and ask what evidence supports it",
			},
		},
		Behavioral: Behavioral{
			RecentDays:       7,
			BaselineDays:     14,
			IncreaseFactor:   1.5,
			DecreaseFactor:   0.5,
			LowEngagement:    0.5,
			DecreasedChange:  "Reduced conversation frequency detected",
			IncreasedChange:  "Increased conversation frequency - may indicate need for support",
			LowEngagementTip: "Consider regular check-ins for better mental health tracking",
		},
		Risk: Risk{
			TemporalWeight:         0.4,
			BehavioralWeight:       0.3,
			LinguisticWeight:       0.3,
			SteepDeclineSlope:      -0.2,
			SteepDeclineRisk:       0.7,
			DeclineRisk:            0.4,
			StableMoodRisk:         0.2,
			DecreasedFrequencyRisk: 0.6,
			IncreasedFrequencyRisk: 0.5,
			StableFrequencyRisk:    0.3,
			HighLevel:              0.7,
			ModerateLevel:          0.4,
			ConfidenceSaturation:   10,
			Timeframe:              "7-14 days",
		},
		Recommendations: Recommendations{
			Limit: 4,
			MoodByPersonality: map[string][]string{
				"fitness":  {"Try a gentle 15-minute walk", "Do some stretching exercises"},
				"creative": {"Try drawing your emotions", "Write in a journal"},
				"techy":    {"Use a meditation app", "Try digital detox periods"},
				"foody":    {"Cook a comforting meal", "Try herbal teas"},
				"bookworm": {"Read something inspiring", "Practice gratitude journaling"},
				"genz":     {"Make a playlist that matches how you want to feel", "Send a voice note to a friend you trust"},
			},
			FlexibleThinking:  `Practice flexible thinking - try replacing "always/never" with "sometimes"`,
			AdditionalSupport: "Consider if you need additional support - it's okay to reach out",
			Fallback: []string{
				"Continue your self-care routine",
				"Practice mindfulness throughout the day",
				"Maintain social connections",
			},
			Interventions: []string{
				"Daily mood check-ins",
				"Mindfulness practice",
				"Regular sleep schedule",
				"Social connection",
			},
			DefaultPersonality: "creative",
		},
	}
}

// Validate rejects tables the analyzers cannot evaluate safely.
func (t Table) Validate() error {
	var errs []error
	if t.Version == "" {
		errs = append(errs, errors.New("version is required"))
	}
	if t.Temporal.WindowDays <= 0 {
		errs = append(errs, errors.New("temporal.window_days must be positive"))
	}
	if t.Temporal.MinConversations < 2 {
		errs = append(errs, errors.New("temporal.min_conversations must be at least 2"))
	}
	if t.Temporal.ConfidenceSaturation <= 0 {
		errs = append(errs, errors.New("temporal.confidence_saturation must be positive"))
	}
	if !inHourRange(t.Temporal.LateNightStartHour) || !inHourRange(t.Temporal.LateNightEndHour) {
		errs = append(errs, errors.New("temporal late-night hours must be within 0-23"))
	}
	if t.Linguistic.RecentConversations <= 0 {
		errs = append(errs, errors.New("linguistic.recent_conversations must be positive"))
	}
	for _, d := range t.Linguistic.Distortions {
		if d.Name == "" || len(d.Terms) == 0 {
			errs = append(errs, fmt.Errorf("linguistic distortion %q needs a name and terms", d.Name))
		}
	}
	if t.Behavioral.RecentDays <= 0 || t.Behavioral.BaselineDays <= t.Behavioral.RecentDays {
		errs = append(errs, errors.New("behavioral.baseline_days must exceed recent_days"))
	}
	weights := t.Risk.TemporalWeight + t.Risk.BehavioralWeight + t.Risk.LinguisticWeight
	if math.Abs(weights-1) > 1e-9 {
		errs = append(errs, fmt.Errorf("risk weights must sum to 1, got %g", weights))
	}
	if t.Risk.ModerateLevel >= t.Risk.HighLevel {
		errs = append(errs, errors.New("risk.moderate_level must be below high_level"))
	}
	if t.Risk.ConfidenceSaturation <= 0 {
		errs = append(errs, errors.New("risk.confidence_saturation must be positive"))
	}
	if t.Recommendations.Limit <= 0 {
		errs = append(errs, errors.New("recommendations.limit must be positive"))
	}
	if _, ok := t.Recommendations.MoodByPersonality[t.Recommendations.DefaultPersonality]; !ok {
		errs = append(errs, fmt.Errorf("recommendations.default_personality %q has no template", t.Recommendations.DefaultPersonality))
	}
	if len(errs) > 0 {
		return fmt.Errorf("rules: invalid table: %w", errors.Join(errs...))
	}
	return nil
}

func inHourRange(h int) bool {
	return h >= 0 && h <= 23
}
