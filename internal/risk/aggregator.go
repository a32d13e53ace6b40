// Package risk combines the temporal, linguistic and behavioral heuristics
// into a single early-warning prediction and records each run in the pattern
// store.
package risk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"early-warning/internal/analysis"
	"early-warning/internal/domain"
	"early-warning/internal/patterns"
	"early-warning/internal/rules"
)

type Option func(*Aggregator)

// WithRules replaces the built-in rule table.
func WithRules(t rules.Table) Option {
	return func(a *Aggregator) {
		a.rules = t
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// Report is a prediction together with the analyses it was derived from.
type Report struct {
	Prediction domain.RiskPrediction       `json:"prediction"`
	Temporal   analysis.TemporalAnalysis   `json:"temporal"`
	Behavioral analysis.BehavioralAnalysis `json:"behavioral"`
	Linguistic analysis.LinguisticAnalysis `json:"linguistic"`
}

type Aggregator struct {
	rules      rules.Table
	store      *patterns.Store
	now        func() time.Time
	logger     *slog.Logger
	temporal   *analysis.TemporalAnalyzer
	linguistic *analysis.LinguisticAnalyzer
	behavioral *analysis.BehavioralAnalyzer
}

func New(store *patterns.Store, opts ...Option) (*Aggregator, error) {
	if store == nil {
		return nil, errors.New("risk: pattern store must not be nil")
	}
	a := &Aggregator{
		rules:  rules.Default(),
		store:  store,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.rules.Validate(); err != nil {
		return nil, fmt.Errorf("risk: %w", err)
	}
	a.temporal = analysis.NewTemporalAnalyzer(a.rules.Temporal)
	a.linguistic = analysis.NewLinguisticAnalyzer(a.rules.Linguistic)
	a.behavioral = analysis.NewBehavioralAnalyzer(a.rules.Behavioral)
	return a, nil
}

// GenerateRiskPrediction never fails: bad input degrades to defaults and a
// failed pattern write is logged.
func (a *Aggregator) GenerateRiskPrediction(ctx context.Context, convs []domain.Conversation, profile domain.UserProfile) domain.RiskPrediction {
	return a.GenerateReport(ctx, convs, profile).Prediction
}

// GenerateReport is GenerateRiskPrediction with the intermediate analyses.
func (a *Aggregator) GenerateReport(ctx context.Context, convs []domain.Conversation, profile domain.UserProfile) (report Report) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("risk prediction panicked, returning fallback", "panic", r)
			report = Report{Prediction: FallbackPrediction()}
		}
	}()

	now := a.now()
	ordered := domain.SortConversations(convs, now)

	report.Temporal = a.temporal.Analyze(ordered, now)
	report.Behavioral = a.behavioral.Analyze(ordered, now)
	report.Linguistic = a.linguistic.Analyze(analysis.RecentUserText(ordered, a.rules.Linguistic.RecentConversations))

	report.Prediction = domain.RiskPrediction{
		OverallRisk:     a.overallRisk(report),
		Confidence:      confidence(len(ordered), a.rules.Risk.ConfidenceSaturation),
		Timeframe:       a.rules.Risk.Timeframe,
		EarlyWarnings:   append([]domain.Warning{}, report.Temporal.EarlyWarnings...),
		Recommendations: a.recommendations(report, profile),
		Interventions:   a.interventions(),
		RulesVersion:    a.rules.Version,
	}

	if err := a.store.Update(ctx, snapshot(report, now)); err != nil {
		a.logger.Warn("failed to persist trend snapshot", "key", a.store.Key(), "err", err)
	}

	a.logger.Debug("risk prediction generated",
		"conversations", len(ordered),
		"score", report.Prediction.OverallRisk.Score,
		"risk_level", report.Prediction.OverallRisk.Level,
		"warnings", len(report.Prediction.EarlyWarnings),
	)
	return report
}

func (a *Aggregator) overallRisk(r Report) domain.OverallRisk {
	cfg := a.rules.Risk
	breakdown := domain.RiskBreakdown{
		Temporal:   a.temporalRisk(r.Temporal.MoodTrend.Slope),
		Behavioral: a.behavioralRisk(r.Behavioral.Patterns.MessagingFrequency.Pattern),
		Linguistic: r.Linguistic.RiskScore,
	}
	score := clamp01(cfg.TemporalWeight*breakdown.Temporal +
		cfg.BehavioralWeight*breakdown.Behavioral +
		cfg.LinguisticWeight*breakdown.Linguistic)
	return domain.OverallRisk{
		Score:     score,
		Level:     a.level(score),
		Breakdown: breakdown,
	}
}

func (a *Aggregator) temporalRisk(slope float64) float64 {
	switch {
	case slope < a.rules.Risk.SteepDeclineSlope:
		return a.rules.Risk.SteepDeclineRisk
	case slope < 0:
		return a.rules.Risk.DeclineRisk
	default:
		return a.rules.Risk.StableMoodRisk
	}
}

func (a *Aggregator) behavioralRisk(p domain.FrequencyPattern) float64 {
	switch p {
	case domain.FrequencyDecreased:
		return a.rules.Risk.DecreasedFrequencyRisk
	case domain.FrequencyIncreased:
		return a.rules.Risk.IncreasedFrequencyRisk
	default:
		return a.rules.Risk.StableFrequencyRisk
	}
}

func (a *Aggregator) level(score float64) domain.Level {
	switch {
	case score > a.rules.Risk.HighLevel:
		return domain.LevelHigh
	case score > a.rules.Risk.ModerateLevel:
		return domain.LevelModerate
	default:
		return domain.LevelLow
	}
}

func confidence(conversations int, saturation float64) float64 {
	return clamp01(float64(conversations) / saturation)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func snapshot(r Report, now time.Time) domain.TrendSnapshot {
	b := r.Behavioral.Patterns
	m := r.Linguistic.Markers
	return domain.TrendSnapshot{
		Timestamp:           now,
		MoodTrendSlope:      r.Temporal.MoodTrend.Slope,
		MoodTrendConfidence: r.Temporal.MoodTrend.Confidence,
		BehavioralPatterns: domain.BehavioralSnapshot{
			RecentConversations:     b.MessagingFrequency.Recent,
			BaselineConversations:   b.MessagingFrequency.Baseline,
			FrequencyChange:         b.MessagingFrequency.Change,
			FrequencyPattern:        b.MessagingFrequency.Pattern,
			AverageLength:           b.ResponseLength.Average,
			LengthVariance:          b.ResponseLength.Variance,
			ConversationsPerDay:     b.EngagementLevel.ConversationsPerDay,
			MessagesPerConversation: b.EngagementLevel.MessagesPerConversation,
		},
		LinguisticMarkers: domain.LinguisticSnapshot{
			AbsolutistRatio:    m.Absolutist.Ratio,
			SelfReferenceRatio: m.SelfReference.Ratio,
			FutureTenseRatio:   m.FutureTense.Ratio,
			DistortionCount:    m.DistortionTotal(),
			RiskScore:          r.Linguistic.RiskScore,
		},
	}
}
