// Package patterns persists the longitudinal record of past risk predictions.
//
// The store performs an unguarded read-modify-write on each Update; it is
// meant for a single foreground caller and overlapping Updates on the same
// key may drop snapshots.
package patterns

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"early-warning/internal/domain"
)

// RetentionDays bounds how long trend snapshots are kept.
const RetentionDays = 30

// Backend stores the serialized record under a key. GetRecord returns
// (nil, nil) when nothing has been stored yet.
type Backend interface {
	GetRecord(ctx context.Context, key string) ([]byte, error)
	PutRecord(ctx context.Context, key string, data []byte) error
}

type Option func(*Store)

// WithClock overrides the time source used for retention.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Store owns the pattern record for one key.
type Store struct {
	backend Backend
	key     string
	now     func() time.Time
	logger  *slog.Logger
	record  domain.PatternRecord
}

// Open creates a Store and loads the current record. A missing or corrupt
// record is replaced with the empty default.
func Open(ctx context.Context, backend Backend, key string, opts ...Option) (*Store, error) {
	if backend == nil {
		return nil, errors.New("patterns: backend must not be nil")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.New("patterns: record key must not be empty")
	}
	s := &Store{
		backend: backend,
		key:     key,
		now:     time.Now,
		logger:  slog.Default(),
		record:  domain.EmptyPatternRecord(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Load(ctx)
	return s, nil
}

// Load rereads the record from the backend. Read and decode failures are
// logged and yield the empty default; they are never returned.
func (s *Store) Load(ctx context.Context) domain.PatternRecord {
	s.record = s.read(ctx)
	return s.Record()
}

func (s *Store) read(ctx context.Context) domain.PatternRecord {
	raw, err := s.backend.GetRecord(ctx, s.key)
	if err != nil {
		s.logger.Warn("pattern record unreadable, starting empty", "key", s.key, "err", err)
		return domain.EmptyPatternRecord()
	}
	if len(raw) == 0 {
		return domain.EmptyPatternRecord()
	}
	var rec domain.PatternRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		s.logger.Warn("pattern record corrupt, starting empty", "key", s.key, "err", err)
		return domain.EmptyPatternRecord()
	}
	return normalize(rec)
}

// Update appends snapshot, drops snapshots older than the retention window
// and writes the record back.
func (s *Store) Update(ctx context.Context, snapshot domain.TrendSnapshot) error {
	now := s.now()
	if snapshot.Timestamp.IsZero() {
		snapshot.Timestamp = now
	}

	rec := s.Record()
	rec.TemporalTrends = append(rec.TemporalTrends, snapshot)
	rec.TemporalTrends = prune(rec.TemporalTrends, now.AddDate(0, 0, -RetentionDays))
	rec.LinguisticMarkers = linguisticSummary(snapshot.LinguisticMarkers)
	rec.BehavioralPatterns = behavioralSummary(snapshot.BehavioralPatterns)
	s.record = rec

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("patterns: encode record: %w", err)
	}
	if err := s.backend.PutRecord(ctx, s.key, data); err != nil {
		return fmt.Errorf("patterns: write record %q: %w", s.key, err)
	}
	return nil
}

// Record returns a copy of the in-memory record.
func (s *Store) Record() domain.PatternRecord {
	out := domain.EmptyPatternRecord()
	out.TemporalTrends = append(out.TemporalTrends, s.record.TemporalTrends...)
	for k, v := range s.record.LinguisticMarkers {
		out.LinguisticMarkers[k] = v
	}
	for k, v := range s.record.BehavioralPatterns {
		out.BehavioralPatterns[k] = v
	}
	for k, v := range s.record.InterventionEffectiveness {
		out.InterventionEffectiveness[k] = v
	}
	return out
}

func (s *Store) Key() string {
	return s.key
}

func normalize(rec domain.PatternRecord) domain.PatternRecord {
	if rec.TemporalTrends == nil {
		rec.TemporalTrends = []domain.TrendSnapshot{}
	}
	if rec.LinguisticMarkers == nil {
		rec.LinguisticMarkers = map[string]float64{}
	}
	if rec.BehavioralPatterns == nil {
		rec.BehavioralPatterns = map[string]float64{}
	}
	if rec.InterventionEffectiveness == nil {
		rec.InterventionEffectiveness = map[string]float64{}
	}
	sortByTime(rec.TemporalTrends)
	return rec
}

func prune(trends []domain.TrendSnapshot, cutoff time.Time) []domain.TrendSnapshot {
	kept := make([]domain.TrendSnapshot, 0, len(trends))
	for _, t := range trends {
		if !t.Timestamp.Before(cutoff) {
			kept = append(kept, t)
		}
	}
	sortByTime(kept)
	return kept
}

func sortByTime(trends []domain.TrendSnapshot) {
	sort.SliceStable(trends, func(i, j int) bool {
		return trends[i].Timestamp.Before(trends[j].Timestamp)
	})
}

func linguisticSummary(m domain.LinguisticSnapshot) map[string]float64 {
	return map[string]float64{
		"absolutistRatio":    m.AbsolutistRatio,
		"selfReferenceRatio": m.SelfReferenceRatio,
		"futureTenseRatio":   m.FutureTenseRatio,
		"distortionCount":    float64(m.DistortionCount),
		"riskScore":          m.RiskScore,
	}
}

func behavioralSummary(b domain.BehavioralSnapshot) map[string]float64 {
	return map[string]float64{
		"recentConversations":     float64(b.RecentConversations),
		"baselineConversations":   float64(b.BaselineConversations),
		"frequencyChange":         b.FrequencyChange,
		"averageLength":           b.AverageLength,
		"lengthVariance":          b.LengthVariance,
		"conversationsPerDay":     b.ConversationsPerDay,
		"messagesPerConversation": b.MessagesPerConversation,
	}
}
