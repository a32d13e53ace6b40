package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"early-warning/internal/domain"
	"early-warning/internal/integrations/paramstore"
	"early-warning/internal/patterns"
	"early-warning/internal/risk"
	"early-warning/internal/rules"
)

const defaultMaxConversations = 500

type ParamGetter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

type PredictService struct {
	params           ParamGetter
	backend          patterns.Backend
	paramPrefix      string
	maxConversations int
	logger           *slog.Logger
	now              func() time.Time

	cacheMu     sync.RWMutex
	cacheLoaded bool
	recordKey   string
	rules       rules.Table
}

type PredictInput struct {
	// Conversations is either a JSON array or an object keyed by id.
	Conversations json.RawMessage
	UserProfile   domain.UserProfile
}

type PredictOutput struct {
	Prediction domain.RiskPrediction
}

func NewPredictService(p ParamGetter, backend patterns.Backend, paramPrefix string, maxConversations int, logger *slog.Logger) (*PredictService, error) {
	if p == nil {
		return nil, errors.New("usecase: param getter must not be nil")
	}
	if backend == nil {
		return nil, errors.New("usecase: pattern backend must not be nil")
	}
	paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if paramPrefix == "" {
		return nil, errors.New("usecase: parameter prefix must not be empty")
	}
	if maxConversations <= 0 {
		maxConversations = defaultMaxConversations
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PredictService{
		params:           p,
		backend:          backend,
		paramPrefix:      paramPrefix,
		maxConversations: maxConversations,
		logger:           logger,
		now:              time.Now,
	}, nil
}

func (s *PredictService) Predict(ctx context.Context, in PredictInput) (PredictOutput, error) {
	convs, err := domain.DecodeConversations(in.Conversations)
	if err != nil {
		return PredictOutput{}, invalidInput(ReasonInvalidConversations, err)
	}
	if len(convs) > s.maxConversations {
		return PredictOutput{}, invalidInput(ReasonTooManyConversations, nil)
	}
	if err := s.ensureConfig(ctx); err != nil {
		return PredictOutput{}, internal(ReasonConfigLoad, err)
	}

	s.cacheMu.RLock()
	recordKey, table := s.recordKey, s.rules
	s.cacheMu.RUnlock()

	store, err := patterns.Open(ctx, s.backend, recordKey,
		patterns.WithLogger(s.logger),
		patterns.WithClock(s.now),
	)
	if err != nil {
		return PredictOutput{}, internal(ReasonPatternStore, err)
	}
	agg, err := risk.New(store,
		risk.WithRules(table),
		risk.WithLogger(s.logger),
		risk.WithClock(s.now),
	)
	if err != nil {
		return PredictOutput{}, internal(ReasonRulesInvalid, err)
	}

	return PredictOutput{
		Prediction: agg.GenerateRiskPrediction(ctx, convs, in.UserProfile),
	}, nil
}

func (s *PredictService) ensureConfig(ctx context.Context) error {
	s.cacheMu.RLock()
	if s.cacheLoaded {
		s.cacheMu.RUnlock()
		return nil
	}
	s.cacheMu.RUnlock()

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.cacheLoaded {
		return nil
	}

	recordKey, table, err := s.loadSSMParams(ctx)
	if err != nil {
		return err
	}

	s.recordKey = recordKey
	s.rules = table
	s.cacheLoaded = true
	s.logger.Info("engine configuration loaded", "record_key", recordKey, "rules_version", table.Version)
	return nil
}

func (s *PredictService) loadSSMParams(ctx context.Context) (string, rules.Table, error) {
	recordKey, err := s.params.GetParameter(ctx, s.paramPrefix+"/config/pattern_record_key")
	if err != nil {
		return "", rules.Table{}, fmt.Errorf("usecase: load pattern record key: %w", err)
	}
	recordKey = strings.TrimSpace(recordKey)
	if recordKey == "" {
		return "", rules.Table{}, errors.New("usecase: pattern record key is empty")
	}

	raw, err := s.params.GetParameter(ctx, s.paramPrefix+"/config/rules")
	if errors.Is(err, paramstore.ErrNotFound) {
		return recordKey, rules.Default(), nil
	}
	if err != nil {
		return "", rules.Table{}, fmt.Errorf("usecase: load rules: %w", err)
	}
	table, err := rules.Parse([]byte(raw))
	if err != nil {
		return "", rules.Table{}, fmt.Errorf("usecase: parse rules: %w", err)
	}
	return recordKey, table, nil
}
