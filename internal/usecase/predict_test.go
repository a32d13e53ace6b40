package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"early-warning/internal/domain"
	"early-warning/internal/integrations/paramstore"
	"early-warning/internal/patterns"
)

const testPrefix = "/early-warning"

type mockParams struct {
	vals  map[string]string
	err   error
	calls int
}

func (m *mockParams) GetParameter(_ context.Context, name string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	v, ok := m.vals[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", paramstore.ErrNotFound, name)
	}
	return v, nil
}

type transientParams struct {
	*mockParams
	failOnce bool
}

func (p *transientParams) GetParameter(ctx context.Context, name string) (string, error) {
	if p.failOnce {
		p.failOnce = false
		return "", errors.New("temporary ssm failure")
	}
	return p.mockParams.GetParameter(ctx, name)
}

func defaultParams() *mockParams {
	return &mockParams{vals: map[string]string{
		testPrefix + "/config/pattern_record_key": "patterns",
	}}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, p ParamGetter, backend patterns.Backend) *PredictService {
	t.Helper()
	svc, err := NewPredictService(p, backend, testPrefix+"/", 0, quietLogger())
	require.NoError(t, err)
	svc.now = func() time.Time { return testNow }
	return svc
}

func conversationsJSON(t *testing.T, n int) json.RawMessage {
	t.Helper()
	items := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, map[string]any{
			"id":        fmt.Sprintf("c%d", i),
			"timestamp": testNow.Add(-time.Duration(i+1) * time.Hour).Format(time.RFC3339),
			"messages": []map[string]any{
				{"sender": "user", "text": "I will try again tomorrow", "emotionProbabilities": map[string]float64{"joy": 0.6}},
			},
		})
	}
	raw, err := json.Marshal(items)
	require.NoError(t, err)
	return raw
}

func TestNewPredictService_Validation(t *testing.T) {
	backend := patterns.NewMemoryBackend()

	_, err := NewPredictService(nil, backend, testPrefix, 0, nil)
	require.ErrorContains(t, err, "param getter")

	_, err = NewPredictService(defaultParams(), nil, testPrefix, 0, nil)
	require.ErrorContains(t, err, "pattern backend")

	_, err = NewPredictService(defaultParams(), backend, " / ", 0, nil)
	require.ErrorContains(t, err, "prefix")

	svc, err := NewPredictService(defaultParams(), backend, testPrefix, 0, nil)
	require.NoError(t, err)
	require.Equal(t, defaultMaxConversations, svc.maxConversations)
}

func TestPredict_HappyPathPersistsSnapshot(t *testing.T) {
	backend := patterns.NewMemoryBackend()
	svc := newTestService(t, defaultParams(), backend)

	out, err := svc.Predict(context.Background(), PredictInput{
		Conversations: conversationsJSON(t, 4),
		UserProfile:   domain.UserProfile{Personality: domain.PersonalityTechy},
	})
	require.NoError(t, err)
	require.InDelta(t, 0.4, out.Prediction.Confidence, 1e-9)
	require.Equal(t, "7-14 days", out.Prediction.Timeframe)
	require.NotEmpty(t, out.Prediction.Recommendations)

	raw, err := backend.GetRecord(context.Background(), "patterns")
	require.NoError(t, err)
	var rec domain.PatternRecord
	require.NoError(t, json.Unmarshal(raw, &rec))
	require.Len(t, rec.TemporalTrends, 1)
	require.True(t, rec.TemporalTrends[0].Timestamp.Equal(testNow))
}

func TestPredict_SnapshotsAccumulateAcrossRequests(t *testing.T) {
	backend := patterns.NewMemoryBackend()
	svc := newTestService(t, defaultParams(), backend)

	for i := 0; i < 3; i++ {
		_, err := svc.Predict(context.Background(), PredictInput{Conversations: conversationsJSON(t, 2)})
		require.NoError(t, err)
	}

	store, err := patterns.Open(context.Background(), backend, "patterns")
	require.NoError(t, err)
	require.Len(t, store.Record().TemporalTrends, 3)
}

func TestPredict_AcceptsMapInput(t *testing.T) {
	svc := newTestService(t, defaultParams(), patterns.NewMemoryBackend())
	raw := json.RawMessage(`{"x":{"timestamp":"2026-03-10T08:00:00Z","messages":[{"sender":"user","text":"ok"}]}}`)

	out, err := svc.Predict(context.Background(), PredictInput{Conversations: raw})
	require.NoError(t, err)
	require.InDelta(t, 0.1, out.Prediction.Confidence, 1e-9)
}

func TestPredict_EmptyConversations(t *testing.T) {
	svc := newTestService(t, defaultParams(), patterns.NewMemoryBackend())

	out, err := svc.Predict(context.Background(), PredictInput{})
	require.NoError(t, err)
	require.Equal(t, domain.LevelLow, out.Prediction.OverallRisk.Level)
	require.Zero(t, out.Prediction.Confidence)
}

func TestPredict_InvalidConversations(t *testing.T) {
	svc := newTestService(t, defaultParams(), patterns.NewMemoryBackend())

	_, err := svc.Predict(context.Background(), PredictInput{Conversations: json.RawMessage(`"nope"`)})
	var ucErr *Error
	require.ErrorAs(t, err, &ucErr)
	require.Equal(t, ErrorInvalidInput, ucErr.Code)
	require.Equal(t, ReasonInvalidConversations, ucErr.Reason)
}

func TestPredict_TooManyConversations(t *testing.T) {
	params := defaultParams()
	svc, err := NewPredictService(params, patterns.NewMemoryBackend(), testPrefix, 3, quietLogger())
	require.NoError(t, err)

	_, err = svc.Predict(context.Background(), PredictInput{Conversations: conversationsJSON(t, 4)})
	var ucErr *Error
	require.ErrorAs(t, err, &ucErr)
	require.Equal(t, ErrorInvalidInput, ucErr.Code)
	require.Equal(t, ReasonTooManyConversations, ucErr.Reason)
	require.Zero(t, params.calls, "input is validated before configuration is loaded")
}

func TestPredict_MissingRecordKeyIsInternal(t *testing.T) {
	svc := newTestService(t, &mockParams{vals: map[string]string{}}, patterns.NewMemoryBackend())

	_, err := svc.Predict(context.Background(), PredictInput{})
	var ucErr *Error
	require.ErrorAs(t, err, &ucErr)
	require.Equal(t, ErrorInternal, ucErr.Code)
	require.Equal(t, ReasonConfigLoad, ucErr.Reason)
	require.ErrorIs(t, err, paramstore.ErrNotFound)
}

func TestPredict_BlankRecordKey(t *testing.T) {
	params := &mockParams{vals: map[string]string{testPrefix + "/config/pattern_record_key": "  "}}
	svc := newTestService(t, params, patterns.NewMemoryBackend())

	_, err := svc.Predict(context.Background(), PredictInput{})
	require.ErrorContains(t, err, "record key is empty")
}

func TestPredict_RulesOverrideFromParameter(t *testing.T) {
	params := defaultParams()
	params.vals[testPrefix+"/config/rules"] = strings.Join([]string{
		"version: custom-1",
		"risk:",
		"  timeframe: 3-5 days",
	}, "\n")
	svc := newTestService(t, params, patterns.NewMemoryBackend())

	out, err := svc.Predict(context.Background(), PredictInput{})
	require.NoError(t, err)
	require.Equal(t, "3-5 days", out.Prediction.Timeframe)
	require.Equal(t, "custom-1", out.Prediction.RulesVersion)
}

func TestPredict_InvalidRulesParameter(t *testing.T) {
	params := defaultParams()
	params.vals[testPrefix+"/config/rules"] = "risk:\n  high_level: 0.1\n  moderate_level: 0.5\n"
	svc := newTestService(t, params, patterns.NewMemoryBackend())

	_, err := svc.Predict(context.Background(), PredictInput{})
	var ucErr *Error
	require.ErrorAs(t, err, &ucErr)
	require.Equal(t, ErrorInternal, ucErr.Code)
	require.ErrorContains(t, err, "parse rules")
}

func TestPredict_RulesReadErrorIsNotTreatedAsMissing(t *testing.T) {
	params := &failingRulesParams{mockParams: defaultParams()}
	svc := newTestService(t, params, patterns.NewMemoryBackend())

	_, err := svc.Predict(context.Background(), PredictInput{})
	require.ErrorContains(t, err, "load rules")
}

type failingRulesParams struct {
	*mockParams
}

func (p *failingRulesParams) GetParameter(ctx context.Context, name string) (string, error) {
	if strings.HasSuffix(name, "/config/rules") {
		return "", errors.New("access denied")
	}
	return p.mockParams.GetParameter(ctx, name)
}

func TestPredict_ConfigIsCached(t *testing.T) {
	params := defaultParams()
	svc := newTestService(t, params, patterns.NewMemoryBackend())

	for i := 0; i < 3; i++ {
		_, err := svc.Predict(context.Background(), PredictInput{})
		require.NoError(t, err)
	}
	require.Equal(t, 2, params.calls)
}

func TestPredict_RetriesConfigAfterTransientFailure(t *testing.T) {
	params := &transientParams{mockParams: defaultParams(), failOnce: true}
	svc := newTestService(t, params, patterns.NewMemoryBackend())

	_, err := svc.Predict(context.Background(), PredictInput{})
	require.Error(t, err)

	_, err = svc.Predict(context.Background(), PredictInput{})
	require.NoError(t, err)
}

func TestPredict_StoreFailureStillPredicts(t *testing.T) {
	svc := newTestService(t, defaultParams(), brokenBackend{})

	out, err := svc.Predict(context.Background(), PredictInput{Conversations: conversationsJSON(t, 1)})
	require.NoError(t, err)
	require.InDelta(t, 0.1, out.Prediction.Confidence, 1e-9)
}

type brokenBackend struct{}

func (brokenBackend) GetRecord(context.Context, string) ([]byte, error) {
	return nil, errors.New("table unavailable")
}

func (brokenBackend) PutRecord(context.Context, string, []byte) error {
	return errors.New("table unavailable")
}
