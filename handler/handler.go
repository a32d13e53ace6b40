package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"early-warning/internal/domain"
	"early-warning/internal/risk"
	"early-warning/internal/usecase"
)

const (
	serviceName       = "early-warning"
	routePredict      = "/risk-prediction"
	routeHealth       = "/health"
	correlationHeader = "X-Correlation-Id"

	errorNotFound         = "NOT_FOUND"
	errorMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

type PredictUseCase interface {
	Predict(ctx context.Context, in usecase.PredictInput) (usecase.PredictOutput, error)
}

type Handler struct {
	uc  PredictUseCase
	now func() time.Time
}

type predictRequest struct {
	Conversations json.RawMessage `json:"conversations"`
	UserProfile   json.RawMessage `json:"userProfile"`
}

type healthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Timestamp   string `json:"timestamp"`
	Service     string `json:"service"`
}

type errorResponse struct {
	Error    string                 `json:"error"`
	Fallback *domain.RiskPrediction `json:"fallback,omitempty"`
}

func NewHandler(uc PredictUseCase) (*Handler, error) {
	if uc == nil {
		return nil, errors.New("handler: use case must not be nil")
	}
	return &Handler{uc: uc, now: time.Now}, nil
}

func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := headerValue(req.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	logger := slog.With("correlation_id", correlationID, "method", req.HTTPMethod, "path", req.Path)

	if req.HTTPMethod == http.MethodOptions {
		return respond(http.StatusOK, "", correlationID), nil
	}

	switch strings.TrimRight(req.Path, "/") {
	case routeHealth:
		if req.HTTPMethod != http.MethodGet {
			return jsonResponse(http.StatusMethodNotAllowed, errorResponse{Error: errorMethodNotAllowed}, correlationID), nil
		}
		return jsonResponse(http.StatusOK, healthResponse{
			Status:      "healthy",
			ModelLoaded: true,
			Timestamp:   h.now().UTC().Format(time.RFC3339Nano),
			Service:     serviceName,
		}, correlationID), nil
	case routePredict:
		if req.HTTPMethod != http.MethodPost {
			return jsonResponse(http.StatusMethodNotAllowed, errorResponse{Error: errorMethodNotAllowed}, correlationID), nil
		}
		return h.predict(ctx, req, correlationID, logger), nil
	default:
		return jsonResponse(http.StatusNotFound, errorResponse{Error: errorNotFound}, correlationID), nil
	}
}

func (h *Handler) predict(ctx context.Context, req events.APIGatewayProxyRequest, correlationID string, logger *slog.Logger) events.APIGatewayProxyResponse {
	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			logger.Warn("request body is not valid base64", "err", err)
			return failure(http.StatusBadRequest, usecase.ErrorInvalidInput, correlationID)
		}
		body = decoded
	}

	var in predictRequest
	if err := json.Unmarshal(body, &in); err != nil {
		logger.Warn("invalid request body", "err", err)
		return failure(http.StatusBadRequest, usecase.ErrorInvalidInput, correlationID)
	}

	out, err := h.uc.Predict(ctx, usecase.PredictInput{
		Conversations: in.Conversations,
		UserProfile:   domain.DecodeUserProfile(in.UserProfile),
	})
	if err != nil {
		status, code := mapError(err)
		if status >= http.StatusInternalServerError {
			logger.Error("risk prediction failed", "code", code, "err", err)
		} else {
			logger.Warn("risk prediction rejected", "code", code, "err", err)
		}
		return failure(status, code, correlationID)
	}

	logger.Info("risk prediction served",
		"risk_level", out.Prediction.OverallRisk.Level,
		"score", out.Prediction.OverallRisk.Score,
		"warnings", len(out.Prediction.EarlyWarnings),
	)
	return jsonResponse(http.StatusOK, out.Prediction, correlationID)
}

func mapError(err error) (int, usecase.ErrorCode) {
	if code := usecase.CodeOf(err); code == usecase.ErrorInvalidInput {
		return http.StatusBadRequest, code
	}
	return http.StatusInternalServerError, usecase.ErrorInternal
}

func failure(status int, code usecase.ErrorCode, correlationID string) events.APIGatewayProxyResponse {
	fallback := risk.FallbackPrediction()
	return jsonResponse(status, errorResponse{Error: string(code), Fallback: &fallback}, correlationID)
}

func jsonResponse(status int, v any, correlationID string) events.APIGatewayProxyResponse {
	body, err := json.Marshal(v)
	if err != nil {
		return respond(http.StatusInternalServerError, `{"error":"INTERNAL_ERROR"}`, correlationID)
	}
	return respond(status, string(body), correlationID)
}

func respond(status int, body, correlationID string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":                 "application/json",
			"Access-Control-Allow-Origin":  "*",
			"Access-Control-Allow-Methods": "GET, POST, OPTIONS",
			"Access-Control-Allow-Headers": "Content-Type, X-Correlation-Id",
			correlationHeader:              correlationID,
		},
		Body: body,
	}
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
