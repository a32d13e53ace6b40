package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"early-warning/handler"
	logconfig "early-warning/internal/config"
	"early-warning/internal/integrations/paramstore"
	"early-warning/internal/repository"
	"early-warning/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Logging ----
	level, err := logconfig.ParseLevel(os.Getenv("LOG_LEVEL"))
	logger := logconfig.NewJSONLogger(os.Stdout, level)
	slog.SetDefault(logger)
	if err != nil {
		slog.Warn("invalid LOG_LEVEL, using info", "err", err)
	}

	// ---- Configuration (read only here) ----
	stateTable := mustEnv("STATE_TABLE")
	paramPrefix := mustEnv("PARAM_PREFIX")
	maxConversations := envInt("MAX_CONVERSATIONS", 500)

	// ---- AWS SDK config ----
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(cfg))
	if err != nil {
		slog.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}
	dynamoClient := awsdynamodb.NewFromConfig(cfg)
	stateClient, err := repository.New(dynamoClient, stateTable)
	if err != nil {
		slog.Error("failed to create state client", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	predictService, err := usecase.NewPredictService(ssmClient, stateClient, paramPrefix, maxConversations, logger)
	if err != nil {
		slog.Error("failed to create predict service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewHandler(predictService)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer environment variable, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}
