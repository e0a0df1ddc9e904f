package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/imrishuroy/go-furniture-workshop/internal/aws"
	"github.com/imrishuroy/go-furniture-workshop/internal/config"
	"github.com/imrishuroy/go-furniture-workshop/internal/customrequest"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	clients, err := aws.NewAWSClients(ctx, cfg.AWSOptions())
	if err != nil {
		logger.Error("failed to init aws clients", "err", err)
		os.Exit(1)
	}

	lifecycle := customrequest.NewLifecycle(
		customrequest.NewDynamoStore(clients.DynamoDB, cfg.RequestsTable, cfg.CartsTable),
		nil,
		nil,
		customrequest.Options{ModificationFields: cfg.ModificationFields, StoreTimeout: cfg.StoreTimeout},
	)
	var metrics Counter
	if cfg.MetricsEnabled {
		metrics = aws.NewMetrics(clients.CloudWatch, cfg.MetricsNamespace)
	}
	p := NewProcessor(lifecycle, metrics, logger)

	// RUN_LOCAL=true feeds a single message from LOCAL_SQS_BODY through the processor.
	if cfg.RunLocal {
		body := os.Getenv("LOCAL_SQS_BODY")
		if body == "" {
			logger.Error("LOCAL_SQS_BODY is empty")
			os.Exit(1)
		}
		event := events.SQSEvent{Records: []events.SQSMessage{{MessageId: "local-1", Body: body}}}
		if err := p.Handle(ctx, event); err != nil {
			logger.Error("local handler error", "err", err)
			os.Exit(1)
		}
		return
	}

	lambda.Start(p.Handle)
}
