package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-furniture-workshop/internal/aws"
	"github.com/imrishuroy/go-furniture-workshop/internal/catalog"
	"github.com/imrishuroy/go-furniture-workshop/internal/config"
	"github.com/imrishuroy/go-furniture-workshop/internal/customrequest"
	"github.com/imrishuroy/go-furniture-workshop/internal/fulfillment"
	"github.com/imrishuroy/go-furniture-workshop/internal/handlers"
	"github.com/imrishuroy/go-furniture-workshop/internal/idempotency"
	"github.com/imrishuroy/go-furniture-workshop/internal/middleware"
	"github.com/imrishuroy/go-furniture-workshop/internal/promotion"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(cfg.Logger))

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterRoutes(r, cfg)

	return r
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err == nil {
		err = cfg.ValidateHTTP()
	}
	if err != nil {
		logger.Error("load config", "err", err)
		os.Exit(1)
	}

	clients, err := aws.NewAWSClients(context.Background(), cfg.AWSOptions())
	if err != nil {
		logger.Error("failed to init aws clients", "err", err)
		os.Exit(1)
	}

	requests := customrequest.NewLifecycle(
		customrequest.NewDynamoStore(clients.DynamoDB, cfg.RequestsTable, cfg.CartsTable),
		catalog.NewDynamoStore(clients.DynamoDB, cfg.TemplatesTable),
		customrequest.OwnerMatch{},
		customrequest.Options{ModificationFields: cfg.ModificationFields, StoreTimeout: cfg.StoreTimeout},
	)
	promotions := promotion.NewEngine(promotion.NewDynamoStore(clients.DynamoDB, cfg.PromotionsTable), cfg.StoreTimeout)

	hc := handlers.HandlerConfig{
		Requests:    requests,
		Promotions:  promotions,
		Idempotency: idempotency.NewStore(clients.DynamoDB, cfg.IdempotencyTable, cfg.IdempotencyTTL),
		JWTSecret:   cfg.JWTSecret,
		Logger:      logger,
	}
	if cfg.FulfillmentQueueURL != "" {
		hc.Notifier = fulfillment.NewNotifier(aws.NewPublisher(clients.SQS, cfg.FulfillmentQueueURL))
	} else {
		logger.Warn("FULFILLMENT_QUEUE_URL not set, samples_requested events are disabled")
	}
	if cfg.MetricsEnabled {
		hc.Metrics = aws.NewMetrics(clients.CloudWatch, cfg.MetricsNamespace)
	}

	r := setupRouter(hc)

	// if RUN_LOCAL is true, run local HTTP server for development.
	if cfg.RunLocal {
		logger.Info("running local server", "addr", cfg.Addr)
		if err := r.Run(cfg.Addr); err != nil {
			logger.Error("failed to run local server", "err", err)
			os.Exit(1)
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
