package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/imrishuroy/go-furniture-workshop/internal/aws"
	"github.com/imrishuroy/go-furniture-workshop/internal/catalog"
	"github.com/imrishuroy/go-furniture-workshop/internal/cli"
	"github.com/imrishuroy/go-furniture-workshop/internal/config"
	"github.com/imrishuroy/go-furniture-workshop/internal/customrequest"
	"github.com/imrishuroy/go-furniture-workshop/internal/promotion"
)

func load(ctx context.Context) (*cli.Backend, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	slog.Debug("connecting to aws", "region", cfg.Region, "endpoint", cfg.EndpointOverride)
	clients, err := aws.NewAWSClients(ctx, cfg.AWSOptions())
	if err != nil {
		return nil, err
	}
	return &cli.Backend{
		Promotions: promotion.NewEngine(promotion.NewDynamoStore(clients.DynamoDB, cfg.PromotionsTable), cfg.StoreTimeout),
		Requests: customrequest.NewLifecycle(
			customrequest.NewDynamoStore(clients.DynamoDB, cfg.RequestsTable, cfg.CartsTable),
			catalog.NewDynamoStore(clients.DynamoDB, cfg.TemplatesTable),
			nil,
			customrequest.Options{ModificationFields: cfg.ModificationFields, StoreTimeout: cfg.StoreTimeout},
		),
	}, nil
}

func main() {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") == "true" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := cli.NewRootCmd(load).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
