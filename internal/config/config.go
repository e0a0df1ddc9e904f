package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/imrishuroy/go-furniture-workshop/internal/aws"
)

type Config struct {
	// AWS
	Region           string `env:"AWS_REGION" envDefault:"us-east-1"`
	EndpointOverride string `env:"AWS_ENDPOINT_OVERRIDE"`
	MaxAttempts      int    `env:"AWS_MAX_ATTEMPTS" envDefault:"3"`

	// Tables
	RequestsTable    string `env:"REQUESTS_TABLE" envDefault:"custom-requests"`
	CartsTable       string `env:"CARTS_TABLE" envDefault:"carts"`
	TemplatesTable   string `env:"TEMPLATES_TABLE" envDefault:"templates"`
	PromotionsTable  string `env:"PROMOTIONS_TABLE" envDefault:"promotions"`
	IdempotencyTable string `env:"IDEMPOTENCY_TABLE" envDefault:"idempotency"`

	// Messaging
	FulfillmentQueueURL string `env:"FULFILLMENT_QUEUE_URL"`

	// Metrics
	MetricsNamespace string `env:"METRICS_NAMESPACE" envDefault:"FurnitureWorkshop"`
	MetricsEnabled   bool   `env:"METRICS_ENABLED" envDefault:"true"`

	// HTTP
	JWTSecret string `env:"JWT_SECRET"`
	RunLocal  bool   `env:"RUN_LOCAL" envDefault:"false"`
	Addr      string `env:"ADDR" envDefault:":8080"`

	// Behaviour
	StoreTimeout       time.Duration `env:"STORE_TIMEOUT" envDefault:"5s"`
	IdempotencyTTL     time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"48h"`
	ModificationFields []string      `env:"MODIFICATION_FIELDS" envSeparator:"," envDefault:"color,material,style,size,description"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be positive")
	}
	if len(c.ModificationFields) == 0 {
		return fmt.Errorf("MODIFICATION_FIELDS must name at least one field")
	}
	return nil
}

// ValidateHTTP checks the settings only the API needs.
func (c *Config) ValidateHTTP() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

// AWSOptions maps the AWS section onto the client loader options.
func (c *Config) AWSOptions() aws.Options {
	return aws.Options{
		Region:           c.Region,
		EndpointOverride: c.EndpointOverride,
		MaxAttempts:      c.MaxAttempts,
	}
}
