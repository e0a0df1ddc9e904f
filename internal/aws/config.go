package aws

import (
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/config"
)

const (
	defaultRegion      = "us-east-1"
	defaultMaxAttempts = 3
)

// Options controls how the shared AWS config is built.
type Options struct {
	Region string
	// EndpointOverride points every client at LocalStack or DynamoDB Local.
	EndpointOverride string
	// MaxAttempts bounds the SDK retryer (throttling, 5xx, timeouts).
	// Conditional check failures are never retried.
	MaxAttempts int
}

func LoadAWSConfig(ctx context.Context, opts Options) (sdkaws.Config, error) {
	region := opts.Region
	if region == "" {
		region = defaultRegion
	}
	attempts := opts.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithRetryer(func() sdkaws.Retryer {
			return retry.NewStandard(func(o *retry.StandardOptions) {
				o.MaxAttempts = attempts
			})
		}),
	)
	if err != nil {
		return cfg, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if opts.EndpointOverride != "" {
		cfg.BaseEndpoint = sdkaws.String(opts.EndpointOverride)
	}

	return cfg, nil
}
