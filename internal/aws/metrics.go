package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const (
	MetricPromotionApplied  = "PromotionApplied"
	MetricPromotionRejected = "PromotionRejected"
	MetricRequestTransition = "CustomRequestTransition"
)

// Metrics publishes counters to CloudWatch under a single namespace.
type Metrics struct {
	client    CloudWatchAPI
	namespace string
	nowFunc   func() time.Time
}

func NewMetrics(client CloudWatchAPI, namespace string) *Metrics {
	return &Metrics{client: client, namespace: namespace, nowFunc: time.Now}
}

// Count records a single occurrence of name with the given dimensions.
// Empty dimension values are dropped; CloudWatch rejects them.
func (m *Metrics) Count(ctx context.Context, name string, dimensions map[string]string) error {
	if m == nil || m.client == nil {
		return nil
	}
	dims := make([]cwtypes.Dimension, 0, len(dimensions))
	for k, v := range dimensions {
		if v == "" {
			continue
		}
		dims = append(dims, cwtypes.Dimension{Name: awsString(k), Value: awsString(v)})
	}
	ts := m.nowFunc()
	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: &m.namespace,
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: awsString(name),
				Dimensions: dims,
				Timestamp:  &ts,
				Unit:       cwtypes.StandardUnitCount,
				Value:      float64Ptr(1),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("put metric data (%s): %w", name, err)
	}
	return nil
}

func float64Ptr(f float64) *float64 { return &f }
