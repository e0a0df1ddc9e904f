package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/imrishuroy/go-furniture-workshop/internal/aws"
	"github.com/imrishuroy/go-furniture-workshop/internal/customrequest"
	"github.com/imrishuroy/go-furniture-workshop/internal/domain"
	"github.com/imrishuroy/go-furniture-workshop/internal/fulfillment"
)

// SampleAttacher is the lifecycle operation the worker drives.
type SampleAttacher interface {
	AttachSamples(ctx context.Context, id, actorID string, samples []string) (*customrequest.CustomRequest, error)
}

// Counter records a metric occurrence.
type Counter interface {
	Count(ctx context.Context, name string, dimensions map[string]string) error
}

// Processor attaches delivered sample batches to their custom requests.
type Processor struct {
	requests SampleAttacher
	metrics  Counter
	log      *slog.Logger
}

// NewProcessor creates a worker processor. metrics may be nil.
func NewProcessor(requests SampleAttacher, metrics Counter, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{requests: requests, metrics: metrics, log: logger.With("component", "worker")}
}

// Handle processes an SQS batch. An error makes Lambda redeliver the batch;
// messages that can never succeed are logged and acknowledged.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			p.log.ErrorContext(ctx, "message failed", "message_id", rec.MessageId, "err", err)
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	msg, err := fulfillment.ParseSamplesDelivered([]byte(rec.Body))
	if err != nil {
		// redelivery cannot fix a malformed message
		p.log.WarnContext(ctx, "dropping malformed message", "message_id", rec.MessageId, "err", err)
		return nil
	}

	log := p.log.With("request_id", msg.RequestID, "actor_id", msg.ActorID)
	log.InfoContext(ctx, "received samples", "count", len(msg.Samples))

	r, err := p.requests.AttachSamples(ctx, msg.RequestID, msg.ActorID, msg.Samples)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidTransition):
		// a duplicate delivery after the batch was already attached
		log.InfoContext(ctx, "samples already handled", "err", err)
		return nil
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrValidation):
		log.WarnContext(ctx, "dropping undeliverable samples", "err", err)
		return nil
	default:
		return fmt.Errorf("attach samples to %s: %w", msg.RequestID, err)
	}

	if p.metrics != nil {
		if err := p.metrics.Count(ctx, aws.MetricRequestTransition, map[string]string{"Status": string(r.Status)}); err != nil {
			log.WarnContext(ctx, "publish metric failed", "err", err)
		}
	}
	log.InfoContext(ctx, "samples attached", "status", r.Status, "revision", r.Revision)
	return nil
}
