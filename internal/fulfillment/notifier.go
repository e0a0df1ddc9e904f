package fulfillment

import (
	"context"
	"fmt"

	"github.com/imrishuroy/go-furniture-workshop/internal/customrequest"
)

// Publisher sends a JSON message with string attributes.
type Publisher interface {
	PublishJSON(ctx context.Context, payload any, attributes map[string]string) error
}

// Notifier announces owed sample batches on the fulfillment queue.
type Notifier struct {
	pub Publisher
}

// NewNotifier returns a Notifier. A nil publisher disables notifications.
func NewNotifier(pub Publisher) *Notifier {
	return &Notifier{pub: pub}
}

// SamplesRequested publishes that r now waits for samples. Requests that do
// not await samples are ignored.
func (n *Notifier) SamplesRequested(ctx context.Context, r *customrequest.CustomRequest) error {
	if n == nil || n.pub == nil || !r.AwaitingSamples() {
		return nil
	}
	msg := SamplesRequested{
		Event:         EventSamplesRequested,
		RequestID:     r.ID,
		CustomerID:    r.CustomerID,
		TemplateID:    r.TemplateID,
		TemplateName:  r.TemplateName,
		Modifications: r.Modifications,
		Revision:      r.AwaitingRevision(),
		RequestedAt:   r.UpdatedAt,
	}
	if msg.Revision {
		last := r.AdjustmentRequests[len(r.AdjustmentRequests)-1]
		msg.AdjustmentNote = last.Description
		msg.Modifications = mergeFields(r.Modifications, last.Modifications)
	}
	attrs := map[string]string{
		"event":      EventSamplesRequested,
		"request_id": r.ID,
	}
	if err := n.pub.PublishJSON(ctx, msg, attrs); err != nil {
		return fmt.Errorf("notify samples requested for %s: %w", r.ID, err)
	}
	return nil
}

// mergeFields overlays the adjustment's changes on the original modifications.
func mergeFields(base, changes map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(changes))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range changes {
		out[k] = v
	}
	return out
}
