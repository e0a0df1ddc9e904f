package fulfillment

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/imrishuroy/go-furniture-workshop/internal/validation"
)

// Event names carried in the "event" message attribute and body field.
const (
	EventSamplesRequested = "samples_requested"
	EventSamplesDelivered = "samples_delivered"
)

// SamplesRequested tells fulfillment a request owes a sample batch.
// Revision is true when the batch answers an adjustment.
type SamplesRequested struct {
	Event          string            `json:"event"`
	RequestID      string            `json:"request_id"`
	CustomerID     string            `json:"customer_id"`
	TemplateID     string            `json:"template_id"`
	TemplateName   string            `json:"template_name,omitempty"`
	Modifications  map[string]string `json:"modifications"`
	Revision       bool              `json:"revision"`
	AdjustmentNote string            `json:"adjustment_note,omitempty"`
	RequestedAt    time.Time         `json:"requested_at"`
}

// SamplesDelivered is sent by fulfillment once a batch is rendered.
type SamplesDelivered struct {
	Event     string   `json:"event" validate:"omitempty,eq=samples_delivered"`
	RequestID string   `json:"request_id" validate:"required"`
	ActorID   string   `json:"actor_id" validate:"required"`
	Samples   []string `json:"samples" validate:"required,min=1,dive,required"`
}

// ParseSamplesDelivered decodes and validates a queue message body.
func ParseSamplesDelivered(body []byte) (SamplesDelivered, error) {
	var msg SamplesDelivered
	if err := json.Unmarshal(body, &msg); err != nil {
		return SamplesDelivered{}, fmt.Errorf("invalid message body: %w", err)
	}
	if err := validation.New().Struct(msg); err != nil {
		return SamplesDelivered{}, validation.ToDomain(err)
	}
	return msg, nil
}
