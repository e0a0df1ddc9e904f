package fulfillment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imrishuroy/go-furniture-workshop/internal/customrequest"
	"github.com/imrishuroy/go-furniture-workshop/internal/domain"
)

type capturePublisher struct {
	payloads []any
	attrs    []map[string]string
	err      error
}

func (c *capturePublisher) PublishJSON(ctx context.Context, payload any, attributes map[string]string) error {
	if c.err != nil {
		return c.err
	}
	c.payloads = append(c.payloads, payload)
	c.attrs = append(c.attrs, attributes)
	return nil
}

func pendingRequest() *customrequest.CustomRequest {
	return &customrequest.CustomRequest{
		ID:            "req-1",
		TemplateID:    "tpl-1",
		CustomerID:    "cust-1",
		Modifications: map[string]string{"color": "blue", "material": "oak"},
		Status:        customrequest.StatusPending,
		UpdatedAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestSamplesRequested_FirstBatch(t *testing.T) {
	pub := &capturePublisher{}
	n := NewNotifier(pub)

	require.NoError(t, n.SamplesRequested(context.Background(), pendingRequest()))
	require.Len(t, pub.payloads, 1)

	msg := pub.payloads[0].(SamplesRequested)
	assert.Equal(t, EventSamplesRequested, msg.Event)
	assert.False(t, msg.Revision)
	assert.Equal(t, "blue", msg.Modifications["color"])
	assert.Equal(t, EventSamplesRequested, pub.attrs[0]["event"])
}

func TestSamplesRequested_Revision(t *testing.T) {
	pub := &capturePublisher{}
	r := pendingRequest()
	r.AdjustmentRequests = []customrequest.Adjustment{
		{Description: "darker please", Modifications: map[string]string{"color": "walnut"}},
	}

	require.NoError(t, NewNotifier(pub).SamplesRequested(context.Background(), r))
	msg := pub.payloads[0].(SamplesRequested)
	assert.True(t, msg.Revision)
	assert.Equal(t, "darker please", msg.AdjustmentNote)
	assert.Equal(t, "walnut", msg.Modifications["color"])
	assert.Equal(t, "oak", msg.Modifications["material"])
	// the stored request is not mutated
	assert.Equal(t, "blue", r.Modifications["color"])
}

func TestSamplesRequested_SkipsAndErrors(t *testing.T) {
	pub := &capturePublisher{}
	r := pendingRequest()
	r.Status = customrequest.StatusApproved
	require.NoError(t, NewNotifier(pub).SamplesRequested(context.Background(), r))
	assert.Empty(t, pub.payloads)

	require.NoError(t, NewNotifier(nil).SamplesRequested(context.Background(), pendingRequest()))

	failing := &capturePublisher{err: errors.New("queue gone")}
	assert.Error(t, NewNotifier(failing).SamplesRequested(context.Background(), pendingRequest()))
}

func TestParseSamplesDelivered(t *testing.T) {
	msg, err := ParseSamplesDelivered([]byte(`{"event":"samples_delivered","request_id":"req-1","actor_id":"studio","samples":["a.png","b.png"]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "b.png"}, msg.Samples)

	_, err = ParseSamplesDelivered([]byte(`{"request_id":"req-1","actor_id":"studio","samples":[]}`))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = ParseSamplesDelivered([]byte(`{"event":"samples_requested","request_id":"req-1","actor_id":"studio","samples":["a"]}`))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = ParseSamplesDelivered([]byte(`not json`))
	assert.Error(t, err)
}
