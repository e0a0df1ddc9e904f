package customrequest

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status is a lifecycle state of a custom request.
type Status string

const (
	StatusPending     Status = "pending"
	StatusInProgress  Status = "in_progress"
	StatusSamplesSent Status = "samples_sent"
	StatusApproved    Status = "approved"
	StatusInCart      Status = "in_cart"
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
)

var allStatuses = []Status{
	StatusPending,
	StatusInProgress,
	StatusSamplesSent,
	StatusApproved,
	StatusInCart,
	StatusCompleted,
	StatusCancelled,
}

// ParseStatus rejects values outside the closed state set.
func ParseStatus(s string) (Status, error) {
	for _, st := range allStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// DefaultModificationFields are the customizable fields of a template.
var DefaultModificationFields = []string{"color", "material", "style", "size", "description"}

// ContactInfo is how the workshop reaches the customer about samples.
type ContactInfo struct {
	Name  string `dynamodbav:"name,omitempty" json:"name,omitempty"`
	Email string `dynamodbav:"email" json:"email" validate:"required,email"`
	Phone string `dynamodbav:"phone,omitempty" json:"phone,omitempty"`
}

// Adjustment is one customer revision note sent in response to a sample batch.
type Adjustment struct {
	RequestedAt   time.Time         `dynamodbav:"requested_at" json:"requested_at"`
	Modifications map[string]string `dynamodbav:"modifications,omitempty" json:"modifications,omitempty"`
	Description   string            `dynamodbav:"description,omitempty" json:"description,omitempty"`
}

// CustomRequest is the item stored in the custom requests DynamoDB table.
type CustomRequest struct {
	ID                 string            `dynamodbav:"request_id" json:"id"` // PK
	TemplateID         string            `dynamodbav:"template_id" json:"template_id"`
	TemplateName       string            `dynamodbav:"template_name,omitempty" json:"template_name,omitempty"`
	CustomerID         string            `dynamodbav:"customer_id" json:"customer_id"` // GSI hash key
	Modifications      map[string]string `dynamodbav:"modifications" json:"modifications"`
	AdditionalNotes    string            `dynamodbav:"additional_notes,omitempty" json:"additional_notes,omitempty"`
	Contact            ContactInfo       `dynamodbav:"contact" json:"contact"`
	Samples            []string          `dynamodbav:"samples,omitempty" json:"samples"`
	SelectedSample     string            `dynamodbav:"selected_sample,omitempty" json:"selected_sample,omitempty"`
	AdjustmentRequests []Adjustment      `dynamodbav:"adjustment_requests,omitempty" json:"adjustment_requests"`
	Status             Status            `dynamodbav:"status" json:"status"`
	CartItemID         string            `dynamodbav:"cart_item_id,omitempty" json:"cart_item_id,omitempty"`
	Revision           int               `dynamodbav:"revision" json:"revision"`
	CreatedAt          time.Time         `dynamodbav:"created_at" json:"created_at"` // GSI range key
	UpdatedAt          time.Time         `dynamodbav:"updated_at" json:"updated_at"`
	UpdatedBy          string            `dynamodbav:"updated_by,omitempty" json:"updated_by,omitempty"`
}

// AwaitingSamples reports whether fulfillment owes a sample batch.
func (r *CustomRequest) AwaitingSamples() bool {
	return r.Status == StatusPending || r.Status == StatusInProgress
}

// AwaitingRevision reports whether the owed batch answers an adjustment
// rather than the original request.
func (r *CustomRequest) AwaitingRevision() bool {
	return r.AwaitingSamples() && len(r.AdjustmentRequests) > 0
}

// HasSample reports whether ref is part of the current batch.
func (r *CustomRequest) HasSample(ref string) bool {
	for _, s := range r.Samples {
		if s == ref {
			return true
		}
	}
	return false
}

func (r *CustomRequest) clone() *CustomRequest {
	c := *r
	c.Modifications = cloneFields(r.Modifications)
	c.Samples = append([]string(nil), r.Samples...)
	if r.AdjustmentRequests != nil {
		c.AdjustmentRequests = make([]Adjustment, len(r.AdjustmentRequests))
		for i, a := range r.AdjustmentRequests {
			a.Modifications = cloneFields(a.Modifications)
			c.AdjustmentRequests[i] = a
		}
	}
	return &c
}

func cloneFields(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// CartItem is the line item produced when an approved request goes to the cart.
// Price is a snapshot of the template base price at conversion time.
type CartItem struct {
	ItemID          string          `dynamodbav:"item_id" json:"item_id"`         // SK
	CustomerID      string          `dynamodbav:"customer_id" json:"customer_id"` // PK
	CustomRequestID string          `dynamodbav:"custom_request_id" json:"custom_request_id"`
	TemplateID      string          `dynamodbav:"template_id" json:"template_id"`
	Name            string          `dynamodbav:"name,omitempty" json:"name"`
	Image           string          `dynamodbav:"image" json:"image"`
	Price           decimal.Decimal `dynamodbav:"-" json:"price"` // written as a number by the store
	Quantity        int             `dynamodbav:"quantity" json:"quantity"`
	IsCustomRequest bool            `dynamodbav:"is_custom_request" json:"is_custom_request"`
	AddedAt         time.Time       `dynamodbav:"added_at" json:"added_at"`
}

// Precondition is what a conditional write expects to find in the store.
type Precondition struct {
	Status   Status
	Revision int
}
