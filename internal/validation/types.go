package validation

import (
	"time"

	"github.com/shopspring/decimal"
)

// Contact is the reachable contact of the customer.
type Contact struct {
	Name  string `json:"name,omitempty" validate:"omitempty,max=120"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

// CreateCustomRequestRequest is the payload for POST /custom-requests
type CreateCustomRequestRequest struct {
	TemplateID      string            `json:"template_id" validate:"required"`
	TemplateName    string            `json:"template_name,omitempty" validate:"omitempty,max=200"`
	Modifications   map[string]string `json:"modifications" validate:"required,min=1,dive,keys,required,endkeys,max=2000"`
	AdditionalNotes string            `json:"additional_notes,omitempty" validate:"omitempty,max=4000"`
	Contact         Contact           `json:"contact"`
}

// AttachSamplesRequest is the payload for POST /admin/custom-requests/:id/samples
type AttachSamplesRequest struct {
	Samples []string `json:"samples" validate:"required,min=1,dive,required,max=2048"`
}

// SelectSampleRequest is the payload for POST /custom-requests/:id/selection
type SelectSampleRequest struct {
	Sample string `json:"sample" validate:"required"`
}

// AdjustmentRequest is the payload for POST /custom-requests/:id/adjustments
type AdjustmentRequest struct {
	Modifications map[string]string `json:"modifications,omitempty" validate:"omitempty,dive,keys,required,endkeys,max=2000"`
	Description   string            `json:"description,omitempty" validate:"required_without=Modifications,max=4000"`
}

// OrderContextRequest is the payload for POST /promotions/validate and /promotions/apply
type OrderContextRequest struct {
	Code             string          `json:"code" validate:"required,max=64"`
	Subtotal         decimal.Decimal `json:"subtotal" validate:"gte=0"`
	DeliveryFee      decimal.Decimal `json:"delivery_fee" validate:"gte=0"`
	CategoryIDs      []string        `json:"category_ids,omitempty" validate:"omitempty,dive,required"`
	IsFirstTimeBuyer bool            `json:"is_first_time_buyer"`
}

// CreatePromotionRequest is the payload for POST /admin/promotions
type CreatePromotionRequest struct {
	Code              string           `json:"code" validate:"required,alphanum,max=64"`
	Description       string           `json:"description,omitempty" validate:"omitempty,max=500"`
	Type              string           `json:"type" validate:"required,oneof=percentage fixed free_delivery first_time"`
	Value             decimal.Decimal  `json:"value" validate:"gte=0"`
	StartDate         time.Time        `json:"start_date" validate:"required"`
	EndDate           time.Time        `json:"end_date" validate:"required"`
	MaxUsage          *int             `json:"max_usage,omitempty" validate:"omitempty,gte=1"`
	Active            *bool            `json:"active,omitempty"`
	CategoryID        string           `json:"category_id,omitempty"`
	MinPurchaseAmount *decimal.Decimal `json:"min_purchase_amount,omitempty" validate:"omitempty,gte=0"`
}

// SetActiveRequest is the payload for PUT /admin/promotions/:code/active
type SetActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}
