package promotion

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Type selects the discount formula of a promotion.
type Type string

const (
	TypePercentage   Type = "percentage"
	TypeFixed        Type = "fixed"
	TypeFreeDelivery Type = "free_delivery"
	TypeFirstTime    Type = "first_time"
)

// ParseType rejects values outside the closed set of promotion kinds.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case TypePercentage, TypeFixed, TypeFreeDelivery, TypeFirstTime:
		return t, nil
	}
	return "", fmt.Errorf("unknown promotion type %q", s)
}

// Reason explains why a code was not accepted.
type Reason string

const (
	ReasonUnknownCode      Reason = "unknown_code"
	ReasonInactive         Reason = "inactive"
	ReasonExpired          Reason = "expired"
	ReasonLimitReached     Reason = "limit_reached"
	ReasonBelowMinimum     Reason = "below_minimum"
	ReasonCategoryMismatch Reason = "category_mismatch"
)

// Promotion is a discount code with its eligibility rules and usage counter.
type Promotion struct {
	ID                string           `json:"id"`
	Code              string           `json:"code"`
	Description       string           `json:"description,omitempty"`
	Type              Type             `json:"type"`
	Value             decimal.Decimal  `json:"value"`
	StartDate         time.Time        `json:"start_date"`
	EndDate           time.Time        `json:"end_date"`
	MaxUsage          *int             `json:"max_usage,omitempty"`
	UsageCount        int              `json:"usage_count"`
	Active            bool             `json:"active"`
	CategoryID        string           `json:"category_id,omitempty"`
	MinPurchaseAmount *decimal.Decimal `json:"min_purchase_amount,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// OrderContext is what checkout knows about the order a code is applied to.
type OrderContext struct {
	Subtotal         decimal.Decimal
	DeliveryFee      decimal.Decimal
	CategoryIDs      []string
	IsFirstTimeBuyer bool
}

// Result is the outcome of Validate or Apply. Reason is set only when
// Accepted is false; PromotionID and Description only by Apply.
type Result struct {
	Accepted     bool            `json:"accepted"`
	Discount     decimal.Decimal `json:"discount"`
	DiscountType Type            `json:"discount_type,omitempty"`
	Reason       Reason          `json:"reason,omitempty"`
	Code         string          `json:"code"`
	PromotionID  string          `json:"promotion_id,omitempty"`
	Description  string          `json:"description,omitempty"`
}

func rejected(code string, r Reason) Result {
	return Result{Code: code, Reason: r, Discount: decimal.Zero}
}

// NormalizeCode is the canonical form codes are stored and looked up by.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
