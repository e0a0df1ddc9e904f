package promotion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-furniture-workshop/internal/domain"
)

// Store persists promotions keyed by normalized code.
type Store interface {
	Get(ctx context.Context, code string) (*Promotion, error) // (nil, nil) when absent
	// Create fails with domain.ErrConflict when the code is taken.
	Create(ctx context.Context, p *Promotion) error
	// IncrementUsage adds one use only if the promotion is active and below
	// its cap; otherwise it fails with domain.ErrConflict.
	IncrementUsage(ctx context.Context, code string, now time.Time) (*Promotion, error)
	// SetActive fails with domain.ErrNotFound for an unknown code.
	SetActive(ctx context.Context, code string, active bool, now time.Time) (*Promotion, error)
}

// CreateInput describes a new promotion. Active defaults to true.
type CreateInput struct {
	Code              string
	Description       string
	Type              string
	Value             decimal.Decimal
	StartDate         time.Time
	EndDate           time.Time
	MaxUsage          *int
	Active            *bool
	CategoryID        string
	MinPurchaseAmount *decimal.Decimal
}

// Engine validates and redeems promotion codes.
type Engine struct {
	store   Store
	timeout time.Duration
	nowFunc func() time.Time
	idFunc  func() string
}

// NewEngine creates an Engine. storeTimeout bounds every store call; zero
// means five seconds.
func NewEngine(store Store, storeTimeout time.Duration) *Engine {
	if storeTimeout <= 0 {
		storeTimeout = 5 * time.Second
	}
	return &Engine{
		store:   store,
		timeout: storeTimeout,
		nowFunc: func() time.Time { return time.Now().UTC() },
		idFunc:  uuid.NewString,
	}
}

// Validate checks a code against the order without consuming a use.
func (e *Engine) Validate(ctx context.Context, code string, order OrderContext) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	_, res, err := e.check(ctx, code, order)
	return res, err
}

// Apply validates the code and consumes one use. The increment is a single
// conditional write, so concurrent callers can never push usage past the cap.
func (e *Engine) Apply(ctx context.Context, code string, order OrderContext) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	p, res, err := e.check(ctx, code, order)
	if err != nil || !res.Accepted {
		return res, err
	}

	_, err = e.store.IncrementUsage(ctx, p.Code, e.nowFunc())
	if errors.Is(err, domain.ErrConflict) {
		return e.explainRefusal(ctx, p.Code)
	}
	if err != nil {
		return Result{}, fmt.Errorf("apply promotion %s: %w", p.Code, err)
	}

	res.PromotionID = p.ID
	res.Description = p.Description
	return res, nil
}

// explainRefusal re-reads a promotion whose increment was refused to tell a
// flipped kill switch apart from an exhausted cap.
func (e *Engine) explainRefusal(ctx context.Context, code string) (Result, error) {
	cur, err := e.store.Get(ctx, code)
	if err != nil {
		return Result{}, fmt.Errorf("reload promotion %s: %w", code, err)
	}
	switch {
	case cur == nil:
		return rejected(code, ReasonUnknownCode), nil
	case !cur.Active:
		return rejected(code, ReasonInactive), nil
	default:
		return rejected(code, ReasonLimitReached), nil
	}
}

// check runs the ordered eligibility checks. The first failing check decides
// the reason.
func (e *Engine) check(ctx context.Context, code string, order OrderContext) (*Promotion, Result, error) {
	if order.Subtotal.IsNegative() {
		return nil, Result{}, domain.Invalid("subtotal", "must not be negative")
	}
	if order.DeliveryFee.IsNegative() {
		return nil, Result{}, domain.Invalid("delivery_fee", "must not be negative")
	}

	code = NormalizeCode(code)
	if code == "" {
		return nil, rejected(code, ReasonUnknownCode), nil
	}
	p, err := e.store.Get(ctx, code)
	if err != nil {
		return nil, Result{}, fmt.Errorf("load promotion %s: %w", code, err)
	}
	if p == nil {
		return nil, rejected(code, ReasonUnknownCode), nil
	}

	if reason, ok := eligible(p, order, e.nowFunc()); !ok {
		return p, rejected(code, reason), nil
	}

	amount, err := discount(p, order)
	if err != nil {
		return p, Result{}, err
	}
	return p, Result{
		Accepted:     true,
		Code:         code,
		Discount:     amount,
		DiscountType: p.Type,
	}, nil
}

func eligible(p *Promotion, order OrderContext, now time.Time) (Reason, bool) {
	if !p.Active {
		return ReasonInactive, false
	}
	if now.Before(p.StartDate) || now.After(p.EndDate) {
		return ReasonExpired, false
	}
	if p.MaxUsage != nil && p.UsageCount >= *p.MaxUsage {
		return ReasonLimitReached, false
	}
	if p.MinPurchaseAmount != nil && order.Subtotal.LessThan(*p.MinPurchaseAmount) {
		return ReasonBelowMinimum, false
	}
	if p.CategoryID != "" {
		if len(order.CategoryIDs) == 0 {
			return ReasonCategoryMismatch, false
		}
		for _, c := range order.CategoryIDs {
			if c != p.CategoryID {
				return ReasonCategoryMismatch, false
			}
		}
	}
	return "", true
}

// Create stores a new promotion with a zero usage counter.
func (e *Engine) Create(ctx context.Context, in CreateInput) (*Promotion, error) {
	p, err := e.build(in)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	if err := e.store.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create promotion %s: %w", p.Code, err)
	}
	return p, nil
}

func (e *Engine) build(in CreateInput) (*Promotion, error) {
	code := NormalizeCode(in.Code)
	if code == "" {
		return nil, domain.Invalid("code", "is required")
	}
	typ, err := ParseType(in.Type)
	if err != nil {
		return nil, domain.Invalid("type", "%s", err.Error())
	}
	if in.Value.IsNegative() {
		return nil, domain.Invalid("value", "must not be negative")
	}
	if (typ == TypePercentage || typ == TypeFirstTime) && in.Value.GreaterThan(hundred) {
		return nil, domain.Invalid("value", "percentage must be between 0 and 100")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return nil, domain.Invalid("start_date", "start and end dates are required")
	}
	if in.EndDate.Before(in.StartDate) {
		return nil, domain.Invalid("end_date", "must not be before start_date")
	}
	if in.MaxUsage != nil && *in.MaxUsage < 1 {
		return nil, domain.Invalid("max_usage", "must be at least 1")
	}
	if in.MinPurchaseAmount != nil && in.MinPurchaseAmount.IsNegative() {
		return nil, domain.Invalid("min_purchase_amount", "must not be negative")
	}

	active := true
	if in.Active != nil {
		active = *in.Active
	}
	now := e.nowFunc()
	return &Promotion{
		ID:                e.idFunc(),
		Code:              code,
		Description:       in.Description,
		Type:              typ,
		Value:             in.Value,
		StartDate:         in.StartDate.UTC(),
		EndDate:           in.EndDate.UTC(),
		MaxUsage:          in.MaxUsage,
		Active:            active,
		CategoryID:        in.CategoryID,
		MinPurchaseAmount: in.MinPurchaseAmount,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// Get returns the promotion stored under code.
func (e *Engine) Get(ctx context.Context, code string) (*Promotion, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	code = NormalizeCode(code)
	p, err := e.store.Get(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("load promotion %s: %w", code, err)
	}
	if p == nil {
		return nil, fmt.Errorf("promotion %s: %w", code, domain.ErrNotFound)
	}
	return p, nil
}

// SetActive flips the kill switch of a promotion.
func (e *Engine) SetActive(ctx context.Context, code string, active bool) (*Promotion, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	code = NormalizeCode(code)
	p, err := e.store.SetActive(ctx, code, active, e.nowFunc())
	if err != nil {
		return nil, fmt.Errorf("set promotion %s active=%t: %w", code, active, err)
	}
	return p, nil
}
