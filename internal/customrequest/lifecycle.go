package customrequest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-furniture-workshop/internal/domain"
	"github.com/imrishuroy/go-furniture-workshop/internal/validation"
)

// Store persists custom requests. Update and UpdateWithCartItem must reject
// the write with domain.ErrConflict when the stored status or revision no
// longer matches prev.
type Store interface {
	Get(ctx context.Context, id string) (*CustomRequest, error) // (nil, nil) when absent
	ListByCustomer(ctx context.Context, customerID string) ([]CustomRequest, error)
	Create(ctx context.Context, r *CustomRequest) error
	Update(ctx context.Context, r *CustomRequest, prev Precondition) error
	UpdateWithCartItem(ctx context.Context, r *CustomRequest, prev Precondition, item CartItem) error
}

// PriceLookup resolves a template's current base price. ok is false when
// the template is unknown or has no price.
type PriceLookup interface {
	BasePrice(ctx context.Context, templateID string) (price decimal.Decimal, ok bool, err error)
}

// Authorizer decides whether userID may act on a resource owned by ownerID.
type Authorizer interface {
	IsOwner(userID, ownerID string) bool
}

// OwnerMatch authorizes exact owner matches only.
type OwnerMatch struct{}

func (OwnerMatch) IsOwner(userID, ownerID string) bool {
	return userID != "" && userID == ownerID
}

// CreateInput is a customer's new request for a customized template.
type CreateInput struct {
	CustomerID      string            `json:"customer_id" validate:"required"`
	TemplateID      string            `json:"template_id" validate:"required"`
	TemplateName    string            `json:"template_name"`
	Modifications   map[string]string `json:"modifications"`
	AdditionalNotes string            `json:"additional_notes"`
	Contact         ContactInfo       `json:"contact"`
}

// AdjustmentInput is a customer revision note for the current sample batch.
type AdjustmentInput struct {
	Modifications map[string]string
	Description   string
}

// Options tunes a Lifecycle. Zero values fall back to defaults.
type Options struct {
	ModificationFields []string
	StoreTimeout       time.Duration
}

// Lifecycle runs the custom request state machine against a Store.
type Lifecycle struct {
	store    Store
	prices   PriceLookup
	auth     Authorizer
	validate *validatorv10.Validate
	fields   map[string]bool
	timeout  time.Duration
	nowFunc  func() time.Time
	idFunc   func() string
}

func NewLifecycle(store Store, prices PriceLookup, auth Authorizer, opts Options) *Lifecycle {
	if auth == nil {
		auth = OwnerMatch{}
	}
	names := opts.ModificationFields
	if len(names) == 0 {
		names = DefaultModificationFields
	}
	fields := make(map[string]bool, len(names))
	for _, n := range names {
		fields[strings.ToLower(strings.TrimSpace(n))] = true
	}
	timeout := opts.StoreTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Lifecycle{
		store:    store,
		prices:   prices,
		auth:     auth,
		validate: validation.New(),
		fields:   fields,
		timeout:  timeout,
		nowFunc:  func() time.Time { return time.Now().UTC() },
		idFunc:   uuid.NewString,
	}
}

// Create stores a new request in pending.
func (l *Lifecycle) Create(ctx context.Context, in CreateInput) (*CustomRequest, error) {
	in.Contact.Email = strings.TrimSpace(in.Contact.Email)
	if err := l.validate.Struct(in); err != nil {
		return nil, validation.ToDomain(err)
	}
	mods, err := l.normalizeModifications(in.Modifications)
	if err != nil {
		return nil, err
	}
	if len(mods) == 0 {
		return nil, domain.Invalid("modifications", "at least one modification is required")
	}

	now := l.nowFunc()
	req := &CustomRequest{
		ID:              l.idFunc(),
		TemplateID:      in.TemplateID,
		TemplateName:    in.TemplateName,
		CustomerID:      in.CustomerID,
		Modifications:   mods,
		AdditionalNotes: strings.TrimSpace(in.AdditionalNotes),
		Contact:         in.Contact,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
		UpdatedBy:       in.CustomerID,
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	if err := l.store.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("create custom request: %w", err)
	}
	return req, nil
}

// Get returns the request when customerID owns it.
func (l *Lifecycle) Get(ctx context.Context, id, customerID string) (*CustomRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	req, err := l.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := l.authorize(req, customerID); err != nil {
		return nil, err
	}
	return req, nil
}

// Find returns the request without an ownership check. Admin and worker paths only.
func (l *Lifecycle) Find(ctx context.Context, id string) (*CustomRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	return l.load(ctx, id)
}

// ListForCustomer returns the customer's requests, newest first.
func (l *Lifecycle) ListForCustomer(ctx context.Context, customerID string) ([]CustomRequest, error) {
	if customerID == "" {
		return nil, domain.Invalid("customer_id", "is required")
	}
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	out, err := l.store.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("list custom requests: %w", err)
	}
	return out, nil
}

// AttachSamples replaces the sample batch and clears any earlier selection.
func (l *Lifecycle) AttachSamples(ctx context.Context, id, actorID string, samples []string) (*CustomRequest, error) {
	batch, err := normalizeSamples(samples)
	if err != nil {
		return nil, err
	}
	return l.mutate(ctx, id, eventAttachSamples, actorID, false, func(r *CustomRequest) error {
		r.Samples = batch
		r.SelectedSample = ""
		return nil
	})
}

// StartWork records that fulfillment picked up a pending request.
func (l *Lifecycle) StartWork(ctx context.Context, id, actorID string) (*CustomRequest, error) {
	return l.mutate(ctx, id, eventStartWork, actorID, false, nil)
}

// SelectSample approves one sample of the current batch.
func (l *Lifecycle) SelectSample(ctx context.Context, id, customerID, sampleRef string) (*CustomRequest, error) {
	sampleRef = strings.TrimSpace(sampleRef)
	return l.mutate(ctx, id, eventSelectSample, customerID, true, func(r *CustomRequest) error {
		if !r.HasSample(sampleRef) {
			return domain.Invalid("sample", "%q is not part of the current sample batch", sampleRef)
		}
		r.SelectedSample = sampleRef
		return nil
	})
}

// RequestAdjustment sends the request back to fulfillment with a revision note.
func (l *Lifecycle) RequestAdjustment(ctx context.Context, id, customerID string, in AdjustmentInput) (*CustomRequest, error) {
	return l.mutate(ctx, id, eventRequestAdjustment, customerID, true, func(r *CustomRequest) error {
		mods, err := l.normalizeModifications(in.Modifications)
		if err != nil {
			return err
		}
		desc := strings.TrimSpace(in.Description)
		if len(mods) == 0 && desc == "" {
			return domain.Invalid("adjustment", "a description or at least one modification is required")
		}
		r.AdjustmentRequests = append(r.AdjustmentRequests, Adjustment{
			RequestedAt:   l.nowFunc(),
			Modifications: mods,
			Description:   desc,
		})
		return nil
	})
}

// ConvertToCartItem moves an approved request into the customer's cart. The
// template price is looked up once here and copied into the line item.
func (l *Lifecycle) ConvertToCartItem(ctx context.Context, id, customerID string) (*CustomRequest, *CartItem, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	cur, err := l.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := l.authorize(cur, customerID); err != nil {
		return nil, nil, err
	}
	to, err := transition(cur.Status, eventConvertToCart)
	if err != nil {
		return nil, nil, err
	}
	if cur.SelectedSample == "" {
		// approved without a selection breaks the model invariant
		return nil, nil, fmt.Errorf("%w: approved request %s has no selected sample", domain.ErrInvalidTransition, id)
	}

	price, err := l.basePrice(ctx, cur.TemplateID)
	if err != nil {
		return nil, nil, err
	}

	now := l.nowFunc()
	item := CartItem{
		ItemID:          l.idFunc(),
		CustomerID:      cur.CustomerID,
		CustomRequestID: cur.ID,
		TemplateID:      cur.TemplateID,
		Name:            cur.TemplateName,
		Image:           cur.SelectedSample,
		Price:           price,
		Quantity:        1,
		IsCustomRequest: true,
		AddedAt:         now,
	}

	next := cur.clone()
	next.Status = to
	next.CartItemID = item.ItemID
	l.stamp(next, customerID, now)

	prev := Precondition{Status: cur.Status, Revision: cur.Revision}
	if err := l.store.UpdateWithCartItem(ctx, next, prev, item); err != nil {
		return nil, nil, fmt.Errorf("convert custom request %s: %w", id, err)
	}
	return next, &item, nil
}

// MarkCompleted closes a request from any non-terminal state.
func (l *Lifecycle) MarkCompleted(ctx context.Context, id, actorID string) (*CustomRequest, error) {
	return l.mutate(ctx, id, eventComplete, actorID, false, nil)
}

// Cancel closes a request from any non-terminal state.
func (l *Lifecycle) Cancel(ctx context.Context, id, actorID string) (*CustomRequest, error) {
	return l.mutate(ctx, id, eventCancel, actorID, false, nil)
}

// mutate loads the request, checks ownership (for customer operations) and
// the transition, applies change to a copy and writes it conditionally on
// the status and revision that were read.
func (l *Lifecycle) mutate(ctx context.Context, id string, ev event, actorID string, ownerOnly bool, change func(*CustomRequest) error) (*CustomRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	cur, err := l.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if ownerOnly {
		if err := l.authorize(cur, actorID); err != nil {
			return nil, err
		}
	}
	to, err := transition(cur.Status, ev)
	if err != nil {
		return nil, err
	}

	next := cur.clone()
	if change != nil {
		if err := change(next); err != nil {
			return nil, err
		}
	}
	next.Status = to
	l.stamp(next, actorID, l.nowFunc())

	prev := Precondition{Status: cur.Status, Revision: cur.Revision}
	if err := l.store.Update(ctx, next, prev); err != nil {
		return nil, fmt.Errorf("%s %s: %w", ev, id, err)
	}
	return next, nil
}

func (l *Lifecycle) load(ctx context.Context, id string) (*CustomRequest, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.Invalid("id", "is required")
	}
	req, err := l.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load custom request %s: %w", id, err)
	}
	if req == nil {
		return nil, fmt.Errorf("custom request %s: %w", id, domain.ErrNotFound)
	}
	return req, nil
}

func (l *Lifecycle) authorize(req *CustomRequest, userID string) error {
	if !l.auth.IsOwner(userID, req.CustomerID) {
		return fmt.Errorf("custom request %s: %w", req.ID, domain.ErrForbidden)
	}
	return nil
}

func (l *Lifecycle) stamp(r *CustomRequest, actorID string, now time.Time) {
	r.Revision++
	r.UpdatedAt = now
	r.UpdatedBy = actorID
}

// basePrice falls back to zero when the template is unknown; store failures
// are returned so a transient outage does not price an item at zero.
func (l *Lifecycle) basePrice(ctx context.Context, templateID string) (decimal.Decimal, error) {
	if l.prices == nil {
		return decimal.Zero, nil
	}
	price, ok, err := l.prices.BasePrice(ctx, templateID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("template price %s: %w", templateID, err)
	}
	if !ok {
		return decimal.Zero, nil
	}
	return price, nil
}

// normalizeModifications trims values, drops empty ones and rejects fields
// outside the configured set.
func (l *Lifecycle) normalizeModifications(in map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(in))
	for k, v := range in {
		key := strings.ToLower(strings.TrimSpace(k))
		if !l.fields[key] {
			return nil, domain.Invalid("modifications", "unknown field %q", k)
		}
		if val := strings.TrimSpace(v); val != "" {
			out[key] = val
		}
	}
	return out, nil
}

func normalizeSamples(samples []string) ([]string, error) {
	if len(samples) == 0 {
		return nil, domain.Invalid("samples", "at least one sample is required")
	}
	out := make([]string, 0, len(samples))
	for i, s := range samples {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, domain.Invalid(fmt.Sprintf("samples[%d]", i), "is blank")
		}
		out = append(out, s)
	}
	return out, nil
}
