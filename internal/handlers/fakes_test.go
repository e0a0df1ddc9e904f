package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-furniture-workshop/internal/customrequest"
	"github.com/imrishuroy/go-furniture-workshop/internal/domain"
	"github.com/imrishuroy/go-furniture-workshop/internal/idempotency"
	"github.com/imrishuroy/go-furniture-workshop/internal/promotion"
)

type memRequests struct {
	mu    sync.Mutex
	items map[string]customrequest.CustomRequest
	carts []customrequest.CartItem
	err   error
}

func newMemRequests() *memRequests {
	return &memRequests{items: map[string]customrequest.CustomRequest{}}
}

func (m *memRequests) Get(ctx context.Context, id string) (*customrequest.CustomRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	r, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *memRequests) ListByCustomer(ctx context.Context, customerID string) ([]customrequest.CustomRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []customrequest.CustomRequest
	for _, r := range m.items {
		if r.CustomerID == customerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRequests) Create(ctx context.Context, r *customrequest.CustomRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.items[r.ID]; ok {
		return domain.ErrConflict
	}
	m.items[r.ID] = *r
	return nil
}

func (m *memRequests) Update(ctx context.Context, r *customrequest.CustomRequest, prev customrequest.Precondition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.swap(r, prev)
}

func (m *memRequests) UpdateWithCartItem(ctx context.Context, r *customrequest.CustomRequest, prev customrequest.Precondition, item customrequest.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.swap(r, prev); err != nil {
		return err
	}
	m.carts = append(m.carts, item)
	return nil
}

func (m *memRequests) swap(r *customrequest.CustomRequest, prev customrequest.Precondition) error {
	if m.err != nil {
		return m.err
	}
	cur, ok := m.items[r.ID]
	if !ok || cur.Status != prev.Status || cur.Revision != prev.Revision {
		return domain.ErrConflict
	}
	m.items[r.ID] = *r
	return nil
}

type fixedPrices map[string]decimal.Decimal

func (f fixedPrices) BasePrice(ctx context.Context, templateID string) (decimal.Decimal, bool, error) {
	p, ok := f[templateID]
	return p, ok, nil
}

type memPromotions struct {
	mu    sync.Mutex
	items map[string]promotion.Promotion
}

func newMemPromotions() *memPromotions {
	return &memPromotions{items: map[string]promotion.Promotion{}}
}

func (m *memPromotions) Get(ctx context.Context, code string) (*promotion.Promotion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[code]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memPromotions) Create(ctx context.Context, p *promotion.Promotion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[p.Code]; ok {
		return domain.ErrConflict
	}
	m.items[p.Code] = *p
	return nil
}

func (m *memPromotions) IncrementUsage(ctx context.Context, code string, now time.Time) (*promotion.Promotion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[code]
	if !ok || !p.Active || (p.MaxUsage != nil && p.UsageCount >= *p.MaxUsage) {
		return nil, domain.ErrConflict
	}
	p.UsageCount++
	p.UpdatedAt = now
	m.items[code] = p
	return &p, nil
}

func (m *memPromotions) SetActive(ctx context.Context, code string, active bool, now time.Time) (*promotion.Promotion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p.Active = active
	p.UpdatedAt = now
	m.items[code] = p
	return &p, nil
}

type memIdempotency struct {
	mu      sync.Mutex
	records map[string]idempotency.Record
	// markErr, when set, is returned by MarkFailed.
	markErr error
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{records: map[string]idempotency.Record{}}
}

func (m *memIdempotency) Claim(ctx context.Context, key, operation, requestHash string) (*idempotency.Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.records[key]; ok && rec.Status != idempotency.StatusFailed {
		return &rec, false, nil
	}
	rec := idempotency.Record{Key: key, Operation: operation, RequestHash: requestHash, Status: idempotency.StatusInProgress}
	m.records[key] = rec
	return &rec, true, nil
}

func (m *memIdempotency) MarkDone(ctx context.Context, key, responseBody string, responseStatus int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.records[key]
	rec.Status = idempotency.StatusDone
	rec.ResponseBody = responseBody
	rec.ResponseStatus = responseStatus
	m.records[key] = rec
	return nil
}

func (m *memIdempotency) MarkFailed(ctx context.Context, key, note string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markErr != nil {
		return m.markErr
	}
	rec := m.records[key]
	rec.Status = idempotency.StatusFailed
	rec.Note = note
	m.records[key] = rec
	return nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (n *recordingNotifier) SamplesRequested(ctx context.Context, r *customrequest.CustomRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, r.ID)
	return nil
}

type recordingCounter struct {
	mu    sync.Mutex
	names []string
	dims  []map[string]string
}

func (c *recordingCounter) Count(ctx context.Context, name string, dims map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names = append(c.names, name)
	c.dims = append(c.dims, dims)
	return nil
}

func (c *recordingCounter) count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, got := range c.names {
		if got == name {
			n++
		}
	}
	return n
}
