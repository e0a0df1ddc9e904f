package promotion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-furniture-workshop/internal/domain"
)

func storedPromotion(code string, maxUsage *int) *Promotion {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	minimum := decimal.RequireFromString("250.00")
	return &Promotion{
		ID:                "promo-" + code,
		Code:              code,
		Description:       "spring sale",
		Type:              TypePercentage,
		Value:             decimal.RequireFromString("12.5"),
		StartDate:         now,
		EndDate:           now.AddDate(0, 1, 0),
		MaxUsage:          maxUsage,
		Active:            true,
		MinPurchaseAmount: &minimum,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func intPtr(i int) *int { return &i }

func TestStore_CreateGet_RoundTrip(t *testing.T) {
	mock := newMockDynamo()
	s := NewDynamoStore(mock, "promotions")
	ctx := context.Background()

	p := storedPromotion("SPRING", intPtr(5))
	if err := s.Create(ctx, p); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if v, ok := mock.items["SPRING"]["value"].(*types.AttributeValueMemberN); !ok || v.Value != "12.5" {
		t.Fatalf("value must be stored as number, got %+v", mock.items["SPRING"]["value"])
	}

	got, err := s.Get(ctx, "SPRING")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got == nil || !got.Value.Equal(p.Value) || *got.MaxUsage != 5 {
		t.Fatalf("unexpected promotion: %+v", got)
	}
	if got.MinPurchaseAmount == nil || !got.MinPurchaseAmount.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("min purchase not kept: %+v", got.MinPurchaseAmount)
	}

	if err := s.Create(ctx, p); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate code, got %v", err)
	}

	missing, err := s.Get(ctx, "NOPE")
	if err != nil || missing != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", missing, err)
	}
}

func TestStore_IncrementUsage_StopsAtCap(t *testing.T) {
	mock := newMockDynamo()
	s := NewDynamoStore(mock, "promotions")
	ctx := context.Background()
	now := time.Now().UTC()

	if err := s.Create(ctx, storedPromotion("TWICE", intPtr(2))); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	for i := 1; i <= 2; i++ {
		p, err := s.IncrementUsage(ctx, "TWICE", now)
		if err != nil {
			t.Fatalf("increment %d: %v", i, err)
		}
		if p.UsageCount != i {
			t.Fatalf("expected usage %d, got %d", i, p.UsageCount)
		}
	}
	if _, err := s.IncrementUsage(ctx, "TWICE", now); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict at the cap, got %v", err)
	}
	if _, err := s.IncrementUsage(ctx, "GHOST", now); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict for unknown code, got %v", err)
	}
}

func TestStore_SetActive(t *testing.T) {
	mock := newMockDynamo()
	s := NewDynamoStore(mock, "promotions")
	ctx := context.Background()
	now := time.Now().UTC()

	if err := s.Create(ctx, storedPromotion("KILL", nil)); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	p, err := s.SetActive(ctx, "KILL", false, now)
	if err != nil {
		t.Fatalf("SetActive error: %v", err)
	}
	if p.Active {
		t.Fatalf("expected inactive")
	}
	if _, err := s.IncrementUsage(ctx, "KILL", now); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("inactive promotion must not be consumed, got %v", err)
	}
	if _, err := s.SetActive(ctx, "GHOST", true, now); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_TransportFailure(t *testing.T) {
	mock := newMockDynamo()
	mock.err = errors.New("connection reset")
	s := NewDynamoStore(mock, "promotions")

	if _, err := s.Get(context.Background(), "ANY"); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
