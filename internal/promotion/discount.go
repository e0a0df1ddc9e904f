package promotion

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// discount computes the amount taken off the order, rounded to cents.
func discount(p *Promotion, order OrderContext) (decimal.Decimal, error) {
	var d decimal.Decimal
	switch p.Type {
	case TypePercentage:
		d = percentageDiscount(p.Value, order)
	case TypeFixed:
		d = fixedDiscount(p.Value, order)
	case TypeFreeDelivery:
		d = freeDeliveryDiscount(order)
	case TypeFirstTime:
		d = firstTimeDiscount(p.Value, order)
	default:
		return decimal.Zero, fmt.Errorf("promotion %s: unsupported type %q", p.Code, p.Type)
	}
	return d.Round(2), nil
}

func percentageDiscount(percent decimal.Decimal, order OrderContext) decimal.Decimal {
	return order.Subtotal.Mul(percent).Div(hundred)
}

// fixedDiscount never exceeds the subtotal.
func fixedDiscount(amount decimal.Decimal, order OrderContext) decimal.Decimal {
	return decimal.Min(amount, order.Subtotal)
}

func freeDeliveryDiscount(order OrderContext) decimal.Decimal {
	return order.DeliveryFee
}

// firstTimeDiscount is a percentage of the subtotal for first-time buyers and
// nothing for everyone else.
func firstTimeDiscount(percent decimal.Decimal, order OrderContext) decimal.Decimal {
	if !order.IsFirstTimeBuyer {
		return decimal.Zero
	}
	return percentageDiscount(percent, order)
}
