package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/laptopstore/api/internal/domain"
)

// ErrPricingInvalidInput signals negative charge inputs.
var ErrPricingInvalidInput = errors.New("pricing: invalid input")

// PricingEngineDeps bundles dependencies for the pricing engine.
type PricingEngineDeps struct {
	Clock func() time.Time
}

// PricingEngine computes the deterministic order totals
// total = subtotal + shipping + tax - discount for a priced cart aggregate.
type PricingEngine struct {
	clock func() time.Time
}

// NewPricingEngine wires a pricing engine with an injected clock so coupon
// validity is testable.
func NewPricingEngine(deps PricingEngineDeps) (*PricingEngine, error) {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &PricingEngine{clock: func() time.Time { return clock().UTC() }}, nil
}

// Price produces the frozen quote for a cart aggregate. The coupon, when
// present, must pass validation at the engine's current clock time; its
// discount caps at the subtotal and the total clamps at zero with the
// DiscountExceedsCharges flag set.
func (e *PricingEngine) Price(agg domain.CartAggregate, shippingCost, tax domain.Money, coupon *domain.Coupon) (domain.Quote, error) {
	if shippingCost.IsNegative() {
		return domain.Quote{}, fmt.Errorf("%w: negative shipping cost %s", ErrPricingInvalidInput, shippingCost)
	}
	if tax.IsNegative() {
		return domain.Quote{}, fmt.Errorf("%w: negative tax %s", ErrPricingInvalidInput, tax)
	}

	quote := domain.Quote{
		Subtotal:     agg.Subtotal,
		ShippingCost: shippingCost,
		Tax:          tax,
		Discount:     domain.Zero(),
	}

	if coupon != nil {
		if err := ValidateCoupon(*coupon, agg.Subtotal, e.clock()); err != nil {
			return domain.Quote{}, err
		}
		discount, err := ApplyCoupon(*coupon, agg.Subtotal)
		if err != nil {
			return domain.Quote{}, err
		}
		quote.Discount = discount
		quote.CouponID = &coupon.ID
		quote.CouponCode = coupon.Code
	}

	charges, err := quote.Subtotal.Add(quote.ShippingCost)
	if err != nil {
		return domain.Quote{}, err
	}
	charges, err = charges.Add(quote.Tax)
	if err != nil {
		return domain.Quote{}, err
	}
	total, err := charges.Sub(quote.Discount)
	if err != nil {
		return domain.Quote{}, err
	}
	if total.IsNegative() {
		quote.DiscountExceedsCharges = true
		total = domain.Zero()
	}
	quote.Total = total

	return quote, nil
}
