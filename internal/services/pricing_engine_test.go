package services

import (
	"errors"
	"testing"
	"time"

	"github.com/laptopstore/api/internal/domain"
)

func testAggregate(subtotal string) domain.CartAggregate {
	return domain.CartAggregate{
		CartID:   "cart_1",
		Owner:    domain.UserOwner("user_1"),
		Subtotal: domain.MustMoney(subtotal),
		Lines: []domain.AggregateLine{{
			ProductID: "prod_1",
			Quantity:  1,
			UnitPrice: domain.MustMoney(subtotal),
			LineTotal: domain.MustMoney(subtotal),
		}},
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestPricingEngine_TotalIdentity(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	engine, err := NewPricingEngine(PricingEngineDeps{Clock: fixedClock(now)})
	if err != nil {
		t.Fatalf("NewPricingEngine: %v", err)
	}

	coupon := testCoupon(now)
	quote, err := engine.Price(testAggregate("1000.00"), domain.MustMoney("49.99"), domain.MustMoney("180.00"), &coupon)
	if err != nil {
		t.Fatalf("Price: %v", err)
	}

	if quote.Discount.String() != "100.00" {
		t.Fatalf("expected discount 100.00 got %s", quote.Discount)
	}
	if quote.Total.String() != "1129.99" {
		t.Fatalf("expected total 1129.99 got %s", quote.Total)
	}
	if quote.CouponID == nil || *quote.CouponID != "cpn_1" {
		t.Fatalf("expected coupon id on quote")
	}
	if quote.DiscountExceedsCharges {
		t.Fatalf("unexpected clamp flag")
	}
}

func TestPricingEngine_Deterministic(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	engine, err := NewPricingEngine(PricingEngineDeps{Clock: fixedClock(now)})
	if err != nil {
		t.Fatalf("NewPricingEngine: %v", err)
	}

	agg := testAggregate("333.33")
	coupon := testCoupon(now)
	coupon.DiscountValue = domain.MustMoney("33")

	first, err := engine.Price(agg, domain.MustMoney("10.00"), domain.MustMoney("5.00"), &coupon)
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	second, err := engine.Price(agg, domain.MustMoney("10.00"), domain.MustMoney("5.00"), &coupon)
	if err != nil {
		t.Fatalf("Price: %v", err)
	}

	if !first.Total.Equal(second.Total) || !first.Discount.Equal(second.Discount) {
		t.Fatalf("same inputs must price identically: %s/%s vs %s/%s",
			first.Total, first.Discount, second.Total, second.Discount)
	}
	if first.Discount.String() != "110.00" {
		t.Fatalf("expected 33%% of 333.33 to round to 110.00, got %s", first.Discount)
	}
}

func TestPricingEngine_DiscountClampsAtZero(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	engine, err := NewPricingEngine(PricingEngineDeps{Clock: fixedClock(now)})
	if err != nil {
		t.Fatalf("NewPricingEngine: %v", err)
	}

	// Fixed discount equals the subtotal; shipping and tax are zero, so the
	// clamp only engages when the discount covers every charge.
	coupon := testCoupon(now)
	coupon.DiscountKind = domain.DiscountKindFixed
	coupon.DiscountValue = domain.MustMoney("999.00")
	coupon.MinimumOrderAmount = domain.Zero()

	quote, err := engine.Price(testAggregate("150.00"), domain.Zero(), domain.Zero(), &coupon)
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	if !quote.Total.IsZero() {
		t.Fatalf("expected zero total got %s", quote.Total)
	}
	if quote.Discount.String() != "150.00" {
		t.Fatalf("discount must cap at subtotal, got %s", quote.Discount)
	}
	if quote.DiscountExceedsCharges {
		t.Fatalf("capped discount equals charges exactly, flag must stay unset")
	}
}

func TestPricingEngine_RejectsNegativeCharges(t *testing.T) {
	engine, err := NewPricingEngine(PricingEngineDeps{})
	if err != nil {
		t.Fatalf("NewPricingEngine: %v", err)
	}

	negative := domain.Zero()
	negative, subErr := negative.Sub(domain.MustMoney("1.00"))
	if subErr != nil {
		t.Fatalf("Sub: %v", subErr)
	}

	if _, err := engine.Price(testAggregate("100.00"), negative, domain.Zero(), nil); !errors.Is(err, ErrPricingInvalidInput) {
		t.Fatalf("expected ErrPricingInvalidInput got %v", err)
	}
}

func TestPricingEngine_InvalidCouponRejected(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	engine, err := NewPricingEngine(PricingEngineDeps{Clock: fixedClock(now)})
	if err != nil {
		t.Fatalf("NewPricingEngine: %v", err)
	}

	coupon := testCoupon(now)
	coupon.ValidTo = now.Add(-time.Minute)

	if _, err := engine.Price(testAggregate("150.00"), domain.Zero(), domain.Zero(), &coupon); !errors.Is(err, ErrCouponExpired) {
		t.Fatalf("expected ErrCouponExpired got %v", err)
	}
}
