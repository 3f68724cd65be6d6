package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/laptopstore/api/internal/domain"
)

func testCoupon(now time.Time) domain.Coupon {
	return domain.Coupon{
		ID:                 "cpn_1",
		Code:               "SAVE10",
		DiscountKind:       domain.DiscountKindPercentage,
		DiscountValue:      domain.MustMoney("10"),
		MinimumOrderAmount: domain.MustMoney("100.00"),
		IsActive:           true,
		ValidFrom:          now.Add(-time.Hour),
		ValidTo:            now.Add(time.Hour),
		MaxUses:            5,
		CurrentUses:        0,
	}
}

func TestValidateCoupon_RuleOrder(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	subtotal := domain.MustMoney("150.00")

	cases := []struct {
		name   string
		mutate func(*domain.Coupon)
		want   error
	}{
		{"inactive", func(c *domain.Coupon) { c.IsActive = false }, ErrCouponInactive},
		{"not yet valid", func(c *domain.Coupon) { c.ValidFrom = now.Add(time.Minute) }, ErrCouponNotYetValid},
		{"expired", func(c *domain.Coupon) { c.ValidTo = now.Add(-time.Minute) }, ErrCouponExpired},
		{"exhausted", func(c *domain.Coupon) { c.CurrentUses = 5 }, ErrCouponExhausted},
		{"below minimum", func(c *domain.Coupon) { c.MinimumOrderAmount = domain.MustMoney("200.00") }, ErrCouponBelowMinimum},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			coupon := testCoupon(now)
			tc.mutate(&coupon)
			if err := ValidateCoupon(coupon, subtotal, now); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v got %v", tc.want, err)
			}
		})
	}

	// An inactive, expired coupon reports inactive first.
	coupon := testCoupon(now)
	coupon.IsActive = false
	coupon.ValidTo = now.Add(-time.Minute)
	if err := ValidateCoupon(coupon, subtotal, now); !errors.Is(err, ErrCouponInactive) {
		t.Fatalf("expected inactive to win, got %v", err)
	}
}

func TestValidateCoupon_UnlimitedUses(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	coupon := testCoupon(now)
	coupon.MaxUses = 0
	coupon.CurrentUses = 100000

	if err := ValidateCoupon(coupon, domain.MustMoney("150.00"), now); err != nil {
		t.Fatalf("max_uses=0 must mean unlimited, got %v", err)
	}
}

func TestApplyCoupon_PercentageRoundsHalfUp(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	coupon := testCoupon(now)

	discount, err := ApplyCoupon(coupon, domain.MustMoney("100.05"))
	if err != nil {
		t.Fatalf("ApplyCoupon: %v", err)
	}
	if discount.String() != "10.01" {
		t.Fatalf("expected 10.01 got %s", discount)
	}
}

func TestApplyCoupon_FixedCapsAtSubtotal(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	coupon := testCoupon(now)
	coupon.DiscountKind = domain.DiscountKindFixed
	coupon.DiscountValue = domain.MustMoney("500.00")

	discount, err := ApplyCoupon(coupon, domain.MustMoney("120.00"))
	if err != nil {
		t.Fatalf("ApplyCoupon: %v", err)
	}
	if discount.String() != "120.00" {
		t.Fatalf("expected cap at subtotal, got %s", discount)
	}
}

func TestCouponService_Resolve_NormalizesCode(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	repo := newMemCouponRepo(testCoupon(now))

	svc, err := NewCouponService(CouponServiceDeps{Coupons: repo})
	if err != nil {
		t.Fatalf("NewCouponService: %v", err)
	}

	coupon, err := svc.Resolve(context.Background(), "  save10 ")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if coupon.Code != "SAVE10" {
		t.Fatalf("unexpected code %s", coupon.Code)
	}

	if _, err := svc.Resolve(context.Background(), "MISSING"); !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("expected ErrCouponNotFound got %v", err)
	}
	if _, err := svc.Resolve(context.Background(), "   "); !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("expected ErrCouponNotFound for blank code got %v", err)
	}
}
