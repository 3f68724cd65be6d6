package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/laptopstore/api/internal/domain"
	"github.com/laptopstore/api/internal/repositories"
)

var (
	// ErrCouponNotFound indicates no coupon matches the code.
	ErrCouponNotFound = errors.New("coupon: not found")
	// ErrCouponInactive indicates the coupon has been deactivated.
	ErrCouponInactive = errors.New("coupon: inactive")
	// ErrCouponNotYetValid indicates the validity window has not opened.
	ErrCouponNotYetValid = errors.New("coupon: not yet valid")
	// ErrCouponExpired indicates the validity window has closed.
	ErrCouponExpired = errors.New("coupon: expired")
	// ErrCouponExhausted indicates the usage cap has been reached.
	ErrCouponExhausted = errors.New("coupon: usage exhausted")
	// ErrCouponBelowMinimum indicates the subtotal does not reach the
	// coupon's minimum order amount.
	ErrCouponBelowMinimum = errors.New("coupon: below minimum order amount")
)

// ValidateCoupon applies the eligibility rules in order; the first failing
// rule wins: active, validity window, usage cap, minimum order amount.
func ValidateCoupon(coupon domain.Coupon, subtotal domain.Money, now time.Time) error {
	if !coupon.IsActive {
		return fmt.Errorf("%w: %s", ErrCouponInactive, coupon.Code)
	}
	if now.Before(coupon.ValidFrom) {
		return fmt.Errorf("%w: %s opens %s", ErrCouponNotYetValid, coupon.Code, coupon.ValidFrom.UTC().Format(time.RFC3339))
	}
	if now.After(coupon.ValidTo) {
		return fmt.Errorf("%w: %s closed %s", ErrCouponExpired, coupon.Code, coupon.ValidTo.UTC().Format(time.RFC3339))
	}
	if coupon.MaxUses > 0 && coupon.CurrentUses >= coupon.MaxUses {
		return fmt.Errorf("%w: %s", ErrCouponExhausted, coupon.Code)
	}
	if subtotal.Cmp(coupon.MinimumOrderAmount) < 0 {
		return fmt.Errorf("%w: subtotal %s, minimum %s", ErrCouponBelowMinimum, subtotal, coupon.MinimumOrderAmount)
	}
	return nil
}

// ApplyCoupon computes the discount for a validated coupon. Percentage
// discounts round half-up to scale 2; both kinds cap at the subtotal.
func ApplyCoupon(coupon domain.Coupon, subtotal domain.Money) (domain.Money, error) {
	switch coupon.DiscountKind {
	case domain.DiscountKindPercentage:
		discount, err := subtotal.Percent(coupon.DiscountValue.Decimal())
		if err != nil {
			return domain.Money{}, err
		}
		return discount.Min(subtotal), nil
	case domain.DiscountKindFixed:
		return coupon.DiscountValue.Min(subtotal), nil
	default:
		return domain.Money{}, fmt.Errorf("coupon: unknown discount kind %q", coupon.DiscountKind)
	}
}

// CouponServiceDeps bundles dependencies for coupon resolution.
type CouponServiceDeps struct {
	Coupons repositories.CouponRepository
}

type couponService struct {
	coupons repositories.CouponRepository
}

// NewCouponService wires a CouponService backed by the coupon repository.
func NewCouponService(deps CouponServiceDeps) (CouponService, error) {
	if deps.Coupons == nil {
		return nil, errors.New("coupon service: coupon repository is required")
	}
	return &couponService{coupons: deps.Coupons}, nil
}

func (s *couponService) Resolve(ctx context.Context, code string) (domain.Coupon, error) {
	normalized := domain.NormalizeCouponCode(code)
	if normalized == "" {
		return domain.Coupon{}, fmt.Errorf("%w: empty code", ErrCouponNotFound)
	}
	coupon, err := s.coupons.FindByCode(ctx, normalized)
	if err != nil {
		if isRepoNotFound(err) {
			return domain.Coupon{}, fmt.Errorf("%w: %s", ErrCouponNotFound, normalized)
		}
		return domain.Coupon{}, err
	}
	return coupon, nil
}
