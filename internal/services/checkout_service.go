package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/laptopstore/api/internal/domain"
	"github.com/laptopstore/api/internal/repositories"
)

const (
	orderIDPrefix        = "ord_"
	orderItemIDPrefix    = "oi_"
	statusUpdateIDPrefix = "osu_"

	orderNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	orderNumberLength   = 8
	orderNumberAttempts = 5
)

var (
	// ErrOutOfStock indicates a product cannot cover the requested quantity.
	ErrOutOfStock = errors.New("checkout: out of stock")
	// ErrProductUnavailable indicates an inactive or non-purchasable product.
	ErrProductUnavailable = errors.New("checkout: product unavailable")
	// ErrInvalidAddress indicates a missing, foreign or wrong-kind address.
	ErrInvalidAddress = errors.New("checkout: invalid address")
)

// CheckoutServiceDeps bundles collaborators for quoting and order placement.
type CheckoutServiceDeps struct {
	Carts      CartService
	Coupons    CouponService
	Pricing    *PricingEngine
	Products   repositories.ProductRepository
	Orders     repositories.OrderRepository
	CouponRepo repositories.CouponRepository
	Addresses  repositories.AddressRepository
	UnitOfWork repositories.UnitOfWork

	Clock       func() time.Time
	IDGenerator func() string
	// OrderNumbers generates candidate order numbers; inject a seeded
	// generator in tests for deterministic output.
	OrderNumbers func() string
	Logger       func(ctx context.Context, event string, fields map[string]any)
}

type checkoutService struct {
	carts      CartService
	coupons    CouponService
	pricing    *PricingEngine
	products   repositories.ProductRepository
	orders     repositories.OrderRepository
	couponRepo repositories.CouponRepository
	addresses  repositories.AddressRepository
	unitOfWork repositories.UnitOfWork

	clock      func() time.Time
	newID      func() string
	nextNumber func() string
	logger     func(context.Context, string, map[string]any)
}

// NewCheckoutService wires the checkout service.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.Carts == nil {
		return nil, errors.New("checkout service: cart service is required")
	}
	if deps.Pricing == nil {
		return nil, errors.New("checkout service: pricing engine is required")
	}
	if deps.Products == nil {
		return nil, errors.New("checkout service: product repository is required")
	}
	if deps.Orders == nil {
		return nil, errors.New("checkout service: order repository is required")
	}
	if deps.Addresses == nil {
		return nil, errors.New("checkout service: address repository is required")
	}
	if deps.Coupons != nil && deps.CouponRepo == nil {
		return nil, errors.New("checkout service: coupon repository is required with coupon service")
	}

	unit := deps.UnitOfWork
	if unit == nil {
		unit = noopUnitOfWork{}
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	numbers := deps.OrderNumbers
	if numbers == nil {
		numbers = RandomOrderNumber
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &checkoutService{
		carts:      deps.Carts,
		coupons:    deps.Coupons,
		pricing:    deps.Pricing,
		products:   deps.Products,
		orders:     deps.Orders,
		couponRepo: deps.CouponRepo,
		addresses:  deps.Addresses,
		unitOfWork: unit,
		clock:      func() time.Time { return clock().UTC() },
		newID:      idGen,
		nextNumber: numbers,
		logger:     logger,
	}, nil
}

// RandomOrderNumber draws ORD- plus eight uniform characters from A-Z0-9.
func RandomOrderNumber() string {
	var sb strings.Builder
	sb.Grow(4 + orderNumberLength)
	sb.WriteString("ORD-")
	for i := 0; i < orderNumberLength; i++ {
		sb.WriteByte(orderNumberAlphabet[rand.Intn(len(orderNumberAlphabet))])
	}
	return sb.String()
}

func (s *checkoutService) QuoteCart(ctx context.Context, cmd QuoteCartCommand) (domain.Quote, error) {
	agg, err := s.carts.Aggregate(ctx, cmd.CartID)
	if err != nil {
		return domain.Quote{}, err
	}

	coupon, err := s.resolveCoupon(ctx, cmd.CouponCode)
	if err != nil {
		return domain.Quote{}, err
	}

	return s.pricing.Price(agg, cmd.ShippingCost, cmd.Tax, coupon)
}

func (s *checkoutService) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (domain.Order, error) {
	if err := s.checkAddresses(ctx, cmd); err != nil {
		return domain.Order{}, err
	}

	var order domain.Order
	err := s.unitOfWork.RunInTx(ctx, func(txCtx context.Context) error {
		built, err := s.buildOrder(txCtx, cmd)
		if err != nil {
			return err
		}
		order = built
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.logger(ctx, "order.placed", map[string]any{
		"orderNumber": order.OrderNumber,
		"total":       order.Total.String(),
		"items":       len(order.Items),
	})
	return order, nil
}

func (s *checkoutService) buildOrder(ctx context.Context, cmd PlaceOrderCommand) (domain.Order, error) {
	// Unit prices are re-resolved from the catalog here; cart-stored prices
	// are never trusted.
	agg, err := s.carts.Aggregate(ctx, cmd.CartID)
	if err != nil {
		return domain.Order{}, err
	}

	if err := s.checkAvailability(ctx, agg); err != nil {
		return domain.Order{}, err
	}

	coupon, err := s.resolveCoupon(ctx, cmd.CouponCode)
	if err != nil {
		return domain.Order{}, err
	}

	quote, err := s.pricing.Price(agg, cmd.ShippingCost, cmd.Tax, coupon)
	if err != nil {
		return domain.Order{}, err
	}

	if err := s.reserveStock(ctx, agg); err != nil {
		return domain.Order{}, err
	}

	number, err := s.claimOrderNumber(ctx)
	if err != nil {
		return domain.Order{}, err
	}

	now := s.clock()
	order := domain.Order{
		ID:                orderIDPrefix + s.newID(),
		OrderNumber:       number,
		UserID:            cmd.UserID,
		Status:            domain.OrderStatusPending,
		PaymentStatus:     domain.PaymentStatusPending,
		ShippingAddressID: optionalID(cmd.ShippingAddressID),
		BillingAddressID:  optionalID(cmd.BillingAddressID),
		Subtotal:          quote.Subtotal,
		ShippingCost:      quote.ShippingCost,
		Tax:               quote.Tax,
		Discount:          quote.Discount,
		Total:             quote.Total,
		CouponID:          quote.CouponID,
		CouponCode:        quote.CouponCode,
		CreatedAt:         now,
		UpdatedAt:         now,
		CustomerNotes:     strings.TrimSpace(cmd.CustomerNotes),
	}

	order.Items = make([]domain.OrderItem, 0, len(agg.Lines))
	for _, line := range agg.Lines {
		productID := line.ProductID
		order.Items = append(order.Items, domain.OrderItem{
			ID:          orderItemIDPrefix + s.newID(),
			OrderID:     order.ID,
			ProductID:   &productID,
			ProductName: line.ProductName,
			ProductSKU:  line.ProductSKU,
			Color:       line.ColorName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			LineTotal:   line.LineTotal,
		})
	}

	if err := verifyOrderInvariants(order); err != nil {
		return domain.Order{}, err
	}

	if err := s.orders.Insert(ctx, order); err != nil {
		return domain.Order{}, mapOrderRepoError(err)
	}

	if coupon != nil {
		if err := s.couponRepo.IncrementUsage(ctx, coupon.ID); err != nil {
			var repoErr repositories.RepositoryError
			if errors.As(err, &repoErr) && repoErr.IsConflict() {
				return domain.Order{}, fmt.Errorf("%w: %s", ErrCouponExhausted, coupon.Code)
			}
			return domain.Order{}, err
		}
	}

	if err := s.orders.AppendStatusUpdate(ctx, domain.OrderStatusUpdate{
		ID:        statusUpdateIDPrefix + s.newID(),
		OrderID:   order.ID,
		Status:    domain.OrderStatusPending,
		Notes:     "order placed",
		CreatedAt: now,
		CreatedBy: cmd.UserID,
	}); err != nil {
		return domain.Order{}, err
	}

	if err := s.carts.Clear(ctx, cmd.CartID); err != nil {
		return domain.Order{}, err
	}

	return order, nil
}

func (s *checkoutService) checkAddresses(ctx context.Context, cmd PlaceOrderCommand) error {
	if err := s.checkAddress(ctx, cmd.ShippingAddressID, cmd.UserID, domain.AddressShipping); err != nil {
		return err
	}
	return s.checkAddress(ctx, cmd.BillingAddressID, cmd.UserID, domain.AddressBilling)
}

func (s *checkoutService) checkAddress(ctx context.Context, addressID string, userID *string, required domain.AddressKind) error {
	addressID = strings.TrimSpace(addressID)
	if addressID == "" {
		return fmt.Errorf("%w: %s address is required", ErrInvalidAddress, required)
	}
	address, err := s.addresses.FindByID(ctx, addressID)
	if err != nil {
		if isRepoNotFound(err) {
			return fmt.Errorf("%w: %s not found", ErrInvalidAddress, addressID)
		}
		return err
	}
	if userID != nil && address.UserID != *userID {
		return fmt.Errorf("%w: %s does not belong to user", ErrInvalidAddress, addressID)
	}
	if !address.Kind.UsableFor(required) {
		return fmt.Errorf("%w: %s is not usable for %s", ErrInvalidAddress, addressID, required)
	}
	return nil
}

func (s *checkoutService) checkAvailability(ctx context.Context, agg domain.CartAggregate) error {
	required := quantitiesByProduct(agg)
	for productID, qty := range required {
		product, err := s.products.FindByID(ctx, productID)
		if err != nil {
			return mapCatalogError(err, ErrProductNotFound)
		}
		if !domain.Purchasable(product) {
			return fmt.Errorf("%w: %s (%s)", ErrProductUnavailable, product.Name, product.Availability)
		}
		if qty > product.StockQuantity {
			return fmt.Errorf("%w: product %s", ErrOutOfStock, productID)
		}
	}
	return nil
}

// reserveStock decrements stock per product under the repository's atomic
// conditional update. A conflict means another order won the remaining stock.
func (s *checkoutService) reserveStock(ctx context.Context, agg domain.CartAggregate) error {
	for productID, qty := range quantitiesByProduct(agg) {
		if err := s.products.DecrementStock(ctx, productID, qty); err != nil {
			var repoErr repositories.RepositoryError
			if errors.As(err, &repoErr) && repoErr.IsConflict() {
				return fmt.Errorf("%w: product %s", ErrOutOfStock, productID)
			}
			return err
		}
	}
	return nil
}

func (s *checkoutService) resolveCoupon(ctx context.Context, code string) (*domain.Coupon, error) {
	if strings.TrimSpace(code) == "" {
		return nil, nil
	}
	if s.coupons == nil {
		return nil, fmt.Errorf("%w: %s", ErrCouponNotFound, code)
	}
	coupon, err := s.coupons.Resolve(ctx, code)
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// claimOrderNumber draws candidate numbers until one is unused, bounded by
// orderNumberAttempts. Uniqueness is finally guaranteed by the order_number
// unique index; an insert-time collision surfaces as a retryable conflict.
func (s *checkoutService) claimOrderNumber(ctx context.Context) (string, error) {
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		candidate := s.nextNumber()
		_, err := s.orders.FindByNumber(ctx, candidate)
		if err == nil {
			continue
		}
		if isRepoNotFound(err) {
			return candidate, nil
		}
		return "", err
	}
	return "", fmt.Errorf("%w: order number space contention", ErrConflictRetryable)
}

func verifyOrderInvariants(order domain.Order) error {
	lineSum := domain.Zero()
	for _, item := range order.Items {
		expected, err := item.UnitPrice.MulQty(item.Quantity)
		if err != nil {
			return err
		}
		if !expected.Equal(item.LineTotal) {
			return fmt.Errorf("%w: item %s line total %s != %s", ErrInvariantViolation, item.ID, item.LineTotal, expected)
		}
		lineSum, err = lineSum.Add(item.LineTotal)
		if err != nil {
			return err
		}
	}
	if !lineSum.Equal(order.Subtotal) {
		return fmt.Errorf("%w: items sum %s != subtotal %s", ErrInvariantViolation, lineSum, order.Subtotal)
	}

	charges, err := order.Subtotal.Add(order.ShippingCost)
	if err != nil {
		return err
	}
	charges, err = charges.Add(order.Tax)
	if err != nil {
		return err
	}
	expectedTotal, err := charges.Sub(order.Discount)
	if err != nil {
		return err
	}
	if !order.Total.Equal(expectedTotal.ClampZero()) || order.Total.IsNegative() {
		return fmt.Errorf("%w: total %s != %s", ErrInvariantViolation, order.Total, expectedTotal.ClampZero())
	}
	return nil
}

func quantitiesByProduct(agg domain.CartAggregate) map[string]int {
	required := make(map[string]int, len(agg.Lines))
	for _, line := range agg.Lines {
		required[line.ProductID] += line.Quantity
	}
	return required
}

func optionalID(id string) *string {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	return &id
}

func mapOrderRepoError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		case repoErr.IsConflict(), repoErr.IsRetryable():
			return fmt.Errorf("%w: %v", ErrConflictRetryable, err)
		}
	}
	return err
}
