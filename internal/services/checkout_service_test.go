package services

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/laptopstore/api/internal/domain"
	"github.com/laptopstore/api/internal/repositories"
)

type checkoutFixture struct {
	products *memProductRepo
	carts    *memCartRepo
	coupons  *memCouponRepo
	orders   *memOrderRepo
	cartSvc  CartService
	svc      CheckoutService
}

func newCheckoutFixture(t *testing.T, now time.Time) *checkoutFixture {
	t.Helper()

	products := newMemProductRepo(
		testProduct("prod_1", "50000.00", 5),
		testProduct("prod_2", "30000.00", 2),
	)
	carts := newMemCartRepo()
	coupons := newMemCouponRepo(testCoupon(now))
	orders := newMemOrderRepo()
	addresses := newMemAddressRepo(
		domain.Address{ID: "addr_ship", UserID: "user_1", Kind: domain.AddressShipping},
		domain.Address{ID: "addr_bill", UserID: "user_1", Kind: domain.AddressBilling},
		domain.Address{ID: "addr_both", UserID: "user_1", Kind: domain.AddressBoth},
	)

	cartSvc, err := NewCartService(CartServiceDeps{
		Carts:       carts,
		Products:    products,
		Clock:       fixedClock(now),
		IDGenerator: sequentialIDs("c"),
	})
	if err != nil {
		t.Fatalf("NewCartService: %v", err)
	}
	couponSvc, err := NewCouponService(CouponServiceDeps{Coupons: coupons})
	if err != nil {
		t.Fatalf("NewCouponService: %v", err)
	}
	pricing, err := NewPricingEngine(PricingEngineDeps{Clock: fixedClock(now)})
	if err != nil {
		t.Fatalf("NewPricingEngine: %v", err)
	}

	numbers := sequentialIDs("")
	svc, err := NewCheckoutService(CheckoutServiceDeps{
		Carts:        cartSvc,
		Coupons:      couponSvc,
		Pricing:      pricing,
		Products:     products,
		Orders:       orders,
		CouponRepo:   coupons,
		Addresses:    addresses,
		Clock:        fixedClock(now),
		IDGenerator:  sequentialIDs("x"),
		OrderNumbers: func() string { return "ORD-TEST000" + numbers() },
	})
	if err != nil {
		t.Fatalf("NewCheckoutService: %v", err)
	}

	return &checkoutFixture{
		products: products,
		carts:    carts,
		coupons:  coupons,
		orders:   orders,
		cartSvc:  cartSvc,
		svc:      svc,
	}
}

func (f *checkoutFixture) fillCart(t *testing.T, owner domain.CartOwner) domain.Cart {
	t.Helper()
	if _, err := f.cartSvc.AddLine(context.Background(), AddCartLineCommand{Owner: owner, ProductID: "prod_1", Quantity: 2}); err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	cart, err := f.cartSvc.AddLine(context.Background(), AddCartLineCommand{Owner: owner, ProductID: "prod_2", Quantity: 1})
	if err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	return cart
}

func placeCommand(cartID string) PlaceOrderCommand {
	userID := "user_1"
	return PlaceOrderCommand{
		UserID:            &userID,
		CartID:            cartID,
		ShippingAddressID: "addr_ship",
		BillingAddressID:  "addr_bill",
		CouponCode:        "SAVE10",
		ShippingCost:      domain.MustMoney("99.00"),
		Tax:               domain.MustMoney("500.00"),
	}
}

func TestCheckoutService_QuoteThenPlace_SameMoney(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	f := newCheckoutFixture(t, now)
	cart := f.fillCart(t, domain.UserOwner("user_1"))

	quote, err := f.svc.QuoteCart(context.Background(), QuoteCartCommand{
		CartID:       cart.ID,
		CouponCode:   "SAVE10",
		ShippingCost: domain.MustMoney("99.00"),
		Tax:          domain.MustMoney("500.00"),
	})
	if err != nil {
		t.Fatalf("QuoteCart: %v", err)
	}

	order, err := f.svc.PlaceOrder(context.Background(), placeCommand(cart.ID))
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	if !order.Subtotal.Equal(quote.Subtotal) || !order.Discount.Equal(quote.Discount) || !order.Total.Equal(quote.Total) {
		t.Fatalf("order money must match prior quote: %s/%s/%s vs %s/%s/%s",
			order.Subtotal, order.Discount, order.Total, quote.Subtotal, quote.Discount, quote.Total)
	}
	// 2x50000 + 30000 = 130000; 10% = 13000; total 130000+99+500-13000.
	if order.Total.String() != "117599.00" {
		t.Fatalf("expected total 117599.00 got %s", order.Total)
	}
}

func TestCheckoutService_PlaceOrder_SideEffects(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	f := newCheckoutFixture(t, now)
	cart := f.fillCart(t, domain.UserOwner("user_1"))

	order, err := f.svc.PlaceOrder(context.Background(), placeCommand(cart.ID))
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	if matched, _ := regexp.MatchString(`^ORD-[A-Z0-9]{8}$`, order.OrderNumber); !matched {
		t.Fatalf("bad order number %q", order.OrderNumber)
	}
	if order.Status != domain.OrderStatusPending || order.PaymentStatus != domain.PaymentStatusPending {
		t.Fatalf("new order must start pending/pending, got %s/%s", order.Status, order.PaymentStatus)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 frozen items got %d", len(order.Items))
	}

	if got := f.products.products["prod_1"].StockQuantity; got != 3 {
		t.Fatalf("expected stock 3 after reservation got %d", got)
	}
	if got := f.products.products["prod_2"].StockQuantity; got != 1 {
		t.Fatalf("expected stock 1 after reservation got %d", got)
	}

	var coupon domain.Coupon
	for _, c := range f.coupons.coupons {
		coupon = c
	}
	if coupon.CurrentUses != 1 {
		t.Fatalf("expected coupon usage 1 got %d", coupon.CurrentUses)
	}

	updates, _ := f.orders.ListStatusUpdates(context.Background(), order.ID)
	if len(updates) != 1 || updates[0].Status != domain.OrderStatusPending {
		t.Fatalf("expected one pending status update, got %v", updates)
	}

	// The cart is cleared; placing again from it reports empty, so the
	// operation cannot double-charge.
	if _, err := f.svc.PlaceOrder(context.Background(), placeCommand(cart.ID)); !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("expected ErrCartEmpty on second placement got %v", err)
	}
}

func TestCheckoutService_PlaceOrder_OutOfStock(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	f := newCheckoutFixture(t, now)
	owner := domain.UserOwner("user_1")

	cart, err := f.cartSvc.AddLine(context.Background(), AddCartLineCommand{Owner: owner, ProductID: "prod_2", Quantity: 3})
	if err != nil {
		t.Fatalf("AddLine: %v", err)
	}

	cmd := placeCommand(cart.ID)
	cmd.CouponCode = ""
	if _, err := f.svc.PlaceOrder(context.Background(), cmd); !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock got %v", err)
	}
	if got := f.products.products["prod_2"].StockQuantity; got != 2 {
		t.Fatalf("failed placement must not consume stock, got %d", got)
	}
}

func TestCheckoutService_PlaceOrder_StockRace(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	f := newCheckoutFixture(t, now)
	owner := domain.UserOwner("user_1")

	cart, err := f.cartSvc.AddLine(context.Background(), AddCartLineCommand{Owner: owner, ProductID: "prod_2", Quantity: 2})
	if err != nil {
		t.Fatalf("AddLine: %v", err)
	}

	// A concurrent order drains the stock between the availability read and
	// the conditional decrement: the UPDATE affects zero rows.
	f.products.decrementErr = repositories.ConflictError("product.decrement", errors.New("stock 0 < 2"))

	cmd := placeCommand(cart.ID)
	cmd.CouponCode = ""
	if _, err := f.svc.PlaceOrder(context.Background(), cmd); !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock from conditional update got %v", err)
	}
}

func TestCheckoutService_PlaceOrder_CouponRace(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	f := newCheckoutFixture(t, now)
	cart := f.fillCart(t, domain.UserOwner("user_1"))

	// The coupon validates at pricing time but loses the conditional
	// usage increment: last use taken concurrently.
	for id, coupon := range f.coupons.coupons {
		coupon.CurrentUses = coupon.MaxUses - 1
		f.coupons.coupons[id] = coupon
	}
	if err := f.coupons.IncrementUsage(context.Background(), "cpn_1"); err != nil {
		t.Fatalf("IncrementUsage: %v", err)
	}

	if _, err := f.svc.PlaceOrder(context.Background(), placeCommand(cart.ID)); !errors.Is(err, ErrCouponExhausted) {
		t.Fatalf("expected ErrCouponExhausted got %v", err)
	}
}

func TestCheckoutService_PlaceOrder_AddressChecks(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	f := newCheckoutFixture(t, now)
	cart := f.fillCart(t, domain.UserOwner("user_1"))

	cases := []struct {
		name   string
		mutate func(*PlaceOrderCommand)
	}{
		{"missing shipping", func(cmd *PlaceOrderCommand) { cmd.ShippingAddressID = "" }},
		{"unknown shipping", func(cmd *PlaceOrderCommand) { cmd.ShippingAddressID = "ghost" }},
		{"wrong kind", func(cmd *PlaceOrderCommand) { cmd.ShippingAddressID = "addr_bill" }},
		{"foreign owner", func(cmd *PlaceOrderCommand) {
			other := "user_2"
			cmd.UserID = &other
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmd := placeCommand(cart.ID)
			tc.mutate(&cmd)
			if _, err := f.svc.PlaceOrder(context.Background(), cmd); !errors.Is(err, ErrInvalidAddress) {
				t.Fatalf("expected ErrInvalidAddress got %v", err)
			}
		})
	}

	// A "both" address satisfies either requirement.
	cmd := placeCommand(cart.ID)
	cmd.ShippingAddressID = "addr_both"
	cmd.BillingAddressID = "addr_both"
	if _, err := f.svc.PlaceOrder(context.Background(), cmd); err != nil {
		t.Fatalf("PlaceOrder with both-kind address: %v", err)
	}
}

func TestCheckoutService_PlaceOrder_InactiveProduct(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	f := newCheckoutFixture(t, now)
	cart := f.fillCart(t, domain.UserOwner("user_1"))

	product := f.products.products["prod_1"]
	product.IsActive = false
	f.products.products["prod_1"] = product

	if _, err := f.svc.PlaceOrder(context.Background(), placeCommand(cart.ID)); !errors.Is(err, ErrProductUnavailable) {
		t.Fatalf("expected ErrProductUnavailable got %v", err)
	}
}

func TestCheckoutService_OrderNumberExhaustion(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	f := newCheckoutFixture(t, now)
	cart := f.fillCart(t, domain.UserOwner("user_1"))

	// Every candidate the generator yields is already taken.
	taken := domain.Order{ID: "ord_taken", OrderNumber: "ORD-DUPLICAT"}
	f.orders.orders[taken.ID] = taken

	svc, err := NewCheckoutService(CheckoutServiceDeps{
		Carts:        f.cartSvc,
		Pricing:      mustPricingEngine(t, now),
		Products:     f.products,
		Orders:       f.orders,
		Addresses:    newMemAddressRepo(domain.Address{ID: "addr_both", UserID: "user_1", Kind: domain.AddressBoth}),
		Clock:        fixedClock(now),
		OrderNumbers: func() string { return "ORD-DUPLICAT" },
	})
	if err != nil {
		t.Fatalf("NewCheckoutService: %v", err)
	}

	cmd := PlaceOrderCommand{
		CartID:            cart.ID,
		ShippingAddressID: "addr_both",
		BillingAddressID:  "addr_both",
	}
	userID := "user_1"
	cmd.UserID = &userID
	if _, err := svc.PlaceOrder(context.Background(), cmd); !errors.Is(err, ErrConflictRetryable) {
		t.Fatalf("expected ErrConflictRetryable got %v", err)
	}
}

func mustPricingEngine(t *testing.T, now time.Time) *PricingEngine {
	t.Helper()
	engine, err := NewPricingEngine(PricingEngineDeps{Clock: fixedClock(now)})
	if err != nil {
		t.Fatalf("NewPricingEngine: %v", err)
	}
	return engine
}
