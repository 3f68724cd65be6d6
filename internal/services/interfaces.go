package services

import (
	"context"
	"errors"

	"github.com/laptopstore/api/internal/domain"
)

// Shared error kinds surfaced across services.
var (
	// ErrConflictRetryable signals a serialization failure that exhausted its
	// retry budget; callers may safely retry the whole operation.
	ErrConflictRetryable = errors.New("conflict: retry exhausted")
	// ErrInvariantViolation signals a broken monetary or aggregate invariant.
	// The enclosing transaction is aborted and the error is operator-visible.
	ErrInvariantViolation = errors.New("integrity: invariant violation")
)

// CatalogService is the read-only product/colour/price view.
type CatalogService interface {
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
	GetColor(ctx context.Context, colorID string) (domain.ProductColor, error)
	ResolveUnitPrice(ctx context.Context, productID string, colorID *string) (domain.Money, error)
}

// AddCartLineCommand adds quantity of a product (optionally a colour) to a
// cart, creating the cart on first add.
type AddCartLineCommand struct {
	Owner     domain.CartOwner
	ProductID string
	ColorID   *string
	Quantity  int
}

// UpdateCartLineCommand replaces the quantity on an existing line.
type UpdateCartLineCommand struct {
	CartID   string
	LineID   string
	Quantity int
}

// CartService manages cart lifecycle and produces priced aggregates.
type CartService interface {
	GetOrCreate(ctx context.Context, owner domain.CartOwner) (domain.Cart, error)
	AddLine(ctx context.Context, cmd AddCartLineCommand) (domain.Cart, error)
	UpdateLineQuantity(ctx context.Context, cmd UpdateCartLineCommand) (domain.Cart, error)
	RemoveLine(ctx context.Context, cartID, lineID string) (domain.Cart, error)
	Clear(ctx context.Context, cartID string) error

	// Aggregate re-resolves unit prices from the catalog and computes line
	// totals and the subtotal.
	Aggregate(ctx context.Context, cartID string) (domain.CartAggregate, error)

	// MergeSessionCart folds an anonymous session cart into the user's cart
	// on login: upsert by (product, colour), quantities summed.
	MergeSessionCart(ctx context.Context, sessionToken, userID string) (domain.Cart, error)
}

// CouponService resolves coupon codes for pricing and checkout.
type CouponService interface {
	Resolve(ctx context.Context, code string) (domain.Coupon, error)
}

// QuoteCartCommand prices a cart without placing an order.
type QuoteCartCommand struct {
	CartID       string
	CouponCode   string
	ShippingCost domain.Money
	Tax          domain.Money
}

// PlaceOrderCommand converts a cart into an immutable order.
type PlaceOrderCommand struct {
	UserID            *string
	CartID            string
	ShippingAddressID string
	BillingAddressID  string
	CouponCode        string
	ShippingCost      domain.Money
	Tax               domain.Money
	CustomerNotes     string
}

// CheckoutService owns quoting and the atomic cart-to-order conversion.
type CheckoutService interface {
	QuoteCart(ctx context.Context, cmd QuoteCartCommand) (domain.Quote, error)
	PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (domain.Order, error)
}

// TransitionOrderCommand moves an order along the status DAG.
type TransitionOrderCommand struct {
	OrderID      string
	TargetStatus domain.OrderStatus
	ActorID      *string
	Note         string
}

// CancelOrderCommand cancels an order, releasing coupon usage and reserved
// stock when payment has not completed.
type CancelOrderCommand struct {
	OrderID string
	ActorID *string
	Reason  string
}

// OrderService drives the order lifecycle after creation.
type OrderService interface {
	GetOrder(ctx context.Context, orderID string) (domain.Order, error)
	ListOrders(ctx context.Context, userID string, status *domain.OrderStatus) ([]domain.Order, error)
	StatusHistory(ctx context.Context, orderID string) ([]domain.OrderStatusUpdate, error)
	TransitionStatus(ctx context.Context, cmd TransitionOrderCommand) (domain.Order, error)
	Cancel(ctx context.Context, cmd CancelOrderCommand) (domain.Order, error)
}

// RecordPaymentCommand registers a pending capture attempt against an order.
type RecordPaymentCommand struct {
	OrderID         string
	Method          domain.PaymentMethod
	Amount          domain.Money
	GatewayOrderID  string
	GatewayResponse map[string]any
}

// PaymentOutcome is the terminal result reported for a pending payment.
type PaymentOutcome string

const (
	PaymentOutcomeCompleted PaymentOutcome = "completed"
	PaymentOutcomeFailed    PaymentOutcome = "failed"
)

// MarkPaymentOutcomeCommand settles a pending payment.
type MarkPaymentOutcomeCommand struct {
	PaymentID       string
	Outcome         PaymentOutcome
	TransactionID   string
	GatewayResponse map[string]any
}

// PaymentService records captures and settles their outcomes.
type PaymentService interface {
	RecordPayment(ctx context.Context, cmd RecordPaymentCommand) (domain.Payment, error)
	MarkPaymentOutcome(ctx context.Context, cmd MarkPaymentOutcomeCommand) (domain.Payment, error)
}

// RequestOrderRefundCommand opens an order-level refund approval record.
type RequestOrderRefundCommand struct {
	OrderID string
	Amount  domain.Money
	Reason  string
	ActorID *string
}

// RefundOutcome is the decision applied to a pending order refund.
type RefundOutcome string

const (
	RefundOutcomeApproved RefundOutcome = "approved"
	RefundOutcomeRejected RefundOutcome = "rejected"
)

// SettleOrderRefundCommand resolves a pending order refund.
type SettleOrderRefundCommand struct {
	RefundID string
	Outcome  RefundOutcome
	ActorID  *string
}

// RefundService creates and settles refunds while keeping payment aggregates
// consistent.
type RefundService interface {
	RequestOrderRefund(ctx context.Context, cmd RequestOrderRefundCommand) (domain.OrderRefund, error)
	SettleOrderRefund(ctx context.Context, cmd SettleOrderRefundCommand) (domain.OrderRefund, error)
}

// CreateAddressCommand registers an address for a user.
type CreateAddressCommand struct {
	UserID       string
	Kind         domain.AddressKind
	FullName     string
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	PostalCode   string
	Country      string
	Phone        string
	IsDefault    bool
}

// AddressService manages user addresses and the single-default invariant.
type AddressService interface {
	Create(ctx context.Context, cmd CreateAddressCommand) (domain.Address, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Address, error)
	SetDefault(ctx context.Context, userID, addressID string) (domain.Address, error)
}
