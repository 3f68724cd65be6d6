package domain

import (
	"strings"
	"time"
)

// ProductAvailability enumerates catalog availability states.
type ProductAvailability string

const (
	AvailabilityInStock      ProductAvailability = "in_stock"
	AvailabilityOutOfStock   ProductAvailability = "out_of_stock"
	AvailabilityComingSoon   ProductAvailability = "coming_soon"
	AvailabilityDiscontinued ProductAvailability = "discontinued"
)

// Product is the read-only catalog record consumed by the pricing core.
type Product struct {
	ID            string
	Name          string
	Slug          string
	SKU           string
	Price         Money
	SalePrice     *Money
	IsOnSale      bool
	StockQuantity int
	Availability  ProductAvailability
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ProductColor is a purchasable colour variant carrying a signed price
// adjustment against the parent product.
type ProductColor struct {
	ID              string
	ProductID       string
	Name            string
	ColorCode       string
	PriceAdjustment Money
	IsAvailable     bool
}

// CartOwner identifies the party a cart belongs to: exactly one of a user id
// or an anonymous session token. The zero value is invalid.
type CartOwner struct {
	userID    string
	sessionID string
}

// UserOwner builds a cart owner for a signed-in user.
func UserOwner(userID string) CartOwner {
	return CartOwner{userID: strings.TrimSpace(userID)}
}

// SessionOwner builds a cart owner for an anonymous session.
func SessionOwner(token string) CartOwner {
	return CartOwner{sessionID: strings.TrimSpace(token)}
}

// UserID returns the owning user id when the cart belongs to a user.
func (o CartOwner) UserID() (string, bool) {
	return o.userID, o.userID != ""
}

// SessionID returns the session token when the cart is anonymous.
func (o CartOwner) SessionID() (string, bool) {
	return o.sessionID, o.sessionID != "" && o.userID == ""
}

// Valid reports whether exactly one discriminator is set.
func (o CartOwner) Valid() bool {
	return (o.userID != "") != (o.sessionID != "")
}

// Cart is the transient pre-order aggregate.
type Cart struct {
	ID        string
	Owner     CartOwner
	Lines     []CartLine
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartLine is one (product, colour) entry in a cart. The pair is unique per
// cart; quantity is always positive.
type CartLine struct {
	ID        string
	CartID    string
	ProductID string
	ColorID   *string
	Quantity  int
	AddedAt   time.Time
	UpdatedAt time.Time
}

// DiscountKind enumerates coupon discount types.
type DiscountKind string

const (
	DiscountKindPercentage DiscountKind = "percentage"
	DiscountKindFixed      DiscountKind = "fixed"
)

// Coupon is a discount token with a validity window and usage cap.
type Coupon struct {
	ID                 string
	Code               string
	Description        string
	DiscountKind       DiscountKind
	DiscountValue      Money
	MinimumOrderAmount Money
	IsActive           bool
	ValidFrom          time.Time
	ValidTo            time.Time
	MaxUses            int
	CurrentUses        int
}

// NormalizeCouponCode folds a raw coupon code to its canonical comparison
// form: trimmed, ASCII upper-cased.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// AddressKind enumerates what an address may be used for.
type AddressKind string

const (
	AddressBilling  AddressKind = "billing"
	AddressShipping AddressKind = "shipping"
	AddressBoth     AddressKind = "both"
)

// UsableFor reports whether the address kind satisfies the required usage.
func (k AddressKind) UsableFor(required AddressKind) bool {
	return k == required || k == AddressBoth
}

// Address is a user postal address snapshot target.
type Address struct {
	ID           string
	UserID       string
	Kind         AddressKind
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

// OrderStatus enumerates the order lifecycle states.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// PaymentStatus enumerates the order-level payment states.
type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusPaid              PaymentStatus = "paid"
	PaymentStatusFailed            PaymentStatus = "failed"
	PaymentStatusRefunded          PaymentStatus = "refunded"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
)

// Order is the immutable commercial record created at checkout. Only status,
// payment status, lifecycle timestamps and admin notes mutate after creation.
type Order struct {
	ID            string
	OrderNumber   string
	UserID        *string
	Status        OrderStatus
	PaymentStatus PaymentStatus

	ShippingAddressID *string
	BillingAddressID  *string

	Subtotal     Money
	ShippingCost Money
	Tax          Money
	Discount     Money
	Total        Money

	CouponID   *string
	CouponCode string

	Items []OrderItem

	CreatedAt   time.Time
	UpdatedAt   time.Time
	PaidAt      *time.Time
	ShippedAt   *time.Time
	DeliveredAt *time.Time
	CancelledAt *time.Time

	CustomerNotes string
	AdminNotes    string
}

// OrderItem captures a cart line frozen at order creation. Product text
// fields survive later product deletion.
type OrderItem struct {
	ID          string
	OrderID     string
	ProductID   *string
	ProductName string
	ProductSKU  string
	Color       string
	Quantity    int
	UnitPrice   Money
	LineTotal   Money
}

// OrderStatusUpdate is an append-only audit row recording a status
// transition.
type OrderStatusUpdate struct {
	ID        string
	OrderID   string
	Status    OrderStatus
	Notes     string
	CreatedAt time.Time
	CreatedBy *string
}

// PaymentMethod enumerates supported capture methods.
type PaymentMethod string

const (
	PaymentMethodRazorpay   PaymentMethod = "razorpay"
	PaymentMethodCreditCard PaymentMethod = "credit_card"
	PaymentMethodDebitCard  PaymentMethod = "debit_card"
	PaymentMethodNetBanking PaymentMethod = "net_banking"
	PaymentMethodUPI        PaymentMethod = "upi"
	PaymentMethodWallet     PaymentMethod = "wallet"
	PaymentMethodCOD        PaymentMethod = "cod"
)

// KnownPaymentMethod reports whether the method is one of the supported
// capture channels.
func KnownPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodRazorpay, PaymentMethodCreditCard, PaymentMethodDebitCard,
		PaymentMethodNetBanking, PaymentMethodUPI, PaymentMethodWallet, PaymentMethodCOD:
		return true
	}
	return false
}

// PaymentState enumerates per-payment capture states.
type PaymentState string

const (
	PaymentPending   PaymentState = "pending"
	PaymentCompleted PaymentState = "completed"
	PaymentFailed    PaymentState = "failed"
	PaymentRefunded  PaymentState = "refunded"
)

// Payment is a capture attempt against an order.
type Payment struct {
	ID                    string
	OrderID               string
	Method                PaymentMethod
	Amount                Money
	Status                PaymentState
	TransactionID         string
	GatewayOrderID        string
	GatewayResponse       map[string]any
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// PaymentRefundState enumerates ledger states for payment-level refunds.
type PaymentRefundState string

const (
	PaymentRefundPending   PaymentRefundState = "pending"
	PaymentRefundCompleted PaymentRefundState = "completed"
	PaymentRefundFailed    PaymentRefundState = "failed"
)

// PaymentRefund is a ledger entry debiting a specific captured payment.
type PaymentRefund struct {
	ID              string
	PaymentID       string
	Amount          Money
	Reason          string
	Status          PaymentRefundState
	TransactionID   string
	GatewayResponse map[string]any
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderRefundState enumerates business approval states for order refunds.
type OrderRefundState string

const (
	OrderRefundPending   OrderRefundState = "pending"
	OrderRefundApproved  OrderRefundState = "approved"
	OrderRefundRejected  OrderRefundState = "rejected"
	OrderRefundCompleted OrderRefundState = "completed"
)

// OrderRefund is the business approval record for returning funds.
type OrderRefund struct {
	ID          string
	OrderID     string
	Amount      Money
	Reason      string
	Status      OrderRefundState
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ProcessedAt *time.Time
	ProcessedBy *string
}

// CartAggregate is the priced view of a cart: re-resolved unit prices and
// line totals plus the subtotal.
type CartAggregate struct {
	CartID   string
	Owner    CartOwner
	Lines    []AggregateLine
	Subtotal Money
}

// AggregateLine is one priced cart line.
type AggregateLine struct {
	ProductID   string
	ProductName string
	ProductSKU  string
	ColorID     *string
	ColorName   string
	Quantity    int
	UnitPrice   Money
	LineTotal   Money
}

// Quote is the frozen monetary breakdown produced by the pricing engine.
// Placing an order from the same cart without changes yields identical
// monetary fields.
type Quote struct {
	Subtotal     Money
	ShippingCost Money
	Tax          Money
	Discount     Money
	Total        Money

	CouponID   *string
	CouponCode string

	// DiscountExceedsCharges flags that the discount outgrew the charges and
	// the total was clamped to zero.
	DiscountExceedsCharges bool
}
