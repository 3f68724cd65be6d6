package repositories

import (
	"context"

	"github.com/laptopstore/api/internal/domain"
)

// UnitOfWork groups repository operations into one transactional boundary.
// Implementations retry serialization failures with backoff before giving up.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ProductRepository exposes the read-only catalog plus linearizable stock
// movements.
type ProductRepository interface {
	FindByID(ctx context.Context, productID string) (domain.Product, error)
	FindColor(ctx context.Context, colorID string) (domain.ProductColor, error)

	// DecrementStock atomically reserves stock:
	// UPDATE products SET stock_quantity = stock_quantity - qty
	//   WHERE id = ? AND stock_quantity >= qty.
	// Zero rows affected yields a conflict error.
	DecrementStock(ctx context.Context, productID string, qty int) error

	// IncrementStock returns previously reserved stock (cancellation path).
	IncrementStock(ctx context.Context, productID string, qty int) error
}

// CartRepository persists cart headers and lines. (cart, product, colour) is
// unique per line.
type CartRepository interface {
	Create(ctx context.Context, cart domain.Cart) (domain.Cart, error)
	FindByID(ctx context.Context, cartID string) (domain.Cart, error)
	FindByOwner(ctx context.Context, owner domain.CartOwner) (domain.Cart, error)
	Delete(ctx context.Context, cartID string) error

	InsertLine(ctx context.Context, line domain.CartLine) (domain.CartLine, error)
	UpdateLine(ctx context.Context, line domain.CartLine) error
	FindLine(ctx context.Context, cartID, productID string, colorID *string) (domain.CartLine, error)
	DeleteLine(ctx context.Context, lineID string) error
	ClearLines(ctx context.Context, cartID string) error
}

// CouponRepository persists coupons and owns the linearizable usage counter.
type CouponRepository interface {
	FindByCode(ctx context.Context, normalizedCode string) (domain.Coupon, error)

	// IncrementUsage performs the atomic conditional update
	// UPDATE coupons SET current_uses = current_uses + 1
	//   WHERE id = ? AND (max_uses = 0 OR current_uses < max_uses).
	// Zero rows affected yields a conflict error.
	IncrementUsage(ctx context.Context, couponID string) error

	// DecrementUsage releases one use (order cancelled before payment).
	DecrementUsage(ctx context.Context, couponID string) error
}

// OrderListFilter narrows order listings.
type OrderListFilter struct {
	UserID string
	Status *domain.OrderStatus
	Limit  int
}

// OrderRepository persists orders, their frozen items, and the append-only
// status audit trail.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	Update(ctx context.Context, order domain.Order) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	FindByNumber(ctx context.Context, orderNumber string) (domain.Order, error)
	List(ctx context.Context, filter OrderListFilter) ([]domain.Order, error)

	AppendStatusUpdate(ctx context.Context, update domain.OrderStatusUpdate) error
	ListStatusUpdates(ctx context.Context, orderID string) ([]domain.OrderStatusUpdate, error)
}

// PaymentRepository persists capture attempts against orders.
type PaymentRepository interface {
	Insert(ctx context.Context, payment domain.Payment) error
	Update(ctx context.Context, payment domain.Payment) error
	FindByID(ctx context.Context, paymentID string) (domain.Payment, error)

	// ListByOrder returns payments oldest first.
	ListByOrder(ctx context.Context, orderID string) ([]domain.Payment, error)
	SumCompletedByOrder(ctx context.Context, orderID string) (domain.Money, error)
}

// RefundRepository persists both refund records: the order-level approval and
// the payment-level ledger entry.
type RefundRepository interface {
	InsertOrderRefund(ctx context.Context, refund domain.OrderRefund) error
	UpdateOrderRefund(ctx context.Context, refund domain.OrderRefund) error
	FindOrderRefund(ctx context.Context, refundID string) (domain.OrderRefund, error)
	ListOrderRefundsByOrder(ctx context.Context, orderID string) ([]domain.OrderRefund, error)
	SumCompletedOrderRefunds(ctx context.Context, orderID string) (domain.Money, error)

	InsertPaymentRefund(ctx context.Context, refund domain.PaymentRefund) error
	UpdatePaymentRefund(ctx context.Context, refund domain.PaymentRefund) error
	ListPaymentRefundsByPayment(ctx context.Context, paymentID string) ([]domain.PaymentRefund, error)
	SumCompletedPaymentRefunds(ctx context.Context, paymentID string) (domain.Money, error)
}

// AddressRepository persists user addresses.
type AddressRepository interface {
	Insert(ctx context.Context, address domain.Address) error
	Update(ctx context.Context, address domain.Address) error
	FindByID(ctx context.Context, addressID string) (domain.Address, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Address, error)

	// ClearDefaults unsets the default flag on the user's addresses whose
	// kind overlaps the given kind.
	ClearDefaults(ctx context.Context, userID string, kind domain.AddressKind) error
}
