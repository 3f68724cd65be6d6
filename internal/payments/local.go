package payments

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// LocalGateway is an in-process provider for development and tests. It hands
// out deterministic-looking ids and remembers the orders it created so
// refunds against unknown transactions fail loudly.
type LocalGateway struct {
	mu     sync.Mutex
	orders map[string]GatewayOrder

	newID func() string
	clock func() time.Time
}

// LocalGatewayOption configures the local gateway.
type LocalGatewayOption func(*LocalGateway)

// WithLocalIDGenerator injects the id source, used by tests for stable ids.
func WithLocalIDGenerator(gen func() string) LocalGatewayOption {
	return func(g *LocalGateway) { g.newID = gen }
}

// WithLocalClock injects the clock.
func WithLocalClock(clock func() time.Time) LocalGatewayOption {
	return func(g *LocalGateway) { g.clock = clock }
}

// NewLocalGateway builds the in-process provider.
func NewLocalGateway(opts ...LocalGatewayOption) *LocalGateway {
	g := &LocalGateway{
		orders: make(map[string]GatewayOrder),
		newID:  func() string { return ulid.Make().String() },
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *LocalGateway) CreateOrder(ctx context.Context, req CreateOrderRequest) (GatewayOrder, error) {
	if err := ctx.Err(); err != nil {
		return GatewayOrder{}, classifyGatewayError(err)
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "INR"
	}
	order := GatewayOrder{
		ID:       "order_" + g.newID(),
		Amount:   req.Amount,
		Currency: currency,
		Raw: map[string]any{
			"receipt":    req.OrderNumber,
			"created_at": g.clock().UTC().Unix(),
		},
	}
	g.mu.Lock()
	g.orders[order.ID] = order
	g.mu.Unlock()
	return order, nil
}

func (g *LocalGateway) Refund(ctx context.Context, req RefundRequest) (RefundResult, error) {
	if err := ctx.Err(); err != nil {
		return RefundResult{}, classifyGatewayError(err)
	}
	if strings.TrimSpace(req.TransactionID) == "" {
		return RefundResult{}, errors.New("payments: refund requires a transaction id")
	}
	return RefundResult{
		TransactionID: "rfnd_" + g.newID(),
		Amount:        req.Amount,
		Raw: map[string]any{
			"payment_id": req.TransactionID,
			"created_at": g.clock().UTC().Unix(),
		},
	}, nil
}
