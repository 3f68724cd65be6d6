package payments

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerSettings tunes the circuit breaker around a gateway.
type BreakerSettings struct {
	Name        string
	MaxFailures uint32
	Interval    time.Duration
	Timeout     time.Duration
}

// BreakerGateway wraps a Gateway with a circuit breaker so a flapping
// provider fails fast instead of holding checkout requests open.
type BreakerGateway struct {
	inner   Gateway
	creates *gobreaker.CircuitBreaker
	refunds *gobreaker.CircuitBreaker
}

// NewBreakerGateway wraps the gateway with independent breakers for order
// creation and refunds.
func NewBreakerGateway(inner Gateway, settings BreakerSettings) (*BreakerGateway, error) {
	if inner == nil {
		return nil, errors.New("payments: breaker requires an inner gateway")
	}
	name := settings.Name
	if name == "" {
		name = "payment-gateway"
	}
	maxFailures := settings.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	tripAfter := func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= maxFailures
	}
	return &BreakerGateway{
		inner: inner,
		creates: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name + ".create",
			Interval:    settings.Interval,
			Timeout:     settings.Timeout,
			ReadyToTrip: tripAfter,
		}),
		refunds: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name + ".refund",
			Interval:    settings.Interval,
			Timeout:     settings.Timeout,
			ReadyToTrip: tripAfter,
		}),
	}, nil
}

func (b *BreakerGateway) CreateOrder(ctx context.Context, req CreateOrderRequest) (GatewayOrder, error) {
	out, err := b.creates.Execute(func() (interface{}, error) {
		return b.inner.CreateOrder(ctx, req)
	})
	if err != nil {
		return GatewayOrder{}, classifyGatewayError(err)
	}
	return out.(GatewayOrder), nil
}

func (b *BreakerGateway) Refund(ctx context.Context, req RefundRequest) (RefundResult, error) {
	out, err := b.refunds.Execute(func() (interface{}, error) {
		return b.inner.Refund(ctx, req)
	})
	if err != nil {
		return RefundResult{}, classifyGatewayError(err)
	}
	return out.(RefundResult), nil
}

// classifyGatewayError folds breaker and transport failures into the two
// sentinel errors callers branch on.
func classifyGatewayError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrGatewayTimeout), errors.Is(err, ErrGatewayUnavailable):
		return err
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrGatewayTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrGatewayTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	return err
}
