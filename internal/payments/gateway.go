package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/laptopstore/api/internal/domain"
)

var (
	// ErrUnsupportedProvider is returned when the manager cannot resolve a
	// provider for the payment method.
	ErrUnsupportedProvider = errors.New("payments: unsupported provider")
	// ErrGatewayTimeout indicates the provider did not answer within the
	// call deadline.
	ErrGatewayTimeout = errors.New("payments: gateway timeout")
	// ErrGatewayUnavailable indicates the provider is unreachable or the
	// circuit breaker is open.
	ErrGatewayUnavailable = errors.New("payments: gateway unavailable")
)

// CreateOrderRequest captures the payload for registering an order with the
// payment provider before the customer is charged.
type CreateOrderRequest struct {
	OrderID     string
	OrderNumber string
	Amount      domain.Money
	Currency    string
	Method      domain.PaymentMethod
	Notes       map[string]string
}

// GatewayOrder is the provider-side order handle returned to the client.
type GatewayOrder struct {
	ID       string
	Provider string
	Amount   domain.Money
	Currency string
	Raw      map[string]any
}

// RefundRequest defines a provider refund attempt against a captured payment.
type RefundRequest struct {
	TransactionID string
	Amount        domain.Money
	Reason        string
	Notes         map[string]string
}

// RefundResult normalises the provider's refund acknowledgement.
type RefundResult struct {
	TransactionID string
	Provider      string
	Amount        domain.Money
	Raw           map[string]any
}

// Gateway defines the contract for payment provider adapters.
type Gateway interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (GatewayOrder, error)
	Refund(ctx context.Context, req RefundRequest) (RefundResult, error)
}

// RequiresGateway reports whether the payment method needs a provider-side
// order before capture. Cash on delivery settles outside the gateway.
func RequiresGateway(method domain.PaymentMethod) bool {
	return method != domain.PaymentMethodCOD
}

// Manager routes gateway calls to the provider registered for the payment
// method, falling back to the default provider.
type Manager struct {
	providers       map[string]Gateway
	defaultProvider string
	methodRoutes    map[domain.PaymentMethod]string
}

// ManagerOption configures optional behaviour when building a Manager.
type ManagerOption func(*Manager)

// WithDefaultProvider overrides the provider used for methods without an
// explicit route.
func WithDefaultProvider(provider string) ManagerOption {
	return func(m *Manager) {
		m.defaultProvider = strings.TrimSpace(strings.ToLower(provider))
	}
}

// WithMethodRoutes configures static payment-method to provider mappings.
func WithMethodRoutes(routes map[domain.PaymentMethod]string) ManagerOption {
	return func(m *Manager) {
		if len(routes) == 0 {
			return
		}
		if m.methodRoutes == nil {
			m.methodRoutes = make(map[domain.PaymentMethod]string, len(routes))
		}
		for method, provider := range routes {
			m.methodRoutes[method] = strings.TrimSpace(strings.ToLower(provider))
		}
	}
}

// NewManager constructs a Manager over the supplied providers.
func NewManager(providers map[string]Gateway, opts ...ManagerOption) (*Manager, error) {
	if len(providers) == 0 {
		return nil, errors.New("payments: at least one provider is required")
	}
	registry := make(map[string]Gateway, len(providers))
	for name, gw := range providers {
		key := strings.TrimSpace(strings.ToLower(name))
		if key == "" || gw == nil {
			return nil, fmt.Errorf("payments: invalid provider registration for key %q", name)
		}
		registry[key] = gw
	}
	m := &Manager{providers: registry}
	if _, ok := registry["local"]; ok {
		m.defaultProvider = "local"
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *Manager) resolve(method domain.PaymentMethod) (string, Gateway, error) {
	if m == nil || len(m.providers) == 0 {
		return "", nil, errors.New("payments: no providers registered")
	}
	if m.methodRoutes != nil {
		if key, ok := m.methodRoutes[method]; ok {
			if gw, ok := m.providers[key]; ok {
				return key, gw, nil
			}
		}
	}
	if m.defaultProvider != "" {
		if gw, ok := m.providers[m.defaultProvider]; ok {
			return m.defaultProvider, gw, nil
		}
	}
	if len(m.providers) == 1 {
		for key, gw := range m.providers {
			return key, gw, nil
		}
	}
	return "", nil, fmt.Errorf("%w: method %s", ErrUnsupportedProvider, method)
}

// CreateOrder delegates to the provider resolved for the request's method.
func (m *Manager) CreateOrder(ctx context.Context, req CreateOrderRequest) (GatewayOrder, error) {
	key, gw, err := m.resolve(req.Method)
	if err != nil {
		return GatewayOrder{}, err
	}
	order, err := gw.CreateOrder(ctx, req)
	if err != nil {
		return GatewayOrder{}, err
	}
	order.Provider = key
	return order, nil
}

// Refund delegates to the default provider route. Refunds carry the original
// transaction id, so any registered provider that recognises it may serve.
func (m *Manager) Refund(ctx context.Context, req RefundRequest) (RefundResult, error) {
	key, gw, err := m.resolve("")
	if err != nil {
		return RefundResult{}, err
	}
	result, err := gw.Refund(ctx, req)
	if err != nil {
		return RefundResult{}, err
	}
	result.Provider = key
	return result, nil
}
