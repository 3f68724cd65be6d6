package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/laptopstore/api/internal/domain"
	"github.com/laptopstore/api/internal/payments"
	"github.com/laptopstore/api/internal/repositories"
)

const paymentIDPrefix = "pay_"

const defaultGatewayTimeout = 10 * time.Second

var (
	// ErrPaymentNotFound indicates the payment could not be located.
	ErrPaymentNotFound = errors.New("payment: not found")
	// ErrUnknownPaymentMethod indicates a method outside the accepted set.
	ErrUnknownPaymentMethod = errors.New("payment: unknown method")
	// ErrPaymentAmountInvalid indicates a non-positive amount or one that
	// exceeds the order's outstanding balance.
	ErrPaymentAmountInvalid = errors.New("payment: invalid amount")
)

// PaymentServiceDeps bundles collaborators for the payment service.
type PaymentServiceDeps struct {
	Payments   repositories.PaymentRepository
	Orders     repositories.OrderRepository
	Gateway    payments.Gateway
	UnitOfWork repositories.UnitOfWork

	GatewayTimeout time.Duration
	Clock          func() time.Time
	IDGenerator    func() string
	Logger         func(ctx context.Context, event string, fields map[string]any)
}

type paymentService struct {
	payments   repositories.PaymentRepository
	orders     repositories.OrderRepository
	gateway    payments.Gateway
	unitOfWork repositories.UnitOfWork

	gatewayTimeout time.Duration
	clock          func() time.Time
	newID          func() string
	logger         func(context.Context, string, map[string]any)
}

// NewPaymentService wires the payment capture service.
func NewPaymentService(deps PaymentServiceDeps) (PaymentService, error) {
	if deps.Payments == nil {
		return nil, errors.New("payment service: payment repository is required")
	}
	if deps.Orders == nil {
		return nil, errors.New("payment service: order repository is required")
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
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	timeout := deps.GatewayTimeout
	if timeout <= 0 {
		timeout = defaultGatewayTimeout
	}
	return &paymentService{
		payments:       deps.Payments,
		orders:         deps.Orders,
		gateway:        deps.Gateway,
		unitOfWork:     unit,
		gatewayTimeout: timeout,
		clock:          func() time.Time { return clock().UTC() },
		newID:          idGen,
		logger:         logger,
	}, nil
}

func (s *paymentService) RecordPayment(ctx context.Context, cmd RecordPaymentCommand) (domain.Payment, error) {
	if !domain.KnownPaymentMethod(cmd.Method) {
		return domain.Payment{}, fmt.Errorf("%w: %q", ErrUnknownPaymentMethod, cmd.Method)
	}
	if !cmd.Amount.IsPositive() {
		return domain.Payment{}, fmt.Errorf("%w: %s", ErrPaymentAmountInvalid, cmd.Amount)
	}

	order, err := s.orders.FindByID(ctx, strings.TrimSpace(cmd.OrderID))
	if err != nil {
		return domain.Payment{}, mapOrderRepoError(err)
	}

	captured, err := s.payments.SumCompletedByOrder(ctx, order.ID)
	if err != nil {
		return domain.Payment{}, err
	}
	outstanding, err := order.Total.Sub(captured)
	if err != nil {
		return domain.Payment{}, err
	}
	if cmd.Amount.Cmp(outstanding) > 0 {
		return domain.Payment{}, fmt.Errorf("%w: %s exceeds outstanding %s", ErrPaymentAmountInvalid, cmd.Amount, outstanding)
	}

	now := s.clock()
	payment := domain.Payment{
		ID:              paymentIDPrefix + s.newID(),
		OrderID:         order.ID,
		Method:          cmd.Method,
		Amount:          cmd.Amount,
		Status:          domain.PaymentPending,
		GatewayOrderID:  strings.TrimSpace(cmd.GatewayOrderID),
		GatewayResponse: cmd.GatewayResponse,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if payment.GatewayOrderID == "" && s.gateway != nil && payments.RequiresGateway(cmd.Method) {
		gatewayOrder, gwErr := s.createGatewayOrder(ctx, order, cmd.Method)
		if gwErr != nil {
			if errors.Is(gwErr, payments.ErrGatewayTimeout) || errors.Is(gwErr, payments.ErrGatewayUnavailable) {
				payment.Status = domain.PaymentFailed
				payment.GatewayResponse = mergeGatewayResponse(payment.GatewayResponse, map[string]any{
					"error": gwErr.Error(),
				})
				if insertErr := s.payments.Insert(ctx, payment); insertErr != nil {
					return domain.Payment{}, insertErr
				}
				s.logger(ctx, "payment.gateway.failed", map[string]any{
					"orderNumber": order.OrderNumber,
					"paymentId":   payment.ID,
					"error":       gwErr.Error(),
				})
				return payment, gwErr
			}
			return domain.Payment{}, gwErr
		}
		payment.GatewayOrderID = gatewayOrder.ID
		payment.GatewayResponse = mergeGatewayResponse(payment.GatewayResponse, gatewayOrder.Raw)
	}

	if err := s.payments.Insert(ctx, payment); err != nil {
		return domain.Payment{}, err
	}
	s.logger(ctx, "payment.recorded", map[string]any{
		"orderNumber": order.OrderNumber,
		"paymentId":   payment.ID,
		"method":      string(payment.Method),
		"amount":      payment.Amount.String(),
	})
	return payment, nil
}

func (s *paymentService) MarkPaymentOutcome(ctx context.Context, cmd MarkPaymentOutcomeCommand) (domain.Payment, error) {
	payment, err := s.findPayment(ctx, cmd.PaymentID)
	if err != nil {
		return domain.Payment{}, err
	}
	if payment.Status != domain.PaymentPending {
		return domain.Payment{}, fmt.Errorf("%w: payment %s is %s", domain.ErrIllegalTransition, payment.ID, payment.Status)
	}

	now := s.clock()
	payment.TransactionID = strings.TrimSpace(cmd.TransactionID)
	payment.GatewayResponse = mergeGatewayResponse(payment.GatewayResponse, cmd.GatewayResponse)
	payment.UpdatedAt = now

	switch cmd.Outcome {
	case PaymentOutcomeFailed:
		payment.Status = domain.PaymentFailed
		if err := s.payments.Update(ctx, payment); err != nil {
			return domain.Payment{}, err
		}
	case PaymentOutcomeCompleted:
		payment.Status = domain.PaymentCompleted
		err = s.unitOfWork.RunInTx(ctx, func(txCtx context.Context) error {
			if err := s.payments.Update(txCtx, payment); err != nil {
				return err
			}
			order, err := s.orders.FindByID(txCtx, payment.OrderID)
			if err != nil {
				return mapOrderRepoError(err)
			}
			if order.PaymentStatus != domain.PaymentStatusPending {
				return nil
			}
			if err := domain.CheckPaymentTransition(order.PaymentStatus, domain.PaymentStatusPaid); err != nil {
				return err
			}
			order.PaymentStatus = domain.PaymentStatusPaid
			order.PaidAt = &now
			order.UpdatedAt = now
			if err := s.orders.Update(txCtx, order); err != nil {
				return mapOrderRepoError(err)
			}
			return nil
		})
		if err != nil {
			return domain.Payment{}, err
		}
	default:
		return domain.Payment{}, fmt.Errorf("payment: unknown outcome %q", cmd.Outcome)
	}

	s.logger(ctx, "payment.settled", map[string]any{
		"paymentId": payment.ID,
		"outcome":   string(cmd.Outcome),
	})
	return payment, nil
}

// createGatewayOrder registers the order with the provider under the
// service's call deadline.
func (s *paymentService) createGatewayOrder(ctx context.Context, order domain.Order, method domain.PaymentMethod) (payments.GatewayOrder, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()
	return s.gateway.CreateOrder(callCtx, payments.CreateOrderRequest{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Amount:      order.Total,
		Currency:    "INR",
		Method:      method,
		Notes:       map[string]string{"order_number": order.OrderNumber},
	})
}

func (s *paymentService) findPayment(ctx context.Context, paymentID string) (domain.Payment, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return domain.Payment{}, fmt.Errorf("%w: empty id", ErrPaymentNotFound)
	}
	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		if isRepoNotFound(err) {
			return domain.Payment{}, fmt.Errorf("%w: %s", ErrPaymentNotFound, paymentID)
		}
		return domain.Payment{}, err
	}
	return payment, nil
}

func mergeGatewayResponse(base map[string]any, extra map[string]any) map[string]any {
	if len(extra) == 0 {
		return base
	}
	merged := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}
