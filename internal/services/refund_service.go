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

const (
	orderRefundIDPrefix   = "orf_"
	paymentRefundIDPrefix = "prf_"
)

var (
	// ErrRefundNotFound indicates the refund record could not be located.
	ErrRefundNotFound = errors.New("refund: not found")
	// ErrRefundNotAllowed indicates the order's payment status does not
	// admit refunds.
	ErrRefundNotAllowed = errors.New("refund: order not refundable")
	// ErrRefundAmountInvalid indicates a non-positive amount or one that
	// exceeds the order's refundable balance.
	ErrRefundAmountInvalid = errors.New("refund: invalid amount")
)

// RefundServiceDeps bundles collaborators for the refund engine.
type RefundServiceDeps struct {
	Refunds    repositories.RefundRepository
	Payments   repositories.PaymentRepository
	Orders     repositories.OrderRepository
	Gateway    payments.Gateway
	UnitOfWork repositories.UnitOfWork

	GatewayTimeout time.Duration
	Clock          func() time.Time
	IDGenerator    func() string
	Logger         func(ctx context.Context, event string, fields map[string]any)
}

type refundService struct {
	refunds    repositories.RefundRepository
	payments   repositories.PaymentRepository
	orders     repositories.OrderRepository
	gateway    payments.Gateway
	unitOfWork repositories.UnitOfWork

	gatewayTimeout time.Duration
	clock          func() time.Time
	newID          func() string
	logger         func(context.Context, string, map[string]any)
}

// NewRefundService wires the refund engine.
func NewRefundService(deps RefundServiceDeps) (RefundService, error) {
	if deps.Refunds == nil {
		return nil, errors.New("refund service: refund repository is required")
	}
	if deps.Payments == nil {
		return nil, errors.New("refund service: payment repository is required")
	}
	if deps.Orders == nil {
		return nil, errors.New("refund service: order repository is required")
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
	return &refundService{
		refunds:        deps.Refunds,
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

func (s *refundService) RequestOrderRefund(ctx context.Context, cmd RequestOrderRefundCommand) (domain.OrderRefund, error) {
	order, err := s.orders.FindByID(ctx, strings.TrimSpace(cmd.OrderID))
	if err != nil {
		return domain.OrderRefund{}, mapOrderRepoError(err)
	}
	if order.PaymentStatus != domain.PaymentStatusPaid && order.PaymentStatus != domain.PaymentStatusPartiallyRefunded {
		return domain.OrderRefund{}, fmt.Errorf("%w: payment status %s", ErrRefundNotAllowed, order.PaymentStatus)
	}
	if !cmd.Amount.IsPositive() {
		return domain.OrderRefund{}, fmt.Errorf("%w: %s", ErrRefundAmountInvalid, cmd.Amount)
	}

	refunded, err := s.refunds.SumCompletedOrderRefunds(ctx, order.ID)
	if err != nil {
		return domain.OrderRefund{}, err
	}
	refundable, err := order.Total.Sub(refunded)
	if err != nil {
		return domain.OrderRefund{}, err
	}
	if cmd.Amount.Cmp(refundable) > 0 {
		return domain.OrderRefund{}, fmt.Errorf("%w: %s exceeds refundable %s", ErrRefundAmountInvalid, cmd.Amount, refundable)
	}

	now := s.clock()
	refund := domain.OrderRefund{
		ID:        orderRefundIDPrefix + s.newID(),
		OrderID:   order.ID,
		Amount:    cmd.Amount,
		Reason:    strings.TrimSpace(cmd.Reason),
		Status:    domain.OrderRefundPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.refunds.InsertOrderRefund(ctx, refund); err != nil {
		return domain.OrderRefund{}, err
	}

	s.logger(ctx, "refund.requested", map[string]any{
		"orderNumber": order.OrderNumber,
		"refundId":    refund.ID,
		"amount":      refund.Amount.String(),
	})
	return refund, nil
}

func (s *refundService) SettleOrderRefund(ctx context.Context, cmd SettleOrderRefundCommand) (domain.OrderRefund, error) {
	refund, err := s.findRefund(ctx, cmd.RefundID)
	if err != nil {
		return domain.OrderRefund{}, err
	}
	if refund.Status != domain.OrderRefundPending {
		return domain.OrderRefund{}, fmt.Errorf("%w: refund %s is %s", domain.ErrIllegalTransition, refund.ID, refund.Status)
	}

	now := s.clock()
	refund.UpdatedAt = now
	refund.ProcessedAt = &now
	refund.ProcessedBy = cmd.ActorID

	switch cmd.Outcome {
	case RefundOutcomeRejected:
		refund.Status = domain.OrderRefundRejected
		if err := s.refunds.UpdateOrderRefund(ctx, refund); err != nil {
			return domain.OrderRefund{}, err
		}
	case RefundOutcomeApproved:
		refund.Status = domain.OrderRefundCompleted
		err = s.unitOfWork.RunInTx(ctx, func(txCtx context.Context) error {
			return s.executeRefund(txCtx, &refund, now)
		})
		if err != nil {
			return domain.OrderRefund{}, err
		}
	default:
		return domain.OrderRefund{}, fmt.Errorf("refund: unknown outcome %q", cmd.Outcome)
	}

	s.logger(ctx, "refund.settled", map[string]any{
		"refundId": refund.ID,
		"outcome":  string(cmd.Outcome),
	})
	return refund, nil
}

// executeRefund debits completed payments oldest first until the approved
// amount is covered, then rolls the aggregates up onto the order.
func (s *refundService) executeRefund(ctx context.Context, refund *domain.OrderRefund, now time.Time) error {
	order, err := s.orders.FindByID(ctx, refund.OrderID)
	if err != nil {
		return mapOrderRepoError(err)
	}

	orderPayments, err := s.payments.ListByOrder(ctx, order.ID)
	if err != nil {
		return err
	}

	remaining := refund.Amount
	for _, payment := range orderPayments {
		if remaining.IsZero() {
			break
		}
		if payment.Status != domain.PaymentCompleted {
			continue
		}

		debited, err := s.refunds.SumCompletedPaymentRefunds(ctx, payment.ID)
		if err != nil {
			return err
		}
		available, err := payment.Amount.Sub(debited)
		if err != nil {
			return err
		}
		if !available.IsPositive() {
			continue
		}

		debit := remaining.Min(available)
		result, err := s.refundThroughGateway(ctx, payment, debit, refund.Reason)
		if err != nil {
			return err
		}

		if err := s.refunds.InsertPaymentRefund(ctx, domain.PaymentRefund{
			ID:              paymentRefundIDPrefix + s.newID(),
			PaymentID:       payment.ID,
			Amount:          debit,
			Reason:          refund.Reason,
			Status:          domain.PaymentRefundCompleted,
			TransactionID:   result.TransactionID,
			GatewayResponse: result.Raw,
			CreatedAt:       now,
			UpdatedAt:       now,
		}); err != nil {
			return err
		}

		if debit.Equal(available) {
			payment.Status = domain.PaymentRefunded
			payment.UpdatedAt = now
			if err := s.payments.Update(ctx, payment); err != nil {
				return err
			}
		}

		remaining, err = remaining.Sub(debit)
		if err != nil {
			return err
		}
	}
	if !remaining.IsZero() {
		return fmt.Errorf("%w: refund %s short by %s", ErrInvariantViolation, refund.ID, remaining)
	}

	if err := s.refunds.UpdateOrderRefund(ctx, *refund); err != nil {
		return err
	}

	return s.rollUpOrder(ctx, order, now)
}

// rollUpOrder recomputes the order-level payment status from the captured
// payment and completed refund aggregates. Captured covers payments later
// marked refunded; their original capture still counts.
func (s *refundService) rollUpOrder(ctx context.Context, order domain.Order, now time.Time) error {
	orderPayments, err := s.payments.ListByOrder(ctx, order.ID)
	if err != nil {
		return err
	}
	paid := domain.Zero()
	for _, payment := range orderPayments {
		if payment.Status != domain.PaymentCompleted && payment.Status != domain.PaymentRefunded {
			continue
		}
		paid, err = paid.Add(payment.Amount)
		if err != nil {
			return err
		}
	}
	refunded, err := s.refunds.SumCompletedOrderRefunds(ctx, order.ID)
	if err != nil {
		return err
	}

	target := domain.PaymentStatusPartiallyRefunded
	if refunded.Cmp(paid) >= 0 {
		target = domain.PaymentStatusRefunded
	}
	if order.PaymentStatus != target {
		if err := domain.CheckPaymentTransition(order.PaymentStatus, target); err != nil {
			return err
		}
		order.PaymentStatus = target
	}
	order.UpdatedAt = now

	fullyRefunded := target == domain.PaymentStatusRefunded
	if fullyRefunded && domain.CanTransitionOrder(order.Status, domain.OrderStatusRefunded) {
		order.Status = domain.OrderStatusRefunded
		if err := s.orders.AppendStatusUpdate(ctx, domain.OrderStatusUpdate{
			ID:        statusUpdateIDPrefix + s.newID(),
			OrderID:   order.ID,
			Status:    domain.OrderStatusRefunded,
			Notes:     "refund completed",
			CreatedAt: now,
		}); err != nil {
			return err
		}
	}

	if err := s.orders.Update(ctx, order); err != nil {
		return mapOrderRepoError(err)
	}
	return nil
}

func (s *refundService) refundThroughGateway(ctx context.Context, payment domain.Payment, amount domain.Money, reason string) (payments.RefundResult, error) {
	if s.gateway == nil || !payments.RequiresGateway(payment.Method) {
		return payments.RefundResult{}, nil
	}
	callCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()
	return s.gateway.Refund(callCtx, payments.RefundRequest{
		TransactionID: payment.TransactionID,
		Amount:        amount,
		Reason:        reason,
	})
}

func (s *refundService) findRefund(ctx context.Context, refundID string) (domain.OrderRefund, error) {
	refundID = strings.TrimSpace(refundID)
	if refundID == "" {
		return domain.OrderRefund{}, fmt.Errorf("%w: empty id", ErrRefundNotFound)
	}
	refund, err := s.refunds.FindOrderRefund(ctx, refundID)
	if err != nil {
		if isRepoNotFound(err) {
			return domain.OrderRefund{}, fmt.Errorf("%w: %s", ErrRefundNotFound, refundID)
		}
		return domain.OrderRefund{}, err
	}
	return refund, nil
}
