package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/laptopstore/api/internal/domain"
	"github.com/laptopstore/api/internal/repositories"
)

// ErrOrderNotFound indicates the order could not be located.
var ErrOrderNotFound = errors.New("order: not found")

// OrderServiceDeps bundles collaborators for the order lifecycle service.
type OrderServiceDeps struct {
	Orders     repositories.OrderRepository
	Products   repositories.ProductRepository
	Coupons    repositories.CouponRepository
	UnitOfWork repositories.UnitOfWork

	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	orders     repositories.OrderRepository
	products   repositories.ProductRepository
	coupons    repositories.CouponRepository
	unitOfWork repositories.UnitOfWork

	clock  func() time.Time
	newID  func() string
	logger func(context.Context, string, map[string]any)
}

// NewOrderService wires the order lifecycle service.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
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
	return &orderService{
		orders:     deps.Orders,
		products:   deps.Products,
		coupons:    deps.Coupons,
		unitOfWork: unit,
		clock:      func() time.Time { return clock().UTC() },
		newID:      idGen,
		logger:     logger,
	}, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	return s.findOrder(ctx, orderID)
}

func (s *orderService) ListOrders(ctx context.Context, userID string, status *domain.OrderStatus) ([]domain.Order, error) {
	return s.orders.List(ctx, repositories.OrderListFilter{
		UserID: strings.TrimSpace(userID),
		Status: status,
	})
}

func (s *orderService) StatusHistory(ctx context.Context, orderID string) ([]domain.OrderStatusUpdate, error) {
	if _, err := s.findOrder(ctx, orderID); err != nil {
		return nil, err
	}
	return s.orders.ListStatusUpdates(ctx, orderID)
}

func (s *orderService) TransitionStatus(ctx context.Context, cmd TransitionOrderCommand) (domain.Order, error) {
	if !domain.ValidOrderStatus(cmd.TargetStatus) {
		return domain.Order{}, fmt.Errorf("%w: unknown status %q", domain.ErrIllegalTransition, cmd.TargetStatus)
	}
	if cmd.TargetStatus == domain.OrderStatusCancelled {
		// Cancellation releases coupon usage and reserved stock; route it
		// through the dedicated path so the release never gets skipped.
		return s.Cancel(ctx, CancelOrderCommand{
			OrderID: cmd.OrderID,
			ActorID: cmd.ActorID,
			Reason:  cmd.Note,
		})
	}

	order, err := s.findOrder(ctx, cmd.OrderID)
	if err != nil {
		return domain.Order{}, err
	}
	if err := domain.CheckOrderTransition(order.Status, cmd.TargetStatus); err != nil {
		return domain.Order{}, err
	}

	now := s.clock()
	previous := order.Status
	order.Status = cmd.TargetStatus
	order.UpdatedAt = now
	stampOrderStatus(&order, cmd.TargetStatus, now)

	err = s.unitOfWork.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.orders.Update(txCtx, order); err != nil {
			return mapOrderRepoError(err)
		}
		return s.orders.AppendStatusUpdate(txCtx, domain.OrderStatusUpdate{
			ID:        statusUpdateIDPrefix + s.newID(),
			OrderID:   order.ID,
			Status:    cmd.TargetStatus,
			Notes:     strings.TrimSpace(cmd.Note),
			CreatedAt: now,
			CreatedBy: cmd.ActorID,
		})
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.logger(ctx, "order.status.changed", map[string]any{
		"orderNumber": order.OrderNumber,
		"from":        string(previous),
		"to":          string(order.Status),
	})
	return order, nil
}

func (s *orderService) Cancel(ctx context.Context, cmd CancelOrderCommand) (domain.Order, error) {
	order, err := s.findOrder(ctx, cmd.OrderID)
	if err != nil {
		return domain.Order{}, err
	}
	if err := domain.CheckOrderTransition(order.Status, domain.OrderStatusCancelled); err != nil {
		return domain.Order{}, err
	}

	now := s.clock()
	previous := order.Status
	releaseHolds := order.PaymentStatus == domain.PaymentStatusPending

	order.Status = domain.OrderStatusCancelled
	order.UpdatedAt = now
	order.CancelledAt = &now

	err = s.unitOfWork.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.orders.Update(txCtx, order); err != nil {
			return mapOrderRepoError(err)
		}

		if releaseHolds {
			if order.CouponID != nil && s.coupons != nil {
				if err := s.coupons.DecrementUsage(txCtx, *order.CouponID); err != nil {
					return err
				}
			}
			if s.products != nil {
				for productID, qty := range itemQuantities(order.Items) {
					if err := s.products.IncrementStock(txCtx, productID, qty); err != nil {
						return err
					}
				}
			}
		}

		return s.orders.AppendStatusUpdate(txCtx, domain.OrderStatusUpdate{
			ID:        statusUpdateIDPrefix + s.newID(),
			OrderID:   order.ID,
			Status:    domain.OrderStatusCancelled,
			Notes:     strings.TrimSpace(cmd.Reason),
			CreatedAt: now,
			CreatedBy: cmd.ActorID,
		})
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.logger(ctx, "order.cancelled", map[string]any{
		"orderNumber": order.OrderNumber,
		"from":        string(previous),
		"released":    releaseHolds,
	})
	return order, nil
}

func (s *orderService) findOrder(ctx context.Context, orderID string) (domain.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, fmt.Errorf("%w: empty id", ErrOrderNotFound)
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, mapOrderRepoError(err)
	}
	return order, nil
}

// stampOrderStatus writes the lifecycle timestamp for the target status.
// paid_at is owned by the payment-status machine, not the order machine.
func stampOrderStatus(order *domain.Order, status domain.OrderStatus, now time.Time) {
	switch status {
	case domain.OrderStatusShipped:
		order.ShippedAt = &now
	case domain.OrderStatusDelivered:
		order.DeliveredAt = &now
	case domain.OrderStatusCancelled:
		if order.CancelledAt == nil {
			order.CancelledAt = &now
		}
	}
}

func itemQuantities(items []domain.OrderItem) map[string]int {
	quantities := make(map[string]int, len(items))
	for _, item := range items {
		if item.ProductID == nil {
			continue
		}
		quantities[*item.ProductID] += item.Quantity
	}
	return quantities
}
