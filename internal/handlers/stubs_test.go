package handlers

import (
	"context"

	"github.com/laptopstore/api/internal/domain"
	"github.com/laptopstore/api/internal/services"
)

type stubCatalogService struct {
	getProductFn func(ctx context.Context, productID string) (domain.Product, error)
	getColorFn   func(ctx context.Context, colorID string) (domain.ProductColor, error)
	resolveFn    func(ctx context.Context, productID string, colorID *string) (domain.Money, error)
}

func (s *stubCatalogService) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	if s.getProductFn == nil {
		return domain.Product{ID: productID}, nil
	}
	return s.getProductFn(ctx, productID)
}

func (s *stubCatalogService) GetColor(ctx context.Context, colorID string) (domain.ProductColor, error) {
	if s.getColorFn == nil {
		return domain.ProductColor{ID: colorID}, nil
	}
	return s.getColorFn(ctx, colorID)
}

func (s *stubCatalogService) ResolveUnitPrice(ctx context.Context, productID string, colorID *string) (domain.Money, error) {
	if s.resolveFn == nil {
		return domain.Zero(), nil
	}
	return s.resolveFn(ctx, productID, colorID)
}

type stubCartService struct {
	getOrCreateFn func(ctx context.Context, owner domain.CartOwner) (domain.Cart, error)
	addLineFn     func(ctx context.Context, cmd services.AddCartLineCommand) (domain.Cart, error)
	updateLineFn  func(ctx context.Context, cmd services.UpdateCartLineCommand) (domain.Cart, error)
	removeLineFn  func(ctx context.Context, cartID, lineID string) (domain.Cart, error)
	clearFn       func(ctx context.Context, cartID string) error
	aggregateFn   func(ctx context.Context, cartID string) (domain.CartAggregate, error)
	mergeFn       func(ctx context.Context, sessionToken, userID string) (domain.Cart, error)
}

func (s *stubCartService) GetOrCreate(ctx context.Context, owner domain.CartOwner) (domain.Cart, error) {
	if s.getOrCreateFn == nil {
		return domain.Cart{ID: "cart_1", Owner: owner}, nil
	}
	return s.getOrCreateFn(ctx, owner)
}

func (s *stubCartService) AddLine(ctx context.Context, cmd services.AddCartLineCommand) (domain.Cart, error) {
	if s.addLineFn == nil {
		return domain.Cart{}, nil
	}
	return s.addLineFn(ctx, cmd)
}

func (s *stubCartService) UpdateLineQuantity(ctx context.Context, cmd services.UpdateCartLineCommand) (domain.Cart, error) {
	if s.updateLineFn == nil {
		return domain.Cart{}, nil
	}
	return s.updateLineFn(ctx, cmd)
}

func (s *stubCartService) RemoveLine(ctx context.Context, cartID, lineID string) (domain.Cart, error) {
	if s.removeLineFn == nil {
		return domain.Cart{}, nil
	}
	return s.removeLineFn(ctx, cartID, lineID)
}

func (s *stubCartService) Clear(ctx context.Context, cartID string) error {
	if s.clearFn == nil {
		return nil
	}
	return s.clearFn(ctx, cartID)
}

func (s *stubCartService) Aggregate(ctx context.Context, cartID string) (domain.CartAggregate, error) {
	if s.aggregateFn == nil {
		return domain.CartAggregate{CartID: cartID}, nil
	}
	return s.aggregateFn(ctx, cartID)
}

func (s *stubCartService) MergeSessionCart(ctx context.Context, sessionToken, userID string) (domain.Cart, error) {
	if s.mergeFn == nil {
		return domain.Cart{}, nil
	}
	return s.mergeFn(ctx, sessionToken, userID)
}

type stubCheckoutService struct {
	quoteFn func(ctx context.Context, cmd services.QuoteCartCommand) (domain.Quote, error)
	placeFn func(ctx context.Context, cmd services.PlaceOrderCommand) (domain.Order, error)
}

func (s *stubCheckoutService) QuoteCart(ctx context.Context, cmd services.QuoteCartCommand) (domain.Quote, error) {
	if s.quoteFn == nil {
		return domain.Quote{}, nil
	}
	return s.quoteFn(ctx, cmd)
}

func (s *stubCheckoutService) PlaceOrder(ctx context.Context, cmd services.PlaceOrderCommand) (domain.Order, error) {
	if s.placeFn == nil {
		return domain.Order{}, nil
	}
	return s.placeFn(ctx, cmd)
}

type stubOrderService struct {
	getFn        func(ctx context.Context, orderID string) (domain.Order, error)
	listFn       func(ctx context.Context, userID string, status *domain.OrderStatus) ([]domain.Order, error)
	historyFn    func(ctx context.Context, orderID string) ([]domain.OrderStatusUpdate, error)
	transitionFn func(ctx context.Context, cmd services.TransitionOrderCommand) (domain.Order, error)
	cancelFn     func(ctx context.Context, cmd services.CancelOrderCommand) (domain.Order, error)
}

func (s *stubOrderService) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	if s.getFn == nil {
		return domain.Order{ID: orderID}, nil
	}
	return s.getFn(ctx, orderID)
}

func (s *stubOrderService) ListOrders(ctx context.Context, userID string, status *domain.OrderStatus) ([]domain.Order, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, userID, status)
}

func (s *stubOrderService) StatusHistory(ctx context.Context, orderID string) ([]domain.OrderStatusUpdate, error) {
	if s.historyFn == nil {
		return nil, nil
	}
	return s.historyFn(ctx, orderID)
}

func (s *stubOrderService) TransitionStatus(ctx context.Context, cmd services.TransitionOrderCommand) (domain.Order, error) {
	if s.transitionFn == nil {
		return domain.Order{}, nil
	}
	return s.transitionFn(ctx, cmd)
}

func (s *stubOrderService) Cancel(ctx context.Context, cmd services.CancelOrderCommand) (domain.Order, error) {
	if s.cancelFn == nil {
		return domain.Order{}, nil
	}
	return s.cancelFn(ctx, cmd)
}

type stubPaymentService struct {
	recordFn func(ctx context.Context, cmd services.RecordPaymentCommand) (domain.Payment, error)
	markFn   func(ctx context.Context, cmd services.MarkPaymentOutcomeCommand) (domain.Payment, error)
}

func (s *stubPaymentService) RecordPayment(ctx context.Context, cmd services.RecordPaymentCommand) (domain.Payment, error) {
	if s.recordFn == nil {
		return domain.Payment{}, nil
	}
	return s.recordFn(ctx, cmd)
}

func (s *stubPaymentService) MarkPaymentOutcome(ctx context.Context, cmd services.MarkPaymentOutcomeCommand) (domain.Payment, error) {
	if s.markFn == nil {
		return domain.Payment{}, nil
	}
	return s.markFn(ctx, cmd)
}

type stubRefundService struct {
	requestFn func(ctx context.Context, cmd services.RequestOrderRefundCommand) (domain.OrderRefund, error)
	settleFn  func(ctx context.Context, cmd services.SettleOrderRefundCommand) (domain.OrderRefund, error)
}

func (s *stubRefundService) RequestOrderRefund(ctx context.Context, cmd services.RequestOrderRefundCommand) (domain.OrderRefund, error) {
	if s.requestFn == nil {
		return domain.OrderRefund{}, nil
	}
	return s.requestFn(ctx, cmd)
}

func (s *stubRefundService) SettleOrderRefund(ctx context.Context, cmd services.SettleOrderRefundCommand) (domain.OrderRefund, error) {
	if s.settleFn == nil {
		return domain.OrderRefund{}, nil
	}
	return s.settleFn(ctx, cmd)
}

type stubAddressService struct {
	createFn     func(ctx context.Context, cmd services.CreateAddressCommand) (domain.Address, error)
	listFn       func(ctx context.Context, userID string) ([]domain.Address, error)
	setDefaultFn func(ctx context.Context, userID, addressID string) (domain.Address, error)
}

func (s *stubAddressService) Create(ctx context.Context, cmd services.CreateAddressCommand) (domain.Address, error) {
	if s.createFn == nil {
		return domain.Address{}, nil
	}
	return s.createFn(ctx, cmd)
}

func (s *stubAddressService) ListByUser(ctx context.Context, userID string) ([]domain.Address, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, userID)
}

func (s *stubAddressService) SetDefault(ctx context.Context, userID, addressID string) (domain.Address, error) {
	if s.setDefaultFn == nil {
		return domain.Address{}, nil
	}
	return s.setDefaultFn(ctx, userID, addressID)
}
