package domain

import (
	"errors"
	"fmt"
	"slices"
)

// ErrIllegalTransition is returned for any move outside the transition
// tables below.
var ErrIllegalTransition = errors.New("status: illegal transition")

// orderTransitions is the allowed order-status DAG. Cancelled and refunded
// are terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {OrderStatusRefunded},
}

// paymentStatusTransitions is the orthogonal order-level payment-status
// machine. paid_at is driven by the first move to paid.
var paymentStatusTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:           {PaymentStatusPaid, PaymentStatusFailed},
	PaymentStatusPaid:              {PaymentStatusRefunded, PaymentStatusPartiallyRefunded},
	PaymentStatusPartiallyRefunded: {PaymentStatusRefunded, PaymentStatusPartiallyRefunded},
}

// CanTransitionOrder reports whether the order-status move is allowed.
func CanTransitionOrder(from, to OrderStatus) bool {
	return slices.Contains(orderTransitions[from], to)
}

// CheckOrderTransition validates an order-status move, returning
// ErrIllegalTransition with both endpoints on failure.
func CheckOrderTransition(from, to OrderStatus) error {
	if !CanTransitionOrder(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	return nil
}

// CanTransitionPayment reports whether the payment-status move is allowed.
func CanTransitionPayment(from, to PaymentStatus) bool {
	return slices.Contains(paymentStatusTransitions[from], to)
}

// CheckPaymentTransition validates a payment-status move.
func CheckPaymentTransition(from, to PaymentStatus) error {
	if !CanTransitionPayment(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	return nil
}

// ValidOrderStatus reports whether the value is a known order status.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}
