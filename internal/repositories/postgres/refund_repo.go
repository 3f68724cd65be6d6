package postgres

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/laptopstore/api/internal/domain"
	"github.com/laptopstore/api/internal/repositories"
)

type refundRepository struct {
	db *gorm.DB
}

// NewRefundRepository builds the refund repository covering both the
// order-level approval record and the payment-level ledger entries.
func NewRefundRepository(db *gorm.DB) repositories.RefundRepository {
	return &refundRepository{db: db}
}

func (r *refundRepository) InsertOrderRefund(ctx context.Context, refund domain.OrderRefund) error {
	model := orderRefundToModel(refund)
	if err := dbFrom(ctx, r.db).Create(&model).Error; err != nil {
		return translate("refund.insertOrderRefund", err)
	}
	return nil
}

func (r *refundRepository) UpdateOrderRefund(ctx context.Context, refund domain.OrderRefund) error {
	model := orderRefundToModel(refund)
	result := dbFrom(ctx, r.db).Model(&orderRefundModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]any{
			"status":       model.Status,
			"updated_at":   model.UpdatedAt,
			"processed_at": model.ProcessedAt,
			"processed_by": model.ProcessedBy,
		})
	if result.Error != nil {
		return translate("refund.updateOrderRefund", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.NotFoundError("refund.updateOrderRefund", errors.New("order refund missing"))
	}
	return nil
}

func (r *refundRepository) FindOrderRefund(ctx context.Context, refundID string) (domain.OrderRefund, error) {
	var model orderRefundModel
	if err := dbFrom(ctx, r.db).First(&model, "id = ?", refundID).Error; err != nil {
		return domain.OrderRefund{}, translate("refund.findOrderRefund", err)
	}
	return model.toDomain()
}

func (r *refundRepository) ListOrderRefundsByOrder(ctx context.Context, orderID string) ([]domain.OrderRefund, error) {
	var models []orderRefundModel
	err := dbFrom(ctx, r.db).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, translate("refund.listOrderRefunds", err)
	}

	refunds := make([]domain.OrderRefund, 0, len(models))
	for _, model := range models {
		refund, err := model.toDomain()
		if err != nil {
			return nil, err
		}
		refunds = append(refunds, refund)
	}
	return refunds, nil
}

func (r *refundRepository) SumCompletedOrderRefunds(ctx context.Context, orderID string) (domain.Money, error) {
	var sum decimal.NullDecimal
	err := dbFrom(ctx, r.db).Model(&orderRefundModel{}).
		Select("SUM(amount)").
		Where("order_id = ? AND status = ?", orderID, string(domain.OrderRefundCompleted)).
		Scan(&sum).Error
	if err != nil {
		return domain.Money{}, translate("refund.sumOrderRefunds", err)
	}
	if !sum.Valid {
		return domain.Zero(), nil
	}
	return domain.NewMoney(sum.Decimal)
}

func (r *refundRepository) InsertPaymentRefund(ctx context.Context, refund domain.PaymentRefund) error {
	model, err := paymentRefundToModel(refund)
	if err != nil {
		return err
	}
	if err := dbFrom(ctx, r.db).Create(&model).Error; err != nil {
		return translate("refund.insertPaymentRefund", err)
	}
	return nil
}

func (r *refundRepository) UpdatePaymentRefund(ctx context.Context, refund domain.PaymentRefund) error {
	model, err := paymentRefundToModel(refund)
	if err != nil {
		return err
	}
	result := dbFrom(ctx, r.db).Model(&paymentRefundModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]any{
			"status":           model.Status,
			"transaction_id":   model.TransactionID,
			"gateway_response": model.GatewayResponse,
			"updated_at":       model.UpdatedAt,
		})
	if result.Error != nil {
		return translate("refund.updatePaymentRefund", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.NotFoundError("refund.updatePaymentRefund", errors.New("payment refund missing"))
	}
	return nil
}

func (r *refundRepository) ListPaymentRefundsByPayment(ctx context.Context, paymentID string) ([]domain.PaymentRefund, error) {
	var models []paymentRefundModel
	err := dbFrom(ctx, r.db).
		Where("payment_id = ?", paymentID).
		Order("created_at ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, translate("refund.listPaymentRefunds", err)
	}

	refunds := make([]domain.PaymentRefund, 0, len(models))
	for _, model := range models {
		refund, err := model.toDomain()
		if err != nil {
			return nil, err
		}
		refunds = append(refunds, refund)
	}
	return refunds, nil
}

func (r *refundRepository) SumCompletedPaymentRefunds(ctx context.Context, paymentID string) (domain.Money, error) {
	var sum decimal.NullDecimal
	err := dbFrom(ctx, r.db).Model(&paymentRefundModel{}).
		Select("SUM(amount)").
		Where("payment_id = ? AND status = ?", paymentID, string(domain.PaymentRefundCompleted)).
		Scan(&sum).Error
	if err != nil {
		return domain.Money{}, translate("refund.sumPaymentRefunds", err)
	}
	if !sum.Valid {
		return domain.Zero(), nil
	}
	return domain.NewMoney(sum.Decimal)
}
