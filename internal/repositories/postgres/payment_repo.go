package postgres

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/laptopstore/api/internal/domain"
	"github.com/laptopstore/api/internal/repositories"
)

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository builds the payment repository.
func NewPaymentRepository(db *gorm.DB) repositories.PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Insert(ctx context.Context, payment domain.Payment) error {
	model, err := paymentToModel(payment)
	if err != nil {
		return err
	}
	if err := dbFrom(ctx, r.db).Create(&model).Error; err != nil {
		return translate("payment.insert", err)
	}
	return nil
}

func (r *paymentRepository) Update(ctx context.Context, payment domain.Payment) error {
	model, err := paymentToModel(payment)
	if err != nil {
		return err
	}
	result := dbFrom(ctx, r.db).Model(&paymentModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]any{
			"status":           model.Status,
			"transaction_id":   model.TransactionID,
			"gateway_order_id": model.GatewayOrderID,
			"gateway_response": model.GatewayResponse,
			"updated_at":       model.UpdatedAt,
		})
	if result.Error != nil {
		return translate("payment.update", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.NotFoundError("payment.update", errors.New("payment missing"))
	}
	return nil
}

func (r *paymentRepository) FindByID(ctx context.Context, paymentID string) (domain.Payment, error) {
	var model paymentModel
	if err := dbFrom(ctx, r.db).First(&model, "id = ?", paymentID).Error; err != nil {
		return domain.Payment{}, translate("payment.find", err)
	}
	return model.toDomain()
}

func (r *paymentRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.Payment, error) {
	var models []paymentModel
	err := dbFrom(ctx, r.db).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, translate("payment.listByOrder", err)
	}

	payments := make([]domain.Payment, 0, len(models))
	for _, model := range models {
		payment, err := model.toDomain()
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, nil
}

func (r *paymentRepository) SumCompletedByOrder(ctx context.Context, orderID string) (domain.Money, error) {
	var sum decimal.NullDecimal
	err := dbFrom(ctx, r.db).Model(&paymentModel{}).
		Select("SUM(amount)").
		Where("order_id = ? AND status = ?", orderID, string(domain.PaymentCompleted)).
		Scan(&sum).Error
	if err != nil {
		return domain.Money{}, translate("payment.sumCompleted", err)
	}
	if !sum.Valid {
		return domain.Zero(), nil
	}
	return domain.NewMoney(sum.Decimal)
}
