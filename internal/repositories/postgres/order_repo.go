package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/laptopstore/api/internal/domain"
	"github.com/laptopstore/api/internal/repositories"
)

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository builds the order repository.
func NewOrderRepository(db *gorm.DB) repositories.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Insert(ctx context.Context, order domain.Order) error {
	model := orderToModel(order)
	if err := dbFrom(ctx, r.db).Create(&model).Error; err != nil {
		return translate("order.insert", err)
	}
	return nil
}

// Update rewrites the mutable head of the order. Items and monetary fields
// are frozen at creation and never touched here.
func (r *orderRepository) Update(ctx context.Context, order domain.Order) error {
	result := dbFrom(ctx, r.db).Model(&orderModel{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"status":         string(order.Status),
			"payment_status": string(order.PaymentStatus),
			"updated_at":     order.UpdatedAt,
			"paid_at":        order.PaidAt,
			"shipped_at":     order.ShippedAt,
			"delivered_at":   order.DeliveredAt,
			"cancelled_at":   order.CancelledAt,
			"admin_notes":    order.AdminNotes,
		})
	if result.Error != nil {
		return translate("order.update", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.NotFoundError("order.update", errors.New("order missing"))
	}
	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	var model orderModel
	if err := dbFrom(ctx, r.db).Preload("Items").First(&model, "id = ?", orderID).Error; err != nil {
		return domain.Order{}, translate("order.find", err)
	}
	return model.toDomain()
}

func (r *orderRepository) FindByNumber(ctx context.Context, orderNumber string) (domain.Order, error) {
	var model orderModel
	if err := dbFrom(ctx, r.db).Preload("Items").First(&model, "order_number = ?", orderNumber).Error; err != nil {
		return domain.Order{}, translate("order.findByNumber", err)
	}
	return model.toDomain()
}

func (r *orderRepository) List(ctx context.Context, filter repositories.OrderListFilter) ([]domain.Order, error) {
	query := dbFrom(ctx, r.db).Preload("Items").Order("created_at DESC")
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var models []orderModel
	if err := query.Find(&models).Error; err != nil {
		return nil, translate("order.list", err)
	}

	orders := make([]domain.Order, 0, len(models))
	for _, model := range models {
		order, err := model.toDomain()
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func (r *orderRepository) AppendStatusUpdate(ctx context.Context, update domain.OrderStatusUpdate) error {
	model := orderStatusUpdateModel{
		ID:        update.ID,
		OrderID:   update.OrderID,
		Status:    string(update.Status),
		Notes:     update.Notes,
		CreatedAt: update.CreatedAt,
		CreatedBy: update.CreatedBy,
	}
	if err := dbFrom(ctx, r.db).Create(&model).Error; err != nil {
		return translate("order.appendStatusUpdate", err)
	}
	return nil
}

func (r *orderRepository) ListStatusUpdates(ctx context.Context, orderID string) ([]domain.OrderStatusUpdate, error) {
	var models []orderStatusUpdateModel
	err := dbFrom(ctx, r.db).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, translate("order.listStatusUpdates", err)
	}

	updates := make([]domain.OrderStatusUpdate, 0, len(models))
	for _, model := range models {
		updates = append(updates, model.toDomain())
	}
	return updates, nil
}
