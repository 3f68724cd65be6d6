package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/laptopstore/api/internal/domain"
	"github.com/laptopstore/api/internal/repositories"
)

type couponRepository struct {
	db *gorm.DB
}

// NewCouponRepository builds the coupon repository.
func NewCouponRepository(db *gorm.DB) repositories.CouponRepository {
	return &couponRepository{db: db}
}

func (r *couponRepository) FindByCode(ctx context.Context, normalizedCode string) (domain.Coupon, error) {
	var model couponModel
	if err := dbFrom(ctx, r.db).First(&model, "code = ?", normalizedCode).Error; err != nil {
		return domain.Coupon{}, translate("coupon.findByCode", err)
	}
	return model.toDomain()
}

// IncrementUsage is the linearization point for the usage cap: the condition
// rides inside the UPDATE, so two orders can never both take the last use.
func (r *couponRepository) IncrementUsage(ctx context.Context, couponID string) error {
	result := dbFrom(ctx, r.db).
		Model(&couponModel{}).
		Where("id = ? AND (max_uses = 0 OR current_uses < max_uses)", couponID).
		Update("current_uses", gorm.Expr("current_uses + 1"))
	if result.Error != nil {
		return translate("coupon.incrementUsage", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ConflictError("coupon.incrementUsage", errors.New("usage cap reached"))
	}
	return nil
}

func (r *couponRepository) DecrementUsage(ctx context.Context, couponID string) error {
	result := dbFrom(ctx, r.db).
		Model(&couponModel{}).
		Where("id = ? AND current_uses > 0", couponID).
		Update("current_uses", gorm.Expr("current_uses - 1"))
	if result.Error != nil {
		return translate("coupon.decrementUsage", result.Error)
	}
	return nil
}
