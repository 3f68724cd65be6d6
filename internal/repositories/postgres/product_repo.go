package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/laptopstore/api/internal/domain"
	"github.com/laptopstore/api/internal/repositories"
)

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository builds the catalog/stock repository.
func NewProductRepository(db *gorm.DB) repositories.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	var model productModel
	if err := dbFrom(ctx, r.db).First(&model, "id = ?", productID).Error; err != nil {
		return domain.Product{}, translate("product.find", err)
	}
	return model.toDomain()
}

func (r *productRepository) FindColor(ctx context.Context, colorID string) (domain.ProductColor, error) {
	var model productColorModel
	if err := dbFrom(ctx, r.db).First(&model, "id = ?", colorID).Error; err != nil {
		return domain.ProductColor{}, translate("color.find", err)
	}
	return model.toDomain()
}

func (r *productRepository) DecrementStock(ctx context.Context, productID string, qty int) error {
	result := dbFrom(ctx, r.db).
		Model(&productModel{}).
		Where("id = ? AND stock_quantity >= ?", productID, qty).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if result.Error != nil {
		return translate("product.decrementStock", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ConflictError("product.decrementStock", errors.New("insufficient stock"))
	}
	return nil
}

func (r *productRepository) IncrementStock(ctx context.Context, productID string, qty int) error {
	result := dbFrom(ctx, r.db).
		Model(&productModel{}).
		Where("id = ?", productID).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", qty))
	if result.Error != nil {
		return translate("product.incrementStock", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.NotFoundError("product.incrementStock", errors.New("product missing"))
	}
	return nil
}
