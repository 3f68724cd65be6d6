package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/laptopstore/api/internal/domain"
	"github.com/laptopstore/api/internal/repositories"
)

type cartRepository struct {
	db *gorm.DB
}

// NewCartRepository builds the cart repository.
func NewCartRepository(db *gorm.DB) repositories.CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) Create(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	model := cartToModel(cart)
	if err := dbFrom(ctx, r.db).Create(&model).Error; err != nil {
		return domain.Cart{}, translate("cart.create", err)
	}
	return model.toDomain(), nil
}

func (r *cartRepository) FindByID(ctx context.Context, cartID string) (domain.Cart, error) {
	var model cartModel
	err := dbFrom(ctx, r.db).Preload("Lines").First(&model, "id = ?", cartID).Error
	if err != nil {
		return domain.Cart{}, translate("cart.find", err)
	}
	return model.toDomain(), nil
}

func (r *cartRepository) FindByOwner(ctx context.Context, owner domain.CartOwner) (domain.Cart, error) {
	query := dbFrom(ctx, r.db).Preload("Lines")
	switch {
	case ownerIsUser(owner):
		userID, _ := owner.UserID()
		query = query.Where("user_id = ?", userID)
	case ownerIsSession(owner):
		token, _ := owner.SessionID()
		query = query.Where("session_token = ?", token)
	default:
		return domain.Cart{}, repositories.NotFoundError("cart.findByOwner", errors.New("invalid owner"))
	}

	var model cartModel
	if err := query.First(&model).Error; err != nil {
		return domain.Cart{}, translate("cart.findByOwner", err)
	}
	return model.toDomain(), nil
}

func (r *cartRepository) Delete(ctx context.Context, cartID string) error {
	db := dbFrom(ctx, r.db)
	if err := db.Delete(&cartLineModel{}, "cart_id = ?", cartID).Error; err != nil {
		return translate("cart.delete", err)
	}
	if err := db.Delete(&cartModel{}, "id = ?", cartID).Error; err != nil {
		return translate("cart.delete", err)
	}
	return nil
}

func (r *cartRepository) InsertLine(ctx context.Context, line domain.CartLine) (domain.CartLine, error) {
	model := cartLineToModel(line)
	if err := dbFrom(ctx, r.db).Create(&model).Error; err != nil {
		return domain.CartLine{}, translate("cart.insertLine", err)
	}
	return model.toDomain(), nil
}

func (r *cartRepository) UpdateLine(ctx context.Context, line domain.CartLine) error {
	model := cartLineToModel(line)
	result := dbFrom(ctx, r.db).Model(&cartLineModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]any{
			"quantity":   model.Quantity,
			"updated_at": model.UpdatedAt,
		})
	if result.Error != nil {
		return translate("cart.updateLine", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.NotFoundError("cart.updateLine", errors.New("line missing"))
	}
	return nil
}

func (r *cartRepository) FindLine(ctx context.Context, cartID, productID string, colorID *string) (domain.CartLine, error) {
	query := dbFrom(ctx, r.db).Where("cart_id = ? AND product_id = ?", cartID, productID)
	if colorID == nil {
		query = query.Where("color_id IS NULL")
	} else {
		query = query.Where("color_id = ?", *colorID)
	}

	var model cartLineModel
	if err := query.First(&model).Error; err != nil {
		return domain.CartLine{}, translate("cart.findLine", err)
	}
	return model.toDomain(), nil
}

func (r *cartRepository) DeleteLine(ctx context.Context, lineID string) error {
	if err := dbFrom(ctx, r.db).Delete(&cartLineModel{}, "id = ?", lineID).Error; err != nil {
		return translate("cart.deleteLine", err)
	}
	return nil
}

func (r *cartRepository) ClearLines(ctx context.Context, cartID string) error {
	if err := dbFrom(ctx, r.db).Delete(&cartLineModel{}, "cart_id = ?", cartID).Error; err != nil {
		return translate("cart.clearLines", err)
	}
	return nil
}

func ownerIsUser(owner domain.CartOwner) bool {
	_, ok := owner.UserID()
	return ok
}

func ownerIsSession(owner domain.CartOwner) bool {
	_, ok := owner.SessionID()
	return ok
}
