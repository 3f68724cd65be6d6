package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/laptopstore/api/internal/domain"
	"github.com/laptopstore/api/internal/repositories"
)

type addressRepository struct {
	db *gorm.DB
}

// NewAddressRepository builds the address repository.
func NewAddressRepository(db *gorm.DB) repositories.AddressRepository {
	return &addressRepository{db: db}
}

func (r *addressRepository) Insert(ctx context.Context, address domain.Address) error {
	model := addressToModel(address)
	if err := dbFrom(ctx, r.db).Create(&model).Error; err != nil {
		return translate("address.insert", err)
	}
	return nil
}

func (r *addressRepository) Update(ctx context.Context, address domain.Address) error {
	model := addressToModel(address)
	result := dbFrom(ctx, r.db).Model(&addressModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]any{
			"kind":          model.Kind,
			"full_name":     model.FullName,
			"address_line1": model.AddressLine1,
			"address_line2": model.AddressLine2,
			"city":          model.City,
			"state":         model.State,
			"postal_code":   model.PostalCode,
			"country":       model.Country,
			"phone":         model.Phone,
			"is_default":    model.IsDefault,
		})
	if result.Error != nil {
		return translate("address.update", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.NotFoundError("address.update", errors.New("address missing"))
	}
	return nil
}

func (r *addressRepository) FindByID(ctx context.Context, addressID string) (domain.Address, error) {
	var model addressModel
	if err := dbFrom(ctx, r.db).First(&model, "id = ?", addressID).Error; err != nil {
		return domain.Address{}, translate("address.find", err)
	}
	return model.toDomain(), nil
}

func (r *addressRepository) ListByUser(ctx context.Context, userID string) ([]domain.Address, error) {
	var models []addressModel
	err := dbFrom(ctx, r.db).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, translate("address.listByUser", err)
	}

	addresses := make([]domain.Address, 0, len(models))
	for _, model := range models {
		addresses = append(addresses, model.toDomain())
	}
	return addresses, nil
}

// ClearDefaults unsets defaults whose kind overlaps the given kind. A "both"
// address overlaps everything, so it is cleared by either side and clears
// both sides itself.
func (r *addressRepository) ClearDefaults(ctx context.Context, userID string, kind domain.AddressKind) error {
	err := dbFrom(ctx, r.db).Model(&addressModel{}).
		Where("user_id = ? AND is_default AND (kind = ? OR kind = ? OR ? = ?)",
			userID, string(kind), string(domain.AddressBoth), string(kind), string(domain.AddressBoth)).
		Update("is_default", false).Error
	if err != nil {
		return translate("address.clearDefaults", err)
	}
	return nil
}
