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

const addressIDPrefix = "addr_"

// ErrAddressNotFound indicates the address could not be located for the user.
var ErrAddressNotFound = errors.New("address: not found")

// AddressServiceDeps bundles collaborators for the address service.
type AddressServiceDeps struct {
	Addresses  repositories.AddressRepository
	UnitOfWork repositories.UnitOfWork

	Clock       func() time.Time
	IDGenerator func() string
}

type addressService struct {
	addresses  repositories.AddressRepository
	unitOfWork repositories.UnitOfWork
	clock      func() time.Time
	newID      func() string
}

// NewAddressService wires the address book service.
func NewAddressService(deps AddressServiceDeps) (AddressService, error) {
	if deps.Addresses == nil {
		return nil, errors.New("address service: address repository is required")
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
	return &addressService{
		addresses:  deps.Addresses,
		unitOfWork: unit,
		clock:      func() time.Time { return clock().UTC() },
		newID:      idGen,
	}, nil
}

func (s *addressService) Create(ctx context.Context, cmd CreateAddressCommand) (domain.Address, error) {
	if err := validateAddressCommand(cmd); err != nil {
		return domain.Address{}, err
	}

	address := domain.Address{
		ID:           addressIDPrefix + s.newID(),
		UserID:       strings.TrimSpace(cmd.UserID),
		Kind:         cmd.Kind,
		FullName:     strings.TrimSpace(cmd.FullName),
		AddressLine1: strings.TrimSpace(cmd.AddressLine1),
		AddressLine2: strings.TrimSpace(cmd.AddressLine2),
		City:         strings.TrimSpace(cmd.City),
		State:        strings.TrimSpace(cmd.State),
		PostalCode:   strings.TrimSpace(cmd.PostalCode),
		Country:      strings.TrimSpace(cmd.Country),
		Phone:        strings.TrimSpace(cmd.Phone),
		IsDefault:    cmd.IsDefault,
	}

	err := s.unitOfWork.RunInTx(ctx, func(txCtx context.Context) error {
		if address.IsDefault {
			if err := s.addresses.ClearDefaults(txCtx, address.UserID, address.Kind); err != nil {
				return err
			}
		}
		return s.addresses.Insert(txCtx, address)
	})
	if err != nil {
		return domain.Address{}, err
	}
	return address, nil
}

func (s *addressService) ListByUser(ctx context.Context, userID string) ([]domain.Address, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id required", ErrInvalidAddress)
	}
	return s.addresses.ListByUser(ctx, userID)
}

func (s *addressService) SetDefault(ctx context.Context, userID, addressID string) (domain.Address, error) {
	userID = strings.TrimSpace(userID)
	address, err := s.findOwnedAddress(ctx, userID, addressID)
	if err != nil {
		return domain.Address{}, err
	}

	address.IsDefault = true
	err = s.unitOfWork.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.addresses.ClearDefaults(txCtx, userID, address.Kind); err != nil {
			return err
		}
		return s.addresses.Update(txCtx, address)
	})
	if err != nil {
		return domain.Address{}, err
	}
	return address, nil
}

func (s *addressService) findOwnedAddress(ctx context.Context, userID, addressID string) (domain.Address, error) {
	addressID = strings.TrimSpace(addressID)
	if addressID == "" || userID == "" {
		return domain.Address{}, fmt.Errorf("%w: empty id", ErrAddressNotFound)
	}
	address, err := s.addresses.FindByID(ctx, addressID)
	if err != nil {
		if isRepoNotFound(err) {
			return domain.Address{}, fmt.Errorf("%w: %s", ErrAddressNotFound, addressID)
		}
		return domain.Address{}, err
	}
	if address.UserID != userID {
		return domain.Address{}, fmt.Errorf("%w: %s", ErrAddressNotFound, addressID)
	}
	return address, nil
}

func validateAddressCommand(cmd CreateAddressCommand) error {
	switch cmd.Kind {
	case domain.AddressBilling, domain.AddressShipping, domain.AddressBoth:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidAddress, cmd.Kind)
	}
	if strings.TrimSpace(cmd.UserID) == "" {
		return fmt.Errorf("%w: user id required", ErrInvalidAddress)
	}
	for field, value := range map[string]string{
		"full_name":     cmd.FullName,
		"address_line1": cmd.AddressLine1,
		"city":          cmd.City,
		"postal_code":   cmd.PostalCode,
		"country":       cmd.Country,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: %s required", ErrInvalidAddress, field)
		}
	}
	return nil
}
