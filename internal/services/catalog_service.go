package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/laptopstore/api/internal/domain"
	"github.com/laptopstore/api/internal/repositories"
)

var (
	// ErrProductNotFound indicates the product does not exist.
	ErrProductNotFound = errors.New("catalog: product not found")
	// ErrColorNotFound indicates the colour variant does not exist.
	ErrColorNotFound = errors.New("catalog: color not found")
	// ErrColorMismatch indicates the colour belongs to a different product.
	ErrColorMismatch = errors.New("catalog: color does not belong to product")
)

// CatalogServiceDeps bundles dependencies for the catalog view.
type CatalogServiceDeps struct {
	Products repositories.ProductRepository
}

type catalogService struct {
	products repositories.ProductRepository
}

// NewCatalogService wires the read-only catalog view.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Products == nil {
		return nil, errors.New("catalog service: product repository is required")
	}
	return &catalogService{products: deps.Products}, nil
}

func (s *catalogService) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.Product{}, fmt.Errorf("%w: empty id", ErrProductNotFound)
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return domain.Product{}, mapCatalogError(err, ErrProductNotFound)
	}
	return product, nil
}

func (s *catalogService) GetColor(ctx context.Context, colorID string) (domain.ProductColor, error) {
	colorID = strings.TrimSpace(colorID)
	if colorID == "" {
		return domain.ProductColor{}, fmt.Errorf("%w: empty id", ErrColorNotFound)
	}
	color, err := s.products.FindColor(ctx, colorID)
	if err != nil {
		return domain.ProductColor{}, mapCatalogError(err, ErrColorNotFound)
	}
	return color, nil
}

func (s *catalogService) ResolveUnitPrice(ctx context.Context, productID string, colorID *string) (domain.Money, error) {
	product, err := s.GetProduct(ctx, productID)
	if err != nil {
		return domain.Money{}, err
	}

	var color *domain.ProductColor
	if colorID != nil && strings.TrimSpace(*colorID) != "" {
		found, err := s.GetColor(ctx, *colorID)
		if err != nil {
			return domain.Money{}, err
		}
		if found.ProductID != product.ID {
			return domain.Money{}, fmt.Errorf("%w: color %s, product %s", ErrColorMismatch, found.ID, product.ID)
		}
		color = &found
	}

	return domain.UnitPrice(product, color)
}

func mapCatalogError(err error, notFound error) error {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return fmt.Errorf("%w: %v", notFound, err)
	}
	return err
}
