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

const (
	cartIDPrefix     = "cart_"
	cartLineIDPrefix = "cli_"
)

var (
	// ErrCartNotFound indicates the cart does not exist.
	ErrCartNotFound = errors.New("cart: not found")
	// ErrCartEmpty indicates the cart has no lines.
	ErrCartEmpty = errors.New("cart: empty")
	// ErrCartLineNotFound indicates the referenced line does not exist.
	ErrCartLineNotFound = errors.New("cart: line not found")
	// ErrNegativeQuantity indicates a non-positive line quantity.
	ErrNegativeQuantity = errors.New("cart: quantity must be positive")
	// ErrInvalidCartOwner indicates the owner discriminator is not exactly
	// one of user or session.
	ErrInvalidCartOwner = errors.New("cart: owner must be user xor session")
)

// CartServiceDeps bundles collaborators for the cart service.
type CartServiceDeps struct {
	Carts       repositories.CartRepository
	Products    repositories.ProductRepository
	UnitOfWork  repositories.UnitOfWork
	Clock       func() time.Time
	IDGenerator func() string
}

type cartService struct {
	carts      repositories.CartRepository
	products   repositories.ProductRepository
	unitOfWork repositories.UnitOfWork
	clock      func() time.Time
	newID      func() string
}

// NewCartService wires a CartService backed by the provided repositories.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Carts == nil {
		return nil, errors.New("cart service: cart repository is required")
	}
	if deps.Products == nil {
		return nil, errors.New("cart service: product repository is required")
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
	return &cartService{
		carts:      deps.Carts,
		products:   deps.Products,
		unitOfWork: unit,
		clock:      func() time.Time { return clock().UTC() },
		newID:      idGen,
	}, nil
}

func (s *cartService) GetOrCreate(ctx context.Context, owner domain.CartOwner) (domain.Cart, error) {
	if !owner.Valid() {
		return domain.Cart{}, ErrInvalidCartOwner
	}

	cart, err := s.carts.FindByOwner(ctx, owner)
	if err == nil {
		return cart, nil
	}
	if !isRepoNotFound(err) {
		return domain.Cart{}, err
	}

	now := s.clock()
	created, err := s.carts.Create(ctx, domain.Cart{
		ID:        cartIDPrefix + s.newID(),
		Owner:     owner,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return domain.Cart{}, err
	}
	return created, nil
}

func (s *cartService) AddLine(ctx context.Context, cmd AddCartLineCommand) (domain.Cart, error) {
	if cmd.Quantity <= 0 {
		return domain.Cart{}, fmt.Errorf("%w: got %d", ErrNegativeQuantity, cmd.Quantity)
	}
	productID := strings.TrimSpace(cmd.ProductID)
	if productID == "" {
		return domain.Cart{}, fmt.Errorf("%w: product id required", ErrProductNotFound)
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return domain.Cart{}, mapCatalogError(err, ErrProductNotFound)
	}
	if cmd.ColorID != nil {
		color, err := s.products.FindColor(ctx, *cmd.ColorID)
		if err != nil {
			return domain.Cart{}, mapCatalogError(err, ErrColorNotFound)
		}
		if color.ProductID != productID {
			return domain.Cart{}, fmt.Errorf("%w: color %s, product %s", ErrColorMismatch, color.ID, productID)
		}
	}

	var cartID string
	err := s.unitOfWork.RunInTx(ctx, func(txCtx context.Context) error {
		cart, err := s.GetOrCreate(txCtx, cmd.Owner)
		if err != nil {
			return err
		}
		cartID = cart.ID
		return s.upsertLine(txCtx, cart.ID, productID, cmd.ColorID, cmd.Quantity)
	})
	if err != nil {
		return domain.Cart{}, err
	}
	return s.carts.FindByID(ctx, cartID)
}

func (s *cartService) UpdateLineQuantity(ctx context.Context, cmd UpdateCartLineCommand) (domain.Cart, error) {
	if cmd.Quantity <= 0 {
		return domain.Cart{}, fmt.Errorf("%w: got %d", ErrNegativeQuantity, cmd.Quantity)
	}

	err := s.unitOfWork.RunInTx(ctx, func(txCtx context.Context) error {
		cart, err := s.findCart(txCtx, cmd.CartID)
		if err != nil {
			return err
		}
		for _, line := range cart.Lines {
			if line.ID == cmd.LineID {
				line.Quantity = cmd.Quantity
				line.UpdatedAt = s.clock()
				return s.carts.UpdateLine(txCtx, line)
			}
		}
		return fmt.Errorf("%w: %s", ErrCartLineNotFound, cmd.LineID)
	})
	if err != nil {
		return domain.Cart{}, err
	}
	return s.carts.FindByID(ctx, cmd.CartID)
}

func (s *cartService) RemoveLine(ctx context.Context, cartID, lineID string) (domain.Cart, error) {
	cart, err := s.findCart(ctx, cartID)
	if err != nil {
		return domain.Cart{}, err
	}
	for _, line := range cart.Lines {
		if line.ID == lineID {
			if err := s.carts.DeleteLine(ctx, lineID); err != nil {
				return domain.Cart{}, err
			}
			return s.carts.FindByID(ctx, cartID)
		}
	}
	return domain.Cart{}, fmt.Errorf("%w: %s", ErrCartLineNotFound, lineID)
}

func (s *cartService) Clear(ctx context.Context, cartID string) error {
	if _, err := s.findCart(ctx, cartID); err != nil {
		return err
	}
	return s.carts.ClearLines(ctx, cartID)
}

func (s *cartService) Aggregate(ctx context.Context, cartID string) (domain.CartAggregate, error) {
	cart, err := s.findCart(ctx, cartID)
	if err != nil {
		return domain.CartAggregate{}, err
	}
	return s.aggregateCart(ctx, cart)
}

func (s *cartService) aggregateCart(ctx context.Context, cart domain.Cart) (domain.CartAggregate, error) {
	if len(cart.Lines) == 0 {
		return domain.CartAggregate{}, fmt.Errorf("%w: cart %s", ErrCartEmpty, cart.ID)
	}

	agg := domain.CartAggregate{
		CartID:   cart.ID,
		Owner:    cart.Owner,
		Lines:    make([]domain.AggregateLine, 0, len(cart.Lines)),
		Subtotal: domain.Zero(),
	}

	for _, line := range cart.Lines {
		if line.Quantity <= 0 {
			return domain.CartAggregate{}, fmt.Errorf("%w: line %s", ErrNegativeQuantity, line.ID)
		}

		product, err := s.products.FindByID(ctx, line.ProductID)
		if err != nil {
			return domain.CartAggregate{}, mapCatalogError(err, ErrProductNotFound)
		}

		var color *domain.ProductColor
		colorName := ""
		if line.ColorID != nil {
			found, err := s.products.FindColor(ctx, *line.ColorID)
			if err != nil {
				return domain.CartAggregate{}, mapCatalogError(err, ErrColorNotFound)
			}
			color = &found
			colorName = found.Name
		}

		unitPrice, err := domain.UnitPrice(product, color)
		if err != nil {
			return domain.CartAggregate{}, err
		}
		lineTotal, err := unitPrice.MulQty(line.Quantity)
		if err != nil {
			return domain.CartAggregate{}, err
		}
		subtotal, err := agg.Subtotal.Add(lineTotal)
		if err != nil {
			return domain.CartAggregate{}, err
		}
		agg.Subtotal = subtotal

		agg.Lines = append(agg.Lines, domain.AggregateLine{
			ProductID:   product.ID,
			ProductName: product.Name,
			ProductSKU:  product.SKU,
			ColorID:     line.ColorID,
			ColorName:   colorName,
			Quantity:    line.Quantity,
			UnitPrice:   unitPrice,
			LineTotal:   lineTotal,
		})
	}

	return agg, nil
}

func (s *cartService) MergeSessionCart(ctx context.Context, sessionToken, userID string) (domain.Cart, error) {
	sessionOwner := domain.SessionOwner(sessionToken)
	userOwner := domain.UserOwner(userID)
	if !sessionOwner.Valid() || !userOwner.Valid() {
		return domain.Cart{}, ErrInvalidCartOwner
	}

	var userCartID string
	err := s.unitOfWork.RunInTx(ctx, func(txCtx context.Context) error {
		userCart, err := s.GetOrCreate(txCtx, userOwner)
		if err != nil {
			return err
		}
		userCartID = userCart.ID

		sessionCart, err := s.carts.FindByOwner(txCtx, sessionOwner)
		if err != nil {
			if isRepoNotFound(err) {
				return nil
			}
			return err
		}

		for _, line := range sessionCart.Lines {
			if err := s.upsertLine(txCtx, userCart.ID, line.ProductID, line.ColorID, line.Quantity); err != nil {
				return err
			}
		}
		return s.carts.Delete(txCtx, sessionCart.ID)
	})
	if err != nil {
		return domain.Cart{}, err
	}
	return s.carts.FindByID(ctx, userCartID)
}

// upsertLine adds quantity to the (cart, product, colour) line, creating it
// when absent. Conflicting concurrent inserts surface as repository
// conflicts and are retried by the unit of work.
func (s *cartService) upsertLine(ctx context.Context, cartID, productID string, colorID *string, qty int) error {
	now := s.clock()
	existing, err := s.carts.FindLine(ctx, cartID, productID, colorID)
	if err == nil {
		existing.Quantity += qty
		existing.UpdatedAt = now
		return s.carts.UpdateLine(ctx, existing)
	}
	if !isRepoNotFound(err) {
		return err
	}
	_, err = s.carts.InsertLine(ctx, domain.CartLine{
		ID:        cartLineIDPrefix + s.newID(),
		CartID:    cartID,
		ProductID: productID,
		ColorID:   colorID,
		Quantity:  qty,
		AddedAt:   now,
		UpdatedAt: now,
	})
	return err
}

func (s *cartService) findCart(ctx context.Context, cartID string) (domain.Cart, error) {
	cartID = strings.TrimSpace(cartID)
	if cartID == "" {
		return domain.Cart{}, fmt.Errorf("%w: empty id", ErrCartNotFound)
	}
	cart, err := s.carts.FindByID(ctx, cartID)
	if err != nil {
		if isRepoNotFound(err) {
			return domain.Cart{}, fmt.Errorf("%w: %s", ErrCartNotFound, cartID)
		}
		return domain.Cart{}, err
	}
	return cart, nil
}

func isRepoNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

type noopUnitOfWork struct{}

func (noopUnitOfWork) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}
