package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/laptopstore/api/internal/domain"
)

func testProduct(id, price string, stock int) domain.Product {
	return domain.Product{
		ID:            id,
		Name:          "ZenBook 14",
		SKU:           "ZB14-" + id,
		Price:         domain.MustMoney(price),
		StockQuantity: stock,
		Availability:  domain.AvailabilityInStock,
		IsActive:      true,
	}
}

func newTestCartService(t *testing.T, products *memProductRepo, carts *memCartRepo) CartService {
	t.Helper()
	svc, err := NewCartService(CartServiceDeps{
		Carts:       carts,
		Products:    products,
		Clock:       fixedClock(time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)),
		IDGenerator: sequentialIDs("id"),
	})
	if err != nil {
		t.Fatalf("NewCartService: %v", err)
	}
	return svc
}

func TestCartService_GetOrCreate_ReusesExisting(t *testing.T) {
	carts := newMemCartRepo()
	svc := newTestCartService(t, newMemProductRepo(), carts)
	owner := domain.UserOwner("user_1")

	first, err := svc.GetOrCreate(context.Background(), owner)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	second, err := svc.GetOrCreate(context.Background(), owner)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected one cart per owner, got %s and %s", first.ID, second.ID)
	}
	if len(carts.carts) != 1 {
		t.Fatalf("expected 1 cart stored, got %d", len(carts.carts))
	}
}

func TestCartService_GetOrCreate_RejectsInvalidOwner(t *testing.T) {
	svc := newTestCartService(t, newMemProductRepo(), newMemCartRepo())

	if _, err := svc.GetOrCreate(context.Background(), domain.CartOwner{}); !errors.Is(err, ErrInvalidCartOwner) {
		t.Fatalf("expected ErrInvalidCartOwner got %v", err)
	}
}

func TestCartService_AddLine_UpsertsByProductAndColor(t *testing.T) {
	products := newMemProductRepo(testProduct("prod_1", "79999.00", 10))
	svc := newTestCartService(t, products, newMemCartRepo())
	owner := domain.UserOwner("user_1")

	cart, err := svc.AddLine(context.Background(), AddCartLineCommand{Owner: owner, ProductID: "prod_1", Quantity: 1})
	if err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	cart, err = svc.AddLine(context.Background(), AddCartLineCommand{Owner: owner, ProductID: "prod_1", Quantity: 2})
	if err != nil {
		t.Fatalf("AddLine: %v", err)
	}

	if len(cart.Lines) != 1 {
		t.Fatalf("expected a single merged line, got %d", len(cart.Lines))
	}
	if cart.Lines[0].Quantity != 3 {
		t.Fatalf("expected quantity 3 got %d", cart.Lines[0].Quantity)
	}
}

func TestCartService_AddLine_Validation(t *testing.T) {
	products := newMemProductRepo(testProduct("prod_1", "79999.00", 10))
	products.addColor(domain.ProductColor{ID: "col_other", ProductID: "prod_2", Name: "Jade"})
	svc := newTestCartService(t, products, newMemCartRepo())
	owner := domain.UserOwner("user_1")

	if _, err := svc.AddLine(context.Background(), AddCartLineCommand{Owner: owner, ProductID: "prod_1", Quantity: 0}); !errors.Is(err, ErrNegativeQuantity) {
		t.Fatalf("expected ErrNegativeQuantity got %v", err)
	}
	if _, err := svc.AddLine(context.Background(), AddCartLineCommand{Owner: owner, ProductID: "ghost", Quantity: 1}); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound got %v", err)
	}

	colorID := "col_other"
	if _, err := svc.AddLine(context.Background(), AddCartLineCommand{Owner: owner, ProductID: "prod_1", ColorID: &colorID, Quantity: 1}); !errors.Is(err, ErrColorMismatch) {
		t.Fatalf("expected ErrColorMismatch got %v", err)
	}
}

func TestCartService_Aggregate_ResolvesPricesFromCatalog(t *testing.T) {
	product := testProduct("prod_1", "80000.00", 10)
	sale := domain.MustMoney("74999.00")
	product.SalePrice = &sale
	product.IsOnSale = true

	products := newMemProductRepo(product)
	products.addColor(domain.ProductColor{
		ID:              "col_1",
		ProductID:       "prod_1",
		Name:            "Ponder Blue",
		PriceAdjustment: domain.MustMoney("1000.00"),
		IsAvailable:     true,
	})
	svc := newTestCartService(t, products, newMemCartRepo())
	owner := domain.UserOwner("user_1")

	colorID := "col_1"
	cart, err := svc.AddLine(context.Background(), AddCartLineCommand{Owner: owner, ProductID: "prod_1", ColorID: &colorID, Quantity: 2})
	if err != nil {
		t.Fatalf("AddLine: %v", err)
	}

	agg, err := svc.Aggregate(context.Background(), cart.ID)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(agg.Lines) != 1 {
		t.Fatalf("expected 1 aggregate line got %d", len(agg.Lines))
	}
	// Sale price wins over base price, colour adjustment applies on top.
	if agg.Lines[0].UnitPrice.String() != "75999.00" {
		t.Fatalf("expected unit price 75999.00 got %s", agg.Lines[0].UnitPrice)
	}
	if agg.Subtotal.String() != "151998.00" {
		t.Fatalf("expected subtotal 151998.00 got %s", agg.Subtotal)
	}
	if agg.Lines[0].ColorName != "Ponder Blue" {
		t.Fatalf("expected colour name on line, got %q", agg.Lines[0].ColorName)
	}
}

func TestCartService_Aggregate_EmptyCart(t *testing.T) {
	carts := newMemCartRepo()
	svc := newTestCartService(t, newMemProductRepo(), carts)

	cart, err := svc.GetOrCreate(context.Background(), domain.UserOwner("user_1"))
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if _, err := svc.Aggregate(context.Background(), cart.ID); !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("expected ErrCartEmpty got %v", err)
	}
}

func TestCartService_UpdateAndRemoveLine(t *testing.T) {
	products := newMemProductRepo(testProduct("prod_1", "500.00", 10))
	svc := newTestCartService(t, products, newMemCartRepo())
	owner := domain.UserOwner("user_1")

	cart, err := svc.AddLine(context.Background(), AddCartLineCommand{Owner: owner, ProductID: "prod_1", Quantity: 1})
	if err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	lineID := cart.Lines[0].ID

	cart, err = svc.UpdateLineQuantity(context.Background(), UpdateCartLineCommand{CartID: cart.ID, LineID: lineID, Quantity: 5})
	if err != nil {
		t.Fatalf("UpdateLineQuantity: %v", err)
	}
	if cart.Lines[0].Quantity != 5 {
		t.Fatalf("expected quantity 5 got %d", cart.Lines[0].Quantity)
	}

	if _, err := svc.UpdateLineQuantity(context.Background(), UpdateCartLineCommand{CartID: cart.ID, LineID: "ghost", Quantity: 1}); !errors.Is(err, ErrCartLineNotFound) {
		t.Fatalf("expected ErrCartLineNotFound got %v", err)
	}

	cart, err = svc.RemoveLine(context.Background(), cart.ID, lineID)
	if err != nil {
		t.Fatalf("RemoveLine: %v", err)
	}
	if len(cart.Lines) != 0 {
		t.Fatalf("expected empty cart got %d lines", len(cart.Lines))
	}
}

func TestCartService_MergeSessionCart(t *testing.T) {
	products := newMemProductRepo(
		testProduct("prod_1", "500.00", 10),
		testProduct("prod_2", "900.00", 10),
	)
	carts := newMemCartRepo()
	svc := newTestCartService(t, products, carts)

	session := domain.SessionOwner("sess_abc")
	user := domain.UserOwner("user_1")

	if _, err := svc.AddLine(context.Background(), AddCartLineCommand{Owner: session, ProductID: "prod_1", Quantity: 2}); err != nil {
		t.Fatalf("AddLine session: %v", err)
	}
	if _, err := svc.AddLine(context.Background(), AddCartLineCommand{Owner: session, ProductID: "prod_2", Quantity: 1}); err != nil {
		t.Fatalf("AddLine session: %v", err)
	}
	if _, err := svc.AddLine(context.Background(), AddCartLineCommand{Owner: user, ProductID: "prod_1", Quantity: 1}); err != nil {
		t.Fatalf("AddLine user: %v", err)
	}

	merged, err := svc.MergeSessionCart(context.Background(), "sess_abc", "user_1")
	if err != nil {
		t.Fatalf("MergeSessionCart: %v", err)
	}

	if len(merged.Lines) != 2 {
		t.Fatalf("expected 2 merged lines got %d", len(merged.Lines))
	}
	byProduct := make(map[string]int)
	for _, line := range merged.Lines {
		byProduct[line.ProductID] = line.Quantity
	}
	if byProduct["prod_1"] != 3 || byProduct["prod_2"] != 1 {
		t.Fatalf("unexpected merged quantities %v", byProduct)
	}

	if _, err := carts.FindByOwner(context.Background(), session); !isRepoNotFound(err) {
		t.Fatalf("expected session cart to be deleted, got %v", err)
	}
}
