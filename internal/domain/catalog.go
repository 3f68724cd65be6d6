package domain

import "github.com/shopspring/decimal"

// CurrentPrice returns the effective catalog price: the sale price while a
// sale is active, the base price otherwise.
func CurrentPrice(p Product) Money {
	if p.IsOnSale && p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}

// UnitPrice resolves the per-unit price of a product with an optional colour
// bound, floored at zero.
func UnitPrice(p Product, color *ProductColor) (Money, error) {
	price := CurrentPrice(p)
	if color == nil {
		return price.ClampZero(), nil
	}
	adjusted, err := price.Add(color.PriceAdjustment)
	if err != nil {
		return Money{}, err
	}
	return adjusted.ClampZero(), nil
}

// DiscountPercentage computes the integer sale discount percentage, truncated
// toward zero. Zero when the product is not on sale or has no base price.
func DiscountPercentage(p Product) int {
	if !p.IsOnSale || p.SalePrice == nil || !p.Price.IsPositive() {
		return 0
	}
	diff := p.Price.Decimal().Sub(p.SalePrice.Decimal())
	pct := diff.Div(p.Price.Decimal()).Mul(decimal.NewFromInt(100))
	return int(pct.IntPart())
}

// Purchasable reports whether a product can be placed into an order.
func Purchasable(p Product) bool {
	return p.IsActive && p.Availability == AvailabilityInStock
}
