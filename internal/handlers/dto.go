package handlers

import (
	"time"

	"github.com/laptopstore/api/internal/domain"
)

type productResponse struct {
	ID                 string        `json:"id"`
	Name               string        `json:"name"`
	Slug               string        `json:"slug"`
	SKU                string        `json:"sku"`
	Price              domain.Money  `json:"price"`
	SalePrice          *domain.Money `json:"sale_price,omitempty"`
	IsOnSale           bool          `json:"is_on_sale"`
	CurrentPrice       domain.Money  `json:"current_price"`
	DiscountPercentage int           `json:"discount_percentage"`
	StockQuantity      int           `json:"stock_quantity"`
	Availability       string        `json:"availability"`
	IsActive           bool          `json:"is_active"`
}

func renderProduct(product domain.Product) productResponse {
	return productResponse{
		ID:                 product.ID,
		Name:               product.Name,
		Slug:               product.Slug,
		SKU:                product.SKU,
		Price:              product.Price,
		SalePrice:          product.SalePrice,
		IsOnSale:           product.IsOnSale,
		CurrentPrice:       domain.CurrentPrice(product),
		DiscountPercentage: domain.DiscountPercentage(product),
		StockQuantity:      product.StockQuantity,
		Availability:       string(product.Availability),
		IsActive:           product.IsActive,
	}
}

type cartResponse struct {
	ID           string             `json:"id"`
	UserID       string             `json:"user_id,omitempty"`
	SessionToken string             `json:"session_token,omitempty"`
	Lines        []cartLineResponse `json:"lines"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

type cartLineResponse struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	ColorID   *string   `json:"color_id,omitempty"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func renderCart(cart domain.Cart) cartResponse {
	resp := cartResponse{
		ID:        cart.ID,
		Lines:     make([]cartLineResponse, 0, len(cart.Lines)),
		CreatedAt: cart.CreatedAt,
		UpdatedAt: cart.UpdatedAt,
	}
	if userID, ok := cart.Owner.UserID(); ok {
		resp.UserID = userID
	}
	if token, ok := cart.Owner.SessionID(); ok {
		resp.SessionToken = token
	}
	for _, line := range cart.Lines {
		resp.Lines = append(resp.Lines, cartLineResponse{
			ID:        line.ID,
			ProductID: line.ProductID,
			ColorID:   line.ColorID,
			Quantity:  line.Quantity,
			AddedAt:   line.AddedAt,
			UpdatedAt: line.UpdatedAt,
		})
	}
	return resp
}

type aggregateResponse struct {
	CartID   string                  `json:"cart_id"`
	Lines    []aggregateLineResponse `json:"lines"`
	Subtotal domain.Money            `json:"subtotal"`
}

type aggregateLineResponse struct {
	ProductID   string       `json:"product_id"`
	ProductName string       `json:"product_name"`
	ProductSKU  string       `json:"product_sku"`
	ColorID     *string      `json:"color_id,omitempty"`
	ColorName   string       `json:"color_name,omitempty"`
	Quantity    int          `json:"quantity"`
	UnitPrice   domain.Money `json:"unit_price"`
	LineTotal   domain.Money `json:"line_total"`
}

func renderAggregate(agg domain.CartAggregate) aggregateResponse {
	resp := aggregateResponse{
		CartID:   agg.CartID,
		Lines:    make([]aggregateLineResponse, 0, len(agg.Lines)),
		Subtotal: agg.Subtotal,
	}
	for _, line := range agg.Lines {
		resp.Lines = append(resp.Lines, aggregateLineResponse{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			ProductSKU:  line.ProductSKU,
			ColorID:     line.ColorID,
			ColorName:   line.ColorName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			LineTotal:   line.LineTotal,
		})
	}
	return resp
}

type quoteResponse struct {
	Subtotal               domain.Money `json:"subtotal"`
	ShippingCost           domain.Money `json:"shipping_cost"`
	Tax                    domain.Money `json:"tax"`
	Discount               domain.Money `json:"discount"`
	Total                  domain.Money `json:"total"`
	CouponCode             string       `json:"coupon_code,omitempty"`
	DiscountExceedsCharges bool         `json:"discount_exceeds_charges,omitempty"`
}

func renderQuote(quote domain.Quote) quoteResponse {
	return quoteResponse{
		Subtotal:               quote.Subtotal,
		ShippingCost:           quote.ShippingCost,
		Tax:                    quote.Tax,
		Discount:               quote.Discount,
		Total:                  quote.Total,
		CouponCode:             quote.CouponCode,
		DiscountExceedsCharges: quote.DiscountExceedsCharges,
	}
}

type orderResponse struct {
	ID            string  `json:"id"`
	OrderNumber   string  `json:"order_number"`
	UserID        *string `json:"user_id,omitempty"`
	Status        string  `json:"status"`
	PaymentStatus string  `json:"payment_status"`

	ShippingAddressID *string `json:"shipping_address_id,omitempty"`
	BillingAddressID  *string `json:"billing_address_id,omitempty"`

	Subtotal     domain.Money `json:"subtotal"`
	ShippingCost domain.Money `json:"shipping_cost"`
	Tax          domain.Money `json:"tax"`
	Discount     domain.Money `json:"discount"`
	Total        domain.Money `json:"total"`

	CouponCode string `json:"coupon_code,omitempty"`

	Items []orderItemResponse `json:"items"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	ShippedAt   *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	CustomerNotes string `json:"customer_notes,omitempty"`
}

type orderItemResponse struct {
	ID          string       `json:"id"`
	ProductID   *string      `json:"product_id,omitempty"`
	ProductName string       `json:"product_name"`
	ProductSKU  string       `json:"product_sku"`
	Color       string       `json:"color,omitempty"`
	Quantity    int          `json:"quantity"`
	UnitPrice   domain.Money `json:"unit_price"`
	LineTotal   domain.Money `json:"line_total"`
}

func renderOrder(order domain.Order) orderResponse {
	resp := orderResponse{
		ID:                order.ID,
		OrderNumber:       order.OrderNumber,
		UserID:            order.UserID,
		Status:            string(order.Status),
		PaymentStatus:     string(order.PaymentStatus),
		ShippingAddressID: order.ShippingAddressID,
		BillingAddressID:  order.BillingAddressID,
		Subtotal:          order.Subtotal,
		ShippingCost:      order.ShippingCost,
		Tax:               order.Tax,
		Discount:          order.Discount,
		Total:             order.Total,
		CouponCode:        order.CouponCode,
		Items:             make([]orderItemResponse, 0, len(order.Items)),
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
		PaidAt:            order.PaidAt,
		ShippedAt:         order.ShippedAt,
		DeliveredAt:       order.DeliveredAt,
		CancelledAt:       order.CancelledAt,
		CustomerNotes:     order.CustomerNotes,
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			ProductSKU:  item.ProductSKU,
			Color:       item.Color,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
		})
	}
	return resp
}

type statusUpdateResponse struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy *string   `json:"created_by,omitempty"`
}

func renderStatusUpdates(updates []domain.OrderStatusUpdate) []statusUpdateResponse {
	out := make([]statusUpdateResponse, 0, len(updates))
	for _, update := range updates {
		out = append(out, statusUpdateResponse{
			ID:        update.ID,
			Status:    string(update.Status),
			Notes:     update.Notes,
			CreatedAt: update.CreatedAt,
			CreatedBy: update.CreatedBy,
		})
	}
	return out
}

type paymentResponse struct {
	ID             string       `json:"id"`
	OrderID        string       `json:"order_id"`
	Method         string       `json:"method"`
	Amount         domain.Money `json:"amount"`
	Status         string       `json:"status"`
	TransactionID  string       `json:"transaction_id,omitempty"`
	GatewayOrderID string       `json:"gateway_order_id,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

func renderPayment(payment domain.Payment) paymentResponse {
	return paymentResponse{
		ID:             payment.ID,
		OrderID:        payment.OrderID,
		Method:         string(payment.Method),
		Amount:         payment.Amount,
		Status:         string(payment.Status),
		TransactionID:  payment.TransactionID,
		GatewayOrderID: payment.GatewayOrderID,
		CreatedAt:      payment.CreatedAt,
		UpdatedAt:      payment.UpdatedAt,
	}
}

type orderRefundResponse struct {
	ID          string       `json:"id"`
	OrderID     string       `json:"order_id"`
	Amount      domain.Money `json:"amount"`
	Reason      string       `json:"reason,omitempty"`
	Status      string       `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	ProcessedAt *time.Time   `json:"processed_at,omitempty"`
	ProcessedBy *string      `json:"processed_by,omitempty"`
}

func renderOrderRefund(refund domain.OrderRefund) orderRefundResponse {
	return orderRefundResponse{
		ID:          refund.ID,
		OrderID:     refund.OrderID,
		Amount:      refund.Amount,
		Reason:      refund.Reason,
		Status:      string(refund.Status),
		CreatedAt:   refund.CreatedAt,
		UpdatedAt:   refund.UpdatedAt,
		ProcessedAt: refund.ProcessedAt,
		ProcessedBy: refund.ProcessedBy,
	}
}

type addressResponse struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	Kind         string `json:"kind"`
	FullName     string `json:"full_name"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state,omitempty"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
	Phone        string `json:"phone,omitempty"`
	IsDefault    bool   `json:"is_default"`
}

func renderAddress(address domain.Address) addressResponse {
	return addressResponse{
		ID:           address.ID,
		UserID:       address.UserID,
		Kind:         string(address.Kind),
		FullName:     address.FullName,
		AddressLine1: address.AddressLine1,
		AddressLine2: address.AddressLine2,
		City:         address.City,
		State:        address.State,
		PostalCode:   address.PostalCode,
		Country:      address.Country,
		Phone:        address.Phone,
		IsDefault:    address.IsDefault,
	}
}
