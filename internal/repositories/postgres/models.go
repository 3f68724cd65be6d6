package postgres

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/laptopstore/api/internal/domain"
)

// Persistence models. Money columns are DECIMAL(10,2); the domain layer owns
// rounding, these records only carry values already at scale 2.

type productModel struct {
	ID            string           `gorm:"primaryKey;size:64"`
	Name          string           `gorm:"size:255;not null"`
	Slug          string           `gorm:"size:255;uniqueIndex;not null"`
	SKU           string           `gorm:"column:sku;size:64;uniqueIndex;not null"`
	Price         decimal.Decimal  `gorm:"type:decimal(10,2);not null"`
	SalePrice     *decimal.Decimal `gorm:"type:decimal(10,2)"`
	IsOnSale      bool             `gorm:"not null;default:false"`
	StockQuantity int              `gorm:"not null;default:0;check:stock_quantity >= 0"`
	Availability  string           `gorm:"size:32;not null;default:in_stock"`
	IsActive      bool             `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (productModel) TableName() string { return "products" }

func (m productModel) toDomain() (domain.Product, error) {
	price, err := domain.NewMoney(m.Price)
	if err != nil {
		return domain.Product{}, err
	}
	product := domain.Product{
		ID:            m.ID,
		Name:          m.Name,
		Slug:          m.Slug,
		SKU:           m.SKU,
		Price:         price,
		IsOnSale:      m.IsOnSale,
		StockQuantity: m.StockQuantity,
		Availability:  domain.ProductAvailability(m.Availability),
		IsActive:      m.IsActive,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	if m.SalePrice != nil {
		sale, err := domain.NewMoney(*m.SalePrice)
		if err != nil {
			return domain.Product{}, err
		}
		product.SalePrice = &sale
	}
	return product, nil
}

type productColorModel struct {
	ID              string          `gorm:"primaryKey;size:64"`
	ProductID       string          `gorm:"size:64;index;not null"`
	Name            string          `gorm:"size:128;not null"`
	ColorCode       string          `gorm:"size:16"`
	PriceAdjustment decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	IsAvailable     bool            `gorm:"not null;default:true"`
}

func (productColorModel) TableName() string { return "product_colors" }

func (m productColorModel) toDomain() (domain.ProductColor, error) {
	adjustment, err := domain.NewMoney(m.PriceAdjustment)
	if err != nil {
		return domain.ProductColor{}, err
	}
	return domain.ProductColor{
		ID:              m.ID,
		ProductID:       m.ProductID,
		Name:            m.Name,
		ColorCode:       m.ColorCode,
		PriceAdjustment: adjustment,
		IsAvailable:     m.IsAvailable,
	}, nil
}

// cartModel enforces the owner sum type with a check constraint: exactly one
// of user_id and session_token is set.
type cartModel struct {
	ID           string  `gorm:"primaryKey;size:64"`
	UserID       *string `gorm:"size:64;uniqueIndex;check:chk_cart_owner,(user_id IS NULL) <> (session_token IS NULL)"`
	SessionToken *string `gorm:"size:128;uniqueIndex"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Lines []cartLineModel `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
}

func (cartModel) TableName() string { return "carts" }

func (m cartModel) toDomain() domain.Cart {
	cart := domain.Cart{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	switch {
	case m.UserID != nil:
		cart.Owner = domain.UserOwner(*m.UserID)
	case m.SessionToken != nil:
		cart.Owner = domain.SessionOwner(*m.SessionToken)
	}
	cart.Lines = make([]domain.CartLine, 0, len(m.Lines))
	for _, line := range m.Lines {
		cart.Lines = append(cart.Lines, line.toDomain())
	}
	return cart
}

func cartToModel(cart domain.Cart) cartModel {
	m := cartModel{
		ID:        cart.ID,
		CreatedAt: cart.CreatedAt,
		UpdatedAt: cart.UpdatedAt,
	}
	if userID, ok := cart.Owner.UserID(); ok {
		m.UserID = &userID
	} else if token, ok := cart.Owner.SessionID(); ok {
		m.SessionToken = &token
	}
	return m
}

type cartLineModel struct {
	ID        string  `gorm:"primaryKey;size:64"`
	CartID    string  `gorm:"size:64;uniqueIndex:uniq_cart_product_color;not null"`
	ProductID string  `gorm:"size:64;uniqueIndex:uniq_cart_product_color;not null"`
	ColorID   *string `gorm:"size:64;uniqueIndex:uniq_cart_product_color"`
	Quantity  int     `gorm:"not null;check:quantity > 0"`
	AddedAt   time.Time
	UpdatedAt time.Time
}

func (cartLineModel) TableName() string { return "cart_lines" }

func (m cartLineModel) toDomain() domain.CartLine {
	return domain.CartLine{
		ID:        m.ID,
		CartID:    m.CartID,
		ProductID: m.ProductID,
		ColorID:   m.ColorID,
		Quantity:  m.Quantity,
		AddedAt:   m.AddedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func cartLineToModel(line domain.CartLine) cartLineModel {
	return cartLineModel{
		ID:        line.ID,
		CartID:    line.CartID,
		ProductID: line.ProductID,
		ColorID:   line.ColorID,
		Quantity:  line.Quantity,
		AddedAt:   line.AddedAt,
		UpdatedAt: line.UpdatedAt,
	}
}

type couponModel struct {
	ID                 string          `gorm:"primaryKey;size:64"`
	Code               string          `gorm:"size:64;uniqueIndex;not null"`
	Description        string          `gorm:"size:512"`
	DiscountKind       string          `gorm:"size:16;not null"`
	DiscountValue      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	MinimumOrderAmount decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	IsActive           bool            `gorm:"not null;default:true"`
	ValidFrom          time.Time       `gorm:"not null"`
	ValidTo            time.Time       `gorm:"not null"`
	MaxUses            int             `gorm:"not null;default:0"`
	CurrentUses        int             `gorm:"not null;default:0;check:current_uses >= 0"`
}

func (couponModel) TableName() string { return "coupons" }

func (m couponModel) toDomain() (domain.Coupon, error) {
	value, err := domain.NewMoney(m.DiscountValue)
	if err != nil {
		return domain.Coupon{}, err
	}
	minimum, err := domain.NewMoney(m.MinimumOrderAmount)
	if err != nil {
		return domain.Coupon{}, err
	}
	return domain.Coupon{
		ID:                 m.ID,
		Code:               m.Code,
		Description:        m.Description,
		DiscountKind:       domain.DiscountKind(m.DiscountKind),
		DiscountValue:      value,
		MinimumOrderAmount: minimum,
		IsActive:           m.IsActive,
		ValidFrom:          m.ValidFrom,
		ValidTo:            m.ValidTo,
		MaxUses:            m.MaxUses,
		CurrentUses:        m.CurrentUses,
	}, nil
}

type addressModel struct {
	ID           string `gorm:"primaryKey;size:64"`
	UserID       string `gorm:"size:64;index;not null"`
	Kind         string `gorm:"size:16;not null"`
	FullName     string `gorm:"size:255;not null"`
	AddressLine1 string `gorm:"size:255;not null"`
	AddressLine2 string `gorm:"size:255"`
	City         string `gorm:"size:128;not null"`
	State        string `gorm:"size:128"`
	PostalCode   string `gorm:"size:32;not null"`
	Country      string `gorm:"size:2;not null"`
	Phone        string `gorm:"size:32"`
	IsDefault    bool   `gorm:"not null;default:false"`
}

func (addressModel) TableName() string { return "addresses" }

func (m addressModel) toDomain() domain.Address {
	return domain.Address{
		ID:           m.ID,
		UserID:       m.UserID,
		Kind:         domain.AddressKind(m.Kind),
		FullName:     m.FullName,
		AddressLine1: m.AddressLine1,
		AddressLine2: m.AddressLine2,
		City:         m.City,
		State:        m.State,
		PostalCode:   m.PostalCode,
		Country:      m.Country,
		Phone:        m.Phone,
		IsDefault:    m.IsDefault,
	}
}

func addressToModel(address domain.Address) addressModel {
	return addressModel{
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

type orderModel struct {
	ID            string  `gorm:"primaryKey;size:64"`
	OrderNumber   string  `gorm:"size:16;uniqueIndex;not null"`
	UserID        *string `gorm:"size:64;index"`
	Status        string  `gorm:"size:16;not null;default:pending"`
	PaymentStatus string  `gorm:"size:24;not null;default:pending"`

	ShippingAddressID *string `gorm:"size:64;constraint:OnDelete:SET NULL"`
	BillingAddressID  *string `gorm:"size:64;constraint:OnDelete:SET NULL"`

	Subtotal     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	ShippingCost decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Tax          decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Discount     decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Total        decimal.Decimal `gorm:"type:decimal(10,2);not null;check:total >= 0"`

	CouponID   *string `gorm:"size:64;constraint:OnDelete:SET NULL"`
	CouponCode string  `gorm:"size:64"`

	CreatedAt   time.Time
	UpdatedAt   time.Time
	PaidAt      *time.Time
	ShippedAt   *time.Time
	DeliveredAt *time.Time
	CancelledAt *time.Time

	CustomerNotes string `gorm:"type:text"`
	AdminNotes    string `gorm:"type:text"`

	Items []orderItemModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (orderModel) TableName() string { return "orders" }

func (m orderModel) toDomain() (domain.Order, error) {
	subtotal, err := domain.NewMoney(m.Subtotal)
	if err != nil {
		return domain.Order{}, err
	}
	shipping, err := domain.NewMoney(m.ShippingCost)
	if err != nil {
		return domain.Order{}, err
	}
	tax, err := domain.NewMoney(m.Tax)
	if err != nil {
		return domain.Order{}, err
	}
	discount, err := domain.NewMoney(m.Discount)
	if err != nil {
		return domain.Order{}, err
	}
	total, err := domain.NewMoney(m.Total)
	if err != nil {
		return domain.Order{}, err
	}

	order := domain.Order{
		ID:                m.ID,
		OrderNumber:       m.OrderNumber,
		UserID:            m.UserID,
		Status:            domain.OrderStatus(m.Status),
		PaymentStatus:     domain.PaymentStatus(m.PaymentStatus),
		ShippingAddressID: m.ShippingAddressID,
		BillingAddressID:  m.BillingAddressID,
		Subtotal:          subtotal,
		ShippingCost:      shipping,
		Tax:               tax,
		Discount:          discount,
		Total:             total,
		CouponID:          m.CouponID,
		CouponCode:        m.CouponCode,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
		PaidAt:            m.PaidAt,
		ShippedAt:         m.ShippedAt,
		DeliveredAt:       m.DeliveredAt,
		CancelledAt:       m.CancelledAt,
		CustomerNotes:     m.CustomerNotes,
		AdminNotes:        m.AdminNotes,
	}
	order.Items = make([]domain.OrderItem, 0, len(m.Items))
	for _, item := range m.Items {
		converted, err := item.toDomain()
		if err != nil {
			return domain.Order{}, err
		}
		order.Items = append(order.Items, converted)
	}
	return order, nil
}

func orderToModel(order domain.Order) orderModel {
	m := orderModel{
		ID:                order.ID,
		OrderNumber:       order.OrderNumber,
		UserID:            order.UserID,
		Status:            string(order.Status),
		PaymentStatus:     string(order.PaymentStatus),
		ShippingAddressID: order.ShippingAddressID,
		BillingAddressID:  order.BillingAddressID,
		Subtotal:          order.Subtotal.Decimal(),
		ShippingCost:      order.ShippingCost.Decimal(),
		Tax:               order.Tax.Decimal(),
		Discount:          order.Discount.Decimal(),
		Total:             order.Total.Decimal(),
		CouponID:          order.CouponID,
		CouponCode:        order.CouponCode,
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
		PaidAt:            order.PaidAt,
		ShippedAt:         order.ShippedAt,
		DeliveredAt:       order.DeliveredAt,
		CancelledAt:       order.CancelledAt,
		CustomerNotes:     order.CustomerNotes,
		AdminNotes:        order.AdminNotes,
	}
	m.Items = make([]orderItemModel, 0, len(order.Items))
	for _, item := range order.Items {
		m.Items = append(m.Items, orderItemToModel(item))
	}
	return m
}

// orderItemModel keeps product_id nullable with SET NULL so deleting a
// product never mutates the frozen text fields.
type orderItemModel struct {
	ID          string          `gorm:"primaryKey;size:64"`
	OrderID     string          `gorm:"size:64;index;not null"`
	ProductID   *string         `gorm:"size:64;constraint:OnDelete:SET NULL"`
	ProductName string          `gorm:"size:255;not null"`
	ProductSKU  string          `gorm:"column:product_sku;size:64;not null"`
	Color       string          `gorm:"size:128"`
	Quantity    int             `gorm:"not null;check:quantity > 0"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
}

func (orderItemModel) TableName() string { return "order_items" }

func (m orderItemModel) toDomain() (domain.OrderItem, error) {
	unitPrice, err := domain.NewMoney(m.UnitPrice)
	if err != nil {
		return domain.OrderItem{}, err
	}
	lineTotal, err := domain.NewMoney(m.LineTotal)
	if err != nil {
		return domain.OrderItem{}, err
	}
	return domain.OrderItem{
		ID:          m.ID,
		OrderID:     m.OrderID,
		ProductID:   m.ProductID,
		ProductName: m.ProductName,
		ProductSKU:  m.ProductSKU,
		Color:       m.Color,
		Quantity:    m.Quantity,
		UnitPrice:   unitPrice,
		LineTotal:   lineTotal,
	}, nil
}

func orderItemToModel(item domain.OrderItem) orderItemModel {
	return orderItemModel{
		ID:          item.ID,
		OrderID:     item.OrderID,
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		ProductSKU:  item.ProductSKU,
		Color:       item.Color,
		Quantity:    item.Quantity,
		UnitPrice:   item.UnitPrice.Decimal(),
		LineTotal:   item.LineTotal.Decimal(),
	}
}

type orderStatusUpdateModel struct {
	ID        string  `gorm:"primaryKey;size:64"`
	OrderID   string  `gorm:"size:64;index;not null"`
	Status    string  `gorm:"size:16;not null"`
	Notes     string  `gorm:"type:text"`
	CreatedAt time.Time
	CreatedBy *string `gorm:"size:64"`
}

func (orderStatusUpdateModel) TableName() string { return "order_status_updates" }

func (m orderStatusUpdateModel) toDomain() domain.OrderStatusUpdate {
	return domain.OrderStatusUpdate{
		ID:        m.ID,
		OrderID:   m.OrderID,
		Status:    domain.OrderStatus(m.Status),
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt,
		CreatedBy: m.CreatedBy,
	}
}

type paymentModel struct {
	ID              string          `gorm:"primaryKey;size:64"`
	OrderID         string          `gorm:"size:64;index;not null"`
	Method          string          `gorm:"size:24;not null"`
	Amount          decimal.Decimal `gorm:"type:decimal(10,2);not null;check:amount > 0"`
	Status          string          `gorm:"size:16;not null;default:pending"`
	TransactionID   string          `gorm:"size:128;index"`
	GatewayOrderID  string          `gorm:"size:128"`
	GatewayResponse []byte          `gorm:"type:jsonb"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (paymentModel) TableName() string { return "payments" }

func (m paymentModel) toDomain() (domain.Payment, error) {
	amount, err := domain.NewMoney(m.Amount)
	if err != nil {
		return domain.Payment{}, err
	}
	response, err := decodeJSONBlob(m.GatewayResponse)
	if err != nil {
		return domain.Payment{}, err
	}
	return domain.Payment{
		ID:              m.ID,
		OrderID:         m.OrderID,
		Method:          domain.PaymentMethod(m.Method),
		Amount:          amount,
		Status:          domain.PaymentState(m.Status),
		TransactionID:   m.TransactionID,
		GatewayOrderID:  m.GatewayOrderID,
		GatewayResponse: response,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}, nil
}

func paymentToModel(payment domain.Payment) (paymentModel, error) {
	blob, err := encodeJSONBlob(payment.GatewayResponse)
	if err != nil {
		return paymentModel{}, err
	}
	return paymentModel{
		ID:              payment.ID,
		OrderID:         payment.OrderID,
		Method:          string(payment.Method),
		Amount:          payment.Amount.Decimal(),
		Status:          string(payment.Status),
		TransactionID:   payment.TransactionID,
		GatewayOrderID:  payment.GatewayOrderID,
		GatewayResponse: blob,
		CreatedAt:       payment.CreatedAt,
		UpdatedAt:       payment.UpdatedAt,
	}, nil
}

type paymentRefundModel struct {
	ID              string          `gorm:"primaryKey;size:64"`
	PaymentID       string          `gorm:"size:64;index;not null"`
	Amount          decimal.Decimal `gorm:"type:decimal(10,2);not null;check:amount > 0"`
	Reason          string          `gorm:"type:text"`
	Status          string          `gorm:"size:16;not null;default:pending"`
	TransactionID   string          `gorm:"size:128"`
	GatewayResponse []byte          `gorm:"type:jsonb"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (paymentRefundModel) TableName() string { return "payment_refunds" }

func (m paymentRefundModel) toDomain() (domain.PaymentRefund, error) {
	amount, err := domain.NewMoney(m.Amount)
	if err != nil {
		return domain.PaymentRefund{}, err
	}
	response, err := decodeJSONBlob(m.GatewayResponse)
	if err != nil {
		return domain.PaymentRefund{}, err
	}
	return domain.PaymentRefund{
		ID:              m.ID,
		PaymentID:       m.PaymentID,
		Amount:          amount,
		Reason:          m.Reason,
		Status:          domain.PaymentRefundState(m.Status),
		TransactionID:   m.TransactionID,
		GatewayResponse: response,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}, nil
}

func paymentRefundToModel(refund domain.PaymentRefund) (paymentRefundModel, error) {
	blob, err := encodeJSONBlob(refund.GatewayResponse)
	if err != nil {
		return paymentRefundModel{}, err
	}
	return paymentRefundModel{
		ID:              refund.ID,
		PaymentID:       refund.PaymentID,
		Amount:          refund.Amount.Decimal(),
		Reason:          refund.Reason,
		Status:          string(refund.Status),
		TransactionID:   refund.TransactionID,
		GatewayResponse: blob,
		CreatedAt:       refund.CreatedAt,
		UpdatedAt:       refund.UpdatedAt,
	}, nil
}

type orderRefundModel struct {
	ID          string          `gorm:"primaryKey;size:64"`
	OrderID     string          `gorm:"size:64;index;not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(10,2);not null;check:amount > 0"`
	Reason      string          `gorm:"type:text"`
	Status      string          `gorm:"size:16;not null;default:pending"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ProcessedAt *time.Time
	ProcessedBy *string `gorm:"size:64"`
}

func (orderRefundModel) TableName() string { return "order_refunds" }

func (m orderRefundModel) toDomain() (domain.OrderRefund, error) {
	amount, err := domain.NewMoney(m.Amount)
	if err != nil {
		return domain.OrderRefund{}, err
	}
	return domain.OrderRefund{
		ID:          m.ID,
		OrderID:     m.OrderID,
		Amount:      amount,
		Reason:      m.Reason,
		Status:      domain.OrderRefundState(m.Status),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		ProcessedAt: m.ProcessedAt,
		ProcessedBy: m.ProcessedBy,
	}, nil
}

func orderRefundToModel(refund domain.OrderRefund) orderRefundModel {
	return orderRefundModel{
		ID:          refund.ID,
		OrderID:     refund.OrderID,
		Amount:      refund.Amount.Decimal(),
		Reason:      refund.Reason,
		Status:      string(refund.Status),
		CreatedAt:   refund.CreatedAt,
		UpdatedAt:   refund.UpdatedAt,
		ProcessedAt: refund.ProcessedAt,
		ProcessedBy: refund.ProcessedBy,
	}
}

func encodeJSONBlob(values map[string]any) ([]byte, error) {
	if len(values) == 0 {
		return nil, nil
	}
	return json.Marshal(values)
}

func decodeJSONBlob(blob []byte) (map[string]any, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	var values map[string]any
	if err := json.Unmarshal(blob, &values); err != nil {
		return nil, err
	}
	return values, nil
}
