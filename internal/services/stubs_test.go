package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/laptopstore/api/internal/domain"
	"github.com/laptopstore/api/internal/payments"
	"github.com/laptopstore/api/internal/repositories"
)

// In-memory repository stubs shared by the service tests. They implement the
// same conditional-update semantics the Postgres layer promises, so races on
// stock and coupon usage can be simulated deterministically.

type memProductRepo struct {
	products map[string]domain.Product
	colors   map[string]domain.ProductColor

	decrementErr error
}

func newMemProductRepo(products ...domain.Product) *memProductRepo {
	repo := &memProductRepo{
		products: make(map[string]domain.Product),
		colors:   make(map[string]domain.ProductColor),
	}
	for _, p := range products {
		repo.products[p.ID] = p
	}
	return repo
}

func (r *memProductRepo) addColor(color domain.ProductColor) {
	r.colors[color.ID] = color
}

func (r *memProductRepo) FindByID(_ context.Context, productID string) (domain.Product, error) {
	product, ok := r.products[productID]
	if !ok {
		return domain.Product{}, repositories.NotFoundError("product.find", fmt.Errorf("id %s", productID))
	}
	return product, nil
}

func (r *memProductRepo) FindColor(_ context.Context, colorID string) (domain.ProductColor, error) {
	color, ok := r.colors[colorID]
	if !ok {
		return domain.ProductColor{}, repositories.NotFoundError("color.find", fmt.Errorf("id %s", colorID))
	}
	return color, nil
}

func (r *memProductRepo) DecrementStock(_ context.Context, productID string, qty int) error {
	if r.decrementErr != nil {
		return r.decrementErr
	}
	product, ok := r.products[productID]
	if !ok {
		return repositories.NotFoundError("product.decrement", fmt.Errorf("id %s", productID))
	}
	if product.StockQuantity < qty {
		return repositories.ConflictError("product.decrement", fmt.Errorf("stock %d < %d", product.StockQuantity, qty))
	}
	product.StockQuantity -= qty
	r.products[productID] = product
	return nil
}

func (r *memProductRepo) IncrementStock(_ context.Context, productID string, qty int) error {
	product, ok := r.products[productID]
	if !ok {
		return repositories.NotFoundError("product.increment", fmt.Errorf("id %s", productID))
	}
	product.StockQuantity += qty
	r.products[productID] = product
	return nil
}

type memCartRepo struct {
	carts map[string]domain.Cart
	lines map[string]domain.CartLine
}

func newMemCartRepo() *memCartRepo {
	return &memCartRepo{
		carts: make(map[string]domain.Cart),
		lines: make(map[string]domain.CartLine),
	}
}

func (r *memCartRepo) Create(_ context.Context, cart domain.Cart) (domain.Cart, error) {
	r.carts[cart.ID] = cart
	return cart, nil
}

func (r *memCartRepo) FindByID(_ context.Context, cartID string) (domain.Cart, error) {
	cart, ok := r.carts[cartID]
	if !ok {
		return domain.Cart{}, repositories.NotFoundError("cart.find", fmt.Errorf("id %s", cartID))
	}
	cart.Lines = r.linesFor(cartID)
	return cart, nil
}

func (r *memCartRepo) FindByOwner(_ context.Context, owner domain.CartOwner) (domain.Cart, error) {
	for _, cart := range r.carts {
		if cart.Owner == owner {
			cart.Lines = r.linesFor(cart.ID)
			return cart, nil
		}
	}
	return domain.Cart{}, repositories.NotFoundError("cart.findByOwner", fmt.Errorf("no cart"))
}

func (r *memCartRepo) Delete(_ context.Context, cartID string) error {
	delete(r.carts, cartID)
	for id, line := range r.lines {
		if line.CartID == cartID {
			delete(r.lines, id)
		}
	}
	return nil
}

func (r *memCartRepo) InsertLine(_ context.Context, line domain.CartLine) (domain.CartLine, error) {
	r.lines[line.ID] = line
	return line, nil
}

func (r *memCartRepo) UpdateLine(_ context.Context, line domain.CartLine) error {
	if _, ok := r.lines[line.ID]; !ok {
		return repositories.NotFoundError("cart.updateLine", fmt.Errorf("id %s", line.ID))
	}
	r.lines[line.ID] = line
	return nil
}

func (r *memCartRepo) FindLine(_ context.Context, cartID, productID string, colorID *string) (domain.CartLine, error) {
	for _, line := range r.lines {
		if line.CartID == cartID && line.ProductID == productID && samePointer(line.ColorID, colorID) {
			return line, nil
		}
	}
	return domain.CartLine{}, repositories.NotFoundError("cart.findLine", fmt.Errorf("no line"))
}

func (r *memCartRepo) DeleteLine(_ context.Context, lineID string) error {
	delete(r.lines, lineID)
	return nil
}

func (r *memCartRepo) ClearLines(_ context.Context, cartID string) error {
	for id, line := range r.lines {
		if line.CartID == cartID {
			delete(r.lines, id)
		}
	}
	return nil
}

func (r *memCartRepo) linesFor(cartID string) []domain.CartLine {
	var lines []domain.CartLine
	for _, line := range r.lines {
		if line.CartID == cartID {
			lines = append(lines, line)
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ID < lines[j].ID })
	return lines
}

type memCouponRepo struct {
	coupons map[string]domain.Coupon

	incrementCalls int
	decrementCalls int
}

func newMemCouponRepo(coupons ...domain.Coupon) *memCouponRepo {
	repo := &memCouponRepo{coupons: make(map[string]domain.Coupon)}
	for _, c := range coupons {
		repo.coupons[c.ID] = c
	}
	return repo
}

func (r *memCouponRepo) FindByCode(_ context.Context, normalizedCode string) (domain.Coupon, error) {
	for _, coupon := range r.coupons {
		if coupon.Code == normalizedCode {
			return coupon, nil
		}
	}
	return domain.Coupon{}, repositories.NotFoundError("coupon.find", fmt.Errorf("code %s", normalizedCode))
}

func (r *memCouponRepo) IncrementUsage(_ context.Context, couponID string) error {
	r.incrementCalls++
	coupon, ok := r.coupons[couponID]
	if !ok {
		return repositories.NotFoundError("coupon.increment", fmt.Errorf("id %s", couponID))
	}
	if coupon.MaxUses > 0 && coupon.CurrentUses >= coupon.MaxUses {
		return repositories.ConflictError("coupon.increment", fmt.Errorf("uses %d/%d", coupon.CurrentUses, coupon.MaxUses))
	}
	coupon.CurrentUses++
	r.coupons[couponID] = coupon
	return nil
}

func (r *memCouponRepo) DecrementUsage(_ context.Context, couponID string) error {
	r.decrementCalls++
	coupon, ok := r.coupons[couponID]
	if !ok {
		return repositories.NotFoundError("coupon.decrement", fmt.Errorf("id %s", couponID))
	}
	if coupon.CurrentUses > 0 {
		coupon.CurrentUses--
	}
	r.coupons[couponID] = coupon
	return nil
}

type memOrderRepo struct {
	orders  map[string]domain.Order
	updates []domain.OrderStatusUpdate
}

func newMemOrderRepo(orders ...domain.Order) *memOrderRepo {
	repo := &memOrderRepo{orders: make(map[string]domain.Order)}
	for _, o := range orders {
		repo.orders[o.ID] = o
	}
	return repo
}

func (r *memOrderRepo) Insert(_ context.Context, order domain.Order) error {
	for _, existing := range r.orders {
		if existing.OrderNumber == order.OrderNumber {
			return repositories.ConflictError("order.insert", fmt.Errorf("number %s", order.OrderNumber))
		}
	}
	r.orders[order.ID] = order
	return nil
}

func (r *memOrderRepo) Update(_ context.Context, order domain.Order) error {
	if _, ok := r.orders[order.ID]; !ok {
		return repositories.NotFoundError("order.update", fmt.Errorf("id %s", order.ID))
	}
	r.orders[order.ID] = order
	return nil
}

func (r *memOrderRepo) FindByID(_ context.Context, orderID string) (domain.Order, error) {
	order, ok := r.orders[orderID]
	if !ok {
		return domain.Order{}, repositories.NotFoundError("order.find", fmt.Errorf("id %s", orderID))
	}
	return order, nil
}

func (r *memOrderRepo) FindByNumber(_ context.Context, orderNumber string) (domain.Order, error) {
	for _, order := range r.orders {
		if order.OrderNumber == orderNumber {
			return order, nil
		}
	}
	return domain.Order{}, repositories.NotFoundError("order.findByNumber", fmt.Errorf("number %s", orderNumber))
}

func (r *memOrderRepo) List(_ context.Context, filter repositories.OrderListFilter) ([]domain.Order, error) {
	var out []domain.Order
	for _, order := range r.orders {
		if filter.UserID != "" && (order.UserID == nil || *order.UserID != filter.UserID) {
			continue
		}
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		out = append(out, order)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memOrderRepo) AppendStatusUpdate(_ context.Context, update domain.OrderStatusUpdate) error {
	r.updates = append(r.updates, update)
	return nil
}

func (r *memOrderRepo) ListStatusUpdates(_ context.Context, orderID string) ([]domain.OrderStatusUpdate, error) {
	var out []domain.OrderStatusUpdate
	for _, update := range r.updates {
		if update.OrderID == orderID {
			out = append(out, update)
		}
	}
	return out, nil
}

type memPaymentRepo struct {
	payments map[string]domain.Payment
	order    []string
}

func newMemPaymentRepo(existing ...domain.Payment) *memPaymentRepo {
	repo := &memPaymentRepo{payments: make(map[string]domain.Payment)}
	for _, p := range existing {
		repo.payments[p.ID] = p
		repo.order = append(repo.order, p.ID)
	}
	return repo
}

func (r *memPaymentRepo) Insert(_ context.Context, payment domain.Payment) error {
	r.payments[payment.ID] = payment
	r.order = append(r.order, payment.ID)
	return nil
}

func (r *memPaymentRepo) Update(_ context.Context, payment domain.Payment) error {
	if _, ok := r.payments[payment.ID]; !ok {
		return repositories.NotFoundError("payment.update", fmt.Errorf("id %s", payment.ID))
	}
	r.payments[payment.ID] = payment
	return nil
}

func (r *memPaymentRepo) FindByID(_ context.Context, paymentID string) (domain.Payment, error) {
	payment, ok := r.payments[paymentID]
	if !ok {
		return domain.Payment{}, repositories.NotFoundError("payment.find", fmt.Errorf("id %s", paymentID))
	}
	return payment, nil
}

func (r *memPaymentRepo) ListByOrder(_ context.Context, orderID string) ([]domain.Payment, error) {
	var out []domain.Payment
	for _, id := range r.order {
		if p := r.payments[id]; p.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memPaymentRepo) SumCompletedByOrder(_ context.Context, orderID string) (domain.Money, error) {
	sum := domain.Zero()
	for _, id := range r.order {
		p := r.payments[id]
		if p.OrderID != orderID || p.Status != domain.PaymentCompleted {
			continue
		}
		var err error
		sum, err = sum.Add(p.Amount)
		if err != nil {
			return domain.Money{}, err
		}
	}
	return sum, nil
}

type memRefundRepo struct {
	orderRefunds   map[string]domain.OrderRefund
	paymentRefunds map[string]domain.PaymentRefund
}

func newMemRefundRepo() *memRefundRepo {
	return &memRefundRepo{
		orderRefunds:   make(map[string]domain.OrderRefund),
		paymentRefunds: make(map[string]domain.PaymentRefund),
	}
}

func (r *memRefundRepo) InsertOrderRefund(_ context.Context, refund domain.OrderRefund) error {
	r.orderRefunds[refund.ID] = refund
	return nil
}

func (r *memRefundRepo) UpdateOrderRefund(_ context.Context, refund domain.OrderRefund) error {
	if _, ok := r.orderRefunds[refund.ID]; !ok {
		return repositories.NotFoundError("refund.update", fmt.Errorf("id %s", refund.ID))
	}
	r.orderRefunds[refund.ID] = refund
	return nil
}

func (r *memRefundRepo) FindOrderRefund(_ context.Context, refundID string) (domain.OrderRefund, error) {
	refund, ok := r.orderRefunds[refundID]
	if !ok {
		return domain.OrderRefund{}, repositories.NotFoundError("refund.find", fmt.Errorf("id %s", refundID))
	}
	return refund, nil
}

func (r *memRefundRepo) ListOrderRefundsByOrder(_ context.Context, orderID string) ([]domain.OrderRefund, error) {
	var out []domain.OrderRefund
	for _, refund := range r.orderRefunds {
		if refund.OrderID == orderID {
			out = append(out, refund)
		}
	}
	return out, nil
}

func (r *memRefundRepo) SumCompletedOrderRefunds(_ context.Context, orderID string) (domain.Money, error) {
	sum := domain.Zero()
	for _, refund := range r.orderRefunds {
		if refund.OrderID != orderID || refund.Status != domain.OrderRefundCompleted {
			continue
		}
		var err error
		sum, err = sum.Add(refund.Amount)
		if err != nil {
			return domain.Money{}, err
		}
	}
	return sum, nil
}

func (r *memRefundRepo) InsertPaymentRefund(_ context.Context, refund domain.PaymentRefund) error {
	r.paymentRefunds[refund.ID] = refund
	return nil
}

func (r *memRefundRepo) UpdatePaymentRefund(_ context.Context, refund domain.PaymentRefund) error {
	if _, ok := r.paymentRefunds[refund.ID]; !ok {
		return repositories.NotFoundError("paymentRefund.update", fmt.Errorf("id %s", refund.ID))
	}
	r.paymentRefunds[refund.ID] = refund
	return nil
}

func (r *memRefundRepo) ListPaymentRefundsByPayment(_ context.Context, paymentID string) ([]domain.PaymentRefund, error) {
	var out []domain.PaymentRefund
	for _, refund := range r.paymentRefunds {
		if refund.PaymentID == paymentID {
			out = append(out, refund)
		}
	}
	return out, nil
}

func (r *memRefundRepo) SumCompletedPaymentRefunds(_ context.Context, paymentID string) (domain.Money, error) {
	sum := domain.Zero()
	for _, refund := range r.paymentRefunds {
		if refund.PaymentID != paymentID || refund.Status != domain.PaymentRefundCompleted {
			continue
		}
		var err error
		sum, err = sum.Add(refund.Amount)
		if err != nil {
			return domain.Money{}, err
		}
	}
	return sum, nil
}

type memAddressRepo struct {
	addresses map[string]domain.Address
}

func newMemAddressRepo(addresses ...domain.Address) *memAddressRepo {
	repo := &memAddressRepo{addresses: make(map[string]domain.Address)}
	for _, a := range addresses {
		repo.addresses[a.ID] = a
	}
	return repo
}

func (r *memAddressRepo) Insert(_ context.Context, address domain.Address) error {
	r.addresses[address.ID] = address
	return nil
}

func (r *memAddressRepo) Update(_ context.Context, address domain.Address) error {
	if _, ok := r.addresses[address.ID]; !ok {
		return repositories.NotFoundError("address.update", fmt.Errorf("id %s", address.ID))
	}
	r.addresses[address.ID] = address
	return nil
}

func (r *memAddressRepo) FindByID(_ context.Context, addressID string) (domain.Address, error) {
	address, ok := r.addresses[addressID]
	if !ok {
		return domain.Address{}, repositories.NotFoundError("address.find", fmt.Errorf("id %s", addressID))
	}
	return address, nil
}

func (r *memAddressRepo) ListByUser(_ context.Context, userID string) ([]domain.Address, error) {
	var out []domain.Address
	for _, address := range r.addresses {
		if address.UserID == userID {
			out = append(out, address)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memAddressRepo) ClearDefaults(_ context.Context, userID string, kind domain.AddressKind) error {
	for id, address := range r.addresses {
		if address.UserID != userID || !address.IsDefault {
			continue
		}
		if address.Kind == kind || address.Kind == domain.AddressBoth || kind == domain.AddressBoth {
			address.IsDefault = false
			r.addresses[id] = address
		}
	}
	return nil
}

type stubGateway struct {
	createCalls []payments.CreateOrderRequest
	refundCalls []payments.RefundRequest

	createErr error
	refundErr error
}

func (g *stubGateway) CreateOrder(_ context.Context, req payments.CreateOrderRequest) (payments.GatewayOrder, error) {
	g.createCalls = append(g.createCalls, req)
	if g.createErr != nil {
		return payments.GatewayOrder{}, g.createErr
	}
	return payments.GatewayOrder{
		ID:       fmt.Sprintf("order_stub_%d", len(g.createCalls)),
		Amount:   req.Amount,
		Currency: "INR",
		Raw:      map[string]any{"receipt": req.OrderNumber},
	}, nil
}

func (g *stubGateway) Refund(_ context.Context, req payments.RefundRequest) (payments.RefundResult, error) {
	g.refundCalls = append(g.refundCalls, req)
	if g.refundErr != nil {
		return payments.RefundResult{}, g.refundErr
	}
	return payments.RefundResult{
		TransactionID: fmt.Sprintf("rfnd_stub_%d", len(g.refundCalls)),
		Amount:        req.Amount,
	}, nil
}

// sequentialIDs hands out id_1, id_2, ... for stable test assertions.
func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

func samePointer(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
