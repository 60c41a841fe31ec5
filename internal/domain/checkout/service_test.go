package checkout

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uncoverstore/api/internal/domain/order"
	"github.com/uncoverstore/api/internal/domain/product"
	"github.com/uncoverstore/api/internal/payment"
)

const testSecret = "gateway-secret"

// --- Mock implementations ---

type mockProductRepo struct {
	byID   map[string]*product.Product
	getErr error
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockProductRepo) Create(_ context.Context, _ *product.Product) error {
	return nil
}

type mockGateway struct {
	calls       int
	lastAmount  int64
	lastReceipt string
	err         error
}

func (m *mockGateway) CreateIntent(_ context.Context, amount int64, currency, receipt string, _ map[string]string) (*payment.Intent, error) {
	m.calls++
	m.lastAmount = amount
	m.lastReceipt = receipt
	if m.err != nil {
		return nil, m.err
	}
	return &payment.Intent{
		ID:       "order_gw1",
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
	}, nil
}

// mockCommitter simulates the transactional stock commit against an
// in-memory stock table.
type mockCommitter struct {
	stock     map[string]int64
	committed []*order.Order
	err       error
}

func (m *mockCommitter) CommitOrder(_ context.Context, o *order.Order) error {
	if m.err != nil {
		return m.err
	}
	for _, line := range o.Items {
		if m.stock[line.ProductID] < int64(line.Quantity) {
			return &InsufficientStockError{ProductID: line.ProductID, Requested: line.Quantity}
		}
	}
	for _, line := range o.Items {
		m.stock[line.ProductID] -= int64(line.Quantity)
	}
	m.committed = append(m.committed, o)
	return nil
}

type mockOrderRepo struct {
	byGatewayID map[string]*order.Order
}

func (m *mockOrderRepo) ListByEmail(_ context.Context, _ string) ([]order.Order, error) {
	return nil, nil
}

func (m *mockOrderRepo) GetByGatewayOrderID(_ context.Context, id string) (*order.Order, error) {
	o, ok := m.byGatewayID[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o, nil
}

func (m *mockOrderRepo) UpdateFulfillment(_ context.Context, _ string, _ order.FulfillmentUpdate) (*order.Order, error) {
	return nil, order.ErrNotFound
}

// --- Helpers ---

func signConfirmation(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func testAddress() order.ShippingAddress {
	return order.ShippingAddress{
		FullName: "Asha Rao", Street: "12 MG Road", City: "Bengaluru",
		State: "KA", PostalCode: "560001", Country: "India",
	}
}

type fixture struct {
	svc       *Service
	products  *mockProductRepo
	gateway   *mockGateway
	committer *mockCommitter
	orders    *mockOrderRepo
}

func newFixture(products ...product.Product) *fixture {
	byID := make(map[string]*product.Product, len(products))
	stock := make(map[string]int64, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
		stock[products[i].ID] = products[i].Stock
	}

	f := &fixture{
		products:  &mockProductRepo{byID: byID},
		gateway:   &mockGateway{},
		committer: &mockCommitter{stock: stock},
		orders:    &mockOrderRepo{byGatewayID: map[string]*order.Order{}},
	}
	f.svc = NewService(f.products, f.gateway, f.committer, f.orders, testSecret)
	return f
}

func confirmReq(items []CartItem) ConfirmRequest {
	return ConfirmRequest{
		GatewayOrderID:   "order_gw1",
		GatewayPaymentID: "pay_1",
		Signature:        signConfirmation("order_gw1", "pay_1"),
		Items:            items,
		Customer: Customer{
			Name:    "Asha Rao",
			Email:   "asha@example.com",
			Address: "12 MG Road, Bengaluru, KA, 560001, India",
		},
	}
}

// --- Prepare ---

func TestPrepare_EmptyCart(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Prepare(context.Background(), nil, testAddress())
	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, f.gateway.calls)
}

func TestPrepare_IncompleteAddress(t *testing.T) {
	f := newFixture(product.Product{ID: "p1", Price: 500, Stock: 3})

	addr := testAddress()
	addr.Country = ""
	_, err := f.svc.Prepare(context.Background(), []CartItem{{ProductID: "p1", Quantity: 1}}, addr)
	require.ErrorIs(t, err, ErrIncompleteAddress)
}

func TestPrepare_InvalidQuantity(t *testing.T) {
	f := newFixture(product.Product{ID: "p1", Price: 500, Stock: 3})

	_, err := f.svc.Prepare(context.Background(), []CartItem{{ProductID: "p1", Quantity: 0}}, testAddress())

	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, "p1", iqErr.ProductID)
}

func TestPrepare_ProductNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Prepare(context.Background(), []CartItem{{ProductID: "missing", Quantity: 1}}, testAddress())

	var pnfErr *ProductNotFoundError
	require.ErrorAs(t, err, &pnfErr)
	assert.Equal(t, "missing", pnfErr.ProductID)
}

// Insufficient stock must fail before any gateway call is made.
func TestPrepare_InsufficientStock(t *testing.T) {
	f := newFixture(product.Product{ID: "p2", Price: 500, Stock: 1})

	_, err := f.svc.Prepare(context.Background(), []CartItem{{ProductID: "p2", Quantity: 5}}, testAddress())

	var isErr *InsufficientStockError
	require.ErrorAs(t, err, &isErr)
	assert.Equal(t, "p2", isErr.ProductID)
	assert.Zero(t, f.gateway.calls)
}

func TestPrepare_ServerSidePricing(t *testing.T) {
	f := newFixture(
		product.Product{ID: "p1", Name: "Widget", Price: 500, Stock: 3},
		product.Product{ID: "p2", Name: "Gadget", Price: 250, Stock: 10},
	)

	intent, err := f.svc.Prepare(context.Background(), []CartItem{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 1},
	}, testAddress())

	require.NoError(t, err)
	assert.Equal(t, int64(1250), intent.Amount)
	assert.Equal(t, "INR", intent.Currency)
	assert.NotEmpty(t, intent.Receipt)
	assert.Equal(t, 1, f.gateway.calls)
	// Nothing durable committed during prepare.
	assert.Empty(t, f.committer.committed)
}

// --- Confirm ---

func TestConfirm_MissingFields(t *testing.T) {
	f := newFixture(product.Product{ID: "p1", Price: 500, Stock: 3})
	items := []CartItem{{ProductID: "p1", Quantity: 1}}

	for _, mutate := range []func(*ConfirmRequest){
		func(r *ConfirmRequest) { r.GatewayOrderID = "" },
		func(r *ConfirmRequest) { r.GatewayPaymentID = "" },
		func(r *ConfirmRequest) { r.Signature = "" },
		func(r *ConfirmRequest) { r.Customer.Email = "" },
	} {
		req := confirmReq(items)
		mutate(&req)
		_, err := f.svc.Confirm(context.Background(), req)
		require.ErrorIs(t, err, ErrMissingFields)
	}
	assert.Empty(t, f.committer.committed)
}

// A tampered confirmation must leave zero durable side effects.
func TestConfirm_InvalidSignature_FailClosed(t *testing.T) {
	f := newFixture(product.Product{ID: "p1", Price: 500, Stock: 3})

	req := confirmReq([]CartItem{{ProductID: "p1", Quantity: 2}})
	req.Signature = signConfirmation("order_gw1", "pay_other")

	_, err := f.svc.Confirm(context.Background(), req)
	require.ErrorIs(t, err, ErrInvalidSignature)

	assert.Empty(t, f.committer.committed)
	assert.Equal(t, int64(3), f.committer.stock["p1"])
}

func TestConfirm_HappyPath(t *testing.T) {
	f := newFixture(product.Product{ID: "p1", Name: "Widget", Price: 500, Stock: 3, Image: "/img/p1.jpg"})

	o, err := f.svc.Confirm(context.Background(), confirmReq([]CartItem{{ProductID: "p1", Quantity: 2}}))
	require.NoError(t, err)

	assert.Equal(t, order.StatusPaid, o.Status)
	assert.Equal(t, int64(1000), o.Total)
	require.Len(t, o.Items, 1)
	assert.Equal(t, order.LineItem{
		ProductID: "p1", Name: "Widget", Price: 500, Quantity: 2, Image: "/img/p1.jpg",
	}, o.Items[0])
	assert.Equal(t, "order_gw1", o.GatewayOrderID)
	assert.Equal(t, "pay_1", o.GatewayPaymentID)
	assert.Equal(t, "asha@example.com", o.CustomerEmail)

	require.Len(t, f.committer.committed, 1)
	assert.Equal(t, int64(1), f.committer.stock["p1"])
}

// A client-forged price must not affect the committed total: pricing is
// re-derived from the catalog inside Confirm.
func TestConfirm_PriceAuthority(t *testing.T) {
	f := newFixture(product.Product{ID: "p1", Name: "Widget", Price: 500, Stock: 3})

	// CartItem carries no price field at all; the total can only come from
	// the catalog.
	o, err := f.svc.Confirm(context.Background(), confirmReq([]CartItem{{ProductID: "p1", Quantity: 2}}))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), o.Total)
	assert.Equal(t, int64(500), o.Items[0].Price)
}

func TestConfirm_StockRevalidated(t *testing.T) {
	f := newFixture(product.Product{ID: "p1", Price: 500, Stock: 3})

	// Stock drained between prepare and confirm by a concurrent checkout.
	f.products.byID["p1"].Stock = 1
	f.committer.stock["p1"] = 1

	_, err := f.svc.Confirm(context.Background(), confirmReq([]CartItem{{ProductID: "p1", Quantity: 2}}))

	var isErr *InsufficientStockError
	require.ErrorAs(t, err, &isErr)
	assert.Empty(t, f.committer.committed)
	assert.Equal(t, int64(1), f.committer.stock["p1"])
}

// A repeated confirmation for an already-consumed gateway order id must not
// create a second order or decrement stock again.
func TestConfirm_Replay(t *testing.T) {
	f := newFixture(product.Product{ID: "p1", Price: 500, Stock: 4})

	req := confirmReq([]CartItem{{ProductID: "p1", Quantity: 2}})

	first, err := f.svc.Confirm(context.Background(), req)
	require.NoError(t, err)
	f.orders.byGatewayID[first.GatewayOrderID] = first

	_, err = f.svc.Confirm(context.Background(), req)
	require.ErrorIs(t, err, ErrAlreadyConfirmed)

	require.Len(t, f.committer.committed, 1)
	assert.Equal(t, int64(2), f.committer.stock["p1"])
}

func TestConfirm_CommitterErrorPropagates(t *testing.T) {
	f := newFixture(product.Product{ID: "p1", Price: 500, Stock: 3})
	f.committer.err = errors.New("db down")

	_, err := f.svc.Confirm(context.Background(), confirmReq([]CartItem{{ProductID: "p1", Quantity: 1}}))
	require.Error(t, err)
	assert.Empty(t, f.committer.committed)
}

// --- ConfirmCOD ---

func TestConfirmCOD_CreatesPendingOrder(t *testing.T) {
	f := newFixture(product.Product{ID: "p1", Name: "Widget", Price: 500, Stock: 3})

	o, err := f.svc.ConfirmCOD(context.Background(),
		[]CartItem{{ProductID: "p1", Quantity: 2}},
		Customer{Name: "Asha Rao", Email: "asha@example.com", Address: "12 MG Road"},
	)
	require.NoError(t, err)

	assert.Equal(t, order.StatusPending, o.Status)
	assert.Empty(t, o.GatewayOrderID)
	assert.Equal(t, int64(1000), o.Total)
	assert.Equal(t, int64(1), f.committer.stock["p1"])
	assert.Zero(t, f.gateway.calls)
}

func TestConfirmCOD_MissingEmail(t *testing.T) {
	f := newFixture(product.Product{ID: "p1", Price: 500, Stock: 3})

	_, err := f.svc.ConfirmCOD(context.Background(),
		[]CartItem{{ProductID: "p1", Quantity: 1}}, Customer{})
	require.ErrorIs(t, err, ErrMissingFields)
}
