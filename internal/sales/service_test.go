package sales

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var fixedNow = time.Date(2026, 2, 13, 10, 30, 0, 0, time.UTC)

type fixedFolio string

func (f fixedFolio) Next(context.Context, time.Time) (string, error) { return string(f), nil }

type recordingPublisher struct {
	events []SaleEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e SaleEvent) error {
	p.events = append(p.events, e)
	return p.err
}

type failingIncrementCustomers struct{ *MemoryCustomers }

func (failingIncrementCustomers) IncrementPurchases(context.Context, uuid.UUID) error {
	return errors.New("directory unavailable")
}

type testEnv struct {
	svc       *Service
	storage   *LocalStorage
	catalog   *MemoryCatalog
	customers *MemoryCustomers
	publisher *recordingPublisher
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	env := &testEnv{
		storage:   NewLocalStorage(),
		catalog:   NewMemoryCatalog(),
		customers: NewMemoryCustomers(),
		publisher: &recordingPublisher{},
	}
	opts = append([]Option{WithClock(func() time.Time { return fixedNow }), WithPublisher(env.publisher)}, opts...)
	env.svc = NewService(env.storage, env.catalog, env.customers, zaptest.NewLogger(t), opts...)
	return env
}

type line struct {
	product Product
	qty     int
}

func cart(customerID *uuid.UUID, lines ...line) SaleRequest {
	req := SaleRequest{PaymentMethod: "cash"}
	if customerID != nil {
		s := customerID.String()
		req.CustomerID = &s
	}
	for _, l := range lines {
		req.Items = append(req.Items, ItemRequest{
			ProductID: l.product.ID.String(),
			Quantity:  json.Number(strconv.Itoa(l.qty)),
		})
	}
	return req
}

// TestNewService verifica la inicialización del servicio.
func TestNewService(t *testing.T) {
	svc := NewService(NewLocalStorage(), NewMemoryCatalog(), NewMemoryCustomers(), zaptest.NewLogger(t))

	if svc == nil {
		t.Fatal("NewService returned nil")
	}
	if svc.storage == nil {
		t.Error("Service storage was not initialized")
	}
	if svc.logger == nil {
		t.Error("Service logger was not initialized")
	}
	if svc.StoreName() != DefaultStoreName {
		t.Errorf("expected default store name, got %q", svc.StoreName())
	}
}

func TestCreateSale_NewCustomerNoDiscount(t *testing.T) {
	env := newTestEnv(t, WithFolioGenerator(fixedFolio("CF-20260213-0001")))
	latte := newProduct("Latte", "45.50", 5)
	env.catalog.Put(latte)
	customer := Customer{ID: uuid.New(), Name: "Ana", PurchasesCount: 0}
	env.customers.Put(customer)

	res, err := env.svc.CreateSale(context.Background(), cart(&customer.ID, line{latte, 3}))
	require.NoError(t, err)

	assert.Equal(t, 2, stockOf(t, env.catalog, latte.ID))
	sale := res.Sale
	assert.Equal(t, "CF-20260213-0001", sale.SaleID)
	assert.Equal(t, StatusCompleted, sale.Status)
	assert.Equal(t, 0, sale.DiscountPercent)
	assert.Equal(t, "136.50", sale.Subtotal.StringFixed(2))
	assert.True(t, sale.Total.Equal(sale.Subtotal))
	assert.Equal(t, 1, sale.Version)
	require.Len(t, sale.Items, 1)
	assert.Equal(t, "Latte", sale.Items[0].ProductNameSnapshot)
	assert.Equal(t, "136.50", sale.Items[0].LineTotal.StringFixed(2))

	cu, _ := env.customers.FindByID(context.Background(), customer.ID)
	assert.Equal(t, 1, cu.PurchasesCount)

	stored, err := env.svc.GetSale(context.Background(), " CF-20260213-0001 ")
	require.NoError(t, err)
	assert.Equal(t, sale.ID, stored.ID)

	assert.Equal(t, "Cafecito Feliz", res.Ticket.StoreName)
	assert.Equal(t, "0% (-$0.00)", res.Ticket.Discount)

	require.Len(t, env.publisher.events, 1)
	assert.Equal(t, EventSaleCreated, env.publisher.events[0].Type)
}

func TestCreateSale_AnonymousCustomer(t *testing.T) {
	env := newTestEnv(t)
	p := newProduct("Americano", "30.00", 10)
	env.catalog.Put(p)

	res, err := env.svc.CreateSale(context.Background(), cart(nil, line{p, 2}))
	require.NoError(t, err)

	assert.Nil(t, res.Sale.CustomerID)
	assert.Equal(t, 0, res.Sale.DiscountPercent)
	assert.Regexp(t, `^CF-20260213-\d{4}$`, res.Sale.SaleID)
}

func TestCreateSale_LoyalCustomerGetsTenPercent(t *testing.T) {
	env := newTestEnv(t)
	p := newProduct("Beans 1kg", "50.00", 10)
	env.catalog.Put(p)
	customer := Customer{ID: uuid.New(), Name: "Luis", PurchasesCount: 5}
	env.customers.Put(customer)

	res, err := env.svc.CreateSale(context.Background(), cart(&customer.ID, line{p, 4}))
	require.NoError(t, err)

	assert.Equal(t, 10, res.Sale.DiscountPercent)
	assert.Equal(t, "200.00", res.Sale.Subtotal.StringFixed(2))
	assert.Equal(t, "20.00", res.Sale.DiscountAmount.StringFixed(2))
	assert.Equal(t, "180.00", res.Sale.Total.StringFixed(2))
	assert.Equal(t, "10% (-$20.00)", res.Ticket.Discount)

	cu, _ := env.customers.FindByID(context.Background(), customer.ID)
	assert.Equal(t, 6, cu.PurchasesCount)
}

func TestCreateSale_InsufficientStockCreatesNothing(t *testing.T) {
	env := newTestEnv(t)
	a := newProduct("Product A", "10.00", 2)
	b := newProduct("Product B", "12.00", 2)
	env.catalog.Put(a)
	env.catalog.Put(b)

	res, err := env.svc.CreateSale(context.Background(), cart(nil, line{a, 1}, line{b, 5}))
	assert.Nil(t, res)

	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, b.ID, stockErr.ProductID)
	assert.Equal(t, 5, stockErr.Requested)
	assert.Equal(t, 2, stockErr.Available)

	assert.Equal(t, 2, stockOf(t, env.catalog, a.ID))
	assert.Equal(t, 0, env.storage.Len())
	assert.Empty(t, env.publisher.events)
}

func TestCreateSale_ValidationTouchesNothing(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.CreateSale(context.Background(), SaleRequest{PaymentMethod: "cash"})

	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.Equal(t, 0, env.storage.Len())
}

func TestCreateSale_UnknownReferences(t *testing.T) {
	env := newTestEnv(t)
	p := newProduct("Tea", "20.00", 3)
	env.catalog.Put(p)
	inactive := newProduct("Old", "20.00", 3)
	inactive.Active = false
	env.catalog.Put(inactive)
	ghost := uuid.New()

	_, err := env.svc.CreateSale(context.Background(), cart(&ghost, line{p, 1}))
	var refErr *ReferenceError
	require.True(t, errors.As(err, &refErr))
	assert.Equal(t, "customer", refErr.Entity)
	assert.ErrorIs(t, err, ErrReferenceNotFound)

	_, err = env.svc.CreateSale(context.Background(), cart(nil, line{p, 1}, line{inactive, 1}))
	require.True(t, errors.As(err, &refErr))
	assert.Equal(t, "product", refErr.Entity)
	assert.Equal(t, inactive.ID, refErr.ID)

	assert.Equal(t, 3, stockOf(t, env.catalog, p.ID), "lookups happen before any reservation")
}

func TestCreateSale_DuplicateFolioCompensates(t *testing.T) {
	env := newTestEnv(t, WithFolioGenerator(fixedFolio("CF-20260213-0042")))
	p := newProduct("Mocha", "55.00", 4)
	env.catalog.Put(p)

	_, err := env.svc.CreateSale(context.Background(), cart(nil, line{p, 1}))
	require.NoError(t, err)
	require.Equal(t, 3, stockOf(t, env.catalog, p.ID))

	_, err = env.svc.CreateSale(context.Background(), cart(nil, line{p, 2}))
	assert.ErrorIs(t, err, ErrPersistenceConflict)
	assert.ErrorIs(t, err, ErrDuplicateIdentifier)

	assert.Equal(t, 3, stockOf(t, env.catalog, p.ID), "stock of the failed sale is given back")
	assert.Equal(t, 1, env.storage.Len())
}

func TestCreateSale_CustomerCounterFailureIsAWarning(t *testing.T) {
	storage := NewLocalStorage()
	catalog := NewMemoryCatalog()
	customers := NewMemoryCustomers()
	p := newProduct("Chai", "40.00", 2)
	catalog.Put(p)
	customer := Customer{ID: uuid.New(), Name: "Eva", PurchasesCount: 1}
	customers.Put(customer)
	svc := NewService(storage, catalog, failingIncrementCustomers{customers}, zaptest.NewLogger(t))

	res, err := svc.CreateSale(context.Background(), cart(&customer.ID, line{p, 1}))
	require.NoError(t, err)

	assert.Equal(t, 5, res.Sale.DiscountPercent)
	assert.Len(t, res.Warnings, 1)
	assert.Equal(t, 1, storage.Len())
}

func TestCreateSale_PublishFailureDoesNotFailSale(t *testing.T) {
	env := newTestEnv(t)
	env.publisher.err = errors.New("broker down")
	p := newProduct("Flat White", "48.00", 1)
	env.catalog.Put(p)

	res, err := env.svc.CreateSale(context.Background(), cart(nil, line{p, 1}))
	require.NoError(t, err)
	assert.NotNil(t, res.Sale)
}

func TestGetSale_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.GetSale(context.Background(), "CF-00000000-0000")
	assert.ErrorIs(t, err, ErrNotFound)
}
