package sales

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCancelSale_RestoresStockAndCustomer(t *testing.T) {
	env := newTestEnv(t)
	a := newProduct("Latte", "45.00", 10)
	b := newProduct("Bagel", "25.00", 10)
	env.catalog.Put(a)
	env.catalog.Put(b)
	customer := Customer{ID: uuid.New(), Name: "Ana", PurchasesCount: 2}
	env.customers.Put(customer)

	created, err := env.svc.CreateSale(context.Background(), cart(&customer.ID, line{a, 2}, line{b, 3}))
	require.NoError(t, err)
	require.Equal(t, 8, stockOf(t, env.catalog, a.ID))
	require.Equal(t, 7, stockOf(t, env.catalog, b.ID))

	res, err := env.svc.CancelSale(context.Background(), created.Sale.SaleID, "  customer changed mind ")
	require.NoError(t, err)

	assert.False(t, res.Partial)
	assert.True(t, res.CustomerReversed)
	assert.Equal(t, StatusCanceled, res.Sale.Status)
	assert.Equal(t, "customer changed mind", res.Sale.CancelReason)
	require.NotNil(t, res.Sale.CanceledAt)
	assert.Equal(t, fixedNow, *res.Sale.CanceledAt)
	assert.Equal(t, 2, res.Sale.Version)

	assert.Equal(t, 10, stockOf(t, env.catalog, a.ID))
	assert.Equal(t, 10, stockOf(t, env.catalog, b.ID))
	cu, _ := env.customers.FindByID(context.Background(), customer.ID)
	assert.Equal(t, 2, cu.PurchasesCount, "incremented by the sale, decremented by the cancel")

	stored, err := env.storage.FindBySaleID(context.Background(), created.Sale.SaleID)
	require.NoError(t, err)
	assert.Equal(t, StatusCanceled, stored.Status)
	assert.True(t, stored.Total.Equal(created.Sale.Total), "money is never recomputed")

	require.Len(t, env.publisher.events, 2)
	assert.Equal(t, EventSaleCanceled, env.publisher.events[1].Type)
}

func TestCancelSale_SecondCancelIsRejectedWithOriginalData(t *testing.T) {
	env := newTestEnv(t)
	p := newProduct("Latte", "45.00", 5)
	env.catalog.Put(p)

	created, err := env.svc.CreateSale(context.Background(), cart(nil, line{p, 2}))
	require.NoError(t, err)

	_, err = env.svc.CancelSale(context.Background(), created.Sale.SaleID, "wrong order")
	require.NoError(t, err)

	env.svc.now = func() time.Time { return fixedNow.Add(time.Hour) }
	_, err = env.svc.CancelSale(context.Background(), created.Sale.SaleID, "again")

	var already *AlreadyCanceledError
	require.True(t, errors.As(err, &already))
	assert.ErrorIs(t, err, ErrAlreadyCanceled)
	assert.Equal(t, fixedNow, already.CanceledAt)
	assert.Equal(t, "wrong order", already.CancelReason)
	assert.Equal(t, 5, stockOf(t, env.catalog, p.ID), "stock is restored only once")
}

func TestCancelSale_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.CancelSale(context.Background(), "CF-20260101-9999", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelSale_CustomerAtZeroStaysAtZero(t *testing.T) {
	env := newTestEnv(t)
	p := newProduct("Tea", "20.00", 5)
	env.catalog.Put(p)
	customer := Customer{ID: uuid.New(), Name: "Zoe", PurchasesCount: 0}
	env.customers.Put(customer)

	created, err := env.svc.CreateSale(context.Background(), cart(&customer.ID, line{p, 1}))
	require.NoError(t, err)
	// Someone reset the counter in the meantime.
	env.customers.Put(customer)

	res, err := env.svc.CancelSale(context.Background(), created.Sale.SaleID, "")
	require.NoError(t, err)
	assert.False(t, res.CustomerReversed)
	assert.False(t, res.Partial)

	cu, _ := env.customers.FindByID(context.Background(), customer.ID)
	assert.Equal(t, 0, cu.PurchasesCount)
}

func TestCancelSale_PartialRestorationIsReported(t *testing.T) {
	a := newProduct("Product A", "10.00", 5)
	b := newProduct("Product B", "10.00", 5)
	catalog := &flakyCatalog{MemoryCatalog: NewMemoryCatalog(a, b), failIncrement: map[uuid.UUID]bool{}}
	storage := NewLocalStorage()
	svc := NewService(storage, catalog, NewMemoryCustomers(), zaptest.NewLogger(t))

	created, err := svc.CreateSale(context.Background(), cart(nil, line{a, 2}, line{b, 3}))
	require.NoError(t, err)

	catalog.failIncrement[b.ID] = true
	res, err := svc.CancelSale(context.Background(), created.Sale.SaleID, "damaged")
	require.NoError(t, err)

	assert.True(t, res.Partial)
	require.Len(t, res.RestorationFailures, 1)
	assert.Equal(t, b.ID, res.RestorationFailures[0].ProductID)
	assert.Equal(t, 3, res.RestorationFailures[0].Quantity)
	assert.NotEmpty(t, res.Warnings)

	stored, _ := storage.FindBySaleID(context.Background(), created.Sale.SaleID)
	assert.Equal(t, StatusCanceled, stored.Status, "the transition is not rolled back")
	assert.Equal(t, 5, stockOf(t, catalog.MemoryCatalog, a.ID))
	assert.Equal(t, 2, stockOf(t, catalog.MemoryCatalog, b.ID))
}

func TestCancelSale_ConcurrentCancelsApplyOnce(t *testing.T) {
	env := newTestEnv(t)
	env.svc.publisher = nopPublisher{}
	p := newProduct("Latte", "45.00", 10)
	env.catalog.Put(p)

	created, err := env.svc.CreateSale(context.Background(), cart(nil, line{p, 4}))
	require.NoError(t, err)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		already   int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.CancelSale(context.Background(), created.Sale.SaleID, "dup")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrAlreadyCanceled):
				already++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, already)
	assert.Equal(t, 10, stockOf(t, env.catalog, p.ID))
}
