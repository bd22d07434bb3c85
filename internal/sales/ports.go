package sales

import (
	"context"

	"github.com/google/uuid"
)

// Catalog is the product store. Each mutation must be atomic for a single
// product record.
type Catalog interface {
	// FindActiveByID returns ErrProductNotFound when the product is missing or inactive.
	FindActiveByID(ctx context.Context, id uuid.UUID) (*Product, error)
	// ConditionalDecrement subtracts qty only when the product is active and
	// has at least qty in stock. It reports false without error otherwise.
	ConditionalDecrement(ctx context.Context, id uuid.UUID, qty int) (bool, error)
	// ConditionalIncrement adds qty back. It reports false when the product
	// no longer exists.
	ConditionalIncrement(ctx context.Context, id uuid.UUID, qty int) (bool, error)
}

// CustomerDirectory holds the purchase counters used for discounts.
type CustomerDirectory interface {
	// FindByID returns ErrCustomerNotFound when the customer is missing.
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	// ConditionalDecrementPurchases subtracts one only while the count is positive.
	ConditionalDecrementPurchases(ctx context.Context, id uuid.UUID) (bool, error)
	IncrementPurchases(ctx context.Context, id uuid.UUID) error
}

// SaleRepository persists sales.
type SaleRepository interface {
	// Create fails with ErrDuplicateIdentifier when the folio already exists.
	Create(ctx context.Context, sale *Sale) (*Sale, error)
	// FindBySaleID fails with ErrNotFound.
	FindBySaleID(ctx context.Context, saleID string) (*Sale, error)
	// Save stores sale only if the stored version is sale.Version-1, failing
	// with ErrVersionConflict otherwise.
	Save(ctx context.Context, sale *Sale) error
}

// EventPublisher announces sale state changes. Delivery is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, event SaleEvent) error
}

// Metrics records engine outcomes.
type Metrics interface {
	SaleCreated(method PaymentMethod)
	SaleRejected(reason string)
	SaleCanceled(partial bool)
	StockCompensated(reservations int)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, SaleEvent) error { return nil }

type nopMetrics struct{}

func (nopMetrics) SaleCreated(PaymentMethod) {}
func (nopMetrics) SaleRejected(string)       {}
func (nopMetrics) SaleCanceled(bool)         {}
func (nopMetrics) StockCompensated(int)      {}
