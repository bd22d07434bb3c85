package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Reservation is one stock decrement that has been committed and may need
// to be undone.
type Reservation struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// RestorationFailure is an item whose stock could not be put back.
type RestorationFailure struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Reason    string    `json:"reason"`
}

// StockCoordinator reserves stock for a whole cart with all-or-nothing
// observable effect on top of per-product conditional updates.
type StockCoordinator struct {
	catalog Catalog
	logger  *zap.Logger
	metrics Metrics
}

// NewStockCoordinator creates a coordinator over catalog.
func NewStockCoordinator(catalog Catalog, logger *zap.Logger, metrics Metrics) *StockCoordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &StockCoordinator{catalog: catalog, logger: logger, metrics: metrics}
}

// Reserve decrements stock item by item in cart order. On the first item
// that cannot be reserved every earlier reservation is compensated and an
// *InsufficientStockError is returned. Items must be non-empty.
func (c *StockCoordinator) Reserve(ctx context.Context, items []SaleItem) ([]Reservation, error) {
	committed := make([]Reservation, 0, len(items))

	for _, it := range items {
		ok, err := c.catalog.ConditionalDecrement(ctx, it.ProductID, it.Quantity)
		if err != nil {
			c.logger.Error("stock decrement failed",
				zap.String("product_id", it.ProductID.String()),
				zap.Int("quantity", it.Quantity),
				zap.Error(err))
			return nil, c.abort(ctx, committed, fmt.Errorf("reserving product %s: %w", it.ProductID, err))
		}
		if !ok {
			stockErr := &InsufficientStockError{
				ProductID:   it.ProductID,
				ProductName: it.ProductNameSnapshot,
				Requested:   it.Quantity,
				Available:   c.available(ctx, it.ProductID),
			}
			c.logger.Warn("insufficient stock",
				zap.String("product_id", it.ProductID.String()),
				zap.Int("requested", stockErr.Requested),
				zap.Int("available", stockErr.Available))
			return nil, c.abort(ctx, committed, stockErr)
		}
		committed = append(committed, Reservation{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	return committed, nil
}

// available reads current stock for error reporting. A product that
// vanished or was deactivated has nothing available.
func (c *StockCoordinator) available(ctx context.Context, id uuid.UUID) int {
	p, err := c.catalog.FindActiveByID(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrProductNotFound) {
			c.logger.Warn("could not read stock after failed reservation",
				zap.String("product_id", id.String()), zap.Error(err))
		}
		return 0
	}
	return p.Stock
}

func (c *StockCoordinator) abort(ctx context.Context, committed []Reservation, cause error) error {
	if err := c.Compensate(ctx, committed); err != nil {
		var ce *CompensationError
		if errors.As(err, &ce) {
			ce.Cause = cause
			return ce
		}
		return err
	}
	return cause
}

// Compensate gives back every committed reservation. It runs detached from
// ctx cancellation and never retries; reservations that could not be
// restored are reported in a *CompensationError.
func (c *StockCoordinator) Compensate(ctx context.Context, committed []Reservation) error {
	if len(committed) == 0 {
		return nil
	}
	ctx = context.WithoutCancel(ctx)

	var unrestored []Reservation
	for _, r := range committed {
		ok, err := c.catalog.ConditionalIncrement(ctx, r.ProductID, r.Quantity)
		if err != nil || !ok {
			c.logger.Error("stock compensation failed",
				zap.String("product_id", r.ProductID.String()),
				zap.Int("quantity", r.Quantity),
				zap.Bool("product_found", ok),
				zap.Error(err))
			unrestored = append(unrestored, r)
		}
	}
	c.metrics.StockCompensated(len(committed) - len(unrestored))
	c.logger.Info("stock compensated",
		zap.Int("reservations", len(committed)),
		zap.Int("unrestored", len(unrestored)))

	if len(unrestored) > 0 {
		return &CompensationError{Unrestored: unrestored}
	}
	return nil
}

// Restore adds back the stock of every item of a canceled sale. Like
// Compensate it ignores ctx cancellation, and it keeps going past failures
// and returns them.
func (c *StockCoordinator) Restore(ctx context.Context, items []SaleItem) []RestorationFailure {
	ctx = context.WithoutCancel(ctx)
	var failures []RestorationFailure
	for _, it := range items {
		ok, err := c.catalog.ConditionalIncrement(ctx, it.ProductID, it.Quantity)
		switch {
		case err != nil:
			failures = append(failures, RestorationFailure{ProductID: it.ProductID, Quantity: it.Quantity, Reason: err.Error()})
		case !ok:
			failures = append(failures, RestorationFailure{ProductID: it.ProductID, Quantity: it.Quantity, Reason: ErrProductNotFound.Error()})
		default:
			continue
		}
		c.logger.Error("stock restoration failed",
			zap.String("product_id", it.ProductID.String()),
			zap.Int("quantity", it.Quantity),
			zap.String("reason", failures[len(failures)-1].Reason))
	}
	return failures
}
