package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service provides the sale transaction engine on top of its collaborators.
type Service struct {
	storage   SaleRepository
	catalog   Catalog
	customers CustomerDirectory
	stock     *StockCoordinator
	folios    FolioGenerator
	publisher EventPublisher
	metrics   Metrics
	logger    *zap.Logger
	storeName string
	now       func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

func WithFolioGenerator(g FolioGenerator) Option { return func(s *Service) { s.folios = g } }

func WithPublisher(p EventPublisher) Option { return func(s *Service) { s.publisher = p } }

func WithMetrics(m Metrics) Option { return func(s *Service) { s.metrics = m } }

func WithStoreName(name string) Option { return func(s *Service) { s.storeName = name } }

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// NewService creates a new Service.
func NewService(storage SaleRepository, catalog Catalog, customers CustomerDirectory, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		storage:   storage,
		catalog:   catalog,
		customers: customers,
		folios:    NewRandomFolio(DefaultFolioPrefix),
		publisher: nopPublisher{},
		metrics:   nopMetrics{},
		logger:    logger,
		storeName: DefaultStoreName,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.stock = NewStockCoordinator(catalog, logger, s.metrics)
	return s
}

// StoreName is the name printed on tickets.
func (s *Service) StoreName() string { return s.storeName }

// CreateResult is a committed sale with its ticket. Warnings list best-effort
// steps that did not complete.
type CreateResult struct {
	Sale     *Sale
	Ticket   Ticket
	Warnings []string
}

// CreateSale validates the cart, reserves stock, prices and persists the
// sale. Any failure after the first stock decrement gives that stock back
// before returning.
func (s *Service) CreateSale(ctx context.Context, req SaleRequest) (*CreateResult, error) {
	norm, err := Validate(req)
	if err != nil {
		s.metrics.SaleRejected("validation")
		return nil, err
	}

	var customer *Customer
	if norm.CustomerID != nil {
		customer, err = s.customers.FindByID(ctx, *norm.CustomerID)
		if err != nil {
			if errors.Is(err, ErrCustomerNotFound) {
				s.metrics.SaleRejected("reference")
				return nil, &ReferenceError{Entity: "customer", ID: *norm.CustomerID, Err: err}
			}
			return nil, fmt.Errorf("looking up customer: %w", err)
		}
	}

	items, err := s.resolveItems(ctx, norm.Items)
	if err != nil {
		return nil, err
	}

	reserved, err := s.stock.Reserve(ctx, items)
	if err != nil {
		s.metrics.SaleRejected(rejectReason(err))
		return nil, err
	}

	discount := 0
	if customer != nil {
		discount = DiscountPercent(customer.PurchasesCount)
	}
	lines := make([]PricedLine, len(items))
	for i, it := range items {
		lines[i] = PricedLine{UnitPrice: it.UnitPriceSnapshot, Quantity: it.Quantity}
	}
	pricing := Price(lines, discount)
	for i := range items {
		items[i].LineTotal = pricing.LineTotals[i]
	}

	now := s.now()
	folio, err := s.folios.Next(ctx, now)
	if err != nil {
		return nil, s.rollback(ctx, reserved, fmt.Errorf("generating sale identifier: %w", err))
	}

	sale := &Sale{
		ID:              uuid.New(),
		SaleID:          folio,
		PaymentMethod:   norm.PaymentMethod,
		Items:           items,
		Subtotal:        pricing.Subtotal,
		DiscountPercent: pricing.DiscountPercent,
		DiscountAmount:  pricing.DiscountAmount,
		Total:           pricing.Total,
		Status:          StatusCompleted,
		CreatedAt:       now,
		UpdatedAt:       now,
		Version:         1,
	}
	if customer != nil {
		id := customer.ID
		sale.CustomerID = &id
	}

	created, err := s.storage.Create(ctx, sale)
	if err != nil {
		s.logger.Error("failed to save sale", zap.String("sale_id", folio), zap.Error(err))
		if errors.Is(err, ErrDuplicateIdentifier) {
			s.metrics.SaleRejected("conflict")
			err = fmt.Errorf("%w: sale %s: %w", ErrPersistenceConflict, folio, err)
		} else {
			err = fmt.Errorf("failed to save sale: %w", err)
		}
		return nil, s.rollback(ctx, reserved, err)
	}

	res := &CreateResult{Sale: created, Ticket: NewTicket(s.storeName, created)}

	if customer != nil {
		if err := s.customers.IncrementPurchases(ctx, customer.ID); err != nil {
			s.logger.Warn("failed to increment customer purchases",
				zap.String("sale_id", created.SaleID),
				zap.String("customer_id", customer.ID.String()),
				zap.Error(err))
			res.Warnings = append(res.Warnings, "customer purchase count was not updated")
		}
	}

	s.publish(ctx, created, EventSaleCreated)
	s.metrics.SaleCreated(created.PaymentMethod)
	s.logger.Info("sale created",
		zap.String("sale_id", created.SaleID),
		zap.Int("items", len(created.Items)),
		zap.String("total", created.Total.StringFixed(2)),
		zap.Int("discount_percent", created.DiscountPercent))

	return res, nil
}

// resolveItems turns validated lines into sale items with name and price
// snapshots. Only active products resolve.
func (s *Service) resolveItems(ctx context.Context, lines []NormalizedItem) ([]SaleItem, error) {
	items := make([]SaleItem, 0, len(lines))
	for _, l := range lines {
		p, err := s.catalog.FindActiveByID(ctx, l.ProductID)
		if err != nil {
			if errors.Is(err, ErrProductNotFound) {
				s.metrics.SaleRejected("reference")
				return nil, &ReferenceError{Entity: "product", ID: l.ProductID, Err: err}
			}
			return nil, fmt.Errorf("looking up product %s: %w", l.ProductID, err)
		}
		items = append(items, SaleItem{
			ProductID:           p.ID,
			ProductNameSnapshot: p.Name,
			UnitPriceSnapshot:   p.Price,
			Quantity:            l.Quantity,
		})
	}
	return items, nil
}

// rollback compensates reserved stock and returns cause, or a
// *CompensationError wrapping cause when stock could not be put back.
func (s *Service) rollback(ctx context.Context, reserved []Reservation, cause error) error {
	if err := s.stock.Compensate(ctx, reserved); err != nil {
		var ce *CompensationError
		if errors.As(err, &ce) {
			ce.Cause = cause
			return ce
		}
		return err
	}
	return cause
}

// GetSale returns a sale by its folio.
func (s *Service) GetSale(ctx context.Context, saleID string) (*Sale, error) {
	return s.storage.FindBySaleID(ctx, strings.TrimSpace(saleID))
}

func (s *Service) publish(ctx context.Context, sale *Sale, typ EventType) {
	event := SaleEvent{
		Type:       typ,
		SaleID:     sale.SaleID,
		CustomerID: sale.CustomerID,
		Total:      sale.Total,
		Items:      len(sale.Items),
		OccurredAt: s.now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish sale event",
			zap.String("sale_id", sale.SaleID),
			zap.String("event", string(typ)),
			zap.Error(err))
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrCompensationFailed):
		return "compensation_failed"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	default:
		return "store_error"
	}
}
