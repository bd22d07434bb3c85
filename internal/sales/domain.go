package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a sale.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
)

// PaymentMethod is how the customer paid for a sale.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
)

// Valid reports whether m is one of the accepted payment methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentTransfer:
		return true
	}
	return false
}

// SaleItem is one line of a sale. Name and price are snapshots taken when the
// sale was created so later product edits do not change history.
type SaleItem struct {
	ProductID           uuid.UUID       `json:"product_id"`
	ProductNameSnapshot string          `json:"product_name"`
	UnitPriceSnapshot   decimal.Decimal `json:"unit_price"`
	Quantity            int             `json:"quantity"`
	LineTotal           decimal.Decimal `json:"line_total"`
}

// Sale represents a committed sales transaction in the system.
type Sale struct {
	ID              uuid.UUID       `json:"id"`
	SaleID          string          `json:"sale_id"`
	CustomerID      *uuid.UUID      `json:"customer_id"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	Items           []SaleItem      `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountPercent int             `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	Total           decimal.Decimal `json:"total"`
	Status          Status          `json:"status"`
	CanceledAt      *time.Time      `json:"canceled_at"`
	CancelReason    string          `json:"cancel_reason"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Version         int             `json:"version"`
}

// Clone returns a deep copy so stores never share item slices or pointers
// with their callers.
func (s *Sale) Clone() *Sale {
	c := *s
	c.Items = append([]SaleItem(nil), s.Items...)
	if s.CustomerID != nil {
		id := *s.CustomerID
		c.CustomerID = &id
	}
	if s.CanceledAt != nil {
		at := *s.CanceledAt
		c.CanceledAt = &at
	}
	return &c
}

// Product is the catalog view the engine needs.
type Product struct {
	ID     uuid.UUID       `json:"id"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
	Stock  int             `json:"stock"`
	Active bool            `json:"active"`
}

// Customer is the directory view the engine needs.
type Customer struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	PurchasesCount int       `json:"purchases_count"`
}

// EventType names a sale lifecycle event.
type EventType string

const (
	EventSaleCreated  EventType = "sale.created"
	EventSaleCanceled EventType = "sale.canceled"
)

// SaleEvent is published after a sale changes state.
type SaleEvent struct {
	Type       EventType       `json:"type"`
	SaleID     string          `json:"sale_id"`
	CustomerID *uuid.UUID      `json:"customer_id,omitempty"`
	Total      decimal.Decimal `json:"total"`
	Items      int             `json:"items"`
	OccurredAt time.Time       `json:"occurred_at"`
}
