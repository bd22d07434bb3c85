package sales

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultStoreName is printed on tickets when none is configured.
const DefaultStoreName = "Cafecito Feliz"

// TicketLine is a printable sale line.
type TicketLine struct {
	Name      string          `json:"name"`
	Qty       int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Ticket is the printable projection of a sale. It is derived, never stored.
type Ticket struct {
	SaleID        string          `json:"sale_id"`
	Timestamp     time.Time       `json:"timestamp"`
	StoreName     string          `json:"store_name"`
	Items         []TicketLine    `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      string          `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
}

// NewTicket projects sale into a ticket.
func NewTicket(storeName string, sale *Sale) Ticket {
	lines := make([]TicketLine, 0, len(sale.Items))
	for _, it := range sale.Items {
		lines = append(lines, TicketLine{
			Name:      it.ProductNameSnapshot,
			Qty:       it.Quantity,
			UnitPrice: it.UnitPriceSnapshot,
			LineTotal: it.LineTotal,
		})
	}
	return Ticket{
		SaleID:        sale.SaleID,
		Timestamp:     sale.CreatedAt,
		StoreName:     storeName,
		Items:         lines,
		Subtotal:      sale.Subtotal,
		Discount:      FormatDiscount(sale.DiscountPercent, sale.DiscountAmount),
		Total:         sale.Total,
		PaymentMethod: sale.PaymentMethod,
	}
}

// FormatDiscount renders e.g. "10% (-$20.00)".
func FormatDiscount(percent int, amount decimal.Decimal) string {
	return fmt.Sprintf("%d%% (-$%s)", percent, round2(amount).StringFixed(2))
}
