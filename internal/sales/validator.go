package sales

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleRequest is the cart as received from a client.
type SaleRequest struct {
	CustomerID    *string       `json:"customer_id"`
	PaymentMethod string        `json:"payment_method"`
	Items         []ItemRequest `json:"items"`
}

// ItemRequest is one requested cart line. Quantity stays a json.Number so
// fractional or oversized values can be reported instead of silently truncated.
type ItemRequest struct {
	ProductID string      `json:"product_id"`
	Quantity  json.Number `json:"quantity"`
}

// NormalizedItem is a validated cart line.
type NormalizedItem struct {
	ProductID uuid.UUID
	Quantity  int
}

// NormalizedRequest is a validated, typed cart.
type NormalizedRequest struct {
	CustomerID    *uuid.UUID
	PaymentMethod PaymentMethod
	Items         []NormalizedItem
}

// Validate checks the request structurally without any I/O. It returns every
// violation at once as a *ValidationError.
func Validate(req SaleRequest) (NormalizedRequest, error) {
	var (
		out        NormalizedRequest
		violations []Violation
	)

	if len(req.Items) == 0 {
		violations = append(violations, Violation{
			Field:   "items",
			Message: "items cannot be empty (minimum 1 item required)",
			Kind:    ErrInvalidRequest,
		})
	}

	method := PaymentMethod(strings.TrimSpace(req.PaymentMethod))
	if method == "" {
		method = PaymentCash
	}
	if !method.Valid() {
		violations = append(violations, Violation{
			Field:   "payment_method",
			Message: "payment_method must be one of: cash, card, transfer",
			Kind:    ErrInvalidPaymentMethod,
		})
	}
	out.PaymentMethod = method

	if req.CustomerID != nil {
		id, err := uuid.Parse(strings.TrimSpace(*req.CustomerID))
		if err != nil {
			violations = append(violations, Violation{
				Field:   "customer_id",
				Message: "customer_id must be a valid identifier",
				Kind:    ErrInvalidReference,
			})
		} else {
			out.CustomerID = &id
		}
	}

	out.Items = make([]NormalizedItem, 0, len(req.Items))
	for i, it := range req.Items {
		pid, err := uuid.Parse(strings.TrimSpace(it.ProductID))
		if err != nil {
			violations = append(violations, Violation{
				Field:   fmt.Sprintf("items[%d].product_id", i),
				Message: "product_id must be a valid identifier",
				Kind:    ErrInvalidReference,
			})
		}
		qty, ok := parseQuantity(it.Quantity)
		if !ok {
			violations = append(violations, Violation{
				Field:   fmt.Sprintf("items[%d].quantity", i),
				Message: "quantity must be a positive integer (greater than or equal to 1)",
				Kind:    ErrInvalidQuantity,
			})
		}
		out.Items = append(out.Items, NormalizedItem{ProductID: pid, Quantity: qty})
	}

	if len(violations) > 0 {
		return NormalizedRequest{}, &ValidationError{Violations: violations}
	}
	return out, nil
}

var maxQuantity = decimal.NewFromInt(math.MaxInt32)

func parseQuantity(n json.Number) (int, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(n.String()))
	if err != nil || !d.IsInteger() || d.LessThan(decimal.NewFromInt(1)) || d.GreaterThan(maxQuantity) {
		return 0, false
	}
	return int(d.IntPart()), true
}
