package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pos_sales/internal/sales"
)

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error      string     `json:"error"`
	Message    string     `json:"message"`
	Details    any        `json:"details,omitempty"`
	SaleID     string     `json:"sale_id,omitempty"`
	CanceledAt *time.Time `json:"canceled_at,omitempty"`
	RequestID  string     `json:"request_id,omitempty"`
}

type stockDetail struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Requested   int       `json:"requested"`
	Available   int       `json:"available"`
	Message     string    `json:"message"`
}

type referenceDetail struct {
	Entity string    `json:"entity"`
	ID     uuid.UUID `json:"id"`
}

// writeError maps engine errors to HTTP statuses. The compensation check
// comes first because a CompensationError unwraps to its cause.
func writeError(c *gin.Context, err error) {
	status, body := classify(err)
	body.RequestID = requestID(c)
	c.AbortWithStatusJSON(status, body)
}

func classify(err error) (int, errorResponse) {
	var (
		validation   *sales.ValidationError
		compensation *sales.CompensationError
		stock        *sales.InsufficientStockError
		reference    *sales.ReferenceError
		canceled     *sales.AlreadyCanceledError
	)

	switch {
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity, errorResponse{
			Error:   "validation_failed",
			Message: "the request has invalid fields",
			Details: validation.Violations,
		}
	case errors.As(err, &compensation):
		return http.StatusInternalServerError, errorResponse{
			Error:   "compensation_failed",
			Message: "the sale failed and some stock could not be restored",
			Details: compensation.Unrestored,
		}
	case errors.As(err, &stock):
		return http.StatusConflict, errorResponse{
			Error:   "insufficient_stock",
			Message: "insufficient stock to complete the sale",
			Details: []stockDetail{{
				ProductID:   stock.ProductID,
				ProductName: stock.ProductName,
				Requested:   stock.Requested,
				Available:   stock.Available,
				Message:     "Insufficient stock to complete the sale",
			}},
		}
	case errors.As(err, &reference):
		return http.StatusNotFound, errorResponse{
			Error:   "reference_not_found",
			Message: reference.Entity + " not found",
			Details: referenceDetail{Entity: reference.Entity, ID: reference.ID},
		}
	case errors.As(err, &canceled):
		at := canceled.CanceledAt
		return http.StatusConflict, errorResponse{
			Error:      "already_canceled",
			Message:    "sale already canceled",
			SaleID:     canceled.SaleID,
			CanceledAt: &at,
		}
	case errors.Is(err, sales.ErrPersistenceConflict):
		return http.StatusConflict, errorResponse{
			Error:   "persistence_conflict",
			Message: "the sale could not be stored, please retry",
		}
	case errors.Is(err, sales.ErrNotFound):
		return http.StatusNotFound, errorResponse{
			Error:   "not_found",
			Message: "sale not found",
		}
	default:
		return http.StatusInternalServerError, errorResponse{
			Error:   "internal_error",
			Message: "internal server error",
		}
	}
}
