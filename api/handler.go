package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pos_sales/internal/sales"
)

// salesHandler holds the sales service and implements HTTP handlers for sales operations.
type salesHandler struct {
	salesService *sales.Service
	logger       *zap.Logger
}

// NewSalesHandler creates a new sales handler.
func NewSalesHandler(salesService *sales.Service, logger *zap.Logger) *salesHandler {
	return &salesHandler{
		salesService: salesService,
		logger:       logger,
	}
}

type createSaleResponse struct {
	*sales.Sale
	Ticket   sales.Ticket `json:"ticket"`
	Warnings []string     `json:"warnings,omitempty"`
}

type cancelSaleRequest struct {
	Reason string `json:"reason"`
}

type cancelSaleResponse struct {
	OK                  bool                       `json:"ok"`
	Partial             bool                       `json:"partial"`
	Message             string                     `json:"message"`
	SaleID              string                     `json:"sale_id"`
	Status              sales.Status               `json:"status"`
	CanceledAt          *time.Time                 `json:"canceled_at"`
	CancelReason        string                     `json:"cancel_reason"`
	CustomerReversed    bool                       `json:"customer_reversed"`
	RestorationFailures []sales.RestorationFailure `json:"restoration_failures,omitempty"`
	Warnings            []string                   `json:"warnings,omitempty"`
}

// handleCreateSale handles the POST /api/sales endpoint.
func (h *salesHandler) handleCreateSale(ctx *gin.Context) {
	var req sales.SaleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("failed to bind JSON request", zap.Error(err), zap.String("request_id", requestID(ctx)))
		ctx.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
			Error:     "invalid_request",
			Message:   "invalid request payload",
			RequestID: requestID(ctx),
		})
		return
	}

	res, err := h.salesService.CreateSale(ctx.Request.Context(), req)
	if err != nil {
		h.logger.Warn("failed to create sale", zap.Error(err), zap.String("request_id", requestID(ctx)))
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, createSaleResponse{
		Sale:     res.Sale,
		Ticket:   res.Ticket,
		Warnings: res.Warnings,
	})
}

// handleGetSale handles GET /api/sales/:saleId.
func (h *salesHandler) handleGetSale(ctx *gin.Context) {
	sale, err := h.salesService.GetSale(ctx.Request.Context(), ctx.Param("saleId"))
	if err != nil {
		if !errors.Is(err, sales.ErrNotFound) {
			h.logger.Error("failed to fetch sale", zap.String("sale_id", ctx.Param("saleId")), zap.Error(err))
		}
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, sale)
}

// handleCancelSale handles PATCH /api/sales/:saleId/cancel. The body is optional.
func (h *salesHandler) handleCancelSale(ctx *gin.Context) {
	var req cancelSaleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
			Error:     "invalid_request",
			Message:   "invalid request payload",
			RequestID: requestID(ctx),
		})
		return
	}

	res, err := h.salesService.CancelSale(ctx.Request.Context(), ctx.Param("saleId"), req.Reason)
	if err != nil {
		writeError(ctx, err)
		return
	}

	message := "Sale canceled and stock restored"
	if res.Partial {
		message = "Sale canceled with partial restoration"
	}
	ctx.JSON(http.StatusOK, cancelSaleResponse{
		OK:                  true,
		Partial:             res.Partial,
		Message:             message,
		SaleID:              res.Sale.SaleID,
		Status:              res.Sale.Status,
		CanceledAt:          res.Sale.CanceledAt,
		CancelReason:        res.Sale.CancelReason,
		CustomerReversed:    res.CustomerReversed,
		RestorationFailures: res.RestorationFailures,
		Warnings:            res.Warnings,
	})
}
