package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pos_sales/internal/sales"
)

// Dependencies are the collaborators the routes need.
type Dependencies struct {
	Service *sales.Service
	Logger  *zap.Logger
	// Metrics, when set, is served on GET /metrics.
	Metrics http.Handler
	// Ready, when set, is checked by GET /api/health.
	Ready func(ctx context.Context) error
}

// InitRoutes registers the sales endpoints on the given Gin engine.
func InitRoutes(e *gin.Engine, deps Dependencies) {
	salesHandler := NewSalesHandler(deps.Service, deps.Logger)

	e.Use(RequestID(), RequestLogger(deps.Logger), gin.Recovery())

	g := e.Group("/api")
	g.POST("/sales", salesHandler.handleCreateSale)
	g.GET("/sales/:saleId", salesHandler.handleGetSale)
	g.PATCH("/sales/:saleId/cancel", salesHandler.handleCancelSale)

	g.GET("/health", func(c *gin.Context) {
		if deps.Ready != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := deps.Ready(ctx); err != nil {
				deps.Logger.Warn("health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "store": deps.Service.StoreName()})
	})

	if deps.Metrics != nil {
		e.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	e.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
}
