package events

import (
	"context"

	"go.uber.org/zap"

	"pos_sales/internal/sales"
)

// LogPublisher writes events to the log. It is used when no broker is
// configured.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event sales.SaleEvent) error {
	fields := []zap.Field{
		zap.String("event", string(event.Type)),
		zap.String("sale_id", event.SaleID),
		zap.String("total", event.Total.StringFixed(2)),
		zap.Int("items", event.Items),
		zap.Time("occurred_at", event.OccurredAt),
	}
	if event.CustomerID != nil {
		fields = append(fields, zap.String("customer_id", event.CustomerID.String()))
	}
	p.logger.Info("sale event", fields...)
	return nil
}
