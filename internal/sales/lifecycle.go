package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// CancelResult describes a cancellation. The transition itself is
// authoritative; Partial is set when stock restoration or the customer
// reversal did not fully complete.
type CancelResult struct {
	Sale                *Sale
	RestorationFailures []RestorationFailure
	CustomerReversed    bool
	Partial             bool
	Warnings            []string
}

// CancelSale moves a completed sale to canceled, restores its stock and
// reverses the customer's purchase count.
func (s *Service) CancelSale(ctx context.Context, saleID, reason string) (*CancelResult, error) {
	saleID = strings.TrimSpace(saleID)
	reason = strings.TrimSpace(reason)

	sale, err := s.storage.FindBySaleID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if sale.Status == StatusCanceled {
		return nil, alreadyCanceled(sale)
	}

	now := s.now()
	sale.Status = StatusCanceled
	sale.CanceledAt = &now
	sale.CancelReason = reason
	sale.UpdatedAt = now
	sale.Version++

	if err := s.storage.Save(ctx, sale); err != nil {
		if errors.Is(err, ErrVersionConflict) {
			// A concurrent cancel got there first.
			if cur, ferr := s.storage.FindBySaleID(ctx, saleID); ferr == nil && cur.Status == StatusCanceled {
				return nil, alreadyCanceled(cur)
			}
		}
		s.logger.Error("failed to update sale", zap.String("sale_id", saleID), zap.Error(err))
		return nil, fmt.Errorf("failed to cancel sale %s: %w", saleID, err)
	}

	res := &CancelResult{Sale: sale}

	if failures := s.stock.Restore(ctx, sale.Items); len(failures) > 0 {
		res.RestorationFailures = failures
		res.Partial = true
		res.Warnings = append(res.Warnings, fmt.Sprintf("stock was not restored for %d item(s)", len(failures)))
	}

	if sale.CustomerID != nil {
		ok, err := s.customers.ConditionalDecrementPurchases(ctx, *sale.CustomerID)
		switch {
		case err != nil:
			s.logger.Warn("failed to decrement customer purchases",
				zap.String("sale_id", saleID),
				zap.String("customer_id", sale.CustomerID.String()),
				zap.Error(err))
			res.Partial = true
			res.Warnings = append(res.Warnings, "customer purchase count was not reversed")
		case !ok:
			s.logger.Info("customer purchases already at zero or customer missing",
				zap.String("sale_id", saleID),
				zap.String("customer_id", sale.CustomerID.String()))
		default:
			res.CustomerReversed = true
		}
	}

	s.publish(ctx, sale, EventSaleCanceled)
	s.metrics.SaleCanceled(res.Partial)
	s.logger.Info("sale canceled",
		zap.String("sale_id", saleID),
		zap.String("reason", reason),
		zap.Bool("partial", res.Partial))

	return res, nil
}

func alreadyCanceled(sale *Sale) error {
	e := &AlreadyCanceledError{SaleID: sale.SaleID, CancelReason: sale.CancelReason}
	if sale.CanceledAt != nil {
		e.CanceledAt = *sale.CanceledAt
	}
	return e
}
