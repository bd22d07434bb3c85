package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"pos_sales/internal/sales"
)

const uniqueViolation = "23505"

// SaleRepository implements sales.SaleRepository on the sales and
// sale_items tables.
type SaleRepository struct {
	db DB
}

func NewSaleRepository(db DB) *SaleRepository {
	return &SaleRepository{db: db}
}

// Create inserts the sale header and its lines in one transaction.
func (r *SaleRepository) Create(ctx context.Context, sale *sales.Sale) (*sales.Sale, error) {
	if sale.SaleID == "" {
		return nil, sales.ErrEmptyID
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO sales (
			id, sale_id, customer_id, payment_method, subtotal, discount_percent,
			discount_amount, total, status, canceled_at, cancel_reason,
			created_at, updated_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		sale.ID, sale.SaleID, sale.CustomerID, string(sale.PaymentMethod), sale.Subtotal,
		sale.DiscountPercent, sale.DiscountAmount, sale.Total, string(sale.Status),
		sale.CanceledAt, sale.CancelReason, sale.CreatedAt, sale.UpdatedAt, sale.Version,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, sales.ErrDuplicateIdentifier
		}
		return nil, fmt.Errorf("failed to insert sale %s: %w", sale.SaleID, err)
	}

	batch := &pgx.Batch{}
	for i, item := range sale.Items {
		batch.Queue(`
			INSERT INTO sale_items (sale_id, line_no, product_id, product_name, unit_price, quantity, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, sale.ID, i, item.ProductID, item.ProductNameSnapshot, item.UnitPriceSnapshot, item.Quantity, item.LineTotal)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, fmt.Errorf("failed to insert items of sale %s: %w", sale.SaleID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit sale %s: %w", sale.SaleID, err)
	}
	return sale.Clone(), nil
}

func (r *SaleRepository) FindBySaleID(ctx context.Context, saleID string) (*sales.Sale, error) {
	var (
		s      sales.Sale
		method string
		status string
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, sale_id, customer_id, payment_method, subtotal, discount_percent,
		       discount_amount, total, status, canceled_at, cancel_reason,
		       created_at, updated_at, version
		FROM sales
		WHERE sale_id = $1
	`, saleID).Scan(
		&s.ID, &s.SaleID, &s.CustomerID, &method, &s.Subtotal, &s.DiscountPercent,
		&s.DiscountAmount, &s.Total, &status, &s.CanceledAt, &s.CancelReason,
		&s.CreatedAt, &s.UpdatedAt, &s.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sales.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch sale %s: %w", saleID, err)
	}
	s.PaymentMethod = sales.PaymentMethod(method)
	s.Status = sales.Status(status)

	rows, err := r.db.Query(ctx, `
		SELECT product_id, product_name, unit_price, quantity, line_total
		FROM sale_items
		WHERE sale_id = $1
		ORDER BY line_no
	`, s.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch items of sale %s: %w", saleID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item sales.SaleItem
		if err := rows.Scan(
			&item.ProductID, &item.ProductNameSnapshot, &item.UnitPriceSnapshot,
			&item.Quantity, &item.LineTotal,
		); err != nil {
			return nil, fmt.Errorf("failed to scan item of sale %s: %w", saleID, err)
		}
		s.Items = append(s.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read items of sale %s: %w", saleID, err)
	}
	return &s, nil
}

// Save writes the mutable lifecycle columns guarded by the version number.
func (r *SaleRepository) Save(ctx context.Context, sale *sales.Sale) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE sales
		SET status = $2, canceled_at = $3, cancel_reason = $4, updated_at = $5, version = $6
		WHERE sale_id = $1 AND version = $6 - 1
	`, sale.SaleID, string(sale.Status), sale.CanceledAt, sale.CancelReason, sale.UpdatedAt, sale.Version)
	if err != nil {
		return fmt.Errorf("failed to update sale %s: %w", sale.SaleID, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM sales WHERE sale_id = $1)", sale.SaleID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check sale %s: %w", sale.SaleID, err)
	}
	if !exists {
		return sales.ErrNotFound
	}
	return sales.ErrVersionConflict
}
