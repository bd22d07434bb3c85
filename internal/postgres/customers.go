package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"pos_sales/internal/sales"
)

// Customers implements sales.CustomerDirectory on the customers table.
type Customers struct {
	db DB
}

func NewCustomers(db DB) *Customers {
	return &Customers{db: db}
}

func (c *Customers) FindByID(ctx context.Context, id uuid.UUID) (*sales.Customer, error) {
	var cu sales.Customer
	err := c.db.QueryRow(ctx,
		"SELECT id, name, purchases_count FROM customers WHERE id = $1", id,
	).Scan(&cu.ID, &cu.Name, &cu.PurchasesCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sales.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to fetch customer %s: %w", id, err)
	}
	return &cu, nil
}

func (c *Customers) ConditionalDecrementPurchases(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := c.db.Exec(ctx, `
		UPDATE customers
		SET purchases_count = purchases_count - 1, updated_at = now()
		WHERE id = $1 AND purchases_count > 0
	`, id)
	if err != nil {
		return false, fmt.Errorf("failed to decrement purchases of %s: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (c *Customers) IncrementPurchases(ctx context.Context, id uuid.UUID) error {
	tag, err := c.db.Exec(ctx, `
		UPDATE customers
		SET purchases_count = purchases_count + 1, updated_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to increment purchases of %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return sales.ErrCustomerNotFound
	}
	return nil
}

// Seed inserts a customer unless one with the same id already exists.
func (c *Customers) Seed(ctx context.Context, cu sales.Customer) error {
	_, err := c.db.Exec(ctx, `
		INSERT INTO customers (id, name, purchases_count)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`, cu.ID, cu.Name, cu.PurchasesCount)
	if err != nil {
		return fmt.Errorf("failed to seed customer %s: %w", cu.ID, err)
	}
	return nil
}
