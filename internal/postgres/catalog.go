package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"pos_sales/internal/sales"
)

// Catalog implements sales.Catalog on the products table.
type Catalog struct {
	db DB
}

func NewCatalog(db DB) *Catalog {
	return &Catalog{db: db}
}

func (c *Catalog) FindActiveByID(ctx context.Context, id uuid.UUID) (*sales.Product, error) {
	var p sales.Product
	err := c.db.QueryRow(ctx, `
		SELECT id, name, price, stock, active
		FROM products
		WHERE id = $1 AND active = true
	`, id).Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sales.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to fetch product %s: %w", id, err)
	}
	return &p, nil
}

func (c *Catalog) ConditionalDecrement(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	tag, err := c.db.Exec(ctx, `
		UPDATE products
		SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND active = true AND stock >= $2
	`, id, qty)
	if err != nil {
		return false, fmt.Errorf("failed to decrement stock of %s: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (c *Catalog) ConditionalIncrement(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	tag, err := c.db.Exec(ctx, `
		UPDATE products
		SET stock = stock + $2, updated_at = now()
		WHERE id = $1
	`, id, qty)
	if err != nil {
		return false, fmt.Errorf("failed to increment stock of %s: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

// Seed inserts a product unless one with the same id already exists. Live
// stock is never overwritten.
func (c *Catalog) Seed(ctx context.Context, p sales.Product) error {
	_, err := c.db.Exec(ctx, `
		INSERT INTO products (id, name, price, stock, active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`, p.ID, p.Name, p.Price, p.Stock, p.Active)
	if err != nil {
		return fmt.Errorf("failed to seed product %s: %w", p.ID, err)
	}
	return nil
}

// Stock returns current stock regardless of the active flag.
func (c *Catalog) Stock(ctx context.Context, id uuid.UUID) (int, error) {
	var stock int
	if err := c.db.QueryRow(ctx, "SELECT stock FROM products WHERE id = $1", id).Scan(&stock); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, sales.ErrProductNotFound
		}
		return 0, fmt.Errorf("failed to read stock of %s: %w", id, err)
	}
	return stock, nil
}
