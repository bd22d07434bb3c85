// Package redisstore keeps the product catalog and the daily folio sequence
// in Redis.
package redisstore

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"pos_sales/internal/sales"
)

// Products are hashes with name, price, stock and active fields.
const productKeyPrefix = "pos:product:"

// decrementScript returns 1 when stock was taken, 0 otherwise.
var decrementScript = redis.NewScript(`
local stock = tonumber(redis.call('HGET', KEYS[1], 'stock'))
if not stock then return 0 end
if redis.call('HGET', KEYS[1], 'active') ~= '1' then return 0 end
local qty = tonumber(ARGV[1])
if stock < qty then return 0 end
redis.call('HINCRBY', KEYS[1], 'stock', -qty)
return 1
`)

// incrementScript returns 0 when the product hash is gone.
var incrementScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return 0 end
redis.call('HINCRBY', KEYS[1], 'stock', tonumber(ARGV[1]))
return 1
`)

// seedScript writes the hash only when the product is new and returns 1 in
// that case.
var seedScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then return 0 end
redis.call('HSET', KEYS[1], 'name', ARGV[1], 'price', ARGV[2], 'stock', ARGV[3], 'active', ARGV[4])
return 1
`)

// Catalog implements sales.Catalog over Redis hashes.
type Catalog struct {
	client redis.Cmdable
}

func NewCatalog(client redis.Cmdable) *Catalog {
	return &Catalog{client: client}
}

func productKey(id uuid.UUID) string {
	return productKeyPrefix + id.String()
}

func (c *Catalog) FindActiveByID(ctx context.Context, id uuid.UUID) (*sales.Product, error) {
	fields, err := c.client.HGetAll(ctx, productKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product %s: %w", id, err)
	}
	if len(fields) == 0 || fields["active"] != "1" {
		return nil, sales.ErrProductNotFound
	}

	price, err := decimal.NewFromString(fields["price"])
	if err != nil {
		return nil, fmt.Errorf("product %s has a malformed price: %w", id, err)
	}
	stock, err := strconv.Atoi(fields["stock"])
	if err != nil {
		return nil, fmt.Errorf("product %s has a malformed stock: %w", id, err)
	}
	return &sales.Product{
		ID:     id,
		Name:   fields["name"],
		Price:  price,
		Stock:  stock,
		Active: true,
	}, nil
}

func (c *Catalog) ConditionalDecrement(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	n, err := decrementScript.Run(ctx, c.client, []string{productKey(id)}, qty).Int()
	if err != nil {
		return false, fmt.Errorf("failed to decrement stock of %s: %w", id, err)
	}
	return n == 1, nil
}

func (c *Catalog) ConditionalIncrement(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	n, err := incrementScript.Run(ctx, c.client, []string{productKey(id)}, qty).Int()
	if err != nil {
		return false, fmt.Errorf("failed to increment stock of %s: %w", id, err)
	}
	return n == 1, nil
}

// Seed adds a product that is not in Redis yet and reports whether it did.
// An existing hash, and its live stock, is left alone.
func (c *Catalog) Seed(ctx context.Context, p sales.Product) (bool, error) {
	active := "0"
	if p.Active {
		active = "1"
	}
	n, err := seedScript.Run(ctx, c.client, []string{productKey(p.ID)},
		p.Name, p.Price.String(), p.Stock, active,
	).Int()
	if err != nil {
		return false, fmt.Errorf("failed to seed product %s: %w", p.ID, err)
	}
	return n == 1, nil
}
