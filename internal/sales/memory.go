package sales

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
)

// MemoryCatalog is an in-memory Catalog. A single mutex makes every
// conditional update atomic.
type MemoryCatalog struct {
	mu       sync.Mutex
	products map[uuid.UUID]Product
}

func NewMemoryCatalog(products ...Product) *MemoryCatalog {
	c := &MemoryCatalog{products: make(map[uuid.UUID]Product, len(products))}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

// Put inserts or replaces a product.
func (c *MemoryCatalog) Put(p Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID] = p
}

// Get returns a product regardless of its active flag.
func (c *MemoryCatalog) Get(id uuid.UUID) (Product, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	return p, ok
}

func (c *MemoryCatalog) FindActiveByID(_ context.Context, id uuid.UUID) (*Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok || !p.Active {
		return nil, ErrProductNotFound
	}
	return &p, nil
}

func (c *MemoryCatalog) ConditionalDecrement(_ context.Context, id uuid.UUID, qty int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok || !p.Active || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	c.products[id] = p
	return true, nil
}

func (c *MemoryCatalog) ConditionalIncrement(_ context.Context, id uuid.UUID, qty int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return false, nil
	}
	p.Stock += qty
	c.products[id] = p
	return true, nil
}

// MemoryCustomers is an in-memory CustomerDirectory.
type MemoryCustomers struct {
	mu        sync.Mutex
	customers map[uuid.UUID]Customer
}

func NewMemoryCustomers(customers ...Customer) *MemoryCustomers {
	d := &MemoryCustomers{customers: make(map[uuid.UUID]Customer, len(customers))}
	for _, cu := range customers {
		d.customers[cu.ID] = cu
	}
	return d
}

// Put inserts or replaces a customer.
func (d *MemoryCustomers) Put(cu Customer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.customers[cu.ID] = cu
}

func (d *MemoryCustomers) FindByID(_ context.Context, id uuid.UUID) (*Customer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cu, ok := d.customers[id]
	if !ok {
		return nil, ErrCustomerNotFound
	}
	return &cu, nil
}

func (d *MemoryCustomers) ConditionalDecrementPurchases(_ context.Context, id uuid.UUID) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cu, ok := d.customers[id]
	if !ok || cu.PurchasesCount <= 0 {
		return false, nil
	}
	cu.PurchasesCount--
	d.customers[id] = cu
	return true, nil
}

func (d *MemoryCustomers) IncrementPurchases(_ context.Context, id uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	cu, ok := d.customers[id]
	if !ok {
		return ErrCustomerNotFound
	}
	cu.PurchasesCount++
	d.customers[id] = cu
	return nil
}

// Seed is the JSON shape accepted by LoadSeed.
type Seed struct {
	Products  []Product  `json:"products"`
	Customers []Customer `json:"customers"`
}

// LoadSeed fills the in-memory stores from a JSON file.
func LoadSeed(path string, catalog *MemoryCatalog, customers *MemoryCustomers) (Seed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("reading seed file: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(raw, &seed); err != nil {
		return Seed{}, fmt.Errorf("decoding seed file: %w", err)
	}
	for _, p := range seed.Products {
		if p.ID == uuid.Nil {
			return Seed{}, fmt.Errorf("seed product %q has no id", p.Name)
		}
		if !p.Price.IsPositive() || p.Stock < 0 {
			return Seed{}, fmt.Errorf("seed product %s: price must be > 0 and stock >= 0", p.ID)
		}
		catalog.Put(p)
	}
	for _, cu := range seed.Customers {
		if cu.ID == uuid.Nil || cu.PurchasesCount < 0 {
			return Seed{}, fmt.Errorf("seed customer %q is invalid", cu.Name)
		}
		customers.Put(cu)
	}
	return seed, nil
}
