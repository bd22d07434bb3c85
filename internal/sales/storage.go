package sales

import (
	"context"
	"sync"
)

// LocalStorage provides an in-memory SaleRepository keyed by folio.
type LocalStorage struct {
	mu sync.RWMutex
	m  map[string]*Sale
}

// NewLocalStorage instantiates a new LocalStorage for sales with an empty map.
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{
		m: map[string]*Sale{},
	}
}

// Create stores a new sale.
// Returns ErrEmptyID if the sale has an empty folio and ErrDuplicateIdentifier
// if the folio is already taken.
func (l *LocalStorage) Create(_ context.Context, sale *Sale) (*Sale, error) {
	if sale.SaleID == "" {
		return nil, ErrEmptyID
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.m[sale.SaleID]; ok {
		return nil, ErrDuplicateIdentifier
	}
	l.m[sale.SaleID] = sale.Clone()
	return sale.Clone(), nil
}

// FindBySaleID retrieves a sale from the local storage by folio.
// Returns ErrNotFound if the sale is not found.
func (l *LocalStorage) FindBySaleID(_ context.Context, saleID string) (*Sale, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.m[saleID]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

// Save replaces a stored sale when its version is exactly one behind.
func (l *LocalStorage) Save(_ context.Context, sale *Sale) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	cur, ok := l.m[sale.SaleID]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != sale.Version-1 {
		return ErrVersionConflict
	}
	l.m[sale.SaleID] = sale.Clone()
	return nil
}

// Len returns the number of stored sales.
func (l *LocalStorage) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.m)
}
