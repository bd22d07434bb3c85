// Package directory talks to a remote customer service over HTTP.
package directory

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"resty.dev/v3"

	"pos_sales/internal/sales"
)

const defaultTimeout = 5 * time.Second

var _ sales.CustomerDirectory = (*Client)(nil)

// Client implements sales.CustomerDirectory against:
//
//	GET  /customers/{id}
//	POST /customers/{id}/purchases/increment
//	POST /customers/{id}/purchases/decrement  (409 when the count is zero)
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(defaultTimeout).
		SetHeader("Accept", "application/json")
	return &Client{http: c, logger: logger}
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.http.Close()
}

func (c *Client) FindByID(ctx context.Context, id uuid.UUID) (*sales.Customer, error) {
	var customer sales.Customer
	res, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id.String()).
		SetResult(&customer).
		Get("/customers/{id}")
	if err != nil {
		return nil, fmt.Errorf("failed to call customer directory: %w", err)
	}

	switch res.StatusCode() {
	case http.StatusOK:
		return &customer, nil
	case http.StatusNotFound:
		return nil, sales.ErrCustomerNotFound
	default:
		c.logger.Error("unexpected response from customer directory",
			zap.String("customer_id", id.String()),
			zap.Int("status", res.StatusCode()))
		return nil, fmt.Errorf("customer directory returned status %d", res.StatusCode())
	}
}

func (c *Client) IncrementPurchases(ctx context.Context, id uuid.UUID) error {
	res, err := c.purchases(ctx, id, "increment")
	if err != nil {
		return err
	}
	switch res.StatusCode() {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return sales.ErrCustomerNotFound
	default:
		return fmt.Errorf("customer directory returned status %d", res.StatusCode())
	}
}

func (c *Client) ConditionalDecrementPurchases(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := c.purchases(ctx, id, "decrement")
	if err != nil {
		return false, err
	}
	switch res.StatusCode() {
	case http.StatusOK, http.StatusNoContent:
		return true, nil
	case http.StatusConflict:
		return false, nil
	case http.StatusNotFound:
		return false, sales.ErrCustomerNotFound
	default:
		return false, fmt.Errorf("customer directory returned status %d", res.StatusCode())
	}
}

func (c *Client) purchases(ctx context.Context, id uuid.UUID, op string) (*resty.Response, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"id": id.String(), "op": op}).
		Post("/customers/{id}/purchases/{op}")
	if err != nil {
		return nil, fmt.Errorf("failed to %s purchases of %s: %w", op, id, err)
	}
	return res, nil
}
