package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pos_sales/internal/sales"
)

const (
	folioKeyPrefix = "pos:folio:"
	folioKeyTTL    = 48 * time.Hour
	maxDailyFolio  = 9999
)

// ErrFolioExhausted is returned once a day's sequence passes 9999.
var ErrFolioExhausted = errors.New("daily folio sequence exhausted")

// SequenceFolio hands out PREFIX-YYYYMMDD-NNNN folios from a per-day INCR
// counter, so folios never collide within a day.
type SequenceFolio struct {
	client redis.Cmdable
	prefix string
}

func NewSequenceFolio(client redis.Cmdable, prefix string) *SequenceFolio {
	if prefix == "" {
		prefix = sales.DefaultFolioPrefix
	}
	return &SequenceFolio{client: client, prefix: prefix}
}

func (f *SequenceFolio) key(now time.Time) string {
	return folioKeyPrefix + f.prefix + ":" + now.Format("20060102")
}

func (f *SequenceFolio) Next(ctx context.Context, now time.Time) (string, error) {
	key := f.key(now)
	n, err := f.client.Incr(ctx, key).Result()
	if err != nil {
		return "", fmt.Errorf("failed to advance folio sequence: %w", err)
	}
	if n == 1 {
		if err := f.client.Expire(ctx, key, folioKeyTTL).Err(); err != nil {
			return "", fmt.Errorf("failed to set folio sequence expiry: %w", err)
		}
	}
	if n > maxDailyFolio {
		return "", ErrFolioExhausted
	}
	return sales.FormatFolio(f.prefix, now, int(n)), nil
}
