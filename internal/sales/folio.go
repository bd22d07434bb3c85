package sales

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"time"
)

// DefaultFolioPrefix is used when no store prefix is configured.
const DefaultFolioPrefix = "CF"

var folioPrefixPattern = regexp.MustCompile(`^[A-Z]{2,4}$`)

// ValidFolioPrefix reports whether prefix is 2 to 4 upper-case letters.
func ValidFolioPrefix(prefix string) bool {
	return folioPrefixPattern.MatchString(prefix)
}

// FolioGenerator produces sale identifiers such as CF-20260213-0042.
type FolioGenerator interface {
	Next(ctx context.Context, now time.Time) (string, error)
}

// FormatFolio builds PREFIX-YYYYMMDD-NNNN.
func FormatFolio(prefix string, now time.Time, n int) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, now.Format("20060102"), n)
}

// RandomFolio uses a random 4-digit suffix. It is not collision-free.
type RandomFolio struct {
	Prefix string
	Intn   func(n int) int
}

// NewRandomFolio returns a generator for prefix.
func NewRandomFolio(prefix string) *RandomFolio {
	if prefix == "" {
		prefix = DefaultFolioPrefix
	}
	return &RandomFolio{Prefix: prefix, Intn: rand.Intn}
}

func (f *RandomFolio) Next(_ context.Context, now time.Time) (string, error) {
	return FormatFolio(f.Prefix, now, f.Intn(10000)), nil
}
