// Package cache is the content-addressed result cache: one analysis per
// image per calendar day. Entries are additive-only, first write wins.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/mealmetric/server/internal/module/analysis/meal"
)

// DefaultTTL bounds entry lifetime to match the per-calendar-day key.
const DefaultTTL = 24 * time.Hour

// Store holds previously computed estimates.
type Store interface {
	// Get returns the cached estimate for a key, reporting a miss via the
	// second return.
	Get(ctx context.Context, key string) (*meal.Estimate, bool, error)

	// Put stores an estimate. A key already present is left untouched.
	Put(ctx context.Context, key string, est *meal.Estimate) error
}

// ContentHash derives the image identity half of the cache key. The image
// bytes are hashed when available; the opaque ref is the fallback identity
// when the image store could not serve them.
func ContentHash(image []byte, ref string) string {
	var sum [sha256.Size]byte
	if len(image) > 0 {
		sum = sha256.Sum256(image)
	} else {
		sum = sha256.Sum256([]byte(ref))
	}
	return hex.EncodeToString(sum[:])
}

// Key builds the content-addressed cache key for one image on one day.
func Key(contentHash string, day time.Time) string {
	return fmt.Sprintf("cache:%s:%s", contentHash, day.UTC().Format("2006-01-02"))
}
