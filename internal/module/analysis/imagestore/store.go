// Package imagestore resolves opaque image references to raw bytes. The
// mobile client uploads photos to object storage before requesting analysis;
// the ref it sends is the object key.
package imagestore

import "context"

// Store fetches image content by reference.
type Store interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}
