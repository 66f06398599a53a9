package storage

import "context"

// Store is an abstraction over the keyed hierarchical publish store.
// Paths are slash-separated, e.g. "rates/sanaa/usd_buy"
type Store interface {
	// Get reads the value (or subtree) at the given path into out.
	// An absent path leaves out unmodified and returns no error,
	// so callers pre-seed out with their fallback value
	Get(ctx context.Context, path string, out any) error

	// Update applies the given path -> value map as a partial merge.
	// Sibling keys not present in the map are left untouched
	Update(ctx context.Context, updates map[string]any) error
}
