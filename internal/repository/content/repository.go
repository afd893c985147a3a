package content

import "context"

// Repository is the key/value Content Store holding per-product fields.
type Repository interface {
	// Get returns the value for key; ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// GetMany returns the present keys only.
	GetMany(ctx context.Context, keys []string) (map[string]string, error)
	// FindByPattern returns every key matching a SQL LIKE pattern.
	FindByPattern(ctx context.Context, pattern string) (map[string]string, error)
	Upsert(ctx context.Context, key, value string) error
}
