package store

import "context"

// PutRaw writes an arbitrary cache entry so tests can seed corrupt or
// degenerate values under the real keys.
func (s *SQLiteStore) PutRaw(ctx context.Context, key, value string) error {
	return s.setValue(ctx, key, value)
}
