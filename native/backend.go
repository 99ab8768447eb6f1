package native

import "context"

// Backend opens stores of one storage engine.
type Backend interface {
	Open(name string, opts OpenOptions) (Store, error)
	Destroy(name string) error
	// Compare is the engine's key ordering.
	Compare(a, b []byte) int
}

// Store is one open database of a Backend.
type Store interface {
	// Get returns a copy of the value and whether the key exists.
	Get(key []byte) ([]byte, bool, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	// Apply commits the batch atomically.
	Apply(b *Batch) error
	NewCursor() (Cursor, error)
	Compact(ctx context.Context, start, limit []byte) error
	Stat() (string, error)
	Close() error
}

// Cursor walks a Store in key order. Moves report whether the cursor is left
// on an entry.
type Cursor interface {
	First() bool
	Last() bool
	SeekGE(key []byte) bool
	Next() bool
	Prev() bool
	Valid() bool
	Key() []byte
	Value() []byte
	Error() error
	Close() error
}

// metricsReporter is implemented by stores that track engine events. It adds
// the store's counters to m.
type metricsReporter interface {
	report(m *Metrics)
}
