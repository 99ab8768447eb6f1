// Package native is the engine side of handledb. It owns every engine object
// (database connections, cursors, staged batches) and hands out opaque Handle
// tokens for them. Callers never see engine objects, only handles, and every
// call validates the handle it is given before touching the engine.
package native

import (
	"context"
	"fmt"
	"time"
)

// Kind tags the resource a Handle refers to.
type Kind uint8

const (
	KindNone Kind = iota
	KindDatabase
	KindIterator
	KindBatch
)

func (k Kind) String() string {
	switch k {
	case KindDatabase:
		return "database"
	case KindIterator:
		return "iterator"
	case KindBatch:
		return "batch"
	default:
		return "none"
	}
}

// Handle is an opaque token for one live engine resource. The zero Handle
// refers to nothing. Ids are never reused within a process, so a released
// handle stays released.
type Handle struct {
	kind Kind
	id   uint64
}

// Kind returns the resource kind of the handle.
func (h Handle) Kind() Kind { return h.kind }

// ID returns the engine-assigned id.
func (h Handle) ID() uint64 { return h.id }

// IsZero reports whether h refers to nothing.
func (h Handle) IsZero() bool { return h.kind == KindNone && h.id == 0 }

func (h Handle) String() string {
	return fmt.Sprintf("%s#%d", h.kind, h.id)
}

// Logger receives the engine's own diagnostic output. It matches pebble's
// logger so an implementation can be handed straight to pebble.
type Logger interface {
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
	Fatalf(format string, args ...any)
}

// OpenOptions are fixed when a database is first opened.
type OpenOptions struct {
	CreateIfMissing bool
	ErrorIfExists   bool
	ReadOnly        bool

	// Cache is the block cache size in megabytes.
	Cache int
	// Handles is the maximum number of open files.
	Handles int

	NoSync          bool
	WALBytesPerSync int

	Logger Logger
}

// Metrics is a point-in-time snapshot of an engine's resource usage.
type Metrics struct {
	Databases int
	Iterators int
	Batches   int

	// Engine event totals of the databases that are open now.
	Level0Compactions    int64
	NonLevel0Compactions int64
	CompactionTime       time.Duration
	WriteStalls          int64
	WriteStallTime       time.Duration
	// StalledDatabases is the number of databases whose writes are stalled.
	StalledDatabases int
}

// Engine is the boundary every client-side object talks to. All methods block
// until the engine is done.
type Engine interface {
	Open(name string, opts OpenOptions) (Handle, error)
	// Close releases the database and every iterator still open on it.
	Close(db Handle) error
	// Destroy removes all persisted state of a database that is not open.
	Destroy(name string) error

	// Get returns a copy of the stored value and whether the key exists.
	Get(db Handle, key []byte) ([]byte, bool, error)
	Put(db Handle, key, value []byte) error
	Delete(db Handle, key []byte) error

	NewIterator(db Handle) (Handle, error)
	SeekToFirst(it Handle) error
	SeekToLast(it Handle) error
	Seek(it Handle, target []byte) error
	Valid(it Handle) (bool, error)
	Next(it Handle) error
	Prev(it Handle) error
	// Key and Value return engine-owned slices valid until the next move.
	Key(it Handle) ([]byte, error)
	Value(it Handle) ([]byte, error)
	Compare(it Handle, target []byte) (int, error)
	CloseIterator(it Handle) error

	NewWriteBatch() (Handle, error)
	BatchPut(b Handle, key, value []byte) error
	BatchDelete(b Handle, key []byte) error
	BatchSize(b Handle) (int, error)
	Write(db, b Handle) error
	CloseBatch(b Handle) error

	// Merge copies every entry of src into dst. With atomic set the copy is
	// applied as one batch.
	Merge(dst, src Handle, atomic bool) error

	Compact(ctx context.Context, db Handle, start, limit []byte) error
	Stat(db Handle) (string, error)

	ReadFile(path string, offset, length int64) ([]byte, error)

	Metrics() Metrics
}
