package handledb

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
)

// KeyValueReader wraps the Has and GetBuf methods of a backing data store.
type KeyValueReader interface {
	// Has retrieves if a key is present in the key-value data store.
	Has(key []byte) (bool, error)

	// GetBuf retrieves the given key if it's present in the key-value data store.
	GetBuf(key []byte) ([]byte, bool, error)
}

// KeyValueWriter wraps the Put and Delete methods of a backing data store.
type KeyValueWriter interface {
	// Put inserts the given value into the key-value data store.
	Put(key []byte, value []byte) error

	// Delete removes the key from the key-value data store.
	Delete(key []byte) error
}

// KeyValueStater wraps the Stat method of a backing data store.
type KeyValueStater interface {
	// Stat returns the statistic data of the database.
	Stat() (string, error)
}

// Compacter wraps the Compact method of a backing data store.
type Compacter interface {
	// Compact flattens the underlying data store for the given key range. In essence,
	// deleted and overwritten versions are discarded, and the data is rearranged to
	// reduce the cost of operations needed to access them.
	//
	// A nil start is treated as a key before all keys in the data store; a nil limit
	// is treated as a key after all keys in the data store. If both is nil then it
	// will compact entire data store.
	Compact(ctx context.Context, start []byte, limit []byte) error
}

var (
	_ KeyValueReader = (*DB)(nil)
	_ KeyValueWriter = (*DB)(nil)
	_ KeyValueStater = (*DB)(nil)
	_ Compacter      = (*DB)(nil)
)

// DB is a reference to an open database. Every DB opened under the same name
// while that name is open shares one native connection; they are peers, and
// closing any of them closes all of them.
//
// A DB is not safe for concurrent use by multiple goroutines without external
// synchronization.
type DB struct {
	name string
	ref  *dbHandle
}

// Open opens the database called name, or attaches to it if it is already open
// in this process. When attaching, createIfMissing, errorIfExists and opts are
// ignored: they were fixed by the first open.
func Open(name string, createIfMissing, errorIfExists bool, opts ...Option) (*DB, error) {
	reg := openRegistry()
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if ref, ok := reg.resolve(name); ok {
		ref.logger.Debug("attached to open database", "name", name, "handle", ref.handle.String())
		return &DB{name: name, ref: ref}, nil
	}

	engine, err := currentEngine()
	if err != nil {
		return nil, err
	}
	o := newOptions(opts)
	h, err := engine.Open(name, o.openOptions(createIfMissing, errorIfExists))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %w", name, ErrOpen, err)
	}
	ref := &dbHandle{
		name:   name,
		handle: h,
		engine: engine,
		logger: o.logger,
	}
	reg.register(name, ref)
	o.logger.Debug("opened database", "name", name, "handle", h.String())
	return &DB{name: name, ref: ref}, nil
}

// Name returns the name the database was opened with.
func (d *DB) Name() string {
	return d.name
}

// live returns the database's handle record, or ErrClosedHandle if this DB or
// any of its peers was closed.
func (d *DB) live(op string) (*dbHandle, error) {
	if d.ref == nil || !openRegistry().holds(d.ref) {
		return nil, closedErr(op)
	}
	return d.ref, nil
}

// Closed reports whether this DB, or any peer sharing its connection, has
// been closed.
func (d *DB) Closed() bool {
	return d.ref == nil || !openRegistry().holds(d.ref)
}

// Close releases the native connection, together with every iterator still
// open on it, and closes all peers. Closing a closed DB returns
// ErrClosedHandle.
func (d *DB) Close() error {
	reg := openRegistry()
	reg.mu.Lock()
	defer reg.mu.Unlock()

	ref := d.ref
	d.ref = nil
	if !reg.holdsLocked(ref) {
		return closedErr("close")
	}
	reg.unregisterAll(ref)
	if err := ref.engine.Close(ref.handle); err != nil {
		ref.logger.Error("failed to close database", "name", ref.name, "err", err)
		return nativeErr(err, "close")
	}
	ref.logger.Debug("closed database", "name", ref.name)
	return nil
}

// Put inserts the given value into the database.
func (d *DB) Put(key []byte, value []byte) error {
	ref, err := d.live("put")
	if err != nil {
		return err
	}
	return nativeErr(ref.engine.Put(ref.handle, key, value), "put")
}

// Delete removes the key from the database. Deleting a missing key is not an
// error.
func (d *DB) Delete(key []byte) error {
	ref, err := d.live("delete")
	if err != nil {
		return err
	}
	return nativeErr(ref.engine.Delete(ref.handle, key), "delete")
}

// GetBuf returns a copy of the value stored for key and true, or nil and false
// if the key is absent.
func (d *DB) GetBuf(key []byte) ([]byte, bool, error) {
	ref, err := d.live("get")
	if err != nil {
		return nil, false, err
	}
	value, ok, err := ref.engine.Get(ref.handle, key)
	if err != nil {
		return nil, false, nativeErr(err, "get")
	}
	return value, ok, nil
}

// GetStr is GetBuf with the value projected to a string.
func (d *DB) GetStr(key []byte) (string, bool, error) {
	value, ok, err := d.GetBuf(key)
	if err != nil || !ok {
		return "", ok, err
	}
	return string(value), true, nil
}

// Has retrieves if a key is present in the database.
func (d *DB) Has(key []byte) (bool, error) {
	_, ok, err := d.GetBuf(key)
	return ok, err
}

// NewIterator returns an unpositioned iterator over the whole keyspace. One
// of the seek methods must be called before the iterator is used. The
// iterator should be closed before the database; if the database is closed
// first, every later call on the iterator fails with ErrClosedHandle.
func (d *DB) NewIterator() (*Iterator, error) {
	ref, err := d.live("new iterator")
	if err != nil {
		return nil, err
	}
	h, err := ref.engine.NewIterator(ref.handle)
	if err != nil {
		return nil, nativeErr(err, "new iterator")
	}
	return &Iterator{db: ref, handle: h}, nil
}

// Write applies every operation staged in batch atomically and in order. When
// a key appears more than once the last operation wins.
func (d *DB) Write(batch *WriteBatch) error {
	ref, err := d.live("write")
	if err != nil {
		return err
	}
	if batch == nil || batch.closed || batch.engine != ref.engine {
		return closedErr("write: batch")
	}
	return nativeErr(ref.engine.Write(ref.handle, batch.handle), "write")
}

// Compact flattens the database for the given key range. Nil bounds extend
// the range to the start or end of the keyspace.
func (d *DB) Compact(ctx context.Context, start []byte, limit []byte) error {
	ref, err := d.live("compact")
	if err != nil {
		return err
	}
	return nativeErr(ref.engine.Compact(ctx, ref.handle, start, limit), "compact")
}

// Stat returns the engine's internal statistics in a text format.
func (d *DB) Stat() (string, error) {
	ref, err := d.live("stat")
	if err != nil {
		return "", err
	}
	stat, err := ref.engine.Stat(ref.handle)
	if err != nil {
		return "", nativeErr(err, "stat")
	}
	return stat, nil
}

// DestroyDB deletes all persisted state of the database called name.
//
// If name is open in this process DestroyDB fails with ErrOpenDatabase,
// unless force is set, in which case the connection is closed first and all
// of its DB references become closed. Forcing while other goroutines are still
// using the connection, its iterators or batches is unsafe: those calls may
// fail in the engine or observe a half-destroyed database.
func DestroyDB(name string, force bool) error {
	reg := openRegistry()
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if ref, ok := reg.resolve(name); ok {
		if !force {
			return errors.Wrapf(ErrOpenDatabase, "destroy %s", name)
		}
		ref.logger.Warn("closing open database to destroy it", "name", name)
		reg.unregisterAll(ref)
		if err := ref.engine.Close(ref.handle); err != nil {
			return nativeErr(err, "destroy")
		}
	}

	engine, err := currentEngine()
	if err != nil {
		return err
	}
	return nativeErr(engine.Destroy(name), "destroy")
}
