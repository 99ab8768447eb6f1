package native

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
)

type dbEntry struct {
	name  string
	store Store
	iters map[uint64]struct{}
}

type iterEntry struct {
	db     Handle
	cursor Cursor
}

// handleEngine implements Engine over a Backend. It keeps one table per
// resource kind; the lock is held shared for every call that uses an engine
// object and exclusively for calls that create or release one, so an object
// is never released while another call is using it.
type handleEngine struct {
	backend Backend
	seq     handleSeq

	mu      sync.RWMutex
	names   map[string]Handle
	dbs     *table[*dbEntry]
	iters   *table[*iterEntry]
	batches *table[*Batch]
}

// New returns an Engine that hands out handles for the stores of backend.
func New(backend Backend) Engine {
	return &handleEngine{
		backend: backend,
		names:   make(map[string]Handle),
		dbs:     newTable[*dbEntry](KindDatabase),
		iters:   newTable[*iterEntry](KindIterator),
		batches: newTable[*Batch](KindBatch),
	}
}

func (e *handleEngine) Open(name string, opts OpenOptions) (Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if h, ok := e.names[name]; ok {
		return Handle{}, errors.Wrapf(ErrDatabaseOpen, "%q is open as %s", name, h)
	}
	store, err := e.backend.Open(name, opts)
	if err != nil {
		return Handle{}, err
	}
	h := e.dbs.add(&e.seq, &dbEntry{
		name:  name,
		store: store,
		iters: make(map[uint64]struct{}),
	})
	e.names[name] = h
	return h, nil
}

func (e *handleEngine) Close(db Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, err := e.dbs.remove(db)
	if err != nil {
		return err
	}
	delete(e.names, entry.name)

	// Cursors must be released before the store they read from.
	var closeErr error
	for id := range entry.iters {
		it, err := e.iters.remove(Handle{kind: KindIterator, id: id})
		if err != nil {
			continue
		}
		closeErr = errors.CombineErrors(closeErr, it.cursor.Close())
	}
	return errors.CombineErrors(closeErr, entry.store.Close())
}

func (e *handleEngine) Destroy(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if h, ok := e.names[name]; ok {
		return errors.Wrapf(ErrDatabaseOpen, "%q is open as %s", name, h)
	}
	return e.backend.Destroy(name)
}

func (e *handleEngine) Get(db Handle, key []byte) ([]byte, bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	entry, err := e.dbs.get(db)
	if err != nil {
		return nil, false, err
	}
	return entry.store.Get(key)
}

func (e *handleEngine) Put(db Handle, key, value []byte) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	entry, err := e.dbs.get(db)
	if err != nil {
		return err
	}
	return entry.store.Set(key, value)
}

func (e *handleEngine) Delete(db Handle, key []byte) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	entry, err := e.dbs.get(db)
	if err != nil {
		return err
	}
	return entry.store.Delete(key)
}

func (e *handleEngine) NewIterator(db Handle) (Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, err := e.dbs.get(db)
	if err != nil {
		return Handle{}, err
	}
	cursor, err := entry.store.NewCursor()
	if err != nil {
		return Handle{}, err
	}
	h := e.iters.add(&e.seq, &iterEntry{db: db, cursor: cursor})
	entry.iters[h.id] = struct{}{}
	return h, nil
}

// move runs a cursor movement and surfaces any error the cursor hit.
func (e *handleEngine) move(it Handle, fn func(c Cursor) bool) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	entry, err := e.iters.get(it)
	if err != nil {
		return err
	}
	if !fn(entry.cursor) {
		return entry.cursor.Error()
	}
	return nil
}

func (e *handleEngine) SeekToFirst(it Handle) error {
	return e.move(it, Cursor.First)
}

func (e *handleEngine) SeekToLast(it Handle) error {
	return e.move(it, Cursor.Last)
}

func (e *handleEngine) Seek(it Handle, target []byte) error {
	return e.move(it, func(c Cursor) bool { return c.SeekGE(target) })
}

func (e *handleEngine) Next(it Handle) error {
	return e.move(it, Cursor.Next)
}

func (e *handleEngine) Prev(it Handle) error {
	return e.move(it, Cursor.Prev)
}

func (e *handleEngine) Valid(it Handle) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	entry, err := e.iters.get(it)
	if err != nil {
		return false, err
	}
	return entry.cursor.Valid(), nil
}

func (e *handleEngine) Key(it Handle) ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	entry, err := e.iters.get(it)
	if err != nil {
		return nil, err
	}
	return entry.cursor.Key(), nil
}

func (e *handleEngine) Value(it Handle) ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	entry, err := e.iters.get(it)
	if err != nil {
		return nil, err
	}
	return entry.cursor.Value(), nil
}

func (e *handleEngine) Compare(it Handle, target []byte) (int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	entry, err := e.iters.get(it)
	if err != nil {
		return 0, err
	}
	return e.backend.Compare(entry.cursor.Key(), target), nil
}

func (e *handleEngine) CloseIterator(it Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, err := e.iters.remove(it)
	if err != nil {
		return err
	}
	if db, err := e.dbs.get(entry.db); err == nil {
		delete(db.iters, it.id)
	}
	return entry.cursor.Close()
}

func (e *handleEngine) NewWriteBatch() (Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.batches.add(&e.seq, &Batch{}), nil
}

func (e *handleEngine) BatchPut(b Handle, key, value []byte) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	batch, err := e.batches.get(b)
	if err != nil {
		return err
	}
	batch.Put(key, value)
	return nil
}

func (e *handleEngine) BatchDelete(b Handle, key []byte) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	batch, err := e.batches.get(b)
	if err != nil {
		return err
	}
	batch.Delete(key)
	return nil
}

func (e *handleEngine) BatchSize(b Handle) (int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	batch, err := e.batches.get(b)
	if err != nil {
		return 0, err
	}
	return batch.ValueSize(), nil
}

func (e *handleEngine) Write(db, b Handle) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	batch, err := e.batches.get(b)
	if err != nil {
		return err
	}
	entry, err := e.dbs.get(db)
	if err != nil {
		return err
	}
	return entry.store.Apply(batch)
}

func (e *handleEngine) CloseBatch(b Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, err := e.batches.remove(b)
	return err
}

func (e *handleEngine) Merge(dst, src Handle, atomic bool) (err error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	to, err := e.dbs.get(dst)
	if err != nil {
		return err
	}
	from, err := e.dbs.get(src)
	if err != nil {
		return err
	}
	if dst == src {
		return nil
	}

	cursor, err := from.store.NewCursor()
	if err != nil {
		return err
	}
	defer func() {
		err = errors.CombineErrors(err, cursor.Close())
	}()

	var batch Batch
	for ok := cursor.First(); ok; ok = cursor.Next() {
		batch.Put(cursor.Key(), cursor.Value())
		if !atomic && batch.ValueSize() >= IdealBatchSize {
			if err := to.store.Apply(&batch); err != nil {
				return err
			}
			batch.Reset()
		}
	}
	if err := cursor.Error(); err != nil {
		return err
	}
	if batch.Len() == 0 {
		return nil
	}
	return to.store.Apply(&batch)
}

func (e *handleEngine) Compact(ctx context.Context, db Handle, start, limit []byte) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	entry, err := e.dbs.get(db)
	if err != nil {
		return err
	}
	return entry.store.Compact(ctx, start, limit)
}

func (e *handleEngine) Stat(db Handle) (string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	entry, err := e.dbs.get(db)
	if err != nil {
		return "", err
	}
	return entry.store.Stat()
}

func (e *handleEngine) ReadFile(path string, offset, length int64) ([]byte, error) {
	return readFile(path, offset, length)
}

func (e *handleEngine) Metrics() Metrics {
	e.mu.RLock()
	defer e.mu.RUnlock()

	m := Metrics{
		Databases: e.dbs.len(),
		Iterators: e.iters.len(),
		Batches:   e.batches.len(),
	}
	for _, entry := range e.dbs.entries {
		if r, ok := entry.store.(metricsReporter); ok {
			r.report(&m)
		}
	}
	return m
}
