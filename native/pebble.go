package native

import (
	"bytes"
	"context"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble/v2"
)

const (
	// minCache is the minimum amount of memory in megabytes to allocate to pebble
	// read and write caching, split half and half.
	minCache = 16

	// minHandles is the minimum number of files handles to allocate to the open
	// database files.
	minHandles = 16
)

// NewPebbleEngine returns an Engine backed by pebble. It is the default engine.
func NewPebbleEngine() Engine {
	return New(pebbleBackend{})
}

type pebbleBackend struct{}

func (pebbleBackend) Open(name string, opts OpenOptions) (Store, error) {
	return newPebbleDB(name, opts)
}

func (pebbleBackend) Destroy(name string) error {
	return os.RemoveAll(name)
}

func (pebbleBackend) Compare(a, b []byte) int {
	return pebble.DefaultComparer.Compare(a, b)
}

// pebbleDB is a persistent key-value store based on the pebble storage engine.
type pebbleDB struct {
	fn string     // filename for reporting
	db *pebble.DB // Underlying pebble storage engine

	readonly bool
	logger   pebble.Logger

	compLock      sync.Mutex
	activeComp    int           // Current number of active compactions
	compStartTime time.Time     // The start time of the earliest currently-active compaction
	compTime      atomic.Int64  // Total time spent in compaction in ns
	level0Comp    atomic.Uint32 // Total number of level-zero compactions
	nonLevel0Comp atomic.Uint32 // Total number of non level-zero compactions

	writeStalled        atomic.Bool  // Flag whether the write is stalled
	writeDelayStartTime time.Time    // The start time of the latest write stall
	writeDelayCount     atomic.Int64 // Total number of write stall counts
	writeDelayTime      atomic.Int64 // Total time spent in write stalls

	writeOptions *pebble.WriteOptions
}

func (d *pebbleDB) onCompactionBegin(info pebble.CompactionInfo) {
	d.compLock.Lock()
	defer d.compLock.Unlock()

	if d.activeComp == 0 {
		d.compStartTime = time.Now()
	}
	if len(info.Input) > 0 && info.Input[0].Level == 0 {
		d.level0Comp.Add(1)
	} else {
		d.nonLevel0Comp.Add(1)
	}
	d.activeComp++
}

func (d *pebbleDB) onCompactionEnd(info pebble.CompactionInfo) {
	d.compLock.Lock()
	defer d.compLock.Unlock()

	switch d.activeComp {
	case 1:
		d.compTime.Add(int64(time.Since(d.compStartTime)))
	case 0:
		return
	}
	d.activeComp--
}

func (d *pebbleDB) onWriteStallBegin(b pebble.WriteStallBeginInfo) {
	d.writeDelayStartTime = time.Now()
	d.writeDelayCount.Add(1)
	d.writeStalled.Store(true)

	// Take just the first word of the reason. These are two potential
	// reasons for the write stall:
	// - memtable count limit reached
	// - L0 file count limit exceeded
	reason := b.Reason
	if i := strings.IndexByte(reason, ' '); i != -1 {
		reason = reason[:i]
	}
	if reason != "L0" && reason != "memtable" {
		reason = "unknown"
	}
	d.logger.Infof("write stall on %s: %s", d.fn, reason)
}

func (d *pebbleDB) onWriteStallEnd() {
	d.writeDelayTime.Add(int64(time.Since(d.writeDelayStartTime)))
	d.writeStalled.Store(false)
	d.writeDelayStartTime = time.Time{}
}

func (d *pebbleDB) report(m *Metrics) {
	m.Level0Compactions += int64(d.level0Comp.Load())
	m.NonLevel0Compactions += int64(d.nonLevel0Comp.Load())
	m.CompactionTime += time.Duration(d.compTime.Load())
	m.WriteStalls += d.writeDelayCount.Load()
	m.WriteStallTime += time.Duration(d.writeDelayTime.Load())
	if d.writeStalled.Load() {
		m.StalledDatabases++
	}
}

// newPebbleDB opens the pebble database at dirname.
func newPebbleDB(dirname string, o OpenOptions) (*pebbleDB, error) {
	// Ensure we have some minimal caching and file guarantees
	if o.Cache < minCache {
		o.Cache = minCache
	}
	if o.Handles < minHandles {
		o.Handles = minHandles
	}

	// The max memtable size is limited by the uint32 offsets stored in
	// internal/arenaskl.node, DeferredBatchOp, and flushableBatchEntry.
	//
	// - MaxUint32 on 64-bit platforms;
	// - MaxInt on 32-bit platforms.
	maxMemTableSize := (1<<31)<<(^uint(0)>>63) - 1

	// Two memory tables is configured which is identical to leveldb,
	// including a frozen memory table and another live one.
	memTableLimit := 2
	memTableSize := o.Cache * 1024 * 1024 / 2 / memTableLimit
	if memTableSize >= maxMemTableSize {
		memTableSize = maxMemTableSize - 1
	}

	db := &pebbleDB{
		fn:       dirname,
		readonly: o.ReadOnly,
	}
	if o.NoSync {
		// Recent writes may be lost on a crash; WALBytesPerSync bounds how many.
		db.writeOptions = pebble.NoSync
	} else {
		db.writeOptions = pebble.Sync
	}

	db.logger = pebble.DefaultLogger
	if o.Logger != nil {
		db.logger = o.Logger
	}

	opt := &pebble.Options{
		// Pebble has a single combined cache area and the write
		// buffers are taken from this too. Assign all available
		// memory allowance for cache.
		Cache:        pebble.NewCache(int64(o.Cache * 1024 * 1024)),
		MaxOpenFiles: o.Handles,

		// The size of memory table(as well as the write buffer).
		// Note, there may have more than two memory tables in the system.
		MemTableSize: uint64(memTableSize),

		// MemTableStopWritesThreshold places a hard limit on the size
		// of the existent MemTables(including the frozen one).
		MemTableStopWritesThreshold: memTableLimit,

		ErrorIfExists:    o.ErrorIfExists,
		ErrorIfNotExists: !o.CreateIfMissing,
		ReadOnly:         o.ReadOnly,
		EventListener: &pebble.EventListener{
			CompactionBegin: db.onCompactionBegin,
			CompactionEnd:   db.onCompactionEnd,
			WriteStallBegin: db.onWriteStallBegin,
			WriteStallEnd:   db.onWriteStallEnd,
		},
		Logger: db.logger,

		WALBytesPerSync: o.WALBytesPerSync,
	}
	// Disable seek compaction explicitly. Check https://github.com/ethereum/go-ethereum/pull/20130
	// for more details.
	opt.Experimental.ReadSamplingMultiplier = -1

	innerDB, err := pebble.Open(dirname, opt)
	// Open takes its own reference on the cache.
	opt.Cache.Unref()
	if err != nil {
		return nil, err
	}
	db.db = innerDB
	return db, nil
}

// Close flushes any pending data to disk and closes all io accesses to the
// underlying key-value store.
func (d *pebbleDB) Close() error {
	if !d.readonly {
		if err := d.db.Flush(); err != nil {
			return errors.Wrapf(errors.CombineErrors(err, d.db.Close()), "close %s", d.fn)
		}
	}
	return errors.Wrapf(d.db.Close(), "close %s", d.fn)
}

// Get retrieves the given key if it's present in the key-value store.
func (d *pebbleDB) Get(key []byte) ([]byte, bool, error) {
	dat, closer, err := d.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, err
	}
	ret := make([]byte, len(dat))
	copy(ret, dat)
	if err = closer.Close(); err != nil {
		return nil, false, err
	}
	return ret, true, nil
}

// Set inserts the given value into the key-value store.
func (d *pebbleDB) Set(key []byte, value []byte) error {
	return d.db.Set(key, value, d.writeOptions)
}

// Delete removes the key from the key-value store.
func (d *pebbleDB) Delete(key []byte) error {
	return d.db.Delete(key, d.writeOptions)
}

// Apply builds a fresh pebble batch from b and commits it. Pebble batches can
// only be committed once, so b itself stays reusable.
func (d *pebbleDB) Apply(b *Batch) error {
	pb := d.db.NewBatchWithSize(b.ValueSize())
	if err := b.Replay(pebbleBatchWriter{pb}); err != nil {
		return errors.CombineErrors(err, pb.Close())
	}
	if err := pb.Commit(d.writeOptions); err != nil {
		return errors.CombineErrors(err, pb.Close())
	}
	return pb.Close()
}

type pebbleBatchWriter struct {
	b *pebble.Batch
}

func (w pebbleBatchWriter) Put(key, value []byte) error {
	return w.b.Set(key, value, nil)
}

func (w pebbleBatchWriter) Delete(key []byte) error {
	return w.b.Delete(key, nil)
}

// Compact flattens the underlying data store for the given key range. A nil
// start is treated as a key before all keys; a nil limit as a key after all.
func (d *pebbleDB) Compact(ctx context.Context, start []byte, limit []byte) error {
	// There is no special flag to represent the end of key range
	// in pebble(nil in leveldb). Use an ugly hack to construct a
	// large key to represent it.
	// https://github.com/cockroachdb/pebble/issues/2359#issuecomment-1443995833
	if limit == nil {
		limit = bytes.Repeat([]byte{0xff}, 32)
	}
	return d.db.Compact(ctx, start, limit, true) // Parallelization is preferred
}

// Stat returns the internal metrics of Pebble in a text format.
func (d *pebbleDB) Stat() (string, error) {
	return d.db.Metrics().String(), nil
}

// NewCursor opens an unpositioned iterator over the whole keyspace.
func (d *pebbleDB) NewCursor() (Cursor, error) {
	iter, err := d.db.NewIter(nil)
	if err != nil {
		return nil, err
	}
	return &pebbleCursor{iter: iter}, nil
}

// pebbleCursor adapts a pebble iterator to Cursor.
//
// The pebble iterator is not thread-safe.
type pebbleCursor struct {
	iter *pebble.Iterator
}

func (c *pebbleCursor) First() bool            { return c.iter.First() }
func (c *pebbleCursor) Last() bool             { return c.iter.Last() }
func (c *pebbleCursor) SeekGE(key []byte) bool { return c.iter.SeekGE(key) }
func (c *pebbleCursor) Next() bool             { return c.iter.Next() }
func (c *pebbleCursor) Prev() bool             { return c.iter.Prev() }
func (c *pebbleCursor) Valid() bool            { return c.iter.Valid() }
func (c *pebbleCursor) Key() []byte            { return c.iter.Key() }
func (c *pebbleCursor) Value() []byte          { return c.iter.Value() }
func (c *pebbleCursor) Error() error           { return c.iter.Error() }
func (c *pebbleCursor) Close() error           { return c.iter.Close() }
