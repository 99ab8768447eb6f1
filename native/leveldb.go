package native

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/comparer"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// NewLevelDBEngine returns an Engine backed by goleveldb.
func NewLevelDBEngine() Engine {
	return New(levelDBBackend{})
}

type levelDBBackend struct{}

func (levelDBBackend) Open(name string, o OpenOptions) (Store, error) {
	if o.Cache < minCache {
		o.Cache = minCache
	}
	if o.Handles < minHandles {
		o.Handles = minHandles
	}
	options := &opt.Options{
		ErrorIfMissing:         !o.CreateIfMissing,
		ErrorIfExist:           o.ErrorIfExists,
		ReadOnly:               o.ReadOnly,
		BlockCacheCapacity:     o.Cache / 2 * opt.MiB,
		WriteBuffer:            o.Cache / 4 * opt.MiB,
		OpenFilesCacheCapacity: o.Handles,
		DisableSeeksCompaction: true,
	}
	db, err := leveldb.OpenFile(name, options)
	if err != nil {
		return nil, err
	}
	return &levelDB{
		db:           db,
		writeOptions: &opt.WriteOptions{Sync: !o.NoSync},
	}, nil
}

func (levelDBBackend) Destroy(name string) error {
	return os.RemoveAll(name)
}

func (levelDBBackend) Compare(a, b []byte) int {
	return comparer.DefaultComparer.Compare(a, b)
}

type levelDB struct {
	db           *leveldb.DB
	writeOptions *opt.WriteOptions
}

func (d *levelDB) Get(key []byte) ([]byte, bool, error) {
	// goleveldb already returns a copy.
	value, err := d.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (d *levelDB) Set(key, value []byte) error {
	return d.db.Put(key, value, d.writeOptions)
}

func (d *levelDB) Delete(key []byte) error {
	return d.db.Delete(key, d.writeOptions)
}

func (d *levelDB) Apply(b *Batch) error {
	lb := new(leveldb.Batch)
	if err := b.Replay(levelDBBatchWriter{lb}); err != nil {
		return err
	}
	return d.db.Write(lb, d.writeOptions)
}

type levelDBBatchWriter struct {
	b *leveldb.Batch
}

func (w levelDBBatchWriter) Put(key, value []byte) error {
	w.b.Put(key, value)
	return nil
}

func (w levelDBBatchWriter) Delete(key []byte) error {
	w.b.Delete(key)
	return nil
}

func (d *levelDB) NewCursor() (Cursor, error) {
	return &levelDBCursor{iter: d.db.NewIterator(nil, nil)}, nil
}

func (d *levelDB) Compact(ctx context.Context, start, limit []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.db.CompactRange(util.Range{Start: start, Limit: limit})
}

func (d *levelDB) Stat() (string, error) {
	return d.db.GetProperty("leveldb.stats")
}

func (d *levelDB) Close() error {
	return d.db.Close()
}

// levelDBCursor adapts a goleveldb iterator to Cursor.
type levelDBCursor struct {
	iter iterator.Iterator
}

func (c *levelDBCursor) First() bool            { return c.iter.First() }
func (c *levelDBCursor) Last() bool             { return c.iter.Last() }
func (c *levelDBCursor) SeekGE(key []byte) bool { return c.iter.Seek(key) }
func (c *levelDBCursor) Next() bool             { return c.iter.Next() }
func (c *levelDBCursor) Prev() bool             { return c.iter.Prev() }
func (c *levelDBCursor) Valid() bool            { return c.iter.Valid() }
func (c *levelDBCursor) Key() []byte            { return c.iter.Key() }
func (c *levelDBCursor) Value() []byte          { return c.iter.Value() }
func (c *levelDBCursor) Error() error           { return c.iter.Error() }

func (c *levelDBCursor) Close() error {
	c.iter.Release()
	return nil
}
