package handledb_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sxwebdev/handledb"
	"golang.org/x/sync/errgroup"
)

func newTestBatch(t *testing.T) *handledb.WriteBatch {
	t.Helper()
	batch, err := handledb.NewWriteBatch()
	require.NoError(t, err)
	return batch
}

func TestWriteBatch_Apply(t *testing.T) {
	db, _ := openTestDB(t, "batch")
	fill(t, db, "stale", "x")

	batch := newTestBatch(t)
	defer batch.Close()

	require.NoError(t, batch.Put([]byte("a"), []byte("1")))
	require.NoError(t, batch.Put([]byte("b"), []byte("2")))
	require.NoError(t, batch.Delete([]byte("stale")))

	// Nothing is visible before the write.
	_, ok, err := db.GetStr([]byte("a"))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, db.Write(batch))

	value, ok, err := db.GetStr([]byte("a"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", value)
	value, _, err = db.GetStr([]byte("b"))
	require.NoError(t, err)
	assert.Equal(t, "2", value)
	_, ok, err = db.GetStr([]byte("stale"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWriteBatch_LastOperationWins(t *testing.T) {
	db, _ := openTestDB(t, "batch-order")

	batch := newTestBatch(t)
	defer batch.Close()

	require.NoError(t, batch.Put([]byte("k"), []byte("v1")))
	require.NoError(t, batch.Put([]byte("k"), []byte("v2")))
	require.NoError(t, batch.Put([]byte("gone"), []byte("x")))
	require.NoError(t, batch.Delete([]byte("gone")))
	require.NoError(t, db.Write(batch))

	value, _, err := db.GetStr([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, "v2", value)

	_, ok, err := db.GetStr([]byte("gone"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWriteBatch_ValueSize(t *testing.T) {
	batch := newTestBatch(t)
	defer batch.Close()

	size, err := batch.ValueSize()
	require.NoError(t, err)
	assert.Zero(t, size)

	require.NoError(t, batch.Put([]byte("key"), []byte("value")))
	require.NoError(t, batch.Delete([]byte("old")))

	size, err = batch.ValueSize()
	require.NoError(t, err)
	assert.Equal(t, len("key")+len("value")+len("old"), size)
}

func TestWriteBatch_Reuse(t *testing.T) {
	a, _ := openTestDB(t, "batch-a")
	b, _ := openTestDB(t, "batch-b")

	batch := newTestBatch(t)
	defer batch.Close()
	require.NoError(t, batch.Put([]byte("k"), []byte("v")))

	// A batch has no database affinity and survives a write.
	require.NoError(t, a.Write(batch))
	require.NoError(t, b.Write(batch))
	require.NoError(t, a.Write(batch))

	for _, db := range []*handledb.DB{a, b} {
		value, ok, err := db.GetStr([]byte("k"))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "v", value)
	}
}

func TestWriteBatch_Closed(t *testing.T) {
	db, _ := openTestDB(t, "batch-closed")

	batch := newTestBatch(t)
	require.NoError(t, batch.Put([]byte("k"), []byte("v")))
	require.NoError(t, batch.Close())

	require.ErrorIs(t, batch.Put([]byte("k"), []byte("v")), handledb.ErrClosedHandle)
	require.ErrorIs(t, batch.Delete([]byte("k")), handledb.ErrClosedHandle)
	_, err := batch.ValueSize()
	require.ErrorIs(t, err, handledb.ErrClosedHandle)
	require.ErrorIs(t, batch.Close(), handledb.ErrClosedHandle)

	require.ErrorIs(t, db.Write(batch), handledb.ErrClosedHandle)
	require.ErrorIs(t, db.Write(nil), handledb.ErrClosedHandle)

	// Nothing was written.
	_, ok, err := db.GetStr([]byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWriteBatch_ClosedDatabase(t *testing.T) {
	db, _ := openTestDB(t, "batch-closed-db")
	require.NoError(t, db.Close())

	batch := newTestBatch(t)
	defer batch.Close()
	require.NoError(t, batch.Put([]byte("k"), []byte("v")))

	require.ErrorIs(t, db.Write(batch), handledb.ErrClosedHandle)
}

func TestConcurrentBatchOperations(t *testing.T) {
	db, _ := openTestDB(t, "batch-concurrent")

	// Test parameters
	numWorkers := 8
	totalItems := 1000
	itemsPerWorker := totalItems / numWorkers

	g, ctx := errgroup.WithContext(context.Background())

	// Each worker owns its batch; the database connection is shared.
	for workerID := 0; workerID < numWorkers; workerID++ {
		id := workerID
		g.Go(func() error {
			batch, err := handledb.NewWriteBatch()
			if err != nil {
				return err
			}
			defer batch.Close()

			startIdx := id * itemsPerWorker
			endIdx := startIdx + itemsPerWorker
			if id == numWorkers-1 {
				endIdx = totalItems
			}

			for i := startIdx; i < endIdx; i++ {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				key := []byte(fmt.Sprintf("key_%04d", i))
				value := []byte(fmt.Sprintf("value_%d", i))
				if err := batch.Put(key, value); err != nil {
					return fmt.Errorf("worker %d failed to put item %d: %w", id, i, err)
				}
			}

			if err := db.Write(batch); err != nil {
				return fmt.Errorf("worker %d failed to write batch: %w", id, err)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	// Verify all items
	for i := 0; i < totalItems; i++ {
		value, ok, err := db.GetStr([]byte(fmt.Sprintf("key_%04d", i)))
		require.NoError(t, err)
		require.True(t, ok, "item %d missing", i)
		assert.Equal(t, fmt.Sprintf("value_%d", i), value)
	}

	it, err := db.NewIterator()
	require.NoError(t, err)
	defer it.Close()
	require.NoError(t, it.SeekToFirst())
	assert.Len(t, collectKeys(t, it), totalItems)
}

func TestConcurrentOpen(t *testing.T) {
	path := testPath(t, "open-concurrent")
	const numWorkers = 8

	dbs := make([]*handledb.DB, numWorkers)
	var g errgroup.Group
	for i := 0; i < numWorkers; i++ {
		g.Go(func() error {
			db, err := handledb.Open(path, true, false)
			if err != nil {
				return err
			}
			dbs[i] = db
			return db.Put([]byte(fmt.Sprintf("worker_%d", i)), []byte("ok"))
		})
	}
	require.NoError(t, g.Wait())

	// All workers share one connection and see each other's writes.
	for i := 0; i < numWorkers; i++ {
		value, ok, err := dbs[0].GetStr([]byte(fmt.Sprintf("worker_%d", i)))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "ok", value)
	}

	require.NoError(t, dbs[numWorkers-1].Close())
	for _, db := range dbs {
		assert.True(t, db.Closed())
	}
}
