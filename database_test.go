package handledb_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sxwebdev/handledb"
)

// testPath returns a database name under the test's temporary directory.
func testPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name)
}

// openTestDB creates a fresh database and closes it when the test ends.
func openTestDB(t *testing.T, name string) (*handledb.DB, string) {
	t.Helper()
	path := testPath(t, name)
	db, err := handledb.Open(path, true, false)
	require.NoError(t, err)
	t.Cleanup(func() {
		if !db.Closed() {
			assert.NoError(t, db.Close())
		}
	})
	return db, path
}

func TestDatabase_PutGetDelete(t *testing.T) {
	db, _ := openTestDB(t, "crud")

	require.NoError(t, db.Put([]byte("foo"), []byte("bar")))

	value, ok, err := db.GetStr([]byte("foo"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "bar", value)

	buf, ok, err := db.GetBuf([]byte("foo"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("bar"), buf)

	// Overwrite
	require.NoError(t, db.Put([]byte("foo"), []byte("baz")))
	value, _, err = db.GetStr([]byte("foo"))
	require.NoError(t, err)
	assert.Equal(t, "baz", value)

	require.NoError(t, db.Delete([]byte("foo")))
	_, ok, err = db.GetStr([]byte("foo"))
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting a missing key is fine
	require.NoError(t, db.Delete([]byte("foo")))
}

func TestDatabase_MissingKey(t *testing.T) {
	db, _ := openTestDB(t, "missing")

	value, ok, err := db.GetStr([]byte("nope"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, value)

	buf, ok, err := db.GetBuf([]byte("nope"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, buf)

	has, err := db.Has([]byte("nope"))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestDatabase_Unicode(t *testing.T) {
	db, _ := openTestDB(t, "unicode")

	key, value := "ключ-🔑", "значение-日本語"
	require.NoError(t, db.Put([]byte(key), []byte(value)))

	got, ok, err := db.GetStr([]byte(key))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, value, got)

	// The text and byte forms address the same key.
	buf, ok, err := db.GetBuf([]byte(key))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(value), buf)
}

func TestDatabase_BinaryAndEmptyValues(t *testing.T) {
	db, _ := openTestDB(t, "binary")

	key := []byte{0x00, 0xff, 0x10}
	require.NoError(t, db.Put(key, []byte{0x00, 0x00}))
	require.NoError(t, db.Put([]byte("empty"), nil))

	buf, ok, err := db.GetBuf(key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte{0x00, 0x00}, buf)

	buf, ok, err = db.GetBuf([]byte("empty"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, buf)
}

func TestDatabase_GetReturnsCopy(t *testing.T) {
	db, _ := openTestDB(t, "copy")

	require.NoError(t, db.Put([]byte("k"), []byte("value")))
	buf, _, err := db.GetBuf([]byte("k"))
	require.NoError(t, err)
	buf[0] = 'X'

	again, _, err := db.GetStr([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, "value", again)
}

func TestDatabase_OpenFlags(t *testing.T) {
	path := testPath(t, "flags")

	// Missing without createIfMissing
	_, err := handledb.Open(path, false, false)
	require.ErrorIs(t, err, handledb.ErrOpen)

	db, err := handledb.Open(path, true, false)
	require.NoError(t, err)
	assert.Equal(t, path, db.Name())
	require.NoError(t, db.Close())

	// Existing with errorIfExists
	_, err = handledb.Open(path, true, true)
	require.ErrorIs(t, err, handledb.ErrOpen)

	// Existing without createIfMissing
	db, err = handledb.Open(path, false, false)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestDatabase_Persistence(t *testing.T) {
	path := testPath(t, "persist")

	db, err := handledb.Open(path, true, false)
	require.NoError(t, err)
	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	require.NoError(t, db.Close())

	db, err = handledb.Open(path, false, false)
	require.NoError(t, err)
	defer db.Close()

	value, ok, err := db.GetStr([]byte("k"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", value)
}

func TestDatabase_Closed(t *testing.T) {
	db, _ := openTestDB(t, "closed")
	assert.False(t, db.Closed())

	require.NoError(t, db.Close())
	assert.True(t, db.Closed())

	t.Run("operations", func(t *testing.T) {
		require.ErrorIs(t, db.Put([]byte("k"), []byte("v")), handledb.ErrClosedHandle)
		require.ErrorIs(t, db.Delete([]byte("k")), handledb.ErrClosedHandle)

		_, _, err := db.GetStr([]byte("k"))
		require.ErrorIs(t, err, handledb.ErrClosedHandle)
		_, _, err = db.GetBuf([]byte("k"))
		require.ErrorIs(t, err, handledb.ErrClosedHandle)
		_, err = db.Has([]byte("k"))
		require.ErrorIs(t, err, handledb.ErrClosedHandle)
		_, err = db.NewIterator()
		require.ErrorIs(t, err, handledb.ErrClosedHandle)
		_, err = db.Stat()
		require.ErrorIs(t, err, handledb.ErrClosedHandle)
		require.ErrorIs(t, db.Compact(context.Background(), nil, nil), handledb.ErrClosedHandle)
	})

	t.Run("double close", func(t *testing.T) {
		require.ErrorIs(t, db.Close(), handledb.ErrClosedHandle)
	})
}

func TestDatabase_SharedConnection(t *testing.T) {
	path := testPath(t, "shared")

	a, err := handledb.Open(path, true, false)
	require.NoError(t, err)
	// Flags of an attach are ignored: errorIfExists would fail a fresh open.
	b, err := handledb.Open(path, false, true)
	require.NoError(t, err)

	require.NoError(t, a.Put([]byte("k"), []byte("v")))
	value, ok, err := b.GetStr([]byte("k"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", value)

	// Closing one peer closes both.
	require.NoError(t, b.Close())
	assert.True(t, a.Closed())
	assert.True(t, b.Closed())
	require.ErrorIs(t, a.Put([]byte("k"), []byte("v")), handledb.ErrClosedHandle)
	require.ErrorIs(t, a.Close(), handledb.ErrClosedHandle)

	// A reopen gets a new connection that the old peers never see.
	c, err := handledb.Open(path, false, false)
	require.NoError(t, err)
	defer c.Close()
	assert.True(t, a.Closed())

	value, _, err = c.GetStr([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, "v", value)
}

func TestDatabase_DistinctNames(t *testing.T) {
	a, _ := openTestDB(t, "a")
	b, _ := openTestDB(t, "b")

	require.NoError(t, a.Put([]byte("k"), []byte("a")))
	_, ok, err := b.GetStr([]byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, a.Close())
	assert.False(t, b.Closed())
}

func TestDestroyDB(t *testing.T) {
	t.Run("open database", func(t *testing.T) {
		db, path := openTestDB(t, "destroy-open")
		require.NoError(t, db.Put([]byte("k"), []byte("v")))

		require.ErrorIs(t, handledb.DestroyDB(path, false), handledb.ErrOpenDatabase)

		// Nothing changed
		assert.False(t, db.Closed())
		value, _, err := db.GetStr([]byte("k"))
		require.NoError(t, err)
		assert.Equal(t, "v", value)
	})

	t.Run("closed database", func(t *testing.T) {
		db, path := openTestDB(t, "destroy-closed")
		require.NoError(t, db.Put([]byte("k"), []byte("v")))
		require.NoError(t, db.Close())

		require.NoError(t, handledb.DestroyDB(path, false))

		_, err := handledb.Open(path, false, false)
		require.ErrorIs(t, err, handledb.ErrOpen)
	})

	t.Run("forced", func(t *testing.T) {
		path := testPath(t, "destroy-forced")
		a, err := handledb.Open(path, true, false)
		require.NoError(t, err)
		b, err := handledb.Open(path, true, false)
		require.NoError(t, err)
		require.NoError(t, a.Put([]byte("k"), []byte("v")))

		require.NoError(t, handledb.DestroyDB(path, true))
		assert.True(t, a.Closed())
		assert.True(t, b.Closed())

		// Recreated empty
		db, err := handledb.Open(path, true, false)
		require.NoError(t, err)
		defer db.Close()
		_, ok, err := db.GetStr([]byte("k"))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("never created", func(t *testing.T) {
		require.NoError(t, handledb.DestroyDB(testPath(t, "never"), false))
	})
}

func TestDatabase_CompactAndStat(t *testing.T) {
	db, _ := openTestDB(t, "compact")

	for i := 0; i < 100; i++ {
		require.NoError(t, db.Put([]byte{byte(i)}, []byte("value")))
	}
	for i := 0; i < 50; i++ {
		require.NoError(t, db.Delete([]byte{byte(i)}))
	}

	require.NoError(t, db.Compact(context.Background(), nil, nil))

	stat, err := db.Stat()
	require.NoError(t, err)
	assert.NotEmpty(t, stat)

	has, err := db.Has([]byte{byte(60)})
	require.NoError(t, err)
	assert.True(t, has)
}
