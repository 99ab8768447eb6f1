package native_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sxwebdev/handledb/native"
)

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob.bin")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o600))

	e := native.NewPebbleEngine()

	buf, err := e.ReadFile(path, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte("2345"), buf)

	// Short read at the end of the file.
	buf, err = e.ReadFile(path, 8, 10)
	require.NoError(t, err)
	assert.Equal(t, []byte("89"), buf)

	buf, err = e.ReadFile(path, 20, 4)
	require.NoError(t, err)
	assert.Empty(t, buf)

	// Lengths far beyond the file size are clamped, not allocated.
	buf, err = e.ReadFile(path, 0, math.MaxInt64)
	require.NoError(t, err)
	assert.Equal(t, []byte("0123456789"), buf)

	buf, err = e.ReadFile(path, 7, math.MaxInt64)
	require.NoError(t, err)
	assert.Equal(t, []byte("789"), buf)

	_, err = e.ReadFile(path, -1, 4)
	require.Error(t, err)

	_, err = e.ReadFile(filepath.Join(t.TempDir(), "missing"), 0, 1)
	require.ErrorIs(t, err, os.ErrNotExist)
}
