package native

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
)

// readFile returns up to length bytes of the file at path starting at offset.
// Reading past the end of the file yields a short buffer, not an error.
func readFile(path string, offset, length int64) ([]byte, error) {
	if offset < 0 || length < 0 {
		return nil, errors.Newf("invalid read range: offset %d, length %d", offset, length)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "stat %s", path)
	}
	// Clamp to the bytes the file holds.
	if rest := info.Size() - offset; rest < length {
		length = max(rest, 0)
	}
	buf := make([]byte, length)
	n, err := f.ReadAt(buf, offset)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return buf[:n], nil
}
