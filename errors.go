package handledb

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/sxwebdev/handledb/native"
)

var (
	// ErrInitialization is returned when the native engine is missing or failed
	// to install. It sticks until a later Install succeeds.
	ErrInitialization = errors.New("handledb: native engine unavailable")

	// ErrOpen is returned when the engine refuses to open a database: missing
	// without createIfMissing, existing with errorIfExists, or an I/O fault.
	ErrOpen = errors.New("handledb: cannot open database")

	// ErrClosedHandle is returned by any operation on a database, iterator or
	// write batch whose handle was released, including by a peer's Close.
	ErrClosedHandle = errors.New("handledb: handle is closed")

	// ErrOpenDatabase is returned by DestroyDB for an open database without force.
	ErrOpenDatabase = errors.New("handledb: database is open, cannot destroy")

	// ErrInvalidIteratorState is returned by iterator calls that need the
	// iterator positioned on an entry.
	ErrInvalidIteratorState = errors.New("handledb: iterator is not positioned on an entry")

	// ErrNativeIO is returned for any other engine failure.
	ErrNativeIO = errors.New("handledb: native I/O failure")
)

// nativeErr classifies an engine error and names the operation that hit it.
// Both the class and the engine's own error stay reachable through errors.Is.
func nativeErr(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, native.ErrReleased):
		return fmt.Errorf("%s: %w: %w", op, ErrClosedHandle, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrNativeIO, err)
	}
}

func closedErr(op string) error {
	return errors.Wrap(ErrClosedHandle, op)
}
