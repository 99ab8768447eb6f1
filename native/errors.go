package native

import "github.com/cockroachdb/errors"

var (
	// ErrReleased is returned for a handle that is not live: never issued,
	// already released, or of the wrong kind for the call.
	ErrReleased = errors.New("native: handle released")

	// ErrDatabaseOpen is returned by Destroy for a name that is still open.
	ErrDatabaseOpen = errors.New("native: database is open")
)

func released(h Handle, want Kind) error {
	return errors.Wrapf(ErrReleased, "%s handle %s", want, h)
}
