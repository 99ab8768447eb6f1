package handledb

import (
	"github.com/cockroachdb/errors"
	"github.com/sxwebdev/handledb/native"
)

type iterState uint8

const (
	iterUnpositioned iterState = iota
	iterValid
	iterInvalid
	iterClosed
)

func (s iterState) String() string {
	switch s {
	case iterUnpositioned:
		return "unpositioned"
	case iterValid:
		return "valid"
	case iterInvalid:
		return "invalid"
	default:
		return "closed"
	}
}

// Iterator walks a database in byte-lexicographic key order. It starts
// unpositioned; a seek moves it onto an entry (valid) or past an end
// (invalid). Next, Prev and the accessors need it valid.
//
// An Iterator is not safe for concurrent use.
type Iterator struct {
	db     *dbHandle
	handle native.Handle
	state  iterState
}

func (it *Iterator) check(op string) error {
	if it.state == iterClosed {
		return closedErr(op)
	}
	if !openRegistry().holds(it.db) {
		return errors.Wrapf(ErrClosedHandle, "%s: database %s closed", op, it.db.name)
	}
	return nil
}

func (it *Iterator) positioned(op string) error {
	if err := it.check(op); err != nil {
		return err
	}
	if it.state != iterValid {
		return errors.Wrapf(ErrInvalidIteratorState, "%s: iterator is %s", op, it.state)
	}
	return nil
}

// move runs a cursor movement and records where it left the iterator.
func (it *Iterator) move(op string, fn func(native.Engine) error) error {
	engine := it.db.engine
	if err := fn(engine); err != nil {
		it.state = iterInvalid
		return nativeErr(err, op)
	}
	ok, err := engine.Valid(it.handle)
	if err != nil {
		it.state = iterInvalid
		return nativeErr(err, op)
	}
	if ok {
		it.state = iterValid
	} else {
		it.state = iterInvalid
	}
	return nil
}

// SeekToFirst positions the iterator at the first key. The iterator is valid
// afterwards iff the database is not empty.
func (it *Iterator) SeekToFirst() error {
	if err := it.check("seek to first"); err != nil {
		return err
	}
	return it.move("seek to first", func(e native.Engine) error { return e.SeekToFirst(it.handle) })
}

// SeekToLast positions the iterator at the last key. The iterator is valid
// afterwards iff the database is not empty.
func (it *Iterator) SeekToLast() error {
	if err := it.check("seek to last"); err != nil {
		return err
	}
	return it.move("seek to last", func(e native.Engine) error { return e.SeekToLast(it.handle) })
}

// Seek positions the iterator at the first key at or past target.
func (it *Iterator) Seek(target []byte) error {
	if err := it.check("seek"); err != nil {
		return err
	}
	return it.move("seek", func(e native.Engine) error { return e.Seek(it.handle, target) })
}

// Valid reports whether the iterator is positioned on an entry.
func (it *Iterator) Valid() (bool, error) {
	if err := it.check("valid"); err != nil {
		return false, err
	}
	return it.state == iterValid, nil
}

// Next moves to the next entry. The iterator is invalid afterwards if it was
// on the last entry.
func (it *Iterator) Next() error {
	if err := it.positioned("next"); err != nil {
		return err
	}
	return it.move("next", func(e native.Engine) error { return e.Next(it.handle) })
}

// Prev moves to the previous entry. The iterator is invalid afterwards if it
// was on the first entry.
func (it *Iterator) Prev() error {
	if err := it.positioned("prev"); err != nil {
		return err
	}
	return it.move("prev", func(e native.Engine) error { return e.Prev(it.handle) })
}

// KeyBuf returns the current key. The slice is owned by the engine: the caller
// must not modify it, and it is only valid until the iterator moves.
func (it *Iterator) KeyBuf() ([]byte, error) {
	if err := it.positioned("key"); err != nil {
		return nil, err
	}
	key, err := it.db.engine.Key(it.handle)
	if err != nil {
		return nil, nativeErr(err, "key")
	}
	return key, nil
}

// KeyStr returns a copy of the current key as a string.
func (it *Iterator) KeyStr() (string, error) {
	key, err := it.KeyBuf()
	if err != nil {
		return "", err
	}
	return string(key), nil
}

// ValueBuf returns the current value. The slice is owned by the engine: the
// caller must not modify it, and it is only valid until the iterator moves.
func (it *Iterator) ValueBuf() ([]byte, error) {
	if err := it.positioned("value"); err != nil {
		return nil, err
	}
	value, err := it.db.engine.Value(it.handle)
	if err != nil {
		return nil, nativeErr(err, "value")
	}
	return value, nil
}

// ValueStr returns a copy of the current value as a string.
func (it *Iterator) ValueStr() (string, error) {
	value, err := it.ValueBuf()
	if err != nil {
		return "", err
	}
	return string(value), nil
}

// CompareKey compares the current key with target in the database's key
// order: negative if the key sorts before target, zero if equal, positive
// if after.
func (it *Iterator) CompareKey(target []byte) (int, error) {
	if err := it.positioned("compare key"); err != nil {
		return 0, err
	}
	cmp, err := it.db.engine.Compare(it.handle, target)
	if err != nil {
		return 0, nativeErr(err, "compare key")
	}
	return cmp, nil
}

// Close releases the native cursor. If the database was closed first the
// cursor is already gone and Close only marks the iterator closed. Any later
// call fails with ErrClosedHandle.
func (it *Iterator) Close() error {
	if it.state == iterClosed {
		return closedErr("iterator close")
	}
	it.state = iterClosed
	err := it.db.engine.CloseIterator(it.handle)
	if errors.Is(err, native.ErrReleased) {
		return nil
	}
	return nativeErr(err, "iterator close")
}
