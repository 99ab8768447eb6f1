package handledb

import "github.com/sxwebdev/handledb/native"

var _ KeyValueWriter = (*WriteBatch)(nil)

// WriteBatch stages puts and deletes for atomic application with DB.Write.
// It belongs to no database: the same batch can be written to several
// databases, any number of times, until it is closed.
//
// A WriteBatch is not safe for concurrent use.
type WriteBatch struct {
	engine native.Engine
	handle native.Handle
	closed bool
}

// NewWriteBatch returns an empty batch.
func NewWriteBatch() (*WriteBatch, error) {
	engine, err := currentEngine()
	if err != nil {
		return nil, err
	}
	h, err := engine.NewWriteBatch()
	if err != nil {
		return nil, nativeErr(err, "new write batch")
	}
	return &WriteBatch{engine: engine, handle: h}, nil
}

// Put stages a write of value under key. Both are copied.
func (b *WriteBatch) Put(key, value []byte) error {
	if b.closed {
		return closedErr("batch put")
	}
	return nativeErr(b.engine.BatchPut(b.handle, key, value), "batch put")
}

// Delete stages a removal of key. It is not an error if the key does not
// exist when the batch is written.
func (b *WriteBatch) Delete(key []byte) error {
	if b.closed {
		return closedErr("batch delete")
	}
	return nativeErr(b.engine.BatchDelete(b.handle, key), "batch delete")
}

// ValueSize retrieves the amount of data staged so far.
func (b *WriteBatch) ValueSize() (int, error) {
	if b.closed {
		return 0, closedErr("batch size")
	}
	size, err := b.engine.BatchSize(b.handle)
	if err != nil {
		return 0, nativeErr(err, "batch size")
	}
	return size, nil
}

// Close drops the batch. Any later call fails with ErrClosedHandle.
func (b *WriteBatch) Close() error {
	if b.closed {
		return closedErr("batch close")
	}
	b.closed = true
	return nativeErr(b.engine.CloseBatch(b.handle), "batch close")
}
