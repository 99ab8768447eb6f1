package native

import (
	"slices"

	"github.com/cockroachdb/errors"
)

// IdealBatchSize is the amount of staged data after which an incremental
// merge commits and starts a new batch.
const IdealBatchSize = 100 * 1024

// OpKind is the type of a staged operation.
type OpKind uint8

const (
	OpPut OpKind = iota + 1
	OpDelete
)

// Op is one staged batch operation.
type Op struct {
	Kind  OpKind
	Key   []byte
	Value []byte
}

// Writer receives the operations of a batch in order.
type Writer interface {
	Put(key, value []byte) error
	Delete(key []byte) error
}

// Batch is an ordered list of staged operations with no database affinity.
// Engines translate it into their own batch type each time it is applied, so
// the same Batch can be applied any number of times.
type Batch struct {
	ops  []Op
	size int
}

// Put stages a key/value write. Both slices are copied.
func (b *Batch) Put(key, value []byte) {
	b.ops = append(b.ops, Op{Kind: OpPut, Key: slices.Clone(key), Value: slices.Clone(value)})
	b.size += len(key) + len(value)
}

// Delete stages a key removal. The key is copied.
func (b *Batch) Delete(key []byte) {
	b.ops = append(b.ops, Op{Kind: OpDelete, Key: slices.Clone(key)})
	b.size += len(key)
}

// Len returns the number of staged operations.
func (b *Batch) Len() int { return len(b.ops) }

// ValueSize retrieves the amount of data staged so far.
func (b *Batch) ValueSize() int { return b.size }

// Reset drops every staged operation.
func (b *Batch) Reset() {
	b.ops = b.ops[:0]
	b.size = 0
}

// Replay replays the batch contents in staging order.
func (b *Batch) Replay(w Writer) error {
	for _, op := range b.ops {
		var err error
		switch op.Kind {
		case OpPut:
			err = w.Put(op.Key, op.Value)
		case OpDelete:
			err = w.Delete(op.Key)
		default:
			err = errors.AssertionFailedf("unhandled batch operation: %d", op.Kind)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
