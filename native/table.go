package native

import "sync/atomic"

// handleSeq is shared by every table of an engine so ids are unique across
// kinds.
type handleSeq struct {
	last atomic.Uint64
}

func (s *handleSeq) next(kind Kind) Handle {
	return Handle{kind: kind, id: s.last.Add(1)}
}

// table maps live handles of one kind to their engine objects. It is not
// synchronized; the engine lock covers it.
type table[T any] struct {
	kind    Kind
	entries map[uint64]T
}

func newTable[T any](kind Kind) *table[T] {
	return &table[T]{kind: kind, entries: make(map[uint64]T)}
}

func (t *table[T]) add(seq *handleSeq, v T) Handle {
	h := seq.next(t.kind)
	t.entries[h.id] = v
	return h
}

func (t *table[T]) get(h Handle) (T, error) {
	var zero T
	if h.kind != t.kind {
		return zero, released(h, t.kind)
	}
	v, ok := t.entries[h.id]
	if !ok {
		return zero, released(h, t.kind)
	}
	return v, nil
}

func (t *table[T]) remove(h Handle) (T, error) {
	v, err := t.get(h)
	if err != nil {
		return v, err
	}
	delete(t.entries, h.id)
	return v, nil
}

func (t *table[T]) len() int {
	return len(t.entries)
}
