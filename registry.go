package handledb

import (
	"sync"

	"github.com/sxwebdev/handledb/native"
)

// dbHandle is the registry-owned record of one open native database. DB
// values are views onto it and are closed as soon as the registry drops it.
type dbHandle struct {
	name   string
	handle native.Handle
	engine native.Engine
	logger Logger
}

// registry maps database names to the single native connection open for
// each. It is process-wide: every DB in the process sees the same table for
// as long as the process lives.
type registry struct {
	mu     sync.Mutex
	byName map[string]*dbHandle
}

var (
	registryOnce    sync.Once
	processRegistry *registry
)

// openRegistry returns the process registry, creating it on first use.
func openRegistry() *registry {
	registryOnce.Do(func() {
		processRegistry = &registry{byName: make(map[string]*dbHandle)}
	})
	return processRegistry
}

// The methods below expect r.mu to be held unless noted.

func (r *registry) resolve(name string) (*dbHandle, bool) {
	ref, ok := r.byName[name]
	return ref, ok
}

func (r *registry) register(name string, ref *dbHandle) {
	r.byName[name] = ref
}

// unregisterAll removes every name mapped to ref.
func (r *registry) unregisterAll(ref *dbHandle) {
	for name, h := range r.byName {
		if h == ref {
			delete(r.byName, name)
		}
	}
}

func (r *registry) holdsLocked(ref *dbHandle) bool {
	if ref == nil {
		return false
	}
	// A handle is registered under the name it was opened with and nowhere else.
	return r.byName[ref.name] == ref
}

// holds reports whether ref is still live. It takes the lock itself.
func (r *registry) holds(ref *dbHandle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.holdsLocked(ref)
}

// len takes the lock itself.
func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byName)
}
