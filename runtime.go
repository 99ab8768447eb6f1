package handledb

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/sxwebdev/handledb/native"
)

// nativeModule is the engine every database of the process is opened with.
type nativeModule struct {
	mu      sync.Mutex
	engine  native.Engine
	initErr error
}

var module nativeModule

// Install makes engine the native engine for databases opened from now on.
// Without a call to Install the pebble engine is used. Install fails while
// any database or write batch is open. Installing a nil engine marks the
// native module as unavailable: every later Open fails with ErrInitialization
// until a successful Install.
func Install(engine native.Engine) error {
	reg := openRegistry()
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if n := len(reg.byName); n > 0 {
		return errors.Wrapf(ErrInitialization, "install: %d databases still open", n)
	}

	module.mu.Lock()
	defer module.mu.Unlock()

	// Batch handles are only meaningful to the engine that issued them.
	if module.engine != nil {
		if n := module.engine.Metrics().Batches; n > 0 {
			return errors.Wrapf(ErrInitialization, "install: %d write batches still open", n)
		}
	}
	if engine == nil {
		module.engine = nil
		module.initErr = errors.Wrap(ErrInitialization, "install: no engine")
		return module.initErr
	}
	module.engine = engine
	module.initErr = nil
	return nil
}

// currentEngine returns the installed engine, installing pebble on first use.
func currentEngine() (native.Engine, error) {
	module.mu.Lock()
	defer module.mu.Unlock()

	if module.initErr != nil {
		return nil, module.initErr
	}
	if module.engine == nil {
		module.engine = native.NewPebbleEngine()
	}
	return module.engine, nil
}

// ReadFileToBuffer returns up to length bytes of the file at path starting at
// offset. A read that runs past the end of the file returns the bytes that
// exist. It is unrelated to any database and provided for host convenience.
func ReadFileToBuffer(path string, offset, length int64) ([]byte, error) {
	engine, err := currentEngine()
	if err != nil {
		return nil, err
	}
	buf, err := engine.ReadFile(path, offset, length)
	if err != nil {
		return nil, nativeErr(err, "read file")
	}
	return buf, nil
}
