package handledb

import (
	"fmt"
	"os"

	"github.com/sxwebdev/handledb/native"
)

// Options only take effect on the first open of a name. Opening a name that is
// already open attaches to the existing connection and ignores them.
type options struct {
	cache           int
	handles         int
	readonly        bool
	noSync          bool
	walBytesPerSync int
	logger          Logger
}

type Option func(*options)

func newOptions(opts []Option) *options {
	o := &options{
		cache:   minCache,
		handles: minHandles,
		logger:  nopLogger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *options) openOptions(createIfMissing, errorIfExists bool) native.OpenOptions {
	return native.OpenOptions{
		CreateIfMissing: createIfMissing,
		ErrorIfExists:   errorIfExists,
		ReadOnly:        o.readonly,
		Cache:           o.cache,
		Handles:         o.handles,
		NoSync:          o.noSync,
		WALBytesPerSync: o.walBytesPerSync,
		Logger:          engineLogger(o.logger),
	}
}

// WithCache sets the cache size in megabytes. Values below 16 are raised to 16.
func WithCache(cache int) Option {
	return func(o *options) {
		o.cache = cache
	}
}

// WithHandles sets the maximum number of open files. Values below 16 are
// raised to 16.
func WithHandles(handles int) Option {
	return func(o *options) {
		o.handles = handles
	}
}

// WithReadonly opens the database read-only. Writes fail in the engine.
func WithReadonly(readonly bool) Option {
	return func(o *options) {
		o.readonly = readonly
	}
}

// WithNoSync disables fsync on writes. Recent writes may be lost on a crash.
func WithNoSync(noSync bool) Option {
	return func(o *options) {
		o.noSync = noSync
	}
}

// WithWALBytesPerSync syncs the WAL in the background every walBytesPerSync bytes.
func WithWALBytesPerSync(walBytesPerSync int) Option {
	return func(o *options) {
		o.walBytesPerSync = walBytesPerSync
	}
}

// WithIdealWALBytesPerSync sets the WALBytesPerSync to 5 times the IdealBatchSize.
//
// With WithNoSync the engine returns from writes as soon as the data is
// cached in memory. Setting WALBytesPerSync flushes the cached WAL writes in
// the background once the accumulated size exceeds this threshold.
func WithIdealWALBytesPerSync() Option {
	return func(o *options) {
		o.walBytesPerSync = IdealBatchSize * 5
	}
}

// WithLogger sets the logger for lifecycle events of the database and for the
// engine's own output.
func WithLogger(logger Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// engineLogger hands l to the engine, adapting it if it has no printf-style
// methods of its own.
func engineLogger(l Logger) native.Logger {
	if nl, ok := l.(native.Logger); ok {
		return nl
	}
	return printfLogger{l}
}

type printfLogger struct {
	l Logger
}

func (p printfLogger) Infof(format string, args ...any) {
	p.l.Info(fmt.Sprintf(format, args...))
}

func (p printfLogger) Errorf(format string, args ...any) {
	p.l.Error(fmt.Sprintf(format, args...))
}

func (p printfLogger) Fatalf(format string, args ...any) {
	p.l.Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}
