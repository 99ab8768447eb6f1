// Package handledb is a handle-based client layer over an embedded, ordered,
// persistent key-value engine.
//
// The engine lives behind the native package and owns every engine object.
// handledb holds only opaque handles to them and checks that a handle is live
// before each call, so using a closed database, iterator or batch is always a
// plain ErrClosedHandle error rather than undefined behaviour in the engine.
//
// # Overview
//
// handledb provides:
//   - One native connection per database name per process, shared by every
//     DB opened under that name
//   - Peer close: closing any DB of a name closes all of them
//   - Iterators as explicit state machines (unpositioned, valid, invalid, closed)
//   - Write batches with no database affinity, applied atomically
//   - Bulk merge of one database into another, atomic or incremental
//
// # Quick Start
//
//	db, err := handledb.Open("./data", true, false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	db.Put([]byte("key"), []byte("value"))
//	val, ok, err := db.GetStr([]byte("key"))
//	db.Delete([]byte("key"))
//
// Keys and values are byte strings. Every method that takes a key, value or
// seek target takes []byte, so text is passed as []byte(s); it addresses the
// same key as its UTF-8 bytes. Text is read back with the *Str accessors.
//
// # Shared Connections
//
// Opening a name that is already open attaches to the existing connection:
//
//	a, _ := handledb.Open("./data", true, false)
//	b, _ := handledb.Open("./data", true, false) // same connection as a
//
//	a.Put([]byte("k"), []byte("v"))
//	v, _, _ := b.GetStr([]byte("k")) // "v"
//
//	a.Close()
//	b.Closed() // true
//
// The open flags and options of the second call are ignored.
//
// # Iteration
//
//	it, err := db.NewIterator()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer it.Close()
//
//	if err := it.SeekToFirst(); err != nil {
//	    log.Fatal(err)
//	}
//	for ok, err := it.Valid(); ok && err == nil; ok, err = it.Valid() {
//	    key, _ := it.KeyBuf()   // Read-only, valid until the next move
//	    value, _ := it.ValueBuf()
//	    fmt.Printf("%s: %s\n", key, value)
//	    if err := it.Next(); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// Next, Prev and the accessors need the iterator on an entry and fail with
// ErrInvalidIteratorState otherwise. Closing the database releases its
// iterators; any later call on them fails with ErrClosedHandle.
//
// # Write Batches
//
//	batch, err := handledb.NewWriteBatch()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer batch.Close()
//
//	batch.Put([]byte("k"), []byte("v1"))
//	batch.Put([]byte("k"), []byte("v2")) // last write wins
//	if err := db.Write(batch); err != nil {
//	    log.Fatal(err)
//	}
//
// # Configuration Options
//
//	db, err := handledb.Open("./data", true, false,
//	    handledb.WithCache(256),       // 256 MB cache
//	    handledb.WithHandles(512),     // Max 512 open files
//	    handledb.WithNoSync(true),     // Async writes (faster, less durable)
//	    handledb.WithLogger(logger),   // Lifecycle and engine logs
//	)
//
// The pebble engine is used unless another one is installed with Install
// before the first database is opened.
//
// # Thread Safety
//
// Calls block until the engine is done. The name registry and the engine's
// handle tables are safe for concurrent use; a single DB, Iterator or
// WriteBatch is not, and callers must serialize their use of it.
//
// # Error Handling
//
//   - ErrInitialization: the native engine is unavailable
//   - ErrOpen: the engine refused to open a database
//   - ErrClosedHandle: the database, iterator or batch was closed
//   - ErrOpenDatabase: DestroyDB on an open database without force
//   - ErrInvalidIteratorState: the iterator is not on an entry
//   - ErrNativeIO: any other engine failure
//
// Errors are never retried. Test them with errors.Is.
package handledb
