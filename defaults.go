package handledb

import "github.com/sxwebdev/handledb/native"

const (
	// minCache is the minimum cache size in megabytes.
	minCache = 16

	// minHandles is the minimum number of open files.
	minHandles = 16

	// IdealBatchSize is the staged size after which an incremental merge
	// commits what it has so far.
	IdealBatchSize = native.IdealBatchSize
)
