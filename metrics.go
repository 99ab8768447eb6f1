package handledb

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sxwebdev/handledb/native"
)

var (
	databasesDesc = prometheus.NewDesc(
		"handledb_open_databases", "Database names currently open in the process.", nil, nil)
	iteratorsDesc = prometheus.NewDesc(
		"handledb_open_iterators", "Native iterators currently open.", nil, nil)
	batchesDesc = prometheus.NewDesc(
		"handledb_open_write_batches", "Native write batches currently open.", nil, nil)
	compactionsDesc = prometheus.NewDesc(
		"handledb_compactions", "Compactions started by currently open databases.", []string{"level"}, nil)
	compactionTimeDesc = prometheus.NewDesc(
		"handledb_compaction_seconds", "Time currently open databases spent compacting.", nil, nil)
	writeStallsDesc = prometheus.NewDesc(
		"handledb_write_stalls", "Write stalls hit by currently open databases.", nil, nil)
	writeStallTimeDesc = prometheus.NewDesc(
		"handledb_write_stall_seconds", "Time currently open databases spent with writes stalled.", nil, nil)
	stalledDesc = prometheus.NewDesc(
		"handledb_stalled_databases", "Open databases whose writes are stalled right now.", nil, nil)
)

type collector struct{}

// NewCollector returns a prometheus collector for the handles open in this
// process. It reads the installed engine on every scrape.
func NewCollector() prometheus.Collector {
	return collector{}
}

func (collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- databasesDesc
	ch <- iteratorsDesc
	ch <- batchesDesc
	ch <- compactionsDesc
	ch <- compactionTimeDesc
	ch <- writeStallsDesc
	ch <- writeStallTimeDesc
	ch <- stalledDesc
}

func (collector) Collect(ch chan<- prometheus.Metric) {
	databases := openRegistry().len()

	var m native.Metrics
	if engine, err := currentEngine(); err == nil {
		m = engine.Metrics()
	}

	gauge := func(desc *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, v, labels...)
	}
	gauge(databasesDesc, float64(databases))
	gauge(iteratorsDesc, float64(m.Iterators))
	gauge(batchesDesc, float64(m.Batches))
	// Engine totals belong to open databases only, so they can drop when one closes.
	gauge(compactionsDesc, float64(m.Level0Compactions), "0")
	gauge(compactionsDesc, float64(m.NonLevel0Compactions), "other")
	gauge(compactionTimeDesc, m.CompactionTime.Seconds())
	gauge(writeStallsDesc, float64(m.WriteStalls))
	gauge(writeStallTimeDesc, m.WriteStallTime.Seconds())
	gauge(stalledDesc, float64(m.StalledDatabases))
}
