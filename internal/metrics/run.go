package metrics

import (
	"time"

	"cotreport/logger"
)

// Metric names emitted for a report run.
const (
	MetricArchiveBytes  = "archive_bytes"
	MetricRowsDecoded   = "rows_decoded"
	MetricRowsMatched   = "rows_matched"
	MetricSnapshotRows  = "snapshot_rows"
	MetricRunDurationMs = "run_duration_ms"
	MetricRunSuccess    = "run_success"
	MetricRunFailure    = "run_failure"
)

// RunStats summarises one pipeline run.
type RunStats struct {
	Instrument   string
	Stage        string
	ArchiveBytes int
	RowsDecoded  int
	RowsMatched  int
	SnapshotRows int
	Duration     time.Duration
	Success      bool
}

// ReportRun emits the metrics of a finished run. Counters that were never
// reached (zero) are still emitted so dashboards see a value every week.
func ReportRun(log *logger.Log, stats RunStats) {
	dims := logger.Fields{"instrument": stats.Instrument}
	with := func(unit string) logger.Fields {
		f := cloneFields(dims)
		f["unit"] = unit
		return f
	}

	EmitMetric(log, "reader", MetricArchiveBytes, stats.ArchiveBytes, "gauge", with("bytes"))
	EmitMetric(log, "reader", MetricRowsDecoded, stats.RowsDecoded, "gauge", with("count"))
	EmitMetric(log, "processor", MetricRowsMatched, stats.RowsMatched, "gauge", with("count"))
	EmitMetric(log, "processor", MetricSnapshotRows, stats.SnapshotRows, "gauge", with("count"))
	EmitMetric(log, "pipeline", MetricRunDurationMs, stats.Duration.Milliseconds(), "gauge", with("milliseconds"))

	if stats.Success {
		EmitMetric(log, "pipeline", MetricRunSuccess, 1, "counter", with("count"))
		return
	}
	failure := with("count")
	if stats.Stage != "" {
		failure["stage"] = stats.Stage
	}
	EmitMetric(log, "pipeline", MetricRunFailure, 1, "counter", failure)
}
