package metrics

import (
	"testing"
	"time"
)

func TestReportRunSuccess(t *testing.T) {
	resetMetricHandlers()
	events := collect(t)

	ReportRun(nil, RunStats{
		Instrument:   "CRUDE OIL",
		ArchiveBytes: 1024,
		RowsDecoded:  300,
		RowsMatched:  4,
		SnapshotRows: 1,
		Duration:     1500 * time.Millisecond,
		Success:      true,
	})

	got := map[string]interface{}{}
	for _, e := range *events {
		got[e.Name] = e.Value
		if e.Fields["instrument"] != "CRUDE OIL" {
			t.Errorf("%s missing instrument field", e.Name)
		}
	}
	if got[MetricRowsDecoded] != 300 || got[MetricRowsMatched] != 4 {
		t.Errorf("unexpected row metrics: %v", got)
	}
	if got[MetricRunDurationMs] != int64(1500) {
		t.Errorf("run_duration_ms = %v", got[MetricRunDurationMs])
	}
	if _, ok := got[MetricRunSuccess]; !ok {
		t.Errorf("run_success not emitted")
	}
	if _, ok := got[MetricRunFailure]; ok {
		t.Errorf("run_failure emitted for a successful run")
	}
}

func TestReportRunFailureCarriesStage(t *testing.T) {
	resetMetricHandlers()
	events := collect(t)

	ReportRun(nil, RunStats{Instrument: "GOLD", Stage: "aggregate"})

	var failure *Metric
	for i := range *events {
		if (*events)[i].Name == MetricRunFailure {
			failure = &(*events)[i]
		}
		if (*events)[i].Name == MetricRunSuccess {
			t.Errorf("run_success emitted for a failed run")
		}
	}
	if failure == nil {
		t.Fatalf("run_failure not emitted")
	}
	if failure.Fields["stage"] != "aggregate" {
		t.Errorf("stage = %v", failure.Fields["stage"])
	}
}
