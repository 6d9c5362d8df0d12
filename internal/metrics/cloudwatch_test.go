package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"cotreport/logger"
)

// captureCloudWatch pretends a client is configured and records published data.
func captureCloudWatch(t *testing.T) *[][]cwtypes.MetricDatum {
	t.Helper()
	prevState := cwState.Load()
	cwState.Store(&cloudWatchState{client: &cloudwatch.Client{}, namespace: "COTReportTest"})
	t.Cleanup(func() { cwState.Store(prevState) })

	batches := make([][]cwtypes.MetricDatum, 0)
	publishMetricsFunc = func(ctx context.Context, state *cloudWatchState, data []cwtypes.MetricDatum) {
		if state.namespace != "COTReportTest" {
			t.Errorf("unexpected namespace %q", state.namespace)
		}
		copyData := make([]cwtypes.MetricDatum, len(data))
		copy(copyData, data)
		batches = append(batches, copyData)
	}
	t.Cleanup(func() { publishMetricsFunc = publishMetrics })
	return &batches
}

func dimension(datum cwtypes.MetricDatum, name string) (string, bool) {
	for _, d := range datum.Dimensions {
		if d.Name != nil && *d.Name == name && d.Value != nil {
			return *d.Value, true
		}
	}
	return "", false
}

func TestEmitMetricPublishesDatum(t *testing.T) {
	resetMetricHandlers()
	batches := captureCloudWatch(t)

	baseTime := time.Date(2024, 3, 8, 15, 30, 0, 0, time.UTC)
	timeNow = func() time.Time { return baseTime }
	t.Cleanup(func() { timeNow = time.Now })

	EmitMetric(nil, "reader", MetricArchiveBytes, 2048, "gauge", logger.Fields{"unit": "bytes", "instrument": "CRUDE OIL"})

	if len(*batches) != 1 || len((*batches)[0]) != 1 {
		t.Fatalf("expected a single datum, got %v", *batches)
	}
	datum := (*batches)[0][0]
	if datum.MetricName == nil || *datum.MetricName != MetricArchiveBytes {
		t.Fatalf("unexpected metric name: %v", datum.MetricName)
	}
	if datum.Value == nil || *datum.Value != 2048 {
		t.Fatalf("unexpected metric value: %v", datum.Value)
	}
	if datum.Unit != cwtypes.StandardUnitBytes {
		t.Fatalf("unexpected unit: %s", datum.Unit)
	}
	if datum.Timestamp == nil || !datum.Timestamp.Equal(baseTime) {
		t.Fatalf("unexpected timestamp: %v", datum.Timestamp)
	}
	if v, ok := dimension(datum, "component"); !ok || v != "reader" {
		t.Fatalf("component dimension = %q", v)
	}
	if v, ok := dimension(datum, "instrument"); !ok || v != "CRUDE OIL" {
		t.Fatalf("instrument dimension = %q", v)
	}
	if _, ok := dimension(datum, "unit"); ok {
		t.Fatalf("unit must not be published as a dimension")
	}
}

func TestEmitMetricSkipsNonNumeric(t *testing.T) {
	resetMetricHandlers()
	batches := captureCloudWatch(t)

	EmitMetric(nil, "pipeline", "report_date", "2024-03-05", "gauge", nil)

	if len(*batches) != 0 {
		t.Fatalf("non-numeric metric should not be published")
	}
}

func TestEmitMetricWithoutClient(t *testing.T) {
	resetMetricHandlers()
	prevState := cwState.Load()
	cwState.Store(&cloudWatchState{namespace: "COTReport"})
	t.Cleanup(func() { cwState.Store(prevState) })

	called := false
	publishMetricsFunc = func(context.Context, *cloudWatchState, []cwtypes.MetricDatum) { called = true }
	t.Cleanup(func() { publishMetricsFunc = publishMetrics })

	EmitMetric(nil, "pipeline", MetricRunSuccess, 1, "counter", nil)

	if called {
		t.Fatalf("publish should be skipped without a client")
	}
	if Enabled() {
		t.Fatalf("Enabled should be false without a client")
	}
}

func TestMetricUnitFromString(t *testing.T) {
	cases := map[string]cwtypes.StandardUnit{
		"count":        cwtypes.StandardUnitCount,
		"Bytes":        cwtypes.StandardUnitBytes,
		"milliseconds": cwtypes.StandardUnitMilliseconds,
		"ms":           cwtypes.StandardUnitMilliseconds,
		"percent":      cwtypes.StandardUnitPercent,
	}
	for in, want := range cases {
		got, ok := metricUnitFromString(in)
		if !ok || got != want {
			t.Errorf("metricUnitFromString(%q) = %s, %v", in, got, ok)
		}
	}
	if _, ok := metricUnitFromString("furlongs"); ok {
		t.Errorf("unknown unit should not be found")
	}
}

func TestToFloat64(t *testing.T) {
	if v, ok := toFloat64(true); !ok || v != 1 {
		t.Errorf("toFloat64(true) = %v, %v", v, ok)
	}
	if v, ok := toFloat64(int64(42)); !ok || v != 42 {
		t.Errorf("toFloat64(int64) = %v, %v", v, ok)
	}
	if _, ok := toFloat64("42"); ok {
		t.Errorf("strings are not numeric")
	}
}
