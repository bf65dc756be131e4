package telemetry_test

import (
	"context"
	"testing"

	"github.com/stockflow/backend/internal/domain/inventory"
	"github.com/stockflow/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*telemetry.WorkflowMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	metrics, err := telemetry.NewWorkflowMetrics(provider.Meter("stockflow-test"))
	require.NoError(t, err)
	return metrics, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

// sumBy returns the counter value for the data point carrying attr
func sumBy(t *testing.T, m metricdata.Metrics, attr attribute.KeyValue) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "%s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		if v, found := dp.Attributes.Value(attr.Key); found && v == attr.Value {
			total += dp.Value
		}
	}
	return total
}

func TestWorkflowMetrics_Movements(t *testing.T) {
	metrics, reader := newTestMetrics(t)
	ctx := context.Background()

	metrics.RecordMovement(ctx, inventory.DirectionIn, inventory.SourceReceipt, 12)
	metrics.RecordMovement(ctx, inventory.DirectionOut, inventory.SourceRequest, 8)
	metrics.RecordMovement(ctx, inventory.DirectionOut, inventory.SourceAdjustment, 2)

	got := collect(t, reader)
	movements := got[telemetry.MetricStockMovements]
	assert.Equal(t, int64(1), sumBy(t, movements, telemetry.AttrDirection.String("IN")))
	assert.Equal(t, int64(2), sumBy(t, movements, telemetry.AttrDirection.String("OUT")))

	units := got[telemetry.MetricStockMovedUnits]
	assert.Equal(t, int64(12), sumBy(t, units, telemetry.AttrDirection.String("IN")))
	assert.Equal(t, int64(10), sumBy(t, units, telemetry.AttrDirection.String("OUT")))
	assert.Equal(t, int64(8), sumBy(t, units, telemetry.AttrSource.String(string(inventory.SourceRequest))))
}

func TestWorkflowMetrics_TransitionsAndFailures(t *testing.T) {
	metrics, reader := newTestMetrics(t)
	ctx := context.Background()

	metrics.RecordTransition(ctx, "request", "TRANSMISE")
	metrics.RecordTransition(ctx, "request", "APPROUVEE")
	metrics.RecordTransition(ctx, "audit", "CLOSED")
	metrics.RecordNotificationFailure(ctx, "webhook")
	metrics.RecordNotificationFailure(ctx, "webhook")
	metrics.RecordGeneratedOrders(ctx, 0)
	metrics.RecordGeneratedOrders(ctx, 3)

	got := collect(t, reader)
	assert.Equal(t, int64(2), sumBy(t, got[telemetry.MetricWorkflowTransitions], telemetry.AttrWorkflow.String("request")))
	assert.Equal(t, int64(1), sumBy(t, got[telemetry.MetricWorkflowTransitions], telemetry.AttrStatus.String("CLOSED")))
	assert.Equal(t, int64(2), sumBy(t, got[telemetry.MetricNotificationsFailed], telemetry.AttrSink.String("webhook")))

	generated, ok := got[telemetry.MetricPurchaseOrdersGenerated].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, generated.DataPoints, 1)
	assert.Equal(t, int64(3), generated.DataPoints[0].Value)
}

func TestWorkflowMetrics_LedgerMismatchGauge(t *testing.T) {
	metrics, reader := newTestMetrics(t)
	ctx := context.Background()

	metrics.RecordLedgerMismatches(ctx, 4)
	metrics.RecordLedgerMismatches(ctx, 0)

	gauge, ok := collect(t, reader)[telemetry.MetricLedgerMismatches].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(0), gauge.DataPoints[0].Value, "gauge keeps the last run")
}
