package telemetry

import (
	"context"

	"github.com/stockflow/backend/internal/domain/inventory"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric names
const (
	MetricStockMovements          = "stockflow.stock.movements"
	MetricStockMovedUnits         = "stockflow.stock.moved_units"
	MetricWorkflowTransitions     = "stockflow.workflow.transitions"
	MetricNotificationsFailed     = "stockflow.notifications.failed"
	MetricLedgerMismatches        = "stockflow.ledger.mismatches"
	MetricPurchaseOrdersGenerated = "stockflow.purchase_orders.generated"
)

// WorkflowMetrics counts ledger movements, workflow transitions and
// notification failures. It satisfies the recorder interfaces of the
// application layer.
type WorkflowMetrics struct {
	movements   *Counter
	movedUnits  *Counter
	transitions *Counter
	failures    *Counter
	mismatches  *Gauge
	generated   *Counter
}

// NewWorkflowMetrics registers the workflow instruments on meter
func NewWorkflowMetrics(meter metric.Meter) (*WorkflowMetrics, error) {
	movements, err := NewCounter(meter, MetricStockMovements, "Applied stock ledger movements", "{movement}")
	if err != nil {
		return nil, err
	}
	movedUnits, err := NewCounter(meter, MetricStockMovedUnits, "Units moved through the stock ledger", "{unit}")
	if err != nil {
		return nil, err
	}
	transitions, err := NewCounter(meter, MetricWorkflowTransitions, "Workflow status transitions", "{transition}")
	if err != nil {
		return nil, err
	}
	failures, err := NewCounter(meter, MetricNotificationsFailed, "Notification deliveries a sink failed to send", "{delivery}")
	if err != nil {
		return nil, err
	}
	mismatches, err := NewGauge(meter, MetricLedgerMismatches, "Products whose quantity disagrees with the ledger", "{product}")
	if err != nil {
		return nil, err
	}
	generated, err := NewCounter(meter, MetricPurchaseOrdersGenerated, "Draft purchase orders created by reorder runs", "{order}")
	if err != nil {
		return nil, err
	}
	return &WorkflowMetrics{
		movements:   movements,
		movedUnits:  movedUnits,
		transitions: transitions,
		failures:    failures,
		mismatches:  mismatches,
		generated:   generated,
	}, nil
}

// RecordMovement counts one applied ledger movement
func (m *WorkflowMetrics) RecordMovement(ctx context.Context, direction inventory.Direction, source inventory.Source, quantity int) {
	attrs := []attribute.KeyValue{AttrDirection.String(string(direction)), AttrSource.String(string(source))}
	m.movements.Inc(ctx, attrs...)
	m.movedUnits.Add(ctx, int64(quantity), attrs...)
}

// RecordTransition counts one workflow status change
func (m *WorkflowMetrics) RecordTransition(ctx context.Context, workflow, to string) {
	m.transitions.Inc(ctx, AttrWorkflow.String(workflow), AttrStatus.String(to))
}

// RecordNotificationFailure counts one failed sink delivery batch
func (m *WorkflowMetrics) RecordNotificationFailure(ctx context.Context, sink string) {
	m.failures.Inc(ctx, AttrSink.String(sink))
}

// RecordLedgerMismatches records the outcome of a ledger verification run
func (m *WorkflowMetrics) RecordLedgerMismatches(ctx context.Context, count int) {
	m.mismatches.Record(ctx, int64(count))
}

// RecordGeneratedOrders counts drafts created by a reorder run
func (m *WorkflowMetrics) RecordGeneratedOrders(ctx context.Context, count int) {
	if count > 0 {
		m.generated.Add(ctx, int64(count))
	}
}
