package scheduler

import (
	"context"
	"fmt"

	appinv "github.com/stockflow/backend/internal/application/inventory"
	apptrade "github.com/stockflow/backend/internal/application/trade"
	"github.com/stockflow/backend/internal/domain/identity"
	"github.com/stockflow/backend/internal/domain/notification"
	"go.uber.org/zap"
)

const (
	ReorderJobName     = "reorder"
	LedgerCheckJobName = "ledger_check"
)

// PurchaseOrderGenerator drafts replenishment orders
type PurchaseOrderGenerator interface {
	AutoGenerate(ctx context.Context, actor identity.Actor) (*apptrade.AutoGenerateResult, notification.List, error)
}

// IntentDispatcher delivers notification intents once work is committed
type IntentDispatcher interface {
	Dispatch(ctx context.Context, intents notification.List)
}

// GeneratedOrdersRecorder counts orders drafted by reorder runs
type GeneratedOrdersRecorder interface {
	RecordGeneratedOrders(ctx context.Context, count int)
}

// ReorderJob drafts purchase orders for products under their minimum stock
type ReorderJob struct {
	orders     PurchaseOrderGenerator
	dispatcher IntentDispatcher
	actor      identity.Actor
	recorder   GeneratedOrdersRecorder
	logger     *zap.Logger
}

// NewReorderJob creates a reorder job acting as actor
func NewReorderJob(orders PurchaseOrderGenerator, dispatcher IntentDispatcher, actor identity.Actor, logger *zap.Logger) *ReorderJob {
	return &ReorderJob{
		orders:     orders,
		dispatcher: dispatcher,
		actor:      actor,
		logger:     logger,
	}
}

// WithRecorder attaches a metrics recorder
func (j *ReorderJob) WithRecorder(r GeneratedOrdersRecorder) *ReorderJob {
	j.recorder = r
	return j
}

func (j *ReorderJob) Name() string { return ReorderJobName }

func (j *ReorderJob) Run(ctx context.Context) error {
	result, intents, err := j.orders.AutoGenerate(ctx, j.actor)
	if err != nil {
		return fmt.Errorf("auto-generate purchase orders: %w", err)
	}
	j.dispatcher.Dispatch(ctx, intents)
	if j.recorder != nil {
		j.recorder.RecordGeneratedOrders(ctx, len(result.Created))
	}
	j.logger.Info("Reorder run finished",
		zap.Int("created", len(result.Created)),
		zap.Int("skipped", result.Skipped))
	return nil
}

// LedgerVerifier recomputes product quantities from the ledger
type LedgerVerifier interface {
	VerifyLedger(ctx context.Context) (*appinv.LedgerCheckResult, error)
}

// MismatchRecorder publishes the number of inconsistent products
type MismatchRecorder interface {
	RecordLedgerMismatches(ctx context.Context, count int)
}

// LedgerCheckJob reports products whose stored quantity drifted from the ledger
type LedgerCheckJob struct {
	verifier LedgerVerifier
	recorder MismatchRecorder
	logger   *zap.Logger
}

// NewLedgerCheckJob creates a ledger check job
func NewLedgerCheckJob(verifier LedgerVerifier, logger *zap.Logger) *LedgerCheckJob {
	return &LedgerCheckJob{verifier: verifier, logger: logger}
}

// WithRecorder attaches a metrics recorder
func (j *LedgerCheckJob) WithRecorder(r MismatchRecorder) *LedgerCheckJob {
	j.recorder = r
	return j
}

func (j *LedgerCheckJob) Name() string { return LedgerCheckJobName }

func (j *LedgerCheckJob) Run(ctx context.Context) error {
	result, err := j.verifier.VerifyLedger(ctx)
	if err != nil {
		return fmt.Errorf("verify ledger: %w", err)
	}
	if j.recorder != nil {
		j.recorder.RecordLedgerMismatches(ctx, len(result.Mismatches))
	}
	if len(result.Mismatches) > 0 {
		j.logger.Warn("Ledger check found inconsistent products",
			zap.Int("checked", result.Checked),
			zap.Int("mismatches", len(result.Mismatches)))
		return nil
	}
	j.logger.Info("Ledger check passed", zap.Int("checked", result.Checked))
	return nil
}
