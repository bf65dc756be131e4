package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockflow/backend/internal/domain/identity"
	"github.com/stockflow/backend/internal/domain/inventory"
	"github.com/stockflow/backend/internal/domain/notification"
	"github.com/stockflow/backend/internal/domain/sequence"
	"github.com/stockflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AuditService handles physical inventory counts and their reconciliation
type AuditService struct {
	scope       TransactionScope
	audits      inventory.AuditRepository
	adjustments inventory.AdjustmentRepository
	products    inventory.ProductRepository
	numbers     *sequence.Generator
	transitions TransitionRecorder
	logger      *zap.Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(
	scope TransactionScope,
	audits inventory.AuditRepository,
	adjustments inventory.AdjustmentRepository,
	products inventory.ProductRepository,
	numbers *sequence.Generator,
	logger *zap.Logger,
) *AuditService {
	return &AuditService{
		scope:       scope,
		audits:      audits,
		adjustments: adjustments,
		products:    products,
		numbers:     numbers,
		logger:      logger,
	}
}

// WithTransitionRecorder sets the transition recorder
func (s *AuditService) WithTransitionRecorder(r TransitionRecorder) *AuditService {
	s.transitions = r
	return s
}

func (s *AuditService) recordTransition(ctx context.Context, status inventory.AuditStatus) {
	if s.transitions != nil {
		s.transitions.RecordTransition(ctx, "audit", string(status))
	}
}

func canRunAudit(actor identity.Actor) bool {
	return actor.HasRole(identity.RoleStorekeeper, identity.RoleAdmin)
}

// Create snapshots every product's current quantity
func (s *AuditService) Create(ctx context.Context, actor identity.Actor, note string) (*AuditResponse, error) {
	if !canRunAudit(actor) {
		return nil, shared.NewPermissionError("Only a storekeeper or an administrator can start an audit")
	}
	var audit *inventory.InventoryAudit
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		number, err := s.numbers.Next(ctx, repos.CounterRepo(), sequence.DocTypeAudit)
		if err != nil {
			return err
		}
		products, err := repos.ProductRepo().FindAllOrdered(ctx)
		if err != nil {
			return fmt.Errorf("failed to load products: %w", err)
		}
		audit, err = inventory.NewInventoryAudit(number, actor.ID, note, products)
		if err != nil {
			return err
		}
		if err := repos.AuditRepo().Save(ctx, audit); err != nil {
			return fmt.Errorf("failed to save audit: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordTransition(ctx, audit.Status)
	s.logger.Info("Inventory audit started",
		zap.String("audit_id", audit.ID.String()),
		zap.String("audit_number", audit.AuditNumber),
		zap.Int("items", len(audit.Items)))
	response := ToAuditResponse(audit)
	return &response, nil
}

// RecordCounts stores physical counts; products outside the audit are skipped
func (s *AuditService) RecordCounts(ctx context.Context, actor identity.Actor, auditID uuid.UUID, counts []CountInput) (*AuditResponse, error) {
	if !canRunAudit(actor) {
		return nil, shared.NewPermissionError("Only a storekeeper or an administrator can record counts")
	}
	byProduct := make(map[uuid.UUID]int, len(counts))
	for _, c := range counts {
		byProduct[c.ProductID] = c.CountedQuantity
	}

	var audit *inventory.InventoryAudit
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		audit, err = repos.AuditRepo().FindByIDForUpdate(ctx, auditID)
		if err != nil {
			return err
		}
		applied, err := audit.RecordCounts(byProduct)
		if err != nil {
			return err
		}
		if applied == 0 {
			return nil
		}
		return repos.AuditRepo().Save(ctx, audit)
	})
	if err != nil {
		return nil, err
	}
	response := ToAuditResponse(audit)
	return &response, nil
}

// Complete ends counting
func (s *AuditService) Complete(ctx context.Context, actor identity.Actor, auditID uuid.UUID) (*AuditResponse, error) {
	if !canRunAudit(actor) {
		return nil, shared.NewPermissionError("Only a storekeeper or an administrator can complete an audit")
	}
	var audit *inventory.InventoryAudit
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		audit, err = repos.AuditRepo().FindByIDForUpdate(ctx, auditID)
		if err != nil {
			return err
		}
		if err := audit.Complete(); err != nil {
			return err
		}
		return repos.AuditRepo().Save(ctx, audit)
	})
	if err != nil {
		return nil, err
	}
	s.recordTransition(ctx, audit.Status)
	s.logger.Info("Inventory audit completed", zap.String("audit_id", audit.ID.String()))
	response := ToAuditResponse(audit)
	return &response, nil
}

// RequestReconciliation spawns one PENDING adjustment per discrepancy, or
// closes the audit when there is nothing to correct.
func (s *AuditService) RequestReconciliation(ctx context.Context, actor identity.Actor, auditID uuid.UUID) (*AuditResponse, []AdjustmentResponse, notification.List, error) {
	if !canRunAudit(actor) {
		return nil, nil, nil, shared.NewPermissionError("Only a storekeeper or an administrator can request reconciliation")
	}

	var (
		audit   *inventory.InventoryAudit
		spawned []*inventory.StockAdjustment
		intents notification.List
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		audit, err = repos.AuditRepo().FindByIDForUpdate(ctx, auditID)
		if err != nil {
			return err
		}
		discrepancies := audit.Discrepancies()
		if err := audit.StartReconciliation(); err != nil {
			return err
		}
		for _, item := range discrepancies {
			adj, err := inventory.NewReconciliationAdjustment(audit, item, actor.ID)
			if err != nil {
				return err
			}
			if err := repos.AdjustmentRepo().Save(ctx, adj); err != nil {
				return fmt.Errorf("failed to save reconciliation adjustment: %w", err)
			}
			spawned = append(spawned, adj)
		}
		if err := repos.AuditRepo().Save(ctx, audit); err != nil {
			return fmt.Errorf("failed to save audit: %w", err)
		}

		if audit.Status == inventory.AuditStatusClosed {
			intents.Add(auditClosedIntent(audit))
			return nil
		}
		intents.Add(notification.ToRoles(notification.TypeReconciliationRequest,
			fmt.Sprintf("Audit %s needs %d adjustment decisions", audit.AuditNumber, len(spawned)),
			identity.RoleFinance).About("inventory_audit", audit.ID))
		return nil
	})
	if err != nil {
		return nil, nil, nil, err
	}

	s.recordTransition(ctx, audit.Status)
	s.logger.Info("Audit reconciliation requested",
		zap.String("audit_id", audit.ID.String()),
		zap.String("status", string(audit.Status)),
		zap.Int("adjustments", len(spawned)))
	adjustments := make([]AdjustmentResponse, 0, len(spawned))
	for _, adj := range spawned {
		adjustments = append(adjustments, ToAdjustmentResponse(adj))
	}
	response := ToAuditResponse(audit)
	return &response, adjustments, intents, nil
}

// CheckAndClose closes the audit when all its adjustments are decided.
// Calling it on a closed audit changes nothing and yields no intents.
func (s *AuditService) CheckAndClose(ctx context.Context, auditID uuid.UUID) (notification.List, error) {
	var intents notification.List
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		intents, err = checkAndCloseAudit(ctx, repos, auditID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return intents, nil
}

func checkAndCloseAudit(ctx context.Context, repos TransactionalRepositories, auditID uuid.UUID) (notification.List, error) {
	audit, err := repos.AuditRepo().FindByIDForUpdate(ctx, auditID)
	if err != nil {
		return nil, err
	}
	if audit.Status != inventory.AuditStatusReconciliationPending {
		return nil, nil
	}
	adjustments, err := repos.AdjustmentRepo().FindByAudit(ctx, auditID)
	if err != nil {
		return nil, fmt.Errorf("failed to load audit adjustments: %w", err)
	}
	closed, err := audit.CloseIfSettled(adjustments)
	if err != nil || !closed {
		return nil, err
	}
	if err := repos.AuditRepo().Save(ctx, audit); err != nil {
		return nil, fmt.Errorf("failed to save audit: %w", err)
	}
	return notification.List{auditClosedIntent(audit)}, nil
}

func auditClosedIntent(audit *inventory.InventoryAudit) notification.Intent {
	return notification.ToUsers(notification.TypeAuditClosed,
		fmt.Sprintf("Inventory audit %s is closed", audit.AuditNumber), audit.CreatedByID).
		About("inventory_audit", audit.ID)
}

// GetByID retrieves an audit with its items
func (s *AuditService) GetByID(ctx context.Context, id uuid.UUID) (*AuditResponse, error) {
	audit, err := s.audits.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToAuditResponse(audit)
	return &response, nil
}

// List retrieves audits with pagination and an optional status filter
func (s *AuditService) List(ctx context.Context, filter ListFilter) (*shared.Paginated[AuditResponse], error) {
	if filter.Status != "" && !inventory.AuditStatus(filter.Status).IsValid() {
		return nil, shared.NewValidationError("INVALID_STATUS", "Unknown status: "+filter.Status)
	}
	f := filter.ToFilter()
	audits, total, err := s.audits.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	items := make([]AuditResponse, 0, len(audits))
	for i := range audits {
		items = append(items, ToAuditResponse(&audits[i]))
	}
	result := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &result, nil
}

// DiscrepancyReport projects the differences of an audit with their value
// impact at current unit cost and the adjustments spawned for them.
func (s *AuditService) DiscrepancyReport(ctx context.Context, id uuid.UUID) (*DiscrepancyReport, error) {
	audit, err := s.audits.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	adjustments, err := s.adjustments.FindByAudit(ctx, id)
	if err != nil {
		return nil, err
	}
	discrepancies := audit.Discrepancies()
	ids := make([]uuid.UUID, 0, len(discrepancies))
	for _, item := range discrepancies {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	view := ToAuditResponse(audit)
	report := &DiscrepancyReport{
		AuditID:     audit.ID,
		AuditNumber: audit.AuditNumber,
		Status:      string(audit.Status),
		Lines:       make([]AuditItemResponse, 0, len(discrepancies)),
		Adjustments: make([]AdjustmentResponse, 0, len(adjustments)),
		ValueImpact: decimal.Zero,
	}
	for _, line := range view.Items {
		if line.Discrepancy == nil || *line.Discrepancy == 0 {
			continue
		}
		report.Lines = append(report.Lines, line)
		d := *line.Discrepancy
		if d > 0 {
			report.Totals.Surplus += d
		} else {
			report.Totals.Shortage += -d
		}
		if p, ok := products[line.ProductID]; ok {
			report.ValueImpact = report.ValueImpact.Add(p.UnitCost.Mul(decimal.NewFromInt(int64(d))))
		}
	}
	for i := range adjustments {
		report.Adjustments = append(report.Adjustments, ToAdjustmentResponse(&adjustments[i]))
	}
	return report, nil
}
