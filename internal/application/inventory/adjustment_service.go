package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stockflow/backend/internal/domain/identity"
	"github.com/stockflow/backend/internal/domain/inventory"
	"github.com/stockflow/backend/internal/domain/notification"
	"github.com/stockflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// TransitionRecorder receives every workflow status change, e.g. for metrics
type TransitionRecorder interface {
	RecordTransition(ctx context.Context, workflow, to string)
}

// AdjustmentService handles direct and approval-gated stock adjustments
type AdjustmentService struct {
	scope       TransactionScope
	adjustments inventory.AdjustmentRepository
	ledger      *StockLedger
	transitions TransitionRecorder
	logger      *zap.Logger
}

// NewAdjustmentService creates a new AdjustmentService
func NewAdjustmentService(
	scope TransactionScope,
	adjustments inventory.AdjustmentRepository,
	ledger *StockLedger,
	logger *zap.Logger,
) *AdjustmentService {
	return &AdjustmentService{
		scope:       scope,
		adjustments: adjustments,
		ledger:      ledger,
		logger:      logger,
	}
}

// WithTransitionRecorder sets the transition recorder
func (s *AdjustmentService) WithTransitionRecorder(r TransitionRecorder) *AdjustmentService {
	s.transitions = r
	return s
}

func (s *AdjustmentService) recordTransition(ctx context.Context, status inventory.ApprovalStatus) {
	if s.transitions != nil {
		s.transitions.RecordTransition(ctx, "adjustment", string(status))
	}
}

// DirectAdjust sets a product to an absolute quantity. A target equal to the
// current quantity is refused with a NoOp error and nothing is recorded.
func (s *AdjustmentService) DirectAdjust(ctx context.Context, actor identity.Actor, input DirectAdjustInput) (*AdjustmentResponse, notification.List, error) {
	if !actor.HasRole(identity.RoleAdmin) {
		return nil, nil, shared.NewPermissionError("Only an administrator can set stock directly")
	}
	if input.TargetQuantity < 0 {
		return nil, nil, shared.NewValidationError("INVALID_QUANTITY", "Target quantity cannot be negative")
	}

	var (
		adj     *inventory.StockAdjustment
		intents notification.List
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		product, err := repos.ProductRepo().FindByIDForUpdate(ctx, input.ProductID)
		if err != nil {
			return err
		}
		diff := input.TargetQuantity - product.Quantity
		if diff == 0 {
			return shared.NewNoOpError(fmt.Sprintf("No adjustment needed: %s already has %d", product.Reference, product.Quantity))
		}
		direction, quantity := inventory.DirectionOf(diff)
		adj, err = inventory.NewApprovedAdjustment(product.ID, direction, quantity, input.Reason, actor.ID)
		if err != nil {
			return err
		}
		if err := repos.AdjustmentRepo().Save(ctx, adj); err != nil {
			return fmt.Errorf("failed to save adjustment: %w", err)
		}
		_, more, err := s.ledger.Apply(ctx, repos, Movement{
			ProductID: product.ID,
			ActorID:   actor.ID,
			Direction: direction,
			Quantity:  quantity,
			Source:    inventory.SourceAdjustment,
			SourceID:  &adj.ID,
		})
		if err != nil {
			return err
		}
		intents.Add(more...)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.recordTransition(ctx, adj.Status)
	s.logger.Info("Direct stock adjustment applied",
		zap.String("adjustment_id", adj.ID.String()),
		zap.String("product_id", adj.ProductID.String()),
		zap.Int("delta", adj.Delta()))
	response := ToAdjustmentResponse(adj)
	return &response, intents, nil
}

// AdjustByDelta applies a signed change. Administrators apply it at once;
// storekeepers create a PENDING proposal for the financial approver.
func (s *AdjustmentService) AdjustByDelta(ctx context.Context, actor identity.Actor, input DeltaAdjustInput) (*AdjustmentResponse, notification.List, error) {
	if !actor.HasRole(identity.RoleAdmin, identity.RoleStorekeeper) {
		return nil, nil, shared.NewPermissionError("Only an administrator or a storekeeper can adjust stock")
	}

	var (
		adj     *inventory.StockAdjustment
		intents notification.List
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		product, err := repos.ProductRepo().FindByID(ctx, input.ProductID)
		if err != nil {
			return err
		}

		if !actor.HasRole(identity.RoleAdmin) {
			adj, err = inventory.NewPendingAdjustment(product.ID, input.Direction, input.Quantity, input.Reason, actor.ID)
			if err != nil {
				return err
			}
			if err := repos.AdjustmentRepo().Save(ctx, adj); err != nil {
				return fmt.Errorf("failed to save adjustment: %w", err)
			}
			intents.Add(notification.ToRoles(notification.TypeAdjustmentApprovalNeeded,
				fmt.Sprintf("%s proposes an adjustment of %s %d on %s", actor.Name, adj.Direction, adj.Quantity, product.Reference),
				identity.RoleFinance).About("stock_adjustment", adj.ID))
			return nil
		}

		adj, err = inventory.NewApprovedAdjustment(product.ID, input.Direction, input.Quantity, input.Reason, actor.ID)
		if err != nil {
			return err
		}
		if err := repos.AdjustmentRepo().Save(ctx, adj); err != nil {
			return fmt.Errorf("failed to save adjustment: %w", err)
		}
		_, more, err := s.ledger.Apply(ctx, repos, Movement{
			ProductID: product.ID,
			ActorID:   actor.ID,
			Direction: adj.Direction,
			Quantity:  adj.Quantity,
			Source:    inventory.SourceAdjustment,
			SourceID:  &adj.ID,
		})
		if err != nil {
			return err
		}
		intents.Add(more...)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.recordTransition(ctx, adj.Status)
	s.logger.Info("Stock adjustment created",
		zap.String("adjustment_id", adj.ID.String()),
		zap.String("status", string(adj.Status)),
		zap.Int("delta", adj.Delta()))
	response := ToAdjustmentResponse(adj)
	return &response, intents, nil
}

// Decide approves or rejects a pending adjustment. Approval books the
// movement under the proposer's name. A linked audit is closed once all of
// its adjustments are decided.
func (s *AdjustmentService) Decide(ctx context.Context, actor identity.Actor, id uuid.UUID, input DecisionInput) (*AdjustmentResponse, notification.List, error) {
	if !actor.HasRole(identity.RoleFinance) {
		return nil, nil, shared.NewPermissionError("Only the financial approver can decide on adjustments")
	}

	var (
		adj     *inventory.StockAdjustment
		intents notification.List
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		adj, err = repos.AdjustmentRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := adj.Decide(actor.ID, input.Decision, input.Comment); err != nil {
			return err
		}
		if adj.IsApproved() {
			_, more, err := s.ledger.Apply(ctx, repos, Movement{
				ProductID: adj.ProductID,
				ActorID:   adj.RequestedByID,
				Direction: adj.Direction,
				Quantity:  adj.Quantity,
				Source:    inventory.SourceAdjustment,
				SourceID:  &adj.ID,
			})
			if err != nil {
				return err
			}
			intents.Add(more...)
		}
		if err := repos.AdjustmentRepo().Save(ctx, adj); err != nil {
			return fmt.Errorf("failed to save adjustment: %w", err)
		}
		intents.Add(notification.ToUsers(notification.TypeAdjustmentDecision,
			fmt.Sprintf("Your stock adjustment was %s", adj.Status), adj.RequestedByID).
			About("stock_adjustment", adj.ID))

		if adj.AuditID != nil {
			more, err := checkAndCloseAudit(ctx, repos, *adj.AuditID)
			if err != nil {
				return err
			}
			intents.Add(more...)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.recordTransition(ctx, adj.Status)
	s.logger.Info("Stock adjustment decided",
		zap.String("adjustment_id", adj.ID.String()),
		zap.String("status", string(adj.Status)),
		zap.String("approver_id", actor.ID.String()))
	response := ToAdjustmentResponse(adj)
	return &response, intents, nil
}

// GetByID retrieves an adjustment by ID
func (s *AdjustmentService) GetByID(ctx context.Context, id uuid.UUID) (*AdjustmentResponse, error) {
	adj, err := s.adjustments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToAdjustmentResponse(adj)
	return &response, nil
}

// List retrieves adjustments with pagination and an optional status filter
func (s *AdjustmentService) List(ctx context.Context, filter ListFilter) (*shared.Paginated[AdjustmentResponse], error) {
	if filter.Status != "" && !inventory.ApprovalStatus(filter.Status).IsValid() {
		return nil, shared.NewValidationError("INVALID_STATUS", "Unknown status: "+filter.Status)
	}
	f := filter.ToFilter()
	adjustments, total, err := s.adjustments.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	items := make([]AdjustmentResponse, 0, len(adjustments))
	for i := range adjustments {
		items = append(items, ToAdjustmentResponse(&adjustments[i]))
	}
	result := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &result, nil
}
