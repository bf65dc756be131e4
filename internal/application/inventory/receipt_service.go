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

// ReceiptService handles incoming supplier stock
type ReceiptService struct {
	scope       TransactionScope
	receipts    inventory.ReceiptRepository
	ledger      *StockLedger
	transitions TransitionRecorder
	logger      *zap.Logger
}

// NewReceiptService creates a new ReceiptService
func NewReceiptService(
	scope TransactionScope,
	receipts inventory.ReceiptRepository,
	ledger *StockLedger,
	logger *zap.Logger,
) *ReceiptService {
	return &ReceiptService{
		scope:    scope,
		receipts: receipts,
		ledger:   ledger,
		logger:   logger,
	}
}

// WithTransitionRecorder sets the transition recorder
func (s *ReceiptService) WithTransitionRecorder(r TransitionRecorder) *ReceiptService {
	s.transitions = r
	return s
}

// Create records one receipt
func (s *ReceiptService) Create(ctx context.Context, actor identity.Actor, input ReceiptInput) (*ReceiptResponse, notification.List, error) {
	receipts, intents, err := s.CreateBatch(ctx, actor, []ReceiptInput{input})
	if err != nil {
		return nil, nil, err
	}
	return &receipts[0], intents, nil
}

// CreateBatch records several receipts in one atomic unit. Administrators
// book the stock at once; storekeepers create PENDING receipts.
func (s *ReceiptService) CreateBatch(ctx context.Context, actor identity.Actor, inputs []ReceiptInput) ([]ReceiptResponse, notification.List, error) {
	if !actor.HasRole(identity.RoleAdmin, identity.RoleStorekeeper) {
		return nil, nil, shared.NewPermissionError("Only an administrator or a storekeeper can record receipts")
	}
	if len(inputs) == 0 {
		return nil, nil, shared.NewValidationError("NO_ITEMS", "At least one receipt line is required")
	}
	isAdmin := actor.HasRole(identity.RoleAdmin)

	created := make([]*inventory.StockReceipt, 0, len(inputs))
	var intents notification.List
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var movements []Movement
		for _, input := range inputs {
			product, err := repos.ProductRepo().FindByID(ctx, input.ProductID)
			if err != nil {
				return err
			}

			var receipt *inventory.StockReceipt
			if isAdmin {
				receipt, err = inventory.NewApprovedReceipt(product.ID, input.Quantity, input.SupplierName, input.BatchNumber, actor.ID)
			} else {
				receipt, err = inventory.NewPendingReceipt(product.ID, input.Quantity, input.SupplierName, input.BatchNumber, actor.ID)
			}
			if err != nil {
				return err
			}
			if err := repos.ReceiptRepo().Save(ctx, receipt); err != nil {
				return fmt.Errorf("failed to save receipt: %w", err)
			}
			created = append(created, receipt)

			if !isAdmin {
				intents.Add(notification.ToRoles(notification.TypeReceiptApprovalNeeded,
					fmt.Sprintf("%s recorded a receipt of %d %s from %s", actor.Name, receipt.Quantity, product.Reference, receipt.SupplierName),
					identity.RoleFinance).About("stock_receipt", receipt.ID))
				continue
			}
			movements = append(movements, Movement{
				ProductID: product.ID,
				ActorID:   actor.ID,
				Direction: inventory.DirectionIn,
				Quantity:  receipt.Quantity,
				Source:    inventory.SourceReceipt,
				SourceID:  &receipt.ID,
			})
		}
		_, more, err := s.ledger.ApplyAll(ctx, repos, movements)
		if err != nil {
			return err
		}
		intents.Add(more...)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	responses := make([]ReceiptResponse, 0, len(created))
	for _, r := range created {
		if s.transitions != nil {
			s.transitions.RecordTransition(ctx, "receipt", string(r.Status))
		}
		responses = append(responses, ToReceiptResponse(r))
	}
	s.logger.Info("Stock receipts recorded",
		zap.Int("count", len(created)),
		zap.Bool("applied", isAdmin),
		zap.String("actor_id", actor.ID.String()))
	return responses, intents, nil
}

// Decide approves or rejects a pending receipt
func (s *ReceiptService) Decide(ctx context.Context, actor identity.Actor, id uuid.UUID, input DecisionInput) (*ReceiptResponse, notification.List, error) {
	if !actor.HasRole(identity.RoleFinance) {
		return nil, nil, shared.NewPermissionError("Only the financial approver can decide on receipts")
	}

	var (
		receipt *inventory.StockReceipt
		intents notification.List
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		receipt, err = repos.ReceiptRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := receipt.Decide(actor.ID, input.Decision, input.Comment); err != nil {
			return err
		}
		if receipt.IsApproved() {
			_, more, err := s.ledger.Apply(ctx, repos, Movement{
				ProductID: receipt.ProductID,
				ActorID:   receipt.RequestedByID,
				Direction: inventory.DirectionIn,
				Quantity:  receipt.Quantity,
				Source:    inventory.SourceReceipt,
				SourceID:  &receipt.ID,
			})
			if err != nil {
				return err
			}
			intents.Add(more...)
		}
		if err := repos.ReceiptRepo().Save(ctx, receipt); err != nil {
			return fmt.Errorf("failed to save receipt: %w", err)
		}
		intents.Add(notification.ToUsers(notification.TypeReceiptDecision,
			fmt.Sprintf("Your stock receipt from %s was %s", receipt.SupplierName, receipt.Status), receipt.RequestedByID).
			About("stock_receipt", receipt.ID))
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if s.transitions != nil {
		s.transitions.RecordTransition(ctx, "receipt", string(receipt.Status))
	}
	s.logger.Info("Stock receipt decided",
		zap.String("receipt_id", receipt.ID.String()),
		zap.String("status", string(receipt.Status)))
	response := ToReceiptResponse(receipt)
	return &response, intents, nil
}

// GetByID retrieves a receipt by ID
func (s *ReceiptService) GetByID(ctx context.Context, id uuid.UUID) (*ReceiptResponse, error) {
	receipt, err := s.receipts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToReceiptResponse(receipt)
	return &response, nil
}

// List retrieves receipts with pagination and an optional status filter
func (s *ReceiptService) List(ctx context.Context, filter ListFilter) (*shared.Paginated[ReceiptResponse], error) {
	if filter.Status != "" && !inventory.ApprovalStatus(filter.Status).IsValid() {
		return nil, shared.NewValidationError("INVALID_STATUS", "Unknown status: "+filter.Status)
	}
	f := filter.ToFilter()
	receipts, total, err := s.receipts.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	items := make([]ReceiptResponse, 0, len(receipts))
	for i := range receipts {
		items = append(items, ToReceiptResponse(&receipts[i]))
	}
	result := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &result, nil
}
