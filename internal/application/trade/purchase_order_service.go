package trade

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	appinv "github.com/stockflow/backend/internal/application/inventory"
	"github.com/stockflow/backend/internal/domain/identity"
	"github.com/stockflow/backend/internal/domain/inventory"
	"github.com/stockflow/backend/internal/domain/notification"
	"github.com/stockflow/backend/internal/domain/sequence"
	"github.com/stockflow/backend/internal/domain/shared"
	"github.com/stockflow/backend/internal/domain/trade"
	"go.uber.org/zap"
)

const entityType = "purchase_order"

// PurchaseOrderService handles purchase order business operations
type PurchaseOrderService struct {
	scope       appinv.TransactionScope
	orderRepo   trade.PurchaseOrderRepository
	products    inventory.ProductRepository
	users       identity.UserRepository
	numbers     *sequence.Generator
	ledger      *appinv.StockLedger
	transitions appinv.TransitionRecorder
	logger      *zap.Logger
}

// NewPurchaseOrderService creates a new PurchaseOrderService
func NewPurchaseOrderService(
	scope appinv.TransactionScope,
	orderRepo trade.PurchaseOrderRepository,
	products inventory.ProductRepository,
	users identity.UserRepository,
	numbers *sequence.Generator,
	ledger *appinv.StockLedger,
	logger *zap.Logger,
) *PurchaseOrderService {
	return &PurchaseOrderService{
		scope:     scope,
		orderRepo: orderRepo,
		products:  products,
		users:     users,
		numbers:   numbers,
		ledger:    ledger,
		logger:    logger,
	}
}

// WithTransitionRecorder sets the transition recorder
func (s *PurchaseOrderService) WithTransitionRecorder(r appinv.TransitionRecorder) *PurchaseOrderService {
	s.transitions = r
	return s
}

func (s *PurchaseOrderService) recordTransition(ctx context.Context, order *trade.PurchaseOrder) {
	if s.transitions != nil {
		s.transitions.RecordTransition(ctx, entityType, string(order.Status))
	}
	s.logger.Info("Purchase order transitioned",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("status", string(order.Status)))
}

func ensureProductsExist(ctx context.Context, repos appinv.TransactionalRepositories, lines []trade.LineInput) error {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	found, err := repos.ProductRepo().FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return shared.NewNotFoundError("product", id)
		}
	}
	return nil
}

// Create opens a DRAFT order
func (s *PurchaseOrderService) Create(ctx context.Context, actor identity.Actor, input PurchaseOrderInput) (*PurchaseOrderResponse, notification.List, error) {
	if !trade.CanCreatePurchaseOrder(actor) {
		return nil, nil, shared.NewPermissionError("Role cannot create a purchase order")
	}

	var (
		order   *trade.PurchaseOrder
		intents notification.List
	)
	err := s.scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		if err := ensureProductsExist(ctx, repos, input.Items); err != nil {
			return err
		}
		number, err := s.numbers.Next(ctx, repos.CounterRepo(), sequence.DocTypePurchaseOrder)
		if err != nil {
			return err
		}
		order, err = trade.NewPurchaseOrder(number, actor, input.Supplier, input.Note, input.Items)
		if err != nil {
			return err
		}
		if err := repos.PurchaseOrderRepo().Save(ctx, order); err != nil {
			return fmt.Errorf("failed to save purchase order: %w", err)
		}
		intents.Add(notification.ToRoles(notification.TypePurchaseOrderCreated,
			fmt.Sprintf("Purchase order %s created by %s (%s)", order.OrderNumber, actor.Name, order.TotalAmount.StringFixed(2)),
			identity.RoleFinance).About(entityType, order.ID))
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.recordTransition(ctx, order)
	response := ToPurchaseOrderResponse(order)
	return &response, intents, nil
}

// mutate loads the order under lock, applies fn and saves it
func (s *PurchaseOrderService) mutate(
	ctx context.Context,
	id uuid.UUID,
	fn func(repos appinv.TransactionalRepositories, order *trade.PurchaseOrder) (notification.List, error),
) (*PurchaseOrderResponse, notification.List, error) {
	var (
		order   *trade.PurchaseOrder
		intents notification.List
	)
	err := s.scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		var err error
		order, err = repos.PurchaseOrderRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		intents, err = fn(repos, order)
		if err != nil {
			return err
		}
		if err := repos.PurchaseOrderRepo().Save(ctx, order); err != nil {
			return fmt.Errorf("failed to save purchase order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.recordTransition(ctx, order)
	response := ToPurchaseOrderResponse(order)
	return &response, intents, nil
}

func toCreator(order *trade.PurchaseOrder, t notification.Type, message string) notification.Intent {
	return notification.ToUsers(t, message, order.CreatedByID).About(entityType, order.ID)
}

// Edit replaces supplier, note and items of a DRAFT or A_REVOIR order
func (s *PurchaseOrderService) Edit(ctx context.Context, actor identity.Actor, id uuid.UUID, input PurchaseOrderInput) (*PurchaseOrderResponse, error) {
	response, _, err := s.mutate(ctx, id, func(repos appinv.TransactionalRepositories, order *trade.PurchaseOrder) (notification.List, error) {
		if err := order.Edit(actor, input.Supplier, input.Note, input.Items); err != nil {
			return nil, err
		}
		return nil, ensureProductsExist(ctx, repos, input.Items)
	})
	return response, err
}

// Submit sends the order for financial approval
func (s *PurchaseOrderService) Submit(ctx context.Context, actor identity.Actor, id uuid.UUID) (*PurchaseOrderResponse, notification.List, error) {
	return s.mutate(ctx, id, func(_ appinv.TransactionalRepositories, order *trade.PurchaseOrder) (notification.List, error) {
		if err := order.Submit(actor); err != nil {
			return nil, err
		}
		return notification.List{
			notification.ToRoles(notification.TypePurchaseOrderSubmitted,
				fmt.Sprintf("Purchase order %s awaits approval", order.OrderNumber),
				identity.RoleFinance).About(entityType, order.ID),
		}, nil
	})
}

// Approve accepts a pending order
func (s *PurchaseOrderService) Approve(ctx context.Context, actor identity.Actor, id uuid.UUID, input DecisionInput) (*PurchaseOrderResponse, notification.List, error) {
	return s.mutate(ctx, id, func(_ appinv.TransactionalRepositories, order *trade.PurchaseOrder) (notification.List, error) {
		if err := order.Approve(actor, input.Comment); err != nil {
			return nil, err
		}
		return notification.List{toCreator(order, notification.TypePurchaseOrderDecision,
			fmt.Sprintf("Purchase order %s was approved", order.OrderNumber))}, nil
	})
}

// SendBack returns a pending order to its creator
func (s *PurchaseOrderService) SendBack(ctx context.Context, actor identity.Actor, id uuid.UUID, input DecisionInput) (*PurchaseOrderResponse, notification.List, error) {
	return s.mutate(ctx, id, func(_ appinv.TransactionalRepositories, order *trade.PurchaseOrder) (notification.List, error) {
		if err := order.SendBack(actor, input.Comment); err != nil {
			return nil, err
		}
		return notification.List{toCreator(order, notification.TypePurchaseOrderDecision,
			fmt.Sprintf("Purchase order %s was sent back for review: %s", order.OrderNumber, order.DecisionComment))}, nil
	})
}

// MarkOrdered records that the order was placed with the supplier
func (s *PurchaseOrderService) MarkOrdered(ctx context.Context, actor identity.Actor, id uuid.UUID) (*PurchaseOrderResponse, notification.List, error) {
	return s.mutate(ctx, id, func(_ appinv.TransactionalRepositories, order *trade.PurchaseOrder) (notification.List, error) {
		if err := order.MarkOrdered(actor); err != nil {
			return nil, err
		}
		return notification.List{toCreator(order, notification.TypePurchaseOrderOrdered,
			fmt.Sprintf("Purchase order %s was sent to %s", order.OrderNumber, order.Supplier))}, nil
	})
}

// Close receives the goods: one IN movement per line
func (s *PurchaseOrderService) Close(ctx context.Context, actor identity.Actor, id uuid.UUID) (*PurchaseOrderResponse, notification.List, error) {
	return s.mutate(ctx, id, func(repos appinv.TransactionalRepositories, order *trade.PurchaseOrder) (notification.List, error) {
		items, err := order.Close(actor)
		if err != nil {
			return nil, err
		}
		movements := make([]appinv.Movement, 0, len(items))
		for _, item := range items {
			movements = append(movements, appinv.Movement{
				ProductID: item.ProductID,
				ActorID:   actor.ID,
				Direction: inventory.DirectionIn,
				Quantity:  item.Quantity,
				Source:    inventory.SourceReceipt,
				SourceID:  &order.ID,
			})
		}
		_, intents, err := s.ledger.ApplyAll(ctx, repos, movements)
		if err != nil {
			return nil, err
		}
		intents.Add(toCreator(order, notification.TypePurchaseOrderClosed,
			fmt.Sprintf("Purchase order %s was received and closed", order.OrderNumber)))
		return intents, nil
	})
}

// Cancel abandons a non-terminal order
func (s *PurchaseOrderService) Cancel(ctx context.Context, actor identity.Actor, id uuid.UUID) (*PurchaseOrderResponse, notification.List, error) {
	return s.mutate(ctx, id, func(_ appinv.TransactionalRepositories, order *trade.PurchaseOrder) (notification.List, error) {
		if err := order.Cancel(actor); err != nil {
			return nil, err
		}
		return notification.List{toCreator(order, notification.TypePurchaseOrderCancelled,
			fmt.Sprintf("Purchase order %s was cancelled by %s", order.OrderNumber, actor.Name))}, nil
	})
}

// Delete removes an order that is not closed
func (s *PurchaseOrderService) Delete(ctx context.Context, actor identity.Actor, id uuid.UUID) error {
	err := s.scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		order, err := repos.PurchaseOrderRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := order.EnsureDeletable(actor); err != nil {
			return err
		}
		return repos.PurchaseOrderRepo().Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("Purchase order deleted",
		zap.String("order_id", id.String()),
		zap.String("actor_id", actor.ID.String()))
	return nil
}

// AutoGenerate drafts one replenishment order per product under its minimum
// stock that is not already on an open order.
func (s *PurchaseOrderService) AutoGenerate(ctx context.Context, actor identity.Actor) (*AutoGenerateResult, notification.List, error) {
	if !actor.HasRole(identity.RoleStorekeeper, identity.RoleAdmin) {
		return nil, nil, shared.NewPermissionError("Only a storekeeper or an administrator can generate purchase orders")
	}

	var (
		created []*trade.PurchaseOrder
		skipped int
		intents notification.List
	)
	err := s.scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		low, err := repos.ProductRepo().FindBelowMinStock(ctx)
		if err != nil {
			return fmt.Errorf("failed to load products below minimum stock: %w", err)
		}
		open, err := repos.PurchaseOrderRepo().OpenProductIDs(ctx)
		if err != nil {
			return fmt.Errorf("failed to load open purchase orders: %w", err)
		}
		for i := range low {
			product := &low[i]
			if open[product.ID] {
				skipped++
				continue
			}
			line, ok := trade.ReorderLine(product)
			if !ok {
				skipped++
				continue
			}
			number, err := s.numbers.Next(ctx, repos.CounterRepo(), sequence.DocTypePurchaseOrder)
			if err != nil {
				return err
			}
			order, err := trade.NewPurchaseOrder(number, actor, trade.AutoSupplierName(product), "", []trade.LineInput{line})
			if err != nil {
				return err
			}
			if err := repos.PurchaseOrderRepo().Save(ctx, order); err != nil {
				return fmt.Errorf("failed to save purchase order: %w", err)
			}
			created = append(created, order)
			intents.Add(notification.ToRoles(notification.TypePurchaseOrderAutoGenerate,
				fmt.Sprintf("Draft purchase order %s generated for %s (%d units)", order.OrderNumber, product.Reference, line.Quantity),
				identity.RoleFinance).About(entityType, order.ID))
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	result := &AutoGenerateResult{
		Created: make([]PurchaseOrderResponse, 0, len(created)),
		Skipped: skipped,
	}
	for _, order := range created {
		if s.transitions != nil {
			s.transitions.RecordTransition(ctx, entityType, string(order.Status))
		}
		result.Created = append(result.Created, ToPurchaseOrderResponse(order))
	}
	s.logger.Info("Purchase orders auto-generated",
		zap.Int("created", len(created)),
		zap.Int("skipped", skipped),
		zap.String("actor_id", actor.ID.String()))
	return result, intents, nil
}

// GetByID retrieves a purchase order by ID
func (s *PurchaseOrderService) GetByID(ctx context.Context, id uuid.UUID) (*PurchaseOrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// List retrieves purchase orders with pagination and an optional status filter
func (s *PurchaseOrderService) List(ctx context.Context, filter ListFilter) (*shared.Paginated[PurchaseOrderResponse], error) {
	if filter.Status != "" && !trade.PurchaseOrderStatus(filter.Status).IsValid() {
		return nil, shared.NewValidationError("INVALID_STATUS", "Unknown status: "+filter.Status)
	}
	f := filter.ToFilter()
	orders, total, err := s.orderRepo.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	result := shared.NewPaginated(ToPurchaseOrderResponses(orders), total, f.Page, f.PageSize)
	return &result, nil
}

// Print projects an order with product and user names
func (s *PurchaseOrderService) Print(ctx context.Context, id uuid.UUID) (*PurchaseOrderPrint, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	products, err := s.products.FindByIDs(ctx, order.ProductIDs())
	if err != nil {
		return nil, err
	}
	userIDs := []uuid.UUID{order.CreatedByID}
	if order.ApprovedByID != nil {
		userIDs = append(userIDs, *order.ApprovedByID)
	}
	names, err := s.users.NamesByIDs(ctx, userIDs...)
	if err != nil {
		return nil, err
	}

	doc := &PurchaseOrderPrint{
		OrderNumber: order.OrderNumber,
		Status:      string(order.Status),
		Supplier:    order.Supplier,
		Note:        order.Note,
		CreatedBy:   names[order.CreatedByID],
		ApprovedAt:  order.ApprovedAt,
		CreatedAt:   order.CreatedAt,
		Lines:       make([]PrintLine, 0, len(order.Items)),
		TotalAmount: order.TotalAmount,
	}
	if order.ApprovedByID != nil {
		doc.ApprovedBy = names[*order.ApprovedByID]
	}
	for _, item := range order.Items {
		line := PrintLine{
			Position:  item.Position,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
		}
		if p, ok := products[item.ProductID]; ok {
			line.ProductName = p.Name
			line.Reference = p.Reference
			line.Unit = p.Unit
		}
		doc.Lines = append(doc.Lines, line)
	}
	return doc, nil
}
