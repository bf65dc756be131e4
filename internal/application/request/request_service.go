package request

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	appinv "github.com/stockflow/backend/internal/application/inventory"
	"github.com/stockflow/backend/internal/domain/identity"
	"github.com/stockflow/backend/internal/domain/inventory"
	"github.com/stockflow/backend/internal/domain/notification"
	"github.com/stockflow/backend/internal/domain/request"
	"github.com/stockflow/backend/internal/domain/sequence"
	"github.com/stockflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const entityType = "request"

// Service drives the issue-request workflow
type Service struct {
	scope       appinv.TransactionScope
	requests    request.Repository
	products    inventory.ProductRepository
	users       identity.UserRepository
	numbers     *sequence.Generator
	ledger      *appinv.StockLedger
	transitions appinv.TransitionRecorder
	logger      *zap.Logger
}

// NewService creates a new request Service
func NewService(
	scope appinv.TransactionScope,
	requests request.Repository,
	products inventory.ProductRepository,
	users identity.UserRepository,
	numbers *sequence.Generator,
	ledger *appinv.StockLedger,
	logger *zap.Logger,
) *Service {
	return &Service{
		scope:    scope,
		requests: requests,
		products: products,
		users:    users,
		numbers:  numbers,
		ledger:   ledger,
		logger:   logger,
	}
}

// WithTransitionRecorder sets the transition recorder
func (s *Service) WithTransitionRecorder(r appinv.TransitionRecorder) *Service {
	s.transitions = r
	return s
}

// mutate loads the request under lock, runs fn and saves the result
func (s *Service) mutate(
	ctx context.Context,
	id uuid.UUID,
	fn func(repos appinv.TransactionalRepositories, r *request.Request) (notification.List, error),
) (*request.Request, notification.List, error) {
	var (
		r       *request.Request
		intents notification.List
	)
	err := s.scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		var err error
		r, err = repos.RequestRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		intents, err = fn(repos, r)
		if err != nil {
			return err
		}
		if err := repos.RequestRepo().Save(ctx, r); err != nil {
			return fmt.Errorf("failed to save request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if s.transitions != nil {
		s.transitions.RecordTransition(ctx, entityType, string(r.Status))
	}
	s.logger.Info("Request transitioned",
		zap.String("request_id", r.ID.String()),
		zap.String("number", r.Number),
		zap.String("status", string(r.Status)))
	return r, intents, nil
}

func respond(r *request.Request, intents notification.List, err error) (*Response, notification.List, error) {
	if err != nil {
		return nil, nil, err
	}
	response := ToResponse(r)
	return &response, intents, nil
}

// Create submits a new request after a non-binding stock pre-check
func (s *Service) Create(ctx context.Context, actor identity.Actor, input CreateInput) (*Response, notification.List, error) {
	if !actor.HasRole(identity.RoleRequester) {
		return nil, nil, shared.NewPermissionError("Only a service head can create an issue request")
	}

	var (
		r       *request.Request
		intents notification.List
	)
	err := s.scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		for _, line := range input.Items {
			product, err := repos.ProductRepo().FindByID(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if err := product.EnsureAvailable(line.RequestedQty); err != nil {
				return err
			}
		}
		number, err := s.numbers.Next(ctx, repos.CounterRepo(), sequence.DocTypeRequest)
		if err != nil {
			return err
		}
		r, err = request.New(number, actor, input.Note, input.Items)
		if err != nil {
			return err
		}
		if err := repos.RequestRepo().Save(ctx, r); err != nil {
			return fmt.Errorf("failed to save request: %w", err)
		}
		intents.Add(notification.ToRoles(notification.TypeRequestApprovalNeeded,
			fmt.Sprintf("New request %s from %s awaits approval", r.Number, actor.Name),
			identity.RoleFinance).About(entityType, r.ID))
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if s.transitions != nil {
		s.transitions.RecordTransition(ctx, entityType, string(r.Status))
	}
	s.logger.Info("Request created",
		zap.String("request_id", r.ID.String()),
		zap.String("number", r.Number),
		zap.Int("items", len(r.Items)))
	return respond(r, intents, nil)
}

// Approve sets approved quantities. Stock is re-checked for every approved
// line and the whole approval fails if any product falls short.
func (s *Service) Approve(ctx context.Context, actor identity.Actor, id uuid.UUID, input ApproveInput) (*Response, notification.List, error) {
	return respond(s.mutate(ctx, id, func(repos appinv.TransactionalRepositories, r *request.Request) (notification.List, error) {
		if err := r.Approve(actor, input.Items, input.Comment); err != nil {
			return nil, err
		}
		for _, item := range r.DeliveredItems() {
			product, err := repos.ProductRepo().FindByID(ctx, item.ProductID)
			if err != nil {
				return nil, err
			}
			if err := product.EnsureAvailable(item.DeliverableQty()); err != nil {
				return nil, err
			}
		}
		return notification.List{
			notification.ToUsers(notification.TypeRequestDecision,
				fmt.Sprintf("Your request %s was approved", r.Number), r.RequesterID).About(entityType, r.ID),
			notification.ToRoles(notification.TypeDeliveryReady,
				fmt.Sprintf("Request %s is approved and ready for delivery", r.Number),
				identity.RoleStorekeeper).About(entityType, r.ID),
		}, nil
	}))
}

// Reject refuses a transmitted request
func (s *Service) Reject(ctx context.Context, actor identity.Actor, id uuid.UUID, comment string) (*Response, notification.List, error) {
	return respond(s.mutate(ctx, id, func(_ appinv.TransactionalRepositories, r *request.Request) (notification.List, error) {
		if err := r.Reject(actor, comment); err != nil {
			return nil, err
		}
		return notification.List{
			notification.ToUsers(notification.TypeRequestDecision,
				fmt.Sprintf("Your request %s was rejected", r.Number), r.RequesterID).About(entityType, r.ID),
		}, nil
	}))
}

// Deliver books one OUT movement per approved line. The request row is
// locked first, so a concurrent second delivery sees LIVREE_PAR_MAGASINIER
// and fails.
func (s *Service) Deliver(ctx context.Context, actor identity.Actor, id uuid.UUID) (*Response, notification.List, error) {
	return respond(s.mutate(ctx, id, func(repos appinv.TransactionalRepositories, r *request.Request) (notification.List, error) {
		items, err := r.Deliver(actor)
		if err != nil {
			return nil, err
		}
		movements := make([]appinv.Movement, 0, len(items))
		for _, item := range items {
			movements = append(movements, appinv.Movement{
				ProductID: item.ProductID,
				ActorID:   actor.ID,
				Direction: inventory.DirectionOut,
				Quantity:  item.DeliverableQty(),
				Source:    inventory.SourceRequest,
				SourceID:  &r.ID,
			})
		}
		_, intents, err := s.ledger.ApplyAll(ctx, repos, movements)
		if err != nil {
			return nil, err
		}
		intents.Add(notification.ToUsers(notification.TypeRequestDelivered,
			fmt.Sprintf("Request %s has been delivered", r.Number), r.RequesterID).About(entityType, r.ID))
		return intents, nil
	}))
}

// ReportIssue flags delivered items as disputed
func (s *Service) ReportIssue(ctx context.Context, actor identity.Actor, id uuid.UUID, reports []request.IssueReport) (*Response, notification.List, error) {
	return respond(s.mutate(ctx, id, func(_ appinv.TransactionalRepositories, r *request.Request) (notification.List, error) {
		if err := r.ReportIssue(actor, reports); err != nil {
			return nil, err
		}
		return notification.List{
			notification.ToRoles(notification.TypeReceptionIssue,
				fmt.Sprintf("%s reported a reception issue on %d item(s) of request %s", actor.Name, len(reports), r.Number),
				identity.RoleStorekeeper, identity.RoleFinance).About(entityType, r.ID),
		}, nil
	}))
}

// ResolveDispute settles every reported item
func (s *Service) ResolveDispute(ctx context.Context, actor identity.Actor, id uuid.UUID, decision request.DisputeDecision, comment string) (*Response, notification.List, error) {
	return respond(s.mutate(ctx, id, func(_ appinv.TransactionalRepositories, r *request.Request) (notification.List, error) {
		if err := r.ResolveDispute(actor, decision, comment); err != nil {
			return nil, err
		}
		msg := fmt.Sprintf("Dispute on request %s resolved: %s", r.Number, decision)
		return notification.List{
			notification.ToUsers(notification.TypeDisputeResolved, msg, r.RequesterID).About(entityType, r.ID),
			notification.ToRoles(notification.TypeDisputeResolved, msg, identity.RoleStorekeeper).About(entityType, r.ID),
		}, nil
	}))
}

// Receive confirms reception
func (s *Service) Receive(ctx context.Context, actor identity.Actor, id uuid.UUID) (*Response, notification.List, error) {
	return respond(s.mutate(ctx, id, func(_ appinv.TransactionalRepositories, r *request.Request) (notification.List, error) {
		if err := r.Receive(actor); err != nil {
			return nil, err
		}
		return notification.List{
			notification.ToRoles(notification.TypeRequestReceived,
				fmt.Sprintf("Request %s was received by %s", r.Number, actor.Name),
				identity.RoleStorekeeper).About(entityType, r.ID),
		}, nil
	}))
}

// Cancel withdraws a transmitted request
func (s *Service) Cancel(ctx context.Context, actor identity.Actor, id uuid.UUID) (*Response, notification.List, error) {
	return respond(s.mutate(ctx, id, func(_ appinv.TransactionalRepositories, r *request.Request) (notification.List, error) {
		if err := r.Cancel(actor); err != nil {
			return nil, err
		}
		return notification.List{
			notification.ToRoles(notification.TypeRequestCancelled,
				fmt.Sprintf("Request %s was cancelled by %s", r.Number, actor.Name),
				identity.RoleFinance).About(entityType, r.ID),
		}, nil
	}))
}

// load fetches a request and hides other departments' requests from service heads
func (s *Service) load(ctx context.Context, actor identity.Actor, id uuid.UUID) (*request.Request, error) {
	r, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.HasRole(identity.RoleRequester) && !actor.Is(r.RequesterID) {
		return nil, shared.NewNotFoundError(entityType, id)
	}
	return r, nil
}

// GetByID retrieves a request with approver names on its log
func (s *Service) GetByID(ctx context.Context, actor identity.Actor, id uuid.UUID) (*Response, error) {
	r, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	response := ToResponse(r)
	ids := make([]uuid.UUID, 0, len(r.Approvals))
	for _, a := range r.Approvals {
		ids = append(ids, a.UserID)
	}
	if len(ids) > 0 {
		names, err := s.users.NamesByIDs(ctx, ids...)
		if err != nil {
			return nil, err
		}
		for i := range response.Approvals {
			response.Approvals[i].UserName = names[response.Approvals[i].UserID]
		}
	}
	return &response, nil
}

// List retrieves requests; a service head only sees their own
func (s *Service) List(ctx context.Context, actor identity.Actor, filter ListFilter) (*shared.Paginated[Response], error) {
	if filter.Status != "" && !request.Status(filter.Status).IsValid() {
		return nil, shared.NewValidationError("INVALID_STATUS", "Unknown status: "+filter.Status)
	}
	if actor.HasRole(identity.RoleRequester) {
		own := actor.ID
		filter.RequesterID = &own
	}
	f := filter.ToFilter()
	requests, total, err := s.requests.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	items := make([]Response, 0, len(requests))
	for i := range requests {
		items = append(items, ToResponse(&requests[i]))
	}
	result := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &result, nil
}

// DeliveryNote projects the handed-over lines of a delivered request
func (s *Service) DeliveryNote(ctx context.Context, actor identity.Actor, id uuid.UUID) (*DeliveryNote, error) {
	r, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !r.Status.HasDeliveryNote() {
		return nil, shared.NewInvalidStateError(fmt.Sprintf("Request %s has not been delivered", r.Number))
	}

	items := r.DeliveredItems()
	productIDs := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	userIDs := []uuid.UUID{r.RequesterID}
	if r.DeliveredByID != nil {
		userIDs = append(userIDs, *r.DeliveredByID)
	}
	names, err := s.users.NamesByIDs(ctx, userIDs...)
	if err != nil {
		return nil, err
	}

	note := &DeliveryNote{
		RequestID:     r.ID,
		Number:        r.Number,
		Status:        string(r.Status),
		RequesterName: names[r.RequesterID],
		DeliveredAt:   r.DeliveredAt,
		Lines:         make([]DeliveryNoteLine, 0, len(items)),
	}
	if r.DeliveredByID != nil {
		note.DelivererName = names[*r.DeliveredByID]
	}
	for _, item := range items {
		line := DeliveryNoteLine{
			ProductID:    item.ProductID,
			RequestedQty: item.RequestedQty,
			DeliveredQty: item.DeliverableQty(),
		}
		if p, ok := products[item.ProductID]; ok {
			line.ProductName = p.Name
			line.Reference = p.Reference
			line.Unit = p.Unit
		}
		note.Lines = append(note.Lines, line)
	}
	return note, nil
}
