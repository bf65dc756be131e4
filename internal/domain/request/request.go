package request

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stockflow/backend/internal/domain/identity"
	"github.com/stockflow/backend/internal/domain/shared"
)

const entityName = "request"

// Item is one line of an issue request
type Item struct {
	ID             uuid.UUID
	RequestID      uuid.UUID
	ProductID      uuid.UUID
	Position       int
	RequestedQty   int
	ApprovedQty    *int
	DisputeReason  DisputeReason // empty when never disputed
	DisputeComment string
	DisputeStatus  DisputeStatus
}

// DeliverableQty returns the quantity the storekeeper hands over
func (i *Item) DeliverableQty() int {
	if i.ApprovedQty == nil {
		return 0
	}
	return *i.ApprovedQty
}

// Approval is one entry of the request's financial decision log
type Approval struct {
	ID        uuid.UUID
	RequestID uuid.UUID
	UserID    uuid.UUID
	Decision  ApprovalDecision
	Comment   string
	CreatedAt time.Time
}

// Request is a department's issue request for stock
type Request struct {
	shared.BaseAggregateRoot
	Number        string
	Status        Status
	RequesterID   uuid.UUID
	Note          string
	ApprovedByID  *uuid.UUID
	ApprovedAt    *time.Time
	DeliveredByID *uuid.UUID
	DeliveredAt   *time.Time
	ReceivedAt    *time.Time
	Items         []Item
	Approvals     []Approval
}

// LineInput is a requested product and quantity
type LineInput struct {
	ProductID    uuid.UUID
	RequestedQty int
}

// IssueReport flags one delivered item
type IssueReport struct {
	ItemID  uuid.UUID
	Reason  DisputeReason
	Comment string
}

// New creates a request in TRANSMISE.
// Stock sufficiency is checked by the caller, which has access to products.
func New(number string, requester identity.Actor, note string, lines []LineInput) (*Request, error) {
	if !requester.HasRole(identity.RoleRequester) {
		return nil, shared.NewPermissionError("Only a service head can create an issue request")
	}
	if number == "" {
		return nil, shared.NewValidationError("INVALID_NUMBER", "Request number cannot be empty")
	}
	if len(lines) == 0 {
		return nil, shared.NewValidationError("NO_ITEMS", "Request must contain at least one item")
	}

	r := &Request{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		Status:            StatusTransmise,
		RequesterID:       requester.ID,
		Note:              strings.TrimSpace(note),
		Items:             make([]Item, 0, len(lines)),
	}

	seen := make(map[uuid.UUID]struct{}, len(lines))
	for idx, line := range lines {
		if line.ProductID == uuid.Nil {
			return nil, shared.NewValidationError("INVALID_PRODUCT", "Product ID cannot be empty")
		}
		if line.RequestedQty <= 0 {
			return nil, shared.NewValidationError("INVALID_QUANTITY", "Requested quantity must be positive")
		}
		if _, dup := seen[line.ProductID]; dup {
			return nil, shared.NewValidationError("DUPLICATE_PRODUCT", fmt.Sprintf("Product %s appears more than once", line.ProductID))
		}
		seen[line.ProductID] = struct{}{}
		r.Items = append(r.Items, Item{
			ID:            uuid.New(),
			RequestID:     r.ID,
			ProductID:     line.ProductID,
			Position:      idx + 1,
			RequestedQty:  line.RequestedQty,
			DisputeStatus: DisputeStatusNone,
		})
	}
	return r, nil
}

// ProductIDs returns the distinct products referenced by the request
func (r *Request) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.Items))
	for _, item := range r.Items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

// IsOwnedBy reports whether the actor is the service head who submitted the request
func (r *Request) IsOwnedBy(actor identity.Actor) bool {
	return actor.HasRole(identity.RoleRequester) && actor.Is(r.RequesterID)
}

func (r *Request) transition(target Status) error {
	if !r.Status.CanTransitionTo(target) {
		return shared.NewInvalidTransitionError(entityName, r.Status, target)
	}
	r.Status = target
	r.Touch()
	return nil
}

func (r *Request) log(actor identity.Actor, decision ApprovalDecision, comment string) {
	r.Approvals = append(r.Approvals, Approval{
		ID:        uuid.New(),
		RequestID: r.ID,
		UserID:    actor.ID,
		Decision:  decision,
		Comment:   strings.TrimSpace(comment),
		CreatedAt: time.Now(),
	})
}

func (r *Request) itemIndex(itemID uuid.UUID) int {
	for idx := range r.Items {
		if r.Items[idx].ID == itemID {
			return idx
		}
	}
	return -1
}

const notRequester = "A user other than the requester"

func (r *Request) roleDenied(actor identity.Actor, target Status) error {
	return shared.NewTransitionPermissionError("Role "+actor.Role.String(), entityName, r.Status, target)
}

// Approve records per-item approved quantities and moves to APPROUVEE.
// Items left out of approved stay undecided and are not delivered.
// Stock is re-checked by the caller afterwards.
func (r *Request) Approve(actor identity.Actor, approved map[uuid.UUID]int, comment string) error {
	if !actor.HasRole(identity.RoleFinance) {
		return r.roleDenied(actor, StatusApprouvee)
	}
	if !r.Status.CanTransitionTo(StatusApprouvee) {
		return shared.NewInvalidTransitionError(entityName, r.Status, StatusApprouvee)
	}
	for itemID := range approved {
		if r.itemIndex(itemID) < 0 {
			return shared.NewValidationError("ITEM_NOT_IN_REQUEST", fmt.Sprintf("Item %s does not belong to request %s", itemID, r.Number))
		}
	}
	for idx := range r.Items {
		item := &r.Items[idx]
		qty, ok := approved[item.ID]
		if !ok {
			continue
		}
		if qty < 0 || qty > item.RequestedQty {
			return shared.NewValidationError("INVALID_APPROVED_QUANTITY",
				fmt.Sprintf("Approved quantity for item %s must be between 0 and %d", item.ID, item.RequestedQty))
		}
	}

	for idx := range r.Items {
		qty, ok := approved[r.Items[idx].ID]
		if !ok {
			continue
		}
		r.Items[idx].ApprovedQty = &qty
	}
	now := time.Now()
	approverID := actor.ID
	r.ApprovedByID = &approverID
	r.ApprovedAt = &now
	r.log(actor, ApprovalDecisionApprouve, comment)
	return r.transition(StatusApprouvee)
}

// Reject refuses the request
func (r *Request) Reject(actor identity.Actor, comment string) error {
	if !actor.HasRole(identity.RoleFinance) {
		return r.roleDenied(actor, StatusRejetee)
	}
	if err := r.transition(StatusRejetee); err != nil {
		return err
	}
	now := time.Now()
	approverID := actor.ID
	r.ApprovedByID = &approverID
	r.ApprovedAt = &now
	r.log(actor, ApprovalDecisionRejete, comment)
	return nil
}

// Deliver marks the physical handover and returns the items whose approved
// quantity must leave the stock.
func (r *Request) Deliver(actor identity.Actor) ([]Item, error) {
	if !actor.HasRole(identity.RoleStorekeeper) {
		return nil, r.roleDenied(actor, StatusLivree)
	}
	if err := r.transition(StatusLivree); err != nil {
		return nil, err
	}
	now := time.Now()
	delivererID := actor.ID
	r.DeliveredByID = &delivererID
	r.DeliveredAt = &now
	return r.DeliveredItems(), nil
}

// DeliveredItems returns the items with a positive approved quantity
func (r *Request) DeliveredItems() []Item {
	var out []Item
	for _, item := range r.Items {
		if item.DeliverableQty() > 0 {
			out = append(out, item)
		}
	}
	return out
}

// ReportIssue flags delivered items as disputed and moves to LITIGE_RECEPTION
func (r *Request) ReportIssue(actor identity.Actor, reports []IssueReport) error {
	if !r.IsOwnedBy(actor) {
		return shared.NewTransitionPermissionError(notRequester, entityName, r.Status, StatusLitige)
	}
	if !r.Status.CanTransitionTo(StatusLitige) {
		return shared.NewInvalidTransitionError(entityName, r.Status, StatusLitige)
	}
	if len(reports) == 0 {
		return shared.NewValidationError("NO_ITEMS", "At least one item must be reported")
	}
	for _, rep := range reports {
		if r.itemIndex(rep.ItemID) < 0 {
			return shared.NewValidationError("ITEM_NOT_IN_REQUEST", fmt.Sprintf("Item %s does not belong to request %s", rep.ItemID, r.Number))
		}
		if r.Items[r.itemIndex(rep.ItemID)].DeliverableQty() == 0 {
			return shared.NewValidationError("ITEM_NOT_DELIVERED", fmt.Sprintf("Item %s was not delivered and cannot be disputed", rep.ItemID))
		}
		if !rep.Reason.IsValid() {
			return shared.NewValidationError("INVALID_REASON", fmt.Sprintf("Unknown dispute reason %q", rep.Reason))
		}
		if rep.Reason == DisputeReasonAutre && strings.TrimSpace(rep.Comment) == "" {
			return shared.NewValidationError("COMMENT_REQUIRED", "A comment is required when the reason is AUTRE")
		}
	}

	for _, rep := range reports {
		item := &r.Items[r.itemIndex(rep.ItemID)]
		item.DisputeReason = rep.Reason
		item.DisputeComment = strings.TrimSpace(rep.Comment)
		item.DisputeStatus = DisputeStatusReported
	}
	return r.transition(StatusLitige)
}

// ReportedItems returns the items currently awaiting a dispute decision
func (r *Request) ReportedItems() []Item {
	var out []Item
	for _, item := range r.Items {
		if item.DisputeStatus == DisputeStatusReported {
			out = append(out, item)
		}
	}
	return out
}

// ResolveDispute settles every REPORTED item at once. When no item remains
// reported the request moves to RECEPTION_CONFIRMEE or REJETEE.
func (r *Request) ResolveDispute(actor identity.Actor, decision DisputeDecision, comment string) error {
	if !actor.HasRole(identity.RoleFinance) {
		if decision == DisputeDecisionReject {
			return r.roleDenied(actor, StatusRejetee)
		}
		return r.roleDenied(actor, StatusReceptionConfirmee)
	}
	if r.Status != StatusLitige {
		return shared.NewInvalidTransitionError(entityName, r.Status, StatusReceptionConfirmee)
	}
	if decision != DisputeDecisionApprove && decision != DisputeDecisionReject {
		return shared.NewValidationError("INVALID_DECISION", "Decision must be RESOLVE_APPROVE or RESOLVE_REJECT")
	}

	resolved := DisputeStatusResolvedApproved
	logged := ApprovalDecisionLitigeResoluApprouve
	target := StatusReceptionConfirmee
	if decision == DisputeDecisionReject {
		resolved = DisputeStatusResolvedRejected
		logged = ApprovalDecisionLitigeResoluRejete
		target = StatusRejetee
	}

	count := 0
	for idx := range r.Items {
		if r.Items[idx].DisputeStatus == DisputeStatusReported {
			r.Items[idx].DisputeStatus = resolved
			count++
		}
	}
	if count == 0 {
		return shared.NewInvalidStateError("No reported items to resolve")
	}
	r.log(actor, logged, comment)

	if len(r.ReportedItems()) > 0 {
		r.Touch()
		return nil
	}
	return r.transition(target)
}

// Receive confirms reception without any dispute
func (r *Request) Receive(actor identity.Actor) error {
	if !r.IsOwnedBy(actor) {
		return shared.NewTransitionPermissionError(notRequester, entityName, r.Status, StatusReceptionConfirmee)
	}
	if r.Status != StatusLivree {
		return shared.NewInvalidTransitionError(entityName, r.Status, StatusReceptionConfirmee)
	}
	now := time.Now()
	r.ReceivedAt = &now
	return r.transition(StatusReceptionConfirmee)
}

// Cancel withdraws a request that has not been decided yet
func (r *Request) Cancel(actor identity.Actor) error {
	if !r.IsOwnedBy(actor) {
		return shared.NewTransitionPermissionError(notRequester, entityName, r.Status, StatusAnnulee)
	}
	return r.transition(StatusAnnulee)
}
