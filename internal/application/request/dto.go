package request

import (
	"time"

	"github.com/google/uuid"
	"github.com/stockflow/backend/internal/domain/request"
	"github.com/stockflow/backend/internal/domain/shared"
)

// ItemResponse represents a request line in API responses
type ItemResponse struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"product_id"`
	RequestedQty   int       `json:"requested_qty"`
	ApprovedQty    *int      `json:"approved_qty"`
	DisputeReason  string    `json:"dispute_reason,omitempty"`
	DisputeComment string    `json:"dispute_comment,omitempty"`
	DisputeStatus  string    `json:"dispute_status"`
}

// ApprovalResponse represents one entry of the approval log
type ApprovalResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	Decision  string    `json:"decision"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Response represents an issue request in API responses
type Response struct {
	ID            uuid.UUID          `json:"id"`
	Number        string             `json:"number"`
	Status        string             `json:"status"`
	RequesterID   uuid.UUID          `json:"requester_id"`
	Note          string             `json:"note,omitempty"`
	ApprovedByID  *uuid.UUID         `json:"approved_by_id,omitempty"`
	ApprovedAt    *time.Time         `json:"approved_at,omitempty"`
	DeliveredByID *uuid.UUID         `json:"delivered_by_id,omitempty"`
	DeliveredAt   *time.Time         `json:"delivered_at,omitempty"`
	ReceivedAt    *time.Time         `json:"received_at,omitempty"`
	Items         []ItemResponse     `json:"items"`
	Approvals     []ApprovalResponse `json:"approvals"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	Version       int                `json:"version"`
}

// ToResponse converts a domain Request to Response
func ToResponse(r *request.Request) Response {
	items := make([]ItemResponse, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, ItemResponse{
			ID:             item.ID,
			ProductID:      item.ProductID,
			RequestedQty:   item.RequestedQty,
			ApprovedQty:    item.ApprovedQty,
			DisputeReason:  string(item.DisputeReason),
			DisputeComment: item.DisputeComment,
			DisputeStatus:  string(item.DisputeStatus),
		})
	}
	approvals := make([]ApprovalResponse, 0, len(r.Approvals))
	for _, a := range r.Approvals {
		approvals = append(approvals, ApprovalResponse{
			ID:        a.ID,
			UserID:    a.UserID,
			Decision:  string(a.Decision),
			Comment:   a.Comment,
			CreatedAt: a.CreatedAt,
		})
	}
	return Response{
		ID:            r.ID,
		Number:        r.Number,
		Status:        string(r.Status),
		RequesterID:   r.RequesterID,
		Note:          r.Note,
		ApprovedByID:  r.ApprovedByID,
		ApprovedAt:    r.ApprovedAt,
		DeliveredByID: r.DeliveredByID,
		DeliveredAt:   r.DeliveredAt,
		ReceivedAt:    r.ReceivedAt,
		Items:         items,
		Approvals:     approvals,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		Version:       r.Version,
	}
}

// DeliveryNoteLine is one handed-over product
type DeliveryNoteLine struct {
	ProductID    uuid.UUID `json:"product_id"`
	ProductName  string    `json:"product_name"`
	Reference    string    `json:"reference"`
	Unit         string    `json:"unit"`
	RequestedQty int       `json:"requested_qty"`
	DeliveredQty int       `json:"delivered_qty"`
}

// DeliveryNote is the read-only projection handed to document renderers
type DeliveryNote struct {
	RequestID     uuid.UUID          `json:"request_id"`
	Number        string             `json:"number"`
	Status        string             `json:"status"`
	RequesterName string             `json:"requester_name"`
	DelivererName string             `json:"deliverer_name"`
	DeliveredAt   *time.Time         `json:"delivered_at"`
	Lines         []DeliveryNoteLine `json:"lines"`
}

// CreateInput is the input for creating a request
type CreateInput struct {
	Note  string
	Items []request.LineInput
}

// ApproveInput carries per-item approved quantities
type ApproveInput struct {
	Items   map[uuid.UUID]int
	Comment string
}

// ListFilter filters request listings
type ListFilter struct {
	Page        int
	PageSize    int
	Status      string
	RequesterID *uuid.UUID
}

// ToFilter converts the list filter to a repository filter
func (f ListFilter) ToFilter() shared.Filter {
	filter := shared.DefaultFilter()
	filter.Page = f.Page
	filter.PageSize = f.PageSize
	if f.Status != "" {
		filter.Filters["status"] = f.Status
	}
	if f.RequesterID != nil {
		filter.Filters["requester_id"] = *f.RequesterID
	}
	return filter.Normalize()
}
