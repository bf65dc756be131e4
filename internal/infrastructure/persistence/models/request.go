package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/stockflow/backend/internal/domain/request"
)

// RequestModel is the persistence model for the issue Request aggregate root.
type RequestModel struct {
	AggregateModel
	Number        string     `gorm:"type:varchar(30);not null;uniqueIndex"`
	Status        string     `gorm:"type:varchar(30);not null;index"`
	RequesterID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	Note          string     `gorm:"type:text"`
	ApprovedByID  *uuid.UUID `gorm:"type:uuid"`
	ApprovedAt    *time.Time
	DeliveredByID *uuid.UUID `gorm:"type:uuid"`
	DeliveredAt   *time.Time
	ReceivedAt    *time.Time
	Items         []RequestItemModel     `gorm:"foreignKey:RequestID;references:ID"`
	Approvals     []RequestApprovalModel `gorm:"foreignKey:RequestID;references:ID"`
}

// TableName returns the table name for GORM
func (RequestModel) TableName() string {
	return "issue_requests"
}

// ToDomain converts the persistence model to a domain Request.
func (m *RequestModel) ToDomain() *request.Request {
	r := &request.Request{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Number:            m.Number,
		Status:            request.Status(m.Status),
		RequesterID:       m.RequesterID,
		Note:              m.Note,
		ApprovedByID:      m.ApprovedByID,
		ApprovedAt:        m.ApprovedAt,
		DeliveredByID:     m.DeliveredByID,
		DeliveredAt:       m.DeliveredAt,
		ReceivedAt:        m.ReceivedAt,
		Items:             make([]request.Item, len(m.Items)),
		Approvals:         make([]request.Approval, len(m.Approvals)),
	}
	for i, item := range m.Items {
		r.Items[i] = item.ToDomain()
	}
	for i, a := range m.Approvals {
		r.Approvals[i] = a.ToDomain()
	}
	return r
}

// RequestModelFromDomain creates a new persistence model from a domain Request.
func RequestModelFromDomain(r *request.Request) *RequestModel {
	m := &RequestModel{
		Number:        r.Number,
		Status:        string(r.Status),
		RequesterID:   r.RequesterID,
		Note:          r.Note,
		ApprovedByID:  r.ApprovedByID,
		ApprovedAt:    r.ApprovedAt,
		DeliveredByID: r.DeliveredByID,
		DeliveredAt:   r.DeliveredAt,
		ReceivedAt:    r.ReceivedAt,
		Items:         make([]RequestItemModel, len(r.Items)),
		Approvals:     make([]RequestApprovalModel, len(r.Approvals)),
	}
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	for i := range r.Items {
		m.Items[i] = RequestItemModelFromDomain(&r.Items[i])
	}
	for i := range r.Approvals {
		m.Approvals[i] = RequestApprovalModelFromDomain(&r.Approvals[i])
	}
	return m
}

// RequestItemModel is one requested product line.
type RequestItemModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key"`
	RequestID      uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Position       int       `gorm:"not null"`
	RequestedQty   int       `gorm:"not null"`
	ApprovedQty    *int
	DisputeReason  string `gorm:"type:varchar(30)"`
	DisputeComment string `gorm:"type:text"`
	DisputeStatus  string `gorm:"type:varchar(30);not null;default:'NONE'"`
}

// TableName returns the table name for GORM
func (RequestItemModel) TableName() string {
	return "issue_request_items"
}

// ToDomain converts the persistence model to a domain Item.
func (m *RequestItemModel) ToDomain() request.Item {
	return request.Item{
		ID:             m.ID,
		RequestID:      m.RequestID,
		ProductID:      m.ProductID,
		Position:       m.Position,
		RequestedQty:   m.RequestedQty,
		ApprovedQty:    m.ApprovedQty,
		DisputeReason:  request.DisputeReason(m.DisputeReason),
		DisputeComment: m.DisputeComment,
		DisputeStatus:  request.DisputeStatus(m.DisputeStatus),
	}
}

// RequestItemModelFromDomain creates a new persistence model from a domain Item.
func RequestItemModelFromDomain(i *request.Item) RequestItemModel {
	return RequestItemModel{
		ID:             i.ID,
		RequestID:      i.RequestID,
		ProductID:      i.ProductID,
		Position:       i.Position,
		RequestedQty:   i.RequestedQty,
		ApprovedQty:    i.ApprovedQty,
		DisputeReason:  string(i.DisputeReason),
		DisputeComment: i.DisputeComment,
		DisputeStatus:  string(i.DisputeStatus),
	}
}

// RequestApprovalModel is one entry of the request decision log. Rows are append-only.
type RequestApprovalModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	RequestID uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID `gorm:"type:uuid;not null"`
	Decision  string    `gorm:"type:varchar(30);not null"`
	Comment   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (RequestApprovalModel) TableName() string {
	return "issue_request_approvals"
}

// ToDomain converts the persistence model to a domain Approval.
func (m *RequestApprovalModel) ToDomain() request.Approval {
	return request.Approval{
		ID:        m.ID,
		RequestID: m.RequestID,
		UserID:    m.UserID,
		Decision:  request.ApprovalDecision(m.Decision),
		Comment:   m.Comment,
		CreatedAt: m.CreatedAt,
	}
}

// RequestApprovalModelFromDomain creates a new persistence model from a domain Approval.
func RequestApprovalModelFromDomain(a *request.Approval) RequestApprovalModel {
	return RequestApprovalModel{
		ID:        a.ID,
		RequestID: a.RequestID,
		UserID:    a.UserID,
		Decision:  string(a.Decision),
		Comment:   a.Comment,
		CreatedAt: a.CreatedAt,
	}
}
