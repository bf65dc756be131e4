package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apprequest "github.com/stockflow/backend/internal/application/request"
	"github.com/stockflow/backend/internal/domain/request"
)

// RequestHandler handles internal issue requests
type RequestHandler struct {
	BaseHandler
	requests *apprequest.Service
}

// NewRequestHandler creates a new RequestHandler
func NewRequestHandler(base BaseHandler, requests *apprequest.Service) *RequestHandler {
	return &RequestHandler{BaseHandler: base, requests: requests}
}

// RequestLineRequest is one requested product
type RequestLineRequest struct {
	ProductID    string `json:"product_id" binding:"required,uuid"`
	RequestedQty int    `json:"requested_qty" binding:"required,gt=0"`
}

// CreateRequestRequest is the body of POST /requests
type CreateRequestRequest struct {
	Note  string               `json:"note" binding:"max=500"`
	Items []RequestLineRequest `json:"items" binding:"required,min=1,dive"`
}

// ApprovedLineRequest sets the approved quantity of one item
type ApprovedLineRequest struct {
	ItemID      string `json:"item_id" binding:"required,uuid"`
	ApprovedQty int    `json:"approved_qty" binding:"gte=0"`
}

// ApproveRequestRequest carries the approved quantities
type ApproveRequestRequest struct {
	Items   []ApprovedLineRequest `json:"items" binding:"required,min=1,dive"`
	Comment string                `json:"comment" binding:"max=500"`
}

// CommentRequest carries an optional free-text comment
type CommentRequest struct {
	Comment string `json:"comment" binding:"max=500"`
}

// IssueLineRequest flags one delivered item
type IssueLineRequest struct {
	ItemID  string `json:"item_id" binding:"required,uuid"`
	Reason  string `json:"reason" binding:"required,oneof=QUANTITE_INCORRECTE ARTICLE_ENDOMMAGE MAUVAIS_ARTICLE AUTRE"`
	Comment string `json:"comment" binding:"max=500"`
}

// ReportIssueRequest lists the disputed items
type ReportIssueRequest struct {
	Issues []IssueLineRequest `json:"issues" binding:"required,min=1,dive"`
}

// ResolveDisputeRequest carries the dispute verdict
type ResolveDisputeRequest struct {
	Decision string `json:"decision" binding:"required,oneof=RESOLVE_APPROVE RESOLVE_REJECT"`
	Comment  string `json:"comment" binding:"max=500"`
}

// RequestListQuery adds the requester filter to the common list query
type RequestListQuery struct {
	ListQuery
	RequesterID string `form:"requester_id" binding:"omitempty,uuid"`
}

// Create submits a new request
func (h *RequestHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req CreateRequestRequest
	if !h.bindJSON(c, &req) {
		return
	}

	lines := make([]request.LineInput, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, request.LineInput{
			ProductID:    uuid.MustParse(item.ProductID),
			RequestedQty: item.RequestedQty,
		})
	}
	resp, intents, err := h.requests.Create(c.Request.Context(), actor, apprequest.CreateInput{Note: req.Note, Items: lines})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.dispatch(c, intents)
	h.Created(c, resp)
}

// Approve approves a request with per-item quantities
func (h *RequestHandler) Approve(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req ApproveRequestRequest
	if !h.bindJSON(c, &req) {
		return
	}

	approved := make(map[uuid.UUID]int, len(req.Items))
	for _, item := range req.Items {
		approved[uuid.MustParse(item.ItemID)] = item.ApprovedQty
	}
	resp, intents, err := h.requests.Approve(c.Request.Context(), actor, id, apprequest.ApproveInput{
		Items:   approved,
		Comment: req.Comment,
	})
	h.commit(c, resp, intents, err)
}

// Reject rejects a request
func (h *RequestHandler) Reject(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req CommentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, intents, err := h.requests.Reject(c.Request.Context(), actor, id, req.Comment)
	h.commit(c, resp, intents, err)
}

// Deliver hands the approved quantities over
func (h *RequestHandler) Deliver(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	resp, intents, err := h.requests.Deliver(c.Request.Context(), actor, id)
	h.commit(c, resp, intents, err)
}

// ReportIssue disputes delivered items
func (h *RequestHandler) ReportIssue(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req ReportIssueRequest
	if !h.bindJSON(c, &req) {
		return
	}

	reports := make([]request.IssueReport, 0, len(req.Issues))
	for _, issue := range req.Issues {
		reports = append(reports, request.IssueReport{
			ItemID:  uuid.MustParse(issue.ItemID),
			Reason:  request.DisputeReason(issue.Reason),
			Comment: issue.Comment,
		})
	}
	resp, intents, err := h.requests.ReportIssue(c.Request.Context(), actor, id, reports)
	h.commit(c, resp, intents, err)
}

// ResolveDispute settles an open dispute
func (h *RequestHandler) ResolveDispute(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req ResolveDisputeRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, intents, err := h.requests.ResolveDispute(c.Request.Context(), actor, id,
		request.DisputeDecision(req.Decision), req.Comment)
	h.commit(c, resp, intents, err)
}

// Receive confirms reception by the requester
func (h *RequestHandler) Receive(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	resp, intents, err := h.requests.Receive(c.Request.Context(), actor, id)
	h.commit(c, resp, intents, err)
}

// Cancel withdraws a request
func (h *RequestHandler) Cancel(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	resp, intents, err := h.requests.Cancel(c.Request.Context(), actor, id)
	h.commit(c, resp, intents, err)
}

// GetByID returns one request visible to the actor
func (h *RequestHandler) GetByID(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	resp, err := h.requests.GetByID(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List returns a page of requests visible to the actor
func (h *RequestHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var q RequestListQuery
	if !h.bindQuery(c, &q) {
		return
	}

	filter := apprequest.ListFilter{Page: q.Page, PageSize: q.PageSize, Status: q.Status}
	if q.RequesterID != "" {
		requesterID := uuid.MustParse(q.RequesterID)
		filter.RequesterID = &requesterID
	}
	page, err := h.requests.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessPage(c, page.Items, page.Total, page.Page, page.PageSize)
}

// DeliveryNote returns the printable delivery note
func (h *RequestHandler) DeliveryNote(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	note, err := h.requests.DeliveryNote(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, note)
}
