package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appinv "github.com/stockflow/backend/internal/application/inventory"
)

// AuditHandler handles physical inventory audits
type AuditHandler struct {
	BaseHandler
	audits *appinv.AuditService
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(base BaseHandler, audits *appinv.AuditService) *AuditHandler {
	return &AuditHandler{BaseHandler: base, audits: audits}
}

// CreateAuditRequest opens an audit
type CreateAuditRequest struct {
	Note string `json:"note" binding:"max=500"`
}

// CountRequest is one physical count
type CountRequest struct {
	ProductID       string `json:"product_id" binding:"required,uuid"`
	CountedQuantity int    `json:"counted_quantity" binding:"gte=0"`
}

// RecordCountsRequest carries counts for an audit in progress
type RecordCountsRequest struct {
	Counts []CountRequest `json:"counts" binding:"required,min=1,dive"`
}

// Create opens an audit snapshotting every product
func (h *AuditHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req CreateAuditRequest
	if !h.bindJSON(c, &req) {
		return
	}
	audit, err := h.audits.Create(c.Request.Context(), actor, req.Note)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, audit)
}

// RecordCounts stores counted quantities
func (h *AuditHandler) RecordCounts(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req RecordCountsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	counts := make([]appinv.CountInput, 0, len(req.Counts))
	for _, count := range req.Counts {
		counts = append(counts, appinv.CountInput{
			ProductID:       uuid.MustParse(count.ProductID),
			CountedQuantity: count.CountedQuantity,
		})
	}
	audit, err := h.audits.RecordCounts(c.Request.Context(), actor, id, counts)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, audit)
}

// Complete freezes the counts
func (h *AuditHandler) Complete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	audit, err := h.audits.Complete(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, audit)
}

// Reconcile proposes one adjustment per discrepancy
func (h *AuditHandler) Reconcile(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	audit, adjustments, intents, err := h.audits.RequestReconciliation(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.dispatch(c, intents)
	h.Success(c, gin.H{"audit": audit, "adjustments": adjustments})
}

// GetByID returns one audit with its items
func (h *AuditHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	audit, err := h.audits.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, audit)
}

// List returns a page of audits
func (h *AuditHandler) List(c *gin.Context) {
	var q ListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.audits.List(c.Request.Context(), appinv.ListFilter{Page: q.Page, PageSize: q.PageSize, Status: q.Status})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessPage(c, page.Items, page.Total, page.Page, page.PageSize)
}

// DiscrepancyReport returns the counted-versus-system report
func (h *AuditHandler) DiscrepancyReport(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	report, err := h.audits.DiscrepancyReport(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}
