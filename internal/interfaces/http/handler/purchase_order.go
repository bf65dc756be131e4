package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	apptrade "github.com/stockflow/backend/internal/application/trade"
	"github.com/stockflow/backend/internal/domain/trade"
)

// PurchaseOrderHandler handles supplier purchase orders
type PurchaseOrderHandler struct {
	BaseHandler
	orders *apptrade.PurchaseOrderService
}

// NewPurchaseOrderHandler creates a new PurchaseOrderHandler
func NewPurchaseOrderHandler(base BaseHandler, orders *apptrade.PurchaseOrderService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{BaseHandler: base, orders: orders}
}

// PurchaseOrderLineRequest is one ordered product
type PurchaseOrderLineRequest struct {
	ProductID string          `json:"product_id" binding:"required,uuid"`
	Quantity  int             `json:"quantity" binding:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// PurchaseOrderRequest is the body of create and edit
type PurchaseOrderRequest struct {
	Supplier string                     `json:"supplier" binding:"required,max=200"`
	Note     string                     `json:"note" binding:"max=500"`
	Items    []PurchaseOrderLineRequest `json:"items" binding:"required,min=1,dive"`
}

func (r PurchaseOrderRequest) toInput() apptrade.PurchaseOrderInput {
	lines := make([]trade.LineInput, 0, len(r.Items))
	for _, item := range r.Items {
		lines = append(lines, trade.LineInput{
			ProductID: uuid.MustParse(item.ProductID),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return apptrade.PurchaseOrderInput{Supplier: r.Supplier, Note: r.Note, Items: lines}
}

// Create drafts a purchase order
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req PurchaseOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	order, intents, err := h.orders.Create(c.Request.Context(), actor, req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.dispatch(c, intents)
	h.Created(c, order)
}

// Edit replaces the header and lines of a draft
func (h *PurchaseOrderHandler) Edit(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	var req PurchaseOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	order, err := h.orders.Edit(c.Request.Context(), actor, id, req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Delete removes a draft
func (h *PurchaseOrderHandler) Delete(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	if err := h.orders.Delete(c.Request.Context(), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Submit sends a draft for approval
func (h *PurchaseOrderHandler) Submit(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	order, intents, err := h.orders.Submit(c.Request.Context(), actor, id)
	h.commit(c, order, intents, err)
}

// Approve approves a submitted order
func (h *PurchaseOrderHandler) Approve(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	var req CommentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	order, intents, err := h.orders.Approve(c.Request.Context(), actor, id, apptrade.DecisionInput{Comment: req.Comment})
	h.commit(c, order, intents, err)
}

// SendBack returns a submitted order to draft
func (h *PurchaseOrderHandler) SendBack(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	var req CommentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	order, intents, err := h.orders.SendBack(c.Request.Context(), actor, id, apptrade.DecisionInput{Comment: req.Comment})
	h.commit(c, order, intents, err)
}

// MarkOrdered records that the order went to the supplier
func (h *PurchaseOrderHandler) MarkOrdered(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	order, intents, err := h.orders.MarkOrdered(c.Request.Context(), actor, id)
	h.commit(c, order, intents, err)
}

// Close receives the goods and books them into stock
func (h *PurchaseOrderHandler) Close(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	order, intents, err := h.orders.Close(c.Request.Context(), actor, id)
	h.commit(c, order, intents, err)
}

// Cancel abandons an order
func (h *PurchaseOrderHandler) Cancel(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	order, intents, err := h.orders.Cancel(c.Request.Context(), actor, id)
	h.commit(c, order, intents, err)
}

// AutoGenerate drafts orders for every product below its minimum
func (h *PurchaseOrderHandler) AutoGenerate(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	result, intents, err := h.orders.AutoGenerate(c.Request.Context(), actor)
	h.commit(c, result, intents, err)
}

// GetByID returns one order
func (h *PurchaseOrderHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	order, err := h.orders.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// List returns a page of orders
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	var q ListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.orders.List(c.Request.Context(), apptrade.ListFilter{Page: q.Page, PageSize: q.PageSize, Status: q.Status})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessPage(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Print returns the printable projection of an order
func (h *PurchaseOrderHandler) Print(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	doc, err := h.orders.Print(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}
