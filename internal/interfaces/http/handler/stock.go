package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appinv "github.com/stockflow/backend/internal/application/inventory"
	"github.com/stockflow/backend/internal/domain/inventory"
)

// StockHandler handles adjustments and supplier receipts
type StockHandler struct {
	BaseHandler
	adjustments *appinv.AdjustmentService
	receipts    *appinv.ReceiptService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(base BaseHandler, adjustments *appinv.AdjustmentService, receipts *appinv.ReceiptService) *StockHandler {
	return &StockHandler{BaseHandler: base, adjustments: adjustments, receipts: receipts}
}

// DirectAdjustRequest sets a product to a counted quantity
type DirectAdjustRequest struct {
	ProductID      string `json:"product_id" binding:"required,uuid"`
	TargetQuantity int    `json:"target_quantity" binding:"gte=0"`
	Reason         string `json:"reason" binding:"required,max=500"`
}

// DeltaAdjustRequest proposes a signed change awaiting approval
type DeltaAdjustRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Direction string `json:"direction" binding:"required,oneof=IN OUT"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	Reason    string `json:"reason" binding:"required,max=500"`
}

// DecisionRequest carries an approver's verdict
type DecisionRequest struct {
	Decision string `json:"decision" binding:"required,oneof=APPROVE REJECT"`
	Comment  string `json:"comment" binding:"max=500"`
}

func (r DecisionRequest) toInput() appinv.DecisionInput {
	return appinv.DecisionInput{Decision: inventory.Decision(r.Decision), Comment: r.Comment}
}

// ReceiptLineRequest is one incoming supplier line
type ReceiptLineRequest struct {
	ProductID    string `json:"product_id" binding:"required,uuid"`
	Quantity     int    `json:"quantity" binding:"required,gt=0"`
	SupplierName string `json:"supplier_name" binding:"max=200"`
	BatchNumber  string `json:"batch_number" binding:"max=100"`
}

// CreateReceiptsRequest records one or more receipts at once
type CreateReceiptsRequest struct {
	Items []ReceiptLineRequest `json:"items" binding:"required,min=1,dive"`
}

// DirectAdjust corrects a product's quantity immediately
func (h *StockHandler) DirectAdjust(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req DirectAdjustRequest
	if !h.bindJSON(c, &req) {
		return
	}

	adjustment, intents, err := h.adjustments.DirectAdjust(c.Request.Context(), actor, appinv.DirectAdjustInput{
		ProductID:      uuid.MustParse(req.ProductID),
		TargetQuantity: req.TargetQuantity,
		Reason:         req.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.dispatch(c, intents)
	h.Success(c, gin.H{"adjusted": true, "adjustment": adjustment})
}

// ProposeAdjustment records a pending adjustment
func (h *StockHandler) ProposeAdjustment(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req DeltaAdjustRequest
	if !h.bindJSON(c, &req) {
		return
	}

	adjustment, intents, err := h.adjustments.AdjustByDelta(c.Request.Context(), actor, appinv.DeltaAdjustInput{
		ProductID: uuid.MustParse(req.ProductID),
		Direction: inventory.Direction(req.Direction),
		Quantity:  req.Quantity,
		Reason:    req.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.dispatch(c, intents)
	h.Created(c, adjustment)
}

// DecideAdjustment approves or rejects a pending adjustment
func (h *StockHandler) DecideAdjustment(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req DecisionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	adjustment, intents, err := h.adjustments.Decide(c.Request.Context(), actor, id, req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.dispatch(c, intents)
	h.Success(c, adjustment)
}

// GetAdjustment returns one adjustment
func (h *StockHandler) GetAdjustment(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	adjustment, err := h.adjustments.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, adjustment)
}

// ListAdjustments returns a page of adjustments
func (h *StockHandler) ListAdjustments(c *gin.Context) {
	var q ListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.adjustments.List(c.Request.Context(), appinv.ListFilter{Page: q.Page, PageSize: q.PageSize, Status: q.Status})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessPage(c, page.Items, page.Total, page.Page, page.PageSize)
}

// CreateReceipts records supplier receipts awaiting approval
func (h *StockHandler) CreateReceipts(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req CreateReceiptsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	inputs := make([]appinv.ReceiptInput, 0, len(req.Items))
	for _, item := range req.Items {
		inputs = append(inputs, appinv.ReceiptInput{
			ProductID:    uuid.MustParse(item.ProductID),
			Quantity:     item.Quantity,
			SupplierName: item.SupplierName,
			BatchNumber:  item.BatchNumber,
		})
	}
	receipts, intents, err := h.receipts.CreateBatch(c.Request.Context(), actor, inputs)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.dispatch(c, intents)
	h.Created(c, receipts)
}

// DecideReceipt approves or rejects a pending receipt
func (h *StockHandler) DecideReceipt(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req DecisionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	receipt, intents, err := h.receipts.Decide(c.Request.Context(), actor, id, req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.dispatch(c, intents)
	h.Success(c, receipt)
}

// GetReceipt returns one receipt
func (h *StockHandler) GetReceipt(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	receipt, err := h.receipts.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, receipt)
}

// ListReceipts returns a page of receipts
func (h *StockHandler) ListReceipts(c *gin.Context) {
	var q ListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.receipts.List(c.Request.Context(), appinv.ListFilter{Page: q.Page, PageSize: q.PageSize, Status: q.Status})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessPage(c, page.Items, page.Total, page.Page, page.PageSize)
}
