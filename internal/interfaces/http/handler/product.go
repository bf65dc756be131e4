package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	appinv "github.com/stockflow/backend/internal/application/inventory"
)

// ProductHandler handles product and ledger endpoints
type ProductHandler struct {
	BaseHandler
	products *appinv.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(base BaseHandler, products *appinv.ProductService) *ProductHandler {
	return &ProductHandler{BaseHandler: base, products: products}
}

// CreateProductRequest is the body of POST /products
type CreateProductRequest struct {
	Name            string          `json:"name" binding:"required,max=200"`
	Reference       string          `json:"reference" binding:"required,max=50"`
	Unit            string          `json:"unit" binding:"omitempty,max=20"`
	MinStock        int             `json:"min_stock" binding:"gte=0"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	InitialQuantity int             `json:"initial_quantity" binding:"gte=0"`
}

// UpdateProductRequest is the body of PUT /products/:id
type UpdateProductRequest struct {
	Name     string          `json:"name" binding:"required,max=200"`
	Unit     string          `json:"unit" binding:"omitempty,max=20"`
	MinStock int             `json:"min_stock" binding:"gte=0"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

// Create registers a product and books its opening stock
func (h *ProductHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req CreateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}

	product, intents, err := h.products.Create(c.Request.Context(), actor, appinv.CreateProductInput{
		Name:            req.Name,
		Reference:       req.Reference,
		Unit:            req.Unit,
		MinStock:        req.MinStock,
		UnitCost:        req.UnitCost,
		InitialQuantity: req.InitialQuantity,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.dispatch(c, intents)
	h.Created(c, product)
}

// Update changes a product's descriptive fields
func (h *ProductHandler) Update(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req UpdateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}

	product, err := h.products.Update(c.Request.Context(), actor, id, appinv.UpdateProductInput{
		Name:     req.Name,
		Unit:     req.Unit,
		MinStock: req.MinStock,
		UnitCost: req.UnitCost,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// GetByID returns one product
func (h *ProductHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	product, err := h.products.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// List returns a page of products
func (h *ProductHandler) List(c *gin.Context) {
	var q ListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.products.List(c.Request.Context(), appinv.ListFilter{Page: q.Page, PageSize: q.PageSize})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessPage(c, page.Items, page.Total, page.Page, page.PageSize)
}

// ListBelowMinStock returns the products under their minimum stock
func (h *ProductHandler) ListBelowMinStock(c *gin.Context) {
	products, err := h.products.ListBelowMinStock(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, products)
}

// Ledger returns a page of a product's stock movements, newest first
func (h *ProductHandler) Ledger(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var q ListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.products.LedgerHistory(c.Request.Context(), id, appinv.ListFilter{Page: q.Page, PageSize: q.PageSize})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessPage(c, page.Items, page.Total, page.Page, page.PageSize)
}

// VerifyLedger recomputes every product's quantity from its movements
func (h *ProductHandler) VerifyLedger(c *gin.Context) {
	result, err := h.products.VerifyLedger(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
