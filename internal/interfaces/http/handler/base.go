package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stockflow/backend/internal/domain/identity"
	"github.com/stockflow/backend/internal/domain/notification"
	"github.com/stockflow/backend/internal/domain/shared"
	"github.com/stockflow/backend/internal/infrastructure/logger"
	"github.com/stockflow/backend/internal/interfaces/http/dto"
	"github.com/stockflow/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// IntentDispatcher delivers notification intents after a workflow commits
type IntentDispatcher interface {
	Dispatch(ctx context.Context, intents notification.List)
}

// BaseHandler provides common handler utilities
type BaseHandler struct {
	dispatcher IntentDispatcher
}

// NewBaseHandler creates a BaseHandler dispatching through dispatcher
func NewBaseHandler(dispatcher IntentDispatcher) BaseHandler {
	return BaseHandler{dispatcher: dispatcher}
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessPage sends a page of results with pagination meta
func (h *BaseHandler) SuccessPage(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// Forbidden sends a 403 forbidden response
func (h *BaseHandler) Forbidden(c *gin.Context, message string) {
	h.Error(c, http.StatusForbidden, dto.ErrCodeForbidden, message)
}

// HandleError converts an application error to an HTTP response. A refused
// no-op adjustment is not a failure and answers 200.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, shared.ErrNoOp) {
		var domainErr *shared.DomainError
		errors.As(err, &domainErr)
		h.Success(c, gin.H{"adjusted": false, "message": domainErr.Message})
		return
	}

	code, status, message := dto.ClassifyError(err)
	if status >= http.StatusInternalServerError {
		logger.L(c.Request.Context()).Error("Request failed", zap.Error(err))
	}
	h.Error(c, status, code, message)
}

// dispatch hands committed intents to the dispatcher. Delivery outlives the
// request cancellation but keeps its trace.
func (h *BaseHandler) dispatch(c *gin.Context, intents notification.List) {
	if h.dispatcher == nil || len(intents) == 0 {
		return
	}
	h.dispatcher.Dispatch(context.WithoutCancel(c.Request.Context()), intents)
}

// commit answers a workflow mutation: errors are mapped, otherwise the
// intents are dispatched and resp is returned with 200
func (h *BaseHandler) commit(c *gin.Context, resp any, intents notification.List, err error) {
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.dispatch(c, intents)
	h.Success(c, resp)
}

// actor returns the authenticated actor or answers 401
func (h *BaseHandler) actor(c *gin.Context) (identity.Actor, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
		return identity.Actor{}, false
	}
	return actor, true
}

// pathID parses the :id path parameter or answers 400
func (h *BaseHandler) pathID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid ID format")
		return uuid.Nil, false
	}
	return uuid.MustParse(req.ID), true
}

// actorAndID combines actor and pathID
func (h *BaseHandler) actorAndID(c *gin.Context) (identity.Actor, uuid.UUID, bool) {
	actor, ok := h.actor(c)
	if !ok {
		return identity.Actor{}, uuid.Nil, false
	}
	id, ok := h.pathID(c)
	if !ok {
		return identity.Actor{}, uuid.Nil, false
	}
	return actor, id, true
}

// bindJSON binds and validates the body or answers 400
func (h *BaseHandler) bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// bindQuery binds and validates the query string or answers 400
func (h *BaseHandler) bindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// ListQuery holds the common list query parameters
type ListQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Status   string `form:"status" binding:"omitempty,max=40"`
}
