package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stockflow/backend/internal/domain/identity"
	"github.com/stockflow/backend/internal/infrastructure/logger"
	"github.com/stockflow/backend/internal/infrastructure/scheduler"
	"github.com/stockflow/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// DatabasePinger reports whether the database answers
type DatabasePinger interface {
	Ping() error
}

// JobController exposes the background job scheduler
type JobController interface {
	Status() []scheduler.JobState
	Trigger(name string) error
}

// SystemHandler serves health and job administration endpoints
type SystemHandler struct {
	BaseHandler
	db        DatabasePinger
	jobs      JobController
	version   string
	startedAt time.Time
}

// NewSystemHandler creates a new SystemHandler. jobs may be nil when the
// scheduler is not running in this process.
func NewSystemHandler(base BaseHandler, db DatabasePinger, jobs JobController, version string) *SystemHandler {
	return &SystemHandler{
		BaseHandler: base,
		db:          db,
		jobs:        jobs,
		version:     version,
		startedAt:   time.Now(),
	}
}

// HealthResponse is the body of the health endpoint
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Version  string `json:"version,omitempty"`
	Uptime   string `json:"uptime"`
}

// Health reports liveness and database reachability
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:   "ok",
		Database: "ok",
		Version:  h.version,
		Uptime:   time.Since(h.startedAt).Truncate(time.Second).String(),
	}
	status := http.StatusOK
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			logger.L(c.Request.Context()).Warn("Health check failed", zap.Error(err))
			resp.Status = "degraded"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		}
	}
	c.JSON(status, resp)
}

// Jobs lists the scheduled jobs and their last run
func (h *SystemHandler) Jobs(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}
	if h.jobs == nil {
		h.Success(c, []scheduler.JobState{})
		return
	}
	h.Success(c, h.jobs.Status())
}

// TriggerJob starts a job immediately
func (h *SystemHandler) TriggerJob(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}
	if h.jobs == nil {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeInternal, "Scheduler is not running")
		return
	}

	name := c.Param("name")
	err := h.jobs.Trigger(name)
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, dto.NewSuccessResponse(gin.H{"job": name, "triggered": true}))
	case errors.Is(err, scheduler.ErrJobNotFound):
		h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, "Job not found")
	case errors.Is(err, scheduler.ErrJobAlreadyRunning):
		h.Error(c, http.StatusConflict, dto.ErrCodeInvalidState, "Job is already running")
	case errors.Is(err, scheduler.ErrSchedulerNotRunning):
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeInternal, "Scheduler is not running")
	default:
		h.HandleError(c, err)
	}
}

func (h *SystemHandler) requireAdmin(c *gin.Context) bool {
	actor, ok := h.actor(c)
	if !ok {
		return false
	}
	if !actor.HasRole(identity.RoleAdmin) {
		h.Forbidden(c, "Administrator role required")
		return false
	}
	return true
}
