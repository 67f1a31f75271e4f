package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	mediaapp "github.com/uv/backend/internal/application/media"
	"github.com/uv/backend/internal/infrastructure/scheduler"
)

// Sweeper runs an orphan sweep synchronously
type Sweeper interface {
	Sweep(ctx context.Context) (*mediaapp.SweepResult, error)
}

// SweepScheduler is the background runner of the orphan sweep
type SweepScheduler interface {
	TriggerImmediate(ctx context.Context) error
	Status() scheduler.SweepStatus
}

// MediaAdminHandler exposes orphan sweep controls to administrators
type MediaAdminHandler struct {
	BaseHandler
	sweeper   Sweeper
	scheduler SweepScheduler
}

// NewMediaAdminHandler creates a new MediaAdminHandler. sched may be nil when
// scheduled sweeps are disabled; sweeps then run inline.
func NewMediaAdminHandler(sweeper Sweeper, sched SweepScheduler) *MediaAdminHandler {
	return &MediaAdminHandler{sweeper: sweeper, scheduler: sched}
}

// SweepTriggeredResponse is returned when a sweep was started in the background
type SweepTriggeredResponse struct {
	Status string `json:"status"`
}

// TriggerSweep godoc
//
//	@Summary		Run the orphaned media sweep
//	@Description	Starts the sweep on the scheduler (202) or runs it inline when no scheduler is running (200)
//	@Tags			admin
//	@Success		200	{object}	dto.Response
//	@Success		202	{object}	dto.Response
//	@Failure		409	{object}	dto.Response	"Sweep already running"
//	@Security		BearerAuth
//	@Router			/admin/media/sweep [post]
func (h *MediaAdminHandler) TriggerSweep(c *gin.Context) {
	if h.scheduler != nil {
		err := h.scheduler.TriggerImmediate(c.Request.Context())
		switch {
		case err == nil:
			h.Accepted(c, SweepTriggeredResponse{Status: "started"})
			return
		case errors.Is(err, scheduler.ErrSweepInProgress):
			h.Conflict(c, "An orphan sweep is already running")
			return
		case !errors.Is(err, scheduler.ErrSchedulerNotRunning):
			h.HandleError(c, err)
			return
		}
	}

	result, err := h.sweeper.Sweep(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// SweepStatus godoc
//
//	@Summary	Orphan sweep scheduler status
//	@Tags		admin
//	@Security	BearerAuth
//	@Router		/admin/media/sweep [get]
func (h *MediaAdminHandler) SweepStatus(c *gin.Context) {
	if h.scheduler == nil {
		h.Success(c, scheduler.SweepStatus{})
		return
	}
	h.Success(c, h.scheduler.Status())
}
