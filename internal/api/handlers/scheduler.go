package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/slipstream/releasedecider/internal/scheduler"
)

// SchedulerHandler handles scheduler-related API requests.
type SchedulerHandler struct {
	scheduler *scheduler.Scheduler
}

// NewSchedulerHandler creates a new scheduler handler.
func NewSchedulerHandler(sched *scheduler.Scheduler) *SchedulerHandler {
	return &SchedulerHandler{
		scheduler: sched,
	}
}

// RegisterRoutes registers task routes on the given group.
func (h *SchedulerHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.ListTasks)
	g.GET("/:id", h.GetTask)
	g.POST("/:id/run", h.RunTask)
}

// ListTasks returns all scheduled tasks.
// GET /api/v1/system/tasks
func (h *SchedulerHandler) ListTasks(c echo.Context) error {
	return c.JSON(http.StatusOK, h.scheduler.ListTasks())
}

// GetTask returns information about a specific task.
// GET /api/v1/system/tasks/:id
func (h *SchedulerHandler) GetTask(c echo.Context) error {
	task, err := h.scheduler.GetTask(c.Param("id"))
	if err != nil {
		return c.JSON(statusFor(err), map[string]string{
			"error": err.Error(),
		})
	}
	return c.JSON(http.StatusOK, task)
}

// RunTask manually triggers a task to run.
// POST /api/v1/system/tasks/:id/run
func (h *SchedulerHandler) RunTask(c echo.Context) error {
	taskID := c.Param("id")
	if err := h.scheduler.RunNow(taskID); err != nil {
		return c.JSON(statusFor(err), map[string]string{
			"error": err.Error(),
		})
	}
	return c.JSON(http.StatusAccepted, map[string]string{
		"message": "Task started",
		"taskId":  taskID,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, scheduler.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, scheduler.ErrTaskRunning):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
