package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/habitup/habitup-engine/internal/core/domain"
	"github.com/habitup/habitup-engine/internal/core/flow"
)

// TaskHandler serves the four MAIN tabs and their single mutation entry
// points. Unsubscribed sessions still get data; responses carry the
// subscription flag so clients render their own degraded mode.
type TaskHandler struct{}

func NewTaskHandler() *TaskHandler {
	return &TaskHandler{}
}

type ritualRequest struct {
	ID     string `json:"id"`
	Action string `json:"action" binding:"required"`
	Place  string `json:"place" binding:"required"`
	Time   string `json:"time" binding:"required"`
}

type brainDumpRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *TaskHandler) RegisterRoutes(router *gin.RouterGroup) {
	tabs := router.Group("/tabs")
	{
		tabs.GET("/today", h.Today)
		tabs.GET("/plan", h.Plan)
		tabs.GET("/insights", h.Insights)
	}

	router.POST("/tasks/:id/toggle", h.Toggle)
	router.POST("/braindump", h.BrainDump)

	rituals := router.Group("/rituals")
	{
		rituals.POST("", h.SaveRitual)
		rituals.GET("/:id/editor", h.EditorFields)
		rituals.DELETE("/:id", h.DeleteRitual)
	}
}

func taskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotInMain):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
	case errors.Is(err, domain.ErrRitualFieldsMissing):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, flow.ErrStaleResult):
		c.JSON(http.StatusConflict, gin.H{"error": "session moved on, result discarded"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func (h *TaskHandler) Today(c *gin.Context) {
	ctrl, ok := controllerOrAbort(c)
	if !ok {
		return
	}

	snap := ctrl.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"rituals":       domain.Rituals(snap.Profile.Tasks),
		"objectives":    domain.Objectives(snap.Profile.Tasks),
		"is_subscribed": snap.Profile.IsSubscribed,
	})
}

func (h *TaskHandler) Plan(c *gin.Context) {
	ctrl, ok := controllerOrAbort(c)
	if !ok {
		return
	}

	snap := ctrl.Snapshot()
	buckets := domain.PlanBuckets(snap.Profile.Tasks)
	c.JSON(http.StatusOK, gin.H{
		"morning":       buckets[domain.Morning],
		"afternoon":     buckets[domain.Afternoon],
		"evening":       buckets[domain.Evening],
		"is_subscribed": snap.Profile.IsSubscribed,
	})
}

func (h *TaskHandler) Insights(c *gin.Context) {
	ctrl, ok := controllerOrAbort(c)
	if !ok {
		return
	}

	rate, summary, err := ctrl.WeeklyInsights(c.Request.Context())
	if err != nil {
		taskError(c, err)
		return
	}

	snap := ctrl.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"completion_rate": rate,
		"summary":         summary,
		"is_subscribed":   snap.Profile.IsSubscribed,
	})
}

func (h *TaskHandler) Toggle(c *gin.Context) {
	ctrl, ok := controllerOrAbort(c)
	if !ok {
		return
	}

	if err := ctrl.ToggleTask(c.Param("id")); err != nil {
		taskError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *TaskHandler) SaveRitual(c *gin.Context) {
	var req ritualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctrl, ok := controllerOrAbort(c)
	if !ok {
		return
	}

	task, err := ctrl.SaveRitual(req.ID, req.Action, req.Place, req.Time)
	if err != nil {
		taskError(c, err)
		return
	}

	status := http.StatusOK
	if req.ID == "" {
		status = http.StatusCreated
	}
	c.JSON(status, task)
}

// EditorFields returns the action/place/time triple the modal pre-fills,
// including the legacy formula reverse parse for old tasks.
func (h *TaskHandler) EditorFields(c *gin.Context) {
	ctrl, ok := controllerOrAbort(c)
	if !ok {
		return
	}

	id := c.Param("id")
	snap := ctrl.Snapshot()
	for _, t := range snap.Profile.Tasks {
		if t.ID == id && t.IsHabit {
			action, place, timeSlot := t.EditorFields()
			c.JSON(http.StatusOK, gin.H{
				"action": action,
				"place":  place,
				"time":   timeSlot,
			})
			return
		}
	}

	c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
}

func (h *TaskHandler) DeleteRitual(c *gin.Context) {
	ctrl, ok := controllerOrAbort(c)
	if !ok {
		return
	}

	if err := ctrl.DeleteRitual(c.Param("id")); err != nil {
		taskError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TaskHandler) BrainDump(c *gin.Context) {
	var req brainDumpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctrl, ok := controllerOrAbort(c)
	if !ok {
		return
	}

	added, err := ctrl.BrainDump(c.Request.Context(), req.Text)
	if err != nil {
		taskError(c, err)
		return
	}

	// Zero extracted tasks is a normal outcome, not an error.
	c.JSON(http.StatusOK, gin.H{"added": added})
}
