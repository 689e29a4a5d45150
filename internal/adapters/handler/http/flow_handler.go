package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/habitup/habitup-engine/internal/adapters/handler/http/middleware"
	"github.com/habitup/habitup-engine/internal/core/domain"
	"github.com/habitup/habitup-engine/internal/core/flow"
)

type FlowHandler struct {
	registry *flow.Registry
}

func NewFlowHandler(registry *flow.Registry) *FlowHandler {
	return &FlowHandler{
		registry: registry,
	}
}

type answerRequest struct {
	QuestionID string   `json:"question_id" binding:"required"`
	Selected   []string `json:"selected"`
}

type onboardingRequest struct {
	Answers domain.OnboardingAnswers `json:"answers" binding:"required"`
}

type tabRequest struct {
	Tab domain.Tab `json:"tab" binding:"required"`
}

// RegisterSessionRoute creates sessions; the only route outside the session
// middleware.
func (h *FlowHandler) RegisterSessionRoute(router *gin.RouterGroup) {
	router.POST("/sessions", func(c *gin.Context) {
		id := uuid.NewString()
		ctrl := h.registry.Create(id)
		c.JSON(http.StatusCreated, gin.H{
			"session_id": id,
			"snapshot":   ctrl.Snapshot(),
		})
	})
}

func (h *FlowHandler) RegisterRoutes(router *gin.RouterGroup) {
	flowGroup := router.Group("/flow")
	{
		flowGroup.GET("", h.Snapshot)
		flowGroup.GET("/questionnaire", h.Questionnaire)
		flowGroup.POST("/start", h.Start)
		flowGroup.POST("/onboarding/answers", h.ValidateAnswer)
		flowGroup.POST("/onboarding", h.CompleteOnboarding)
		flowGroup.POST("/why-different/ack", h.AcknowledgeWhyDifferent)
		flowGroup.POST("/solution/reveal", h.BeginDiagnosis)
		flowGroup.POST("/diagnosis/run", h.RunDiagnosis)
		flowGroup.POST("/diagnosis/confirm", h.ConfirmDiagnosis)
		flowGroup.POST("/subscribe", h.Subscribe)
		flowGroup.POST("/tab", h.SetTab)
	}
}

func controllerOrAbort(c *gin.Context) (*flow.Controller, bool) {
	ctrl, ok := middleware.GetController(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session context missing"})
		return nil, false
	}
	return ctrl, true
}

func respondTransition(c *gin.Context, ctrl *flow.Controller, err error) {
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) || errors.Is(err, domain.ErrNotInMain) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

func (h *FlowHandler) Snapshot(c *gin.Context) {
	ctrl, ok := controllerOrAbort(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

func (h *FlowHandler) Questionnaire(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"questions": domain.Questionnaire()})
}

func (h *FlowHandler) Start(c *gin.Context) {
	ctrl, ok := controllerOrAbort(c)
	if !ok {
		return
	}
	respondTransition(c, ctrl, ctrl.Start())
}

// ValidateAnswer enforces the per-question minimum-selection rule. Single
// select questions always pass; multi-select with nothing picked is the one
// rejected case.
func (h *FlowHandler) ValidateAnswer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	for _, q := range domain.Questionnaire() {
		if q.ID != req.QuestionID {
			continue
		}
		if err := q.ValidateSelections(req.Selected); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"valid": true})
		return
	}

	c.JSON(http.StatusNotFound, gin.H{"error": "unknown question"})
}

func (h *FlowHandler) CompleteOnboarding(c *gin.Context) {
	var req onboardingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctrl, ok := controllerOrAbort(c)
	if !ok {
		return
	}
	respondTransition(c, ctrl, ctrl.CompleteOnboarding(req.Answers))
}

func (h *FlowHandler) AcknowledgeWhyDifferent(c *gin.Context) {
	ctrl, ok := controllerOrAbort(c)
	if !ok {
		return
	}
	respondTransition(c, ctrl, ctrl.AcknowledgeWhyDifferent())
}

func (h *FlowHandler) BeginDiagnosis(c *gin.Context) {
	ctrl, ok := controllerOrAbort(c)
	if !ok {
		return
	}
	respondTransition(c, ctrl, ctrl.BeginDiagnosis())
}

// RunDiagnosis blocks on the generator. Failure is terminal for the screen:
// the client's only affordance is a full restart.
func (h *FlowHandler) RunDiagnosis(c *gin.Context) {
	ctrl, ok := controllerOrAbort(c)
	if !ok {
		return
	}

	diagnosis, err := ctrl.RunDiagnosis(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOnboardingRequired):
			c.JSON(http.StatusConflict, gin.H{
				"error":   "onboarding answers are missing",
				"restart": true,
			})
		case errors.Is(err, domain.ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, flow.ErrStaleResult):
			c.JSON(http.StatusConflict, gin.H{"error": "session moved on, result discarded"})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusBadGateway, gin.H{
				"error":   "could not build your plan",
				"restart": true,
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"diagnosis": diagnosis})
}

func (h *FlowHandler) ConfirmDiagnosis(c *gin.Context) {
	ctrl, ok := controllerOrAbort(c)
	if !ok {
		return
	}

	if err := ctrl.ConfirmDiagnosis(); err != nil {
		if errors.Is(err, domain.ErrDiagnosisUnresolved) || errors.Is(err, domain.ErrOnboardingRequired) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		respondTransition(c, ctrl, err)
		return
	}

	c.JSON(http.StatusOK, ctrl.Snapshot())
}

func (h *FlowHandler) Subscribe(c *gin.Context) {
	ctrl, ok := controllerOrAbort(c)
	if !ok {
		return
	}
	respondTransition(c, ctrl, ctrl.Subscribe())
}

func (h *FlowHandler) SetTab(c *gin.Context) {
	var req tabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctrl, ok := controllerOrAbort(c)
	if !ok {
		return
	}
	respondTransition(c, ctrl, ctrl.SetActiveTab(req.Tab))
}
