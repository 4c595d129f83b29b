// Package gateway exposes the pipeline over HTTP and WebSocket.
package gateway

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/babyccino/pipeline-orchestrator/internal/llm"
	"github.com/babyccino/pipeline-orchestrator/internal/metrics"
	"github.com/babyccino/pipeline-orchestrator/internal/models"
	"github.com/babyccino/pipeline-orchestrator/internal/orchestration"
	"github.com/babyccino/pipeline-orchestrator/internal/session"
)

// Version is stamped at build time.
var Version = "0.1.0"

// Handler handles HTTP requests for the gateway layer
type Handler struct {
	pipeline *orchestration.Service
	sessions *session.Manager
	llm      llm.Client
	codegen  orchestration.CodegenClientInterface
	metrics  *metrics.PipelineMetrics
	logger   *zap.Logger
}

// NewHandler creates a new gateway handler
func NewHandler(pipeline *orchestration.Service, sessions *session.Manager, llmClient llm.Client, codegen orchestration.CodegenClientInterface, pm *metrics.PipelineMetrics, logger *zap.Logger) *Handler {
	return &Handler{
		pipeline: pipeline,
		sessions: sessions,
		llm:      llmClient,
		codegen:  codegen,
		metrics:  pm,
		logger:   logger.Named("gateway"),
	}
}

// CreateSessionResponse represents a session creation response
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
	State     string `json:"state"`
}

// CreateSession godoc
// @Summary Create session
// @Description Open a new design conversation
// @Tags sessions
// @Produce json
// @Success 201 {object} CreateSessionResponse
// @Router /api/sessions [post]
func (h *Handler) CreateSession(c *gin.Context) {
	s := h.sessions.Create()
	h.metrics.RecordSessionOpened(c.Request.Context())
	h.logger.Info("session created", zap.String("session_id", s.ID.String()))
	c.JSON(http.StatusCreated, CreateSessionResponse{
		SessionID: s.ID.String(),
		State:     string(s.State()),
	})
}

// GetSession godoc
// @Summary Get session
// @Description Return the full session snapshot
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} session.Snapshot
// @Failure 404 {object} models.ErrorResponse
// @Router /api/sessions/{id} [get]
func (h *Handler) GetSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// DeleteSession godoc
// @Summary Delete session
// @Description Discard a session and cancel any in-flight work
// @Tags sessions
// @Param id path string true "Session ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /api/sessions/{id} [delete]
func (h *Handler) DeleteSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	h.sessions.Delete(s.ID)
	h.metrics.RecordSessionClosed(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// MessageRequest represents a chat turn from the user
type MessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// PostMessage godoc
// @Summary Send message
// @Description Run one chat turn through intent classification and validation
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body MessageRequest true "User message"
// @Success 200 {object} orchestration.TurnReply
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/sessions/{id}/messages [post]
func (h *Handler) PostMessage(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "content is required",
			Code:  models.ErrCodeInvalidRequest,
		})
		return
	}

	reply, err := h.pipeline.HandleMessage(c.Request.Context(), s, req.Content)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

// GenerateResponse represents a proposed test set awaiting approval
type GenerateResponse struct {
	ProposalID    string                    `json:"proposal_id"`
	FunctionName  string                    `json:"function_name"`
	ProposedTests []models.ProposedTestCase `json:"proposed_tests"`
	State         string                    `json:"state"`
}

// Generate godoc
// @Summary Request test proposal
// @Description Extract the specification and propose test cases for approval. Replies with a clarifying prompt when no function can be determined.
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} GenerateResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /api/sessions/{id}/generate [post]
func (h *Handler) Generate(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	proposal, err := h.pipeline.StartGeneration(c.Request.Context(), s)
	if errors.Is(err, orchestration.ErrNoFunction) {
		// No specification could be extracted; answer in conversation
		// rather than as an error.
		c.JSON(http.StatusOK, orchestration.TurnReply{
			Reply:      orchestration.PromptWhatFunction,
			SpecStatus: models.SpecNeedsRules,
		})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, GenerateResponse{
		ProposalID:    proposal.ID.String(),
		FunctionName:  proposal.FunctionName,
		ProposedTests: proposal.Tests,
		State:         string(s.State()),
	})
}

// ApproveRequest represents the user's approved test selection
type ApproveRequest struct {
	ProposalID    string                    `json:"proposal_id" binding:"required"`
	ApprovedTests []models.ApprovedTestCase `json:"approved_tests" binding:"required"`
}

// Approve godoc
// @Summary Approve tests and generate code
// @Description Send the approved tests for code generation and verification
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body ApproveRequest true "Approved test selection"
// @Success 200 {object} models.GenerateCodeResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /api/sessions/{id}/approve [post]
func (h *Handler) Approve(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "proposal_id and approved_tests are required",
			Code:  models.ErrCodeInvalidRequest,
		})
		return
	}
	proposalID, err := uuid.Parse(req.ProposalID)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "invalid proposal_id",
			Code:  models.ErrCodeInvalidRequest,
		})
		return
	}

	resp, err := h.pipeline.ApproveAndGenerate(c.Request.Context(), s, proposalID, req.ApprovedTests)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cancel godoc
// @Summary Cancel pending work
// @Description Discard the pending proposal and return the session to idle
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} session.Snapshot
// @Failure 404 {object} models.ErrorResponse
// @Router /api/sessions/{id}/cancel [post]
func (h *Handler) Cancel(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	h.pipeline.Cancel(s)
	c.JSON(http.StatusOK, s.Snapshot())
}

// Health godoc
// @Summary Health check
// @Description Report service health and language model availability
// @Tags health
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	resp := models.HealthResponse{
		Status:      "ok",
		Version:     Version,
		LLMProvider: "ollama",
		Model:       h.llm.ModelName(),
	}
	if hs, err := h.llm.Health(c.Request.Context()); err == nil {
		resp.Status = hs.Status
		resp.ModelAvailable = hs.ModelAvailable
	} else {
		resp.Status = "error"
	}
	c.JSON(http.StatusOK, resp)
}

// Ready godoc
// @Summary Readiness check
// @Description Report whether downstream services are reachable
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /ready [get]
func (h *Handler) Ready(c *gin.Context) {
	codegenUp := h.codegen.IsHealthy(c.Request.Context())
	status := http.StatusOK
	if !codegenUp {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"ready":    codegenUp,
		"codegen":  codegenUp,
		"sessions": h.sessions.Count(),
	})
}

// session resolves the :id path parameter, writing the error response itself
// when the session cannot be found.
func (h *Handler) session(c *gin.Context) (*session.Session, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "invalid session ID",
			Code:  models.ErrCodeInvalidRequest,
		})
		return nil, false
	}
	s, ok := h.sessions.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: "session not found",
			Code:  models.ErrCodeSessionNotFound,
		})
		return nil, false
	}
	return s, true
}

// fail maps pipeline errors to HTTP status codes and the error envelope.
func (h *Handler) fail(c *gin.Context, err error) {
	h.logger.Warn("pipeline request failed", zap.Error(err))

	switch {
	case errors.Is(err, session.ErrStaleProposal):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error: err.Error(),
			Code:  models.ErrCodeStaleProposal,
		})
	case errors.Is(err, session.ErrNoApprovedTests):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: err.Error(),
			Code:  models.ErrCodeInvalidRequest,
		})
	case errors.Is(err, session.ErrInvalidTransition):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error: err.Error(),
			Code:  models.ErrCodeInvalidState,
		})
	case errors.Is(err, orchestration.ErrMalformedResult):
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error: err.Error(),
			Code:  models.ErrCodeMalformedResponse,
		})
	case errors.Is(err, orchestration.ErrServiceFailure):
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error: err.Error(),
			Code:  models.ErrCodeServiceFailure,
		})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: err.Error(),
			Code:  models.ErrCodeInternalError,
		})
	}
}
