package handlers

import (
	"net/http"
	"strconv"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AttemptHandler struct {
	BaseHandler
	attemptService    services.AttemptService
	evaluationService services.EvaluationService
	validator         *validator.Validator
}

func NewAttemptHandler(
	attemptService services.AttemptService,
	evaluationService services.EvaluationService,
	validator *validator.Validator,
	logger utils.Logger,
) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:       NewBaseHandler(logger),
		attemptService:    attemptService,
		evaluationService: evaluationService,
		validator:         validator,
	}
}

// StartAttempt starts a new attempt or resumes the open one
// @Summary Start or resume attempt
// @Tags attempts
// @Accept json
// @Produce json
// @Param request body services.StartAttemptRequest true "Quiz"
// @Success 201 {object} services.AttemptResponse "new attempt"
// @Success 200 {object} services.AttemptResponse "resumed attempt"
// @Router /attempts [post]
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req services.StartAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	result, err := h.attemptService.StartOrResume(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, result.Attempt)
}

// ListAttempts lists the caller's attempts
// @Summary List attempts
// @Tags attempts
// @Produce json
// @Param quiz_id query string false "Quiz ID"
// @Param status query string false "in_progress or evaluated"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} services.AttemptResponse
// @Router /attempts [get]
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req services.ListAttemptsRequest
	if raw := c.Query("quiz_id"); raw != "" {
		quizID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid quiz_id", Details: "must be a UUID"})
			return
		}
		req.QuizID = &quizID
	}
	if raw := c.Query("status"); raw != "" {
		status := models.AttemptStatus(raw)
		if status != models.AttemptInProgress && status != models.AttemptEvaluated {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid status", Details: raw})
			return
		}
		req.Status = &status
	}
	req.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "0"))
	req.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	attempts, err := h.attemptService.ListAttempts(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, attempts)
}

// GetAttempt returns an attempt with its answers
// @Summary Get attempt
// @Tags attempts
// @Produce json
// @Param id path string true "Attempt ID"
// @Success 200 {object} services.AttemptResponse
// @Router /attempts/{id} [get]
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	attemptID, ok := ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	attempt, err := h.attemptService.GetAttempt(c.Request.Context(), userID, attemptID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, attempt)
}

// GetAttemptTasks returns the tasks of the version the attempt is pinned to
// @Summary Get attempt tasks
// @Tags attempts
// @Produce json
// @Param id path string true "Attempt ID"
// @Success 200 {array} models.TaskView
// @Router /attempts/{id}/tasks [get]
func (h *AttemptHandler) GetAttemptTasks(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	attemptID, ok := ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	tasks, err := h.attemptService.GetAttemptTasks(c.Request.Context(), userID, attemptID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// SaveAnswer creates or replaces the answer to one task
// @Summary Save answer
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path string true "Attempt ID"
// @Param task_id path string true "Task ID"
// @Param request body models.AnswerPayload true "Answer"
// @Success 200 {object} models.AnswerSaved
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/answers/{task_id} [put]
func (h *AttemptHandler) SaveAnswer(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	attemptID, ok := ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	taskID, ok := ParseUUIDParam(c, "task_id")
	if !ok {
		return
	}

	var payload models.AnswerPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	saved, err := h.attemptService.SaveAnswer(c.Request.Context(), userID, attemptID, taskID, &payload)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

// SetFreeTextCorrectness records the learner's self-assessment
// @Summary Set free text correctness
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path string true "Attempt ID"
// @Param task_id path string true "Task ID"
// @Param request body services.FreeTextCorrectnessRequest true "Self-assessment"
// @Success 200 {object} models.AnswerView
// @Router /attempts/{id}/answers/{task_id}/correctness [post]
func (h *AttemptHandler) SetFreeTextCorrectness(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	attemptID, ok := ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	taskID, ok := ParseUUIDParam(c, "task_id")
	if !ok {
		return
	}

	var req services.FreeTextCorrectnessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	view, err := h.attemptService.SetFreeTextCorrectness(c.Request.Context(), userID, attemptID, taskID, *req.IsCorrect)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// EvaluateAttempt scores and locks an attempt
// @Summary Evaluate attempt
// @Tags attempts
// @Produce json
// @Param id path string true "Attempt ID"
// @Success 200 {object} services.EvaluationResult
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/evaluate [post]
func (h *AttemptHandler) EvaluateAttempt(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	attemptID, ok := ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	h.LogRequest(c, "Evaluating attempt", "attempt_id", attemptID)
	result, err := h.evaluationService.Evaluate(c.Request.Context(), userID, attemptID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
