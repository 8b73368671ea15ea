package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type EditSessionHandler struct {
	BaseHandler
	editService services.EditSessionService
	validator   *validator.Validator
}

func NewEditSessionHandler(editService services.EditSessionService, validator *validator.Validator, logger utils.Logger) *EditSessionHandler {
	return &EditSessionHandler{
		BaseHandler: NewBaseHandler(logger),
		editService: editService,
		validator:   validator,
	}
}

// StartEdit opens an edit session on a fresh draft
// @Summary Start editing
// @Tags edit
// @Produce json
// @Param id path string true "Quiz ID"
// @Success 201 {object} services.EditSessionStartResponse
// @Router /quizzes/{id}/edit/start [post]
func (h *EditSessionHandler) StartEdit(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	quizID, ok := ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	h.LogRequest(c, "Starting edit session", "quiz_id", quizID)
	resp, err := h.editService.StartEdit(c.Request.Context(), quizID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// CommitEdit publishes the draft as the next version
// @Summary Commit edit session
// @Tags edit
// @Accept json
// @Produce json
// @Param id path string true "Quiz ID"
// @Param request body services.EditSessionRequest true "Session"
// @Success 200 {object} services.EditSessionCommitResponse
// @Router /quizzes/{id}/edit/commit [post]
func (h *EditSessionHandler) CommitEdit(c *gin.Context) {
	userID, quizID, sessionID, ok := h.bindSession(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Committing edit session", "quiz_id", quizID, "edit_session_id", sessionID)
	resp, err := h.editService.CommitEdit(c.Request.Context(), quizID, userID, sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AbortEdit discards the draft
// @Summary Abort edit session
// @Tags edit
// @Accept json
// @Param id path string true "Quiz ID"
// @Param request body services.EditSessionRequest true "Session"
// @Success 204
// @Router /quizzes/{id}/edit/abort [post]
func (h *EditSessionHandler) AbortEdit(c *gin.Context) {
	userID, quizID, sessionID, ok := h.bindSession(c)
	if !ok {
		return
	}

	if err := h.editService.AbortEdit(c.Request.Context(), quizID, userID, sessionID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *EditSessionHandler) bindSession(c *gin.Context) (userID, quizID, sessionID uuid.UUID, ok bool) {
	if userID, ok = h.currentUser(c); !ok {
		return
	}
	if quizID, ok = ParseUUIDParam(c, "id"); !ok {
		return
	}

	var req services.EditSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return userID, quizID, uuid.Nil, false
	}
	if err := h.validator.Validate(&req); err != nil {
		h.handleServiceError(c, err)
		return userID, quizID, uuid.Nil, false
	}
	return userID, quizID, req.EditSessionID, true
}
