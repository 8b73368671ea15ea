package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/SAP-F-2025/quiz-service/internal/generation"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type QuizHandler struct {
	BaseHandler
	quizService     services.QuizService
	transferService services.TransferService
}

func NewQuizHandler(quizService services.QuizService, transferService services.TransferService, logger utils.Logger) *QuizHandler {
	return &QuizHandler{
		BaseHandler:     NewBaseHandler(logger),
		quizService:     quizService,
		transferService: transferService,
	}
}

// ListQuizzes lists the caller's quizzes
// @Summary List quizzes
// @Tags quizzes
// @Produce json
// @Param roles query []string false "Ownership roles to include"
// @Success 200 {array} services.QuizSummary
// @Router /quizzes [get]
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	var roles []models.OwnershipRole
	for _, raw := range c.QueryArray("roles") {
		for _, part := range strings.Split(raw, ",") {
			role := models.OwnershipRole(strings.ToLower(strings.TrimSpace(part)))
			if role == "" {
				continue
			}
			if !role.IsValid() {
				c.JSON(http.StatusBadRequest, ErrorResponse{
					Message: "Invalid roles",
					Details: fmt.Sprintf("unknown role %q", part),
				})
				return
			}
			roles = append(roles, role)
		}
	}

	quizzes, err := h.quizService.ListUserQuizzes(c.Request.Context(), userID, roles)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, quizzes)
}

// CreateQuiz creates a quiz and queues its generation
// @Summary Create quiz
// @Tags quizzes
// @Accept multipart/form-data
// @Produce json
// @Param file formData file false "Source document (pdf, txt, md)"
// @Param user_description formData string false "What the quiz should cover"
// @Param types formData []string false "Requested task types"
// @Success 202 {object} services.CreateQuizResponse
// @Failure 400 {object} ErrorResponse
// @Router /quizzes [post]
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req services.CreateQuizRequest
	if strings.HasPrefix(c.ContentType(), "application/json") {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
			return
		}
	} else if !h.bindCreateForm(c, &req) {
		return
	}

	h.LogRequest(c, "Creating quiz", "task_types", req.TaskTypes, "has_source", req.SourceText != "")
	resp, err := h.quizService.CreateQuiz(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

func (h *QuizHandler) bindCreateForm(c *gin.Context, req *services.CreateQuizRequest) bool {
	req.Description = c.PostForm("user_description")
	for _, key := range []string{"types", "types[]"} {
		for _, raw := range c.PostFormArray(key) {
			for _, part := range strings.Split(raw, ",") {
				if part = strings.TrimSpace(part); part != "" {
					req.TaskTypes = append(req.TaskTypes, models.TaskType(part))
				}
			}
		}
	}

	header, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return true
	}
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid upload", err, err.Error())
		return false
	}
	if header.Size > generation.MaxSourceBytes {
		h.RespondWithError(c, http.StatusRequestEntityTooLarge, "Source document is too large", nil)
		return false
	}

	file, err := header.Open()
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid upload", err, err.Error())
		return false
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, generation.MaxSourceBytes+1))
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid upload", err, err.Error())
		return false
	}

	text, err := generation.ExtractSourceText(header.Filename, data)
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Source document could not be processed", err, services.ValidationErrors{
			*services.NewValidationError("file", err.Error(), header.Filename),
		})
		return false
	}
	req.SourceText = text
	return true
}

// GetQuiz returns quiz details with the current tasks
// @Summary Get quiz
// @Tags quizzes
// @Produce json
// @Param id path string true "Quiz ID"
// @Success 200 {object} services.QuizDetail
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id} [get]
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	quizID, ok := ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.quizService.GetQuizDetail(c.Request.Context(), quizID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// UpdateQuiz changes title or visibility
// @Summary Update quiz settings
// @Tags quizzes
// @Accept json
// @Produce json
// @Param id path string true "Quiz ID"
// @Param request body services.UpdateQuizSettingsRequest true "Settings"
// @Success 200 {object} services.QuizDetail
// @Router /quizzes/{id} [patch]
func (h *QuizHandler) UpdateQuiz(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	quizID, ok := ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateQuizSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	detail, err := h.quizService.UpdateQuizSettings(c.Request.Context(), quizID, userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// DeleteQuiz removes a quiz and everything attached to it
// @Summary Delete quiz
// @Tags quizzes
// @Param id path string true "Quiz ID"
// @Success 204
// @Router /quizzes/{id} [delete]
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	quizID, ok := ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	h.LogRequest(c, "Deleting quiz", "quiz_id", quizID)
	if err := h.quizService.DeleteQuiz(c.Request.Context(), quizID, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetQuizTasks returns the tasks of the current version
// @Summary Get quiz tasks
// @Tags quizzes
// @Produce json
// @Param id path string true "Quiz ID"
// @Success 200 {array} models.TaskView
// @Router /quizzes/{id}/tasks [get]
func (h *QuizHandler) GetQuizTasks(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	quizID, ok := ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	tasks, err := h.quizService.GetTasks(c.Request.Context(), quizID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// ExportQuiz downloads the current version as a workbook
// @Summary Export quiz
// @Tags quizzes
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Quiz ID"
// @Router /quizzes/{id}/export [get]
func (h *QuizHandler) ExportQuiz(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	quizID, ok := ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	file, err := h.transferService.ExportQuiz(c.Request.Context(), quizID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.FileName))
	c.Data(http.StatusOK, xlsxContentType, file.Content)
}

// ImportTasks appends workbook tasks to the caller's draft
// @Summary Import tasks
// @Tags quizzes
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Quiz ID"
// @Param X-Edit-Session-Id header string true "Active edit session"
// @Param file formData file true "Workbook"
// @Success 200 {object} services.ImportResult
// @Router /quizzes/{id}/import [post]
func (h *QuizHandler) ImportTasks(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	quizID, ok := ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	sessionID, ok := ParseEditSessionHeader(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "A workbook file is required", err)
		return
	}
	file, err := header.Open()
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid upload", err, err.Error())
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, generation.MaxSourceBytes))
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid upload", err, err.Error())
		return
	}

	result, err := h.transferService.ImportTasks(c.Request.Context(), quizID, userID, sessionID, data)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
