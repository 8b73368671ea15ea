package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type TaskHandler struct {
	BaseHandler
	taskService services.TaskService
	quizReader  services.QuizReader
}

func NewTaskHandler(taskService services.TaskService, quizReader services.QuizReader, logger utils.Logger) *TaskHandler {
	return &TaskHandler{
		BaseHandler: NewBaseHandler(logger),
		taskService: taskService,
		quizReader:  quizReader,
	}
}

// GetTasks returns several tasks at once
// @Summary Batch get tasks
// @Tags tasks
// @Produce json
// @Param task_id query []string true "Task IDs"
// @Success 200 {array} models.TaskView
// @Router /tasks [get]
func (h *TaskHandler) GetTasks(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	taskIDs, ok := ParseUUIDQuery(c, "task_id")
	if !ok {
		return
	}
	if len(taskIDs) == 0 {
		c.JSON(http.StatusOK, []models.TaskView{})
		return
	}

	tasks, err := h.taskService.GetTasksBatch(c.Request.Context(), taskIDs, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// GetTask returns one task
// @Summary Get task
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} models.TaskView
// @Router /tasks/{id} [get]
func (h *TaskHandler) GetTask(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	taskID, ok := ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	task, err := h.quizReader.GetTask(c.Request.Context(), taskID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// UpdateTask edits a draft task
// @Summary Update task
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param X-Edit-Session-Id header string true "Active edit session"
// @Param request body models.TaskUpdate true "Partial update"
// @Success 200 {object} models.TaskView
// @Router /tasks/{id} [put]
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	taskID, ok := ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	sessionID, ok := ParseEditSessionHeader(c)
	if !ok {
		return
	}

	var update models.TaskUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), taskID, userID, sessionID, &update)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// DeleteTask removes a draft task
// @Summary Delete task
// @Tags tasks
// @Param id path string true "Task ID"
// @Param X-Edit-Session-Id header string true "Active edit session"
// @Success 204
// @Router /tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	taskID, ok := ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	sessionID, ok := ParseEditSessionHeader(c)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), taskID, userID, sessionID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
