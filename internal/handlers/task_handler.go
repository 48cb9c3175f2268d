package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"retail-cockpit-api/internal/middleware"
	"retail-cockpit-api/internal/models"
	"retail-cockpit-api/internal/services"
)

// TaskHandler handles manager tasks and business rules
type TaskHandler struct {
	taskService services.TaskService
	ruleService services.RuleService
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService services.TaskService, ruleService services.RuleService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		ruleService: ruleService,
	}
}

// @Summary Send a task
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param task body services.CreateTaskRequest true "Task"
// @Success 201 {object} models.Task
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /tasks [post]
func (h *TaskHandler) SendTask(c *gin.Context) {
	var req services.CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, _ := middleware.ProfileFromContext(c)
	task, err := h.taskService.SendTask(c.Request.Context(), profile, &req)
	if err != nil {
		respondError(c, err, "send task")
		return
	}
	c.JSON(http.StatusCreated, task)
}

// @Summary My tasks
// @Description Tasks addressed to the employee linked to the caller
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status" Enums(open, done)
// @Success 200 {array} models.Task
// @Router /tasks/mine [get]
func (h *TaskHandler) ListMyTasks(c *gin.Context) {
	profile, _ := middleware.ProfileFromContext(c)
	tasks, err := h.taskService.ListTasks(c.Request.Context(), profile, models.TaskStatus(c.Query("status")))
	if err != nil {
		respondError(c, err, "list tasks")
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// @Summary Complete a task
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} models.Task
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /tasks/{id}/done [patch]
func (h *TaskHandler) CompleteTask(c *gin.Context) {
	profile, _ := middleware.ProfileFromContext(c)
	task, err := h.taskService.CompleteTask(c.Request.Context(), profile, c.Param("id"))
	if err != nil {
		respondError(c, err, "complete task")
		return
	}
	c.JSON(http.StatusOK, task)
}

// @Summary List business rules
// @Tags rules
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.BusinessRule
// @Router /rules [get]
func (h *TaskHandler) ListRules(c *gin.Context) {
	rules, err := h.ruleService.ListRules(c.Request.Context())
	if err != nil {
		respondError(c, err, "list rules")
		return
	}
	c.JSON(http.StatusOK, rules)
}

// @Summary Add a business rule
// @Tags rules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param rule body services.CreateRuleRequest true "Rule"
// @Success 201 {object} models.BusinessRule
// @Failure 400 {object} ErrorResponse
// @Router /rules [post]
func (h *TaskHandler) CreateRule(c *gin.Context) {
	var req services.CreateRuleRequest
	if !bindJSON(c, &req) {
		return
	}

	rule, err := h.ruleService.CreateRule(c.Request.Context(), c.GetString(middleware.UserIDKey), &req)
	if err != nil {
		respondError(c, err, "create rule")
		return
	}
	c.JSON(http.StatusCreated, rule)
}

// @Summary Delete a business rule
// @Tags rules
// @Security BearerAuth
// @Param id path string true "Rule ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /rules/{id} [delete]
func (h *TaskHandler) DeleteRule(c *gin.Context) {
	if err := h.ruleService.DeleteRule(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "delete rule")
		return
	}
	c.Status(http.StatusNoContent)
}
