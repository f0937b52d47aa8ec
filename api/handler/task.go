package handler

import (
	"net/http"

	"github.com/fyerfyer/doc-summary-system/api/middleware"
	"github.com/fyerfyer/doc-summary-system/api/model"
	"github.com/fyerfyer/doc-summary-system/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// TaskHandler 处理异步任务查询
type TaskHandler struct {
	summaryService *services.SummaryService
	logger         *logrus.Logger
}

// NewTaskHandler 创建任务处理器
func NewTaskHandler(summaryService *services.SummaryService) *TaskHandler {
	return &TaskHandler{
		summaryService: summaryService,
		logger:         middleware.GetLogger(),
	}
}

// GetTaskStatus 获取任务状态和结果
// GET /api/tasks/:id
func (h *TaskHandler) GetTaskStatus(c *gin.Context) {
	var uri model.TaskURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "task id is required"))
		return
	}

	info, err := h.summaryService.GetTask(c.Request.Context(), uri.ID)
	if err != nil {
		h.logger.WithError(err).WithField("task_id", uri.ID).Debug("Failed to get task")
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse(info))
}

// ListUserTasks 列出用户的异步任务
// GET /api/users/:id/tasks
func (h *TaskHandler) ListUserTasks(c *gin.Context) {
	var uri model.UserURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "user id is required"))
		return
	}

	tasks, err := h.summaryService.ListTasks(c.Request.Context(), uri.ID)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse(gin.H{
		"user_id": uri.ID,
		"tasks":   tasks,
	}))
}
