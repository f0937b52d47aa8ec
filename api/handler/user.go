package handler

import (
	"net/http"

	"github.com/fyerfyer/doc-summary-system/api/middleware"
	"github.com/fyerfyer/doc-summary-system/api/model"
	"github.com/fyerfyer/doc-summary-system/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// UserHandler 处理用户和摘要记录相关的API请求
type UserHandler struct {
	userService *services.UserService
	logger      *logrus.Logger
}

// NewUserHandler 创建用户处理器
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      middleware.GetLogger(),
	}
}

// CreateUser 创建用户
// POST /api/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req model.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Warn("Invalid create user request")
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "invalid request: "+err.Error()))
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), req.FirstName, req.LastName)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, model.NewSuccessResponse(user))
}

// ListUsers 分页列出用户
// GET /api/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	var page model.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "invalid pagination parameters"))
		return
	}

	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	start, end := page.Bounds(len(users))
	c.JSON(http.StatusOK, model.NewSuccessResponse(model.UserListResponse{
		PaginationResponse: model.PaginationResponse{Total: len(users), Page: page.GetPage(), PageSize: page.GetPageSize()},
		Users:              users[start:end],
	}))
}

// GetUser 获取用户
// GET /api/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	var uri model.UserURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "user id is required"))
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), uri.ID)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse(user))
}

// DeleteUser 删除用户及其记录
// DELETE /api/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	var uri model.UserURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "user id is required"))
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), uri.ID); err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse(model.DeleteResponse{Success: true}))
}

// ListRecords 分页列出用户的摘要记录，最新的在前
// GET /api/users/:id/records
func (h *UserHandler) ListRecords(c *gin.Context) {
	var uri model.UserURI
	var page model.PaginationRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "user id is required"))
		return
	}
	if err := c.ShouldBindQuery(&page); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "invalid pagination parameters"))
		return
	}

	records, err := h.userService.ListRecords(c.Request.Context(), uri.ID)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	start, end := page.Bounds(len(records))
	infos := make([]model.RecordInfo, 0, end-start)
	for _, r := range records[start:end] {
		infos = append(infos, model.NewRecordInfo(r))
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse(model.RecordListResponse{
		PaginationResponse: model.PaginationResponse{Total: len(records), Page: page.GetPage(), PageSize: page.GetPageSize()},
		Records:            infos,
	}))
}

// GetRecord 获取一条摘要记录
// GET /api/users/:id/records/:rid
func (h *UserHandler) GetRecord(c *gin.Context) {
	var uri model.RecordURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "invalid record id"))
		return
	}

	record, err := h.userService.GetRecord(c.Request.Context(), uri.ID, uri.RecordID)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse(model.NewRecordInfo(record)))
}

// DeleteRecord 删除一条摘要记录
// DELETE /api/users/:id/records/:rid
func (h *UserHandler) DeleteRecord(c *gin.Context) {
	var uri model.RecordURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "invalid record id"))
		return
	}

	if err := h.userService.DeleteRecord(c.Request.Context(), uri.ID, uri.RecordID); err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse(model.DeleteResponse{Success: true, Deleted: 1}))
}

// DeleteRecords 删除用户的全部记录
// DELETE /api/users/:id/records
func (h *UserHandler) DeleteRecords(c *gin.Context) {
	var uri model.UserURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "user id is required"))
		return
	}

	n, err := h.userService.DeleteRecords(c.Request.Context(), uri.ID)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse(model.DeleteResponse{Success: true, Deleted: n}))
}
