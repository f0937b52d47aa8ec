package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/fyerfyer/doc-summary-system/api/model"
	"github.com/fyerfyer/doc-summary-system/internal/extraction"
	"github.com/fyerfyer/doc-summary-system/internal/models"
	"github.com/fyerfyer/doc-summary-system/internal/services"
	"github.com/fyerfyer/doc-summary-system/internal/summary"
	"github.com/fyerfyer/doc-summary-system/pkg/storage"
	"github.com/fyerfyer/doc-summary-system/pkg/taskqueue"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// 定义应用中的错误类型常量
const (
	ErrorTypeValidation   = "VALIDATION_ERROR"   // 输入验证错误
	ErrorTypeUnauthorized = "UNAUTHORIZED_ERROR" // 未授权错误
	ErrorTypeForbidden    = "FORBIDDEN_ERROR"    // 禁止访问错误
	ErrorTypeNotFound     = "NOT_FOUND_ERROR"    // 资源不存在错误
	ErrorTypeInternal     = "INTERNAL_ERROR"     // 内部服务器错误
	ErrorTypeBusiness     = "BUSINESS_ERROR"     // 业务逻辑错误
	ErrorTypeConflict     = "CONFLICT_ERROR"     // 资源冲突
	ErrorTypeUpstream     = "UPSTREAM_ERROR"     // 提取或模型服务失败
	ErrorTypeUnavailable  = "UNAVAILABLE_ERROR"  // 功能未启用
)

// AppError 应用错误结构体
type AppError struct {
	Type    string // 错误类型
	Message string // 错误消息
	Details string // 详细错误信息
	Code    int    // 错误代码
}

// Error 实现error接口的方法
func (e AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// NewValidationError 创建输入验证错误
func NewValidationError(message string, details ...string) AppError {
	return AppError{
		Type:    ErrorTypeValidation,
		Message: message,
		Details: strings.Join(details, "; "),
		Code:    http.StatusBadRequest,
	}
}

// NewUnauthorizedError 创建未授权错误
func NewUnauthorizedError(message string) AppError {
	return AppError{
		Type:    ErrorTypeUnauthorized,
		Message: message,
		Code:    http.StatusUnauthorized,
	}
}

// NewForbiddenError 创建禁止访问错误
func NewForbiddenError(message string) AppError {
	return AppError{
		Type:    ErrorTypeForbidden,
		Message: message,
		Code:    http.StatusForbidden,
	}
}

// NewNotFoundError 创建资源不存在错误
func NewNotFoundError(message string) AppError {
	return AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
		Code:    http.StatusNotFound,
	}
}

// NewInternalError 创建内部服务器错误
func NewInternalError(message string, details ...string) AppError {
	return AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Details: strings.Join(details, "; "),
		Code:    http.StatusInternalServerError,
	}
}

// NewBusinessError 创建业务逻辑错误
func NewBusinessError(message string, details ...string) AppError {
	return AppError{
		Type:    ErrorTypeBusiness,
		Message: message,
		Details: strings.Join(details, "; "),
		Code:    http.StatusBadRequest,
	}
}

// NewConflictError 创建资源冲突错误
func NewConflictError(message string) AppError {
	return AppError{
		Type:    ErrorTypeConflict,
		Message: message,
		Code:    http.StatusConflict,
	}
}

// NewUpstreamError 创建上游服务错误
func NewUpstreamError(message string, details ...string) AppError {
	return AppError{
		Type:    ErrorTypeUpstream,
		Message: message,
		Details: strings.Join(details, "; "),
		Code:    http.StatusBadGateway,
	}
}

// MapError 将服务层错误转换为应用错误
func MapError(err error) AppError {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var appErrPtr *AppError
	if errors.As(err, &appErrPtr) {
		return *appErrPtr
	}

	switch {
	case errors.Is(err, models.ErrUserNotFound):
		return NewNotFoundError("user not found")
	case errors.Is(err, models.ErrRecordNotFound):
		return NewNotFoundError("record not found")
	case errors.Is(err, taskqueue.ErrTaskNotFound):
		return NewNotFoundError("task not found")
	case errors.Is(err, models.ErrUserExists):
		return NewConflictError("user already exists")
	case errors.Is(err, models.ErrInvalidUser),
		errors.Is(err, summary.ErrInvalidDetailLevel),
		errors.Is(err, services.ErrEmptyFile),
		errors.Is(err, services.ErrInvalidURL),
		errors.Is(err, services.ErrEmptyMessage),
		errors.Is(err, extraction.ErrInvalidYouTubeURL):
		return NewValidationError(err.Error())
	case errors.Is(err, services.ErrAsyncDisabled):
		return AppError{Type: ErrorTypeUnavailable, Message: err.Error(), Code: http.StatusServiceUnavailable}
	}

	switch summary.StageOf(err) {
	case summary.StageChunking:
		return NewValidationError("document could not be chunked", err.Error())
	case summary.StageExtraction:
		if errors.Is(err, storage.ErrNotFound) {
			return NewNotFoundError("document not found")
		}
		if errors.Is(err, extraction.ErrUnsupportedMedia) {
			return NewValidationError("unsupported media type", err.Error())
		}
		return NewUpstreamError("text extraction failed", err.Error())
	case summary.StageMapping, summary.StageReducing:
		return NewUpstreamError("summarization failed", err.Error())
	}

	return NewInternalError("internal server error", err.Error())
}

// ErrorMiddleware 统一错误处理中间件
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 捕获 panic
		defer func() {
			if err := recover(); err != nil {
				// 获取堆栈跟踪信息
				stack := string(debug.Stack())

				// 记录错误日志
				log.WithFields(logrus.Fields{
					"error": err,
					"stack": stack,
					"path":  c.Request.URL.Path,
				}).Error("Panic recovered in API request")

				// 构造客户端响应
				errorResponse := model.NewErrorResponse(
					http.StatusInternalServerError,
					"An unexpected error occurred",
				)

				// 在开发环境中可以返回详细错误
				if gin.Mode() == gin.DebugMode {
					errorResponse.Message = fmt.Sprintf("Panic: %v", err)
				}

				// 添加请求跟踪ID
				traceID, exists := c.Get(traceIDKey)
				if exists {
					errorResponse.TraceID = traceID.(string)
				}

				// 中止请求处理并返回错误响应
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse)
			}
		}()

		// 处理请求
		c.Next()

		// 检查是否已经有错误被处理
		if len(c.Errors) > 0 {
			// 取最后一个错误进行处理
			err := c.Errors.Last().Err

			// 获取跟踪ID
			traceID := ""
			if traceIDValue, exists := c.Get(traceIDKey); exists {
				traceID = traceIDValue.(string)
			}

			appErr := MapError(err)
			log.WithFields(logrus.Fields{
				"error_type": appErr.Type,
				"trace_id":   traceID,
				"path":       c.Request.URL.Path,
				"error":      err.Error(),
			}).Error(appErr.Message)

			errResp := model.NewErrorResponse(appErr.Code, appErr.Message)
			errResp.TraceID = traceID

			// 在开发环境下返回详细错误
			if gin.Mode() == gin.DebugMode && appErr.Details != "" {
				errResp.Message = appErr.Message + ": " + appErr.Details
			}

			c.JSON(appErr.Code, errResp)

			// 中止继续处理
			c.Abort()
		}
	}
}

// HandleError 在处理器中使用的错误处理辅助函数
func HandleError(c *gin.Context, err error) {
	// 添加错误到上下文中
	_ = c.Error(err)
}
