package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// LLMError 大模型调用错误类型
type LLMError struct {
	Code    int    // 错误码
	Message string // 错误消息
}

// Error 实现error接口
func (e LLMError) Error() string {
	return fmt.Sprintf("llm error (code=%d): %s", e.Code, e.Message)
}

// 错误码常量
const (
	ErrCodeInvalidAPIKey  = 1001 // 无效的API密钥
	ErrCodeInvalidRequest = 1002 // 无效的请求
	ErrCodeNetworkError   = 1003 // 网络连接错误
	ErrCodeRateLimited    = 1004 // 请求频率超限
	ErrCodeServerError    = 1005 // 服务器错误
	ErrCodeTimeout        = 1006 // 请求超时
	ErrCodeEmptyPrompt    = 1007 // 提示词为空
	ErrCodeContentFilter  = 1008 // 内容安全过滤
	ErrCodeModelOverload  = 1009 // 模型过载
	ErrCodeContextTooLong = 1010 // 上下文过长
	ErrCodeEmptyResponse  = 1011 // 模型返回为空
)

// 错误消息常量
const (
	ErrMsgInvalidAPIKey  = "invalid API key"
	ErrMsgInvalidRequest = "invalid request parameters"
	ErrMsgRateLimited    = "too many requests, rate limit exceeded"
	ErrMsgServerError    = "server error occurred"
	ErrMsgTimeout        = "request timed out"
	ErrMsgEmptyPrompt    = "prompt cannot be empty"
	ErrMsgNetworkError   = "network connection error"
	ErrMsgContentFilter  = "content filtered due to safety concerns"
	ErrMsgModelOverload  = "model is currently overloaded"
	ErrMsgContextTooLong = "context length exceeds model's maximum"
	ErrMsgEmptyResponse  = "empty response from model"
)

// NewLLMError 创建新的大模型错误
func NewLLMError(code int, message string) LLMError {
	return LLMError{
		Code:    code,
		Message: message,
	}
}

// WrapError 包装普通错误为LLM错误
// 上下文取消和超时统一归为ErrCodeTimeout
func WrapError(err error, code int) LLMError {
	if err == nil {
		return LLMError{Code: code, Message: "unknown error"}
	}

	var llmErr LLMError
	if errors.As(err, &llmErr) {
		return llmErr
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return LLMError{Code: ErrCodeTimeout, Message: err.Error()}
	}

	return LLMError{
		Code:    code,
		Message: err.Error(),
	}
}

// CodeForStatus 将HTTP状态码映射为错误码
func CodeForStatus(status int) int {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrCodeInvalidAPIKey
	case status == http.StatusTooManyRequests:
		return ErrCodeRateLimited
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return ErrCodeTimeout
	case status == http.StatusServiceUnavailable:
		return ErrCodeModelOverload
	case status == http.StatusRequestEntityTooLarge:
		return ErrCodeContextTooLong
	case status >= 500:
		return ErrCodeServerError
	default:
		return ErrCodeInvalidRequest
	}
}

// IsRetryable 判断错误是否值得重试
// 调用方主动取消的请求不重试
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var llmErr LLMError
	if !errors.As(err, &llmErr) {
		return false
	}

	switch llmErr.Code {
	case ErrCodeNetworkError, ErrCodeRateLimited, ErrCodeServerError,
		ErrCodeTimeout, ErrCodeModelOverload:
		return true
	default:
		return false
	}
}
