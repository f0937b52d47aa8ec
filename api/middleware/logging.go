package middleware

import (
	"bytes"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

const (
	traceIDKey   = "TraceID"        // gin上下文中的追踪ID
	logFieldsKey = "request_log"    // 处理器附加到请求日志的字段
	traceHeader  = "X-Trace-ID"     // 追踪ID请求头
	maxBodyLog   = 2048             // 调试日志中请求体和响应体的最大长度
	truncatedTag = "...(truncated)" // 截断标记
)

// 常用日志字段
const (
	FieldTraceID     = "trace_id"
	FieldUserID      = "user_id"
	FieldIdentity    = "identity"
	FieldDetailLevel = "detail_level"
	FieldChunkCount  = "chunk_count"
	FieldFromCache   = "from_cache"
	FieldTaskID      = "task_id"
)

func init() {
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
	})

	if os.Getenv("DEBUG") == "true" {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
}

// AddLogFields 把字段附加到本次请求的访问日志
// 摘要接口用它记录标识、详细程度和缓存命中情况
func AddLogFields(c *gin.Context, fields logrus.Fields) {
	merged := requestFields(c)
	for k, v := range fields {
		merged[k] = v
	}
	c.Set(logFieldsKey, merged)
}

func requestFields(c *gin.Context) logrus.Fields {
	fields := logrus.Fields{}
	if v, ok := c.Get(logFieldsKey); ok {
		if existing, ok := v.(logrus.Fields); ok {
			for k, val := range existing {
				fields[k] = val
			}
		}
	}
	return fields
}

// Logger 访问日志中间件
// 5xx记为Error，4xx记为Warn，其余为Info
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		fields := requestFields(c)
		fields[FieldTraceID] = c.GetString(traceIDKey)
		fields["status_code"] = status
		fields["latency"] = time.Since(start).String()
		fields["client_ip"] = c.ClientIP()
		fields["method"] = c.Request.Method
		fields["path"] = path
		if route := c.FullPath(); route != "" && route != path {
			fields["route"] = route
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		entry := log.WithFields(fields)
		switch {
		case status >= 500:
			entry.Error("HTTP request")
		case status >= 400:
			entry.Warn("HTTP request")
		default:
			entry.Info("HTTP request")
		}
	}
}

// RequestBodyLog 调试级别下记录请求体，multipart上传不记录
func RequestBodyLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		if log.IsLevelEnabled(logrus.DebugLevel) && c.ContentType() != "multipart/form-data" && c.Request.Body != nil {
			body, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(body))

			if len(body) > 0 {
				log.WithFields(logrus.Fields{
					FieldTraceID: c.GetString(traceIDKey),
					"path":       c.Request.URL.Path,
					"body":       truncate(string(body)),
				}).Debug("Request body")
			}
		}

		c.Next()
	}
}

// ResponseLogger 调试级别下记录响应体
func ResponseLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !log.IsLevelEnabled(logrus.DebugLevel) {
			c.Next()
			return
		}

		writer := &responseBodyWriter{ResponseWriter: c.Writer}
		c.Writer = writer

		c.Next()

		log.WithFields(logrus.Fields{
			FieldTraceID:  c.GetString(traceIDKey),
			"path":        c.Request.URL.Path,
			"status_code": c.Writer.Status(),
			"response":    truncate(writer.body.String()),
		}).Debug("Response body")
	}
}

// responseBodyWriter 同时把响应写入缓冲区
// 只保留前maxBodyLog字节，摘要结果可能很长
type responseBodyWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (r *responseBodyWriter) Write(b []byte) (int, error) {
	if remaining := maxBodyLog + 1 - r.body.Len(); remaining > 0 {
		if len(b) < remaining {
			remaining = len(b)
		}
		r.body.Write(b[:remaining])
	}
	return r.ResponseWriter.Write(b)
}

func truncate(s string) string {
	if len(s) <= maxBodyLog {
		return s
	}
	return strings.ToValidUTF8(s[:maxBodyLog], "") + truncatedTag
}

// SetTraceID 读取或生成追踪ID，写入上下文和响应头
func SetTraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(traceHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}
		c.Set(traceIDKey, traceID)
		c.Header(traceHeader, traceID)
		c.Next()
	}
}

// GetLogger 返回HTTP层共享的日志记录器
func GetLogger() *logrus.Logger {
	return log
}
