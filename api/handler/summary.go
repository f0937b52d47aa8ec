package handler

import (
	"net/http"

	"github.com/fyerfyer/doc-summary-system/api/middleware"
	"github.com/fyerfyer/doc-summary-system/api/model"
	"github.com/fyerfyer/doc-summary-system/internal/services"
	"github.com/fyerfyer/doc-summary-system/internal/summary"
	"github.com/fyerfyer/doc-summary-system/pkg/taskqueue"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SummaryHandler 处理摘要相关的API请求
type SummaryHandler struct {
	summaryService *services.SummaryService
	logger         *logrus.Logger
}

// NewSummaryHandler 创建摘要处理器
func NewSummaryHandler(summaryService *services.SummaryService) *SummaryHandler {
	return &SummaryHandler{
		summaryService: summaryService,
		logger:         middleware.GetLogger(),
	}
}

// SummarizeFile 上传文件并生成摘要，async=true时返回任务ID
// POST /api/summaries/file
func (h *SummaryHandler) SummarizeFile(c *gin.Context) {
	var req model.FileSummaryRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.WithError(err).Warn("Invalid file summary request")
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "invalid request: "+err.Error()))
		return
	}
	level, err := summary.ParseDetailLevel(req.DetailLevel)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	middleware.AddLogFields(c, logrus.Fields{middleware.FieldUserID: req.UserID, middleware.FieldDetailLevel: level})

	file, err := req.File.Open()
	if err != nil {
		h.logger.WithError(err).WithField("filename", req.File.Filename).Error("Failed to open uploaded file")
		middleware.HandleError(c, middleware.NewInternalError("failed to open uploaded file"))
		return
	}
	defer file.Close()

	input := services.FileInput{Name: req.File.Filename, Reader: file, Size: req.File.Size}
	ctx := c.Request.Context()

	if req.Async {
		taskID, key, err := h.summaryService.SubmitFile(ctx, req.UserID, input, level)
		if err != nil {
			middleware.HandleError(c, err)
			return
		}
		middleware.AddLogFields(c, logrus.Fields{middleware.FieldTaskID: taskID, middleware.FieldIdentity: key})
		c.JSON(http.StatusAccepted, model.NewSuccessResponse(model.TaskSubmitResponse{
			TaskID:     taskID,
			Status:     string(taskqueue.StatusPending),
			StorageKey: key,
		}))
		return
	}

	out, err := h.summaryService.SummarizeFile(ctx, req.UserID, input, level)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse(summaryResponse(c, out, level)))
}

// SummarizeText 为请求中的文本生成摘要
// POST /api/summaries/text
func (h *SummaryHandler) SummarizeText(c *gin.Context) {
	var req model.TextSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "invalid request: "+err.Error()))
		return
	}
	level, err := summary.ParseDetailLevel(req.DetailLevel)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	middleware.AddLogFields(c, logrus.Fields{middleware.FieldDetailLevel: level, "text_length": len(req.Text)})

	out, err := h.summaryService.SummarizeText(c.Request.Context(), req.Text, level)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse(summaryResponse(c, out, level)))
}

// SummarizeURL 为网页或YouTube视频生成摘要
// POST /api/summaries/url
func (h *SummaryHandler) SummarizeURL(c *gin.Context) {
	var req model.URLSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "invalid request: "+err.Error()))
		return
	}
	level, err := summary.ParseDetailLevel(req.DetailLevel)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	middleware.AddLogFields(c, logrus.Fields{middleware.FieldUserID: req.UserID, middleware.FieldDetailLevel: level, "url": req.URL})

	if req.Async {
		taskID, err := h.summaryService.SubmitURL(c.Request.Context(), req.UserID, req.URL, level)
		if err != nil {
			middleware.HandleError(c, err)
			return
		}
		middleware.AddLogFields(c, logrus.Fields{middleware.FieldTaskID: taskID})
		c.JSON(http.StatusAccepted, model.NewSuccessResponse(model.TaskSubmitResponse{
			TaskID: taskID,
			Status: string(taskqueue.StatusPending),
		}))
		return
	}

	out, err := h.summaryService.SummarizeURL(c.Request.Context(), req.UserID, req.URL, level)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse(summaryResponse(c, out, level)))
}

// PreviewChunks 返回已存储文档的分块预览
// POST /api/summaries/chunks
func (h *SummaryHandler) PreviewChunks(c *gin.Context) {
	var req model.ChunkPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "invalid request: "+err.Error()))
		return
	}

	middleware.AddLogFields(c, logrus.Fields{middleware.FieldUserID: req.UserID, middleware.FieldIdentity: req.Key})

	preview, err := h.summaryService.ChunkDocument(c.Request.Context(), req.UserID, req.Key)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	middleware.AddLogFields(c, logrus.Fields{middleware.FieldChunkCount: preview.TotalChunks})
	c.JSON(http.StatusOK, model.NewSuccessResponse(preview))
}

// summaryResponse 构造响应，并把摘要结果附加到访问日志
func summaryResponse(c *gin.Context, out *services.SummaryOutput, level summary.DetailLevel) model.SummaryResponse {
	fields := logrus.Fields{
		middleware.FieldChunkCount: out.ChunkCount,
		middleware.FieldFromCache:  out.FromCache,
	}
	if out.StorageKey != "" {
		fields[middleware.FieldIdentity] = out.StorageKey
	}
	if len(out.Warnings) > 0 {
		fields["warnings"] = len(out.Warnings)
	}
	middleware.AddLogFields(c, fields)

	return model.SummaryResponse{
		Summary:     out.Summary,
		DetailLevel: string(level),
		RecordID:    out.RecordID,
		StorageKey:  out.StorageKey,
		ChunkCount:  out.ChunkCount,
		FromCache:   out.FromCache,
		Warnings:    out.Warnings,
	}
}
