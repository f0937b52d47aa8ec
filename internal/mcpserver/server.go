// Package mcpserver 通过MCP协议把摘要流水线暴露为工具
package mcpserver

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/localrivet/gomcp/server"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/doc-summary-system/internal/services"
	"github.com/fyerfyer/doc-summary-system/internal/summary"
)

// ErrNotInitialized 服务未初始化
var ErrNotInitialized = errors.New("mcp server not initialized")

// defaultCallTimeout 单次工具调用的超时时间
const defaultCallTimeout = 10 * time.Minute

// DocumentTools 工具依赖的摘要操作，services.SummaryService满足该接口
type DocumentTools interface {
	SummarizeStored(ctx context.Context, userID, key, name string, level summary.DetailLevel) (*services.SummaryOutput, error)
	SummarizeText(ctx context.Context, text string, level summary.DetailLevel) (*services.SummaryOutput, error)
	SummarizeURL(ctx context.Context, userID, url string, level summary.DetailLevel) (*services.SummaryOutput, error)
	ChunkDocument(ctx context.Context, userID, key string) (*services.ChunkPreview, error)
}

// ToolServer MCP工具服务
type ToolServer struct {
	tools       DocumentTools
	name        string
	callTimeout time.Duration
	logger      *logrus.Logger
	mcp         server.Server
}

// Option 工具服务配置选项
type Option func(*ToolServer)

// WithName 设置服务名称
func WithName(name string) Option {
	return func(s *ToolServer) {
		s.name = name
	}
}

// WithCallTimeout 设置单次工具调用超时
func WithCallTimeout(d time.Duration) Option {
	return func(s *ToolServer) {
		if d > 0 {
			s.callTimeout = d
		}
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger *logrus.Logger) Option {
	return func(s *ToolServer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewToolServer 创建MCP工具服务
func NewToolServer(tools DocumentTools, opts ...Option) *ToolServer {
	s := &ToolServer{
		tools:       tools,
		name:        "doc-summary-server",
		callTimeout: defaultCallTimeout,
		logger:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize 注册所有工具
func (s *ToolServer) Initialize() error {
	if s.tools == nil {
		return errors.New("mcp server requires a summary service")
	}

	s.mcp = server.NewServer(s.name).
		Tool(ToolSummarizeDocument, "Extract text from a stored document and summarize it at the given detail level", s.handleSummarizeDocument).
		Tool(ToolChunkDocument, "Extract text from a stored document and return the chunks used for summarization", s.handleChunkDocument).
		Tool(ToolSummarizeText, "Summarize the given text at the given detail level", s.handleSummarizeText).
		Tool(ToolSummarizeURL, "Summarize a web page or a YouTube video", s.handleSummarizeURL)

	s.logger.WithField("tool_count", 4).Info("MCP tool server initialized")
	return nil
}

// Run 通过标准输入输出提供服务，直到输入关闭
func (s *ToolServer) Run() error {
	if s.mcp == nil {
		return ErrNotInitialized
	}
	s.logger.Info("Starting MCP tool server on stdio")
	return s.mcp.AsStdio().Run()
}

func (s *ToolServer) handleSummarizeDocument(_ *server.Context, req SummarizeDocumentRequest) (SummaryResponse, error) {
	log := s.logger.WithFields(logrus.Fields{"tool": ToolSummarizeDocument, "user_id": req.UserID, "key": req.Key})

	if req.UserID == "" || req.Key == "" {
		return SummaryResponse{Status: StatusError, Error: "user_id and key are required"}, nil
	}
	level, err := summary.ParseDetailLevel(req.DetailLevel)
	if err != nil {
		return summaryError(err), nil
	}
	name := req.FileName
	if name == "" {
		name = req.Key
	}

	ctx, cancel := s.callContext()
	defer cancel()

	out, err := s.tools.SummarizeStored(ctx, req.UserID, req.Key, name, level)
	if err != nil {
		log.WithError(err).Error("Document summarization failed")
		return summaryError(err), nil
	}
	log.WithField("from_cache", out.FromCache).Info("Document summarized")
	return summaryResponse(out), nil
}

func (s *ToolServer) handleChunkDocument(_ *server.Context, req ChunkDocumentRequest) (ChunkDocumentResponse, error) {
	if req.UserID == "" || req.Key == "" {
		return ChunkDocumentResponse{Status: StatusError, Error: "user_id and key are required"}, nil
	}

	ctx, cancel := s.callContext()
	defer cancel()

	preview, err := s.tools.ChunkDocument(ctx, req.UserID, req.Key)
	if err != nil {
		s.logger.WithError(err).WithField("key", req.Key).Error("Document chunking failed")
		return ChunkDocumentResponse{Status: StatusError, Error: err.Error()}, nil
	}
	return ChunkDocumentResponse{
		Status:             StatusSuccess,
		Chunks:             preview.Chunks,
		TotalChunks:        preview.TotalChunks,
		OriginalTextLength: preview.OriginalTextLength,
		AverageChunkSize:   preview.AverageChunkSize,
	}, nil
}

func (s *ToolServer) handleSummarizeText(_ *server.Context, req SummarizeTextRequest) (SummaryResponse, error) {
	if strings.TrimSpace(req.Text) == "" {
		return SummaryResponse{Status: StatusError, Error: "text is required"}, nil
	}
	level, err := summary.ParseDetailLevel(req.DetailLevel)
	if err != nil {
		return summaryError(err), nil
	}

	ctx, cancel := s.callContext()
	defer cancel()

	out, err := s.tools.SummarizeText(ctx, req.Text, level)
	if err != nil {
		s.logger.WithError(err).WithField("tool", ToolSummarizeText).Error("Text summarization failed")
		return summaryError(err), nil
	}
	return summaryResponse(out), nil
}

func (s *ToolServer) handleSummarizeURL(_ *server.Context, req SummarizeURLRequest) (SummaryResponse, error) {
	if req.UserID == "" || req.URL == "" {
		return SummaryResponse{Status: StatusError, Error: "user_id and url are required"}, nil
	}
	level, err := summary.ParseDetailLevel(req.DetailLevel)
	if err != nil {
		return summaryError(err), nil
	}

	ctx, cancel := s.callContext()
	defer cancel()

	out, err := s.tools.SummarizeURL(ctx, req.UserID, req.URL, level)
	if err != nil {
		s.logger.WithError(err).WithField("url", req.URL).Error("URL summarization failed")
		return summaryError(err), nil
	}
	return summaryResponse(out), nil
}

func (s *ToolServer) callContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.callTimeout)
}

func summaryResponse(out *services.SummaryOutput) SummaryResponse {
	return SummaryResponse{
		Status:     StatusSuccess,
		Summary:    out.Summary,
		RecordID:   out.RecordID,
		ChunkCount: out.ChunkCount,
		FromCache:  out.FromCache,
		Warnings:   out.Warnings,
	}
}

func summaryError(err error) SummaryResponse {
	return SummaryResponse{Status: StatusError, Error: err.Error()}
}
