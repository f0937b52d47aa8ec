package mcpserver

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/doc-summary-system/internal/services"
	"github.com/fyerfyer/doc-summary-system/internal/summary"
)

// fakeTools 记录调用参数的摘要服务
type fakeTools struct {
	err      error
	userID   string
	key      string
	name     string
	url      string
	level    summary.DetailLevel
	deadline bool
}

func (f *fakeTools) SummarizeStored(ctx context.Context, userID, key, name string, level summary.DetailLevel) (*services.SummaryOutput, error) {
	_, f.deadline = ctx.Deadline()
	f.userID, f.key, f.name, f.level = userID, key, name, level
	if f.err != nil {
		return nil, f.err
	}
	return &services.SummaryOutput{Summary: "document summary", RecordID: 7, ChunkCount: 2, Warnings: []string{"chunk 2/2 could not be summarized"}}, nil
}

func (f *fakeTools) SummarizeText(ctx context.Context, text string, level summary.DetailLevel) (*services.SummaryOutput, error) {
	f.level = level
	if f.err != nil {
		return nil, f.err
	}
	return &services.SummaryOutput{Summary: "text summary", ChunkCount: 1}, nil
}

func (f *fakeTools) SummarizeURL(ctx context.Context, userID, url string, level summary.DetailLevel) (*services.SummaryOutput, error) {
	f.userID, f.url, f.level = userID, url, level
	if f.err != nil {
		return nil, f.err
	}
	return &services.SummaryOutput{Summary: "page summary", FromCache: true}, nil
}

func (f *fakeTools) ChunkDocument(ctx context.Context, userID, key string) (*services.ChunkPreview, error) {
	f.userID, f.key = userID, key
	if f.err != nil {
		return nil, f.err
	}
	return &services.ChunkPreview{Chunks: []string{"one", "two"}, TotalChunks: 2, OriginalTextLength: 7, AverageChunkSize: 3}, nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestServer(tools DocumentTools) *ToolServer {
	return NewToolServer(tools, WithLogger(quietLogger()))
}

func TestInitialize(t *testing.T) {
	assert.ErrorIs(t, newTestServer(&fakeTools{}).Run(), ErrNotInitialized)
	assert.Error(t, NewToolServer(nil, WithLogger(quietLogger())).Initialize())

	s := newTestServer(&fakeTools{})
	require.NoError(t, s.Initialize())
	assert.NotNil(t, s.mcp)
}

func TestSummarizeDocumentTool(t *testing.T) {
	tools := &fakeTools{}
	s := newTestServer(tools)

	resp, err := s.handleSummarizeDocument(nil, SummarizeDocumentRequest{UserID: "u1", Key: "u1/report.pdf", FileName: "report.pdf", DetailLevel: "Short"})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, resp.Status)
	assert.Equal(t, "document summary", resp.Summary)
	assert.Equal(t, uint(7), resp.RecordID)
	assert.Equal(t, 2, resp.ChunkCount)
	assert.Len(t, resp.Warnings, 1)

	assert.Equal(t, "u1/report.pdf", tools.key)
	assert.Equal(t, "report.pdf", tools.name)
	assert.Equal(t, summary.Short, tools.level)
	assert.True(t, tools.deadline)

	// 缺少文件名时用存储键判断类型，详细程度默认medium
	_, err = s.handleSummarizeDocument(nil, SummarizeDocumentRequest{UserID: "u1", Key: "u1/notes.md"})
	require.NoError(t, err)
	assert.Equal(t, "u1/notes.md", tools.name)
	assert.Equal(t, summary.Medium, tools.level)
}

func TestSummarizeDocumentToolErrors(t *testing.T) {
	s := newTestServer(&fakeTools{err: summary.NewStageError(summary.StageMapping, errors.New("provider down"))})

	resp, err := s.handleSummarizeDocument(nil, SummarizeDocumentRequest{UserID: "u1", Key: "k"})
	require.NoError(t, err)
	assert.Equal(t, StatusError, resp.Status)
	assert.NotEmpty(t, resp.Error)

	resp, _ = s.handleSummarizeDocument(nil, SummarizeDocumentRequest{Key: "k"})
	assert.Equal(t, StatusError, resp.Status)

	resp, _ = s.handleSummarizeDocument(nil, SummarizeDocumentRequest{UserID: "u1", Key: "k", DetailLevel: "verbose"})
	assert.Equal(t, StatusError, resp.Status)
	assert.Contains(t, resp.Error, "detail level")
}

func TestChunkDocumentTool(t *testing.T) {
	tools := &fakeTools{}
	s := newTestServer(tools)

	resp, err := s.handleChunkDocument(nil, ChunkDocumentRequest{UserID: "u1", Key: "u1/book.txt"})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, resp.Status)
	assert.Equal(t, []string{"one", "two"}, resp.Chunks)
	assert.Equal(t, 2, resp.TotalChunks)
	assert.Equal(t, 3, resp.AverageChunkSize)

	resp, _ = s.handleChunkDocument(nil, ChunkDocumentRequest{UserID: "u1"})
	assert.Equal(t, StatusError, resp.Status)

	s = newTestServer(&fakeTools{err: errors.New("object not found")})
	resp, _ = s.handleChunkDocument(nil, ChunkDocumentRequest{UserID: "u1", Key: "gone"})
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, "object not found", resp.Error)
}

func TestSummarizeTextAndURLTools(t *testing.T) {
	tools := &fakeTools{}
	s := newTestServer(tools)

	resp, err := s.handleSummarizeText(nil, SummarizeTextRequest{Text: "Some text.", DetailLevel: "detailed"})
	require.NoError(t, err)
	assert.Equal(t, "text summary", resp.Summary)
	assert.Equal(t, summary.Detailed, tools.level)

	resp, _ = s.handleSummarizeText(nil, SummarizeTextRequest{Text: "  "})
	assert.Equal(t, StatusError, resp.Status)

	resp, err = s.handleSummarizeURL(nil, SummarizeURLRequest{UserID: "u1", URL: "https://example.com/post"})
	require.NoError(t, err)
	assert.Equal(t, "page summary", resp.Summary)
	assert.True(t, resp.FromCache)
	assert.Equal(t, "https://example.com/post", tools.url)

	resp, _ = s.handleSummarizeURL(nil, SummarizeURLRequest{UserID: "u1"})
	assert.Equal(t, StatusError, resp.Status)
}
