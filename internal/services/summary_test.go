package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/doc-summary-system/internal/cache"
	"github.com/fyerfyer/doc-summary-system/internal/document"
	"github.com/fyerfyer/doc-summary-system/internal/extraction"
	"github.com/fyerfyer/doc-summary-system/internal/models"
	"github.com/fyerfyer/doc-summary-system/internal/summary"
	"github.com/fyerfyer/doc-summary-system/pkg/storage"
)

// fixedExtractor 返回固定文本的URL提取器
type fixedExtractor struct {
	text  string
	err   error
	calls int
}

func (e *fixedExtractor) ExtractURL(ctx context.Context, url string) (string, error) {
	e.calls++
	return e.text, e.err
}

func TestUpload(t *testing.T) {
	f := newFixture(t)
	svc := f.service()
	ctx := context.Background()

	key, err := svc.Upload(ctx, f.user.ID, textFile("../notes.txt", "hello"), false)
	require.NoError(t, err)
	assert.Equal(t, f.user.ID+"/notes.txt", key)

	key, err = svc.Upload(ctx, f.user.ID, textFile("notes.txt", "hello"), true)
	require.NoError(t, err)
	assert.Regexp(t, `^`+f.user.ID+`-notes\.txt-\d+$`, key)

	exists, err := f.store.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = svc.Upload(ctx, f.user.ID, FileInput{Name: "empty.txt", Reader: strings.NewReader(""), Size: 0}, false)
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = svc.Upload(ctx, "ghost", textFile("a.txt", "x"), false)
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestSummarizeFile(t *testing.T) {
	f := newFixture(t)
	svc := f.service()
	ctx := context.Background()

	out, err := svc.SummarizeFile(ctx, f.user.ID, textFile("report.txt", "Quarterly revenue grew by ten percent."), summary.Short)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.Summary, "summary of"))
	assert.Equal(t, f.user.ID+"/report.txt", out.StorageKey)
	assert.Equal(t, 1, out.ChunkCount)
	assert.False(t, out.FromCache)
	assert.NotZero(t, out.RecordID)

	record, err := f.records.Get(ctx, f.user.ID, out.RecordID)
	require.NoError(t, err)
	assert.Equal(t, "short", record.DetailLevel)
	var meta models.RecordMetadata
	require.NoError(t, json.Unmarshal(record.Metadata, &meta))
	assert.Equal(t, 1, meta.ChunkCount)

	// 同一文件再次摘要命中缓存，不再提取
	again, err := svc.SummarizeStored(ctx, f.user.ID, out.StorageKey, "report.txt", summary.Short)
	require.NoError(t, err)
	assert.True(t, again.FromCache)
	assert.Equal(t, out.Summary, again.Summary)
	assert.Equal(t, int32(1), f.extractions.Load())
	assert.Equal(t, int32(1), f.calls.Load())

	// 不同详细程度不共享缓存
	_, err = svc.SummarizeStored(ctx, f.user.ID, out.StorageKey, "report.txt", summary.Detailed)
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.calls.Load())

	_, err = svc.SummarizeFile(ctx, f.user.ID, textFile("x.txt", "text"), summary.DetailLevel("huge"))
	assert.ErrorIs(t, err, summary.ErrInvalidDetailLevel)
}

func TestSummarizeFileEmptyText(t *testing.T) {
	f := newFixture(t)
	svc := f.service()

	out, err := svc.SummarizeFile(context.Background(), f.user.ID, textFile("blank.txt", "   \n\t "), summary.Medium)
	require.NoError(t, err)
	assert.Equal(t, summary.NoContentSummary, out.Summary)
	assert.Equal(t, 0, out.ChunkCount)
	assert.Equal(t, int32(0), f.calls.Load())
}

func TestSummarizeStoredExtractionFailure(t *testing.T) {
	f := newFixture(t)
	svc := f.service()

	_, err := svc.SummarizeStored(context.Background(), f.user.ID, "missing.txt", "missing.txt", summary.Short)
	require.Error(t, err)
	assert.Equal(t, summary.StageExtraction, summary.StageOf(err))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	records, err := f.records.ListByUser(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSummarizeText(t *testing.T) {
	f := newFixture(t)
	svc := f.service()
	ctx := context.Background()

	first, err := svc.SummarizeText(ctx, "Ad hoc text to summarize.", summary.Short)
	require.NoError(t, err)
	assert.Zero(t, first.RecordID)

	// 临时文本不缓存
	second, err := svc.SummarizeText(ctx, "Ad hoc text to summarize.", summary.Short)
	require.NoError(t, err)
	assert.False(t, second.FromCache)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestSummarizeURL(t *testing.T) {
	f := newFixture(t)
	web := &fixedExtractor{text: "Article body about Go."}
	youtube := &fixedExtractor{text: "Video transcript."}
	svc := f.service(WithURLExtractors(web, youtube))
	ctx := context.Background()

	out, err := svc.SummarizeURL(ctx, f.user.ID, "https://example.com/post", summary.Medium)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/post", out.StorageKey)
	assert.Equal(t, 1, web.calls)

	record, err := f.records.Get(ctx, f.user.ID, out.RecordID)
	require.NoError(t, err)
	assert.Equal(t, models.MediaURL, record.MediaType)

	out, err = svc.SummarizeURL(ctx, f.user.ID, "https://youtu.be/abc123", summary.Medium)
	require.NoError(t, err)
	assert.Equal(t, extraction.Identity("abc123"), out.StorageKey)
	assert.Equal(t, 1, youtube.calls)

	// 同一视频的不同链接形式共享缓存
	out, err = svc.SummarizeURL(ctx, f.user.ID, "https://www.youtube.com/watch?v=abc123", summary.Medium)
	require.NoError(t, err)
	assert.True(t, out.FromCache)
	assert.Equal(t, 1, youtube.calls)

	record, err = f.records.Get(ctx, f.user.ID, out.RecordID)
	require.NoError(t, err)
	assert.Equal(t, models.MediaYouTube, record.MediaType)
}

func TestSummarizeURLErrors(t *testing.T) {
	f := newFixture(t)
	web := &fixedExtractor{err: errors.New("403 forbidden")}
	svc := f.service(WithURLExtractors(web, nil))
	ctx := context.Background()

	_, err := svc.SummarizeURL(ctx, f.user.ID, "ftp://example.com/file", summary.Short)
	assert.ErrorIs(t, err, ErrInvalidURL)

	_, err = svc.SummarizeURL(ctx, f.user.ID, "https://example.com/", summary.Short)
	assert.Equal(t, summary.StageExtraction, summary.StageOf(err))

	_, err = svc.SummarizeURL(ctx, f.user.ID, "https://youtu.be/abc123", summary.Short)
	assert.Equal(t, summary.StageExtraction, summary.StageOf(err))

	_, err = svc.SummarizeURL(ctx, f.user.ID, "https://example.com/", "verbose")
	assert.ErrorIs(t, err, summary.ErrInvalidDetailLevel)
}

func TestChunkDocument(t *testing.T) {
	f := newFixture(t)
	previews, err := cache.NewMemoryCache(cache.DefaultConfig())
	require.NoError(t, err)
	svc := f.service(WithSplitter(document.NewTextSplitter(20)), WithPreviewCache(previews))
	ctx := context.Background()

	text := "Alpha beta gamma. Delta epsilon zeta. Eta theta iota."
	key, err := svc.Upload(ctx, f.user.ID, textFile("greek.txt", text), false)
	require.NoError(t, err)

	preview, err := svc.ChunkDocument(ctx, f.user.ID, key)
	require.NoError(t, err)
	assert.Equal(t, 3, preview.TotalChunks)
	assert.Len(t, preview.Chunks, 3)
	assert.Equal(t, len(text), preview.OriginalTextLength)
	assert.Greater(t, preview.AverageChunkSize, 0)

	cached, found, err := previews.Get(ctx, cache.GenerateCacheKey("document_chunks", f.user.ID, key))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Contains(t, cached, `"totalChunks":3`)

	// 第二次从缓存读取
	_, err = svc.ChunkDocument(ctx, f.user.ID, key)
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.extractions.Load())

	_, err = svc.ChunkDocument(ctx, f.user.ID, "missing.txt")
	assert.Equal(t, summary.StageExtraction, summary.StageOf(err))
}

func TestChunkDocumentFollowsReducerChunkSize(t *testing.T) {
	f := newFixture(t)
	reducer := summary.NewReducer(summary.SummarizerFunc(func(ctx context.Context, prompt string) (string, error) {
		return "unused", nil
	}), summary.WithConfig(summary.Config{MaxChunkTokens: 5, CharsPerToken: 4}), summary.WithLogger(quietLogger()))
	svc := NewSummaryService(f.store, f.gateway(), reducer, f.users, f.records, WithLogger(quietLogger()))
	ctx := context.Background()

	key, err := svc.Upload(ctx, f.user.ID, textFile("greek.txt", "Alpha beta gamma. Delta epsilon zeta. Eta theta iota."), false)
	require.NoError(t, err)

	preview, err := svc.ChunkDocument(ctx, f.user.ID, key)
	require.NoError(t, err)
	assert.Equal(t, 3, preview.TotalChunks)
	for _, c := range preview.Chunks {
		assert.LessOrEqual(t, len(c), 20)
	}
}

func TestSameFileNameFromDifferentUsers(t *testing.T) {
	f := newFixture(t)
	svc := f.service()
	ctx := context.Background()

	other := &models.User{FirstName: "Ada", LastName: "Lovelace"}
	require.NoError(t, f.users.Create(ctx, other))

	mine, err := svc.SummarizeFile(ctx, f.user.ID, textFile("report.txt", "Revenue grew."), summary.Short)
	require.NoError(t, err)
	theirs, err := svc.SummarizeFile(ctx, other.ID, textFile("report.txt", "Costs were cut sharply this quarter."), summary.Short)
	require.NoError(t, err)

	assert.NotEqual(t, mine.StorageKey, theirs.StorageKey)
	assert.False(t, theirs.FromCache)
	assert.NotEqual(t, mine.Summary, theirs.Summary)
	assert.Equal(t, int32(2), f.extractions.Load())

	data, err := storage.ReadAll(ctx, f.store, mine.StorageKey)
	require.NoError(t, err)
	assert.Equal(t, "Revenue grew.", string(data))
}
