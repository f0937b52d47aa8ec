package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/fyerfyer/doc-summary-system/internal/cache"
	"github.com/fyerfyer/doc-summary-system/internal/document"
	"github.com/fyerfyer/doc-summary-system/internal/extraction"
	"github.com/fyerfyer/doc-summary-system/internal/models"
	"github.com/fyerfyer/doc-summary-system/internal/repository"
	"github.com/fyerfyer/doc-summary-system/internal/summary"
	"github.com/fyerfyer/doc-summary-system/pkg/storage"
	"github.com/fyerfyer/doc-summary-system/pkg/taskqueue"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// ErrEmptyFile 上传文件为空
var ErrEmptyFile = errors.New("uploaded file is empty")

// ErrInvalidURL URL格式不正确
var ErrInvalidURL = errors.New("url must start with http:// or https://")

// chunkPreviewTTL 分块预览缓存时间
const chunkPreviewTTL = time.Hour

// URLExtractor 从URL提取文本
type URLExtractor interface {
	ExtractURL(ctx context.Context, url string) (string, error)
}

// DocumentSummarizer 摘要流水线，summary.Reducer满足该接口
type DocumentSummarizer interface {
	Summarize(ctx context.Context, text string, level summary.DetailLevel, identity string) (*summary.Result, error)
	Cached(ctx context.Context, identity string, level summary.DetailLevel) (*summary.Result, bool)
}

// FileInput 上传的文件
type FileInput struct {
	Name   string
	Reader io.Reader
	Size   int64 // 未知时为-1
}

// SummaryOutput 摘要结果
type SummaryOutput struct {
	Summary    string   `json:"summary"`
	RecordID   uint     `json:"record_id,omitempty"`
	StorageKey string   `json:"storage_key,omitempty"`
	ChunkCount int      `json:"chunk_count"`
	FromCache  bool     `json:"from_cache"`
	Warnings   []string `json:"warnings,omitempty"`
}

// ChunkPreview 文档分块预览
type ChunkPreview struct {
	Chunks             []string `json:"chunks"`
	TotalChunks        int      `json:"totalChunks"`
	OriginalTextLength int      `json:"originalTextLength"`
	AverageChunkSize   int      `json:"averageChunkSize"`
}

// SummaryService 协调上传、文本提取、摘要和记录保存
type SummaryService struct {
	store      storage.Storage
	files      extraction.Gateway // 按文件类型分发的提取器
	web        URLExtractor
	youtube    URLExtractor
	summarizer DocumentSummarizer
	splitter   document.Splitter
	users      repository.UserRepository
	records    repository.RecordRepository
	cache      cache.Cache // 分块预览缓存
	queue      taskqueue.Queue
	uniqueKeys bool // 存储键带上时间戳，每次上传保存为新对象
	logger     *logrus.Logger
}

// SummaryOption 摘要服务配置选项
type SummaryOption func(*SummaryService)

// WithURLExtractors 设置网页和YouTube提取器
func WithURLExtractors(web, youtube URLExtractor) SummaryOption {
	return func(s *SummaryService) {
		s.web = web
		s.youtube = youtube
	}
}

// WithSplitter 设置分块预览使用的分块器
func WithSplitter(splitter document.Splitter) SummaryOption {
	return func(s *SummaryService) {
		s.splitter = splitter
	}
}

// WithPreviewCache 设置分块预览缓存
func WithPreviewCache(c cache.Cache) SummaryOption {
	return func(s *SummaryService) {
		s.cache = c
	}
}

// WithTaskQueue 设置任务队列，启用异步摘要
func WithTaskQueue(queue taskqueue.Queue) SummaryOption {
	return func(s *SummaryService) {
		s.queue = queue
	}
}

// WithUniqueKeys 存储键使用<userID>-<文件名>-<毫秒时间戳>
func WithUniqueKeys(enabled bool) SummaryOption {
	return func(s *SummaryService) {
		s.uniqueKeys = enabled
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger *logrus.Logger) SummaryOption {
	return func(s *SummaryService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSummaryService 创建摘要服务
func NewSummaryService(
	store storage.Storage,
	files extraction.Gateway,
	summarizer DocumentSummarizer,
	users repository.UserRepository,
	records repository.RecordRepository,
	opts ...SummaryOption,
) *SummaryService {
	s := &SummaryService{
		store:      store,
		files:      files,
		summarizer: summarizer,
		users:      users,
		records:    records,
		logger:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.splitter == nil {
		// 分块预览与摘要流水线使用相同的分块大小
		cfg := summary.DefaultConfig()
		if c, ok := summarizer.(interface{ Config() summary.Config }); ok {
			cfg = c.Config()
		}
		s.splitter = document.NewTextSplitter(cfg.MaxChunkChars())
	}
	return s
}

// storageKey 生成文件的存储键
// 默认为<userID>/<文件名>，同一用户重复上传同名文件共享摘要缓存
func (s *SummaryService) storageKey(userID, name string, unique bool) string {
	name = filepath.Base(name)
	if unique || s.uniqueKeys {
		return fmt.Sprintf("%s-%s-%d", userID, name, time.Now().UnixMilli())
	}
	return userID + "/" + name
}

// Upload 保存上传的文件，返回存储键
func (s *SummaryService) Upload(ctx context.Context, userID string, file FileInput, unique bool) (string, error) {
	if file.Reader == nil || file.Size == 0 {
		return "", ErrEmptyFile
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return "", err
	}

	key := s.storageKey(userID, file.Name, unique)
	if _, err := s.store.Put(ctx, key, file.Reader, file.Size, storage.ContentTypeFor(file.Name)); err != nil {
		return "", fmt.Errorf("failed to store file: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"user_id": userID, "key": key, "size": file.Size}).Info("File stored")
	return key, nil
}

// SummarizeFile 上传文件并生成摘要，结果保存为记录
func (s *SummaryService) SummarizeFile(ctx context.Context, userID string, file FileInput, level summary.DetailLevel) (*SummaryOutput, error) {
	return s.summarizeFile(ctx, userID, file, level, false)
}

func (s *SummaryService) summarizeFile(ctx context.Context, userID string, file FileInput, level summary.DetailLevel, unique bool) (*SummaryOutput, error) {
	if !level.Valid() {
		return nil, summary.ErrInvalidDetailLevel
	}
	key, err := s.Upload(ctx, userID, file, unique)
	if err != nil {
		return nil, err
	}
	return s.SummarizeStored(ctx, userID, key, file.Name, level)
}

// SummarizeStored 为已存储的文件生成摘要，存储键作为摘要缓存标识
func (s *SummaryService) SummarizeStored(ctx context.Context, userID, key, name string, level summary.DetailLevel) (*SummaryOutput, error) {
	log := s.logger.WithFields(logrus.Fields{"user_id": userID, "identity": key, "detail_level": level})

	result, ok := s.summarizer.Cached(ctx, key, level)
	if !ok {
		text, err := s.files.Extract(ctx, extraction.SourceRef{Key: key, Name: name})
		if err != nil {
			log.WithError(err).Error("Text extraction failed")
			return nil, summary.NewStageError(summary.StageExtraction, err)
		}
		log.WithField("length", len([]rune(text))).Info("Text extracted")

		result, err = s.summarizer.Summarize(ctx, text, level, key)
		if err != nil {
			return nil, err
		}
	}

	record, err := s.saveRecord(ctx, userID, models.MediaFile, name, key, level, result)
	if err != nil {
		return nil, err
	}
	return newSummaryOutput(result, record, key), nil
}

// SummarizeText 为临时文本生成摘要，不使用文档级缓存
func (s *SummaryService) SummarizeText(ctx context.Context, text string, level summary.DetailLevel) (*SummaryOutput, error) {
	result, err := s.summarizer.Summarize(ctx, text, level, "")
	if err != nil {
		return nil, err
	}
	return newSummaryOutput(result, nil, ""), nil
}

// SummarizeURL 为网页或YouTube视频生成摘要
func (s *SummaryService) SummarizeURL(ctx context.Context, userID, url string, level summary.DetailLevel) (*SummaryOutput, error) {
	if !level.Valid() {
		return nil, summary.ErrInvalidDetailLevel
	}
	url = strings.TrimSpace(url)
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, ErrInvalidURL
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	mediaType := models.MediaURL
	identity := url
	extractor := s.web
	if extraction.IsYouTubeURL(url) {
		videoID, err := extraction.ExtractVideoID(url)
		if err != nil {
			return nil, err
		}
		mediaType = models.MediaYouTube
		identity = extraction.Identity(videoID)
		extractor = s.youtube
	}
	if extractor == nil {
		return nil, summary.NewStageError(summary.StageExtraction, extraction.ErrUnsupportedMedia)
	}

	log := s.logger.WithFields(logrus.Fields{"user_id": userID, "identity": identity, "detail_level": level})

	result, ok := s.summarizer.Cached(ctx, identity, level)
	if !ok {
		text, err := extractor.ExtractURL(ctx, url)
		if err != nil {
			log.WithError(err).Error("URL extraction failed")
			return nil, summary.NewStageError(summary.StageExtraction, err)
		}

		result, err = s.summarizer.Summarize(ctx, text, level, identity)
		if err != nil {
			return nil, err
		}
	}

	record, err := s.saveRecord(ctx, userID, mediaType, url, identity, level, result)
	if err != nil {
		return nil, err
	}
	return newSummaryOutput(result, record, identity), nil
}

// ChunkDocument 提取已存储的文档并返回分块预览，结果缓存1小时
func (s *SummaryService) ChunkDocument(ctx context.Context, userID, key string) (*ChunkPreview, error) {
	cacheKey := cache.GenerateCacheKey("document_chunks", userID, key)
	log := s.logger.WithFields(logrus.Fields{"user_id": userID, "key": key})

	if s.cache != nil {
		if data, found, err := s.cache.Get(ctx, cacheKey); err != nil {
			log.WithError(err).Warn("Chunk preview cache read failed")
		} else if found {
			var preview ChunkPreview
			if err := json.Unmarshal([]byte(data), &preview); err == nil {
				return &preview, nil
			}
			log.Warn("Ignoring malformed chunk preview in cache")
		}
	}

	text, err := s.files.Extract(ctx, extraction.SourceRef{Key: key})
	if err != nil {
		return nil, summary.NewStageError(summary.StageExtraction, err)
	}

	chunks, err := s.splitter.Split(text)
	if err != nil {
		return nil, summary.NewStageError(summary.StageChunking, err)
	}

	preview := &ChunkPreview{
		Chunks:             make([]string, len(chunks)),
		TotalChunks:        len(chunks),
		OriginalTextLength: len([]rune(text)),
	}
	total := 0
	for i, c := range chunks {
		preview.Chunks[i] = c.Text
		total += c.Len()
	}
	if len(chunks) > 0 {
		preview.AverageChunkSize = total / len(chunks)
	}

	if s.cache != nil {
		data, err := json.Marshal(preview)
		if err == nil {
			err = s.cache.Set(ctx, cacheKey, string(data), chunkPreviewTTL)
		}
		if err != nil {
			log.WithError(err).Warn("Chunk preview cache write failed")
		}
	}
	return preview, nil
}

// saveRecord 保存摘要记录
func (s *SummaryService) saveRecord(ctx context.Context, userID string, mediaType models.MediaType, name, key string, level summary.DetailLevel, result *summary.Result) (*models.Record, error) {
	meta, err := json.Marshal(models.RecordMetadata{
		ChunkCount: result.ChunkCount,
		FromCache:  result.FromCache,
		Warnings:   result.Warnings,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode record metadata: %w", err)
	}

	record := &models.Record{
		UserID:      userID,
		MediaType:   mediaType,
		MediaName:   name,
		StorageKey:  key,
		DetailLevel: string(level),
		Summary:     result.Text,
		Metadata:    datatypes.JSON(meta),
	}
	if err := s.records.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save record: %w", err)
	}
	return record, nil
}

func newSummaryOutput(result *summary.Result, record *models.Record, key string) *SummaryOutput {
	out := &SummaryOutput{
		Summary:    result.Text,
		StorageKey: key,
		ChunkCount: result.ChunkCount,
		FromCache:  result.FromCache,
		Warnings:   result.Warnings,
	}
	if record != nil {
		out.RecordID = record.ID
	}
	return out
}
