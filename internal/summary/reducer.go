package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/fyerfyer/doc-summary-system/internal/document"
)

// NoContentSummary 提取文本为空时返回的固定结果
const NoContentSummary = "No content available to summarize."

// Store 摘要缓存，cache.Cache满足该接口
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

// Result 摘要结果
type Result struct {
	Text       string
	ChunkCount int      // 单次调用路径为1，空文本为0
	FromCache  bool     // 命中文档级缓存
	Warnings   []string // 降级模式下失败分块的提示
}

// Reducer 分块映射-合并摘要器
type Reducer struct {
	summarizer Summarizer
	store      Store
	policy     *Policy
	config     Config
	logger     *logrus.Logger
}

// Option Reducer配置选项
type Option func(*Reducer)

// WithStore 设置缓存，未设置时不缓存
func WithStore(store Store) Option {
	return func(r *Reducer) {
		r.store = store
	}
}

// WithPolicy 设置字数预算表
func WithPolicy(policy *Policy) Option {
	return func(r *Reducer) {
		r.policy = policy
	}
}

// WithConfig 设置流水线配置
func WithConfig(cfg Config) Option {
	return func(r *Reducer) {
		r.config = cfg
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger *logrus.Logger) Option {
	return func(r *Reducer) {
		r.logger = logger
	}
}

// NewReducer 创建摘要器
func NewReducer(summarizer Summarizer, opts ...Option) *Reducer {
	r := &Reducer{
		summarizer: summarizer,
		policy:     DefaultPolicy(),
		config:     DefaultConfig(),
		logger:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.config = r.config.withDefaults()
	return r
}

// Config 返回生效的配置
func (r *Reducer) Config() Config {
	return r.config
}

// Summarize 生成文本摘要
// identity为空表示临时文本，不读写文档级缓存
func (r *Reducer) Summarize(ctx context.Context, text string, level DetailLevel, identity string) (*Result, error) {
	limits, err := r.policy.LimitsFor(level)
	if err != nil {
		return nil, err
	}

	log := r.logger.WithFields(logrus.Fields{
		"identity":     identity,
		"detail_level": level,
	})

	var docKey string
	if identity != "" {
		docKey = DocumentKey(identity, level)
		if cached, ok := r.cacheGet(ctx, docKey); ok {
			log.Debug("Document summary cache hit")
			return &Result{Text: cached, FromCache: true}, nil
		}
	}

	if strings.TrimSpace(text) == "" {
		return &Result{Text: NoContentSummary}, nil
	}

	var result *Result
	tokens := document.EstimateTokens(text, r.config.CharsPerToken)
	if tokens <= r.config.SingleCallTokens {
		log.WithField("estimated_tokens", tokens).Debug("Summarizing in a single call")
		result, err = r.single(ctx, text, level, limits)
	} else {
		result, err = r.chunked(ctx, text, level, limits, log)
	}
	if err != nil {
		return nil, err
	}

	// 含占位符的降级结果不写入文档缓存
	if docKey != "" && len(result.Warnings) == 0 {
		r.cacheSet(ctx, docKey, result.Text)
	}
	return result, nil
}

// Cached 查询文档级缓存，命中时调用方可以跳过文本提取
func (r *Reducer) Cached(ctx context.Context, identity string, level DetailLevel) (*Result, bool) {
	if identity == "" || !level.Valid() {
		return nil, false
	}
	text, ok := r.cacheGet(ctx, DocumentKey(identity, level))
	if !ok {
		return nil, false
	}
	return &Result{Text: text, FromCache: true}, true
}

func (r *Reducer) single(ctx context.Context, text string, level DetailLevel, limits Limits) (*Result, error) {
	summary, err := r.call(ctx, singlePrompt(text, level, limits.FinalMaxWords))
	if err != nil {
		return nil, NewStageError(StageReducing, err)
	}
	return &Result{Text: summary, ChunkCount: 1}, nil
}

func (r *Reducer) chunked(ctx context.Context, text string, level DetailLevel, limits Limits, log *logrus.Entry) (*Result, error) {
	chunks, err := document.Partition(text, r.config.MaxChunkChars())
	if err != nil {
		return nil, NewStageError(StageChunking, err)
	}

	switch len(chunks) {
	case 0:
		return &Result{Text: NoContentSummary}, nil
	case 1:
		return r.single(ctx, chunks[0].Text, level, limits)
	}

	words := r.policy.ChunkWordsFor(r.config.ReduceBudgetWords, len(chunks))
	log.WithFields(logrus.Fields{
		"chunk_count": len(chunks),
		"chunk_words": words,
	}).Info("Summarizing document in chunks")

	summaries, warnings, err := r.mapChunks(ctx, chunks, level, words, log)
	if err != nil {
		return nil, err
	}

	final, err := r.call(ctx, combinePrompt(summaries, level, limits.FinalMaxWords))
	if err != nil {
		return nil, NewStageError(StageReducing, err)
	}
	return &Result{Text: final, ChunkCount: len(chunks), Warnings: warnings}, nil
}

// mapChunks 并发摘要所有分块，结果按分块序号写入各自的位置
func (r *Reducer) mapChunks(ctx context.Context, chunks []document.Chunk, level DetailLevel, words int, log *logrus.Entry) ([]string, []string, error) {
	total := len(chunks)
	summaries := make([]string, total)
	failures := make([]error, total)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.Concurrency)

	for _, chunk := range chunks {
		chunk := chunk
		g.Go(func() error {
			summary, err := r.summarizeChunk(gctx, chunk, total, level, words)
			if err == nil {
				summaries[chunk.Index] = summary
				return nil
			}

			chunkLog := log.WithFields(logrus.Fields{
				"stage":       StageMapping,
				"chunk_index": chunk.Index,
			})
			if r.config.DegradeOnChunkFailure && ctx.Err() == nil {
				chunkLog.WithError(err).Warn("Chunk summarization failed, using placeholder")
				failures[chunk.Index] = err
				return nil
			}
			chunkLog.WithError(err).Error("Chunk summarization failed")
			return &StageError{Stage: StageMapping, ChunkIndex: chunk.Index, ChunkTotal: total, Err: err}
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var warnings []string
	var failed []error
	for i, err := range failures {
		if err == nil {
			continue
		}
		failed = append(failed, err)
		summaries[i] = chunkPlaceholder(i, total)
		warnings = append(warnings, fmt.Sprintf("chunk %d/%d could not be summarized", i+1, total))
	}
	if len(failed) == total {
		return nil, nil, &StageError{
			Stage:      StageMapping,
			ChunkIndex: -1,
			ChunkTotal: total,
			Err:        errors.Join(append([]error{ErrAllChunksFailed}, failed...)...),
		}
	}
	return summaries, warnings, nil
}

func (r *Reducer) summarizeChunk(ctx context.Context, chunk document.Chunk, total int, level DetailLevel, words int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := ChunkKey(level, chunk.Text)
	if cached, ok := r.cacheGet(ctx, key); ok {
		return cached, nil
	}

	summary, err := r.call(ctx, chunkPrompt(chunk.Text, chunk.Index, total, words))
	if err != nil {
		return "", err
	}
	r.cacheSet(ctx, key, summary)
	return summary, nil
}

// call 每次远程调用使用独立超时
func (r *Reducer) call(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.config.CallTimeout)
	defer cancel()
	return r.summarizer.Summarize(ctx, prompt)
}

// cacheGet 缓存错误按未命中处理
func (r *Reducer) cacheGet(ctx context.Context, key string) (string, bool) {
	if r.store == nil {
		return "", false
	}
	value, found, err := r.store.Get(ctx, key)
	if err != nil {
		r.logger.WithError(err).WithField("key", key).Warn("Summary cache read failed")
		return "", false
	}
	return value, found
}

func (r *Reducer) cacheSet(ctx context.Context, key, value string) {
	if r.store == nil {
		return
	}
	if err := r.store.Set(ctx, key, value, r.config.CacheTTL); err != nil {
		r.logger.WithError(err).WithField("key", key).Warn("Summary cache write failed")
	}
}
