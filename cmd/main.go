package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/fyerfyer/doc-summary-system/api"
	"github.com/fyerfyer/doc-summary-system/api/handler"
	"github.com/fyerfyer/doc-summary-system/api/middleware"
	appconfig "github.com/fyerfyer/doc-summary-system/config"
	"github.com/fyerfyer/doc-summary-system/internal/cache"
	"github.com/fyerfyer/doc-summary-system/internal/database"
	"github.com/fyerfyer/doc-summary-system/internal/extraction"
	"github.com/fyerfyer/doc-summary-system/internal/llm"
	"github.com/fyerfyer/doc-summary-system/internal/mcpserver"
	"github.com/fyerfyer/doc-summary-system/internal/repository"
	"github.com/fyerfyer/doc-summary-system/internal/services"
	"github.com/fyerfyer/doc-summary-system/internal/summary"
	"github.com/fyerfyer/doc-summary-system/pkg/storage"
	"github.com/fyerfyer/doc-summary-system/pkg/taskqueue"
)

// 命令行参数，显式设置时覆盖配置文件
type flags struct {
	ConfigFile   string
	Port         int
	Mode         string
	LogLevel     string
	StoragePath  string
	LLMProvider  string
	LLMModel     string
	LLMAPIKey    string
	CacheType    string
	QueueEnabled bool
	RedisAddr    string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MCP          bool // 以MCP工具服务运行，标准输出用于协议通信
}

func main() {
	f := parseFlags()

	cfg, err := appconfig.Load(f.ConfigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg, f)

	gin.SetMode(cfg.Server.Mode)

	logger := setupLogger(cfg.Log, f.MCP)
	logger.Info("Starting document summary service...")

	ctx := context.Background()

	// 数据库
	if err := database.Setup(&database.Config{Type: cfg.Database.Type, DSN: cfg.Database.DSN}, logger); err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// 文件存储
	fileStorage, err := storage.NewStorage(ctx, storage.Config{
		Type:      cfg.Storage.Type,
		Path:      cfg.Storage.Path,
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.AWS.Region,
	})
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	// 缓存，摘要结果、提取结果和分块预览共用
	cacheService, err := setupCache(cfg.Cache)
	if err != nil {
		logger.Fatalf("Failed to initialize cache: %v", err)
	}

	// 大语言模型
	llmClient, err := setupLLM(cfg.LLM)
	if err != nil {
		logger.Fatalf("Failed to initialize LLM client: %v", err)
	}
	logger.WithField("model", llmClient.Name()).Info("LLM client initialized")

	// 文本提取
	files, transcriber := setupExtractors(ctx, cfg, fileStorage, cacheService, logger)
	var youtube services.URLExtractor
	if transcriber != nil {
		youtube = extraction.NewYouTubeExtractor(fileStorage, transcriber, extraction.YouTubeConfig{
			Binary: cfg.Extraction.YtDlpBinary,
		}, extraction.WithLogger(logger))
	}
	web := extraction.NewWebExtractor(extraction.WebConfig{RateLimit: cfg.Extraction.WebRateLimit})

	// 摘要流水线
	policy, err := setupPolicy(cfg.Summary.Levels)
	if err != nil {
		logger.Fatalf("Invalid summary levels: %v", err)
	}
	reducer := summary.NewReducer(summary.NewLLMSummarizer(llmClient),
		summary.WithStore(cacheService),
		summary.WithPolicy(policy),
		summary.WithConfig(summary.Config{
			MaxChunkTokens:        cfg.Summary.MaxChunkTokens,
			CharsPerToken:         cfg.Summary.CharsPerToken,
			SingleCallTokens:      cfg.Summary.SingleCallTokens,
			CacheTTL:              cfg.Cache.TTL,
			Concurrency:           cfg.Summary.Concurrency,
			CallTimeout:           cfg.Summary.CallTimeout,
			ReduceBudgetWords:     cfg.Summary.ReduceBudgetWords,
			DegradeOnChunkFailure: cfg.Summary.DegradeOnChunkFailure,
		}),
		summary.WithLogger(logger),
	)

	// Redis同时保存会话历史和任务队列
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Queue.RedisAddr,
		Password: cfg.Queue.RedisPassword,
		DB:       cfg.Queue.RedisDB,
	})
	defer rdb.Close()

	userRepo := repository.NewUserRepository()
	recordRepo := repository.NewRecordRepository()

	summaryOpts := []services.SummaryOption{
		services.WithURLExtractors(web, youtube),
		services.WithPreviewCache(cacheService),
		services.WithUniqueKeys(cfg.Summary.UniqueKeys),
		services.WithLogger(logger),
	}

	var worker *taskqueue.RedisWorker
	if cfg.Queue.Enable {
		queueCfg := &taskqueue.Config{
			RedisAddr:     cfg.Queue.RedisAddr,
			RedisPassword: cfg.Queue.RedisPassword,
			RedisDB:       cfg.Queue.RedisDB,
			Concurrency:   cfg.Queue.Concurrency,
			RetryLimit:    cfg.Queue.RetryLimit,
			RetryDelay:    cfg.Queue.RetryDelay,
			TaskTimeout:   cfg.Queue.TaskTimeout,
		}
		queue, err := taskqueue.NewRedisQueue(queueCfg)
		if err != nil {
			logger.Fatalf("Failed to initialize task queue: %v", err)
		}
		queue.SetLogger(logger)
		defer queue.Close()

		worker = taskqueue.NewRedisWorker(queue, queueCfg)
		summaryOpts = append(summaryOpts, services.WithTaskQueue(queue))
		logger.WithFields(logrus.Fields{
			"redis_addr":  cfg.Queue.RedisAddr,
			"concurrency": cfg.Queue.Concurrency,
		}).Info("Task queue initialized")
	}

	summaryService := services.NewSummaryService(fileStorage, files, reducer, userRepo, recordRepo, summaryOpts...)
	userService := services.NewUserService(userRepo, recordRepo, logger)
	chatService := services.NewChatService(llmClient, repository.NewConversationRepository(rdb), summaryService,
		services.WithChatLogger(logger))

	if worker != nil {
		worker.RegisterHandler(taskqueue.TaskSummarize, summaryService)
		if err := worker.Start(); err != nil {
			logger.Fatalf("Failed to start task worker: %v", err)
		}
		defer worker.Stop()
	}

	if f.MCP {
		runMCP(summaryService, f.WriteTimeout, logger)
		return
	}

	r := api.SetupRouter(
		handler.NewUserHandler(userService),
		handler.NewSummaryHandler(summaryService),
		handler.NewChatHandler(chatService),
		handler.NewTaskHandler(summaryService),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  f.ReadTimeout,
		WriteTimeout: f.WriteTimeout,
	}

	// 优雅关闭
	go func() {
		logger.Infof("Server is running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// parseFlags 解析命令行参数
func parseFlags() flags {
	f := flags{}

	flag.StringVar(&f.ConfigFile, "config", "config.yaml", "Path to config file")
	flag.IntVar(&f.Port, "port", 8080, "Server port")
	flag.StringVar(&f.Mode, "mode", "release", "Run mode (debug/release)")
	flag.StringVar(&f.LogLevel, "log-level", "info", "Log level (debug/info/warn/error)")
	flag.StringVar(&f.StoragePath, "storage", "./uploads", "Local file storage path")
	flag.StringVar(&f.LLMProvider, "llm", "tongyi", "LLM provider (tongyi/gemini/ollama)")
	flag.StringVar(&f.LLMModel, "llm-model", "", "LLM model name")
	flag.StringVar(&f.LLMAPIKey, "llm-key", "", "LLM API key")
	flag.StringVar(&f.CacheType, "cache", "memory", "Cache type (memory/redis)")
	flag.BoolVar(&f.QueueEnabled, "queue", false, "Enable async summary queue")
	flag.StringVar(&f.RedisAddr, "redis-addr", "localhost:6379", "Redis address for queue and chat history")
	flag.DurationVar(&f.ReadTimeout, "read-timeout", 30*time.Second, "Read timeout")
	flag.DurationVar(&f.WriteTimeout, "write-timeout", 10*time.Minute, "Write timeout")
	flag.BoolVar(&f.MCP, "mcp", false, "Serve summarization tools over MCP stdio instead of HTTP")

	flag.Parse()
	return f
}

// applyFlags 只用命令行上显式设置的参数覆盖配置
func applyFlags(cfg *appconfig.Config, f flags) {
	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "port":
			cfg.Server.Port = f.Port
		case "mode":
			cfg.Server.Mode = f.Mode
		case "log-level":
			cfg.Log.Level = f.LogLevel
		case "storage":
			cfg.Storage.Type = "local"
			cfg.Storage.Path = f.StoragePath
		case "llm":
			cfg.LLM.Provider = f.LLMProvider
		case "llm-model":
			cfg.LLM.Model = f.LLMModel
		case "llm-key":
			cfg.LLM.APIKey = f.LLMAPIKey
		case "cache":
			cfg.Cache.Type = f.CacheType
		case "queue":
			cfg.Queue.Enable = f.QueueEnabled
		case "redis-addr":
			cfg.Queue.RedisAddr = f.RedisAddr
			cfg.Cache.Address = f.RedisAddr
		}
	})
}

// setupLogger 设置日志级别和输出，配置了日志文件时按大小滚动
// MCP模式下日志写到标准错误
func setupLogger(cfg appconfig.LogConfig, mcp bool) *logrus.Logger {
	logger := middleware.GetLogger()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	var out io.Writer = os.Stdout
	if mcp {
		out = os.Stderr
	}
	logger.SetOutput(out)

	if cfg.File != "" {
		logger.SetOutput(io.MultiWriter(out, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}))
	}
	return logger
}

// runMCP 以标准输入输出运行MCP工具服务，输入关闭时返回
// 单次工具调用的超时与HTTP写超时一致
func runMCP(tools mcpserver.DocumentTools, requestTimeout time.Duration, logger *logrus.Logger) {
	toolServer := mcpserver.NewToolServer(tools,
		mcpserver.WithCallTimeout(requestTimeout),
		mcpserver.WithLogger(logger))
	if err := toolServer.Initialize(); err != nil {
		logger.Fatalf("Failed to initialize MCP server: %v", err)
	}
	if err := toolServer.Run(); err != nil {
		logger.Errorf("MCP server stopped: %v", err)
	}
	logger.Info("MCP server exited")
}

// setupCache 创建缓存
func setupCache(cfg appconfig.CacheConfig) (cache.Cache, error) {
	cacheConfig := cache.DefaultConfig()
	cacheConfig.Type = cfg.Type
	if cfg.TTL > 0 {
		cacheConfig.DefaultTTL = cfg.TTL
	}
	if cfg.Type == "redis" {
		cacheConfig.RedisAddr = cfg.Address
		cacheConfig.RedisPassword = cfg.Password
		cacheConfig.RedisDB = cfg.DB
		cacheConfig.KeyPrefix = "summary:"
	}
	return cache.NewCache(cacheConfig)
}

// setupPolicy 把配置中的字数预算转换为摘要预算表
func setupPolicy(levels map[string]appconfig.LevelConfig) (*summary.Policy, error) {
	table := make(map[string]summary.Limits, len(levels))
	for name, l := range levels {
		table[name] = summary.Limits{FinalMaxWords: l.FinalMaxWords, ChunkMaxWords: l.ChunkMaxWords}
	}
	return summary.ParsePolicy(table)
}

// setupLLM 创建带重试和限流的模型客户端
func setupLLM(cfg appconfig.LLMConfig) (llm.Client, error) {
	opts := []llm.Option{
		llm.WithAPIKey(cfg.APIKey),
		llm.WithModel(cfg.Model),
		llm.WithMaxTokens(cfg.MaxTokens),
		llm.WithTemperature(cfg.Temperature),
		llm.WithRateLimit(cfg.RateLimit, cfg.Burst),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, llm.WithBaseURL(cfg.Endpoint))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, llm.WithTimeout(cfg.Timeout))
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, llm.WithMaxRetries(cfg.MaxRetries))
	}
	return llm.NewClient(cfg.Provider, opts...)
}

// setupExtractors 创建按文件类型分发的提取器
// 配置了AWS时PDF和图片走Textract，音视频走Transcribe，否则只支持本地解析
func setupExtractors(ctx context.Context, cfg *appconfig.Config, store storage.Storage, c cache.Cache, logger *logrus.Logger) (extraction.Gateway, extraction.Gateway) {
	local := extraction.NewLocalExtractor(store, extraction.WithLogger(logger))
	if !cfg.AWS.Enabled() {
		logger.Warn("AWS is not configured, OCR and transcription are disabled")
		return extraction.NewRouter(nil, nil, local), nil
	}

	awsCfg, err := storage.LoadAWSConfig(ctx, cfg.AWS.Region, cfg.AWS.AccessKey, cfg.AWS.SecretKey)
	if err != nil {
		logger.Fatalf("Failed to load AWS config: %v", err)
	}
	if cfg.Storage.Type != "s3" || cfg.Storage.Bucket != cfg.AWS.Bucket {
		logger.Warn("Textract and Transcribe read uploads from the AWS bucket; storage should be s3 with the same bucket")
	}

	opts := []extraction.Option{
		extraction.WithCache(c),
		extraction.WithPollPolicy(extraction.PollPolicy{
			Interval:    cfg.Extraction.PollInterval,
			MaxAttempts: cfg.Extraction.MaxAttempts,
		}),
		extraction.WithLanguageCode(cfg.Extraction.LanguageCode),
		extraction.WithLogger(logger),
	}
	ocr := extraction.NewTextractExtractor(textract.NewFromConfig(awsCfg), cfg.AWS.Bucket, opts...)
	transcriber := extraction.NewTranscribeExtractor(transcribe.NewFromConfig(awsCfg), store, opts...)
	return extraction.NewRouter(ocr, transcriber, local), transcriber
}
