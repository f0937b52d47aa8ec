package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用程序配置结构体
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Storage    StorageConfig    `mapstructure:"storage"`
	AWS        AWSConfig        `mapstructure:"aws"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Queue      QueueConfig      `mapstructure:"queue"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Summary    SummaryConfig    `mapstructure:"summary"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"` // 服务器主机
	Port int    `mapstructure:"port"` // 服务器端口
	Mode string `mapstructure:"mode"` // gin模式：debug、release或test
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`        // 日志级别
	File       string `mapstructure:"file"`         // 日志文件，为空时只输出到标准输出
	MaxSizeMB  int    `mapstructure:"max_size_mb"`  // 单个日志文件最大MB
	MaxBackups int    `mapstructure:"max_backups"`  // 保留的旧文件个数
	MaxAgeDays int    `mapstructure:"max_age_days"` // 旧文件保留天数
}

// StorageConfig 存储配置
type StorageConfig struct {
	Type      string `mapstructure:"type"`     // 存储类型：local、minio或s3
	Path      string `mapstructure:"path"`     // 本地存储路径
	Bucket    string `mapstructure:"bucket"`   // 桶名称
	Endpoint  string `mapstructure:"endpoint"` // MinIO或兼容S3的端点
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"` // 是否使用SSL
}

// AWSConfig Textract和Transcribe使用的AWS配置
type AWSConfig struct {
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"` // Textract读取、Transcribe写入结果的桶
}

// Enabled 是否配置了AWS
func (c AWSConfig) Enabled() bool {
	return c.Region != "" && c.Bucket != ""
}

// LLMConfig 大语言模型配置
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"`    // 提供商：tongyi、gemini或ollama
	Model       string        `mapstructure:"model"`       // 模型名称
	APIKey      string        `mapstructure:"api_key"`     // API密钥
	Endpoint    string        `mapstructure:"endpoint"`    // API端点
	MaxTokens   int           `mapstructure:"max_tokens"`  // 最大生成token数量
	Temperature float32       `mapstructure:"temperature"` // 采样温度
	Timeout     time.Duration `mapstructure:"timeout"`     // 单次请求超时
	MaxRetries  int           `mapstructure:"max_retries"` // 可重试错误的重试次数
	RateLimit   float64       `mapstructure:"rate_limit"`  // 每秒请求数，0表示不限流
	Burst       int           `mapstructure:"burst"`       // 限流桶容量
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Type     string        `mapstructure:"type"`     // 缓存类型：memory或redis
	Address  string        `mapstructure:"address"`  // Redis地址
	Password string        `mapstructure:"password"` // Redis密码
	DB       int           `mapstructure:"db"`       // Redis数据库
	TTL      time.Duration `mapstructure:"ttl"`      // 缓存TTL
}

// QueueConfig 任务队列配置
type QueueConfig struct {
	Enable        bool          `mapstructure:"enable"`         // 是否启用异步摘要
	RedisAddr     string        `mapstructure:"redis_addr"`     // Redis地址，同时用于会话历史
	RedisPassword string        `mapstructure:"redis_password"` // Redis密码
	RedisDB       int           `mapstructure:"redis_db"`       // Redis数据库编号
	Concurrency   int           `mapstructure:"concurrency"`    // 任务处理并发数
	RetryLimit    int           `mapstructure:"retry_limit"`    // 任务最大重试次数
	RetryDelay    time.Duration `mapstructure:"retry_delay"`    // 重试延迟
	TaskTimeout   time.Duration `mapstructure:"task_timeout"`   // 单个任务处理时限
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Type string `mapstructure:"type"` // 数据库类型，目前支持sqlite
	DSN  string `mapstructure:"dsn"`  // 数据源名称
}

// SummaryConfig 摘要流水线配置
type SummaryConfig struct {
	MaxChunkTokens        int           `mapstructure:"max_chunk_tokens"`
	CharsPerToken         int           `mapstructure:"chars_per_token"`
	SingleCallTokens      int           `mapstructure:"single_call_tokens"`
	Concurrency           int           `mapstructure:"concurrency"`
	CallTimeout           time.Duration `mapstructure:"call_timeout"`
	ReduceBudgetWords     int           `mapstructure:"reduce_budget_words"`
	DegradeOnChunkFailure bool          `mapstructure:"degrade_on_chunk_failure"`
	UniqueKeys            bool          `mapstructure:"unique_keys"` // 存储键带上时间戳

	// Levels 各详细程度的字数预算，键为short/medium/detailed
	Levels map[string]LevelConfig `mapstructure:"levels"`
}

// LevelConfig 某一详细程度的字数预算
type LevelConfig struct {
	FinalMaxWords int `mapstructure:"final_max_words"`
	ChunkMaxWords int `mapstructure:"chunk_max_words"`
}

// ExtractionConfig 文本提取配置
type ExtractionConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"` // 异步任务轮询间隔
	MaxAttempts  int           `mapstructure:"max_attempts"`  // 最大轮询次数
	LanguageCode string        `mapstructure:"language_code"` // 转写语言
	YtDlpBinary  string        `mapstructure:"ytdlp_binary"`  // yt-dlp可执行文件
	WebRateLimit float64       `mapstructure:"web_rate_limit"`
}

// Load 从.env、配置文件和环境变量加载配置
// 配置文件不存在时写出默认配置
func Load(configPath string) (*Config, error) {
	var config Config

	// 先加载.env，使其中的变量可以被环境变量覆盖和${VAR}引用
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if configPath == "" {
		configPath = "config.yaml"
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)

	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: Config file not found at %s, using defaults", configPath)
		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err == nil {
			if err := v.WriteConfigAs(configPath); err != nil {
				log.Printf("Warning: Could not write default config to %s: %v", configPath, err)
			}
		}
	} else if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	} else {
		log.Printf("Using config file: %s", v.ConfigFileUsed())
	}

	// 支持环境变量覆盖，例如LLM_API_KEY覆盖llm.api_key
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	expandSecrets(&config)
	return &config, nil
}

// expandSecrets 替换密钥字段中的${VAR}引用
func expandSecrets(cfg *Config) {
	for _, s := range []*string{
		&cfg.LLM.APIKey,
		&cfg.Storage.AccessKey,
		&cfg.Storage.SecretKey,
		&cfg.AWS.AccessKey,
		&cfg.AWS.SecretKey,
		&cfg.Cache.Password,
		&cfg.Queue.RedisPassword,
	} {
		*s = expandEnv(*s)
	}
}

// expandEnv 展开形如${VAR}的整值引用，变量未设置时保留原值
func expandEnv(value string) string {
	if !strings.HasPrefix(value, "${") || !strings.HasSuffix(value, "}") {
		return value
	}
	if envVal := os.Getenv(value[2 : len(value)-1]); envVal != "" {
		return envVal
	}
	return value
}

// setDefaults 设置配置的默认值
func setDefaults(v *viper.Viper) {
	// 服务器默认配置
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")

	// 日志默认配置
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)

	// 存储默认配置
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.path", "./uploads")
	v.SetDefault("storage.bucket", "doc-summary")
	v.SetDefault("storage.use_ssl", false)

	// LLM默认配置
	v.SetDefault("llm.provider", "tongyi")
	v.SetDefault("llm.model", "qwen-long")
	v.SetDefault("llm.api_key", "${LLM_API_KEY}")
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.rate_limit", 0)
	v.SetDefault("llm.burst", 1)

	// 缓存默认配置
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.address", "localhost:6379")
	v.SetDefault("cache.ttl", "1h")

	// 队列默认配置
	v.SetDefault("queue.enable", false)
	v.SetDefault("queue.redis_addr", "localhost:6379")
	v.SetDefault("queue.redis_db", 0)
	v.SetDefault("queue.concurrency", 4)
	v.SetDefault("queue.retry_limit", 2)
	v.SetDefault("queue.retry_delay", "30s")
	v.SetDefault("queue.task_timeout", "30m")

	// 数据库默认配置
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "data/summary.db")

	// 摘要默认配置
	v.SetDefault("summary.max_chunk_tokens", 850000)
	v.SetDefault("summary.chars_per_token", 4)
	v.SetDefault("summary.single_call_tokens", 850000)
	v.SetDefault("summary.concurrency", 4)
	v.SetDefault("summary.call_timeout", "2m")
	v.SetDefault("summary.reduce_budget_words", 1500)
	v.SetDefault("summary.degrade_on_chunk_failure", false)
	v.SetDefault("summary.unique_keys", false)
	v.SetDefault("summary.levels.short.final_max_words", 100)
	v.SetDefault("summary.levels.short.chunk_max_words", 50)
	v.SetDefault("summary.levels.medium.final_max_words", 250)
	v.SetDefault("summary.levels.medium.chunk_max_words", 150)
	v.SetDefault("summary.levels.detailed.final_max_words", 500)
	v.SetDefault("summary.levels.detailed.chunk_max_words", 300)

	// 提取默认配置
	v.SetDefault("extraction.poll_interval", "5s")
	v.SetDefault("extraction.max_attempts", 120)
	v.SetDefault("extraction.language_code", "en-US")
	v.SetDefault("extraction.ytdlp_binary", "yt-dlp")
	v.SetDefault("extraction.web_rate_limit", 2)
}
