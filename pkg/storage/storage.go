package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ErrNotFound 对象不存在
var ErrNotFound = errors.New("object not found")

// ErrInvalidKey 对象键为空或越出存储根目录
var ErrInvalidKey = errors.New("invalid object key")

// FileInfo 对象元数据
type FileInfo struct {
	Key         string // 对象键
	Size        int64  // 大小(字节)
	ContentType string // MIME类型
}

// Storage 按键寻址的对象存储接口
// 文本提取和转写服务从这里读取上传的文件
type Storage interface {
	// Put 写入对象，size未知时传-1
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (FileInfo, error)

	// Get 读取对象，不存在时返回ErrNotFound
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete 删除对象
	Delete(ctx context.Context, key string) error

	// Exists 检查对象是否存在
	Exists(ctx context.Context, key string) (bool, error)

	// List 列出指定前缀下的对象
	List(ctx context.Context, prefix string) ([]FileInfo, error)

	// Bucket 返回存储桶名称，本地存储返回根目录
	Bucket() string
}

// Config 存储配置
type Config struct {
	Type      string // local、minio 或 s3
	Path      string // 本地存储路径
	Endpoint  string // MinIO或兼容S3的服务端点
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Region    string
}

// Factory 存储实现的工厂函数
type Factory func(ctx context.Context, cfg Config) (Storage, error)

var registry = make(map[string]Factory)

// RegisterStorage 注册存储实现
func RegisterStorage(name string, factory Factory) {
	registry[name] = factory
}

// NewStorage 根据配置创建存储
func NewStorage(ctx context.Context, cfg Config) (Storage, error) {
	name := cfg.Type
	if name == "" {
		name = "local"
	}
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
	return factory(ctx, cfg)
}

// ReadAll 读取整个对象
func ReadAll(ctx context.Context, s Storage, key string) ([]byte, error) {
	rc, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// S3URI 返回Textract和Transcribe使用的对象地址
func S3URI(bucket, key string) string {
	return fmt.Sprintf("s3://%s/%s", bucket, key)
}

// cleanKey 规范化对象键，拒绝空键和路径穿越
func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(filepath.ToSlash(strings.TrimSpace(key)), "/")
	if key == "" {
		return "", ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return "", fmt.Errorf("%w: %s", ErrInvalidKey, key)
		}
	}
	return key, nil
}

// ContentTypeFor 根据文件扩展名判断MIME类型
func ContentTypeFor(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".pdf":
		return "application/pdf"
	case ".md", ".markdown":
		return "text/markdown"
	case ".txt":
		return "text/plain"
	case ".html", ".htm":
		return "text/html"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".doc":
		return "application/msword"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".tiff", ".tif":
		return "image/tiff"
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".flac":
		return "audio/flac"
	case ".m4a":
		return "audio/mp4"
	case ".ogg":
		return "audio/ogg"
	case ".mp4":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
