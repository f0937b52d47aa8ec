package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStorage MinIO存储实现
type MinioStorage struct {
	client     *minio.Client // MinIO客户端
	bucketName string        // 存储桶名称
}

// NewMinioStorage 创建MinIO存储实例，存储桶不存在时自动创建
func NewMinioStorage(ctx context.Context, cfg Config) (*MinioStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check if bucket exists: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &MinioStorage{client: client, bucketName: cfg.Bucket}, nil
}

// Put 上传对象
func (s *MinioStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (FileInfo, error) {
	key, err := cleanKey(key)
	if err != nil {
		return FileInfo{}, err
	}
	if contentType == "" {
		contentType = ContentTypeFor(key)
	}

	info, err := s.client.PutObject(ctx, s.bucketName, key, r, size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to upload file: %w", err)
	}

	return FileInfo{Key: key, Size: info.Size, ContentType: contentType}, nil
}

// Get 获取对象
// GetObject是惰性的，先Stat确认对象存在
func (s *MinioStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if _, err := s.client.StatObject(ctx, s.bucketName, key, minio.StatObjectOptions{}); err != nil {
		return nil, s.wrapErr(err, key)
	}

	obj, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.wrapErr(err, key)
	}
	return obj, nil
}

// Delete 删除对象
func (s *MinioStorage) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// Exists 检查对象是否存在
func (s *MinioStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucketName, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if isMinioNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat object: %w", err)
}

// List 列出前缀下的对象
func (s *MinioStorage) List(ctx context.Context, prefix string) ([]FileInfo, error) {
	var files []FileInfo
	for object := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return nil, fmt.Errorf("error listing objects: %w", object.Err)
		}
		files = append(files, FileInfo{
			Key:         object.Key,
			Size:        object.Size,
			ContentType: ContentTypeFor(object.Key),
		})
	}
	return files, nil
}

// Bucket 返回存储桶名称
func (s *MinioStorage) Bucket() string {
	return s.bucketName
}

func (s *MinioStorage) wrapErr(err error, key string) error {
	if isMinioNotFound(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return fmt.Errorf("failed to get object: %w", err)
}

func isMinioNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NoSuchBucket"
}

func init() {
	RegisterStorage("minio", func(ctx context.Context, cfg Config) (Storage, error) {
		return NewMinioStorage(ctx, cfg)
	})
}
