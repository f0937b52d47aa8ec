package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// s3API S3客户端中用到的操作
type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// uploader 分片上传
type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Storage AWS S3存储实现，Textract和Transcribe直接读取其中的对象
type S3Storage struct {
	client   s3API
	uploader uploader
	bucket   string
}

// LoadAWSConfig 加载AWS配置，提供了静态密钥时优先使用
func LoadAWSConfig(ctx context.Context, region, accessKey, secretKey string) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return awsCfg, nil
}

// NewS3Storage 创建S3存储，Endpoint非空时使用路径风格访问兼容S3的服务
func NewS3Storage(ctx context.Context, cfg Config) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket name not set")
	}
	if cfg.Region == "" {
		return nil, errors.New("aws region not set")
	}

	awsCfg, err := LoadAWSConfig(ctx, cfg.Region, cfg.AccessKey, cfg.SecretKey)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Storage(client, manager.NewUploader(client), cfg.Bucket), nil
}

func newS3Storage(client s3API, up uploader, bucket string) *S3Storage {
	return &S3Storage{client: client, uploader: up, bucket: bucket}
}

// Put 上传对象
func (s *S3Storage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (FileInfo, error) {
	key, err := cleanKey(key)
	if err != nil {
		return FileInfo{}, err
	}
	if contentType == "" {
		contentType = ContentTypeFor(key)
	}

	counter := &countingReader{r: r}
	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        counter,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return FileInfo{}, fmt.Errorf("s3 upload failed: %w", err)
	}

	if size < 0 {
		size = counter.n
	}
	return FileInfo{Key: key, Size: size, ContentType: contentType}, nil
}

// Get 读取对象
func (s *S3Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("s3 get failed: %w", err)
	}
	return resp.Body, nil
}

// Delete 删除对象
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete failed: %w", err)
	}
	return nil
}

// Exists 检查对象是否存在
func (s *S3Storage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	var notFound *s3types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, fmt.Errorf("s3 head failed: %w", err)
}

// List 列出前缀下的对象
func (s *S3Storage) List(ctx context.Context, prefix string) ([]FileInfo, error) {
	var files []FileInfo
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 list failed: %w", err)
		}
		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			files = append(files, FileInfo{
				Key:         key,
				Size:        aws.ToInt64(obj.Size),
				ContentType: ContentTypeFor(key),
			})
		}
		if !aws.ToBool(out.IsTruncated) {
			return files, nil
		}
		token = out.NextContinuationToken
	}
}

// Bucket 返回存储桶名称
func (s *S3Storage) Bucket() string {
	return s.bucket
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func init() {
	RegisterStorage("s3", func(ctx context.Context, cfg Config) (Storage, error) {
		return NewS3Storage(ctx, cfg)
	})
}
