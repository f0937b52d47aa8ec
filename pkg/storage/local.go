package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage 本地文件存储实现
type LocalStorage struct {
	basePath string // 基础存储路径
}

// NewLocalStorage 创建本地存储实例
func NewLocalStorage(path string) (*LocalStorage, error) {
	// 确保路径是绝对路径
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	// 确保目录存在
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{basePath: absPath}, nil
}

func (s *LocalStorage) pathFor(key string) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, filepath.FromSlash(key)), nil
}

// Put 保存对象到本地文件
func (s *LocalStorage) Put(ctx context.Context, key string, r io.Reader, _ int64, contentType string) (FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return FileInfo{}, err
	}
	path, err := s.pathFor(key)
	if err != nil {
		return FileInfo{}, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return FileInfo{}, fmt.Errorf("failed to create directory: %w", err)
	}

	// 先写临时文件再重命名，避免读到写了一半的对象
	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to create file: %w", err)
	}
	size, copyErr := io.Copy(tmp, r)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(tmp.Name())
		return FileInfo{}, fmt.Errorf("failed to write file: %w", errors.Join(copyErr, closeErr))
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return FileInfo{}, fmt.Errorf("failed to move file into place: %w", err)
	}

	if contentType == "" {
		contentType = ContentTypeFor(key)
	}
	cleaned, _ := cleanKey(key)
	return FileInfo{Key: cleaned, Size: size, ContentType: contentType}, nil
}

// Get 获取文件内容
func (s *LocalStorage) Get(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Delete 删除文件，文件不存在时不报错
func (s *LocalStorage) Delete(_ context.Context, key string) error {
	path, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Exists 检查文件是否存在
func (s *LocalStorage) Exists(_ context.Context, key string) (bool, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// List 列出前缀下的所有文件
func (s *LocalStorage) List(_ context.Context, prefix string) ([]FileInfo, error) {
	var files []FileInfo

	err := filepath.WalkDir(s.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		// 跳过目录和未完成的上传
		if d.IsDir() || strings.HasPrefix(d.Name(), ".upload-") {
			return nil
		}

		rel, err := filepath.Rel(s.basePath, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, FileInfo{
			Key:         key,
			Size:        info.Size(),
			ContentType: ContentTypeFor(key),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return files, nil
}

// Bucket 返回存储根目录
func (s *LocalStorage) Bucket() string {
	return s.basePath
}

func init() {
	RegisterStorage("local", func(_ context.Context, cfg Config) (Storage, error) {
		path := cfg.Path
		if path == "" {
			path = "./uploads"
		}
		return NewLocalStorage(path)
	})
}
