package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocal(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return s
}

// TestLocalStorage 测试本地存储实现
func TestLocalStorage(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t)

	content := "这是一个用于测试的样本文件"
	info, err := s.Put(ctx, "user-1/report.txt", strings.NewReader(content), -1, "")
	require.NoError(t, err)
	assert.Equal(t, "user-1/report.txt", info.Key)
	assert.Equal(t, int64(len(content)), info.Size)
	assert.Equal(t, "text/plain", info.ContentType)

	t.Run("Get", func(t *testing.T) {
		data, err := ReadAll(ctx, s, "user-1/report.txt")
		require.NoError(t, err)
		assert.Equal(t, content, string(data))
	})

	t.Run("Exists", func(t *testing.T) {
		ok, err := s.Exists(ctx, "user-1/report.txt")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = s.Exists(ctx, "user-1/missing.txt")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("List", func(t *testing.T) {
		_, err := s.Put(ctx, "user-2/other.md", strings.NewReader("# hi"), 4, "")
		require.NoError(t, err)

		files, err := s.List(ctx, "user-1/")
		require.NoError(t, err)
		require.Len(t, files, 1)
		assert.Equal(t, "user-1/report.txt", files[0].Key)

		all, err := s.List(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("Overwrite", func(t *testing.T) {
		_, err := s.Put(ctx, "user-1/report.txt", strings.NewReader("new"), 3, "")
		require.NoError(t, err)
		data, err := ReadAll(ctx, s, "user-1/report.txt")
		require.NoError(t, err)
		assert.Equal(t, "new", string(data))
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, "user-1/report.txt"))
		_, err := s.Get(ctx, "user-1/report.txt")
		assert.ErrorIs(t, err, ErrNotFound)

		// 重复删除不报错
		assert.NoError(t, s.Delete(ctx, "user-1/report.txt"))
	})
}

func TestLocalStorageRejectsInvalidKeys(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t)

	_, err := s.Put(ctx, "../escape.txt", strings.NewReader("x"), 1, "")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = s.Put(ctx, "  ", strings.NewReader("x"), 1, "")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = s.Get(ctx, "a/../../b")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestLocalStorageLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = s.Put(context.Background(), "a.txt", bytes.NewReader([]byte("abc")), 3, "")
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.txt", entries[0].Name())
	assert.FileExists(t, filepath.Join(dir, "a.txt"))
}

func TestNewStorageFactory(t *testing.T) {
	s, err := NewStorage(context.Background(), Config{Type: "local", Path: t.TempDir()})
	require.NoError(t, err)
	_, ok := s.(*LocalStorage)
	assert.True(t, ok)

	_, err = NewStorage(context.Background(), Config{Type: "ftp"})
	assert.Error(t, err)
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "application/pdf", ContentTypeFor("a.PDF"))
	assert.Equal(t, "audio/mpeg", ContentTypeFor("talk.mp3"))
	assert.Equal(t, "video/mp4", ContentTypeFor("clip.mp4"))
	assert.Equal(t, "application/octet-stream", ContentTypeFor("blob"))
}

func TestS3URI(t *testing.T) {
	assert.Equal(t, "s3://docs/user/a.pdf", S3URI("docs", "user/a.pdf"))
}

func drain(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(b)
}
