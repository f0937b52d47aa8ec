package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fyerfyer/doc-summary-system/internal/cache"
	"github.com/fyerfyer/doc-summary-system/internal/database"
	"github.com/fyerfyer/doc-summary-system/internal/extraction"
	"github.com/fyerfyer/doc-summary-system/internal/models"
	"github.com/fyerfyer/doc-summary-system/internal/repository"
	"github.com/fyerfyer/doc-summary-system/internal/summary"
	"github.com/fyerfyer/doc-summary-system/pkg/storage"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func setupTestDB(t *testing.T) *gorm.DB {
	dbName := fmt.Sprintf("file:services_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

// fixture 摘要服务的测试依赖
type fixture struct {
	store       storage.Storage
	users       repository.UserRepository
	records     repository.RecordRepository
	reducer     *summary.Reducer
	calls       atomic.Int32 // 摘要模型调用次数
	extractions atomic.Int32 // 文件提取次数
	user        *models.User
}

// newFixture 使用本地存储、内存数据库和真实的Reducer
// 文件提取直接读取存储内容，模型返回固定前缀加提示词长度
func newFixture(t *testing.T) *fixture {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	db := setupTestDB(t)
	f := &fixture{
		store:   store,
		users:   repository.NewUserRepositoryWithDB(db),
		records: repository.NewRecordRepositoryWithDB(db),
	}

	summaries, err := cache.NewMemoryCache(cache.DefaultConfig())
	require.NoError(t, err)
	f.reducer = summary.NewReducer(summary.SummarizerFunc(func(ctx context.Context, prompt string) (string, error) {
		f.calls.Add(1)
		return fmt.Sprintf("summary of %d chars", len(prompt)), nil
	}), summary.WithStore(summaries), summary.WithLogger(quietLogger()))

	f.user = &models.User{FirstName: "Grace", LastName: "Hopper"}
	require.NoError(t, f.users.Create(context.Background(), f.user))
	return f
}

func (f *fixture) gateway() extraction.Gateway {
	return extraction.GatewayFunc(func(ctx context.Context, ref extraction.SourceRef) (string, error) {
		f.extractions.Add(1)
		data, err := storage.ReadAll(ctx, f.store, ref.Key)
		if err != nil {
			return "", err
		}
		return string(data), nil
	})
}

func (f *fixture) service(opts ...SummaryOption) *SummaryService {
	opts = append([]SummaryOption{WithLogger(quietLogger())}, opts...)
	return NewSummaryService(f.store, f.gateway(), f.reducer, f.users, f.records, opts...)
}

func textFile(name, content string) FileInput {
	return FileInput{Name: name, Reader: strings.NewReader(content), Size: int64(len(content))}
}
