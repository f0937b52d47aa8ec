package extraction

import (
	"context"
	"fmt"

	"github.com/fyerfyer/doc-summary-system/internal/document"
	"github.com/fyerfyer/doc-summary-system/pkg/storage"
)

// LocalExtractor 从存储读取文件并用本地解析器提取文本
// 用于文本、Markdown和Office文档，也可以在没有OCR服务时解析PDF
type LocalExtractor struct {
	store storage.Storage
	opts  options
}

// NewLocalExtractor 创建本地提取器
func NewLocalExtractor(store storage.Storage, opts ...Option) *LocalExtractor {
	return &LocalExtractor{store: store, opts: buildOptions(opts)}
}

// Extract 解析存储中的文件
func (e *LocalExtractor) Extract(ctx context.Context, ref SourceRef) (string, error) {
	parser, err := document.ParserFactory(ref.FileName())
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMedia, ref.FileName())
	}

	rc, err := e.store.Get(ctx, ref.Key)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", ref.Key, err)
	}
	defer rc.Close()

	text, err := parser.ParseReader(rc, ref.FileName())
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", ref.FileName(), err)
	}

	e.opts.logger.WithField("key", ref.Key).WithField("length", len(text)).Debug("Parsed document locally")
	return text, nil
}
