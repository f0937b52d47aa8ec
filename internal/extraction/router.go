package extraction

import (
	"context"
	"fmt"
)

// Router 按媒体类型把请求分发到对应的提取器
type Router struct {
	ocr         Gateway // PDF和图片
	transcriber Gateway // 音频和视频
	local       Gateway // 文本和Office文档
}

// NewRouter 创建分发器，未配置的提取器对应的类型返回ErrUnsupportedMedia
// ocr为nil时PDF回退到本地解析
func NewRouter(ocr, transcriber, local Gateway) *Router {
	return &Router{ocr: ocr, transcriber: transcriber, local: local}
}

// Extract 提取文本
func (r *Router) Extract(ctx context.Context, ref SourceRef) (string, error) {
	kind := DetectMediaKind(ref.FileName())

	var g Gateway
	switch {
	case kind == MediaDocument && r.ocr == nil:
		g = r.local
	case kind.NeedsOCR():
		g = r.ocr
	case kind.NeedsTranscription():
		g = r.transcriber
	case kind == MediaText:
		g = r.local
	}
	if g == nil {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMedia, ref.FileName())
	}
	return g.Extract(ctx, ref)
}
