package document

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
)

// ErrUnsupportedType 不支持的文档类型
var ErrUnsupportedType = errors.New("unsupported document type")

// Parser 文档解析器接口
// 负责将本地可解析的文档转换为纯文本
type Parser interface {
	// Parse 解析文件路径指向的文档
	Parse(filePath string) (string, error)

	// ParseReader 从Reader解析文档，filename用于判断类型
	ParseReader(r io.Reader, filename string) (string, error)
}

// ContentType 文档内容类型
type ContentType string

const (
	PDF       ContentType = "pdf"
	Markdown  ContentType = "markdown"
	PlainText ContentType = "plaintext"
	Office    ContentType = "office" // docx/doc/odt/rtf/html等，交给docconv处理
	Unknown   ContentType = "unknown"
)

// ParserFactory 根据文件名选择解析器
func ParserFactory(filename string) (Parser, error) {
	switch DetectContentType(filename) {
	case PDF:
		return NewPDFParser(), nil
	case Markdown:
		return NewMarkdownParser(), nil
	case PlainText:
		return NewPlainTextParser(), nil
	case Office:
		return NewOfficeParser(), nil
	default:
		return nil, ErrUnsupportedType
	}
}

// DetectContentType 根据扩展名检测内容类型
func DetectContentType(filename string) ContentType {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return PDF
	case ".md", ".markdown":
		return Markdown
	case ".txt", ".text", ".log", ".csv":
		return PlainText
	case ".docx", ".doc", ".odt", ".rtf", ".html", ".htm", ".pages", ".xml":
		return Office
	default:
		return Unknown
	}
}

// IsLocallyParsable 判断文件能否在本地解析，无需远程OCR
func IsLocallyParsable(filename string) bool {
	ct := DetectContentType(filename)
	return ct == Markdown || ct == PlainText || ct == Office
}
