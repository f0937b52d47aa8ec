package document

import (
	"fmt"
	"io"
	"strings"

	"code.sajari.com/docconv"
)

// OfficeParser 使用docconv解析docx/doc/odt/rtf/html等格式
type OfficeParser struct {
	readability bool // HTML是否只保留正文，默认关闭
}

// NewOfficeParser 创建Office文档解析器
func NewOfficeParser() Parser {
	return &OfficeParser{}
}

// Parse 解析文件
func (p *OfficeParser) Parse(filePath string) (string, error) {
	resp, err := docconv.ConvertPath(filePath)
	if err != nil {
		return "", fmt.Errorf("docconv convert %s: %w", filePath, err)
	}
	return strings.TrimSpace(resp.Body), nil
}

// ParseReader 根据文件名推断MIME类型后转换
func (p *OfficeParser) ParseReader(r io.Reader, filename string) (string, error) {
	mimeType := docconv.MimeTypeByExtension(filename)
	resp, err := docconv.Convert(r, mimeType, p.readability)
	if err != nil {
		return "", fmt.Errorf("docconv convert %s (%s): %w", filename, mimeType, err)
	}
	return strings.TrimSpace(resp.Body), nil
}
