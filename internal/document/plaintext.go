package document

import (
	"fmt"
	"io"
	"os"
)

// PlainTextParser 纯文本解析器
type PlainTextParser struct{}

// NewPlainTextParser 创建纯文本解析器
func NewPlainTextParser() Parser {
	return &PlainTextParser{}
}

// Parse 读取纯文本文件
func (p *PlainTextParser) Parse(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open text file: %w", err)
	}
	defer file.Close()

	return p.ParseReader(file, filePath)
}

// ParseReader 原样读取文本
func (p *PlainTextParser) ParseReader(r io.Reader, _ string) (string, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read text: %w", err)
	}
	return string(content), nil
}
