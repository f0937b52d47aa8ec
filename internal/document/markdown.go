package document

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// MarkdownParser Markdown文档解析器
// 先渲染为HTML，再按块级元素取文本
type MarkdownParser struct{}

// NewMarkdownParser 创建Markdown解析器
func NewMarkdownParser() Parser {
	return &MarkdownParser{}
}

// Parse 解析Markdown文件
func (p *MarkdownParser) Parse(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open markdown file: %w", err)
	}
	defer file.Close()

	return p.ParseReader(file, filePath)
}

// ParseReader 从Reader解析Markdown内容
func (p *MarkdownParser) ParseReader(r io.Reader, filename string) (string, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read markdown content: %w", err)
	}

	mdParser := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	rendered := markdown.Render(mdParser.Parse(content), renderer)

	return htmlToText(rendered)
}

// htmlToText 提取HTML中块级元素的文本，每块一行
func htmlToText(htmlContent []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse rendered html: %w", err)
	}

	var lines []string
	doc.Find("h1, h2, h3, h4, h5, h6, p, li, pre, blockquote, td, th").Each(func(_ int, s *goquery.Selection) {
		// 嵌套的块只取最内层，避免重复
		if s.Find("p, li").Length() > 0 {
			return
		}
		text := strings.Join(strings.Fields(s.Text()), " ")
		if text != "" {
			lines = append(lines, text)
		}
	})

	if len(lines) == 0 {
		return strings.Join(strings.Fields(doc.Text()), " "), nil
	}
	return strings.Join(lines, "\n"), nil
}
