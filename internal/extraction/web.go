package extraction

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

// 正文候选选择器，按优先级排列
var contentSelectors = []string{
	"main",
	"article",
	".content",
	"#content",
	".main-content",
	"#main-content",
	".post-content",
	".entry-content",
	"body",
}

// 抓取前移除的噪声元素
const noiseSelector = "script, style, noscript, nav, header, footer, aside, .advertisement, .ads, .sidebar"

const defaultUserAgent = "Mozilla/5.0 (compatible; doc-summary-system/1.0)"

// WebConfig 网页抓取配置
type WebConfig struct {
	Timeout   time.Duration
	RateLimit float64 // 每秒请求数
	MinLength int     // 正文最少字符数
	UserAgent string
}

// WebExtractor 抓取网页正文
type WebExtractor struct {
	client    *http.Client
	limiter   *rate.Limiter
	minLength int
	userAgent string
}

// NewWebExtractor 创建网页提取器
func NewWebExtractor(cfg WebConfig) *WebExtractor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 2
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = 100
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	return &WebExtractor{
		client:    &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		minLength: cfg.MinLength,
		userAgent: cfg.UserAgent,
	}
}

// ExtractURL 下载页面并提取正文
func (w *WebExtractor) ExtractURL(ctx context.Context, url string) (string, error) {
	if err := w.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", w.userAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", url, err)
	}

	text := MainContent(doc)
	if len([]rune(text)) < w.minLength {
		return "", fmt.Errorf("%w: page content shorter than %d characters", ErrNoContent, w.minLength)
	}
	return text, nil
}

// Extract 以ref.Key作为URL抓取
func (w *WebExtractor) Extract(ctx context.Context, ref SourceRef) (string, error) {
	return w.ExtractURL(ctx, ref.Key)
}

// MainContent 返回第一个非空候选区域的文本，空白压缩为单个空格
func MainContent(doc *goquery.Document) string {
	doc.Find(noiseSelector).Remove()

	for _, selector := range contentSelectors {
		var parts []string
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			if t := cleanText(s.Text()); t != "" {
				parts = append(parts, t)
			}
		})
		if len(parts) > 0 {
			return strings.Join(parts, "\n")
		}
	}
	return ""
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
