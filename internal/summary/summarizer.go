package summary

import (
	"context"
	"strings"

	"github.com/fyerfyer/doc-summary-system/internal/llm"
)

// Summarizer 远程摘要调用
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// SummarizerFunc 函数适配器
type SummarizerFunc func(ctx context.Context, prompt string) (string, error)

// Summarize 调用函数本身
func (f SummarizerFunc) Summarize(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// LLMSummarizer 基于大模型客户端的摘要实现
type LLMSummarizer struct {
	client  llm.Client
	options []llm.CallOption
}

// NewLLMSummarizer 创建大模型摘要器
func NewLLMSummarizer(client llm.Client, options ...llm.CallOption) *LLMSummarizer {
	return &LLMSummarizer{client: client, options: options}
}

// Summarize 发送提示词并返回去除首尾空白的文本
func (s *LLMSummarizer) Summarize(ctx context.Context, prompt string) (string, error) {
	resp, err := s.client.Generate(ctx, prompt, s.options...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}
