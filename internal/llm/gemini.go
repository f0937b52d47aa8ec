package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GeminiClient Google Gemini客户端
// gemini-1.5-flash的上下文接近一百万token，适合单次调用处理长文档
type GeminiClient struct {
	client   *genai.Client
	model    string
	timeout  time.Duration
	defaults callDefaults
}

// NewGeminiClient 创建Gemini客户端
func NewGeminiClient(cfg *Config) (Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.APIKey == "" {
		return nil, NewLLMError(ErrCodeInvalidAPIKey, ErrMsgInvalidAPIKey)
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}

	client, err := genai.NewClient(context.Background(), opts...)
	if err != nil {
		return nil, NewLLMError(ErrCodeNetworkError, fmt.Sprintf("failed to create gemini client: %v", err))
	}

	model := cfg.Model
	if model == "" {
		model = ModelGeminiFlash
	}

	return &GeminiClient{
		client:   client,
		model:    model,
		timeout:  cfg.Timeout,
		defaults: defaultsFrom(cfg),
	}, nil
}

// Name 返回模型名称
func (c *GeminiClient) Name() string {
	return c.model
}

// Close 释放底层连接
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// Generate 根据提示词生成文本
func (c *GeminiClient) Generate(ctx context.Context, prompt string, options ...CallOption) (*Response, error) {
	if prompt == "" {
		return nil, NewLLMError(ErrCodeEmptyPrompt, ErrMsgEmptyPrompt)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	m := c.generativeModel(options)
	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, classifyGeminiError(err)
	}
	return c.toResponse(resp)
}

// Chat 进行多轮对话
// system消息转为SystemInstruction，最后一条消息作为本轮输入，其余作为历史
func (c *GeminiClient) Chat(ctx context.Context, messages []Message, options ...CallOption) (*Response, error) {
	system, history, last, err := splitGeminiMessages(messages)
	if err != nil {
		return nil, err
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	m := c.generativeModel(options)
	if system != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	cs := m.StartChat()
	cs.History = history
	resp, err := cs.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return nil, classifyGeminiError(err)
	}
	return c.toResponse(resp)
}

func (c *GeminiClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *GeminiClient) generativeModel(options []CallOption) *genai.GenerativeModel {
	opts := applyCallOptions(c.defaults, options)
	m := c.client.GenerativeModel(c.model)
	if opts.MaxTokens != nil {
		m.SetMaxOutputTokens(int32(*opts.MaxTokens))
	}
	if opts.Temperature != nil {
		m.SetTemperature(*opts.Temperature)
	}
	if opts.TopP != nil {
		m.SetTopP(*opts.TopP)
	}
	return m
}

func (c *GeminiClient) toResponse(resp *genai.GenerateContentResponse) (*Response, error) {
	text := geminiText(resp)
	if text == "" {
		return nil, NewLLMError(ErrCodeEmptyResponse, ErrMsgEmptyResponse)
	}

	result := &Response{
		Text:       text,
		ModelName:  c.model,
		FinishTime: time.Now(),
	}
	if resp.UsageMetadata != nil {
		result.TokenCount = int(resp.UsageMetadata.TotalTokenCount)
	}
	return result, nil
}

// geminiText 拼接第一个候选结果中的文本片段
func geminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

// splitGeminiMessages 将通用消息拆分为系统指令、历史和本轮输入
func splitGeminiMessages(messages []Message) (string, []*genai.Content, string, error) {
	var system []string
	var rest []Message
	for _, msg := range messages {
		if msg.Role == RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		rest = append(rest, msg)
	}

	if len(rest) == 0 {
		return "", nil, "", NewLLMError(ErrCodeInvalidRequest, "messages cannot be empty")
	}
	last := rest[len(rest)-1]
	if last.Role != RoleUser {
		return "", nil, "", NewLLMError(ErrCodeInvalidRequest, "last message must come from the user")
	}

	history := make([]*genai.Content, 0, len(rest)-1)
	for _, msg := range rest[:len(rest)-1] {
		role := "user"
		if msg.Role == RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}

	return strings.Join(system, "\n"), history, last.Content, nil
}

// classifyGeminiError 将Gemini错误映射为LLMError
func classifyGeminiError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return NewLLMError(CodeForStatus(apiErr.Code), fmt.Sprintf("gemini API error: %s", apiErr.Message))
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return WrapError(err, ErrCodeTimeout)
	}

	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return NewLLMError(ErrCodeContentFilter, ErrMsgContentFilter)
	}
	return NewLLMError(ErrCodeServerError, fmt.Sprintf("gemini generate: %v", err))
}

func init() {
	RegisterClient("gemini", NewGeminiClient)
}
