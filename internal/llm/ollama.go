package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

const defaultOllamaURL = "http://localhost:11434"

// contentGenerator langchaingo模型中本包用到的部分
type contentGenerator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// OllamaClient 本地Ollama模型客户端，通过langchaingo调用
type OllamaClient struct {
	llm      contentGenerator
	model    string
	timeout  time.Duration
	defaults callDefaults
}

// NewOllamaClient 创建Ollama客户端
func NewOllamaClient(cfg *Config) (Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	model := cfg.Model
	if model == "" {
		model = ModelLlama3
	}
	serverURL := cfg.BaseURL
	if serverURL == "" {
		serverURL = defaultOllamaURL
	}

	llm, err := ollama.New(ollama.WithModel(model), ollama.WithServerURL(serverURL))
	if err != nil {
		return nil, NewLLMError(ErrCodeNetworkError, fmt.Sprintf("failed to initialize ollama: %v", err))
	}

	return newOllamaClient(llm, model, cfg), nil
}

func newOllamaClient(llm contentGenerator, model string, cfg *Config) *OllamaClient {
	return &OllamaClient{
		llm:      llm,
		model:    model,
		timeout:  cfg.Timeout,
		defaults: defaultsFrom(cfg),
	}
}

// Name 返回模型名称
func (c *OllamaClient) Name() string {
	return c.model
}

// Generate 根据提示词生成文本
func (c *OllamaClient) Generate(ctx context.Context, prompt string, options ...CallOption) (*Response, error) {
	if prompt == "" {
		return nil, NewLLMError(ErrCodeEmptyPrompt, ErrMsgEmptyPrompt)
	}
	return c.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}}, options...)
}

// Chat 进行多轮对话
func (c *OllamaClient) Chat(ctx context.Context, messages []Message, options ...CallOption) (*Response, error) {
	if len(messages) == 0 {
		return nil, NewLLMError(ErrCodeInvalidRequest, "messages cannot be empty")
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	content := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		content = append(content, llms.TextParts(ollamaRole(msg.Role), msg.Content))
	}

	resp, err := c.llm.GenerateContent(ctx, content, ollamaCallOptions(applyCallOptions(c.defaults, options))...)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, WrapError(err, ErrCodeTimeout)
		}
		return nil, NewLLMError(ErrCodeNetworkError, fmt.Sprintf("ollama generate: %v", err))
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return nil, NewLLMError(ErrCodeEmptyResponse, ErrMsgEmptyResponse)
	}

	return &Response{
		Text:       resp.Choices[0].Content,
		ModelName:  c.model,
		FinishTime: time.Now(),
	}, nil
}

func ollamaRole(role MessageRole) llms.ChatMessageType {
	switch role {
	case RoleSystem:
		return llms.ChatMessageTypeSystem
	case RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}

func ollamaCallOptions(opts CallOptions) []llms.CallOption {
	var out []llms.CallOption
	if opts.MaxTokens != nil {
		out = append(out, llms.WithMaxTokens(*opts.MaxTokens))
	}
	if opts.Temperature != nil {
		out = append(out, llms.WithTemperature(float64(*opts.Temperature)))
	}
	if opts.TopP != nil {
		out = append(out, llms.WithTopP(float64(*opts.TopP)))
	}
	return out
}

func init() {
	RegisterClient("ollama", NewOllamaClient)
}
