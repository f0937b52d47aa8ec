package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// 通义千问API端点
	defaultTongyiEndpoint = "https://dashscope.aliyuncs.com/api/v1/services/aigc/text-generation/generation"
)

// TongyiClient 通义千问大模型客户端
// 只负责单次HTTP调用，重试和限流由ResilientClient处理
type TongyiClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	defaults   callDefaults
}

// NewTongyiClient 创建通义千问客户端
func NewTongyiClient(cfg *Config) (Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.APIKey == "" {
		return nil, NewLLMError(ErrCodeInvalidAPIKey, ErrMsgInvalidAPIKey)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultTongyiEndpoint
	}
	model := cfg.Model
	if model == "" {
		model = ModelQwenTurbo
	}

	return &TongyiClient{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		defaults:   defaultsFrom(cfg),
	}, nil
}

// Name 返回模型名称
func (c *TongyiClient) Name() string {
	return c.model
}

// Generate 根据提示词生成文本，复用Chat
func (c *TongyiClient) Generate(ctx context.Context, prompt string, options ...CallOption) (*Response, error) {
	if prompt == "" {
		return nil, NewLLMError(ErrCodeEmptyPrompt, ErrMsgEmptyPrompt)
	}
	return c.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}}, options...)
}

// Chat 进行多轮对话
func (c *TongyiClient) Chat(ctx context.Context, messages []Message, options ...CallOption) (*Response, error) {
	if len(messages) == 0 {
		return nil, NewLLMError(ErrCodeInvalidRequest, "messages cannot be empty")
	}

	opts := applyCallOptions(c.defaults, options)
	req := &tongyiRequest{
		Model: c.model,
		Input: tongyiRequestInput{Messages: messages},
		Parameters: &tongyiParameters{
			ResultFormat: "message",
			MaxTokens:    opts.MaxTokens,
			Temperature:  opts.Temperature,
			TopP:         opts.TopP,
		},
	}

	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	return c.toResponse(resp)
}

// send 发送一次请求并解析响应
func (c *TongyiClient) send(ctx context.Context, req *tongyiRequest) (*tongyiResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, NewLLMError(ErrCodeInvalidRequest, fmt.Sprintf("failed to marshal request: %v", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, NewLLMError(ErrCodeInvalidRequest, fmt.Sprintf("failed to create request: %v", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
			return nil, WrapError(err, ErrCodeTimeout)
		}
		return nil, NewLLMError(ErrCodeNetworkError, fmt.Sprintf("request failed: %v", err))
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, NewLLMError(ErrCodeNetworkError, fmt.Sprintf("failed to read response: %v", err))
	}

	if httpResp.StatusCode != http.StatusOK {
		var errResp struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		msg := fmt.Sprintf("API error (status %d)", httpResp.StatusCode)
		if jsonErr := json.Unmarshal(data, &errResp); jsonErr == nil && errResp.Message != "" {
			msg = fmt.Sprintf("API error: %s (%s)", errResp.Message, errResp.Code)
		}
		return nil, NewLLMError(CodeForStatus(httpResp.StatusCode), msg)
	}

	var resp tongyiResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, NewLLMError(ErrCodeServerError, fmt.Sprintf("failed to parse response: %v", err))
	}
	if resp.Code != "" {
		return nil, NewLLMError(ErrCodeServerError,
			fmt.Sprintf("API error: %s (%s)", resp.Message, resp.Code))
	}
	return &resp, nil
}

// toResponse 兼容text和message两种返回格式
func (c *TongyiClient) toResponse(resp *tongyiResponse) (*Response, error) {
	result := &Response{
		ModelName:  c.model,
		TokenCount: resp.Usage.TotalTokens,
		FinishTime: time.Now(),
	}

	switch {
	case resp.Output.Text != nil:
		result.Text = *resp.Output.Text
	case len(resp.Output.Choices) > 0:
		result.Text = resp.Output.Choices[0].Message.Content
	default:
		return nil, NewLLMError(ErrCodeEmptyResponse, ErrMsgEmptyResponse)
	}
	return result, nil
}

func init() {
	RegisterClient("tongyi", NewTongyiClient)
}
