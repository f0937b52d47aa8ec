package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// TestMockClientGenerate 测试使用Mock客户端的文本生成
func TestMockClientGenerate(t *testing.T) {
	mockClient := NewMockClient(t)

	expectedResp := &Response{
		Text:       "这是生成的测试文本",
		TokenCount: 5,
		ModelName:  "mock-model",
		FinishTime: time.Now(),
	}
	mockClient.EXPECT().Generate(mock.Anything, "测试提示词", mock.Anything).Return(expectedResp, nil)

	resp, err := mockClient.Generate(context.Background(), "测试提示词")

	assert.NoError(t, err)
	assert.Equal(t, expectedResp.Text, resp.Text)
	assert.Equal(t, expectedResp.TokenCount, resp.TokenCount)
}

// TestMockClientChat 测试使用Mock客户端的对话功能
func TestMockClientChat(t *testing.T) {
	mockClient := NewMockClient(t)

	messages := []Message{
		{Role: RoleUser, Content: "你好"},
		{Role: RoleAssistant, Content: "您好！有什么可以帮助您的？"},
		{Role: RoleUser, Content: "今天天气怎么样？"},
	}
	mockClient.EXPECT().Chat(mock.Anything, messages, mock.Anything).
		Return(&Response{Text: "今天天气晴朗，温度适宜。", ModelName: "mock-model"}, nil)

	resp, err := mockClient.Chat(context.Background(), messages)

	assert.NoError(t, err)
	assert.Equal(t, "今天天气晴朗，温度适宜。", resp.Text)
}

// TestMockClientErrors 测试错误处理
func TestMockClientErrors(t *testing.T) {
	mockClient := NewMockClient(t)

	mockClient.EXPECT().Generate(mock.Anything, "", mock.Anything).
		Return(nil, NewLLMError(ErrCodeEmptyPrompt, ErrMsgEmptyPrompt))

	_, err := mockClient.Generate(context.Background(), "")

	assert.Error(t, err)
	var llmErr LLMError
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, ErrCodeEmptyPrompt, llmErr.Code)
}

// TestMockClientRunAndReturn 测试按参数计算返回值
func TestMockClientRunAndReturn(t *testing.T) {
	mockClient := NewMockClient(t)

	mockClient.EXPECT().Generate(mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, prompt string, _ ...CallOption) (*Response, error) {
			return &Response{Text: "echo:" + prompt}, nil
		})

	resp, err := mockClient.Generate(context.Background(), "hello", WithCallMaxTokens(10))
	require.NoError(t, err)
	assert.Equal(t, "echo:hello", resp.Text)
}

// TestConfigOptions 测试配置选项
func TestConfigOptions(t *testing.T) {
	cfg := NewConfig(
		WithAPIKey("test-key"),
		WithBaseURL("https://example.com"),
		WithModel(ModelQwenPlus),
		WithTimeout(10*time.Second),
		WithMaxRetries(5),
		WithRetryDelay(time.Second),
		WithMaxTokens(2048),
		WithTemperature(0.7),
		WithTopP(0.8),
		WithRateLimit(2, 4),
	)

	assert.Equal(t, "test-key", cfg.APIKey)
	assert.Equal(t, "https://example.com", cfg.BaseURL)
	assert.Equal(t, ModelQwenPlus, cfg.Model)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.RetryDelay)
	assert.Equal(t, 2048, cfg.MaxTokens)
	assert.Equal(t, float32(0.7), cfg.Temperature)
	assert.Equal(t, float32(0.8), cfg.TopP)
	assert.Equal(t, 2.0, cfg.RateLimit)
	assert.Equal(t, 4, cfg.Burst)
}

// TestApplyCallOptions 测试调用选项覆盖客户端默认值
func TestApplyCallOptions(t *testing.T) {
	defaults := callDefaults{maxTokens: 1024, temperature: 0.3, topP: 0.9}

	opts := applyCallOptions(defaults, nil)
	require.NotNil(t, opts.MaxTokens)
	assert.Equal(t, 1024, *opts.MaxTokens)
	assert.Equal(t, float32(0.3), *opts.Temperature)

	opts = applyCallOptions(defaults, []CallOption{WithCallMaxTokens(200), WithCallTemperature(0)})
	assert.Equal(t, 200, *opts.MaxTokens)
	assert.Equal(t, float32(0), *opts.Temperature)
	assert.Equal(t, float32(0.9), *opts.TopP)

	opts = applyCallOptions(callDefaults{}, nil)
	assert.Nil(t, opts.MaxTokens)
	assert.Nil(t, opts.TopP)
}

// TestNewClientUnknownProvider 测试未注册的提供商
func TestNewClientUnknownProvider(t *testing.T) {
	_, err := NewClient("not-exist")
	require.Error(t, err)

	var llmErr LLMError
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, ErrCodeInvalidRequest, llmErr.Code)
}

// TestNewClientWrapsResilient 测试工厂返回的客户端带有重试包装
func TestNewClientWrapsResilient(t *testing.T) {
	client, err := NewClient("tongyi", WithAPIKey("key"))
	require.NoError(t, err)

	_, ok := client.(*ResilientClient)
	assert.True(t, ok)
	assert.Equal(t, ModelQwenTurbo, client.Name())

	_, err = NewClient("tongyi")
	assert.Error(t, err, "missing api key should be rejected")
}

// TestIsRetryable 测试可重试错误分类
func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limited", NewLLMError(ErrCodeRateLimited, ErrMsgRateLimited), true},
		{"server error", NewLLMError(ErrCodeServerError, ErrMsgServerError), true},
		{"timeout", NewLLMError(ErrCodeTimeout, ErrMsgTimeout), true},
		{"overload", NewLLMError(ErrCodeModelOverload, ErrMsgModelOverload), true},
		{"network", NewLLMError(ErrCodeNetworkError, ErrMsgNetworkError), true},
		{"bad key", NewLLMError(ErrCodeInvalidAPIKey, ErrMsgInvalidAPIKey), false},
		{"bad request", NewLLMError(ErrCodeInvalidRequest, ErrMsgInvalidRequest), false},
		{"plain error", assert.AnError, false},
		{"canceled", context.Canceled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

// TestWrapError 测试错误包装
func TestWrapError(t *testing.T) {
	original := NewLLMError(ErrCodeRateLimited, "slow down")
	assert.Equal(t, original, WrapError(original, ErrCodeServerError))

	wrapped := WrapError(context.DeadlineExceeded, ErrCodeServerError)
	assert.Equal(t, ErrCodeTimeout, wrapped.Code)

	wrapped = WrapError(assert.AnError, ErrCodeNetworkError)
	assert.Equal(t, ErrCodeNetworkError, wrapped.Code)
}

// TestCodeForStatus 测试HTTP状态码映射
func TestCodeForStatus(t *testing.T) {
	assert.Equal(t, ErrCodeInvalidAPIKey, CodeForStatus(401))
	assert.Equal(t, ErrCodeRateLimited, CodeForStatus(429))
	assert.Equal(t, ErrCodeServerError, CodeForStatus(500))
	assert.Equal(t, ErrCodeModelOverload, CodeForStatus(503))
	assert.Equal(t, ErrCodeTimeout, CodeForStatus(504))
	assert.Equal(t, ErrCodeInvalidRequest, CodeForStatus(400))
}
