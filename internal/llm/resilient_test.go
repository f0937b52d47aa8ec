package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func fastRetryConfig(retries int) *Config {
	return NewConfig(WithMaxRetries(retries), WithRetryDelay(time.Millisecond))
}

func TestResilientRetriesTransientErrors(t *testing.T) {
	inner := NewMockClient(t)
	inner.EXPECT().Generate(mock.Anything, "p", mock.Anything).
		Return(nil, NewLLMError(ErrCodeRateLimited, ErrMsgRateLimited)).Times(2)
	inner.EXPECT().Generate(mock.Anything, "p", mock.Anything).
		Return(&Response{Text: "ok"}, nil).Times(1)

	client := NewResilientClient(inner, fastRetryConfig(3))
	resp, err := client.Generate(context.Background(), "p")

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	inner.AssertNumberOfCalls(t, "Generate", 3)
}

func TestResilientStopsOnPermanentError(t *testing.T) {
	inner := NewMockClient(t)
	inner.EXPECT().Generate(mock.Anything, "p", mock.Anything).
		Return(nil, NewLLMError(ErrCodeInvalidAPIKey, ErrMsgInvalidAPIKey)).Times(1)

	client := NewResilientClient(inner, fastRetryConfig(3))
	_, err := client.Generate(context.Background(), "p")

	var llmErr LLMError
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, ErrCodeInvalidAPIKey, llmErr.Code)
	inner.AssertNumberOfCalls(t, "Generate", 1)
}

func TestResilientGivesUpAfterMaxRetries(t *testing.T) {
	inner := NewMockClient(t)
	inner.EXPECT().Chat(mock.Anything, mock.Anything, mock.Anything).
		Return(nil, NewLLMError(ErrCodeServerError, "still down"))

	client := NewResilientClient(inner, fastRetryConfig(2))
	_, err := client.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})

	var llmErr LLMError
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, ErrCodeServerError, llmErr.Code)
	inner.AssertNumberOfCalls(t, "Chat", 3)
}

func TestResilientRespectsCancellation(t *testing.T) {
	inner := NewMockClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	inner.EXPECT().Generate(mock.Anything, "p", mock.Anything).
		RunAndReturn(func(context.Context, string, ...CallOption) (*Response, error) {
			cancel()
			return nil, NewLLMError(ErrCodeServerError, ErrMsgServerError)
		})

	client := NewResilientClient(inner, NewConfig(WithMaxRetries(5), WithRetryDelay(time.Second)))
	start := time.Now()
	_, err := client.Generate(ctx, "p")

	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestResilientRateLimit(t *testing.T) {
	inner := NewMockClient(t)
	inner.EXPECT().Generate(mock.Anything, mock.Anything, mock.Anything).Return(&Response{Text: "ok"}, nil)

	client := NewResilientClient(inner, NewConfig(WithRateLimit(20, 1)))
	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.Generate(context.Background(), "p")
		require.NoError(t, err)
	}

	// 20/s且桶容量为1时，三次调用至少间隔两个50ms
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestResilientName(t *testing.T) {
	inner := NewMockClient(t)
	inner.EXPECT().Name().Return("inner-model")

	assert.Equal(t, "inner-model", NewResilientClient(inner, nil).Name())
}
