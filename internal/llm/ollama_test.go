package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeGenerator struct {
	messages []llms.MessageContent
	options  llms.CallOptions
	resp     *llms.ContentResponse
	err      error
}

func (f *fakeGenerator) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, opt := range options {
		opt(&f.options)
	}
	return f.resp, f.err
}

func TestOllamaChat(t *testing.T) {
	fake := &fakeGenerator{resp: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: "local answer"}},
	}}
	client := newOllamaClient(fake, ModelLlama3, NewConfig(WithMaxTokens(256)))

	resp, err := client.Chat(context.Background(), []Message{
		{Role: RoleSystem, Content: "be brief"},
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
		{Role: RoleUser, Content: "summarize"},
	}, WithCallTemperature(0.1))

	require.NoError(t, err)
	assert.Equal(t, "local answer", resp.Text)
	assert.Equal(t, ModelLlama3, resp.ModelName)

	require.Len(t, fake.messages, 4)
	assert.Equal(t, llms.ChatMessageTypeSystem, fake.messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, fake.messages[1].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, fake.messages[2].Role)
	assert.Equal(t, 256, fake.options.MaxTokens)
	assert.InDelta(t, 0.1, fake.options.Temperature, 1e-6)
}

func TestOllamaGenerateErrors(t *testing.T) {
	client := newOllamaClient(&fakeGenerator{err: errors.New("connection refused")}, ModelLlama3, DefaultConfig())

	_, err := client.Generate(context.Background(), "hi")
	var llmErr LLMError
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, ErrCodeNetworkError, llmErr.Code)

	_, err = client.Generate(context.Background(), "")
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, ErrCodeEmptyPrompt, llmErr.Code)

	empty := newOllamaClient(&fakeGenerator{resp: &llms.ContentResponse{}}, ModelLlama3, DefaultConfig())
	_, err = empty.Generate(context.Background(), "hi")
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, ErrCodeEmptyResponse, llmErr.Code)
}
