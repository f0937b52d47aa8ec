package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestSplitGeminiMessages(t *testing.T) {
	system, history, last, err := splitGeminiMessages([]Message{
		{Role: RoleSystem, Content: "you summarize"},
		{Role: RoleUser, Content: "first"},
		{Role: RoleAssistant, Content: "reply"},
		{Role: RoleUser, Content: "second"},
	})

	require.NoError(t, err)
	assert.Equal(t, "you summarize", system)
	assert.Equal(t, "second", last)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "model", history[1].Role)
	assert.Equal(t, genai.Text("reply"), history[1].Parts[0])
}

func TestSplitGeminiMessagesInvalid(t *testing.T) {
	_, _, _, err := splitGeminiMessages([]Message{{Role: RoleSystem, Content: "only system"}})
	assert.Error(t, err)

	_, _, _, err = splitGeminiMessages([]Message{
		{Role: RoleUser, Content: "q"},
		{Role: RoleAssistant, Content: "a"},
	})
	assert.Error(t, err)
}

func TestGeminiText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("Hello, "), genai.Text("world")}},
		}},
	}
	assert.Equal(t, "Hello, world", geminiText(resp))
	assert.Equal(t, "", geminiText(&genai.GenerateContentResponse{}))
	assert.Equal(t, "", geminiText(nil))
}

func TestClassifyGeminiError(t *testing.T) {
	var llmErr LLMError

	err := classifyGeminiError(&googleapi.Error{Code: 429, Message: "quota"})
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, ErrCodeRateLimited, llmErr.Code)

	err = classifyGeminiError(context.DeadlineExceeded)
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, ErrCodeTimeout, llmErr.Code)

	err = classifyGeminiError(errors.New("unexpected"))
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, ErrCodeServerError, llmErr.Code)
}

func TestGeminiRequiresAPIKey(t *testing.T) {
	_, err := NewGeminiClient(DefaultConfig())
	assert.Error(t, err)
}
