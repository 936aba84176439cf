package responder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestServer(t *testing.T, handler http.HandlerFunc) *OpenAI {
	server := httptest.NewServer(handler)
	t.Cleanup(func() {
		server.Close()
	})

	client := openai.NewClient(
		option.WithBaseURL(server.URL+"/v1"),
		option.WithAPIKey("test-key"),
		option.WithMaxRetries(0),
	)
	return NewOpenAI(WithClient(client))
}

func TestNewOpenAI(t *testing.T) {
	r := NewOpenAI()
	require.NotNil(t, r)
	assert.NotNil(t, r.client)
	assert.Equal(t, openai.ChatModelGPT4oMini, r.model)
	assert.Equal(t, defaultInstructions, r.instructions)
}

func TestNewOpenAIOptions(t *testing.T) {
	r := NewOpenAI(
		WithModel(openai.ChatModelGPT4o),
		WithInstructions("Answer in haiku."),
	)
	assert.Equal(t, openai.ChatModelGPT4o, r.model)
	assert.Equal(t, "Answer in haiku.", r.instructions)
}

func TestOpenAIRespond(t *testing.T) {
	mockResp := openai.ChatCompletion{
		ID: "test-id",
		Choices: []openai.ChatCompletionChoice{
			{
				Message: openai.ChatCompletionMessage{
					Content: "Partly cloudy, 21 degrees.",
				},
			},
		},
	}

	r := setupTestServer(t, func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "/chat/completions", req.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(mockResp)
	})

	got, err := r.Respond(context.Background(), "what is the weather like?")
	require.NoError(t, err)
	assert.Equal(t, "Partly cloudy, 21 degrees.", got)
}

func TestOpenAIRespondNoChoices(t *testing.T) {
	r := setupTestServer(t, func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(openai.ChatCompletion{ID: "test-id"})
	})

	_, err := r.Respond(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestOpenAIRespondServerError(t *testing.T) {
	r := setupTestServer(t, func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, `{"error": {"message": "boom"}}`, http.StatusInternalServerError)
	})

	_, err := r.Respond(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat completion failed")
}
