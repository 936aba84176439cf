package responder

import (
	"context"
	"errors"
	"fmt"

	"github.com/fogfish/opts"
	"github.com/openai/openai-go"
)

const defaultInstructions = "You are the query handler of a multi-agent system. " +
	"Answer the user's query directly and concisely. When the query concerns weather, " +
	"data analysis, programming or system status, respond with practical guidance."

var (
	// WithClient replaces the OpenAI client, mostly useful to point the
	// responder at a different base URL or inject request middleware.
	WithClient = opts.ForName[OpenAI, *openai.Client]("client")
	// WithModel selects the chat completion model.
	WithModel = opts.ForName[OpenAI, string]("model")
	// WithInstructions overrides the system prompt.
	WithInstructions = opts.ForName[OpenAI, string]("instructions")
)

// OpenAI answers each query with a single chat completion round trip. The
// zero options construction reads its API key from the environment, the way
// the openai client does by default.
type OpenAI struct {
	client       *openai.Client
	model        string
	instructions string
}

func NewOpenAI(options ...opts.Option[OpenAI]) *OpenAI {
	r := &OpenAI{
		client:       openai.NewClient(),
		model:        openai.ChatModelGPT4oMini,
		instructions: defaultInstructions,
	}
	if err := opts.Apply(r, options); err != nil {
		panic(err)
	}
	return r
}

func (r *OpenAI) Respond(ctx context.Context, query string) (string, error) {
	chat, err := r.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(r.instructions),
			openai.UserMessage(query),
		}),
		Model:       openai.F(r.model),
		N:           openai.Int(1),
		Temperature: openai.Float(0.1),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(chat.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return chat.Choices[0].Message.Content, nil
}
