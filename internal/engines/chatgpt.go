package engines

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/geotrack/visibility-tracker/internal/models"
)

const (
	defaultChatGPTModel = "gpt-4o-mini"
	defaultTemperature  = 0.7
	defaultMaxTokens    = 3000
)

// ChatGPTEngine queries the OpenAI chat completions API.
type ChatGPTEngine struct {
	client *openai.Client
	model  string
}

var _ Engine = (*ChatGPTEngine)(nil)

// NewChatGPTEngine creates a ChatGPT engine client. The model falls back to a
// cost-effective default when empty.
func NewChatGPTEngine(apiKey, model string) (*ChatGPTEngine, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if model == "" {
		model = defaultChatGPTModel
	}

	return &ChatGPTEngine{
		client: openai.NewClient(apiKey),
		model:  model,
	}, nil
}

func (e *ChatGPTEngine) Name() string {
	return models.EngineChatGPT
}

// Query sends the prompt as a single user message and returns the first choice.
func (e *ChatGPTEngine) Query(ctx context.Context, prompt string, opts QueryOptions) (*Response, error) {
	model := opts.Model
	if model == "" {
		model = e.model
	}
	temperature := opts.Temperature
	if temperature == 0 {
		temperature = defaultTemperature
	}
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	logrus.Debugf("Querying ChatGPT (model=%s, prompt_len=%d)", model, len(prompt))
	start := time.Now()

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from chatgpt")
	}
	choice := resp.Choices[0]

	logrus.Debugf("ChatGPT query completed in %v (%d tokens)", time.Since(start), resp.Usage.TotalTokens)

	return &Response{
		Content:      choice.Message.Content,
		Model:        resp.Model,
		FinishReason: string(choice.FinishReason),
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}
