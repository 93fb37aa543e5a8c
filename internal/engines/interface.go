// Package engines holds the clients for the AI answer engines that tracking
// runs query. Engines are constructed explicitly and injected into the
// tracking service; there is no package-level client state.
package engines

import "context"

// QueryOptions tunes one engine query. Zero values fall back to the engine's
// defaults.
type QueryOptions struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// Usage reports token consumption for one query.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the text answer produced by an engine.
type Response struct {
	Content      string `json:"content"`
	Model        string `json:"model"`
	FinishReason string `json:"finish_reason"`
	Usage        Usage  `json:"usage"`
}

// Engine is one AI answer backend.
type Engine interface {
	Name() string
	Query(ctx context.Context, prompt string, opts QueryOptions) (*Response, error)
}

// Registry maps engine identifiers to their clients. Identifiers without an
// entry are known but not implemented.
type Registry map[string]Engine
