// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// LLMService writes answers from retrieved passages. It is optional: with
// no LLM configured, ask returns the passages without an answer.
// Adapters exist for Gemini, OpenAI, Anthropic and Ollama.
type LLMService interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ModelName is shown next to answers and in settings.
	ModelName() string

	// Ping makes the cheapest request the provider allows.
	Ping(ctx context.Context) error

	Close() error
}

// GenerateOptions tunes a single completion. Zero values fall back to the
// adapter's configured model settings.
type GenerateOptions struct {
	MaxTokens    int
	Temperature  float64
	SystemPrompt string   // sent as the provider's system instruction
	StopWords    []string // generation ends at the first match
}

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of a conversation; Role is one of the Role constants.
type ChatMessage struct {
	Role    string
	Content string
}

// ChatOptions tunes a chat completion, with the same zero-value rule as
// GenerateOptions.
type ChatOptions struct {
	MaxTokens   int
	Temperature float64
}
