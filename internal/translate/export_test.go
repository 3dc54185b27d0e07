package translate

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

// Exports for testing.

// ChatCompleter exports chatCompleter for mock implementations.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// NewTestLLMTranslator creates an LLMTranslator with a mock client.
func NewTestLLMTranslator(client ChatCompleter, opts ...LLMOption) *LLMTranslator {
	return newLLMTranslator(client, opts...)
}

// WithoutKey marks t as built without credentials.
func WithoutKey(t *LLMTranslator) *LLMTranslator {
	t.keyMissing = true
	return t
}

// SystemPrompt exports systemPrompt for testing.
var SystemPrompt = systemPrompt
