package synth

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

// Exports for testing.

// SpeechCreator exports speechCreator for mock implementations.
type SpeechCreator interface {
	CreateSpeech(ctx context.Context, req openai.CreateSpeechRequest) (openai.RawResponse, error)
}

// NewTestOpenAISpeech creates an OpenAISpeech with a mock client.
func NewTestOpenAISpeech(client SpeechCreator, opts ...OpenAIOption) *OpenAISpeech {
	return newOpenAISpeech(client, opts...)
}
