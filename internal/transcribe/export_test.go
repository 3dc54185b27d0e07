package transcribe

// Exports for testing.

// AudioTranscriber exports audioTranscriber for testing.
type AudioTranscriber = audioTranscriber

// NewTestTranscriber creates an OpenAITranscriber around a mock client.
func NewTestTranscriber(client AudioTranscriber, opts ...TranscriberOption) *OpenAITranscriber {
	return newOpenAITranscriber(client, opts...)
}
