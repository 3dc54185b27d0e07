package translate

import "errors"

// Sentinel errors for translation.
var (
	// ErrEmptyResponse indicates the provider answered without a translation.
	ErrEmptyResponse = errors.New("translation response is empty")

	// ErrUnsupportedProvider indicates an unknown provider name in the config.
	ErrUnsupportedProvider = errors.New("unsupported translation provider")

	// ErrAPIKeyMissing indicates the provider was built without credentials.
	ErrAPIKeyMissing = errors.New("translation API key not set")
)
