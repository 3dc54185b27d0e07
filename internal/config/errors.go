package config

import "errors"

// Sentinel errors for configuration.
var (
	// ErrInvalid indicates a config file that cannot be parsed or holds
	// out-of-range values.
	ErrInvalid = errors.New("invalid configuration")

	// ErrExists indicates config init would overwrite an existing file.
	ErrExists = errors.New("config file already exists")
)
