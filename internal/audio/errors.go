package audio

import "errors"

// ErrChunkingFailed indicates probing or cutting failed during chunking.
var ErrChunkingFailed = errors.New("audio chunking failed")

// ErrInvalidOverlap indicates the chunk overlap is not shorter than the chunk.
var ErrInvalidOverlap = errors.New("invalid chunk overlap")
