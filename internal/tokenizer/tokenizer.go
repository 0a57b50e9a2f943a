package tokenizer

import "errors"

// Tokenizer defines the minimal interface used by the CLI and the API surface.
type Tokenizer interface {
	Encode(text string, maxLen int) ([]int, error)
	Decode(ids []int) (string, error)
}

// ErrInvalidLength is returned when Encode is called with a maximum length
// below 1. One slot is always needed for the begin-of-sequence id.
var ErrInvalidLength = errors.New("maximum length must be at least 1")
