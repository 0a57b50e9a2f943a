package stream

import (
	"regexp"
	"strings"
)

// Diagnostic lines some native backends leak into the token stream. A
// fragment is dropped only when it consists of nothing but one of these.
var noisePrefixes = []string{
	"Buffer requirements not found for tensor",
}

// A bare memory-address-shaped token: 0x followed by at least eight hex
// digits, with nothing else around it. Short hex runs inside real text are
// legitimate output.
var hexAddress = regexp.MustCompile(`^0x[0-9a-fA-F]{8,}$`)

// IsEngineNoise reports whether a completed text fragment is internal
// diagnostic leakage rather than model output. It is a pure predicate and is
// only meaningful after boundary-safe decoding; partial byte sequences
// cannot be pattern-matched reliably.
func IsEngineNoise(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	for _, prefix := range noisePrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return hexAddress.MatchString(trimmed)
}
