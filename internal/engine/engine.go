// Package engine defines the boundary toward the native inference collaborator:
// a request goes in, and either a complete result or a sequence of raw byte
// fragments terminated by a final marker or an error comes back.
package engine

import "context"

// Fragment is one unit of raw byte output from a streaming generation backend.
// Bytes need not align with UTF-8 character boundaries. Final marks the last
// fragment of the stream; Err carries an out-of-band engine error.
type Fragment struct {
	Bytes []byte
	Final bool
	Err   string
}

// FragmentFunc receives fragments from the engine's background execution
// context. Implementations must tolerate being called from a different
// goroutine than the one that called Submit.
type FragmentFunc func(Fragment)

// Engine is the opaque inference collaborator. Submit starts one generation
// and returns once the request is accepted; fragments arrive asynchronously.
// Cancel is cooperative and best-effort: the engine may keep running briefly
// after it returns.
type Engine interface {
	Submit(ctx context.Context, req *Request, emit FragmentFunc) error
	Cancel()
	Close() error
}

// InputSignature is the closed set of model input layouts, resolved once when
// an engine is constructed rather than re-derived per call.
type InputSignature int

const (
	SignatureText InputSignature = iota
	SignatureTextVision
	SignatureTextVisionAudio
)

func (s InputSignature) String() string {
	switch s {
	case SignatureText:
		return "text"
	case SignatureTextVision:
		return "text+vision"
	case SignatureTextVisionAudio:
		return "text+vision+audio"
	default:
		return "unknown"
	}
}
