package engine

import (
	"context"
	"sync"
	"time"
)

// Loopback is a deterministic in-process engine used for testing and for
// driving the streaming pipeline without a native backend. It chunks a reply
// into raw byte fragments on a background goroutine, deliberately ignoring
// character boundaries the way a real backend does.
type Loopback struct {
	// Reply overrides the echoed text. When empty, the request's text
	// parts are streamed back.
	Reply string
	// ChunkSize is the fragment payload size in bytes (default 3, small
	// enough to split multi-byte characters).
	ChunkSize int
	// Delay is an optional pause between fragments.
	Delay time.Duration
	// FailWith, when set, is delivered as an out-of-band error after the
	// first fragment.
	FailWith string
	// Mute suppresses the terminal marker, leaving the stream open.
	Mute bool

	mu        sync.Mutex
	cancelled chan struct{}
}

func (e *Loopback) Signature() InputSignature { return SignatureText }

func (e *Loopback) Submit(ctx context.Context, req *Request, emit FragmentFunc) error {
	if err := req.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	e.cancelled = make(chan struct{})
	stop := e.cancelled
	e.mu.Unlock()

	reply := e.Reply
	if reply == "" {
		reply = req.Text()
	}
	chunk := e.ChunkSize
	if chunk <= 0 {
		chunk = 3
	}

	go func() {
		raw := []byte(reply)
		for i := 0; i < len(raw); i += chunk {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			default:
			}
			if e.Delay > 0 {
				time.Sleep(e.Delay)
			}
			end := i + chunk
			if end > len(raw) {
				end = len(raw)
			}
			emit(Fragment{Bytes: raw[i:end]})
			if e.FailWith != "" {
				emit(Fragment{Err: e.FailWith})
				return
			}
		}
		if !e.Mute {
			emit(Fragment{Final: true})
		}
	}()
	return nil
}

func (e *Loopback) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancelled != nil {
		select {
		case <-e.cancelled:
		default:
			close(e.cancelled)
		}
	}
}

func (e *Loopback) Close() error {
	e.Cancel()
	return nil
}
