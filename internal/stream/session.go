package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/calebfollett/gemstream/internal/engine"
	"github.com/calebfollett/gemstream/internal/logger"
)

// State is the session lifecycle. Every state but Active is terminal.
type State int

const (
	StateActive State = iota
	StateCompleted
	StateFailed
	StateTimedOut
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateTimedOut:
		return "timed_out"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

var (
	// ErrTimedOut is emitted when no terminal marker arrives before the
	// session deadline. Distinct from an engine-reported failure.
	ErrTimedOut = errors.New("generation timed out")

	// ErrUpstream wraps an explicit error signal from the engine.
	ErrUpstream = errors.New("engine error")
)

// Event is one caller-visible output of a session: a text delta or a
// terminal error. Cancellation produces no event; the channel just closes.
type Event struct {
	Text string
	Err  error
}

// DefaultTimeout bounds worst-case generation. Configurable per session.
const DefaultTimeout = 5 * time.Minute

// Config carries per-session settings.
type Config struct {
	// Timeout is the deadline from Start to the terminal marker.
	Timeout time.Duration
	// Buffer is the fragment queue depth between the engine's delivery
	// goroutine and the session consumer.
	Buffer int
}

// Session orchestrates one in-flight generation request: it marshals
// fragment delivery onto a single-consumer queue, reassembles bytes at
// character boundaries, filters diagnostic noise and emits text events in
// strict arrival order. Exactly one producer may feed it at a time.
type Session struct {
	id      string
	timeout time.Duration
	asm     Assembler
	log     logger.Logger

	frags  chan engine.Fragment
	events chan Event
	done   chan struct{}

	cancelCh   chan struct{}
	cancelOnce sync.Once

	mu    sync.Mutex
	state State
	eng   engine.Engine
}

func NewSession(cfg Config) *Session {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = 64
	}
	return &Session{
		id:       "sess_" + uuid.NewString(),
		timeout:  timeout,
		log:      logger.Default(),
		frags:    make(chan engine.Fragment, buffer),
		events:   make(chan Event),
		done:     make(chan struct{}),
		cancelCh: make(chan struct{}),
	}
}

func (s *Session) ID() string { return s.id }

// Events returns the caller-facing event channel. It closes when the session
// reaches a terminal state; callers must drain it or cancel the session.
func (s *Session) Events() <-chan Event { return s.events }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start submits the request to the engine and begins consuming fragments.
// The deadline runs from this call.
func (s *Session) Start(ctx context.Context, eng engine.Engine, req *engine.Request) error {
	s.log = logger.FromContext(ctx).With("session", s.id)

	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return fmt.Errorf("session %s already %s", s.id, s.state)
	}
	s.eng = eng
	s.mu.Unlock()

	if err := eng.Submit(ctx, req, s.push); err != nil {
		s.mu.Lock()
		s.state = StateFailed
		s.mu.Unlock()
		close(s.done)
		close(s.events)
		return fmt.Errorf("submit: %w", err)
	}

	go s.consume(ctx)
	return nil
}

// Cancel signals the engine to abort and makes the session terminal.
// Idempotent and safe from any state; once it returns, no further text
// events are emitted, including for fragments already in flight.
func (s *Session) Cancel() {
	s.cancelOnce.Do(func() { close(s.cancelCh) })

	s.mu.Lock()
	if s.state == StateActive {
		s.state = StateCancelled
	}
	eng := s.eng
	s.mu.Unlock()

	if eng != nil {
		eng.Cancel()
	}
}

// push is the engine's fragment callback. It hands the fragment to the
// consumer goroutine, preserving arrival order, and drops it once the
// session is terminal.
func (s *Session) push(f engine.Fragment) {
	select {
	case s.frags <- f:
	case <-s.done:
	case <-s.cancelCh:
	}
}

func (s *Session) consume(ctx context.Context) {
	defer close(s.events)
	defer close(s.done)

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	for {
		select {
		case <-s.cancelCh:
			s.setState(StateCancelled)
			s.log.Debug("session cancelled")
			return

		case <-ctx.Done():
			s.setState(StateCancelled)
			s.log.Debug("session context done", "err", ctx.Err())
			return

		case <-timer.C:
			s.setState(StateTimedOut)
			s.log.Warn("session deadline exceeded", "timeout", s.timeout)
			s.sendTerminal(ctx, ErrTimedOut)
			return

		case f := <-s.frags:
			if text := s.asm.Push(f.Bytes); text != "" && !IsEngineNoise(text) {
				s.emit(ctx, text)
			}
			if f.Err != "" {
				s.setState(StateFailed)
				s.sendTerminal(ctx, fmt.Errorf("%w: %s", ErrUpstream, f.Err))
				return
			}
			if f.Final {
				if tail := s.asm.Flush(); tail != "" && !IsEngineNoise(tail) {
					s.emit(ctx, tail)
				}
				s.setState(StateCompleted)
				s.log.Debug("session completed")
				return
			}
		}
	}
}

// emit delivers a text event while the session is still active. The state
// check and the send happen under the lock, so Cancel cannot return while a
// text event is being delivered ahead of it.
func (s *Session) emit(ctx context.Context, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return
	}
	select {
	case s.events <- Event{Text: text}:
	case <-s.cancelCh:
	case <-ctx.Done():
	}
}

// sendTerminal delivers a terminal error event after the state switch.
func (s *Session) sendTerminal(ctx context.Context, err error) {
	select {
	case s.events <- Event{Err: err}:
	case <-s.cancelCh:
	case <-ctx.Done():
	}
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	if s.state == StateActive {
		s.state = st
	}
	s.mu.Unlock()
}
