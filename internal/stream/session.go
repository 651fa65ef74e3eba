// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/jeranaias/opschat/internal/model"
)

// =============================================================================
// SESSION STATE
// =============================================================================

// State is the lifecycle state of a streaming session.
// Transitions: Pending -> Streaming -> {Completed | Errored | Cancelled}.
// Terminal states are final.
type State int

const (
	StatePending State = iota
	StateStreaming
	StateCompleted
	StateErrored
	StateCancelled
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateErrored:
		return "errored"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// terminal reports whether the state admits no further transitions.
func (s State) terminal() bool {
	return s == StateCompleted || s == StateErrored || s == StateCancelled
}

// =============================================================================
// CALLBACKS
// =============================================================================

// Callbacks are the caller's hooks into the session. All fields are
// optional. OnChunk may fire many times; exactly one of OnComplete or
// OnError fires on a terminal outcome, unless the session is cancelled,
// in which case neither fires.
type Callbacks struct {
	OnChunk    func(Delta)
	OnComplete func(*model.Message)
	OnError    func(error)
}

// =============================================================================
// STREAM SESSION
// =============================================================================

// Session owns one in-flight streaming request: it drives the byte
// source, reassembles and decodes protocol lines, accumulates content
// and invokes the caller's callbacks.
type Session struct {
	id string

	mu        sync.Mutex
	state     State
	assembler ChunkAssembler
	// content accumulates deltas for partial-content error reporting and
	// as a fallback when the final message omits its body.
	content strings.Builder
	final   *model.Message
}

// NewSession creates a session with the given identity.
func NewSession(id string) *Session {
	return &Session{id: id}
}

// ID returns the session identity.
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Content returns the content accumulated so far.
func (s *Session) Content() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content.String()
}

// =============================================================================
// CONSUME LOOP
// =============================================================================

// Consume reads the transport until a terminal event, cancellation or
// transport failure. The body is closed on every exit path.
//
// Returns the final message on completion. On cancellation the error
// matches ErrCancelled and no terminal callback fires. A transport that
// ends without a Complete event yields ErrStreamIncomplete.
func (s *Session) Consume(ctx context.Context, body io.ReadCloser, cb Callbacks) (*model.Message, error) {
	defer body.Close()

	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return nil, s.cancelled()
		default:
		}

		n, readErr := body.Read(buf)
		if n > 0 {
			s.markStreaming()
			for _, line := range s.assembler.Feed(buf[:n]) {
				msg, done, err := s.handleLine(line, cb)
				if err != nil {
					return nil, err
				}
				if done {
					return msg, nil
				}
			}
		}

		if readErr != nil {
			if readErr != io.EOF {
				if ctx.Err() != nil {
					return nil, s.cancelled()
				}
				return nil, s.errored(cb, &TransportError{Err: readErr})
			}
			// Clean EOF: the last line may lack a trailing newline.
			if line, ok := s.assembler.Flush(); ok {
				msg, done, err := s.handleLine(line, cb)
				if err != nil {
					return nil, err
				}
				if done {
					return msg, nil
				}
			}
			return nil, s.errored(cb, ErrStreamIncomplete)
		}
	}
}

// handleLine decodes one protocol line and applies its event.
// Returns (msg, true, nil) on completion, (nil, false, err) on a
// terminal failure, and (nil, false, nil) otherwise.
func (s *Session) handleLine(line string, cb Callbacks) (*model.Message, bool, error) {
	switch ev := DecodeLine(line).(type) {
	case nil, Keepalive:
		return nil, false, nil

	case Delta:
		s.mu.Lock()
		s.content.WriteString(ev.Text)
		s.mu.Unlock()
		if cb.OnChunk != nil {
			cb.OnChunk(ev)
		}
		return nil, false, nil

	case Complete:
		msg := ev.Message
		if msg.Content == "" {
			msg.Content = s.Content()
		}
		s.completed(&msg, cb)
		return &msg, true, nil

	case ErrorEvent:
		reason := ev.Message
		if reason == "" {
			reason = "unspecified server error"
		}
		err := &StreamError{Partial: s.Content(), Err: errors.New(reason)}
		return nil, false, s.errored(cb, err)

	case Done:
		// End-of-stream sentinel with no Complete seen.
		return nil, false, s.errored(cb, ErrStreamIncomplete)

	default:
		return nil, false, nil
	}
}

// =============================================================================
// TERMINAL TRANSITIONS
// =============================================================================

// markStreaming records the Pending -> Streaming transition on first byte.
func (s *Session) markStreaming() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StatePending {
		s.state = StateStreaming
	}
}

// completed transitions to Completed and fires OnComplete exactly once.
func (s *Session) completed(msg *model.Message, cb Callbacks) {
	s.mu.Lock()
	if s.state.terminal() {
		s.mu.Unlock()
		return
	}
	s.state = StateCompleted
	s.final = msg
	s.mu.Unlock()

	if cb.OnComplete != nil {
		cb.OnComplete(msg)
	}
}

// errored transitions to Errored and fires OnError exactly once.
// Returns err for convenience at call sites.
func (s *Session) errored(cb Callbacks, err error) error {
	s.mu.Lock()
	if s.state.terminal() {
		s.mu.Unlock()
		return err
	}
	s.state = StateErrored
	s.mu.Unlock()

	if cb.OnError != nil {
		cb.OnError(err)
	}
	return err
}

// cancelled transitions to Cancelled. No callbacks fire: the caller
// asked for this and distinguishes it from failure by the error value.
func (s *Session) cancelled() error {
	s.mu.Lock()
	if !s.state.terminal() {
		s.state = StateCancelled
	}
	s.mu.Unlock()
	return ErrCancelled
}
