// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jeranaias/opschat/internal/model"
)

// body wraps a string in an io.ReadCloser.
func body(s string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(s))
}

// blockingBody blocks Read until its context is cancelled, then fails
// the read the way an aborted HTTP body does.
type blockingBody struct {
	ctx context.Context
}

func (b *blockingBody) Read(p []byte) (int, error) {
	<-b.ctx.Done()
	return 0, b.ctx.Err()
}

func (b *blockingBody) Close() error { return nil }

func TestSessionCompleteFlow(t *testing.T) {
	transcript := "data: {\"type\":\"chunk\",\"delta\":\"Hel\"}\n" +
		"data: {\"type\":\"chunk\",\"delta\":\"lo\"}\n" +
		"data: {\"type\":\"complete\",\"id\":\"m1\",\"thread_id\":\"t1\",\"role\":\"assistant\"}\n" +
		"data: [DONE]\n"

	var chunks []string
	var completes int
	var onErrCalls int

	s := NewSession("s1")
	msg, err := s.Consume(context.Background(), body(transcript), Callbacks{
		OnChunk:    func(d Delta) { chunks = append(chunks, d.Text) },
		OnComplete: func(*model.Message) { completes++ },
		OnError:    func(error) { onErrCalls++ },
	})
	if err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	if msg == nil || msg.ID != "m1" {
		t.Fatalf("unexpected final message: %+v", msg)
	}
	// Complete carried no content: accumulated deltas fill it in.
	if msg.Content != "Hello" {
		t.Errorf("Content = %q, want Hello", msg.Content)
	}
	if strings.Join(chunks, "") != "Hello" {
		t.Errorf("chunks = %v", chunks)
	}
	if completes != 1 || onErrCalls != 0 {
		t.Errorf("OnComplete fired %d times, OnError %d times", completes, onErrCalls)
	}
	if s.State() != StateCompleted {
		t.Errorf("State() = %v, want completed", s.State())
	}
}

func TestSessionDoneWithoutComplete(t *testing.T) {
	transcript := "data: {\"type\":\"chunk\",\"delta\":\"partial\"}\n" +
		"data: [DONE]\n"

	var onErr error
	s := NewSession("s1")
	_, err := s.Consume(context.Background(), body(transcript), Callbacks{
		OnError: func(e error) { onErr = e },
	})
	if !errors.Is(err, ErrStreamIncomplete) {
		t.Fatalf("Consume() error = %v, want ErrStreamIncomplete", err)
	}
	if !errors.Is(onErr, ErrStreamIncomplete) {
		t.Errorf("OnError got %v", onErr)
	}
	if s.State() != StateErrored {
		t.Errorf("State() = %v, want errored", s.State())
	}
}

func TestSessionEOFWithoutComplete(t *testing.T) {
	s := NewSession("s1")
	_, err := s.Consume(context.Background(), body("data: {\"type\":\"chunk\",\"delta\":\"x\"}\n"), Callbacks{})
	if !errors.Is(err, ErrStreamIncomplete) {
		t.Fatalf("Consume() error = %v, want ErrStreamIncomplete", err)
	}
}

func TestSessionErrorEvent(t *testing.T) {
	transcript := "data: {\"type\":\"chunk\",\"delta\":\"par\"}\n" +
		"data: {\"type\":\"error\",\"message\":\"backend failure\"}\n"

	var onErr error
	var completes int
	s := NewSession("s1")
	_, err := s.Consume(context.Background(), body(transcript), Callbacks{
		OnComplete: func(*model.Message) { completes++ },
		OnError:    func(e error) { onErr = e },
	})

	var se *StreamError
	if !errors.As(err, &se) {
		t.Fatalf("Consume() error = %v, want *StreamError", err)
	}
	if se.Partial != "par" {
		t.Errorf("Partial = %q, want par", se.Partial)
	}
	if !strings.Contains(se.Error(), "backend failure") {
		t.Errorf("error text %q should name the server reason", se.Error())
	}
	if onErr == nil || completes != 0 {
		t.Errorf("OnError=%v completes=%d, want error fired and no complete", onErr, completes)
	}
}

func TestSessionFinalLineWithoutNewline(t *testing.T) {
	transcript := "data: {\"type\":\"chunk\",\"delta\":\"hi\"}\n" +
		"data: {\"type\":\"complete\",\"id\":\"m1\",\"content\":\"hi\"}"

	s := NewSession("s1")
	msg, err := s.Consume(context.Background(), body(transcript), Callbacks{})
	if err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	if msg.Content != "hi" {
		t.Errorf("Content = %q", msg.Content)
	}
}

func TestSessionCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	var callbackFired bool

	s := NewSession("s1")
	done := make(chan error, 1)
	go func() {
		_, err := s.Consume(ctx, &blockingBody{ctx: ctx}, Callbacks{
			OnComplete: func(*model.Message) { mu.Lock(); callbackFired = true; mu.Unlock() },
			OnError:    func(error) { mu.Lock(); callbackFired = true; mu.Unlock() },
		})
		done <- err
	}()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, ErrCancelled) {
			t.Fatalf("Consume() error = %v, want ErrCancelled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Consume did not return after cancellation")
	}

	mu.Lock()
	defer mu.Unlock()
	if callbackFired {
		t.Error("no terminal callback should fire on cancellation")
	}
	if s.State() != StateCancelled {
		t.Errorf("State() = %v, want cancelled", s.State())
	}
}

func TestStateString(t *testing.T) {
	states := map[State]string{
		StatePending:   "pending",
		StateStreaming: "streaming",
		StateCompleted: "completed",
		StateErrored:   "errored",
		StateCancelled: "cancelled",
		State(99):      "unknown",
	}
	for s, want := range states {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", s, got, want)
		}
	}
}
