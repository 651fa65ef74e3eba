// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import "github.com/jeranaias/opschat/internal/model"

// =============================================================================
// EVENT VARIANTS
// =============================================================================

// Event is one decoded protocol event. The variant set is closed: Delta,
// Complete, ErrorEvent, Done and Keepalive are the only implementations.
// Payload shape is validated once, at decode time, instead of at every
// use site.
type Event interface {
	event()
}

// Delta carries an incremental piece of generated content.
type Delta struct {
	// ID identifies the in-progress message this delta belongs to.
	ID string

	// Text is the incremental content fragment.
	Text string

	// Finished mirrors the wire flag; informational only. The stream is
	// terminated by a Complete event or the Done sentinel, not by this.
	Finished bool
}

// Complete signals the end of generation and carries the final message.
type Complete struct {
	Message model.Message
}

// ErrorEvent is a server-reported stream failure.
type ErrorEvent struct {
	Message string
}

// Done is the "data: [DONE]" sentinel: end of stream, no further events.
// It carries no message; a stream that ends on Done without a preceding
// Complete is incomplete.
type Done struct{}

// Keepalive is a protocol comment line with no semantic content.
type Keepalive struct{}

func (Delta) event()      {}
func (Complete) event()   {}
func (ErrorEvent) event() {}
func (Done) event()       {}
func (Keepalive) event()  {}
