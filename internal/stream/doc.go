// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream implements the consumer side of the chat backend's
// line-oriented streaming protocol.
//
// Bytes arrive from a long-lived HTTP response in arbitrarily sized
// chunks. The pipeline is:
//
//	transport bytes -> ChunkAssembler -> complete lines
//	complete line   -> DecodeLine     -> Event (Delta, Complete, ...)
//	events          -> Session        -> caller callbacks + final message
//
// # Key Types
//
//   - ChunkAssembler: reassembles complete protocol lines from raw chunks
//   - Event: closed tagged variant decoded from one protocol line
//   - Session: state machine for one in-flight streaming request
//   - Registry: tracks live sessions for cancel-one / cancel-all
//
// # Usage
//
//	sess := stream.NewSession(id)
//	msg, err := sess.Consume(ctx, resp.Body, stream.Callbacks{
//	    OnChunk: func(d stream.Delta) { fmt.Print(d.Text) },
//	})
//
// Consume closes the body on every exit path. Cancelling ctx aborts the
// read loop and yields an error matching ErrCancelled; a transport that
// ends without a Complete event yields ErrStreamIncomplete.
package stream
