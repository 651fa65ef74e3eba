// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"bytes"
	"strings"
)

// =============================================================================
// CHUNK ASSEMBLER
// =============================================================================

// ChunkAssembler turns arbitrarily sized byte chunks into complete
// newline-terminated protocol lines, retaining the trailing partial line
// between calls.
//
// Reassembly happens on raw bytes, so multi-byte UTF-8 sequences that a
// chunk boundary splits are stitched back together before any string
// conversion ('\n' never occurs inside a multi-byte sequence).
//
// The buffer holds at most one incomplete line: every Feed either fully
// consumes a line or leaves exactly the trailing fragment.
type ChunkAssembler struct {
	buf []byte
}

// Feed appends a chunk and returns every complete line it closed, in
// order, with the trailing newline (and any carriage return) removed.
func (a *ChunkAssembler) Feed(chunk []byte) []string {
	a.buf = append(a.buf, chunk...)

	var lines []string
	for {
		i := bytes.IndexByte(a.buf, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimRight(string(a.buf[:i]), "\r")
		a.buf = a.buf[i+1:]
		lines = append(lines, line)
	}
	return lines
}

// Flush returns the retained partial line, if any, and resets the buffer.
// Called when the transport ends without a final newline.
func (a *ChunkAssembler) Flush() (string, bool) {
	if len(a.buf) == 0 {
		return "", false
	}
	line := strings.TrimRight(string(a.buf), "\r")
	a.buf = nil
	return line, true
}

// Pending reports whether a partial line is buffered.
func (a *ChunkAssembler) Pending() bool {
	return len(a.buf) > 0
}

// Reset discards any buffered partial line.
func (a *ChunkAssembler) Reset() {
	a.buf = nil
}
