// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/jeranaias/opschat/internal/model"
)

// =============================================================================
// LINE DECODING
// =============================================================================

// doneSentinel is the payload that marks end-of-stream.
const doneSentinel = "[DONE]"

// eventPayload captures every field any event type may carry. The Type
// field selects the variant; unknown shapes degrade to a raw-text Delta.
type eventPayload struct {
	Type     string `json:"type"`
	ID       string `json:"id"`
	Delta    string `json:"delta"`
	Content  string `json:"content"`
	Finished bool   `json:"finished"`

	// Error events
	Message string `json:"message"`

	// Complete events carry the final message fields inline.
	ThreadID            string                    `json:"thread_id"`
	Role                model.Role                `json:"role"`
	MessageType         string                    `json:"message_type"`
	CreatedAt           time.Time                 `json:"created_at"`
	ContextOptimization *model.OptimizationReport `json:"context_optimization"`
}

// DecodeLine parses one complete protocol line into an Event.
//
// Recognized shapes:
//   - "data: {json}"  -> Delta / Complete / ErrorEvent by the "type" field
//   - "data: [DONE]"  -> Done
//   - "event: ..."    -> ignored (nil)
//   - ": comment"     -> Keepalive
//   - ""              -> dropped (nil)
//   - anything else   -> raw-text Delta (plain-text fallback transport)
//
// A malformed JSON payload never fails the stream: it is logged and
// decoded as a raw-text Delta carrying the payload verbatim.
func DecodeLine(line string) Event {
	line = strings.TrimRight(line, "\r")

	// Empty lines are protocol separators/keepalives.
	if line == "" {
		return nil
	}

	// Event-name lines carry no payload of their own.
	if strings.HasPrefix(line, "event:") {
		return nil
	}

	// SSE comment lines.
	if strings.HasPrefix(line, ":") {
		return Keepalive{}
	}

	data := line
	if strings.HasPrefix(line, "data:") {
		data = strings.TrimSpace(line[len("data:"):])
		if data == "" {
			return nil
		}
	} else {
		// Plain-text fallback transport: the whole line is content.
		return Delta{Text: line}
	}

	if data == doneSentinel {
		return Done{}
	}

	var payload eventPayload
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		// One malformed line must not terminate a healthy stream.
		log.Printf("stream: malformed event payload, treating as text: %v", err)
		return Delta{Text: data}
	}

	switch payload.Type {
	case "chunk":
		text := payload.Delta
		if text == "" {
			text = payload.Content
		}
		return Delta{ID: payload.ID, Text: text, Finished: payload.Finished}

	case "complete":
		return Complete{Message: model.Message{
			ID:                  payload.ID,
			ThreadID:            payload.ThreadID,
			Role:                payload.Role,
			Type:                payload.MessageType,
			Content:             payload.Content,
			CreatedAt:           payload.CreatedAt,
			ContextOptimization: payload.ContextOptimization,
		}}

	case "error":
		return ErrorEvent{Message: payload.Message}

	default:
		log.Printf("stream: unknown event type %q, treating as text", payload.Type)
		return Delta{Text: data}
	}
}
