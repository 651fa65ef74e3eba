// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a thread.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`

	// Content
	Content string `json:"content"`

	// Type is the message kind ("text", "command", "notification", ...).
	// Empty is treated as "text".
	Type string `json:"type,omitempty"`

	// ContextOptimization carries the server's context-window report when
	// the backend optimized history before generating this message.
	ContextOptimization *OptimizationReport `json:"context_optimization,omitempty"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(threadID string, role Role, content string) *Message {
	return &Message{
		ID:        uuid.New().String(),
		ThreadID:  threadID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// =============================================================================
// OPTIMIZATION REPORT
// =============================================================================

// OptimizationReport is the server-reported summary of context-window
// optimization applied while generating a message. Field names match the
// wire shape exactly.
type OptimizationReport struct {
	OriginalMessageCount  int     `json:"original_message_count"`
	OptimizedMessageCount int     `json:"optimized_message_count"`
	ContextWindowUsed     float64 `json:"context_window_used"`
	TruncatedMessages     int     `json:"truncated_messages"`
	SummarizedChunks      int     `json:"summarized_chunks"`
}
