// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/opschat/internal/budget"
	"github.com/jeranaias/opschat/internal/export"
	"github.com/jeranaias/opschat/internal/model"
	"github.com/jeranaias/opschat/internal/search"
	"github.com/jeranaias/opschat/internal/stream"
)

// Configuration constants for the chat backend.
const (
	// DefaultBaseURL is the default chat backend address.
	DefaultBaseURL = "http://localhost:8080"

	// DefaultTimeout bounds non-streaming requests.
	DefaultTimeout = 60 * time.Second

	// streamEndpoint and searchEndpoint are the backend paths.
	streamEndpoint = "/api/messages/stream"

	// maxErrorBody caps how much of an error response body is read.
	maxErrorBody = 4096
)

var (
	// sharedHTTPClient serves buffered requests.
	// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
	sharedHTTPClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		Timeout: DefaultTimeout,
	}

	// sharedStreamingClient serves streaming requests: no client
	// timeout, lifetime is context-controlled.
	sharedStreamingClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
)

// =============================================================================
// CLIENT
// =============================================================================

// Config configures the delivery client.
type Config struct {
	// BaseURL of the chat backend (default: DefaultBaseURL).
	BaseURL string

	// Index backs the local search fallback and thread export
	// (required).
	Index search.ThreadIndex

	// CacheTTL for search results (<= 0 uses the search default).
	CacheTTL time.Duration

	// MaxResults caps search result sets (<= 0 uses the search default).
	MaxResults int

	// HTTPClient overrides the shared buffered client (tests).
	HTTPClient *http.Client

	// StreamingClient overrides the shared streaming client (tests).
	StreamingClient *http.Client
}

// Client is the delivery-layer facade: streaming sends, cancellation,
// history search, context-budget analysis and export.
type Client struct {
	baseURL         string
	streamingClient *http.Client
	registry        *stream.Registry
	engine          *search.Engine
	index           search.ThreadIndex
}

// New creates a client.
func New(cfg Config) (*Client, error) {
	if cfg.Index == nil {
		return nil, fmt.Errorf("client: thread index is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = sharedHTTPClient
	}
	streamingClient := cfg.StreamingClient
	if streamingClient == nil {
		streamingClient = sharedStreamingClient
	}

	return &Client{
		baseURL:         baseURL,
		streamingClient: streamingClient,
		registry:        stream.NewRegistry(),
		engine: search.NewEngine(search.EngineConfig{
			BaseURL:    baseURL,
			HTTPClient: httpClient,
			Index:      cfg.Index,
			CacheTTL:   cfg.CacheTTL,
			MaxResults: cfg.MaxResults,
		}),
		index: cfg.Index,
	}, nil
}

// Close is the explicit teardown hook: cancels every live stream and
// clears the search cache.
func (c *Client) Close() {
	c.registry.Reset()
	c.engine.Cache().Clear()
}

// =============================================================================
// STREAMING SEND
// =============================================================================

// StreamOptions are the caller's hooks for one streaming send.
type StreamOptions struct {
	// OnChunk fires for every content delta, possibly many times.
	OnChunk func(stream.Delta)

	// OnComplete fires exactly once with the final message, unless the
	// send errors or is cancelled.
	OnComplete func(*model.Message)

	// OnError fires exactly once on failure. Cancellation fires
	// neither OnComplete nor OnError; the returned error matches
	// stream.ErrCancelled.
	OnError func(error)
}

// streamRequest is the send-message wire shape.
type streamRequest struct {
	ThreadID string `json:"thread_id"`
	Content  string `json:"content"`
	Stream   bool   `json:"stream"`
}

// SendWithStream sends a message and consumes the streamed response,
// blocking until a terminal outcome. The session is registered with the
// registry for the duration, so it is cancellable by ID or via
// CancelAllStreams; the caller's ctx is combined with the session's own
// cancellation handle (either one cancels, first wins).
func (c *Client) SendWithStream(ctx context.Context, threadID, content string, opts *StreamOptions) (*model.Message, error) {
	if opts == nil {
		opts = &StreamOptions{}
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	id := uuid.New().String()
	c.registry.Register(id, cancel)
	defer c.registry.Deregister(id)

	payload, err := json.Marshal(streamRequest{
		ThreadID: threadID,
		Content:  content,
		Stream:   true,
	})
	if err != nil {
		return nil, c.fail(opts, fmt.Errorf("marshal stream request: %w", err))
	}

	req, err := http.NewRequestWithContext(sessionCtx, http.MethodPost,
		c.baseURL+streamEndpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, c.fail(opts, fmt.Errorf("create stream request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.streamingClient.Do(req)
	if err != nil {
		if sessionCtx.Err() != nil {
			return nil, stream.ErrCancelled
		}
		return nil, c.fail(opts, &stream.TransportError{Err: err})
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		return nil, c.fail(opts, &stream.TransportError{
			Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		})
	}

	sess := stream.NewSession(id)
	return sess.Consume(sessionCtx, resp.Body, stream.Callbacks{
		OnChunk:    opts.OnChunk,
		OnComplete: opts.OnComplete,
		OnError:    opts.OnError,
	})
}

// fail invokes OnError for failures that happen before a session could
// take over callback ownership.
func (c *Client) fail(opts *StreamOptions, err error) error {
	if opts.OnError != nil {
		opts.OnError(err)
	}
	return err
}

// =============================================================================
// CANCELLATION
// =============================================================================

// CancelStream cancels one live stream by session ID. Idempotent.
func (c *Client) CancelStream(id string) {
	c.registry.Cancel(id)
}

// CancelAllStreams cancels every live stream. Used on teardown.
func (c *Client) CancelAllStreams() {
	c.registry.CancelAll()
}

// HasActiveStreams reports whether any stream is live.
func (c *Client) HasActiveStreams() bool {
	return c.registry.HasActive()
}

// ActiveStreamCount returns the number of live streams.
func (c *Client) ActiveStreamCount() int {
	return c.registry.Count()
}

// =============================================================================
// SEARCH
// =============================================================================

// Search returns ranked history results for query under filters.
func (c *Client) Search(ctx context.Context, query string, filters search.Filters) ([]search.Result, error) {
	return c.engine.Search(ctx, query, filters)
}

// =============================================================================
// CONTEXT BUDGET
// =============================================================================

// AnalyzeContextOptimization derives user-facing warnings from a
// server-reported optimization report.
func (c *Client) AnalyzeContextOptimization(report model.OptimizationReport) []budget.Warning {
	return budget.Analyze(report)
}

// =============================================================================
// EXPORT
// =============================================================================

// conversation loads a thread and its messages from the index.
func (c *Client) conversation(ctx context.Context, threadID string) (*export.Conversation, error) {
	threads, err := c.index.Threads(ctx, []string{threadID})
	if err != nil {
		return nil, fmt.Errorf("load thread %s: %w", threadID, err)
	}
	if len(threads) == 0 {
		return nil, fmt.Errorf("thread %s not found", threadID)
	}
	messages, err := c.index.Messages(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("load messages for thread %s: %w", threadID, err)
	}
	return &export.Conversation{Thread: threads[0], Messages: messages}, nil
}

// ExportToJSON renders a thread and its messages as JSON.
func (c *Client) ExportToJSON(ctx context.Context, threadID string, opts *export.Options) ([]byte, error) {
	conv, err := c.conversation(ctx, threadID)
	if err != nil {
		return nil, err
	}
	return export.NewJSONExporter(opts).Export(conv)
}

// ExportToMarkdown renders a thread and its messages as Markdown.
func (c *Client) ExportToMarkdown(ctx context.Context, threadID string, opts *export.Options) ([]byte, error) {
	conv, err := c.conversation(ctx, threadID)
	if err != nil {
		return nil, err
	}
	return export.NewMarkdownExporter(opts).Export(conv)
}
