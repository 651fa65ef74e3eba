// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package client is the delivery layer facade the UI talks to.
//
// It owns the HTTP transport, the streaming session registry, and the
// search engine, and exposes the full surface: send-with-stream with
// per-chunk callbacks, cancel-one/cancel-all, history search, context
// budget analysis and thread export.
//
// # Usage
//
//	c, err := client.New(client.Config{BaseURL: cfg.ServerURL, Index: idx})
//	msg, err := c.SendWithStream(ctx, threadID, "deploy status?", &client.StreamOptions{
//	    OnChunk: func(d stream.Delta) { render(d.Text) },
//	})
//
// Teardown is explicit: the hosting application calls Close, which
// cancels every live stream and clears the search cache.
package client
