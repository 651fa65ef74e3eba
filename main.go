// opschat - terminal client for the ops dashboard chat backend.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
	"github.com/peterh/liner"

	"github.com/jeranaias/opschat/internal/client"
	"github.com/jeranaias/opschat/internal/config"
	"github.com/jeranaias/opschat/internal/export"
	"github.com/jeranaias/opschat/internal/model"
	"github.com/jeranaias/opschat/internal/search"
	"github.com/jeranaias/opschat/internal/store"
	"github.com/jeranaias/opschat/internal/stream"
)

// Version information (set at build time)
var Version = "0.1.0"

// Styles for REPL output.
var (
	promptStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	titleStyle   = lipgloss.NewStyle().Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("opschat: "+err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(config.DefaultConfigPath())
	if err != nil {
		return err
	}

	idx, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer idx.Close()

	c, err := client.New(client.Config{
		BaseURL:    cfg.ServerURL,
		Index:      idx,
		CacheTTL:   cfg.CacheTTL(),
		MaxResults: cfg.Search.MaxResults,
	})
	if err != nil {
		return err
	}
	defer c.Close()

	// Hot-reload keeps long-lived REPL sessions in sync with config
	// edits; only live-tunable settings apply without restart.
	watcher, err := config.NewWatcher(config.DefaultConfigPath(), 0, func(next *config.Config) {
		cfg.Export = next.Export
		fmt.Println(infoStyle.Render("config reloaded"))
	})
	if err == nil {
		if watcher.Watch() == nil {
			defer watcher.Close()
		}
	}

	// Ctrl+C cancels in-flight streams instead of killing the process.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		for range sigCh {
			c.CancelAllStreams()
		}
	}()
	defer signal.Stop(sigCh)

	renderer, err := newRenderer()
	if err != nil {
		return err
	}

	repl := &repl{cfg: cfg, client: c, store: idx, renderer: renderer}
	return repl.loop()
}

// newRenderer builds a glamour renderer matching the terminal theme.
func newRenderer() (*glamour.TermRenderer, error) {
	style := "light"
	if termenv.HasDarkBackground() {
		style = "dark"
	}
	return glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(100),
	)
}

// =============================================================================
// REPL
// =============================================================================

type repl struct {
	cfg      *config.Config
	client   *client.Client
	store    *store.Store
	renderer *glamour.TermRenderer
	thread   *model.Thread
}

func (r *repl) loop() error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	fmt.Println(titleStyle.Render("opschat " + Version))
	fmt.Println(infoStyle.Render("type a message to chat, /help for commands"))

	for {
		input, err := line.Prompt(promptStyle.Render("> "))
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			if quit := r.command(input); quit {
				return nil
			}
			continue
		}

		r.send(input)
	}
}

// command dispatches a slash command. Returns true to quit.
func (r *repl) command(input string) bool {
	cmd, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "/quit", "/exit":
		return true

	case "/help":
		fmt.Println(infoStyle.Render(strings.TrimSpace(`
/thread <title>   start a new thread
/threads          list threads
/search <query>   search conversation history ("quoted phrases" supported)
/export md|json   export the current thread
/cancel           cancel in-flight streams
/quit             exit
`)))

	case "/thread":
		if rest == "" {
			fmt.Println(errorStyle.Render("usage: /thread <title>"))
			return false
		}
		thread := model.NewThread(rest)
		if err := r.store.PutThread(context.Background(), thread); err != nil {
			fmt.Println(errorStyle.Render(err.Error()))
			return false
		}
		r.thread = thread
		fmt.Println(infoStyle.Render("thread: " + thread.Title))

	case "/threads":
		threads, err := r.store.Threads(context.Background(), nil)
		if err != nil {
			fmt.Println(errorStyle.Render(err.Error()))
			return false
		}
		if len(threads) == 0 {
			fmt.Println(infoStyle.Render("no threads yet"))
			return false
		}
		for _, t := range threads {
			fmt.Printf("  %s  %s\n", infoStyle.Render(shortID(t.ID)), t.Title)
		}

	case "/search":
		r.search(rest)

	case "/export":
		r.export(rest)

	case "/cancel":
		r.client.CancelAllStreams()
		fmt.Println(infoStyle.Render("cancelled"))

	default:
		fmt.Println(errorStyle.Render("unknown command: " + cmd))
	}
	return false
}

// =============================================================================
// SEND
// =============================================================================

// send streams one message on the current thread, printing deltas as
// they arrive and re-rendering the final message as Markdown.
func (r *repl) send(content string) {
	ctx := context.Background()

	if r.thread == nil {
		thread := model.NewThread(firstWords(content, 6))
		if err := r.store.PutThread(ctx, thread); err != nil {
			fmt.Println(errorStyle.Render(err.Error()))
			return
		}
		r.thread = thread
	}

	userMsg := model.NewMessage(r.thread.ID, model.RoleUser, content)
	if err := r.store.PutMessage(ctx, userMsg); err != nil {
		fmt.Println(errorStyle.Render(err.Error()))
		return
	}

	msg, err := r.client.SendWithStream(ctx, r.thread.ID, content, &client.StreamOptions{
		OnChunk: func(d stream.Delta) {
			fmt.Print(d.Text)
		},
	})
	fmt.Println()

	if err != nil {
		if errors.Is(err, stream.ErrCancelled) {
			fmt.Println(infoStyle.Render("(cancelled)"))
		} else {
			fmt.Println(errorStyle.Render(err.Error()))
		}
		return
	}

	if rendered, rerr := r.renderer.Render(msg.Content); rerr == nil {
		fmt.Print(rendered)
	}

	if err := r.store.PutMessage(ctx, msg); err != nil {
		fmt.Println(errorStyle.Render(err.Error()))
	}

	if msg.ContextOptimization != nil {
		for _, w := range r.client.AnalyzeContextOptimization(*msg.ContextOptimization) {
			style := infoStyle
			if w.Severity != "info" {
				style = warningStyle
			}
			fmt.Println(style.Render("! " + w.Message))
		}
	}
}

// =============================================================================
// SEARCH / EXPORT
// =============================================================================

// search runs a history search and prints width-truncated previews.
func (r *repl) search(query string) {
	if query == "" {
		fmt.Println(errorStyle.Render("usage: /search <query>"))
		return
	}

	results, err := r.client.Search(context.Background(), query, search.Filters{})
	if err != nil {
		fmt.Println(errorStyle.Render(err.Error()))
		return
	}
	if len(results) == 0 {
		fmt.Println(infoStyle.Render("no matches"))
		return
	}

	for _, res := range results {
		preview := runewidth.Truncate(strings.ReplaceAll(res.Content, "\n", " "), 70, "…")
		fmt.Printf("  %s  %s\n", infoStyle.Render(res.ThreadTitle), preview)
	}
}

// export writes the current thread to a file in the requested format.
func (r *repl) export(format string) {
	if r.thread == nil {
		fmt.Println(errorStyle.Render("no active thread"))
		return
	}

	opts := &export.Options{
		OutputDir:         r.cfg.Export.OutputDir,
		IncludeMetadata:   r.cfg.Export.IncludeMetadata,
		IncludeTimestamps: r.cfg.Export.IncludeTimestamps,
	}

	var exporter export.Exporter
	switch format {
	case "md", "markdown":
		exporter = export.NewMarkdownExporter(opts)
	case "json":
		exporter = export.NewJSONExporter(opts)
	default:
		fmt.Println(errorStyle.Render("usage: /export md|json"))
		return
	}

	ctx := context.Background()
	messages, err := r.store.Messages(ctx, r.thread.ID)
	if err != nil {
		fmt.Println(errorStyle.Render(err.Error()))
		return
	}

	path, err := export.ExportToFile(&export.Conversation{
		Thread:   *r.thread,
		Messages: messages,
	}, exporter, opts)
	if err != nil {
		fmt.Println(errorStyle.Render(err.Error()))
		return
	}
	fmt.Println(infoStyle.Render("exported: " + path))
}

// =============================================================================
// HELPERS
// =============================================================================

// firstWords returns up to n leading words of s.
func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

// shortID returns an 8-character ID prefix for display.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
