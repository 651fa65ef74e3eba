// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/opschat/internal/model"
)

// =============================================================================
// THREAD INDEX
// =============================================================================

// ThreadIndex is the read boundary to the message store, used only by
// the local fallback path.
type ThreadIndex interface {
	// Threads lists threads by ID; an empty id list means all threads.
	Threads(ctx context.Context, ids []string) ([]model.Thread, error)

	// Messages lists a thread's messages in creation order.
	Messages(ctx context.Context, threadID string) ([]model.Message, error)
}

// =============================================================================
// BACKEND ERROR
// =============================================================================

// BackendError reports a remote search failure. It never escapes
// Search: the engine recovers by scanning the local index.
type BackendError struct {
	Status int
	Err    error
}

func (e *BackendError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("search backend returned status %d", e.Status)
	}
	return fmt.Sprintf("search backend failed: %v", e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// =============================================================================
// ENGINE
// =============================================================================

// Defaults for the search engine.
const (
	// DefaultMaxResults is the fixed result cap sent to the backend and
	// applied to local scans.
	DefaultMaxResults = 50

	// Remote search rate limiting.
	defaultRemoteRate  = rate.Limit(5)
	defaultRemoteBurst = 10
)

// EngineConfig configures a search engine.
type EngineConfig struct {
	// BaseURL of the chat backend (e.g. "https://ops.example.com").
	BaseURL string

	// HTTPClient used for the remote path. Default: http.DefaultClient.
	HTTPClient *http.Client

	// Index is the local fallback source (required).
	Index ThreadIndex

	// CacheTTL for memoized result sets (<= 0 uses DefaultCacheTTL).
	CacheTTL time.Duration

	// MaxResults caps result sets (<= 0 uses DefaultMaxResults).
	MaxResults int
}

// Engine orchestrates remote search with a local ranked fallback and a
// TTL cache.
type Engine struct {
	baseURL    string
	httpClient *http.Client
	index      ThreadIndex
	cache      *Cache
	limiter    *rate.Limiter
	maxResults int

	// now is swappable for tests (date-range filters depend on it).
	now func() time.Time
}

// NewEngine creates a search engine.
func NewEngine(cfg EngineConfig) *Engine {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &Engine{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		index:      cfg.Index,
		cache:      NewCache(cfg.CacheTTL),
		limiter:    rate.NewLimiter(defaultRemoteRate, defaultRemoteBurst),
		maxResults: maxResults,
		now:        time.Now,
	}
}

// Cache exposes the engine's cache for teardown and tests.
func (e *Engine) Cache() *Cache {
	return e.cache
}

// =============================================================================
// SEARCH
// =============================================================================

// Search returns ranked results for query under filters.
//
// An empty or whitespace-only query returns an empty list without
// touching the cache or any backend. Remote failures are logged and
// recovered by a local scan; they never reach the caller. The returned
// error is non-nil only when the context is cancelled.
func (e *Engine) Search(ctx context.Context, query string, filters Filters) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Result{}, nil
	}

	key := filters.CacheKey(query)
	if cached, ok := e.cache.Get(key); ok {
		return cached, nil
	}

	results, err := e.remoteSearch(ctx, query, filters)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("search: remote path failed, falling back to local index: %v", err)
		results = e.localSearch(ctx, query, filters)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	e.cache.Put(key, results)
	return results, nil
}

// =============================================================================
// REMOTE PATH
// =============================================================================

// remoteResponse is the backend's search reply.
type remoteResponse struct {
	Results []Result `json:"results"`
}

// remoteSearch queries the backend's search endpoint, translating the
// filters into query parameters. Results come back in server ranking
// order and are returned as-is.
func (e *Engine) remoteSearch(ctx context.Context, query string, filters Filters) ([]Result, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("role", normalizeAll(filters.Role))
	params.Set("type", normalizeAll(filters.MessageType))
	if filters.DateRange != "" && filters.DateRange != DateRangeNone {
		params.Set("range", string(filters.DateRange))
	}
	if len(filters.ThreadIDs) > 0 {
		params.Set("threads", strings.Join(filters.ThreadIDs, ","))
	}
	params.Set("limit", strconv.Itoa(e.maxResults))

	endpoint := e.baseURL + "/api/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &BackendError{Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, &BackendError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &BackendError{Status: resp.StatusCode}
	}

	var parsed remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &BackendError{Err: err}
	}
	if parsed.Results == nil {
		return []Result{}, nil
	}
	return parsed.Results, nil
}

// =============================================================================
// LOCAL FALLBACK
// =============================================================================

// localSearch scans the thread index, applies the filters and the
// relevance scorer, and ranks survivors by score descending with ties
// broken by recency. Index errors are logged and skipped: the fallback
// always produces a (possibly empty) result.
func (e *Engine) localSearch(ctx context.Context, query string, filters Filters) []Result {
	now := e.now()
	results := []Result{}

	threads, err := e.index.Threads(ctx, filters.ThreadIDs)
	if err != nil {
		log.Printf("search: local index thread listing failed: %v", err)
		return results
	}

	for _, thread := range threads {
		if !filters.wantsThread(thread.ID) {
			continue
		}
		messages, err := e.index.Messages(ctx, thread.ID)
		if err != nil {
			log.Printf("search: local index scan of thread %s failed: %v", thread.ID, err)
			continue
		}
		for i := range messages {
			msg := &messages[i]
			if !filters.Matches(msg, now) {
				continue
			}
			if !Matches(query, msg) {
				continue
			}
			results = append(results, Result{
				Message:     *msg,
				ThreadTitle: thread.Title,
				Score:       Score(query, msg),
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})

	if len(results) > e.maxResults {
		results = results[:e.maxResults]
	}
	return results
}
