package beak

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	stealth "github.com/anatolykoptev/go-stealth"
)

// RetryPolicy is the bounded-retry-with-backoff strategy pagination applies
// to recoverable per-page failures. Tests inject zero-delay variants.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     stealth.BackoffConfig
}

// DefaultRetryPolicy retries a failed page fetch up to twice more with
// exponential backoff.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 3,
	Backoff: stealth.BackoffConfig{
		InitialWait: 500 * time.Millisecond,
		MaxWait:     10 * time.Second,
		Multiplier:  2.0,
		JitterPct:   0.3,
	},
}

// PageOptions controls how far pagination runs.
type PageOptions struct {
	// All drains the collection until the upstream stops returning a cursor.
	All bool

	// MaxPages caps the number of page fetches. A positive MaxPages implies
	// All: capping at N pages only makes sense when more than one page was
	// requested.
	MaxPages int

	// StartCursor resumes from a cursor returned by a prior run. Opaque;
	// passed through untouched.
	StartCursor string
}

// Page is one fetched page of a cursor-bearing collection.
type Page[T any] struct {
	Items      []T
	NextCursor string
}

// ParsePageFunc extracts the items and the next cursor from one response
// payload. An empty cursor ends the collection.
type ParsePageFunc[T any] func(payload []byte) (items []T, nextCursor string, err error)

// PageError reports a pagination failure along with how much was fetched
// before it. Items already returned by Next are never discarded.
type PageError struct {
	Pages  int
	Items  int
	Cursor string // last cursor that produced a page, for resumption
	Err    error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("pagination failed after %d pages (%d items): %v", e.Pages, e.Items, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// Paginator drives a cursor-bearing operation page by page. Pages are
// fetched lazily on Next, so the caller can stop early, and the last-seen
// cursor is always available for a later invocation to resume from.
type Paginator[T any] struct {
	router *Router
	req    FetchRequest
	parse  ParsePageFunc[T]
	opts   PageOptions
	policy RetryPolicy

	cursor string
	pages  int
	items  int
	done   bool
}

// NewPaginator prepares pagination of one operation. The request's own
// Cursor field is ignored; opts.StartCursor is authoritative.
func NewPaginator[T any](router *Router, req FetchRequest, parse ParsePageFunc[T], opts PageOptions, policy RetryPolicy) *Paginator[T] {
	if policy.MaxAttempts <= 0 {
		policy = DefaultRetryPolicy
	}
	return &Paginator[T]{
		router: router,
		req:    req,
		parse:  parse,
		opts:   opts,
		policy: policy,
		cursor: opts.StartCursor,
	}
}

// Next fetches the next page, or returns (nil, nil) when the collection is
// drained or the page limit is reached. Recoverable failures (rate limit,
// transport) are retried per the policy; anything else ends pagination with
// a *PageError carrying the progress so far.
func (p *Paginator[T]) Next(ctx context.Context) (*Page[T], error) {
	if p.done || p.pages >= p.maxPages() {
		return nil, nil
	}

	req := p.req
	req.Cursor = p.cursor

	payload, err := p.fetchWithRetry(ctx, req)
	if err != nil {
		p.done = true
		return nil, &PageError{Pages: p.pages, Items: p.items, Cursor: p.cursor, Err: err}
	}

	items, nextCursor, err := p.parse(payload)
	if err != nil {
		p.done = true
		return nil, &PageError{Pages: p.pages, Items: p.items, Cursor: p.cursor, Err: fmt.Errorf("parse %s: %w", req.Operation, err)}
	}

	p.pages++
	p.items += len(items)

	// A missing cursor, a cursor identical to the one we sent, or an empty
	// page means the upstream has nothing further. A drained collection has
	// no resume point.
	if nextCursor == "" || nextCursor == req.Cursor || len(items) == 0 {
		p.done = true
		p.cursor = ""
	} else {
		p.cursor = nextCursor
	}

	return &Page[T]{Items: items, NextCursor: nextCursor}, nil
}

// fetchWithRetry applies bounded retry to the recoverable result kinds.
func (p *Paginator[T]) fetchWithRetry(ctx context.Context, req FetchRequest) ([]byte, error) {
	var (
		lastErr    error
		retryAfter time.Duration
	)
	for attempt := 0; attempt < p.policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if attempt > 0 {
			delay := p.policy.Backoff.Duration(attempt - 1)
			if retryAfter > delay {
				delay = min(retryAfter, p.policy.Backoff.MaxWait)
			}
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		res := p.router.Execute(ctx, req)
		switch res.Kind {
		case KindSuccess:
			return res.Payload, nil
		case KindRateLimited, KindTransportError:
			lastErr = res.Err()
			retryAfter = res.RetryAfter
			slog.Debug("page fetch failed, will retry",
				slog.String("operation", req.Operation),
				slog.Int("attempt", attempt+1),
				slog.Any("error", lastErr))
			continue
		default:
			// NotFound here already survived the router's one refresh
			// retry; it and the anti-automation rejection are terminal.
			return nil, res.Err()
		}
	}
	return nil, lastErr
}

// LastCursor returns the cursor to resume from in a later invocation. After
// a full drain it is the final cursor the upstream handed back; after a page
// cap or failure it points at the first unfetched page.
func (p *Paginator[T]) LastCursor() string { return p.cursor }

// Pages returns how many pages have been fetched so far.
func (p *Paginator[T]) Pages() int { return p.pages }

// Items returns how many items have been returned so far.
func (p *Paginator[T]) Items() int { return p.items }

// Collect drains the paginator per its options, preserving upstream order
// and never deduplicating. On failure the items accumulated so far are
// returned alongside the error.
func (p *Paginator[T]) Collect(ctx context.Context) ([]T, error) {
	var items []T
	for {
		page, err := p.Next(ctx)
		if err != nil {
			return items, err
		}
		if page == nil {
			return items, nil
		}
		items = append(items, page.Items...)

		if err := ctx.Err(); err != nil {
			return items, &PageError{Pages: p.pages, Items: p.items, Cursor: p.cursor, Err: err}
		}
	}
}

func (p *Paginator[T]) maxPages() int {
	if p.opts.MaxPages > 0 {
		return p.opts.MaxPages
	}
	if p.opts.All {
		return int(^uint(0) >> 1)
	}
	return 1
}
