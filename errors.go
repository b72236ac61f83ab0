package beak

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Sentinel errors for the failure taxonomy. Callers match with errors.Is.
var (
	ErrNoCredentials    = errors.New("no credentials resolved")
	ErrUnknownOperation = errors.New("unknown operation")
	ErrNotFound         = errors.New("operation not found upstream")
	ErrRateLimited      = errors.New("rate limited")
	ErrAutomatedRequest = errors.New("automated request rejected")
	ErrTransport        = errors.New("transport error")
	ErrUpstream         = errors.New("upstream error")
)

// ResultKind classifies the outcome of a single upstream call.
type ResultKind int

const (
	KindSuccess ResultKind = iota
	KindNotFound
	KindRateLimited
	KindAutomatedRejected
	KindTransportError
	KindUpstreamError
)

// Result is the classified outcome of one request. Exactly one call, no
// retries; recovery policy lives in Router and Paginator.
type Result struct {
	Kind      ResultKind
	Payload   []byte
	Operation string

	// RetryAfter is the advised wait for KindRateLimited, zero if the
	// upstream did not advertise one.
	RetryAfter time.Duration

	// Code and Message carry the first upstream error for KindUpstreamError
	// and KindAutomatedRejected.
	Code    int
	Message string

	cause error
}

// OK reports whether the call succeeded.
func (r Result) OK() bool { return r.Kind == KindSuccess }

// Err materializes the result as an error, nil on success.
func (r Result) Err() error {
	switch r.Kind {
	case KindSuccess:
		return nil
	case KindNotFound:
		return fmt.Errorf("%s: %w", r.Operation, ErrNotFound)
	case KindRateLimited:
		if r.RetryAfter > 0 {
			return fmt.Errorf("%s: %w (retry after %s)", r.Operation, ErrRateLimited, r.RetryAfter)
		}
		return fmt.Errorf("%s: %w", r.Operation, ErrRateLimited)
	case KindAutomatedRejected:
		return fmt.Errorf("%s: %w", r.Operation, ErrAutomatedRequest)
	case KindTransportError:
		if r.cause != nil {
			return fmt.Errorf("%s: %w: %w", r.Operation, ErrTransport, r.cause)
		}
		return fmt.Errorf("%s: %w", r.Operation, ErrTransport)
	default:
		if r.Message != "" {
			return fmt.Errorf("%s: %w: %s (%d)", r.Operation, ErrUpstream, r.Message, r.Code)
		}
		return fmt.Errorf("%s: %w (code %d)", r.Operation, ErrUpstream, r.Code)
	}
}

// upstreamError is one entry of the "errors" array in a GraphQL response body.
type upstreamError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// automatedRequestCode is the error code X returns when it suspects the
// request was issued by automation rather than the web app.
const automatedRequestCode = 226

// rateLimitCode is the in-body equivalent of HTTP 429.
const rateLimitCode = 88

// parseUpstreamErrors extracts the "errors" array from a response body.
func parseUpstreamErrors(body []byte) []upstreamError {
	var resp struct {
		Errors []upstreamError `json:"errors"`
	}
	if json.Unmarshal(body, &resp) != nil {
		return nil
	}
	return resp.Errors
}

// formatUpstreamErrors renders upstream errors the way the web client does.
func formatUpstreamErrors(errs []upstreamError) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		if e.Code != 0 {
			parts = append(parts, fmt.Sprintf("%s (%d)", e.Message, e.Code))
		} else if e.Message != "" {
			parts = append(parts, e.Message)
		}
	}
	return strings.Join(parts, ", ")
}

// classify maps an HTTP response onto a Result. write gates the 226
// automated-request classification to mutation operations.
func classify(operation string, status int, hdrs map[string]string, body []byte, write bool) Result {
	switch {
	case status == 404:
		return Result{Kind: KindNotFound, Operation: operation}
	case status == 429:
		return Result{Kind: KindRateLimited, Operation: operation, RetryAfter: retryAfterFromHeaders(hdrs)}
	}

	errs := parseUpstreamErrors(body)
	for _, e := range errs {
		switch e.Code {
		case automatedRequestCode:
			if write {
				return Result{Kind: KindAutomatedRejected, Operation: operation, Code: e.Code, Message: e.Message}
			}
		case rateLimitCode:
			return Result{Kind: KindRateLimited, Operation: operation, RetryAfter: retryAfterFromHeaders(hdrs)}
		}
	}

	if status >= 200 && status < 300 {
		if len(errs) > 0 && !hasResponseData(body) {
			return Result{Kind: KindUpstreamError, Operation: operation, Code: errs[0].Code, Message: formatUpstreamErrors(errs)}
		}
		return Result{Kind: KindSuccess, Operation: operation, Payload: body}
	}

	msg := formatUpstreamErrors(errs)
	if msg == "" {
		msg = truncateBytes(body, 200)
	}
	return Result{Kind: KindUpstreamError, Operation: operation, Code: status, Message: msg}
}

// retryAfterFromHeaders reads retry-after (seconds) or x-rate-limit-reset
// (unix timestamp) from response headers.
func retryAfterFromHeaders(hdrs map[string]string) time.Duration {
	if v := hdrs["retry-after"]; v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	if v := hdrs["x-rate-limit-reset"]; v != "" {
		if ts, err := strconv.ParseInt(v, 10, 64); err == nil {
			if d := time.Until(time.Unix(ts, 0)); d > 0 {
				return d
			}
		}
	}
	return 0
}

// hasResponseData returns true if the JSON body contains a non-null "data" field.
func hasResponseData(body []byte) bool {
	var probe struct {
		Data json.RawMessage `json:"data"`
	}
	if json.Unmarshal(body, &probe) != nil {
		return false
	}
	return len(probe.Data) > 0 && string(probe.Data) != "null"
}

func truncateBytes(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
