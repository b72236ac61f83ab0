package beak

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// Router wraps the engine with bounded recovery policy. Per call, at most
// one recovery attempt is made: a stale query ID earns one refreshed retry,
// an anti-automation rejection on an eligible write earns one legacy
// failover. Nothing loops.
type Router struct {
	engine   *Engine
	registry *Registry
}

// NewRouter wires recovery policy around an engine and its registry.
func NewRouter(engine *Engine, registry *Registry) *Router {
	return &Router{engine: engine, registry: registry}
}

// Execute sends one request and applies the recovery policy to its result.
func (r *Router) Execute(ctx context.Context, req FetchRequest) Result {
	res := r.engine.Send(ctx, req)

	switch res.Kind {
	case KindNotFound:
		// Stale query ID: invalidate, refresh, retry exactly once. The
		// engine re-resolves the ID from the registry, so the retry picks
		// up whatever the refresh derived.
		r.registry.Invalidate(req.Operation)
		if _, err := r.registry.Refresh(ctx, false); err != nil {
			slog.Warn("query id refresh failed", slog.String("operation", req.Operation), slog.Any("error", err))
			return res
		}
		slog.Info("retrying with refreshed query id", slog.String("operation", req.Operation))
		return r.engine.Send(ctx, req)

	case KindAutomatedRejected:
		legacy, ok := legacyEquivalent(req)
		if !ok {
			return res
		}
		slog.Info("anti-automation rejection, falling back to legacy endpoint",
			slog.String("operation", req.Operation), slog.String("url", legacy.URL))
		return r.engine.SendLegacy(ctx, legacy)

	default:
		// RateLimited, TransportError, and UpstreamError surface unchanged;
		// retry policy for the recoverable ones lives with the caller.
		return res
	}
}

// legacyEquivalent maps a rejected write operation onto its 1.1 REST
// equivalent, when one exists. Only tweet creation has one.
func legacyEquivalent(req FetchRequest) (LegacyRequest, bool) {
	if req.Operation != "CreateTweet" {
		return LegacyRequest{}, false
	}

	text, _ := req.Variables["tweet_text"].(string)
	if text == "" {
		return LegacyRequest{}, false
	}

	form := url.Values{}
	form.Set("status", text)
	form.Set("tweet_mode", "extended")

	if reply, ok := req.Variables["reply"].(map[string]any); ok {
		if id, ok := reply["in_reply_to_tweet_id"].(string); ok && id != "" {
			form.Set("in_reply_to_status_id", id)
			form.Set("auto_populate_reply_metadata", "true")
		}
	}
	if ids := mediaIDsFromVariables(req.Variables); len(ids) > 0 {
		form.Set("media_ids", strings.Join(ids, ","))
	}

	return LegacyRequest{
		Operation: req.Operation,
		URL:       legacyStatusUpdateURL,
		Form:      form,
		Timeout:   req.Timeout,
	}, true
}

// mediaIDsFromVariables pulls attached media IDs out of CreateTweet variables.
func mediaIDsFromVariables(variables map[string]any) []string {
	media, ok := variables["media"].(map[string]any)
	if !ok {
		return nil
	}
	entities, ok := media["media_entities"].([]map[string]any)
	if !ok {
		// Variables built from decoded JSON carry []any instead.
		raw, ok := media["media_entities"].([]any)
		if !ok {
			return nil
		}
		for _, e := range raw {
			if m, ok := e.(map[string]any); ok {
				entities = append(entities, m)
			}
		}
	}
	var ids []string
	for _, e := range entities {
		if id, ok := e["media_id"].(string); ok && id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// ExecuteParsed runs a request through the router and hands the payload to
// a parser, converting failed results to errors.
func ExecuteParsed[T any](ctx context.Context, r *Router, req FetchRequest, parse func([]byte) (T, error)) (T, error) {
	var zero T
	res := r.Execute(ctx, req)
	if !res.OK() {
		return zero, res.Err()
	}
	out, err := parse(res.Payload)
	if err != nil {
		return zero, fmt.Errorf("parse %s: %w", req.Operation, err)
	}
	return out, nil
}
