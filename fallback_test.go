package beak

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRouter(t *testing.T, transport *fakeTransport, probe ProbeFunc) *Router {
	t.Helper()
	cred := &Credential{AuthToken: "tok", CT0: "csrf"}
	registry := NewRegistry(tempCachePath(t), probe)
	engine := NewEngine(transport, cred, registry, time.Second)
	return NewRouter(engine, registry)
}

func TestRouterNotFoundRefreshesAndRetriesOnce(t *testing.T) {
	transport := &fakeTransport{responses: []fakeResponse{
		{status: 404, body: "{}"},
		{status: 200, body: `{"data":{"ok":true}}`},
	}}
	probeCalls := 0
	router := testRouter(t, transport, func(ctx context.Context, ops []string) (map[string]string, error) {
		probeCalls++
		return map[string]string{"TweetDetail": "refreshed-id"}, nil
	})

	res := router.Execute(context.Background(), FetchRequest{Operation: "TweetDetail"})
	require.True(t, res.OK(), "unexpected failure: %v", res.Err())
	assert.Equal(t, 1, probeCalls)
	require.Len(t, transport.calls, 2)

	// The retry must ride the refreshed binding.
	assert.Contains(t, transport.calls[0].url, defaultQueryIDs["TweetDetail"])
	assert.Contains(t, transport.calls[1].url, "refreshed-id")
}

func TestRouterNotFoundTwiceSurfaces(t *testing.T) {
	transport := &fakeTransport{responses: []fakeResponse{
		{status: 404, body: "{}"},
		{status: 404, body: "{}"},
	}}
	router := testRouter(t, transport, func(ctx context.Context, ops []string) (map[string]string, error) {
		return map[string]string{"TweetDetail": "still-bad"}, nil
	})

	res := router.Execute(context.Background(), FetchRequest{Operation: "TweetDetail"})
	assert.Equal(t, KindNotFound, res.Kind)
	assert.Len(t, transport.calls, 2, "exactly one retry, never a loop")
}

func TestRouterNotFoundRefreshFailureKeepsResult(t *testing.T) {
	transport := &fakeTransport{responses: []fakeResponse{{status: 404, body: "{}"}}}
	router := testRouter(t, transport, func(ctx context.Context, ops []string) (map[string]string, error) {
		return nil, context.DeadlineExceeded
	})

	res := router.Execute(context.Background(), FetchRequest{Operation: "TweetDetail"})
	assert.Equal(t, KindNotFound, res.Kind)
	assert.Len(t, transport.calls, 1, "no retry without a successful refresh")
}

func TestRouterAutomatedRejectionFallsBackToLegacy(t *testing.T) {
	transport := &fakeTransport{responses: []fakeResponse{
		{status: 200, body: `{"errors":[{"code":226,"message":"automated"}]}`},
		{status: 200, body: `{"id_str":"999"}`},
	}}
	router := testRouter(t, transport, nil)

	res := router.Execute(context.Background(), FetchRequest{
		Operation: "CreateTweet",
		Variables: map[string]any{
			"tweet_text": "hello",
			"reply": map[string]any{
				"in_reply_to_tweet_id": "20",
			},
		},
	})
	require.True(t, res.OK(), "unexpected failure: %v", res.Err())
	require.Len(t, transport.calls, 2)

	legacy := transport.calls[1]
	assert.Equal(t, legacyStatusUpdateURL, legacy.url)
	assert.Contains(t, legacy.body, "status=hello")
	assert.Contains(t, legacy.body, "in_reply_to_status_id=20")
	assert.Contains(t, legacy.body, "auto_populate_reply_metadata=true")
}

func TestRouterAutomatedRejectionNoLegacyEquivalent(t *testing.T) {
	transport := &fakeTransport{responses: []fakeResponse{
		{status: 200, body: `{"errors":[{"code":226,"message":"automated"}]}`},
	}}
	router := testRouter(t, transport, nil)

	res := router.Execute(context.Background(), FetchRequest{
		Operation: "CreateRetweet",
		Variables: map[string]any{"tweet_id": "20"},
	})
	assert.Equal(t, KindAutomatedRejected, res.Kind)
	assert.Len(t, transport.calls, 1, "only tweet creation has a legacy failover")
}

func TestRouterPassesThroughOtherFailures(t *testing.T) {
	for _, resp := range []fakeResponse{
		{status: 429, body: ""},
		{status: 500, body: "oops"},
	} {
		transport := &fakeTransport{responses: []fakeResponse{resp}}
		router := testRouter(t, transport, nil)
		router.Execute(context.Background(), FetchRequest{Operation: "Bookmarks"})
		assert.Len(t, transport.calls, 1, "status %d must not trigger recovery", resp.status)
	}
}

func TestLegacyEquivalentMediaIDs(t *testing.T) {
	req := FetchRequest{
		Operation: "CreateTweet",
		Variables: map[string]any{
			"tweet_text": "with media",
			"media": map[string]any{
				"media_entities": []any{
					map[string]any{"media_id": "111"},
					map[string]any{"media_id": "222"},
				},
			},
		},
	}
	legacy, ok := legacyEquivalent(req)
	require.True(t, ok)
	assert.Equal(t, "111,222", legacy.Form.Get("media_ids"))
}

func TestLegacyEquivalentRequiresText(t *testing.T) {
	_, ok := legacyEquivalent(FetchRequest{Operation: "CreateTweet", Variables: map[string]any{}})
	assert.False(t, ok)
}
