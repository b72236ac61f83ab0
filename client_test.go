package beak

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, transport *fakeTransport) *Client {
	t.Helper()
	cred := &Credential{AuthToken: "tok", CT0: "csrf"}
	registry := NewRegistry(tempCachePath(t), nil)
	engine := NewEngine(transport, cred, registry, time.Second)
	return &Client{
		cred:       cred,
		registry:   registry,
		engine:     engine,
		router:     NewRouter(engine, registry),
		quoteDepth: 1,
	}
}

func TestClientTweet(t *testing.T) {
	transport := &fakeTransport{responses: []fakeResponse{
		{status: 200, body: `{"data":{"create_tweet":{"tweet_results":{"result":{"rest_id":"42"}}}}}`},
	}}
	c := testClient(t, transport)

	id, err := c.Tweet(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "42", id)

	call := transport.calls[0]
	assert.Contains(t, call.url, "/CreateTweet")
	assert.Contains(t, call.body, `"tweet_text":"hello"`)
}

func TestClientTweetRejectsEmptyText(t *testing.T) {
	c := testClient(t, &fakeTransport{})
	_, err := c.Tweet(context.Background(), "")
	assert.Error(t, err)
}

func TestClientTweetLegacyFallbackEndToEnd(t *testing.T) {
	transport := &fakeTransport{responses: []fakeResponse{
		{status: 200, body: `{"errors":[{"code":226,"message":"automated"}]}`},
		{status: 200, body: `{"id_str":"77"}`},
	}}
	c := testClient(t, transport)

	id, err := c.Tweet(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "77", id, "legacy response shape must parse too")
}

func TestClientTweetWithMedia(t *testing.T) {
	transport := &fakeTransport{responses: []fakeResponse{
		{status: 200, body: `{"data":{"create_tweet":{"tweet_results":{"result":{"rest_id":"44"}}}}}`},
	}}
	c := testClient(t, transport)

	_, err := c.Tweet(context.Background(), "look at this", "111", "222")
	require.NoError(t, err)
	assert.Contains(t, transport.calls[0].body, `"media_id":"111"`)
	assert.Contains(t, transport.calls[0].body, `"media_id":"222"`)
}

func TestClientReply(t *testing.T) {
	transport := &fakeTransport{responses: []fakeResponse{
		{status: 200, body: `{"data":{"create_tweet":{"tweet_results":{"result":{"rest_id":"43"}}}}}`},
	}}
	c := testClient(t, transport)

	id, err := c.Reply(context.Background(), "good point", "https://x.com/jack/status/20")
	require.NoError(t, err)
	assert.Equal(t, "43", id)
	assert.Contains(t, transport.calls[0].body, `"in_reply_to_tweet_id":"20"`)
}

func TestClientCurrentUserCached(t *testing.T) {
	transport := &fakeTransport{responses: []fakeResponse{
		{status: 200, body: `{"screen_name":"me"}`},
		{status: 200, body: `{"data":{"user":{"result":{"rest_id":"555","legacy":{"screen_name":"me","name":"Me"}}}}}`},
	}}
	c := testClient(t, transport)

	me, err := c.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "555", me.ID)
	assert.Equal(t, "me", me.Username)

	again, err := c.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Same(t, me, again)
	assert.Len(t, transport.calls, 2, "second lookup must hit the cache")

	// Subsequent requests carry the learned user id header.
	c.engine.Send(context.Background(), FetchRequest{Operation: "Bookmarks"})
	assert.Equal(t, "555", transport.calls[2].headers["x-twitter-client-user-id"])
}

func TestClientLike(t *testing.T) {
	transport := &fakeTransport{responses: []fakeResponse{
		{status: 200, body: `{"data":{"favorite_tweet":"Done"}}`},
	}}
	c := testClient(t, transport)

	require.NoError(t, c.Like(context.Background(), "20"))
	assert.Contains(t, transport.calls[0].url, "/FavoriteTweet")
	assert.Contains(t, transport.calls[0].body, `"tweet_id":"20"`)
}

func TestClientUnbookmarkBadRef(t *testing.T) {
	c := testClient(t, &fakeTransport{})
	err := c.Unbookmark(context.Background(), "definitely not a tweet")
	assert.Error(t, err)
}

func TestClientBookmarksPaginates(t *testing.T) {
	transport := &fakeTransport{responses: []fakeResponse{
		{status: 200, body: pageBody("1", "C1")},
		{status: 200, body: pageBody("2", "")},
	}}
	c := testClient(t, transport)

	p := c.Bookmarks(PageOptions{All: true})
	tweets, err := p.Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, tweets, 2)
	assert.Contains(t, transport.calls[0].url, "/Bookmarks")
	assert.Contains(t, transport.calls[1].url, "C1")
}

func TestConfigMerge(t *testing.T) {
	base := &Config{TimeoutMs: 1000, ChromeProfile: "Default"}
	base.merge(&Config{TimeoutMs: 5000, FirefoxProfile: "work"})
	assert.Equal(t, 5000, base.TimeoutMs)
	assert.Equal(t, "Default", base.ChromeProfile, "unset fields in the overlay keep the base value")
	assert.Equal(t, "work", base.FirefoxProfile)
	assert.Equal(t, 5*time.Second, base.Timeout())
	assert.Zero(t, (&Config{}).CookieTimeout())
}

func TestClientConfigFromConfig(t *testing.T) {
	cfg := ClientConfig{Timeout: time.Second}.FromConfig(&Config{
		TimeoutMs:     9000,
		Proxy:         "socks5://127.0.0.1:9050",
		CookieSources: []string{"firefox"},
	})
	assert.Equal(t, time.Second, cfg.Timeout, "explicit flags beat the config file")
	assert.Equal(t, "socks5://127.0.0.1:9050", cfg.Proxy)
	assert.Equal(t, []string{"firefox"}, cfg.CookieSources)
}
