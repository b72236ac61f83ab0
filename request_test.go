package beak

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport records calls and replays canned responses in order.
type fakeTransport struct {
	calls     []fakeCall
	responses []fakeResponse
}

type fakeCall struct {
	method  string
	url     string
	headers map[string]string
	body    string
}

type fakeResponse struct {
	body   string
	hdrs   map[string]string
	status int
	err    error
}

func (f *fakeTransport) DoWithHeaderOrder(method, callURL string, headers map[string]string, body io.Reader, order []string) ([]byte, map[string]string, int, error) {
	var bodyStr string
	if body != nil {
		b, _ := io.ReadAll(body)
		bodyStr = string(b)
	}
	f.calls = append(f.calls, fakeCall{method: method, url: callURL, headers: headers, body: bodyStr})

	resp := fakeResponse{status: 200, body: `{"data":{}}`}
	if len(f.responses) > 0 {
		resp = f.responses[0]
		f.responses = f.responses[1:]
	}
	return []byte(resp.body), resp.hdrs, resp.status, resp.err
}

func testEngine(t *testing.T, transport *fakeTransport) *Engine {
	t.Helper()
	cred := &Credential{AuthToken: "tok", CT0: "csrf"}
	registry := NewRegistry(tempCachePath(t), nil)
	return NewEngine(transport, cred, registry, time.Second)
}

func TestSendBuildsGetURL(t *testing.T) {
	transport := &fakeTransport{}
	e := testEngine(t, transport)

	res := e.Send(context.Background(), FetchRequest{
		Operation: "TweetDetail",
		Variables: map[string]any{"focalTweetId": "20"},
	})
	require.True(t, res.OK(), "unexpected failure: %v", res.Err())
	require.Len(t, transport.calls, 1)

	call := transport.calls[0]
	assert.Equal(t, "GET", call.method)
	assert.Contains(t, call.url, graphqlBase+"/"+defaultQueryIDs["TweetDetail"]+"/TweetDetail")
	assert.Contains(t, call.url, "variables=")
	assert.Contains(t, call.url, "features=")
	assert.NotContains(t, call.url, "+", "query blobs must use %20, never +")
}

func TestSendBuildsPostBody(t *testing.T) {
	transport := &fakeTransport{}
	e := testEngine(t, transport)

	res := e.Send(context.Background(), FetchRequest{
		Operation: "CreateTweet",
		Variables: map[string]any{"tweet_text": "hello"},
	})
	require.True(t, res.OK())
	require.Len(t, transport.calls, 1)

	call := transport.calls[0]
	assert.Equal(t, "POST", call.method)

	var payload struct {
		Variables map[string]any `json:"variables"`
		Features  map[string]any `json:"features"`
		QueryID   string         `json:"queryId"`
	}
	require.NoError(t, json.Unmarshal([]byte(call.body), &payload))
	assert.Equal(t, "hello", payload.Variables["tweet_text"])
	assert.Equal(t, defaultQueryIDs["CreateTweet"], payload.QueryID)
	assert.NotEmpty(t, payload.Features)
}

func TestSendInjectsCursor(t *testing.T) {
	transport := &fakeTransport{}
	e := testEngine(t, transport)

	vars := map[string]any{"count": 20}
	res := e.Send(context.Background(), FetchRequest{
		Operation: "Bookmarks",
		Variables: vars,
		Cursor:    "CURSOR-1",
	})
	require.True(t, res.OK())
	assert.Contains(t, transport.calls[0].url, "CURSOR-1")
	_, mutated := vars["cursor"]
	assert.False(t, mutated, "caller's variables map must not be mutated")
}

func TestSendAuthHeaders(t *testing.T) {
	transport := &fakeTransport{}
	e := testEngine(t, transport)
	e.SetClientUserID("12345")

	res := e.Send(context.Background(), FetchRequest{Operation: "Bookmarks"})
	require.True(t, res.OK())

	h := transport.calls[0].headers
	assert.Equal(t, "Bearer "+bearerToken, h["authorization"])
	assert.Equal(t, "csrf", h["x-csrf-token"])
	assert.Equal(t, "auth_token=tok; ct0=csrf", h["cookie"])
	assert.Equal(t, "12345", h["x-twitter-client-user-id"])
	assert.NotEmpty(t, h["x-client-transaction-id"])
}

func TestSendTransactionIDRotates(t *testing.T) {
	transport := &fakeTransport{}
	e := testEngine(t, transport)

	e.Send(context.Background(), FetchRequest{Operation: "Bookmarks"})
	e.Send(context.Background(), FetchRequest{Operation: "Bookmarks"})
	require.Len(t, transport.calls, 2)
	assert.NotEqual(t,
		transport.calls[0].headers["x-client-transaction-id"],
		transport.calls[1].headers["x-client-transaction-id"])
}

func TestSendFailsFastWithoutCredentials(t *testing.T) {
	transport := &fakeTransport{}
	registry := NewRegistry(tempCachePath(t), nil)
	e := NewEngine(transport, &Credential{}, registry, time.Second)

	res := e.Send(context.Background(), FetchRequest{Operation: "Bookmarks"})
	assert.Equal(t, KindTransportError, res.Kind)
	assert.True(t, errors.Is(res.Err(), ErrNoCredentials))
	assert.Empty(t, transport.calls)
}

func TestSendUnknownOperation(t *testing.T) {
	transport := &fakeTransport{}
	e := testEngine(t, transport)

	res := e.Send(context.Background(), FetchRequest{Operation: "NoSuchOp"})
	assert.Equal(t, KindTransportError, res.Kind)
	assert.True(t, errors.Is(res.Err(), ErrUnknownOperation))
	assert.Empty(t, transport.calls)
}

func TestSendClassifiesResponses(t *testing.T) {
	tests := []struct {
		name string
		resp fakeResponse
		want ResultKind
	}{
		{"404", fakeResponse{status: 404, body: "{}"}, KindNotFound},
		{"429", fakeResponse{status: 429, body: "", hdrs: map[string]string{"retry-after": "60"}}, KindRateLimited},
		{"transport", fakeResponse{err: errors.New("tls handshake")}, KindTransportError},
		{"upstream", fakeResponse{status: 500, body: "oops"}, KindUpstreamError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := &fakeTransport{responses: []fakeResponse{tt.resp}}
			e := testEngine(t, transport)
			res := e.Send(context.Background(), FetchRequest{Operation: "Bookmarks"})
			assert.Equal(t, tt.want, res.Kind)
		})
	}
}

func TestSendLegacyFormEncoding(t *testing.T) {
	transport := &fakeTransport{responses: []fakeResponse{{status: 200, body: `{"id_str":"123"}`}}}
	e := testEngine(t, transport)

	form := url.Values{}
	form.Set("status", "hello world")
	res := e.SendLegacy(context.Background(), LegacyRequest{
		Operation: "CreateTweet",
		URL:       legacyStatusUpdateURL,
		Form:      form,
	})
	require.True(t, res.OK())

	call := transport.calls[0]
	assert.Equal(t, "POST", call.method)
	assert.Equal(t, legacyStatusUpdateURL, call.url)
	assert.Equal(t, "application/x-www-form-urlencoded", call.headers["content-type"])
	assert.Contains(t, call.body, "status=hello+world")
}

func TestSendTimeout(t *testing.T) {
	transport := &slowTransport{delay: time.Minute}
	cred := &Credential{AuthToken: "tok", CT0: "csrf"}
	registry := NewRegistry(tempCachePath(t), nil)
	e := NewEngine(transport, cred, registry, time.Second)

	start := time.Now()
	res := e.Send(context.Background(), FetchRequest{
		Operation: "Bookmarks",
		Timeout:   20 * time.Millisecond,
	})
	assert.Equal(t, KindTransportError, res.Kind)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.True(t, errors.Is(res.Err(), context.DeadlineExceeded))
}

type slowTransport struct{ delay time.Duration }

func (s *slowTransport) DoWithHeaderOrder(method, url string, headers map[string]string, body io.Reader, order []string) ([]byte, map[string]string, int, error) {
	time.Sleep(s.delay)
	return nil, nil, 0, nil
}

func TestAddGraphQLParams(t *testing.T) {
	got := addGraphQLParams("https://x.com/i/api/graphql/ID/Op",
		map[string]any{"id": "20"},
		map[string]any{"flag": true},
		map[string]any{"toggle": false})
	assert.True(t, strings.HasPrefix(got, "https://x.com/i/api/graphql/ID/Op?variables="))
	assert.Contains(t, got, "&features=")
	assert.Contains(t, got, "&fieldToggles=")
	assert.NotContains(t, got, `"`)
	assert.NotContains(t, got, "{")
}

func TestJSONEscape(t *testing.T) {
	got := jsonEscape([]byte(`{"q":"a b","n":[1,2]}`))
	assert.Equal(t, "%7B%22q%22%3A%22a%20b%22%2C%22n%22%3A%5B1%2C2%5D%7D", got)
}
