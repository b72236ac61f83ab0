package beak

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastRetry keeps pagination tests snappy.
var fastRetry = RetryPolicy{
	MaxAttempts: 3,
	Backoff:     stealth.BackoffConfig{InitialWait: time.Millisecond, MaxWait: 2 * time.Millisecond, Multiplier: 1.0},
}

// pageBody fabricates a bookmarks page holding one tweet and a cursor.
func pageBody(tweetID, cursor string) string {
	entries := fmt.Sprintf(`{
		"entryId": "tweet-%s",
		"content": {
			"entryType": "TimelineTimelineItem",
			"itemContent": {
				"__typename": "TimelineTweet",
				"tweet_results": {"result": {
					"rest_id": "%s",
					"core": {"user_results": {"result": {"rest_id": "u1", "legacy": {"screen_name": "someone", "name": "Someone"}}}},
					"legacy": {"full_text": "tweet %s", "created_at": "Mon Jan 06 10:00:00 +0000 2025"}
				}}
			}
		}
	}`, tweetID, tweetID, tweetID)
	if cursor != "" {
		entries += fmt.Sprintf(`,{
			"entryId": "cursor-bottom-0",
			"content": {"entryType": "TimelineTimelineCursor", "cursorType": "Bottom", "value": "%s"}
		}`, cursor)
	}
	return fmt.Sprintf(`{"data":{"bookmark_timeline_v2":{"timeline":{"instructions":[{"type":"TimelineAddEntries","entries":[%s]}]}}}}`, entries)
}

func bookmarksPaginator(t *testing.T, transport *fakeTransport, opts PageOptions) *Paginator[Tweet] {
	t.Helper()
	router := testRouter(t, transport, nil)
	parse := func(b []byte) ([]Tweet, string, error) { return parseBookmarksPage(b, 1) }
	return NewPaginator(router, FetchRequest{Operation: "Bookmarks"}, parse, opts, fastRetry)
}

func TestPaginatorSinglePageByDefault(t *testing.T) {
	transport := &fakeTransport{responses: []fakeResponse{
		{status: 200, body: pageBody("1", "C1")},
	}}
	p := bookmarksPaginator(t, transport, PageOptions{})

	page, err := p.Next(context.Background())
	require.NoError(t, err)
	require.NotNil(t, page)
	assert.Len(t, page.Items, 1)

	page, err = p.Next(context.Background())
	require.NoError(t, err)
	assert.Nil(t, page, "default is one page")
	assert.Equal(t, "C1", p.LastCursor(), "capped run keeps its resume cursor")
	assert.Len(t, transport.calls, 1)
}

func TestPaginatorMaxPages(t *testing.T) {
	transport := &fakeTransport{responses: []fakeResponse{
		{status: 200, body: pageBody("1", "C1")},
		{status: 200, body: pageBody("2", "C2")},
		{status: 200, body: pageBody("3", "C3")},
	}}
	p := bookmarksPaginator(t, transport, PageOptions{MaxPages: 2})

	tweets, err := p.Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, tweets, 2)
	assert.Equal(t, "1", tweets[0].ID)
	assert.Equal(t, "2", tweets[1].ID)
	assert.Equal(t, "C2", p.LastCursor())
	assert.Len(t, transport.calls, 2)
}

func TestPaginatorDrainsOnAll(t *testing.T) {
	transport := &fakeTransport{responses: []fakeResponse{
		{status: 200, body: pageBody("1", "C1")},
		{status: 200, body: pageBody("2", "C2")},
		{status: 200, body: pageBody("3", "")},
	}}
	p := bookmarksPaginator(t, transport, PageOptions{All: true})

	tweets, err := p.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, tweets, 3)
	assert.Equal(t, []string{"1", "2", "3"}, []string{tweets[0].ID, tweets[1].ID, tweets[2].ID},
		"upstream order is preserved, no dedup")
	assert.Empty(t, p.LastCursor(), "a drained collection has no resume point")
}

func TestPaginatorResumesFromCursor(t *testing.T) {
	transport := &fakeTransport{responses: []fakeResponse{
		{status: 200, body: pageBody("2", "")},
	}}
	p := bookmarksPaginator(t, transport, PageOptions{StartCursor: "C1"})

	tweets, err := p.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, tweets, 1)
	assert.Equal(t, "2", tweets[0].ID)
	assert.Contains(t, transport.calls[0].url, "C1", "resume cursor must ride the first request")
}

func TestPaginatorRepeatedCursorStops(t *testing.T) {
	// An upstream that echoes the same cursor forever must not loop.
	transport := &fakeTransport{responses: []fakeResponse{
		{status: 200, body: pageBody("1", "SAME")},
		{status: 200, body: pageBody("1", "SAME")},
	}}
	p := bookmarksPaginator(t, transport, PageOptions{All: true})

	tweets, err := p.Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, tweets, 2)
	assert.Len(t, transport.calls, 2)
}

func TestPaginatorRetriesRecoverableFailures(t *testing.T) {
	transport := &fakeTransport{responses: []fakeResponse{
		{status: 429, body: ""},
		{err: errors.New("connection reset")},
		{status: 200, body: pageBody("1", "")},
	}}
	p := bookmarksPaginator(t, transport, PageOptions{All: true})

	tweets, err := p.Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, tweets, 1)
	assert.Len(t, transport.calls, 3)
}

func TestPaginatorRetryBudgetExhausted(t *testing.T) {
	transport := &fakeTransport{responses: []fakeResponse{
		{status: 429}, {status: 429}, {status: 429}, {status: 429},
	}}
	p := bookmarksPaginator(t, transport, PageOptions{All: true})

	tweets, err := p.Collect(context.Background())
	assert.Empty(t, tweets)
	require.Error(t, err)
	var perr *PageError
	require.ErrorAs(t, err, &perr)
	assert.True(t, errors.Is(err, ErrRateLimited))
	assert.Len(t, transport.calls, fastRetry.MaxAttempts)
}

func TestPaginatorTerminalFailureKeepsProgress(t *testing.T) {
	transport := &fakeTransport{responses: []fakeResponse{
		{status: 200, body: pageBody("1", "C1")},
		{status: 200, body: `{"errors":[{"code":366,"message":"bad variables"}],"data":null}`},
	}}
	p := bookmarksPaginator(t, transport, PageOptions{All: true})

	tweets, err := p.Collect(context.Background())
	assert.Len(t, tweets, 1, "items already fetched are kept")
	require.Error(t, err)
	var perr *PageError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 1, perr.Pages)
	assert.Equal(t, "C1", perr.Cursor, "error carries the resume cursor")
	assert.Len(t, transport.calls, 2, "upstream errors are not retried")
}

func TestPaginatorContextCancellation(t *testing.T) {
	transport := &fakeTransport{responses: []fakeResponse{
		{status: 200, body: pageBody("1", "C1")},
	}}
	p := bookmarksPaginator(t, transport, PageOptions{All: true})

	ctx, cancel := context.WithCancel(context.Background())
	page, err := p.Next(ctx)
	require.NoError(t, err)
	require.NotNil(t, page)
	cancel()

	_, err = p.Next(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestPositiveMaxPagesImpliesAll(t *testing.T) {
	p := &Paginator[Tweet]{opts: PageOptions{MaxPages: 5}}
	assert.Equal(t, 5, p.maxPages())
	p = &Paginator[Tweet]{opts: PageOptions{All: true}}
	assert.Greater(t, p.maxPages(), 1<<30)
	p = &Paginator[Tweet]{opts: PageOptions{}}
	assert.Equal(t, 1, p.maxPages())
}
