package beak

import (
	"context"
	"fmt"
	"net/url"
)

const defaultPageSize = 20

// Bookmarks pages through the authenticated user's bookmarks.
func (c *Client) Bookmarks(opts PageOptions) *Paginator[Tweet] {
	req := FetchRequest{
		Operation: "Bookmarks",
		Variables: map[string]any{
			"count":                  defaultPageSize,
			"includePromotedContent": false,
		},
		FieldToggles: map[string]any{"withAuxiliaryUserLabels": false},
		Referer:      "https://x.com/i/bookmarks",
	}
	return c.tweetPaginator(req, opts)
}

// BookmarkFolder pages through one bookmark folder, identified by ID or URL.
func (c *Client) BookmarkFolder(folderRef string, opts PageOptions) (*Paginator[Tweet], error) {
	id, err := ExtractBookmarkFolderID(folderRef)
	if err != nil {
		return nil, err
	}
	req := FetchRequest{
		Operation: "BookmarkFolderTimeline",
		Variables: map[string]any{
			"bookmark_collection_id": id,
			"count":                  defaultPageSize,
			"includePromotedContent": false,
		},
		Referer: "https://x.com/i/bookmarks/" + id,
	}
	return c.tweetPaginator(req, opts), nil
}

// Likes pages through the authenticated user's liked tweets. The likes
// endpoint keys on user ID, so this resolves the current user first.
func (c *Client) Likes(ctx context.Context, opts PageOptions) (*Paginator[Tweet], error) {
	me, err := c.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve current user: %w", err)
	}
	req := FetchRequest{
		Operation: "Likes",
		Variables: map[string]any{
			"userId":                 me.ID,
			"count":                  defaultPageSize,
			"includePromotedContent": false,
			"withClientEventToken":   false,
			"withBirdwatchNotes":     false,
			"withVoice":              true,
			"withV2Timeline":         true,
		},
		Referer: fmt.Sprintf("https://x.com/%s/likes", me.Username),
	}
	return c.tweetPaginator(req, opts), nil
}

// SearchProduct selects which search tab to page through.
type SearchProduct string

const (
	SearchLatest SearchProduct = "Latest"
	SearchTop    SearchProduct = "Top"
	SearchPeople SearchProduct = "People"
	SearchMedia  SearchProduct = "Media"
)

// Search pages through search results for a raw query. The query accepts
// the full search operator syntax (from:, since:, filter:, quoted phrases).
func (c *Client) Search(query string, product SearchProduct, opts PageOptions) *Paginator[Tweet] {
	if product == "" {
		product = SearchLatest
	}
	req := FetchRequest{
		Operation: "SearchTimeline",
		Variables: map[string]any{
			"rawQuery":    query,
			"count":       defaultPageSize,
			"querySource": "typed_query",
			"product":     string(product),
		},
		Referer: "https://x.com/search?q=" + url.QueryEscape(query) + "&src=typed_query",
	}
	return c.tweetPaginator(req, opts)
}

// ListTimeline pages through a list's latest tweets, identified by ID or URL.
func (c *Client) ListTimeline(listRef string, opts PageOptions) (*Paginator[Tweet], error) {
	id, err := ExtractListID(listRef)
	if err != nil {
		return nil, err
	}
	req := FetchRequest{
		Operation: "ListLatestTweetsTimeline",
		Variables: map[string]any{
			"listId": id,
			"count":  defaultPageSize,
		},
		Referer: "https://x.com/i/lists/" + id,
	}
	return c.tweetPaginator(req, opts), nil
}

// Articles pages through a user's long-form articles, identified by username
// or profile URL.
func (c *Client) Articles(ctx context.Context, userRef string, opts PageOptions) (*Paginator[Tweet], error) {
	user, err := c.UserByUsername(ctx, userRef)
	if err != nil {
		return nil, err
	}
	req := FetchRequest{
		Operation: "UserArticlesTweets",
		Variables: map[string]any{
			"userId":                 user.ID,
			"count":                  defaultPageSize,
			"includePromotedContent": false,
			"withVoice":              true,
		},
		Referer: fmt.Sprintf("https://x.com/%s/articles", user.Username),
	}
	return c.tweetPaginator(req, opts), nil
}

func (c *Client) tweetPaginator(req FetchRequest, opts PageOptions) *Paginator[Tweet] {
	parse := c.pageParser(req.Operation)
	return NewPaginator(c.router, req, parse, opts, DefaultRetryPolicy)
}

// pageParser picks the envelope parser for a tweet-bearing operation.
func (c *Client) pageParser(operation string) ParsePageFunc[Tweet] {
	switch operation {
	case "Bookmarks", "BookmarkFolderTimeline":
		return func(b []byte) ([]Tweet, string, error) { return parseBookmarksPage(b, c.quoteDepth) }
	case "SearchTimeline":
		return func(b []byte) ([]Tweet, string, error) { return parseSearchPage(b, c.quoteDepth) }
	case "ListLatestTweetsTimeline":
		return func(b []byte) ([]Tweet, string, error) { return parseListTimelinePage(b, c.quoteDepth) }
	default:
		// Likes, UserArticlesTweets, and other user-scoped timelines.
		return func(b []byte) ([]Tweet, string, error) { return parseUserTimelinePage(b, c.quoteDepth) }
	}
}
