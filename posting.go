package beak

import (
	"context"
	"encoding/json"
	"fmt"
)

// Tweet posts a new tweet and returns its ID. mediaIDs are IDs of media
// already uploaded to the account.
func (c *Client) Tweet(ctx context.Context, text string, mediaIDs ...string) (string, error) {
	return c.createTweet(ctx, text, "", mediaIDs)
}

// Reply posts a reply to the tweet identified by ID or URL and returns the
// new tweet's ID.
func (c *Client) Reply(ctx context.Context, text, tweetRef string, mediaIDs ...string) (string, error) {
	id, err := ExtractTweetID(tweetRef)
	if err != nil {
		return "", err
	}
	return c.createTweet(ctx, text, id, mediaIDs)
}

func (c *Client) createTweet(ctx context.Context, text, inReplyTo string, mediaIDs []string) (string, error) {
	if text == "" {
		return "", fmt.Errorf("tweet text is empty")
	}

	entities := make([]any, 0, len(mediaIDs))
	for _, id := range mediaIDs {
		entities = append(entities, map[string]any{"media_id": id, "tagged_users": []any{}})
	}
	variables := map[string]any{
		"tweet_text":   text,
		"dark_request": false,
		"media": map[string]any{
			"media_entities":     entities,
			"possibly_sensitive": false,
		},
		"semantic_annotation_ids": []any{},
	}
	if inReplyTo != "" {
		variables["reply"] = map[string]any{
			"in_reply_to_tweet_id":   inReplyTo,
			"exclude_reply_user_ids": []any{},
		}
	}

	req := FetchRequest{
		Operation: "CreateTweet",
		Variables: variables,
		Referer:   "https://x.com/compose/post",
	}
	return ExecuteParsed(ctx, c.router, req, parseCreatedTweetID)
}

// parseCreatedTweetID accepts either response shape a tweet creation can
// come back in: the GraphQL mutation envelope, or the 1.1 status object the
// legacy failover returns.
func parseCreatedTweetID(body []byte) (string, error) {
	if id, err := parseCreateTweet(body); err == nil {
		return id, nil
	}
	var probe struct {
		IDStr string `json:"id_str"`
	}
	if err := json.Unmarshal(body, &probe); err == nil && probe.IDStr != "" {
		return parseLegacyStatusUpdate(body)
	}
	return "", fmt.Errorf("tweet created but no ID in response")
}

// Retweet retweets the tweet identified by ID or URL.
func (c *Client) Retweet(ctx context.Context, tweetRef string) error {
	id, err := ExtractTweetID(tweetRef)
	if err != nil {
		return err
	}
	res := c.router.Execute(ctx, FetchRequest{
		Operation: "CreateRetweet",
		Variables: map[string]any{"tweet_id": id, "dark_request": false},
	})
	return res.Err()
}

// Like likes the tweet identified by ID or URL. Liking an already-liked
// tweet surfaces the upstream "already favorited" error unchanged.
func (c *Client) Like(ctx context.Context, tweetRef string) error {
	id, err := ExtractTweetID(tweetRef)
	if err != nil {
		return err
	}
	res := c.router.Execute(ctx, FetchRequest{
		Operation: "FavoriteTweet",
		Variables: map[string]any{"tweet_id": id},
	})
	return res.Err()
}

// Unbookmark removes the tweet identified by ID or URL from bookmarks.
func (c *Client) Unbookmark(ctx context.Context, tweetRef string) error {
	id, err := ExtractTweetID(tweetRef)
	if err != nil {
		return err
	}
	res := c.router.Execute(ctx, FetchRequest{
		Operation: "DeleteBookmark",
		Variables: map[string]any{"tweet_id": id},
	})
	return res.Err()
}

// ReadTweet fetches one tweet's conversation view: the tweet itself plus
// the thread context the detail endpoint returns, in upstream order.
func (c *Client) ReadTweet(ctx context.Context, tweetRef string) ([]Tweet, error) {
	id, err := ExtractTweetID(tweetRef)
	if err != nil {
		return nil, err
	}
	req := FetchRequest{
		Operation: "TweetDetail",
		Variables: map[string]any{
			"focalTweetId":                           id,
			"with_rux_injections":                    false,
			"includePromotedContent":                 false,
			"withCommunity":                          true,
			"withQuickPromoteEligibilityTweetFields": false,
			"withBirdwatchNotes":                     true,
			"withVoice":                              true,
			"withV2Timeline":                         true,
		},
		FieldToggles: map[string]any{
			"withArticleRichContentState": true,
			"withArticlePlainText":        false,
		},
		Referer: TweetURL("", id),
	}
	return ExecuteParsed(ctx, c.router, req, func(body []byte) ([]Tweet, error) {
		tweets, _, err := parseTweetDetail(body, c.quoteDepth)
		return tweets, err
	})
}
