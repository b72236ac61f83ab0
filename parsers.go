package beak

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const twitterTimeLayout = "Mon Jan 02 15:04:05 +0000 2006"

// --- Timeline envelope types ---

type timelineObj struct {
	Instructions []timelineInstruction `json:"instructions"`
}

type timelineInstruction struct {
	Type    string          `json:"type"`
	Entries []timelineEntry `json:"entries"`
	Entry   *timelineEntry  `json:"entry"`
}

type timelineEntry struct {
	EntryID string          `json:"entryId"`
	Content timelineContent `json:"content"`
}

type timelineContent struct {
	EntryType   string          `json:"entryType"`
	TypeName    string          `json:"__typename"`
	ItemContent json.RawMessage `json:"itemContent"`
	Items       []struct {
		Item struct {
			ItemContent json.RawMessage `json:"itemContent"`
		} `json:"item"`
	} `json:"items"`
	Value      string `json:"value"`
	CursorType string `json:"cursorType"`
}

type tweetResult struct {
	TypeName string          `json:"__typename"`
	RestID   string          `json:"rest_id"`
	Tweet    json.RawMessage `json:"tweet"` // TweetWithVisibilityResults wrapper
	Core     struct {
		UserResults struct {
			Result userResult `json:"result"`
		} `json:"user_results"`
	} `json:"core"`
	Legacy struct {
		FullText            string `json:"full_text"`
		CreatedAt           string `json:"created_at"`
		ReplyCount          int    `json:"reply_count"`
		RetweetCount        int    `json:"retweet_count"`
		FavoriteCount       int    `json:"favorite_count"`
		ConversationIDStr   string `json:"conversation_id_str"`
		InReplyToStatusID   string `json:"in_reply_to_status_id_str"`
		UserIDStr           string `json:"user_id_str"`
		ExtendedEntities    struct {
			Media []mediaEntity `json:"media"`
		} `json:"extended_entities"`
	} `json:"legacy"`
	NoteTweet struct {
		NoteTweetResults struct {
			Result struct {
				Text string `json:"text"`
			} `json:"result"`
		} `json:"note_tweet_results"`
	} `json:"note_tweet"`
	QuotedStatusResult *struct {
		Result json.RawMessage `json:"result"`
	} `json:"quoted_status_result"`
}

type mediaEntity struct {
	Type          string `json:"type"`
	MediaURLHTTPS string `json:"media_url_https"`
	ExpandedURL   string `json:"expanded_url"`
	OriginalInfo  struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"original_info"`
	VideoInfo struct {
		DurationMillis int `json:"duration_millis"`
		Variants       []struct {
			Bitrate     int    `json:"bitrate"`
			ContentType string `json:"content_type"`
			URL         string `json:"url"`
		} `json:"variants"`
	} `json:"video_info"`
}

type userResult struct {
	TypeName string `json:"__typename"`
	RestID   string `json:"rest_id"`
	Legacy   struct {
		Name            string `json:"name"`
		ScreenName      string `json:"screen_name"`
		Description     string `json:"description"`
		FollowersCount  int    `json:"followers_count"`
		FriendsCount    int    `json:"friends_count"`
		CreatedAt       string `json:"created_at"`
		ProfileImageURL string `json:"profile_image_url_https"`
	} `json:"legacy"`
	IsBlueVerified bool `json:"is_blue_verified"`
}

type listResult struct {
	IDStr           string `json:"id_str"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	MemberCount     int    `json:"member_count"`
	SubscriberCount int    `json:"subscriber_count"`
	Mode            string `json:"mode"`
	UserResults     struct {
		Result userResult `json:"result"`
	} `json:"user_results"`
}

// --- Per-operation envelopes ---

// parseBookmarksPage parses a Bookmarks or BookmarkFolderTimeline page.
func parseBookmarksPage(body []byte, quoteDepth int) ([]Tweet, string, error) {
	var raw struct {
		Data struct {
			BookmarkTimelineV2 struct {
				Timeline timelineObj `json:"timeline"`
			} `json:"bookmark_timeline_v2"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, "", fmt.Errorf("unmarshal bookmarks: %w", err)
	}
	return extractTweetsFromTimeline(raw.Data.BookmarkTimelineV2.Timeline, quoteDepth)
}

// parseUserTimelinePage parses timelines nested under data.user.result,
// covering Likes and UserArticlesTweets.
func parseUserTimelinePage(body []byte, quoteDepth int) ([]Tweet, string, error) {
	tl, err := userTimeline(body)
	if err != nil {
		return nil, "", err
	}
	return extractTweetsFromTimeline(tl, quoteDepth)
}

// parseSearchPage parses a SearchTimeline page.
func parseSearchPage(body []byte, quoteDepth int) ([]Tweet, string, error) {
	var raw struct {
		Data struct {
			SearchByRawQuery struct {
				SearchTimeline struct {
					Timeline timelineObj `json:"timeline"`
				} `json:"search_timeline"`
			} `json:"search_by_raw_query"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, "", fmt.Errorf("unmarshal search timeline: %w", err)
	}
	return extractTweetsFromTimeline(raw.Data.SearchByRawQuery.SearchTimeline.Timeline, quoteDepth)
}

// parseListTimelinePage parses a ListLatestTweetsTimeline page.
func parseListTimelinePage(body []byte, quoteDepth int) ([]Tweet, string, error) {
	var raw struct {
		Data struct {
			List struct {
				TweetsTimeline struct {
					Timeline timelineObj `json:"timeline"`
				} `json:"tweets_timeline"`
			} `json:"list"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, "", fmt.Errorf("unmarshal list timeline: %w", err)
	}
	return extractTweetsFromTimeline(raw.Data.List.TweetsTimeline.Timeline, quoteDepth)
}

// parseUserListPage parses Following/Followers pages.
func parseUserListPage(body []byte) ([]TwitterUser, string, error) {
	tl, err := userTimeline(body)
	if err != nil {
		return nil, "", err
	}
	return extractUsersFromTimeline(tl)
}

// parseListsPage parses ListOwnerships/ListMemberships pages.
func parseListsPage(body []byte) ([]TwitterList, string, error) {
	tl, err := userTimeline(body)
	if err != nil {
		return nil, "", err
	}
	return extractListsFromTimeline(tl)
}

// parseTweetDetail parses a TweetDetail conversation, returning all tweets
// in the thread in upstream order.
func parseTweetDetail(body []byte, quoteDepth int) ([]Tweet, string, error) {
	var raw struct {
		Data struct {
			ThreadedConversation timelineObj `json:"threaded_conversation_with_injections_v2"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, "", fmt.Errorf("unmarshal tweet detail: %w", err)
	}
	return extractTweetsFromTimeline(raw.Data.ThreadedConversation, quoteDepth)
}

// parseCreateTweet extracts the tweet ID from a CreateTweet mutation response.
func parseCreateTweet(body []byte) (string, error) {
	var raw struct {
		Data struct {
			CreateTweet struct {
				TweetResults struct {
					Result struct {
						RestID string `json:"rest_id"`
					} `json:"result"`
				} `json:"tweet_results"`
			} `json:"create_tweet"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("unmarshal CreateTweet: %w", err)
	}
	id := raw.Data.CreateTweet.TweetResults.Result.RestID
	if id == "" {
		return "", fmt.Errorf("tweet created but no ID returned")
	}
	return id, nil
}

// parseLegacyStatusUpdate extracts the tweet ID from a 1.1 statuses/update
// response, the legacy fallback for CreateTweet.
func parseLegacyStatusUpdate(body []byte) (string, error) {
	var raw struct {
		IDStr string          `json:"id_str"`
		ID    json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("unmarshal status update: %w", err)
	}
	if raw.IDStr != "" {
		return raw.IDStr, nil
	}
	if len(raw.ID) > 0 {
		return strings.Trim(string(raw.ID), `"`), nil
	}
	return "", fmt.Errorf("status update returned no ID")
}

func userTimeline(body []byte) (timelineObj, error) {
	var raw struct {
		Data struct {
			User struct {
				Result struct {
					Timeline struct {
						Timeline timelineObj `json:"timeline"`
					} `json:"timeline"`
					TimelineV2 struct {
						Timeline timelineObj `json:"timeline"`
					} `json:"timeline_v2"`
				} `json:"result"`
			} `json:"user"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return timelineObj{}, fmt.Errorf("unmarshal user timeline: %w", err)
	}
	tl := raw.Data.User.Result.Timeline.Timeline
	if len(tl.Instructions) == 0 {
		tl = raw.Data.User.Result.TimelineV2.Timeline
	}
	return tl, nil
}

// --- Extraction ---

// walkEntries visits every entry in a timeline, including single-entry
// instructions, and returns the Bottom cursor when present.
func walkEntries(tl timelineObj, visit func(timelineEntry)) (nextCursor string) {
	for _, instruction := range tl.Instructions {
		entries := instruction.Entries
		if instruction.Entry != nil {
			entries = append(entries, *instruction.Entry)
		}
		for _, entry := range entries {
			if entry.Content.EntryType == "TimelineTimelineCursor" || entry.Content.TypeName == "TimelineTimelineCursor" {
				if entry.Content.CursorType == "Bottom" || strings.Contains(entry.EntryID, "cursor-bottom") {
					nextCursor = entry.Content.Value
				}
				continue
			}
			visit(entry)
		}
	}
	return nextCursor
}

func extractTweetsFromTimeline(tl timelineObj, quoteDepth int) ([]Tweet, string, error) {
	var tweets []Tweet
	cursor := walkEntries(tl, func(entry timelineEntry) {
		contents := entry.Content.itemContents()
		for _, ic := range contents {
			var item struct {
				TypeName     string `json:"__typename"`
				TweetResults struct {
					Result json.RawMessage `json:"result"`
				} `json:"tweet_results"`
			}
			if err := json.Unmarshal(ic, &item); err != nil {
				continue
			}
			if item.TypeName != "TimelineTweet" {
				continue
			}
			t, err := parseTweetResult(item.TweetResults.Result, quoteDepth)
			if err != nil {
				slog.Debug("skip tweet parse error", slog.Any("error", err))
				continue
			}
			tweets = append(tweets, *t)
		}
	})
	return tweets, cursor, nil
}

// itemContents returns the item contents of an entry, unwrapping timeline
// modules (conversation threads ship as modules with nested items).
func (c timelineContent) itemContents() []json.RawMessage {
	if c.ItemContent != nil {
		return []json.RawMessage{c.ItemContent}
	}
	var out []json.RawMessage
	for _, item := range c.Items {
		if item.Item.ItemContent != nil {
			out = append(out, item.Item.ItemContent)
		}
	}
	return out
}

func extractUsersFromTimeline(tl timelineObj) ([]TwitterUser, string, error) {
	var users []TwitterUser
	cursor := walkEntries(tl, func(entry timelineEntry) {
		for _, ic := range entry.Content.itemContents() {
			var item struct {
				TypeName    string `json:"__typename"`
				UserResults struct {
					Result userResult `json:"result"`
				} `json:"user_results"`
			}
			if err := json.Unmarshal(ic, &item); err != nil || item.TypeName != "TimelineUser" {
				continue
			}
			u, err := parseUserResult(item.UserResults.Result)
			if err != nil {
				slog.Debug("skip user parse error", slog.Any("error", err))
				continue
			}
			users = append(users, *u)
		}
	})
	return users, cursor, nil
}

func extractListsFromTimeline(tl timelineObj) ([]TwitterList, string, error) {
	var lists []TwitterList
	cursor := walkEntries(tl, func(entry timelineEntry) {
		for _, ic := range entry.Content.itemContents() {
			var item struct {
				List *listResult `json:"list"`
			}
			if err := json.Unmarshal(ic, &item); err != nil || item.List == nil || item.List.IDStr == "" {
				continue
			}
			l := item.List
			lists = append(lists, TwitterList{
				ID:              l.IDStr,
				Name:            l.Name,
				Description:     l.Description,
				MemberCount:     l.MemberCount,
				SubscriberCount: l.SubscriberCount,
				IsPrivate:       l.Mode == "Private",
				OwnerUsername:   l.UserResults.Result.Legacy.ScreenName,
			})
		}
	})
	return lists, cursor, nil
}

// parseTweetResult maps one tweet_results.result onto a Tweet. quoteDepth
// bounds recursion into quoted tweets.
func parseTweetResult(raw json.RawMessage, quoteDepth int) (*Tweet, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty tweet result")
	}
	var r tweetResult
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("unmarshal tweet result: %w", err)
	}
	// TweetWithVisibilityResults wraps the real tweet one level down.
	if r.RestID == "" && r.Tweet != nil {
		return parseTweetResult(r.Tweet, quoteDepth)
	}
	if r.RestID == "" {
		return nil, fmt.Errorf("empty tweet rest_id (typename=%s)", r.TypeName)
	}

	text := r.Legacy.FullText
	if nt := r.NoteTweet.NoteTweetResults.Result.Text; nt != "" {
		text = nt
	}

	var createdAt time.Time
	if r.Legacy.CreatedAt != "" {
		if t, err := time.Parse(twitterTimeLayout, r.Legacy.CreatedAt); err == nil {
			createdAt = t
		}
	}

	t := &Tweet{
		ID:   r.RestID,
		Text: text,
		Author: TweetAuthor{
			Username: r.Core.UserResults.Result.Legacy.ScreenName,
			Name:     r.Core.UserResults.Result.Legacy.Name,
		},
		AuthorID:          r.Legacy.UserIDStr,
		CreatedAt:         createdAt,
		ReplyCount:        r.Legacy.ReplyCount,
		RetweetCount:      r.Legacy.RetweetCount,
		LikeCount:         r.Legacy.FavoriteCount,
		ConversationID:    r.Legacy.ConversationIDStr,
		InReplyToStatusID: r.Legacy.InReplyToStatusID,
		Media:             parseMedia(r.Legacy.ExtendedEntities.Media),
	}

	if quoteDepth > 0 && r.QuotedStatusResult != nil && len(r.QuotedStatusResult.Result) > 0 {
		if q, err := parseTweetResult(r.QuotedStatusResult.Result, quoteDepth-1); err == nil {
			t.QuotedTweet = q
		}
	}
	return t, nil
}

func parseMedia(entities []mediaEntity) []TweetMedia {
	var media []TweetMedia
	for _, m := range entities {
		tm := TweetMedia{
			Type:       m.Type,
			PreviewURL: m.MediaURLHTTPS,
			Width:      m.OriginalInfo.Width,
			Height:     m.OriginalInfo.Height,
			DurationMs: m.VideoInfo.DurationMillis,
		}
		switch m.Type {
		case "photo":
			tm.URL = m.MediaURLHTTPS
		case "video", "animated_gif":
			best := 0
			for _, v := range m.VideoInfo.Variants {
				if v.ContentType == "video/mp4" && v.Bitrate >= best {
					best = v.Bitrate
					tm.VideoURL = v.URL
				}
			}
			tm.URL = m.ExpandedURL
		}
		media = append(media, tm)
	}
	return media
}

func parseUserResult(r userResult) (*TwitterUser, error) {
	if r.TypeName == "UserUnavailable" {
		return nil, fmt.Errorf("user unavailable (suspended or restricted)")
	}
	if r.RestID == "" {
		return nil, fmt.Errorf("empty user rest_id (typename=%s)", r.TypeName)
	}
	var createdAt time.Time
	if r.Legacy.CreatedAt != "" {
		if t, err := time.Parse(twitterTimeLayout, r.Legacy.CreatedAt); err == nil {
			createdAt = t
		}
	}
	name := r.Legacy.Name
	if name == "" {
		name = r.Legacy.ScreenName
	}
	return &TwitterUser{
		ID:              r.RestID,
		Username:        r.Legacy.ScreenName,
		Name:            name,
		Description:     strings.TrimSpace(r.Legacy.Description),
		FollowersCount:  r.Legacy.FollowersCount,
		FollowingCount:  r.Legacy.FriendsCount,
		IsBlueVerified:  r.IsBlueVerified,
		ProfileImageURL: r.Legacy.ProfileImageURL,
		CreatedAt:       createdAt,
	}, nil
}
