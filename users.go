package beak

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"
)

// CurrentUser identifies the authenticated account. The settings endpoint
// yields the handle; the profile lookup fills in the rest. The result is
// cached for the client's lifetime.
func (c *Client) CurrentUser(ctx context.Context) (*TwitterUser, error) {
	if c.me != nil {
		return c.me, nil
	}

	res := c.engine.SendRaw(ctx, "AccountSettings", accountSettingsURL)
	if !res.OK() {
		return nil, fmt.Errorf("account settings: %w", res.Err())
	}
	var settings struct {
		ScreenName string `json:"screen_name"`
	}
	if err := json.Unmarshal(res.Payload, &settings); err != nil {
		return nil, fmt.Errorf("parse account settings: %w", err)
	}
	if settings.ScreenName == "" {
		return nil, fmt.Errorf("account settings returned no screen name")
	}

	user, err := c.UserByUsername(ctx, settings.ScreenName)
	if err != nil {
		return nil, err
	}
	c.me = user
	c.engine.SetClientUserID(user.ID)
	return user, nil
}

// UserByUsername fetches a profile by handle, @handle, or profile URL.
func (c *Client) UserByUsername(ctx context.Context, userRef string) (*TwitterUser, error) {
	username, err := ExtractUsername(userRef)
	if err != nil {
		return nil, err
	}
	req := FetchRequest{
		Operation: "UserByScreenName",
		Variables: map[string]any{
			"screen_name": username,
		},
		FieldToggles: map[string]any{"withAuxiliaryUserLabels": false},
		Referer:      "https://x.com/" + username,
	}
	return ExecuteParsed(ctx, c.router, req, parseUserByScreenName)
}

func parseUserByScreenName(body []byte) (*TwitterUser, error) {
	var raw struct {
		Data struct {
			User struct {
				Result userResult `json:"result"`
			} `json:"user"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal user lookup: %w", err)
	}
	return parseUserResult(raw.Data.User.Result)
}

// Following lists who a user follows. The GraphQL timeline is tried first;
// when it fails outright the legacy 1.1 list endpoint takes over, which
// survives query-ID rot at the cost of coarser profiles.
func (c *Client) Following(ctx context.Context, userRef string, opts PageOptions) ([]TwitterUser, error) {
	return c.userConnections(ctx, userRef, "Following", legacyBase+"/friends/list.json", opts)
}

// Followers lists a user's followers, with the same legacy failover.
func (c *Client) Followers(ctx context.Context, userRef string, opts PageOptions) ([]TwitterUser, error) {
	return c.userConnections(ctx, userRef, "Followers", legacyBase+"/followers/list.json", opts)
}

func (c *Client) userConnections(ctx context.Context, userRef, operation, legacyURL string, opts PageOptions) ([]TwitterUser, error) {
	user, err := c.UserByUsername(ctx, userRef)
	if err != nil {
		return nil, err
	}

	req := FetchRequest{
		Operation: operation,
		Variables: map[string]any{
			"userId":                 user.ID,
			"count":                  defaultPageSize,
			"includePromotedContent": false,
		},
		Referer: fmt.Sprintf("https://x.com/%s/%s", user.Username, map[string]string{
			"Following": "following", "Followers": "followers",
		}[operation]),
	}
	p := NewPaginator(c.router, req, parseUserListPage, opts, DefaultRetryPolicy)
	users, err := p.Collect(ctx)
	if err == nil {
		return users, nil
	}
	// Partial progress means the GraphQL path works; surface the failure.
	// A dead-on-arrival timeline is worth one shot at the legacy endpoint.
	if len(users) > 0 || errors.Is(err, ErrRateLimited) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return users, err
	}
	slog.Warn("user timeline failed, falling back to legacy list endpoint",
		slog.String("operation", operation), slog.Any("error", err))
	legacy, lerr := c.legacyUserList(ctx, legacyURL, user.Username, opts)
	if lerr != nil {
		return nil, fmt.Errorf("%w (legacy fallback: %v)", err, lerr)
	}
	return legacy, nil
}

// legacyUserList pages the 1.1 friends/followers list endpoints, which use
// numeric cursors ("0" terminal) instead of opaque timeline cursors.
func (c *Client) legacyUserList(ctx context.Context, baseURL, username string, opts PageOptions) ([]TwitterUser, error) {
	maxPages := 1
	if opts.MaxPages > 0 {
		maxPages = opts.MaxPages
	} else if opts.All {
		maxPages = int(^uint(0) >> 1)
	}

	cursor := "-1"
	if opts.StartCursor != "" {
		cursor = opts.StartCursor
	}

	var users []TwitterUser
	for page := 0; page < maxPages; page++ {
		q := url.Values{}
		q.Set("screen_name", username)
		q.Set("count", "200")
		q.Set("cursor", cursor)
		q.Set("skip_status", "true")

		res := c.engine.SendRaw(ctx, "LegacyUserList", baseURL+"?"+q.Encode())
		if !res.OK() {
			return users, res.Err()
		}

		var raw struct {
			Users []struct {
				IDStr           string `json:"id_str"`
				ScreenName      string `json:"screen_name"`
				Name            string `json:"name"`
				Description     string `json:"description"`
				FollowersCount  int    `json:"followers_count"`
				FriendsCount    int    `json:"friends_count"`
				CreatedAt       string `json:"created_at"`
				ProfileImageURL string `json:"profile_image_url_https"`
			} `json:"users"`
			NextCursorStr string `json:"next_cursor_str"`
		}
		if err := json.Unmarshal(res.Payload, &raw); err != nil {
			return users, fmt.Errorf("parse legacy user list: %w", err)
		}
		for _, u := range raw.Users {
			var createdAt time.Time
			if t, err := time.Parse(twitterTimeLayout, u.CreatedAt); err == nil {
				createdAt = t
			}
			users = append(users, TwitterUser{
				ID:              u.IDStr,
				Username:        u.ScreenName,
				Name:            u.Name,
				Description:     u.Description,
				FollowersCount:  u.FollowersCount,
				FollowingCount:  u.FriendsCount,
				ProfileImageURL: u.ProfileImageURL,
				CreatedAt:       createdAt,
			})
		}

		if raw.NextCursorStr == "" || raw.NextCursorStr == "0" || len(raw.Users) == 0 {
			break
		}
		cursor = raw.NextCursorStr
	}
	return users, nil
}
