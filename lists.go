package beak

import (
	"context"
	"encoding/json"
	"fmt"
)

// OwnedLists returns the lists the authenticated user owns.
func (c *Client) OwnedLists(ctx context.Context, opts PageOptions) ([]TwitterList, error) {
	return c.userLists(ctx, "ListOwnerships", opts)
}

// ListMemberships returns the lists the authenticated user is a member of.
func (c *Client) ListMemberships(ctx context.Context, opts PageOptions) ([]TwitterList, error) {
	return c.userLists(ctx, "ListMemberships", opts)
}

func (c *Client) userLists(ctx context.Context, operation string, opts PageOptions) ([]TwitterList, error) {
	me, err := c.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve current user: %w", err)
	}
	req := FetchRequest{
		Operation: operation,
		Variables: map[string]any{
			"userId": me.ID,
			"count":  100,
		},
		Referer: "https://x.com/" + me.Username + "/lists",
	}
	p := NewPaginator(c.router, req, parseListsPage, opts, DefaultRetryPolicy)
	return p.Collect(ctx)
}

// ListByID fetches one list's metadata, identified by ID or URL.
func (c *Client) ListByID(ctx context.Context, listRef string) (*TwitterList, error) {
	id, err := ExtractListID(listRef)
	if err != nil {
		return nil, err
	}
	req := FetchRequest{
		Operation: "ListByRestId",
		Variables: map[string]any{"listId": id},
		Referer:   "https://x.com/i/lists/" + id,
	}
	return ExecuteParsed(ctx, c.router, req, parseListByRestID)
}

func parseListByRestID(body []byte) (*TwitterList, error) {
	var raw struct {
		Data struct {
			List *listResult `json:"list"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal list lookup: %w", err)
	}
	l := raw.Data.List
	if l == nil || l.IDStr == "" {
		return nil, fmt.Errorf("list lookup returned no list")
	}
	return &TwitterList{
		ID:              l.IDStr,
		Name:            l.Name,
		Description:     l.Description,
		MemberCount:     l.MemberCount,
		SubscriberCount: l.SubscriberCount,
		IsPrivate:       l.Mode == "Private",
		OwnerUsername:   l.UserResults.Result.Legacy.ScreenName,
	}, nil
}
