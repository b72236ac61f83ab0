package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/anatolykoptev/beak"
)

// pageFlags are the shared pagination flags for timeline commands.
type pageFlags struct {
	all      bool
	maxPages int
	cursor   string
}

func (f *pageFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.all, "all", false, "fetch every page")
	cmd.Flags().IntVar(&f.maxPages, "max-pages", 0, "stop after this many pages")
	cmd.Flags().StringVar(&f.cursor, "cursor", "", "resume from a cursor printed by a previous run")
}

func (f *pageFlags) options() beak.PageOptions {
	return beak.PageOptions{All: f.all, MaxPages: f.maxPages, StartCursor: f.cursor}
}

// collectTweets drains a paginator and prints the result, reporting the
// resume cursor when pages remain. Partial results still print on failure.
func collectTweets(ctx context.Context, p *beak.Paginator[beak.Tweet]) error {
	tweets, err := p.Collect(ctx)
	if perr := printTweets(tweets); perr != nil && err == nil {
		err = perr
	}
	printResume(p.LastCursor())
	return err
}

func newTweetCmd() *cobra.Command {
	var mediaIDs []string
	cmd := &cobra.Command{
		Use:   "tweet <text>",
		Short: "Post a tweet",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd.Context())
			if err != nil {
				return err
			}
			id, err := c.Tweet(cmd.Context(), strings.Join(args, " "), mediaIDs...)
			if err != nil {
				return err
			}
			return printPosted(cmd.Context(), c, id)
		},
	}
	cmd.Flags().StringSliceVar(&mediaIDs, "media", nil, "IDs of already-uploaded media to attach")
	return cmd
}

func newReplyCmd() *cobra.Command {
	var mediaIDs []string
	cmd := &cobra.Command{
		Use:   "reply <tweet-id-or-url> <text>",
		Short: "Reply to a tweet",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd.Context())
			if err != nil {
				return err
			}
			id, err := c.Reply(cmd.Context(), strings.Join(args[1:], " "), args[0], mediaIDs...)
			if err != nil {
				return err
			}
			return printPosted(cmd.Context(), c, id)
		},
	}
	cmd.Flags().StringSliceVar(&mediaIDs, "media", nil, "IDs of already-uploaded media to attach")
	return cmd
}

func printPosted(ctx context.Context, c *beak.Client, id string) error {
	if rootFlags.jsonOut {
		return emitJSON(map[string]string{"id": id})
	}
	username := ""
	if me, err := c.CurrentUser(ctx); err == nil {
		username = me.Username
	}
	fmt.Println(color.GreenString("posted:"), beak.TweetURL(username, id))
	return nil
}

func newRetweetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retweet <tweet-id-or-url>",
		Short: "Retweet a tweet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.Retweet(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println(color.GreenString("retweeted"))
			return nil
		},
	}
}

func newLikeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "like <tweet-id-or-url>",
		Short: "Like a tweet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.Like(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println(color.GreenString("liked"))
			return nil
		},
	}
}

func newReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <tweet-id-or-url>",
		Short: "Read a tweet and its thread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd.Context())
			if err != nil {
				return err
			}
			tweets, err := c.ReadTweet(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printTweets(tweets)
		},
	}
}

func newSearchCmd() *cobra.Command {
	var pf pageFlags
	var product string
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search tweets (full operator syntax supported)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd.Context())
			if err != nil {
				return err
			}
			p := c.Search(strings.Join(args, " "), beak.SearchProduct(product), pf.options())
			return collectTweets(cmd.Context(), p)
		},
	}
	pf.register(cmd)
	cmd.Flags().StringVar(&product, "product", "Latest", "search tab: Latest, Top, People, Media")
	return cmd
}

func newBookmarksCmd() *cobra.Command {
	var pf pageFlags
	var folder string
	cmd := &cobra.Command{
		Use:   "bookmarks",
		Short: "List bookmarks, optionally from one folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd.Context())
			if err != nil {
				return err
			}
			var p *beak.Paginator[beak.Tweet]
			if folder != "" {
				p, err = c.BookmarkFolder(folder, pf.options())
				if err != nil {
					return err
				}
			} else {
				p = c.Bookmarks(pf.options())
			}
			return collectTweets(cmd.Context(), p)
		},
	}
	pf.register(cmd)
	cmd.Flags().StringVar(&folder, "folder", "", "bookmark folder ID or URL")
	return cmd
}

func newUnbookmarkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unbookmark <tweet-id-or-url>",
		Short: "Remove a tweet from bookmarks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.Unbookmark(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println(color.GreenString("removed from bookmarks"))
			return nil
		},
	}
}

func newLikesCmd() *cobra.Command {
	var pf pageFlags
	cmd := &cobra.Command{
		Use:   "likes",
		Short: "List your liked tweets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd.Context())
			if err != nil {
				return err
			}
			p, err := c.Likes(cmd.Context(), pf.options())
			if err != nil {
				return err
			}
			return collectTweets(cmd.Context(), p)
		},
	}
	pf.register(cmd)
	return cmd
}

func newFollowingCmd() *cobra.Command {
	var pf pageFlags
	cmd := &cobra.Command{
		Use:   "following <user>",
		Short: "List accounts a user follows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd.Context())
			if err != nil {
				return err
			}
			users, err := c.Following(cmd.Context(), args[0], pf.options())
			if perr := printUsers(users); perr != nil && err == nil {
				err = perr
			}
			return err
		},
	}
	pf.register(cmd)
	return cmd
}

func newFollowersCmd() *cobra.Command {
	var pf pageFlags
	cmd := &cobra.Command{
		Use:   "followers <user>",
		Short: "List a user's followers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd.Context())
			if err != nil {
				return err
			}
			users, err := c.Followers(cmd.Context(), args[0], pf.options())
			if perr := printUsers(users); perr != nil && err == nil {
				err = perr
			}
			return err
		},
	}
	pf.register(cmd)
	return cmd
}

func newArticlesCmd() *cobra.Command {
	var pf pageFlags
	cmd := &cobra.Command{
		Use:   "articles <user>",
		Short: "List a user's long-form articles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd.Context())
			if err != nil {
				return err
			}
			p, err := c.Articles(cmd.Context(), args[0], pf.options())
			if err != nil {
				return err
			}
			return collectTweets(cmd.Context(), p)
		},
	}
	pf.register(cmd)
	return cmd
}

func newListsCmd() *cobra.Command {
	var pf pageFlags
	var memberships bool
	cmd := &cobra.Command{
		Use:   "lists",
		Short: "List your lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd.Context())
			if err != nil {
				return err
			}
			var lists []beak.TwitterList
			if memberships {
				lists, err = c.ListMemberships(cmd.Context(), pf.options())
			} else {
				lists, err = c.OwnedLists(cmd.Context(), pf.options())
			}
			if err != nil {
				return err
			}
			return printLists(lists)
		},
	}
	pf.register(cmd)
	cmd.Flags().BoolVar(&memberships, "memberships", false, "lists you are a member of instead of lists you own")
	return cmd
}

func newListTimelineCmd() *cobra.Command {
	var pf pageFlags
	cmd := &cobra.Command{
		Use:   "list-timeline <list-id-or-url>",
		Short: "Read a list's latest tweets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd.Context())
			if err != nil {
				return err
			}
			p, err := c.ListTimeline(args[0], pf.options())
			if err != nil {
				return err
			}
			return collectTweets(cmd.Context(), p)
		},
	}
	pf.register(cmd)
	return cmd
}

func newListInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <list-id-or-url>",
		Short: "Show a list's metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd.Context())
			if err != nil {
				return err
			}
			list, err := c.ListByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printLists([]beak.TwitterList{*list})
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the authenticated account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd.Context())
			if err != nil {
				return err
			}
			me, err := c.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			if rootFlags.jsonOut {
				return emitJSON(me)
			}
			cred := c.Credential()
			fmt.Printf("%s %s\n", handleColor.Sprintf("@%s", me.Username), nameColor.Sprint(me.Name))
			fmt.Println(dimColor.Sprintf("id %s, auth_token from %s, ct0 from %s",
				me.ID, cred.AuthTokenSource, cred.CT0Source))
			return nil
		},
	}
}
