package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/anatolykoptev/beak"
)

var (
	handleColor = color.New(color.FgCyan, color.Bold)
	dimColor    = color.New(color.Faint)
	countColor  = color.New(color.FgYellow)
	nameColor   = color.New(color.FgGreen, color.Bold)
)

// emitJSON renders any value as indented JSON on stdout.
func emitJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func printTweets(tweets []beak.Tweet) error {
	if rootFlags.jsonOut {
		return emitJSON(tweets)
	}
	for i, t := range tweets {
		if i > 0 {
			fmt.Println()
		}
		printTweet(t, "")
	}
	return nil
}

func printTweet(t beak.Tweet, indent string) {
	header := handleColor.Sprintf("@%s", t.Author.Username)
	if t.Author.Name != "" {
		header += " " + dimColor.Sprint(t.Author.Name)
	}
	if !t.CreatedAt.IsZero() {
		header += " " + dimColor.Sprint(t.CreatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Println(indent + header)

	for _, line := range strings.Split(t.Text, "\n") {
		fmt.Println(indent + line)
	}
	for _, m := range t.Media {
		u := m.VideoURL
		if u == "" {
			u = m.URL
		}
		fmt.Println(indent + dimColor.Sprintf("[%s] %s", m.Type, u))
	}

	fmt.Println(indent + dimColor.Sprintf("%s  %s",
		countColor.Sprintf("replies %d  retweets %d  likes %d", t.ReplyCount, t.RetweetCount, t.LikeCount),
		beak.TweetURL(t.Author.Username, t.ID)))

	if t.QuotedTweet != nil {
		printTweet(*t.QuotedTweet, indent+"  | ")
	}
}

func printUsers(users []beak.TwitterUser) error {
	if rootFlags.jsonOut {
		return emitJSON(users)
	}
	for _, u := range users {
		line := handleColor.Sprintf("@%s", u.Username)
		if u.Name != "" {
			line += " " + nameColor.Sprint(u.Name)
		}
		line += " " + countColor.Sprintf("(%d followers)", u.FollowersCount)
		fmt.Println(line)
		if u.Description != "" {
			fmt.Println("  " + dimColor.Sprint(strings.ReplaceAll(u.Description, "\n", " ")))
		}
	}
	return nil
}

func printLists(lists []beak.TwitterList) error {
	if rootFlags.jsonOut {
		return emitJSON(lists)
	}
	for _, l := range lists {
		line := nameColor.Sprint(l.Name) + " " + dimColor.Sprintf("(id %s)", l.ID)
		if l.IsPrivate {
			line += " " + countColor.Sprint("[private]")
		}
		fmt.Println(line)
		fmt.Println("  " + dimColor.Sprintf("%d members, %d subscribers", l.MemberCount, l.SubscriberCount))
		if l.Description != "" {
			fmt.Println("  " + l.Description)
		}
	}
	return nil
}

// printResume tells the user how to pick up where a capped run stopped.
func printResume(cursor string) {
	if cursor == "" || rootFlags.jsonOut {
		return
	}
	fmt.Fprintln(os.Stderr, dimColor.Sprintf("more available; resume with --cursor %q", cursor))
}
