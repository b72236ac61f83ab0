package beak

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	tweetIDPattern    = regexp.MustCompile(`^[0-9]{5,25}$`)
	tweetURLPattern   = regexp.MustCompile(`(?:twitter\.com|x\.com)/(?:i/web/|[^/]+/)status(?:es)?/([0-9]+)`)
	listURLPattern    = regexp.MustCompile(`(?:twitter\.com|x\.com)/i/lists/([0-9]+)`)
	folderURLPattern  = regexp.MustCompile(`(?:twitter\.com|x\.com)/i/bookmarks/([0-9]+)`)
	usernamePattern   = regexp.MustCompile(`^[A-Za-z0-9_]{1,15}$`)
	profileURLPattern = regexp.MustCompile(`(?:twitter\.com|x\.com)/([A-Za-z0-9_]{1,15})(?:[/?#]|$)`)
)

// ExtractTweetID accepts a bare numeric ID or any tweet URL form and returns
// the ID.
func ExtractTweetID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if tweetIDPattern.MatchString(ref) {
		return ref, nil
	}
	if m := tweetURLPattern.FindStringSubmatch(ref); m != nil {
		return m[1], nil
	}
	return "", fmt.Errorf("not a tweet ID or URL: %q", ref)
}

// ExtractListID accepts a bare numeric ID or a list URL and returns the ID.
func ExtractListID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if tweetIDPattern.MatchString(ref) {
		return ref, nil
	}
	if m := listURLPattern.FindStringSubmatch(ref); m != nil {
		return m[1], nil
	}
	return "", fmt.Errorf("not a list ID or URL: %q", ref)
}

// ExtractBookmarkFolderID accepts a bare numeric ID or a bookmark folder URL.
func ExtractBookmarkFolderID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if tweetIDPattern.MatchString(ref) {
		return ref, nil
	}
	if m := folderURLPattern.FindStringSubmatch(ref); m != nil {
		return m[1], nil
	}
	return "", fmt.Errorf("not a bookmark folder ID or URL: %q", ref)
}

// ExtractUsername accepts @handle, bare handle, or a profile URL and returns
// the bare handle.
func ExtractUsername(ref string) (string, error) {
	ref = strings.TrimSpace(strings.TrimPrefix(ref, "@"))
	if usernamePattern.MatchString(ref) {
		return ref, nil
	}
	if m := profileURLPattern.FindStringSubmatch(ref); m != nil {
		// Reserved path segments are not profiles.
		switch strings.ToLower(m[1]) {
		case "i", "home", "search", "explore", "settings", "notifications", "messages", "intent":
		default:
			return m[1], nil
		}
	}
	return "", fmt.Errorf("not a username or profile URL: %q", ref)
}

// TweetURL renders the canonical URL for a tweet.
func TweetURL(username, id string) string {
	if username == "" {
		username = "i/web"
	}
	return fmt.Sprintf("https://x.com/%s/status/%s", username, id)
}
