package beak

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTweetID(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"1877138472537247896", "1877138472537247896", false},
		{"https://x.com/jack/status/20", "20", false},
		{"https://twitter.com/jack/status/20", "20", false},
		{"https://x.com/jack/status/20?s=46&t=abc", "20", false},
		{"https://x.com/i/web/status/1877138472537247896", "1877138472537247896", false},
		{"x.com/jack/statuses/20", "20", false},
		{"not-a-tweet", "", true},
		{"https://x.com/jack", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ExtractTweetID(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestExtractListID(t *testing.T) {
	got, err := ExtractListID("https://x.com/i/lists/1234567890")
	require.NoError(t, err)
	assert.Equal(t, "1234567890", got)

	got, err = ExtractListID("1234567890")
	require.NoError(t, err)
	assert.Equal(t, "1234567890", got)

	_, err = ExtractListID("https://x.com/jack/status/20")
	assert.Error(t, err)
}

func TestExtractBookmarkFolderID(t *testing.T) {
	got, err := ExtractBookmarkFolderID("https://x.com/i/bookmarks/1790987")
	require.NoError(t, err)
	assert.Equal(t, "1790987", got)

	got, err = ExtractBookmarkFolderID("1790987")
	require.NoError(t, err)
	assert.Equal(t, "1790987", got)

	_, err = ExtractBookmarkFolderID("https://x.com/i/lists/123")
	assert.Error(t, err)
}

func TestExtractUsername(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"jack", "jack", false},
		{"@jack", "jack", false},
		{"https://x.com/jack", "jack", false},
		{"https://twitter.com/jack?lang=en", "jack", false},
		{"https://x.com/i/lists/123", "", true},
		{"https://x.com/settings/profile", "", true},
		{"not a handle", "", true},
	}
	for _, tt := range tests {
		got, err := ExtractUsername(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestTweetURL(t *testing.T) {
	assert.Equal(t, "https://x.com/jack/status/20", TweetURL("jack", "20"))
	assert.Equal(t, "https://x.com/i/web/status/20", TweetURL("", "20"))
}
