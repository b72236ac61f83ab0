package bundle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBundleURLs(t *testing.T) {
	html := `<html><script src="https://abs.twimg.com/responsive-web/client-web/main.abc123.js"></script>
	<link href="https://abs.twimg.com/responsive-web/client-web-legacy/vendor.def456.js">
	<script src="https://abs.twimg.com/responsive-web/client-web/main.abc123.js"></script>
	<script src="https://example.com/unrelated.js"></script></html>`

	urls := extractBundleURLs(html)
	require.Len(t, urls, 2, "duplicates collapse, foreign hosts are ignored")
	assert.Equal(t, "https://abs.twimg.com/responsive-web/client-web/main.abc123.js", urls[0])
	assert.Equal(t, "https://abs.twimg.com/responsive-web/client-web-legacy/vendor.def456.js", urls[1])
}

func TestExtractOperationsBothFieldOrders(t *testing.T) {
	js := `e.exports={queryId:"abc-123",operationName:"CreateTweet",operationType:"mutation"};` +
		`e.exports={operationName:"TweetDetail",queryId:"def_456",operationType:"query"};`

	targets := map[string]bool{"CreateTweet": true, "TweetDetail": true}
	found := make(map[string]string)
	extractOperations(js, targets, found)

	assert.Equal(t, "abc-123", found["CreateTweet"])
	assert.Equal(t, "def_456", found["TweetDetail"])
}

func TestExtractOperationsIgnoresUntargeted(t *testing.T) {
	js := `e.exports={queryId:"xyz",operationName:"SomethingElse"}`
	found := make(map[string]string)
	extractOperations(js, map[string]bool{"CreateTweet": true}, found)
	assert.Empty(t, found)
}

func TestExtractOperationsFirstMatchWins(t *testing.T) {
	js := `e.exports={queryId:"first",operationName:"CreateTweet"};` +
		`e.exports={queryId:"second",operationName:"CreateTweet"};`
	found := make(map[string]string)
	extractOperations(js, map[string]bool{"CreateTweet": true}, found)
	assert.Equal(t, "first", found["CreateTweet"])
}

func TestExtractOperationsRejectsInvalidQueryIDs(t *testing.T) {
	js := `operationName:"CreateTweet",foo:bar,queryId:"has spaces!"`
	found := make(map[string]string)
	extractOperations(js, map[string]bool{"CreateTweet": true}, found)
	assert.Empty(t, found)
}

func TestExtractOperationsProximityPattern(t *testing.T) {
	// Minifier variants that do not use the e.exports={...} shape still
	// carry the pair within one module body.
	js := `{operationName:"Bookmarks",operationType:"query",metadata:{},queryId:"prox-789"}`
	found := make(map[string]string)
	extractOperations(js, map[string]bool{"Bookmarks": true}, found)
	assert.Equal(t, "prox-789", found["Bookmarks"])
}
