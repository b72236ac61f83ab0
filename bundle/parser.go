// Package bundle derives the current GraphQL query IDs from x.com's web
// client JavaScript bundles. The web app ships each operation's queryId in
// its webpack modules; scraping those is the only way to follow rotations.
package bundle

import "regexp"

var (
	bundleURLRegex = regexp.MustCompile(`https://abs\.twimg\.com/responsive-web/client-web(?:-legacy)?/[A-Za-z0-9.-]+\.js`)
	queryIDRegex   = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// operationPattern extracts (operationName, queryId) pairs from bundle JS.
// The bundles emit both field orders depending on the minifier run.
type operationPattern struct {
	regex        *regexp.Regexp
	opGroup      int
	queryIDGroup int
}

var operationPatterns = []operationPattern{
	{
		regex:        regexp.MustCompile(`e\.exports=\{queryId\s*:\s*["']([^"']+)["']\s*,\s*operationName\s*:\s*["']([^"']+)["']`),
		opGroup:      2,
		queryIDGroup: 1,
	},
	{
		regex:        regexp.MustCompile(`e\.exports=\{operationName\s*:\s*["']([^"']+)["']\s*,\s*queryId\s*:\s*["']([^"']+)["']`),
		opGroup:      1,
		queryIDGroup: 2,
	},
	{
		regex:        regexp.MustCompile(`(?s)operationName\s*[:=]\s*["']([^"']+)["'](.{0,1000}?.{0,1000}?.{0,1000}?.{0,1000}?)queryId\s*[:=]\s*["']([^"']+)["']`),
		opGroup:      1,
		queryIDGroup: 3,
	},
	{
		regex:        regexp.MustCompile(`(?s)queryId\s*[:=]\s*["']([^"']+)["'](.{0,1000}?.{0,1000}?.{0,1000}?.{0,1000}?)operationName\s*[:=]\s*["']([^"']+)["']`),
		opGroup:      3,
		queryIDGroup: 1,
	},
}

// extractBundleURLs returns the client-web bundle URLs referenced by a page.
func extractBundleURLs(html string) []string {
	seen := make(map[string]bool)
	var urls []string
	for _, m := range bundleURLRegex.FindAllString(html, -1) {
		if !seen[m] {
			seen[m] = true
			urls = append(urls, m)
		}
	}
	return urls
}

// extractOperations scans bundle JS for target operations, filling found.
// First match per operation wins; stops early once every target is found.
func extractOperations(js string, targets map[string]bool, found map[string]string) {
	for _, p := range operationPatterns {
		for _, m := range p.regex.FindAllStringSubmatch(js, -1) {
			op, queryID := m[p.opGroup], m[p.queryIDGroup]
			if op == "" || queryID == "" || !targets[op] {
				continue
			}
			if !queryIDRegex.MatchString(queryID) {
				continue
			}
			if _, ok := found[op]; ok {
				continue
			}
			found[op] = queryID
			if len(found) == len(targets) {
				return
			}
		}
	}
}
