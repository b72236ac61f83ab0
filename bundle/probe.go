package bundle

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// discoveryPages are crawled for bundle references; together they pull in
// the modules covering every operation the client issues.
var discoveryPages = []string{
	"https://x.com/?lang=en",
	"https://x.com/explore",
	"https://x.com/notifications",
	"https://x.com/settings/profile",
}

const probeUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36"

// Probe discovers and parses web client bundles to map logical operation
// names to their current query IDs.
type Probe struct {
	client *http.Client
	fetch  func(ctx context.Context, url string) (string, error)
}

// NewProbe creates a probe with a 30s per-fetch timeout.
func NewProbe() *Probe {
	p := &Probe{
		client: &http.Client{Timeout: 30 * time.Second},
	}
	p.fetch = p.fetchURL
	return p
}

// QueryIDs fetches the discovery pages, locates the client bundles, and
// extracts query IDs for the requested operations. Partial results are
// returned when some operations cannot be located; an error only when no
// bundle could be discovered or nothing was extracted.
func (p *Probe) QueryIDs(ctx context.Context, operations []string) (map[string]string, error) {
	targets := make(map[string]bool, len(operations))
	for _, op := range operations {
		targets[op] = true
	}

	var bundles []string
	seen := make(map[string]bool)
	for _, page := range discoveryPages {
		html, err := p.fetch(ctx, page)
		if err != nil {
			slog.Debug("bundle discovery page failed", slog.String("page", page), slog.Any("error", err))
			continue
		}
		for _, u := range extractBundleURLs(html) {
			if !seen[u] {
				seen[u] = true
				bundles = append(bundles, u)
			}
		}
	}
	if len(bundles) == 0 {
		return nil, fmt.Errorf("no client bundles discovered; x.com layout may have changed")
	}

	found := make(map[string]string)
	for _, u := range bundles {
		if len(found) == len(targets) {
			break
		}
		js, err := p.fetch(ctx, u)
		if err != nil {
			slog.Debug("bundle fetch failed", slog.String("url", u), slog.Any("error", err))
			continue
		}
		extractOperations(js, targets, found)
	}

	if len(found) == 0 {
		return nil, fmt.Errorf("no query ids extracted from %d bundles", len(bundles))
	}
	return found, nil
}

func (p *Probe) fetchURL(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", probeUserAgent)
	req.Header.Set("Accept", "text/html,application/json;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return "", fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
