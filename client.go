package beak

import (
	"context"
	"fmt"
	"time"

	stealth "github.com/anatolykoptev/go-stealth"

	"github.com/anatolykoptev/beak/bundle"
	"github.com/anatolykoptev/beak/cookiejar"
)

// ClientConfig assembles everything NewClient needs. Zero values get the
// documented defaults; the only hard requirement is that a credential can be
// resolved from somewhere.
type ClientConfig struct {
	// AuthToken and CT0 are explicit cookie values; when set they beat
	// environment variables and browser stores.
	AuthToken string
	CT0       string

	// CookieSources restricts and orders the browser probe, e.g.
	// []string{"firefox"}. Empty means safari, chrome, firefox.
	CookieSources  []string
	ChromeProfile  string
	FirefoxProfile string
	CookieTimeout  time.Duration

	// Timeout bounds each upstream request.
	Timeout time.Duration

	// Proxy routes upstream traffic (http, https, socks4, socks5 URLs).
	Proxy string

	// CachePath overrides the query-ID cache file location.
	CachePath string

	// QuoteDepth bounds quoted-tweet expansion when reading. Zero means one
	// level.
	QuoteDepth int
}

// FromConfig folds the on-disk config into a ClientConfig. Explicit fields
// already set on cfg are kept.
func (cfg ClientConfig) FromConfig(file *Config) ClientConfig {
	if file == nil {
		return cfg
	}
	if len(cfg.CookieSources) == 0 {
		cfg.CookieSources = file.CookieSources
	}
	if cfg.ChromeProfile == "" {
		cfg.ChromeProfile = file.ChromeProfile
	}
	if cfg.FirefoxProfile == "" {
		cfg.FirefoxProfile = file.FirefoxProfile
	}
	if cfg.CookieTimeout == 0 {
		cfg.CookieTimeout = file.CookieTimeout()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = file.Timeout()
	}
	if cfg.Proxy == "" {
		cfg.Proxy = file.Proxy
	}
	if cfg.QuoteDepth == 0 {
		cfg.QuoteDepth = file.QuoteDepth
	}
	return cfg
}

// Client is the assembled stack: resolved credential, browser-grade
// transport, query-ID registry, request engine, and recovery router.
type Client struct {
	cred       *Credential
	registry   *Registry
	engine     *Engine
	router     *Router
	quoteDepth int

	// me caches the CurrentUser lookup for the client's lifetime.
	me *TwitterUser
}

// NewClient resolves credentials and wires the full request stack. The
// context bounds credential resolution (browser probes); it is not retained.
func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	opts := ResolveOptions{
		AuthToken:      cfg.AuthToken,
		CT0:            cfg.CT0,
		ChromeProfile:  cfg.ChromeProfile,
		FirefoxProfile: cfg.FirefoxProfile,
		CookieTimeout:  cfg.CookieTimeout,
	}
	if len(cfg.CookieSources) > 0 {
		sources, err := SourcesFromNames(cfg.CookieSources, cfg.ChromeProfile, cfg.FirefoxProfile)
		if err != nil {
			return nil, err
		}
		opts.Sources = sources
	}
	cred, err := ResolveCredentials(ctx, opts)
	if err != nil {
		return nil, err
	}
	return newClientWithCredential(cred, cfg)
}

// NewClientWithCredential skips resolution and uses an already-obtained
// credential. Used by diagnostics that resolve first and report sources.
func NewClientWithCredential(cred *Credential, cfg ClientConfig) (*Client, error) {
	if !cred.Valid() {
		return nil, ErrNoCredentials
	}
	return newClientWithCredential(cred, cfg)
}

func newClientWithCredential(cred *Credential, cfg ClientConfig) (*Client, error) {
	opts := []stealth.ClientOption{
		stealth.WithHeaderOrder(graphqlHeaderOrder),
	}
	if cfg.Proxy != "" {
		opts = append(opts, stealth.WithProxy(cfg.Proxy))
	}
	transport, err := stealth.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create transport: %w", err)
	}

	registry := NewRegistry(cfg.CachePath, bundle.NewProbe().QueryIDs)
	engine := NewEngine(transport, cred, registry, cfg.Timeout)

	quoteDepth := cfg.QuoteDepth
	if quoteDepth <= 0 {
		quoteDepth = 1
	}

	return &Client{
		cred:       cred,
		registry:   registry,
		engine:     engine,
		router:     NewRouter(engine, registry),
		quoteDepth: quoteDepth,
	}, nil
}

// Credential returns the resolved session credential.
func (c *Client) Credential() *Credential { return c.cred }

// Registry exposes the query-ID registry, for the maintenance commands.
func (c *Client) Registry() *Registry { return c.registry }

// CheckSource probes a single cookie source without building a client, for
// the credential diagnostics command.
func CheckSource(ctx context.Context, name, chromeProfile, firefoxProfile string, timeout time.Duration) (*cookiejar.Jar, error) {
	profile := ""
	switch name {
	case "chrome":
		profile = chromeProfile
	case "firefox":
		profile = firefoxProfile
	}
	src, err := cookiejar.ForBrowser(name, profile)
	if err != nil {
		return nil, err
	}
	return cookiejar.Extract(ctx, src, timeout)
}
