package beak

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/anatolykoptev/beak/cookiejar"
)

// Environment variable names checked for each cookie, primary first.
var (
	authTokenEnvVars = []string{"AUTH_TOKEN", "TWITTER_AUTH_TOKEN"}
	ct0EnvVars       = []string{"CT0", "TWITTER_CT0"}
)

// Credential is the resolved session identity for one process run.
// Immutable once resolved; an incomplete credential means unauthenticated.
type Credential struct {
	AuthToken string
	CT0       string

	// Per-field source labels for diagnostics. Never contain cookie values.
	AuthTokenSource string
	CT0Source       string
}

// Valid reports whether both required fields are present.
func (c *Credential) Valid() bool {
	return c != nil && c.AuthToken != "" && c.CT0 != ""
}

// CookieHeader renders the credential as the request cookie header.
func (c *Credential) CookieHeader() string {
	return "auth_token=" + c.AuthToken + "; ct0=" + c.CT0
}

// ResolveOptions configures credential resolution.
type ResolveOptions struct {
	// AuthToken and CT0 are explicit CLI-supplied values, highest priority.
	AuthToken string
	CT0       string

	// Sources is the ordered list of browser cookie sources to probe after
	// flags and environment. Empty means the default safari, chrome,
	// firefox order (with the configured profiles).
	Sources []cookiejar.Source

	// ChromeProfile and FirefoxProfile select browser profiles when
	// Sources is built from the default order.
	ChromeProfile  string
	FirefoxProfile string

	// CookieTimeout bounds each browser probe. Zero means the cookiejar
	// default of 30s.
	CookieTimeout time.Duration

	// LookupEnv overrides environment access, for tests. Nil means os.Getenv.
	LookupEnv func(string) string
}

// ResolveCredentials resolves the session credential from CLI flags,
// environment variables, and browser cookie stores, in that order. Each
// field resolves independently; the first source providing it wins.
// Browser probes run sequentially (keychain prompts must not overlap) and
// individual probe failures are swallowed so the next source gets a turn.
func ResolveCredentials(ctx context.Context, opts ResolveOptions) (*Credential, error) {
	getenv := opts.LookupEnv
	if getenv == nil {
		getenv = os.Getenv
	}

	cred := &Credential{}
	var attempted []string

	if opts.AuthToken != "" {
		cred.AuthToken = opts.AuthToken
		cred.AuthTokenSource = "flag"
	}
	if opts.CT0 != "" {
		cred.CT0 = opts.CT0
		cred.CT0Source = "flag"
	}
	if opts.AuthToken != "" || opts.CT0 != "" {
		attempted = append(attempted, "flags")
	}

	attempted = append(attempted, "environment")
	fillFromEnv(cred, getenv)
	if cred.Valid() {
		logResolved(cred)
		return cred, nil
	}

	sources := opts.Sources
	if len(sources) == 0 {
		sources = defaultSources(opts.ChromeProfile, opts.FirefoxProfile)
	}

	for _, src := range sources {
		if cred.Valid() {
			break
		}
		attempted = append(attempted, src.Name())
		jar, err := cookiejar.Extract(ctx, src, opts.CookieTimeout)
		if err != nil || jar == nil {
			slog.Debug("cookie source failed", slog.String("source", src.Name()), slog.Any("error", err))
			continue
		}
		if cred.AuthToken == "" && jar.AuthToken != "" {
			cred.AuthToken = jar.AuthToken
			cred.AuthTokenSource = "browser:" + src.Name()
		}
		if cred.CT0 == "" && jar.CT0 != "" {
			cred.CT0 = jar.CT0
			cred.CT0Source = "browser:" + src.Name()
		}
	}

	if !cred.Valid() {
		return nil, fmt.Errorf("%w (tried %s)", ErrNoCredentials, strings.Join(attempted, ", "))
	}
	logResolved(cred)
	return cred, nil
}

// fillFromEnv resolves still-missing fields from environment variables,
// primary names before legacy aliases.
func fillFromEnv(cred *Credential, getenv func(string) string) {
	if cred.AuthToken == "" {
		for _, key := range authTokenEnvVars {
			if v := strings.TrimSpace(getenv(key)); v != "" {
				cred.AuthToken = v
				cred.AuthTokenSource = "env " + key
				break
			}
		}
	}
	if cred.CT0 == "" {
		for _, key := range ct0EnvVars {
			if v := strings.TrimSpace(getenv(key)); v != "" {
				cred.CT0 = v
				cred.CT0Source = "env " + key
				break
			}
		}
	}
}

// defaultSources builds the safari, chrome, firefox probe order.
func defaultSources(chromeProfile, firefoxProfile string) []cookiejar.Source {
	var sources []cookiejar.Source
	for _, name := range cookiejar.DefaultOrder {
		profile := ""
		switch name {
		case "chrome":
			profile = chromeProfile
		case "firefox":
			profile = firefoxProfile
		}
		src, err := cookiejar.ForBrowser(name, profile)
		if err != nil {
			continue
		}
		sources = append(sources, src)
	}
	return sources
}

func logResolved(cred *Credential) {
	slog.Debug("credentials resolved",
		slog.String("auth_token_source", cred.AuthTokenSource),
		slog.String("ct0_source", cred.CT0Source))
}

// SourcesFromNames maps --cookie-source values to probe sources, keeping
// the caller-specified order.
func SourcesFromNames(names []string, chromeProfile, firefoxProfile string) ([]cookiejar.Source, error) {
	var sources []cookiejar.Source
	for _, name := range names {
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
		sources = append(sources, src)
	}
	return sources, nil
}
