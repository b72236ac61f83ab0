// Command beak is a command-line client for X that rides the session
// cookies of an already logged-in browser instead of API keys.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/anatolykoptev/beak"
)

var rootFlags struct {
	authToken      string
	ct0            string
	cookieSources  []string
	chromeProfile  string
	firefoxProfile string
	cookieTimeout  time.Duration
	timeout        time.Duration
	proxy          string
	cachePath      string
	jsonOut        bool
	noColor        bool
	verbose        bool
}

func main() {
	root := &cobra.Command{
		Use:           "beak",
		Short:         "X client that borrows your browser's session",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if rootFlags.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			if rootFlags.noColor {
				color.NoColor = true
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&rootFlags.authToken, "auth-token", "", "auth_token cookie value")
	pf.StringVar(&rootFlags.ct0, "ct0", "", "ct0 cookie value")
	pf.StringSliceVar(&rootFlags.cookieSources, "cookie-source", nil, "browser cookie sources to try, in order (safari, chrome, firefox)")
	pf.StringVar(&rootFlags.chromeProfile, "chrome-profile", "", "Chrome profile directory name")
	pf.StringVar(&rootFlags.firefoxProfile, "firefox-profile", "", "Firefox profile name")
	pf.DurationVar(&rootFlags.cookieTimeout, "cookie-timeout", 0, "per-browser cookie probe timeout")
	pf.DurationVar(&rootFlags.timeout, "timeout", 0, "per-request timeout")
	pf.StringVar(&rootFlags.proxy, "proxy", "", "proxy URL (http, https, socks4, socks5)")
	pf.StringVar(&rootFlags.cachePath, "query-ids-cache", "", "query-ID cache file path")
	pf.BoolVar(&rootFlags.jsonOut, "json", false, "emit JSON instead of formatted text")
	pf.BoolVar(&rootFlags.noColor, "no-color", false, "disable colored output")
	pf.BoolVarP(&rootFlags.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newTweetCmd(),
		newReplyCmd(),
		newRetweetCmd(),
		newLikeCmd(),
		newReadCmd(),
		newSearchCmd(),
		newBookmarksCmd(),
		newUnbookmarkCmd(),
		newLikesCmd(),
		newFollowingCmd(),
		newFollowersCmd(),
		newArticlesCmd(),
		newListsCmd(),
		newListTimelineCmd(),
		newListInfoCmd(),
		newWhoamiCmd(),
		newCheckCmd(),
		newQueryIDsCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

// clientConfig folds config file and global flags into a ClientConfig.
func clientConfig() (beak.ClientConfig, error) {
	cfg := beak.ClientConfig{
		AuthToken:      rootFlags.authToken,
		CT0:            rootFlags.ct0,
		CookieSources:  rootFlags.cookieSources,
		ChromeProfile:  rootFlags.chromeProfile,
		FirefoxProfile: rootFlags.firefoxProfile,
		CookieTimeout:  rootFlags.cookieTimeout,
		Timeout:        rootFlags.timeout,
		Proxy:          rootFlags.proxy,
		CachePath:      rootFlags.cachePath,
	}
	file, err := beak.LoadConfig()
	if err != nil {
		return cfg, err
	}
	return cfg.FromConfig(file), nil
}

func newClient(ctx context.Context) (*beak.Client, error) {
	cfg, err := clientConfig()
	if err != nil {
		return nil, err
	}
	return beak.NewClient(ctx, cfg)
}
