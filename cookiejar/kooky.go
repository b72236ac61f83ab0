package cookiejar

import (
	"context"
	"fmt"
	"strings"

	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/chrome"
	_ "github.com/browserutils/kooky/browser/firefox"
	_ "github.com/browserutils/kooky/browser/safari"
)

// sessionDomains are checked in preference order: x.com cookies win over
// stale twitter.com leftovers.
var sessionDomains = []string{"x.com", "twitter.com"}

// kookySource reads one browser's cookie store via kooky.
type kookySource struct {
	browser string
	profile string
}

// ForBrowser returns the Source for a browser name ("safari", "chrome",
// "firefox") and optional profile. Safari has no profiles; a profile given
// for it is ignored.
func ForBrowser(name, profile string) (Source, error) {
	switch name {
	case "safari":
		return &kookySource{browser: "safari"}, nil
	case "chrome", "firefox":
		return &kookySource{browser: name, profile: profile}, nil
	}
	return nil, fmt.Errorf("unknown cookie source: %s", name)
}

func (s *kookySource) Name() string {
	if s.profile != "" {
		return fmt.Sprintf("%s profile %q", s.browser, s.profile)
	}
	return s.browser
}

func (s *kookySource) Cookies(ctx context.Context) (*Jar, error) {
	stores := kooky.FindAllCookieStores()
	defer func() {
		for _, st := range stores {
			_ = st.Close()
		}
	}()

	jar := &Jar{}
	var lastErr error
	for _, store := range stores {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !s.matches(store) {
			continue
		}
		cookies, err := store.ReadCookies(kooky.Valid)
		if err != nil {
			lastErr = err
			continue
		}
		if jar.AuthToken == "" {
			jar.AuthToken = pickCookie(cookies, "auth_token")
		}
		if jar.CT0 == "" {
			jar.CT0 = pickCookie(cookies, "ct0")
		}
		if jar.Complete() {
			return jar, nil
		}
	}

	if jar.AuthToken != "" || jar.CT0 != "" {
		return jar, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%s: %w", s.Name(), lastErr)
	}
	return nil, fmt.Errorf("%s: %w", s.Name(), ErrNoCookies)
}

// matches filters discovered stores down to this source's browser/profile.
func (s *kookySource) matches(store kooky.CookieStore) bool {
	if !strings.EqualFold(store.Browser(), s.browser) {
		return false
	}
	if s.profile == "" {
		return true
	}
	return store.Profile() == s.profile
}

// pickCookie returns the named cookie's value, preferring x.com over
// twitter.com when both domains still carry a session.
func pickCookie(cookies []*kooky.Cookie, name string) string {
	for _, domain := range sessionDomains {
		for _, c := range cookies {
			if c.Name == name && c.Value != "" && strings.HasSuffix(c.Domain, domain) {
				return c.Value
			}
		}
	}
	for _, c := range cookies {
		if c.Name == name && c.Value != "" {
			return c.Value
		}
	}
	return ""
}
