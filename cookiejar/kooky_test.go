package cookiejar

import (
	"net/http"
	"testing"

	"github.com/browserutils/kooky"
	"github.com/stretchr/testify/assert"
)

func cookie(name, value, domain string) *kooky.Cookie {
	return &kooky.Cookie{Cookie: http.Cookie{Name: name, Value: value, Domain: domain}}
}

func TestPickCookiePrefersXDomain(t *testing.T) {
	cookies := []*kooky.Cookie{
		cookie("auth_token", "stale", ".twitter.com"),
		cookie("auth_token", "current", ".x.com"),
	}
	assert.Equal(t, "current", pickCookie(cookies, "auth_token"))
}

func TestPickCookieFallsBackToTwitterDomain(t *testing.T) {
	cookies := []*kooky.Cookie{
		cookie("ct0", "only", ".twitter.com"),
		cookie("other", "noise", ".x.com"),
	}
	assert.Equal(t, "only", pickCookie(cookies, "ct0"))
}

func TestPickCookieSkipsEmptyValues(t *testing.T) {
	cookies := []*kooky.Cookie{
		cookie("auth_token", "", ".x.com"),
		cookie("auth_token", "set", ".twitter.com"),
	}
	assert.Equal(t, "set", pickCookie(cookies, "auth_token"))
}

func TestPickCookieMissing(t *testing.T) {
	assert.Empty(t, pickCookie(nil, "auth_token"))
}
