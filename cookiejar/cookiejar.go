// Package cookiejar extracts the x.com session cookie pair from local
// browser cookie stores. Each browser is a Source; callers probe sources in
// order and never branch on browser identity beyond picking the order.
package cookiejar

import (
	"context"
	"errors"
	"time"
)

// DefaultTimeout bounds a single cookie-store probe. Safari keychain access
// in particular can hang on a pending user prompt.
const DefaultTimeout = 30 * time.Second

// ErrNoCookies means the store was readable but held no x.com session.
var ErrNoCookies = errors.New("no session cookies found")

// Jar is the session cookie pair read from one browser.
type Jar struct {
	AuthToken string
	CT0       string
}

// Complete reports whether both required cookies are present.
func (j *Jar) Complete() bool {
	return j != nil && j.AuthToken != "" && j.CT0 != ""
}

// Source reads session cookies from one browser's cookie store.
type Source interface {
	// Name labels the source for diagnostics, e.g. `chrome profile "Work"`.
	Name() string

	// Cookies returns the session jar or a typed failure. Implementations
	// should honor ctx cancellation where the underlying store allows it.
	Cookies(ctx context.Context) (*Jar, error)
}

// DefaultOrder is the probe order when the caller does not specify one.
var DefaultOrder = []string{"safari", "chrome", "firefox"}

// Extract runs one probe bounded by timeout. The probe goroutine may outlive
// the deadline (browser stores have no cancellable read), but the caller is
// released as soon as the timeout fires.
func Extract(ctx context.Context, src Source, timeout time.Duration) (*Jar, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type probe struct {
		jar *Jar
		err error
	}
	ch := make(chan probe, 1)
	go func() {
		jar, err := src.Cookies(ctx)
		ch <- probe{jar, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case p := <-ch:
		return p.jar, p.err
	}
}
