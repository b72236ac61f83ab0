package beak

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/titanous/json5"
)

// Config is the optional on-disk configuration. Everything has a working
// default; the file exists so per-machine browser profiles and timeouts do
// not have to ride on every invocation.
type Config struct {
	// CookieSources overrides the browser probe order, e.g. ["firefox"].
	CookieSources []string `json:"cookieSources"`

	ChromeProfile  string `json:"chromeProfile"`
	FirefoxProfile string `json:"firefoxProfile"`

	// CookieTimeoutMs bounds each browser cookie probe.
	CookieTimeoutMs int `json:"cookieTimeoutMs"`

	// TimeoutMs bounds each upstream request.
	TimeoutMs int `json:"timeoutMs"`

	// QuoteDepth bounds how many levels of quoted tweets are expanded.
	QuoteDepth int `json:"quoteDepth"`

	// Proxy routes upstream traffic, e.g. socks5://127.0.0.1:9050.
	Proxy string `json:"proxy"`
}

// CookieTimeout returns the configured probe timeout, or zero for default.
func (c *Config) CookieTimeout() time.Duration {
	return time.Duration(c.CookieTimeoutMs) * time.Millisecond
}

// Timeout returns the configured request timeout, or zero for default.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// configPaths returns candidate config files, lowest priority first.
func configPaths() []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "beak", "config.json5"))
	}
	paths = append(paths, ".beakrc.json5")
	return paths
}

// LoadConfig reads and merges the config files. Missing files are fine;
// a present but unparseable file is an error the user needs to see.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	for _, path := range configPaths() {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		var layer Config
		if err := json5.Unmarshal(data, &layer); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg.merge(&layer)
	}
	return cfg, nil
}

// merge overlays non-zero fields of layer onto c. Later files win.
func (c *Config) merge(layer *Config) {
	if len(layer.CookieSources) > 0 {
		c.CookieSources = layer.CookieSources
	}
	if layer.ChromeProfile != "" {
		c.ChromeProfile = layer.ChromeProfile
	}
	if layer.FirefoxProfile != "" {
		c.FirefoxProfile = layer.FirefoxProfile
	}
	if layer.CookieTimeoutMs > 0 {
		c.CookieTimeoutMs = layer.CookieTimeoutMs
	}
	if layer.TimeoutMs > 0 {
		c.TimeoutMs = layer.TimeoutMs
	}
	if layer.QuoteDepth > 0 {
		c.QuoteDepth = layer.QuoteDepth
	}
	if layer.Proxy != "" {
		c.Proxy = layer.Proxy
	}
}
