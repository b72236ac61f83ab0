package beak

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	queryIDsCacheEnv     = "BEAK_QUERY_IDS_CACHE"
	defaultCacheFilename = "query-ids.json"
)

// ProbeFunc derives the current operation-name to query-ID mapping from the
// upstream web bundles. Partial maps are acceptable.
type ProbeFunc func(ctx context.Context, operations []string) (map[string]string, error)

// registrySnapshot is the on-disk cache format.
type registrySnapshot struct {
	FetchedAt  time.Time                 `json:"fetchedAt"`
	Operations map[string]OperationEntry `json:"operations"`
}

// Registry maps logical operation names to the opaque query IDs the
// upstream currently assigns. The mapping is persisted in a single cache
// file replaced atomically, so concurrent invocations may race to refresh
// but never observe a torn write.
type Registry struct {
	path  string
	probe ProbeFunc

	mu      sync.RWMutex
	entries map[string]OperationEntry
	stale   map[string]bool
	loaded  bool
}

// NewRegistry creates a registry backed by the cache file at path. An empty
// path uses $BEAK_QUERY_IDS_CACHE, falling back to
// ~/.config/beak/query-ids.json. probe may be nil for read-only use.
func NewRegistry(path string, probe ProbeFunc) *Registry {
	return &Registry{
		path:  cachePath(path),
		probe: probe,
		stale: make(map[string]bool),
	}
}

func cachePath(override string) string {
	if override != "" {
		return override
	}
	if env := os.Getenv(queryIDsCacheEnv); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "beak", defaultCacheFilename)
}

// Path returns the cache file location.
func (r *Registry) Path() string { return r.path }

// Get returns the query ID for a logical operation name. The first call
// lazily loads the cache file, seeding it from the built-in defaults when
// absent or unreadable.
func (r *Registry) Get(operation string) (string, error) {
	r.mu.RLock()
	if r.loaded {
		entry, ok := r.entries[operation]
		r.mu.RUnlock()
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownOperation, operation)
		}
		return entry.QueryID, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	r.loadLocked()
	entry, ok := r.entries[operation]
	r.mu.Unlock()

	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownOperation, operation)
	}
	return entry.QueryID, nil
}

// Invalidate marks one entry stale without removing it, so the next
// non-forced refresh re-derives the table while the old ID stays usable
// as a last resort.
func (r *Registry) Invalidate(operation string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadLocked()
	if _, ok := r.entries[operation]; ok {
		r.stale[operation] = true
	}
}

// Refresh re-derives the full table from the upstream bundles and atomically
// replaces the cache file. With force=false it is a no-op unless at least
// one entry has been invalidated. Returns how many entries changed.
func (r *Registry) Refresh(ctx context.Context, force bool) (int, error) {
	r.mu.Lock()
	r.loadLocked()
	if !force && len(r.stale) == 0 {
		r.mu.Unlock()
		return 0, nil
	}
	targets := make([]string, 0, len(r.entries))
	for name := range r.entries {
		targets = append(targets, name)
	}
	probe := r.probe
	r.mu.Unlock()

	if probe == nil {
		return 0, fmt.Errorf("registry refresh: no probe configured")
	}

	ids, err := probe(ctx, targets)
	if err != nil {
		return 0, fmt.Errorf("registry refresh: %w", err)
	}

	now := time.Now().UTC()
	r.mu.Lock()
	defer r.mu.Unlock()

	updated := 0
	for name, queryID := range ids {
		prev, ok := r.entries[name]
		if !ok {
			continue // probe may surface operations we do not track
		}
		if prev.QueryID != queryID {
			updated++
		}
		r.entries[name] = OperationEntry{OperationName: name, QueryID: queryID, LastVerifiedAt: now}
		delete(r.stale, name)
	}
	// Entries the probe missed keep their old binding but are no longer
	// considered stale; a second refresh would just repeat the same miss.
	r.stale = make(map[string]bool)

	if err := r.persistLocked(now); err != nil {
		return updated, err
	}
	slog.Info("query id registry refreshed", slog.Int("updated", updated), slog.Int("resolved", len(ids)))
	return updated, nil
}

// Entries returns a snapshot of the current table, for diagnostics.
func (r *Registry) Entries() []OperationEntry {
	r.mu.Lock()
	r.loadLocked()
	entries := make([]OperationEntry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.Unlock()
	return entries
}

// loadLocked populates the in-memory table from disk, seeding from the
// built-in defaults when the file is missing or unparseable. Caller holds mu.
func (r *Registry) loadLocked() {
	if r.loaded {
		return
	}
	r.loaded = true
	r.entries = make(map[string]OperationEntry, len(defaultQueryIDs))

	snap, err := readSnapshot(r.path)
	if err == nil && len(snap.Operations) > 0 {
		for name, entry := range snap.Operations {
			entry.OperationName = name
			r.entries[name] = entry
		}
		// Operations added since the cache was written still need a seed.
		for name, id := range defaultQueryIDs {
			if _, ok := r.entries[name]; !ok {
				r.entries[name] = OperationEntry{OperationName: name, QueryID: id}
			}
		}
		return
	}
	if err != nil && !os.IsNotExist(err) {
		slog.Warn("query id cache unreadable, reseeding", slog.String("path", r.path), slog.Any("error", err))
	}

	for name, id := range defaultQueryIDs {
		r.entries[name] = OperationEntry{OperationName: name, QueryID: id}
	}
	if err := r.persistLocked(time.Time{}); err != nil {
		slog.Warn("query id cache seed failed", slog.Any("error", err))
	}
}

// persistLocked writes the table to disk with write-temp-then-rename
// semantics so concurrent readers never see a partial file. Caller holds mu.
func (r *Registry) persistLocked(fetchedAt time.Time) error {
	snap := registrySnapshot{FetchedAt: fetchedAt, Operations: r.entries}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".query-ids-*")
	if err != nil {
		return fmt.Errorf("create cache temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("replace cache: %w", err)
	}
	return nil
}

func readSnapshot(path string) (*registrySnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap registrySnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
