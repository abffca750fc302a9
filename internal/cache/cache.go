// Package cache holds query results keyed by (scope, kinds, transport)
// with a time-to-live. The TTL is deliberately long (weeks by default);
// the primary invalidation path is an explicit forced refresh.
package cache

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/atomicstack/bzl/internal/bazel"
	"github.com/atomicstack/bzl/internal/logging/events"
	"github.com/atomicstack/bzl/internal/transport"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/singleflight"
)

// QueryError reports a query command that failed or could not be
// launched. The previous cache entry, if any, survives the failure.
type QueryError struct {
	Key string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s: %v", e.Key, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Key identifies a cache slot. Kinds are sorted on construction so two
// requests with the same effective parameters share an entry regardless
// of argument order.
type Key struct {
	Scope     string
	Kinds     []string
	Transport string
}

// NewKey builds a key from the request parameters and transport identity.
func NewKey(scope string, kinds []string, t transport.Transport) Key {
	sorted := append([]string(nil), kinds...)
	sort.Strings(sorted)
	return Key{Scope: scope, Kinds: sorted, Transport: t.Key()}
}

func (k Key) String() string {
	return k.Transport + "|" + k.Scope + "|" + strings.Join(k.Kinds, ",")
}

type entry struct {
	catalog   *bazel.Catalog
	createdAt time.Time
}

func (e *entry) fresh(ttl time.Duration, now time.Time) bool {
	return now.Sub(e.createdAt) < ttl
}

// Store is an in-memory query cache. It is safe for concurrent use and
// coalesces concurrent refreshes of the same key into one query.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
	flight  singleflight.Group
	now     func() time.Time
}

// New creates a store whose entries expire after ttl. A zero or negative
// ttl disables caching entirely: every lookup re-queries.
func New(ttl time.Duration) *Store {
	return &Store{
		entries: make(map[string]*entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// GetOrRefresh returns the cached catalog for (scope, kinds, t), querying
// through the transport on miss, expiry, or when force is set. Concurrent
// calls for the same key share a single underlying query. On failure any
// previous entry is left untouched and a *QueryError is returned.
func (s *Store) GetOrRefresh(ctx context.Context, scope string, kinds []string, t transport.Transport, force bool) (*bazel.Catalog, error) {
	key := NewKey(scope, kinds, t)
	id := key.String()

	if !force && s.ttl > 0 {
		s.mu.Lock()
		if e, ok := s.entries[id]; ok && e.fresh(s.ttl, s.now()) {
			s.mu.Unlock()
			events.Query.Hit(id, humanize.Time(e.createdAt))
			return e.catalog, nil
		}
		s.mu.Unlock()
	}

	events.Query.Start(id, scope, key.Kinds, force)
	result, err, _ := s.flight.Do(id, func() (interface{}, error) {
		raw, err := t.Capture(ctx, bazel.QueryArgs(scope, key.Kinds))
		if err != nil {
			return nil, err
		}
		// Plain label output carries no per-target kind, so the kind
		// annotation is only trustworthy when one kind was requested.
		kind := ""
		if len(key.Kinds) == 1 {
			kind = key.Kinds[0]
		}
		catalog := bazel.ParseCatalog(raw, kind)
		s.mu.Lock()
		s.entries[id] = &entry{catalog: catalog, createdAt: s.now()}
		s.mu.Unlock()
		events.Query.Done(id, len(catalog.Modules), catalog.TargetCount())
		return catalog, nil
	})
	if err != nil {
		qerr := &QueryError{Key: id, Err: err}
		events.Query.Error(id, err)
		return nil, qerr
	}
	return result.(*bazel.Catalog), nil
}

// Age reports how long ago the entry for (scope, kinds, t) was created,
// as a human-readable string, and whether such an entry exists.
func (s *Store) Age(scope string, kinds []string, t transport.Transport) (string, bool) {
	id := NewKey(scope, kinds, t).String()
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return "", false
	}
	return humanize.Time(e.createdAt), true
}
