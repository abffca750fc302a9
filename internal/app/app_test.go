package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/atomicstack/bzl/internal/cache"
	"github.com/atomicstack/bzl/internal/config"
	"github.com/atomicstack/bzl/internal/transport"
)

type fakeTransport struct {
	output string
	err    error
	calls  int
}

func (f *fakeTransport) Capture(ctx context.Context, argv []string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

func (f *fakeTransport) Handoff(argv []string) error { return nil }

func (f *fakeTransport) Key() string { return "fake" }

func (f *fakeTransport) Label() string { return "fake" }

func TestStartupQueryFailureIsFatal(t *testing.T) {
	ft := &fakeTransport{err: errors.New("connection refused")}
	store := cache.New(time.Hour)
	settings := config.Settings{Scope: "//...", Kinds: []string{"genrule"}}

	_, err := startupCatalog(context.Background(), settings, ft, store)
	if err == nil {
		t.Fatalf("expected a fatal startup error")
	}
	var qerr *cache.QueryError
	if !errors.As(err, &qerr) {
		t.Fatalf("expected a wrapped *cache.QueryError, got %v", err)
	}
}

func TestStartupServesWarmEntryDespiteTransportFailure(t *testing.T) {
	ft := &fakeTransport{output: "//a:one\n"}
	store := cache.New(time.Hour)
	settings := config.Settings{Scope: "//...", Kinds: []string{"genrule"}}

	if _, err := startupCatalog(context.Background(), settings, ft, store); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ft.err = errors.New("network down")
	catalog, err := startupCatalog(context.Background(), settings, ft, store)
	if err != nil {
		t.Fatalf("expected the cached catalog, got %v", err)
	}
	if catalog.TargetCount() != 1 {
		t.Fatalf("expected 1 target from the cache, got %d", catalog.TargetCount())
	}
	if ft.calls != 1 {
		t.Fatalf("expected no second query, got %d calls", ft.calls)
	}
}

func TestCacheTTL(t *testing.T) {
	if got := cacheTTL(config.Settings{TTLMinutes: 60}); got != time.Hour {
		t.Fatalf("expected 1h ttl, got %v", got)
	}
	if got := cacheTTL(config.Settings{TTLMinutes: 60, NoCache: true}); got != 0 {
		t.Fatalf("expected --no-cache to disable the ttl, got %v", got)
	}
}

func TestBuildTransport(t *testing.T) {
	if _, ok := buildTransport(config.Settings{}).(transport.Local); !ok {
		t.Fatalf("expected a local transport by default")
	}
	remote, ok := buildTransport(config.Settings{SSHHost: "dev@build", SSHDir: "/src"}).(transport.Remote)
	if !ok {
		t.Fatalf("expected a remote transport with --ssh")
	}
	if remote.Host != "dev@build" || remote.Dir != "/src" {
		t.Fatalf("unexpected remote %+v", remote)
	}
}
