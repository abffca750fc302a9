package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeTransport struct {
	output string
	err    error
	calls  int
	key    string
}

func (f *fakeTransport) Capture(ctx context.Context, argv []string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

func (f *fakeTransport) Handoff(argv []string) error { return nil }

func (f *fakeTransport) Key() string {
	if f.key != "" {
		return f.key
	}
	return "fake"
}

func (f *fakeTransport) Label() string { return "fake" }

func TestGetOrRefreshCachesWithinTTL(t *testing.T) {
	ft := &fakeTransport{output: "//a:one\n//a:two\n"}
	store := New(time.Hour)

	first, err := store.GetOrRefresh(context.Background(), "//...", []string{"genrule"}, ft, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.TargetCount() != 2 {
		t.Fatalf("expected 2 targets, got %d", first.TargetCount())
	}
	second, err := store.GetOrRefresh(context.Background(), "//...", []string{"genrule"}, ft, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ft.calls != 1 {
		t.Fatalf("expected a single query, got %d", ft.calls)
	}
	if second != first {
		t.Fatalf("expected the cached catalog instance")
	}
}

func TestGetOrRefreshExpiresAfterTTL(t *testing.T) {
	ft := &fakeTransport{output: "//a:one\n"}
	store := New(time.Minute)
	current := time.Unix(1000, 0)
	store.now = func() time.Time { return current }

	if _, err := store.GetOrRefresh(context.Background(), "//...", []string{"genrule"}, ft, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	current = current.Add(2 * time.Minute)
	if _, err := store.GetOrRefresh(context.Background(), "//...", []string{"genrule"}, ft, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ft.calls != 2 {
		t.Fatalf("expected expiry to re-query, got %d calls", ft.calls)
	}
}

func TestGetOrRefreshForceBypassesFreshEntry(t *testing.T) {
	ft := &fakeTransport{output: "//a:one\n"}
	store := New(time.Hour)

	if _, err := store.GetOrRefresh(context.Background(), "//...", []string{"genrule"}, ft, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.GetOrRefresh(context.Background(), "//...", []string{"genrule"}, ft, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ft.calls != 2 {
		t.Fatalf("expected force to re-query, got %d calls", ft.calls)
	}
}

func TestKindOrderDoesNotFragmentCache(t *testing.T) {
	ft := &fakeTransport{output: "//a:one\n"}
	store := New(time.Hour)

	if _, err := store.GetOrRefresh(context.Background(), "//...", []string{"sh_binary", "genrule"}, ft, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.GetOrRefresh(context.Background(), "//...", []string{"genrule", "sh_binary"}, ft, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ft.calls != 1 {
		t.Fatalf("expected one query for both kind orders, got %d", ft.calls)
	}
}

func TestSingleKindAnnotatesTargets(t *testing.T) {
	ft := &fakeTransport{output: "//a:one\n"}
	store := New(time.Hour)

	catalog, err := store.GetOrRefresh(context.Background(), "//...", []string{"genrule"}, ft, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kind := catalog.Modules[0].Targets[0].Kind; kind != "genrule" {
		t.Fatalf("expected genrule annotation, got %q", kind)
	}
}

func TestMultipleKindsLeaveTargetKindUnset(t *testing.T) {
	ft := &fakeTransport{output: "//a:one\n"}
	store := New(time.Hour)

	catalog, err := store.GetOrRefresh(context.Background(), "//...", []string{"genrule", "sh_binary"}, ft, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kind := catalog.Modules[0].Targets[0].Kind; kind != "" {
		t.Fatalf("expected no kind annotation for a multi-kind query, got %q", kind)
	}
}

func TestTransportsGetSeparateEntries(t *testing.T) {
	local := &fakeTransport{output: "//a:one\n", key: "local"}
	remote := &fakeTransport{output: "//a:one\n", key: "ssh:host:/dir"}
	store := New(time.Hour)

	if _, err := store.GetOrRefresh(context.Background(), "//...", []string{"genrule"}, local, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.GetOrRefresh(context.Background(), "//...", []string{"genrule"}, remote, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if local.calls != 1 || remote.calls != 1 {
		t.Fatalf("expected one query per transport, got %d and %d", local.calls, remote.calls)
	}
}

func TestFailurePreservesPreviousEntry(t *testing.T) {
	ft := &fakeTransport{output: "//a:one\n"}
	store := New(time.Hour)

	first, err := store.GetOrRefresh(context.Background(), "//...", []string{"genrule"}, ft, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ft.err = errors.New("connection refused")
	if _, err := store.GetOrRefresh(context.Background(), "//...", []string{"genrule"}, ft, true); err == nil {
		t.Fatalf("expected refresh failure")
	} else {
		var qerr *QueryError
		if !errors.As(err, &qerr) {
			t.Fatalf("expected *QueryError, got %T", err)
		}
	}

	ft.err = nil
	again, err := store.GetOrRefresh(context.Background(), "//...", []string{"genrule"}, ft, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again != first {
		t.Fatalf("expected the pre-failure catalog to survive")
	}
}

func TestZeroTargetResultIsCached(t *testing.T) {
	ft := &fakeTransport{output: ""}
	store := New(time.Hour)

	catalog, err := store.GetOrRefresh(context.Background(), "//...", []string{"genrule"}, ft, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if catalog.TargetCount() != 0 {
		t.Fatalf("expected empty catalog, got %d targets", catalog.TargetCount())
	}
	if _, err := store.GetOrRefresh(context.Background(), "//...", []string{"genrule"}, ft, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ft.calls != 1 {
		t.Fatalf("expected empty result to be cached, got %d calls", ft.calls)
	}
}

func TestZeroTTLDisablesCaching(t *testing.T) {
	ft := &fakeTransport{output: "//a:one\n"}
	store := New(0)

	for i := 0; i < 3; i++ {
		if _, err := store.GetOrRefresh(context.Background(), "//...", []string{"genrule"}, ft, false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ft.calls != 3 {
		t.Fatalf("expected every lookup to query with ttl 0, got %d calls", ft.calls)
	}
}

func TestAgeReportsExistingEntry(t *testing.T) {
	ft := &fakeTransport{output: "//a:one\n"}
	store := New(time.Hour)

	if _, ok := store.Age("//...", []string{"genrule"}, ft); ok {
		t.Fatalf("expected no age before the first query")
	}
	if _, err := store.GetOrRefresh(context.Background(), "//...", []string{"genrule"}, ft, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	age, ok := store.Age("//...", []string{"genrule"}, ft)
	if !ok {
		t.Fatalf("expected an age after the query")
	}
	if age == "" {
		t.Fatalf("expected a non-empty age string")
	}
}
