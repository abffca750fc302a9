package dispatch

import (
	"reflect"
	"testing"

	"github.com/atomicstack/bzl/internal/transport"
)

func TestNextVerbCycles(t *testing.T) {
	if got := NextVerb("build"); got != "run" {
		t.Fatalf("expected run after build, got %q", got)
	}
	if got := NextVerb("run"); got != "test" {
		t.Fatalf("expected test after run, got %q", got)
	}
	if got := NextVerb("test"); got != "build" {
		t.Fatalf("expected build after test, got %q", got)
	}
}

func TestNextVerbUnknownResetsToBuild(t *testing.T) {
	if got := NextVerb("clean"); got != "build" {
		t.Fatalf("expected build for unknown verb, got %q", got)
	}
}

func TestArgvIncludesTarget(t *testing.T) {
	r := Request{Verb: "build", Target: "//services/alerts:generate_client"}
	want := []string{"bazel", "build", "//services/alerts:generate_client"}
	if got := r.Argv(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestCleanArgvHasNoTarget(t *testing.T) {
	want := []string{"bazel", "clean"}
	if got := Clean().Argv(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestCleanExpungeArgvSplitsVerb(t *testing.T) {
	want := []string{"bazel", "clean", "--expunge"}
	if got := CleanExpunge().Argv(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestDisplayLocal(t *testing.T) {
	r := Request{Verb: "run", Target: "//tools:formatter"}
	got := r.Display(transport.Local{})
	if got != "bazel run //tools:formatter" {
		t.Fatalf("unexpected display %q", got)
	}
}

func TestDisplayRemoteShowsSSHInvocation(t *testing.T) {
	r := Request{Verb: "test", Target: "//services/alerts:unit"}
	remote := transport.Remote{Host: "dev@build-host", Dir: "/src/repo"}
	got := r.Display(remote)
	want := "ssh -t dev@build-host 'cd /src/repo && bazel test //services/alerts:unit'"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
