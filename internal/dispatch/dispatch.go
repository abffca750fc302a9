// Package dispatch turns a selected verb and target into the final bazel
// command line and performs the irreversible process handoff.
package dispatch

import (
	"fmt"
	"os"
	"strings"

	"github.com/atomicstack/bzl/internal/bazel"
	"github.com/atomicstack/bzl/internal/logging/events"
	"github.com/atomicstack/bzl/internal/transport"
	"github.com/kballard/go-shellquote"
	"golang.org/x/term"
)

// Verbs a target can be dispatched with, in cycle order.
var Verbs = []string{"build", "run", "test"}

// NextVerb returns the verb following v in the cycle
// build -> run -> test -> build.
func NextVerb(v string) string {
	for i, known := range Verbs {
		if known == v {
			return Verbs[(i+1)%len(Verbs)]
		}
	}
	return Verbs[0]
}

// Request describes a command to hand the terminal over to. Target is
// empty for clean actions, whose verb carries its own arguments
// ("clean" or "clean --expunge").
type Request struct {
	Verb   string
	Target string
}

// Clean and CleanExpunge are the immediate actions that bypass target
// selection.
func Clean() Request        { return Request{Verb: "clean"} }
func CleanExpunge() Request { return Request{Verb: "clean --expunge"} }

// Argv builds the bazel argument vector for the request.
func (r Request) Argv() []string {
	argv := append([]string{bazel.Binary}, strings.Fields(r.Verb)...)
	if r.Target != "" {
		argv = append(argv, r.Target)
	}
	return argv
}

// Display renders the "about to run" line the user sees just before the
// handoff, matching what will actually execute on the transport.
func (r Request) Display(t transport.Transport) string {
	argv := r.Argv()
	if remote, ok := t.(transport.Remote); ok {
		return fmt.Sprintf("ssh -t %s 'cd %s && %s'", remote.Host, remote.Dir, strings.Join(argv, " "))
	}
	return shellquote.Join(argv...)
}

// TerminalStateError reports a terminal that could not be returned to a
// runnable state before handoff. Handing off anyway would leave the
// build tool talking to a broken terminal, so this is fatal.
type TerminalStateError struct {
	Err error
}

func (e *TerminalStateError) Error() string {
	return fmt.Sprintf("terminal not restored before handoff: %v", e.Err)
}

func (e *TerminalStateError) Unwrap() error { return e.Err }

// Exec prints the command line and replaces the current process with it
// via the transport. It never returns on success; by the time it is
// called the UI must already have restored the terminal.
func Exec(r Request, t transport.Transport) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return &TerminalStateError{Err: fmt.Errorf("stdin is not a terminal")}
	}
	fmt.Printf("\n$ %s\n", r.Display(t))
	fmt.Println(strings.Repeat("─", 60))
	argv := r.Argv()
	events.Exec.Handoff(argv)
	err := t.Handoff(argv)
	events.Exec.Error(err)
	return err
}
