// Package transport abstracts where bazel commands run: the local working
// directory or a remote host reached over ssh. Both variants support two
// operations — capturing a command's output, and replacing the current
// process image with the command so the user gets bazel's own terminal
// experience.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"
	"golang.org/x/sys/unix"
)

// Transport runs commands either locally or on a remote host.
type Transport interface {
	// Capture runs argv and returns its stdout. A non-zero exit status is
	// reported as an error carrying the command's stderr.
	Capture(ctx context.Context, argv []string) (string, error)
	// Handoff replaces the current process image with argv. It only
	// returns on failure, wrapped in a *LaunchError. All cleanup
	// (terminal restoration included) must happen before calling it.
	Handoff(argv []string) error
	// Key identifies the transport for cache keying. Two transports with
	// equal keys address the same execution context.
	Key() string
	// Label is the human-readable form shown in the UI header.
	Label() string
}

// LaunchError reports a handoff that could not start the target process.
type LaunchError struct {
	Argv []string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s: %v", strings.Join(e.Argv, " "), e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// Local runs commands in the current working directory.
type Local struct{}

func (Local) Capture(ctx context.Context, argv []string) (string, error) {
	if len(argv) == 0 {
		return "", fmt.Errorf("capture: empty command")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s: %s", argv[0], msg)
		}
		return "", fmt.Errorf("%s: %w", argv[0], err)
	}
	return stdout.String(), nil
}

func (Local) Handoff(argv []string) error {
	return execReplace(argv)
}

func (Local) Key() string { return "local" }

func (Local) Label() string { return "local" }

// Remote runs commands on Host over ssh, inside Dir.
type Remote struct {
	Host string
	Dir  string
}

// remoteCommand renders argv as a shell command prefixed with a cd into
// the remote working directory.
func (r Remote) remoteCommand(argv []string) string {
	return fmt.Sprintf("cd %s && %s", shellquote.Join(r.Dir), shellquote.Join(argv...))
}

func (r Remote) Capture(ctx context.Context, argv []string) (string, error) {
	if len(argv) == 0 {
		return "", fmt.Errorf("capture: empty command")
	}
	return Local{}.Capture(ctx, []string{"ssh", r.Host, r.remoteCommand(argv)})
}

// Handoff execs ssh with a forced pseudo-terminal so the remote command
// believes it owns a real terminal: colors and progress bars survive.
func (r Remote) Handoff(argv []string) error {
	return execReplace([]string{"ssh", "-t", r.Host, r.remoteCommand(argv)})
}

func (r Remote) Key() string { return "ssh:" + r.Host + ":" + r.Dir }

func (r Remote) Label() string { return "ssh: " + r.Host }

// execReplace swaps the current process image for argv. On success this
// function never returns.
func execReplace(argv []string) error {
	if len(argv) == 0 {
		return &LaunchError{Argv: argv, Err: fmt.Errorf("empty command")}
	}
	path, err := exec.LookPath(argv[0])
	if err != nil {
		return &LaunchError{Argv: argv, Err: err}
	}
	if err := unix.Exec(path, argv, os.Environ()); err != nil {
		return &LaunchError{Argv: argv, Err: err}
	}
	return nil
}
