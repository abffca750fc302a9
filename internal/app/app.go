package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atomicstack/bzl/internal/bazel"
	"github.com/atomicstack/bzl/internal/cache"
	"github.com/atomicstack/bzl/internal/config"
	"github.com/atomicstack/bzl/internal/dispatch"
	"github.com/atomicstack/bzl/internal/transport"
	"github.com/atomicstack/bzl/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
)

// Run bootstraps the target browser and, when the user picks a target,
// hands the terminal over to bazel. On a successful handoff this
// function never returns.
func Run(settings config.Settings) error {
	t := buildTransport(settings)
	store := cache.New(cacheTTL(settings))

	catalog, err := startupCatalog(context.Background(), settings, t, store)
	if err != nil {
		return err
	}

	model := ui.NewModel(settings, t, store, catalog)
	program := tea.NewProgram(model, tea.WithAltScreen())
	final, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	if err != nil {
		return err
	}

	finished, ok := final.(*ui.Model)
	if !ok {
		return nil
	}
	request := finished.Outcome()
	if request == nil {
		return nil
	}
	// The program has restored the terminal by now; replacing the
	// process image is safe.
	return dispatch.Exec(*request, t)
}

// startupCatalog runs the initial non-forced lookup that populates the
// root screen. With nothing cached for the key, a query failure here is
// fatal: there is nothing to browse.
func startupCatalog(ctx context.Context, settings config.Settings, t transport.Transport, store *cache.Store) (*bazel.Catalog, error) {
	catalog, err := store.GetOrRefresh(ctx, settings.Scope, settings.Kinds, t, settings.NoCache)
	if err != nil {
		return nil, fmt.Errorf("initial query: %w", err)
	}
	return catalog, nil
}

func cacheTTL(settings config.Settings) time.Duration {
	if settings.NoCache {
		return 0
	}
	return time.Duration(settings.TTLMinutes) * time.Minute
}

func buildTransport(settings config.Settings) transport.Transport {
	if settings.Remote() {
		return transport.Remote{Host: settings.SSHHost, Dir: settings.SSHDir}
	}
	return transport.Local{}
}
