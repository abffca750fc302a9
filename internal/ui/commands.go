package ui

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/atomicstack/bzl/internal/bazel"
	"github.com/atomicstack/bzl/internal/config"
	"github.com/atomicstack/bzl/internal/logging"
	uistate "github.com/atomicstack/bzl/internal/ui/state"
	tea "github.com/charmbracelet/bubbletea"
)

// catalogMsg carries the result of a forced cache refresh.
type catalogMsg struct {
	catalog *bazel.Catalog
	err     error
}

// kindsLoadedMsg carries the discovered rule kinds for the kind-select
// level.
type kindsLoadedMsg struct {
	kinds []string
	err   error
}

// kindsAppliedMsg reports persistence of a new kind selection together
// with the refreshed catalog.
type kindsAppliedMsg struct {
	kinds   []string
	catalog *bazel.Catalog
	err     error
}

// startRefresh forces a re-query for the current scope/kinds/transport.
// A refresh already in flight wins: the request is dropped, not queued.
func (m *Model) startRefresh() tea.Cmd {
	if m.loading {
		return nil
	}
	m.loading = true
	m.loadingLabel = "refreshing"
	m.errMsg = ""
	m.forceClearInfo()
	scope, kinds := m.settings.Scope, append([]string(nil), m.kinds...)
	return tea.Batch(func() tea.Msg {
		catalog, err := m.store.GetOrRefresh(context.Background(), scope, kinds, m.transport, true)
		return catalogMsg{catalog: catalog, err: err}
	}, m.spin.Tick)
}

func (m *Model) handleCatalogMsg(msg tea.Msg) tea.Cmd {
	update, ok := msg.(catalogMsg)
	if !ok {
		return nil
	}
	m.loading = false
	m.loadingLabel = ""
	if update.err != nil {
		// Keep showing the previous catalog; the cache kept its entry.
		logging.Error(update.err)
		m.errMsg = update.err.Error()
		if age, ok := m.store.Age(m.settings.Scope, m.kinds, m.transport); ok {
			m.setInfo("Showing cached results from " + age + ".")
		}
		return nil
	}
	m.errMsg = ""
	m.replaceCatalog(update.catalog)
	return nil
}

// replaceCatalog swaps in a fresh catalog and rebuilds the whole level
// stack against it: the module list is refreshed in place, and every
// pushed target level must still resolve. A target level whose module
// vanished is dropped along with everything above it.
func (m *Model) replaceCatalog(catalog *bazel.Catalog) {
	m.catalog = catalog
	root := m.stack[0]
	before := root.FilterCursorPos()
	root.SetFilter("", 0)
	m.noteFilterCursorChange(root, before)
	root.UpdateItems(moduleItems(catalog))
	m.syncViewport(root)
	kept := m.stack[:1]
	for _, lvl := range m.stack[1:] {
		if !strings.HasPrefix(lvl.ID, targetLevelID+":") {
			kept = append(kept, lvl)
			continue
		}
		path := strings.TrimPrefix(lvl.ID, targetLevelID+":")
		module := catalog.Module(path)
		if module == nil {
			m.setInfo("Module " + path + " disappeared after refresh.")
			break
		}
		before := lvl.FilterCursorPos()
		lvl.SetFilter("", 0)
		m.noteFilterCursorChange(lvl, before)
		lvl.UpdateItems(targetItems(module))
		m.syncViewport(lvl)
		kept = append(kept, lvl)
	}
	m.stack = kept
}

// startKindSelect discovers the rule kinds present in the scope and
// opens the multi-select kind level.
func (m *Model) startKindSelect() tea.Cmd {
	if m.loading {
		return nil
	}
	if current := m.currentLevel(); current != nil && current.ID == kindLevelID {
		return nil
	}
	m.loading = true
	m.loadingLabel = "discovering rule kinds"
	m.errMsg = ""
	scope := m.settings.Scope
	return tea.Batch(func() tea.Msg {
		raw, err := m.transport.Capture(context.Background(), bazel.KindQueryArgs(scope))
		if err != nil {
			return kindsLoadedMsg{err: err}
		}
		return kindsLoadedMsg{kinds: bazel.ParseKinds(raw)}
	}, m.spin.Tick)
}

func (m *Model) handleKindsLoadedMsg(msg tea.Msg) tea.Cmd {
	update, ok := msg.(kindsLoadedMsg)
	if !ok {
		return nil
	}
	m.loading = false
	m.loadingLabel = ""
	if update.err != nil {
		logging.Error(update.err)
		m.errMsg = update.err.Error()
		return nil
	}
	// The active kinds stay listed even when the query missed them.
	all := append([]string(nil), update.kinds...)
	for _, kind := range m.kinds {
		if !containsString(all, kind) {
			all = append(all, kind)
		}
	}
	sort.Strings(all)
	items := make([]uistate.Item, 0, len(all))
	for _, kind := range all {
		items = append(items, uistate.Item{ID: kind, Label: kind})
	}
	if parent := m.currentLevel(); parent != nil {
		parent.LastCursor = parent.Cursor
	}
	kindLevel := uistate.NewLevel(kindLevelID, "Rule Kinds", items)
	kindLevel.MultiSelect = true
	for _, kind := range m.kinds {
		kindLevel.ToggleSelection(kind)
	}
	m.syncViewport(kindLevel)
	m.stack = append(m.stack, kindLevel)
	m.errMsg = ""
	return nil
}

// applyKindsCmd persists the kind selection to the nearest .bzlrc and
// re-queries with the new kind set.
func (m *Model) applyKindsCmd(kinds []string) tea.Cmd {
	scope := m.settings.Scope
	return func() tea.Msg {
		cwd, err := os.Getwd()
		if err != nil {
			return kindsAppliedMsg{kinds: kinds, err: err}
		}
		home, _ := os.UserHomeDir()
		if err := config.SaveKinds(kinds, cwd, home); err != nil {
			// Persistence failure only costs the next session; the new
			// kinds still apply to this one.
			logging.Error(err)
		}
		catalog, err := m.store.GetOrRefresh(context.Background(), scope, kinds, m.transport, true)
		return kindsAppliedMsg{kinds: kinds, catalog: catalog, err: err}
	}
}

func (m *Model) handleKindsAppliedMsg(msg tea.Msg) tea.Cmd {
	update, ok := msg.(kindsAppliedMsg)
	if !ok {
		return nil
	}
	m.loading = false
	m.loadingLabel = ""
	if update.err != nil {
		logging.Error(update.err)
		m.errMsg = update.err.Error()
		return nil
	}
	m.errMsg = ""
	m.replaceCatalog(update.catalog)
	m.setInfo("Querying kinds: " + strings.Join(update.kinds, ", "))
	return nil
}

func containsString(list []string, needle string) bool {
	for _, entry := range list {
		if entry == needle {
			return true
		}
	}
	return false
}
