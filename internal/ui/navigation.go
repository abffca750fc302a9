package ui

import (
	"strings"

	"github.com/atomicstack/bzl/internal/dispatch"
	"github.com/atomicstack/bzl/internal/logging/events"
	uistate "github.com/atomicstack/bzl/internal/ui/state"
	tea "github.com/charmbracelet/bubbletea"
)

func (m *Model) handleKeyMsg(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch keyMsg.String() {
	case "ctrl+c":
		events.App.Exit("interrupt")
		return tea.Quit
	case "esc":
		return m.handleEscapeKey()
	case "enter":
		return m.handleEnterKey()
	case "tab":
		if current := m.currentLevel(); current != nil && current.MultiSelect {
			current.ToggleCurrentSelection()
		}
		return nil
	case "ctrl+v":
		m.cycleVerb()
		return nil
	case "ctrl+e":
		return m.dispatchImmediate(dispatch.Clean())
	case "ctrl+x":
		return m.dispatchImmediate(dispatch.CleanExpunge())
	case "ctrl+f":
		return m.startRefresh()
	case "ctrl+k":
		return m.startKindSelect()
	}
	if m.handleTextInput(keyMsg) {
		return nil
	}
	switch keyMsg.String() {
	case "up":
		m.moveCursorUp()
	case "down":
		m.moveCursorDown()
	case "pgup":
		m.moveCursorPageUp()
	case "pgdown":
		m.moveCursorPageDown()
	case "home":
		m.moveCursorHome()
	case "end":
		m.moveCursorEnd()
	}
	return nil
}

// handleEscapeKey pops the current level; popping the root quits.
func (m *Model) handleEscapeKey() tea.Cmd {
	current := m.currentLevel()
	if current == nil || len(m.stack) <= 1 {
		events.App.Exit("escape")
		return tea.Quit
	}
	events.UI.LevelPop(current.ID)
	parent := m.stack[len(m.stack)-2]
	m.stack = m.stack[:len(m.stack)-1]
	if parent != nil {
		if parent.LastCursor >= 0 && parent.LastCursor < len(parent.Items) {
			parent.Cursor = parent.LastCursor
		} else if idx := parent.IndexOf(current.ID); idx >= 0 {
			parent.Cursor = idx
		}
		parent.LastCursor = -1
		m.syncViewport(parent)
	}
	m.errMsg = ""
	m.forceClearInfo()
	return nil
}

func (m *Model) handleEnterKey() tea.Cmd {
	if m.loading {
		return nil
	}
	current := m.currentLevel()
	if current == nil {
		return nil
	}
	if current.ID == kindLevelID {
		return m.applyKindSelection(current)
	}
	if len(current.Items) == 0 {
		return nil
	}
	item := current.Items[current.Cursor]
	events.UI.LevelEnter(current.ID, item.ID, current.Filter)
	switch current.ID {
	case moduleLevelID:
		module := m.catalog.Module(item.ID)
		if module == nil {
			return nil
		}
		before := current.FilterCursorPos()
		current.SetFilter("", 0)
		m.noteFilterCursorChange(current, before)
		current.LastCursor = current.Cursor
		child := uistate.NewLevel(targetLevelID+":"+module.Path, module.Path, targetItems(module))
		m.syncViewport(child)
		m.stack = append(m.stack, child)
		m.errMsg = ""
		m.forceClearInfo()
		return nil
	default:
		// Target level: selection ends the UI; the dispatcher takes
		// over once the terminal has been restored.
		m.outcome = &dispatch.Request{Verb: m.verb, Target: item.ID}
		return tea.Quit
	}
}

// dispatchImmediate ends the UI with a fixed request that bypasses
// target selection (clean, clean --expunge).
func (m *Model) dispatchImmediate(req dispatch.Request) tea.Cmd {
	m.outcome = &req
	return tea.Quit
}

func (m *Model) cycleVerb() {
	m.verb = dispatch.NextVerb(m.verb)
	events.UI.VerbCycle(m.verb)
}

// applyKindSelection commits the multi-select kind level. An empty
// selection falls back to the default kind rather than producing an
// unqueryable empty set.
func (m *Model) applyKindSelection(current *level) tea.Cmd {
	kinds := current.SelectedIDs()
	if len(kinds) == 0 {
		kinds = []string{defaultKind}
	}
	m.stack = m.stack[:len(m.stack)-1]
	if parent := m.currentLevel(); parent != nil {
		m.syncViewport(parent)
	}
	if equalKinds(kinds, m.kinds) {
		return nil
	}
	m.kinds = kinds
	m.loading = true
	m.loadingLabel = "querying " + strings.Join(kinds, ", ")
	m.errMsg = ""
	m.forceClearInfo()
	return tea.Batch(m.applyKindsCmd(kinds), m.spin.Tick)
}

func (m *Model) moveCursorUp() {
	if current := m.currentLevel(); current != nil {
		if current.MoveCursorUp() {
			events.UI.Cursor(current.ID, current.Cursor)
		}
		m.syncViewport(current)
	}
}

func (m *Model) moveCursorDown() {
	if current := m.currentLevel(); current != nil {
		if current.MoveCursorDown() {
			events.UI.Cursor(current.ID, current.Cursor)
		}
		m.syncViewport(current)
	}
}

func (m *Model) moveCursorPageUp() {
	if current := m.currentLevel(); current != nil {
		if current.MoveCursorPageUp(m.maxVisibleItems()) {
			events.UI.Cursor(current.ID, current.Cursor)
		}
		m.syncViewport(current)
	}
}

func (m *Model) moveCursorPageDown() {
	if current := m.currentLevel(); current != nil {
		if current.MoveCursorPageDown(m.maxVisibleItems()) {
			events.UI.Cursor(current.ID, current.Cursor)
		}
		m.syncViewport(current)
	}
}

func (m *Model) moveCursorHome() {
	if current := m.currentLevel(); current != nil {
		if current.MoveCursorHome() {
			events.UI.Cursor(current.ID, current.Cursor)
		}
		m.syncViewport(current)
	}
}

func (m *Model) moveCursorEnd() {
	if current := m.currentLevel(); current != nil {
		if current.MoveCursorEnd() {
			events.UI.Cursor(current.ID, current.Cursor)
		}
		m.syncViewport(current)
	}
}

func (m *Model) syncViewport(l *level) {
	if l == nil {
		return
	}
	l.EnsureCursorVisible(m.maxVisibleItems())
}

func equalKinds(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]struct{}, len(a))
	for _, kind := range a {
		seen[kind] = struct{}{}
	}
	for _, kind := range b {
		if _, ok := seen[kind]; !ok {
			return false
		}
	}
	return true
}
