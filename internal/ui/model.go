package ui

import (
	"fmt"
	"reflect"
	"time"

	"github.com/atomicstack/bzl/internal/bazel"
	"github.com/atomicstack/bzl/internal/cache"
	"github.com/atomicstack/bzl/internal/config"
	"github.com/atomicstack/bzl/internal/dispatch"
	"github.com/atomicstack/bzl/internal/theme"
	"github.com/atomicstack/bzl/internal/transport"
	uistate "github.com/atomicstack/bzl/internal/ui/state"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type level = uistate.Level

const (
	moduleLevelID = "modules"
	targetLevelID = "targets"
	kindLevelID   = "kinds"

	defaultKind = config.DefaultKind
)

var styles = theme.Default()

type msgHandler func(tea.Msg) tea.Cmd

// Model implements the Bubble Tea model for the target browser. It owns
// the navigation stack, the active verb, and the in-memory catalog; all
// mutation happens on the event loop between key events.
type Model struct {
	stack             []*level
	verb              string
	kinds             []string
	loading           bool
	loadingLabel      string
	errMsg            string
	infoMsg           string
	infoExpire        time.Time
	width             int
	height            int
	filterCursor      cursor.Model
	filterCursorDirty bool
	spin              spinner.Model

	handlers map[reflect.Type]msgHandler

	settings  config.Settings
	transport transport.Transport
	store     *cache.Store
	catalog   *bazel.Catalog
	outcome   *dispatch.Request
}

// NewModel initialises the UI over an already-populated catalog. The
// startup query happens before the program runs so that a failure with
// no cache can abort before any UI is shown.
func NewModel(settings config.Settings, t transport.Transport, store *cache.Store, catalog *bazel.Catalog) *Model {
	m := &Model{
		verb:      dispatch.Verbs[0],
		kinds:     append([]string(nil), settings.Kinds...),
		settings:  settings,
		transport: t,
		store:     store,
		catalog:   catalog,
	}
	root := uistate.NewLevel(moduleLevelID, "Modules", moduleItems(catalog))
	m.stack = []*level{root}

	c := cursor.New()
	if styles.Cursor != nil {
		c.Style = *styles.Cursor
	}
	if styles.Filter != nil {
		c.TextStyle = *styles.Filter
	}
	c.SetChar(" ")
	m.filterCursor = c

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	if styles.Loading != nil {
		sp.Style = *styles.Loading
	}
	m.spin = sp

	m.registerHandlers()
	return m
}

// Outcome returns the dispatch request selected by the user, or nil when
// the UI exited without selecting one.
func (m *Model) Outcome() *dispatch.Request {
	return m.outcome
}

// Init is part of the tea.Model interface.
func (m *Model) Init() tea.Cmd {
	if cmd := m.filterCursor.Focus(); cmd != nil {
		return cmd
	}
	return nil
}

// Update responds to Bubble Tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmds := make([]tea.Cmd, 0, 4)
	if cmd := m.updateFilterCursorModel(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if handler := m.handlerFor(msg); handler != nil {
		if cmd := handler(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return m, m.finishUpdate(cmds)
}

func (m *Model) registerHandlers() {
	m.handlers = map[reflect.Type]msgHandler{
		reflect.TypeOf(tea.KeyMsg{}):        m.handleKeyMsg,
		reflect.TypeOf(tea.WindowSizeMsg{}): m.handleWindowSizeMsg,
		reflect.TypeOf(catalogMsg{}):        m.handleCatalogMsg,
		reflect.TypeOf(kindsLoadedMsg{}):    m.handleKindsLoadedMsg,
		reflect.TypeOf(kindsAppliedMsg{}):   m.handleKindsAppliedMsg,
		reflect.TypeOf(spinner.TickMsg{}):   m.handleSpinnerTickMsg,
	}
}

func (m *Model) handlerFor(msg tea.Msg) msgHandler {
	if msg == nil || m.handlers == nil {
		return nil
	}
	t := reflect.TypeOf(msg)
	if handler, ok := m.handlers[t]; ok {
		return handler
	}
	if t.Kind() == reflect.Ptr {
		if handler, ok := m.handlers[t.Elem()]; ok {
			return handler
		}
	}
	return nil
}

func (m *Model) finishUpdate(cmds []tea.Cmd) tea.Cmd {
	if m.filterCursorDirty {
		m.filterCursorDirty = false
		m.filterCursor.Blink = false
		if cmd := m.filterCursor.BlinkCmd(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

func (m *Model) handleSpinnerTickMsg(msg tea.Msg) tea.Cmd {
	if !m.loading {
		return nil
	}
	var cmd tea.Cmd
	m.spin, cmd = m.spin.Update(msg)
	return cmd
}

func (m *Model) currentLevel() *level {
	if len(m.stack) == 0 {
		return nil
	}
	return m.stack[len(m.stack)-1]
}

func (m *Model) setInfo(message string) {
	m.infoMsg = message
	m.infoExpire = time.Now().Add(5 * time.Second)
}

func (m *Model) forceClearInfo() {
	m.infoMsg = ""
	m.infoExpire = time.Time{}
}

func (m *Model) currentInfo() string {
	if m.infoMsg != "" && !m.infoExpire.IsZero() && time.Now().After(m.infoExpire) {
		m.infoMsg = ""
		m.infoExpire = time.Time{}
	}
	return m.infoMsg
}

// moduleItems renders the catalog's modules as list items annotated with
// their target counts.
func moduleItems(catalog *bazel.Catalog) []uistate.Item {
	if catalog == nil {
		return nil
	}
	items := make([]uistate.Item, 0, len(catalog.Modules))
	for _, module := range catalog.Modules {
		noun := "targets"
		if len(module.Targets) == 1 {
			noun = "target"
		}
		items = append(items, uistate.Item{
			ID:         module.Path,
			Label:      module.Path,
			Annotation: fmt.Sprintf("%d %s", len(module.Targets), noun),
		})
	}
	return items
}

// targetItems renders a module's targets as list items annotated with
// their rule kind.
func targetItems(module *bazel.Module) []uistate.Item {
	if module == nil {
		return nil
	}
	items := make([]uistate.Item, 0, len(module.Targets))
	for _, target := range module.Targets {
		items = append(items, uistate.Item{
			ID:         target.Label,
			Label:      target.Name,
			Annotation: target.Kind,
		})
	}
	return items
}
