package events

import "github.com/atomicstack/bzl/internal/logging"

type UITracer struct{}

type FilterTracer struct{}

var (
	UI     = UITracer{}
	Filter = FilterTracer{}
)

func (UITracer) LevelEnter(levelID, itemID, filter string) {
	logging.Trace("ui.enter", map[string]interface{}{
		"level":  levelID,
		"item":   itemID,
		"filter": filter,
	})
}

func (UITracer) LevelPop(levelID string) {
	logging.Trace("ui.pop", map[string]interface{}{"level": levelID})
}

func (UITracer) Cursor(levelID string, cursor int) {
	logging.Trace("ui.cursor", map[string]interface{}{"level": levelID, "cursor": cursor})
}

func (UITracer) VerbCycle(verb string) {
	logging.Trace("ui.verb", map[string]interface{}{"verb": verb})
}

func (FilterTracer) Append(levelID, filter string) {
	logging.Trace("filter.append", map[string]interface{}{"level": levelID, "filter": filter})
}

func (FilterTracer) Backspace(levelID, filter string) {
	logging.Trace("filter.backspace", map[string]interface{}{"level": levelID, "filter": filter})
}

func (FilterTracer) WordBackspace(levelID, filter string) {
	logging.Trace("filter.word-backspace", map[string]interface{}{"level": levelID, "filter": filter})
}

func (FilterTracer) Cleared(levelID string) {
	logging.Trace("filter.clear", map[string]interface{}{"level": levelID})
}

func (FilterTracer) Cursor(levelID string, pos int) {
	logging.Trace("filter.cursor", map[string]interface{}{"level": levelID, "cursor": pos})
}
