package events

import "github.com/atomicstack/bzl/internal/logging"

type QueryTracer struct{}

type ExecTracer struct{}

var (
	Query = QueryTracer{}
	Exec  = ExecTracer{}
)

func (QueryTracer) Start(key, scope string, kinds []string, forced bool) {
	logging.Trace("query.start", map[string]interface{}{
		"key":    key,
		"scope":  scope,
		"kinds":  kinds,
		"forced": forced,
	})
}

func (QueryTracer) Hit(key string, age string) {
	logging.Trace("query.cache-hit", map[string]interface{}{"key": key, "age": age})
}

func (QueryTracer) Done(key string, modules, targets int) {
	logging.Trace("query.done", map[string]interface{}{
		"key":     key,
		"modules": modules,
		"targets": targets,
	})
}

func (QueryTracer) Error(key string, err error) {
	if err == nil {
		return
	}
	logging.Trace("query.error", map[string]interface{}{"key": key, "error": err.Error()})
}

func (ExecTracer) Handoff(argv []string) {
	logging.Trace("exec.handoff", map[string]interface{}{"argv": argv})
}

func (ExecTracer) Error(err error) {
	if err == nil {
		return
	}
	logging.Trace("exec.error", map[string]interface{}{"error": err.Error()})
}
