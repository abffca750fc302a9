package bazel

import (
	"sort"
	"strings"
)

// Target is a single buildable rule inside a module.
type Target struct {
	Label  string
	Name   string
	Kind   string
	Module string
}

// Module groups the targets sharing a package path, e.g. //services/alerts.
type Module struct {
	Path    string
	Targets []Target
}

// Catalog is the parsed result of a bazel query, immutable once built.
// Modules appear in first-seen order; targets keep query output order.
type Catalog struct {
	Modules []*Module

	index map[string]*Module
}

// ParseCatalog parses raw `bazel query` output into a catalog. Each line is
// a fully qualified label of the form //module/path:target_name. Lines that
// do not look like labels are skipped. kind annotates every target; the
// query itself already restricted the rule kinds, so no re-filtering
// happens here.
func ParseCatalog(raw string, kind string) *Catalog {
	c := &Catalog{index: make(map[string]*Module)}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "//") {
			continue
		}
		sep := strings.LastIndex(line, ":")
		if sep < 0 {
			continue
		}
		path, name := line[:sep], line[sep+1:]
		if name == "" {
			continue
		}
		module, ok := c.index[path]
		if !ok {
			module = &Module{Path: path}
			c.index[path] = module
			c.Modules = append(c.Modules, module)
		}
		module.Targets = append(module.Targets, Target{
			Label:  line,
			Name:   name,
			Kind:   kind,
			Module: path,
		})
	}
	return c
}

// Module returns the module with the given path, or nil.
func (c *Catalog) Module(path string) *Module {
	if c == nil {
		return nil
	}
	return c.index[path]
}

// TargetCount reports the total number of targets across all modules.
func (c *Catalog) TargetCount() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, m := range c.Modules {
		n += len(m.Targets)
	}
	return n
}

// ParseKinds extracts the distinct rule kinds from `bazel query --output
// label_kind` output, sorted lexically. Lines look like:
// `genrule rule //services/alerts:generate_swagger_client`.
func ParseKinds(raw string) []string {
	seen := make(map[string]struct{})
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		seen[fields[0]] = struct{}{}
	}
	kinds := make([]string, 0, len(seen))
	for kind := range seen {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}
