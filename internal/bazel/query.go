// Package bazel builds query command lines and parses their output. It
// never interprets build semantics; bazel itself owns those.
package bazel

import (
	"fmt"
	"strings"
)

// Binary is the build tool invoked for queries and handoffs.
const Binary = "bazel"

// KindExpr joins rule kinds into the OR-expression accepted by
// bazel's kind() query operator.
func KindExpr(kinds []string) string {
	return strings.Join(kinds, "|")
}

// QueryArgs returns the argv for listing all targets of the requested
// kinds within scope.
func QueryArgs(scope string, kinds []string) []string {
	return []string{Binary, "query", fmt.Sprintf("kind('%s', %s)", KindExpr(kinds), scope)}
}

// KindQueryArgs returns the argv for discovering every rule kind present
// in scope.
func KindQueryArgs(scope string) []string {
	return []string{Binary, "query", scope, "--output", "label_kind"}
}
