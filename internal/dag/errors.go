package dag

import (
	"fmt"
	"strings"
)

// ErrorKind classifies a GraphError.
type ErrorKind string

const (
	UnknownDependency ErrorKind = "unknown_dependency"
	UnknownStep       ErrorKind = "unknown_step"
	DuplicateStep     ErrorKind = "duplicate_step"
	EmptyName         ErrorKind = "empty_name"
	Cycle             ErrorKind = "cycle"
)

// GraphError is returned when a plan cannot be turned into an executable graph.
// It is always fatal for the run.
type GraphError struct {
	Kind ErrorKind
	// Step is the step whose definition caused the error.
	Step string
	// Ref is the unresolved name, if any.
	Ref string
	// CyclePath lists the cycle members with the first repeated at the end.
	CyclePath []string
}

func (e *GraphError) Error() string {
	switch e.Kind {
	case UnknownDependency:
		return fmt.Sprintf("step '%s' depends on unknown step '%s'", e.Step, e.Ref)
	case UnknownStep:
		if e.Step == "" {
			return fmt.Sprintf("unknown step '%s'", e.Ref)
		}
		return fmt.Sprintf("step '%s' references unknown step '%s'", e.Step, e.Ref)
	case DuplicateStep:
		return fmt.Sprintf("duplicate step name '%s'", e.Step)
	case EmptyName:
		return "step with empty name"
	case Cycle:
		return fmt.Sprintf("cycle detected involving step '%s': %s", e.Step, strings.Join(e.CyclePath, " -> "))
	}
	return fmt.Sprintf("graph error (%s) at step '%s'", e.Kind, e.Step)
}
