package condition

import "fmt"

// ErrorKind classifies an EvalError.
type ErrorKind string

const (
	UnknownCondition     ErrorKind = "unknown_condition"
	UnknownStepReference ErrorKind = "unknown_step_reference"
	InvalidExpression    ErrorKind = "invalid_expression"
	DuplicateCondition   ErrorKind = "duplicate_condition"
)

// EvalError is returned when a condition name cannot be resolved or its
// expression cannot be evaluated.
type EvalError struct {
	Kind ErrorKind
	Name string
	// Ref is the offending step name for UnknownStepReference.
	Ref string
	Err error
}

func (e *EvalError) Error() string {
	switch e.Kind {
	case UnknownCondition:
		return fmt.Sprintf("unknown condition '%s'", e.Name)
	case UnknownStepReference:
		return fmt.Sprintf("condition '%s' references unknown step '%s'", e.Name, e.Ref)
	case DuplicateCondition:
		return fmt.Sprintf("condition '%s' redefines a builtin", e.Name)
	}
	if e.Err != nil {
		return fmt.Sprintf("condition '%s': %v", e.Name, e.Err)
	}
	return fmt.Sprintf("condition '%s': %s", e.Name, e.Kind)
}

func (e *EvalError) Unwrap() error {
	return e.Err
}
