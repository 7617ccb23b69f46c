package reactive

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/exprdash/internal/ir"
)

// RuntimeError represents an error raised by the graph.
//
// Runtime errors include:
//   - Cyclic dependency: a node transitively reads itself
//   - Evaluation failure: a ComputeFunc returned an error or panicked
//   - Type mismatch: a cell write does not match the cell's declared Type
//   - Depth exceeded: nested evaluation went deeper than the graph allows
//   - Duplicate name: a cell or node name is already registered
type RuntimeError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Node names the cell or node the error is about.
	Node string

	// Path is the dependency path for cycle errors, first and last equal.
	Path []string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes runtime errors.
type ErrorCode string

const (
	// ErrCodeCyclicDependency indicates a node depends on itself.
	ErrCodeCyclicDependency ErrorCode = "CYCLIC_DEPENDENCY"

	// ErrCodeEvaluationFailed indicates a node's function failed.
	ErrCodeEvaluationFailed ErrorCode = "EVALUATION_FAILED"

	// ErrCodeTypeMismatch indicates a cell write was rejected.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"

	// ErrCodeDepthExceeded indicates nested evaluation exceeded the limit.
	ErrCodeDepthExceeded ErrorCode = "DEPTH_EXCEEDED"

	// ErrCodeDuplicateName indicates a name is already taken in the graph.
	ErrCodeDuplicateName ErrorCode = "DUPLICATE_NAME"

	// ErrCodeInvalidDefinition indicates a malformed cell or node definition.
	ErrCodeInvalidDefinition ErrorCode = "INVALID_DEFINITION"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)
	if len(e.Path) > 0 {
		fmt.Fprintf(&b, " (path=%s)", strings.Join(e.Path, " -> "))
	} else if e.Node != "" {
		fmt.Fprintf(&b, " (node=%s)", e.Node)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// hasCode walks the chain of RuntimeErrors in err looking for code.
// An evaluation error that wraps a cycle error reports both codes.
func hasCode(err error, code ErrorCode) bool {
	for err != nil {
		var re *RuntimeError
		if !errors.As(err, &re) {
			return false
		}
		if re.Code == code {
			return true
		}
		err = re.Err
	}
	return false
}

// IsCycleError returns true if err is or wraps a cyclic dependency error.
func IsCycleError(err error) bool {
	return hasCode(err, ErrCodeCyclicDependency)
}

// IsEvaluationError returns true if err is or wraps an evaluation failure.
func IsEvaluationError(err error) bool {
	return hasCode(err, ErrCodeEvaluationFailed)
}

// IsTypeError returns true if err is or wraps a rejected cell write.
func IsTypeError(err error) bool {
	return hasCode(err, ErrCodeTypeMismatch)
}

// IsDepthError returns true if err is or wraps a depth limit error.
func IsDepthError(err error) bool {
	return hasCode(err, ErrCodeDepthExceeded)
}

// CodeOf returns the code of the outermost RuntimeError in err, or "".
func CodeOf(err error) ErrorCode {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// NewCycleError creates a RuntimeError for a dependency cycle.
func NewCycleError(path []string) *RuntimeError {
	node := ""
	if len(path) > 0 {
		node = path[0]
	}
	return &RuntimeError{
		Code:    ErrCodeCyclicDependency,
		Message: "node depends on itself",
		Node:    node,
		Path:    path,
	}
}

// NewEvaluationError wraps a ComputeFunc failure.
func NewEvaluationError(node string, err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeEvaluationFailed,
		Message: "evaluation failed",
		Node:    node,
		Err:     err,
	}
}

// NewTypeError creates a RuntimeError for a rejected cell write.
func NewTypeError(cell string, typ Type, v ir.Value, err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeTypeMismatch,
		Message: fmt.Sprintf("cannot set %s cell to %s %s", typ, ir.TypeName(v), ir.Format(v)),
		Node:    cell,
		Err:     err,
	}
}

// NewDepthError creates a RuntimeError for runaway nested evaluation.
func NewDepthError(node string, depth, maxDepth int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeDepthExceeded,
		Message: fmt.Sprintf("evaluation depth %d exceeds limit %d", depth, maxDepth),
		Node:    node,
	}
}

// NewDuplicateNameError creates a RuntimeError for a name collision.
func NewDuplicateNameError(name string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeDuplicateName,
		Message: "name already registered",
		Node:    name,
	}
}

// newDefinitionError creates a RuntimeError for a malformed definition.
func newDefinitionError(name, message string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeInvalidDefinition,
		Message: message,
		Node:    name,
	}
}

// ErrUnknownName is returned when a graph lookup names no cell or node.
var ErrUnknownName = errors.New("unknown cell or node")
