package nn

import "github.com/pkg/errors"

// Common errors.
var (
	// ErrUnsupportedOperation is returned by graph-only layers when a
	// direct tensor-level entry point is called.
	ErrUnsupportedOperation = errors.New("unsupported operation")
	// ErrArity is returned when a layer receives a number of inputs it cannot handle.
	ErrArity = errors.New("wrong number of inputs")
)
