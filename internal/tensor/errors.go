package tensor

import "github.com/pkg/errors"

// Common errors.
var (
	// ErrShapeMismatch is returned when operand shapes are incompatible for an op.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrInvalidIndex is returned for gather/scatter indices that are out of range
	// or values that cannot be used as integer indices.
	ErrInvalidIndex = errors.New("invalid index")
)

func shapeMismatch(op string, a, b Shape) error {
	return errors.Wrapf(ErrShapeMismatch, "%s: %v vs %v", op, a, b)
}
