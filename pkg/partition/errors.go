package partition

import "errors"

var (
	// ErrInvalidArgument indicates a malformed input, such as a membership
	// vector whose length differs from the vertex count or a resolution
	// parameter outside a variant's valid range.
	ErrInvalidArgument = errors.New("partition: invalid argument")
	// ErrInvalidState indicates an inconsistent partition state, such as a
	// membership index outside the community range.
	ErrInvalidState = errors.New("partition: invalid state")
	// ErrNumeric indicates a quality computation produced a non-finite
	// value. It is reported, not recovered; callers should fix the inputs.
	ErrNumeric = errors.New("partition: non-finite quality")
)
