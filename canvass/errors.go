package canvass

import "errors"

var (
	// ErrDuplicateKey is returned when a store key is already taken and the
	// requested policy does not allow replacing it.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrSourceNotFound is returned when duplicating from a missing key.
	ErrSourceNotFound = errors.New("source not found")
	// ErrIndexOutOfRange is returned for positional access outside a list
	// or a schema's field table.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrTypeMismatch is returned when composing a field from model props
	// of differing value types, or when an argument has the wrong type.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrMissingArgument is returned when a required argument is absent.
	ErrMissingArgument = errors.New("missing argument")
)
