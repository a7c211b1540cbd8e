package shader

import "errors"

var (
	// ErrUnknownStage is returned for a stage name with no source.
	ErrUnknownStage = errors.New("shader: unknown stage")

	// ErrUnsupportedBinding is returned by Reflect for resource types that
	// have no bind group layout mapping.
	ErrUnsupportedBinding = errors.New("shader: unsupported resource binding")

	// ErrInvalid is returned by Validate when naga rejects a program.
	ErrInvalid = errors.New("shader: invalid program")
)
