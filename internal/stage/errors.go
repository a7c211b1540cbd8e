package stage

import "errors"

var (
	// ErrMissingEntryPoint is returned when a program lacks the vertex or
	// fragment entry point a stage expects.
	ErrMissingEntryPoint = errors.New("stage: program is missing an entry point")

	// ErrNotBuilt is returned when a stage is drawn before Build succeeded.
	ErrNotBuilt = errors.New("stage: pipeline not built")
)
