package profile

import "errors"

var (
	// ErrNotFound indicates the requested profile exists in no scope.
	ErrNotFound = errors.New("profile not found")

	// ErrCyclicInheritance indicates an extends chain that revisits a
	// profile already being resolved.
	ErrCyclicInheritance = errors.New("cyclic profile inheritance")

	// ErrBuiltinReadOnly indicates an attempt to modify the built-in scope.
	ErrBuiltinReadOnly = errors.New("built-in profiles are read-only")

	// ErrExists indicates a create or clone target name is already taken.
	ErrExists = errors.New("profile already exists")

	// ErrInvalidProfile indicates a structurally invalid profile record.
	ErrInvalidProfile = errors.New("invalid profile")
)
