package registry

import "errors"

// Sentinel errors for registry misuse and load failures. Callers
// branch with errors.Is; messages carry the offending id/path via
// wrapping at the call site.
var (
	// ErrCorrupt means the backing store is unreadable or
	// schema-invalid. Fatal: no partial registry is ever returned.
	ErrCorrupt = errors.New("registry corrupt")

	// ErrNotFound means no workspace has the given id.
	ErrNotFound = errors.New("workspace not found")

	// ErrDuplicateID means another workspace already has the id.
	ErrDuplicateID = errors.New("duplicate workspace id")

	// ErrDuplicatePath means another workspace already claims the path.
	ErrDuplicatePath = errors.New("duplicate workspace path")
)
