package guard

import "errors"

var (
	ErrConflictingFlags = errors.New("guard.conflicting_flags")
	ErrInvalidPattern   = errors.New("guard.invalid_pattern")
	ErrDuplicateRoute   = errors.New("guard.duplicate_route")
	ErrParseRoutes      = errors.New("guard.parse_routes")
)
