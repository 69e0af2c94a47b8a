package tree

import "errors"

// Sentinel errors returned by the tree core. The service layer maps these to
// transport-aware errors; the core itself stays free of HTTP concerns.
var (
	// ErrInvalidIdentifier indicates an identifier that is empty or contains
	// the path separator.
	ErrInvalidIdentifier = errors.New("tree: invalid identifier")

	// ErrMalformedPath indicates a path with empty segments or stray
	// separators.
	ErrMalformedPath = errors.New("tree: malformed path")

	// ErrHierarchyTooDeep indicates a prospective path exceeding the maximum
	// tree depth.
	ErrHierarchyTooDeep = errors.New("tree: hierarchy too deep")

	// ErrTooManyChildren indicates a folder at its direct-children limit.
	ErrTooManyChildren = errors.New("tree: too many children")

	// ErrItemNotFolder indicates an insertion under a non-container item.
	ErrItemNotFolder = errors.New("tree: parent is not a folder")

	// ErrInvalidMoveTarget indicates a move onto itself, into its own
	// subtree, or to its current parent.
	ErrInvalidMoveTarget = errors.New("tree: invalid move target")

	// ErrRedundantGrant indicates an explicit grant that inheritance already
	// matches or exceeds.
	ErrRedundantGrant = errors.New("tree: redundant grant")
)
