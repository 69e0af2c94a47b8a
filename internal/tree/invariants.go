package tree

// ItemType classifies tree nodes. Only folders accept children.
type ItemType string

const (
	TypeFolder   ItemType = "folder"
	TypeDocument ItemType = "document"
	TypeLink     ItemType = "link"
)

// IsContainer reports whether the type may hold children.
func (t ItemType) IsContainer() bool {
	return t == TypeFolder
}

// CheckDepth rejects a prospective path deeper than maxDepth.
func CheckDepth(prospective Path, maxDepth int) error {
	if maxDepth > 0 && prospective.Depth() > maxDepth {
		return ErrHierarchyTooDeep
	}
	return nil
}

// CheckChildCount rejects an insertion into a folder already at its
// direct-children limit. The caller must count children inside the same
// transaction that performs the insert, otherwise the check races.
func CheckChildCount(currentChildren, maxChildren int) error {
	if maxChildren > 0 && currentChildren >= maxChildren {
		return ErrTooManyChildren
	}
	return nil
}

// CheckInsertableParent rejects insertion under a non-container item. An
// empty type denotes root insertion, which is always allowed.
func CheckInsertableParent(parentType ItemType) error {
	if parentType == "" || parentType.IsContainer() {
		return nil
	}
	return ErrItemNotFolder
}

// CheckMoveTarget rejects moves that would create a cycle or change nothing:
// the destination parent may not be the source itself, a descendant of the
// source, or the source's current parent.
func CheckMoveTarget(source, destParent Path) error {
	if IsDescendantOrSelf(destParent, source) {
		return ErrInvalidMoveTarget
	}
	current, hasParent := source.Parent()
	if hasParent && destParent == current {
		return ErrInvalidMoveTarget
	}
	if !hasParent && destParent == "" {
		return ErrInvalidMoveTarget
	}
	return nil
}
