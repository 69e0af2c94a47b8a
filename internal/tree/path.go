package tree

import "strings"

// Separator joins item identifiers into a materialized path. Identifiers are
// UUIDs in practice and can never contain it.
const Separator = "/"

// Path is the materialized ancestor chain of an item, root first, own
// identifier last. It doubles as a relational descendant-of filter: every
// descendant path starts with the ancestor path followed by the separator.
type Path string

// Encode joins an ordered identifier sequence into a Path.
func Encode(ids []string) (Path, error) {
	if len(ids) == 0 {
		return "", ErrMalformedPath
	}
	for _, id := range ids {
		if id == "" || strings.Contains(id, Separator) {
			return "", ErrInvalidIdentifier
		}
	}
	return Path(strings.Join(ids, Separator)), nil
}

// Decode splits a Path back into its identifier sequence.
func Decode(p Path) ([]string, error) {
	if p == "" {
		return nil, ErrMalformedPath
	}
	ids := strings.Split(string(p), Separator)
	for _, id := range ids {
		if id == "" {
			return nil, ErrMalformedPath
		}
	}
	return ids, nil
}

// IsDescendantOrSelf reports whether candidate equals ancestor or lies inside
// its subtree.
func IsDescendantOrSelf(candidate, ancestor Path) bool {
	if candidate == ancestor {
		return true
	}
	return strings.HasPrefix(string(candidate), string(ancestor)+Separator)
}

// Depth returns the number of identifiers in the path. The empty path has
// depth zero.
func (p Path) Depth() int {
	if p == "" {
		return 0
	}
	return strings.Count(string(p), Separator) + 1
}

// Parent returns the path with the last identifier removed. The second return
// is false for root items, which have no parent.
func (p Path) Parent() (Path, bool) {
	idx := strings.LastIndex(string(p), Separator)
	if idx < 0 {
		return "", false
	}
	return p[:idx], true
}

// Leaf returns the last identifier of the path, i.e. the item's own id.
func (p Path) Leaf() string {
	idx := strings.LastIndex(string(p), Separator)
	if idx < 0 {
		return string(p)
	}
	return string(p[idx+1:])
}

// Child returns the path extended by one identifier.
func (p Path) Child(id string) (Path, error) {
	if id == "" || strings.Contains(id, Separator) {
		return "", ErrInvalidIdentifier
	}
	if p == "" {
		return Path(id), nil
	}
	return p + Separator + Path(id), nil
}

// Rebase replaces the old subtree-root prefix with the new one. It assumes p
// is a descendant-or-self of oldRoot.
func (p Path) Rebase(oldRoot, newRoot Path) Path {
	if p == oldRoot {
		return newRoot
	}
	return newRoot + p[len(oldRoot):]
}
