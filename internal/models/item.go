package models

import (
	"time"

	"github.com/canopyhq/canopy-api/internal/tree"
)

// ItemStatus tracks the publication workflow of an item.
type ItemStatus string

const (
	ItemStatusDraft     ItemStatus = "draft"
	ItemStatusPublished ItemStatus = "published"
	ItemStatusArchived  ItemStatus = "archived"
)

// Item is a node of the content tree stored in the items table. Path is the
// materialized ancestor chain (root first, own id last) and is the only
// column rewritten on move.
type Item struct {
	ID        string        `db:"id" json:"id"`
	Name      string        `db:"name" json:"name"`
	Type      tree.ItemType `db:"type" json:"type"`
	Path      tree.Path     `db:"path" json:"path"`
	Status    ItemStatus    `db:"status" json:"status"`
	IsPublic  bool          `db:"is_public" json:"is_public"`
	SortOrder *int          `db:"sort_order" json:"sort_order,omitempty"`
	CreatedBy string        `db:"created_by" json:"created_by"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}

// ParentPath returns the path of the item's parent, if any.
func (i *Item) ParentPath() (tree.Path, bool) {
	return i.Path.Parent()
}

// ItemWithAccess decorates an item with the caller's resolved permission and
// like data for read responses.
type ItemWithAccess struct {
	Item
	EffectivePermission string `json:"effective_permission"`
	LikeCount           int    `json:"like_count"`
	Liked               bool   `json:"liked"`
}

// ItemFilter constrains children/descendants listings.
type ItemFilter struct {
	Type    tree.ItemType
	Keyword string
	Limit   int
	Offset  int
}

// Membership is an explicit permission grant stored in the memberships
// table: Subject holds Level over the subtree rooted at Scope.
type Membership struct {
	ID        string    `db:"id" json:"id"`
	Subject   string    `db:"subject" json:"subject"`
	Scope     tree.Path `db:"scope" json:"scope"`
	Level     string    `db:"level" json:"level"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Grant converts the row into the tree core's representation.
func (m Membership) Grant() tree.Grant {
	return tree.Grant{Subject: m.Subject, Scope: m.Scope, Level: tree.ParseLevel(m.Level)}
}

// Grants converts membership rows for the resolver and planner.
func Grants(memberships []Membership) []tree.Grant {
	grants := make([]tree.Grant, len(memberships))
	for i, m := range memberships {
		grants[i] = m.Grant()
	}
	return grants
}

// Like is a per-subject like mark on an item.
type Like struct {
	ItemID    string    `db:"item_id" json:"item_id"`
	Subject   string    `db:"subject" json:"subject"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
