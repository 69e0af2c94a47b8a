package dto

// CreateItemRequest creates a new item under an optional parent folder.
// PreviousSiblingID anchors the insertion point among siblings.
type CreateItemRequest struct {
	Name              string `json:"name" binding:"required,min=1,max=255"`
	Type              string `json:"type" binding:"required,oneof=folder document link"`
	ParentID          string `json:"parent_id"`
	PreviousSiblingID string `json:"previous_sibling_id"`
	IsPublic          bool   `json:"is_public"`
}

// UpdateItemRequest renames an item or changes its publication state.
type UpdateItemRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=255"`
	Status   *string `json:"status" binding:"omitempty,oneof=draft published archived"`
	IsPublic *bool   `json:"is_public"`
}

// ReorderItemRequest places the item after the given sibling; an empty
// sibling id places it first.
type ReorderItemRequest struct {
	PreviousSiblingID string `json:"previous_sibling_id"`
}

// BulkItemRequest targets a set of items with one action. DestinationID is
// required for move and copy; empty means the tree root for move.
type BulkItemRequest struct {
	ItemIDs       []string `json:"item_ids" binding:"required,min=1"`
	DestinationID string   `json:"destination_id"`
}

// ShareItemRequest grants a subject a permission level over an item subtree.
type ShareItemRequest struct {
	Subject string `json:"subject" binding:"required"`
	Level   string `json:"level" binding:"required,oneof=read write admin"`
}

// ListItemsQuery filters children/descendants listings.
type ListItemsQuery struct {
	Type    string `form:"type" binding:"omitempty,oneof=folder document link"`
	Keyword string `form:"keyword"`
	Limit   int    `form:"limit"`
	Offset  int    `form:"offset"`
}

// BulkAccepted acknowledges an asynchronous bulk run.
type BulkAccepted struct {
	OperationID string `json:"operation_id"`
	State       string `json:"state"`
}
