package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/canopyhq/canopy-api/internal/models"
	"github.com/canopyhq/canopy-api/internal/tree"
)

// ErrStaleItem signals that the tree changed between planning and apply; the
// caller re-reads and retries or reports a conflict for the single target.
var ErrStaleItem = errors.New("item changed during planning")

const itemColumns = `id, name, type, path, status, is_public, sort_order, created_by, created_at, updated_at`

// ItemRepository persists the item tree. Structural invariants are
// re-validated inside the same transaction that mutates rows, with FOR UPDATE
// locks on the subtree root and the destination parent, so the checks hold
// under concurrent writers.
type ItemRepository struct {
	db *sqlx.DB
}

// NewItemRepository constructs the repository.
func NewItemRepository(db *sqlx.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// GetByID fetches one item.
func (r *ItemRepository) GetByID(ctx context.Context, id string) (*models.Item, error) {
	var item models.Item
	query := fmt.Sprintf(`SELECT %s FROM items WHERE id = $1`, itemColumns)
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// ListChildren returns the direct children of parentPath ordered by sibling
// rank, unranked items last.
func (r *ItemRepository) ListChildren(ctx context.Context, parentPath tree.Path, filter models.ItemFilter) ([]models.Item, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	builder.WriteString(fmt.Sprintf(`SELECT %s FROM items`, itemColumns))

	args = append(args, string(parentPath)+tree.Separator+"%")
	conditions := []string{fmt.Sprintf("path LIKE $%d", len(args))}
	args = append(args, string(parentPath)+tree.Separator+"%"+tree.Separator+"%")
	conditions = append(conditions, fmt.Sprintf("path NOT LIKE $%d", len(args)))

	conditions, args = appendItemFilters(conditions, args, filter)
	builder.WriteString(" WHERE ")
	builder.WriteString(strings.Join(conditions, " AND "))
	builder.WriteString(" ORDER BY sort_order NULLS LAST, name ASC")
	appendLimitOffset(&builder, filter)

	var items []models.Item
	if err := r.db.SelectContext(ctx, &items, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	return items, nil
}

// ListDescendants returns every item strictly inside the subtree at rootPath.
func (r *ItemRepository) ListDescendants(ctx context.Context, rootPath tree.Path, filter models.ItemFilter) ([]models.Item, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	builder.WriteString(fmt.Sprintf(`SELECT %s FROM items`, itemColumns))

	args = append(args, string(rootPath)+tree.Separator+"%")
	conditions := []string{fmt.Sprintf("path LIKE $%d", len(args))}

	conditions, args = appendItemFilters(conditions, args, filter)
	builder.WriteString(" WHERE ")
	builder.WriteString(strings.Join(conditions, " AND "))
	builder.WriteString(" ORDER BY path ASC")
	appendLimitOffset(&builder, filter)

	var items []models.Item
	if err := r.db.SelectContext(ctx, &items, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list descendants: %w", err)
	}
	return items, nil
}

func appendItemFilters(conditions []string, args []interface{}, filter models.ItemFilter) ([]string, []interface{}) {
	if filter.Type != "" {
		args = append(args, filter.Type)
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.Keyword != "" {
		args = append(args, "%"+filter.Keyword+"%")
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	return conditions, args
}

func appendLimitOffset(builder *strings.Builder, filter models.ItemFilter) {
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))
}

// ListSubtree returns the item and all of its descendants, shallowest first,
// without pagination. Used by copy and export, which need the whole subtree.
func (r *ItemRepository) ListSubtree(ctx context.Context, rootPath tree.Path) ([]models.Item, error) {
	query := fmt.Sprintf(`SELECT %s FROM items WHERE path = $1 OR path LIKE $2 ORDER BY array_length(string_to_array(path, '/'), 1) ASC, path ASC`, itemColumns)
	var items []models.Item
	err := r.db.SelectContext(ctx, &items, query,
		string(rootPath), string(rootPath)+tree.Separator+"%")
	if err != nil {
		return nil, fmt.Errorf("list subtree: %w", err)
	}
	return items, nil
}

// SiblingNames returns the names of the direct children of parentPath; an
// empty parent path lists root item names. Used for copy-name collisions.
func (r *ItemRepository) SiblingNames(ctx context.Context, parentPath tree.Path) ([]string, error) {
	var names []string
	var err error
	if parentPath == "" {
		err = r.db.SelectContext(ctx, &names, `SELECT name FROM items WHERE path NOT LIKE '%/%'`)
	} else {
		err = r.db.SelectContext(ctx, &names,
			`SELECT name FROM items WHERE path LIKE $1 AND path NOT LIKE $2`,
			string(parentPath)+tree.Separator+"%",
			string(parentPath)+tree.Separator+"%"+tree.Separator+"%",
		)
	}
	if err != nil {
		return nil, fmt.Errorf("list sibling names: %w", err)
	}
	return names, nil
}

// CountChildren counts direct children of parentPath.
func (r *ItemRepository) CountChildren(ctx context.Context, parentPath tree.Path) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM items WHERE path LIKE $1 AND path NOT LIKE $2`,
		string(parentPath)+tree.Separator+"%",
		string(parentPath)+tree.Separator+"%"+tree.Separator+"%",
	)
	if err != nil {
		return 0, fmt.Errorf("count children: %w", err)
	}
	return count, nil
}

// CreateItemParams describes a validated create. Invariants are re-checked
// inside the transaction; AdminGrant is inserted when the creator's inherited
// level at the parent is below admin.
type CreateItemParams struct {
	Item        *models.Item
	ParentID    string
	MaxDepth    int
	MaxChildren int
	AdminGrant  *models.Membership
}

// Create inserts an item, locking the parent row so the child-count and
// folder-type checks cannot race with a concurrent create or move.
func (r *ItemRepository) Create(ctx context.Context, params CreateItemParams) error {
	item := params.Item
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		if params.ParentID != "" {
			parent, err := lockItem(ctx, tx, params.ParentID)
			if err != nil {
				return err
			}
			if err := tree.CheckInsertableParent(parent.Type); err != nil {
				return err
			}
			childPath, err := parent.Path.Child(item.ID)
			if err != nil {
				return err
			}
			if childPath != item.Path {
				return ErrStaleItem
			}
			count, err := countChildrenTx(ctx, tx, parent.Path)
			if err != nil {
				return err
			}
			if err := tree.CheckChildCount(count, params.MaxChildren); err != nil {
				return err
			}
		}
		if err := tree.CheckDepth(item.Path, params.MaxDepth); err != nil {
			return err
		}

		const query = `INSERT INTO items (id, name, type, path, status, is_public, sort_order, created_by, created_at, updated_at)
	VALUES (:id, :name, :type, :path, :status, :is_public, :sort_order, :created_by, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, query, item); err != nil {
			return fmt.Errorf("create item: %w", err)
		}
		if params.AdminGrant != nil {
			if err := insertMembershipTx(ctx, tx, params.AdminGrant); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateMeta renames an item or changes its publication state.
func (r *ItemRepository) UpdateMeta(ctx context.Context, item *models.Item) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE items SET name = :name, status = :status, is_public = :is_public, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, item)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check item update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ApplyMoveParams carries a planned move. OldPath is the path the plan was
// computed against; if the row moved meanwhile the apply fails with
// ErrStaleItem.
type ApplyMoveParams struct {
	ItemID        string
	OldPath       tree.Path
	NewPath       tree.Path
	NewParentID   string
	MaxDepth      int
	MaxChildren   int
	Plan          tree.Plan
	PlanCreatedBy string
}

// ApplyMove atomically rewrites the subtree's path prefix, cascades the
// rewrite to membership scopes, and applies the planned membership delta.
// Deletes are applied before the scope rewrite because they address pre-move
// scopes.
func (r *ItemRepository) ApplyMove(ctx context.Context, params ApplyMoveParams) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		item, err := lockItem(ctx, tx, params.ItemID)
		if err != nil {
			return err
		}
		if item.Path != params.OldPath {
			return ErrStaleItem
		}

		if params.NewParentID != "" {
			parent, err := lockItem(ctx, tx, params.NewParentID)
			if err != nil {
				return err
			}
			if err := tree.CheckInsertableParent(parent.Type); err != nil {
				return err
			}
			expected, err := parent.Path.Child(params.ItemID)
			if err != nil {
				return err
			}
			if expected != params.NewPath {
				return ErrStaleItem
			}
			count, err := countChildrenTx(ctx, tx, parent.Path)
			if err != nil {
				return err
			}
			if err := tree.CheckChildCount(count, params.MaxChildren); err != nil {
				return err
			}
		}

		deepest, err := maxSubtreeDepthTx(ctx, tx, params.OldPath)
		if err != nil {
			return err
		}
		prospective := deepest - params.OldPath.Depth() + params.NewPath.Depth()
		if params.MaxDepth > 0 && prospective > params.MaxDepth {
			return tree.ErrHierarchyTooDeep
		}

		for _, g := range params.Plan.Deletes {
			if err := deleteMembershipTx(ctx, tx, g.Subject, g.Scope); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE items SET path = $1 || substr(path, $2), updated_at = NOW(), sort_order = CASE WHEN path = $3 THEN NULL ELSE sort_order END
	 WHERE path = $3 OR path LIKE $4`,
			string(params.NewPath), len(params.OldPath)+1, string(params.OldPath), string(params.OldPath)+tree.Separator+"%",
		); err != nil {
			return fmt.Errorf("rewrite item paths: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE memberships SET scope = $1 || substr(scope, $2) WHERE scope = $3 OR scope LIKE $4`,
			string(params.NewPath), len(params.OldPath)+1, string(params.OldPath), string(params.OldPath)+tree.Separator+"%",
		); err != nil {
			return fmt.Errorf("rewrite membership scopes: %w", err)
		}

		for _, g := range params.Plan.Inserts {
			m := &models.Membership{
				Subject:   g.Subject,
				Scope:     g.Scope,
				Level:     g.Level.String(),
				CreatedBy: params.PlanCreatedBy,
			}
			if err := insertMembershipTx(ctx, tx, m); err != nil {
				return err
			}
		}
		return nil
	})
}

// ApplyCopyParams inserts a pre-built duplicate subtree. Items must be
// ordered root first so the parent lock covers the whole batch.
type ApplyCopyParams struct {
	SourceID    string
	SourcePath  tree.Path
	ParentID    string
	MaxDepth    int
	MaxChildren int
	Items       []*models.Item
	Memberships []*models.Membership
}

// ApplyCopy inserts the duplicated rows under the destination parent.
func (r *ItemRepository) ApplyCopy(ctx context.Context, params ApplyCopyParams) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		source, err := lockItem(ctx, tx, params.SourceID)
		if err != nil {
			return err
		}
		if source.Path != params.SourcePath {
			return ErrStaleItem
		}
		if params.ParentID != "" {
			parent, err := lockItem(ctx, tx, params.ParentID)
			if err != nil {
				return err
			}
			if err := tree.CheckInsertableParent(parent.Type); err != nil {
				return err
			}
			count, err := countChildrenTx(ctx, tx, parent.Path)
			if err != nil {
				return err
			}
			if err := tree.CheckChildCount(count, params.MaxChildren); err != nil {
				return err
			}
		}
		for _, item := range params.Items {
			if err := tree.CheckDepth(item.Path, params.MaxDepth); err != nil {
				return err
			}
			const query = `INSERT INTO items (id, name, type, path, status, is_public, sort_order, created_by, created_at, updated_at)
	VALUES (:id, :name, :type, :path, :status, :is_public, :sort_order, :created_by, :created_at, :updated_at)`
			if _, err := tx.NamedExecContext(ctx, query, item); err != nil {
				return fmt.Errorf("copy item %s: %w", item.ID, err)
			}
		}
		for _, m := range params.Memberships {
			if err := insertMembershipTx(ctx, tx, m); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteSubtree removes the item, its descendants, and every membership and
// like scoped under it. Returns the deleted root row.
func (r *ItemRepository) DeleteSubtree(ctx context.Context, id string) (*models.Item, error) {
	var deleted *models.Item
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		item, err := lockItem(ctx, tx, id)
		if err != nil {
			return err
		}
		prefix := string(item.Path) + tree.Separator + "%"

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM likes WHERE item_id IN (SELECT id FROM items WHERE path = $1 OR path LIKE $2)`,
			string(item.Path), prefix,
		); err != nil {
			return fmt.Errorf("delete likes: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM memberships WHERE scope = $1 OR scope LIKE $2`,
			string(item.Path), prefix,
		); err != nil {
			return fmt.Errorf("delete memberships: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM items WHERE path = $1 OR path LIKE $2`,
			string(item.Path), prefix,
		); err != nil {
			return fmt.Errorf("delete items: %w", err)
		}
		deleted = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// Reorder renumbers the item's siblings and places it after the given
// sibling, or first when previousSiblingID is empty.
func (r *ItemRepository) Reorder(ctx context.Context, itemID, previousSiblingID string) (*models.Item, error) {
	var reordered *models.Item
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		item, err := lockItem(ctx, tx, itemID)
		if err != nil {
			return err
		}
		parentPath, ok := item.Path.Parent()
		if !ok {
			return tree.ErrInvalidMoveTarget
		}

		var siblings []models.Item
		query := fmt.Sprintf(`SELECT %s FROM items WHERE path LIKE $1 AND path NOT LIKE $2 ORDER BY sort_order NULLS LAST, created_at ASC FOR UPDATE`, itemColumns)
		if err := tx.SelectContext(ctx, &siblings, query,
			string(parentPath)+tree.Separator+"%",
			string(parentPath)+tree.Separator+"%"+tree.Separator+"%",
		); err != nil {
			return fmt.Errorf("list siblings: %w", err)
		}

		ordered := make([]string, 0, len(siblings))
		found := previousSiblingID == ""
		if found {
			ordered = append(ordered, item.ID)
		}
		for _, s := range siblings {
			if s.ID == item.ID {
				continue
			}
			ordered = append(ordered, s.ID)
			if s.ID == previousSiblingID {
				ordered = append(ordered, item.ID)
				found = true
			}
		}
		if !found {
			return sql.ErrNoRows
		}

		for rank, id := range ordered {
			if _, err := tx.ExecContext(ctx,
				`UPDATE items SET sort_order = $1, updated_at = NOW() WHERE id = $2`,
				rank+1, id,
			); err != nil {
				return fmt.Errorf("assign sibling rank: %w", err)
			}
			if id == item.ID {
				rank := rank + 1
				item.SortOrder = &rank
			}
		}
		reordered = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reordered, nil
}

func (r *ItemRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func lockItem(ctx context.Context, tx *sqlx.Tx, id string) (*models.Item, error) {
	var item models.Item
	query := fmt.Sprintf(`SELECT %s FROM items WHERE id = $1 FOR UPDATE`, itemColumns)
	if err := tx.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

func countChildrenTx(ctx context.Context, tx *sqlx.Tx, parentPath tree.Path) (int, error) {
	var count int
	err := tx.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM items WHERE path LIKE $1 AND path NOT LIKE $2`,
		string(parentPath)+tree.Separator+"%",
		string(parentPath)+tree.Separator+"%"+tree.Separator+"%",
	)
	if err != nil {
		return 0, fmt.Errorf("count children: %w", err)
	}
	return count, nil
}

func maxSubtreeDepthTx(ctx context.Context, tx *sqlx.Tx, rootPath tree.Path) (int, error) {
	var depth int
	err := tx.GetContext(ctx, &depth,
		`SELECT COALESCE(MAX(array_length(string_to_array(path, '/'), 1)), 0) FROM items WHERE path = $1 OR path LIKE $2`,
		string(rootPath), string(rootPath)+tree.Separator+"%",
	)
	if err != nil {
		return 0, fmt.Errorf("max subtree depth: %w", err)
	}
	return depth, nil
}

func insertMembershipTx(ctx context.Context, tx *sqlx.Tx, m *models.Membership) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO memberships (id, subject, scope, level, created_by, created_at)
	VALUES (:id, :subject, :scope, :level, :created_by, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, m); err != nil {
		return fmt.Errorf("insert membership: %w", err)
	}
	return nil
}

func deleteMembershipTx(ctx context.Context, tx *sqlx.Tx, subject string, scope tree.Path) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM memberships WHERE subject = $1 AND scope = $2`,
		subject, string(scope),
	); err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	return nil
}
