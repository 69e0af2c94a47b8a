package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/canopyhq/canopy-api/internal/dto"
	"github.com/canopyhq/canopy-api/internal/models"
	"github.com/canopyhq/canopy-api/internal/repository"
	"github.com/canopyhq/canopy-api/internal/tree"
	"github.com/canopyhq/canopy-api/pkg/config"
	appErrors "github.com/canopyhq/canopy-api/pkg/errors"
)

type itemStore interface {
	GetByID(ctx context.Context, id string) (*models.Item, error)
	ListChildren(ctx context.Context, parentPath tree.Path, filter models.ItemFilter) ([]models.Item, error)
	ListDescendants(ctx context.Context, rootPath tree.Path, filter models.ItemFilter) ([]models.Item, error)
	ListSubtree(ctx context.Context, rootPath tree.Path) ([]models.Item, error)
	SiblingNames(ctx context.Context, parentPath tree.Path) ([]string, error)
	CountChildren(ctx context.Context, parentPath tree.Path) (int, error)
	Create(ctx context.Context, params repository.CreateItemParams) error
	UpdateMeta(ctx context.Context, item *models.Item) error
	ApplyMove(ctx context.Context, params repository.ApplyMoveParams) error
	ApplyCopy(ctx context.Context, params repository.ApplyCopyParams) error
	DeleteSubtree(ctx context.Context, id string) (*models.Item, error)
	Reorder(ctx context.Context, itemID, previousSiblingID string) (*models.Item, error)
}

type membershipStore interface {
	ListCovering(ctx context.Context, subject string, path tree.Path) ([]models.Membership, error)
	ListForMove(ctx context.Context, before, after tree.Path) ([]models.Membership, error)
	ListForItem(ctx context.Context, path tree.Path) ([]models.Membership, error)
	ListBySubjectUnderScope(ctx context.Context, subject string, scope tree.Path) ([]models.Membership, error)
	Delete(ctx context.Context, subject string, scope tree.Path) error
	ApplyPlan(ctx context.Context, plan tree.Plan, createdBy string) error
}

type likeStore interface {
	Like(ctx context.Context, itemID, subject string) error
	Unlike(ctx context.Context, itemID, subject string) error
	Count(ctx context.Context, itemID string) (int, error)
	Liked(ctx context.Context, itemID, subject string) (bool, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
	ListByResourceID(ctx context.Context, resourceID string, limit int) ([]models.AuditLog, error)
}

// ItemService implements the item tree operations: create, read, reorder,
// move, copy, delete, likes, and the publication workflow. Structural and
// permission validation happens here; the repository re-checks structural
// invariants inside its transactions.
type ItemService struct {
	items       itemStore
	memberships membershipStore
	likes       likeStore
	audit       auditLogger
	limits      config.TreeConfig
	logger      *zap.Logger
	metrics     *MetricsService
}

// SetMetrics attaches an optional metrics collector.
func (s *ItemService) SetMetrics(m *MetricsService) {
	s.metrics = m
}

// NewItemService constructs the service.
func NewItemService(items itemStore, memberships membershipStore, likes likeStore, audit auditLogger, limits config.TreeConfig, logger *zap.Logger) *ItemService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ItemService{
		items:       items,
		memberships: memberships,
		likes:       likes,
		audit:       audit,
		limits:      limits,
		logger:      logger,
	}
}

// permissionOn resolves the subject's effective level on the item, applying
// the public read override and logging minimality inconsistencies.
func (s *ItemService) permissionOn(ctx context.Context, subject string, item *models.Item) (tree.Level, error) {
	memberships, err := s.memberships.ListCovering(ctx, subject, item.Path)
	if err != nil {
		return tree.LevelNone, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve permissions")
	}
	res := tree.Effective(subject, item.Path, models.Grants(memberships))
	if res.Inconsistent {
		s.logger.Warn("data consistency: equally specific memberships found",
			zap.String("subject", subject),
			zap.String("path", string(item.Path)),
		)
	}
	level := res.Level
	if level < tree.LevelRead && item.IsPublic {
		level = tree.LevelRead
	}
	return level, nil
}

func (s *ItemService) getItem(ctx context.Context, id string) (*models.Item, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrItemNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load item")
	}
	return item, nil
}

// mapTreeErr converts core and repository sentinels into typed API errors.
func mapTreeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, tree.ErrHierarchyTooDeep):
		return appErrors.ErrHierarchyTooDeep
	case errors.Is(err, tree.ErrTooManyChildren):
		return appErrors.ErrTooManyChildren
	case errors.Is(err, tree.ErrItemNotFolder):
		return appErrors.ErrItemNotFolder
	case errors.Is(err, tree.ErrInvalidMoveTarget):
		return appErrors.ErrInvalidMoveTarget
	case errors.Is(err, tree.ErrRedundantGrant):
		return appErrors.ErrRedundantGrant
	case errors.Is(err, tree.ErrInvalidIdentifier), errors.Is(err, tree.ErrMalformedPath):
		return appErrors.Clone(appErrors.ErrValidation, "malformed item path")
	case errors.Is(err, repository.ErrStaleItem):
		return appErrors.Clone(appErrors.ErrConflict, "item changed concurrently, retry the operation")
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.ErrItemNotFound
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "item operation failed")
	}
}

// Create inserts a new item and grants the creator explicit admin unless
// inheritance at the parent already provides it.
func (s *ItemService) Create(ctx context.Context, req dto.CreateItemRequest, actor string) (*models.Item, error) {
	item := &models.Item{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Type:      tree.ItemType(req.Type),
		Status:    models.ItemStatusDraft,
		IsPublic:  req.IsPublic,
		CreatedBy: actor,
	}

	inherited := tree.LevelNone
	if req.ParentID != "" {
		parent, err := s.getItem(ctx, req.ParentID)
		if err != nil {
			return nil, err
		}
		if err := tree.CheckInsertableParent(parent.Type); err != nil {
			return nil, mapTreeErr(err)
		}
		level, err := s.permissionOn(ctx, actor, parent)
		if err != nil {
			return nil, err
		}
		if level < tree.LevelWrite {
			return nil, appErrors.ErrMemberCannotWrite
		}
		inherited = level

		path, err := parent.Path.Child(item.ID)
		if err != nil {
			return nil, mapTreeErr(err)
		}
		item.Path = path

		count, err := s.items.CountChildren(ctx, parent.Path)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count children")
		}
		if err := tree.CheckChildCount(count, s.limits.MaxChildren); err != nil {
			return nil, mapTreeErr(err)
		}
	} else {
		item.Path = tree.Path(item.ID)
	}
	if err := tree.CheckDepth(item.Path, s.limits.MaxDepth); err != nil {
		return nil, mapTreeErr(err)
	}

	params := repository.CreateItemParams{
		Item:        item,
		ParentID:    req.ParentID,
		MaxDepth:    s.limits.MaxDepth,
		MaxChildren: s.limits.MaxChildren,
	}
	if inherited < tree.LevelAdmin {
		params.AdminGrant = &models.Membership{
			Subject:   actor,
			Scope:     item.Path,
			Level:     tree.LevelAdmin.String(),
			CreatedBy: actor,
		}
	}
	if err := s.items.Create(ctx, params); err != nil {
		return nil, mapTreeErr(err)
	}

	if req.PreviousSiblingID != "" {
		if _, err := s.items.Reorder(ctx, item.ID, req.PreviousSiblingID); err != nil {
			s.logger.Warn("failed to anchor new item", zap.String("item_id", item.ID), zap.Error(err))
		}
	}

	s.emitAudit(ctx, actor, models.AuditActionItemCreate, item, nil)
	return item, nil
}

// Get returns the item decorated with the caller's effective permission.
func (s *ItemService) Get(ctx context.Context, id, actor string) (*models.ItemWithAccess, error) {
	item, err := s.getItem(ctx, id)
	if err != nil {
		return nil, err
	}
	level, err := s.permissionOn(ctx, actor, item)
	if err != nil {
		return nil, err
	}
	if level < tree.LevelRead {
		return nil, appErrors.ErrMemberCannotAccess
	}
	return s.decorate(ctx, item, actor, level)
}

func (s *ItemService) decorate(ctx context.Context, item *models.Item, actor string, level tree.Level) (*models.ItemWithAccess, error) {
	out := &models.ItemWithAccess{Item: *item, EffectivePermission: level.String()}
	count, err := s.likes.Count(ctx, item.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count likes")
	}
	out.LikeCount = count
	liked, err := s.likes.Liked(ctx, item.ID, actor)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check like")
	}
	out.Liked = liked
	return out, nil
}

// ListChildren returns the readable direct children of a folder.
func (s *ItemService) ListChildren(ctx context.Context, parentID, actor string, query dto.ListItemsQuery) ([]models.ItemWithAccess, error) {
	return s.list(ctx, parentID, actor, query, false)
}

// ListDescendants returns the readable items inside a subtree.
func (s *ItemService) ListDescendants(ctx context.Context, rootID, actor string, query dto.ListItemsQuery) ([]models.ItemWithAccess, error) {
	return s.list(ctx, rootID, actor, query, true)
}

func (s *ItemService) list(ctx context.Context, id, actor string, query dto.ListItemsQuery, deep bool) ([]models.ItemWithAccess, error) {
	item, err := s.getItem(ctx, id)
	if err != nil {
		return nil, err
	}
	level, err := s.permissionOn(ctx, actor, item)
	if err != nil {
		return nil, err
	}
	if level < tree.LevelRead {
		return nil, appErrors.ErrMemberCannotAccess
	}

	filter := models.ItemFilter{
		Type:    tree.ItemType(query.Type),
		Keyword: query.Keyword,
		Limit:   query.Limit,
		Offset:  query.Offset,
	}
	var items []models.Item
	if deep {
		items, err = s.items.ListDescendants(ctx, item.Path, filter)
	} else {
		items, err = s.items.ListChildren(ctx, item.Path, filter)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list items")
	}

	out := make([]models.ItemWithAccess, 0, len(items))
	for i := range items {
		child := items[i]
		childLevel, err := s.permissionOn(ctx, actor, &child)
		if err != nil {
			return nil, err
		}
		if childLevel < tree.LevelRead {
			continue
		}
		decorated, err := s.decorate(ctx, &child, actor, childLevel)
		if err != nil {
			return nil, err
		}
		out = append(out, *decorated)
	}
	return out, nil
}

// Update renames an item or moves it through the publication workflow.
// Publishing needs write; archiving needs admin.
func (s *ItemService) Update(ctx context.Context, id string, req dto.UpdateItemRequest, actor string) (*models.Item, error) {
	item, err := s.getItem(ctx, id)
	if err != nil {
		return nil, err
	}
	level, err := s.permissionOn(ctx, actor, item)
	if err != nil {
		return nil, err
	}
	if level < tree.LevelWrite {
		return nil, appErrors.ErrMemberCannotWrite
	}

	action := models.AuditActionItemUpdate
	if req.Status != nil {
		status := models.ItemStatus(*req.Status)
		switch status {
		case models.ItemStatusPublished:
			action = models.AuditActionItemPublish
		case models.ItemStatusArchived:
			if level < tree.LevelAdmin {
				return nil, appErrors.ErrMemberCannotAdmin
			}
		case models.ItemStatusDraft:
			if item.Status != models.ItemStatusDraft {
				action = models.AuditActionItemUnpublish
			}
		}
		item.Status = status
	}
	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.IsPublic != nil {
		item.IsPublic = *req.IsPublic
	}

	if err := s.items.UpdateMeta(ctx, item); err != nil {
		return nil, mapTreeErr(err)
	}
	s.emitAudit(ctx, actor, action, item, nil)
	return item, nil
}

// Reorder places the item after the given sibling. Root items are unordered.
func (s *ItemService) Reorder(ctx context.Context, id string, req dto.ReorderItemRequest, actor string) (*models.Item, error) {
	item, err := s.getItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, ok := item.ParentPath(); !ok {
		return nil, appErrors.ErrCannotReorderRoot
	}
	level, err := s.permissionOn(ctx, actor, item)
	if err != nil {
		return nil, err
	}
	if level < tree.LevelWrite {
		return nil, appErrors.ErrMemberCannotWrite
	}

	updated, err := s.items.Reorder(ctx, id, req.PreviousSiblingID)
	if err != nil {
		if errors.Is(err, tree.ErrInvalidMoveTarget) {
			return nil, appErrors.ErrCannotReorderRoot
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "previous sibling is not a sibling of the item")
		}
		return nil, mapTreeErr(err)
	}
	s.emitAudit(ctx, actor, models.AuditActionItemReorder, updated, nil)
	return updated, nil
}

// LikeItem records the actor's like. Requires read access.
func (s *ItemService) LikeItem(ctx context.Context, id, actor string) error {
	item, err := s.getItem(ctx, id)
	if err != nil {
		return err
	}
	level, err := s.permissionOn(ctx, actor, item)
	if err != nil {
		return err
	}
	if level < tree.LevelRead {
		return appErrors.ErrMemberCannotAccess
	}
	if err := s.likes.Like(ctx, id, actor); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to like item")
	}
	s.emitAudit(ctx, actor, models.AuditActionItemLike, item, nil)
	return nil
}

// UnlikeItem removes the actor's like. Requires read access.
func (s *ItemService) UnlikeItem(ctx context.Context, id, actor string) error {
	item, err := s.getItem(ctx, id)
	if err != nil {
		return err
	}
	level, err := s.permissionOn(ctx, actor, item)
	if err != nil {
		return err
	}
	if level < tree.LevelRead {
		return appErrors.ErrMemberCannotAccess
	}
	if err := s.likes.Unlike(ctx, id, actor); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unlike item")
	}
	s.emitAudit(ctx, actor, models.AuditActionItemUnlike, item, nil)
	return nil
}

// History returns the item's audit trail, latest first. Requires admin.
func (s *ItemService) History(ctx context.Context, id, actor string, limit int) ([]models.AuditLog, error) {
	item, err := s.getItem(ctx, id)
	if err != nil {
		return nil, err
	}
	level, err := s.permissionOn(ctx, actor, item)
	if err != nil {
		return nil, err
	}
	if level < tree.LevelAdmin {
		return nil, appErrors.ErrMemberCannotAdmin
	}
	logs, err := s.audit.ListByResourceID(ctx, id, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit trail")
	}
	return logs, nil
}

func (s *ItemService) emitAudit(ctx context.Context, actor, action string, item *models.Item, old []byte) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(map[string]interface{}{
		"name": item.Name,
		"path": item.Path,
		"type": item.Type,
	})
	entry := &models.AuditLog{
		UserID:     &actor,
		Action:     action,
		Resource:   "item",
		ResourceID: &item.ID,
		OldValues:  old,
		NewValues:  payload,
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
	}
}
