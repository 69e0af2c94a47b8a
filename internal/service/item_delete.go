package service

import (
	"context"

	"github.com/canopyhq/canopy-api/internal/models"
	"github.com/canopyhq/canopy-api/internal/tree"
	appErrors "github.com/canopyhq/canopy-api/pkg/errors"
)

// Delete removes an item and its whole subtree, cascading to memberships and
// likes scoped under it. Memberships on ancestors are untouched. Deleting a
// missing item reports ItemNotFound, which bulk runs treat as a per-target
// outcome rather than a fatal error.
func (s *ItemService) Delete(ctx context.Context, itemID, actor string) (*models.Item, error) {
	s.logStage("delete", itemID, stageValidating, nil)
	item, err := s.getItem(ctx, itemID)
	if err != nil {
		s.logStage("delete", itemID, stageFailed, err)
		return nil, err
	}
	level, err := s.permissionOn(ctx, actor, item)
	if err != nil {
		return nil, err
	}
	if level < tree.LevelAdmin {
		s.logStage("delete", itemID, stageFailed, appErrors.ErrMemberCannotAdmin)
		return nil, appErrors.ErrMemberCannotAdmin
	}

	s.logStage("delete", itemID, stageApplying, nil)
	deleted, err := s.items.DeleteSubtree(ctx, itemID)
	if err != nil {
		s.logStage("delete", itemID, stageFailed, err)
		return nil, mapTreeErr(err)
	}

	s.logStage("delete", itemID, stageDone, nil)
	s.emitAudit(ctx, actor, models.AuditActionItemDelete, deleted, nil)
	return deleted, nil
}
