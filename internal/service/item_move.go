package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/canopyhq/canopy-api/internal/models"
	"github.com/canopyhq/canopy-api/internal/repository"
	"github.com/canopyhq/canopy-api/internal/tree"
	appErrors "github.com/canopyhq/canopy-api/pkg/errors"
)

// opStage tracks single-item mutation progress for logging.
type opStage string

const (
	stageValidating opStage = "validating"
	stagePlanning   opStage = "planning"
	stageApplying   opStage = "applying"
	stageDone       opStage = "done"
	stageFailed     opStage = "failed"
)

func (s *ItemService) logStage(op string, itemID string, stage opStage, err error) {
	fields := []zap.Field{
		zap.String("op", op),
		zap.String("item_id", itemID),
		zap.String("stage", string(stage)),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
		s.logger.Warn("item mutation failed", fields...)
		return
	}
	s.logger.Debug("item mutation", fields...)
}

// Move relocates one item (and its subtree) under a new parent, or to the
// tree root when destParentID is empty. The membership plan is computed from
// a pre-read; the repository re-locks and re-validates inside the apply
// transaction.
func (s *ItemService) Move(ctx context.Context, itemID, destParentID, actor string) (*models.Item, error) {
	s.logStage("move", itemID, stageValidating, nil)
	item, err := s.getItem(ctx, itemID)
	if err != nil {
		s.logStage("move", itemID, stageFailed, err)
		return nil, err
	}
	level, err := s.permissionOn(ctx, actor, item)
	if err != nil {
		return nil, err
	}
	if level < tree.LevelAdmin {
		s.logStage("move", itemID, stageFailed, appErrors.ErrMemberCannotAdmin)
		return nil, appErrors.ErrMemberCannotAdmin
	}

	var destPath tree.Path
	if destParentID != "" {
		dest, err := s.getItem(ctx, destParentID)
		if err != nil {
			s.logStage("move", itemID, stageFailed, err)
			return nil, err
		}
		if err := tree.CheckInsertableParent(dest.Type); err != nil {
			s.logStage("move", itemID, stageFailed, err)
			return nil, mapTreeErr(err)
		}
		destLevel, err := s.permissionOn(ctx, actor, dest)
		if err != nil {
			return nil, err
		}
		if destLevel < tree.LevelWrite {
			s.logStage("move", itemID, stageFailed, appErrors.ErrMemberCannotWrite)
			return nil, appErrors.ErrMemberCannotWrite
		}
		destPath = dest.Path
	}

	if err := tree.CheckMoveTarget(item.Path, destPath); err != nil {
		s.logStage("move", itemID, stageFailed, err)
		return nil, mapTreeErr(err)
	}

	newPath, err := destPath.Child(item.ID)
	if err != nil {
		return nil, mapTreeErr(err)
	}
	if err := tree.CheckDepth(newPath, s.limits.MaxDepth); err != nil {
		s.logStage("move", itemID, stageFailed, err)
		return nil, mapTreeErr(err)
	}

	s.logStage("move", itemID, stagePlanning, nil)
	memberships, err := s.memberships.ListForMove(ctx, item.Path, newPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load memberships for move")
	}
	plan := tree.PlanMove(item.Path, newPath, models.Grants(memberships))

	s.logStage("move", itemID, stageApplying, nil)
	err = s.items.ApplyMove(ctx, repository.ApplyMoveParams{
		ItemID:        item.ID,
		OldPath:       item.Path,
		NewPath:       newPath,
		NewParentID:   destParentID,
		MaxDepth:      s.limits.MaxDepth,
		MaxChildren:   s.limits.MaxChildren,
		Plan:          plan,
		PlanCreatedBy: actor,
	})
	if err != nil {
		if errors.Is(err, repository.ErrStaleItem) && s.metrics != nil {
			s.metrics.ObserveMoveConflict()
		}
		s.logStage("move", itemID, stageFailed, err)
		return nil, mapTreeErr(err)
	}

	item.Path = newPath
	item.SortOrder = nil
	s.logStage("move", itemID, stageDone, nil)
	s.emitAudit(ctx, actor, models.AuditActionItemMove, item, nil)
	return item, nil
}
