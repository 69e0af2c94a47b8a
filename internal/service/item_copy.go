package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/canopyhq/canopy-api/internal/models"
	"github.com/canopyhq/canopy-api/internal/repository"
	"github.com/canopyhq/canopy-api/internal/tree"
	appErrors "github.com/canopyhq/canopy-api/pkg/errors"
)

// Copy duplicates an item subtree under a new parent with fresh identifiers
// and recomputed paths. The source is never mutated. The actor receives an
// explicit admin grant at the new root unless inheritance at the destination
// already provides admin.
func (s *ItemService) Copy(ctx context.Context, itemID, destParentID, actor string) (*models.Item, error) {
	s.logStage("copy", itemID, stageValidating, nil)
	source, err := s.getItem(ctx, itemID)
	if err != nil {
		s.logStage("copy", itemID, stageFailed, err)
		return nil, err
	}
	level, err := s.permissionOn(ctx, actor, source)
	if err != nil {
		return nil, err
	}
	if level < tree.LevelRead {
		s.logStage("copy", itemID, stageFailed, appErrors.ErrMemberCannotAccess)
		return nil, appErrors.ErrMemberCannotAccess
	}

	var destPath tree.Path
	destAdmin := false
	if destParentID != "" {
		dest, err := s.getItem(ctx, destParentID)
		if err != nil {
			s.logStage("copy", itemID, stageFailed, err)
			return nil, err
		}
		if err := tree.CheckInsertableParent(dest.Type); err != nil {
			s.logStage("copy", itemID, stageFailed, err)
			return nil, mapTreeErr(err)
		}
		destLevel, err := s.permissionOn(ctx, actor, dest)
		if err != nil {
			return nil, err
		}
		if destLevel < tree.LevelWrite {
			s.logStage("copy", itemID, stageFailed, appErrors.ErrMemberCannotWrite)
			return nil, appErrors.ErrMemberCannotWrite
		}
		destPath = dest.Path
		destAdmin = destLevel >= tree.LevelAdmin

		count, err := s.items.CountChildren(ctx, destPath)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count children")
		}
		if err := tree.CheckChildCount(count, s.limits.MaxChildren); err != nil {
			s.logStage("copy", itemID, stageFailed, err)
			return nil, mapTreeErr(err)
		}
	}

	s.logStage("copy", itemID, stagePlanning, nil)
	subtree, err := s.items.ListSubtree(ctx, source.Path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subtree")
	}

	siblingNames, err := s.items.SiblingNames(ctx, destPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list destination names")
	}
	rootName := dedupeName(source.Name, siblingNames)

	// Fresh ids, rebased paths; shallowest-first order from ListSubtree keeps
	// parents ahead of children for the insert batch.
	newIDs := make(map[string]string, len(subtree))
	for _, it := range subtree {
		newIDs[it.ID] = uuid.NewString()
	}
	newRootPath, err := destPath.Child(newIDs[source.ID])
	if err != nil {
		return nil, mapTreeErr(err)
	}
	if err := tree.CheckDepth(newRootPath, s.limits.MaxDepth); err != nil {
		s.logStage("copy", itemID, stageFailed, err)
		return nil, mapTreeErr(err)
	}

	copies := make([]*models.Item, 0, len(subtree))
	var newRoot *models.Item
	for i := range subtree {
		src := subtree[i]
		ids, err := tree.Decode(src.Path)
		if err != nil {
			return nil, mapTreeErr(err)
		}
		rebased := make([]string, 0, len(ids))
		rooted := false
		for _, id := range ids {
			if id == source.ID {
				rooted = true
			}
			if rooted {
				rebased = append(rebased, newIDs[id])
			}
		}
		inner, err := tree.Encode(rebased)
		if err != nil {
			return nil, mapTreeErr(err)
		}
		newPath := inner
		if destPath != "" {
			newPath = destPath + tree.Separator + inner
		}

		dup := &models.Item{
			ID:        newIDs[src.ID],
			Name:      src.Name,
			Type:      src.Type,
			Path:      newPath,
			Status:    src.Status,
			IsPublic:  src.IsPublic,
			SortOrder: src.SortOrder,
			CreatedBy: actor,
		}
		if src.ID == source.ID {
			dup.Name = rootName
			dup.SortOrder = nil
			newRoot = dup
		}
		copies = append(copies, dup)
	}

	var grants []*models.Membership
	if !destAdmin {
		grants = append(grants, &models.Membership{
			Subject:   actor,
			Scope:     newRootPath,
			Level:     tree.LevelAdmin.String(),
			CreatedBy: actor,
		})
	}

	s.logStage("copy", itemID, stageApplying, nil)
	err = s.items.ApplyCopy(ctx, repository.ApplyCopyParams{
		SourceID:    source.ID,
		SourcePath:  source.Path,
		ParentID:    destParentID,
		MaxDepth:    s.limits.MaxDepth,
		MaxChildren: s.limits.MaxChildren,
		Items:       copies,
		Memberships: grants,
	})
	if err != nil {
		s.logStage("copy", itemID, stageFailed, err)
		return nil, mapTreeErr(err)
	}

	s.logStage("copy", itemID, stageDone, nil)
	s.emitAudit(ctx, actor, models.AuditActionItemCopy, newRoot, nil)
	return newRoot, nil
}

// dedupeName appends an incrementing " (n)" suffix until the name is unique
// among the destination's children.
func dedupeName(name string, siblings []string) string {
	taken := make(map[string]struct{}, len(siblings))
	for _, s := range siblings {
		taken[s] = struct{}{}
	}
	if _, ok := taken[name]; !ok {
		return name
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", name, n)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}
