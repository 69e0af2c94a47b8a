package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canopyhq/canopy-api/internal/dto"
	"github.com/canopyhq/canopy-api/internal/models"
	"github.com/canopyhq/canopy-api/internal/repository"
	"github.com/canopyhq/canopy-api/internal/tree"
	"github.com/canopyhq/canopy-api/pkg/config"
	appErrors "github.com/canopyhq/canopy-api/pkg/errors"
)

type itemStoreStub struct {
	items        map[string]*models.Item
	childCount   map[tree.Path]int
	subtree      []models.Item
	siblingNames []string

	createParams []repository.CreateItemParams
	moveParams   []repository.ApplyMoveParams
	copyParams   []repository.ApplyCopyParams
	updated      []*models.Item
	deletedIDs   []string
	reorders     [][2]string

	createErr  error
	moveErr    error
	copyErr    error
	deleteErr  error
	reorderErr error
}

func (s *itemStoreStub) GetByID(ctx context.Context, id string) (*models.Item, error) {
	if item, ok := s.items[id]; ok {
		copied := *item
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *itemStoreStub) ListChildren(ctx context.Context, parentPath tree.Path, filter models.ItemFilter) ([]models.Item, error) {
	var out []models.Item
	for _, item := range s.items {
		if parent, ok := item.ParentPath(); ok && parent == parentPath {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *itemStoreStub) ListDescendants(ctx context.Context, rootPath tree.Path, filter models.ItemFilter) ([]models.Item, error) {
	var out []models.Item
	for _, item := range s.items {
		if item.Path != rootPath && tree.IsDescendantOrSelf(item.Path, rootPath) {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *itemStoreStub) ListSubtree(ctx context.Context, rootPath tree.Path) ([]models.Item, error) {
	return s.subtree, nil
}

func (s *itemStoreStub) SiblingNames(ctx context.Context, parentPath tree.Path) ([]string, error) {
	return s.siblingNames, nil
}

func (s *itemStoreStub) CountChildren(ctx context.Context, parentPath tree.Path) (int, error) {
	return s.childCount[parentPath], nil
}

func (s *itemStoreStub) Create(ctx context.Context, params repository.CreateItemParams) error {
	s.createParams = append(s.createParams, params)
	if s.createErr != nil {
		return s.createErr
	}
	if s.items == nil {
		s.items = map[string]*models.Item{}
	}
	s.items[params.Item.ID] = params.Item
	return nil
}

func (s *itemStoreStub) UpdateMeta(ctx context.Context, item *models.Item) error {
	s.updated = append(s.updated, item)
	return nil
}

func (s *itemStoreStub) ApplyMove(ctx context.Context, params repository.ApplyMoveParams) error {
	s.moveParams = append(s.moveParams, params)
	return s.moveErr
}

func (s *itemStoreStub) ApplyCopy(ctx context.Context, params repository.ApplyCopyParams) error {
	s.copyParams = append(s.copyParams, params)
	return s.copyErr
}

func (s *itemStoreStub) DeleteSubtree(ctx context.Context, id string) (*models.Item, error) {
	if s.deleteErr != nil {
		return nil, s.deleteErr
	}
	s.deletedIDs = append(s.deletedIDs, id)
	if item, ok := s.items[id]; ok {
		return item, nil
	}
	return nil, sql.ErrNoRows
}

func (s *itemStoreStub) Reorder(ctx context.Context, itemID, previousSiblingID string) (*models.Item, error) {
	if s.reorderErr != nil {
		return nil, s.reorderErr
	}
	s.reorders = append(s.reorders, [2]string{itemID, previousSiblingID})
	if item, ok := s.items[itemID]; ok {
		return item, nil
	}
	return nil, sql.ErrNoRows
}

type membershipStoreStub struct {
	memberships []models.Membership

	appliedPlans []tree.Plan
	deleted      [][2]string

	applyErr  error
	deleteErr error
}

func (s *membershipStoreStub) ListCovering(ctx context.Context, subject string, path tree.Path) ([]models.Membership, error) {
	var out []models.Membership
	for _, m := range s.memberships {
		if m.Subject == subject && tree.IsDescendantOrSelf(path, m.Scope) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *membershipStoreStub) ListForMove(ctx context.Context, before, after tree.Path) ([]models.Membership, error) {
	seen := map[string]struct{}{}
	var out []models.Membership
	for _, m := range s.memberships {
		relevant := tree.IsDescendantOrSelf(before, m.Scope) ||
			tree.IsDescendantOrSelf(m.Scope, before) ||
			tree.IsDescendantOrSelf(after, m.Scope)
		if !relevant {
			continue
		}
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out, nil
}

func (s *membershipStoreStub) ListForItem(ctx context.Context, path tree.Path) ([]models.Membership, error) {
	var out []models.Membership
	for _, m := range s.memberships {
		if tree.IsDescendantOrSelf(path, m.Scope) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *membershipStoreStub) ListBySubjectUnderScope(ctx context.Context, subject string, scope tree.Path) ([]models.Membership, error) {
	var out []models.Membership
	for _, m := range s.memberships {
		if m.Subject == subject && tree.IsDescendantOrSelf(m.Scope, scope) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *membershipStoreStub) Delete(ctx context.Context, subject string, scope tree.Path) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	for i, m := range s.memberships {
		if m.Subject == subject && m.Scope == scope {
			s.memberships = append(s.memberships[:i], s.memberships[i+1:]...)
			s.deleted = append(s.deleted, [2]string{subject, string(scope)})
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *membershipStoreStub) ApplyPlan(ctx context.Context, plan tree.Plan, createdBy string) error {
	if s.applyErr != nil {
		return s.applyErr
	}
	s.appliedPlans = append(s.appliedPlans, plan)
	return nil
}

type likeStoreStub struct {
	counts  map[string]int
	liked   map[string]bool
	likes   []string
	unlikes []string
}

func (s *likeStoreStub) Like(ctx context.Context, itemID, subject string) error {
	s.likes = append(s.likes, itemID)
	return nil
}

func (s *likeStoreStub) Unlike(ctx context.Context, itemID, subject string) error {
	s.unlikes = append(s.unlikes, itemID)
	return nil
}

func (s *likeStoreStub) Count(ctx context.Context, itemID string) (int, error) {
	return s.counts[itemID], nil
}

func (s *likeStoreStub) Liked(ctx context.Context, itemID, subject string) (bool, error) {
	return s.liked[itemID], nil
}

type auditStub struct {
	actions []string
}

func (s *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.actions = append(s.actions, log.Action)
	return nil
}

func (s *auditStub) ListByResourceID(ctx context.Context, resourceID string, limit int) ([]models.AuditLog, error) {
	logs := make([]models.AuditLog, len(s.actions))
	for i, action := range s.actions {
		logs[i] = models.AuditLog{Action: action, ResourceID: &resourceID}
	}
	return logs, nil
}

func testLimits() config.TreeConfig {
	return config.TreeConfig{MaxDepth: 10, MaxChildren: 100}
}

func folder(id string, path tree.Path) *models.Item {
	return &models.Item{ID: id, Name: id, Type: tree.TypeFolder, Path: path, Status: models.ItemStatusDraft}
}

func grantRow(id, subject string, scope tree.Path, level string) models.Membership {
	return models.Membership{ID: id, Subject: subject, Scope: scope, Level: level}
}

func newItemService(items *itemStoreStub, memberships *membershipStoreStub, likes *likeStoreStub, audit *auditStub) *ItemService {
	if likes == nil {
		likes = &likeStoreStub{}
	}
	if audit == nil {
		audit = &auditStub{}
	}
	return NewItemService(items, memberships, likes, audit, testLimits(), nil)
}

func TestCreateRootItemGrantsAdmin(t *testing.T) {
	items := &itemStoreStub{items: map[string]*models.Item{}}
	svc := newItemService(items, &membershipStoreStub{}, nil, nil)

	item, err := svc.Create(context.Background(), dto.CreateItemRequest{Name: "workspace", Type: "folder"}, "alice")
	require.NoError(t, err)
	require.Equal(t, tree.Path(item.ID), item.Path)

	require.Len(t, items.createParams, 1)
	grant := items.createParams[0].AdminGrant
	require.NotNil(t, grant)
	assert.Equal(t, "alice", grant.Subject)
	assert.Equal(t, item.Path, grant.Scope)
	assert.Equal(t, "admin", grant.Level)
}

func TestCreateSkipsAdminGrantWhenInherited(t *testing.T) {
	items := &itemStoreStub{items: map[string]*models.Item{
		"root": folder("root", "root"),
	}}
	memberships := &membershipStoreStub{memberships: []models.Membership{
		grantRow("m1", "alice", "root", "admin"),
	}}
	svc := newItemService(items, memberships, nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateItemRequest{Name: "docs", Type: "folder", ParentID: "root"}, "alice")
	require.NoError(t, err)

	require.Len(t, items.createParams, 1)
	assert.Nil(t, items.createParams[0].AdminGrant, "inherited admin should not produce an explicit grant")
}

func TestCreateRequiresWriteOnParent(t *testing.T) {
	items := &itemStoreStub{items: map[string]*models.Item{
		"root": folder("root", "root"),
	}}
	memberships := &membershipStoreStub{memberships: []models.Membership{
		grantRow("m1", "bob", "root", "read"),
	}}
	svc := newItemService(items, memberships, nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateItemRequest{Name: "docs", Type: "folder", ParentID: "root"}, "bob")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMemberCannotWrite.Code, appErrors.FromError(err).Code)
}

func TestCreateRejectsNonFolderParent(t *testing.T) {
	doc := folder("doc", "root/doc")
	doc.Type = tree.TypeDocument
	items := &itemStoreStub{items: map[string]*models.Item{"doc": doc}}
	memberships := &membershipStoreStub{memberships: []models.Membership{
		grantRow("m1", "alice", "root", "admin"),
	}}
	svc := newItemService(items, memberships, nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateItemRequest{Name: "x", Type: "document", ParentID: "doc"}, "alice")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrItemNotFolder.Code, appErrors.FromError(err).Code)
}

func TestCreateEnforcesChildLimit(t *testing.T) {
	items := &itemStoreStub{
		items:      map[string]*models.Item{"root": folder("root", "root")},
		childCount: map[tree.Path]int{"root": 100},
	}
	memberships := &membershipStoreStub{memberships: []models.Membership{
		grantRow("m1", "alice", "root", "admin"),
	}}
	svc := newItemService(items, memberships, nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateItemRequest{Name: "x", Type: "document", ParentID: "root"}, "alice")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTooManyChildren.Code, appErrors.FromError(err).Code)
}

func TestGetDeniedWithoutRead(t *testing.T) {
	items := &itemStoreStub{items: map[string]*models.Item{"root": folder("root", "root")}}
	svc := newItemService(items, &membershipStoreStub{}, nil, nil)

	_, err := svc.Get(context.Background(), "root", "mallory")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMemberCannotAccess.Code, appErrors.FromError(err).Code)
}

func TestGetPublicItemReadableByAnyone(t *testing.T) {
	item := folder("root", "root")
	item.IsPublic = true
	items := &itemStoreStub{items: map[string]*models.Item{"root": item}}
	svc := newItemService(items, &membershipStoreStub{}, nil, nil)

	got, err := svc.Get(context.Background(), "root", "mallory")
	require.NoError(t, err)
	assert.Equal(t, "read", got.EffectivePermission)
}

func TestGetMissingItem(t *testing.T) {
	svc := newItemService(&itemStoreStub{}, &membershipStoreStub{}, nil, nil)
	_, err := svc.Get(context.Background(), "ghost", "alice")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrItemNotFound.Code, appErrors.FromError(err).Code)
}

func TestListChildrenFiltersUnreadable(t *testing.T) {
	items := &itemStoreStub{items: map[string]*models.Item{
		"root": folder("root", "root"),
		"a":    folder("a", "root/a"),
		"b":    folder("b", "root/b"),
	}}
	// alice reads the parent and one child; the other child stays hidden.
	memberships := &membershipStoreStub{memberships: []models.Membership{
		grantRow("m1", "alice", "root", "read"),
	}}
	items.items["b"].IsPublic = false
	svc := newItemService(items, memberships, nil, nil)

	children, err := svc.ListChildren(context.Background(), "root", "alice", dto.ListItemsQuery{})
	require.NoError(t, err)
	assert.Len(t, children, 2, "read at the root covers the whole subtree")

	memberships.memberships = []models.Membership{grantRow("m2", "carol", "root/a", "read")}
	// carol cannot read the parent at all.
	_, err = svc.ListChildren(context.Background(), "root", "carol", dto.ListItemsQuery{})
	require.Error(t, err)
}

func TestUpdateArchiveRequiresAdmin(t *testing.T) {
	items := &itemStoreStub{items: map[string]*models.Item{"root": folder("root", "root")}}
	memberships := &membershipStoreStub{memberships: []models.Membership{
		grantRow("m1", "bob", "root", "write"),
	}}
	svc := newItemService(items, memberships, nil, nil)

	status := string(models.ItemStatusArchived)
	_, err := svc.Update(context.Background(), "root", dto.UpdateItemRequest{Status: &status}, "bob")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMemberCannotAdmin.Code, appErrors.FromError(err).Code)
}

func TestUpdatePublishAuditsPublication(t *testing.T) {
	items := &itemStoreStub{items: map[string]*models.Item{"root": folder("root", "root")}}
	memberships := &membershipStoreStub{memberships: []models.Membership{
		grantRow("m1", "alice", "root", "admin"),
	}}
	audit := &auditStub{}
	svc := newItemService(items, memberships, nil, audit)

	status := string(models.ItemStatusPublished)
	updated, err := svc.Update(context.Background(), "root", dto.UpdateItemRequest{Status: &status}, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusPublished, updated.Status)
	require.NotEmpty(t, audit.actions)
	assert.Equal(t, models.AuditActionItemPublish, audit.actions[len(audit.actions)-1])
}

func TestMoveRequiresAdminOnSource(t *testing.T) {
	items := &itemStoreStub{items: map[string]*models.Item{
		"src":  folder("src", "src"),
		"dest": folder("dest", "dest"),
	}}
	memberships := &membershipStoreStub{memberships: []models.Membership{
		grantRow("m1", "bob", "src", "write"),
		grantRow("m2", "bob", "dest", "admin"),
	}}
	svc := newItemService(items, memberships, nil, nil)

	_, err := svc.Move(context.Background(), "src", "dest", "bob")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMemberCannotAdmin.Code, appErrors.FromError(err).Code)
}

func TestMoveRejectsOwnSubtree(t *testing.T) {
	items := &itemStoreStub{items: map[string]*models.Item{
		"src":   folder("src", "src"),
		"child": folder("child", "src/child"),
	}}
	memberships := &membershipStoreStub{memberships: []models.Membership{
		grantRow("m1", "alice", "src", "admin"),
	}}
	svc := newItemService(items, memberships, nil, nil)

	_, err := svc.Move(context.Background(), "src", "child", "alice")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidMoveTarget.Code, appErrors.FromError(err).Code)
}

func TestMovePlansInsertWhenInheritanceIsLost(t *testing.T) {
	items := &itemStoreStub{items: map[string]*models.Item{
		"root": folder("root", "root"),
		"sub":  folder("sub", "root/sub"),
		"dest": folder("dest", "dest"),
	}}
	// bob inherits read from root only; after the move to dest he would lose it.
	memberships := &membershipStoreStub{memberships: []models.Membership{
		grantRow("m1", "alice", "root", "admin"),
		grantRow("m2", "alice", "dest", "admin"),
		grantRow("m3", "bob", "root", "read"),
	}}
	svc := newItemService(items, memberships, nil, nil)

	moved, err := svc.Move(context.Background(), "sub", "dest", "alice")
	require.NoError(t, err)
	assert.Equal(t, tree.Path("dest/sub"), moved.Path)

	require.Len(t, items.moveParams, 1)
	plan := items.moveParams[0].Plan
	require.Len(t, plan.Inserts, 1)
	assert.Equal(t, "bob", plan.Inserts[0].Subject)
	assert.Equal(t, tree.Path("dest/sub"), plan.Inserts[0].Scope)
	assert.Equal(t, tree.LevelRead, plan.Inserts[0].Level)
}

func TestMovePlansDeleteForRedundantGrant(t *testing.T) {
	items := &itemStoreStub{items: map[string]*models.Item{
		"root": folder("root", "root"),
		"sub":  folder("sub", "root/sub"),
		"dest": folder("dest", "dest"),
	}}
	// bob holds read explicitly on the moved item and admin over the
	// destination; the explicit grant becomes redundant after the move.
	memberships := &membershipStoreStub{memberships: []models.Membership{
		grantRow("m1", "alice", "root", "admin"),
		grantRow("m2", "alice", "dest", "admin"),
		grantRow("m3", "bob", "root/sub", "read"),
		grantRow("m4", "bob", "dest", "admin"),
	}}
	svc := newItemService(items, memberships, nil, nil)

	_, err := svc.Move(context.Background(), "sub", "dest", "alice")
	require.NoError(t, err)

	require.Len(t, items.moveParams, 1)
	plan := items.moveParams[0].Plan
	require.Len(t, plan.Deletes, 1)
	assert.Equal(t, "bob", plan.Deletes[0].Subject)
	assert.Equal(t, tree.Path("root/sub"), plan.Deletes[0].Scope)
	assert.Empty(t, plan.Inserts)
}

func TestMoveStaleItemMapsToConflict(t *testing.T) {
	items := &itemStoreStub{
		items: map[string]*models.Item{
			"src":  folder("src", "src"),
			"dest": folder("dest", "dest"),
		},
		moveErr: repository.ErrStaleItem,
	}
	memberships := &membershipStoreStub{memberships: []models.Membership{
		grantRow("m1", "alice", "src", "admin"),
		grantRow("m2", "alice", "dest", "admin"),
	}}
	svc := newItemService(items, memberships, nil, nil)

	_, err := svc.Move(context.Background(), "src", "dest", "alice")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCopyDedupesNameAndMintsFreshIDs(t *testing.T) {
	src := folder("src", "src")
	src.Name = "report"
	child := folder("child", "src/child")
	items := &itemStoreStub{
		items: map[string]*models.Item{
			"src":  src,
			"dest": folder("dest", "dest"),
		},
		subtree:      []models.Item{*src, *child},
		siblingNames: []string{"report", "report (2)"},
	}
	memberships := &membershipStoreStub{memberships: []models.Membership{
		grantRow("m1", "alice", "src", "admin"),
		grantRow("m2", "alice", "dest", "write"),
	}}
	svc := newItemService(items, memberships, nil, nil)

	copied, err := svc.Copy(context.Background(), "src", "dest", "alice")
	require.NoError(t, err)
	assert.Equal(t, "report (3)", copied.Name)
	assert.NotEqual(t, "src", copied.ID)

	require.Len(t, items.copyParams, 1)
	params := items.copyParams[0]
	require.Len(t, params.Items, 2)
	for _, dup := range params.Items {
		assert.NotEqual(t, "src", dup.ID)
		assert.NotEqual(t, "child", dup.ID)
		assert.True(t, tree.IsDescendantOrSelf(dup.Path, copied.Path))
	}
	// writer at the destination gets an explicit admin grant on the copy root.
	require.Len(t, params.Memberships, 1)
	assert.Equal(t, copied.Path, params.Memberships[0].Scope)
	assert.Equal(t, "admin", params.Memberships[0].Level)
}

func TestCopySkipsAdminGrantForDestinationAdmin(t *testing.T) {
	src := folder("src", "src")
	items := &itemStoreStub{
		items: map[string]*models.Item{
			"src":  src,
			"dest": folder("dest", "dest"),
		},
		subtree: []models.Item{*src},
	}
	memberships := &membershipStoreStub{memberships: []models.Membership{
		grantRow("m1", "alice", "src", "read"),
		grantRow("m2", "alice", "dest", "admin"),
	}}
	svc := newItemService(items, memberships, nil, nil)

	_, err := svc.Copy(context.Background(), "src", "dest", "alice")
	require.NoError(t, err)
	require.Len(t, items.copyParams, 1)
	assert.Empty(t, items.copyParams[0].Memberships)
}

func TestDeleteRequiresAdmin(t *testing.T) {
	items := &itemStoreStub{items: map[string]*models.Item{"root": folder("root", "root")}}
	memberships := &membershipStoreStub{memberships: []models.Membership{
		grantRow("m1", "bob", "root", "write"),
	}}
	svc := newItemService(items, memberships, nil, nil)

	_, err := svc.Delete(context.Background(), "root", "bob")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMemberCannotAdmin.Code, appErrors.FromError(err).Code)
	assert.Empty(t, items.deletedIDs)
}

func TestDeleteCascadesSubtree(t *testing.T) {
	items := &itemStoreStub{items: map[string]*models.Item{"root": folder("root", "root")}}
	memberships := &membershipStoreStub{memberships: []models.Membership{
		grantRow("m1", "alice", "root", "admin"),
	}}
	audit := &auditStub{}
	svc := newItemService(items, memberships, nil, audit)

	deleted, err := svc.Delete(context.Background(), "root", "alice")
	require.NoError(t, err)
	assert.Equal(t, "root", deleted.ID)
	assert.Equal(t, []string{"root"}, items.deletedIDs)
	assert.Contains(t, audit.actions, models.AuditActionItemDelete)
}

func TestReorderRootRejected(t *testing.T) {
	items := &itemStoreStub{items: map[string]*models.Item{"root": folder("root", "root")}}
	memberships := &membershipStoreStub{memberships: []models.Membership{
		grantRow("m1", "alice", "root", "admin"),
	}}
	svc := newItemService(items, memberships, nil, nil)

	_, err := svc.Reorder(context.Background(), "root", dto.ReorderItemRequest{}, "alice")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCannotReorderRoot.Code, appErrors.FromError(err).Code)
}

func TestReorderSiblingMismatch(t *testing.T) {
	items := &itemStoreStub{
		items: map[string]*models.Item{
			"root": folder("root", "root"),
			"a":    folder("a", "root/a"),
		},
		reorderErr: sql.ErrNoRows,
	}
	memberships := &membershipStoreStub{memberships: []models.Membership{
		grantRow("m1", "alice", "root", "admin"),
	}}
	svc := newItemService(items, memberships, nil, nil)

	_, err := svc.Reorder(context.Background(), "a", dto.ReorderItemRequest{PreviousSiblingID: "stranger"}, "alice")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLikeRequiresRead(t *testing.T) {
	items := &itemStoreStub{items: map[string]*models.Item{"root": folder("root", "root")}}
	likes := &likeStoreStub{}
	svc := newItemService(items, &membershipStoreStub{}, likes, nil)

	err := svc.LikeItem(context.Background(), "root", "mallory")
	require.Error(t, err)
	assert.Empty(t, likes.likes)
}

func TestUnlikeRequiresRead(t *testing.T) {
	items := &itemStoreStub{items: map[string]*models.Item{"root": folder("root", "root")}}
	likes := &likeStoreStub{}
	audit := &auditStub{}
	svc := newItemService(items, &membershipStoreStub{}, likes, audit)

	err := svc.UnlikeItem(context.Background(), "root", "mallory")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMemberCannotAccess.Code, appErrors.FromError(err).Code)
	assert.Empty(t, likes.unlikes)
	assert.Empty(t, audit.actions)
}
