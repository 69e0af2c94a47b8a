package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canopyhq/canopy-api/internal/models"
	"github.com/canopyhq/canopy-api/internal/tree"
)

func newItemMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func itemRows(items ...*models.Item) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "name", "type", "path", "status", "is_public", "sort_order", "created_by", "created_at", "updated_at"})
	now := time.Now()
	for _, item := range items {
		rows.AddRow(item.ID, item.Name, string(item.Type), string(item.Path), string(item.Status), item.IsPublic, item.SortOrder, item.CreatedBy, now, now)
	}
	return rows
}

func TestItemRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newItemMock(t)
	defer cleanup()
	repo := NewItemRepository(db)

	item := &models.Item{ID: "a", Name: "docs", Type: tree.TypeFolder, Path: "a", Status: models.ItemStatusDraft}
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, type, path, status, is_public, sort_order, created_by, created_at, updated_at FROM items WHERE id = $1`)).
		WithArgs("a").
		WillReturnRows(itemRows(item))

	got, err := repo.GetByID(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, tree.Path("a"), got.Path)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItemRepositoryCountChildren(t *testing.T) {
	db, mock, cleanup := newItemMock(t)
	defer cleanup()
	repo := NewItemRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM items WHERE path LIKE $1 AND path NOT LIKE $2`)).
		WithArgs("root/%", "root/%/%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.CountChildren(context.Background(), "root")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItemRepositoryApplyMoveRewritesPathsAndScopes(t *testing.T) {
	db, mock, cleanup := newItemMock(t)
	defer cleanup()
	repo := NewItemRepository(db)

	source := &models.Item{ID: "sub", Name: "sub", Type: tree.TypeFolder, Path: "root/sub", Status: models.ItemStatusDraft}
	dest := &models.Item{ID: "dest", Name: "dest", Type: tree.TypeFolder, Path: "dest", Status: models.ItemStatusDraft}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM items WHERE id = \$1 FOR UPDATE`).
		WithArgs("sub").
		WillReturnRows(itemRows(source))
	mock.ExpectQuery(`SELECT .+ FROM items WHERE id = \$1 FOR UPDATE`).
		WithArgs("dest").
		WillReturnRows(itemRows(dest))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM items WHERE path LIKE $1 AND path NOT LIKE $2`)).
		WithArgs("dest/%", "dest/%/%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(array_length`).
		WithArgs("root/sub", "root/sub/%").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(3))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM memberships WHERE subject = $1 AND scope = $2`)).
		WithArgs("bob", "root/sub").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE items SET path = \$1 \|\| substr\(path, \$2\)`).
		WithArgs("dest/sub", len("root/sub")+1, "root/sub", "root/sub/%").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`UPDATE memberships SET scope = \$1 \|\| substr\(scope, \$2\)`).
		WithArgs("dest/sub", len("root/sub")+1, "root/sub", "root/sub/%").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO memberships`).
		WithArgs(sqlmock.AnyArg(), "carol", "dest/sub", "read", "alice", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.ApplyMove(context.Background(), ApplyMoveParams{
		ItemID:      "sub",
		OldPath:     "root/sub",
		NewPath:     "dest/sub",
		NewParentID: "dest",
		MaxDepth:    10,
		MaxChildren: 100,
		Plan: tree.Plan{
			Inserts: []tree.Grant{{Subject: "carol", Scope: "dest/sub", Level: tree.LevelRead}},
			Deletes: []tree.Grant{{Subject: "bob", Scope: "root/sub"}},
		},
		PlanCreatedBy: "alice",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItemRepositoryApplyMoveStaleItem(t *testing.T) {
	db, mock, cleanup := newItemMock(t)
	defer cleanup()
	repo := NewItemRepository(db)

	// The row moved between planning and apply.
	moved := &models.Item{ID: "sub", Name: "sub", Type: tree.TypeFolder, Path: "elsewhere/sub", Status: models.ItemStatusDraft}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM items WHERE id = \$1 FOR UPDATE`).
		WithArgs("sub").
		WillReturnRows(itemRows(moved))
	mock.ExpectRollback()

	err := repo.ApplyMove(context.Background(), ApplyMoveParams{
		ItemID:  "sub",
		OldPath: "root/sub",
		NewPath: "dest/sub",
	})
	require.ErrorIs(t, err, ErrStaleItem)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItemRepositoryDeleteSubtreeCascades(t *testing.T) {
	db, mock, cleanup := newItemMock(t)
	defer cleanup()
	repo := NewItemRepository(db)

	root := &models.Item{ID: "root", Name: "root", Type: tree.TypeFolder, Path: "root", Status: models.ItemStatusDraft}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM items WHERE id = \$1 FOR UPDATE`).
		WithArgs("root").
		WillReturnRows(itemRows(root))
	mock.ExpectExec(`DELETE FROM likes WHERE item_id IN`).
		WithArgs("root", "root/%").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM memberships WHERE scope = $1 OR scope LIKE $2`)).
		WithArgs("root", "root/%").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM items WHERE path = $1 OR path LIKE $2`)).
		WithArgs("root", "root/%").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	deleted, err := repo.DeleteSubtree(context.Background(), "root")
	require.NoError(t, err)
	assert.Equal(t, "root", deleted.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItemRepositoryReorderUnknownSibling(t *testing.T) {
	db, mock, cleanup := newItemMock(t)
	defer cleanup()
	repo := NewItemRepository(db)

	item := &models.Item{ID: "a", Name: "a", Type: tree.TypeDocument, Path: "root/a", Status: models.ItemStatusDraft}
	sibling := &models.Item{ID: "b", Name: "b", Type: tree.TypeDocument, Path: "root/b", Status: models.ItemStatusDraft}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM items WHERE id = \$1 FOR UPDATE`).
		WithArgs("a").
		WillReturnRows(itemRows(item))
	mock.ExpectQuery(`SELECT .+ FROM items WHERE path LIKE \$1 AND path NOT LIKE \$2 ORDER BY sort_order NULLS LAST, created_at ASC FOR UPDATE`).
		WithArgs("root/%", "root/%/%").
		WillReturnRows(itemRows(item, sibling))
	mock.ExpectRollback()

	_, err := repo.Reorder(context.Background(), "a", "ghost")
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItemRepositoryCreateInsertsAdminGrant(t *testing.T) {
	db, mock, cleanup := newItemMock(t)
	defer cleanup()
	repo := NewItemRepository(db)

	item := &models.Item{ID: "root", Name: "root", Type: tree.TypeFolder, Path: "root", Status: models.ItemStatusDraft, CreatedBy: "alice"}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO items`).
		WithArgs("root", "root", "folder", "root", "draft", false, nil, "alice", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO memberships`).
		WithArgs(sqlmock.AnyArg(), "alice", "root", "admin", "alice", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), CreateItemParams{
		Item:        item,
		MaxDepth:    10,
		MaxChildren: 100,
		AdminGrant:  &models.Membership{Subject: "alice", Scope: "root", Level: "admin", CreatedBy: "alice"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
