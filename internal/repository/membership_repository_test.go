package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canopyhq/canopy-api/internal/tree"
)

func membershipRows(rows ...[4]string) *sqlmock.Rows {
	out := sqlmock.NewRows([]string{"id", "subject", "scope", "level", "created_by", "created_at"})
	for _, r := range rows {
		out.AddRow(r[0], r[1], r[2], r[3], "alice", time.Now())
	}
	return out
}

func TestMembershipRepositoryListCovering(t *testing.T) {
	db, mock, cleanup := newItemMock(t)
	defer cleanup()
	repo := NewMembershipRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, subject, scope, level, created_by, created_at FROM memberships WHERE subject = $1 AND ($2 = scope OR $2 LIKE scope || '/%')`)).
		WithArgs("bob", "root/sub/doc").
		WillReturnRows(membershipRows(
			[4]string{"m1", "bob", "root", "read"},
			[4]string{"m2", "bob", "root/sub", "write"},
		))

	memberships, err := repo.ListCovering(context.Background(), "bob", "root/sub/doc")
	require.NoError(t, err)
	require.Len(t, memberships, 2)
	assert.Equal(t, tree.Path("root/sub"), memberships[1].Scope)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipRepositoryListForMove(t *testing.T) {
	db, mock, cleanup := newItemMock(t)
	defer cleanup()
	repo := NewMembershipRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM memberships\s+WHERE scope = \$1 OR \$1 LIKE scope \|\| '/%' OR scope LIKE \$2\s+OR scope = \$3 OR \$3 LIKE scope \|\| '/%'`).
		WithArgs("root/sub", "root/sub/%", "dest/sub").
		WillReturnRows(membershipRows([4]string{"m1", "bob", "root", "read"}))

	memberships, err := repo.ListForMove(context.Background(), "root/sub", "dest/sub")
	require.NoError(t, err)
	assert.Len(t, memberships, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipRepositoryDeleteReportsMissing(t *testing.T) {
	db, mock, cleanup := newItemMock(t)
	defer cleanup()
	repo := NewMembershipRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM memberships WHERE subject = $1 AND scope = $2`)).
		WithArgs("bob", "root").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "bob", "root")
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipRepositoryApplyPlan(t *testing.T) {
	db, mock, cleanup := newItemMock(t)
	defer cleanup()
	repo := NewMembershipRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM memberships WHERE subject = $1 AND scope = $2`)).
		WithArgs("carol", "root/sub").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO memberships`).
		WithArgs(sqlmock.AnyArg(), "carol", "root", "write", "alice", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	plan := tree.Plan{
		Inserts: []tree.Grant{{Subject: "carol", Scope: "root", Level: tree.LevelWrite}},
		Deletes: []tree.Grant{{Subject: "carol", Scope: "root/sub", Level: tree.LevelRead}},
	}
	require.NoError(t, repo.ApplyPlan(context.Background(), plan, "alice"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
