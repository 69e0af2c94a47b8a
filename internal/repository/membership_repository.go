package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/canopyhq/canopy-api/internal/models"
	"github.com/canopyhq/canopy-api/internal/tree"
)

const membershipColumns = `id, subject, scope, level, created_by, created_at`

// MembershipRepository persists explicit permission grants. Scope columns
// hold materialized paths, so prefix matching answers both "who covers this
// item" and "what lies inside this subtree".
type MembershipRepository struct {
	db *sqlx.DB
}

// NewMembershipRepository constructs the repository.
func NewMembershipRepository(db *sqlx.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// ListCovering returns the subject's grants whose scope covers path, i.e.
// equals it or is one of its ancestors.
func (r *MembershipRepository) ListCovering(ctx context.Context, subject string, path tree.Path) ([]models.Membership, error) {
	query := fmt.Sprintf(`SELECT %s FROM memberships WHERE subject = $1 AND ($2 = scope OR $2 LIKE scope || '/%%')`, membershipColumns)
	var memberships []models.Membership
	if err := r.db.SelectContext(ctx, &memberships, query, subject, string(path)); err != nil {
		return nil, fmt.Errorf("list covering memberships: %w", err)
	}
	return memberships, nil
}

// ListForMove returns every grant a move plan needs: rows inside the moved
// subtree, rows covering the old location, and rows covering the new one,
// across all subjects.
func (r *MembershipRepository) ListForMove(ctx context.Context, before, after tree.Path) ([]models.Membership, error) {
	query := fmt.Sprintf(`SELECT %s FROM memberships
	WHERE scope = $1 OR $1 LIKE scope || '/%%' OR scope LIKE $2
	   OR scope = $3 OR $3 LIKE scope || '/%%'`, membershipColumns)
	var memberships []models.Membership
	err := r.db.SelectContext(ctx, &memberships, query,
		string(before), string(before)+tree.Separator+"%", string(after))
	if err != nil {
		return nil, fmt.Errorf("list memberships for move: %w", err)
	}
	return memberships, nil
}

// ListForItem returns the explicit grants at exactly the item's path plus
// the inherited grants above it, for share listings.
func (r *MembershipRepository) ListForItem(ctx context.Context, path tree.Path) ([]models.Membership, error) {
	query := fmt.Sprintf(`SELECT %s FROM memberships WHERE $1 = scope OR $1 LIKE scope || '/%%' ORDER BY scope ASC, subject ASC`, membershipColumns)
	var memberships []models.Membership
	if err := r.db.SelectContext(ctx, &memberships, query, string(path)); err != nil {
		return nil, fmt.Errorf("list memberships for item: %w", err)
	}
	return memberships, nil
}

// ListBySubjectUnderScope returns the subject's grants inside a subtree,
// root included.
func (r *MembershipRepository) ListBySubjectUnderScope(ctx context.Context, subject string, scope tree.Path) ([]models.Membership, error) {
	query := fmt.Sprintf(`SELECT %s FROM memberships WHERE subject = $1 AND (scope = $2 OR scope LIKE $3)`, membershipColumns)
	var memberships []models.Membership
	err := r.db.SelectContext(ctx, &memberships, query,
		subject, string(scope), string(scope)+tree.Separator+"%")
	if err != nil {
		return nil, fmt.Errorf("list subject memberships under scope: %w", err)
	}
	return memberships, nil
}

// Delete removes the subject's grant at exactly the given scope.
func (r *MembershipRepository) Delete(ctx context.Context, subject string, scope tree.Path) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM memberships WHERE subject = $1 AND scope = $2`,
		subject, string(scope),
	)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check membership delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ApplyPlan applies a grant reconciliation outside of a move transaction,
// used by explicit share/revoke.
func (r *MembershipRepository) ApplyPlan(ctx context.Context, plan tree.Plan, createdBy string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	for _, g := range plan.Deletes {
		if err := deleteMembershipTx(ctx, tx, g.Subject, g.Scope); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	for _, g := range plan.Inserts {
		m := &models.Membership{Subject: g.Subject, Scope: g.Scope, Level: g.Level.String(), CreatedBy: createdBy}
		if err := insertMembershipTx(ctx, tx, m); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
