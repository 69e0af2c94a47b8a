package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// LikeRepository persists per-subject like marks on items.
type LikeRepository struct {
	db *sqlx.DB
}

// NewLikeRepository constructs the repository.
func NewLikeRepository(db *sqlx.DB) *LikeRepository {
	return &LikeRepository{db: db}
}

// Like records a like; repeated likes are idempotent.
func (r *LikeRepository) Like(ctx context.Context, itemID, subject string) error {
	const query = `INSERT INTO likes (item_id, subject, created_at) VALUES ($1, $2, $3)
	ON CONFLICT (item_id, subject) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, itemID, subject, time.Now().UTC()); err != nil {
		return fmt.Errorf("like item: %w", err)
	}
	return nil
}

// Unlike removes a like; missing likes are ignored.
func (r *LikeRepository) Unlike(ctx context.Context, itemID, subject string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM likes WHERE item_id = $1 AND subject = $2`, itemID, subject); err != nil {
		return fmt.Errorf("unlike item: %w", err)
	}
	return nil
}

// Count returns the item's like count.
func (r *LikeRepository) Count(ctx context.Context, itemID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM likes WHERE item_id = $1`, itemID); err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return count, nil
}

// Liked reports whether the subject has liked the item.
func (r *LikeRepository) Liked(ctx context.Context, itemID, subject string) (bool, error) {
	var liked bool
	const query = `SELECT EXISTS (SELECT 1 FROM likes WHERE item_id = $1 AND subject = $2)`
	if err := r.db.GetContext(ctx, &liked, query, itemID, subject); err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return liked, nil
}
