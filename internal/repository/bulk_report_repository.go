package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/canopyhq/canopy-api/internal/models"
	appErrors "github.com/canopyhq/canopy-api/pkg/errors"
)

const bulkReportKeyPrefix = "bulk:report:"

// BulkReportRepository keeps per-target outcomes of asynchronous bulk
// operations in Redis so callers can retrieve them after the 202 ack. A
// process crash loses only the in-flight targets, not the completed ones.
type BulkReportRepository struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewBulkReportRepository constructs the repository.
func NewBulkReportRepository(client *redis.Client, ttl time.Duration, logger *zap.Logger) *BulkReportRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &BulkReportRepository{client: client, ttl: ttl, logger: logger}
}

// Save persists the report snapshot under its operation id.
func (r *BulkReportRepository) Save(ctx context.Context, report *models.BulkReport) error {
	if r.client == nil {
		return nil
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal bulk report %s: %w", report.ID, err)
	}
	if err := r.client.Set(ctx, bulkReportKeyPrefix+report.ID, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set bulk report %s: %w", report.ID, err)
	}
	return nil
}

// Get loads a report by operation id.
func (r *BulkReportRepository) Get(ctx context.Context, id string) (*models.BulkReport, error) {
	if r.client == nil {
		return nil, appErrors.ErrBulkOpNotFound
	}
	raw, err := r.client.Get(ctx, bulkReportKeyPrefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, appErrors.ErrBulkOpNotFound
		}
		return nil, fmt.Errorf("redis get bulk report %s: %w", id, err)
	}
	var report models.BulkReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("unmarshal bulk report %s: %w", id, err)
	}
	return &report, nil
}
