package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/canopyhq/canopy-api/internal/dto"
	"github.com/canopyhq/canopy-api/internal/models"
	"github.com/canopyhq/canopy-api/pkg/config"
	appErrors "github.com/canopyhq/canopy-api/pkg/errors"
	"github.com/canopyhq/canopy-api/pkg/jobs"
)

// itemPlanner is the single-item surface the bulk coordinator drives. Each
// target is executed independently; one failing target never aborts the rest.
type itemPlanner interface {
	Move(ctx context.Context, itemID, destParentID, actor string) (*models.Item, error)
	Copy(ctx context.Context, itemID, destParentID, actor string) (*models.Item, error)
	Delete(ctx context.Context, itemID, actor string) (*models.Item, error)
}

type reportStore interface {
	Save(ctx context.Context, report *models.BulkReport) error
	Get(ctx context.Context, id string) (*models.BulkReport, error)
}

// bulkPayload travels through the job queue for async runs. It carries only
// identifiers: the worker reloads the report from the store, so the snapshot
// returned to the submitter is never written by another goroutine.
type bulkPayload struct {
	OperationID   string
	Action        models.BulkAction
	SubmittedBy   string
	Targets       []string
	DestinationID string
}

// BulkService coordinates multi-target move, copy, and delete requests.
// Small batches run synchronously and return a completed report; larger ones
// are acknowledged immediately and processed by a worker pool, with progress
// persisted to Redis so the report survives until its TTL.
type BulkService struct {
	planner itemPlanner
	reports reportStore
	cfg     config.BulkConfig
	queue   *jobs.Queue
	logger  *zap.Logger
	metrics *MetricsService
}

// SetMetrics attaches an optional metrics collector.
func (s *BulkService) SetMetrics(m *MetricsService) {
	s.metrics = m
}

// NewBulkService constructs the service and its backing queue. Call Start
// before accepting async work and Stop on shutdown.
func NewBulkService(planner itemPlanner, reports reportStore, cfg config.BulkConfig, logger *zap.Logger) *BulkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &BulkService{
		planner: planner,
		reports: reports,
		cfg:     cfg,
		logger:  logger,
	}
	s.queue = jobs.NewQueue("bulk-items", s.handleJob, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		BufferSize: cfg.QueueBuffer,
		MaxRetries: 1,
		Logger:     logger,
	})
	return s
}

// Start launches the async workers.
func (s *BulkService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *BulkService) Stop() {
	s.queue.Stop()
}

// Submit validates and dispatches a bulk request. The returned report is
// completed for synchronous runs and pending for asynchronous ones.
func (s *BulkService) Submit(ctx context.Context, action models.BulkAction, req dto.BulkItemRequest, actor string) (*models.BulkReport, error) {
	if len(req.ItemIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "item_ids must not be empty")
	}
	if len(req.ItemIDs) > s.cfg.MaxTargets {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("bulk operations accept at most %d targets, got %d", s.cfg.MaxTargets, len(req.ItemIDs)))
	}
	if action == models.BulkActionDelete && req.DestinationID != "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "delete takes no destination")
	}

	report := models.NewBulkReport(uuid.NewString(), action, actor)

	if len(req.ItemIDs) < s.cfg.SyncThreshold {
		s.run(ctx, report, req.ItemIDs, req.DestinationID)
		report.Complete()
		return report, nil
	}

	if err := s.reports.Save(ctx, report); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist bulk report")
	}
	err := s.queue.Enqueue(jobs.Job{
		ID:   report.ID,
		Type: string(action),
		Payload: bulkPayload{
			OperationID:   report.ID,
			Action:        action,
			SubmittedBy:   actor,
			Targets:       req.ItemIDs,
			DestinationID: req.DestinationID,
		},
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue bulk operation")
	}
	return report, nil
}

// GetReport returns a persisted report. Only the submitter may read it.
func (s *BulkService) GetReport(ctx context.Context, id, actor string) (*models.BulkReport, error) {
	report, err := s.reports.Get(ctx, id)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	if report.SubmittedBy != actor {
		return nil, appErrors.ErrBulkOpNotFound
	}
	return report, nil
}

func (s *BulkService) handleJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(bulkPayload)
	if !ok {
		s.logger.Error("bulk job carried unexpected payload", zap.String("job_id", job.ID))
		return nil
	}
	report, err := s.reports.Get(ctx, payload.OperationID)
	if err != nil {
		s.logger.Warn("bulk report missing at execution, rebuilding",
			zap.String("operation_id", payload.OperationID), zap.Error(err))
		report = models.NewBulkReport(payload.OperationID, payload.Action, payload.SubmittedBy)
	}
	report.State = models.BulkStateRunning
	if err := s.reports.Save(ctx, report); err != nil {
		s.logger.Warn("failed to persist running bulk report", zap.String("operation_id", report.ID), zap.Error(err))
	}

	s.run(ctx, report, payload.Targets, payload.DestinationID)
	report.Complete()
	if err := s.reports.Save(ctx, report); err != nil {
		s.logger.Error("failed to persist completed bulk report", zap.String("operation_id", report.ID), zap.Error(err))
		return err
	}
	s.logger.Info("bulk operation completed",
		zap.String("operation_id", report.ID),
		zap.String("action", string(report.Action)),
		zap.Int("succeeded", len(report.Results)),
		zap.Int("failed", len(report.Errors)),
	)
	return nil
}

// run executes each target in order, recording a per-target outcome. Move
// targets are processed independently so a failed target leaves the others
// applied; callers retry failed ids from the report.
func (s *BulkService) run(ctx context.Context, report *models.BulkReport, targets []string, destID string) {
	for _, id := range targets {
		var (
			item *models.Item
			err  error
		)
		switch report.Action {
		case models.BulkActionMove:
			item, err = s.planner.Move(ctx, id, destID, report.SubmittedBy)
		case models.BulkActionCopy:
			item, err = s.planner.Copy(ctx, id, destID, report.SubmittedBy)
		case models.BulkActionDelete:
			item, err = s.planner.Delete(ctx, id, report.SubmittedBy)
		default:
			err = appErrors.Clone(appErrors.ErrValidation, "unknown bulk action")
		}
		report.Record(id, item, err)
		if s.metrics != nil {
			s.metrics.ObserveBulkTarget(string(report.Action), err == nil)
		}
	}
}
