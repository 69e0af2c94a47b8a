package models

import (
	"time"

	appErrors "github.com/canopyhq/canopy-api/pkg/errors"
)

// BulkAction enumerates bulk item operations.
type BulkAction string

const (
	BulkActionMove   BulkAction = "move"
	BulkActionCopy   BulkAction = "copy"
	BulkActionDelete BulkAction = "delete"
)

// BulkState tracks async execution progress.
type BulkState string

const (
	BulkStatePending   BulkState = "pending"
	BulkStateRunning   BulkState = "running"
	BulkStateCompleted BulkState = "completed"
)

// BulkReport accumulates per-target outcomes of a bulk operation. Results
// and Errors are keyed by target item id; a target appears in exactly one of
// the two maps once processed. Reports for async runs are persisted to Redis
// until their TTL expires.
type BulkReport struct {
	ID          string                      `json:"id"`
	Action      BulkAction                  `json:"action"`
	State       BulkState                   `json:"state"`
	Results     map[string]*Item            `json:"results"`
	Errors      map[string]*appErrors.Error `json:"errors"`
	SubmittedBy string                      `json:"submitted_by"`
	CreatedAt   time.Time                   `json:"created_at"`
	CompletedAt *time.Time                  `json:"completed_at,omitempty"`
}

// NewBulkReport initialises an empty report.
func NewBulkReport(id string, action BulkAction, subject string) *BulkReport {
	return &BulkReport{
		ID:          id,
		Action:      action,
		State:       BulkStatePending,
		Results:     make(map[string]*Item),
		Errors:      make(map[string]*appErrors.Error),
		SubmittedBy: subject,
		CreatedAt:   time.Now().UTC(),
	}
}

// Record stores a single target's outcome.
func (r *BulkReport) Record(targetID string, item *Item, err error) {
	if err != nil {
		r.Errors[targetID] = appErrors.FromError(err)
		return
	}
	r.Results[targetID] = item
}

// Complete marks the report finished.
func (r *BulkReport) Complete() {
	now := time.Now().UTC()
	r.State = BulkStateCompleted
	r.CompletedAt = &now
}
