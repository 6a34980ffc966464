// Package store persists the history of evaluation runs.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/cu-eval/internal/model"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = eris.New("store: not found")

// IsNotFound reports whether err is caused by a missing run.
func IsNotFound(err error) bool {
	return eris.Is(err, ErrNotFound)
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status     model.RunStatus `json:"status,omitempty"`
	AnalyzerID string          `json:"analyzer_id,omitempty"`
	Limit      int             `json:"limit,omitempty"`
	Offset     int             `json:"offset,omitempty"`
}

const defaultListLimit = 100

func (f RunFilter) limit() int {
	if f.Limit <= 0 {
		return defaultListLimit
	}
	return f.Limit
}

// Store defines the persistence interface for run history.
type Store interface {
	// CreateRun records a new run in the running state. ID, Status and the
	// timestamps of run are assigned by the store.
	CreateRun(ctx context.Context, run model.Run) (*model.Run, error)
	// CompleteRun stores the outcome and per-document rows of a run.
	CompleteRun(ctx context.Context, runID string, outcome model.RunOutcome) error
	FailRun(ctx context.Context, runID string, reason string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)
	ListDocuments(ctx context.Context, runID string) ([]model.DocumentRecord, error)

	Migrate(ctx context.Context) error
	Close() error
}
