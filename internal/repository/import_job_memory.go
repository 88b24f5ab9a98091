package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/impact-track/impact-api/internal/models"
	appErrors "github.com/impact-track/impact-api/pkg/errors"
)

// MemoryImportJobRepository stores import jobs in memory for local
// development. Snapshots are copied on read and replaced whole on write, so a
// poller never observes a partially written job.
type MemoryImportJobRepository struct {
	mu   sync.RWMutex
	jobs map[string]models.ImportJob
}

// NewMemoryImportJobRepository constructs an empty in-memory store.
func NewMemoryImportJobRepository() *MemoryImportJobRepository {
	return &MemoryImportJobRepository{jobs: make(map[string]models.ImportJob)}
}

// Create stores a new import job with generated defaults.
func (r *MemoryImportJobRepository) Create(_ context.Context, job *models.ImportJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ImportStatusPending
	}
	if job.Errors == nil {
		job.Errors = models.RowErrors{}
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	r.jobs[job.ID] = cloneImportJob(*job)
	return nil
}

// GetByID returns a copy of the latest persisted snapshot.
func (r *MemoryImportJobRepository) GetByID(_ context.Context, id string) (*models.ImportJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "import job not found")
	}
	snapshot := cloneImportJob(job)
	return &snapshot, nil
}

// Update applies the provided changes as one atomic snapshot replacement.
func (r *MemoryImportJobRepository) Update(_ context.Context, id string, params UpdateImportJobParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "import job not found")
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.ProcessedRows != nil {
		job.ProcessedRows = *params.ProcessedRows
	}
	if params.SuccessfulRows != nil {
		job.SuccessfulRows = *params.SuccessfulRows
	}
	if params.FailedRows != nil {
		job.FailedRows = *params.FailedRows
	}
	if params.Errors != nil {
		job.Errors = append(models.RowErrors{}, *params.Errors...)
	}
	if params.FinishedAt != nil {
		finished := *params.FinishedAt
		job.FinishedAt = &finished
	}
	r.jobs[id] = job
	return nil
}

// List returns jobs newest first with the total count.
func (r *MemoryImportJobRepository) List(_ context.Context, page, limit int) ([]models.ImportJob, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	all := make([]models.ImportJob, 0, len(r.jobs))
	for _, job := range r.jobs {
		all = append(all, cloneImportJob(job))
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	start := (page - 1) * limit
	if start >= total {
		return []models.ImportJob{}, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

// ListUnfinished returns non-terminal jobs oldest first.
func (r *MemoryImportJobRepository) ListUnfinished(_ context.Context, limit int) ([]models.ImportJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	var out []models.ImportJob
	for _, job := range r.jobs {
		if !job.Status.Terminal() {
			out = append(out, cloneImportJob(job))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cloneImportJob(job models.ImportJob) models.ImportJob {
	clone := job
	clone.Errors = append(models.RowErrors{}, job.Errors...)
	if job.FinishedAt != nil {
		finished := *job.FinishedAt
		clone.FinishedAt = &finished
	}
	return clone
}
