package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/impact-track/impact-api/internal/models"
	appErrors "github.com/impact-track/impact-api/pkg/errors"
)

// UpdateImportJobParams defines the mutable fields of a job row.
// The error log is replaced whole so a chunk's persist is one atomic write.
type UpdateImportJobParams struct {
	Status         *models.ImportStatus
	ProcessedRows  *int
	SuccessfulRows *int
	FailedRows     *int
	Errors         *models.RowErrors
	FinishedAt     *time.Time
}

// ImportJobRepository abstracts import job persistence. A job row is mutated
// only by its own scheduler; pollers read the latest persisted snapshot.
type ImportJobRepository interface {
	Create(ctx context.Context, job *models.ImportJob) error
	GetByID(ctx context.Context, id string) (*models.ImportJob, error)
	Update(ctx context.Context, id string, params UpdateImportJobParams) error
	List(ctx context.Context, page, limit int) ([]models.ImportJob, int, error)
	ListUnfinished(ctx context.Context, limit int) ([]models.ImportJob, error)
}

// PostgresImportJobRepository persists import jobs in PostgreSQL.
type PostgresImportJobRepository struct {
	db *sqlx.DB
}

// NewPostgresImportJobRepository constructs the repository.
func NewPostgresImportJobRepository(db *sqlx.DB) *PostgresImportJobRepository {
	return &PostgresImportJobRepository{db: db}
}

// Create inserts a new import job row with generated defaults.
func (r *PostgresImportJobRepository) Create(ctx context.Context, job *models.ImportJob) error {
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
	const query = `INSERT INTO import_jobs (id, status, total_rows, processed_rows, successful_rows, failed_rows, errors, payload, created_at, finished_at)
VALUES (:id, :status, :total_rows, :processed_rows, :successful_rows, :failed_rows, :errors, :payload, :created_at, :finished_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create import job: %w", err)
	}
	return nil
}

// GetByID returns a job row by its identifier.
func (r *PostgresImportJobRepository) GetByID(ctx context.Context, id string) (*models.ImportJob, error) {
	const query = `SELECT id, status, total_rows, processed_rows, successful_rows, failed_rows, errors, payload, created_at, finished_at
FROM import_jobs WHERE id = $1`
	var job models.ImportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "import job not found")
		}
		return nil, fmt.Errorf("get import job: %w", err)
	}
	return &job, nil
}

// Update persists the provided changes for a job row.
func (r *PostgresImportJobRepository) Update(ctx context.Context, id string, params UpdateImportJobParams) error {
	set := make([]string, 0, 6)
	args := make([]interface{}, 0, 7)
	argPos := 1

	if params.Status != nil {
		set = append(set, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *params.Status)
		argPos++
	}
	if params.ProcessedRows != nil {
		set = append(set, fmt.Sprintf("processed_rows = $%d", argPos))
		args = append(args, *params.ProcessedRows)
		argPos++
	}
	if params.SuccessfulRows != nil {
		set = append(set, fmt.Sprintf("successful_rows = $%d", argPos))
		args = append(args, *params.SuccessfulRows)
		argPos++
	}
	if params.FailedRows != nil {
		set = append(set, fmt.Sprintf("failed_rows = $%d", argPos))
		args = append(args, *params.FailedRows)
		argPos++
	}
	if params.Errors != nil {
		set = append(set, fmt.Sprintf("errors = $%d", argPos))
		args = append(args, *params.Errors)
		argPos++
	}
	if params.FinishedAt != nil {
		set = append(set, fmt.Sprintf("finished_at = $%d", argPos))
		args = append(args, *params.FinishedAt)
		argPos++
	}

	if len(set) == 0 {
		return nil
	}

	query := fmt.Sprintf("UPDATE import_jobs SET %s WHERE id = $%d", strings.Join(set, ", "), argPos)
	args = append(args, id)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update import job: %w", err)
	}
	return nil
}

// List returns jobs newest first with the total count for pagination.
func (r *PostgresImportJobRepository) List(ctx context.Context, page, limit int) ([]models.ImportJob, int, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM import_jobs`); err != nil {
		return nil, 0, fmt.Errorf("count import jobs: %w", err)
	}
	const query = `SELECT id, status, total_rows, processed_rows, successful_rows, failed_rows, errors, payload, created_at, finished_at
FROM import_jobs ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	var jobs []models.ImportJob
	if err := r.db.SelectContext(ctx, &jobs, query, limit, (page-1)*limit); err != nil {
		return nil, 0, fmt.Errorf("list import jobs: %w", err)
	}
	return jobs, total, nil
}

// ListUnfinished fetches non-terminal jobs (used for cold start recovery).
func (r *PostgresImportJobRepository) ListUnfinished(ctx context.Context, limit int) ([]models.ImportJob, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `SELECT id, status, total_rows, processed_rows, successful_rows, failed_rows, errors, payload, created_at, finished_at
FROM import_jobs WHERE status IN ('pending', 'processing') ORDER BY created_at ASC LIMIT $1`
	var jobs []models.ImportJob
	if err := r.db.SelectContext(ctx, &jobs, query, limit); err != nil {
		return nil, fmt.Errorf("list unfinished import jobs: %w", err)
	}
	return jobs, nil
}
