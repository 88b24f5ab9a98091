package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/impact-track/impact-api/internal/dto"
	"github.com/impact-track/impact-api/internal/importer"
	"github.com/impact-track/impact-api/internal/models"
	"github.com/impact-track/impact-api/internal/repository"
	appErrors "github.com/impact-track/impact-api/pkg/errors"
	"github.com/impact-track/impact-api/pkg/jobs"
)

const importJobType = "bulk_import"

type importJobStore interface {
	Create(ctx context.Context, job *models.ImportJob) error
	GetByID(ctx context.Context, id string) (*models.ImportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateImportJobParams) error
	List(ctx context.Context, page, limit int) ([]models.ImportJob, int, error)
	ListUnfinished(ctx context.Context, limit int) ([]models.ImportJob, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// ImportService owns the bulk import job lifecycle: acceptance, status
// polling, and cold start recovery. Row processing happens in ImportWorker.
type ImportService struct {
	repo   importJobStore
	queue  jobDispatcher
	logger *zap.Logger
}

// NewImportService constructs the import service.
func NewImportService(repo importJobStore, queue jobDispatcher, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{repo: repo, queue: queue, logger: logger}
}

// CreateJob accepts a raw CSV payload, persists a pending job, and enqueues
// processing. It returns before any row is processed. A payload with zero
// data rows is rejected at creation time rather than producing an instantly
// completed job.
func (s *ImportService) CreateJob(ctx context.Context, payload string) (*dto.ImportJobResponse, error) {
	_, rows := importer.SplitPayload(payload)
	if len(rows) == 0 {
		return nil, appErrors.ErrEmptyPayload
	}

	job := &models.ImportJob{
		Status:    models.ImportStatusPending,
		TotalRows: len(rows),
		Errors:    models.RowErrors{},
		Payload:   strings.Join(rows, "\n"),
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create import job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: importJobType}); err != nil {
		failed := models.ImportStatusFailed
		now := time.Now().UTC()
		_ = s.repo.Update(ctx, job.ID, repository.UpdateImportJobParams{
			Status:     &failed,
			FinishedAt: &now,
		})
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue import job")
	}

	return &dto.ImportJobResponse{ID: job.ID, Status: job.Status, TotalRows: job.TotalRows}, nil
}

// GetStatus returns the most recently persisted snapshot. It never waits on
// in-flight processing.
func (s *ImportService) GetStatus(ctx context.Context, id string) (*dto.ImportStatusResponse, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrNotFound.Code {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load import job")
	}
	return dto.NewImportStatusResponse(job), nil
}

// List returns recent jobs newest first.
func (s *ImportService) List(ctx context.Context, page, limit int) ([]dto.ImportStatusResponse, *models.Pagination, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	records, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list import jobs")
	}
	out := make([]dto.ImportStatusResponse, 0, len(records))
	for i := range records {
		out = append(out, *dto.NewImportStatusResponse(&records[i]))
	}
	return out, &models.Pagination{Page: page, PageSize: limit, TotalCount: total}, nil
}

// RecoverUnfinished replays non-terminal jobs after a process restart. The
// worker resumes each from its persisted processedRows offset.
func (s *ImportService) RecoverUnfinished(ctx context.Context) {
	pending, err := s.repo.ListUnfinished(ctx, 50)
	if err != nil {
		s.logger.Sugar().Warnw("failed to recover unfinished import jobs", "error", err)
		return
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: importJobType}); err != nil {
			s.logger.Sugar().Warnw("failed to requeue import job", "job_id", job.ID, "error", err)
		}
	}
}

// ImportWorkerConfig tunes the chunked batch scheduler.
type ImportWorkerConfig struct {
	BatchSize  int
	ChunkDelay time.Duration
	MaxRetries int
}

// ImportWorker drives one job from pending to completion by processing
// fixed-size chunks of rows, each chunk committed to the job record as one
// atomic progress update.
type ImportWorker struct {
	repo    importJobStore
	reports reportStore
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	cfg     ImportWorkerConfig
}

// NewImportWorker constructs a worker.
func NewImportWorker(repo importJobStore, reports reportStore, cache *CacheService, metrics *MetricsService, cfg ImportWorkerConfig, logger *zap.Logger) *ImportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	if cfg.ChunkDelay < 0 {
		cfg.ChunkDelay = 0
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &ImportWorker{
		repo:    repo,
		reports: reports,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
	}
}

// Handle processes a queued import job. Rows are handled strictly in input
// order, one chunk of a given job at a time; row-level failures are recorded
// in the job error log and never fail the job.
func (w *ImportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrNotFound.Code {
			w.logger.Sugar().Warnw("dropping import job with no record", "job_id", job.ID)
			return nil
		}
		return err
	}
	if record.Status.Terminal() {
		return nil
	}

	rows := strings.Split(record.Payload, "\n")
	if len(rows) != record.TotalRows {
		// Payload no longer matches the row count fixed at creation; this is
		// the reserved job-level failure, not a row-level one.
		return w.failJob(ctx, record.ID)
	}

	w.metrics.ImportJobStarted()
	defer w.metrics.ImportJobFinished()

	processed := record.ProcessedRows
	successful := record.SuccessfulRows
	failed := record.FailedRows
	errLog := append(models.RowErrors{}, record.Errors...)
	firstChunk := true

	for processed < record.TotalRows {
		if !firstChunk {
			if err := w.waitChunkDelay(ctx); err != nil {
				// Shutdown mid-job: the last persisted chunk remains the
				// observable state and recovery resumes from it.
				return err
			}
		}
		firstChunk = false

		chunkStart := time.Now()
		end := processed + w.cfg.BatchSize
		if end > record.TotalRows {
			end = record.TotalRows
		}

		var chunkSucceeded, chunkFailed int
		touched := make(map[string]struct{})

		for i := processed; i < end; i++ {
			row, parseErr := importer.ParseRow(rows[i])
			if parseErr != nil {
				failed++
				chunkFailed++
				errLog = append(errLog, fmt.Sprintf("Row %d: %s", i+1, parseErr.Error()))
				processed++
				continue
			}

			exists, err := w.reports.Exists(ctx, row.OrganizationID, row.Period)
			if err != nil {
				return w.retryOrFail(ctx, record.ID, job.Attempt, err)
			}
			if exists {
				failed++
				chunkFailed++
				errLog = append(errLog, fmt.Sprintf("Row %d: Duplicate entry for %s - %s", i+1, row.OrganizationID, row.Period))
				processed++
				continue
			}

			createErr := w.reports.Create(ctx, &models.Report{
				OrganizationID:  row.OrganizationID,
				Period:          row.Period,
				PeopleHelped:    row.PeopleHelped,
				EventsConducted: row.EventsConducted,
				FundsUtilized:   row.FundsUtilized,
			})
			if createErr != nil {
				if appErr := appErrors.FromError(createErr); appErr.Code == appErrors.ErrConflict.Code {
					// Lost the race with a concurrent writer despite the
					// pre-check; same outcome as a detected duplicate.
					failed++
					chunkFailed++
					errLog = append(errLog, fmt.Sprintf("Row %d: Duplicate entry for %s - %s", i+1, row.OrganizationID, row.Period))
					processed++
					continue
				}
				return w.retryOrFail(ctx, record.ID, job.Attempt, createErr)
			}
			successful++
			chunkSucceeded++
			touched[row.Period] = struct{}{}
			processed++
		}

		status := models.ImportStatusProcessing
		params := repository.UpdateImportJobParams{
			Status:         &status,
			ProcessedRows:  &processed,
			SuccessfulRows: &successful,
			FailedRows:     &failed,
			Errors:         &errLog,
		}
		if processed == record.TotalRows {
			completed := models.ImportStatusCompleted
			now := time.Now().UTC()
			params.Status = &completed
			params.FinishedAt = &now
		}
		if err := w.repo.Update(ctx, record.ID, params); err != nil {
			return w.retryOrFail(ctx, record.ID, job.Attempt, err)
		}

		for period := range touched {
			w.cache.Invalidate(ctx, StatsCacheKey(period))
		}
		w.metrics.RecordImportRows(chunkSucceeded, chunkFailed)
		w.metrics.ObserveChunk(time.Since(chunkStart))
	}

	w.logger.Sugar().Infow("import job finished",
		"job_id", record.ID,
		"total", record.TotalRows,
		"successful", successful,
		"failed", failed,
	)
	return nil
}

func (w *ImportWorker) waitChunkDelay(ctx context.Context) error {
	if w.cfg.ChunkDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(w.cfg.ChunkDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// retryOrFail lets the queue retry transient store faults until the attempt
// budget is spent, then marks the job failed so it does not stay non-terminal
// forever.
func (w *ImportWorker) retryOrFail(ctx context.Context, jobID string, attempt int, err error) error {
	if attempt < w.cfg.MaxRetries {
		return err
	}
	w.logger.Sugar().Errorw("import job exhausted retries", "job_id", jobID, "error", err)
	if failErr := w.failJob(ctx, jobID); failErr != nil {
		w.logger.Sugar().Warnw("failed to mark import job failed", "job_id", jobID, "error", failErr)
	}
	return err
}

func (w *ImportWorker) failJob(ctx context.Context, jobID string) error {
	failed := models.ImportStatusFailed
	now := time.Now().UTC()
	return w.repo.Update(ctx, jobID, repository.UpdateImportJobParams{
		Status:     &failed,
		FinishedAt: &now,
	})
}
