package dto

import (
	"time"

	"github.com/impact-track/impact-api/internal/models"
)

// ImportJobResponse is returned after a bulk upload is accepted.
type ImportJobResponse struct {
	ID        string              `json:"id"`
	Status    models.ImportStatus `json:"status"`
	TotalRows int                 `json:"totalRows"`
}

// ImportStatusResponse exposes the latest persisted job snapshot.
type ImportStatusResponse struct {
	ID             string              `json:"id"`
	Status         models.ImportStatus `json:"status"`
	TotalRows      int                 `json:"totalRows"`
	ProcessedRows  int                 `json:"processedRows"`
	SuccessfulRows int                 `json:"successfulRows"`
	FailedRows     int                 `json:"failedRows"`
	Errors         []string            `json:"errors"`
	CreatedAt      time.Time           `json:"createdAt"`
	FinishedAt     *time.Time          `json:"finishedAt,omitempty"`
}

// NewImportStatusResponse maps a job snapshot to its response form.
func NewImportStatusResponse(job *models.ImportJob) *ImportStatusResponse {
	errs := make([]string, len(job.Errors))
	copy(errs, job.Errors)
	return &ImportStatusResponse{
		ID:             job.ID,
		Status:         job.Status,
		TotalRows:      job.TotalRows,
		ProcessedRows:  job.ProcessedRows,
		SuccessfulRows: job.SuccessfulRows,
		FailedRows:     job.FailedRows,
		Errors:         errs,
		CreatedAt:      job.CreatedAt,
		FinishedAt:     job.FinishedAt,
	}
}
