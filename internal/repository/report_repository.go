package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/impact-track/impact-api/internal/models"
	appErrors "github.com/impact-track/impact-api/pkg/errors"
)

const pqUniqueViolation = "23505"

// ReportRepository abstracts the report store. At most one committed report
// exists per (organization_id, period); Create enforces that atomically.
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	Exists(ctx context.Context, organizationID, period string) (bool, error)
	ListByPeriod(ctx context.Context, period string) ([]models.Report, error)
	PeriodStats(ctx context.Context, period string) (*models.PeriodStats, error)
}

// PostgresReportRepository persists reports in PostgreSQL.
type PostgresReportRepository struct {
	db *sqlx.DB
}

// NewPostgresReportRepository constructs the repository.
func NewPostgresReportRepository(db *sqlx.DB) *PostgresReportRepository {
	return &PostgresReportRepository{db: db}
}

// Create inserts a new report row. The unique index on
// (organization_id, period) makes check-then-insert a single atomic unit;
// a duplicate key surfaces as ErrConflict with no mutation.
func (r *PostgresReportRepository) Create(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.SubmittedAt.IsZero() {
		report.SubmittedAt = time.Now().UTC()
	}
	const query = `INSERT INTO reports (id, organization_id, period, people_helped, events_conducted, funds_utilized, submitted_at)
VALUES (:id, :organization_id, :period, :people_helped, :events_conducted, :funds_utilized, :submitted_at)`
	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return appErrors.Clone(appErrors.ErrConflict,
				fmt.Sprintf("report for %s in %s already exists", report.OrganizationID, report.Period))
		}
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

// Exists reports whether a report is committed for the given key.
func (r *PostgresReportRepository) Exists(ctx context.Context, organizationID, period string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM reports WHERE organization_id = $1 AND period = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, organizationID, period); err != nil {
		return false, fmt.Errorf("check report exists: %w", err)
	}
	return exists, nil
}

// ListByPeriod returns all committed reports for one period.
func (r *PostgresReportRepository) ListByPeriod(ctx context.Context, period string) ([]models.Report, error) {
	const query = `SELECT id, organization_id, period, people_helped, events_conducted, funds_utilized, submitted_at
FROM reports WHERE period = $1 ORDER BY organization_id ASC`
	var reports []models.Report
	if err := r.db.SelectContext(ctx, &reports, query, period); err != nil {
		return nil, fmt.Errorf("list reports by period: %w", err)
	}
	return reports, nil
}

// PeriodStats aggregates one period's reports in the database.
func (r *PostgresReportRepository) PeriodStats(ctx context.Context, period string) (*models.PeriodStats, error) {
	const query = `SELECT
	COUNT(DISTINCT organization_id) AS organization_count,
	COALESCE(SUM(people_helped), 0) AS total_people_helped,
	COALESCE(SUM(events_conducted), 0) AS total_events,
	COALESCE(SUM(funds_utilized), 0) AS total_funds,
	COUNT(*) AS report_count
FROM reports WHERE period = $1`
	stats := models.PeriodStats{Period: period}
	row := r.db.QueryRowxContext(ctx, query, period)
	if err := row.Scan(&stats.OrganizationCount, &stats.TotalPeopleHelped, &stats.TotalEvents, &stats.TotalFunds, &stats.ReportCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &stats, nil
		}
		return nil, fmt.Errorf("aggregate period stats: %w", err)
	}
	return &stats, nil
}
