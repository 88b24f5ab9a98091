package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/impact-track/impact-api/internal/models"
	appErrors "github.com/impact-track/impact-api/pkg/errors"
)

// MemoryReportRepository stores reports in memory for local development and
// as the fallback when no database is configured. One mutex serialises the
// exists-check-then-insert so concurrent commits for the same key cannot
// both succeed.
type MemoryReportRepository struct {
	mu      sync.RWMutex
	reports map[string]models.Report
	keys    map[string]string // (organization_id, period) -> report id
}

// NewMemoryReportRepository constructs an empty in-memory store.
func NewMemoryReportRepository() *MemoryReportRepository {
	return &MemoryReportRepository{
		reports: make(map[string]models.Report),
		keys:    make(map[string]string),
	}
}

func reportKey(organizationID, period string) string {
	return organizationID + "|" + period
}

// Create commits a report, failing with ErrConflict when the key is taken.
func (r *MemoryReportRepository) Create(_ context.Context, report *models.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := reportKey(report.OrganizationID, report.Period)
	if _, taken := r.keys[key]; taken {
		return appErrors.Clone(appErrors.ErrConflict,
			fmt.Sprintf("report for %s in %s already exists", report.OrganizationID, report.Period))
	}
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.SubmittedAt.IsZero() {
		report.SubmittedAt = time.Now().UTC()
	}
	r.reports[report.ID] = *report
	r.keys[key] = report.ID
	return nil
}

// Exists reports whether a report is committed for the given key.
func (r *MemoryReportRepository) Exists(_ context.Context, organizationID, period string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.keys[reportKey(organizationID, period)]
	return ok, nil
}

// ListByPeriod returns all committed reports for one period.
func (r *MemoryReportRepository) ListByPeriod(_ context.Context, period string) ([]models.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Report
	for _, report := range r.reports {
		if report.Period == period {
			out = append(out, report)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].OrganizationID < out[j].OrganizationID
	})
	return out, nil
}

// PeriodStats aggregates one period's reports.
func (r *MemoryReportRepository) PeriodStats(ctx context.Context, period string) (*models.PeriodStats, error) {
	reports, err := r.ListByPeriod(ctx, period)
	if err != nil {
		return nil, err
	}

	stats := models.PeriodStats{Period: period}
	orgs := make(map[string]struct{})
	for _, report := range reports {
		orgs[report.OrganizationID] = struct{}{}
		stats.TotalPeopleHelped += report.PeopleHelped
		stats.TotalEvents += report.EventsConducted
		stats.TotalFunds += report.FundsUtilized
		stats.ReportCount++
	}
	stats.OrganizationCount = len(orgs)
	return &stats, nil
}
