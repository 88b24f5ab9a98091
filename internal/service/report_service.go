package service

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/impact-track/impact-api/internal/dto"
	"github.com/impact-track/impact-api/internal/models"
	appErrors "github.com/impact-track/impact-api/pkg/errors"
)

// PeriodPattern matches the YYYY-MM period form used across the API.
var PeriodPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

type reportStore interface {
	Create(ctx context.Context, report *models.Report) error
	Exists(ctx context.Context, organizationID, period string) (bool, error)
	ListByPeriod(ctx context.Context, period string) ([]models.Report, error)
	PeriodStats(ctx context.Context, period string) (*models.PeriodStats, error)
}

// ReportService handles the synchronous submit path and the dashboard
// aggregate projection.
type ReportService struct {
	repo   reportStore
	cache  *CacheService
	logger *zap.Logger
	ttl    time.Duration
}

// NewReportService constructs the report service.
func NewReportService(repo reportStore, cache *CacheService, ttl time.Duration, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ReportService{repo: repo, cache: cache, logger: logger, ttl: ttl}
}

// Submit commits one report. Duplicate (organizationId, period) keys fail
// with a conflict surfaced directly to the caller.
func (s *ReportService) Submit(ctx context.Context, req dto.SubmitReportRequest) (*dto.ReportResponse, error) {
	if !PeriodPattern.MatchString(req.Period) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "period must be in YYYY-MM form")
	}

	report := &models.Report{
		OrganizationID:  req.OrganizationID,
		Period:          req.Period,
		PeopleHelped:    req.PeopleHelped,
		EventsConducted: req.EventsConducted,
		FundsUtilized:   req.FundsUtilized,
	}
	if err := s.repo.Create(ctx, report); err != nil {
		if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrConflict.Code {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit report")
	}

	s.cache.Invalidate(ctx, StatsCacheKey(report.Period))
	return dto.NewReportResponse(report), nil
}

// PeriodStats returns the aggregate projection for one period. The second
// return value indicates cache utilisation.
func (s *ReportService) PeriodStats(ctx context.Context, period string) (*dto.PeriodStatsResponse, bool, error) {
	if !PeriodPattern.MatchString(period) {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "period must be in YYYY-MM form")
	}

	key := StatsCacheKey(period)
	cached := &dto.PeriodStatsResponse{}
	if hit, err := s.cache.Get(ctx, key, cached); err == nil && hit {
		return cached, true, nil
	}

	stats, err := s.repo.PeriodStats(ctx, period)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate period stats")
	}
	resp := &dto.PeriodStatsResponse{
		Period:            stats.Period,
		OrganizationCount: stats.OrganizationCount,
		TotalPeopleHelped: stats.TotalPeopleHelped,
		TotalEvents:       stats.TotalEvents,
		TotalFunds:        stats.TotalFunds,
		ReportCount:       stats.ReportCount,
	}

	if err := s.cache.Set(ctx, key, resp, s.ttl); err != nil {
		s.logger.Warn("stats cache set failed", zap.String("period", period), zap.Error(err))
	}
	return resp, false, nil
}

// ListByPeriod exposes the raw reports for one period, used by exports.
func (s *ReportService) ListByPeriod(ctx context.Context, period string) ([]models.Report, error) {
	if !PeriodPattern.MatchString(period) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "period must be in YYYY-MM form")
	}
	reports, err := s.repo.ListByPeriod(ctx, period)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
	}
	return reports, nil
}

// StatsCacheKey builds the cache key for one period's aggregate.
func StatsCacheKey(period string) string {
	return fmt.Sprintf("stats:%s", period)
}
