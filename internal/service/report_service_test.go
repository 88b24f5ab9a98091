package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/impact-track/impact-api/internal/dto"
	"github.com/impact-track/impact-api/internal/repository"
	appErrors "github.com/impact-track/impact-api/pkg/errors"
)

// memoryCache is a CacheRepository backed by a map, enough to observe hit,
// miss, and invalidation behavior without Redis.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = raw
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func submitRequest(org, period string) dto.SubmitReportRequest {
	return dto.SubmitReportRequest{
		OrganizationID:  org,
		Period:          period,
		PeopleHelped:    150,
		EventsConducted: 3,
		FundsUtilized:   1200.50,
	}
}

func TestReportServiceSubmit(t *testing.T) {
	repo := repository.NewMemoryReportRepository()
	svc := NewReportService(repo, disabledCache(), time.Minute, zap.NewNop())

	resp, err := svc.Submit(context.Background(), submitRequest("NGO-1", "2024-03"))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "NGO-1", resp.OrganizationID)
	assert.Equal(t, 150, resp.PeopleHelped)
	assert.False(t, resp.SubmittedAt.IsZero())
}

func TestReportServiceSubmitConflict(t *testing.T) {
	repo := repository.NewMemoryReportRepository()
	svc := NewReportService(repo, disabledCache(), time.Minute, zap.NewNop())

	_, err := svc.Submit(context.Background(), submitRequest("NGO-1", "2024-03"))
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), submitRequest("NGO-1", "2024-03"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	// Same organization in a different period is a distinct key.
	_, err = svc.Submit(context.Background(), submitRequest("NGO-1", "2024-04"))
	require.NoError(t, err)
}

func TestReportServiceSubmitInvalidPeriod(t *testing.T) {
	svc := NewReportService(repository.NewMemoryReportRepository(), disabledCache(), time.Minute, zap.NewNop())

	for _, period := range []string{"2024-13", "2024-3", "202403", "2024-00", "march"} {
		_, err := svc.Submit(context.Background(), submitRequest("NGO-1", period))
		require.Error(t, err, "period %q", period)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestReportServicePeriodStats(t *testing.T) {
	repo := repository.NewMemoryReportRepository()
	svc := NewReportService(repo, disabledCache(), time.Minute, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Submit(ctx, submitRequest("NGO-1", "2024-03"))
	require.NoError(t, err)
	_, err = svc.Submit(ctx, submitRequest("NGO-2", "2024-03"))
	require.NoError(t, err)

	stats, cached, err := svc.PeriodStats(ctx, "2024-03")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2, stats.ReportCount)
	assert.Equal(t, 2, stats.OrganizationCount)
	assert.Equal(t, 300, stats.TotalPeopleHelped)
	assert.InDelta(t, 2401.0, stats.TotalFunds, 0.001)
}

func TestReportServicePeriodStatsEmptyPeriod(t *testing.T) {
	svc := NewReportService(repository.NewMemoryReportRepository(), disabledCache(), time.Minute, zap.NewNop())

	stats, cached, err := svc.PeriodStats(context.Background(), "2030-01")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Zero(t, stats.ReportCount)
	assert.Zero(t, stats.TotalFunds)
}

func TestReportServicePeriodStatsCaching(t *testing.T) {
	repo := repository.NewMemoryReportRepository()
	cache := NewCacheService(newMemoryCache(), nil, time.Minute, zap.NewNop(), true)
	svc := NewReportService(repo, cache, time.Minute, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Submit(ctx, submitRequest("NGO-1", "2024-03"))
	require.NoError(t, err)

	first, cached, err := svc.PeriodStats(ctx, "2024-03")
	require.NoError(t, err)
	assert.False(t, cached)

	second, cached, err := svc.PeriodStats(ctx, "2024-03")
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, first.ReportCount, second.ReportCount)

	// A new commit invalidates the period's cached aggregate.
	_, err = svc.Submit(ctx, submitRequest("NGO-2", "2024-03"))
	require.NoError(t, err)

	third, cached, err := svc.PeriodStats(ctx, "2024-03")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2, third.ReportCount)
}

func TestReportServiceListByPeriod(t *testing.T) {
	repo := repository.NewMemoryReportRepository()
	svc := NewReportService(repo, disabledCache(), time.Minute, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Submit(ctx, submitRequest("NGO-2", "2024-03"))
	require.NoError(t, err)
	_, err = svc.Submit(ctx, submitRequest("NGO-1", "2024-03"))
	require.NoError(t, err)
	_, err = svc.Submit(ctx, submitRequest("NGO-3", "2024-04"))
	require.NoError(t, err)

	reports, err := svc.ListByPeriod(ctx, "2024-03")
	require.NoError(t, err)
	require.Len(t, reports, 2)

	_, err = svc.ListByPeriod(ctx, "not-a-period")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
