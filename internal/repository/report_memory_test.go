package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impact-track/impact-api/internal/models"
	appErrors "github.com/impact-track/impact-api/pkg/errors"
)

func TestMemoryReportRepositoryUniqueness(t *testing.T) {
	repo := NewMemoryReportRepository()
	ctx := context.Background()

	first := &models.Report{OrganizationID: "NGO-1", Period: "2024-03", PeopleHelped: 10}
	require.NoError(t, repo.Create(ctx, first))
	require.NotEmpty(t, first.ID)

	second := &models.Report{OrganizationID: "NGO-1", Period: "2024-03", PeopleHelped: 99}
	err := repo.Create(ctx, second)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	exists, err := repo.Exists(ctx, "NGO-1", "2024-03")
	require.NoError(t, err)
	assert.True(t, exists)

	reports, err := repo.ListByPeriod(ctx, "2024-03")
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, 10, reports[0].PeopleHelped)
}

func TestMemoryReportRepositoryConcurrentCommits(t *testing.T) {
	repo := NewMemoryReportRepository()
	ctx := context.Background()

	const attempts = 32
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- repo.Create(ctx, &models.Report{OrganizationID: "NGO-1", Period: "2024-03"})
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, conflicted int
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
		conflicted++
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, conflicted)
}

func TestMemoryReportRepositoryPeriodStats(t *testing.T) {
	repo := NewMemoryReportRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Report{OrganizationID: "NGO-1", Period: "2024-03", PeopleHelped: 10, EventsConducted: 2, FundsUtilized: 500.50}))
	require.NoError(t, repo.Create(ctx, &models.Report{OrganizationID: "NGO-2", Period: "2024-03", PeopleHelped: 5, EventsConducted: 1, FundsUtilized: 100}))
	require.NoError(t, repo.Create(ctx, &models.Report{OrganizationID: "NGO-1", Period: "2024-04", PeopleHelped: 7}))

	stats, err := repo.PeriodStats(ctx, "2024-03")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.OrganizationCount)
	assert.Equal(t, 15, stats.TotalPeopleHelped)
	assert.Equal(t, 3, stats.TotalEvents)
	assert.Equal(t, 600.50, stats.TotalFunds)
	assert.Equal(t, 2, stats.ReportCount)

	empty, err := repo.PeriodStats(ctx, "2030-01")
	require.NoError(t, err)
	assert.Zero(t, empty.ReportCount)
}
