package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/impact-track/impact-api/internal/repository"
	appErrors "github.com/impact-track/impact-api/pkg/errors"
	"github.com/impact-track/impact-api/pkg/export"
)

func newExportServiceForTest(t *testing.T) *ExportService {
	t.Helper()
	repo := repository.NewMemoryReportRepository()
	reports := NewReportService(repo, disabledCache(), time.Minute, zap.NewNop())

	ctx := context.Background()
	_, err := reports.Submit(ctx, submitRequest("NGO-1", "2024-03"))
	require.NoError(t, err)
	_, err = reports.Submit(ctx, submitRequest("NGO-2", "2024-03"))
	require.NoError(t, err)

	return NewExportService(reports, export.NewCSVExporter(), export.NewPDFExporter(), zap.NewNop())
}

func TestExportServiceMonthlyCSV(t *testing.T) {
	svc := newExportServiceForTest(t)

	result, err := svc.Monthly(context.Background(), "2024-03", ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "impact-reports-2024-03.csv", result.Filename)
	assert.Equal(t, "text/csv", result.ContentType)

	lines := strings.Split(strings.TrimSpace(string(result.Content)), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Organization")
	assert.Contains(t, lines[1], "NGO-1")
	assert.Contains(t, lines[1], "1200.50")
	assert.Contains(t, lines[2], "NGO-2")
}

func TestExportServiceMonthlyPDF(t *testing.T) {
	svc := newExportServiceForTest(t)

	result, err := svc.Monthly(context.Background(), "2024-03", ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "impact-reports-2024-03.pdf", result.Filename)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasPrefix(string(result.Content), "%PDF"))
}

func TestExportServiceMonthlyEmptyPeriod(t *testing.T) {
	svc := newExportServiceForTest(t)

	result, err := svc.Monthly(context.Background(), "2030-01", ExportFormatCSV)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(result.Content)), "\n")
	assert.Len(t, lines, 1) // header only
}

func TestExportServiceMonthlyValidation(t *testing.T) {
	svc := newExportServiceForTest(t)

	_, err := svc.Monthly(context.Background(), "2024-03", ExportFormat("xlsx"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Monthly(context.Background(), "bad-period", ExportFormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
