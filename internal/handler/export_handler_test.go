package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/impact-track/impact-api/internal/service"
	appErrors "github.com/impact-track/impact-api/pkg/errors"
)

type fakeExportSrv struct {
	result     *service.ExportResult
	err        error
	lastPeriod string
	lastFormat service.ExportFormat
}

func (f *fakeExportSrv) Monthly(_ context.Context, period string, format service.ExportFormat) (*service.ExportResult, error) {
	f.lastPeriod = period
	f.lastFormat = format
	return f.result, f.err
}

func TestExportHandlerRequiresPeriod(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewExportHandler(&fakeExportSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/exports/monthly", nil)

	handler.MonthlyExport(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportHandlerDefaultsToCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	exports := &fakeExportSrv{
		result: &service.ExportResult{
			Content:     []byte("Organization,Period\n"),
			Filename:    "impact-reports-2024-03.csv",
			ContentType: "text/csv",
		},
	}
	handler := NewExportHandler(exports)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/exports/monthly?period=2024-03", nil)

	handler.MonthlyExport(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.ExportFormatCSV, exports.lastFormat)
	assert.Equal(t, "2024-03", exports.lastPeriod)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "impact-reports-2024-03.csv")
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
}

func TestExportHandlerUnsupportedFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewExportHandler(&fakeExportSrv{
		err: appErrors.Clone(appErrors.ErrValidation, "unsupported export format"),
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/exports/monthly?period=2024-03&format=xlsx", nil)

	handler.MonthlyExport(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
