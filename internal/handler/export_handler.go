package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/impact-track/impact-api/internal/service"
	appErrors "github.com/impact-track/impact-api/pkg/errors"
	"github.com/impact-track/impact-api/pkg/response"
)

type monthlyExporter interface {
	Monthly(ctx context.Context, period string, format service.ExportFormat) (*service.ExportResult, error)
}

// ExportHandler streams period exports.
type ExportHandler struct {
	exports monthlyExporter
}

// NewExportHandler constructs handler.
func NewExportHandler(exports monthlyExporter) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// MonthlyExport godoc
// @Summary Download one period's reports as CSV or PDF
// @Tags Exports
// @Produce octet-stream
// @Param period query string true "Period in YYYY-MM form"
// @Param format query string false "csv or pdf (default csv)"
// @Success 200 {file} binary
// @Router /exports/monthly [get]
func (h *ExportHandler) MonthlyExport(c *gin.Context) {
	period := c.Query("period")
	if period == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "period required"))
		return
	}
	format := service.ExportFormat(c.DefaultQuery("format", string(service.ExportFormatCSV)))

	result, err := h.exports.Monthly(c.Request.Context(), period, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
