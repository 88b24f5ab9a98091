package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/impact-track/impact-api/internal/dto"
	appErrors "github.com/impact-track/impact-api/pkg/errors"
	"github.com/impact-track/impact-api/pkg/response"
)

type reportSubmitter interface {
	Submit(ctx context.Context, req dto.SubmitReportRequest) (*dto.ReportResponse, error)
	PeriodStats(ctx context.Context, period string) (*dto.PeriodStatsResponse, bool, error)
}

// ReportHandler exposes the synchronous submit path and the dashboard stats.
type ReportHandler struct {
	reports reportSubmitter
}

// NewReportHandler constructs handler.
func NewReportHandler(reports reportSubmitter) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// SubmitReport godoc
// @Summary Submit a single impact report
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.SubmitReportRequest true "Report payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /reports [post]
func (h *ReportHandler) SubmitReport(c *gin.Context) {
	var req dto.SubmitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	report, err := h.reports.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, report)
}

// DashboardStats godoc
// @Summary Aggregate stats for one period
// @Tags Dashboard
// @Produce json
// @Param period query string true "Period in YYYY-MM form"
// @Success 200 {object} response.Envelope
// @Router /dashboard/stats [get]
func (h *ReportHandler) DashboardStats(c *gin.Context) {
	period := c.Query("period")
	if period == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "period required"))
		return
	}
	stats, cached, err := h.reports.PeriodStats(c.Request.Context(), period)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil, map[string]interface{}{"cached": cached})
}
