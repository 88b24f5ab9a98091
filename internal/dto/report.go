package dto

import (
	"time"

	"github.com/impact-track/impact-api/internal/models"
)

// SubmitReportRequest captures POST /reports payload.
type SubmitReportRequest struct {
	OrganizationID  string  `json:"organizationId" binding:"required"`
	Period          string  `json:"period" binding:"required,period"`
	PeopleHelped    int     `json:"peopleHelped" binding:"min=0"`
	EventsConducted int     `json:"eventsConducted" binding:"min=0"`
	FundsUtilized   float64 `json:"fundsUtilized" binding:"min=0"`
}

// ReportResponse is the committed report returned to the caller.
type ReportResponse struct {
	ID              string    `json:"id"`
	OrganizationID  string    `json:"organizationId"`
	Period          string    `json:"period"`
	PeopleHelped    int       `json:"peopleHelped"`
	EventsConducted int       `json:"eventsConducted"`
	FundsUtilized   float64   `json:"fundsUtilized"`
	SubmittedAt     time.Time `json:"submittedAt"`
}

// NewReportResponse maps a committed report to its response form.
func NewReportResponse(report *models.Report) *ReportResponse {
	return &ReportResponse{
		ID:              report.ID,
		OrganizationID:  report.OrganizationID,
		Period:          report.Period,
		PeopleHelped:    report.PeopleHelped,
		EventsConducted: report.EventsConducted,
		FundsUtilized:   report.FundsUtilized,
		SubmittedAt:     report.SubmittedAt,
	}
}

// PeriodStatsResponse is the dashboard aggregate projection for one period.
type PeriodStatsResponse struct {
	Period            string  `json:"period"`
	OrganizationCount int     `json:"organizationCount"`
	TotalPeopleHelped int     `json:"totalPeopleHelped"`
	TotalEvents       int     `json:"totalEvents"`
	TotalFunds        float64 `json:"totalFunds"`
	ReportCount       int     `json:"reportCount"`
}
