package models

import "time"

// Report is one organization's committed impact metrics for one period.
// Reports are immutable once committed; the store owns the create-only lifecycle.
type Report struct {
	ID              string    `db:"id" json:"id"`
	OrganizationID  string    `db:"organization_id" json:"organizationId"`
	Period          string    `db:"period" json:"period"`
	PeopleHelped    int       `db:"people_helped" json:"peopleHelped"`
	EventsConducted int       `db:"events_conducted" json:"eventsConducted"`
	FundsUtilized   float64   `db:"funds_utilized" json:"fundsUtilized"`
	SubmittedAt     time.Time `db:"submitted_at" json:"submittedAt"`
}

// PeriodStats is the read-only aggregate projection over one period's reports.
type PeriodStats struct {
	Period            string  `db:"period" json:"period"`
	OrganizationCount int     `db:"organization_count" json:"organizationCount"`
	TotalPeopleHelped int     `db:"total_people_helped" json:"totalPeopleHelped"`
	TotalEvents       int     `db:"total_events" json:"totalEvents"`
	TotalFunds        float64 `db:"total_funds" json:"totalFunds"`
	ReportCount       int     `db:"report_count" json:"reportCount"`
}
