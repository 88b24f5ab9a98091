package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/impact-track/impact-api/internal/models"
	appErrors "github.com/impact-track/impact-api/pkg/errors"
	"github.com/impact-track/impact-api/pkg/export"
)

// ExportFormat enumerates supported download formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

var exportHeaders = []string{"Organization", "Period", "People Helped", "Events Conducted", "Funds Utilized", "Submitted At"}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult carries a rendered document and its transport metadata.
type ExportResult struct {
	Content     []byte
	Filename    string
	ContentType string
}

// ExportService renders one period's committed reports as a download.
type ExportService struct {
	reports *ReportService
	csv     csvRenderer
	pdf     pdfRenderer
	logger  *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(reports *ReportService, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{reports: reports, csv: csv, pdf: pdf, logger: logger}
}

// Monthly renders the period's reports in the requested format.
func (s *ExportService) Monthly(ctx context.Context, period string, format ExportFormat) (*ExportResult, error) {
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	records, err := s.reports.ListByPeriod(ctx, period)
	if err != nil {
		return nil, err
	}

	dataset := buildMonthlyDataset(records)
	title := fmt.Sprintf("Impact Reports %s", period)

	switch format {
	case ExportFormatPDF:
		content, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportResult{
			Content:     content,
			Filename:    fmt.Sprintf("impact-reports-%s.pdf", period),
			ContentType: "application/pdf",
		}, nil
	default:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportResult{
			Content:     content,
			Filename:    fmt.Sprintf("impact-reports-%s.csv", period),
			ContentType: "text/csv",
		}, nil
	}
}

func buildMonthlyDataset(records []models.Report) export.Dataset {
	rows := make([]map[string]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, map[string]string{
			"Organization":     r.OrganizationID,
			"Period":           r.Period,
			"People Helped":    strconv.Itoa(r.PeopleHelped),
			"Events Conducted": strconv.Itoa(r.EventsConducted),
			"Funds Utilized":   strconv.FormatFloat(r.FundsUtilized, 'f', 2, 64),
			"Submitted At":     r.SubmittedAt.UTC().Format("2006-01-02 15:04"),
		})
	}
	return export.Dataset{Headers: exportHeaders, Rows: rows}
}
