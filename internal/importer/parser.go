package importer

import (
	"errors"
	"strconv"
	"strings"
)

// Expected column order: organizationId, period, peopleHelped, eventsConducted, fundsUtilized.
const minColumns = 5

// Row-level parse failures. The scheduler records their messages verbatim
// in the job error log.
var (
	ErrColumnCount  = errors.New("invalid column count")
	ErrNumberFormat = errors.New("invalid number format")
)

// Row is one validated bulk import line.
type Row struct {
	OrganizationID  string
	Period          string
	PeopleHelped    int
	EventsConducted int
	FundsUtilized   float64
}

// ParseRow turns a raw comma-delimited line into a validated Row.
// Fields are trimmed before validation. Pure function, no side effects.
func ParseRow(line string) (Row, error) {
	cols := strings.Split(line, ",")
	for i := range cols {
		cols[i] = strings.TrimSpace(cols[i])
	}
	if len(cols) < minColumns {
		return Row{}, ErrColumnCount
	}

	people, err := strconv.Atoi(cols[2])
	if err != nil || people < 0 {
		return Row{}, ErrNumberFormat
	}
	events, err := strconv.Atoi(cols[3])
	if err != nil || events < 0 {
		return Row{}, ErrNumberFormat
	}
	funds, err := strconv.ParseFloat(cols[4], 64)
	if err != nil || funds < 0 {
		return Row{}, ErrNumberFormat
	}

	return Row{
		OrganizationID:  cols[0],
		Period:          cols[1],
		PeopleHelped:    people,
		EventsConducted: events,
		FundsUtilized:   funds,
	}, nil
}

// SplitPayload separates a raw CSV payload into its header line and data rows.
// Empty trailing lines are dropped; interior blank lines are kept so that row
// indexes in error messages keep matching the uploaded file.
func SplitPayload(raw string) (header string, rows []string) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", nil
	}
	lines := strings.Split(trimmed, "\n")
	header = lines[0]
	if len(lines) > 1 {
		rows = lines[1:]
	}
	return header, rows
}
