package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ledgerline/payroll/internal/models"
)

// DateLayout is the format of the date column in input files.
const DateLayout = "02/01/2006"

// Input files carry these four columns, in this order. The human-readable
// names are normalized to identifier-safe ones (hours worked -> hours_worked)
// in the parsed records.
var expectedHeader = []string{"date", "hours worked", "employee id", "job group"}

// Parse reads one timekeeping extract and returns its data rows plus the
// report identifier from the trailer row. The trailer is the last row of the
// file; its second cell (under the "hours worked" header) holds the id. Parse
// performs no I/O beyond the reader and has no side effects.
func Parse(name string, r io.Reader) (*models.ReportBatch, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(expectedHeader)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, &models.MalformedInputError{File: name, Detail: "file is empty"}
		}
		return nil, &models.MalformedInputError{File: name, Detail: "failed to read header", Err: err}
	}

	if err := checkHeader(header); err != nil {
		return nil, &models.MalformedInputError{File: name, Detail: "unexpected header", Err: err}
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &models.MalformedInputError{File: name, Detail: "failed to read record", Err: err}
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, &models.MalformedInputError{File: name, Detail: "missing trailer row"}
	}

	// The last row is the trailer by position, never a data row.
	trailerRow := rows[len(rows)-1]
	reportID, err := parseReportID(trailerRow[1])
	if err != nil {
		return nil, &models.MalformedInputError{File: name, Detail: "failed to parse report id from trailer", Err: err}
	}

	records := make([]models.TimekeepingRecord, 0, len(rows)-1)
	for i, row := range rows[:len(rows)-1] {
		record, err := parseRecord(row)
		if err != nil {
			return nil, &models.MalformedInputError{File: name, Detail: fmt.Sprintf("row %d", i+2), Err: err}
		}
		records = append(records, record)
	}

	return &models.ReportBatch{
		Records: records,
		Trailer: models.ReportTrailer{ReportID: reportID},
	}, nil
}

func checkHeader(header []string) error {
	for i, want := range expectedHeader {
		got := strings.ToLower(strings.TrimSpace(header[i]))
		if got != want {
			return fmt.Errorf("column %d: expected %q, got %q", i+1, want, header[i])
		}
	}
	return nil
}

func parseRecord(row []string) (models.TimekeepingRecord, error) {
	date, err := time.Parse(DateLayout, strings.TrimSpace(row[0]))
	if err != nil {
		return models.TimekeepingRecord{}, fmt.Errorf("invalid date %q: %w", row[0], err)
	}

	hoursWorked, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
	if err != nil {
		return models.TimekeepingRecord{}, fmt.Errorf("invalid hours worked %q: %w", row[1], err)
	}
	if hoursWorked < 0 {
		return models.TimekeepingRecord{}, fmt.Errorf("negative hours worked %q", row[1])
	}

	employeeID, err := strconv.Atoi(strings.TrimSpace(row[2]))
	if err != nil {
		return models.TimekeepingRecord{}, fmt.Errorf("invalid employee id %q: %w", row[2], err)
	}

	jobGroup := strings.TrimSpace(row[3])
	if jobGroup == "" {
		return models.TimekeepingRecord{}, fmt.Errorf("empty job group")
	}

	return models.TimekeepingRecord{
		Date:        date,
		HoursWorked: hoursWorked,
		EmployeeID:  employeeID,
		JobGroup:    jobGroup,
	}, nil
}

// parseReportID coerces the trailer cell to a plain integer. The id sits in a
// numeric column, so an integral float form ("42.0") is accepted as well.
func parseReportID(cell string) (int, error) {
	cell = strings.TrimSpace(cell)

	if id, err := strconv.Atoi(cell); err == nil {
		return id, nil
	}

	f, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, fmt.Errorf("report id %q is not numeric: %w", cell, err)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("report id %q is not an integer", cell)
	}

	return int(f), nil
}
