package models

import (
	"time"
)

// TimekeepingRecord is one worked-time fact: an employee worked some hours
// on a given day under a job group. The triple (Date, EmployeeID, JobGroup)
// is the natural key in the store.
type TimekeepingRecord struct {
	Date        time.Time `json:"date"`
	HoursWorked float64   `json:"hours_worked"`
	EmployeeID  int       `json:"employee_id"`
	JobGroup    string    `json:"job_group"`
}

// ReportTrailer is the last row of an input file. It carries no timekeeping
// data, only the integer identifying the submission.
type ReportTrailer struct {
	ReportID int `json:"report_id"`
}

// ReportBatch is the parsed form of one input file: its data rows with the
// trailer split out.
type ReportBatch struct {
	Records []TimekeepingRecord
	Trailer ReportTrailer
}

func (b *ReportBatch) ReportID() int {
	return b.Trailer.ReportID
}

// UploadFile is one submitted file: its name and raw content. A batch is an
// ordered slice of these.
type UploadFile struct {
	Name    string
	Content []byte
}

// PaidRecord is one row of the store's join against the rate table:
// the record's date, its employee and the pay it earned (hours x rate).
type PaidRecord struct {
	Date       time.Time
	EmployeeID int
	AmountPaid float64
}

// PayPeriodSummaryRow is one line of the payroll report.
type PayPeriodSummaryRow struct {
	EmployeeID int     `json:"employee_id"`
	PayPeriod  string  `json:"pay_period"`
	AmountPaid float64 `json:"amount_paid"`
}

