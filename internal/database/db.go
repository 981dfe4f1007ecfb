package database

import (
	"github.com/ledgerline/payroll/internal/models"
)

const (
	FILE_STATUS_PROCESSING = "PROCESSING"
	FILE_STATUS_DONE       = "DONE"
	FILE_STATUS_REJECTED   = "REJECTED"
)

// DBManager is the persistence seam of the engine. It covers the three
// durable tables (timekeeping records, committed report ids, job group rates)
// plus the upload archive. Both the Postgres and the SQLite implementations
// behave identically; row-level key collisions are absorbed with
// insert-if-absent writes and never surface as errors.
type DBManager interface {
	// SetupSchema creates all tables if absent and seeds the rate table.
	// It is idempotent and safe to run on every startup.
	SetupSchema() error

	// CommittedReportIDs returns the full set of report ids ever committed.
	CommittedReportIDs() (map[int]bool, error)

	// HasReportID reports whether the id was already committed.
	HasReportID(id int) (bool, error)

	// CommitReportIDs durably adds the given ids. Re-adding an existing id
	// is a no-op, never an error.
	CommitReportIDs(ids []int) error

	// InsertTimekeepingRecords appends records. A record colliding with an
	// existing (date, employee_id, job_group) key is dropped silently; the
	// rest of the write proceeds.
	InsertTimekeepingRecords(records []models.TimekeepingRecord) error

	// JoinedWithRates returns every stored record inner-joined with its job
	// group's rate as (date, employee_id, hours_worked*rate), ordered by
	// employee_id then date ascending. Records whose job group has no rate
	// are excluded.
	JoinedWithRates() ([]models.PaidRecord, error)

	// RateOf returns the hourly rate for a job group, and whether the group
	// is known.
	RateOf(jobGroup string) (float64, bool, error)

	InsertFileRecord(fileName, checksum, batchID, status string) (int, error)
	UpdateFileStatus(fileID int, status string, detail string) error
	IsFileAlreadySubmitted(checksum string) (bool, error)

	Close()
}

// DefaultRates is the seed data for the job group rate table.
var DefaultRates = map[string]float64{
	"A": 20,
	"B": 30,
}
