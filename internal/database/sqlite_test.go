package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/payroll/internal/models"
)

func newTestManager(t *testing.T) *SQLiteDBManager {
	t.Helper()

	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	manager := NewSQLiteDBManager(db)
	require.NoError(t, manager.SetupSchema())
	return manager
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSetupSchemaIsIdempotent(t *testing.T) {
	manager := newTestManager(t)

	// Re-running setup must not fail or duplicate seed rows.
	require.NoError(t, manager.SetupSchema())

	rate, ok, err := manager.RateOf("A")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 20.0, rate)

	rate, ok, err = manager.RateOf("B")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 30.0, rate)
}

func TestRateOfUnknownJobGroup(t *testing.T) {
	manager := newTestManager(t)

	_, ok, err := manager.RateOf("Z")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInsertTimekeepingRecordsIsIdempotentPerKey(t *testing.T) {
	manager := newTestManager(t)

	record := models.TimekeepingRecord{
		Date:        day(2019, time.November, 14),
		HoursWorked: 7.5,
		EmployeeID:  1,
		JobGroup:    "A",
	}

	require.NoError(t, manager.InsertTimekeepingRecords([]models.TimekeepingRecord{record}))
	// Same (date, employee, job group) fact again, e.g. from a re-uploaded
	// corrected batch.
	require.NoError(t, manager.InsertTimekeepingRecords([]models.TimekeepingRecord{record}))

	paid, err := manager.JoinedWithRates()
	require.NoError(t, err)
	require.Len(t, paid, 1)
	assert.Equal(t, 150.0, paid[0].AmountPaid)
}

func TestJoinedWithRatesOrderingAndInnerJoin(t *testing.T) {
	manager := newTestManager(t)

	require.NoError(t, manager.InsertTimekeepingRecords([]models.TimekeepingRecord{
		{Date: day(2019, time.November, 20), HoursWorked: 2, EmployeeID: 2, JobGroup: "B"},
		{Date: day(2019, time.November, 5), HoursWorked: 1, EmployeeID: 2, JobGroup: "A"},
		{Date: day(2019, time.November, 10), HoursWorked: 3, EmployeeID: 1, JobGroup: "A"},
		// No rate for job group Z: excluded from the join entirely.
		{Date: day(2019, time.November, 11), HoursWorked: 8, EmployeeID: 1, JobGroup: "Z"},
	}))

	paid, err := manager.JoinedWithRates()
	require.NoError(t, err)
	require.Len(t, paid, 3)

	assert.Equal(t, models.PaidRecord{Date: day(2019, time.November, 10), EmployeeID: 1, AmountPaid: 60}, paid[0])
	assert.Equal(t, models.PaidRecord{Date: day(2019, time.November, 5), EmployeeID: 2, AmountPaid: 20}, paid[1])
	assert.Equal(t, models.PaidRecord{Date: day(2019, time.November, 20), EmployeeID: 2, AmountPaid: 40}, paid[2])
}

func TestReportIDRegistry(t *testing.T) {
	manager := newTestManager(t)

	ids, err := manager.CommittedReportIDs()
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, manager.CommitReportIDs([]int{41, 42}))
	// Re-committing an existing id is a no-op, never an error.
	require.NoError(t, manager.CommitReportIDs([]int{42, 43}))

	ids, err = manager.CommittedReportIDs()
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{41: true, 42: true, 43: true}, ids)

	has, err := manager.HasReportID(41)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = manager.HasReportID(99)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestUploadArchiveLifecycle(t *testing.T) {
	manager := newTestManager(t)

	fileID, err := manager.InsertFileRecord("time-report-42.csv", "abc123", "batch-1", FILE_STATUS_PROCESSING)
	require.NoError(t, err)
	assert.Greater(t, fileID, 0)

	seen, err := manager.IsFileAlreadySubmitted("abc123")
	require.NoError(t, err)
	assert.False(t, seen, "a PROCESSING upload should not count as submitted")

	require.NoError(t, manager.UpdateFileStatus(fileID, FILE_STATUS_DONE, ""))

	seen, err = manager.IsFileAlreadySubmitted("abc123")
	require.NoError(t, err)
	assert.True(t, seen)
}
