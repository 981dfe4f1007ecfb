package report

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/payroll/internal/models"
)

// MockDBManager is a mock implementation of the DBManager interface.
type MockDBManager struct {
	mock.Mock
}

func (m *MockDBManager) SetupSchema() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockDBManager) CommittedReportIDs() (map[int]bool, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int]bool), args.Error(1)
}

func (m *MockDBManager) HasReportID(id int) (bool, error) {
	args := m.Called(id)
	return args.Bool(0), args.Error(1)
}

func (m *MockDBManager) CommitReportIDs(ids []int) error {
	args := m.Called(ids)
	return args.Error(0)
}

func (m *MockDBManager) InsertTimekeepingRecords(records []models.TimekeepingRecord) error {
	args := m.Called(records)
	return args.Error(0)
}

func (m *MockDBManager) JoinedWithRates() ([]models.PaidRecord, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PaidRecord), args.Error(1)
}

func (m *MockDBManager) RateOf(jobGroup string) (float64, bool, error) {
	args := m.Called(jobGroup)
	return args.Get(0).(float64), args.Bool(1), args.Error(2)
}

func (m *MockDBManager) InsertFileRecord(fileName, checksum, batchID, status string) (int, error) {
	args := m.Called(fileName, checksum, batchID, status)
	return args.Int(0), args.Error(1)
}

func (m *MockDBManager) UpdateFileStatus(fileID int, status string, detail string) error {
	args := m.Called(fileID, status, detail)
	return args.Error(0)
}

func (m *MockDBManager) IsFileAlreadySubmitted(checksum string) (bool, error) {
	args := m.Called(checksum)
	return args.Bool(0), args.Error(1)
}

func (m *MockDBManager) Close() {
	m.Called()
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPayPeriodBuckets(t *testing.T) {
	tests := []struct {
		name      string
		date      time.Time
		wantLabel string
		wantKey   string
	}{
		{
			name:      "first day of month",
			date:      day(2019, time.November, 1),
			wantLabel: "01/11/2019 - 15/11/2019",
			wantKey:   "11-2019 - 11-2019",
		},
		{
			name:      "15th stays in first half",
			date:      day(2019, time.November, 15),
			wantLabel: "01/11/2019 - 15/11/2019",
			wantKey:   "11-2019 - 11-2019",
		},
		{
			name:      "16th starts second half",
			date:      day(2019, time.November, 16),
			wantLabel: "16/11/2019 - 30/11/2019",
			wantKey:   "11-2019 - 11-2019",
		},
		{
			name:      "31-day month end",
			date:      day(2019, time.December, 25),
			wantLabel: "16/12/2019 - 31/12/2019",
			wantKey:   "12-2019 - 12-2019",
		},
		{
			name:      "february in a leap year",
			date:      day(2020, time.February, 29),
			wantLabel: "16/02/2020 - 29/02/2020",
			wantKey:   "02-2020 - 02-2020",
		},
		{
			name:      "february in a non-leap year",
			date:      day(2019, time.February, 20),
			wantLabel: "16/02/2019 - 28/02/2019",
			wantKey:   "02-2019 - 02-2019",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, sortKey, err := PayPeriod(tt.date)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLabel, label)
			assert.Equal(t, tt.wantKey, sortKey)
		})
	}
}

func TestPayPeriodRejectsZeroDate(t *testing.T) {
	_, _, err := PayPeriod(time.Time{})
	assert.Error(t, err)
}

func TestGenerateSumsWithinPeriod(t *testing.T) {
	dbManager := new(MockDBManager)
	// Employee 1, job group A (rate 20): 10h on the 5th, 5h on the 10th.
	dbManager.On("JoinedWithRates").Return([]models.PaidRecord{
		{Date: day(2019, time.November, 5), EmployeeID: 1, AmountPaid: 200},
		{Date: day(2019, time.November, 10), EmployeeID: 1, AmountPaid: 100},
	}, nil)

	rows, err := NewGenerator(dbManager).Generate()
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].EmployeeID)
	assert.Equal(t, "01/11/2019 - 15/11/2019", rows[0].PayPeriod)
	assert.Equal(t, 300.0, rows[0].AmountPaid)
}

func TestGenerateOrdersByEmployeeThenPeriod(t *testing.T) {
	dbManager := new(MockDBManager)
	// Deliberately scrambled input order.
	dbManager.On("JoinedWithRates").Return([]models.PaidRecord{
		{Date: day(2019, time.November, 20), EmployeeID: 2, AmountPaid: 60},
		{Date: day(2019, time.November, 20), EmployeeID: 1, AmountPaid: 150},
		{Date: day(2019, time.April, 2), EmployeeID: 1, AmountPaid: 40},
		{Date: day(2019, time.November, 3), EmployeeID: 1, AmountPaid: 80},
	}, nil)

	rows, err := NewGenerator(dbManager).Generate()
	require.NoError(t, err)

	require.Len(t, rows, 4)
	assert.Equal(t, models.PayPeriodSummaryRow{EmployeeID: 1, PayPeriod: "01/04/2019 - 15/04/2019", AmountPaid: 40}, rows[0])
	assert.Equal(t, models.PayPeriodSummaryRow{EmployeeID: 1, PayPeriod: "01/11/2019 - 15/11/2019", AmountPaid: 80}, rows[1])
	assert.Equal(t, models.PayPeriodSummaryRow{EmployeeID: 1, PayPeriod: "16/11/2019 - 30/11/2019", AmountPaid: 150}, rows[2])
	assert.Equal(t, models.PayPeriodSummaryRow{EmployeeID: 2, PayPeriod: "16/11/2019 - 30/11/2019", AmountPaid: 60}, rows[3])
}

func TestGenerateEmptyStore(t *testing.T) {
	dbManager := new(MockDBManager)
	dbManager.On("JoinedWithRates").Return([]models.PaidRecord{}, nil)

	rows, err := NewGenerator(dbManager).Generate()
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestGenerateWrapsStoreFailure(t *testing.T) {
	dbManager := new(MockDBManager)
	dbManager.On("JoinedWithRates").Return(nil, errors.New("connection reset"))

	rows, err := NewGenerator(dbManager).Generate()
	assert.Nil(t, rows)

	var aggErr *models.AggregationError
	assert.ErrorAs(t, err, &aggErr)
}

func TestGenerateNeverReturnsPartialReport(t *testing.T) {
	dbManager := new(MockDBManager)
	dbManager.On("JoinedWithRates").Return([]models.PaidRecord{
		{Date: day(2019, time.November, 5), EmployeeID: 1, AmountPaid: 200},
		{Date: time.Time{}, EmployeeID: 2, AmountPaid: 100},
	}, nil)

	rows, err := NewGenerator(dbManager).Generate()
	assert.Nil(t, rows)

	var aggErr *models.AggregationError
	assert.ErrorAs(t, err, &aggErr)
}
