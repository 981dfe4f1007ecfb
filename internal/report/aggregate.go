package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/ledgerline/payroll/internal/database"
	"github.com/ledgerline/payroll/internal/models"
)

const labelLayout = "02/01/2006"

// sortKeyLayout renders month and year only. Labels inside one month differ
// by day text, so chronological ordering has to come from this key, not from
// the display label.
const sortKeyLayout = "01-2006"

// Generator produces the payroll report: every stored record joined with its
// rate, bucketed into biweekly pay periods and summed per employee.
type Generator struct {
	dbManager database.DBManager
}

func NewGenerator(dbManager database.DBManager) *Generator {
	return &Generator{dbManager: dbManager}
}

// PayPeriod maps a date to its biweekly bucket. Days 1-15 fall in the first
// half of the month; days 16 and later in the second half, which ends on the
// last day of the month (first of next month minus one day). It returns the
// display label (DD/MM/YYYY spans) and the sort key (MM-YYYY spans).
func PayPeriod(d time.Time) (label string, sortKey string, err error) {
	if d.IsZero() {
		return "", "", fmt.Errorf("cannot bucket zero date")
	}

	firstOfMonth := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location())

	var start, end time.Time
	if d.Day() < 16 {
		start = firstOfMonth
		end = firstOfMonth.AddDate(0, 0, 14)
	} else {
		start = firstOfMonth.AddDate(0, 0, 15)
		end = firstOfMonth.AddDate(0, 1, 0).AddDate(0, 0, -1)
	}

	label = start.Format(labelLayout) + " - " + end.Format(labelLayout)
	sortKey = start.Format(sortKeyLayout) + " - " + end.Format(sortKeyLayout)
	return label, sortKey, nil
}

type periodBucket struct {
	employeeID int
	payPeriod  string
	sortKey    string
}

// Generate returns the summary rows ordered by employee id, then by the pay
// period sort key, then by the label. Any failure is fatal for the whole
// request; a partial report is never returned.
func (g *Generator) Generate() ([]models.PayPeriodSummaryRow, error) {
	paid, err := g.dbManager.JoinedWithRates()
	if err != nil {
		return nil, &models.AggregationError{Detail: "failed to read joined records", Err: err}
	}

	totals := make(map[periodBucket]float64)
	for _, record := range paid {
		label, sortKey, err := PayPeriod(record.Date)
		if err != nil {
			return nil, &models.AggregationError{
				Detail: fmt.Sprintf("failed to bucket record for employee %d", record.EmployeeID),
				Err:    err,
			}
		}

		bucket := periodBucket{
			employeeID: record.EmployeeID,
			payPeriod:  label,
			sortKey:    sortKey,
		}
		totals[bucket] += record.AmountPaid
	}

	buckets := make([]periodBucket, 0, len(totals))
	for bucket := range totals {
		buckets = append(buckets, bucket)
	}

	sort.Slice(buckets, func(i, j int) bool {
		a, b := buckets[i], buckets[j]
		if a.employeeID != b.employeeID {
			return a.employeeID < b.employeeID
		}
		if a.sortKey != b.sortKey {
			return a.sortKey < b.sortKey
		}
		return a.payPeriod < b.payPeriod
	})

	rows := make([]models.PayPeriodSummaryRow, 0, len(buckets))
	for _, bucket := range buckets {
		rows = append(rows, models.PayPeriodSummaryRow{
			EmployeeID: bucket.employeeID,
			PayPeriod:  bucket.payPeriod,
			AmountPaid: totals[bucket],
		})
	}

	return rows, nil
}
