package database

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ledgerline/payroll/internal/models"
)

// sqliteDateLayout is how record dates are stored; plain ISO text keeps the
// (employee_id, date) ORDER BY both lexicographic and chronological.
const sqliteDateLayout = "2006-01-02"

// SQLiteDBManager is the embedded counterpart of PostgresDBManager. It backs
// local runs and hermetic tests with the same observable behavior.
type SQLiteDBManager struct {
	db *sql.DB
}

func OpenSQLite(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite database: %w", err)
	}

	return db, nil
}

func NewSQLiteDBManager(db *sql.DB) *SQLiteDBManager {
	return &SQLiteDBManager{db: db}
}

func (m *SQLiteDBManager) SetupSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS timekeeping_records (
			date TEXT NOT NULL,
			hours_worked REAL NOT NULL,
			employee_id INTEGER NOT NULL,
			job_group TEXT NOT NULL,
			PRIMARY KEY (date, employee_id, job_group)
		);`,
		`CREATE TABLE IF NOT EXISTS report_ids (
			id INTEGER PRIMARY KEY
		);`,
		`CREATE TABLE IF NOT EXISTS job_groups (
			job_group TEXT PRIMARY KEY,
			rate REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS upload_files (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			file_name TEXT NOT NULL,
			checksum TEXT,
			batch_id TEXT,
			status TEXT NOT NULL CHECK (status IN ('PROCESSING', 'DONE', 'REJECTED')),
			processed_at DATETIME NOT NULL,
			detail TEXT
		);`,
	}

	for _, query := range queries {
		if _, err := m.db.Exec(query); err != nil {
			return fmt.Errorf("error creating schema: %w", err)
		}
	}

	groups := make([]string, 0, len(DefaultRates))
	for group := range DefaultRates {
		groups = append(groups, group)
	}
	sort.Strings(groups)

	for _, group := range groups {
		query, args, err := sq.Insert("job_groups").Options("OR IGNORE").
			Columns("job_group", "rate").
			Values(group, DefaultRates[group]).ToSql()
		if err != nil {
			return fmt.Errorf("error building rate seed query: %w", err)
		}
		if _, err := m.db.Exec(query, args...); err != nil {
			return fmt.Errorf("error seeding job group %s: %w", group, err)
		}
	}

	return nil
}

func (m *SQLiteDBManager) CommittedReportIDs() (map[int]bool, error) {
	query, args, err := sq.Select("id").From("report_ids").ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building report id query: %w", err)
	}

	rows, err := m.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying report ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[int]bool)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning report id: %w", err)
		}
		ids[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over report ids: %w", err)
	}

	return ids, nil
}

func (m *SQLiteDBManager) HasReportID(id int) (bool, error) {
	query, args, err := sq.Select("id").From("report_ids").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return false, fmt.Errorf("error building report id query: %w", err)
	}

	var found int
	if err := m.db.QueryRow(query, args...).Scan(&found); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("error finding report id %d: %w", id, err)
	}

	return true, nil
}

func (m *SQLiteDBManager) CommitReportIDs(ids []int) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, id := range ids {
		query, args, err := sq.Insert("report_ids").Options("OR IGNORE").
			Columns("id").Values(id).ToSql()
		if err != nil {
			return fmt.Errorf("error building report id insert: %w", err)
		}
		if _, err := tx.Exec(query, args...); err != nil {
			return fmt.Errorf("error committing report id %d: %w", id, err)
		}
	}

	return tx.Commit()
}

func (m *SQLiteDBManager) InsertTimekeepingRecords(records []models.TimekeepingRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, record := range records {
		query, args, err := sq.Insert("timekeeping_records").Options("OR IGNORE").
			Columns("date", "hours_worked", "employee_id", "job_group").
			Values(record.Date.Format(sqliteDateLayout), record.HoursWorked, record.EmployeeID, record.JobGroup).
			ToSql()
		if err != nil {
			return fmt.Errorf("error building record insert: %w", err)
		}
		if _, err := tx.Exec(query, args...); err != nil {
			return fmt.Errorf("error inserting timekeeping record: %w", err)
		}
	}

	return tx.Commit()
}

func (m *SQLiteDBManager) JoinedWithRates() ([]models.PaidRecord, error) {
	query, args, err := sq.Select("t.date", "t.employee_id", "t.hours_worked * j.rate AS amount_paid").
		From("timekeeping_records t").
		Join("job_groups j ON t.job_group = j.job_group").
		OrderBy("t.employee_id ASC", "t.date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building join query: %w", err)
	}

	rows, err := m.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying joined records: %w", err)
	}
	defer rows.Close()

	var paid []models.PaidRecord
	for rows.Next() {
		var record models.PaidRecord
		var date string
		if err := rows.Scan(&date, &record.EmployeeID, &record.AmountPaid); err != nil {
			return nil, fmt.Errorf("error scanning joined record: %w", err)
		}
		record.Date, err = time.Parse(sqliteDateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("error parsing stored date %q: %w", date, err)
		}
		paid = append(paid, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over joined records: %w", err)
	}

	return paid, nil
}

func (m *SQLiteDBManager) RateOf(jobGroup string) (float64, bool, error) {
	query, args, err := sq.Select("rate").From("job_groups").Where(sq.Eq{"job_group": jobGroup}).ToSql()
	if err != nil {
		return 0, false, fmt.Errorf("error building rate query: %w", err)
	}

	var rate float64
	if err := m.db.QueryRow(query, args...).Scan(&rate); err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("error querying rate for job group %s: %w", jobGroup, err)
	}

	return rate, true, nil
}

func (m *SQLiteDBManager) InsertFileRecord(fileName, checksum, batchID, status string) (int, error) {
	query, args, err := sq.Insert("upload_files").
		Columns("file_name", "checksum", "batch_id", "status", "processed_at").
		Values(fileName, checksum, batchID, status, time.Now().UTC()).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building file record insert: %w", err)
	}

	result, err := m.db.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("error inserting file record: %w", err)
	}

	fileID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("error reading file record id: %w", err)
	}

	return int(fileID), nil
}

func (m *SQLiteDBManager) UpdateFileStatus(fileID int, status string, detail string) error {
	query, args, err := sq.Update("upload_files").
		Set("status", status).
		Set("detail", detail).
		Where(sq.Eq{"id": fileID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building file status update: %w", err)
	}

	if _, err := m.db.Exec(query, args...); err != nil {
		return fmt.Errorf("error updating file status: %w", err)
	}

	return nil
}

func (m *SQLiteDBManager) IsFileAlreadySubmitted(checksum string) (bool, error) {
	query, args, err := sq.Select("id").From("upload_files").
		Where(sq.Eq{"checksum": checksum, "status": FILE_STATUS_DONE}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("error building file lookup: %w", err)
	}

	var id int
	if err := m.db.QueryRow(query, args...).Scan(&id); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("error finding file record by checksum: %w", err)
	}

	return true, nil
}

func (m *SQLiteDBManager) Close() {
	m.db.Close()
}
