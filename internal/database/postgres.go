package database

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerline/payroll/internal/models"
)

func ConnectDB(connStr string) (*pgxpool.Pool, error) {
	dbpool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	return dbpool, nil
}

type PostgresDBManager struct {
	dbpool *pgxpool.Pool
	ctx    context.Context
}

func NewPostgresDBManager(ctx context.Context, pool *pgxpool.Pool) *PostgresDBManager {
	return &PostgresDBManager{dbpool: pool, ctx: ctx}
}

func (m *PostgresDBManager) SetupSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS timekeeping_records (
			date DATE NOT NULL,
			hours_worked DOUBLE PRECISION NOT NULL,
			employee_id INTEGER NOT NULL,
			job_group VARCHAR(50) NOT NULL,
			PRIMARY KEY (date, employee_id, job_group)
		);`,
		`CREATE TABLE IF NOT EXISTS report_ids (
			id INTEGER PRIMARY KEY
		);`,
		`CREATE TABLE IF NOT EXISTS job_groups (
			job_group VARCHAR(50) PRIMARY KEY,
			rate DOUBLE PRECISION NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS upload_files (
			id SERIAL PRIMARY KEY,
			file_name VARCHAR(255) NOT NULL,
			checksum VARCHAR(64),
			batch_id VARCHAR(36),
			status VARCHAR(50) NOT NULL CHECK (status IN ('PROCESSING', 'DONE', 'REJECTED')),
			processed_at TIMESTAMP NOT NULL,
			detail TEXT
		);`,
	}

	for _, query := range queries {
		if _, err := m.dbpool.Exec(m.ctx, query); err != nil {
			return fmt.Errorf("error creating schema: %w", err)
		}
	}

	// Seed rates deterministically so reruns touch rows in the same order.
	groups := make([]string, 0, len(DefaultRates))
	for group := range DefaultRates {
		groups = append(groups, group)
	}
	sort.Strings(groups)

	for _, group := range groups {
		_, err := m.dbpool.Exec(m.ctx,
			`INSERT INTO job_groups (job_group, rate) VALUES ($1, $2) ON CONFLICT (job_group) DO NOTHING`,
			group, DefaultRates[group])
		if err != nil {
			return fmt.Errorf("error seeding job group %s: %w", group, err)
		}
	}

	return nil
}

func (m *PostgresDBManager) CommittedReportIDs() (map[int]bool, error) {
	rows, err := m.dbpool.Query(m.ctx, `SELECT id FROM report_ids`)
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

func (m *PostgresDBManager) HasReportID(id int) (bool, error) {
	var found int
	err := m.dbpool.QueryRow(m.ctx, `SELECT id FROM report_ids WHERE id = $1`, id).Scan(&found)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("error finding report id %d: %w", id, err)
	}

	return true, nil
}

func (m *PostgresDBManager) CommitReportIDs(ids []int) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := m.dbpool.Begin(m.ctx)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback(m.ctx)

	for _, id := range ids {
		_, err := tx.Exec(m.ctx,
			`INSERT INTO report_ids (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, id)
		if err != nil {
			return fmt.Errorf("error committing report id %d: %w", id, err)
		}
	}

	return tx.Commit(m.ctx)
}

func (m *PostgresDBManager) InsertTimekeepingRecords(records []models.TimekeepingRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := m.dbpool.Begin(m.ctx)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback(m.ctx)

	for _, record := range records {
		_, err := tx.Exec(m.ctx,
			`INSERT INTO timekeeping_records (date, hours_worked, employee_id, job_group)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (date, employee_id, job_group) DO NOTHING`,
			record.Date, record.HoursWorked, record.EmployeeID, record.JobGroup)
		if err != nil {
			return fmt.Errorf("error inserting timekeeping record: %w", err)
		}
	}

	return tx.Commit(m.ctx)
}

// JoinedWithRates orders by employee then date; the aggregator depends on
// this ordering for its running grouping.
func (m *PostgresDBManager) JoinedWithRates() ([]models.PaidRecord, error) {
	query := `
	SELECT t.date, t.employee_id, t.hours_worked * j.rate AS amount_paid
	FROM timekeeping_records t
	JOIN job_groups j ON t.job_group = j.job_group
	ORDER BY t.employee_id, t.date ASC;`

	rows, err := m.dbpool.Query(m.ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying joined records: %w", err)
	}
	defer rows.Close()

	var paid []models.PaidRecord
	for rows.Next() {
		var record models.PaidRecord
		if err := rows.Scan(&record.Date, &record.EmployeeID, &record.AmountPaid); err != nil {
			return nil, fmt.Errorf("error scanning joined record: %w", err)
		}
		paid = append(paid, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over joined records: %w", err)
	}

	return paid, nil
}

func (m *PostgresDBManager) RateOf(jobGroup string) (float64, bool, error) {
	var rate float64
	err := m.dbpool.QueryRow(m.ctx,
		`SELECT rate FROM job_groups WHERE job_group = $1`, jobGroup).Scan(&rate)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("error querying rate for job group %s: %w", jobGroup, err)
	}

	return rate, true, nil
}

func (m *PostgresDBManager) InsertFileRecord(fileName, checksum, batchID, status string) (int, error) {
	query := `
	INSERT INTO upload_files (file_name, checksum, batch_id, status, processed_at)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id;`

	var fileID int
	err := m.dbpool.QueryRow(m.ctx, query, fileName, checksum, batchID, status, time.Now().UTC()).Scan(&fileID)
	if err != nil {
		return 0, fmt.Errorf("error inserting file record: %w", err)
	}

	return fileID, nil
}

func (m *PostgresDBManager) UpdateFileStatus(fileID int, status string, detail string) error {
	_, err := m.dbpool.Exec(m.ctx,
		`UPDATE upload_files SET status = $1, detail = $2 WHERE id = $3`, status, detail, fileID)
	if err != nil {
		return fmt.Errorf("error updating file status: %w", err)
	}

	return nil
}

func (m *PostgresDBManager) IsFileAlreadySubmitted(checksum string) (bool, error) {
	var id int
	err := m.dbpool.QueryRow(m.ctx,
		`SELECT id FROM upload_files WHERE checksum = $1 AND status = 'DONE'`, checksum).Scan(&id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("error finding file record by checksum: %w", err)
	}

	return true, nil
}

func (m *PostgresDBManager) Close() {
	m.dbpool.Close()
}
