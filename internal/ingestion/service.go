package ingestion

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/ledgerline/payroll/internal/database"
	"github.com/ledgerline/payroll/internal/models"
	"github.com/ledgerline/payroll/internal/parser"
	"github.com/ledgerline/payroll/pkg/checksum"
)

// ParseFunc turns one raw file into a ReportBatch. Injected so orchestration
// tests can fail parsing without crafting broken files.
type ParseFunc func(name string, r io.Reader) (*models.ReportBatch, error)

type Options struct {
	// StagedWrites buffers every file's records in memory and persists them
	// only after the whole batch has passed the duplicate check. The default
	// (false) appends each accepted file's records immediately, which leaves
	// earlier files' records behind when a later file gets the batch
	// rejected; their report ids are never committed, so resubmitting the
	// corrected batch re-appends them idempotently.
	StagedWrites bool
}

// IngestionService processes one batch of uploaded files at a time: parse
// each file in submission order, gate it on the report id registry, persist
// its records, and commit the batch's ids only if every file was accepted.
type IngestionService struct {
	dbManager database.DBManager
	parse     ParseFunc
	opts      Options

	// Serializes batches. Two concurrent batches would snapshot the same
	// committed id set and could both accept the same new report id.
	mu sync.Mutex
}

func NewIngestionService(dbManager database.DBManager, opts Options) *IngestionService {
	return &IngestionService{
		dbManager: dbManager,
		parse:     parser.Parse,
		opts:      opts,
	}
}

func (s *IngestionService) WithParseFunc(parse ParseFunc) *IngestionService {
	s.parse = parse
	return s
}

// Execute runs one ingestion batch and returns its batch id. On any
// MalformedInputError or DuplicateReportError the whole batch is rejected and
// none of its report ids are committed.
func (s *IngestionService) Execute(files []models.UploadFile) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batchID := uuid.NewString()
	log.Printf("Starting ingestion batch %s with %d file(s)", batchID, len(files))

	// Step 1: snapshot the committed report ids. Every duplicate check in
	// this batch runs against this snapshot plus the ids accepted earlier in
	// the same batch.
	workingSet, err := s.dbManager.CommittedReportIDs()
	if err != nil {
		return batchID, fmt.Errorf("failed to load committed report ids: %w", err)
	}

	var (
		acceptedIDs []int
		staged      []models.TimekeepingRecord
		fileIDs     []int
	)

	reject := func(detail string) {
		for _, fileID := range fileIDs {
			if err := s.dbManager.UpdateFileStatus(fileID, database.FILE_STATUS_REJECTED, detail); err != nil {
				log.Printf("Failed to mark file record %d rejected: %v", fileID, err)
			}
		}
	}

	// Step 2: process files in submission order.
	for _, file := range files {
		fileID := s.archiveFile(file, batchID)
		if fileID > 0 {
			fileIDs = append(fileIDs, fileID)
		}

		// Step 2a: parse. A malformed file aborts the batch; none of its
		// rows are written.
		batch, err := s.parse(file.Name, bytes.NewReader(file.Content))
		if err != nil {
			reject(err.Error())
			return batchID, err
		}

		// Step 2b: duplicate gate.
		reportID := batch.ReportID()
		if workingSet[reportID] {
			dupErr := &models.DuplicateReportError{ReportID: reportID, File: file.Name}
			reject(dupErr.Error())
			return batchID, dupErr
		}
		workingSet[reportID] = true
		acceptedIDs = append(acceptedIDs, reportID)

		// Step 2c: persist, or stage for the end of the batch.
		if s.opts.StagedWrites {
			staged = append(staged, batch.Records...)
		} else {
			if err := s.dbManager.InsertTimekeepingRecords(batch.Records); err != nil {
				reject(err.Error())
				return batchID, fmt.Errorf("failed to persist records from %s: %w", file.Name, err)
			}
		}

		log.Printf("Accepted report %d from %s (%d record(s))", reportID, file.Name, len(batch.Records))
	}

	// Step 3: every file was accepted. Persist staged records, then commit
	// the batch's report ids.
	if s.opts.StagedWrites {
		if err := s.dbManager.InsertTimekeepingRecords(staged); err != nil {
			reject(err.Error())
			return batchID, fmt.Errorf("failed to persist staged records: %w", err)
		}
	}

	if err := s.dbManager.CommitReportIDs(acceptedIDs); err != nil {
		reject(err.Error())
		return batchID, fmt.Errorf("failed to commit report ids: %w", err)
	}

	for _, fileID := range fileIDs {
		if err := s.dbManager.UpdateFileStatus(fileID, database.FILE_STATUS_DONE, ""); err != nil {
			log.Printf("Failed to mark file record %d done: %v", fileID, err)
		}
	}

	log.Printf("Ingestion batch %s committed %d report id(s)", batchID, len(acceptedIDs))
	return batchID, nil
}

// archiveFile records the submission in the upload archive. The archive is
// informational; a failure here never blocks the batch.
func (s *IngestionService) archiveFile(file models.UploadFile, batchID string) int {
	sum := checksum.Sum(file.Content)

	seen, err := s.dbManager.IsFileAlreadySubmitted(sum)
	if err != nil {
		log.Printf("Failed to check upload archive for %s: %v", file.Name, err)
	} else if seen {
		log.Printf("Content of %s matches a previously accepted upload", file.Name)
	}

	fileID, err := s.dbManager.InsertFileRecord(file.Name, sum, batchID, database.FILE_STATUS_PROCESSING)
	if err != nil {
		log.Printf("Failed to insert file record for %s: %v", file.Name, err)
		return 0
	}

	return fileID
}
