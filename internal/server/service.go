package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledgerline/payroll/internal/models"
)

// Ingestor accepts one batch of uploaded files and returns its batch id.
type Ingestor interface {
	Execute(files []models.UploadFile) (string, error)
}

// ReportGenerator produces the ordered payroll summary rows.
type ReportGenerator interface {
	Generate() ([]models.PayPeriodSummaryRow, error)
}

type PayrollService struct {
	Engine    Ingestor
	Generator ReportGenerator
	UploadDir string
}

func NewPayrollService(engine Ingestor, generator ReportGenerator, uploadDir string) *PayrollService {
	return &PayrollService{Engine: engine, Generator: generator, UploadDir: uploadDir}
}

type uploadResponse struct {
	BatchID string   `json:"batch_id"`
	Files   []string `json:"files"`
}

// Upload handles POST /upload: multipart files under the "input-files" field,
// submitted together as one batch.
func (h *PayrollService) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "Failed to parse multipart form", http.StatusBadRequest)
		return
	}

	headers := r.MultipartForm.File["input-files"]
	if len(headers) == 0 {
		http.Error(w, "No files provided under 'input-files'", http.StatusBadRequest)
		return
	}

	var files []models.UploadFile
	for _, header := range headers {
		if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
			http.Error(w, "Invalid file type. Allowed file type is: csv", http.StatusBadRequest)
			return
		}

		part, err := header.Open()
		if err != nil {
			http.Error(w, "Failed to read uploaded file", http.StatusBadRequest)
			return
		}
		content, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			http.Error(w, "Failed to read uploaded file", http.StatusBadRequest)
			return
		}

		h.saveRawCopy(header.Filename, content)
		files = append(files, models.UploadFile{Name: header.Filename, Content: content})
	}

	batchID, err := h.Engine.Execute(files)
	if err != nil {
		var dupErr *models.DuplicateReportError
		if errors.As(err, &dupErr) {
			http.Error(w, fmt.Sprintf("Cannot upload file with the same 'report id': %d", dupErr.ReportID), http.StatusConflict)
			return
		}
		var malformedErr *models.MalformedInputError
		if errors.As(err, &malformedErr) {
			http.Error(w, malformedErr.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("Ingestion batch failed: %v", err)
		http.Error(w, "Failed to save input files", http.StatusInternalServerError)
		return
	}

	names := make([]string, 0, len(files))
	for _, file := range files {
		names = append(names, file.Name)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(uploadResponse{BatchID: batchID, Files: names}); err != nil {
		log.Printf("Failed to encode upload response: %v", err)
	}
}

// Report handles GET /report: the full payroll summary, recomputed from the
// store on every request.
func (h *PayrollService) Report(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rows, err := h.Generator.Generate()
	if err != nil {
		log.Printf("Report generation failed: %v", err)
		http.Error(w, "Failed to generate payroll report", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []models.PayPeriodSummaryRow{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rows); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// saveRawCopy archives the raw upload on disk, like the original input_files
// folder. Best effort only; the durable record lives in the database.
func (h *PayrollService) saveRawCopy(name string, content []byte) {
	if h.UploadDir == "" {
		return
	}
	if err := os.MkdirAll(h.UploadDir, 0o755); err != nil {
		log.Printf("Failed to create upload dir %s: %v", h.UploadDir, err)
		return
	}
	dest := filepath.Join(h.UploadDir, filepath.Base(name))
	if err := os.WriteFile(dest, content, 0o644); err != nil {
		log.Printf("Failed to save raw copy of %s: %v", name, err)
	}
}
