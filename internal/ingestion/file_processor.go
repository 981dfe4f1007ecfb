package ingestion

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledgerline/payroll/internal/models"
)

// ScanForFiles walks a directory and loads every .csv file as an UploadFile.
// Files are ordered by path so a directory always replays as the same batch.
func ScanForFiles(rootPath string) ([]models.UploadFile, error) {
	var files []models.UploadFile
	log.Printf("Scanning for files in: %s", rootPath)

	err := filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".csv") {
			log.Printf("Skipping non-csv file %s", path)
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		files = append(files, models.UploadFile{Name: path, Content: content})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory %s: %w", rootPath, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	log.Printf("Found %d file(s) to process.", len(files))
	return files, nil
}
