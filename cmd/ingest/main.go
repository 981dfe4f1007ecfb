package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/ledgerline/payroll/internal/config"
	"github.com/ledgerline/payroll/internal/database"
	"github.com/ledgerline/payroll/internal/ingestion"
)

func setup() (string, *ingestion.IngestionService, func(), error) {
	if len(os.Args) < 2 {
		return "", nil, nil, fmt.Errorf("please provide the folder path as a command-line argument")
	}
	filesPath := os.Args[1]

	cfg, err := config.New()
	if err != nil {
		return "", nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	var dbManager database.DBManager
	switch cfg.DBDriver {
	case config.DriverSQLite:
		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return "", nil, nil, fmt.Errorf("unable to open sqlite database: %w", err)
		}
		dbManager = database.NewSQLiteDBManager(db)
	default:
		dbpool, err := database.ConnectDB(cfg.DatabaseURL)
		if err != nil {
			return "", nil, nil, fmt.Errorf("unable to connect to database: %w", err)
		}
		dbManager = database.NewPostgresDBManager(context.Background(), dbpool)
	}

	if err := dbManager.SetupSchema(); err != nil {
		dbManager.Close()
		return "", nil, nil, fmt.Errorf("failed to setup database: %w", err)
	}

	engine := ingestion.NewIngestionService(dbManager, ingestion.Options{StagedWrites: cfg.StagedWrites})

	return filesPath, engine, dbManager.Close, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: could not load .env file: %v", err)
	}
	startTime := time.Now()

	filesPath, engine, cleanup, err := setup()
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	files, err := ingestion.ScanForFiles(filesPath)
	if err != nil {
		log.Fatalf("Failed to scan files: %v", err)
	}

	batchID, err := engine.Execute(files)
	if err != nil {
		log.Fatalf("Batch %s rejected: %v", batchID, err)
	}

	log.Printf("Batch %s ingested successfully.", batchID)
	log.Printf("Execution time: %s\n", time.Since(startTime))
}
