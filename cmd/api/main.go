package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"github.com/ledgerline/payroll/internal/config"
	"github.com/ledgerline/payroll/internal/database"
	"github.com/ledgerline/payroll/internal/ingestion"
	"github.com/ledgerline/payroll/internal/report"
	"github.com/ledgerline/payroll/internal/server"
)

func openStore(cfg *config.Config) (database.DBManager, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return database.NewSQLiteDBManager(db), nil
	default:
		dbpool, err := database.ConnectDB(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return database.NewPostgresDBManager(context.Background(), dbpool), nil
	}
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	dbManager, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to the database: %v", err)
	}
	defer dbManager.Close()

	if err := dbManager.SetupSchema(); err != nil {
		log.Fatalf("Failed to setup database: %v", err)
	}
	log.Println("------ Finished database setup ------")

	engine := ingestion.NewIngestionService(dbManager, ingestion.Options{StagedWrites: cfg.StagedWrites})
	generator := report.NewGenerator(dbManager)

	router := server.SetupRoutes(server.NewPayrollService(engine, generator, cfg.UploadDir))

	log.Printf("Server starting on port %s", cfg.APIPort)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.APIPort), router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
