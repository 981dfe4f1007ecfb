package server

import (
	"net/http"
)

func SetupRoutes(payrollHandler *PayrollService) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/upload", payrollHandler.Upload)
	mux.HandleFunc("/report", payrollHandler.Report)

	return mux
}
