package main

import (
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/mwootten/easie/internal/config"
	"github.com/mwootten/easie/internal/handler"
	"github.com/mwootten/easie/internal/repository"
	"github.com/mwootten/easie/internal/scheduler"
	"github.com/mwootten/easie/internal/service"
	"github.com/mwootten/easie/internal/utils/email"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	if err := repo.Migrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	svc := service.NewService(repo, logger)
	h := handler.NewHandler(svc, logger)

	// Daily digest
	var mailer *email.Sender
	if cfg.SMTPConfigured() {
		mailer = email.NewSender(cfg, logger)
	}
	if cfg.DigestEnabled {
		digest := scheduler.NewDigestScheduler(svc, mailer, logger, cfg.DigestCron, cfg.DigestTo)
		if err := digest.Start(); err != nil {
			logger.Fatalf("Failed to start digest scheduler: %v", err)
		}
		defer digest.Stop()
	}

	// Setup router
	r := mux.NewRouter()
	r.HandleFunc("/health", h.Health).Methods("GET")

	r.HandleFunc("/transactions", h.CreateTransaction).Methods("POST")
	r.HandleFunc("/transactions", h.ListTransactions).Methods("GET")
	r.HandleFunc("/transactions", h.ClearTransactions).Methods("DELETE")
	r.HandleFunc("/transactions/import", h.ImportCSV).Methods("POST")
	r.HandleFunc("/transactions/import/ofx", h.ImportOFX).Methods("POST")
	r.HandleFunc("/transactions/{id:[0-9]+}", h.UpdateTransaction).Methods("PUT")
	r.HandleFunc("/transactions/{id:[0-9]+}", h.DeleteTransaction).Methods("DELETE")

	r.HandleFunc("/schedules", h.CreateSchedule).Methods("POST")
	r.HandleFunc("/schedules", h.ListSchedules).Methods("GET")
	r.HandleFunc("/schedules/{id:[0-9]+}", h.UpdateSchedule).Methods("PUT")
	r.HandleFunc("/schedules/{id:[0-9]+}", h.DeleteSchedule).Methods("DELETE")

	r.HandleFunc("/budgets", h.ListBudgets).Methods("GET")
	r.HandleFunc("/budgets", h.SaveBudgets).Methods("PUT")
	r.HandleFunc("/budgets/reset", h.ResetBudgets).Methods("POST")

	r.HandleFunc("/settings", h.GetSettings).Methods("GET")
	r.HandleFunc("/settings", h.SaveSettings).Methods("PUT")

	r.HandleFunc("/daily", h.Daily).Methods("GET")
	r.HandleFunc("/calendar", h.Calendar).Methods("GET")
	r.HandleFunc("/dashboard", h.Dashboard).Methods("GET")
	r.HandleFunc("/forecast", h.Forecast).Methods("POST")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("Shutting down")
	if err := server.Close(); err != nil {
		logger.Errorf("Server close: %v", err)
	}
}
