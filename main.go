package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/TreyDong/notion-csv-importer/src/config"
	"github.com/TreyDong/notion-csv-importer/src/database"
	"github.com/TreyDong/notion-csv-importer/src/handlers"
	"github.com/TreyDong/notion-csv-importer/src/logger"
	"github.com/TreyDong/notion-csv-importer/src/notion"
	"github.com/TreyDong/notion-csv-importer/src/services"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000": true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Notion CSV importer starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	ledger := database.NewLedger(database.DB)

	logger.L.Info("Initializing Notion client...", "baseURL", config.Cfg.NotionAPIBaseURL)
	notionClient := notion.NewClient(
		config.Cfg.NotionAPIBaseURL,
		config.Cfg.NotionToken,
		notion.WithTimeout(config.Cfg.NotionHTTPTimeout),
		notion.WithLogger(logger.L),
	)
	transactionsDB := notion.NewTransactionsDatabase(notionClient, config.Cfg.TransactionsDatabaseID)
	holdingsDB := notion.NewHoldingsDatabase(notionClient, config.Cfg.HoldingsDatabaseID)

	logger.L.Info("Initializing services and handlers...")
	importService := services.NewImportService(transactionsDB, holdingsDB, ledger, services.ImportDefaults{
		Encoding:     config.Cfg.FileEncoding,
		BatchSize:    config.Cfg.ImportBatchSize,
		RowLimit:     config.Cfg.ImportRowLimit,
		RequestDelay: config.Cfg.RequestDelay,
		Retry:        services.DefaultRetryPolicy(config.Cfg.ImportMaxAttempts, config.Cfg.RetryBaseDelay),
	})

	uploadHandler := handlers.NewUploadHandler(importService)
	importsHandler := handlers.NewImportsHandler(importService)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	apiRouter.HandleFunc("POST /api/import", uploadHandler.HandleUpload)
	apiRouter.HandleFunc("GET /api/imports", importsHandler.HandleListImports)
	apiRouter.HandleFunc("GET /api/imports/{id}", importsHandler.HandleGetImport)

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "Notion CSV importer is running"})
		} else {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
				http.NotFound(w, r)
			}
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 10 * time.Minute, // imports are paced by the inter-request delay
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
