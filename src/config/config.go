package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port               string
	LogLevel           string
	DatabasePath       string
	MaxUploadSizeBytes int64

	NotionToken            string
	NotionAPIBaseURL       string
	NotionHTTPTimeout      time.Duration
	TransactionsDatabaseID string
	HoldingsDatabaseID     string

	FileEncoding      string
	ImportBatchSize   int
	ImportRowLimit    int
	RequestDelay      time.Duration
	ImportMaxAttempts int
	RetryBaseDelay    time.Duration
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "10485760")
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 10 * 1024 * 1024
	}

	Cfg = &AppConfig{
		Port:               getEnv("PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabasePath:       getEnv("DATABASE_PATH", "./importer.db"),
		MaxUploadSizeBytes: maxUploadSizeBytes,

		NotionToken:            getEnv("NOTION_TOKEN", ""),
		NotionAPIBaseURL:       getEnv("NOTION_API_BASE_URL", "https://api.notion.com"),
		NotionHTTPTimeout:      getEnvAsDuration("NOTION_HTTP_TIMEOUT", 30*time.Second),
		TransactionsDatabaseID: getEnv("NOTION_TRANSACTIONS_DATABASE_ID", ""),
		HoldingsDatabaseID:     getEnv("NOTION_HOLDINGS_DATABASE_ID", ""),

		FileEncoding:      getEnv("CSV_ENCODING", "gbk"),
		ImportBatchSize:   getEnvAsInt("IMPORT_BATCH_SIZE", 10),
		ImportRowLimit:    getEnvAsInt("IMPORT_ROW_LIMIT", 0),
		RequestDelay:      getEnvAsDuration("IMPORT_REQUEST_DELAY", time.Second),
		ImportMaxAttempts: getEnvAsInt("IMPORT_MAX_ATTEMPTS", 4),
		RetryBaseDelay:    getEnvAsDuration("IMPORT_RETRY_BASE_DELAY", time.Second),
	}

	if Cfg.NotionToken == "" {
		log.Println("WARNING: NOTION_TOKEN is not set. Remote imports will be rejected by the Notion API.")
	}
	if Cfg.TransactionsDatabaseID == "" || Cfg.HoldingsDatabaseID == "" {
		log.Fatalf("FATAL: NOTION_TRANSACTIONS_DATABASE_ID and NOTION_HOLDINGS_DATABASE_ID must be set in environment or .env file.")
	}
	if Cfg.ImportBatchSize <= 0 {
		log.Printf("WARNING: IMPORT_BATCH_SIZE must be positive, got %d. Using default 10.", Cfg.ImportBatchSize)
		Cfg.ImportBatchSize = 10
	}
	if Cfg.ImportMaxAttempts <= 0 {
		log.Printf("WARNING: IMPORT_MAX_ATTEMPTS must be positive, got %d. Using default 4.", Cfg.ImportMaxAttempts)
		Cfg.ImportMaxAttempts = 4
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, BatchSize=%d, RequestDelay=%s, Encoding=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.ImportBatchSize, Cfg.RequestDelay, Cfg.FileEncoding)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Integer value for %s not set or empty, using default: %d", key, fallback)
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Duration value for %s not set or empty, using default: %s", key, fallback.String())
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
