package database

import (
	"database/sql"
	stdlog "log"

	"github.com/TreyDong/notion-csv-importer/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

// InitDB opens the local ledger database and ensures its tables exist.
func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS import_runs (
		run_id TEXT PRIMARY KEY,
		filename TEXT,
		total INTEGER NOT NULL,
		imported INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS import_row_failures (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		line INTEGER NOT NULL,
		order_number TEXT,
		reason TEXT NOT NULL,
		detail TEXT,
		FOREIGN KEY(run_id) REFERENCES import_runs(run_id)
	);

	CREATE INDEX IF NOT EXISTS idx_row_failures_run_id ON import_row_failures(run_id);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.", "databasePath", databasePath)
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}
