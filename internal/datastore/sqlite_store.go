package datastore

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/lab007/webalert/internal/common"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists monitored URLs, subscribers, and change history in a
// SQLite database. It implements models.SubscriptionStore.
type SQLiteStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewSQLiteStore opens (creating if needed) the database at the given path
// and ensures the schema exists.
func NewSQLiteStore(dataSourceName string, logger zerolog.Logger) (*SQLiteStore, error) {
	componentLogger := logger.With().Str("component", "SQLiteStore").Logger()
	componentLogger.Info().Str("db_path", dataSourceName).Msg("Initializing subscription store")

	dbDir := filepath.Dir(dataSourceName)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		componentLogger.Error().Err(err).Str("directory", dbDir).Msg("Failed to create database directory")
		return nil, common.WrapErrorf(err, "failed to create database directory %s", dbDir)
	}

	dbInstance, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		componentLogger.Error().Err(err).Str("db_path", dataSourceName).Msg("Failed to open database")
		return nil, common.WrapErrorf(err, "sql.Open failed for %s", dataSourceName)
	}

	store := &SQLiteStore{
		db:     dbInstance,
		logger: componentLogger,
	}

	if err := store.InitSchema(); err != nil {
		_ = store.Close()
		componentLogger.Error().Err(err).Msg("Failed to initialize database schema")
		return nil, common.WrapError(err, "failed to initialize schema")
	}
	componentLogger.Info().Str("path", dataSourceName).Msg("Subscription store initialized and schema verified")
	return store, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InitSchema creates the tables if they don't already exist.
func (s *SQLiteStore) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS monitored_urls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		website_url TEXT NOT NULL UNIQUE,
		last_check DATETIME,
		last_content TEXT,
		last_debug TEXT,
		check_count INTEGER NOT NULL DEFAULT 0,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS alert_subscribers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url_id INTEGER NOT NULL REFERENCES monitored_urls(id),
		email TEXT NOT NULL,
		phone_number TEXT,
		carrier TEXT,
		polling_duration_minutes INTEGER NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS alerts_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		monitored_url_id INTEGER NOT NULL REFERENCES monitored_urls(id),
		detected_at DATETIME NOT NULL,
		content_before TEXT,
		content_after TEXT,
		email_sent INTEGER NOT NULL DEFAULT 0,
		sms_sent INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_subscribers_url ON alert_subscribers(url_id);
	CREATE INDEX IF NOT EXISTS idx_alerts_url ON alerts_history(monitored_url_id);
	`
	if _, err := s.db.Exec(query); err != nil {
		s.logger.Error().Err(err).Msg("Failed to initialize schema")
		return err
	}
	s.logger.Debug().Msg("Schema initialized successfully")
	return nil
}
