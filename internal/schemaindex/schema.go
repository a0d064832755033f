package schemaindex

import (
	"database/sql"
	"fmt"

	. "github.com/sqlclaw/sqlclaw/internal/logging"
)

// initSchema creates the schema-index tables.
func initSchema(db *sql.DB) error {
	L_debug("schemaindex: initializing store")

	// WAL for concurrent readers during a rebuild
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		L_warn("schemaindex: failed to enable WAL mode", "error", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		L_warn("schemaindex: failed to set busy timeout", "error", err)
	}

	// One row per data-source table
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_docs (
			table_name TEXT PRIMARY KEY,
			doc TEXT NOT NULL,
			embedding BLOB,
			embedding_model TEXT,
			updated_at INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("create schema_docs table: %w", err)
	}

	// FTS5 mirror for keyword fallback when no embedding provider is configured
	if _, err := db.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS schema_fts USING fts5(
			doc,
			table_name UNINDEXED,
			content='schema_docs',
			content_rowid='rowid'
		)
	`); err != nil {
		return fmt.Errorf("create schema_fts table: %w", err)
	}

	// Triggers keep the FTS mirror in sync with schema_docs
	if _, err := db.Exec(`
		CREATE TRIGGER IF NOT EXISTS schema_docs_ai AFTER INSERT ON schema_docs BEGIN
			INSERT INTO schema_fts(rowid, doc, table_name)
			VALUES (NEW.rowid, NEW.doc, NEW.table_name);
		END
	`); err != nil {
		return fmt.Errorf("create insert trigger: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TRIGGER IF NOT EXISTS schema_docs_ad AFTER DELETE ON schema_docs BEGIN
			INSERT INTO schema_fts(schema_fts, rowid, doc, table_name)
			VALUES ('delete', OLD.rowid, OLD.doc, OLD.table_name);
		END
	`); err != nil {
		return fmt.Errorf("create delete trigger: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TRIGGER IF NOT EXISTS schema_docs_au AFTER UPDATE ON schema_docs BEGIN
			INSERT INTO schema_fts(schema_fts, rowid, doc, table_name)
			VALUES ('delete', OLD.rowid, OLD.doc, OLD.table_name);
			INSERT INTO schema_fts(rowid, doc, table_name)
			VALUES (NEW.rowid, NEW.doc, NEW.table_name);
		END
	`); err != nil {
		return fmt.Errorf("create update trigger: %w", err)
	}

	return nil
}

// countDocs returns the number of indexed schema docs.
func countDocs(db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_docs").Scan(&n); err != nil {
		return 0, fmt.Errorf("count docs: %w", err)
	}
	return n, nil
}

// clearDocs removes all indexed docs (for a full rebuild).
// The FTS mirror is cleared via triggers.
func clearDocs(db *sql.DB) error {
	if _, err := db.Exec("DELETE FROM schema_docs"); err != nil {
		return fmt.Errorf("clear docs: %w", err)
	}
	return nil
}
