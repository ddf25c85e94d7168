package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS documents (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	collection TEXT NOT NULL,
	doc TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents (collection);`

var sqliteDialect = dialect{
	name:      "sqlite",
	migration: sqliteMigration,
	placeholder: func(int) string {
		return "?"
	},
	extract: func(field string, _ int) string {
		// field names pass Filter.Validate, so splicing is safe here.
		return fmt.Sprintf("json_extract(doc, '$.%s')", field)
	},
}

// NewSQLiteStore creates a DocumentStore over an open sqlite database,
// running the schema migration first.
func NewSQLiteStore(db *sql.DB) (*SQLStore, error) {
	return newSQLStore(db, sqliteDialect)
}

// OpenSQLite opens (or creates) a sqlite database at path and returns a
// store over it.
func OpenSQLite(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open %s: %w", path, err)
	}
	return NewSQLiteStore(db)
}
