package store

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

const postgresMigration = `
CREATE TABLE IF NOT EXISTS documents (
	seq BIGSERIAL PRIMARY KEY,
	collection TEXT NOT NULL,
	doc JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents (collection);`

var postgresDialect = dialect{
	name:      "postgres",
	migration: postgresMigration,
	placeholder: func(n int) string {
		return fmt.Sprintf("$%d", n)
	},
	extract: func(field string, _ int) string {
		return fmt.Sprintf("doc->>'%s'", field)
	},
}

// NewPostgresStore creates a DocumentStore over an open postgres
// connection, running the schema migration first.
func NewPostgresStore(db *sql.DB) (*SQLStore, error) {
	return newSQLStore(db, postgresDialect)
}

// OpenPostgres connects to databaseURL and returns a store over it.
func OpenPostgres(databaseURL string) (*SQLStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return NewPostgresStore(db)
}
