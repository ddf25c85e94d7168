package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// dialect abstracts the two SQL backends over their placeholder style and
// JSON field-extraction expression.
type dialect struct {
	name        string
	migration   string
	placeholder func(n int) string
	extract     func(field string, n int) string
}

// SQLStore persists each document as one JSON row. Field filters are
// evaluated by the database through its JSON operators, so Find stays a
// single round trip.
type SQLStore struct {
	db *sql.DB
	d  dialect
}

func newSQLStore(db *sql.DB, d dialect) (*SQLStore, error) {
	s := &SQLStore{db: db, d: d}
	if _, err := db.ExecContext(context.Background(), d.migration); err != nil {
		return nil, fmt.Errorf("%s store migrate: %w", d.name, err)
	}
	return s, nil
}

func (s *SQLStore) Insert(ctx context.Context, collection string, doc map[string]any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%s store insert: %w", s.d.name, err)
	}
	query := fmt.Sprintf(
		"INSERT INTO documents (collection, doc) VALUES (%s, %s)",
		s.d.placeholder(1), s.d.placeholder(2),
	)
	if _, err := s.db.ExecContext(ctx, query, collection, string(raw)); err != nil {
		return fmt.Errorf("%s store insert: %w", s.d.name, err)
	}
	return nil
}

func (s *SQLStore) Find(ctx context.Context, collection string, filter Filter) ([]map[string]any, error) {
	where, args, err := s.whereClause(collection, filter)
	if err != nil {
		return nil, err
	}
	query := "SELECT doc FROM documents WHERE " + where + " ORDER BY seq"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s store find: %w", s.d.name, err)
	}
	defer func() { _ = rows.Close() }()

	var out []map[string]any
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("%s store find: %w", s.d.name, err)
		}
		var doc map[string]any
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("%s store find: corrupt document: %w", s.d.name, err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s store find: %w", s.d.name, err)
	}
	return out, nil
}

func (s *SQLStore) Update(ctx context.Context, collection string, filter Filter, changes map[string]any) (int64, error) {
	where, args, err := s.whereClause(collection, filter)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s store update: %w", s.d.name, err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, "SELECT seq, doc FROM documents WHERE "+where, args...)
	if err != nil {
		return 0, fmt.Errorf("%s store update: %w", s.d.name, err)
	}

	type pending struct {
		seq int64
		doc string
	}
	var updates []pending
	for rows.Next() {
		var seq int64
		var raw string
		if err := rows.Scan(&seq, &raw); err != nil {
			_ = rows.Close()
			return 0, fmt.Errorf("%s store update: %w", s.d.name, err)
		}
		var doc map[string]any
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			_ = rows.Close()
			return 0, fmt.Errorf("%s store update: corrupt document: %w", s.d.name, err)
		}
		for field, value := range changes {
			doc[field] = value
		}
		merged, err := json.Marshal(doc)
		if err != nil {
			_ = rows.Close()
			return 0, fmt.Errorf("%s store update: %w", s.d.name, err)
		}
		updates = append(updates, pending{seq: seq, doc: string(merged)})
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return 0, fmt.Errorf("%s store update: %w", s.d.name, err)
	}
	_ = rows.Close()

	stmt := fmt.Sprintf("UPDATE documents SET doc = %s WHERE seq = %s",
		s.d.placeholder(1), s.d.placeholder(2))
	for _, u := range updates {
		if _, err := tx.ExecContext(ctx, stmt, u.doc, u.seq); err != nil {
			return 0, fmt.Errorf("%s store update: %w", s.d.name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s store update: %w", s.d.name, err)
	}
	return int64(len(updates)), nil
}

func (s *SQLStore) Delete(ctx context.Context, collection string, filter Filter) (int64, error) {
	where, args, err := s.whereClause(collection, filter)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE "+where, args...)
	if err != nil {
		return 0, fmt.Errorf("%s store delete: %w", s.d.name, err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s store delete: %w", s.d.name, err)
	}
	return count, nil
}

// whereClause builds the WHERE expression for a validated filter.
// Conditions are emitted in sorted field order so generated SQL is
// deterministic.
func (s *SQLStore) whereClause(collection string, filter Filter) (string, []any, error) {
	if err := filter.Validate(); err != nil {
		return "", nil, err
	}

	conds := []string{"collection = " + s.d.placeholder(1)}
	args := []any{collection}
	n := 2

	for _, field := range sortedKeys(filter.Eq) {
		conds = append(conds, fmt.Sprintf("%s = %s", s.d.extract(field, n), s.d.placeholder(n)))
		args = append(args, filter.Eq[field])
		n++
	}
	for _, field := range sortedKeys(filter.Lt) {
		conds = append(conds, fmt.Sprintf("%s < %s", s.d.extract(field, n), s.d.placeholder(n)))
		args = append(args, filter.Lt[field])
		n++
	}
	return strings.Join(conds, " AND "), args, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
