package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
    collection  TEXT PRIMARY KEY,
    body        TEXT NOT NULL,
    updated_at  INTEGER NOT NULL
);
`

// DocStore is the document-database backend: one JSON document per
// collection, stored in a local sqlite database. Every operation reads
// the current document, applies the change, and writes it back whole.
type DocStore struct {
	db         *sql.DB
	collection string
}

func OpenDoc(path, collection string) (*DocStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	if collection == "" {
		collection = "cabinet"
	}
	return &DocStore{db: db, collection: collection}, nil
}

func OpenMemoryDoc(collection string) (*DocStore, error) {
	return OpenDoc(":memory:", collection)
}

func (s *DocStore) Close() error {
	return s.db.Close()
}

func (s *DocStore) Get(keys ...string) (any, error) {
	doc, err := s.Load()
	if err != nil {
		return nil, err
	}
	return traverse(doc, keys)
}

func (s *DocStore) Put(value any, keys ...string) error {
	doc, err := s.Load()
	if err != nil {
		return err
	}
	if err := putPath(doc, value, keys); err != nil {
		return err
	}
	return s.save(doc)
}

func (s *DocStore) Remove(keys ...string) error {
	doc, err := s.Load()
	if err != nil {
		return err
	}
	if err := removePath(doc, keys); err != nil {
		return err
	}
	return s.save(doc)
}

func (s *DocStore) Load() (map[string]any, error) {
	row := s.db.QueryRow(`SELECT body FROM documents WHERE collection = ?`, s.collection)

	var body string
	err := row.Scan(&body)
	if err == sql.ErrNoRows {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan document: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

func (s *DocStore) Export(w io.Writer) error {
	doc, err := s.Load()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(doc)
}

func (s *DocStore) save(doc map[string]any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO documents (collection, body, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(collection) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`, s.collection, string(body), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}
