// CLAUDE:SUMMARY SQLite store of named casing models in their text form, with an in-process cache of decoded models.
package modelstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/textprep/pkg/truecase"
)

// ErrNotFound is returned when no model has the requested name.
var ErrNotFound = errors.New("model not found")

// Info describes a stored model without its data.
type Info struct {
	Name      string `json:"name"`
	Language  string `json:"language"`
	ASR       bool   `json:"asr"`
	Words     int    `json:"words"`
	Size      int    `json:"size"`
	UpdatedAt int64  `json:"updated_at"`
}

// Store manages the casing_models SQLite table.
type Store struct {
	db *sql.DB

	mu    sync.RWMutex
	cache map[string]*truecase.Model
}

// Open opens (or creates) the SQLite database at path and ensures the
// casing_models table exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open model store: %w", err)
	}

	const ddl = `CREATE TABLE IF NOT EXISTS casing_models (
		name        TEXT PRIMARY KEY,
		language    TEXT NOT NULL DEFAULT '',
		asr         INTEGER NOT NULL DEFAULT 0,
		words       INTEGER NOT NULL,
		data        BLOB NOT NULL,
		created_at  INTEGER NOT NULL,
		updated_at  INTEGER NOT NULL
	)`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create casing_models table: %w", err)
	}

	return &Store{db: db, cache: make(map[string]*truecase.Model)}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores m under name, replacing any model with the same name.
func (s *Store) Save(ctx context.Context, name, language string, m *truecase.Model) error {
	if name == "" {
		return errors.New("model name is empty")
	}
	data := truecase.Marshal(m)
	now := time.Now().Unix()
	_, err := s.db.ExecContext(ctx, `INSERT INTO casing_models
		(name, language, asr, words, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			language = excluded.language,
			asr = excluded.asr,
			words = excluded.words,
			data = excluded.data,
			updated_at = excluded.updated_at`,
		name, language, m.ASR(), m.Len(), data, now, now)
	if err != nil {
		return fmt.Errorf("save model %s: %w", name, err)
	}

	s.mu.Lock()
	s.cache[name] = m
	s.mu.Unlock()
	return nil
}

// Load returns the model stored under name. Decoded models are cached;
// a stored blob that does not parse fails with truecase.ErrModelLoad.
func (s *Store) Load(ctx context.Context, name string) (*truecase.Model, error) {
	s.mu.RLock()
	m, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return m, nil
	}

	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM casing_models WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", name, err)
	}
	m, err = truecase.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", name, err)
	}

	s.mu.Lock()
	s.cache[name] = m
	s.mu.Unlock()
	return m, nil
}

// List returns every stored model ordered by name.
func (s *Store) List(ctx context.Context) ([]Info, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, language, asr, words, length(data), updated_at
		FROM casing_models ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer rows.Close()

	var infos []Info
	for rows.Next() {
		var info Info
		if err := rows.Scan(&info.Name, &info.Language, &info.ASR, &info.Words, &info.Size, &info.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan model: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Delete removes the model stored under name.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM casing_models WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete model %s: %w", name, err)
	}
	s.mu.Lock()
	delete(s.cache, name)
	s.mu.Unlock()

	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}
