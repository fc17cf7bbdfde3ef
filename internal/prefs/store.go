// Package prefs persists small native-side settings in SQLite.
//
// Values are typed (string, bool, int). Reading a key that is missing, or
// that was stored with another type, returns the caller's default.
package prefs

import (
	"database/sql"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/google/uuid"
	// SQLite driver (required for database/sql registration).
	_ "github.com/mattn/go-sqlite3"

	"github.com/mentora-ai/mentora/internal/errors"
)

// Kind is the stored type of a preference value.
type Kind string

const (
	KindString Kind = "string"
	KindBool   Kind = "bool"
	KindInt    Kind = "int"
)

// KeyFirstLaunch records whether the app has been launched before.
const KeyFirstLaunch = "first_launch"

// Entry is one stored preference.
type Entry struct {
	Key   string `json:"key"`
	Kind  Kind   `json:"kind"`
	Value string `json:"value"`
}

// Store is a key/value preference store.
type Store struct {
	db   *sql.DB
	once sync.Once
}

// Open opens (and creates if needed) the preference database at path.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrap(err, errors.CodePrefsFailed, "failed to create preference directory", errors.CategorySystem)
		}
	}

	db, err := openDB(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodePrefsFailed, "failed to open preference database", errors.CategorySystem)
	}

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.CodePrefsFailed, "failed to initialize preference schema", errors.CategorySystem)
	}
	return s, nil
}

// openDB opens a single SQLite database with the pragmas the store relies on.
func openDB(dbPath string) (*sql.DB, error) {
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000"
	if dbPath == ":memory:" {
		// Each store gets its own named in-memory database.
		dsn = "file:prefs-" + uuid.NewString() + "?mode=memory&cache=shared"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	// One writer; every operation is a single statement.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

func (s *Store) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		description TEXT
	);

	CREATE TABLE IF NOT EXISTS preferences (
		key        TEXT PRIMARY KEY,
		kind       TEXT NOT NULL,
		value      TEXT NOT NULL,
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return ensureSchemaVersion(s.db, 1, "Initial preference schema")
}

func ensureSchemaVersion(db *sql.DB, version int, description string) error {
	var current sql.NullInt64
	if err := db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&current); err != nil {
		return err
	}
	if !current.Valid || int(current.Int64) < version {
		_, err := db.Exec(
			"INSERT INTO schema_migrations (version, description) VALUES (?, ?)",
			version,
			description,
		)
		return err
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	var err error
	s.once.Do(func() { err = s.db.Close() })
	return err
}

// ============================================================
// Typed accessors
// ============================================================

// SaveString stores a string value.
func (s *Store) SaveString(key, value string) error {
	return s.put(key, KindString, value)
}

// GetString returns the string at key, or def.
func (s *Store) GetString(key, def string) string {
	v, ok := s.get(key, KindString)
	if !ok {
		return def
	}
	return v
}

// SaveBool stores a boolean value.
func (s *Store) SaveBool(key string, value bool) error {
	return s.put(key, KindBool, strconv.FormatBool(value))
}

// GetBool returns the boolean at key, or def.
func (s *Store) GetBool(key string, def bool) bool {
	v, ok := s.get(key, KindBool)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// SaveInt stores an integer value.
func (s *Store) SaveInt(key string, value int) error {
	return s.put(key, KindInt, strconv.Itoa(value))
}

// GetInt returns the integer at key, or def.
func (s *Store) GetInt(key string, def int) int {
	v, ok := s.get(key, KindInt)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Remove deletes key. Removing a missing key is not an error.
func (s *Store) Remove(key string) error {
	if _, err := s.db.Exec("DELETE FROM preferences WHERE key = ?", key); err != nil {
		return errors.Wrap(err, errors.CodePrefsFailed, "failed to remove preference", errors.CategorySystem)
	}
	return nil
}

// Clear deletes every preference.
func (s *Store) Clear() error {
	if _, err := s.db.Exec("DELETE FROM preferences"); err != nil {
		return errors.Wrap(err, errors.CodePrefsFailed, "failed to clear preferences", errors.CategorySystem)
	}
	return nil
}

// All returns every stored entry ordered by key.
func (s *Store) All() ([]Entry, error) {
	rows, err := s.db.Query("SELECT key, kind, value FROM preferences ORDER BY key")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodePrefsFailed, "failed to list preferences", errors.CategorySystem)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Kind, &e.Value); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// IsFirstLaunch reports whether the first-launch flag is still set.
func (s *Store) IsFirstLaunch() bool {
	return s.GetBool(KeyFirstLaunch, true)
}

// SetFirstLaunch updates the first-launch flag.
func (s *Store) SetFirstLaunch(first bool) error {
	return s.SaveBool(KeyFirstLaunch, first)
}

func (s *Store) put(key string, kind Kind, value string) error {
	if key == "" {
		return errors.User(errors.CodeInvalidInput, "preference key must not be empty")
	}
	_, err := s.db.Exec(`
		INSERT INTO preferences (key, kind, value) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET kind = excluded.kind, value = excluded.value,
			updated_at = strftime('%s', 'now')`,
		key, string(kind), value,
	)
	if err != nil {
		return errors.Wrap(err, errors.CodePrefsFailed, "failed to save preference", errors.CategorySystem)
	}
	return nil
}

func (s *Store) get(key string, kind Kind) (string, bool) {
	var stored Kind
	var value string
	err := s.db.QueryRow("SELECT kind, value FROM preferences WHERE key = ?", key).Scan(&stored, &value)
	if err != nil || stored != kind {
		return "", false
	}
	return value, true
}
