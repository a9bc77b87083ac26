// Package library maintains the sqlite index of scanned music files and
// exposes it as the catalog tree the rest of platter works with.
package library

import (
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	appName    = "platter"
	dbFileName = "platter.db"
)

// Library is the persistent track index.
type Library struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens (creating if needed) the library database at the default XDG
// data location.
func Open(log *slog.Logger) (*Library, error) {
	dbPath, err := xdg.DataFile(filepath.Join(appName, dbFileName))
	if err != nil {
		return nil, err
	}
	return OpenPath(log, dbPath)
}

// OpenPath opens a library database at an explicit path.
func OpenPath(log *slog.Logger, dbPath string) (*Library, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return New(log, db), nil
}

// New wraps an already opened database. The caller keeps ownership of db
// unless Close is called.
func New(log *slog.Logger, db *sql.DB) *Library {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Library{db: db, log: log}
}

func (l *Library) Close() error {
	return l.db.Close()
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS library_tracks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			track_id TEXT NOT NULL UNIQUE,
			path TEXT NOT NULL UNIQUE,
			mtime INTEGER NOT NULL,
			artist TEXT NOT NULL,
			album_artist TEXT NOT NULL,
			album TEXT NOT NULL,
			title TEXT NOT NULL,
			track_number INTEGER,
			year INTEGER,
			genre TEXT,
			added_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_tracks_album_artist ON library_tracks(album_artist);
		CREATE INDEX IF NOT EXISTS idx_tracks_album_artist_album ON library_tracks(album_artist, album);
	`)
	return err
}
