package library

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lmenard/platter/internal/catalog"
	dbutil "github.com/lmenard/platter/internal/db"
)

// ErrNotFound is returned by lookups when nothing matches.
var ErrNotFound = errors.New("not found")

const trackColumns = `track_id, path, artist, album_artist, album, title, track_number, year, genre`

// Artists returns the full catalog tree: every album artist with their
// albums and ordered tracks.
func (l *Library) Artists() ([]catalog.Artist, error) {
	files, err := l.allFiles()
	if err != nil {
		return nil, err
	}
	return catalog.Organize(files), nil
}

// Albums returns every album in the library, ordered by artist then the
// album order within each artist.
func (l *Library) Albums() ([]catalog.Album, error) {
	artists, err := l.Artists()
	if err != nil {
		return nil, err
	}
	var albums []catalog.Album
	for _, artist := range artists {
		albums = append(albums, artist.Albums...)
	}
	return albums, nil
}

// AlbumByID returns the album with the given identifier, ErrNotFound when
// no such album exists.
func (l *Library) AlbumByID(id string) (*catalog.Album, error) {
	albums, err := l.Albums()
	if err != nil {
		return nil, err
	}
	for i := range albums {
		if albums[i].ID == id {
			return &albums[i], nil
		}
	}
	return nil, fmt.Errorf("album %s: %w", id, ErrNotFound)
}

// TrackByID returns the track with the given identifier, ErrNotFound when
// no such track exists.
func (l *Library) TrackByID(id string) (*catalog.Track, error) {
	row := l.db.QueryRow(`
		SELECT `+trackColumns+`
		FROM library_tracks
		WHERE track_id = ?
	`, id)

	track, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("track %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return track, nil
}

// TrackCount returns the number of indexed tracks.
func (l *Library) TrackCount() (int, error) {
	var count int
	err := l.db.QueryRow(`SELECT COUNT(*) FROM library_tracks`).Scan(&count)
	return count, err
}

// allFiles reads the flat track table back as scan results for organizing.
func (l *Library) allFiles() ([]catalog.File, error) {
	rows, err := l.db.Query(`
		SELECT path, artist, album_artist, album, title, track_number, year
		FROM library_tracks
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []catalog.File
	for rows.Next() {
		var f catalog.File
		var trackNum, year sql.NullInt64
		if err := rows.Scan(&f.Path, &f.Artist, &f.AlbumArtist, &f.Album, &f.Title,
			&trackNum, &year); err != nil {
			return nil, err
		}
		f.Number = int(dbutil.NullIntValue(trackNum))
		f.Year = int(dbutil.NullIntValue(year))
		files = append(files, f)
	}
	return files, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrack(row rowScanner) (*catalog.Track, error) {
	var t catalog.Track
	var albumArtist string
	var trackNum, year sql.NullInt64
	var genre sql.NullString

	err := row.Scan(&t.ID, &t.Locator, &t.Artist, &albumArtist, &t.Album, &t.Title,
		&trackNum, &year, &genre)
	if err != nil {
		return nil, err
	}
	if t.Artist == "" {
		t.Artist = albumArtist
	}
	t.Number = int(dbutil.NullIntValue(trackNum))
	return &t, nil
}
