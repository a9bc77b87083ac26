package library

import (
	"database/sql"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lmenard/platter/internal/catalog"
	"github.com/lmenard/platter/internal/db"
	"github.com/lmenard/platter/internal/tags"
)

const numWorkers = 8

// Scan phases, in order.
const (
	PhaseScanning   = "scanning"
	PhaseProcessing = "processing"
	PhaseCleaning   = "cleaning"
	PhaseDone       = "done"
)

// ScanProgress reports the progress of a library scan.
type ScanProgress struct {
	Phase   string
	Current int
	Total   int
	Stats   *ScanStats // only populated when Phase == PhaseDone
}

// ScanStats summarizes a completed scan.
type ScanStats struct {
	Found   int   // music files discovered on disk
	Added   int   // new tracks indexed
	Updated int   // tracks reindexed after an mtime change
	Removed int   // tracks pruned because the file disappeared
	Bytes   int64 // total size of the discovered files
}

// trackResult holds the parsed metadata for one processed file.
type trackResult struct {
	path  string
	mtime int64
	tag   *tags.Tag
	isNew bool
}

// Refresh performs an incremental scan of the given source directories:
// unchanged files (same mtime) are skipped, missing files are pruned.
// progress may be nil; when set it is closed before Refresh returns.
func (l *Library) Refresh(sources []string, progress chan<- ScanProgress) (*ScanStats, error) {
	return l.refresh(sources, progress, false)
}

// FullRefresh rescans every file regardless of modification time. Use it to
// pick up retagged files whose mtime did not change.
func (l *Library) FullRefresh(sources []string, progress chan<- ScanProgress) (*ScanStats, error) {
	return l.refresh(sources, progress, true)
}

func (l *Library) refresh(sources []string, progress chan<- ScanProgress, force bool) (*ScanStats, error) {
	if progress != nil {
		defer close(progress)
	}
	report := func(p ScanProgress) {
		if progress != nil {
			progress <- p
		}
	}

	stats := &ScanStats{}
	start := time.Now()

	report(ScanProgress{Phase: PhaseScanning})
	files, discovered := discoverFiles(sources, progress)
	stats.Found = len(files)
	for _, f := range files {
		stats.Bytes += f.size
	}

	existing, err := l.existingTracks()
	if err != nil {
		return nil, err
	}

	toProcess := make([]fileInfo, 0, len(files))
	isNew := make(map[string]bool)
	for _, f := range files {
		if !force {
			if mtime, ok := existing[f.path]; ok && mtime == f.mtime {
				continue
			}
		}
		_, existed := existing[f.path]
		isNew[f.path] = !existed
		toProcess = append(toProcess, f)
	}

	if len(toProcess) > 0 {
		if err := l.processFiles(toProcess, isNew, stats, progress); err != nil {
			return nil, err
		}
	}

	report(ScanProgress{Phase: PhaseCleaning})
	var missing []string
	for path := range existing {
		if _, ok := discovered[path]; !ok {
			missing = append(missing, path)
		}
	}
	if err := l.pruneTracks(missing); err != nil {
		return nil, err
	}
	stats.Removed = len(missing)

	l.log.Info("library scan finished",
		"found", stats.Found,
		"added", stats.Added,
		"updated", stats.Updated,
		"removed", stats.Removed,
		"elapsed", time.Since(start).Round(time.Millisecond))

	report(ScanProgress{Phase: PhaseDone, Current: len(files), Total: len(files), Stats: stats})
	return stats, nil
}

// processFiles reads tags in parallel and inserts results sequentially:
// sqlite takes a single writer, the tag parsing is the slow part.
func (l *Library) processFiles(
	toProcess []fileInfo,
	isNew map[string]bool,
	stats *ScanStats,
	progress chan<- ScanProgress,
) error {
	total := len(toProcess)
	var processed atomic.Int64

	workCh := make(chan fileInfo, total)
	resultCh := make(chan trackResult, total)

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Go(func() {
			for f := range workCh {
				tag, err := tags.Read(f.path)
				if err != nil {
					l.log.Warn("skipping unreadable file", "path", f.path, "error", err)
					processed.Add(1)
					continue
				}
				if (tag.Artist == "" && tag.AlbumArtist == "") || tag.Album == "" {
					processed.Add(1)
					continue
				}
				resultCh <- trackResult{path: f.path, mtime: f.mtime, tag: tag, isNew: isNew[f.path]}
				processed.Add(1)
			}
		})
	}

	go func() {
		for _, f := range toProcess {
			workCh <- f
		}
		close(workCh)
	}()

	done := make(chan struct{})
	if progress != nil {
		go func() {
			ticker := time.NewTicker(100 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					progress <- ScanProgress{
						Phase:   PhaseProcessing,
						Current: int(processed.Load()),
						Total:   total,
					}
				case <-done:
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var insertErr error
	for result := range resultCh {
		if insertErr != nil {
			continue // drain
		}
		if err := l.upsertTrack(result.path, result.mtime, result.tag); err != nil {
			insertErr = err
			continue
		}
		if result.isNew {
			stats.Added++
		} else {
			stats.Updated++
		}
	}

	close(done)
	if insertErr != nil {
		return insertErr
	}
	if progress != nil {
		progress <- ScanProgress{Phase: PhaseProcessing, Current: total, Total: total}
	}
	return nil
}

// Add indexes a single file with already parsed tags, outside any scan.
func (l *Library) Add(path string, mtime int64, tag *tags.Tag) error {
	return l.upsertTrack(path, mtime, tag)
}

// existingTracks returns a map of path to mtime for every indexed track.
func (l *Library) existingTracks() (map[string]int64, error) {
	rows, err := l.db.Query(`SELECT path, mtime FROM library_tracks`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tracks := make(map[string]int64)
	for rows.Next() {
		var path string
		var mtime int64
		if err := rows.Scan(&path, &mtime); err != nil {
			return nil, err
		}
		tracks[path] = mtime
	}
	return tracks, rows.Err()
}

func (l *Library) upsertTrack(path string, mtime int64, tag *tags.Tag) error {
	albumArtist := tag.AlbumArtist
	if albumArtist == "" {
		albumArtist = tag.Artist
	}
	title := tag.Title
	if title == "" {
		title = path
	}
	now := time.Now().Unix()

	_, err := l.db.Exec(`
		INSERT INTO library_tracks (track_id, path, mtime, artist, album_artist, album, title, track_number, year, genre, added_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			mtime = excluded.mtime,
			artist = excluded.artist,
			album_artist = excluded.album_artist,
			album = excluded.album,
			title = excluded.title,
			track_number = excluded.track_number,
			year = excluded.year,
			genre = excluded.genre,
			updated_at = excluded.updated_at
	`, catalog.TrackID(path), path, mtime, tag.Artist, albumArtist, tag.Album, title,
		tag.TrackNumber, tag.Year(), tag.Genre, mtime, now)
	return err
}

// pruneTracks removes the given paths in a single transaction.
func (l *Library) pruneTracks(paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	return db.WithTx(l.db, func(tx *sql.Tx) error {
		for _, path := range paths {
			if _, err := tx.Exec(`DELETE FROM library_tracks WHERE path = ?`, path); err != nil {
				return err
			}
		}
		return nil
	})
}
