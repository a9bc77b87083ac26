package library

import (
	"os"
	"path/filepath"

	"github.com/lmenard/platter/internal/tags"
)

// fileInfo holds information about a discovered music file.
type fileInfo struct {
	path  string
	mtime int64
	size  int64
}

// discoverFiles walks the given source directories and returns all music
// files found. Walk and stat errors are skipped so one unreadable path does
// not abort the scan.
func discoverFiles(sources []string, progress chan<- ScanProgress) (files []fileInfo, discovered map[string]struct{}) {
	for _, src := range sources {
		_ = filepath.WalkDir(src, func(path string, d os.DirEntry, walkErr error) error {
			if walkErr != nil {
				return nil //nolint:nilerr // intentionally skipping errors
			}
			if d.IsDir() || !tags.IsMusicFile(path) {
				return nil
			}

			info, infoErr := d.Info()
			if infoErr != nil {
				return nil //nolint:nilerr // intentionally skipping errors
			}

			files = append(files, fileInfo{
				path:  path,
				mtime: info.ModTime().Unix(),
				size:  info.Size(),
			})

			if progress != nil && len(files)%100 == 0 {
				progress <- ScanProgress{Phase: PhaseScanning, Current: len(files)}
			}
			return nil
		})
	}

	discovered = make(map[string]struct{}, len(files))
	for _, f := range files {
		discovered[f.path] = struct{}{}
	}
	return files, discovered
}
