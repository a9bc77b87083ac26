package tags

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
)

// Read extracts tag metadata from a music file. It uses dhowden/tag as the
// primary parser and falls back to format-specific readers when that fails
// or returns incomplete data.
func Read(path string) (*Tag, error) {
	t, err := readPrimary(path)
	if err != nil || t.Title == "" {
		if fb, fbErr := readFallback(path); fbErr == nil {
			return fb, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading tags from %s: %w", path, err)
		}
	}
	return t, nil
}

func readPrimary(path string) (*Tag, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, err
	}

	t := &Tag{
		Path:        path,
		Title:       m.Title(),
		Artist:      m.Artist(),
		AlbumArtist: m.AlbumArtist(),
		Album:       m.Album(),
		Genre:       m.Genre(),
	}
	t.TrackNumber, t.TotalTracks = m.Track()
	t.DiscNumber, _ = m.Disc()
	t.Date = rawDate(m)
	if t.Date == "" && m.Year() > 0 {
		t.Date = strconv.Itoa(m.Year())
	}
	t.Sanitize()
	return t, nil
}

// rawDate digs the full release date out of the raw frame map since the
// generic interface only exposes the year.
func rawDate(m tag.Metadata) string {
	raw := m.Raw()
	for _, key := range []string{"TDRC", "TDRL", "TYER", "DATE", "ORIGINALDATE", "\xa9day"} {
		if v, ok := raw[key]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func readFallback(path string) (*Tag, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtMP3:
		return readMP3(path)
	case ExtFLAC, ExtOGG, ExtOGA:
		return readTagLib(path)
	default:
		return nil, fmt.Errorf("no fallback reader for %s", path)
	}
}
