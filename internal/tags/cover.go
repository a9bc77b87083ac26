package tags

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// Image basenames commonly used for album art in music folders.
var coverBasenames = []string{"cover", "folder", "album", "front", "artwork"}

// Cover returns the album art for an audio file: embedded art when the tags
// carry a picture, else a cover image sitting next to the file. Returns nil
// data when no art exists.
func Cover(path string) (data []byte, mimeType string, err error) {
	data, mimeType, err = embeddedCover(path)
	if err != nil {
		return nil, "", err
	}
	if data != nil {
		return data, mimeType, nil
	}
	return folderCover(filepath.Dir(path))
}

func embeddedCover(path string) (data []byte, mimeType string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		// Unparseable tags just mean no embedded art.
		return nil, "", nil
	}
	pic := m.Picture()
	if pic == nil {
		return nil, "", nil
	}
	return pic.Data, pic.MIMEType, nil
}

func folderCover(dir string) (data []byte, mimeType string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, "", nil
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		ext := filepath.Ext(name)
		mimeType = imageMIME(ext)
		if mimeType == "" {
			continue
		}
		base := strings.TrimSuffix(name, ext)
		for _, want := range coverBasenames {
			if base != want {
				continue
			}
			data, err = os.ReadFile(filepath.Join(dir, entry.Name()))
			if err != nil {
				continue
			}
			return data, mimeType, nil
		}
	}
	return nil, "", nil
}

func imageMIME(ext string) string {
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	default:
		return ""
	}
}
