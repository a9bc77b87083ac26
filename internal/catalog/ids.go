package catalog

import (
	"crypto/sha1"
	"encoding/hex"
)

// TrackID derives a stable, URL-safe identifier from a track locator.
// The same file always maps to the same ID across scans.
func TrackID(locator string) string {
	sum := sha1.Sum([]byte(locator))
	return hex.EncodeToString(sum[:8])
}

// AlbumID derives a stable identifier for an album from its artist and title.
func AlbumID(artist, title string) string {
	sum := sha1.Sum([]byte(artist + "\x00" + title))
	return hex.EncodeToString(sum[:8])
}
