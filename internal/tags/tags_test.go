package tags

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTag_Year(t *testing.T) {
	tests := []struct {
		name string
		date string
		want int
	}{
		{"empty", "", 0},
		{"year only", "2023", 2023},
		{"full date", "2023-06-15", 2023},
		{"partial date", "2023-06", 2023},
		{"invalid", "invalid", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag := &Tag{Date: tt.date}
			if got := tag.Year(); got != tt.want {
				t.Errorf("Year() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTag_Sanitize(t *testing.T) {
	tag := &Tag{
		Title:       "  Title  ",
		Artist:      "Artist\n",
		AlbumArtist: "\tAlbum Artist",
		Album:       " Album ",
		Genre:       " Genre",
	}
	tag.Sanitize()
	if tag.Title != "Title" || tag.Artist != "Artist" || tag.AlbumArtist != "Album Artist" ||
		tag.Album != "Album" || tag.Genre != "Genre" {
		t.Errorf("Sanitize() left whitespace: %+v", tag)
	}
}

func TestIsMusicFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/music/track.mp3", true},
		{"/music/track.FLAC", true},
		{"/music/track.ogg", true},
		{"/music/track.oga", true},
		{"/music/track.wav", true},
		{"/music/track.m4a", false},
		{"/music/cover.jpg", false},
		{"/music/track", false},
	}

	for _, tt := range tests {
		if got := IsMusicFile(tt.path); got != tt.want {
			t.Errorf("IsMusicFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestParseTrackNumber(t *testing.T) {
	tests := []struct {
		in        string
		num, toto int
	}{
		{"", 0, 0},
		{"5", 5, 0},
		{"5/10", 5, 10},
		{"x/10", 0, 10},
	}

	for _, tt := range tests {
		num, total := parseTrackNumber(tt.in)
		if num != tt.num || total != tt.toto {
			t.Errorf("parseTrackNumber(%q) = (%d, %d), want (%d, %d)",
				tt.in, num, total, tt.num, tt.toto)
		}
	}
}

func TestTaglibTags_Get(t *testing.T) {
	tags := taglibTags{
		"TITLE":       {"Song"},
		"TRACKNUMBER": {"7"},
		"EMPTY":       {},
	}

	if got := tags.get("TITLE"); got != "Song" {
		t.Errorf("get(TITLE) = %q", got)
	}
	if got := tags.get("MISSING", "TITLE"); got != "Song" {
		t.Errorf("get with fallback = %q", got)
	}
	if got := tags.get("EMPTY"); got != "" {
		t.Errorf("get(EMPTY) = %q", got)
	}
	if got := tags.getInt("TRACKNUMBER"); got != 7 {
		t.Errorf("getInt(TRACKNUMBER) = %d", got)
	}
	if got := tags.getInt("TITLE"); got != 0 {
		t.Errorf("getInt(TITLE) = %d", got)
	}
}

func TestFolderCover(t *testing.T) {
	dir := t.TempDir()
	img := []byte{0x89, 'P', 'N', 'G'}
	if err := os.WriteFile(filepath.Join(dir, "Cover.PNG"), img, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	data, mime, err := folderCover(dir)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(img) {
		t.Errorf("folderCover data = %v", data)
	}
	if mime != "image/png" {
		t.Errorf("folderCover mime = %q", mime)
	}
}

func TestFolderCover_NoArt(t *testing.T) {
	data, mime, err := folderCover(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if data != nil || mime != "" {
		t.Errorf("expected no art, got %d bytes, %q", len(data), mime)
	}
}
