package catalog

import (
	"testing"
	"time"
)

func TestOrganize_GroupsByAlbumArtist(t *testing.T) {
	files := []File{
		{Path: "/m/a1.flac", Title: "One", Artist: "Feat Guy", AlbumArtist: "Band", Album: "Record", Number: 1},
		{Path: "/m/a2.flac", Title: "Two", Artist: "Band", AlbumArtist: "Band", Album: "Record", Number: 2},
	}

	artists := Organize(files)

	if len(artists) != 1 {
		t.Fatalf("len(artists) = %d, want 1", len(artists))
	}
	if artists[0].Name != "Band" {
		t.Errorf("artist = %q, want Band", artists[0].Name)
	}
	if len(artists[0].Albums) != 1 {
		t.Fatalf("len(albums) = %d, want 1", len(artists[0].Albums))
	}
	album := artists[0].Albums[0]
	if len(album.Tracks) != 2 {
		t.Fatalf("len(tracks) = %d, want 2", len(album.Tracks))
	}
	if album.Tracks[0].Title != "One" || album.Tracks[1].Title != "Two" {
		t.Errorf("track order = %q, %q", album.Tracks[0].Title, album.Tracks[1].Title)
	}
}

func TestOrganize_SortsTracksByNumberThenTitle(t *testing.T) {
	files := []File{
		{Path: "/m/c.mp3", Title: "Charlie", Artist: "X", Album: "A", Number: 0},
		{Path: "/m/b.mp3", Title: "Bravo", Artist: "X", Album: "A", Number: 2},
		{Path: "/m/a.mp3", Title: "Alpha", Artist: "X", Album: "A", Number: 0},
	}

	tracks := Organize(files)[0].Albums[0].Tracks

	want := []string{"Alpha", "Charlie", "Bravo"}
	for i, title := range want {
		if tracks[i].Title != title {
			t.Errorf("tracks[%d].Title = %q, want %q", i, tracks[i].Title, title)
		}
	}
}

func TestOrganize_AlbumsSortedByYearUnknownLast(t *testing.T) {
	files := []File{
		{Path: "/m/1.mp3", Title: "t", Artist: "X", Album: "Later", Year: 1995},
		{Path: "/m/2.mp3", Title: "t", Artist: "X", Album: "Undated"},
		{Path: "/m/3.mp3", Title: "t", Artist: "X", Album: "Early", Year: 1971},
	}

	albums := Organize(files)[0].Albums

	want := []string{"Early", "Later", "Undated"}
	for i, title := range want {
		if albums[i].Title != title {
			t.Errorf("albums[%d].Title = %q, want %q", i, albums[i].Title, title)
		}
	}
}

func TestOrganize_SkipsFilesWithoutArtistOrAlbum(t *testing.T) {
	files := []File{
		{Path: "/m/no-album.mp3", Title: "x", Artist: "X"},
		{Path: "/m/no-artist.mp3", Title: "x", Album: "A"},
	}

	if got := Organize(files); len(got) != 0 {
		t.Errorf("len(Organize) = %d, want 0", len(got))
	}
}

func TestTrackID_Stable(t *testing.T) {
	a := TrackID("/music/band/record/01.flac")
	b := TrackID("/music/band/record/01.flac")
	if a != b {
		t.Errorf("TrackID not stable: %q vs %q", a, b)
	}
	if a == TrackID("/music/band/record/02.flac") {
		t.Error("distinct paths produced identical IDs")
	}
}

func TestAlbum_TotalDuration(t *testing.T) {
	a := Album{Tracks: []Track{
		{Duration: 2 * time.Minute},
		{Duration: 3 * time.Minute},
	}}
	if a.TotalDuration() != 5*time.Minute {
		t.Errorf("TotalDuration() = %v, want 5m", a.TotalDuration())
	}
}
