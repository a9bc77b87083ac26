package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/lmenard/platter/internal/catalog"
	"github.com/lmenard/platter/internal/library"
	"github.com/lmenard/platter/internal/tags"
)

// testServer builds a library with one album of two on-disk "audio" files
// and returns the server plus the file contents.
func testServer(t *testing.T) (*httptest.Server, []string, []byte) {
	t.Helper()

	dir := t.TempDir()
	payload := []byte("fake mp3 bytes, long enough for range requests to be interesting")
	paths := []string{
		filepath.Join(dir, "01.mp3"),
		filepath.Join(dir, "02.mp3"),
	}
	for _, p := range paths {
		if err := os.WriteFile(p, payload, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	lib, err := library.OpenPath(nil, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { lib.Close() })
	for i, p := range paths {
		tag := &tags.Tag{
			Path:        p,
			Title:       fmt.Sprintf("Track %d", i+1),
			Artist:      "Artist",
			AlbumArtist: "Artist",
			Album:       "Album",
			TrackNumber: i + 1,
		}
		if err := lib.Add(p, 1000, tag); err != nil {
			t.Fatal(err)
		}
	}

	srv := httptest.NewServer(New(lib, nil).Handler())
	t.Cleanup(srv.Close)
	return srv, paths, payload
}

func TestAlbumsListing(t *testing.T) {
	srv, _, _ := testServer(t)

	resp, err := http.Get(srv.URL + "/albums")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var albums []struct {
		ID     string `json:"id"`
		Title  string `json:"title"`
		Artist string `json:"artist"`
		Tracks int    `json:"tracks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&albums); err != nil {
		t.Fatal(err)
	}
	if len(albums) != 1 {
		t.Fatalf("albums = %d, want 1", len(albums))
	}
	if albums[0].Title != "Album" || albums[0].Tracks != 2 {
		t.Errorf("album = %+v", albums[0])
	}
}

func TestAlbumDetail(t *testing.T) {
	srv, _, _ := testServer(t)

	id := catalog.AlbumID("Artist", "Album")
	resp, err := http.Get(srv.URL + "/albums/" + id)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var album struct {
		Tracks []struct {
			ID     string `json:"id"`
			Title  string `json:"title"`
			Number int    `json:"number"`
		} `json:"tracks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&album); err != nil {
		t.Fatal(err)
	}
	if len(album.Tracks) != 2 {
		t.Fatalf("tracks = %d, want 2", len(album.Tracks))
	}
	if album.Tracks[0].Number != 1 || album.Tracks[1].Number != 2 {
		t.Errorf("track order = %+v", album.Tracks)
	}
}

func TestAlbumNotFound(t *testing.T) {
	srv, _, _ := testServer(t)

	resp, err := http.Get(srv.URL + "/albums/deadbeef")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestTrackServing(t *testing.T) {
	srv, paths, payload := testServer(t)

	resp, err := http.Get(srv.URL + "/tracks/" + catalog.TrackID(paths[0]))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	got, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(payload) {
		t.Errorf("body mismatch: %q", got)
	}
	if resp.Header.Get("Accept-Ranges") != "bytes" {
		t.Error("expected Accept-Ranges: bytes")
	}
}

func TestTrackRangeRequest(t *testing.T) {
	srv, paths, payload := testServer(t)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/tracks/"+catalog.TrackID(paths[0]), nil)
	req.Header.Set("Range", "bytes=5-14")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", resp.StatusCode)
	}
	got, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(payload[5:15]) {
		t.Errorf("range body = %q, want %q", got, payload[5:15])
	}
}

func TestTrackNotFound(t *testing.T) {
	srv, _, _ := testServer(t)

	resp, err := http.Get(srv.URL + "/tracks/deadbeef")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestCoverNotFound(t *testing.T) {
	srv, paths, _ := testServer(t)

	resp, err := http.Get(srv.URL + "/tracks/" + catalog.TrackID(paths[0]) + "/cover")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestCoverFromFolder(t *testing.T) {
	srv, paths, _ := testServer(t)

	img := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	if err := os.WriteFile(filepath.Join(filepath.Dir(paths[0]), "cover.jpg"), img, 0o644); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Get(srv.URL + "/tracks/" + catalog.TrackID(paths[0]) + "/cover")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("content type = %q", ct)
	}
	got, _ := io.ReadAll(resp.Body)
	if string(got) != string(img) {
		t.Errorf("cover bytes = %v", got)
	}
}
