// Package server exposes the library over HTTP: album listings as JSON and
// raw track audio with byte-range support, so platter instances can play
// from each other's libraries.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/lmenard/platter/internal/catalog"
	"github.com/lmenard/platter/internal/library"
	"github.com/lmenard/platter/internal/tags"
)

// Server serves the library catalog and track audio.
type Server struct {
	lib *library.Library
	log *slog.Logger
}

func New(lib *library.Library, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Server{lib: lib, log: log}
}

// Handler returns the root handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /albums", s.handleAlbums)
	mux.HandleFunc("GET /albums/{id}", s.handleAlbum)
	mux.HandleFunc("GET /tracks/{id}", s.handleTrack)
	mux.HandleFunc("GET /tracks/{id}/cover", s.handleCover)
	return s.logRequests(mux)
}

// ListenAndServe blocks serving on addr until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	s.log.Info("serving library", "addr", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed", time.Since(start).Round(time.Microsecond))
	})
}

// albumSummary is the listing shape: albums without their track lists.
type albumSummary struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Year   int    `json:"year,omitempty"`
	Tracks int    `json:"tracks"`
}

type albumDetail struct {
	ID     string      `json:"id"`
	Title  string      `json:"title"`
	Artist string      `json:"artist"`
	Year   int         `json:"year,omitempty"`
	Tracks []trackJSON `json:"tracks"`
}

type trackJSON struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Number int    `json:"number,omitempty"`
}

func (s *Server) handleAlbums(w http.ResponseWriter, r *http.Request) {
	albums, err := s.lib.Albums()
	if err != nil {
		s.internalError(w, "listing albums", err)
		return
	}

	out := make([]albumSummary, 0, len(albums))
	for _, a := range albums {
		out = append(out, albumSummary{
			ID:     a.ID,
			Title:  a.Title,
			Artist: a.Artist,
			Year:   a.Year,
			Tracks: len(a.Tracks),
		})
	}
	writeJSON(w, out)
}

func (s *Server) handleAlbum(w http.ResponseWriter, r *http.Request) {
	album, err := s.lib.AlbumByID(r.PathValue("id"))
	if errors.Is(err, library.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.internalError(w, "loading album", err)
		return
	}
	writeJSON(w, toAlbumDetail(album))
}

func toAlbumDetail(album *catalog.Album) albumDetail {
	out := albumDetail{
		ID:     album.ID,
		Title:  album.Title,
		Artist: album.Artist,
		Year:   album.Year,
		Tracks: make([]trackJSON, 0, len(album.Tracks)),
	}
	for _, t := range album.Tracks {
		out.Tracks = append(out.Tracks, trackJSON{
			ID:     t.ID,
			Title:  t.Title,
			Artist: t.Artist,
			Number: t.Number,
		})
	}
	return out
}

// handleTrack serves the raw audio file. ServeContent handles Range
// requests, so remote players can reposition without a full download.
func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	track, err := s.lib.TrackByID(r.PathValue("id"))
	if errors.Is(err, library.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.internalError(w, "loading track", err)
		return
	}

	f, err := os.Open(track.Locator)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		s.internalError(w, "opening track file", err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.internalError(w, "stating track file", err)
		return
	}

	http.ServeContent(w, r, track.Locator, info.ModTime(), f)
}

func (s *Server) handleCover(w http.ResponseWriter, r *http.Request) {
	track, err := s.lib.TrackByID(r.PathValue("id"))
	if errors.Is(err, library.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.internalError(w, "loading track", err)
		return
	}

	data, mimeType, err := tags.Cover(track.Locator)
	if err != nil || data == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", mimeType)
	w.Write(data)
}

func (s *Server) internalError(w http.ResponseWriter, msg string, err error) {
	s.log.Error(msg, "error", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
