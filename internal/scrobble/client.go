// Package scrobble reports playback to Last.fm: now-playing updates when a
// track starts and a scrobble once enough of it has played.
package scrobble

import (
	"errors"
	"fmt"
	"time"

	"github.com/shkh/lastfm-go/lastfm"
)

// ErrNotAuthenticated is returned when no session key is configured.
var ErrNotAuthenticated = errors.New("not authenticated")

// Track contains the metadata submitted with a scrobble.
type Track struct {
	Artist    string
	Title     string
	Album     string
	Duration  time.Duration
	StartedAt time.Time
}

// Submitter is the Last.fm surface the scrobbler needs.
type Submitter interface {
	UpdateNowPlaying(t Track) error
	Scrobble(t Track) error
}

// Client wraps the Last.fm API for scrobbling.
type Client struct {
	api        *lastfm.Api
	sessionKey string
}

// NewClient creates an authenticated Last.fm client. The session key comes
// from a prior desktop auth flow and is stored in the config.
func NewClient(apiKey, apiSecret, sessionKey string) *Client {
	api := lastfm.New(apiKey, apiSecret)
	if sessionKey != "" {
		api.SetSession(sessionKey)
	}
	return &Client{api: api, sessionKey: sessionKey}
}

func (c *Client) UpdateNowPlaying(t Track) error {
	if c.sessionKey == "" {
		return ErrNotAuthenticated
	}

	params := lastfm.P{
		"artist": t.Artist,
		"track":  t.Title,
	}
	if t.Album != "" {
		params["album"] = t.Album
	}
	if t.Duration > 0 {
		params["duration"] = int(t.Duration.Seconds())
	}

	if _, err := c.api.Track.UpdateNowPlaying(params); err != nil {
		return fmt.Errorf("update now playing: %w", err)
	}
	return nil
}

func (c *Client) Scrobble(t Track) error {
	if c.sessionKey == "" {
		return ErrNotAuthenticated
	}

	params := lastfm.P{
		"artist":    t.Artist,
		"track":     t.Title,
		"timestamp": t.StartedAt.Unix(),
	}
	if t.Album != "" {
		params["album"] = t.Album
	}
	if t.Duration > 0 {
		params["duration"] = int(t.Duration.Seconds())
	}

	if _, err := c.api.Track.Scrobble(params); err != nil {
		return fmt.Errorf("scrobble: %w", err)
	}
	return nil
}
