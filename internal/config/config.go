// Package config loads platter's TOML configuration.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	LibrarySources []string `koanf:"library_sources"` // paths to scan for music

	Server ServerConfig `koanf:"server"`
	Audio  AudioConfig  `koanf:"audio"`

	// Last.fm scrobbling (enabled when configured)
	Lastfm LastfmConfig `koanf:"lastfm"`
}

// ServerConfig holds the HTTP serving settings.
type ServerConfig struct {
	Listen string `koanf:"listen"` // address for the track server, default :8520
}

// AudioConfig holds playback tuning knobs.
type AudioConfig struct {
	BufferMs int `koanf:"buffer_ms"` // speaker buffer length, default 100
}

// LastfmConfig holds Last.fm scrobbling configuration.
type LastfmConfig struct {
	APIKey     string `koanf:"api_key"`
	APISecret  string `koanf:"api_secret"`
	SessionKey string `koanf:"session_key"`
}

const (
	defaultListen   = ":8520"
	defaultBufferMs = 100
)

// Load reads the config files in priority order: the user config at
// ~/.config/platter/config.toml first, then ./config.toml overriding it.
// Missing files are fine; an empty Config with defaults comes back.
func Load() (*Config, error) {
	return load(configPaths())
}

// LoadFile reads a single explicit config file.
func LoadFile(path string) (*Config, error) {
	return load([]string{path})
}

func load(paths []string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	for i, src := range cfg.LibrarySources {
		cfg.LibrarySources[i] = expandPath(src)
	}
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = defaultListen
	}
	if cfg.Audio.BufferMs <= 0 {
		cfg.Audio.BufferMs = defaultBufferMs
	}

	return cfg, nil
}

func configPaths() []string {
	paths := []string{}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "platter", "config.toml"))
	}
	paths = append(paths, "config.toml")
	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// HasLastfm reports whether Last.fm scrobbling is fully configured.
func (c *Config) HasLastfm() bool {
	return c.Lastfm.APIKey != "" && c.Lastfm.APISecret != "" && c.Lastfm.SessionKey != ""
}

// SpeakerBuffer returns the audio buffer length as a duration.
func (c *Config) SpeakerBuffer() time.Duration {
	return time.Duration(c.Audio.BufferMs) * time.Millisecond
}
