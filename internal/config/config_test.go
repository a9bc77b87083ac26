package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
library_sources = ["/music", "~/more-music"]

[server]
listen = "127.0.0.1:9999"

[audio]
buffer_ms = 50

[lastfm]
api_key = "key"
api_secret = "secret"
session_key = "session"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	home, _ := os.UserHomeDir()
	assert.Equal(t, []string{"/music", filepath.Join(home, "more-music")}, cfg.LibrarySources)
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Listen)
	assert.Equal(t, 50, cfg.Audio.BufferMs)
	assert.True(t, cfg.HasLastfm())
}

func TestLoadFile_MissingFileGetsDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, defaultListen, cfg.Server.Listen)
	assert.Equal(t, defaultBufferMs, cfg.Audio.BufferMs)
	assert.False(t, cfg.HasLastfm())
}

func TestLoadFile_PartialLastfmNotEnabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[lastfm]\napi_key = \"key\"\n"), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.False(t, cfg.HasLastfm())
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/absolute", "/absolute"},
		{"~/music", filepath.Join(home, "music")},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, expandPath(tt.in), "expandPath(%q)", tt.in)
	}
}
