// Package source provides the audio source loader backed by the beep
// playback stack. It decodes MP3, FLAC, Ogg/Vorbis and WAV tracks from
// local files or HTTP locators and plays them through the shared speaker.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/lmenard/platter/internal/catalog"
	"github.com/lmenard/platter/internal/playback"
	"github.com/lmenard/platter/internal/tags"
)

// ErrUnsupportedFormat is returned when a track's locator points at a file
// type the loader cannot decode.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

const defaultSpeakerBuffer = 100 * time.Millisecond

// Loader decodes tracks into playable sources. It implements
// playback.Loader.
type Loader struct {
	log    *slog.Logger
	client *http.Client

	// speakerBuffer sizes the speaker's internal buffer on first init.
	speakerBuffer time.Duration
}

// NewLoader returns a Loader that reads local paths directly and fetches
// http(s) locators with the given client (http.DefaultClient when nil).
func NewLoader(log *slog.Logger, client *http.Client) *Loader {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Loader{
		log:           log,
		client:        client,
		speakerBuffer: defaultSpeakerBuffer,
	}
}

// SetSpeakerBuffer overrides the speaker buffer length used on first init.
// Call before the first Load; later changes have no effect.
func (l *Loader) SetSpeakerBuffer(d time.Duration) {
	if d > 0 {
		l.speakerBuffer = d
	}
}

// Load opens and decodes the track's locator. The returned source is ready
// as soon as Load returns: local files decode straight from disk and remote
// locators have their opening window fetched before the decoder is built.
func (l *Loader) Load(ctx context.Context, track catalog.Track) (playback.Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rsc, err := l.open(ctx, track.Locator)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", track.Locator, err)
	}

	ext := locatorExt(track.Locator)
	streamer, format, err := decode(ext, rsc)
	if err != nil {
		rsc.Close()
		return nil, fmt.Errorf("decoding %s: %w", track.Locator, err)
	}

	if err := ensureSpeaker(format.SampleRate, l.speakerBuffer); err != nil {
		streamer.Close()
		rsc.Close()
		return nil, fmt.Errorf("initializing speaker: %w", err)
	}

	l.log.Debug("loaded track",
		"title", track.Title,
		"format", strings.ToUpper(strings.TrimPrefix(ext, ".")),
		"sample_rate", int(format.SampleRate))

	return newAudioSource(track, streamer, format, rsc), nil
}

func (l *Loader) open(ctx context.Context, locator string) (io.ReadSeekCloser, error) {
	if strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://") {
		rr := newRangeReader(l.client, locator)
		if err := rr.warmup(ctx); err != nil {
			rr.Close()
			return nil, err
		}
		return rr, nil
	}
	return os.Open(locator)
}

// locatorExt returns the lowercase file extension of a locator, handling
// URL locators with query strings.
func locatorExt(locator string) string {
	path := locator
	if strings.Contains(locator, "://") {
		if u, err := url.Parse(locator); err == nil {
			path = u.Path
		}
	}
	return strings.ToLower(filepath.Ext(path))
}

func decode(ext string, rsc io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	switch ext {
	case tags.ExtMP3:
		return decodeMP3(rsc)
	case tags.ExtFLAC:
		// Some taggers prepend an ID3v2 block that the FLAC decoder
		// does not handle.
		if err := skipID3v2(rsc); err != nil {
			return nil, beep.Format{}, err
		}
		return flac.Decode(rsc)
	case tags.ExtOGG, tags.ExtOGA:
		return vorbis.Decode(rsc)
	case tags.ExtWAV:
		return wav.Decode(rsc)
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// skipID3v2 advances past an ID3v2 tag if one sits at the start of the
// stream, else rewinds to the start.
func skipID3v2(r io.ReadSeeker) error {
	header := make([]byte, 10)
	n, err := io.ReadFull(r, header)
	if err != nil {
		if n < 10 && (errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)) {
			_, err = r.Seek(0, io.SeekStart)
		}
		return err
	}

	if string(header[0:3]) != "ID3" {
		_, err = r.Seek(0, io.SeekStart)
		return err
	}

	// Bytes 6-9 hold the tag size as a syncsafe integer, 7 bits per byte.
	size := int64(header[6])<<21 | int64(header[7])<<14 | int64(header[8])<<7 | int64(header[9])
	_, err = r.Seek(10+size, io.SeekStart)
	return err
}

// The speaker is process-global in beep. It is initialized once with the
// sample rate of the first decoded track; later tracks with a different
// rate are resampled to it.
var (
	speakerMu   sync.Mutex
	speakerOn   bool
	speakerRate beep.SampleRate
)

func ensureSpeaker(rate beep.SampleRate, buffer time.Duration) error {
	speakerMu.Lock()
	defer speakerMu.Unlock()
	if speakerOn {
		return nil
	}
	if buffer <= 0 {
		buffer = defaultSpeakerBuffer
	}
	if err := speaker.Init(rate, rate.N(buffer)); err != nil {
		return err
	}
	speakerRate = rate
	speakerOn = true
	return nil
}

func currentSpeakerRate() beep.SampleRate {
	speakerMu.Lock()
	defer speakerMu.Unlock()
	return speakerRate
}
