package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// warmupBytes is how much of a remote track is fetched before the decoder
// is built, so the source reports ready with real audio data on hand.
const warmupBytes = 256 << 10

// rangeReader exposes an HTTP resource as an io.ReadSeekCloser using byte
// range requests. Seeks are lazy: the connection is repositioned on the
// next Read. The opening window of the resource is cached in memory so the
// decoder's header parsing and short rewinds never touch the network.
type rangeReader struct {
	client *http.Client
	url    string

	size    int64
	off     int64
	prefix  []byte
	noRange bool

	body    io.ReadCloser
	bodyOff int64
}

func newRangeReader(client *http.Client, url string) *rangeReader {
	return &rangeReader{client: client, url: url, size: -1}
}

// warmup fetches the opening window and learns the resource size.
func (r *rangeReader) warmup(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=0-%d", warmupBytes-1))

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusPartialContent:
		r.size = totalFromContentRange(resp.Header.Get("Content-Range"))
	case http.StatusOK:
		// Server ignored the range request.
		r.noRange = true
		r.size = resp.ContentLength
	default:
		return fmt.Errorf("fetching %s: unexpected status %s", r.url, resp.Status)
	}

	r.prefix, err = io.ReadAll(io.LimitReader(resp.Body, warmupBytes))
	if err != nil {
		return err
	}
	if r.size < 0 && int64(len(r.prefix)) < warmupBytes {
		// Short read means the whole resource fit in the window.
		r.size = int64(len(r.prefix))
	}
	return nil
}

func (r *rangeReader) Read(p []byte) (int, error) {
	if r.size >= 0 && r.off >= r.size {
		return 0, io.EOF
	}

	// Serve from the cached opening window while the offset is inside it.
	if r.off < int64(len(r.prefix)) {
		n := copy(p, r.prefix[r.off:])
		r.off += int64(n)
		return n, nil
	}

	if r.body == nil || r.bodyOff != r.off {
		if err := r.reposition(); err != nil {
			return 0, err
		}
	}

	n, err := r.body.Read(p)
	r.off += int64(n)
	r.bodyOff = r.off
	if errors.Is(err, io.EOF) && r.size >= 0 && r.off < r.size {
		// Connection ended early, reconnect on the next Read.
		r.closeBody()
		err = nil
	}
	return n, err
}

func (r *rangeReader) reposition() error {
	r.closeBody()

	req, err := http.NewRequest(http.MethodGet, r.url, nil)
	if err != nil {
		return err
	}
	if !r.noRange {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", r.off))
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}

	switch {
	case resp.StatusCode == http.StatusPartialContent:
		r.body = resp.Body
	case resp.StatusCode == http.StatusOK:
		// Full responses need the prefix discarded to reach the offset.
		r.noRange = true
		if _, err := io.CopyN(io.Discard, resp.Body, r.off); err != nil {
			resp.Body.Close()
			return err
		}
		r.body = resp.Body
	default:
		resp.Body.Close()
		return fmt.Errorf("fetching %s: unexpected status %s", r.url, resp.Status)
	}
	r.bodyOff = r.off
	return nil
}

func (r *rangeReader) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = r.off + offset
	case io.SeekEnd:
		if r.size < 0 {
			return 0, errors.New("seek from end: size unknown")
		}
		abs = r.size + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, errors.New("negative seek offset")
	}
	r.off = abs
	return abs, nil
}

func (r *rangeReader) Close() error {
	r.closeBody()
	return nil
}

func (r *rangeReader) closeBody() {
	if r.body != nil {
		r.body.Close()
		r.body = nil
	}
}

// totalFromContentRange parses the total size out of a Content-Range header
// like "bytes 0-1023/4096". Returns -1 when the total is unknown.
func totalFromContentRange(header string) int64 {
	idx := strings.LastIndexByte(header, '/')
	if idx < 0 {
		return -1
	}
	total, err := strconv.ParseInt(header[idx+1:], 10, 64)
	if err != nil {
		return -1
	}
	return total
}
