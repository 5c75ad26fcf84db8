package video_fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/ratelimit"
	"go.uber.org/zap"

	"github.com/alanbriolat/video-fetcher/fetch"
)

var (
	ErrRangeNotSatisfied = errors.New("server ignored the range request")
	ErrResumeMismatch    = errors.New("partial file does not match the remote stream")
)

// A MediaReference is a direct URL to either a single stream or an HLS playlist.
type MediaReference struct {
	DirectURL string
	Extension string
	Segmented bool
}

// A DownloadTarget describes the destination file at the start of a download.
type DownloadTarget struct {
	Path string
	// Size is the number of bytes already on disk, 0 if the file doesn't exist.
	Size int64
	// ResumeOffset is where a range request starts. It overlaps the last byte on disk so that the response can be
	// checked against the existing data.
	ResumeOffset int64
}

func NewDownloadTarget(path string) (DownloadTarget, error) {
	t := DownloadTarget{Path: path}
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return t, nil
	} else if err != nil {
		return t, err
	}
	if info.IsDir() {
		return t, fmt.Errorf("target is a directory: %v", path)
	}
	t.Size = info.Size()
	if t.Size > 0 {
		t.ResumeOffset = t.Size - 1
	}
	return t, nil
}

// Resumable is true if there is partial data to continue from.
func (t DownloadTarget) Resumable() bool {
	return t.Size > 0
}

type Download interface {
	// AddDownloadedBytes increases how many bytes have been successfully downloaded so far.
	AddDownloadedBytes(n int64)

	// AddExpectedBytes increases how many bytes are expected to be downloaded.
	AddExpectedBytes(n int64)

	// Cancel the Download, stopping any in-progress I/O activity.
	Cancel()

	// Context is the cancellable context of this Download.
	Context() context.Context

	// Progress returns the downloaded and expected bytes of the download.
	Progress() (int64, int64)

	// Save downloads ref to the target path, either as a single stream or as a playlist.
	Save(target string, ref MediaReference) error

	// SavePlaylist fetches an HLS playlist and appends each segment to the target path in playlist order.
	SavePlaylist(target string, playlistURL string) error

	// SaveURL downloads a single stream to the target path, resuming a partial file if one exists.
	SaveURL(target string, url string) error

	// Write will ignore the data but will send the byte count to AddDownloadedBytes. Allows progress tracking using
	// io.MultiWriter (but ensure the Download is the last writer to avoid counting failed writes).
	Write(p []byte) (n int, err error)
}

type download struct {
	ctx              context.Context
	cancel           context.CancelFunc
	client           *fetch.Client
	progressCallback func(int64, int64)
	segmentCallback  func(int, int)
	limiter          ratelimit.Limiter
	logger           *zap.SugaredLogger

	mu              sync.Mutex
	expectedBytes   int64
	downloadedBytes int64
}

func (d *download) AddDownloadedBytes(n int64) {
	d.mu.Lock()
	d.downloadedBytes += n
	d.mu.Unlock()
	d.notifyProgress()
}

func (d *download) AddExpectedBytes(n int64) {
	d.mu.Lock()
	d.expectedBytes += n
	d.mu.Unlock()
	d.notifyProgress()
}

func (d *download) Cancel() {
	d.cancel()
}

func (d *download) Context() context.Context {
	return d.ctx
}

func (d *download) Progress() (int64, int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.downloadedBytes, d.expectedBytes
}

func (d *download) Save(target string, ref MediaReference) error {
	if ref.Segmented {
		return d.SavePlaylist(target, ref.DirectURL)
	}
	return d.SaveURL(target, ref.DirectURL)
}

func (d *download) SaveURL(target string, url string) error {
	t, err := NewDownloadTarget(target)
	if err != nil {
		return fmt.Errorf("failed to inspect target file: %w", err)
	}
	if t.Resumable() {
		return d.resume(t, url)
	}

	resp, err := d.client.Get(d.ctx, url, fetch.WithReferer(url))
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()
	d.AddExpectedBytes(fetch.ContentLength(resp))
	return d.appendStream(target, resp.Body)
}

func (d *download) resume(t DownloadTarget, url string) error {
	d.logger.Infow("resuming partial download", "path", t.Path, "size", t.Size)
	resp, err := d.client.Get(d.ctx, url, fetch.WithReferer(url), fetch.WithRange(t.ResumeOffset))
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusPartialContent {
		return fmt.Errorf("%w: HTTP %d", ErrRangeNotSatisfied, resp.StatusCode)
	}

	last, err := lastByte(t.Path, t.Size)
	if err != nil {
		return fmt.Errorf("failed to read partial file: %w", err)
	}
	var overlap [1]byte
	if _, err := io.ReadFull(resp.Body, overlap[:]); err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	if overlap[0] != last {
		return ErrResumeMismatch
	}

	// Content-Length of a range response includes the overlapping byte
	d.AddExpectedBytes(t.ResumeOffset + fetch.ContentLength(resp))
	d.AddDownloadedBytes(t.Size)
	return d.appendStream(t.Path, resp.Body)
}

func (d *download) SavePlaylist(target string, playlistURL string) error {
	playlist, playlistURL, err := d.fetchMediaPlaylist(playlistURL)
	if err != nil {
		return err
	}

	// Segments are appended after whatever is already on disk, existing bytes are never discarded
	if t, err := NewDownloadTarget(target); err != nil {
		return fmt.Errorf("failed to inspect target file: %w", err)
	} else if t.Size > 0 {
		d.logger.Warnw("appending segments to existing file", "path", target, "size", t.Size)
	}
	f, err := openAppend(target)
	if err != nil {
		return err
	}
	defer f.Close()

	total := len(playlist.Segments)
	d.notifySegments(0, total)
	for i, segment := range playlist.Segments {
		segmentURL, err := ResolvePlaylistURI(playlistURL, segment.URI)
		if err != nil {
			return err
		}
		d.limiter.Take()
		if err := d.copySegment(f, segmentURL); err != nil {
			return fmt.Errorf("segment %d/%d: %w", i+1, total, err)
		}
		d.notifySegments(i+1, total)
	}
	return f.Close()
}

// fetchMediaPlaylist fetches a playlist, following a master playlist to its best variant.
func (d *download) fetchMediaPlaylist(playlistURL string) (*Playlist, string, error) {
	text, err := d.client.GetString(d.ctx, playlistURL, fetch.WithReferer(playlistURL))
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch playlist: %w", err)
	}
	playlist, err := ParsePlaylist(text)
	if err != nil {
		return nil, "", err
	}
	if !playlist.IsMaster() {
		return playlist, playlistURL, nil
	}

	variant, _ := playlist.BestVariant()
	variantURL, err := ResolvePlaylistURI(playlistURL, variant.URI)
	if err != nil {
		return nil, "", err
	}
	d.logger.Debugw("following master playlist", "variant", variantURL, "bandwidth", variant.Bandwidth)
	text, err = d.client.GetString(d.ctx, variantURL, fetch.WithReferer(playlistURL))
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch variant playlist: %w", err)
	}
	playlist, err = ParsePlaylist(text)
	if err != nil {
		return nil, "", err
	}
	if playlist.IsMaster() {
		return nil, "", fmt.Errorf("%w: nested master playlist", ErrMalformedPlaylist)
	}
	return playlist, variantURL, nil
}

func (d *download) copySegment(w io.Writer, segmentURL string) error {
	resp, err := d.client.Get(d.ctx, segmentURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	d.AddExpectedBytes(fetch.ContentLength(resp))
	_, err = io.Copy(io.MultiWriter(w, d), &readerContext{ctx: d.ctx, r: resp.Body})
	return err
}

func (d *download) appendStream(path string, stream io.Reader) error {
	f, err := openAppend(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(io.MultiWriter(f, d), &readerContext{ctx: d.ctx, r: stream})
	if err != nil {
		return fmt.Errorf("failed to save stream: %w", err)
	}
	return f.Close()
}

func (d *download) Write(p []byte) (n int, err error) {
	n = len(p)
	d.AddDownloadedBytes(int64(n))
	return n, nil
}

func (d *download) notifyProgress() {
	if d.progressCallback != nil {
		d.progressCallback(d.Progress())
	}
}

func (d *download) notifySegments(done, total int) {
	if d.segmentCallback != nil {
		d.segmentCallback(done, total)
	}
}

// openAppend opens path for writing at its end, creating it and its parent directories if needed.
func openAppend(path string) (*os.File, error) {
	if err := createParentDir(path); err != nil {
		return nil, fmt.Errorf("failed to create target dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open target file: %w", err)
	}
	return f, nil
}

func createParentDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0775)
}

func lastByte(path string, size int64) (byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	var b [1]byte
	if _, err := f.ReadAt(b[:], size-1); err != nil {
		return 0, err
	}
	return b[0], nil
}

type DownloadBuilder interface {
	Build() (Download, error)
	WithClient(client *fetch.Client) DownloadBuilder
	WithContext(ctx context.Context) DownloadBuilder
	WithProgressCallback(f func(downloaded int64, expected int64)) DownloadBuilder
	// WithSegmentCallback is called after each playlist segment with the number completed and the total.
	WithSegmentCallback(f func(done int, total int)) DownloadBuilder
	// WithSegmentRate limits playlist segment requests per second. 0 means unlimited.
	WithSegmentRate(perSecond int) DownloadBuilder
}

type downloadBuilder struct {
	ctx              context.Context
	client           *fetch.Client
	progressCallback func(int64, int64)
	segmentCallback  func(int, int)
	segmentRate      int
}

func NewDownloadBuilder() DownloadBuilder {
	return &downloadBuilder{
		ctx: context.Background(),
	}
}

func (b *downloadBuilder) Build() (Download, error) {
	d := download{}
	d.ctx, d.cancel = context.WithCancel(b.ctx)
	d.client = b.client
	if d.client == nil {
		d.client = fetch.New()
	}
	d.progressCallback = b.progressCallback
	d.segmentCallback = b.segmentCallback
	if b.segmentRate > 0 {
		d.limiter = ratelimit.New(b.segmentRate)
	} else {
		d.limiter = ratelimit.NewUnlimited()
	}
	d.logger = Logger(b.ctx).Sugar()
	return &d, nil
}

func (b *downloadBuilder) WithClient(client *fetch.Client) DownloadBuilder {
	b.client = client
	return b
}

func (b *downloadBuilder) WithContext(ctx context.Context) DownloadBuilder {
	b.ctx = ctx
	return b
}

func (b *downloadBuilder) WithProgressCallback(f func(int64, int64)) DownloadBuilder {
	b.progressCallback = f
	return b
}

func (b *downloadBuilder) WithSegmentCallback(f func(int, int)) DownloadBuilder {
	b.segmentCallback = f
	return b
}

func (b *downloadBuilder) WithSegmentRate(perSecond int) DownloadBuilder {
	b.segmentRate = perSecond
	return b
}
