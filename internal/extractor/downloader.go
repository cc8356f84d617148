package extractor

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/darzee/imagehub-backend/internal/logger"
)

// Downloaded is a fetched image payload ready for the asset store.
type Downloaded struct {
	Data     []byte
	MimeType string
	Filename string
}

type DownloaderConfig struct {
	UserAgent string
	Timeout   time.Duration
	// Requests per second against source hosts; 0 disables limiting.
	RateLimit float64
	// Largest payload accepted; 0 means unlimited.
	MaxBytes int64
	// Extensions considered already-valid filename suffixes.
	ImageExtensions []string
}

type Downloader struct {
	log     *logger.Logger
	client  *http.Client
	limiter *rate.Limiter
	cfg     DownloaderConfig
}

func NewDownloader(log *logger.Logger, cfg DownloaderConfig) *Downloader {
	if cfg.UserAgent == "" {
		cfg.UserAgent = "imagehub-extractor/1.0"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if len(cfg.ImageExtensions) == 0 {
		cfg.ImageExtensions = DefaultRules().ImageExtensions
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	return &Downloader{
		log:     log.With("component", "Downloader"),
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		cfg:     cfg,
	}
}

// DownloadImage issues a single GET for rawURL. Any failure (network error,
// non-2xx status, oversized payload) is logged and reported as nil; there is
// no retry.
func (d *Downloader) DownloadImage(ctx context.Context, rawURL string) *Downloaded {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			d.log.Warn("Rate limiter wait aborted", "url", rawURL, "error", err)
			return nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		d.log.Warn("Failed to build image request", "url", rawURL, "error", err)
		return nil
	}
	req.Header.Set("User-Agent", d.cfg.UserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		d.log.Warn("Failed to fetch image", "url", rawURL, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		d.log.Warn("Image fetch returned non-success status", "url", rawURL, "status", resp.StatusCode)
		return nil
	}

	reader := io.Reader(resp.Body)
	if d.cfg.MaxBytes > 0 {
		reader = io.LimitReader(resp.Body, d.cfg.MaxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		d.log.Warn("Failed to read image body", "url", rawURL, "error", err)
		return nil
	}
	if d.cfg.MaxBytes > 0 && int64(len(data)) > d.cfg.MaxBytes {
		d.log.Warn("Image payload exceeds size cap, discarding", "url", rawURL, "cap_bytes", d.cfg.MaxBytes)
		return nil
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	return &Downloaded{
		Data:     data,
		MimeType: mimeType,
		Filename: d.filenameFor(rawURL, mimeType),
	}
}

// filenameFor derives a storage-safe filename from the URL's final path
// segment, appending an extension from the mime subtype when the segment
// lacks a recognized one.
func (d *Downloader) filenameFor(rawURL, mimeType string) string {
	name := "image"
	if parsed, err := url.Parse(rawURL); err == nil {
		segments := strings.Split(parsed.Path, "/")
		last := segments[len(segments)-1]
		if decoded, err := url.PathUnescape(last); err == nil {
			last = decoded
		}
		if last != "" {
			name = last
		}
	}

	if !d.hasImageExtension(name) {
		name = name + "." + extensionFromMime(mimeType)
	}

	return sanitizeFilename(name)
}

func (d *Downloader) hasImageExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range d.cfg.ImageExtensions {
		if strings.HasSuffix(lower, "."+strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

func extensionFromMime(mimeType string) string {
	// "image/svg+xml; charset=utf-8" -> "svg"
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	parts := strings.SplitN(strings.TrimSpace(mimeType), "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "jpg"
	}
	sub := parts[1]
	if i := strings.Index(sub, "+"); i >= 0 {
		sub = sub[:i]
	}
	if sub == "" {
		return "jpg"
	}
	return strings.ToLower(sub)
}

func sanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
