package extractor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/darzee/imagehub-backend/internal/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func TestDownloadImageSuccess(t *testing.T) {
	payload := []byte("fake image bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "imagehub-extractor/1.0" {
			t.Errorf("user agent: got %q", got)
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(payload)
	}))
	defer srv.Close()

	d := NewDownloader(testLogger(t), DownloaderConfig{})
	got := d.DownloadImage(context.Background(), srv.URL+"/uploads/picture.png")
	if got == nil {
		t.Fatalf("expected a payload")
	}
	if string(got.Data) != string(payload) {
		t.Fatalf("data mismatch")
	}
	if got.MimeType != "image/png" {
		t.Fatalf("mime: got %q", got.MimeType)
	}
	if got.Filename != "picture.png" {
		t.Fatalf("filename: got %q", got.Filename)
	}
}

func TestDownloadImageNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	d := NewDownloader(testLogger(t), DownloaderConfig{})
	if got := d.DownloadImage(context.Background(), srv.URL+"/missing.jpg"); got != nil {
		t.Fatalf("expected nil for 404, got %+v", got)
	}
}

func TestDownloadImageUnreachableHost(t *testing.T) {
	d := NewDownloader(testLogger(t), DownloaderConfig{})
	if got := d.DownloadImage(context.Background(), "http://127.0.0.1:1/x.jpg"); got != nil {
		t.Fatalf("expected nil for unreachable host, got %+v", got)
	}
}

func TestDownloadImageSizeCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 2048))
	}))
	defer srv.Close()

	d := NewDownloader(testLogger(t), DownloaderConfig{MaxBytes: 1024})
	if got := d.DownloadImage(context.Background(), srv.URL+"/big.jpg"); got != nil {
		t.Fatalf("expected nil for oversized payload, got %d bytes", len(got.Data))
	}
}

func TestDownloadImageMimeFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header()["Content-Type"] = nil
		w.Write([]byte("data"))
	}))
	defer srv.Close()

	d := NewDownloader(testLogger(t), DownloaderConfig{})
	got := d.DownloadImage(context.Background(), srv.URL+"/uploads/item")
	if got == nil {
		t.Fatalf("expected a payload")
	}
	if got.MimeType != "image/jpeg" {
		t.Fatalf("mime fallback: got %q", got.MimeType)
	}
	if got.Filename != "item.jpeg" {
		t.Fatalf("filename: got %q", got.Filename)
	}
}

func TestFilenameForSanitizesAndExtends(t *testing.T) {
	d := NewDownloader(testLogger(t), DownloaderConfig{})

	cases := []struct {
		url  string
		mime string
		want string
	}{
		{"https://cdn.shop.io/a/b/navy%20suit.jpg", "image/jpeg", "navy_suit.jpg"},
		{"https://cdn.shop.io/a/b/photo", "image/webp", "photo.webp"},
		{"https://cdn.shop.io/", "image/svg+xml; charset=utf-8", "image.svg"},
		{"https://cdn.shop.io/x.PNG", "image/png", "x.PNG"},
	}
	for _, tc := range cases {
		if got := d.filenameFor(tc.url, tc.mime); got != tc.want {
			t.Fatalf("filenameFor(%q, %q): want=%q got=%q", tc.url, tc.mime, tc.want, got)
		}
	}
}
