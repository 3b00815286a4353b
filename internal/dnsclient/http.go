package dnsclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"trackerscope/internal/telemetry"
)

const (
	DefaultDownloadTimeout = 15 * time.Second
	maxDownloadBytes       = 64 << 20
)

var ErrResponseTooLarge = errors.New("response exceeds size limit")

var UserAgent = "trackerscope/1.0 (+https://github.com/timonlazar/OpenWPM)"

// NetworkError reports a failed reference-list download: a transport
// failure (Err set) or a non-2xx response (StatusCode set).
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Fetcher downloads reference lists. It records every attempt with the
// telemetry registry and metrics when they are set.
type Fetcher struct {
	client    *http.Client
	userAgent string
	Telemetry *telemetry.Registry
	Metrics   *telemetry.Metrics
	// MaxBytes caps a response body. Zero means 64 MiB.
	MaxBytes int64
}

func NewFetcher() *Fetcher {
	return NewFetcherWithTimeout(DefaultDownloadTimeout)
}

func NewFetcherWithTimeout(timeout time.Duration) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: 2,
			},
		},
		userAgent: UserAgent,
	}
}

// Get fetches rawURL and returns its body. Non-2xx responses are errors.
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &NetworkError{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &NetworkError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	limit := f.MaxBytes
	if limit <= 0 {
		limit = maxDownloadBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, &NetworkError{URL: rawURL, Err: err}
	}
	if int64(len(body)) > limit {
		return nil, &NetworkError{URL: rawURL, Err: fmt.Errorf("%w (%d bytes)", ErrResponseTooLarge, limit)}
	}
	return body, nil
}

// Download stores rawURL at path unless path already exists. A cached copy
// is never revalidated; delete it to force a refresh. source names the
// upstream for telemetry.
func (f *Fetcher) Download(ctx context.Context, source, rawURL, path string) error {
	if FileExists(path) {
		slog.Info("Reference list already cached", "source", source, "path", path)
		return nil
	}

	slog.Info("Downloading reference list", "source", source, "url", rawURL)
	start := time.Now()
	body, err := f.Get(ctx, rawURL)
	elapsed := time.Since(start)
	f.Metrics.ObserveDownload(source, elapsed, err)
	if err != nil {
		if f.Telemetry != nil {
			f.Telemetry.RecordFailure(source, err.Error())
		}
		return err
	}
	if f.Telemetry != nil {
		f.Telemetry.RecordSuccess(source, elapsed)
	}

	if err := writeFileAtomic(path, body); err != nil {
		return fmt.Errorf("store %s: %w", source, err)
	}
	slog.Info("Reference list saved", "source", source, "path", path, "bytes", len(body))
	return nil
}

func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
