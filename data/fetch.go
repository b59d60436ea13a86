package data

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"blasesim/simerr"
)

const (
	fetchRetries    = 10
	fetchRetryDelay = 500 * time.Millisecond
)

// Fetcher pulls stlat snapshots from a remote archive, caching them
// under the local data directory. A fetch that fails after retries
// falls back to the cached copy when one exists.
type Fetcher struct {
	BaseURL    string
	DataDir    string
	Client     *http.Client
	Log        *logrus.Entry
	Retries    int
	RetryDelay time.Duration
}

// NewFetcher builds a fetcher with a 30 second request timeout and
// the default retry policy.
func NewFetcher(baseURL, dataDir string, log *logrus.Entry) *Fetcher {
	return &Fetcher{
		BaseURL:    baseURL,
		DataDir:    dataDir,
		Client:     &http.Client{Timeout: 30 * time.Second},
		Log:        log,
		Retries:    fetchRetries,
		RetryDelay: fetchRetryDelay,
	}
}

// FetchSnapshot returns the raw stlat snapshot for one day, from the
// remote archive or the local cache.
func (f *Fetcher) FetchSnapshot(season, day int) ([]byte, error) {
	rel := filepath.Join(fmt.Sprintf("season%d", season),
		fmt.Sprintf("stlats_day%d.json", day))
	cachePath := filepath.Join(f.DataDir, rel)

	if f.BaseURL == "" {
		raw, err := os.ReadFile(cachePath)
		if err != nil {
			return nil, simerr.Config("no cached stlats at %s: %v", cachePath, err)
		}
		return raw, nil
	}

	url := fmt.Sprintf("%s/stlats?season=%d&day=%d", f.BaseURL, season, day)
	raw, err := f.get(url)
	if err != nil {
		if cached, readErr := os.ReadFile(cachePath); readErr == nil {
			f.Log.WithError(err).WithField("cache", cachePath).
				Warn("snapshot fetch failed, using cached copy")
			return cached, nil
		}
		return nil, simerr.Config("fetching stlats for season %d day %d: %v", season, day, err)
	}
	if writeErr := f.cache(cachePath, raw); writeErr != nil {
		f.Log.WithError(writeErr).Warn("failed to cache snapshot")
	}
	return raw, nil
}

// get retries transient failures with a fixed delay before giving up.
func (f *Fetcher) get(url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < f.Retries; attempt++ {
		if attempt > 0 {
			time.Sleep(f.RetryDelay)
		}
		resp, err := f.Client.Get(url)
		if err != nil {
			lastErr = simerr.Transient("GET %s: %v", url, err)
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = simerr.Transient("reading %s: %v", url, err)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			lastErr = simerr.Transient("GET %s: status %d", url, resp.StatusCode)
			continue
		}
		return body, nil
	}
	return nil, lastErr
}

func (f *Fetcher) cache(path string, raw []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
