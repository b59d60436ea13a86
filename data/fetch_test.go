package data

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLog() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(log)
}

func TestFetchSnapshotRetriesThenSucceeds(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, t.TempDir(), testLog())
	f.RetryDelay = time.Millisecond
	raw, err := f.FetchSnapshot(12, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), raw)
	assert.Equal(t, 3, attempts)

	// The successful fetch is cached.
	cached, err := os.ReadFile(filepath.Join(f.DataDir, "season12", "stlats_day3.json"))
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), cached)
}

func TestFetchSnapshotFallsBackToCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	dir := t.TempDir()
	cachePath := filepath.Join(dir, "season12", "stlats_day3.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(cachePath), 0o755))
	require.NoError(t, os.WriteFile(cachePath, []byte(`[{"cached":true}]`), 0o644))

	f := NewFetcher(srv.URL, dir, testLog())
	f.Retries = 2
	f.RetryDelay = time.Millisecond
	raw, err := f.FetchSnapshot(12, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte(`[{"cached":true}]`), raw)
}

func TestFetchSnapshotLocalOnly(t *testing.T) {
	dir := t.TempDir()
	cachePath := filepath.Join(dir, "season12", "stlats_day3.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(cachePath), 0o755))
	require.NoError(t, os.WriteFile(cachePath, []byte(`[]`), 0o644))

	f := NewFetcher("", dir, testLog())
	raw, err := f.FetchSnapshot(12, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), raw)

	_, err = f.FetchSnapshot(12, 99)
	assert.Error(t, err)
}
