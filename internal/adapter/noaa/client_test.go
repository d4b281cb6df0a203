package noaa

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stationID = "USW00013743"

func newTestClient(primary, fallback string, maxRetries int, onRetry func()) *Client {
	return NewClient(Options{
		PrimaryURL:  primary,
		FallbackURL: fallback,
		Timeout:     5 * time.Second,
		MaxRetries:  maxRetries,
		BackoffBase: time.Millisecond,
		OnRetry:     onRetry,
	}, slog.Default())
}

func TestClient_FetchStation_Success(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte("dly content")) //nolint:errcheck
	}))
	defer srv.Close()

	c := newTestClient(srv.URL+"/all/%s.dly", "", 2, nil)

	text, err := c.FetchStation(context.Background(), stationID)
	require.NoError(t, err)
	assert.Equal(t, "dly content", text)
	assert.Equal(t, "/all/"+stationID+".dly", gotPath)
}

func TestClient_FetchStation_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok after retries")) //nolint:errcheck
	}))
	defer srv.Close()

	retries := 0
	c := newTestClient(srv.URL+"/%s.dly", "", 3, func() { retries++ })

	text, err := c.FetchStation(context.Background(), stationID)
	require.NoError(t, err)
	assert.Equal(t, "ok after retries", text)
	assert.EqualValues(t, 3, calls.Load())
	assert.Equal(t, 2, retries)
}

func TestClient_FetchStation_NonTransientStatusFailsOver(t *testing.T) {
	var primaryCalls atomic.Int64
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		primaryCalls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer primary.Close()

	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("mirror content")) //nolint:errcheck
	}))
	defer fallback.Close()

	c := newTestClient(primary.URL+"/%s.dly", fallback.URL+"/%s.dly", 3, nil)

	text, err := c.FetchStation(context.Background(), stationID)
	require.NoError(t, err)
	assert.Equal(t, "mirror content", text)
	assert.EqualValues(t, 1, primaryCalls.Load(), "404 is not retried")
}

func TestClient_FetchStation_Exhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL+"/%s.dly", srv.URL+"/mirror/%s.dly", 1, nil)

	_, err := c.FetchStation(context.Background(), stationID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestClient_FetchStation_ConnectionErrorIsRetryable(t *testing.T) {
	// A server that is immediately closed yields connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := srv.URL
	srv.Close()

	retries := 0
	c := newTestClient(deadURL+"/%s.dly", "", 2, func() { retries++ })

	_, err := c.FetchStation(context.Background(), stationID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 2, retries)
}

func TestClient_FetchStation_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL+"/%s.dly", "", 5, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchStation(ctx, stationID)
	assert.Error(t, err)
}

func TestNextBackoff(t *testing.T) {
	assert.Equal(t, 1*time.Second, nextBackoff(500*time.Millisecond, 30*time.Second))
	assert.Equal(t, 30*time.Second, nextBackoff(20*time.Second, 30*time.Second))
	assert.Equal(t, 30*time.Second, nextBackoff(30*time.Second, 30*time.Second))
}
