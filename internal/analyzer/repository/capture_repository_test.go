package repository

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"golang-zone-analyzer/internal/analyzer/config"
	"golang-zone-analyzer/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func captureTestConfig(baseURL string) *config.Config {
	return &config.Config{Capture: config.Capture{
		BaseURL:        baseURL,
		RequestTimeout: 5 * time.Second,
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
	}}
}

func TestHTTPCaptureSessionLifecycle(t *testing.T) {
	chart := testPNG(t, 320, 200)
	var released int32
	var healthCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("POST /sessions", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"s-1"}`))
	})
	mux.HandleFunc("GET /sessions/s-1/health", func(w http.ResponseWriter, r *http.Request) {
		// first probe fails with a server error and is retried
		if atomic.AddInt32(&healthCalls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /sessions/s-1/capture", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "EURUSD", r.URL.Query().Get("symbol"))
		assert.Equal(t, "D1", r.URL.Query().Get("interval"))
		w.Header().Set("X-Price-High", "1.1200")
		w.Header().Set("X-Price-Low", "1.0800")
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(chart)
	})
	mux.HandleFunc("DELETE /sessions/s-1", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&released, 1)
		w.WriteHeader(http.StatusNoContent)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	provider := NewHTTPCaptureProvider(captureTestConfig(server.URL), logger.NewNop())
	ctx := context.Background()

	session, err := provider.Acquire(ctx)
	require.NoError(t, err)
	assert.Equal(t, "s-1", session.ID())

	require.NoError(t, session.Healthy(ctx))
	assert.Equal(t, int32(2), atomic.LoadInt32(&healthCalls))

	capture, err := session.Capture(ctx, "EURUSD", "D1")
	require.NoError(t, err)
	assert.Equal(t, "image/png", capture.ContentType)
	assert.Equal(t, chart, capture.Image)
	require.NotNil(t, capture.Scale)
	assert.Equal(t, 1.12, capture.Scale.PriceHigh)
	assert.Equal(t, 1.08, capture.Scale.PriceLow)
	assert.Equal(t, 320, capture.Scale.ImageWidth)
	assert.Equal(t, 200, capture.Scale.ImageHeight)

	require.NoError(t, session.Release(ctx))
	assert.Equal(t, int32(1), atomic.LoadInt32(&released))
}

func TestHTTPCaptureWithoutScaleHeaders(t *testing.T) {
	chart := testPNG(t, 50, 40)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /sessions/s-2/capture", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(chart)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	provider := NewHTTPCaptureProvider(captureTestConfig(server.URL), logger.NewNop()).(*httpCaptureProvider)
	session := &httpCaptureSession{id: "s-2", provider: provider}

	capture, err := session.Capture(context.Background(), "GBPUSD", "H4")
	require.NoError(t, err)
	assert.Nil(t, capture.Scale)
}

func TestHTTPCaptureClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "unknown symbol", http.StatusNotFound)
	}))
	defer server.Close()

	provider := NewHTTPCaptureProvider(captureTestConfig(server.URL), logger.NewNop()).(*httpCaptureProvider)
	session := &httpCaptureSession{id: "s-3", provider: provider}

	_, err := session.Capture(context.Background(), "XXXYYY", "D1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestHTTPCaptureServerErrorExhaustsRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	provider := NewHTTPCaptureProvider(captureTestConfig(server.URL), logger.NewNop())
	_, err := provider.Acquire(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHTTPCaptureRejectsNonImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>login required</html>"))
	}))
	defer server.Close()

	provider := NewHTTPCaptureProvider(captureTestConfig(server.URL), logger.NewNop()).(*httpCaptureProvider)
	session := &httpCaptureSession{id: "s-4", provider: provider}

	_, err := session.Capture(context.Background(), "EURUSD", "D1")
	assert.ErrorContains(t, err, "unreadable image")
}
