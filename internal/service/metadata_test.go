package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"slink-api/internal/models"
)

func TestMetadataFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
			<html><head>
			<title>Fallback Title</title>
			<meta property="og:title" content="OG Title">
			<meta property="og:description" content="OG description">
			<meta property="og:image" content="https://example.com/img.png">
			</head><body>ignored</body></html>`))
	}))
	defer srv.Close()

	fetcher := NewMetadataFetcher(time.Second, zap.NewNop())
	meta := fetcher.Fetch(context.Background(), srv.URL)

	assert.Equal(t, "OG Title", meta.Title)
	assert.Equal(t, "OG description", meta.Description)
	assert.Equal(t, "https://example.com/img.png", meta.Image)
}

func TestMetadataFetchTitleFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>  Plain Title </title></head><body></body></html>`))
	}))
	defer srv.Close()

	fetcher := NewMetadataFetcher(time.Second, zap.NewNop())
	meta := fetcher.Fetch(context.Background(), srv.URL)

	assert.Equal(t, "Plain Title", meta.Title)
}

func TestMetadataFetchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	fetcher := NewMetadataFetcher(50*time.Millisecond, zap.NewNop())

	start := time.Now()
	meta := fetcher.Fetch(context.Background(), srv.URL)

	assert.Equal(t, models.PageMetadata{}, meta, "timeouts degrade to empty metadata")
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestMetadataFetchNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	fetcher := NewMetadataFetcher(time.Second, zap.NewNop())
	meta := fetcher.Fetch(context.Background(), srv.URL)

	assert.Equal(t, models.PageMetadata{}, meta)
}

func TestMetadataFetchUnreachableHost(t *testing.T) {
	fetcher := NewMetadataFetcher(200*time.Millisecond, zap.NewNop())
	meta := fetcher.Fetch(context.Background(), "http://127.0.0.1:1")

	assert.Equal(t, models.PageMetadata{}, meta)
}

func TestParseMetadataStopsAtBody(t *testing.T) {
	meta := parseMetadata(strings.NewReader(`
		<html><head><meta property="og:title" content="Head Title"></head>
		<body><meta property="og:image" content="https://example.com/late.png"></body></html>`))

	assert.Equal(t, "Head Title", meta.Title)
	assert.Empty(t, meta.Image, "tags after head are not scanned")
}

func TestParseMetadataPrefersOGDescription(t *testing.T) {
	meta := parseMetadata(strings.NewReader(`
		<html><head>
		<meta property="og:description" content="first">
		<meta name="description" content="second">
		</head></html>`))

	assert.Equal(t, "first", meta.Description)
}
