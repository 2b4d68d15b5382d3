package service

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"slink-api/internal/models"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const metadataBodyLimit = 512 * 1024 // don't slurp arbitrarily large pages

// MetadataFetcher fetches social-preview metadata (title, og: tags) from a
// destination page. It is best-effort only: every failure path, including
// the deadline, returns zero-value metadata and the caller carries on.
type MetadataFetcher struct {
	client  *http.Client
	logger  *zap.Logger
	timeout time.Duration
}

// NewMetadataFetcher creates a fetcher bounded by the given per-fetch timeout.
func NewMetadataFetcher(timeout time.Duration, logger *zap.Logger) *MetadataFetcher {
	return &MetadataFetcher{
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
		timeout: timeout,
	}
}

// Fetch retrieves and parses the destination page. Never returns an error;
// enrichment must not fail any caller.
func (f *MetadataFetcher) Fetch(ctx context.Context, target string) models.PageMetadata {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return models.PageMetadata{}
	}
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Debug("metadata fetch failed", zap.String("url", target), zap.Error(err))
		return models.PageMetadata{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.PageMetadata{}
	}

	return parseMetadata(io.LimitReader(resp.Body, metadataBodyLimit))
}

func parseMetadata(body io.Reader) models.PageMetadata {
	var meta models.PageMetadata

	z := html.NewTokenizer(body)
	for {
		switch z.Next() {
		case html.ErrorToken:
			return meta
		case html.StartTagToken, html.SelfClosingTagToken:
			token := z.Token()
			switch token.Data {
			case "meta":
				var property, content string
				for _, attr := range token.Attr {
					switch attr.Key {
					case "property", "name":
						property = attr.Val
					case "content":
						content = attr.Val
					}
				}
				switch property {
				case "og:title":
					meta.Title = content
				case "og:description", "description":
					if meta.Description == "" {
						meta.Description = content
					}
				case "og:image":
					meta.Image = content
				}
			case "title":
				if z.Next() == html.TextToken && meta.Title == "" {
					meta.Title = strings.TrimSpace(z.Token().Data)
				}
			case "body":
				// Head is done; nothing useful past this point.
				return meta
			}
		}
	}
}
