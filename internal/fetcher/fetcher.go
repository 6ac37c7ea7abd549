package fetcher

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lab007/webalert/internal/common"
	"github.com/lab007/webalert/internal/config"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Fetcher retrieves page content over HTTP for the monitoring engine.
type Fetcher struct {
	httpClient *http.Client
	logger     zerolog.Logger
	cfg        *config.MonitorConfig
}

// New creates a Fetcher with a client derived from the monitor configuration.
func New(cfg *config.MonitorConfig, logger zerolog.Logger) *Fetcher {
	transport := http.DefaultTransport
	if cfg.InsecureSkipVerify {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	client := &http.Client{
		Timeout:   cfg.HTTPTimeout(),
		Transport: transport,
	}

	return NewWithClient(client, cfg, logger)
}

// NewWithClient creates a Fetcher with an injected HTTP client.
func NewWithClient(client *http.Client, cfg *config.MonitorConfig, logger zerolog.Logger) *Fetcher {
	return &Fetcher{
		httpClient: client,
		logger:     logger.With().Str("component", "Fetcher").Logger(),
		cfg:        cfg,
	}
}

// Metadata describes one fetch for debug and status purposes.
type Metadata struct {
	FetchID       string        `json:"fetch_id"`
	FetchedAt     time.Time     `json:"fetched_at"`
	StatusCode    int           `json:"status_code"`
	ContentType   string        `json:"content_type,omitempty"`
	ContentLength int           `json:"content_length"`
	Duration      time.Duration `json:"duration_ms"`
	Title         string        `json:"title,omitempty"`
}

// Result holds the fetched page content and its metadata.
type Result struct {
	Content  []byte
	Metadata Metadata
}

// Fetch retrieves the content of a URL. Network failures come back as
// *common.NetworkError and non-200 statuses as *common.HTTPError.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		f.logger.Error().Err(err).Str("url", url).Msg("Failed to create HTTP request")
		return nil, common.WrapErrorf(err, "creating request for %s", url)
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.logger.Error().Err(err).Str("url", url).Msg("Failed to execute HTTP request")
		return nil, common.NewNetworkError(url, "HTTP request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.logger.Warn().Str("url", url).Int("status_code", resp.StatusCode).Msg("Received non-OK HTTP status")
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, common.NewHTTPErrorWithURL(resp.StatusCode, string(bodyBytes), url)
	}

	if resp.ContentLength > 0 && resp.ContentLength > int64(f.cfg.MaxContentSize) {
		return nil, common.NewError("content too large: %d bytes (max: %d bytes)", resp.ContentLength, f.cfg.MaxContentSize)
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, int64(f.cfg.MaxContentSize)+1))
	if err != nil {
		f.logger.Error().Err(err).Str("url", url).Msg("Failed to read response body")
		return nil, common.NewNetworkError(url, "failed to read response body", err)
	}
	if len(bodyBytes) > f.cfg.MaxContentSize {
		return nil, common.NewError("content too large: %d bytes (max: %d bytes)", len(bodyBytes), f.cfg.MaxContentSize)
	}

	result := &Result{
		Content: bodyBytes,
		Metadata: Metadata{
			FetchID:       uuid.NewString(),
			FetchedAt:     start,
			StatusCode:    resp.StatusCode,
			ContentType:   resp.Header.Get("Content-Type"),
			ContentLength: len(bodyBytes),
			Duration:      time.Since(start),
			Title:         extractTitle(bodyBytes),
		},
	}

	f.logger.Debug().
		Str("url", url).
		Str("fetch_id", result.Metadata.FetchID).
		Int("size", len(bodyBytes)).
		Dur("duration", result.Metadata.Duration).
		Msg("Page content fetched successfully")
	return result, nil
}

// extractTitle pulls the page title for debug metadata. Best effort only.
func extractTitle(content []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
