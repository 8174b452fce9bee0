// Package preview fetches a page and extracts a short readable summary for
// links that cannot be embedded.
package preview

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
)

const (
	defaultExcerptLen = 300
	maxBodyBytes      = 2 << 20
)

// Preview is what a link card shows.
type Preview struct {
	Title    string
	Excerpt  string
	SiteName string
	Image    string
}

// Fetcher downloads pages and extracts previews.
type Fetcher struct {
	httpClient *http.Client
	excerptLen int
	userAgent  string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.httpClient.Timeout = d
	}
}

// WithExcerptLength caps the excerpt in runes.
func WithExcerptLength(n int) Option {
	return func(f *Fetcher) {
		f.excerptLen = n
	}
}

// WithHTTPClient replaces the HTTP client, including its guard against
// non-public addresses.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.httpClient = c
	}
}

// NewFetcher creates a fetcher with a 10 second timeout that only connects
// to publicly routable addresses.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		httpClient: newPublicClient(10 * time.Second),
		excerptLen: defaultExcerptLen,
		userAgent:  "Mozilla/5.0 (compatible; KoreaCommunityBoard/1.0)",
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves rawURL and extracts its preview. Only http and https
// URLs are fetched.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Preview, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil || parsedURL.Host == "" || (parsedURL.Scheme != "http" && parsedURL.Scheme != "https") {
		return nil, fmt.Errorf("invalid URL: %s", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	article, err := readability.FromReader(http.MaxBytesReader(nil, resp.Body, maxBodyBytes), parsedURL)
	if err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}

	p := &Preview{
		Title:    strings.TrimSpace(article.Title),
		Excerpt:  strings.TrimSpace(article.Excerpt),
		SiteName: strings.TrimSpace(article.SiteName),
		Image:    article.Image,
	}
	if p.Excerpt == "" {
		p.Excerpt = strings.Join(strings.Fields(article.TextContent), " ")
	}
	if r := []rune(p.Excerpt); len(r) > f.excerptLen {
		p.Excerpt = strings.TrimSpace(string(r[:f.excerptLen])) + "…"
	}
	if p.Title == "" {
		p.Title = parsedURL.Host
	}

	return p, nil
}
