// Package scrape extracts article text from financial news pages, producing
// documents for ingestion.
package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"briefd/internal/rag"
)

const defaultUserAgent = "briefd/1.0"

// Scraper fetches article pages and extracts their title, date and body.
type Scraper struct {
	client    *http.Client
	userAgent string
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithClient overrides the HTTP client.
func WithClient(c *http.Client) Option {
	return func(s *Scraper) { s.client = c }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(s *Scraper) { s.userAgent = ua }
}

// New creates a Scraper.
func New(opts ...Option) *Scraper {
	s := &Scraper{
		client:    &http.Client{Timeout: 10 * time.Second},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Article fetches rawURL and extracts a document from it. The document
// metadata carries the url, host, title and publication date when found.
func (s *Scraper) Article(ctx context.Context, rawURL string) (rag.Document, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return rag.Document{}, fmt.Errorf("scrape: invalid URL %q", rawURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return rag.Document{}, fmt.Errorf("scrape: unsupported scheme %q", parsed.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return rag.Document{}, fmt.Errorf("scrape: create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return rag.Document{}, fmt.Errorf("scrape: fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return rag.Document{}, fmt.Errorf("scrape: fetch %s: status %d", rawURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return rag.Document{}, fmt.Errorf("scrape: parse %s: %w", rawURL, err)
	}

	content := extractBody(doc)
	if strings.TrimSpace(content) == "" {
		return rag.Document{}, fmt.Errorf("scrape: no article content found at %s", rawURL)
	}

	meta := map[string]string{
		"url":    rawURL,
		"source": parsed.Host,
	}
	if title := extractTitle(doc); title != "" {
		meta["title"] = title
	}
	if date := extractDate(doc); date != "" {
		meta["date"] = date
	}

	return rag.Document{Content: content, Metadata: meta}, nil
}

// extractTitle tries og:title, then <title>, then the first <h1>.
func extractTitle(doc *goquery.Document) string {
	if v, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && v != "" {
		return strings.TrimSpace(v)
	}
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

// extractDate tries the common publication-date meta tags and <time datetime>.
func extractDate(doc *goquery.Document) string {
	selectors := []string{
		`meta[property="article:published_time"]`,
		`meta[name="date"]`,
		`meta[name="publish-date"]`,
	}
	for _, sel := range selectors {
		if v, ok := doc.Find(sel).Attr("content"); ok && v != "" {
			return strings.TrimSpace(v)
		}
	}
	if v, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok && v != "" {
		return strings.TrimSpace(v)
	}
	return ""
}

// extractBody collects paragraph text, preferring <article>, then <main>,
// then the whole page. Scripts and styles are dropped by selecting only <p>
// nodes.
func extractBody(doc *goquery.Document) string {
	for _, scope := range []string{"article", "main", "body"} {
		root := doc.Find(scope).First()
		if root.Length() == 0 {
			continue
		}
		var parts []string
		root.Find("p").Each(func(_ int, sel *goquery.Selection) {
			text := strings.TrimSpace(sel.Text())
			if text != "" {
				parts = append(parts, text)
			}
		})
		if len(parts) > 0 {
			return strings.Join(parts, "\n\n")
		}
	}
	return ""
}
