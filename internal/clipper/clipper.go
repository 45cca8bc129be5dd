// Package clipper turns a web page into plain problem text.
package clipper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// MaxTextLength caps the extracted text, in characters.
const MaxTextLength = 4000

// ErrNoText is returned when a page has no readable text left after cleaning.
var ErrNoText = errors.New("page contains no readable text")

// Clipper handles fetching and extracting text from URLs.
type Clipper struct {
	client *http.Client
}

// NewClipper creates a new Clipper instance. A nil client gets a 15s timeout.
func NewClipper(client *http.Client) *Clipper {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Clipper{client: client}
}

// Extract fetches url and returns its cleaned text content.
func (c *Clipper) Extract(ctx context.Context, url string) (string, error) {
	doc, err := c.fetch(ctx, url)
	if err != nil {
		return "", fmt.Errorf("failed to fetch content: %w", err)
	}

	text := cleanText(doc)
	if text == "" {
		return "", ErrNoText
	}
	return truncate(text, MaxTextLength), nil
}

func (c *Clipper) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "mathly-clipper/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	return goquery.NewDocumentFromReader(resp.Body)
}

func cleanText(doc *goquery.Document) string {
	// Remove noise to save LLM tokens
	doc.Find("script, style, noscript, nav, header, footer, iframe, form, ads, .ads, #ads").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	// Prefer the main content block when the page marks one.
	content := doc.Find("article, main").First()
	if content.Length() == 0 {
		content = doc.Find("body")
	}

	return strings.Join(strings.Fields(content.Text()), " ")
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:limit]))
}
