// Package extract pulls readable text out of web pages and local documents.
package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/mentora-ai/mentora/internal/errors"
)

const (
	// MobileUserAgent is sent with every page fetch.
	MobileUserAgent = "Mozilla/5.0 (Linux; Android 10) AppleWebKit/537.36"

	// DefaultWebTimeout bounds a single page fetch.
	DefaultWebTimeout = 10 * time.Second

	maxPageBytes = 10 << 20
)

// Page is the readable content of a web page.
type Page struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Text     string `json:"text"`
	Markdown string `json:"markdown,omitempty"`
	Length   int    `json:"length"`
}

// Web fetches and extracts web pages.
type Web struct {
	client    *http.Client
	userAgent string
}

// NewWeb creates a web extractor. A zero timeout uses DefaultWebTimeout.
func NewWeb(timeout time.Duration) *Web {
	if timeout <= 0 {
		timeout = DefaultWebTimeout
	}
	return &Web{
		client:    &http.Client{Timeout: timeout},
		userAgent: MobileUserAgent,
	}
}

// Extract fetches rawURL and returns its title and body text.
func (w *Web) Extract(ctx context.Context, rawURL string) (*Page, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.NewBuilder(errors.CodeInvalidInput, "invalid URL: "+rawURL).
			User().
			WithSuggestion("Use a full http:// or https:// address").
			Build()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeExtractFailed, "failed to build request", errors.CategoryPermanent)
	}
	req.Header.Set("User-Agent", w.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeExtractFailed, "failed to fetch "+u.Host, errors.CategoryTemporary)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, errors.NewBuilder(errors.CodeExtractFailed, fmt.Sprintf("HTTP error fetching URL. Status=%d", resp.StatusCode)).
			WithContext("url", u.String()).
			Build()
	}

	return ParseHTML(io.LimitReader(resp.Body, maxPageBytes), resp.Header.Get("Content-Type"), u.String())
}

// ParseHTML extracts a Page from an HTML document. contentType selects the
// charset; an empty value sniffs it from the document.
func ParseHTML(r io.Reader, contentType, pageURL string) (*Page, error) {
	utf8Reader, err := charset.NewReader(r, contentType)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeExtractFailed, "unsupported page encoding", errors.CategoryPermanent)
	}

	doc, err := goquery.NewDocumentFromReader(utf8Reader)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeExtractFailed, "failed to parse HTML", errors.CategoryPermanent)
	}

	doc.Find("script, style, noscript, template").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())
	body := doc.Find("body")
	text := collapseSpaces(body.Text())

	var markdown string
	if html, err := body.Html(); err == nil {
		conv := md.NewConverter(hostOf(pageURL), true, nil)
		if out, err := conv.ConvertString(html); err == nil {
			markdown = strings.TrimSpace(out)
		}
	}

	return &Page{
		URL:      pageURL,
		Title:    title,
		Text:     text,
		Markdown: markdown,
		Length:   utf8.RuneCountInString(text),
	}, nil
}

func hostOf(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// collapseSpaces joins all whitespace runs into single spaces.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
