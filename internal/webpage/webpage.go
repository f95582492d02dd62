// Package webpage fetches an HTML page and extracts its title, links, and
// readable text.
package webpage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	// DefaultTimeout bounds a fetch when the caller sets none.
	DefaultTimeout = 15 * time.Second
	// DefaultMaxText is the maximum number of text bytes returned.
	DefaultMaxText = 8000
	// maxBodyBytes caps how much of the response is parsed.
	maxBodyBytes = 2 << 20
	userAgent    = "dungeonkit/1.0 (+page fetch)"
)

var (
	// ErrInvalidURL indicates the URL is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid url")
	// ErrFetchFailed indicates the page could not be retrieved.
	ErrFetchFailed = errors.New("fetch failed")
)

// Link is one anchor on the page.
type Link struct {
	Text string
	Href string
}

// Page is the extracted content of a fetched page.
type Page struct {
	URL       string
	Status    int
	Title     string
	Links     []Link
	Text      string
	Truncated bool
}

// Fetcher retrieves pages over HTTP.
type Fetcher struct {
	client  *http.Client
	maxText int
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithMaxText overrides the text size limit.
func WithMaxText(limit int) Option {
	return func(f *Fetcher) {
		if limit > 0 {
			f.maxText = limit
		}
	}
}

// NewFetcher builds a fetcher whose requests time out after timeout.
func NewFetcher(timeout time.Duration, opts ...Option) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	f := &Fetcher{
		client:  &http.Client{Timeout: timeout},
		maxText: DefaultMaxText,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads rawURL and extracts its content. Non-2xx responses are
// errors.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	base, err := parseURL(rawURL)
	if err != nil {
		return Page{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String(), nil)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Page{}, fmt.Errorf("%w: %s returned status %d", ErrFetchFailed, base, resp.StatusCode)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Page{}, fmt.Errorf("%w: parse html: %v", ErrFetchFailed, err)
	}

	page := Extract(doc, resp.Request.URL, f.maxText)
	page.URL = resp.Request.URL.String()
	page.Status = resp.StatusCode
	return page, nil
}

// Extract walks a parsed document. Relative hrefs resolve against base.
func Extract(doc *html.Node, base *url.URL, maxText int) Page {
	e := extractor{base: base, links: []Link{}}
	e.walk(doc)

	text := strings.Join(strings.Fields(e.text.String()), " ")
	page := Page{
		Title: strings.Join(strings.Fields(e.title), " "),
		Links: e.links,
		Text:  text,
	}
	if maxText > 0 && len(text) > maxText {
		page.Text = truncate(text, maxText)
		page.Truncated = true
	}
	return page
}

type extractor struct {
	base  *url.URL
	title string
	text  strings.Builder
	links []Link
}

func (e *extractor) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Template:
			return
		case atom.Title:
			if e.title == "" {
				e.title = nodeText(n)
			}
			return
		case atom.A:
			e.addLink(n)
		}
	}
	if n.Type == html.TextNode {
		e.text.WriteString(n.Data)
		e.text.WriteByte(' ')
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		e.walk(child)
	}
}

func (e *extractor) addLink(n *html.Node) {
	href := strings.TrimSpace(attr(n, "href"))
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return
	}
	ref, err := url.Parse(href)
	if err != nil {
		return
	}
	if e.base != nil {
		ref = e.base.ResolveReference(ref)
	}
	e.links = append(e.links, Link{
		Text: strings.Join(strings.Fields(nodeText(n)), " "),
		Href: ref.String(),
	})
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
			b.WriteByte(' ')
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}
	collect(n)
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func parseURL(rawURL string) (*url.URL, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme must be http or https", ErrInvalidURL)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("%w: host is required", ErrInvalidURL)
	}
	return parsed, nil
}

// truncate cuts text to at most limit bytes without splitting a rune.
func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
