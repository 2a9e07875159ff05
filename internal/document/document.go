package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// ErrNotObject is returned when the payload is not a JSON object.
var ErrNotObject = errors.New("result document is not a JSON object")

// Document is the payload a crawl result points to.
type Document struct {
	// Markdown is the page converted to markdown. Empty when not extracted.
	Markdown string

	// Links are the page's outgoing links, absolute when a base URL is known.
	Links []string

	// HTML is the page HTML, present when the crawl ran with include_html.
	HTML string

	// Metadata holds the crawler's page metadata (url, title, ...).
	Metadata map[string]any

	// Raw is the whole payload as decoded JSON.
	Raw map[string]any
}

// payload is the known part of a result document.
type payload struct {
	Markdown string          `json:"markdown"`
	Links    json.RawMessage `json:"links"`
	HTML     string          `json:"html"`
	Metadata map[string]any  `json:"metadata"`
}

// Parse decodes a result document.
//
// When the payload has no links but has HTML, the links are extracted
// from the anchors of the HTML, resolved against metadata.url.
func Parse(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read result document: %w", err)
	}
	return ParseBytes(data)
}

// ParseBytes is Parse for an in-memory payload.
func ParseBytes(data []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrNotObject
	}

	var p payload
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return nil, fmt.Errorf("failed to decode result document: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode result document: %w", err)
	}

	doc := &Document{
		Markdown: p.Markdown,
		HTML:     p.HTML,
		Metadata: p.Metadata,
		Raw:      raw,
		Links:    decodeLinks(p.Links),
	}

	if len(doc.Links) == 0 && doc.HTML != "" {
		links, err := ExtractLinks(strings.NewReader(doc.HTML), doc.URL())
		if err != nil {
			return nil, err
		}
		doc.Links = links
	}

	return doc, nil
}

// URL returns metadata.url, or "" when absent.
func (d *Document) URL() string {
	if s, ok := d.Metadata["url"].(string); ok {
		return s
	}
	return ""
}

// Title returns metadata.title, or "" when absent.
func (d *Document) Title() string {
	if s, ok := d.Metadata["title"].(string); ok {
		return s
	}
	return ""
}

// JSON returns the raw payload indented for display.
func (d *Document) JSON() ([]byte, error) {
	return json.MarshalIndent(d.Raw, "", "  ")
}

// decodeLinks accepts a list of strings. Non-string items are skipped.
func decodeLinks(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}

	links := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			links = append(links, s)
		}
	}
	return links
}

// ExtractLinks returns the href of every anchor in an HTML document,
// in document order and without duplicates. Relative links are resolved
// against base when it is a valid URL. Script, mail, phone and fragment
// links are skipped.
func ExtractLinks(r io.Reader, base string) ([]string, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var baseURL *url.URL
	if base != "" {
		if u, err := url.Parse(base); err == nil && u.IsAbs() {
			baseURL = u
		}
	}

	links := make([]string, 0)
	seen := make(map[string]bool)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if link := resolve(baseURL, getAttr(n, "href")); link != "" && !seen[link] {
				seen[link] = true
				links = append(links, link)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return links, nil
}

func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	lower := strings.ToLower(href)
	for _, scheme := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, scheme) {
			return ""
		}
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	u.Fragment = ""
	return u.String()
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
