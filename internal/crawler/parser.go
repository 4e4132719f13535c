package crawler

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"
)

// Document holds what the crawler needs from one HTML page.
type Document struct {
	// Base is the URL relative links resolve against: the page URL, or the
	// document's <base href> when present.
	Base *url.URL

	// Links are the raw href and src values in document order.
	// They are neither resolved nor deduplicated.
	Links []string
}

// ParseDocument decodes body using the charset declared in contentType or
// the document itself and extracts the targets of <a href>, <area href> and
// <img src>. Malformed HTML is parsed leniently; an error is returned only
// when the body cannot be decoded at all.
func ParseDocument(body []byte, contentType string, pageURL *url.URL) (*Document, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, fmt.Errorf("decode charset: %w", err)
	}
	return parseDocument(r, pageURL)
}

func parseDocument(r io.Reader, pageURL *url.URL) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc := &Document{Base: pageURL}
	baseSet := false

	for node := range root.Descendants() {
		if node.Type != html.ElementNode {
			continue
		}

		switch node.DataAtom {
		case atom.Base:
			if baseSet {
				continue
			}
			href := strings.TrimSpace(getAttr(node, "href"))
			if href == "" {
				continue
			}
			ref, err := url.Parse(href)
			if err != nil {
				continue
			}
			doc.Base = pageURL.ResolveReference(ref)
			baseSet = true
		case atom.A, atom.Area:
			if href := getAttr(node, "href"); href != "" {
				doc.Links = append(doc.Links, href)
			}
		case atom.Img:
			if src := getAttr(node, "src"); src != "" {
				doc.Links = append(doc.Links, src)
			}
		}
	}

	return doc, nil
}

// getAttr returns the value of the attribute key, or "" when missing.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
