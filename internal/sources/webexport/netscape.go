package webexport

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// ParseNetscape extracts bookmark entries from a browser export file
// (the NETSCAPE-Bookmark-file-1 format every major browser emits).
// Folder structure is flattened: only anchors with an href survive.
func ParseNetscape(r io.Reader) ([]Entry, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bookmarks html: %w", err)
	}

	var entries []Entry

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			var e Entry
			for _, attr := range n.Attr {
				if attr.Key == "href" {
					e.URL = attr.Val
				}
			}
			if n.FirstChild != nil {
				e.Title = strings.TrimSpace(n.FirstChild.Data)
			}
			if e.Title == "" {
				e.Title = e.URL
			}

			if e.URL != "" {
				entries = append(entries, e)
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)
	return entries, nil
}
