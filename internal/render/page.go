// Package render is the narrow browser capability the extractors consume:
// open a page, query nodes, read text and attributes, scroll, dump.
package render

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Node is an element of a rendered page.
type Node interface {
	// Find returns the descendants matching a CSS selector, in document order.
	Find(selector string) []Node
	// Text returns the element's text with whitespace collapsed.
	Text() string
	// Attr returns the named attribute.
	Attr(name string) (string, bool)
}

// Page is a rendered page held open by a Renderer.
type Page interface {
	URL() string
	QueryAll(ctx context.Context, selector string) ([]Node, error)
	// Content returns the current serialized DOM.
	Content(ctx context.Context) (string, error)
	// Scroll scrolls by dy pixels and returns the document height afterwards.
	Scroll(ctx context.Context, dy int) (int64, error)
	// Click clicks the first element matching selector, if any.
	Click(ctx context.Context, selector string) error
	// Screenshot captures the full page as PNG.
	Screenshot(ctx context.Context) ([]byte, error)
}

// Renderer opens pages. The returned release func must be called on every path.
type Renderer interface {
	Open(ctx context.Context, url string) (Page, func(), error)
}

type selectionNode struct {
	sel *goquery.Selection
}

func (n selectionNode) Find(selector string) []Node {
	return nodesOf(n.sel.Find(selector))
}

func (n selectionNode) Text() string {
	return strings.Join(strings.Fields(n.sel.Text()), " ")
}

func (n selectionNode) Attr(name string) (string, bool) {
	return n.sel.Attr(name)
}

func nodesOf(sel *goquery.Selection) []Node {
	nodes := make([]Node, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, selectionNode{sel: s})
	})
	return nodes
}

// queryHTML parses a serialized DOM and returns the nodes matching selector.
func queryHTML(html, selector string) ([]Node, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	return nodesOf(doc.Find(selector)), nil
}
