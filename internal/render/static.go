package render

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var _ Page = (*StaticPage)(nil)

// ErrNoScreenshot is returned by pages that have nothing to capture.
var ErrNoScreenshot = errors.New("screenshot not available")

// StaticPage is a Page over fixed HTML, used to replay saved dumps offline.
type StaticPage struct {
	url  string
	html string
	doc  *goquery.Document
}

// NewStaticPage parses html as the content of a page fetched from url.
func NewStaticPage(url, html string) (*StaticPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	return &StaticPage{url: url, html: html, doc: doc}, nil
}

// LoadStaticPage reads an HTML file from disk.
func LoadStaticPage(url, path string) (*StaticPage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewStaticPage(url, string(data))
}

func (p *StaticPage) URL() string { return p.url }

func (p *StaticPage) QueryAll(_ context.Context, selector string) ([]Node, error) {
	return nodesOf(p.doc.Find(selector)), nil
}

func (p *StaticPage) Content(_ context.Context) (string, error) { return p.html, nil }

// Scroll never grows the document.
func (p *StaticPage) Scroll(_ context.Context, _ int) (int64, error) { return 0, nil }

func (p *StaticPage) Click(_ context.Context, _ string) error { return nil }

func (p *StaticPage) Screenshot(_ context.Context) ([]byte, error) {
	return nil, ErrNoScreenshot
}
