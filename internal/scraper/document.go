package scraper

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

var markupHint = regexp.MustCompile(`(?i)<(html|body|table|pre|div|p)[\s>]`)

// Document is a fetched results page or file. The HTML tree is parsed on
// first use; a Document may be shared between goroutines.
type Document struct {
	Source string
	raw    []byte

	parse   sync.Once
	html    *goquery.Document
	htmlErr error
}

// NewDocument wraps raw document bytes.
func NewDocument(source string, raw []byte) *Document {
	return &Document{Source: source, raw: raw}
}

// Raw returns the document as text.
func (d *Document) Raw() string {
	return string(d.raw)
}

// IsMarkup reports whether the document looks like HTML rather than plain text.
func (d *Document) IsMarkup() bool {
	return markupHint.Match(d.raw)
}

// HTML returns the parsed HTML tree.
func (d *Document) HTML() (*goquery.Document, error) {
	d.parse.Do(func() {
		d.html, d.htmlErr = goquery.NewDocumentFromReader(bytes.NewReader(d.raw))
		if d.htmlErr != nil {
			d.htmlErr = fmt.Errorf("parsing HTML: %w", d.htmlErr)
		}
	})
	return d.html, d.htmlErr
}

// Preformatted returns the text of the first <pre> block, if any.
func (d *Document) Preformatted() (string, bool) {
	if !d.IsMarkup() {
		return "", false
	}
	doc, err := d.HTML()
	if err != nil {
		return "", false
	}
	pre := doc.Find("pre").First()
	if pre.Length() == 0 {
		return "", false
	}
	return pre.Text(), true
}

// Text returns the document's readable text. For markup, the contents of all
// <pre> blocks are preferred; without them the whole page text is used. Plain
// text documents are returned unchanged.
func (d *Document) Text() string {
	if !d.IsMarkup() {
		return d.Raw()
	}

	doc, err := d.HTML()
	if err != nil {
		return d.Raw()
	}

	var blocks []string
	doc.Find("pre").Each(func(i int, sel *goquery.Selection) {
		blocks = append(blocks, sel.Text())
	})
	if len(blocks) > 0 {
		return strings.Join(blocks, "\n")
	}

	return doc.Text()
}

// Lines splits text into lines, dropping carriage returns.
func Lines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}
