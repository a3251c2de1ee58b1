package extractor

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/user/price-service/internal/entity"
)

// Document is the markup capability the strategy chain needs. Keeping it this
// small lets the HTML backend change without touching strategy definitions.
type Document interface {
	// FindElementText returns the text of the first element matching the last
	// entry of path, searched inside the first match of each earlier entry.
	FindElementText(path ...entity.ElementMatch) (string, bool)
	// FindTextNode returns the first visible text node matching pattern.
	FindTextNode(pattern *regexp.Regexp) (string, bool)
	// Text is the visible text of the page, one space between text nodes.
	Text() string
	// Source is the raw markup as received.
	Source() string
	// Title is the content of <title>, if present.
	Title() (string, bool)
}

// GoqueryDocument implements Document on top of goquery.
type GoqueryDocument struct {
	doc    *goquery.Document
	source string
	text   string
}

// ParseDocument parses raw HTML bytes.
func ParseDocument(body []byte) (*GoqueryDocument, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	d := &GoqueryDocument{doc: doc, source: string(body)}
	// Text nodes are space separated so adjacent elements never merge into
	// one number ("$24.99" + "4 sold" must not read as "$24.994").
	var b strings.Builder
	for _, n := range doc.Nodes {
		walkVisibleText(n, func(s string) bool {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(s)
			return true
		})
	}
	d.text = b.String()
	return d, nil
}

func (d *GoqueryDocument) FindElementText(path ...entity.ElementMatch) (string, bool) {
	if len(path) == 0 {
		return "", false
	}
	sel := d.doc.Selection
	for _, m := range path {
		sel = sel.Find(selector(m)).First()
		if sel.Length() == 0 {
			return "", false
		}
	}
	return sel.Text(), true
}

func (d *GoqueryDocument) FindTextNode(pattern *regexp.Regexp) (string, bool) {
	var found string
	ok := false
	for _, n := range d.doc.Nodes {
		walkVisibleText(n, func(s string) bool {
			if pattern.MatchString(s) {
				found, ok = s, true
				return false
			}
			return true
		})
		if ok {
			break
		}
	}
	return found, ok
}

func (d *GoqueryDocument) Text() string { return d.text }

func (d *GoqueryDocument) Source() string { return d.source }

func (d *GoqueryDocument) Title() (string, bool) {
	title := d.doc.Find("title").First()
	if title.Length() == 0 {
		return "", false
	}
	return title.Text(), true
}

func selector(m entity.ElementMatch) string {
	tag := m.Tag
	if m.Attr == "" {
		if tag == "" {
			return "*"
		}
		return tag
	}
	return fmt.Sprintf(`%s[%s~=%q]`, tag, m.Attr, m.Value)
}

// walkVisibleText calls visit for every text node outside script-like
// elements, in document order, until visit returns false.
func walkVisibleText(n *html.Node, visit func(string) bool) bool {
	switch n.Type {
	case html.TextNode:
		return visit(n.Data)
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Template:
			return true
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walkVisibleText(c, visit) {
			return false
		}
	}
	return true
}
