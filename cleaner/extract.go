package cleaner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// invisibleTags never contribute visible text.
const invisibleTags = "script, style, noscript, template"

// blockTags are rendered on their own line, so their text never runs into
// a neighbour's.
var blockTags = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Br: true, atom.Dd: true, atom.Details: true, atom.Div: true, atom.Dl: true,
	atom.Dt: true, atom.Figcaption: true, atom.Figure: true, atom.Footer: true,
	atom.Form: true, atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true,
	atom.H5: true, atom.H6: true, atom.Header: true, atom.Hr: true, atom.Li: true,
	atom.Main: true, atom.Nav: true, atom.Ol: true, atom.P: true, atom.Pre: true,
	atom.Section: true, atom.Summary: true, atom.Table: true, atom.Td: true,
	atom.Th: true, atom.Tr: true, atom.Ul: true,
}

// Container is the content element of a captured page.
type Container struct {
	// Text is the raw visible text of the element, before normalization.
	// Block-level elements are separated by newlines.
	Text string

	// HTML is the element's outer HTML with invisible elements removed.
	HTML string
}

// FindContainer parses rawHTML and returns the first element matched by m.
// found is false when the page has no such element; err is only set when
// the markup cannot be read at all.
func FindContainer(rawHTML string, m goquery.Matcher) (c Container, found bool, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return Container{}, false, err
	}

	sel := doc.FindMatcher(m).First()
	if sel.Length() == 0 {
		return Container{}, false, nil
	}

	sel.Find(invisibleTags).Remove()

	outer, err := goquery.OuterHtml(sel)
	if err != nil {
		return Container{}, false, err
	}

	return Container{Text: visibleText(sel), HTML: outer}, true, nil
}

// visibleText concatenates the text nodes under sel like Selection.Text,
// adding a newline around every block-level element.
func visibleText(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
		default:
			return
		}
		block := blockTags[n.DataAtom]
		if block {
			b.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			b.WriteByte('\n')
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return b.String()
}
