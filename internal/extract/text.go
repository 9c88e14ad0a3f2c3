package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// blockElements start and end on their own line in rendered text
var blockElements = map[atom.Atom]bool{
	atom.Div: true, atom.P: true, atom.Ul: true, atom.Ol: true, atom.Li: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Section: true, atom.Table: true, atom.Tr: true, atom.Header: true, atom.Footer: true,
}

// skippedElements never render text
var skippedElements = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Template: true, atom.Noscript: true, atom.Head: true,
}

// RenderedText returns the text of sel the way a browser lays it out:
// whitespace runs collapse to one space, <br> and block elements break
// lines, and hidden elements are left out. Non-breaking spaces are kept.
func RenderedText(sel *goquery.Selection) string {
	var b strings.Builder
	pendingBreak := false

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if pendingBreak && b.Len() > 0 {
				b.WriteByte('\n')
			}
			pendingBreak = false
			b.WriteString(strings.Map(asciiSpaceToBlank, n.Data))
			return
		case html.ElementNode:
			if skippedElements[n.DataAtom] || isHidden(n) {
				return
			}
			if n.DataAtom == atom.Br {
				b.WriteByte('\n')
				pendingBreak = false
				return
			}
		}

		block := n.Type == html.ElementNode && blockElements[n.DataAtom]
		if block {
			pendingBreak = true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			pendingBreak = true
		}
	}
	for _, n := range sel.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	lines := strings.Split(b.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.FieldsFunc(line, isBlank), " ")
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}

func asciiSpaceToBlank(r rune) rune {
	switch r {
	case '\t', '\n', '\r', '\f':
		return ' '
	}
	return r
}

func isBlank(r rune) bool { return r == ' ' }

func isHidden(n *html.Node) bool {
	for _, a := range n.Attr {
		switch a.Key {
		case "hidden":
			return true
		case "style":
			style := strings.ToLower(strings.ReplaceAll(a.Val, " ", ""))
			if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
				return true
			}
		}
	}
	return false
}
