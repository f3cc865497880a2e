// Package htmlx converts user-authored text into sanitized HTML.
// Anything outside the allow-list is stripped, not escaped, and bare
// URLs become links.
package htmlx

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"mvdan.cc/xurls/v2"
)

var (
	postPolicy    *bluemonday.Policy
	commentPolicy *bluemonday.Policy
	urlPattern    *regexp.Regexp
)

func init() {
	// Posts may use block-level structure.
	postPolicy = bluemonday.NewPolicy()
	postPolicy.AllowElements(
		"a", "abbr", "acronym", "b", "blockquote", "code", "em", "i",
		"li", "ol", "pre", "strong", "ul", "h1", "h2", "h3", "p",
	)
	postPolicy.AllowAttrs("href").OnElements("a")
	postPolicy.AllowStandardURLs()

	// Comments are inline only.
	commentPolicy = bluemonday.NewPolicy()
	commentPolicy.AllowElements("a", "abbr", "acronym", "b", "code", "em", "i", "strong")
	commentPolicy.AllowAttrs("href").OnElements("a")
	commentPolicy.AllowStandardURLs()

	// Web schemes only, so generated hrefs stay within what the
	// policies would accept.
	pattern, err := xurls.StrictMatchingScheme("https?://")
	if err != nil {
		panic(err)
	}
	urlPattern = pattern
}

// RenderPost derives sanitized HTML from a post body.
func RenderPost(body string) string {
	return linkify(postPolicy.Sanitize(body))
}

// RenderComment derives sanitized HTML from a comment body.
func RenderComment(body string) string {
	return linkify(commentPolicy.Sanitize(body))
}

// linkify wraps bare URLs in anchor tags. It runs on already-sanitized
// markup and walks the parse tree so that URLs inside attributes,
// existing anchors or code blocks are left untouched.
func linkify(s string) string {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(s), ctx)
	if err != nil {
		return s
	}
	var b strings.Builder
	for _, n := range nodes {
		linkifyNode(n)
		if err := html.Render(&b, n); err != nil {
			return s
		}
	}
	return b.String()
}

func linkifyNode(n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.A, atom.Pre, atom.Code:
			return
		}
	}
	for child := n.FirstChild; child != nil; {
		next := child.NextSibling
		if child.Type == html.TextNode {
			linkifyText(n, child)
		} else {
			linkifyNode(child)
		}
		child = next
	}
}

// linkifyText splits a text node around its URLs and splices anchor
// elements in their place.
func linkifyText(parent, text *html.Node) {
	matches := urlPattern.FindAllStringIndex(text.Data, -1)
	if len(matches) == 0 {
		return
	}
	last := 0
	for _, m := range matches {
		if m[0] > last {
			parent.InsertBefore(&html.Node{Type: html.TextNode, Data: text.Data[last:m[0]]}, text)
		}
		u := text.Data[m[0]:m[1]]
		a := &html.Node{
			Type:     html.ElementNode,
			Data:     "a",
			DataAtom: atom.A,
			Attr:     []html.Attribute{{Key: "href", Val: u}},
		}
		a.AppendChild(&html.Node{Type: html.TextNode, Data: u})
		parent.InsertBefore(a, text)
		last = m[1]
	}
	if last < len(text.Data) {
		parent.InsertBefore(&html.Node{Type: html.TextNode, Data: text.Data[last:]}, text)
	}
	parent.RemoveChild(text)
}
