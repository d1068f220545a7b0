package fetcher

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// htmlToText extracts readable text from an HTML document. It prefers
// the <article> or <main> element when one exists, since those carry the
// actual story on most news sites, and falls back to <body>.
func htmlToText(body []byte) string {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	root := findNode(doc, "article")
	if root == nil {
		root = findNode(doc, "main")
	}
	if root == nil {
		root = findNode(doc, "body")
	}
	if root == nil {
		root = doc
	}
	var sb strings.Builder
	collectText(root, &sb)
	return collapseWhitespace(sb.String())
}

func findNode(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "noscript", "template", "svg", "iframe":
			return
		}
	}
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		sb.WriteByte(' ')
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
	if n.Type == html.ElementNode && isBlockTag(n.Data) {
		sb.WriteByte(' ')
	}
}

func isBlockTag(tag string) bool {
	switch tag {
	case "p", "div", "section", "article", "li", "br", "tr",
		"h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "pre":
		return true
	}
	return false
}
