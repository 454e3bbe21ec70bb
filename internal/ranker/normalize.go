package ranker

import (
	"strings"

	"golang.org/x/net/html"
)

// normalizeText strips markup from scanned content before keyword and question
// matching. Reddit selftext and embedded previews can arrive with HTML in
// them; matching against the raw markup would count tag names and attributes
// as text.
func normalizeText(text string) string {
	if !strings.ContainsAny(text, "<&") {
		return text
	}

	doc, err := html.Parse(strings.NewReader(text))
	if err != nil {
		return text
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		// Skip script/style bodies; their text is not content.
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.Join(strings.Fields(sb.String()), " ")
}
