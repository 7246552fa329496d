package util

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// blockElements start a new run of text when flattened.
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "br": true,
	"dd": true, "div": true, "dl": true, "dt": true, "figcaption": true, "figure": true,
	"footer": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "ol": true, "p": true, "pre": true,
	"section": true, "table": true, "td": true, "th": true, "tr": true, "ul": true,
}

// PlainText strips markup from a CMS rich-text field, keeping every text node.
// Block boundaries become a single space.
func PlainText(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	if !strings.Contains(html, "<") {
		return CollapseWhitespace(html)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return CollapseWhitespace(html)
	}

	var out strings.Builder
	var walk func(*goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, node *goquery.Selection) {
			switch name := goquery.NodeName(node); {
			case name == "#text":
				out.WriteString(node.Text())
			case name == "#comment", name == "script", name == "style":
			case blockElements[name]:
				out.WriteByte(' ')
				walk(node)
				out.WriteByte(' ')
			default:
				walk(node)
			}
		})
	}
	walk(doc.Find("body"))

	return CollapseWhitespace(out.String())
}
