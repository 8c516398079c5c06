package inbound

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// blockElements end a line of text.
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "footer": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "ol": true, "p": true,
	"pre": true, "section": true, "table": true, "tr": true, "ul": true,
}

// HTMLToText reduces an HTML body to lines of text, one per block element
// or table row, which is enough for the line parser to find labelled lines.
// Comments, scripts and styles are dropped and entities are decoded.
func HTMLToText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return ""
	}
	doc.Find("head, script, style, noscript, template").Remove()

	var b strings.Builder
	writeText(&b, doc.Selection, false)

	var out []string
	for _, line := range strings.Split(b.String(), "\n") {
		// Fields also folds the no-break spaces left by &nbsp;.
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func writeText(b *strings.Builder, sel *goquery.Selection, pre bool) {
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		node := c.Get(0)
		switch node.Type {
		case html.TextNode:
			if pre {
				b.WriteString(node.Data)
				return
			}
			b.WriteString(strings.Map(func(r rune) rune {
				if r == '\n' || r == '\r' {
					return ' '
				}
				return r
			}, node.Data))
		case html.ElementNode:
			name := goquery.NodeName(c)
			switch name {
			case "br":
				b.WriteByte('\n')
				return
			case "td", "th":
				b.WriteByte(' ')
			}
			writeText(b, c, pre || name == "pre")
			if blockElements[name] {
				b.WriteByte('\n')
			}
		}
	})
}
