// Package render turns model markdown into the HTML subset Telegram accepts.
package render

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/russross/blackfriday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var blankLines = regexp.MustCompile(`\n{3,}`)

// ToHTML renders markdown and keeps only tags Telegram understands. Headings become bold
// lines and list items become bullets.
func ToHTML(markdown string) string {
	raw := blackfriday.MarkdownCommon([]byte(markdown))

	nodes, err := html.ParseFragment(bytes.NewReader(raw), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return html.EscapeString(markdown)
	}

	var sb strings.Builder
	for _, n := range nodes {
		writeNode(&sb, n, false)
	}

	return strings.TrimSpace(blankLines.ReplaceAllString(sb.String(), "\n\n"))
}

func writeNode(sb *strings.Builder, n *html.Node, pre bool) {
	switch n.Type {
	case html.TextNode:
		if !pre && strings.TrimSpace(n.Data) == "" && strings.Contains(n.Data, "\n") {
			return
		}
		sb.WriteString(html.EscapeString(n.Data))
		return
	case html.ElementNode:
	default:
		writeChildren(sb, n, pre)
		return
	}

	switch n.DataAtom {
	case atom.Script, atom.Style:
	case atom.B, atom.Strong:
		wrap(sb, n, "b", pre)
	case atom.I, atom.Em:
		wrap(sb, n, "i", pre)
	case atom.U, atom.Ins:
		wrap(sb, n, "u", pre)
	case atom.S, atom.Strike, atom.Del:
		wrap(sb, n, "s", pre)
	case atom.Blockquote:
		wrap(sb, n, "blockquote", pre)
		sb.WriteString("\n\n")
	case atom.Code:
		if class := attr(n, "class"); strings.HasPrefix(class, "language-") {
			sb.WriteString(`<code class="` + html.EscapeString(class) + `">`)
		} else {
			sb.WriteString("<code>")
		}
		writeChildren(sb, n, pre)
		sb.WriteString("</code>")
	case atom.Pre:
		sb.WriteString("<pre>")
		writeChildren(sb, n, true)
		sb.WriteString("</pre>\n\n")
	case atom.A:
		href := attr(n, "href")
		if href == "" {
			writeChildren(sb, n, pre)
			return
		}
		sb.WriteString(`<a href="` + html.EscapeString(href) + `">`)
		writeChildren(sb, n, pre)
		sb.WriteString("</a>")
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		wrap(sb, n, "b", pre)
		sb.WriteString("\n\n")
	case atom.P:
		writeChildren(sb, n, pre)
		sb.WriteString("\n\n")
	case atom.Ul, atom.Ol:
		writeChildren(sb, n, pre)
		sb.WriteString("\n")
	case atom.Li:
		sb.WriteString(bullet(n))
		var item strings.Builder
		writeChildren(&item, n, pre)
		sb.WriteString(strings.TrimSpace(item.String()))
		sb.WriteString("\n")
	case atom.Br, atom.Hr:
		sb.WriteString("\n")
	default:
		writeChildren(sb, n, pre)
	}
}

func writeChildren(sb *strings.Builder, n *html.Node, pre bool) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeNode(sb, c, pre)
	}
}

func wrap(sb *strings.Builder, n *html.Node, tag string, pre bool) {
	sb.WriteString("<" + tag + ">")
	writeChildren(sb, n, pre)
	sb.WriteString("</" + tag + ">")
}

func bullet(li *html.Node) string {
	if li.Parent == nil || li.Parent.DataAtom != atom.Ol {
		return "• "
	}

	idx := 1
	for s := li.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode && s.DataAtom == atom.Li {
			idx++
		}
	}
	return strconv.Itoa(idx) + ". "
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
