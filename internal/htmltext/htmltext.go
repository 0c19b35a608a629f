// Package htmltext renders HTML fragments as plain text.
//
// The renderer walks the golang.org/x/net/html node tree. Inline whitespace
// is collapsed the way a browser would, block elements start new lines,
// list items get a configurable prefix and links keep their target in
// brackets after the link text.
package htmltext

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Options controls how markup is rendered.
type Options struct {
	// WordWrap wraps lines longer than this many characters. Zero disables
	// wrapping.
	WordWrap int
	// UppercaseHeadings upper-cases h1-h6 content.
	UppercaseHeadings bool
	// SingleNewlineParagraphs separates paragraphs and headings with one
	// newline instead of a blank line.
	SingleNewlineParagraphs bool
	// UnorderedListItemPrefix is written before each <ul> item.
	UnorderedListItemPrefix string
	// IgnoreHref drops the "[href]" suffix after link text.
	IgnoreHref bool
}

// DefaultOptions mirrors the usual html-to-text defaults.
func DefaultOptions() Options {
	return Options{
		WordWrap:                80,
		UppercaseHeadings:       true,
		UnorderedListItemPrefix: " * ",
	}
}

var wsRun = regexp.MustCompile(`[ \t\n\r\f]+`)

// Convert renders the HTML fragment s as text.
func Convert(s string, opts Options) (string, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(s), body)
	if err != nil {
		return "", fmt.Errorf("parse html fragment: %w", err)
	}

	w := &writer{opts: opts}
	for _, n := range nodes {
		w.node(n)
	}
	return finish(string(w.out), opts.WordWrap), nil
}

type writer struct {
	opts      Options
	out       []byte
	pending   int  // newlines owed before the next content
	lastSpace bool // output is at a line start or ends in a space
	inPre     int
}

func (w *writer) paragraphBreak() int {
	if w.opts.SingleNewlineParagraphs {
		return 1
	}
	return 2
}

func (w *writer) breakLine(n int) {
	if n > w.pending {
		w.pending = n
	}
}

// flush trims trailing spaces and makes sure the output ends in at least
// the pending number of newlines.
func (w *writer) flush() {
	if len(w.out) == 0 {
		w.pending = 0
		w.lastSpace = true
		return
	}
	if w.pending == 0 {
		return
	}
	w.trimTrailingSpaces()
	have := 0
	for i := len(w.out) - 1; i >= 0 && w.out[i] == '\n'; i-- {
		have++
	}
	for ; have < w.pending; have++ {
		w.out = append(w.out, '\n')
	}
	w.pending = 0
	w.lastSpace = true
}

func (w *writer) trimTrailingSpaces() {
	for len(w.out) > 0 && w.out[len(w.out)-1] == ' ' {
		w.out = w.out[:len(w.out)-1]
	}
}

func (w *writer) text(s string) {
	if w.inPre > 0 {
		w.flush()
		w.out = append(w.out, s...)
		w.lastSpace = strings.HasSuffix(s, "\n")
		return
	}

	s = wsRun.ReplaceAllString(s, " ")
	if s == "" {
		return
	}
	if w.lastSpace || w.pending > 0 || len(w.out) == 0 {
		s = strings.TrimLeft(s, " ")
		if s == "" {
			return
		}
	}
	w.flush()
	w.out = append(w.out, s...)
	w.lastSpace = strings.HasSuffix(s, " ")
}

func (w *writer) raw(s string) {
	if s == "" {
		return
	}
	w.flush()
	w.out = append(w.out, s...)
	w.lastSpace = strings.HasSuffix(s, " ") || strings.HasSuffix(s, "\n")
}

func (w *writer) newline() {
	w.flush()
	w.trimTrailingSpaces()
	w.out = append(w.out, '\n')
	w.lastSpace = true
}

// sub renders n's children with a fresh writer and returns the trimmed text.
func (w *writer) sub(n *html.Node) string {
	sw := &writer{opts: w.opts, inPre: w.inPre}
	sw.children(n)
	return strings.TrimSpace(string(sw.out))
}

func (w *writer) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.node(c)
	}
}

func (w *writer) node(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.text(n.Data)
		return
	case html.ElementNode:
	case html.DocumentNode:
		w.children(n)
		return
	default:
		return
	}

	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Head, atom.Noscript, atom.Template:
		return
	case atom.Br:
		w.newline()
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		heading := w.sub(n)
		if w.opts.UppercaseHeadings {
			heading = strings.ToUpper(heading)
		}
		w.breakLine(w.paragraphBreak())
		w.raw(heading)
		w.breakLine(w.paragraphBreak())
	case atom.P, atom.Blockquote:
		w.breakLine(w.paragraphBreak())
		w.children(n)
		w.breakLine(w.paragraphBreak())
	case atom.Pre:
		w.breakLine(w.paragraphBreak())
		w.inPre++
		w.children(n)
		w.inPre--
		w.breakLine(w.paragraphBreak())
	case atom.Ul:
		w.list(n, false)
	case atom.Ol:
		w.list(n, true)
	case atom.A:
		w.link(n)
	case atom.Tr:
		w.breakLine(1)
		w.children(n)
		w.breakLine(1)
	case atom.Td, atom.Th:
		w.children(n)
		w.text(" ")
	case atom.Div, atom.Section, atom.Article, atom.Header, atom.Footer,
		atom.Main, atom.Aside, atom.Nav, atom.Table, atom.Dl, atom.Dt,
		atom.Dd, atom.Figure, atom.Li, atom.Hr:
		w.breakLine(1)
		w.children(n)
		w.breakLine(1)
	default:
		w.children(n)
	}
}

func (w *writer) list(n *html.Node, ordered bool) {
	w.breakLine(w.paragraphBreak())
	idx := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.DataAtom != atom.Li {
			w.node(c)
			continue
		}
		idx++
		prefix := w.opts.UnorderedListItemPrefix
		if ordered {
			prefix = " " + strconv.Itoa(idx) + ". "
		}
		w.breakLine(1)
		w.flush()
		w.out = append(w.out, prefix...)
		w.lastSpace = prefix == "" || strings.HasSuffix(prefix, " ")
		w.children(c)
		w.breakLine(1)
	}
	w.breakLine(w.paragraphBreak())
}

func (w *writer) link(n *html.Node) {
	text := w.sub(n)
	w.text(text)

	if w.opts.IgnoreHref {
		return
	}
	href := strings.TrimSpace(attr(n, "href"))
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return
	}
	href = strings.TrimPrefix(href, "mailto:")
	if href == text {
		return
	}
	w.text(" [" + href + "]")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func finish(s string, width int) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	if width > 0 {
		var wrapped []string
		for _, l := range lines {
			wrapped = append(wrapped, wrap(l, width)...)
		}
		lines = wrapped
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}

// wrap greedily breaks line on spaces so no output line exceeds width,
// except single words longer than width.
func wrap(line string, width int) []string {
	if len(line) <= width {
		return []string{line}
	}
	words := strings.Fields(line)
	if len(words) == 0 {
		return []string{""}
	}
	var out []string
	cur := words[0]
	for _, word := range words[1:] {
		if len(cur)+1+len(word) > width {
			out = append(out, cur)
			cur = word
			continue
		}
		cur += " " + word
	}
	return append(out, cur)
}
