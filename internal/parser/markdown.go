package parser

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dgallion1/lessonslice/internal/lesson"
	"github.com/yuin/goldmark"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MarkdownParser handles Markdown lessons using goldmark.
//
// The first "#" heading is the lesson title. "##" headings become underlined
// section titles, "###" headings stay tertiary headings, and thematic breaks
// become rules. Raw inline HTML such as <u> is passed through.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*lesson.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithRendererOptions(gmhtml.WithUnsafe()))
	var rendered bytes.Buffer
	if err := md.Convert(src, &rendered); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	nodes, err := html.ParseFragment(&rendered, lesson.Element(atom.Div))
	if err != nil {
		return nil, fmt.Errorf("parse rendered markdown: %w", err)
	}

	title := ""
	var blocks []*html.Node
	for _, n := range nodes {
		if n.Type != html.ElementNode {
			continue
		}
		switch n.DataAtom {
		case atom.H1:
			if title == "" {
				title = lesson.NewNode(n, -1).Text()
				continue
			}
		case atom.H2:
			n = underlinedParagraph(n)
		}
		blocks = append(blocks, n)
	}
	if title == "" {
		title = titleFromFilename(filename)
	}

	return locate(title, blocks)
}

// underlinedParagraph moves a heading's children into <p><u>...</u></p>.
func underlinedParagraph(h *html.Node) *html.Node {
	p := lesson.Element(atom.P)
	u := lesson.Element(atom.U)
	for c := h.FirstChild; c != nil; {
		next := c.NextSibling
		h.RemoveChild(c)
		u.AppendChild(c)
		c = next
	}
	p.AppendChild(u)
	return p
}
