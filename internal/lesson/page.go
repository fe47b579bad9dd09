package lesson

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ContainerClass is the class given to the container of built pages.
const ContainerClass = "entry-content"

// NewPage builds a page in the layout Locate expects: the title inside
// #page-titlebar and the blocks as children of the container under #main.
// Sources other than captured HTML pages are converted through it.
func NewPage(title string, blocks []*html.Node) *html.Node {
	doc := &html.Node{Type: html.DocumentNode}
	root := Element(atom.Html)
	head := Element(atom.Head)
	body := Element(atom.Body)
	doc.AppendChild(root)
	root.AppendChild(head)
	root.AppendChild(body)

	titlebar := Element(atom.Div, html.Attribute{Key: "id", Val: TitlebarID})
	titleWrap := Element(atom.Div)
	heading := Element(atom.H1)
	heading.AppendChild(Text(title))
	titleWrap.AppendChild(heading)
	titlebar.AppendChild(titleWrap)
	body.AppendChild(titlebar)

	main := Element(atom.Div, html.Attribute{Key: "id", Val: MainID})
	outer := Element(atom.Div)
	inner := Element(atom.Div)
	container := Element(atom.Div, html.Attribute{Key: "class", Val: ContainerClass})
	for _, b := range blocks {
		container.AppendChild(b)
	}
	inner.AppendChild(container)
	outer.AppendChild(inner)
	main.AppendChild(outer)
	body.AppendChild(main)

	return doc
}

// Element creates a detached element node.
func Element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     attrs,
	}
}

// Text creates a detached text node.
func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
