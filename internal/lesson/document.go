package lesson

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	MainID     = "main"
	TitlebarID = "page-titlebar"

	// PlayButtonClass marks audio controls that are stripped from the page.
	PlayButtonClass = "play-button"
)

// Document is a located lesson page: its numeric identifier and the
// ordered block nodes of the lesson container.
type Document struct {
	ID        int
	Title     string
	Root      *html.Node
	Container *html.Node

	nodes []*Node
}

// Locate finds the lesson container and title inside a parsed page, strips
// scripts, ads and play buttons, and snapshots the container's block nodes.
//
// The container is the third-level first element below #main; the title is
// the second-level first element below #page-titlebar.
func Locate(root *html.Node) (*Document, error) {
	main := findByID(root, MainID)
	if main == nil {
		return nil, &StructureError{Msg: "page contains no #" + MainID}
	}
	container := firstElementChild(firstElementChild(firstElementChild(main)))
	if container == nil {
		return nil, &StructureError{Msg: "improper #" + MainID + " tree"}
	}

	titlebar := findByID(root, TitlebarID)
	if titlebar == nil {
		return nil, &StructureError{Msg: "page contains no #" + TitlebarID}
	}
	titleEl := firstElementChild(firstElementChild(titlebar))
	if titleEl == nil {
		return nil, &StructureError{Msg: "improper #" + TitlebarID + " tree"}
	}
	title := NewNode(titleEl, -1).Text()

	id, err := ParseLessonID(title)
	if err != nil {
		return nil, err
	}

	clean(root, container)

	doc := &Document{
		ID:        id,
		Title:     strings.TrimSpace(title),
		Root:      root,
		Container: container,
	}
	for c := container.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			doc.nodes = append(doc.nodes, NewNode(c, len(doc.nodes)))
		}
	}
	return doc, nil
}

// ParseLessonID reads the lesson number from a title such as
// "Lesson 12: Particles". The title is split on spaces and colons and the
// second token must be an integer.
func ParseLessonID(title string) (int, error) {
	tokens := strings.Split(strings.ReplaceAll(title, ":", " "), " ")
	if len(tokens) < 2 {
		return 0, &ParseError{Title: title, Err: errors.New("no second token")}
	}
	id, err := strconv.Atoi(strings.TrimSpace(tokens[1]))
	if err != nil {
		return 0, &ParseError{Title: title, Err: err}
	}
	return id, nil
}

// Nodes returns the block nodes in document order.
func (d *Document) Nodes() []*Node {
	return d.nodes
}

// Node returns the block node at index.
func (d *Document) Node(index int) (*Node, error) {
	if index < 0 || index >= len(d.nodes) {
		return nil, fmt.Errorf("node %d out of range [0,%d)", index, len(d.nodes))
	}
	return d.nodes[index], nil
}

// Rotate advances the manual tag of the block node at index.
func (d *Document) Rotate(index int) (Tag, error) {
	n, err := d.Node(index)
	if err != nil {
		return TagNone, err
	}
	return Rotate(n), nil
}

// clean removes script and ins elements from the container and play buttons
// from the whole page.
func clean(root, container *html.Node) {
	var doomed []*html.Node
	var walk func(n *html.Node, inContainer bool)
	walk = func(n *html.Node, inContainer bool) {
		if n.Type == html.ElementNode {
			if inContainer && (isKind(n, atom.Script) || isKind(n, atom.Ins)) || hasClass(n, PlayButtonClass) {
				doomed = append(doomed, n)
				return
			}
		}
		inContainer = inContainer || n == container
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inContainer)
		}
	}
	walk(root, false)

	for _, n := range doomed {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
}

func findByID(root *html.Node, id string) *html.Node {
	return findFirst(root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && attr(n, "id") == id
	})
}
