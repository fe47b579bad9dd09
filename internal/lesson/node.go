package lesson

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Node is a handle to one element of the lesson page. Block nodes are the
// direct element children of the lesson container; Children returns handles
// to nested elements with Index -1.
type Node struct {
	el    *html.Node
	index int
}

// NewNode wraps an element. index is its position among the container's
// element children, or -1 for nested elements.
func NewNode(el *html.Node, index int) *Node {
	return &Node{el: el, index: index}
}

// Index is the ordinal position of the node in the container.
func (n *Node) Index() int { return n.index }

// Element returns the underlying DOM element.
func (n *Node) Element() *html.Node { return n.el }

// Kind is the lower-case tag name of the element ("p", "hr", "u", ...).
func (n *Node) Kind() string { return n.el.Data }

// Is reports whether the element is of the given kind.
func (n *Node) Is(a atom.Atom) bool {
	return isKind(n.el, a)
}

// Text is the concatenated text of every descendant text node, untrimmed.
func (n *Node) Text() string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(h *html.Node) {
		if h.Type == html.TextNode {
			buf.WriteString(h.Data)
		}
		for c := h.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n.el)
	return buf.String()
}

// HasOwnText reports whether any direct text child is non-blank.
func (n *Node) HasOwnText() bool {
	for c := n.el.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && !IsBlank(c.Data) {
			return true
		}
	}
	return false
}

// Children returns handles to the direct element children.
func (n *Node) Children() []*Node {
	var out []*Node
	for c := n.el.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, NewNode(c, -1))
		}
	}
	return out
}

// FirstChild returns the first element child, or nil.
func (n *Node) FirstChild() *Node {
	for c := n.el.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return NewNode(c, -1)
		}
	}
	return nil
}

// HasImage reports whether an img element exists anywhere below the node.
func (n *Node) HasImage() bool {
	return findFirst(n.el, func(h *html.Node) bool {
		return h != n.el && isKind(h, atom.Img)
	}) != nil
}

// Attr returns the value of an attribute, or "".
func (n *Node) Attr(key string) string {
	return attr(n.el, key)
}

// Style returns the lower-cased value of an inline style property, or "".
func (n *Node) Style(property string) string {
	for _, decl := range strings.Split(n.Attr("style"), ";") {
		name, value, ok := strings.Cut(decl, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(name), property) {
			continue
		}
		value = strings.TrimSpace(strings.ToLower(value))
		value = strings.TrimSpace(strings.TrimSuffix(value, "!important"))
		return value
	}
	return ""
}

// Underlined reports whether the node's own inline style is an underline
// decoration.
func (n *Node) Underlined() bool {
	if v := n.Style("text-decoration"); v != "" {
		return v == "underline"
	}
	return n.Style("text-decoration-line") == "underline"
}

// Has reports whether the node carries tag t.
func (n *Node) Has(t Tag) bool {
	name := t.ClassName()
	if name == "" {
		return false
	}
	for _, c := range strings.Fields(n.Attr("class")) {
		if c == name {
			return true
		}
	}
	return false
}

// Add applies tag t. Adding a tag the node already has is a no-op.
func (n *Node) Add(t Tag) {
	if t == TagNone || n.Has(t) {
		return
	}
	classes := append(strings.Fields(n.Attr("class")), t.ClassName())
	setAttr(n.el, "class", strings.Join(classes, " "))
}

// Remove clears tag t from the node.
func (n *Node) Remove(t Tag) {
	if !n.Has(t) {
		return
	}
	var kept []string
	for _, c := range strings.Fields(n.Attr("class")) {
		if c != t.ClassName() {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		removeAttr(n.el, "class")
		return
	}
	setAttr(n.el, "class", strings.Join(kept, " "))
}

// Tags lists the structural tags the node carries in rotation order.
func (n *Node) Tags() []Tag {
	var out []Tag
	for _, t := range Rotation {
		if n.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

// OuterHTML renders the element and its subtree.
func (n *Node) OuterHTML() (string, error) {
	var buf strings.Builder
	if err := html.Render(&buf, n.el); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// IsBlank reports whether s is empty after trimming Unicode whitespace and
// byte order marks.
func IsBlank(s string) bool {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	}) == ""
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			continue
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}

func isKind(n *html.Node, a atom.Atom) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if n.DataAtom != 0 {
		return n.DataAtom == a
	}
	return strings.EqualFold(n.Data, a.String())
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func firstElementChild(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}
