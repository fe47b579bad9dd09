package segment

import (
	"strings"

	"github.com/dgallion1/lessonslice/internal/lesson"
	"golang.org/x/net/html/atom"
)

// IsIgnore reports whether a node is skipped entirely while grouping.
// Tertiary headings are page furniture, not lesson content.
func IsIgnore(n *lesson.Node) bool {
	return n.Is(atom.H3)
}

// IsTitle reports whether a node opens a new supersection. A title holds no
// bare text of its own and has a non-blank underlined child.
func IsTitle(n *lesson.Node) bool {
	if n.Has(lesson.TagJoin) {
		return false
	}
	if n.HasOwnText() {
		return false
	}
	for _, child := range n.Children() {
		if !lesson.IsBlank(child.Text()) && (child.Is(atom.U) || child.Underlined()) {
			return true
		}
	}
	return false
}

// IsBreak reports whether a node closes the current subsection.
func IsBreak(n *lesson.Node) bool {
	if n.Has(lesson.TagJoin) {
		return false
	}
	if n.Is(atom.Hr) || n.Has(lesson.TagBreak) {
		return true
	}

	// images stay in the section body
	if n.HasImage() {
		return false
	}

	if centered(n) {
		return true
	}
	return lesson.IsBlank(n.Text())
}

func centered(n *lesson.Node) bool {
	align := n.Style("text-align")
	if align == "left" {
		return false
	}
	return align == "center" || strings.EqualFold(n.Attr("align"), "center")
}
