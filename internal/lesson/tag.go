package lesson

import "fmt"

// Tag is a structural annotation carried by a block node.
type Tag int

const (
	TagNone Tag = iota
	TagDisregard
	TagPoison
	TagJoin
	TagBreak
)

// Rotation is the fixed order a manual retag cycles through.
var Rotation = []Tag{TagDisregard, TagPoison, TagJoin, TagBreak}

// Next returns the successor of t in the manual rotation. TagBreak wraps to TagNone.
func (t Tag) Next() Tag {
	switch t {
	case TagNone:
		return TagDisregard
	case TagDisregard:
		return TagPoison
	case TagPoison:
		return TagJoin
	case TagJoin:
		return TagBreak
	default:
		return TagNone
	}
}

// ClassName is the class attribute value that stores t on an element.
func (t Tag) ClassName() string {
	switch t {
	case TagDisregard:
		return "section-disregard"
	case TagPoison:
		return "section-poison"
	case TagJoin:
		return "section-join"
	case TagBreak:
		return "section-break"
	}
	return ""
}

func (t Tag) String() string {
	switch t {
	case TagNone:
		return "none"
	case TagDisregard:
		return "disregard"
	case TagPoison:
		return "poison"
	case TagJoin:
		return "join"
	case TagBreak:
		return "break"
	}
	return fmt.Sprintf("Tag(%d)", int(t))
}

// ParseTag converts a tag name ("disregard", "poison", "join", "break", "none").
func ParseTag(s string) (Tag, error) {
	for _, t := range append([]Tag{TagNone}, Rotation...) {
		if t.String() == s {
			return t, nil
		}
	}
	return TagNone, fmt.Errorf("unknown tag %q", s)
}

// MarshalText encodes the tag by name.
func (t Tag) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// ManualTag returns the first rotation tag the node carries, or TagNone.
func ManualTag(n *Node) Tag {
	for _, t := range Rotation {
		if n.Has(t) {
			return t
		}
	}
	return TagNone
}

// Rotate advances the node's manual tag one step through Rotation and
// returns the tag it now carries.
func Rotate(n *Node) Tag {
	current := ManualTag(n)
	if current != TagNone {
		n.Remove(current)
	}
	next := current.Next()
	if next != TagNone {
		n.Add(next)
	}
	return next
}
