package lesson

// Section is a finalized group of block nodes. Body is never empty.
type Section struct {
	Supersection int
	Subsection   int
	Title        *Node // nil when the section has no title
	Body         []*Node
}

// Nodes returns the title (if any) followed by the body nodes.
func (s Section) Nodes() []*Node {
	if s.Title == nil {
		return s.Body
	}
	return append([]*Node{s.Title}, s.Body...)
}
