// Package segment groups lesson block nodes into numbered sections.
//
// Titles and breaks both close the section being built. Only a title
// advances the supersection counter; a break advances the subsection and
// carries the current title forward. Poison and disregard tags are resolved
// when a section is finalized, so re-running Sections after a manual retag
// always reflects the current tags.
package segment

import "github.com/dgallion1/lessonslice/internal/lesson"

// building is a section under construction. It may have an empty body.
type building struct {
	supersection int
	subsection   int
	title        *lesson.Node
	body         []*lesson.Node
}

// next returns the section that follows b when node crosses a boundary.
// keep is the node retained as the first body element, if any.
func (b building) next(title bool, node, keep *lesson.Node) building {
	if title {
		return building{
			supersection: b.supersection + 1,
			subsection:   0,
			title:        node,
		}
	}
	nb := building{
		supersection: b.supersection,
		subsection:   b.subsection + 1,
		title:        b.title,
	}
	if keep != nil {
		nb.body = []*lesson.Node{keep}
	}
	return nb
}

// Sections folds nodes into finalized sections. It reads tags but never
// modifies them, and returns an empty slice for empty input.
func Sections(nodes []*lesson.Node) []lesson.Section {
	sections := []lesson.Section{}
	current := building{supersection: 0, subsection: 1}
	previousTitle := false

	for _, n := range nodes {
		if IsIgnore(n) {
			continue
		}

		title := IsTitle(n)
		breaking := IsBreak(n)

		if (title || breaking) && !previousTitle {
			if s, ok := finalize(current); ok {
				sections = append(sections, s)
			}
			var keep *lesson.Node
			if !title && n.Has(lesson.TagBreak) {
				keep = n
			}
			current = current.next(title, n, keep)
		} else {
			current.body = append(current.body, n)
		}

		previousTitle = title
	}

	if s, ok := finalize(current); ok {
		sections = append(sections, s)
	}
	return sections
}

// finalize strips disregarded nodes and reports whether the result survives:
// it must keep at least one body node and contain no poisoned node.
func finalize(b building) (lesson.Section, bool) {
	if len(b.body) == 0 {
		return lesson.Section{}, false
	}

	title := b.title
	if title != nil && title.Has(lesson.TagDisregard) {
		title = nil
	}

	body := make([]*lesson.Node, 0, len(b.body))
	for _, n := range b.body {
		if !n.Has(lesson.TagDisregard) {
			body = append(body, n)
		}
	}
	if len(body) == 0 {
		return lesson.Section{}, false
	}

	if title != nil && title.Has(lesson.TagPoison) {
		return lesson.Section{}, false
	}
	for _, n := range body {
		if n.Has(lesson.TagPoison) {
			return lesson.Section{}, false
		}
	}

	return lesson.Section{
		Supersection: b.supersection,
		Subsection:   b.subsection,
		Title:        title,
		Body:         body,
	}, true
}
