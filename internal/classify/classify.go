// Package classify applies the automatic poison and disregard tags to lesson
// block nodes before they are grouped into sections.
package classify

import (
	"strings"

	"github.com/dgallion1/lessonslice/internal/lesson"
	"golang.org/x/net/html/atom"
)

var (
	introPrefixes = []string{
		"introduction",
		"this lesson is also available",
	}
	introContains = "memrise tool"

	vocabPrefixes = []string{
		"nouns",
		"verb",
		"adjectives",
		"adverbs",
		"vocabulary",
	}

	closerPrefixes = []string{
		"thats it for this lesson",
		"thats it for lesson",
		"okay i got it",
		"click here for a workbook",
		"all entries are linked to an audio file",
	}
)

// Tally counts the tags applied by one classification run.
type Tally struct {
	Nodes       int `json:"nodes"`
	Poisoned    int `json:"poisoned"`
	Disregarded int `json:"disregarded"`
}

// Normalize lower-cases s and drops every character outside [a-z ].
func Normalize(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' || (c >= 'a' && c <= 'z') {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Classify tags a single node and returns the tag it assigned, or
// lesson.TagNone. Poison is checked before disregard; re-applying a tag the
// node already has is a no-op.
func Classify(n *lesson.Node) lesson.Tag {
	switch {
	case isIntroduction(n) || isPracticeLink(n) || isVocabHeader(n):
		n.Add(lesson.TagPoison)
		return lesson.TagPoison
	case isCloser(n):
		n.Add(lesson.TagDisregard)
		return lesson.TagDisregard
	}
	return lesson.TagNone
}

// Document classifies every block node of doc.
func Document(doc *lesson.Document) Tally {
	return Nodes(doc.Nodes())
}

// Nodes classifies each node independently.
func Nodes(nodes []*lesson.Node) Tally {
	t := Tally{Nodes: len(nodes)}
	for _, n := range nodes {
		switch Classify(n) {
		case lesson.TagPoison:
			t.Poisoned++
		case lesson.TagDisregard:
			t.Disregarded++
		}
	}
	return t
}

func isIntroduction(n *lesson.Node) bool {
	text := Normalize(n.Text())
	return hasAnyPrefix(text, introPrefixes) || strings.Contains(text, introContains)
}

// isPracticeLink matches a node with text that holds a link wrapping an image.
func isPracticeLink(n *lesson.Node) bool {
	if lesson.IsBlank(n.Text()) {
		return false
	}
	for _, child := range n.Children() {
		if !child.Is(atom.A) {
			continue
		}
		for _, grandchild := range child.Children() {
			if grandchild.Is(atom.Img) {
				return true
			}
		}
	}
	return false
}

// isVocabHeader matches an underlined first child naming a word list.
func isVocabHeader(n *lesson.Node) bool {
	header := n.FirstChild()
	if header == nil || !(header.Is(atom.U) || header.Underlined()) {
		return false
	}
	return hasAnyPrefix(Normalize(header.Text()), vocabPrefixes)
}

func isCloser(n *lesson.Node) bool {
	text := Normalize(n.Text())
	if hasAnyPrefix(text, closerPrefixes) {
		return true
	}
	return strings.HasPrefix(text, "there are") && strings.Contains(text, "example sentences in unit")
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
