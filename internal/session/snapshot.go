package session

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dgallion1/lessonslice/internal/classify"
	"github.com/dgallion1/lessonslice/internal/export"
	"github.com/dgallion1/lessonslice/internal/lesson"
	"github.com/dgallion1/lessonslice/internal/segment"
)

const previewRunes = 80

// NodeView describes one block node and how the grouper sees it.
type NodeView struct {
	Index   int          `json:"index"`
	Kind    string       `json:"kind"`
	Tags    []lesson.Tag `json:"tags"`
	Title   bool         `json:"title"`
	Break   bool         `json:"break"`
	Ignored bool         `json:"ignored"`
	Preview string       `json:"preview"`
}

// SectionView describes a section by node indexes.
type SectionView struct {
	Key          string `json:"key"`
	Supersection int    `json:"supersection"`
	Subsection   int    `json:"subsection"`
	Title        *int   `json:"title"`
	Body         []int  `json:"body"`
}

// Snapshot is a read-only, JSON-safe copy of session state.
type Snapshot struct {
	ID        string         `json:"session_id"`
	Filename  string         `json:"filename"`
	LessonID  int            `json:"lesson_id"`
	Title     string         `json:"title"`
	Tally     classify.Tally `json:"auto_tags"`
	Nodes     []NodeView     `json:"nodes"`
	Sections  []SectionView  `json:"sections"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		ID:        s.ID,
		Filename:  s.Filename,
		LessonID:  s.doc.ID,
		Title:     s.doc.Title,
		Tally:     s.tally,
		Nodes:     NodeViews(s.doc.Nodes()),
		Sections:  SectionViews(s.doc.ID, s.sections),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// NodeViews describes each node's tags and grouping role.
func NodeViews(nodes []*lesson.Node) []NodeView {
	views := make([]NodeView, 0, len(nodes))
	for _, n := range nodes {
		tags := n.Tags()
		if tags == nil {
			tags = []lesson.Tag{}
		}
		views = append(views, NodeView{
			Index:   n.Index(),
			Kind:    n.Kind(),
			Tags:    tags,
			Title:   segment.IsTitle(n),
			Break:   segment.IsBreak(n),
			Ignored: segment.IsIgnore(n),
			Preview: preview(n.Text()),
		})
	}
	return views
}

// SectionViews describes sections by the indexes of their nodes.
func SectionViews(lessonID int, sections []lesson.Section) []SectionView {
	views := make([]SectionView, 0, len(sections))
	for _, sec := range sections {
		v := SectionView{
			Key:          export.Key(lessonID, sec),
			Supersection: sec.Supersection,
			Subsection:   sec.Subsection,
			Body:         make([]int, 0, len(sec.Body)),
		}
		if sec.Title != nil {
			idx := sec.Title.Index()
			v.Title = &idx
		}
		for _, n := range sec.Body {
			v.Body = append(v.Body, n.Index())
		}
		views = append(views, v)
	}
	return views
}

func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= previewRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:previewRunes]) + "…"
}
