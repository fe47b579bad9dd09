package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/lessonslice/internal/lesson"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// TextParser handles plain text lessons. The first non-blank line is the
// lesson title, blank-line separated paragraphs become <p> blocks and a
// paragraph of only dashes, asterisks or underscores becomes a rule.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*lesson.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	title := ""
	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if title == "" {
			title = strings.TrimSpace(line)
			continue
		}
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if title == "" {
		title = titleFromFilename(filename)
	}

	var blocks []*html.Node
	for _, para := range paragraphs {
		if isRuleLine(para) {
			blocks = append(blocks, lesson.Element(atom.Hr))
			continue
		}
		p := lesson.Element(atom.P)
		p.AppendChild(lesson.Text(para))
		blocks = append(blocks, p)
	}

	return locate(title, blocks)
}

func isRuleLine(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 3 {
		return false
	}
	for _, marker := range []string{"-", "*", "_"} {
		if strings.Trim(s, marker+" ") == "" {
			return true
		}
	}
	return false
}
