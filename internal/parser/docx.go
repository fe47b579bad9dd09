package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgallion1/lessonslice/internal/lesson"
	"github.com/fumiama/go-docx"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DOCXParser handles .docx lessons.
//
// A "Title" or "Heading 1" paragraph names the lesson, "Heading 2" becomes an
// underlined section title and "Heading 3" a tertiary heading. Underlined
// runs become <u>, centered paragraphs keep their alignment and drawings
// become images, so the document slices the same way a captured page does.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*lesson.Document, error) {
	// go-docx needs a ReadSeeker+size, so write to temp file.
	tmp, err := os.CreateTemp("", "lessonslice-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	title := ""
	var blocks []*html.Node
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}

		switch docxHeadingLevel(para) {
		case 1:
			if title == "" {
				title = docxParagraphText(para)
				continue
			}
			blocks = append(blocks, docxBlock(para, atom.P))
		case 2:
			p := lesson.Element(atom.P)
			u := lesson.Element(atom.U)
			u.AppendChild(lesson.Text(docxParagraphText(para)))
			p.AppendChild(u)
			blocks = append(blocks, p)
		case 3:
			blocks = append(blocks, docxBlock(para, atom.H3))
		default:
			blocks = append(blocks, docxBlock(para, atom.P))
		}
	}
	if title == "" {
		title = titleFromFilename(filename)
	}

	return locate(title, blocks)
}

// docxBlock converts a paragraph's runs into an element of kind a.
func docxBlock(para *docx.Paragraph, a atom.Atom) *html.Node {
	block := lesson.Element(a)
	if docxCentered(para) {
		block.Attr = append(block.Attr, html.Attribute{Key: "style", Val: "text-align: center;"})
	}

	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		parent := block
		if docxUnderlined(run) {
			u := lesson.Element(atom.U)
			block.AppendChild(u)
			parent = u
		}
		for _, rc := range run.Children {
			switch v := rc.(type) {
			case *docx.Text:
				parent.AppendChild(lesson.Text(v.Text))
			case *docx.Drawing:
				parent.AppendChild(lesson.Element(atom.Img, html.Attribute{Key: "alt", Val: "drawing"}))
			}
		}
	}
	return block
}

// docxHeadingLevel maps Title/Heading N paragraph styles to 1..3; 0 otherwise.
func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	switch style {
	case "title", "heading1":
		return 1
	case "heading2":
		return 2
	case "heading3":
		return 3
	}
	return 0
}

func docxCentered(para *docx.Paragraph) bool {
	if para.Properties == nil || para.Properties.Justification == nil {
		return false
	}
	return strings.EqualFold(para.Properties.Justification.Val, "center")
}

func docxUnderlined(run *docx.Run) bool {
	if run.RunProperties == nil || run.RunProperties.Underline == nil {
		return false
	}
	v := run.RunProperties.Underline.Val
	return v != "" && v != "none"
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
