package parser

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/dgallion1/lessonslice/internal/lesson"
	pdflib "github.com/ledongthuc/pdf"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// PDFParser handles PDF lessons. It tries the Go library first,
// then falls back to pdftotext if available.
//
// PDF text carries no styling, so every line becomes a paragraph, blank
// lines become blank paragraphs and pages are separated by rules. The first
// non-blank line is the lesson title.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*lesson.Document, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "lessonslice-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	text, err := extractPDFText(tmpPath)
	if err != nil && p.FallbackPdftotext {
		text, err = extractPdftotext(tmpPath)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	title, blocks := pageBlocks(splitPages(text))
	if title == "" {
		title = titleFromFilename(filename)
	}
	return locate(title, blocks)
}

// pageBlocks turns page texts into paragraphs separated by rules. The first
// non-blank line is returned as the title instead of a block.
func pageBlocks(pages []string) (string, []*html.Node) {
	title := ""
	var blocks []*html.Node
	for i, page := range pages {
		if i > 0 {
			blocks = append(blocks, lesson.Element(atom.Hr))
		}
		for _, line := range strings.Split(page, "\n") {
			line = strings.TrimRight(line, " \t\r")
			if title == "" {
				if !lesson.IsBlank(line) {
					title = strings.TrimSpace(line)
				}
				continue
			}
			p := lesson.Element(atom.P)
			if line != "" {
				p.AppendChild(lesson.Text(line))
			}
			blocks = append(blocks, p)
		}
	}
	return title, blocks
}

func extractPDFText(path string) (string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var buf strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if i > 1 {
			buf.WriteString("\f") // Form feed as page separator.
		}
		buf.WriteString(text)
	}
	return buf.String(), nil
}

func extractPdftotext(path string) (string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}

func splitPages(text string) []string {
	return strings.Split(text, "\f")
}
