package parser

import (
	"fmt"
	"io"

	"github.com/dgallion1/lessonslice/internal/lesson"
	"golang.org/x/net/html"
)

// HTMLParser handles captured lesson pages.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*lesson.Document, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return lesson.Locate(doc)
}
