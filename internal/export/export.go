// Package export serializes finalized sections into the flat record format
// written to lesson-<id>.csv files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/lessonslice/internal/lesson"
)

// CommaEscape replaces literal commas inside the markup field.
const CommaEscape = "&#44;"

// Record is one exported line.
type Record struct {
	Key      string `json:"key"`
	HTML     string `json:"html"`
	LessonID int    `json:"lesson_id"`
	Position int    `json:"position"`
}

// String renders the record as "<key>, <html>, <id>, <position>".
func (r Record) String() string {
	return fmt.Sprintf("%s, %s, %d, %d", r.Key, r.HTML, r.LessonID, r.Position)
}

// Key is the unique section key "<id>-<supersection>-<subsection>".
func Key(id int, s lesson.Section) string {
	return fmt.Sprintf("%d-%d-%d", id, s.Supersection, s.Subsection)
}

// Filename is the export file name for a lesson.
func Filename(id int) string {
	return fmt.Sprintf("lesson-%d.csv", id)
}

// Markup concatenates the outer HTML of the section's title and body with
// newlines removed and commas escaped.
func Markup(s lesson.Section) (string, error) {
	var buf strings.Builder
	for _, n := range s.Nodes() {
		h, err := n.OuterHTML()
		if err != nil {
			return "", fmt.Errorf("render node %d: %w", n.Index(), err)
		}
		buf.WriteString(h)
	}
	out := strings.ReplaceAll(buf.String(), "\n", "")
	return strings.ReplaceAll(out, ",", CommaEscape), nil
}

// Records converts sections to records. Positions are 1-based.
func Records(id int, sections []lesson.Section) ([]Record, error) {
	records := make([]Record, 0, len(sections))
	for i, s := range sections {
		markup, err := Markup(s)
		if err != nil {
			return nil, fmt.Errorf("section %s: %w", Key(id, s), err)
		}
		records = append(records, Record{
			Key:      Key(id, s),
			HTML:     markup,
			LessonID: id,
			Position: i + 1,
		})
	}
	return records, nil
}

// Body joins the records' lines with newlines, without a trailing newline.
func Body(records []Record) string {
	lines := make([]string, len(records))
	for i, r := range records {
		lines[i] = r.String()
	}
	return strings.Join(lines, "\n")
}

// ReadRecords decodes an exported file back into records.
func ReadRecords(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = 4

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse records: %w", err)
	}

	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		id, err := strconv.Atoi(row[2])
		if err != nil {
			return nil, fmt.Errorf("record %d: lesson id: %w", i+1, err)
		}
		pos, err := strconv.Atoi(row[3])
		if err != nil {
			return nil, fmt.Errorf("record %d: position: %w", i+1, err)
		}
		records = append(records, Record{
			Key:      row[0],
			HTML:     row[1],
			LessonID: id,
			Position: pos,
		})
	}
	return records, nil
}
