package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgallion1/lessonslice/internal/lesson"
)

// File is one lesson's export.
type File struct {
	Name     string
	LessonID int
	Records  []Record
}

// Content is the file body.
func (f File) Content() []byte {
	return []byte(Body(f.Records))
}

// NewFile serializes sections into an export file for lesson id.
func NewFile(id int, sections []lesson.Section) (File, error) {
	records, err := Records(id, sections)
	if err != nil {
		return File{}, err
	}
	return File{Name: Filename(id), LessonID: id, Records: records}, nil
}

// Sink receives export files.
type Sink interface {
	Write(ctx context.Context, f File) error
}

// DirSink writes each file into a directory.
type DirSink struct {
	Dir string
}

func (s DirSink) Write(ctx context.Context, f File) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(s.Dir, filepath.Base(f.Name))
	if err := os.WriteFile(path, f.Content(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// WriterSink writes file bodies to a stream, one after another.
type WriterSink struct {
	W io.Writer
}

func (s WriterSink) Write(ctx context.Context, f File) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.W.Write(append(f.Content(), '\n')); err != nil {
		return fmt.Errorf("write %s: %w", f.Name, err)
	}
	return nil
}

// Throttle serializes writes to a sink and spaces consecutive writes at
// least Delay apart. It is safe for concurrent use.
type Throttle struct {
	Sink  Sink
	Delay time.Duration

	mu   sync.Mutex
	last time.Time
}

func (t *Throttle) Write(ctx context.Context, f File) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.last.IsZero() && t.Delay > 0 {
		if wait := t.Delay - time.Since(t.last); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}
	}
	err := t.Sink.Write(ctx, f)
	t.last = time.Now()
	return err
}

// WriteAll writes files one at a time, waiting delay between writes.
func WriteAll(ctx context.Context, sink Sink, files []File, delay time.Duration) error {
	t := &Throttle{Sink: sink, Delay: delay}
	for _, f := range files {
		if err := t.Write(ctx, f); err != nil {
			return err
		}
	}
	return nil
}
