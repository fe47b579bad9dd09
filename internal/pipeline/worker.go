package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/lessonslice/internal/classify"
	"github.com/dgallion1/lessonslice/internal/export"
	"github.com/dgallion1/lessonslice/internal/lesson"
	"github.com/dgallion1/lessonslice/internal/parser"
	"github.com/dgallion1/lessonslice/internal/segment"
	"github.com/dgallion1/lessonslice/internal/stats"
)

// Worker processes a single lesson job.
type Worker struct {
	sink  export.Sink
	stats *stats.Window
	log   *slog.Logger
	opts  parser.Options
}

func NewWorker(sink export.Sink, st *stats.Window, log *slog.Logger, opts parser.Options) *Worker {
	return &Worker{
		sink:  sink,
		stats: st,
		log:   log,
		opts:  opts,
	}
}

// Process runs parse, classify, segment and export for a job. Any error
// fails the whole job; nothing is exported for a lesson that did not parse.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)
	start := time.Now()

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename, w.opts)
	if err != nil {
		log.Error("unsupported format", "error", err)
		w.fail(job, "parsing", err)
		return
	}

	data := job.FileData()
	doc, err := p.Parse(bytes.NewReader(data), job.Filename)
	if err != nil {
		var structErr *lesson.StructureError
		var parseErr *lesson.ParseError
		switch {
		case errors.As(err, &structErr):
			log.Error("lesson page has unexpected structure", "error", err)
		case errors.As(err, &parseErr):
			log.Error("lesson id not numeric", "error", err)
		default:
			log.Error("parse failed", "error", err)
		}
		w.fail(job, "parsing", fmt.Errorf("parse: %w", err))
		return
	}
	job.SetLesson(doc.ID, ContentHashHex(data))
	log = log.With("lesson_id", doc.ID)

	// Phase 2: Classify
	job.SetStatus(StatusClassifying, "classifying")
	tally := classify.Document(doc)
	job.SetTally(tally.Nodes, tally.Poisoned, tally.Disregarded)
	log.Debug("classified nodes", "nodes", tally.Nodes, "poisoned", tally.Poisoned, "disregarded", tally.Disregarded)

	// Phase 3: Segment
	job.SetStatus(StatusSegmenting, "segmenting")
	sections := segment.Sections(doc.Nodes())
	job.SetSections(len(sections))
	log.Info("segmented lesson", "sections", len(sections))

	// Phase 4: Export
	job.SetStatus(StatusExporting, "exporting")
	file, err := export.NewFile(doc.ID, sections)
	if err != nil {
		log.Error("serialize failed", "error", err)
		w.fail(job, "exporting", err)
		return
	}
	if err := w.write(ctx, log, file); err != nil {
		log.Error("export failed", "error", err)
		w.fail(job, "exporting", err)
		return
	}
	job.SetOutput(file.Name)

	if w.stats != nil {
		w.stats.Record(time.Since(start))
	}
	job.SetStatus(StatusCompleted, "done")
	log.Info("lesson exported", "output", file.Name, "duration_ms", time.Since(start).Milliseconds())
}

// write sends the file to the sink, retrying retryable failures with backoff.
func (w *Worker) write(ctx context.Context, log *slog.Logger, file export.File) error {
	var lastErr error
	for attempt := 0; attempt < MaxRetries; attempt++ {
		lastErr = w.sink.Write(ctx, file)
		if lastErr == nil || !IsRetryable(lastErr) {
			return lastErr
		}
		log.Warn("retryable export error", "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

func (w *Worker) fail(job *Job, phase string, err error) {
	job.AddError(err.Error())
	job.SetStatus(StatusFailed, phase)
}
