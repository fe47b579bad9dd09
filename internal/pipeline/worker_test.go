package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/lessonslice/internal/config"
	"github.com/dgallion1/lessonslice/internal/export"
	"github.com/dgallion1/lessonslice/internal/parser"
	"github.com/dgallion1/lessonslice/internal/pathstore"
	"github.com/dgallion1/lessonslice/internal/stats"
)

const lessonPage = `<div id="page-titlebar"><div><h1>Lesson 6: Time</h1></div></div>
<div id="main"><div><div><div>
<p>Introduction to telling time</p>
<p><u>Hours</u></p>
<p>ichiji</p>
<hr>
<p>niji</p>
<p>That's it for this lesson!</p>
</div></div></div></div>`

type memorySink struct {
	mu    sync.Mutex
	files []export.File
	fails []error
}

func (s *memorySink) Write(_ context.Context, f export.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.fails) > 0 {
		err := s.fails[0]
		s.fails = s.fails[1:]
		return err
	}
	s.files = append(s.files, f)
	return nil
}

func (s *memorySink) written() []export.File {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]export.File{}, s.files...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newJob(filename, content string) *Job {
	job := &Job{ID: "job-" + filename, Status: StatusQueued, Filename: filename, UpdatedAt: time.Now()}
	job.SetFileData([]byte(content))
	return job
}

func TestWorker_Process(t *testing.T) {
	sink := &memorySink{}
	st := stats.NewWindow(time.Hour)
	w := NewWorker(sink, st, discardLogger(), parser.Options{})

	job := newJob("lesson.html", lessonPage)
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s (%v)", snap.Status, snap.Progress.Errors)
	}
	if snap.LessonID != 6 {
		t.Errorf("expected lesson 6, got %d", snap.LessonID)
	}
	if snap.Progress.Nodes != 6 || snap.Progress.Poisoned != 1 || snap.Progress.Disregarded != 1 {
		t.Errorf("unexpected tally %+v", snap.Progress)
	}
	if snap.Progress.Sections != 2 {
		t.Errorf("expected 2 sections, got %d", snap.Progress.Sections)
	}
	if snap.Progress.Output != "lesson-6.csv" {
		t.Errorf("expected output lesson-6.csv, got %q", snap.Progress.Output)
	}
	if snap.ContentHash != ContentHashHex([]byte(lessonPage)) {
		t.Errorf("unexpected content hash %q", snap.ContentHash)
	}

	files := sink.written()
	if len(files) != 1 {
		t.Fatalf("expected 1 written file, got %d", len(files))
	}
	want := "6-1-0, <p><u>Hours</u></p><p>ichiji</p>, 6, 1\n" +
		"6-1-1, <p><u>Hours</u></p><p>niji</p>, 6, 2"
	if got := string(files[0].Content()); got != want {
		t.Errorf("unexpected export:\n%s\nwant:\n%s", got, want)
	}
	if st.Snapshot().Count != 1 {
		t.Errorf("expected 1 recorded duration, got %d", st.Snapshot().Count)
	}
}

func TestWorker_ProcessStructureError(t *testing.T) {
	sink := &memorySink{}
	w := NewWorker(sink, nil, discardLogger(), parser.Options{})

	job := newJob("broken.html", `<html><body><p>no container</p></body></html>`)
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", snap.Status)
	}
	if snap.Phase != "parsing" {
		t.Errorf("expected parsing phase, got %q", snap.Phase)
	}
	if len(snap.Progress.Errors) != 1 || !strings.Contains(snap.Progress.Errors[0], "#main") {
		t.Errorf("unexpected errors %v", snap.Progress.Errors)
	}
	if len(sink.written()) != 0 {
		t.Error("expected nothing to be written for a failed lesson")
	}
}

func TestWorker_ProcessUnsupported(t *testing.T) {
	w := NewWorker(&memorySink{}, nil, discardLogger(), parser.Options{})
	job := newJob("lesson.rtf", "{}")
	w.Process(context.Background(), job)
	if job.Snapshot().Status != StatusFailed {
		t.Errorf("expected failed, got %s", job.Snapshot().Status)
	}
}

func TestWorker_RetriesRetryableErrors(t *testing.T) {
	sink := &memorySink{fails: []error{&pathstore.RetryableError{StatusCode: 503, Message: "busy"}}}
	w := NewWorker(sink, nil, discardLogger(), parser.Options{})

	job := newJob("lesson.html", lessonPage)
	w.Process(context.Background(), job)

	if job.Snapshot().Status != StatusCompleted {
		t.Fatalf("expected completed after retry, got %s", job.Snapshot().Status)
	}
	if len(sink.written()) != 1 {
		t.Errorf("expected 1 written file, got %d", len(sink.written()))
	}
}

func TestWorker_PermanentExportError(t *testing.T) {
	sink := &memorySink{fails: []error{errors.New("disk full")}}
	w := NewWorker(sink, nil, discardLogger(), parser.Options{})

	job := newJob("lesson.html", lessonPage)
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed || snap.Phase != "exporting" {
		t.Fatalf("expected failed in exporting, got %s/%s", snap.Status, snap.Phase)
	}
}

func TestIsRetryable(t *testing.T) {
	wrapped := errors.Join(errors.New("put node"), &pathstore.RetryableError{StatusCode: 429})
	if !IsRetryable(wrapped) {
		t.Error("expected wrapped RetryableError to be retryable")
	}
	if IsRetryable(errors.New("bad request")) {
		t.Error("expected plain error not to be retryable")
	}
}

func TestBackoff(t *testing.T) {
	for attempt := 0; attempt < 8; attempt++ {
		d := Backoff(attempt)
		if d < time.Second || d > 45*time.Second {
			t.Errorf("attempt %d: backoff %v out of range", attempt, d)
		}
	}
}

func TestOrchestrator_SubmitAndProcess(t *testing.T) {
	cfg := config.Config{WorkerCount: 2, MaxQueueSize: 4, JobTTL: time.Hour}
	sink := &memorySink{}
	o := NewOrchestrator(cfg, sink, stats.NewWindow(time.Hour), discardLogger())
	o.Start(context.Background())
	defer o.Stop()

	job := newJob("lesson.html", lessonPage)
	if err := o.Submit(job); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if o.GetJob(job.ID) != job {
		t.Fatal("expected job to be registered")
	}

	deadline := time.Now().Add(5 * time.Second)
	for job.Snapshot().Status != StatusCompleted {
		if time.Now().After(deadline) {
			t.Fatalf("job did not complete, status %s", job.Snapshot().Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	cfg := config.Config{WorkerCount: 1, MaxQueueSize: 1, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, &memorySink{}, nil, discardLogger())
	// Not started: nothing drains the queue.

	if err := o.Submit(newJob("a.html", lessonPage)); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second := newJob("b.html", lessonPage)
	if err := o.Submit(second); err == nil {
		t.Fatal("expected queue full error")
	}
	if second.Snapshot().Status != StatusFailed {
		t.Errorf("expected rejected job to be failed, got %s", second.Snapshot().Status)
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected queue depth 1, got %d", o.QueueDepth())
	}
}
