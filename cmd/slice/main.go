// Command slice cuts lesson pages into numbered sections and exports them as
// lesson-<id>.csv record files.
//
// Usage:
//
//	slice export lesson-12.html lesson-13.md --out exports/
//	slice inspect lesson-12.html --rotate 4 --rotate 4
//	slice records exports/lesson-12.csv
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	"github.com/dgallion1/lessonslice/internal/classify"
	"github.com/dgallion1/lessonslice/internal/config"
	"github.com/dgallion1/lessonslice/internal/export"
	"github.com/dgallion1/lessonslice/internal/lesson"
	"github.com/dgallion1/lessonslice/internal/logging"
	"github.com/dgallion1/lessonslice/internal/parser"
	"github.com/dgallion1/lessonslice/internal/pathstore"
	"github.com/dgallion1/lessonslice/internal/segment"
	"github.com/dgallion1/lessonslice/internal/session"
)

// CLI defines the command-line interface using Kong
var CLI struct {
	LogLevel    string `name:"log-level" default:"info" env:"LOG_LEVEL" help:"Log level (debug, info, warn, error)"`
	PDFFallback bool   `name:"pdf-fallback" default:"true" negatable:"" env:"PDF_FALLBACK_PDFTOTEXT" help:"Fall back to pdftotext when PDF text extraction fails"`

	Export  ExportCmd  `cmd:"" help:"Slice lesson files and write one export per lesson"`
	Inspect InspectCmd `cmd:"" help:"Print a lesson's nodes, tags and sections"`
	Records RecordsCmd `cmd:"" help:"Decode an exported file and print its records"`
}

// Globals are bound into every command's Run.
type Globals struct {
	Log     *slog.Logger
	Options parser.Options
}

// ExportCmd slices lesson files and writes their exports.
type ExportCmd struct {
	Files  []string      `arg:"" type:"existingfile" help:"Lesson files (.html, .md, .docx, .pdf, .txt)"`
	Out    string        `name:"out" short:"o" default:"." env:"OUTPUT_DIR" type:"path" help:"Output directory for the file sink"`
	Delay  time.Duration `name:"delay" default:"100ms" env:"EXPORT_DELAY" help:"Pause between consecutive writes"`
	Stdout bool          `name:"stdout" help:"Print exports instead of writing them"`
	Rotate []int         `name:"rotate" short:"r" help:"Rotate the manual tag of node N before slicing (repeatable, single file only)"`

	Sink            string `name:"sink" default:"file" enum:"file,pathstore" env:"EXPORT_SINK" help:"Export destination"`
	PathstoreURL    string `name:"pathstore-url" default:"http://localhost:8080" env:"PATHSTORE_URL" help:"Pathstore base URL"`
	PathstoreAPIKey string `name:"pathstore-api-key" env:"PATHSTORE_API_KEY" help:"Pathstore API key"`
	PathstorePrefix string `name:"pathstore-prefix" default:"lessons" env:"PATHSTORE_PREFIX" help:"Pathstore key prefix"`
}

func (c *ExportCmd) Run(g *Globals) error {
	if len(c.Rotate) > 0 && len(c.Files) != 1 {
		return fmt.Errorf("--rotate needs exactly one file, got %d", len(c.Files))
	}
	cfg := config.Config{
		OutputDir:       c.Out,
		ExportSink:      c.Sink,
		PathstoreURL:    c.PathstoreURL,
		PathstoreAPIKey: c.PathstoreAPIKey,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Every lesson must load before anything is written.
	files := make([]export.File, 0, len(c.Files))
	for _, path := range c.Files {
		doc, _, sections, err := slice(path, c.Rotate, g.Options)
		if err != nil {
			return err
		}
		f, err := export.NewFile(doc.ID, sections)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		g.Log.Info("sliced lesson", "path", path, "lesson_id", doc.ID, "sections", len(sections))
		files = append(files, f)
	}

	var sink export.Sink = export.DirSink{Dir: c.Out}
	switch {
	case c.Stdout:
		sink = export.WriterSink{W: os.Stdout}
	case c.Sink == config.SinkPathstore:
		ps := pathstore.NewClient(c.PathstoreURL, c.PathstoreAPIKey)
		defer ps.Close()
		sink = export.PathstoreSink{Client: ps, Prefix: c.PathstorePrefix}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := export.WriteAll(ctx, sink, files, c.Delay); err != nil {
		return err
	}
	g.Log.Info("exports written", "files", len(files), "sink", c.Sink)
	return nil
}

// InspectCmd prints how a lesson is tagged and grouped.
type InspectCmd struct {
	File   string `arg:"" type:"existingfile" help:"Lesson file"`
	Rotate []int  `name:"rotate" short:"r" help:"Rotate the manual tag of node N before slicing (repeatable)"`
}

func (c *InspectCmd) Run(g *Globals) error {
	doc, tally, sections, err := slice(c.File, c.Rotate, g.Options)
	if err != nil {
		return err
	}

	fmt.Printf("Lesson %d: %s\n", doc.ID, doc.Title)
	fmt.Printf("%d nodes, %d poisoned, %d disregarded, %d sections\n\n",
		tally.Nodes, tally.Poisoned, tally.Disregarded, len(sections))

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tKIND\tTAGS\tROLE\tTEXT")
	for _, n := range session.NodeViews(doc.Nodes()) {
		role := ""
		switch {
		case n.Ignored:
			role = "ignore"
		case n.Title:
			role = "title"
		case n.Break:
			role = "break"
		}
		fmt.Fprintf(tw, "%d\t%s\t%v\t%s\t%s\n", n.Index, n.Kind, n.Tags, role, n.Preview)
	}
	tw.Flush()

	fmt.Println()
	tw = tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tTITLE\tBODY")
	for _, v := range session.SectionViews(doc.ID, sections) {
		title := "-"
		if v.Title != nil {
			title = fmt.Sprint(*v.Title)
		}
		fmt.Fprintf(tw, "%s\t%s\t%v\n", v.Key, title, v.Body)
	}
	return tw.Flush()
}

// RecordsCmd decodes an export file.
type RecordsCmd struct {
	File string `arg:"" type:"existingfile" help:"Exported lesson-<id>.csv file"`
}

func (c *RecordsCmd) Run(g *Globals) error {
	f, err := os.Open(c.File)
	if err != nil {
		return err
	}
	defer f.Close()

	records, err := export.ReadRecords(f)
	if err != nil {
		return fmt.Errorf("%s: %w", c.File, err)
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "POSITION\tKEY\tLESSON\tBYTES")
	for _, r := range records {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\n", r.Position, r.Key, r.LessonID, len(r.HTML))
	}
	return tw.Flush()
}

// slice loads a lesson file, applies automatic tags, then manual rotations,
// and groups the result.
func slice(path string, rotate []int, opts parser.Options) (*lesson.Document, classify.Tally, []lesson.Section, error) {
	p, err := parser.ForFile(path, opts)
	if err != nil {
		return nil, classify.Tally{}, nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, classify.Tally{}, nil, err
	}
	defer f.Close()

	doc, err := p.Parse(f, path)
	if err != nil {
		return nil, classify.Tally{}, nil, fmt.Errorf("%s: %w", path, err)
	}
	tally := classify.Document(doc)
	for _, index := range rotate {
		if _, err := doc.Rotate(index); err != nil {
			return nil, classify.Tally{}, nil, fmt.Errorf("%s: rotate: %w", path, err)
		}
	}
	return doc, tally, segment.Sections(doc.Nodes()), nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("slice"),
		kong.Description("Cut lesson pages into numbered sections and export them"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	log := logging.New(os.Stderr, false, logging.ParseLevel(CLI.LogLevel))
	err := ctx.Run(&Globals{
		Log:     log,
		Options: parser.Options{PDFFallbackPdftotext: CLI.PDFFallback},
	})
	ctx.FatalIfErrorf(err)
}
