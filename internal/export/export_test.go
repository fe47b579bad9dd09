package export

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/lessonslice/internal/lesson"
	"github.com/dgallion1/lessonslice/internal/segment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func sections(t *testing.T, blocks string) []lesson.Section {
	t.Helper()
	src := `<div id="page-titlebar"><div><h1>Lesson 12: Particles</h1></div></div>` +
		`<div id="main"><div><div><div>` + blocks + `</div></div></div></div>`
	root, err := html.Parse(strings.NewReader(src))
	require.NoError(t, err)
	doc, err := lesson.Locate(root)
	require.NoError(t, err)
	return segment.Sections(doc.Nodes())
}

func TestRecords(t *testing.T) {
	secs := sections(t, `<p><u>Wa</u></p><p>Topic, marker</p><hr><p>Second
line</p>`)
	require.Len(t, secs, 2)

	records, err := Records(12, secs)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, Record{
		Key:      "12-1-0",
		HTML:     "<p><u>Wa</u></p><p>Topic&#44; marker</p>",
		LessonID: 12,
		Position: 1,
	}, records[0])
	assert.Equal(t, "12-1-1", records[1].Key)
	assert.Equal(t, "<p><u>Wa</u></p><p>Secondline</p>", records[1].HTML)
	assert.Equal(t, 2, records[1].Position)

	assert.Equal(t, "12-1-0, <p><u>Wa</u></p><p>Topic&#44; marker</p>, 12, 1", records[0].String())
}

func TestMarkup_NoRawCommasOrNewlines(t *testing.T) {
	secs := sections(t, `<p title="a,b">x,
y</p>`)
	require.Len(t, secs, 1)

	markup, err := Markup(secs[0])
	require.NoError(t, err)
	assert.NotContains(t, markup, ",")
	assert.NotContains(t, markup, "\n")
	assert.Contains(t, markup, "x&#44;y")
}

func TestMarkup_CarriesTagClasses(t *testing.T) {
	secs := sections(t, `<p>a</p><p class="section-break">b</p>`)
	require.Len(t, secs, 2)

	markup, err := Markup(secs[1])
	require.NoError(t, err)
	assert.Equal(t, `<p class="section-break">b</p>`, markup)
}

func TestBody(t *testing.T) {
	records := []Record{
		{Key: "3-0-1", HTML: "<p>a</p>", LessonID: 3, Position: 1},
		{Key: "3-1-0", HTML: "<p>b</p>", LessonID: 3, Position: 2},
	}
	assert.Equal(t, "3-0-1, <p>a</p>, 3, 1\n3-1-0, <p>b</p>, 3, 2", Body(records))
	assert.Equal(t, "", Body(nil))
}

func TestNewFile_Empty(t *testing.T) {
	f, err := NewFile(4, []lesson.Section{})
	require.NoError(t, err)
	assert.Equal(t, "lesson-4.csv", f.Name)
	assert.Empty(t, f.Records)
	assert.Empty(t, f.Content())
}

func TestReadRecords_RoundTrip(t *testing.T) {
	secs := sections(t, `<p>one, two</p><hr><p style="color: red">three</p><p><u>Nouns</u></p><p>cat</p>`)
	f, err := NewFile(12, secs)
	require.NoError(t, err)
	require.Len(t, f.Records, 3)

	got, err := ReadRecords(strings.NewReader(string(f.Content())))
	require.NoError(t, err)
	assert.Equal(t, f.Records, got)
}

func TestReadRecords_Errors(t *testing.T) {
	_, err := ReadRecords(strings.NewReader("1-0-1, <p>a</p>, 1"))
	assert.Error(t, err)

	_, err = ReadRecords(strings.NewReader("1-0-1, <p>a</p>, x, 1"))
	assert.Error(t, err)

	_, err = ReadRecords(strings.NewReader("1-0-1, <p>a</p>, 1, y"))
	assert.Error(t, err)
}

func TestDirSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	f, err := NewFile(12, sections(t, `<p>a</p>`))
	require.NoError(t, err)

	require.NoError(t, DirSink{Dir: dir}.Write(context.Background(), f))

	data, err := os.ReadFile(filepath.Join(dir, "lesson-12.csv"))
	require.NoError(t, err)
	assert.Equal(t, "12-0-1, <p>a</p>, 12, 1", string(data))
}

func TestWriterSink(t *testing.T) {
	var buf strings.Builder
	f, err := NewFile(1, sections(t, `<p>a</p>`))
	require.NoError(t, err)

	require.NoError(t, WriterSink{W: &buf}.Write(context.Background(), f))
	assert.Equal(t, "1-0-1, <p>a</p>, 1, 1\n", buf.String())
}

type recordingSink struct {
	mu    sync.Mutex
	names []string
	times []time.Time
}

func (s *recordingSink) Write(_ context.Context, f File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = append(s.names, f.Name)
	s.times = append(s.times, time.Now())
	return nil
}

func TestWriteAll_SpacesWrites(t *testing.T) {
	sink := &recordingSink{}
	files := []File{{Name: "lesson-1.csv"}, {Name: "lesson-2.csv"}, {Name: "lesson-3.csv"}}
	delay := 20 * time.Millisecond

	require.NoError(t, WriteAll(context.Background(), sink, files, delay))

	assert.Equal(t, []string{"lesson-1.csv", "lesson-2.csv", "lesson-3.csv"}, sink.names)
	for i := 1; i < len(sink.times); i++ {
		assert.GreaterOrEqual(t, sink.times[i].Sub(sink.times[i-1]), delay)
	}
}

func TestThrottle_Cancelled(t *testing.T) {
	sink := &recordingSink{}
	th := &Throttle{Sink: sink, Delay: time.Hour}
	require.NoError(t, th.Write(context.Background(), File{Name: "a"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, th.Write(ctx, File{Name: "b"}), context.Canceled)
	assert.Equal(t, []string{"a"}, sink.names)
}
