package session

import (
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/lessonslice/internal/lesson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func load(t *testing.T, blocks string) *lesson.Document {
	t.Helper()
	src := `<div id="page-titlebar"><div><h1>Lesson 30: Review</h1></div></div>` +
		`<div id="main"><div><div><div>` + blocks + `</div></div></div></div>`
	root, err := html.Parse(strings.NewReader(src))
	require.NoError(t, err)
	doc, err := lesson.Locate(root)
	require.NoError(t, err)
	return doc
}

func keys(views []SectionView) []string {
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, v.Key)
	}
	return out
}

func TestNew_ClassifiesAndSlices(t *testing.T) {
	s := New("review.html", load(t, `<p>Introduction</p><p><u>Verbs</u> </p><p>taberu</p><p>Okay, I got it</p>`))

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, 30, s.LessonID())

	snap := s.Snapshot()
	assert.Equal(t, "Lesson 30: Review", snap.Title)
	assert.Equal(t, 4, snap.Tally.Nodes)
	assert.Equal(t, 2, snap.Tally.Poisoned)
	assert.Equal(t, 1, snap.Tally.Disregarded)
	require.Len(t, snap.Nodes, 4)
	assert.Equal(t, []lesson.Tag{lesson.TagPoison}, snap.Nodes[0].Tags)
	assert.Equal(t, []lesson.Tag{}, snap.Nodes[2].Tags)
	assert.True(t, snap.Nodes[1].Title)

	// The vocab header poisons its own section.
	assert.Empty(t, snap.Sections)
}

func TestRotate_Reslices(t *testing.T) {
	s := New("review.html", load(t, `<p>one</p><p>two</p><p>three</p>`))
	assert.Equal(t, []string{"30-0-1"}, keys(SectionViews(s.LessonID(), s.Sections())))

	// none -> disregard -> poison -> join -> break
	var tag lesson.Tag
	var err error
	for i := 0; i < 4; i++ {
		tag, err = s.Rotate(1)
		require.NoError(t, err)
	}
	assert.Equal(t, lesson.TagBreak, tag)

	views := s.Snapshot().Sections
	assert.Equal(t, []string{"30-0-1", "30-0-2"}, keys(views))
	assert.Equal(t, []int{1, 2}, views[1].Body)

	tag, err = s.Rotate(1)
	require.NoError(t, err)
	assert.Equal(t, lesson.TagNone, tag)
	assert.Equal(t, []string{"30-0-1"}, keys(SectionViews(s.LessonID(), s.Sections())))
}

func TestRotate_PoisonDropsSection(t *testing.T) {
	s := New("review.html", load(t, `<p>one</p><hr><p>two</p>`))
	require.Len(t, s.Sections(), 2)

	s.Rotate(2)
	_, err := s.Rotate(2)
	require.NoError(t, err)

	views := s.Snapshot().Sections
	assert.Equal(t, []string{"30-0-1"}, keys(views))
}

func TestRotate_OutOfRange(t *testing.T) {
	s := New("review.html", load(t, `<p>one</p>`))
	_, err := s.Rotate(5)
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	s := New("review.html", load(t, `<p>a, b</p>`))
	f, err := s.Export()
	require.NoError(t, err)
	assert.Equal(t, "lesson-30.csv", f.Name)
	assert.Equal(t, "30-0-1, <p>a&#44; b</p>, 30, 1", string(f.Content()))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "a b", preview("  a \n b "))
	long := strings.Repeat("x", 100)
	got := preview(long)
	assert.Equal(t, strings.Repeat("x", 80)+"…", got)
}

func TestStore(t *testing.T) {
	st := NewStore(time.Hour)
	s := New("a.html", load(t, `<p>a</p>`))
	st.Put(s)

	assert.Same(t, s, st.Get(s.ID))
	assert.Equal(t, 1, st.Len())
	assert.Nil(t, st.Get("missing"))

	assert.True(t, st.Delete(s.ID))
	assert.False(t, st.Delete(s.ID))
	assert.Equal(t, 0, st.Len())
}

func TestStore_Cleanup(t *testing.T) {
	st := NewStore(50 * time.Millisecond)
	old := New("old.html", load(t, `<p>a</p>`))
	st.Put(old)

	time.Sleep(100 * time.Millisecond)
	fresh := New("new.html", load(t, `<p>b</p>`))
	st.Put(fresh)

	st.Cleanup()
	assert.Nil(t, st.Get(old.ID))
	assert.NotNil(t, st.Get(fresh.ID))
}
