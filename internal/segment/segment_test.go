package segment

import (
	"strings"
	"testing"

	"github.com/dgallion1/lessonslice/internal/lesson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func nodes(t *testing.T, blocks string) []*lesson.Node {
	t.Helper()
	src := `<div id="page-titlebar"><div><h1>Lesson 2</h1></div></div>` +
		`<div id="main"><div><div><div>` + blocks + `</div></div></div></div>`
	root, err := html.Parse(strings.NewReader(src))
	require.NoError(t, err)
	doc, err := lesson.Locate(root)
	require.NoError(t, err)
	return doc.Nodes()
}

// shape reduces sections to (super, sub, title index, body indexes).
type shape struct {
	Super, Sub int
	Title      int
	Body       []int
}

func shapes(sections []lesson.Section) []shape {
	out := make([]shape, 0, len(sections))
	for _, s := range sections {
		sh := shape{Super: s.Supersection, Sub: s.Subsection, Title: -1}
		if s.Title != nil {
			sh.Title = s.Title.Index()
		}
		for _, n := range s.Body {
			sh.Body = append(sh.Body, n.Index())
		}
		out = append(out, sh)
	}
	return out
}

func TestSections_TitleOpensSupersection(t *testing.T) {
	ns := nodes(t, `<p><u>Nouns</u></p><p>cat</p><p>dog</p>`)

	got := shapes(Sections(ns))
	assert.Equal(t, []shape{{Super: 1, Sub: 0, Title: 0, Body: []int{1, 2}}}, got)
}

func TestSections_PoisonDropsSection(t *testing.T) {
	ns := nodes(t, `<p>Introduction</p><p><u>Particles</u></p><p>content</p>`)
	ns[0].Add(lesson.TagPoison)

	got := shapes(Sections(ns))
	assert.Equal(t, []shape{{Super: 1, Sub: 0, Title: 1, Body: []int{2}}}, got)
}

func TestSections_Empty(t *testing.T) {
	got := Sections(nil)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSections_DividerSplitsSubsections(t *testing.T) {
	ns := nodes(t, `<p>one</p><p> </p><p>two</p>`)

	got := shapes(Sections(ns))
	assert.Equal(t, []shape{
		{Super: 0, Sub: 1, Title: -1, Body: []int{0}},
		{Super: 0, Sub: 2, Title: -1, Body: []int{2}},
	}, got)
}

func TestSections_BreakCarriesTitle(t *testing.T) {
	ns := nodes(t, `<p><u>Verbs</u></p><p>eat</p><hr><p>drink</p><p><u>Particles</u></p><p>wa</p>`)

	got := shapes(Sections(ns))
	assert.Equal(t, []shape{
		{Super: 1, Sub: 0, Title: 0, Body: []int{1}},
		{Super: 1, Sub: 1, Title: 0, Body: []int{3}},
		{Super: 2, Sub: 0, Title: 4, Body: []int{5}},
	}, got)
}

func TestSections_PoisonedBodyDropsWholeSection(t *testing.T) {
	ns := nodes(t, `<p>a</p><p>b</p><hr><p>c</p>`)
	ns[1].Add(lesson.TagPoison)

	got := shapes(Sections(ns))
	assert.Equal(t, []shape{{Super: 0, Sub: 2, Title: -1, Body: []int{3}}}, got)
}

func TestSections_PoisonedTitleDropsSection(t *testing.T) {
	ns := nodes(t, `<p><u>Nouns</u></p><p>cat</p><hr><p>dog</p>`)
	ns[0].Add(lesson.TagPoison)

	// The title carries into the following subsection, so both are dropped.
	assert.Empty(t, Sections(ns))
}

func TestSections_DisregardStripped(t *testing.T) {
	ns := nodes(t, `<p><u>Nouns</u></p><p>cat</p><p>That's it</p>`)
	ns[2].Add(lesson.TagDisregard)

	got := shapes(Sections(ns))
	assert.Equal(t, []shape{{Super: 1, Sub: 0, Title: 0, Body: []int{1}}}, got)
}

func TestSections_DisregardedTitleLeavesUntitledSection(t *testing.T) {
	ns := nodes(t, `<p><u>Nouns</u></p><p>cat</p>`)
	ns[0].Add(lesson.TagDisregard)

	got := shapes(Sections(ns))
	assert.Equal(t, []shape{{Super: 1, Sub: 0, Title: -1, Body: []int{1}}}, got)
}

func TestSections_AllDisregardedBodyDiscarded(t *testing.T) {
	ns := nodes(t, `<p>a</p><hr><p>b</p>`)
	ns[0].Add(lesson.TagDisregard)

	got := shapes(Sections(ns))
	assert.Equal(t, []shape{{Super: 0, Sub: 2, Title: -1, Body: []int{2}}}, got)
}

func TestSections_JoinSuppressesBoundary(t *testing.T) {
	ns := nodes(t, `<p>a</p><hr><p>b</p>`)
	ns[1].Add(lesson.TagJoin)

	got := shapes(Sections(ns))
	assert.Equal(t, []shape{{Super: 0, Sub: 1, Title: -1, Body: []int{0, 1, 2}}}, got)
}

func TestSections_JoinedTitleIsBody(t *testing.T) {
	ns := nodes(t, `<p>a</p><p><u>Not a title</u></p><p>b</p>`)
	ns[1].Add(lesson.TagJoin)

	got := shapes(Sections(ns))
	assert.Equal(t, []shape{{Super: 0, Sub: 1, Title: -1, Body: []int{0, 1, 2}}}, got)
}

func TestSections_TaggedBreakIsKept(t *testing.T) {
	ns := nodes(t, `<p>a</p><p>b</p><p>c</p>`)
	ns[1].Add(lesson.TagBreak)

	got := shapes(Sections(ns))
	assert.Equal(t, []shape{
		{Super: 0, Sub: 1, Title: -1, Body: []int{0}},
		{Super: 0, Sub: 2, Title: -1, Body: []int{1, 2}},
	}, got)
}

func TestSections_BoundaryAfterTitleIsBody(t *testing.T) {
	// A divider straight after a title does not close the title's section.
	ns := nodes(t, `<p><u>Nouns</u></p><hr><p>cat</p>`)

	got := shapes(Sections(ns))
	assert.Equal(t, []shape{{Super: 1, Sub: 0, Title: 0, Body: []int{1, 2}}}, got)
}

func TestSections_ConsecutiveTitles(t *testing.T) {
	ns := nodes(t, `<p><u>Nouns</u></p><p><u>Animals</u></p><p>cat</p>`)

	got := shapes(Sections(ns))
	assert.Equal(t, []shape{{Super: 1, Sub: 0, Title: 0, Body: []int{1, 2}}}, got)
}

func TestSections_IgnoresTertiaryHeadings(t *testing.T) {
	ns := nodes(t, `<p>a</p><h3>Sidebar</h3><p>b</p>`)

	got := shapes(Sections(ns))
	assert.Equal(t, []shape{{Super: 0, Sub: 1, Title: -1, Body: []int{0, 2}}}, got)
}

func TestSections_DoesNotModifyTags(t *testing.T) {
	ns := nodes(t, `<p>a</p><hr><p>b</p>`)
	ns[0].Add(lesson.TagDisregard)
	ns[2].Add(lesson.TagPoison)

	Sections(ns)
	assert.Equal(t, []lesson.Tag{lesson.TagDisregard}, ns[0].Tags())
	assert.Empty(t, ns[1].Tags())
	assert.Equal(t, []lesson.Tag{lesson.TagPoison}, ns[2].Tags())
}

func TestSections_Deterministic(t *testing.T) {
	ns := nodes(t, `<p><u>Nouns</u></p><p>cat</p><hr><p>dog</p><p style="text-align:center">~</p><p>fish</p>`)

	first := shapes(Sections(ns))
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, shapes(Sections(ns)))
	}
}

func TestSections_KeysUnique(t *testing.T) {
	ns := nodes(t, `<p><u>A</u></p><p>1</p><hr><p>2</p><hr><p>3</p><p><u>B</u></p><p>4</p><hr><p>5</p>`)

	seen := map[[2]int]bool{}
	for _, s := range Sections(ns) {
		k := [2]int{s.Supersection, s.Subsection}
		assert.False(t, seen[k], "duplicate %v", k)
		seen[k] = true
	}
	assert.Len(t, seen, 5)
}

func TestRoles(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		title  bool
		brk    bool
		ignore bool
	}{
		{"plain", `<p>text</p>`, false, false, false},
		{"underlined title", `<p><u>Nouns</u></p>`, true, false, false},
		{"styled title", `<p><span style="text-decoration:underline">Nouns</span></p>`, true, false, false},
		{"title with own text", `<p>See <u>Nouns</u></p>`, false, false, false},
		{"blank underline", `<p><u> </u></p>`, false, true, false},
		{"rule", `<hr>`, false, true, false},
		{"blank", `<p>&nbsp;</p>`, false, true, false},
		{"centered style", `<p style="text-align: center">* * *</p>`, false, true, false},
		{"centered attr", `<p align="CENTER">* * *</p>`, false, true, false},
		{"left wins", `<p style="text-align: left" align="center">x</p>`, false, false, false},
		{"image", `<p><img src="a.png"></p>`, false, false, false},
		{"centered image", `<p style="text-align:center"><img src="a.png"></p>`, false, false, false},
		{"tertiary heading", `<h3>Note</h3>`, false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns := nodes(t, tt.markup)
			require.Len(t, ns, 1)
			n := ns[0]
			assert.Equal(t, tt.title, IsTitle(n), "IsTitle")
			assert.Equal(t, tt.brk, IsBreak(n), "IsBreak")
			assert.Equal(t, tt.ignore, IsIgnore(n), "IsIgnore")
		})
	}
}

func TestRoles_Tags(t *testing.T) {
	n := nodes(t, `<p>text</p>`)[0]
	n.Add(lesson.TagBreak)
	assert.True(t, IsBreak(n))

	n.Add(lesson.TagJoin)
	assert.False(t, IsBreak(n))

	img := nodes(t, `<p><img src="a.png"></p>`)[0]
	img.Add(lesson.TagBreak)
	assert.True(t, IsBreak(img))

	title := nodes(t, `<p><u>Nouns</u></p>`)[0]
	title.Add(lesson.TagJoin)
	assert.False(t, IsTitle(title))
}
