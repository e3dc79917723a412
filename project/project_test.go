package project

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fietser28/studio/engine"
	"github.com/fietser28/studio/reactive"
)

func loadDemo(t *testing.T) *Project {
	t.Helper()
	p, err := Load(filepath.Join("testdata", "main.yaml"))
	require.NoError(t, err)
	return p
}

func pageNames(pages []*Page) []string {
	var out []string
	for _, p := range pages {
		out = append(out, p.Name)
	}
	return out
}

func TestLoad_ResolvesImportsAndResources(t *testing.T) {
	p := loadDemo(t)

	if diff := cmp.Diff([]string{"Main", "Settings", "About"}, pageNames(p.AllPages())); diff != "" {
		t.Errorf("page order (-want +got):\n%s", diff)
	}
	assert.Equal(t, engine.V9, p.Settings.EngineVersion)
	assert.Equal(t, ProjectTypeLVGL, p.Settings.ProjectType)

	logo := p.FindBitmap("logo")
	require.NotNil(t, logo)
	require.NotNil(t, logo.Image())
	assert.Equal(t, image.Rect(0, 0, 2, 2), logo.Image().Bounds())
	require.NotNil(t, p.FindBitmap("inline").Image())
	require.NotNil(t, p.FindBitmap("dot"), "bitmaps of imports are visible")

	f := p.FindFont("custom")
	require.NotNil(t, f)
	assert.Equal(t, "AAFmb250ZGF0YQ==", f.BinFile)

	assert.NotEmpty(t, p.Pages[0].ID)
	assert.NotEmpty(t, p.Pages[0].Screen.ID)
	assert.NotNil(t, p.FindStyle("primary"))
}

func TestLoad_ImportCycle(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "cycle_a.yaml"))
	assert.ErrorContains(t, err, "import cycle")
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("settings: {engineVersion: \"7.0\"}"))
	assert.Error(t, err)
	_, err = Parse([]byte("bitmaps: [{name: x, data: '!!!'}]"))
	assert.Error(t, err)
}

func TestLink_GivesEmptyPagesAScreen(t *testing.T) {
	p := loadDemo(t)
	settings := p.FindPage("Settings")
	require.NotNil(t, settings.Screen)
	assert.Equal(t, TypeScreen, settings.Screen.Type)
	assert.Equal(t, 320, settings.Screen.Width)
	assert.Same(t, settings, settings.Screen.Page())
	assert.Len(t, settings.Widgets(), 1)
}

func TestWidgets_PreOrder(t *testing.T) {
	p := loadDemo(t)
	var types []WidgetType
	for _, w := range p.Pages[0].Widgets() {
		types = append(types, w.Type)
	}
	want := []WidgetType{TypeScreen, TypeLabel, TypeImage, TypeTabview, TypeContainer, TypeContainer, TypeTab, TypeButton, TypeTab}
	if diff := cmp.Diff(want, types); diff != "" {
		t.Errorf("traversal (-want +got):\n%s", diff)
	}
}

func TestTabs(t *testing.T) {
	p := loadDemo(t)
	ws := p.Pages[0].Widgets()
	tabview, first, button, second := ws[3], ws[6], ws[7], ws[8]

	assert.Same(t, tabview, first.OwningTabview())
	assert.Equal(t, 0, first.TabIndex())
	assert.Equal(t, 1, second.TabIndex())
	assert.Same(t, first, button.Ancestor(TypeTab))
	assert.Nil(t, button.OwningTabview())
	assert.Equal(t, -1, button.TabIndex())
	assert.Equal(t, 1, ws[5].IndexInParent())
}

func TestIdentifiers_OneIndexPerWidget(t *testing.T) {
	p := loadDemo(t)
	ids := BuildIdentifiers(p)

	assert.Equal(t, []string{"title", "tabs", "ok", "title"}, ids.Names())
	assert.Equal(t, 3, ids.MaxWidgetIndex())

	mainTitle := p.Pages[0].Widgets()[1]
	aboutTitle := p.FindPage("About").Widgets()[1]
	i, ok := ids.Index(mainTitle)
	require.True(t, ok)
	j, ok := ids.Index(aboutTitle)
	require.True(t, ok)
	assert.NotEqual(t, i, j)

	_, ok = ids.Index(p.Pages[0].Screen)
	assert.False(t, ok)

	assert.Equal(t, -1, BuildIdentifiers(&Project{}).MaxWidgetIndex())
}

func TestEffectiveFlags(t *testing.T) {
	w := &Widget{Flags: "SCROLLABLE|CLICKABLE", HiddenFlag: true, ClickableFlag: true}
	assert.Equal(t, "CLICKABLE|HIDDEN|SCROLLABLE", w.EffectiveFlags())
}

func TestHandleSlots_PerRuntime(t *testing.T) {
	w := &Widget{}
	w.SetObj(1, 10)
	w.SetObj(2, 20)
	assert.Equal(t, engine.Obj(10), w.Obj(1))
	assert.Equal(t, engine.Obj(20), w.Obj(2))
	w.ClearObj(1)
	assert.Zero(t, w.Obj(1))
	assert.Equal(t, engine.Obj(20), w.Obj(2))

	page := &Page{}
	page.AttachRuntime(2)
	page.AttachRuntime(1)
	assert.Equal(t, []RuntimeID{1, 2}, page.AttachedRuntimes())
	page.DetachRuntime(1)
	assert.False(t, page.IsAttached(1))
}

func TestBitmap_BGRA(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 4})
	b := &Bitmap{}
	w, h, pix := b.BGRA()
	assert.Zero(t, w+h)
	assert.Nil(t, pix)

	b.SetImage(img)
	w, h, pix = b.BGRA()
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
	assert.Equal(t, []byte{3, 2, 1, 4}, pix)
}

func TestStore_NotifiesTopics(t *testing.T) {
	hub := reactive.NewHub(nil)
	s := NewStore(loadDemo(t), hub)
	main := s.Project.Pages[0]
	assert.Same(t, main, s.View.SelectedPage)
	assert.Equal(t, 2, s.FlowIndex(s.Project.FindPage("About")))
	assert.Equal(t, -1, s.FlowIndex(&Page{}))

	var pageRuns, selRuns, resRuns int
	hub.Subscribe("page", func() { pageRuns++ }, PageTopic(main))
	hub.Subscribe("sel", func() { selRuns++ }, TopicSelectedPage)
	hub.Subscribe("res", func() { resRuns++ }, TopicResources)

	s.UpdateWidget(main.Widgets()[1], func(w *Widget) { w.Text = "Changed" })
	assert.Equal(t, 1, pageRuns)

	s.SelectPage(main)
	assert.Equal(t, 0, selRuns, "selecting the current page is not a change")
	s.SelectPage(s.Project.FindPage("About"))
	assert.Equal(t, 1, selRuns)

	s.SetBitmapImage(s.Project.FindBitmap("logo"), func(b *Bitmap) { b.SetImage(nil) })
	assert.Equal(t, 1, resRuns)
}

func TestStore_UpdatePageReindexes(t *testing.T) {
	hub := reactive.NewHub(nil)
	s := NewStore(loadDemo(t), hub)
	settings := s.Project.FindPage("Settings")
	s.UpdatePage(settings, func(p *Page) {
		p.Screen.Children = append(p.Screen.Children, &Widget{Type: TypeLabel, Name: "late"})
	})
	added := settings.Screen.Children[0]
	assert.NotEmpty(t, added.ID)
	assert.Same(t, settings.Screen, added.Parent())
	_, ok := s.Identifiers.Index(added)
	assert.True(t, ok)
}

func TestSave_RoundTrip(t *testing.T) {
	p := loadDemo(t)
	out := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, Save(out, p))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	again, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, pageNames(p.Pages), pageNames(again.Pages))
	assert.Equal(t, p.Pages[0].ID, again.Pages[0].ID)
}
