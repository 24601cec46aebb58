package formforest

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/entrhq/formforest/pkg/autofill/driver"
	"github.com/entrhq/formforest/pkg/autofill/form"
	"github.com/entrhq/formforest/pkg/types"
)

type fixture struct {
	t      *testing.T
	tree   *driver.FrameTree
	forest *FormForest
	events []*types.ForestEvent
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	fx := &fixture{t: t, tree: driver.NewFrameTree()}
	opts = append(opts, WithEventSink(func(e *types.ForestEvent) {
		fx.events = append(fx.events, e)
	}))
	fx.forest = New(opts...)
	return fx
}

func (fx *fixture) mainFrame(origin string) *driver.FrameDriver {
	fx.t.Helper()
	d, err := fx.tree.AddMainFrame(driver.FrameOptions{Name: "main", Origin: form.MustParseOrigin(origin)})
	require.NoError(fx.t, err)
	return d
}

func (fx *fixture) childFrame(parent *driver.FrameDriver, opts driver.FrameOptions) *driver.FrameDriver {
	fx.t.Helper()
	d, err := fx.tree.AddChild(parent.FrameToken(), opts)
	require.NoError(fx.t, err)
	return d
}

type child struct {
	frame *driver.FrameDriver
	after int
}

// form builds a renderer form of d with one field per id. Field values are
// "v<id>".
func (fx *fixture) form(d *driver.FrameDriver, renderer form.FormRendererID, fieldIDs []form.FieldRendererID, children ...child) form.FormData {
	fx.t.Helper()
	f := form.FormData{
		HostFrame:       d.FrameToken(),
		RendererID:      renderer,
		Name:            fmt.Sprintf("%s-form-%d", d.Name(), renderer),
		MainFrameOrigin: d.MainFrameOrigin(),
	}
	for _, id := range fieldIDs {
		f.Fields = append(f.Fields, form.FormFieldData{
			HostFrame:  d.FrameToken(),
			HostForm:   renderer,
			RendererID: id,
			Origin:     d.Origin(),
			Name:       fmt.Sprintf("f%d", id),
			Value:      fmt.Sprintf("v%d", id),
		})
	}
	for _, c := range children {
		tok, err := fx.tree.ChildToken(c.frame.FrameToken())
		require.NoError(fx.t, err)
		f.ChildFrames = append(f.ChildFrames, form.FrameTokenWithPredecessor{Token: tok, Predecessor: c.after})
	}
	return f
}

func (fx *fixture) update(f form.FormData, d *driver.FrameDriver) {
	fx.forest.UpdateTreeOfRendererForm(f, d)
}

func (fx *fixture) browserForm(f form.FormData) form.FormData {
	fx.t.Helper()
	bf, ok := fx.forest.GetBrowserFormOfRendererForm(f)
	require.True(fx.t, ok, "form %s unknown", f.GlobalID())
	return bf
}

func fieldIDs(f form.FormData) []form.FieldRendererID {
	ids := make([]form.FieldRendererID, 0, len(f.Fields))
	for _, field := range f.Fields {
		ids = append(ids, field.RendererID)
	}
	return ids
}

func ids(v ...form.FieldRendererID) []form.FieldRendererID {
	return v
}

func (fx *fixture) countEvents(kind types.ForestEventType) int {
	n := 0
	for _, e := range fx.events {
		if e.Type == kind {
			n++
		}
	}
	return n
}

// exampleScenario builds frame F1 with form A (fields 1, 4) embedding frame
// F2 between its fields, and F2's form B (fields 2, 3).
func exampleScenario(fx *fixture, crossProcess bool) (f1, f2 *driver.FrameDriver, a, b form.FormData) {
	f1 = fx.mainFrame("https://shop.example")
	f2 = fx.childFrame(f1, driver.FrameOptions{
		Name:         "f2",
		Origin:       form.MustParseOrigin("https://shop.example"),
		CrossProcess: crossProcess,
	})
	a = fx.form(f1, 1, ids(1, 4), child{frame: f2, after: 0})
	b = fx.form(f2, 1, ids(2, 3))
	return f1, f2, a, b
}
