package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/formforest/pkg/autofill/form"
)

const checkoutHTML = `<!doctype html>
<html><body>
<input name="search" placeholder="Search">
<form id="checkout" name="checkout" action="/pay">
  <label for="fullname">Full name</label>
  <input id="fullname" name="name" autocomplete="name">
  <iframe name="card" src="https://pay.example/card" allow="payment; shared-autofill"></iframe>
  <label>Email <input type="email" name="email" value="a@b.example"></label>
  <input type="hidden" name="csrf" value="x">
  <select name="country"><option value="de">DE</option><option value="fr" selected>FR</option></select>
  <textarea name="notes">leave at door</textarea>
  <input type="submit" value="Pay">
</form>
<input name="coupon" form="checkout">
<iframe name="ads" src="/ads"></iframe>
</body></html>`

func parseOptions(t *testing.T, children map[string]form.FrameToken) (Options, form.LocalFrameToken) {
	t.Helper()
	frame := form.NewLocalFrameToken()
	origin := form.MustParseOrigin("https://shop.example")
	return Options{
		Frame:           frame,
		URL:             "https://shop.example/checkout",
		Origin:          origin,
		MainFrameOrigin: origin,
		ChildToken: func(iframe IFrame) (form.FrameToken, bool) {
			tok, ok := children[iframe.Name]
			return tok, ok
		},
	}, frame
}

func TestParse_Forms(t *testing.T) {
	opts, frame := parseOptions(t, nil)

	doc, err := ParseString(checkoutHTML, opts)
	require.NoError(t, err)
	require.Len(t, doc.Forms, 2)

	unowned := doc.Forms[0]
	assert.Equal(t, UnownedFormID, unowned.RendererID)
	require.Len(t, unowned.Fields, 1)
	assert.Equal(t, "search", unowned.Fields[0].Name)
	assert.Equal(t, "Search", unowned.Fields[0].Label)

	checkout, ok := doc.Form(1)
	require.True(t, ok)
	assert.Equal(t, frame, checkout.HostFrame)
	assert.Equal(t, "checkout", checkout.Name)
	assert.Equal(t, "https://shop.example/pay", checkout.Action)

	var names []string
	for _, f := range checkout.Fields {
		names = append(names, f.Name)
		assert.Equal(t, form.FormRendererID(1), f.HostForm)
		assert.Equal(t, frame, f.HostFrame)
		assert.Equal(t, "https://shop.example", f.Origin.String())
	}
	assert.Equal(t, []string{"name", "email", "country", "notes", "coupon"}, names)

	assert.Equal(t, "Full name", checkout.Fields[0].Label)
	assert.Equal(t, "input#fullname", checkout.Fields[0].Selector)
	assert.Equal(t, "name", checkout.Fields[0].Autocomplete)
	assert.Equal(t, "Email", checkout.Fields[1].Label)
	assert.Equal(t, "email", checkout.Fields[1].FormControlType)
	assert.Equal(t, "a@b.example", checkout.Fields[1].Value)
	assert.Equal(t, "select-one", checkout.Fields[2].FormControlType)
	assert.Equal(t, "fr", checkout.Fields[2].Value)
	assert.Equal(t, "textarea", checkout.Fields[3].FormControlType)
	assert.Equal(t, "leave at door", checkout.Fields[3].Value)
}

func TestParse_FieldIDsUniqueInFrame(t *testing.T) {
	opts, _ := parseOptions(t, nil)

	doc, err := ParseString(checkoutHTML, opts)
	require.NoError(t, err)

	seen := make(map[form.FieldRendererID]bool)
	for _, f := range doc.Forms {
		for _, field := range f.Fields {
			assert.False(t, seen[field.RendererID], "duplicate id %d", field.RendererID)
			seen[field.RendererID] = true
		}
	}
	assert.Len(t, seen, 6)
}

func TestParse_IFramePredecessors(t *testing.T) {
	card := form.NewRemoteFrameToken()
	ads := form.NewLocalFrameToken()
	opts, _ := parseOptions(t, map[string]form.FrameToken{
		"card": form.RemoteToken(card),
		"ads":  form.LocalToken(ads),
	})

	doc, err := ParseString(checkoutHTML, opts)
	require.NoError(t, err)

	require.Len(t, doc.IFrames, 2)
	assert.Equal(t, "card", doc.IFrames[0].Name)
	assert.True(t, doc.IFrames[0].SharedAutofill)
	assert.Equal(t, "https://pay.example/card", doc.IFrames[0].Src)
	assert.False(t, doc.IFrames[1].SharedAutofill)
	assert.Equal(t, "https://shop.example/ads", doc.IFrames[1].Src)

	checkout, _ := doc.Form(1)
	require.Len(t, checkout.ChildFrames, 1)
	assert.Equal(t, form.RemoteToken(card), checkout.ChildFrames[0].Token)
	assert.Equal(t, 0, checkout.ChildFrames[0].Predecessor, "card frame follows the name field")

	unowned, _ := doc.Form(UnownedFormID)
	require.Len(t, unowned.ChildFrames, 1)
	assert.Equal(t, form.LocalToken(ads), unowned.ChildFrames[0].Token)
	assert.Equal(t, 0, unowned.ChildFrames[0].Predecessor)
}

func TestParse_IFrameBeforeFirstField(t *testing.T) {
	opts, _ := parseOptions(t, map[string]form.FrameToken{
		"top": form.LocalToken(form.NewLocalFrameToken()),
	})

	doc, err := ParseString(`<form><iframe name="top"></iframe><input name="a"></form>`, opts)
	require.NoError(t, err)

	f, ok := doc.Form(1)
	require.True(t, ok)
	require.Len(t, f.ChildFrames, 1)
	assert.Equal(t, -1, f.ChildFrames[0].Predecessor)
}

func TestParse_UnknownChildIsSkipped(t *testing.T) {
	opts, _ := parseOptions(t, nil)

	doc, err := ParseString(checkoutHTML, opts)
	require.NoError(t, err)

	for _, f := range doc.Forms {
		assert.Empty(t, f.ChildFrames)
	}
	assert.Len(t, doc.IFrames, 2)
}

func TestParse_StructuralSelector(t *testing.T) {
	opts, _ := parseOptions(t, nil)

	doc, err := ParseString(`<form><input name="a"><input name="b"></form>`, opts)
	require.NoError(t, err)

	f, _ := doc.Form(1)
	require.Len(t, f.Fields, 2)
	assert.Equal(t,
		"html:nth-of-type(1) > body:nth-of-type(1) > form:nth-of-type(1) > input:nth-of-type(2)",
		f.Fields[1].Selector)
}

func TestParse_RequiresFrame(t *testing.T) {
	_, err := ParseString("<form></form>", Options{})
	assert.Error(t, err)
}

func TestAllowsSharedAutofill(t *testing.T) {
	assert.True(t, AllowsSharedAutofill("shared-autofill"))
	assert.True(t, AllowsSharedAutofill("payment; shared-autofill 'self'"))
	assert.False(t, AllowsSharedAutofill("payment"))
	assert.False(t, AllowsSharedAutofill(""))
}
