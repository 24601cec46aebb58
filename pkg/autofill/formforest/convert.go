package formforest

import (
	"github.com/entrhq/formforest/pkg/autofill/form"
)

// GetBrowserFormOfRendererForm returns the browser form that contains the
// given renderer form: a copy of its tree's root form with all fields of
// the tree. The renderer form must have been passed to
// UpdateTreeOfRendererForm before; otherwise ok is false.
func (ff *FormForest) GetBrowserFormOfRendererForm(f form.FormData) (form.FormData, bool) {
	id := f.GlobalID()
	if ff.Form(id) == nil {
		return form.FormData{}, false
	}
	root := ff.Form(ff.root(id))
	return root.FormData.Clone(), true
}

// GetRendererFormsOfBrowserForm splits a browser form into the renderer
// forms its fields came from. Renderer forms appear in the order in which
// their first field occurs in the browser form, and each carries the
// metadata and child frames of its last snapshot. Values of fields that are
// not safe to fill under opts are cleared. The second result lists the
// fields that are safe.
//
// Fields whose renderer form is no longer known are skipped.
func (ff *FormForest) GetRendererFormsOfBrowserForm(browserForm form.FormData, opts SecurityOptions) ([]form.FormData, []form.FieldGlobalID) {
	ctx := ff.newSecurityContext(browserForm, opts)

	var forms []form.FormData
	var safe []form.FieldGlobalID
	index := make(map[form.FormGlobalID]int)

	for _, field := range browserForm.Fields {
		id := field.HostFormID()
		i, ok := index[id]
		if !ok {
			node := ff.Form(id)
			if node == nil {
				ff.debugf("skipping field %s: form %s is unknown", field.GlobalID(), id)
				continue
			}
			rf := node.FormData.Clone()
			rf.Fields = nil
			forms = append(forms, rf)
			i = len(forms) - 1
			index[id] = i
		}

		if ctx.isSafeToFill(field) {
			safe = append(safe, field.GlobalID())
		} else {
			field.Value = ""
		}
		forms[i].Fields = append(forms[i].Fields, field)
	}
	return forms, safe
}
