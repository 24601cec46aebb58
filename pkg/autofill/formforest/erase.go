package formforest

import (
	"github.com/entrhq/formforest/pkg/autofill/form"
	"github.com/entrhq/formforest/pkg/types"
)

// EraseFrame removes the node of token together with its forms and their
// fields. Child frames keep their nodes; each is erased by its own call.
func (ff *FormForest) EraseFrame(token form.LocalFrameToken) {
	ff.EraseFormsOfFrame(token, false)
}

// EraseFormsOfFrame removes the forms of token. With keepEmptyFrame the
// node itself survives with its parent link and driver, which is what a
// frame that navigated to a new document needs.
func (ff *FormForest) EraseFormsOfFrame(token form.LocalFrameToken, keepEmptyFrame bool) {
	frame := ff.frames[token]
	if frame == nil {
		return
	}

	ids := make(map[form.FormRendererID]bool, len(frame.Forms))
	for _, f := range frame.Forms {
		ids[f.RendererID] = true
	}
	ff.eraseForms(frame, ids)

	if !keepEmptyFrame {
		delete(ff.frames, token)
	}
	ff.emit(types.NewFrameErasedEvent(token, keepEmptyFrame))
}

// EraseForms removes individual forms, e.g. forms removed from the DOM.
// Unknown ids are ignored.
func (ff *FormForest) EraseForms(ids []form.FormGlobalID) {
	byFrame := make(map[form.LocalFrameToken]map[form.FormRendererID]bool)
	for _, id := range ids {
		if byFrame[id.Frame] == nil {
			byFrame[id.Frame] = make(map[form.FormRendererID]bool)
		}
		byFrame[id.Frame][id.Renderer] = true
	}
	for token, renderers := range byFrame {
		if frame := ff.frames[token]; frame != nil {
			ff.eraseForms(frame, renderers)
		}
	}
}

func (ff *FormForest) eraseForms(frame *FrameData, renderers map[form.FormRendererID]bool) {
	pool := newFieldPool()

	var erased []form.FormGlobalID
	for _, f := range frame.Forms {
		if !renderers[f.RendererID] {
			continue
		}
		id := f.GlobalID()
		ff.detach(pool, id)
		erased = append(erased, id)
	}
	if len(erased) == 0 {
		return
	}
	if frame.ParentForm != nil {
		ff.detach(pool, *frame.ParentForm)
	}

	// Frames embedded in the erased forms become roots of their own trees.
	for _, id := range erased {
		node := ff.Form(id)
		for _, tok := range node.ResolvedChildren {
			child := ff.frames[tok]
			if tok.IsZero() || child == nil || child.ParentForm == nil || *child.ParentForm != id {
				continue
			}
			child.ParentForm = nil
			for _, cf := range child.Forms {
				pool.roots[cf.GlobalID()] = true
			}
			ff.emit(types.NewFrameUnlinkedEvent(tok, id))
		}
	}

	kept := frame.Forms[:0]
	for _, f := range frame.Forms {
		if renderers[f.RendererID] {
			ff.emit(types.NewFormErasedEvent(f.GlobalID()))
			continue
		}
		kept = append(kept, f)
	}
	frame.Forms = kept

	// Fields of the erased forms stay in the pool and are dropped by the
	// rebuild, since their forms no longer exist.
	ff.rebuild(pool)
}
