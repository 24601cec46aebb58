package formforest

import (
	"github.com/entrhq/formforest/pkg/autofill/driver"
	"github.com/entrhq/formforest/pkg/autofill/form"
	"github.com/entrhq/formforest/pkg/types"
)

// fieldPool holds fields that were taken out of their root forms while the
// tree structure changes, keyed by the renderer form they came from.
type fieldPool struct {
	fields map[form.FormGlobalID][]form.FormFieldData
	roots  map[form.FormGlobalID]bool
}

func newFieldPool() *fieldPool {
	return &fieldPool{
		fields: make(map[form.FormGlobalID][]form.FormFieldData),
		roots:  make(map[form.FormGlobalID]bool),
	}
}

// detach moves the fields stored in id's tree into the pool. Fields live on
// the root, and on forms parked beyond the depth limit.
func (ff *FormForest) detach(p *fieldPool, id form.FormGlobalID) {
	if ff.Form(id) == nil {
		return
	}
	root := ff.root(id)
	p.roots[root] = true
	ff.collect(p, root, make(map[form.FormGlobalID]bool))
}

func (ff *FormForest) collect(p *fieldPool, id form.FormGlobalID, visited map[form.FormGlobalID]bool) {
	if visited[id] {
		return
	}
	visited[id] = true
	node := ff.Form(id)
	if node == nil {
		return
	}
	for _, field := range node.Fields {
		key := field.HostFormID()
		p.fields[key] = append(p.fields[key], field)
	}
	node.Fields = nil
	ff.eachChildForm(id, node.ResolvedChildren, func(child form.FormGlobalID) {
		ff.collect(p, child, visited)
	})
}

// eachChildForm calls fn for every form of the frames id embeds.
func (ff *FormForest) eachChildForm(id form.FormGlobalID, resolved []form.LocalFrameToken, fn func(form.FormGlobalID)) {
	for _, tok := range resolved {
		child := ff.frames[tok]
		if tok.IsZero() || child == nil || child.ParentForm == nil || *child.ParentForm != id {
			continue
		}
		for _, cf := range child.Forms {
			fn(cf.GlobalID())
		}
	}
}

// UpdateTreeOfRendererForm merges a renderer form into the forest.
//
// The form and each of its fields must carry their host frame and renderer
// ids, and d must be the driver of the form's host frame. The most recent
// snapshot of a form identity replaces the previous one. If the update
// reveals that the form's frame is embedded in a frame whose forms do not
// yet link to it, those parent forms are reprocessed before returning.
func (ff *FormForest) UpdateTreeOfRendererForm(f form.FormData, d driver.Driver) {
	type job struct {
		snapshot *form.FormData
		id       form.FormGlobalID
	}

	snapshot := f.Clone()
	queue := []job{{snapshot: &snapshot, id: f.GlobalID()}}
	reparsed := make(map[form.FormGlobalID]bool)

	for len(queue) > 0 {
		j := queue[0]
		queue = queue[1:]

		var next []form.FormGlobalID
		if j.snapshot != nil {
			next = ff.process(j.snapshot, d)
		} else {
			next = ff.reparse(j.id)
		}
		for _, id := range next {
			if reparsed[id] {
				continue
			}
			reparsed[id] = true
			queue = append(queue, job{id: id})
		}
	}
}

// reparse reprocesses a known form from its stored snapshot, re-resolving
// its child frame references.
func (ff *FormForest) reparse(id form.FormGlobalID) []form.FormGlobalID {
	node := ff.Form(id)
	frame := ff.frames[id.Frame]
	if node == nil || frame.Driver == nil {
		return nil
	}
	snapshot := node.FormData.Clone()
	snapshot.Fields = nil
	return ff.processWithFields(&snapshot, frame.Driver, false)
}

func (ff *FormForest) process(f *form.FormData, d driver.Driver) []form.FormGlobalID {
	return ff.processWithFields(f, d, true)
}

// processWithFields runs one update. If fresh is set the snapshot's fields
// replace the form's fields; otherwise the form keeps its current fields.
// It returns the parent forms that must be reparsed.
func (ff *FormForest) processWithFields(f *form.FormData, d driver.Driver, fresh bool) []form.FormGlobalID {
	id := f.GlobalID()
	frame := ff.GetOrCreateFrame(id.Frame)
	if d != nil {
		frame.Driver = d
	}

	pool := newFieldPool()

	// Take the form's current fields, and the fields of the tree it is about
	// to join, out of their roots.
	var oldResolved []form.LocalFrameToken
	idx := frame.formIndex(id.Renderer)
	if idx >= 0 {
		ff.detach(pool, id)
		oldResolved = frame.Forms[idx].ResolvedChildren
	}
	if frame.ParentForm != nil {
		ff.detach(pool, *frame.ParentForm)
	}

	node := FormNode{FormData: f.Clone()}
	node.Fields = nil
	if idx >= 0 {
		frame.Forms[idx] = node
		ff.emit(types.NewFormUpdatedEvent(id))
	} else {
		frame.Forms = append(frame.Forms, node)
		idx = len(frame.Forms) - 1
		ff.emit(types.NewFormAddedEvent(id))
	}
	if fresh {
		pool.fields[id] = append([]form.FormFieldData(nil), f.Fields...)
	}

	resolved := ff.resolveChildren(frame, f.ChildFrames)
	ff.unlinkDroppedChildren(pool, id, oldResolved, resolved)
	ff.linkChildren(pool, id, resolved)

	// idx is still valid: linking never touches this frame's form slice.
	frame.Forms[idx].ResolvedChildren = resolved

	ff.rebuild(pool)

	return ff.parentsToReparse(frame)
}

func (ff *FormForest) resolveChildren(frame *FrameData, children []form.FrameTokenWithPredecessor) []form.LocalFrameToken {
	resolved := make([]form.LocalFrameToken, len(children))
	if frame.Driver == nil {
		return resolved
	}
	for i, child := range children {
		if local, ok := frame.Driver.Resolve(child.Token); ok {
			resolved[i] = local
		} else {
			ff.debugf("child frame %s of frame %s did not resolve", child.Token, frame.Token.Short())
		}
	}
	return resolved
}

// unlinkDroppedChildren clears the parent link of frames that id used to
// embed but no longer does. Their forms become roots of their own trees.
func (ff *FormForest) unlinkDroppedChildren(pool *fieldPool, id form.FormGlobalID, oldResolved, resolved []form.LocalFrameToken) {
	keep := make(map[form.LocalFrameToken]bool, len(resolved))
	for _, tok := range resolved {
		keep[tok] = true
	}
	for _, tok := range oldResolved {
		if tok.IsZero() || keep[tok] {
			continue
		}
		child := ff.frames[tok]
		if child == nil || child.ParentForm == nil || *child.ParentForm != id {
			continue
		}
		child.ParentForm = nil
		for _, cf := range child.Forms {
			pool.roots[cf.GlobalID()] = true
		}
		ff.emit(types.NewFrameUnlinkedEvent(tok, id))
	}
}

// linkChildren makes id the parent form of every resolved child frame. A
// frame claimed by another form moves to id; the latest claim wins.
func (ff *FormForest) linkChildren(pool *fieldPool, id form.FormGlobalID, resolved []form.LocalFrameToken) {
	for _, tok := range resolved {
		if tok.IsZero() {
			continue
		}
		if ff.isAncestorFrame(tok, id.Frame) {
			ff.warnf("ignoring child frame %s of form %s: it would close a cycle", tok.Short(), id)
			continue
		}
		child := ff.GetOrCreateFrame(tok)
		if child.ParentForm != nil && *child.ParentForm == id {
			continue
		}
		// The frame's forms live either in a previous parent's tree or are
		// roots themselves.
		for _, cf := range child.Forms {
			ff.detach(pool, cf.GlobalID())
		}
		parent := id
		child.ParentForm = &parent
		ff.emit(types.NewFrameLinkedEvent(tok, id))
	}
}

// rebuild recomputes the field lists of every tree touched by the pool.
func (ff *FormForest) rebuild(pool *fieldPool) {
	candidates := make([]form.FormGlobalID, 0, len(pool.roots)+len(pool.fields))
	for id := range pool.roots {
		candidates = append(candidates, id)
	}
	for id := range pool.fields {
		candidates = append(candidates, id)
	}

	roots := make(map[form.FormGlobalID]bool)
	var order []form.FormGlobalID
	for _, id := range candidates {
		if ff.Form(id) == nil {
			continue
		}
		r := ff.root(id)
		if !roots[r] {
			roots[r] = true
			order = append(order, r)
		}
	}

	// A root of the new structure may still hold fields, for example a
	// tree that just adopted a frame. Detach everything before flattening.
	for _, r := range order {
		ff.detach(pool, r)
	}

	for _, r := range order {
		var fields []form.FormFieldData
		ff.flatten(pool, r, 0, make(map[form.FormGlobalID]bool), &fields)
		ff.Form(r).Fields = fields
		ff.emit(types.NewRootRebuiltEvent(r, len(fields)))
	}

	for id, fields := range pool.fields {
		ff.debugf("dropping %d fields of unreachable form %s", len(fields), id)
	}
}

// flatten appends the fields of id's subtree in document order.
func (ff *FormForest) flatten(pool *fieldPool, id form.FormGlobalID, depth int, visited map[form.FormGlobalID]bool, out *[]form.FormFieldData) {
	if visited[id] {
		return
	}
	visited[id] = true

	node := ff.Form(id)
	if node == nil {
		return
	}
	fields := pool.fields[id]
	delete(pool.fields, id)

	children := node.ChildFrames
	resolved := node.ResolvedChildren
	emitted := make([]bool, len(children))

	emitAfter := func(predecessor int) {
		for i, child := range children {
			if emitted[i] || child.Predecessor != predecessor {
				continue
			}
			emitted[i] = true
			ff.flattenFrame(pool, id, resolved[i], depth+1, visited, out)
		}
	}

	emitAfter(-1)
	for i, field := range fields {
		*out = append(*out, field)
		emitAfter(i)
	}
	// Frames whose predecessor is out of range go last.
	for i := range children {
		if !emitted[i] {
			emitted[i] = true
			ff.flattenFrame(pool, id, resolved[i], depth+1, visited, out)
		}
	}
}

func (ff *FormForest) flattenFrame(pool *fieldPool, parent form.FormGlobalID, tok form.LocalFrameToken, depth int, visited map[form.FormGlobalID]bool, out *[]form.FormFieldData) {
	if tok.IsZero() {
		return
	}
	child := ff.frames[tok]
	if child == nil || child.ParentForm == nil || *child.ParentForm != parent {
		return
	}
	if depth > ff.maxDepth {
		ff.warnf("frame %s exceeds tree depth %d, not flattened", tok.Short(), ff.maxDepth)
		ff.emit(types.NewDepthLimitEvent(tok, depth))
		for _, cf := range child.Forms {
			ff.park(pool, cf.GlobalID(), visited)
		}
		return
	}
	for _, cf := range child.Forms {
		ff.flatten(pool, cf.GlobalID(), depth, visited, out)
	}
}

// park stores the pooled fields of id's subtree on their own forms. They
// stay out of the browser form until the subtree is within the depth limit
// again, when detach returns them to the pool.
func (ff *FormForest) park(pool *fieldPool, id form.FormGlobalID, visited map[form.FormGlobalID]bool) {
	if visited[id] {
		return
	}
	visited[id] = true
	node := ff.Form(id)
	if node == nil {
		return
	}
	node.Fields = pool.fields[id]
	delete(pool.fields, id)
	ff.eachChildForm(id, node.ResolvedChildren, func(child form.FormGlobalID) {
		ff.park(pool, child, visited)
	})
}

// parentsToReparse returns the forms of frame's embedding frame that must
// be reprocessed: frame is not the main frame, has no parent form, and some
// form of the embedding frame now resolves a child reference to it.
func (ff *FormForest) parentsToReparse(frame *FrameData) []form.FormGlobalID {
	if frame.ParentForm != nil || frame.Driver == nil || frame.Driver.IsInMainFrame() {
		return nil
	}
	parentDriver := frame.Driver.Parent()
	if parentDriver == nil {
		return nil
	}
	parent := ff.frames[parentDriver.FrameToken()]
	if parent == nil {
		return nil
	}
	resolver := parent.Driver
	if resolver == nil {
		resolver = parentDriver
	}

	var ids []form.FormGlobalID
	for _, pf := range parent.Forms {
		for _, child := range pf.ChildFrames {
			if tok, ok := resolver.Resolve(child.Token); ok && tok == frame.Token {
				ids = append(ids, pf.GlobalID())
				ff.emit(types.NewReparseEvent(pf.GlobalID(), frame.Token))
				break
			}
		}
	}
	return ids
}
