// Package formforest reconciles renderer forms that are split across frames
// into browser forms, and splits browser forms back into renderer forms.
//
// # Structure
//
// The forest is a set of trees whose nodes alternate between frames and
// forms: a frame owns the forms observed in it, and a form references the
// frames embedded in it. A tree's root form is a form whose frame has no
// parent form. After every update all fields of a tree are stored in its
// root form, ordered as a pre-order depth-first traversal of the tree in
// which an embedded frame's forms are visited right after the field that
// precedes the frame in the embedding form. Non-root forms keep their
// metadata and child frame references but no fields.
//
// # Ownership
//
// A FormForest exclusively owns all frame, form and field records. The
// *FrameData and *FormNode values it hands out are borrowed views: they
// are invalidated by the next mutating call (UpdateTreeOfRendererForm, any
// Erase method, Reset). Callers must look records up again after an update
// rather than hold on to them.
//
// # Concurrency
//
// A FormForest is not safe for concurrent use. All calls must happen on one
// goroutine, or be serialized by the caller. No method blocks.
package formforest

import (
	"sort"

	"github.com/entrhq/formforest/pkg/autofill/driver"
	"github.com/entrhq/formforest/pkg/autofill/form"
	"github.com/entrhq/formforest/pkg/types"
)

// DefaultMaxTreeDepth bounds how many frame levels flattening descends.
const DefaultMaxTreeDepth = 64

// Logger is the subset of logging.Logger the forest writes to.
type Logger interface {
	Debugf(format string, v ...interface{})
	Warnf(format string, v ...interface{})
}

// FormNode is a form record. Root forms hold the fields of their whole
// tree; other forms hold none.
type FormNode struct {
	form.FormData

	// ResolvedChildren is parallel to ChildFrames and holds the local token
	// each child reference resolved to at the last update, or the zero
	// token if it did not resolve.
	ResolvedChildren []form.LocalFrameToken
}

// FrameData is the node of one frame.
type FrameData struct {
	Token form.LocalFrameToken

	// ParentForm is the form that embeds the frame, if known. It may be set
	// before any form of the frame has been observed.
	ParentForm *form.FormGlobalID

	// Forms are the forms observed in the frame, in order of first sight.
	Forms []FormNode

	// Driver is nil until a form of the frame has been observed.
	Driver driver.Driver
}

func (f *FrameData) formIndex(id form.FormRendererID) int {
	for i := range f.Forms {
		if f.Forms[i].RendererID == id {
			return i
		}
	}
	return -1
}

// Option configures a FormForest.
type Option func(*FormForest)

// WithLogger sets the logger for debug output.
func WithLogger(l Logger) Option {
	return func(ff *FormForest) {
		ff.logger = l
	}
}

// WithEventSink registers a sink that receives structural events.
func WithEventSink(sink types.EventSink) Option {
	return func(ff *FormForest) {
		ff.sink = sink
	}
}

// WithMaxTreeDepth caps the number of frame levels below a root that are
// flattened into it. Non-positive values keep the default.
func WithMaxTreeDepth(depth int) Option {
	return func(ff *FormForest) {
		if depth > 0 {
			ff.maxDepth = depth
		}
	}
}

// WithSensitiveFieldTypes replaces the set of field types that may not be
// filled from the main frame's origin into other frames.
func WithSensitiveFieldTypes(fieldTypes ...form.FieldType) Option {
	return func(ff *FormForest) {
		set := make(map[form.FieldType]bool, len(fieldTypes))
		for _, t := range fieldTypes {
			set[t] = true
		}
		ff.isSensitive = func(t form.FieldType) bool { return set[t] }
	}
}

// FormForest holds the frame registry and implements the tree updates and
// form conversions.
type FormForest struct {
	frames      map[form.LocalFrameToken]*FrameData
	logger      Logger
	sink        types.EventSink
	maxDepth    int
	isSensitive func(form.FieldType) bool
}

// New returns an empty forest.
func New(opts ...Option) *FormForest {
	ff := &FormForest{
		frames:      make(map[form.LocalFrameToken]*FrameData),
		maxDepth:    DefaultMaxTreeDepth,
		isSensitive: form.FieldType.IsSensitive,
	}
	for _, opt := range opts {
		opt(ff)
	}
	return ff
}

// GetOrCreateFrame returns the node of token, creating an empty one if the
// frame is unknown.
func (ff *FormForest) GetOrCreateFrame(token form.LocalFrameToken) *FrameData {
	if f, ok := ff.frames[token]; ok {
		return f
	}
	f := &FrameData{Token: token}
	ff.frames[token] = f
	ff.emit(types.NewFrameCreatedEvent(token))
	return f
}

// Frame returns the node of token, or nil.
func (ff *FormForest) Frame(token form.LocalFrameToken) *FrameData {
	return ff.frames[token]
}

// Frames returns all frame nodes ordered by token. The result is a
// read-only view.
func (ff *FormForest) Frames() []*FrameData {
	frames := make([]*FrameData, 0, len(ff.frames))
	for _, f := range ff.frames {
		frames = append(frames, f)
	}
	sort.Slice(frames, func(i, j int) bool {
		return frames[i].Token.String() < frames[j].Token.String()
	})
	return frames
}

// Form returns the record of id, or nil.
func (ff *FormForest) Form(id form.FormGlobalID) *FormNode {
	f := ff.frames[id.Frame]
	if f == nil {
		return nil
	}
	if i := f.formIndex(id.Renderer); i >= 0 {
		return &f.Forms[i]
	}
	return nil
}

// Root returns the root form of id's tree.
func (ff *FormForest) Root(id form.FormGlobalID) (form.FormGlobalID, bool) {
	if ff.Form(id) == nil {
		return form.FormGlobalID{}, false
	}
	return ff.root(id), true
}

// Reset drops all state.
func (ff *FormForest) Reset() {
	ff.frames = make(map[form.LocalFrameToken]*FrameData)
	ff.emit(types.NewResetEvent())
}

// parentOf returns the form embedding id's frame, if that form is known.
func (ff *FormForest) parentOf(id form.FormGlobalID) (form.FormGlobalID, bool) {
	f := ff.frames[id.Frame]
	if f == nil || f.ParentForm == nil {
		return form.FormGlobalID{}, false
	}
	if ff.Form(*f.ParentForm) == nil {
		return form.FormGlobalID{}, false
	}
	return *f.ParentForm, true
}

func (ff *FormForest) root(id form.FormGlobalID) form.FormGlobalID {
	seen := map[form.FormGlobalID]bool{id: true}
	for {
		parent, ok := ff.parentOf(id)
		if !ok || seen[parent] {
			return id
		}
		seen[parent] = true
		id = parent
	}
}

// parentFrame returns the frame that embeds token through a known form.
func (ff *FormForest) parentFrame(token form.LocalFrameToken) (form.LocalFrameToken, bool) {
	f := ff.frames[token]
	if f == nil || f.ParentForm == nil || ff.Form(*f.ParentForm) == nil {
		return form.LocalFrameToken{}, false
	}
	return f.ParentForm.Frame, true
}

// isAncestorFrame reports whether candidate is token or one of its
// ancestors.
func (ff *FormForest) isAncestorFrame(candidate, token form.LocalFrameToken) bool {
	seen := make(map[form.LocalFrameToken]bool)
	for !seen[token] {
		if token == candidate {
			return true
		}
		seen[token] = true
		parent, ok := ff.parentFrame(token)
		if !ok {
			return false
		}
		token = parent
	}
	return false
}

func (ff *FormForest) emit(e *types.ForestEvent) {
	if ff.sink != nil {
		ff.sink(e)
	}
}

func (ff *FormForest) debugf(format string, v ...interface{}) {
	if ff.logger != nil {
		ff.logger.Debugf(format, v...)
	}
}

func (ff *FormForest) warnf(format string, v ...interface{}) {
	if ff.logger != nil {
		ff.logger.Warnf(format, v...)
	}
}
