package types

import "github.com/entrhq/formforest/pkg/autofill/form"

// ForestEventType defines the type of event emitted by the form forest.
type ForestEventType string

const (
	EventTypeFrameCreated  ForestEventType = "frame_created"  // EventTypeFrameCreated indicates a frame node was added to the registry.
	EventTypeFrameErased   ForestEventType = "frame_erased"   // EventTypeFrameErased indicates a frame node and its forms were removed.
	EventTypeFormAdded     ForestEventType = "form_added"     // EventTypeFormAdded indicates a form was seen for the first time.
	EventTypeFormUpdated   ForestEventType = "form_updated"   // EventTypeFormUpdated indicates a known form was replaced by a newer snapshot.
	EventTypeFormErased    ForestEventType = "form_erased"    // EventTypeFormErased indicates a single form was removed.
	EventTypeFrameLinked   ForestEventType = "frame_linked"   // EventTypeFrameLinked indicates a frame got a parent form.
	EventTypeFrameUnlinked ForestEventType = "frame_unlinked" // EventTypeFrameUnlinked indicates a frame lost its parent form.
	EventTypeReparse       ForestEventType = "reparse"        // EventTypeReparse indicates a parent form was reprocessed after a child announced itself.
	EventTypeRootRebuilt   ForestEventType = "root_rebuilt"   // EventTypeRootRebuilt indicates a root form's field list was recomputed.
	EventTypeDepthLimit    ForestEventType = "depth_limit"    // EventTypeDepthLimit indicates flattening stopped at the tree depth cap.
	EventTypeReset         ForestEventType = "reset"          // EventTypeReset indicates the forest was cleared.
)

// ForestEvent represents a structural change inside a form forest.
type ForestEvent struct {
	// Metadata holds optional additional information about the event.
	Metadata map[string]interface{}

	// Type indicates the kind of event.
	Type ForestEventType

	// Frame is the frame the event is about, if any.
	Frame form.LocalFrameToken

	// Form is the form the event is about, if any.
	Form form.FormGlobalID

	// ParentForm is the new or previous parent form for link events.
	ParentForm form.FormGlobalID

	// FieldCount is the number of fields of the root after a rebuild.
	FieldCount int
}

// EventSink receives forest events. Sinks are called synchronously from
// the forest's mutating operations and must not call back into the forest.
type EventSink func(*ForestEvent)

// NewFrameCreatedEvent creates a frame created event.
func NewFrameCreatedEvent(frame form.LocalFrameToken) *ForestEvent {
	return &ForestEvent{
		Type:     EventTypeFrameCreated,
		Frame:    frame,
		Metadata: make(map[string]interface{}),
	}
}

// NewFrameErasedEvent creates a frame erased event.
func NewFrameErasedEvent(frame form.LocalFrameToken, keptEmpty bool) *ForestEvent {
	return &ForestEvent{
		Type:     EventTypeFrameErased,
		Frame:    frame,
		Metadata: map[string]interface{}{"kept_empty": keptEmpty},
	}
}

// NewFormAddedEvent creates a form added event.
func NewFormAddedEvent(id form.FormGlobalID) *ForestEvent {
	return &ForestEvent{
		Type:     EventTypeFormAdded,
		Frame:    id.Frame,
		Form:     id,
		Metadata: make(map[string]interface{}),
	}
}

// NewFormUpdatedEvent creates a form updated event.
func NewFormUpdatedEvent(id form.FormGlobalID) *ForestEvent {
	return &ForestEvent{
		Type:     EventTypeFormUpdated,
		Frame:    id.Frame,
		Form:     id,
		Metadata: make(map[string]interface{}),
	}
}

// NewFormErasedEvent creates a form erased event.
func NewFormErasedEvent(id form.FormGlobalID) *ForestEvent {
	return &ForestEvent{
		Type:     EventTypeFormErased,
		Frame:    id.Frame,
		Form:     id,
		Metadata: make(map[string]interface{}),
	}
}

// NewFrameLinkedEvent creates a frame linked event.
func NewFrameLinkedEvent(frame form.LocalFrameToken, parent form.FormGlobalID) *ForestEvent {
	return &ForestEvent{
		Type:       EventTypeFrameLinked,
		Frame:      frame,
		ParentForm: parent,
		Metadata:   make(map[string]interface{}),
	}
}

// NewFrameUnlinkedEvent creates a frame unlinked event.
func NewFrameUnlinkedEvent(frame form.LocalFrameToken, oldParent form.FormGlobalID) *ForestEvent {
	return &ForestEvent{
		Type:       EventTypeFrameUnlinked,
		Frame:      frame,
		ParentForm: oldParent,
		Metadata:   make(map[string]interface{}),
	}
}

// NewReparseEvent creates a reparse event for the parent form that was
// reprocessed on behalf of child.
func NewReparseEvent(parent form.FormGlobalID, child form.LocalFrameToken) *ForestEvent {
	return &ForestEvent{
		Type:     EventTypeReparse,
		Frame:    child,
		Form:     parent,
		Metadata: make(map[string]interface{}),
	}
}

// NewRootRebuiltEvent creates a root rebuilt event.
func NewRootRebuiltEvent(root form.FormGlobalID, fieldCount int) *ForestEvent {
	return &ForestEvent{
		Type:       EventTypeRootRebuilt,
		Frame:      root.Frame,
		Form:       root,
		FieldCount: fieldCount,
		Metadata:   make(map[string]interface{}),
	}
}

// NewDepthLimitEvent creates a depth limit event for the frame at which
// traversal stopped.
func NewDepthLimitEvent(frame form.LocalFrameToken, depth int) *ForestEvent {
	return &ForestEvent{
		Type:     EventTypeDepthLimit,
		Frame:    frame,
		Metadata: map[string]interface{}{"depth": depth},
	}
}

// NewResetEvent creates a reset event.
func NewResetEvent() *ForestEvent {
	return &ForestEvent{
		Type:     EventTypeReset,
		Metadata: make(map[string]interface{}),
	}
}

// IsStructural reports whether the event changes which forms belong to
// which tree.
func (e *ForestEvent) IsStructural() bool {
	switch e.Type {
	case EventTypeFrameLinked, EventTypeFrameUnlinked, EventTypeFrameErased, EventTypeReset:
		return true
	default:
		return false
	}
}
