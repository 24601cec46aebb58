package form

import "fmt"

// FormRendererID is a form id unique within its frame. Renderer id 0 is the
// synthetic form that collects fields that have no <form> owner.
type FormRendererID uint64

// FieldRendererID is a field id unique within its frame.
type FieldRendererID uint64

// FormGlobalID identifies a form across frames.
type FormGlobalID struct {
	Frame    LocalFrameToken
	Renderer FormRendererID
}

func (id FormGlobalID) String() string {
	return fmt.Sprintf("%s/form-%d", id.Frame.Short(), id.Renderer)
}

// FieldGlobalID identifies a field across frames.
type FieldGlobalID struct {
	Frame    LocalFrameToken
	Renderer FieldRendererID
}

func (id FieldGlobalID) String() string {
	return fmt.Sprintf("%s/field-%d", id.Frame.Short(), id.Renderer)
}

// FormFieldData is a single form control as reported by a renderer.
type FormFieldData struct {
	// HostFrame is the frame that contains the field's DOM node.
	HostFrame LocalFrameToken

	// HostForm is the renderer id of the form that owns the field.
	HostForm FormRendererID

	// RendererID is the field's frame-local id.
	RendererID FieldRendererID

	// Origin is the origin of the host frame.
	Origin Origin

	Name            string
	IDAttribute     string
	Label           string
	FormControlType string
	Autocomplete    string

	// Selector locates the field inside its frame's document.
	Selector string

	Value        string
	IsAutofilled bool
}

// GlobalID returns the field's cross-frame identity.
func (f FormFieldData) GlobalID() FieldGlobalID {
	return FieldGlobalID{Frame: f.HostFrame, Renderer: f.RendererID}
}

// HostFormID returns the identity of the renderer form the field came from.
func (f FormFieldData) HostFormID() FormGlobalID {
	return FormGlobalID{Frame: f.HostFrame, Renderer: f.HostForm}
}

// FormData is a form snapshot. Renderer forms hold the fields and child
// frames of a single frame's form; browser forms hold the flattened fields
// of a whole frame-transcending form.
type FormData struct {
	HostFrame  LocalFrameToken
	RendererID FormRendererID

	Name   string
	URL    string
	Action string

	// MainFrameOrigin is the origin of the page's main frame.
	MainFrameOrigin Origin

	Fields      []FormFieldData
	ChildFrames []FrameTokenWithPredecessor
}

// GlobalID returns the form's cross-frame identity.
func (f FormData) GlobalID() FormGlobalID {
	return FormGlobalID{Frame: f.HostFrame, Renderer: f.RendererID}
}

// Clone returns a deep copy of f.
func (f FormData) Clone() FormData {
	c := f
	if f.Fields != nil {
		c.Fields = append([]FormFieldData(nil), f.Fields...)
	}
	if f.ChildFrames != nil {
		c.ChildFrames = append([]FrameTokenWithPredecessor(nil), f.ChildFrames...)
	}
	return c
}

// FieldByID returns the field with the given id.
func (f FormData) FieldByID(id FieldGlobalID) (FormFieldData, bool) {
	for _, field := range f.Fields {
		if field.GlobalID() == id {
			return field, true
		}
	}
	return FormFieldData{}, false
}
