package types

import (
	"testing"

	"github.com/entrhq/formforest/pkg/autofill/form"
)

func TestForestEventType(t *testing.T) {
	tests := []struct {
		eventType ForestEventType
		name      string
		expected  string
	}{
		{name: "frame_created", eventType: EventTypeFrameCreated, expected: "frame_created"},
		{name: "frame_erased", eventType: EventTypeFrameErased, expected: "frame_erased"},
		{name: "form_added", eventType: EventTypeFormAdded, expected: "form_added"},
		{name: "form_updated", eventType: EventTypeFormUpdated, expected: "form_updated"},
		{name: "form_erased", eventType: EventTypeFormErased, expected: "form_erased"},
		{name: "frame_linked", eventType: EventTypeFrameLinked, expected: "frame_linked"},
		{name: "frame_unlinked", eventType: EventTypeFrameUnlinked, expected: "frame_unlinked"},
		{name: "reparse", eventType: EventTypeReparse, expected: "reparse"},
		{name: "root_rebuilt", eventType: EventTypeRootRebuilt, expected: "root_rebuilt"},
		{name: "depth_limit", eventType: EventTypeDepthLimit, expected: "depth_limit"},
		{name: "reset", eventType: EventTypeReset, expected: "reset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.eventType) != tt.expected {
				t.Errorf("Expected event type %q, got %q", tt.expected, string(tt.eventType))
			}
		})
	}
}

func TestNewFrameLinkedEvent(t *testing.T) {
	frame := form.NewLocalFrameToken()
	parent := form.FormGlobalID{Frame: form.NewLocalFrameToken(), Renderer: 4}

	event := NewFrameLinkedEvent(frame, parent)

	if event.Type != EventTypeFrameLinked {
		t.Errorf("Expected type %s, got %s", EventTypeFrameLinked, event.Type)
	}
	if event.Frame != frame {
		t.Errorf("Expected frame %s, got %s", frame, event.Frame)
	}
	if event.ParentForm != parent {
		t.Errorf("Expected parent %s, got %s", parent, event.ParentForm)
	}
	if event.Metadata == nil {
		t.Error("Expected metadata to be initialized")
	}
	if !event.IsStructural() {
		t.Error("Expected link event to be structural")
	}
}

func TestNewRootRebuiltEvent(t *testing.T) {
	root := form.FormGlobalID{Frame: form.NewLocalFrameToken(), Renderer: 1}

	event := NewRootRebuiltEvent(root, 7)

	if event.Form != root || event.Frame != root.Frame {
		t.Errorf("Expected root %s, got form %s frame %s", root, event.Form, event.Frame)
	}
	if event.FieldCount != 7 {
		t.Errorf("Expected 7 fields, got %d", event.FieldCount)
	}
	if event.IsStructural() {
		t.Error("Root rebuild should not be structural")
	}
}

func TestMetadataEvents(t *testing.T) {
	frame := form.NewLocalFrameToken()

	erased := NewFrameErasedEvent(frame, true)
	if kept, ok := erased.Metadata["kept_empty"].(bool); !ok || !kept {
		t.Errorf("Expected kept_empty=true, got %v", erased.Metadata["kept_empty"])
	}

	limit := NewDepthLimitEvent(frame, 64)
	if depth, ok := limit.Metadata["depth"].(int); !ok || depth != 64 {
		t.Errorf("Expected depth=64, got %v", limit.Metadata["depth"])
	}

	if NewResetEvent().Type != EventTypeReset {
		t.Error("Expected reset event type")
	}
}
