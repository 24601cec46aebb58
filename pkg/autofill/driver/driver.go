// Package driver defines the per-frame handle the form forest uses to
// resolve child frame references and to query frame security properties.
package driver

import "github.com/entrhq/formforest/pkg/autofill/form"

// Driver is the autofill communication channel of one frame.
//
// Every method is a local lookup; none of them blocks.
type Driver interface {
	// FrameToken returns the current local token of the driver's frame.
	FrameToken() form.LocalFrameToken

	// Parent returns the driver of the embedding frame, or nil for the
	// main frame.
	Parent() Driver

	// Resolve maps a child frame reference observed in this frame's forms
	// to the child's current local token. Results must not be cached
	// across navigations of the child.
	Resolve(token form.FrameToken) (form.LocalFrameToken, bool)

	// IsInMainFrame reports whether the frame is the page's main frame.
	IsInMainFrame() bool

	// IsFencedFrameRoot reports whether the frame is the root of a fenced
	// frame tree.
	IsFencedFrameRoot() bool

	// HasSharedAutofillPermission reports whether the embedder granted the
	// frame the shared-autofill policy. Main frames always have it.
	HasSharedAutofillPermission() bool
}
