package formforest

import (
	"github.com/entrhq/formforest/pkg/autofill/form"
)

// SecurityOptions controls which browser form values may flow back into
// which renderer forms.
type SecurityOptions struct {
	// TriggeredOrigin is the origin of the field on which autofill was
	// triggered.
	TriggeredOrigin form.Origin

	// TriggeredField is the field on which autofill was triggered. If it is
	// zero the browser form's host frame is used as the trigger frame.
	TriggeredField form.FieldGlobalID

	// FieldTypeMap holds the classified type of each browser form field.
	FieldTypeMap form.FieldTypeMap

	// TrustAllOrigins disables the policy entirely.
	TrustAllOrigins bool
}

type securityContext struct {
	ff           *FormForest
	opts         SecurityOptions
	mainOrigin   form.Origin
	triggerFrame form.LocalFrameToken
}

func (ff *FormForest) newSecurityContext(browserForm form.FormData, opts SecurityOptions) *securityContext {
	trigger := opts.TriggeredField.Frame
	if trigger.IsZero() {
		trigger = browserForm.HostFrame
	}
	return &securityContext{
		ff:           ff,
		opts:         opts,
		mainOrigin:   browserForm.MainFrameOrigin,
		triggerFrame: trigger,
	}
}

// isSafeToFill decides whether field may receive a value.
//
// A field in the triggering origin is always safe. Opaque origins match
// nothing outside the trigger's own frame. Otherwise the field must
// be either in the main frame's origin with a non-sensitive type, or the
// trigger must be in the main frame's origin and the field's frame must
// have the shared-autofill permission. In both cases no frame on the path
// from the trigger frame to the field's frame, other than the shallowest
// one, may be a fenced frame root.
func (c *securityContext) isSafeToFill(field form.FormFieldData) bool {
	if c.opts.TrustAllOrigins {
		return true
	}
	// Opaque origins carry no identity of their own, so an opaque field
	// only matches the trigger when both live in the same frame.
	opaque := field.Origin.IsZero()
	if field.Origin == c.opts.TriggeredOrigin && (!opaque || field.HostFrame == c.triggerFrame) {
		return true
	}

	mainOriginAndSafeType := !opaque && field.Origin == c.mainOrigin &&
		!c.ff.isSensitive(c.opts.FieldTypeMap.Lookup(field.GlobalID()))
	sharedAutofill := !c.opts.TriggeredOrigin.IsZero() && c.opts.TriggeredOrigin == c.mainOrigin &&
		c.ff.hasSharedAutofillPermission(field.HostFrame)

	if !mainOriginAndSafeType && !sharedAutofill {
		return false
	}
	return !c.ff.crossesFencedBoundary(c.triggerFrame, field.HostFrame)
}

func (ff *FormForest) hasSharedAutofillPermission(token form.LocalFrameToken) bool {
	frame := ff.frames[token]
	if frame == nil || frame.Driver == nil {
		return false
	}
	return frame.Driver.IsInMainFrame() || frame.Driver.HasSharedAutofillPermission()
}

func (ff *FormForest) isFencedFrameRoot(token form.LocalFrameToken) bool {
	frame := ff.frames[token]
	return frame != nil && frame.Driver != nil && frame.Driver.IsFencedFrameRoot()
}

// ancestry returns token followed by its ancestors, nearest first.
func (ff *FormForest) ancestry(token form.LocalFrameToken) []form.LocalFrameToken {
	chain := []form.LocalFrameToken{token}
	seen := map[form.LocalFrameToken]bool{token: true}
	for len(chain) <= ff.maxDepth {
		parent, ok := ff.parentFrame(token)
		if !ok || seen[parent] {
			break
		}
		seen[parent] = true
		chain = append(chain, parent)
		token = parent
	}
	return chain
}

// crossesFencedBoundary reports whether a frame on the shortest path from
// a to b, other than the shallowest frame of that path, is a fenced frame
// root.
func (ff *FormForest) crossesFencedBoundary(a, b form.LocalFrameToken) bool {
	fromA := ff.ancestry(a)
	fromB := ff.ancestry(b)

	onA := make(map[form.LocalFrameToken]int, len(fromA))
	for i, tok := range fromA {
		onA[tok] = i
	}

	// Walk up from b until the chains meet; the meeting frame is the
	// shallowest frame of the path and is exempt.
	lcaOnA, lcaOnB := len(fromA), len(fromB)
	for j, tok := range fromB {
		if i, ok := onA[tok]; ok {
			lcaOnA, lcaOnB = i, j
			break
		}
	}

	for _, tok := range fromA[:lcaOnA] {
		if ff.isFencedFrameRoot(tok) {
			return true
		}
	}
	for _, tok := range fromB[:lcaOnB] {
		if ff.isFencedFrameRoot(tok) {
			return true
		}
	}
	return false
}
