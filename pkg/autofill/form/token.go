// Package form defines the renderer-side data model shared by the autofill
// packages: frame tokens, form and field identities, origins, and the form
// snapshots that renderers report.
package form

import (
	"fmt"

	"github.com/google/uuid"
)

// LocalFrameToken identifies a frame for the lifetime of the render process
// that hosts it. A process swap gives the frame a new LocalFrameToken.
type LocalFrameToken uuid.UUID

// RemoteFrameToken is an opaque placeholder a parent frame holds for a
// cross-process child. It is only meaningful to the frame that issued it.
type RemoteFrameToken uuid.UUID

// NewLocalFrameToken returns a fresh random local token.
func NewLocalFrameToken() LocalFrameToken {
	return LocalFrameToken(uuid.New())
}

// NewRemoteFrameToken returns a fresh random remote token.
func NewRemoteFrameToken() RemoteFrameToken {
	return RemoteFrameToken(uuid.New())
}

// IsZero reports whether the token is unset.
func (t LocalFrameToken) IsZero() bool {
	return uuid.UUID(t) == uuid.Nil
}

func (t LocalFrameToken) String() string {
	return uuid.UUID(t).String()
}

// Short returns the first eight hex digits, used in dumps and log lines.
func (t LocalFrameToken) Short() string {
	return t.String()[:8]
}

// IsZero reports whether the token is unset.
func (t RemoteFrameToken) IsZero() bool {
	return uuid.UUID(t) == uuid.Nil
}

func (t RemoteFrameToken) String() string {
	return uuid.UUID(t).String()
}

// FrameToken is a reference to a child frame as seen from inside a form.
// It holds either a LocalFrameToken or a RemoteFrameToken.
type FrameToken struct {
	local    LocalFrameToken
	remote   RemoteFrameToken
	isRemote bool
}

// LocalToken wraps a local token.
func LocalToken(t LocalFrameToken) FrameToken {
	return FrameToken{local: t}
}

// RemoteToken wraps a remote placeholder.
func RemoteToken(t RemoteFrameToken) FrameToken {
	return FrameToken{remote: t, isRemote: true}
}

// IsRemote reports whether the token is a cross-process placeholder.
func (t FrameToken) IsRemote() bool {
	return t.isRemote
}

// Local returns the local token and true if t holds one.
func (t FrameToken) Local() (LocalFrameToken, bool) {
	if t.isRemote {
		return LocalFrameToken{}, false
	}
	return t.local, true
}

// Remote returns the remote token and true if t holds one.
func (t FrameToken) Remote() (RemoteFrameToken, bool) {
	if !t.isRemote {
		return RemoteFrameToken{}, false
	}
	return t.remote, true
}

func (t FrameToken) String() string {
	if t.isRemote {
		return fmt.Sprintf("remote:%s", t.remote)
	}
	return fmt.Sprintf("local:%s", t.local)
}

// FrameTokenWithPredecessor is a child frame reference inside a form.
// Predecessor is the index of the form field that precedes the frame in
// document order, or -1 if the frame comes before all fields.
type FrameTokenWithPredecessor struct {
	Token       FrameToken
	Predecessor int
}
