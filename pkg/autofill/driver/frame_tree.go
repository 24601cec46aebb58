package driver

import (
	"fmt"
	"sort"

	"github.com/entrhq/formforest/pkg/autofill/form"
)

// FrameOptions describes a frame added to a FrameTree.
type FrameOptions struct {
	// Name is an optional human-readable handle, unique within the tree.
	Name string

	Origin form.Origin

	// CrossProcess frames are referenced by their parent through a remote
	// placeholder instead of their local token.
	CrossProcess bool

	// Fenced marks the frame as the root of a fenced frame tree.
	Fenced bool

	// SharedAutofill records that the embedding element granted the
	// shared-autofill policy.
	SharedAutofill bool
}

type frameNode struct {
	opts        FrameOptions
	token       form.LocalFrameToken
	placeholder form.RemoteFrameToken
	parent      *frameNode
	children    []*frameNode
	removed     bool
}

// FrameTree is an in-memory page: a tree of frames with local tokens and
// the remote placeholders parents hold for their cross-process children.
// It hands out a Driver per frame.
//
// FrameTree is not safe for concurrent use.
type FrameTree struct {
	frames map[form.LocalFrameToken]*frameNode
	names  map[string]*frameNode
	main   *frameNode
}

// NewFrameTree returns an empty tree.
func NewFrameTree() *FrameTree {
	return &FrameTree{
		frames: make(map[form.LocalFrameToken]*frameNode),
		names:  make(map[string]*frameNode),
	}
}

// AddMainFrame creates the main frame. A tree has exactly one.
func (t *FrameTree) AddMainFrame(opts FrameOptions) (*FrameDriver, error) {
	if t.main != nil {
		return nil, fmt.Errorf("main frame already exists")
	}
	// The main frame has no embedder, so it has neither a placeholder nor
	// an embedder-granted policy.
	opts.CrossProcess = false
	opts.Fenced = false
	n, err := t.add(nil, opts)
	if err != nil {
		return nil, err
	}
	t.main = n
	return &FrameDriver{tree: t, node: n}, nil
}

// AddChild embeds a new frame in parent.
func (t *FrameTree) AddChild(parent form.LocalFrameToken, opts FrameOptions) (*FrameDriver, error) {
	p, ok := t.frames[parent]
	if !ok {
		return nil, fmt.Errorf("parent frame %s not found", parent.Short())
	}
	n, err := t.add(p, opts)
	if err != nil {
		return nil, err
	}
	p.children = append(p.children, n)
	return &FrameDriver{tree: t, node: n}, nil
}

func (t *FrameTree) add(parent *frameNode, opts FrameOptions) (*frameNode, error) {
	if opts.Name != "" {
		if _, exists := t.names[opts.Name]; exists {
			return nil, fmt.Errorf("frame name %q already in use", opts.Name)
		}
	}
	n := &frameNode{
		opts:   opts,
		token:  form.NewLocalFrameToken(),
		parent: parent,
	}
	if opts.CrossProcess {
		n.placeholder = form.NewRemoteFrameToken()
	}
	t.frames[n.token] = n
	if opts.Name != "" {
		t.names[opts.Name] = n
	}
	return n, nil
}

// SwapProcess moves a frame into a new render process, which assigns it a
// new local token. If the frame was already cross-process and stays so, the
// parent keeps its placeholder. If it becomes cross-process, the parent gets
// a fresh placeholder. If it becomes same-process, the placeholder is gone.
//
// Drivers handed out before the swap stay bound to the old frame: they keep
// reporting the old token and no longer resolve anything. Use Driver with
// the returned token to reach the new frame.
func (t *FrameTree) SwapProcess(token form.LocalFrameToken, crossProcess bool) (form.LocalFrameToken, error) {
	n, ok := t.frames[token]
	if !ok {
		return form.LocalFrameToken{}, fmt.Errorf("frame %s not found", token.Short())
	}
	if n.parent == nil && crossProcess {
		return form.LocalFrameToken{}, fmt.Errorf("main frame cannot be cross-process")
	}

	fresh := &frameNode{
		opts:        n.opts,
		token:       form.NewLocalFrameToken(),
		placeholder: n.placeholder,
		parent:      n.parent,
		children:    n.children,
	}
	switch {
	case crossProcess && !n.opts.CrossProcess:
		fresh.placeholder = form.NewRemoteFrameToken()
	case !crossProcess:
		fresh.placeholder = form.RemoteFrameToken{}
	}
	fresh.opts.CrossProcess = crossProcess

	for _, c := range fresh.children {
		c.parent = fresh
	}
	if p := n.parent; p != nil {
		for i, c := range p.children {
			if c == n {
				p.children[i] = fresh
				break
			}
		}
	} else {
		t.main = fresh
	}
	if n.opts.Name != "" {
		t.names[n.opts.Name] = fresh
	}

	n.removed = true
	n.children = nil
	delete(t.frames, token)
	t.frames[fresh.token] = fresh
	return fresh.token, nil
}

// Remove destroys a frame and all of its descendants. It returns the local
// tokens of the destroyed frames, deepest first.
func (t *FrameTree) Remove(token form.LocalFrameToken) ([]form.LocalFrameToken, error) {
	n, ok := t.frames[token]
	if !ok {
		return nil, fmt.Errorf("frame %s not found", token.Short())
	}

	var removed []form.LocalFrameToken
	var remove func(*frameNode)
	remove = func(n *frameNode) {
		for _, c := range n.children {
			remove(c)
		}
		n.removed = true
		delete(t.frames, n.token)
		if n.opts.Name != "" {
			delete(t.names, n.opts.Name)
		}
		removed = append(removed, n.token)
	}
	remove(n)

	if p := n.parent; p != nil {
		for i, c := range p.children {
			if c == n {
				p.children = append(p.children[:i], p.children[i+1:]...)
				break
			}
		}
	} else {
		t.main = nil
	}
	return removed, nil
}

// Driver returns the driver of the frame with the given token.
func (t *FrameTree) Driver(token form.LocalFrameToken) (*FrameDriver, bool) {
	n, ok := t.frames[token]
	if !ok {
		return nil, false
	}
	return &FrameDriver{tree: t, node: n}, true
}

// DriverByName returns the driver of the frame registered under name.
func (t *FrameTree) DriverByName(name string) (*FrameDriver, bool) {
	n, ok := t.names[name]
	if !ok {
		return nil, false
	}
	return &FrameDriver{tree: t, node: n}, true
}

// ChildToken returns the reference a parent frame's forms use for child:
// the child's local token for same-process children, the placeholder
// otherwise.
func (t *FrameTree) ChildToken(child form.LocalFrameToken) (form.FrameToken, error) {
	n, ok := t.frames[child]
	if !ok {
		return form.FrameToken{}, fmt.Errorf("frame %s not found", child.Short())
	}
	if n.parent == nil {
		return form.FrameToken{}, fmt.Errorf("frame %s is the main frame", child.Short())
	}
	if n.opts.CrossProcess {
		return form.RemoteToken(n.placeholder), nil
	}
	return form.LocalToken(n.token), nil
}

// Tokens returns the tokens of all live frames in a stable order.
func (t *FrameTree) Tokens() []form.LocalFrameToken {
	tokens := make([]form.LocalFrameToken, 0, len(t.frames))
	for tok := range t.frames {
		tokens = append(tokens, tok)
	}
	sort.Slice(tokens, func(i, j int) bool {
		return tokens[i].String() < tokens[j].String()
	})
	return tokens
}

// FrameDriver is the Driver of one frame in a FrameTree.
type FrameDriver struct {
	tree *FrameTree
	node *frameNode
}

var _ Driver = (*FrameDriver)(nil)

// FrameToken implements Driver.
func (d *FrameDriver) FrameToken() form.LocalFrameToken {
	return d.node.token
}

// Parent implements Driver.
func (d *FrameDriver) Parent() Driver {
	if d.node.parent == nil {
		return nil
	}
	return &FrameDriver{tree: d.tree, node: d.node.parent}
}

// Resolve implements Driver. Local tokens resolve while the frame is alive.
// Remote tokens resolve only through the frame that holds them, and always
// to the child's current local token.
func (d *FrameDriver) Resolve(token form.FrameToken) (form.LocalFrameToken, bool) {
	if d.node.removed {
		return form.LocalFrameToken{}, false
	}
	if local, ok := token.Local(); ok {
		if _, alive := d.tree.frames[local]; alive {
			return local, true
		}
		return form.LocalFrameToken{}, false
	}
	remote, _ := token.Remote()
	for _, c := range d.node.children {
		if c.opts.CrossProcess && c.placeholder == remote {
			return c.token, true
		}
	}
	return form.LocalFrameToken{}, false
}

// IsInMainFrame implements Driver.
func (d *FrameDriver) IsInMainFrame() bool {
	return d.node.parent == nil
}

// IsFencedFrameRoot implements Driver.
func (d *FrameDriver) IsFencedFrameRoot() bool {
	return d.node.opts.Fenced
}

// HasSharedAutofillPermission implements Driver.
func (d *FrameDriver) HasSharedAutofillPermission() bool {
	return d.node.parent == nil || d.node.opts.SharedAutofill
}

// Name returns the frame's name.
func (d *FrameDriver) Name() string {
	return d.node.opts.Name
}

// Origin returns the frame's origin.
func (d *FrameDriver) Origin() form.Origin {
	return d.node.opts.Origin
}

// MainFrameOrigin returns the origin of the tree's main frame.
func (d *FrameDriver) MainFrameOrigin() form.Origin {
	n := d.node
	for n.parent != nil {
		n = n.parent
	}
	return n.opts.Origin
}
