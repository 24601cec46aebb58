package browser

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/entrhq/formforest/pkg/autofill/driver"
	"github.com/entrhq/formforest/pkg/autofill/extract"
	"github.com/entrhq/formforest/pkg/autofill/form"
	"github.com/entrhq/formforest/pkg/autofill/formforest"
)

// FrameSnapshot holds the renderer forms extracted from one frame.
type FrameSnapshot struct {
	Driver  *driver.FrameDriver
	URL     string
	Forms   []form.FormData
	IFrames []extract.IFrame

	frame pageFrame
	// children maps iframe index to the child frame's token.
	children map[int]form.LocalFrameToken
}

// Snapshot is the frame tree of a page at one point in time, with a driver
// per frame. Frames are listed main frame first, parents before children.
type Snapshot struct {
	Tree   *driver.FrameTree
	Frames []*FrameSnapshot

	byToken map[form.LocalFrameToken]*FrameSnapshot
	logger  formforest.Logger
}

// Snapshot captures the current page. Cross-origin child frames are
// treated as cross-process, as under site isolation.
func (s *Session) Snapshot(logger formforest.Logger) (*Snapshot, error) {
	s.LastUsedAt = time.Now()
	return takeSnapshot(pwFrame{frame: s.Page.MainFrame()}, logger)
}

func takeSnapshot(main pageFrame, logger formforest.Logger) (*Snapshot, error) {
	snap := &Snapshot{
		Tree:    driver.NewFrameTree(),
		byToken: make(map[form.LocalFrameToken]*FrameSnapshot),
		logger:  logger,
	}

	origin := originOf(main.URL(), form.Origin{})
	d, err := snap.Tree.AddMainFrame(driver.FrameOptions{Name: "main", Origin: origin})
	if err != nil {
		return nil, err
	}
	root := snap.add(d, main)
	snap.addChildren(root, "main")

	for _, fs := range snap.Frames {
		if err := snap.extract(fs); err != nil {
			return nil, fmt.Errorf("frame %s (%s): %w", fs.Driver.Name(), fs.URL, err)
		}
	}
	return snap, nil
}

func (s *Snapshot) add(d *driver.FrameDriver, f pageFrame) *FrameSnapshot {
	fs := &FrameSnapshot{
		Driver:   d,
		URL:      f.URL(),
		frame:    f,
		children: make(map[int]form.LocalFrameToken),
	}
	s.Frames = append(s.Frames, fs)
	s.byToken[d.FrameToken()] = fs
	return fs
}

func (s *Snapshot) addChildren(parent *FrameSnapshot, name string) {
	for _, child := range parent.frame.Children() {
		index, err := child.IFrameIndex()
		if err != nil {
			s.warnf("skipping child frame %s of %s: %v", child.URL(), name, err)
			continue
		}
		allow, err := child.Allow()
		if err != nil {
			s.warnf("reading allow attribute of %s: %v", child.URL(), err)
		}

		origin := originOf(child.URL(), parent.Driver.Origin())
		childName := fmt.Sprintf("%s/%d", name, index)
		d, err := s.Tree.AddChild(parent.Driver.FrameToken(), driver.FrameOptions{
			Name:           childName,
			Origin:         origin,
			CrossProcess:   origin.IsZero() || origin != parent.Driver.Origin(),
			SharedAutofill: extract.AllowsSharedAutofill(allow),
		})
		if err != nil {
			s.warnf("skipping child frame %s: %v", childName, err)
			continue
		}
		parent.children[index] = d.FrameToken()
		s.addChildren(s.add(d, child), childName)
	}
}

func (s *Snapshot) extract(fs *FrameSnapshot) error {
	content, err := fs.frame.Content()
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}
	doc, err := extract.ParseString(content, extract.Options{
		Frame:           fs.Driver.FrameToken(),
		URL:             fs.URL,
		Origin:          fs.Driver.Origin(),
		MainFrameOrigin: fs.Driver.MainFrameOrigin(),
		ChildToken: func(iframe extract.IFrame) (form.FrameToken, bool) {
			child, ok := fs.children[iframe.Index]
			if !ok {
				return form.FrameToken{}, false
			}
			tok, err := s.Tree.ChildToken(child)
			return tok, err == nil
		},
	})
	if err != nil {
		return err
	}
	fs.Forms = doc.Forms
	fs.IFrames = doc.IFrames
	return nil
}

// Frame returns the snapshot of the frame with the given token.
func (s *Snapshot) Frame(token form.LocalFrameToken) (*FrameSnapshot, bool) {
	fs, ok := s.byToken[token]
	return fs, ok
}

// Apply feeds every extracted form into ff.
func (s *Snapshot) Apply(ff *formforest.FormForest) {
	for _, fs := range s.Frames {
		for _, f := range fs.Forms {
			ff.UpdateTreeOfRendererForm(f, fs.Driver)
		}
	}
}

// Fill writes the non-empty field values of renderer forms into their
// frames and returns the number of fields written.
func (s *Snapshot) Fill(forms []form.FormData) (int, error) {
	var errs []error
	filled := 0
	for _, f := range forms {
		fs, ok := s.byToken[f.HostFrame]
		if !ok {
			errs = append(errs, fmt.Errorf("form %s: frame not in snapshot", f.GlobalID()))
			continue
		}
		for _, field := range f.Fields {
			if field.Value == "" || field.Selector == "" {
				continue
			}
			if err := fs.frame.Fill(field.Selector, field.FormControlType, field.Value); err != nil {
				errs = append(errs, fmt.Errorf("field %s: %w", field.GlobalID(), err))
				continue
			}
			filled++
		}
	}
	return filled, errors.Join(errs...)
}

func (s *Snapshot) warnf(format string, v ...interface{}) {
	if s.logger != nil {
		s.logger.Warnf(format, v...)
	}
}

// originOf returns the origin of rawURL. about:blank and about:srcdoc
// documents inherit the embedder's origin; other URLs without a host, such
// as data: URLs, get an opaque origin.
func originOf(rawURL string, inherited form.Origin) form.Origin {
	if strings.HasPrefix(strings.ToLower(rawURL), "about:") {
		return inherited
	}
	o, err := form.ParseOrigin(rawURL)
	if err != nil {
		return form.Origin{}
	}
	return o
}
