package scenario

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/entrhq/formforest/pkg/autofill/classify"
	"github.com/entrhq/formforest/pkg/autofill/driver"
	"github.com/entrhq/formforest/pkg/autofill/extract"
	"github.com/entrhq/formforest/pkg/autofill/form"
	"github.com/entrhq/formforest/pkg/autofill/formforest"
)

// RunOptions configure a Runner.
type RunOptions struct {
	// Classifier types the fields of filled browser forms. Defaults to
	// classify.Default().
	Classifier *classify.Classifier

	// TrustAllOrigins disables the cross-origin fill policy.
	TrustAllOrigins bool

	Logger formforest.Logger
}

// StepResult records the outcome of one step.
type StepResult struct {
	Index  int
	Kind   string
	Frame  string
	Detail string

	// BrowserForm is set by expect and fill steps that found their form.
	BrowserForm *form.FormData

	// RendererForms holds the filtered renderer forms of a fill step.
	RendererForms []form.FormData

	// Filled lists the names of fields a fill step wrote a value to.
	Filled []string
}

type frameState struct {
	url     string
	html    string
	token   form.LocalFrameToken
	removed bool
	doc     *extract.Document

	// iframes maps iframe index in this frame's document to the name of
	// the child frame loaded into it.
	iframes map[int]string
}

// Runner replays a scenario against a forest.
type Runner struct {
	scenario   *Scenario
	forest     *formforest.FormForest
	tree       *driver.FrameTree
	classifier *classify.Classifier
	opts       RunOptions
	frames     map[string]*frameState
}

// NewRunner builds the scenario's frame tree. Forms are not submitted
// until an update step names their frame.
func NewRunner(s *Scenario, ff *formforest.FormForest, opts RunOptions) (*Runner, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	r := &Runner{
		scenario:   s,
		forest:     ff,
		tree:       driver.NewFrameTree(),
		classifier: opts.Classifier,
		opts:       opts,
		frames:     make(map[string]*frameState, len(s.Frames)),
	}
	if r.classifier == nil {
		r.classifier = classify.Default()
	}

	siblings := make(map[string]int)
	for i, decl := range s.Frames {
		fo := driver.FrameOptions{
			Name:           decl.Name,
			Origin:         form.MustParseOrigin(decl.URL),
			CrossProcess:   decl.CrossProcess,
			Fenced:         decl.Fenced,
			SharedAutofill: decl.SharedAutofill,
		}

		var d *driver.FrameDriver
		var err error
		if i == 0 {
			d, err = r.tree.AddMainFrame(fo)
		} else {
			parent := r.frames[decl.Parent]
			index := siblings[decl.Parent]
			if decl.IFrame != nil {
				index = *decl.IFrame
			}
			siblings[decl.Parent]++
			if other, taken := parent.iframes[index]; taken {
				return nil, fmt.Errorf("frame %q: iframe %d of %q already holds %q", decl.Name, index, decl.Parent, other)
			}
			parent.iframes[index] = decl.Name
			d, err = r.tree.AddChild(parent.token, fo)
		}
		if err != nil {
			return nil, fmt.Errorf("frame %q: %w", decl.Name, err)
		}

		r.frames[decl.Name] = &frameState{
			url:     decl.URL,
			html:    decl.HTML,
			token:   d.FrameToken(),
			iframes: make(map[int]string),
		}
	}
	return r, nil
}

// Tree returns the runner's frame tree.
func (r *Runner) Tree() *driver.FrameTree {
	return r.tree
}

// Token returns the current local token of a declared frame.
func (r *Runner) Token(frame string) (form.LocalFrameToken, bool) {
	fs, ok := r.frames[frame]
	if !ok {
		return form.LocalFrameToken{}, false
	}
	return fs.token, true
}

// Run executes all steps in order and stops at the first failing one. The
// results of the steps that ran are returned either way.
func (r *Runner) Run(ctx context.Context) ([]StepResult, error) {
	var results []StepResult
	for i, step := range r.scenario.Steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := r.Step(step)
		res.Index = i + 1
		results = append(results, res)
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, step.Kind(), err)
		}
		if r.opts.Logger != nil {
			r.opts.Logger.Debugf("step %d %s %s: %s", res.Index, res.Kind, res.Frame, res.Detail)
		}
	}
	return results, nil
}

// Step executes a single step.
func (r *Runner) Step(step Step) (StepResult, error) {
	res := StepResult{Kind: step.Kind()}
	var err error
	switch {
	case step.Update != "":
		res.Frame = step.Update
		err = r.update(step.Update, &res)
	case step.Erase != "":
		res.Frame = step.Erase
		err = r.erase(step.Erase, &res)
	case step.Swap != nil:
		res.Frame = step.Swap.Frame
		err = r.swap(step.Swap, &res)
	case step.Navigate != nil:
		res.Frame = step.Navigate.Frame
		err = r.navigate(step.Navigate, &res)
	case step.Expect != nil:
		res.Frame = step.Expect.Frame
		err = r.expect(step.Expect, &res)
	case step.Fill != nil:
		res.Frame = step.Fill.Frame
		err = r.fill(step.Fill, &res)
	default:
		err = fmt.Errorf("empty step")
	}
	return res, err
}

func (r *Runner) live(name string) (*frameState, error) {
	fs, ok := r.frames[name]
	if !ok {
		return nil, fmt.Errorf("unknown frame %q", name)
	}
	if fs.removed {
		return nil, fmt.Errorf("frame %q was erased", name)
	}
	return fs, nil
}

func (r *Runner) update(name string, res *StepResult) error {
	fs, err := r.live(name)
	if err != nil {
		return err
	}
	d, ok := r.tree.Driver(fs.token)
	if !ok {
		return fmt.Errorf("frame %q has no driver", name)
	}

	doc, err := extract.ParseString(fs.html, extract.Options{
		Frame:           fs.token,
		URL:             fs.url,
		Origin:          d.Origin(),
		MainFrameOrigin: d.MainFrameOrigin(),
		ChildToken: func(iframe extract.IFrame) (form.FrameToken, bool) {
			child, ok := r.frames[fs.iframes[iframe.Index]]
			if !ok || child.removed {
				return form.FrameToken{}, false
			}
			tok, err := r.tree.ChildToken(child.token)
			return tok, err == nil
		},
	})
	if err != nil {
		return fmt.Errorf("failed to extract forms of %q: %w", name, err)
	}
	fs.doc = doc

	for _, f := range doc.Forms {
		r.forest.UpdateTreeOfRendererForm(f, d)
	}
	res.Detail = fmt.Sprintf("submitted %d form(s)", len(doc.Forms))
	return nil
}

func (r *Runner) erase(name string, res *StepResult) error {
	fs, err := r.live(name)
	if err != nil {
		return err
	}
	removed, err := r.tree.Remove(fs.token)
	if err != nil {
		return err
	}

	gone := make(map[form.LocalFrameToken]bool, len(removed))
	for _, tok := range removed {
		r.forest.EraseFrame(tok)
		gone[tok] = true
	}
	for _, other := range r.frames {
		if gone[other.token] {
			other.removed = true
		}
	}
	res.Detail = fmt.Sprintf("erased %d frame(s)", len(removed))
	return nil
}

func (r *Runner) swap(step *SwapStep, res *StepResult) error {
	fs, err := r.live(step.Frame)
	if err != nil {
		return err
	}
	old := fs.token
	tok, err := r.tree.SwapProcess(old, step.CrossProcess)
	if err != nil {
		return err
	}
	r.forest.EraseFrame(old)
	fs.token = tok
	fs.doc = nil
	res.Detail = fmt.Sprintf("%s -> %s", old.Short(), tok.Short())
	return nil
}

func (r *Runner) navigate(step *NavigateStep, res *StepResult) error {
	fs, err := r.live(step.Frame)
	if err != nil {
		return err
	}
	if step.URL != "" {
		o, err := form.ParseOrigin(step.URL)
		if err != nil {
			return err
		}
		if d, ok := r.tree.Driver(fs.token); ok && o != d.Origin() {
			return fmt.Errorf("navigation of %q to %s leaves origin %s; swap the frame instead", step.Frame, o, d.Origin())
		}
		fs.url = step.URL
	}
	fs.html = step.HTML
	fs.doc = nil
	r.forest.EraseFormsOfFrame(fs.token, true)
	res.Detail = "document replaced"
	return nil
}

// rendererForm resolves a form reference to the identity the forest knows
// it by. Without an explicit renderer id the frame's last parsed document
// decides.
func (r *Runner) rendererForm(ref FormRef) (form.FormData, error) {
	fs, ok := r.frames[ref.Frame]
	if !ok {
		return form.FormData{}, fmt.Errorf("unknown frame %q", ref.Frame)
	}
	if ref.Form != nil {
		return form.FormData{HostFrame: fs.token, RendererID: form.FormRendererID(*ref.Form)}, nil
	}
	if fs.doc == nil {
		return form.FormData{}, fmt.Errorf("frame %q has no parsed document; name a form", ref.Frame)
	}
	for _, f := range fs.doc.Forms {
		if f.RendererID != extract.UnownedFormID {
			return f, nil
		}
	}
	if len(fs.doc.Forms) > 0 {
		return fs.doc.Forms[0], nil
	}
	return form.FormData{}, fmt.Errorf("frame %q has no forms", ref.Frame)
}

func (r *Runner) expect(step *ExpectStep, res *StepResult) error {
	rf, err := r.rendererForm(step.FormRef)
	if err != nil {
		if step.Missing {
			res.Detail = "missing"
			return nil
		}
		return err
	}

	bf, ok := r.forest.GetBrowserFormOfRendererForm(rf)
	if step.Missing {
		if ok {
			return fmt.Errorf("expected form %s to be unknown, found browser form %s", rf.GlobalID(), bf.GlobalID())
		}
		res.Detail = "missing"
		return nil
	}
	if !ok {
		return fmt.Errorf("form %s is unknown", rf.GlobalID())
	}
	res.BrowserForm = &bf

	names := fieldNames(bf.Fields)
	res.Detail = fmt.Sprintf("[%s]", strings.Join(names, " "))
	if step.Fields != nil && !slices.Equal(names, step.Fields) {
		return fmt.Errorf("browser form %s has fields [%s], expected [%s]",
			bf.GlobalID(), strings.Join(names, " "), strings.Join(step.Fields, " "))
	}
	return nil
}

func (r *Runner) fill(step *FillStep, res *StepResult) error {
	rf, err := r.rendererForm(step.FormRef)
	if err != nil {
		return err
	}
	bf, ok := r.forest.GetBrowserFormOfRendererForm(rf)
	if !ok {
		return fmt.Errorf("form %s is unknown", rf.GlobalID())
	}
	res.BrowserForm = &bf

	triggerFrame := step.TriggerFrame
	if triggerFrame == "" {
		triggerFrame = step.Frame
	}
	trigger, err := r.trigger(bf, triggerFrame, step.Trigger)
	if err != nil {
		return err
	}

	fieldTypes := r.classifier.ClassifyForm(bf)
	filled := bf.Clone()
	for i := range filled.Fields {
		field := &filled.Fields[i]
		field.Value = r.scenario.Profile[fieldTypes.Lookup(field.GlobalID())]
		field.IsAutofilled = field.Value != ""
	}

	forms, _ := r.forest.GetRendererFormsOfBrowserForm(filled, formforest.SecurityOptions{
		TriggeredOrigin: trigger.Origin,
		TriggeredField:  trigger.GlobalID(),
		FieldTypeMap:    fieldTypes,
		TrustAllOrigins: r.opts.TrustAllOrigins,
	})
	res.RendererForms = forms

	for _, f := range forms {
		for _, field := range f.Fields {
			if field.Value != "" {
				res.Filled = append(res.Filled, field.Name)
			}
		}
	}
	res.Detail = fmt.Sprintf("filled [%s]", strings.Join(res.Filled, " "))

	if step.Filled != nil && !slices.Equal(res.Filled, step.Filled) {
		return fmt.Errorf("filled [%s], expected [%s]",
			strings.Join(res.Filled, " "), strings.Join(step.Filled, " "))
	}
	return nil
}

// trigger finds the field named name hosted by frame in a browser form. An
// empty name picks the frame's first field.
func (r *Runner) trigger(bf form.FormData, frame, name string) (form.FormFieldData, error) {
	fs, ok := r.frames[frame]
	if !ok {
		return form.FormFieldData{}, fmt.Errorf("unknown frame %q", frame)
	}
	for _, field := range bf.Fields {
		if field.HostFrame != fs.token {
			continue
		}
		if name == "" || field.Name == name {
			return field, nil
		}
	}
	return form.FormFieldData{}, fmt.Errorf("no field %q of frame %q in browser form %s", name, frame, bf.GlobalID())
}

func fieldNames(fields []form.FormFieldData) []string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name)
	}
	return names
}
