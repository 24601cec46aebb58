// Package extract turns the HTML document of one frame into renderer forms.
//
// Every <form> element becomes a form with renderer id equal to its 1-based
// position in the document. Controls outside any form, and iframes outside
// any form, are collected into a synthetic form with renderer id 0. Field
// renderer ids count controls in document order starting at 1, so they are
// unique within the frame.
//
// An iframe becomes a child frame reference of the form that owns it, with
// the index of the owning form's last preceding field as its predecessor.
package extract

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/entrhq/formforest/pkg/autofill/form"
)

// UnownedFormID is the renderer id of the synthetic form that collects
// controls outside any <form> element.
const UnownedFormID form.FormRendererID = 0

// IFrame describes an <iframe> element of the document.
type IFrame struct {
	// Index is the iframe's position among the document's iframes.
	Index          int
	Name           string
	Src            string
	SharedAutofill bool
	Owner          form.FormRendererID
	Predecessor    int
}

// ChildTokenFunc returns the token by which the parsed frame refers to the
// child frame loaded into iframe, or false if the child is not known.
type ChildTokenFunc func(iframe IFrame) (form.FrameToken, bool)

// Options describe the frame whose document is parsed.
type Options struct {
	Frame           form.LocalFrameToken
	URL             string
	Origin          form.Origin
	MainFrameOrigin form.Origin
	ChildToken      ChildTokenFunc
}

// Document is the result of parsing one frame's HTML.
type Document struct {
	Forms   []form.FormData
	IFrames []IFrame
}

// Form returns the form with the given renderer id.
func (d *Document) Form(id form.FormRendererID) (form.FormData, bool) {
	for _, f := range d.Forms {
		if f.RendererID == id {
			return f, true
		}
	}
	return form.FormData{}, false
}

// ParseString parses an HTML document held in a string.
func ParseString(s string, opts Options) (*Document, error) {
	return Parse(strings.NewReader(s), opts)
}

// Parse reads an HTML document and extracts its forms.
func Parse(r io.Reader, opts Options) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	if opts.Frame.IsZero() {
		return nil, fmt.Errorf("frame token is required")
	}

	p := &parser{
		opts:   opts,
		labels: collectLabels(root),
		forms:  make(map[*html.Node]*form.FormData),
		byID:   make(map[string]*html.Node),
	}
	p.indexForms(root)
	p.walk(root, nil, "")
	return p.document(), nil
}

type parser struct {
	opts   Options
	labels map[string]string

	forms     map[*html.Node]*form.FormData
	byID      map[string]*html.Node
	ordered   []*form.FormData
	unowned   *form.FormData
	iframes   []IFrame
	nextField form.FieldRendererID
}

// indexForms assigns renderer ids to <form> elements in document order.
func (p *parser) indexForms(n *html.Node) {
	if n.Type == html.ElementNode && n.DataAtom == atom.Form {
		f := &form.FormData{
			HostFrame:       p.opts.Frame,
			RendererID:      form.FormRendererID(len(p.ordered) + 1),
			Name:            firstNonEmpty(attr(n, "name"), attr(n, "id")),
			URL:             p.opts.URL,
			Action:          p.resolve(attr(n, "action")),
			MainFrameOrigin: p.opts.MainFrameOrigin,
		}
		p.forms[n] = f
		p.ordered = append(p.ordered, f)
		if id := attr(n, "id"); id != "" {
			p.byID[id] = n
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.indexForms(c)
	}
}

// walk visits the document in order. owner is the nearest enclosing form
// element and label the text of the nearest enclosing <label>.
func (p *parser) walk(n *html.Node, owner *html.Node, label string) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Form:
			owner = n
		case atom.Label:
			label = collectText(n)
		case atom.Input, atom.Select, atom.Textarea:
			if isFillable(n) {
				p.addField(n, owner, label)
			}
			return
		case atom.Iframe:
			p.addIFrame(n, owner)
			return
		case atom.Script, atom.Style, atom.Template:
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c, owner, label)
	}
}

// ownerForm honors the form attribute before the enclosing form element.
func (p *parser) ownerForm(n, enclosing *html.Node) *form.FormData {
	if id := attr(n, "form"); id != "" {
		if fn, ok := p.byID[id]; ok {
			return p.forms[fn]
		}
		return p.unownedForm()
	}
	if enclosing != nil {
		return p.forms[enclosing]
	}
	return p.unownedForm()
}

func (p *parser) unownedForm() *form.FormData {
	if p.unowned == nil {
		p.unowned = &form.FormData{
			HostFrame:       p.opts.Frame,
			RendererID:      UnownedFormID,
			URL:             p.opts.URL,
			MainFrameOrigin: p.opts.MainFrameOrigin,
		}
	}
	return p.unowned
}

func (p *parser) addField(n, enclosing *html.Node, enclosingLabel string) {
	f := p.ownerForm(n, enclosing)
	p.nextField++

	id := attr(n, "id")
	label := p.labels[id]
	if label == "" {
		label = enclosingLabel
	}
	if label == "" {
		label = firstNonEmpty(attr(n, "aria-label"), attr(n, "placeholder"))
	}

	f.Fields = append(f.Fields, form.FormFieldData{
		HostFrame:       p.opts.Frame,
		HostForm:        f.RendererID,
		RendererID:      p.nextField,
		Origin:          p.opts.Origin,
		Name:            attr(n, "name"),
		IDAttribute:     id,
		Label:           label,
		FormControlType: controlType(n),
		Autocomplete:    attr(n, "autocomplete"),
		Selector:        selector(n),
		Value:           value(n),
	})
}

func (p *parser) addIFrame(n, enclosing *html.Node) {
	f := p.ownerForm(n, enclosing)
	iframe := IFrame{
		Index:          len(p.iframes),
		Name:           attr(n, "name"),
		Src:            p.resolve(attr(n, "src")),
		SharedAutofill: AllowsSharedAutofill(attr(n, "allow")),
		Owner:          f.RendererID,
		Predecessor:    len(f.Fields) - 1,
	}
	p.iframes = append(p.iframes, iframe)

	if p.opts.ChildToken == nil {
		return
	}
	token, ok := p.opts.ChildToken(iframe)
	if !ok {
		return
	}
	f.ChildFrames = append(f.ChildFrames, form.FrameTokenWithPredecessor{
		Token:       token,
		Predecessor: iframe.Predecessor,
	})
}

func (p *parser) document() *Document {
	doc := &Document{IFrames: p.iframes}
	if p.unowned != nil {
		doc.Forms = append(doc.Forms, *p.unowned)
	}
	for _, f := range p.ordered {
		doc.Forms = append(doc.Forms, *f)
	}
	return doc
}

func (p *parser) resolve(ref string) string {
	if ref == "" || p.opts.URL == "" {
		return ref
	}
	base, err := url.Parse(p.opts.URL)
	if err != nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

// collectLabels maps the for attribute of every <label> to its text.
func collectLabels(root *html.Node) map[string]string {
	labels := make(map[string]string)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Label {
			if id := attr(n, "for"); id != "" {
				labels[id] = collectText(n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return labels
}

func isFillable(n *html.Node) bool {
	if n.DataAtom != atom.Input {
		return true
	}
	switch strings.ToLower(attr(n, "type")) {
	case "hidden", "submit", "button", "reset", "image", "file":
		return false
	}
	return true
}

func controlType(n *html.Node) string {
	switch n.DataAtom {
	case atom.Select:
		if hasAttr(n, "multiple") {
			return "select-multiple"
		}
		return "select-one"
	case atom.Textarea:
		return "textarea"
	}
	if t := strings.ToLower(attr(n, "type")); t != "" {
		return t
	}
	return "text"
}

func value(n *html.Node) string {
	switch n.DataAtom {
	case atom.Textarea:
		return collectRawText(n)
	case atom.Select:
		var first, selected string
		var haveFirst, found bool
		var walk func(*html.Node)
		walk = func(c *html.Node) {
			if c.Type == html.ElementNode && c.DataAtom == atom.Option {
				v := attr(c, "value")
				if !hasAttr(c, "value") {
					v = collectText(c)
				}
				if !haveFirst {
					first, haveFirst = v, true
				}
				if !found && hasAttr(c, "selected") {
					selected, found = v, true
				}
			}
			for cc := c.FirstChild; cc != nil; cc = cc.NextSibling {
				walk(cc)
			}
		}
		walk(n)
		if found {
			return selected
		}
		return first
	}
	switch strings.ToLower(attr(n, "type")) {
	case "checkbox", "radio":
		if !hasAttr(n, "checked") {
			return ""
		}
	}
	return attr(n, "value")
}

// AllowsSharedAutofill reports whether a permissions policy allow attribute
// grants shared-autofill, e.g. "payment; shared-autofill".
func AllowsSharedAutofill(allow string) bool {
	for _, directive := range strings.Split(allow, ";") {
		fields := strings.Fields(directive)
		if len(fields) > 0 && strings.EqualFold(fields[0], "shared-autofill") {
			return true
		}
	}
	return false
}
