// Package scenario replays scripted frame trees against a form forest.
//
// A scenario declares frames, each with a URL and an HTML document, and a
// list of steps. Steps submit a frame's forms, move frames between
// processes, erase or navigate frames, check the resulting browser forms
// and fill them from a profile.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/formforest/pkg/autofill/form"
)

// Scenario is the root of a scenario file.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Frames are declared parents first. The first frame is the main frame.
	Frames []Frame `yaml:"frames"`

	// Profile holds the values fill steps offer per field type.
	Profile map[form.FieldType]string `yaml:"profile"`

	Steps []Step `yaml:"steps"`
}

// Frame declares one frame of the page.
type Frame struct {
	Name   string `yaml:"name"`
	Parent string `yaml:"parent"`
	URL    string `yaml:"url"`
	HTML   string `yaml:"html"`

	// IFrame is the index of the frame's <iframe> element in the parent's
	// document. Defaults to the frame's position among its declared
	// siblings.
	IFrame *int `yaml:"iframe"`

	CrossProcess   bool `yaml:"cross_process"`
	Fenced         bool `yaml:"fenced"`
	SharedAutofill bool `yaml:"shared_autofill"`
}

// Step is one action. Exactly one field is set.
type Step struct {
	// Update parses the named frame's HTML and submits all its forms.
	Update string `yaml:"update,omitempty"`

	// Erase removes the named frame and its descendants from the page.
	Erase string `yaml:"erase,omitempty"`

	Swap     *SwapStep     `yaml:"swap,omitempty"`
	Navigate *NavigateStep `yaml:"navigate,omitempty"`
	Expect   *ExpectStep   `yaml:"expect,omitempty"`
	Fill     *FillStep     `yaml:"fill,omitempty"`
}

// SwapStep moves a frame into a new process. The forest forgets the old
// document; the frame must be updated again to report its forms.
type SwapStep struct {
	Frame        string `yaml:"frame"`
	CrossProcess bool   `yaml:"cross_process"`
}

// NavigateStep replaces a frame's document, keeping the frame's node.
type NavigateStep struct {
	Frame string `yaml:"frame"`
	URL   string `yaml:"url"`
	HTML  string `yaml:"html"`
}

// FormRef names a form by frame and renderer id. Without a renderer id the
// frame's first <form> is meant, or its unowned-field form if it has none.
type FormRef struct {
	Frame string `yaml:"frame"`
	Form  *int   `yaml:"form"`
}

// ExpectStep checks the browser form containing a renderer form.
type ExpectStep struct {
	FormRef `yaml:",inline"`

	// Fields lists the browser form's field names in order.
	Fields []string `yaml:"fields"`

	// Missing expects the form to be unknown to the forest.
	Missing bool `yaml:"missing"`
}

// FillStep fills the browser form containing a renderer form from the
// scenario profile, triggered on a named field.
type FillStep struct {
	FormRef `yaml:",inline"`

	// Trigger is the name attribute of the field autofill is triggered on.
	Trigger      string `yaml:"trigger"`
	TriggerFrame string `yaml:"trigger_frame"`

	// Filled lists the names of the fields expected to receive a value.
	Filled []string `yaml:"expect_filled"`
}

// Kind returns the name of the step's action.
func (s Step) Kind() string {
	switch {
	case s.Update != "":
		return "update"
	case s.Erase != "":
		return "erase"
	case s.Swap != nil:
		return "swap"
	case s.Navigate != nil:
		return "navigate"
	case s.Expect != nil:
		return "expect"
	case s.Fill != nil:
		return "fill"
	default:
		return ""
	}
}

func (s Step) actions() int {
	n := 0
	for _, set := range []bool{s.Update != "", s.Erase != "", s.Swap != nil, s.Navigate != nil, s.Expect != nil, s.Fill != nil} {
		if set {
			n++
		}
	}
	return n
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a scenario.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks frame declarations and step references.
func (s *Scenario) Validate() error {
	if len(s.Frames) == 0 {
		return fmt.Errorf("scenario declares no frames")
	}

	declared := make(map[string]bool, len(s.Frames))
	for i, f := range s.Frames {
		if f.Name == "" {
			return fmt.Errorf("frame %d: name is required", i)
		}
		if declared[f.Name] {
			return fmt.Errorf("frame %q declared twice", f.Name)
		}
		if i == 0 && f.Parent != "" {
			return fmt.Errorf("frame %q: the first frame is the main frame and has no parent", f.Name)
		}
		if i > 0 && !declared[f.Parent] {
			return fmt.Errorf("frame %q: parent %q must be declared before it", f.Name, f.Parent)
		}
		if _, err := form.ParseOrigin(f.URL); err != nil {
			return fmt.Errorf("frame %q: %w", f.Name, err)
		}
		declared[f.Name] = true
	}

	for t := range s.Profile {
		if !t.IsKnown() {
			return fmt.Errorf("profile: unknown field type %q", t)
		}
	}

	for i, step := range s.Steps {
		if n := step.actions(); n != 1 {
			return fmt.Errorf("step %d: expected exactly one action, got %d", i+1, n)
		}
		for _, name := range step.frames() {
			if !declared[name] {
				return fmt.Errorf("step %d (%s): unknown frame %q", i+1, step.Kind(), name)
			}
		}
	}
	return nil
}

func (s Step) frames() []string {
	switch {
	case s.Update != "":
		return []string{s.Update}
	case s.Erase != "":
		return []string{s.Erase}
	case s.Swap != nil:
		return []string{s.Swap.Frame}
	case s.Navigate != nil:
		return []string{s.Navigate.Frame}
	case s.Expect != nil:
		return []string{s.Expect.Frame}
	case s.Fill != nil:
		if s.Fill.TriggerFrame != "" {
			return []string{s.Fill.Frame, s.Fill.TriggerFrame}
		}
		return []string{s.Fill.Frame}
	}
	return nil
}
